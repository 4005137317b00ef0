// Package collection provides the accessor every site component uses to read
// and write one named collection of the document store.
package collection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gazra/gazra/backend/go-services/internal/docstore"
	"github.com/gazra/gazra/backend/go-services/pkg/logger"
	"github.com/gazra/gazra/backend/go-services/pkg/metrics"
)

const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

var (
	ErrEmptyName = errors.New("collection name must not be empty")
	ErrNotFound  = docstore.ErrNotFound
	errEmptyID   = errors.New("document id must not be empty")
)

// Collection is bound to a single collection of a document store. It holds
// no state across calls apart from the Loading/LastError projection.
type Collection struct {
	store docstore.Store
	name  string

	mu        sync.Mutex
	inFlight  int
	lastError string
}

// New binds an accessor to the named collection of store.
func New(store docstore.Store, name string) (*Collection, error) {
	if name == "" {
		return nil, ErrEmptyName
	}
	if store == nil {
		return nil, errors.New("document store must not be nil")
	}
	return &Collection{store: store, name: name}, nil
}

// MustNew is New for package-level wiring where a bad name is a programming error.
func MustNew(store docstore.Store, name string) *Collection {
	c, err := New(store, name)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Collection) Name() string { return c.name }

// Loading reports whether a call is in progress.
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// LastError is the message of the most recent failed call, cleared when a
// new call starts.
func (c *Collection) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

func (c *Collection) begin(op string) func(err error) {
	c.mu.Lock()
	c.inFlight++
	c.lastError = ""
	c.mu.Unlock()
	start := time.Now()

	return func(err error) {
		metrics.CollectionOpDuration.WithLabelValues(c.name, op).Observe(time.Since(start).Seconds())
		outcome := "success"
		c.mu.Lock()
		c.inFlight--
		if err != nil {
			outcome = "error"
			if errors.Is(err, ErrNotFound) {
				outcome = "not_found"
				c.lastError = NotFoundMessage
			} else {
				c.lastError = err.Error()
			}
		}
		c.mu.Unlock()
		metrics.CollectionOps.WithLabelValues(c.name, op, outcome).Inc()
		if err != nil && outcome == "error" {
			logger.With("collection", c.name, "op", op).Warnf("operation failed: %v", err)
		}
	}
}

// writable copies payload without the fields the accessor manages itself.
func writable(payload Record) docstore.Fields {
	out := make(docstore.Fields, len(payload)+2)
	for k, v := range payload {
		switch k {
		case FieldID, FieldCreatedAt, FieldUpdatedAt:
			continue
		}
		out[k] = v
	}
	return out
}

func withID(doc docstore.Document) Record {
	rec := make(Record, len(doc.Fields)+1)
	for k, v := range doc.Fields {
		rec[k] = v
	}
	rec[FieldID] = doc.ID
	return rec
}

// Create inserts payload as a new record, stamping createdAt and updatedAt
// with the store's clock. Any id or timestamp fields in payload are ignored.
func (c *Collection) Create(ctx context.Context, payload Record) Result[Record] {
	done := c.begin("create")
	fields := writable(payload)
	fields[FieldCreatedAt] = docstore.ServerTimestamp
	fields[FieldUpdatedAt] = docstore.ServerTimestamp

	id, err := c.store.Add(ctx, c.name, fields)
	done(err)
	if err != nil {
		return fail[Record](err)
	}
	logger.Debugf("created %s/%s", c.name, id)
	return Result[Record]{Success: true, ID: id}
}

// Update merges payload into an existing record and refreshes updatedAt.
// Fields absent from payload are preserved. Updating a record that does not
// exist fails with "Document not found".
func (c *Collection) Update(ctx context.Context, id string, payload Record) Result[Record] {
	done := c.begin("update")
	if id == "" {
		done(errEmptyID)
		return fail[Record](errEmptyID)
	}
	fields := writable(payload)
	fields[FieldUpdatedAt] = docstore.ServerTimestamp

	err := c.store.Merge(ctx, c.name, id, fields)
	done(err)
	if err != nil {
		return fail[Record](err)
	}
	return Result[Record]{Success: true}
}

// Delete removes the record unconditionally.
func (c *Collection) Delete(ctx context.Context, id string) Result[Record] {
	done := c.begin("delete")
	if id == "" {
		done(errEmptyID)
		return fail[Record](errEmptyID)
	}
	err := c.store.Delete(ctx, c.name, id)
	done(err)
	if err != nil {
		return fail[Record](err)
	}
	return Result[Record]{Success: true}
}

// List returns every record matching filters, in store order unless an
// OrderBy filter is given. Each record carries its id under "id".
func (c *Collection) List(ctx context.Context, filters ...docstore.Filter) Result[[]Record] {
	done := c.begin("list")
	docs, err := c.store.Query(ctx, c.name, filters...)
	done(err)
	if err != nil {
		return fail[[]Record](err)
	}
	out := make([]Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, withID(d))
	}
	return Result[[]Record]{Success: true, Data: out}
}

// GetOne fetches a single record by id.
func (c *Collection) GetOne(ctx context.Context, id string) Result[Record] {
	done := c.begin("get")
	if id == "" {
		done(ErrNotFound)
		return fail[Record](ErrNotFound)
	}
	doc, err := c.store.Get(ctx, c.name, id)
	done(err)
	if err != nil {
		return fail[Record](err)
	}
	return Result[Record]{Success: true, Data: withID(doc)}
}
