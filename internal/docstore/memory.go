package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by tests, the CLI dry-run mode and
// the "memory" backend. Every write gets a distinct timestamp, strictly later
// than the previous one.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
	now         func() time.Time
	last        time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock replaces the wall clock used to resolve ServerTimestamp.
func WithClock(now func() time.Time) MemoryOption {
	return func(m *MemoryStore) {
		m.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	m := &MemoryStore{
		collections: make(map[string]map[string]Fields),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// tick must be called with mu held.
func (m *MemoryStore) tick() time.Time {
	t := m.now()
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *MemoryStore) resolve(dst Fields, src Fields, at time.Time) {
	for k, v := range src {
		if IsServerTimestamp(v) {
			dst[k] = at
			continue
		}
		dst[k] = copyValue(v)
	}
}

func (m *MemoryStore) Add(ctx context.Context, collection string, fields Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		col = make(map[string]Fields)
		m.collections[collection] = col
	}
	id := uuid.NewString()
	doc := make(Fields, len(fields))
	m.resolve(doc, fields, m.tick())
	col[id] = doc
	return id, nil
}

func (m *MemoryStore) Merge(ctx context.Context, collection, id string, fields Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return ErrNotFound
	}
	m.resolve(doc, fields, m.tick())
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.collections[collection], id)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Fields: copyFields(doc)}, nil
}

func (m *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, f := range filters {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("invalid query: %w", err)
		}
	}

	m.mu.RLock()
	out := make([]Document, 0, len(m.collections[collection]))
	for id, doc := range m.collections[collection] {
		if matchesAll(doc, filters) {
			out = append(out, Document{ID: id, Fields: copyFields(doc)})
		}
	}
	m.mu.RUnlock()

	// map iteration order is random; sort by id so unordered queries are stable
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	var orders []Filter
	limit := -1
	for _, f := range filters {
		switch f.Kind {
		case KindOrderBy:
			orders = append(orders, f)
		case KindLimit:
			limit = f.N
		}
	}
	if len(orders) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range orders {
				c, _ := compareValues(out[i].Fields[o.Field], out[j].Fields[o.Field])
				if c == 0 {
					continue
				}
				if o.Direction == Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func matchesAll(doc Fields, filters []Filter) bool {
	for _, f := range filters {
		if f.Kind == KindWhere && !matches(doc, f) {
			return false
		}
	}
	return true
}

func copyFields(src Fields) Fields {
	out := make(Fields, len(src))
	for k, v := range src {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue copies nested maps and slices so stored documents never share
// memory with callers. Typed slices and maps are copied one level deep.
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		return copyFields(t)
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(out, rv)
		return out.Interface()
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), iter.Value())
		}
		return out.Interface()
	}
	return v
}
