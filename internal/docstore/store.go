package docstore

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("document not found")
)

// Fields is the raw field mapping of a stored document.
type Fields = map[string]any

// serverTimestamp is the type of the ServerTimestamp sentinel.
type serverTimestamp struct{}

// ServerTimestamp may be used as a field value on Add and Merge. The store
// replaces it with its own clock at write time.
var ServerTimestamp = serverTimestamp{}

// IsServerTimestamp reports whether v is the ServerTimestamp sentinel.
func IsServerTimestamp(v any) bool {
	_, ok := v.(serverTimestamp)
	return ok
}

// Document is a stored document as returned by Get and Query.
type Document struct {
	ID     string
	Fields Fields
}

// Store is the document database client wrapped by collection accessors.
// Implementations must be safe for concurrent use.
type Store interface {
	// Add inserts a new document and returns the id assigned by the store.
	Add(ctx context.Context, collection string, fields Fields) (string, error)
	// Merge sets the given fields on an existing document, leaving the others
	// untouched. Returns ErrNotFound when the document does not exist.
	Merge(ctx context.Context, collection, id string, fields Fields) error
	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Get returns ErrNotFound when the document does not exist.
	Get(ctx context.Context, collection, id string) (Document, error)
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
	Ping(ctx context.Context) error
}
