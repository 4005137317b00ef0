package collection

import (
	"encoding/json"
	"errors"
	"reflect"
)

// NotFoundMessage is the error text returned by GetOne (and Update) when the
// document does not exist.
const NotFoundMessage = "Document not found"

// Record is a schema-less document: field name to value.
type Record = map[string]any

// Result is the uniform outcome of every accessor call. Failures carry the
// store's message verbatim in Error; nothing is returned as a Go error.
type Result[T any] struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// MarshalJSON writes data only for successful results, and always writes it
// for a successful list, even when empty.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": r.Success}
	if r.ID != "" {
		out["id"] = r.ID
	}
	if r.Error != "" {
		out["error"] = r.Error
	}
	if r.Success && !isNil(r.Data) {
		out["data"] = r.Data
	}
	return json.Marshal(out)
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// Err returns nil for a successful result and an error carrying the message
// otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	if r.Error == NotFoundMessage {
		return ErrNotFound
	}
	return errors.New(r.Error)
}

// NotFound reports whether the result is the synthetic "Document not found"
// failure.
func (r Result[T]) NotFound() bool {
	return !r.Success && r.Error == NotFoundMessage
}

func fail[T any](err error) Result[T] {
	msg := err.Error()
	if errors.Is(err, ErrNotFound) {
		msg = NotFoundMessage
	}
	return Result[T]{Success: false, Error: msg}
}
