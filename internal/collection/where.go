package collection

import (
	"fmt"

	"github.com/gazra/gazra/backend/go-services/internal/docstore"
)

// ParseWhere parses a where expression with docstore.ParseWhere. Untyped
// values compared against createdAt or updatedAt are read as timestamps,
// because the accessor always stores those fields as times.
func ParseWhere(expr string) (docstore.Filter, error) {
	f, err := docstore.ParseWhere(expr)
	if err != nil {
		return f, err
	}
	if f.Field != FieldCreatedAt && f.Field != FieldUpdatedAt {
		return f, nil
	}
	switch v := f.Value.(type) {
	case string:
		t, err := docstore.ParseTime(v)
		if err != nil {
			return docstore.Filter{}, fmt.Errorf("filter %q: %w", expr, err)
		}
		f.Value = t
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				continue
			}
			t, err := docstore.ParseTime(s)
			if err != nil {
				return docstore.Filter{}, fmt.Errorf("filter %q: %w", expr, err)
			}
			v[i] = t
		}
	}
	return f, nil
}
