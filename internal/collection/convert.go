package collection

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode converts a record into a typed view. Struct fields are matched by
// their json tag; unknown record fields are ignored. Timestamps may be
// time.Time values or RFC 3339 strings.
func Decode(rec Record, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
		),
	})
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := dec.Decode(rec); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// DecodeAll decodes a list of records into a slice of typed views.
func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		var v T
		if err := Decode(r, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Encode converts a typed view into a record using json tag names.
// Fields tagged omitempty are left out when zero, so a partially filled
// struct can be used as an update payload. Untagged embedded structs are
// flattened the way encoding/json does.
func Encode(v any) (Record, error) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("encode record: expected struct, got %s", rv.Kind())
	}
	rec := Record{}
	encodeFields(rv, rec)
	// ids and timestamps are owned by the store
	delete(rec, FieldID)
	delete(rec, FieldCreatedAt)
	delete(rec, FieldUpdatedAt)
	return rec, nil
}

func encodeFields(rv reflect.Value, rec Record) {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		fv := rv.Field(i)
		if sf.Anonymous && sf.Tag.Get("json") == "" {
			if fv.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
			}
			if fv.Kind() == reflect.Struct {
				encodeFields(fv, rec)
				continue
			}
		}
		if !sf.IsExported() || !fv.CanInterface() {
			continue
		}
		name, omitEmpty := jsonName(sf)
		if name == "-" {
			continue
		}
		if omitEmpty && fv.IsZero() {
			continue
		}
		rec[name] = fv.Interface()
	}
}

func jsonName(sf reflect.StructField) (string, bool) {
	tag := sf.Tag.Get("json")
	if tag == "" {
		return sf.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = sf.Name
	}
	return name, strings.Contains(","+opts+",", ",omitempty,")
}
