package docstore

import (
	"reflect"
	"strings"
	"time"
)

// Value comparison used by MemoryStore. Types are ordered the way document
// stores usually do it: nil < bool < number < time < string. Values of
// different types never compare equal.

func typeRank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	}
	return 5
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// compareValues returns -1, 0 or 1. ok is false when the values are not
// comparable (different types, or types without an order).
func compareValues(a, b any) (c int, ok bool) {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1, false
		}
		return 1, false
	}
	switch ra {
	case 0:
		return 0, true
	case 1:
		x, y := a.(bool), b.(bool)
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	case 2:
		x, _ := toFloat(a)
		y, _ := toFloat(b)
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case 3:
		return a.(time.Time).Compare(b.(time.Time)), true
	case 4:
		return strings.Compare(a.(string), b.(string)), true
	}
	if reflect.DeepEqual(a, b) {
		return 0, true
	}
	return 0, false
}

func valuesEqual(a, b any) bool {
	c, ok := compareValues(a, b)
	return ok && c == 0
}

func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func matches(fields Fields, f Filter) bool {
	v, present := fields[f.Field]
	switch f.Op {
	case OpEqual:
		return present && valuesEqual(v, f.Value)
	case OpNotEqual:
		return present && !valuesEqual(v, f.Value)
	case OpIn:
		if !present {
			return false
		}
		list, _ := asSlice(f.Value)
		for _, item := range list {
			if valuesEqual(v, item) {
				return true
			}
		}
		return false
	case OpArrayContains:
		list, ok := asSlice(v)
		if !present || !ok {
			return false
		}
		for _, item := range list {
			if valuesEqual(item, f.Value) {
				return true
			}
		}
		return false
	}
	if !present {
		return false
	}
	c, ok := compareValues(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpLess:
		return c < 0
	case OpLessOrEqual:
		return c <= 0
	case OpGreater:
		return c > 0
	case OpGreaterOrEqual:
		return c >= 0
	}
	return false
}
