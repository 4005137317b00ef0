package docstore

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Op string

const (
	OpEqual          Op = "=="
	OpNotEqual       Op = "!="
	OpLess           Op = "<"
	OpLessOrEqual    Op = "<="
	OpGreater        Op = ">"
	OpGreaterOrEqual Op = ">="
	OpIn             Op = "in"
	OpArrayContains  Op = "array-contains"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type FilterKind int

const (
	KindWhere FilterKind = iota
	KindOrderBy
	KindLimit
)

// Filter is one clause of a query. Queries apply their filters in order:
// where clauses restrict, order-by clauses sort (earlier clauses take
// precedence) and a limit caps the result.
type Filter struct {
	Kind      FilterKind
	Field     string
	Op        Op
	Value     any
	Direction Direction
	N         int
}

func Where(field string, op Op, value any) Filter {
	return Filter{Kind: KindWhere, Field: field, Op: op, Value: value}
}

func OrderBy(field string, dir Direction) Filter {
	if dir != Desc {
		dir = Asc
	}
	return Filter{Kind: KindOrderBy, Field: field, Direction: dir}
}

func Limit(n int) Filter {
	return Filter{Kind: KindLimit, N: n}
}

func (f Filter) String() string {
	switch f.Kind {
	case KindWhere:
		return fmt.Sprintf("where %s %s %v", f.Field, f.Op, f.Value)
	case KindOrderBy:
		return fmt.Sprintf("orderBy %s %s", f.Field, f.Direction)
	case KindLimit:
		return fmt.Sprintf("limit %d", f.N)
	}
	return "unknown filter"
}

// Validate rejects filters no store can execute.
func (f Filter) Validate() error {
	switch f.Kind {
	case KindWhere:
		if f.Field == "" {
			return fmt.Errorf("where: empty field")
		}
		switch f.Op {
		case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual, OpArrayContains:
		case OpIn:
			if _, ok := asSlice(f.Value); !ok {
				return fmt.Errorf("where %s in: value must be a list", f.Field)
			}
		default:
			return fmt.Errorf("where %s: unsupported operator %q", f.Field, f.Op)
		}
	case KindOrderBy:
		if f.Field == "" {
			return fmt.Errorf("orderBy: empty field")
		}
	case KindLimit:
		if f.N < 0 {
			return fmt.Errorf("limit: negative value %d", f.N)
		}
	default:
		return fmt.Errorf("unknown filter kind %d", f.Kind)
	}
	return nil
}

var symbolOps = []Op{OpGreaterOrEqual, OpLessOrEqual, OpNotEqual, OpEqual, OpGreater, OpLess}

// ParseWhere parses an expression such as "status==pending",
// "partySize>=int:4" or "category in food,drink". Values stay strings unless
// they carry a type prefix (int:, float:, bool:, time:). A quoted value is
// always a string, so "note=='int:4'" compares against the text int:4.
func ParseWhere(expr string) (Filter, error) {
	field, op, raw, ok := splitWhere(expr)
	if !ok {
		return Filter{}, fmt.Errorf("cannot parse filter %q", expr)
	}
	if op == OpIn {
		parts := strings.Split(raw, ",")
		vals := make([]any, 0, len(parts))
		for _, p := range parts {
			v, err := ParseValue(strings.TrimSpace(p))
			if err != nil {
				return Filter{}, fmt.Errorf("filter %q: %w", expr, err)
			}
			vals = append(vals, v)
		}
		return Where(field, op, vals), nil
	}
	v, err := ParseValue(raw)
	if err != nil {
		return Filter{}, fmt.Errorf("filter %q: %w", expr, err)
	}
	return Where(field, op, v), nil
}

// splitWhere finds the leftmost operator in expr. On a tie the longer
// symbol wins, so "a>=b" splits on ">=" rather than ">".
func splitWhere(expr string) (field string, op Op, raw string, ok bool) {
	at, width := -1, 0
	pick := func(o Op, i, w int) {
		if i > 0 && (at < 0 || i < at) {
			op, at, width = o, i, w
		}
	}
	for _, o := range symbolOps {
		pick(o, strings.Index(expr, string(o)), len(o))
	}
	for _, o := range []Op{OpArrayContains, OpIn} {
		sep := " " + string(o) + " "
		pick(o, strings.Index(expr, sep), len(sep))
	}
	if at < 0 {
		return "", "", "", false
	}
	field = strings.TrimSpace(expr[:at])
	if field == "" {
		return "", "", "", false
	}
	return field, op, strings.TrimSpace(expr[at+width:]), true
}

// ParseValue reads one filter operand. See ParseWhere for the syntax.
func ParseValue(s string) (any, error) {
	if n := len(s); n >= 2 && (s[0] == '"' && s[n-1] == '"' || s[0] == '\'' && s[n-1] == '\'') {
		return s[1 : n-1], nil
	}
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return s, nil
	}
	switch kind {
	case "int":
		n, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int %q", rest)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(rest, 64)
		if err != nil {
			return nil, fmt.Errorf("bad float %q", rest)
		}
		return f, nil
	case "bool":
		switch rest {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("bad bool %q", rest)
	case "time":
		return ParseTime(rest)
	}
	return s, nil
}

// ParseTime accepts RFC 3339 timestamps and plain dates (2006-01-02, UTC).
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("bad time %q: want RFC 3339 or YYYY-MM-DD", s)
}
