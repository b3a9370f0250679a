package docstore

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

// Operator is a comparison operator of a filter.
type Operator string

// Filter operators.
const (
	Eq Operator = "=="
	Ne Operator = "!="
	Lt Operator = "<"
	Le Operator = "<="
	Gt Operator = ">"
	Ge Operator = ">="
)

// Filter compares a document field with a value. Field may be a dotted path
// into nested maps. A missing field never matches, whatever the operator.
type Filter struct {
	Field string
	Op    Operator
	Value any
}

// Where builds a filter.
func Where(field string, op Operator, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

func validField(path string) bool {
	return fieldPattern.MatchString(path)
}

func (f Filter) validate() error {
	if !validField(f.Field) {
		return fmt.Errorf("invalid filter field %q", f.Field)
	}
	switch f.Op {
	case Eq, Ne, Lt, Le, Gt, Ge:
	default:
		return fmt.Errorf("unsupported operator %q", f.Op)
	}
	return nil
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %v", f.Field, f.Op, f.Value)
}

// Match reports whether fields satisfy the filter.
func (f Filter) Match(fields map[string]any) bool {
	v, ok := lookup(fields, f.Field)
	if !ok {
		return false
	}
	c, comparable := compare(v, f.Value)
	if !comparable {
		// Values of different kinds are only ever unequal.
		return f.Op == Ne
	}
	switch f.Op {
	case Eq:
		return c == 0
	case Ne:
		return c != 0
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	return false
}

// MatchAll reports whether fields satisfy every filter.
func MatchAll(fields map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !f.Match(fields) {
			return false
		}
	}
	return true
}

func lookup(fields map[string]any, path string) (any, bool) {
	var cur any = fields
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// setPath assigns value at a dotted path, creating intermediate maps.
func setPath(fields map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	cur := fields
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// compare orders a and b when they are of the same kind.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		switch {
		case av == bv:
			return 0, true
		case !av:
			return -1, true
		}
		return 1, true
	case nil:
		if b == nil {
			return 0, true
		}
		return 0, false
	}

	if reflect.DeepEqual(a, b) {
		return 0, true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
