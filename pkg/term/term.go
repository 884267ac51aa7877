// Package term defines the opaque value unit passed between actions and the
// flattening of nested argument sequences.
package term

import (
	"fmt"
	"strings"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

// Term is a type-erased value or an ordered list of terms
type Term struct {
	value any
	items []Term
	list  bool
}

// Of wraps a raw value. A Term passed to Of is returned unchanged.
func Of(v any) Term {
	if t, ok := v.(Term); ok {
		return t
	}
	return Term{value: v}
}

// List builds a nested list term
func List(items ...Term) Term {
	cp := make([]Term, len(items))
	copy(cp, items)
	return Term{items: cp, list: true}
}

// Values wraps each raw value in a Term
func Values(vs ...any) []Term {
	out := make([]Term, len(vs))
	for i, v := range vs {
		out[i] = Of(v)
	}
	return out
}

// Raw returns the wrapped value. For list terms it returns a copy of the items.
func (t Term) Raw() any {
	if t.list {
		return t.Items()
	}
	return t.value
}

// IsList reports whether t is a nested list
func (t Term) IsList() bool {
	return t.list
}

// IsNil reports whether t carries no value
func (t Term) IsNil() bool {
	return !t.list && t.value == nil
}

// Items returns a copy of the list items, or nil for scalar terms
func (t Term) Items() []Term {
	if !t.list {
		return nil
	}
	cp := make([]Term, len(t.items))
	copy(cp, t.items)
	return cp
}

func (t Term) String() string {
	if !t.list {
		return fmt.Sprint(t.value)
	}
	parts := make([]string, len(t.items))
	for i, it := range t.items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// As narrows t to T. A mismatch is reported as a value shape error.
func As[T any](t Term) (T, error) {
	v, ok := t.Raw().(T)
	if !ok {
		var zero T
		return zero, sdkerrors.NewValueShapeError(fmt.Sprintf("%T", zero), t.Raw())
	}
	return v, nil
}

// Number narrows t to a float64, accepting any Go numeric type
func Number(t Term) (float64, error) {
	switch n := t.Raw().(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	default:
		return 0, sdkerrors.NewValueShapeError("number", t.Raw())
	}
}
