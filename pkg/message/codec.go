package message

import (
	"bytes"
	"encoding/json"
	"fmt"

	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

// HandleKey is the single key of an encoded handle object: {"$handle": "<id>"}
const HandleKey = "$handle"

// HandleStore resolves handle ids. *handles.Store implements it.
type HandleStore interface {
	Put(handle any) string
	Get(id string) (any, bool)
}

// Codec converts between JSON values and terms.
//
//   - JSON arrays decode to list terms and list terms encode to arrays
//   - {"$handle": id} decodes to the stored handle; graph handles encode that way
//   - collection values encode to arrays of their elements
//   - everything else goes through encoding/json, so numbers decode as float64
type Codec struct {
	handles HandleStore
}

// NewCodec creates a codec backed by store
func NewCodec(store HandleStore) *Codec {
	return &Codec{handles: store}
}

type rawCollection interface {
	All() []any
}

type termCollection interface {
	All() []term.Term
}

// DecodeArguments decodes each raw argument
func (c *Codec) DecodeArguments(raw []json.RawMessage) ([]term.Term, error) {
	out := make([]term.Term, len(raw))
	for i, r := range raw {
		t, err := c.DecodeTerm(r)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// DecodeTerm decodes one JSON value
func (c *Codec) DecodeTerm(raw json.RawMessage) (term.Term, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return term.Of(nil), nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return term.Term{}, sdkerrors.NewBadRequestError("", "invalid JSON argument", "INVALID_ARGUMENT", err)
	}
	return c.FromValue(v)
}

// FromValue converts a decoded JSON value (or a YAML value with the same shapes) to a term
func (c *Codec) FromValue(v any) (term.Term, error) {
	switch x := v.(type) {
	case []any:
		items := make([]term.Term, len(x))
		for i, it := range x {
			t, err := c.FromValue(it)
			if err != nil {
				return term.Term{}, err
			}
			items[i] = t
		}
		return term.List(items...), nil
	case map[string]any:
		if id, ok := handleID(x); ok {
			return c.resolve(id)
		}
		return term.Of(x), nil
	default:
		return term.Of(v), nil
	}
}

func handleID(m map[string]any) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	id, ok := m[HandleKey].(string)
	return id, ok
}

func (c *Codec) resolve(id string) (term.Term, error) {
	if c.handles == nil {
		return term.Term{}, sdkerrors.NewNotFoundError(id, "no handle store configured", "HANDLE_NOT_FOUND")
	}
	h, ok := c.handles.Get(id)
	if !ok {
		return term.Term{}, sdkerrors.NewNotFoundError(id, "unknown handle", "HANDLE_NOT_FOUND")
	}
	return term.Of(h), nil
}

// EncodeTerms encodes each term
func (c *Codec) EncodeTerms(ts []term.Term) ([]json.RawMessage, error) {
	out := make([]json.RawMessage, len(ts))
	for i, t := range ts {
		raw, err := c.EncodeTerm(t)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i, err)
		}
		out[i] = raw
	}
	return out, nil
}

// EncodeTerm encodes one term, registering graph handles in the store
func (c *Codec) EncodeTerm(t term.Term) (json.RawMessage, error) {
	v, err := c.ToValue(t)
	if err != nil {
		return nil, err
	}
	return json.Marshal(v)
}

// ToValue converts a term into a JSON-marshalable value
func (c *Codec) ToValue(t term.Term) (any, error) {
	if t.IsList() {
		return c.toValues(t.Items())
	}

	switch x := t.Raw().(type) {
	case graph.Queryer:
		if c.handles == nil {
			return nil, sdkerrors.NewInternalError("", "cannot encode handle without a handle store", "NO_HANDLE_STORE", nil)
		}
		return map[string]any{HandleKey: c.handles.Put(x)}, nil
	case rawCollection:
		return c.toValues(term.Values(x.All()...))
	case termCollection:
		return c.toValues(x.All())
	case []term.Term:
		return c.toValues(x)
	default:
		return x, nil
	}
}

func (c *Codec) toValues(ts []term.Term) ([]any, error) {
	out := make([]any, len(ts))
	for i, it := range ts {
		v, err := c.ToValue(it)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Handle encodes a handle reference for use as an invocation argument
func Handle(id string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{HandleKey: id})
	return raw
}

// Value encodes v for use as an invocation argument
func Value(v any) (json.RawMessage, error) {
	return json.Marshal(v)
}

// MustValue is Value that panics on error, for literals in tests and examples
func MustValue(v any) json.RawMessage {
	raw, err := Value(v)
	if err != nil {
		panic(err)
	}
	return raw
}

// HandleIDOf extracts the handle id from an encoded output
func HandleIDOf(raw json.RawMessage) (string, bool) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return "", false
	}
	return handleID(m)
}
