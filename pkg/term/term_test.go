package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
)

type bag []any

func (b bag) All() []any { return b }

func raws(ts []Term) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t.Raw()
	}
	return out
}

func TestFlatten_FlatInputUnchanged(t *testing.T) {
	args := Values("a", 1, true, "a")
	assert.Equal(t, args, Flatten(args))
}

func TestFlatten_Idempotent(t *testing.T) {
	args := []Term{Of("a"), List(Of("b"), List(Of("c"))), Of([]any{"d", []any{"e"}})}
	once := Flatten(args)
	assert.Equal(t, once, Flatten(once))
	assert.Equal(t, []any{"a", "b", "c", "d", "e"}, raws(once))
}

func TestFlatten_DeepNesting(t *testing.T) {
	nested := List(Of(5))
	for i := 4; i >= 1; i-- {
		nested = List(Of(i), nested)
	}
	assert.Equal(t, []any{1, 2, 3, 4, 5}, raws(Flatten([]Term{nested})))
}

func TestFlatten_PreservesDuplicatesAndOrder(t *testing.T) {
	args := []Term{Of("x"), List(Of("x"), Of("y")), Of("x")}
	assert.Equal(t, []any{"x", "x", "y", "x"}, raws(Flatten(args)))
}

func TestFlatten_ExpandsCollectionsAndTermSlices(t *testing.T) {
	args := []Term{Of(bag{"v1", "v2"}), Of([]Term{Of("v3"), List(Of("v4"))})}
	assert.Equal(t, []any{"v1", "v2", "v3", "v4"}, raws(Flatten(args)))
}

func TestFlatten_EmptyLists(t *testing.T) {
	assert.Empty(t, Flatten(nil))
	assert.Empty(t, Flatten([]Term{List(), List(List())}))
}

func TestOf_TermIsReturnedUnchanged(t *testing.T) {
	inner := List(Of(1))
	assert.Equal(t, inner, Of(inner))
	assert.True(t, Of(inner).IsList())
}

func TestAs(t *testing.T) {
	s, err := As[string](Of("vertex"))
	require.NoError(t, err)
	assert.Equal(t, "vertex", s)

	_, err = As[string](Of(12))
	require.Error(t, err)
	assert.True(t, sdkerrors.IsValueShape(err))

	items, err := As[[]Term](List(Of(1), Of(2)))
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestNumber(t *testing.T) {
	for _, v := range []any{3, int64(3), float32(3), uint8(3), 3.0} {
		n, err := Number(Of(v))
		require.NoError(t, err)
		assert.Equal(t, 3.0, n)
	}

	_, err := Number(Of("3"))
	assert.True(t, sdkerrors.IsValueShape(err))
}

func TestString(t *testing.T) {
	assert.Equal(t, "[a [1 true]]", List(Of("a"), List(Of(1), Of(true))).String())
	assert.True(t, Of(nil).IsNil())
	assert.False(t, List().IsNil())
}
