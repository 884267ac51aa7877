package graphactions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wehubfusion/Daedalus/pkg/collection"
	"github.com/wehubfusion/Daedalus/pkg/dispatch"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

func run(t *testing.T, action dispatch.Action, strategy iteration.Strategy, args ...any) ([]term.Term, error) {
	t.Helper()
	out := collection.New[term.Term](strategy)
	err := action.Execute(context.Background(), strategy, term.Values(args...), out)
	return out.All(), err
}

func raws(ts []term.Term) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = t.Raw()
	}
	return out
}

// sample builds a -> b -> c, a -> c in a directed graph
func sample(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(graph.DirectedSparse)
	for _, e := range [][3]string{{"ab", "a", "b"}, {"bc", "b", "c"}, {"ac", "a", "c"}} {
		_, err := g.AddEdge(e[0], e[1], e[2], graph.DefaultEdgeType)
		require.NoError(t, err)
	}
	_, err := g.AddVertex("d")
	require.NoError(t, err)
	return g
}

func TestCreate(t *testing.T) {
	outputs, err := run(t, Create(), iteration.StrategySequential, "sparse", "bogus", "DIRECTEDSPARSE")
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	kinds := make([]graph.Kind, len(outputs))
	for i, o := range outputs {
		g, ok := o.Raw().(*graph.Graph)
		require.True(t, ok)
		kinds[i] = g.Kind()
	}
	assert.Equal(t, []graph.Kind{graph.Sparse, graph.Sparse, graph.DirectedSparse}, kinds)
	assert.NotSame(t, outputs[0].Raw(), outputs[1].Raw(), "each name creates a distinct graph")
}

func TestCreate_NestedAndNonStringNames(t *testing.T) {
	out := collection.New[term.Term](iteration.StrategySequential)
	args := []term.Term{term.List(term.Of("undirectedsparsemulti"), term.Of(42)), term.Of(nil)}
	require.NoError(t, Create().Execute(context.Background(), iteration.StrategySequential, args, out))

	require.Equal(t, 3, out.Len())
	assert.Equal(t, graph.UndirectedSparseMulti, out.At(0).Raw().(*graph.Graph).Kind())
	assert.Equal(t, graph.Sparse, out.At(1).Raw().(*graph.Graph).Kind())
	assert.Equal(t, graph.Sparse, out.At(2).Raw().(*graph.Graph).Kind())
}

func TestCreate_NoNames(t *testing.T) {
	_, err := run(t, Create(), iteration.StrategySequential)
	require.Error(t, err)
	assert.True(t, sdkerrors.IsArity(err))
	assert.Equal(t, 1, Create().MinimalArgumentNumber())

	outputs, err := run(t, Create(), iteration.StrategySequential, term.List())
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestIsNeighborMultiple(t *testing.T) {
	g := sample(t)
	outputs, err := run(t, IsNeighborMultiple(), iteration.StrategySequential, g, "a", "b", "d", "c", "b")
	require.NoError(t, err)
	assert.Equal(t, []any{true, false}, raws(outputs), "trailing b is ignored")
}

func TestIsNeighborMultiple_MissingVertexFailsFast(t *testing.T) {
	g := sample(t)
	outputs, err := run(t, IsNeighborMultiple(), iteration.StrategySequential, g, "a", "b", "a", "zz", "b", "c")
	assert.ErrorIs(t, err, graph.ErrVertexNotFound)
	assert.Equal(t, []any{true}, raws(outputs))
}

func TestNeighborsMultiple_ContainerFollowsStrategy(t *testing.T) {
	g := sample(t)

	seq, err := run(t, NeighborsMultiple(), iteration.StrategySequential, g, "b")
	require.NoError(t, err)
	par, err := run(t, NeighborsMultiple(), iteration.StrategyParallel, g, "b")
	require.NoError(t, err)

	require.Len(t, seq, 1)
	require.Len(t, par, 1)

	seqList, ok := seq[0].Raw().(collection.List[any])
	require.True(t, ok)
	parList, ok := par[0].Raw().(collection.List[any])
	require.True(t, ok)

	assert.False(t, seqList.Synchronized())
	assert.True(t, parList.Synchronized())
	assert.Equal(t, []any{"a", "c"}, seqList.All())
	assert.Equal(t, seqList.All(), parList.All())
}

func TestNeighborsMultiple_ResultFeedsNextCall(t *testing.T) {
	g := sample(t)
	first, err := run(t, NeighborsMultiple(), iteration.StrategySequential, g, "a")
	require.NoError(t, err)

	second, err := run(t, NeighborsMultiple(), iteration.StrategySequential, g, first[0].Raw())
	require.NoError(t, err)
	assert.Len(t, second, 2, "the collection is flattened into one window per neighbour")
}

func TestOppositeMultiple(t *testing.T) {
	g := sample(t)
	outputs, err := run(t, OppositeMultiple(), iteration.StrategySequential, g, "a", "ab", "c", "bc")
	require.NoError(t, err)
	assert.Equal(t, []any{"b", "b"}, raws(outputs))

	_, err = run(t, OppositeMultiple(), iteration.StrategySequential, g, "d", "ab")
	assert.ErrorIs(t, err, graph.ErrNotIncident)
}

func TestOutEdgesSingle(t *testing.T) {
	g1 := sample(t)
	g2 := graph.New(graph.UndirectedSparse)
	_, err := g2.AddEdge("x", "z", "a", graph.DefaultEdgeType)
	require.NoError(t, err)

	outputs, err := run(t, OutEdgesSingle(), iteration.StrategySequential, "a", g1, g2)
	require.NoError(t, err)
	require.Len(t, outputs, 2)
	assert.Equal(t, []any{"ab", "ac"}, outputs[0].Raw().(collection.List[any]).All())
	assert.Equal(t, []any{"x"}, outputs[1].Raw().(collection.List[any]).All())
}

func TestOutEdgesSingle_NestedUnitIsAShapeError(t *testing.T) {
	g := sample(t)
	out := collection.New[term.Term](iteration.StrategySequential)
	args := []term.Term{term.Of("a"), term.List(term.Of(g))}
	err := OutEdgesSingle().Execute(context.Background(), iteration.StrategySequential, args, out)
	assert.True(t, sdkerrors.IsValueShape(err))
}

func TestPredecessorCountSingle(t *testing.T) {
	g := sample(t)
	outputs, err := run(t, PredecessorCountSingle(), iteration.StrategySequential, "c", g, g)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0, 2.0}, raws(outputs))
	assert.IsType(t, float64(0), outputs[0].Raw())
}

func TestRemoveEdgeMultiple(t *testing.T) {
	g := sample(t)
	outputs, err := run(t, RemoveEdgeMultiple(), iteration.StrategySequential, g, "ab", "bc", "missing")
	require.NoError(t, err)
	assert.Empty(t, outputs)
	assert.Equal(t, []any{"ac"}, g.Edges())
}

func TestRemoveEdgeMultiple_ReadOnlyHandle(t *testing.T) {
	g := sample(t)
	_, err := run(t, RemoveEdgeMultiple(), iteration.StrategySequential, graph.ReadOnly(g), "ab")
	require.Error(t, err)
	assert.True(t, sdkerrors.IsUnsupportedCapability(err))
	assert.True(t, g.ContainsEdge("ab"))
}

func TestMultiple_NoArguments(t *testing.T) {
	for _, action := range []dispatch.Action{IsNeighborMultiple(), NeighborsMultiple(), OppositeMultiple(), RemoveEdgeMultiple()} {
		_, err := run(t, action, iteration.StrategySequential)
		assert.True(t, sdkerrors.IsArity(err), action.Name())
	}
}

func TestPivotMustBeGraph(t *testing.T) {
	_, err := run(t, NeighborsMultiple(), iteration.StrategySequential, "not-a-graph", "a")
	assert.True(t, sdkerrors.IsValueShape(err))

	_, err = run(t, RemoveEdgeMultiple(), iteration.StrategySequential, 12, "a")
	assert.True(t, sdkerrors.IsValueShape(err))

	_, err = run(t, PredecessorCountSingle(), iteration.StrategySequential, "a", "not-a-graph")
	assert.True(t, sdkerrors.IsValueShape(err))
}

func TestPivotOnlyProducesNothing(t *testing.T) {
	g := sample(t)
	outputs, err := run(t, NeighborsMultiple(), iteration.StrategySequential, g)
	require.NoError(t, err)
	assert.Empty(t, outputs)

	outputs, err = run(t, OutEdgesSingle(), iteration.StrategySequential, "a")
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestMutationActions(t *testing.T) {
	g := graph.New(graph.UndirectedSparse)

	outputs, err := run(t, AddVertexMultiple(), iteration.StrategySequential, g, "a", "b", "a")
	require.NoError(t, err)
	assert.Empty(t, outputs)
	assert.Equal(t, []any{"a", "b"}, g.Vertices())

	outputs, err = run(t, AddEdgeMultiple(), iteration.StrategySequential, g, "ab", "a", "b", "ba", "b", "a", "dangling")
	require.NoError(t, err)
	assert.Equal(t, []any{true, false}, raws(outputs))
	assert.Equal(t, 1, g.EdgeCount())

	_, err = run(t, AddVertexMultiple(), iteration.StrategySequential, graph.ReadOnly(g), "c")
	assert.True(t, sdkerrors.IsUnsupportedCapability(err))
}

func TestSizeAndMembershipActions(t *testing.T) {
	g1 := sample(t)
	g2 := graph.New(graph.Sparse)

	outputs, err := run(t, VertexCount(), iteration.StrategySequential, g1, g2)
	require.NoError(t, err)
	assert.Equal(t, []any{4.0, 0.0}, raws(outputs))

	outputs, err = run(t, EdgeCount(), iteration.StrategySequential, g1)
	require.NoError(t, err)
	assert.Equal(t, []any{3.0}, raws(outputs))

	outputs, err = run(t, ContainsVertexSingle(), iteration.StrategySequential, "d", g1, g2)
	require.NoError(t, err)
	assert.Equal(t, []any{true, false}, raws(outputs))

	outputs, err = run(t, SuccessorCountSingle(), iteration.StrategySequential, "a", g1)
	require.NoError(t, err)
	assert.Equal(t, []any{2.0}, raws(outputs))

	outputs, err = run(t, InEdgesSingle(), iteration.StrategySequential, "c", g1)
	require.NoError(t, err)
	assert.Equal(t, []any{"bc", "ac"}, outputs[0].Raw().(collection.List[any]).All())
}

func TestReadOnlyAction(t *testing.T) {
	g := sample(t)
	outputs, err := run(t, ReadOnly(), iteration.StrategySequential, g)
	require.NoError(t, err)
	require.Len(t, outputs, 1)

	view, ok := outputs[0].Raw().(graph.Queryer)
	require.True(t, ok)
	assert.True(t, graph.IsReadOnly(view))
	assert.Equal(t, g.Edges(), view.Edges())
}

func TestAll_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, a := range All() {
		assert.False(t, seen[a.Name()], a.Name())
		seen[a.Name()] = true
	}
	assert.Len(t, seen, 15)
}
