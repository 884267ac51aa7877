package all

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wehubfusion/Daedalus/pkg/actions/graphactions"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

func TestNewRegistry_RegistersCatalog(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{
		"graph/create",
		"graph/isneighbormultiple",
		"graph/neighborsmultiple",
		"graph/oppositemultiple",
		"graph/outedgessingle",
		"graph/predecessorcountsingle",
		"graph/removeedgemultiple",
	} {
		assert.True(t, r.Has(name), name)
	}
	assert.Len(t, r.Names(), len(graphactions.All()))
}

func TestRegistry_EndToEnd(t *testing.T) {
	ctx := context.Background()
	r := NewRegistry()

	handles, err := r.Execute(ctx, "graph/create", iteration.StrategySequential, term.Values("directedsparse"))
	require.NoError(t, err)
	require.Len(t, handles, 1)
	g := handles[0]

	added, err := r.Execute(ctx, "graph/addedgemultiple", iteration.StrategySequential,
		[]term.Term{g, term.List(term.Values("e1", "a", "b")...), term.List(term.Values("e2", "c", "b")...)})
	require.NoError(t, err)
	assert.Len(t, added, 2)

	counts, err := r.Execute(ctx, "graph/PredecessorCountSingle", iteration.StrategyParallel, []term.Term{term.Of("b"), g})
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, 2.0, counts[0].Raw())

	removed, err := r.Execute(ctx, "graph/removeedgemultiple", iteration.StrategySequential, term.Values(g.Raw(), "e1", "e2"))
	require.NoError(t, err)
	assert.Empty(t, removed)
	assert.Equal(t, 0, g.Raw().(*graph.Graph).EdgeCount())
}
