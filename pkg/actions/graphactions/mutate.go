package graphactions

import (
	"context"

	"github.com/wehubfusion/Daedalus/pkg/dispatch"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

// RemoveEdgeMultiple removes each edge from the pivot graph. It appends nothing;
// edges that are not present are skipped.
func RemoveEdgeMultiple() dispatch.Action {
	return dispatch.NewMultiple(NameRemoveEdgeMultiple, 1,
		func(ctx context.Context, strategy iteration.Strategy, pivot term.Term, window []term.Term, out dispatch.Sink) error {
			g, err := mutator(NameRemoveEdgeMultiple, pivot)
			if err != nil {
				return err
			}
			g.RemoveEdge(window[0].Raw())
			return nil
		})
}

// AddVertexMultiple adds each vertex to the pivot graph. It appends nothing.
func AddVertexMultiple() dispatch.Action {
	return dispatch.NewMultiple(NameAddVertexMultiple, 1,
		func(ctx context.Context, strategy iteration.Strategy, pivot term.Term, window []term.Term, out dispatch.Sink) error {
			g, err := mutator(NameAddVertexMultiple, pivot)
			if err != nil {
				return err
			}
			_, err = g.AddVertex(window[0].Raw())
			return err
		})
}

// AddEdgeMultiple adds one edge per (edge, from, to) triple using the graph's
// default edge type. It appends whether each edge was added.
func AddEdgeMultiple() dispatch.Action {
	return dispatch.NewMultiple(NameAddEdgeMultiple, 3,
		func(ctx context.Context, strategy iteration.Strategy, pivot term.Term, window []term.Term, out dispatch.Sink) error {
			g, err := mutator(NameAddEdgeMultiple, pivot)
			if err != nil {
				return err
			}
			added, err := g.AddEdge(window[0].Raw(), window[1].Raw(), window[2].Raw(), graph.DefaultEdgeType)
			if err != nil {
				return err
			}
			out.Add(term.Of(added))
			return nil
		})
}
