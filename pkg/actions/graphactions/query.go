package graphactions

import (
	"context"

	"github.com/wehubfusion/Daedalus/pkg/dispatch"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

// IsNeighborMultiple appends, for each (a, b) pair, whether a and b are adjacent
func IsNeighborMultiple() dispatch.Action {
	return dispatch.NewMultiple(NameIsNeighborMultiple, 2,
		func(ctx context.Context, strategy iteration.Strategy, pivot term.Term, window []term.Term, out dispatch.Sink) error {
			g, err := queryer(pivot)
			if err != nil {
				return err
			}
			ok, err := g.IsNeighbor(window[0].Raw(), window[1].Raw())
			if err != nil {
				return err
			}
			out.Add(term.Of(ok))
			return nil
		})
}

// NeighborsMultiple appends the neighbour collection of each vertex
func NeighborsMultiple() dispatch.Action {
	return dispatch.NewMultiple(NameNeighborsMultiple, 1,
		func(ctx context.Context, strategy iteration.Strategy, pivot term.Term, window []term.Term, out dispatch.Sink) error {
			g, err := queryer(pivot)
			if err != nil {
				return err
			}
			neighbors, err := g.Neighbors(window[0].Raw())
			if err != nil {
				return err
			}
			out.Add(listOf(strategy, neighbors))
			return nil
		})
}

// OppositeMultiple appends, for each (vertex, edge) pair, the other endpoint of the edge
func OppositeMultiple() dispatch.Action {
	return dispatch.NewMultiple(NameOppositeMultiple, 2,
		func(ctx context.Context, strategy iteration.Strategy, pivot term.Term, window []term.Term, out dispatch.Sink) error {
			g, err := queryer(pivot)
			if err != nil {
				return err
			}
			v, err := g.Opposite(window[0].Raw(), window[1].Raw())
			if err != nil {
				return err
			}
			out.Add(term.Of(v))
			return nil
		})
}

// OutEdgesSingle appends the out-edge collection of the pivot vertex in each graph
func OutEdgesSingle() dispatch.Action {
	return perGraphCollection(NameOutEdgesSingle, graph.Queryer.OutEdges)
}

// InEdgesSingle appends the in-edge collection of the pivot vertex in each graph
func InEdgesSingle() dispatch.Action {
	return perGraphCollection(NameInEdgesSingle, graph.Queryer.InEdges)
}

// PredecessorCountSingle appends the predecessor count of the pivot vertex in each graph
func PredecessorCountSingle() dispatch.Action {
	return perGraphCount(NamePredecessorCount, graph.Queryer.PredecessorCount)
}

// SuccessorCountSingle appends the successor count of the pivot vertex in each graph
func SuccessorCountSingle() dispatch.Action {
	return perGraphCount(NameSuccessorCount, graph.Queryer.SuccessorCount)
}

// ContainsVertexSingle appends whether each graph contains the pivot vertex
func ContainsVertexSingle() dispatch.Action {
	return dispatch.NewSingle(NameContainsVertexSingle, 1,
		func(ctx context.Context, strategy iteration.Strategy, pivot []term.Term, unit term.Term, out dispatch.Sink) error {
			g, err := queryer(unit)
			if err != nil {
				return err
			}
			out.Add(term.Of(g.ContainsVertex(pivot[0].Raw())))
			return nil
		})
}

// VertexCount appends the vertex count of each graph argument
func VertexCount() dispatch.Action {
	return perGraphSize(NameVertexCount, graph.Queryer.VertexCount)
}

// EdgeCount appends the edge count of each graph argument
func EdgeCount() dispatch.Action {
	return perGraphSize(NameEdgeCount, graph.Queryer.EdgeCount)
}

// ReadOnly appends a read-only view of each graph argument
func ReadOnly() dispatch.Action {
	return dispatch.NewSingle(NameReadOnly, 0,
		func(ctx context.Context, strategy iteration.Strategy, pivot []term.Term, unit term.Term, out dispatch.Sink) error {
			g, err := queryer(unit)
			if err != nil {
				return err
			}
			out.Add(term.Of(graph.ReadOnly(g)))
			return nil
		})
}

func perGraphCollection(name string, query func(graph.Queryer, any) ([]any, error)) dispatch.Action {
	return dispatch.NewSingle(name, 1,
		func(ctx context.Context, strategy iteration.Strategy, pivot []term.Term, unit term.Term, out dispatch.Sink) error {
			g, err := queryer(unit)
			if err != nil {
				return err
			}
			values, err := query(g, pivot[0].Raw())
			if err != nil {
				return err
			}
			out.Add(listOf(strategy, values))
			return nil
		})
}

// counts are reported as float64, the numeric type of the surrounding runtime
func perGraphCount(name string, count func(graph.Queryer, any) (int, error)) dispatch.Action {
	return dispatch.NewSingle(name, 1,
		func(ctx context.Context, strategy iteration.Strategy, pivot []term.Term, unit term.Term, out dispatch.Sink) error {
			g, err := queryer(unit)
			if err != nil {
				return err
			}
			n, err := count(g, pivot[0].Raw())
			if err != nil {
				return err
			}
			out.Add(term.Of(float64(n)))
			return nil
		})
}

func perGraphSize(name string, size func(graph.Queryer) int) dispatch.Action {
	return dispatch.NewSingle(name, 0,
		func(ctx context.Context, strategy iteration.Strategy, pivot []term.Term, unit term.Term, out dispatch.Sink) error {
			g, err := queryer(unit)
			if err != nil {
				return err
			}
			out.Add(term.Of(float64(size(g))))
			return nil
		})
}
