// Package graphactions is the catalog of graph actions. Every action except
// the factory is a Multiple- or Single-Dispatch configuration: a window or
// skip size plus a small function delegating to the graph capability.
package graphactions

import (
	"github.com/wehubfusion/Daedalus/pkg/collection"
	"github.com/wehubfusion/Daedalus/pkg/dispatch"
	sdkerrors "github.com/wehubfusion/Daedalus/pkg/errors"
	"github.com/wehubfusion/Daedalus/pkg/graph"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
	"github.com/wehubfusion/Daedalus/pkg/term"
)

// Prefix is prepended to every graph action name
const Prefix = "graph/"

const (
	NameCreate               = Prefix + "create"
	NameIsNeighborMultiple   = Prefix + "isneighbormultiple"
	NameNeighborsMultiple    = Prefix + "neighborsmultiple"
	NameOppositeMultiple     = Prefix + "oppositemultiple"
	NameRemoveEdgeMultiple   = Prefix + "removeedgemultiple"
	NameOutEdgesSingle       = Prefix + "outedgessingle"
	NamePredecessorCount     = Prefix + "predecessorcountsingle"
	NameAddVertexMultiple    = Prefix + "addvertexmultiple"
	NameAddEdgeMultiple      = Prefix + "addedgemultiple"
	NameInEdgesSingle        = Prefix + "inedgessingle"
	NameSuccessorCount       = Prefix + "successorcountsingle"
	NameContainsVertexSingle = Prefix + "containsvertexsingle"
	NameVertexCount          = Prefix + "vertexcount"
	NameEdgeCount            = Prefix + "edgecount"
	NameReadOnly             = Prefix + "readonly"
)

// All returns every graph action
func All() []dispatch.Action {
	return []dispatch.Action{
		Create(),
		IsNeighborMultiple(),
		NeighborsMultiple(),
		OppositeMultiple(),
		RemoveEdgeMultiple(),
		OutEdgesSingle(),
		PredecessorCountSingle(),
		AddVertexMultiple(),
		AddEdgeMultiple(),
		InEdgesSingle(),
		SuccessorCountSingle(),
		ContainsVertexSingle(),
		VertexCount(),
		EdgeCount(),
		ReadOnly(),
	}
}

// queryer narrows a handle term to the read capability
func queryer(t term.Term) (graph.Queryer, error) {
	q, ok := t.Raw().(graph.Queryer)
	if !ok {
		return nil, sdkerrors.NewValueShapeError("graph handle", t.Raw())
	}
	return q, nil
}

// mutator narrows a handle term to the mutation capability. A graph handle
// without it is an unsupported capability rather than a shape error.
func mutator(action string, t term.Term) (graph.Mutator, error) {
	raw := t.Raw()
	if m, ok := raw.(graph.Mutator); ok {
		return m, nil
	}
	if _, ok := raw.(graph.Queryer); ok {
		return nil, sdkerrors.NewUnsupportedCapabilityError(action, "mutation", raw)
	}
	return nil, sdkerrors.NewValueShapeError("graph handle", raw)
}

// listOf wraps values in the container the strategy calls for
func listOf(strategy iteration.Strategy, values []any) term.Term {
	return term.Of(collection.From(strategy, values))
}
