// Package graph provides the in-memory graph capability that graph actions
// operate on. Vertices and edges are arbitrary comparable values; edges are
// first-class objects connecting two vertices.
//
// A *Graph synchronises its own state, so a handle may be shared between
// concurrent callers. Enumerations (vertices, edges, neighbours) follow
// insertion order.
package graph

import (
	"errors"
	"reflect"
)

var (
	// ErrVertexNotFound indicates that a vertex is not part of the graph
	ErrVertexNotFound = errors.New("graph: vertex not found")

	// ErrEdgeNotFound indicates that an edge is not part of the graph
	ErrEdgeNotFound = errors.New("graph: edge not found")

	// ErrNotIncident indicates that a vertex is not an endpoint of an edge
	ErrNotIncident = errors.New("graph: vertex is not incident to edge")

	// ErrEdgeTypeNotAllowed indicates that the graph kind does not admit the edge type
	ErrEdgeTypeNotAllowed = errors.New("graph: edge type not allowed")

	// ErrEdgeConflict indicates that an edge is already present with different endpoints
	ErrEdgeConflict = errors.New("graph: edge already connects different endpoints")

	// ErrNotComparable indicates that a vertex or edge value cannot be used as a key
	ErrNotComparable = errors.New("graph: value is not comparable")
)

// EdgeType distinguishes directed from undirected edges
type EdgeType int

const (
	// DefaultEdgeType resolves to the graph kind's default edge type
	DefaultEdgeType EdgeType = iota
	Directed
	Undirected
)

func (t EdgeType) String() string {
	switch t {
	case Directed:
		return "DIRECTED"
	case Undirected:
		return "UNDIRECTED"
	default:
		return "DEFAULT"
	}
}

// Queryer is the read capability of a graph
type Queryer interface {
	Kind() Kind
	ContainsVertex(v any) bool
	ContainsEdge(e any) bool
	Vertices() []any
	Edges() []any
	VertexCount() int
	EdgeCount() int
	Neighbors(v any) ([]any, error)
	IsNeighbor(a, b any) (bool, error)
	Opposite(v, e any) (any, error)
	OutEdges(v any) ([]any, error)
	InEdges(v any) ([]any, error)
	Predecessors(v any) ([]any, error)
	Successors(v any) ([]any, error)
	PredecessorCount(v any) (int, error)
	SuccessorCount(v any) (int, error)
	Endpoints(e any) (any, any, error)
	EdgeTypeOf(e any) (EdgeType, error)
}

// Mutator is the structural mutation capability of a graph
type Mutator interface {
	AddVertex(v any) (bool, error)
	AddEdge(e, a, b any, t EdgeType) (bool, error)
	RemoveEdge(e any) bool
	RemoveVertex(v any) bool
}

// Capability is a graph offering both reading and mutation
type Capability interface {
	Queryer
	Mutator
}

// ReadOnly wraps q in a view that exposes only the Queryer capability
func ReadOnly(q Queryer) Queryer {
	if r, ok := q.(readOnly); ok {
		return r
	}
	return readOnly{q}
}

type readOnly struct {
	Queryer
}

// IsReadOnly reports whether q is a read-only view
func IsReadOnly(q Queryer) bool {
	_, ok := q.(readOnly)
	return ok
}

func isKey(v any) bool {
	if v == nil {
		return false
	}
	return reflect.ValueOf(v).Comparable()
}
