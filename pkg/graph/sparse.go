package graph

import (
	"fmt"
	"slices"
	"sync"
)

type edgeRecord struct {
	id   any
	from any
	to   any
	typ  EdgeType
}

// other returns the endpoint of e opposite to v
func (e *edgeRecord) other(v any) any {
	if e.from == v {
		return e.to
	}
	return e.from
}

func (e *edgeRecord) leaves(v any) bool {
	if e.typ == Undirected {
		return e.from == v || e.to == v
	}
	return e.from == v
}

func (e *edgeRecord) enters(v any) bool {
	if e.typ == Undirected {
		return e.from == v || e.to == v
	}
	return e.to == v
}

func (e *edgeRecord) connects(a, b any) bool {
	return (e.from == a && e.to == b) || (e.from == b && e.to == a)
}

// Graph is the in-memory sparse graph used for every Kind
type Graph struct {
	mu       sync.RWMutex
	kind     Kind
	traits   traits
	vertices []any
	incident map[any][]any // vertex -> incident edge ids in insertion order
	edgeIDs  []any
	edges    map[any]*edgeRecord
}

var _ Capability = (*Graph)(nil)

// New creates an empty graph of the given kind
func New(kind Kind) *Graph {
	switch kind {
	case Sparse, SparseMulti, DirectedSparse, DirectedSparseMulti, UndirectedSparse, UndirectedSparseMulti:
	default:
		kind = Sparse
	}
	return &Graph{
		kind:     kind,
		traits:   kind.traits(),
		incident: make(map[any][]any),
		edges:    make(map[any]*edgeRecord),
	}
}

func (g *Graph) Kind() Kind {
	return g.kind
}

func (g *Graph) String() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fmt.Sprintf("%s{vertices=%d edges=%d}", g.kind, len(g.vertices), len(g.edgeIDs))
}

func (g *Graph) ContainsVertex(v any) bool {
	if !isKey(v) {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.incident[v]
	return ok
}

func (g *Graph) ContainsEdge(e any) bool {
	if !isKey(e) {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[e]
	return ok
}

func (g *Graph) Vertices() []any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.vertices)
}

func (g *Graph) Edges() []any {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return slices.Clone(g.edgeIDs)
}

func (g *Graph) VertexCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.vertices)
}

func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edgeIDs)
}

// AddVertex adds v. It returns false when v is already present.
func (g *Graph) AddVertex(v any) (bool, error) {
	if !isKey(v) {
		return false, fmt.Errorf("vertex %v: %w", v, ErrNotComparable)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.addVertexLocked(v), nil
}

func (g *Graph) addVertexLocked(v any) bool {
	if _, ok := g.incident[v]; ok {
		return false
	}
	g.vertices = append(g.vertices, v)
	g.incident[v] = nil
	return true
}

// AddEdge connects a and b with edge e, adding missing endpoints.
// It returns false when e already connects a and b, or when the kind refuses
// parallel edges and a and b are already connected by an edge of the same type.
func (g *Graph) AddEdge(e, a, b any, t EdgeType) (bool, error) {
	for _, v := range []any{e, a, b} {
		if !isKey(v) {
			return false, fmt.Errorf("%v: %w", v, ErrNotComparable)
		}
	}
	if t == DefaultEdgeType {
		t = g.traits.defaultType
	}
	if !g.kind.Allows(t) {
		return false, fmt.Errorf("%s edge in %s graph: %w", t, g.kind, ErrEdgeTypeNotAllowed)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if existing, ok := g.edges[e]; ok {
		same := existing.typ == t && existing.from == a && existing.to == b
		if t == Undirected && existing.typ == Undirected {
			same = existing.connects(a, b)
		}
		if same {
			return false, nil
		}
		return false, fmt.Errorf("edge %v: %w", e, ErrEdgeConflict)
	}

	if !g.traits.multi && g.findEdgeLocked(a, b, t) != nil {
		return false, nil
	}

	g.addVertexLocked(a)
	g.addVertexLocked(b)

	g.edges[e] = &edgeRecord{id: e, from: a, to: b, typ: t}
	g.edgeIDs = append(g.edgeIDs, e)
	g.incident[a] = append(g.incident[a], e)
	if b != a {
		g.incident[b] = append(g.incident[b], e)
	}
	return true, nil
}

func (g *Graph) findEdgeLocked(a, b any, t EdgeType) *edgeRecord {
	for _, id := range g.incident[a] {
		rec := g.edges[id]
		if rec.typ != t {
			continue
		}
		if t == Directed && rec.from == a && rec.to == b {
			return rec
		}
		if t == Undirected && rec.connects(a, b) {
			return rec
		}
	}
	return nil
}

// RemoveEdge removes e. It returns false when e is not present.
func (g *Graph) RemoveEdge(e any) bool {
	if !isKey(e) {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.removeEdgeLocked(e)
}

func (g *Graph) removeEdgeLocked(e any) bool {
	rec, ok := g.edges[e]
	if !ok {
		return false
	}
	delete(g.edges, e)
	g.edgeIDs = slices.DeleteFunc(g.edgeIDs, func(id any) bool { return id == e })
	for _, v := range []any{rec.from, rec.to} {
		g.incident[v] = slices.DeleteFunc(g.incident[v], func(id any) bool { return id == e })
	}
	return true
}

// RemoveVertex removes v and every edge incident to it
func (g *Graph) RemoveVertex(v any) bool {
	if !isKey(v) {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	edges, ok := g.incident[v]
	if !ok {
		return false
	}
	for _, e := range slices.Clone(edges) {
		g.removeEdgeLocked(e)
	}
	delete(g.incident, v)
	g.vertices = slices.DeleteFunc(g.vertices, func(x any) bool { return x == v })
	return true
}

func (g *Graph) incidentLocked(v any) ([]*edgeRecord, error) {
	if !isKey(v) {
		return nil, fmt.Errorf("vertex %v: %w", v, ErrVertexNotFound)
	}
	ids, ok := g.incident[v]
	if !ok {
		return nil, fmt.Errorf("vertex %v: %w", v, ErrVertexNotFound)
	}
	out := make([]*edgeRecord, len(ids))
	for i, id := range ids {
		out[i] = g.edges[id]
	}
	return out, nil
}

// Neighbors returns the distinct vertices adjacent to v in either direction
func (g *Graph) Neighbors(v any) ([]any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	recs, err := g.incidentLocked(v)
	if err != nil {
		return nil, err
	}
	return distinct(recs, func(*edgeRecord) bool { return true }, v), nil
}

// IsNeighbor reports whether an edge connects a and b in either direction
func (g *Graph) IsNeighbor(a, b any) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	recs, err := g.incidentLocked(a)
	if err != nil {
		return false, err
	}
	if !isKey(b) {
		return false, fmt.Errorf("vertex %v: %w", b, ErrVertexNotFound)
	}
	if _, ok := g.incident[b]; !ok {
		return false, fmt.Errorf("vertex %v: %w", b, ErrVertexNotFound)
	}
	for _, rec := range recs {
		if rec.other(a) == b {
			return true, nil
		}
	}
	return false, nil
}

// Opposite returns the endpoint of e that is not v
func (g *Graph) Opposite(v, e any) (any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, err := g.edgeLocked(e)
	if err != nil {
		return nil, err
	}
	if !isKey(v) || (rec.from != v && rec.to != v) {
		return nil, fmt.Errorf("vertex %v, edge %v: %w", v, e, ErrNotIncident)
	}
	return rec.other(v), nil
}

// OutEdges returns the directed edges leaving v and the undirected edges touching v
func (g *Graph) OutEdges(v any) ([]any, error) {
	return g.edgesWhere(v, func(rec *edgeRecord) bool { return rec.leaves(v) })
}

// InEdges returns the directed edges entering v and the undirected edges touching v
func (g *Graph) InEdges(v any) ([]any, error) {
	return g.edgesWhere(v, func(rec *edgeRecord) bool { return rec.enters(v) })
}

func (g *Graph) edgesWhere(v any, keep func(*edgeRecord) bool) ([]any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	recs, err := g.incidentLocked(v)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(recs))
	for _, rec := range recs {
		if keep(rec) {
			out = append(out, rec.id)
		}
	}
	return out, nil
}

// Predecessors returns the distinct vertices with an edge entering v
func (g *Graph) Predecessors(v any) ([]any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	recs, err := g.incidentLocked(v)
	if err != nil {
		return nil, err
	}
	return distinct(recs, func(rec *edgeRecord) bool { return rec.enters(v) }, v), nil
}

// Successors returns the distinct vertices reached by an edge leaving v
func (g *Graph) Successors(v any) ([]any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	recs, err := g.incidentLocked(v)
	if err != nil {
		return nil, err
	}
	return distinct(recs, func(rec *edgeRecord) bool { return rec.leaves(v) }, v), nil
}

func (g *Graph) PredecessorCount(v any) (int, error) {
	p, err := g.Predecessors(v)
	return len(p), err
}

func (g *Graph) SuccessorCount(v any) (int, error) {
	s, err := g.Successors(v)
	return len(s), err
}

// Endpoints returns the source and destination of e. For undirected edges the
// order is the one the edge was added with.
func (g *Graph) Endpoints(e any) (any, any, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, err := g.edgeLocked(e)
	if err != nil {
		return nil, nil, err
	}
	return rec.from, rec.to, nil
}

func (g *Graph) EdgeTypeOf(e any) (EdgeType, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, err := g.edgeLocked(e)
	if err != nil {
		return DefaultEdgeType, err
	}
	return rec.typ, nil
}

func (g *Graph) edgeLocked(e any) (*edgeRecord, error) {
	if !isKey(e) {
		return nil, fmt.Errorf("edge %v: %w", e, ErrEdgeNotFound)
	}
	rec, ok := g.edges[e]
	if !ok {
		return nil, fmt.Errorf("edge %v: %w", e, ErrEdgeNotFound)
	}
	return rec, nil
}

// distinct collects the opposite endpoints of the kept edges, first occurrence wins
func distinct(recs []*edgeRecord, keep func(*edgeRecord) bool, v any) []any {
	seen := make(map[any]struct{}, len(recs))
	out := make([]any, 0, len(recs))
	for _, rec := range recs {
		if !keep(rec) {
			continue
		}
		o := rec.other(v)
		if _, ok := seen[o]; ok {
			continue
		}
		seen[o] = struct{}{}
		out = append(out, o)
	}
	return out
}
