package graph

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the serialisable form of a graph
type Snapshot struct {
	Kind     string         `json:"kind"`
	Vertices []any          `json:"vertices"`
	Edges    []EdgeSnapshot `json:"edges"`
}

// EdgeSnapshot is one edge of a Snapshot
type EdgeSnapshot struct {
	ID       any  `json:"id"`
	From     any  `json:"from"`
	To       any  `json:"to"`
	Directed bool `json:"directed"`
}

// Take captures the vertices and edges of q in insertion order
func Take(q Queryer) (*Snapshot, error) {
	s := &Snapshot{
		Kind:     q.Kind().String(),
		Vertices: q.Vertices(),
	}
	for _, e := range q.Edges() {
		from, to, err := q.Endpoints(e)
		if err != nil {
			return nil, fmt.Errorf("snapshot edge %v: %w", e, err)
		}
		t, err := q.EdgeTypeOf(e)
		if err != nil {
			return nil, fmt.Errorf("snapshot edge %v: %w", e, err)
		}
		s.Edges = append(s.Edges, EdgeSnapshot{ID: e, From: from, To: to, Directed: t == Directed})
	}
	return s, nil
}

// Restore builds a new graph from s
func Restore(s *Snapshot) (*Graph, error) {
	if s == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}
	g := New(ParseKind(s.Kind))
	for _, v := range s.Vertices {
		if _, err := g.AddVertex(v); err != nil {
			return nil, fmt.Errorf("restore vertex: %w", err)
		}
	}
	for _, e := range s.Edges {
		t := Undirected
		if e.Directed {
			t = Directed
		}
		if _, err := g.AddEdge(e.ID, e.From, e.To, t); err != nil {
			return nil, fmt.Errorf("restore edge %v: %w", e.ID, err)
		}
	}
	return g, nil
}

// Marshal encodes s as JSON
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSnapshot decodes a JSON snapshot. Numeric ids decode as float64.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &s, nil
}
