package graph

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind is the closed set of graph shapes the factory can build
type Kind int

const (
	Sparse Kind = iota
	SparseMulti
	DirectedSparse
	DirectedSparseMulti
	UndirectedSparse
	UndirectedSparseMulti
)

var kindNames = [...]string{
	Sparse:                "SPARSE",
	SparseMulti:           "SPARSEMULTI",
	DirectedSparse:        "DIRECTEDSPARSE",
	DirectedSparseMulti:   "DIRECTEDSPARSEMULTI",
	UndirectedSparse:      "UNDIRECTEDSPARSE",
	UndirectedSparseMulti: "UNDIRECTEDSPARSEMULTI",
}

var upper = cases.Upper(language.Und)

// Kinds returns every kind in declaration order
func Kinds() []Kind {
	return []Kind{Sparse, SparseMulti, DirectedSparse, DirectedSparseMulti, UndirectedSparse, UndirectedSparseMulti}
}

func (k Kind) String() string {
	if k < Sparse || int(k) >= len(kindNames) {
		return kindNames[Sparse]
	}
	return kindNames[k]
}

// ParseKind matches name case-insensitively against the kind names.
// Unknown names resolve to Sparse, so ParseKind never fails.
func ParseKind(name string) Kind {
	kind, _ := LookupKind(name)
	return kind
}

// LookupKind is ParseKind that also reports whether name matched a kind
func LookupKind(name string) (Kind, bool) {
	key := upper.String(name)
	for _, k := range Kinds() {
		if kindNames[k] == key {
			return k, true
		}
	}
	return Sparse, false
}

// traits describes which edge types a kind admits and whether parallel edges are allowed
type traits struct {
	directed    bool
	undirected  bool
	multi       bool
	defaultType EdgeType
}

func (k Kind) traits() traits {
	switch k {
	case Sparse:
		return traits{directed: true, undirected: true, defaultType: Undirected}
	case SparseMulti:
		return traits{directed: true, undirected: true, multi: true, defaultType: Undirected}
	case DirectedSparse:
		return traits{directed: true, defaultType: Directed}
	case DirectedSparseMulti:
		return traits{directed: true, multi: true, defaultType: Directed}
	case UndirectedSparse:
		return traits{undirected: true, defaultType: Undirected}
	case UndirectedSparseMulti:
		return traits{undirected: true, multi: true, defaultType: Undirected}
	default:
		return Sparse.traits()
	}
}

// AllowsParallelEdges reports whether the kind admits more than one edge between the same endpoints
func (k Kind) AllowsParallelEdges() bool {
	return k.traits().multi
}

// Allows reports whether edges of type t may be added to graphs of this kind
func (k Kind) Allows(t EdgeType) bool {
	tr := k.traits()
	switch t {
	case Directed:
		return tr.directed
	case Undirected:
		return tr.undirected
	case DefaultEdgeType:
		return true
	default:
		return false
	}
}
