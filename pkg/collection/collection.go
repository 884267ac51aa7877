// Package collection provides the ordered, append-only containers used as
// result sinks and as collection-valued action results. The execution mode
// picks between a plain slice and a mutex-guarded one.
package collection

import (
	"sync"

	"github.com/wehubfusion/Daedalus/pkg/iteration"
)

// List is an ordered, append-only sequence
type List[T any] interface {
	// Add appends v at the end
	Add(v T)

	// Len returns the number of elements
	Len() int

	// At returns the element at index i. It panics when i is out of range.
	At(i int) T

	// All returns a snapshot copy of the elements in insertion order
	All() []T

	// Synchronized reports whether the list is safe for concurrent use
	Synchronized() bool
}

// New returns an empty list suited to strategy
func New[T any](strategy iteration.Strategy) List[T] {
	if strategy.IsParallel() {
		return &Synchronized[T]{}
	}
	return &Plain[T]{}
}

// From returns a list suited to strategy holding a copy of items
func From[T any](strategy iteration.Strategy, items []T) List[T] {
	l := New[T](strategy)
	for _, it := range items {
		l.Add(it)
	}
	return l
}

// Plain is a slice-backed list without synchronisation
type Plain[T any] struct {
	items []T
}

func (p *Plain[T]) Add(v T) {
	p.items = append(p.items, v)
}

func (p *Plain[T]) Len() int {
	return len(p.items)
}

func (p *Plain[T]) At(i int) T {
	return p.items[i]
}

func (p *Plain[T]) All() []T {
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}

func (p *Plain[T]) Synchronized() bool {
	return false
}

// Synchronized is a list guarded by a mutex
type Synchronized[T any] struct {
	mu    sync.RWMutex
	items []T
}

func (s *Synchronized[T]) Add(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, v)
}

func (s *Synchronized[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Synchronized[T]) At(i int) T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items[i]
}

func (s *Synchronized[T]) All() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Synchronized[T]) Synchronized() bool {
	return true
}
