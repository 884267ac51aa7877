// Package handles keeps capability handles addressable by id so they can
// cross a process boundary as plain strings.
package handles

import (
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Store maps handle ids to handles
type Store struct {
	mu    sync.RWMutex
	byID  map[string]any
	ids   map[any]string
	order []string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		byID: make(map[string]any),
		ids:  make(map[any]string),
	}
}

// Put registers handle and returns its id. Putting the same handle twice
// returns the same id. Handles must be comparable, which pointer handles are.
func (s *Store) Put(handle any) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if handle != nil && reflect.ValueOf(handle).Comparable() {
		if id, ok := s.ids[handle]; ok {
			return id
		}
	}

	id := uuid.NewString()
	s.byID[id] = handle
	if handle != nil && reflect.ValueOf(handle).Comparable() {
		s.ids[handle] = id
	}
	s.order = append(s.order, id)
	return id
}

// Get returns the handle registered under id
func (s *Store) Get(id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[id]
	return h, ok
}

// Delete forgets id. It returns false when id was unknown.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.byID[id]
	if !ok {
		return false
	}
	delete(s.byID, id)
	if h != nil && reflect.ValueOf(h).Comparable() {
		delete(s.ids, h)
	}
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == id })
	return true
}

// Len returns the number of stored handles
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// IDs returns the stored ids in registration order
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.order)
}
