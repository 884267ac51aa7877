package handles

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wehubfusion/Daedalus/pkg/graph"
)

func TestStore_PutGet(t *testing.T) {
	s := NewStore()
	g := graph.New(graph.Sparse)

	id := s.Put(g)
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	got, ok := s.Get(id)
	require.True(t, ok)
	assert.Same(t, g, got)

	assert.Equal(t, id, s.Put(g), "same handle keeps its id")
	assert.NotEqual(t, id, s.Put(graph.New(graph.Sparse)))
	assert.Equal(t, 2, s.Len())
}

func TestStore_Delete(t *testing.T) {
	s := NewStore()
	g := graph.New(graph.Sparse)
	id := s.Put(g)

	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))
	_, ok := s.Get(id)
	assert.False(t, ok)
	assert.NotEqual(t, id, s.Put(g), "a deleted handle gets a fresh id")
}

func TestStore_IDsInOrder(t *testing.T) {
	s := NewStore()
	a := s.Put(graph.New(graph.Sparse))
	b := s.Put(graph.New(graph.DirectedSparse))
	c := s.Put(graph.New(graph.UndirectedSparse))
	s.Delete(b)

	assert.Equal(t, []string{a, c}, s.IDs())
}

func TestStore_IncomparableHandles(t *testing.T) {
	s := NewStore()
	h := []int{1}
	first := s.Put(h)
	second := s.Put(h)
	assert.NotEqual(t, first, second)
	assert.True(t, s.Delete(first))
}

func TestStore_Concurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.Put(graph.New(graph.Sparse))
			_, ok := s.Get(id)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
	assert.Equal(t, 32, s.Len())
}
