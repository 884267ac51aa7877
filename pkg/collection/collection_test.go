package collection

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wehubfusion/Daedalus/pkg/iteration"
)

func TestNew_SelectsContainerByStrategy(t *testing.T) {
	seq := New[int](iteration.StrategySequential)
	par := New[int](iteration.StrategyParallel)

	assert.IsType(t, &Plain[int]{}, seq)
	assert.IsType(t, &Synchronized[int]{}, par)
	assert.False(t, seq.Synchronized())
	assert.True(t, par.Synchronized())
}

func TestFrom_SameContentsInBothModes(t *testing.T) {
	items := []string{"b", "a", "b"}
	seq := From(iteration.StrategySequential, items)
	par := From(iteration.StrategyParallel, items)

	assert.Equal(t, items, seq.All())
	assert.Equal(t, seq.All(), par.All())
	assert.Equal(t, 3, par.Len())
	assert.Equal(t, "a", par.At(1))
}

func TestAll_ReturnsCopy(t *testing.T) {
	l := From(iteration.StrategySequential, []int{1, 2})
	snapshot := l.All()
	snapshot[0] = 42
	assert.Equal(t, 1, l.At(0))
}

func TestSynchronized_ConcurrentAdd(t *testing.T) {
	l := New[int](iteration.StrategyParallel)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			l.Add(v)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 50, l.Len())
	assert.ElementsMatch(t, func() []int {
		out := make([]int, 50)
		for i := range out {
			out[i] = i
		}
		return out
	}(), l.All())
}

func TestEmptyList(t *testing.T) {
	l := New[any](iteration.StrategySequential)
	assert.Equal(t, 0, l.Len())
	assert.Empty(t, l.All())
	assert.Panics(t, func() { l.At(0) })
}
