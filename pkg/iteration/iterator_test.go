package iteration

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator_ProcessSequential_Success(t *testing.T) {
	iterator := NewIterator(Config{Strategy: StrategySequential})

	results, err := iterator.Process(context.Background(), []any{1, 2, 3}, func(ctx context.Context, item any, index int) (any, error) {
		return item.(int) * 2, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []any{2, 4, 6}, results)
}

func TestIterator_ProcessSequential_FailFast(t *testing.T) {
	iterator := NewIterator(Config{Strategy: StrategySequential})

	processCount := 0
	results, err := iterator.Process(context.Background(), []any{1, 2, 3, 4, 5}, func(ctx context.Context, item any, index int) (any, error) {
		processCount++
		if index == 2 {
			return nil, errors.New("item 2 failed")
		}
		return item, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed processing item 2")
	assert.Nil(t, results)
	assert.Equal(t, 3, processCount, "Should stop after item 2 fails")
}

func TestIterator_ProcessSequential_CancelledContext(t *testing.T) {
	iterator := NewIterator(Config{Strategy: StrategySequential})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := iterator.Process(ctx, []any{1}, func(ctx context.Context, item any, index int) (any, error) {
		t.Fatal("Should not be called with a cancelled context")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIterator_Process_EmptyArray(t *testing.T) {
	for _, strategy := range []Strategy{StrategySequential, StrategyParallel} {
		iterator := NewIterator(Config{Strategy: strategy, MaxConcurrent: 4})

		results, err := iterator.Process(context.Background(), []any{}, func(ctx context.Context, item any, index int) (any, error) {
			t.Fatal("Should not be called for empty array")
			return nil, nil
		})

		require.NoError(t, err)
		assert.Equal(t, []any{}, results)
	}
}

func TestIterator_ProcessParallel_PreservesOrder(t *testing.T) {
	iterator := NewIterator(Config{Strategy: StrategyParallel, MaxConcurrent: 3})

	items := make([]any, 10)
	for i := range items {
		items[i] = i
	}

	results, err := iterator.Process(context.Background(), items, func(ctx context.Context, item any, index int) (any, error) {
		time.Sleep(time.Duration(10-index) * time.Millisecond)
		return fmt.Sprintf("item-%d", item.(int)), nil
	})

	require.NoError(t, err)
	require.Len(t, results, 10)
	for i := range results {
		assert.Equal(t, fmt.Sprintf("item-%d", i), results[i])
	}
}

func TestIterator_ProcessParallel_FailFast(t *testing.T) {
	iterator := NewIterator(Config{Strategy: StrategyParallel, MaxConcurrent: 5})

	items := make([]any, 20)
	for i := range items {
		items[i] = i
	}

	processed := &sync.Map{}
	results, err := iterator.Process(context.Background(), items, func(ctx context.Context, item any, index int) (any, error) {
		processed.Store(index, true)
		if index == 5 {
			time.Sleep(20 * time.Millisecond)
			return nil, fmt.Errorf("item %d failed", index)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(50 * time.Millisecond):
			return item, nil
		}
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed processing item 5")
	assert.Nil(t, results)

	count := 0
	processed.Range(func(key, value any) bool {
		count++
		return true
	})
	assert.Less(t, count, 20, "Fail-fast should prevent processing all items")
}

func TestIterator_NewIterator_Defaults(t *testing.T) {
	iterator := NewIterator(Config{})

	assert.Equal(t, runtime.NumCPU(), iterator.config.MaxConcurrent)
	assert.Equal(t, StrategySequential, iterator.Strategy())
}

func TestStrategy_Conversions(t *testing.T) {
	assert.Equal(t, StrategyParallel, Parallel(true))
	assert.Equal(t, StrategySequential, Parallel(false))
	assert.True(t, ParseStrategy(" Parallel ").IsParallel())
	assert.False(t, ParseStrategy("concurrent").IsParallel())
	assert.False(t, ParseStrategy("").IsParallel())
}
