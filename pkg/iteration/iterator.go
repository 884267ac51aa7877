package iteration

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Iterator runs independent batch items with a configurable execution strategy.
// Results keep the input order. The first failure cancels the remaining items.
type Iterator struct {
	config Config
}

// NewIterator creates a new iterator with given config
func NewIterator(config Config) *Iterator {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.NumCPU()
	}
	if config.Strategy == "" {
		config.Strategy = StrategySequential
	}
	return &Iterator{config: config}
}

// Strategy returns the strategy the iterator was configured with
func (it *Iterator) Strategy() Strategy {
	return it.config.Strategy
}

// Process applies processFn to every item and returns the outputs in input order
func (it *Iterator) Process(ctx context.Context, items []any, processFn ProcessFunc) ([]any, error) {
	if len(items) == 0 {
		return []any{}, nil
	}

	if !it.config.Strategy.IsParallel() || len(items) == 1 {
		return it.processSequential(ctx, items, processFn)
	}
	return it.processParallel(ctx, items, processFn)
}

func (it *Iterator) processSequential(ctx context.Context, items []any, processFn ProcessFunc) ([]any, error) {
	results := make([]any, len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("iteration cancelled before item %d: %w", i, err)
		}
		output, err := processFn(ctx, item, i)
		if err != nil {
			return nil, fmt.Errorf("failed processing item %d: %w", i, err)
		}
		results[i] = output
	}

	return results, nil
}

func (it *Iterator) processParallel(ctx context.Context, items []any, processFn ProcessFunc) ([]any, error) {
	numItems := len(items)
	results := make([]any, numItems)

	numWorkers := min(it.config.MaxConcurrent, numItems)

	workCh := make(chan int, numItems)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if ctx.Err() != nil {
					return
				}
				output, err := processFn(ctx, items[idx], idx)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("failed processing item %d: %w", idx, err)
						cancel()
					}
				} else {
					results[idx] = output
				}
				mu.Unlock()
			}
		}()
	}

sendLoop:
	for i := 0; i < numItems; i++ {
		select {
		case <-ctx.Done():
			break sendLoop
		case workCh <- i:
		}
	}
	close(workCh)

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("iteration cancelled: %w", err)
	}

	return results, nil
}
