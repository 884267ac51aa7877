package iteration

import (
	"context"
	"strings"
)

// Strategy is the execution mode requested by the caller of an action.
// For a single action it only selects the result container; the batch
// Iterator also uses it to decide between one goroutine and a worker pool.
type Strategy string

const (
	StrategySequential Strategy = "sequential" // Plain containers, items one by one
	StrategyParallel   Strategy = "parallel"   // Concurrency-safe containers, worker pool for batches
)

// Parallel converts a boolean parallel flag into a Strategy
func Parallel(parallel bool) Strategy {
	if parallel {
		return StrategyParallel
	}
	return StrategySequential
}

// ParseStrategy maps a case-insensitive name to a Strategy. Anything other
// than "parallel" is sequential.
func ParseStrategy(s string) Strategy {
	if strings.EqualFold(strings.TrimSpace(s), string(StrategyParallel)) {
		return StrategyParallel
	}
	return StrategySequential
}

// IsParallel reports whether s is the parallel mode
func (s Strategy) IsParallel() bool {
	return s == StrategyParallel
}

// Config holds configuration for batch iteration
type Config struct {
	Strategy      Strategy // sequential or parallel
	MaxConcurrent int      // Max concurrent workers (0 = runtime.NumCPU())
}

// ProcessFunc is the function called for each batch item
type ProcessFunc func(ctx context.Context, item any, index int) (any, error)
