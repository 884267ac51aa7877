// Package concurrency bounds how many requests the action service handles at once.
package concurrency

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrCircuitOpen is returned by Do while the breaker rejects requests
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Stats is a point-in-time view of limiter activity
type Stats struct {
	Active       int64
	Acquired     int64
	Released     int64
	Peak         int64
	Rejected     int64
	AvgWait      time.Duration
	BreakerState BreakerState
}

// Limiter is a semaphore with a circuit breaker in front of it
type Limiter struct {
	sem     chan struct{}
	breaker *CircuitBreaker

	active     int64
	acquired   int64
	released   int64
	peak       int64
	rejected   int64
	waitTimeNs int64
}

// Option configures a Limiter
type Option func(*Limiter)

// WithCircuitBreaker replaces the default breaker
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(l *Limiter) {
		if cb != nil {
			l.breaker = cb
		}
	}
}

// NewLimiter allows at most maxConcurrent calls to run at once
func NewLimiter(maxConcurrent int, opts ...Option) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	l := &Limiter{
		sem:     make(chan struct{}, maxConcurrent),
		breaker: NewCircuitBreaker(100, 30*time.Second),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire waits for a free slot
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.breaker.IsOpen() {
		atomic.AddInt64(&l.rejected, 1)
		return ErrCircuitOpen
	}

	start := time.Now()
	select {
	case l.sem <- struct{}{}:
		atomic.AddInt64(&l.waitTimeNs, time.Since(start).Nanoseconds())
		atomic.AddInt64(&l.acquired, 1)
		l.updatePeak(atomic.AddInt64(&l.active, 1))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire
func (l *Limiter) Release() {
	select {
	case <-l.sem:
		atomic.AddInt64(&l.active, -1)
		atomic.AddInt64(&l.released, 1)
	default:
	}
}

// Do runs fn inside a slot and feeds its outcome to the breaker
func (l *Limiter) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}
	defer l.Release()

	if err := fn(ctx); err != nil {
		l.breaker.RecordFailure()
		return err
	}
	l.breaker.RecordSuccess()
	return nil
}

// Go acquires a slot, then runs fn on its own goroutine and releases the slot when fn returns.
// Only the acquisition can fail; fn's outcome goes to the breaker.
func (l *Limiter) Go(ctx context.Context, fn func() error) error {
	if err := l.Acquire(ctx); err != nil {
		return err
	}

	go func() {
		defer l.Release()
		if err := fn(); err != nil {
			l.breaker.RecordFailure()
			return
		}
		l.breaker.RecordSuccess()
	}()
	return nil
}

// Stats returns current counters
func (l *Limiter) Stats() Stats {
	s := Stats{
		Active:       atomic.LoadInt64(&l.active),
		Acquired:     atomic.LoadInt64(&l.acquired),
		Released:     atomic.LoadInt64(&l.released),
		Peak:         atomic.LoadInt64(&l.peak),
		Rejected:     atomic.LoadInt64(&l.rejected),
		BreakerState: l.breaker.State(),
	}
	if s.Acquired > 0 {
		s.AvgWait = time.Duration(atomic.LoadInt64(&l.waitTimeNs) / s.Acquired)
	}
	return s
}

func (l *Limiter) updatePeak(current int64) {
	for {
		peak := atomic.LoadInt64(&l.peak)
		if current <= peak || atomic.CompareAndSwapInt64(&l.peak, peak, current) {
			return
		}
	}
}
