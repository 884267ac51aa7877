package concurrency

import (
	"sync"
	"sync/atomic"
	"time"
)

// BreakerState represents the state of a CircuitBreaker
type BreakerState int32

const (
	// StateClosed lets requests through
	StateClosed BreakerState = iota

	// StateOpen rejects requests until the reset timeout elapses
	StateOpen

	// StateHalfOpen lets requests through while probing for recovery
	StateHalfOpen
)

// CircuitBreaker sheds load after repeated handler failures
type CircuitBreaker struct {
	state                int32 // atomic: BreakerState
	consecutiveFailures  int64 // atomic
	consecutiveSuccesses int64 // atomic
	lastFailureTime      int64 // atomic: unix nanos

	failureThreshold int64
	recoveryProbes   int64
	resetTimeout     time.Duration
	mu               sync.Mutex
}

// NewCircuitBreaker opens after failureThreshold consecutive failures and
// probes again once resetTimeout has passed
func NewCircuitBreaker(failureThreshold int64, resetTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 10
	}
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	return &CircuitBreaker{
		state:            int32(StateClosed),
		failureThreshold: failureThreshold,
		recoveryProbes:   5,
		resetTimeout:     resetTimeout,
	}
}

// IsOpen reports whether requests are currently rejected
func (cb *CircuitBreaker) IsOpen() bool {
	if cb.State() != StateOpen {
		return false
	}

	lastFailure := atomic.LoadInt64(&cb.lastFailureTime)
	if lastFailure > 0 && time.Since(time.Unix(0, lastFailure)) > cb.resetTimeout {
		cb.transitionTo(StateHalfOpen)
		return false
	}
	return true
}

// RecordSuccess records a handled request
func (cb *CircuitBreaker) RecordSuccess() {
	atomic.StoreInt64(&cb.consecutiveFailures, 0)

	if cb.State() == StateHalfOpen {
		if atomic.AddInt64(&cb.consecutiveSuccesses, 1) >= cb.recoveryProbes {
			cb.transitionTo(StateClosed)
		}
	}
}

// RecordFailure records a failed request
func (cb *CircuitBreaker) RecordFailure() {
	state := cb.State()
	atomic.StoreInt64(&cb.consecutiveSuccesses, 0)
	atomic.StoreInt64(&cb.lastFailureTime, time.Now().UnixNano())
	failures := atomic.AddInt64(&cb.consecutiveFailures, 1)

	switch {
	case state == StateHalfOpen:
		cb.transitionTo(StateOpen)
	case state == StateClosed && failures >= cb.failureThreshold:
		cb.transitionTo(StateOpen)
	}
}

// State returns the current state
func (cb *CircuitBreaker) State() BreakerState {
	return BreakerState(atomic.LoadInt32(&cb.state))
}

// ConsecutiveFailures returns the current failure streak
func (cb *CircuitBreaker) ConsecutiveFailures() int64 {
	return atomic.LoadInt64(&cb.consecutiveFailures)
}

// Reset closes the breaker and clears its counters
func (cb *CircuitBreaker) Reset() {
	cb.transitionTo(StateClosed)
	atomic.StoreInt64(&cb.consecutiveFailures, 0)
	atomic.StoreInt64(&cb.lastFailureTime, 0)
}

func (cb *CircuitBreaker) transitionTo(next BreakerState) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.State() == next {
		return
	}
	atomic.StoreInt32(&cb.state, int32(next))

	switch next {
	case StateClosed:
		atomic.StoreInt64(&cb.consecutiveFailures, 0)
		atomic.StoreInt64(&cb.consecutiveSuccesses, 0)
	case StateHalfOpen:
		atomic.StoreInt64(&cb.consecutiveSuccesses, 0)
	}
}

func (s BreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}
