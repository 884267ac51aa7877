package concurrency

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_BoundsConcurrency(t *testing.T) {
	l := NewLimiter(2)

	var (
		wg      sync.WaitGroup
		running int64
		maxSeen int64
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := l.Do(context.Background(), func(context.Context) error {
				cur := atomic.AddInt64(&running, 1)
				for {
					seen := atomic.LoadInt64(&maxSeen)
					if cur <= seen || atomic.CompareAndSwapInt64(&maxSeen, seen, cur) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt64(&running, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen, int64(2))
	stats := l.Stats()
	assert.Equal(t, int64(10), stats.Acquired)
	assert.Equal(t, int64(10), stats.Released)
	assert.Equal(t, int64(0), stats.Active)
	assert.LessOrEqual(t, stats.Peak, int64(2))
}

func TestLimiter_AcquireRespectsContext(t *testing.T) {
	l := NewLimiter(1)
	require.NoError(t, l.Acquire(context.Background()))
	defer l.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Acquire(ctx), context.DeadlineExceeded)
}

func TestLimiter_ReleaseWithoutAcquire(t *testing.T) {
	l := NewLimiter(0)
	l.Release()
	assert.Equal(t, int64(0), l.Stats().Released)
}

func TestLimiter_OpensBreaker(t *testing.T) {
	l := NewLimiter(4, WithCircuitBreaker(NewCircuitBreaker(2, time.Hour)))
	boom := errors.New("boom")
	fail := func(context.Context) error { return boom }

	assert.ErrorIs(t, l.Do(context.Background(), fail), boom)
	assert.ErrorIs(t, l.Do(context.Background(), fail), boom)
	assert.ErrorIs(t, l.Do(context.Background(), fail), ErrCircuitOpen)

	stats := l.Stats()
	assert.Equal(t, StateOpen, stats.BreakerState)
	assert.Equal(t, int64(1), stats.Rejected)
}

func TestLimiter_Go(t *testing.T) {
	l := NewLimiter(1)
	done := make(chan struct{})

	require.NoError(t, l.Go(context.Background(), func() error {
		<-done
		return errors.New("handler failed")
	}))
	assert.Equal(t, int64(1), l.Stats().Active)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Go(ctx, func() error { return nil }), context.DeadlineExceeded)

	close(done)
	assert.Eventually(t, func() bool { return l.Stats().Active == 0 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), l.Stats().Released)
}

func TestCircuitBreaker_Recovers(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	cb.RecordFailure()
	assert.True(t, cb.IsOpen())

	time.Sleep(20 * time.Millisecond)
	assert.False(t, cb.IsOpen())
	assert.Equal(t, StateHalfOpen, cb.State())

	for i := 0; i < 5; i++ {
		cb.RecordSuccess()
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)
	cb.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.False(t, cb.IsOpen())

	cb.RecordFailure()
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, int64(0), cb.ConsecutiveFailures())
}

func TestBreakerState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", BreakerState(9).String())
}
