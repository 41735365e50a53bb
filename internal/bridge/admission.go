package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/xdg/cmdbridge/internal/metrics"
)

// ErrCapacityExceeded is returned when no admission slot frees up within the
// admission wait.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// admission is a bounded pool of execution slots. The pool is touched only
// through acquire and the release func it returns.
type admission struct {
	sem      *semaphore.Weighted
	capacity int64
	wait     time.Duration
	inFlight atomic.Int64
}

func newAdmission(capacity int, wait time.Duration) *admission {
	if capacity <= 0 {
		capacity = 1
	}
	metrics.SetCapacity(capacity)
	return &admission{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: int64(capacity),
		wait:     wait,
	}
}

// acquire takes one slot, waiting at most a.wait. The returned release func
// is idempotent and must be called exactly when the execution ends.
func (a *admission) acquire(ctx context.Context) (func(), error) {
	if !a.sem.TryAcquire(1) {
		if a.wait <= 0 {
			return nil, ErrCapacityExceeded
		}
		waitCtx, cancel := context.WithTimeout(ctx, a.wait)
		defer cancel()
		if err := a.sem.Acquire(waitCtx, 1); err != nil {
			return nil, ErrCapacityExceeded
		}
	}

	metrics.SetInFlight(a.inFlight.Add(1))
	var once sync.Once
	return func() {
		once.Do(func() {
			metrics.SetInFlight(a.inFlight.Add(-1))
			a.sem.Release(1)
		})
	}, nil
}

// stats returns the current in-flight count and the capacity.
func (a *admission) stats() (int64, int64) {
	return a.inFlight.Load(), a.capacity
}
