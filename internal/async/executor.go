package async

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor runs submitted work in the background.
type Executor interface {
	Go(fn func())
}

// Goroutines starts one goroutine per submitted function.
type Goroutines struct{}

func (Goroutines) Go(fn func()) {
	go fn()
}

// Pool runs at most n functions at a time. Submitting never blocks the
// caller; queued work waits inside its own goroutine.
type Pool struct {
	sem *semaphore.Weighted
}

func NewPool(n int64) *Pool {
	return &Pool{sem: semaphore.NewWeighted(n)}
}

func (p *Pool) Go(fn func()) {
	go func() {
		// Acquire only fails on a cancelled context
		_ = p.sem.Acquire(context.Background(), 1)
		defer p.sem.Release(1)
		fn()
	}()
}

// NewExecutor returns a pool for n > 0 and unbounded goroutines otherwise.
func NewExecutor(n int) Executor {
	if n > 0 {
		return NewPool(int64(n))
	}
	return Goroutines{}
}
