package async

import (
	"context"
	"sync"
)

// Future is the result of work that finishes later. It resolves exactly
// once; later resolutions are ignored.
type Future[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func Resolved[T any](value T) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(value, nil)
	return f
}

func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	var zero T
	f.Resolve(zero, err)
	return f
}

// Resolve sets the outcome. It reports whether this call was the one that
// resolved the future.
func (f *Future[T]) Resolve(value T, err error) bool {
	resolved := false
	f.once.Do(func() {
		f.value = value
		f.err = err
		resolved = true
		close(f.done)
	})
	return resolved
}

func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future resolves or ctx is done. Giving up on the
// wait does not stop the work behind the future.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result peeks at the outcome without blocking.
func (f *Future[T]) Result() (T, error, bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Then returns a future resolved with fn applied to the outcome of f. fn is
// skipped when f fails.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	return ThenOn(Goroutines{}, f, fn)
}

// ThenOn is Then with the continuation running on e.
func ThenOn[T, U any](e Executor, f *Future[T], fn func(T) (U, error)) *Future[U] {
	next := NewFuture[U]()
	e.Go(func() {
		<-f.done
		if f.err != nil {
			var zero U
			next.Resolve(zero, f.err)
			return
		}
		next.Resolve(fn(f.value))
	})
	return next
}

// Run executes fn on e and returns its outcome as a future.
func Run[T any](e Executor, fn func() (T, error)) *Future[T] {
	f := NewFuture[T]()
	e.Go(func() {
		f.Resolve(fn())
	})
	return f
}
