package delivery

import (
	"context"
	"sync"
)

// Future is the pending outcome of an asynchronous operation.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func resolvedFuture[T any](v T) *Future[T] {
	f := newFuture[T]()
	f.resolve(v)

	return f
}

func (f *Future[T]) resolve(v T) {
	f.once.Do(func() {
		f.val = v
		close(f.done)
	})
}

// Done is closed once the value is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Get blocks until the value is available and returns it.
func (f *Future[T]) Get() T {
	<-f.done
	return f.val
}

// Wait returns the value, or ctx's error if ctx ends first. Abandoning a
// future does not stop the work behind it.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
