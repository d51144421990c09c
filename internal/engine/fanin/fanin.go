// Package fanin joins the completion of N independent operations into a single
// callback that fires exactly once.
package fanin

import (
	"context"
	"sync"
	"sync/atomic"

	"go.trai.ch/dependo/internal/core/domain"
	"go.trai.ch/zerr"
)

// Callback reports the outcome of one joined operation.
// Only the first invocation of a given callback is honoured.
type Callback[T any] func(value T, err error)

// New creates n callbacks joined into done.
//
// done is invoked exactly once: with the first reported error, or with all n
// values in callback order once every callback has succeeded. A count of zero
// invokes done immediately with an empty result. A nil done discards the outcome.
func New[T any](n int, done func([]T, error)) ([]Callback[T], error) {
	if n < 0 {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidCount, "cannot create fan-in"), "count", n)
	}
	if done == nil {
		done = func([]T, error) {}
	}

	var once sync.Once
	fire := func(results []T, err error) {
		once.Do(func() { done(results, err) })
	}

	if n == 0 {
		fire([]T{}, nil)
		return []Callback[T]{}, nil
	}

	results := make([]T, n)
	var remaining atomic.Int64
	remaining.Store(int64(n))

	callbacks := make([]Callback[T], n)
	for i := range n {
		var honoured atomic.Bool
		callbacks[i] = func(value T, err error) {
			if !honoured.CompareAndSwap(false, true) {
				return
			}
			if err != nil {
				fire(nil, err)
				return
			}
			results[i] = value
			if remaining.Add(-1) == 0 {
				fire(results, nil)
			}
		}
	}

	return callbacks, nil
}

type outcome[R any] struct {
	results []R
	err     error
}

// Map runs fn for every item on its own goroutine and returns the results
// aligned index-for-index with items.
//
// Map returns as soon as any call fails. The context passed to calls still
// running at that point is cancelled and their results are discarded.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan outcome[R], 1)
	callbacks, err := New(len(items), func(results []R, err error) {
		ch <- outcome[R]{results: results, err: err}
	})
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		go func() {
			callbacks[i](fn(ctx, item))
		}()
	}

	out := <-ch
	return out.results, out.err
}

// ForEach is Map for operations without a result.
func ForEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error) error {
	_, err := Map(ctx, items, func(ctx context.Context, item T) (struct{}, error) {
		return struct{}{}, fn(ctx, item)
	})
	return err
}
