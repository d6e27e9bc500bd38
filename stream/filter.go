package stream

import (
	"context"

	"github.com/kbukum/streamkit/errors"
)

// Filter passes through the chunks for which pred returns true.
func Filter[T any](pred Predicate[T], opts ...Option) *Stream[T, T] {
	return newFilter("filter", pred, opts)
}

// Reject drops the chunks for which pred returns true.
func Reject[T any](pred Predicate[T], opts ...Option) *Stream[T, T] {
	mustFunc("predicate", pred == nil)
	return newFilter("reject", pred.Not(), opts)
}

func newFilter[T any](name string, pred Predicate[T], opts []Option) *Stream[T, T] {
	mustFunc("predicate", pred == nil)
	s := newStream(name, TransformFunc[T, T](func(chunk T, push func(T)) error {
		if pred(chunk) {
			push(chunk)
		}
		return nil
	}), opts)
	s.recoverAs = func(err error) error { return errors.Predicate(s.name, err) }
	return s
}

// FilterAsync passes through the chunks for which pred returns true, in
// completion order.
func FilterAsync[T any](pred AsyncPredicate[T], opts ...Option) *AsyncStream[T, T] {
	mustFunc("predicate", pred == nil)
	return newAsync("filter-async", keepIf(pred), predicatePolicy, opts)
}

// RejectAsync drops the chunks for which pred returns true, in completion
// order.
func RejectAsync[T any](pred AsyncPredicate[T], opts ...Option) *AsyncStream[T, T] {
	mustFunc("predicate", pred == nil)
	return newAsync("reject-async", keepIf(pred.Not()), predicatePolicy, opts)
}

// FilterAsyncSeries passes through the chunks for which pred returns true,
// in write order.
func FilterAsyncSeries[T any](pred AsyncPredicate[T], opts ...Option) *SeriesStream[T, T] {
	mustFunc("predicate", pred == nil)
	return newSeries("filter-series", keepIf(pred), predicatePolicy, opts)
}

// RejectAsyncSeries drops the chunks for which pred returns true, in write
// order.
func RejectAsyncSeries[T any](pred AsyncPredicate[T], opts ...Option) *SeriesStream[T, T] {
	mustFunc("predicate", pred == nil)
	return newSeries("reject-series", keepIf(pred.Not()), predicatePolicy, opts)
}

func keepIf[T any](pred AsyncPredicate[T]) asyncFunc[T, T] {
	return func(ctx context.Context, chunk T) (T, bool, error) {
		keep, err := pred(ctx, chunk)
		return chunk, keep, err
	}
}
