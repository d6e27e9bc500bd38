package stream

import (
	"context"

	"github.com/kbukum/streamkit/errors"
)

// Predicate decides synchronously whether a chunk is kept.
type Predicate[T any] func(chunk T) bool

// Not returns the inverse of p.
func (p Predicate[T]) Not() Predicate[T] {
	return func(chunk T) bool { return !p(chunk) }
}

// AsyncPredicate decides whether a chunk is kept. It runs on its own
// goroutine; ctx is canceled when the stage is destroyed.
type AsyncPredicate[T any] func(ctx context.Context, chunk T) (bool, error)

// Not returns the inverse of p. Errors pass through unchanged.
func (p AsyncPredicate[T]) Not() AsyncPredicate[T] {
	return func(ctx context.Context, chunk T) (bool, error) {
		keep, err := p(ctx, chunk)
		return !keep, err
	}
}

// asyncFunc is the common shape of asynchronous map and filter functions:
// the output value, whether to keep it, and an error.
type asyncFunc[I, O any] func(ctx context.Context, chunk I) (O, bool, error)

// errorPolicy turns an error returned by, or a panic raised in, a user
// function into the error event of a stage.
type errorPolicy func(stage string, err error, panicked bool) error

func mapperPolicy(stage string, err error, panicked bool) error {
	appErr := errors.Mapper(stage, err)
	if panicked {
		appErr.Fatal = true
	}
	return appErr
}

func predicatePolicy(stage string, err error, _ bool) error {
	return errors.Predicate(stage, err)
}

// invoke runs fn, recovering a panic.
func invoke[I, O any](ctx context.Context, fn asyncFunc[I, O], chunk I) (v O, keep, panicked bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicked, err = true, errors.Panic(r)
		}
	}()
	v, keep, err = fn(ctx, chunk)
	return v, keep, false, err
}

func mustFunc(param string, isNil bool) {
	if isNil {
		panic(errors.InvalidArgument(param, "must not be nil"))
	}
}
