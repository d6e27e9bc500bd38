package pipeline

import (
	"context"
	"errors"
)

// errStop ends a ForEach early without reporting an error.
var errStop = errors.New("pipeline: stopped")

// derive builds a pipeline that pulls from p through next. The source is
// closed with the derived iterator.
func derive[I, O any](p *Pipeline[I], next func(ctx context.Context, src Iterator[I]) (O, bool, error)) *Pipeline[O] {
	return FromFunc(func(ctx context.Context) Iterator[O] {
		src := p.create(ctx)
		return &funcIter[O]{
			next:  func(ctx context.Context) (O, bool, error) { return next(ctx, src) },
			close: src.Close,
		}
	})
}

// Map transforms each value. An error from fn ends the pipeline.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return derive(p, func(ctx context.Context, src Iterator[I]) (O, bool, error) {
		v, ok, err := src.Next(ctx)
		if err != nil || !ok {
			return end[O](err)
		}
		out, err := fn(ctx, v)
		if err != nil {
			return end[O](err)
		}
		return out, true, nil
	})
}

// Filter keeps the values keep returns true for.
func Filter[T any](p *Pipeline[T], keep func(T) bool) *Pipeline[T] {
	return derive(p, func(ctx context.Context, src Iterator[T]) (T, bool, error) {
		for {
			v, ok, err := src.Next(ctx)
			if err != nil || !ok {
				return end[T](err)
			}
			if keep(v) {
				return v, true, nil
			}
		}
	})
}

// Tap calls fn with each value and passes it on unchanged. An error from
// fn ends the pipeline.
func Tap[T any](p *Pipeline[T], fn func(context.Context, T) error) *Pipeline[T] {
	return Map(p, func(ctx context.Context, v T) (T, error) { return v, fn(ctx, v) })
}

// Reduce folds every value into init and yields the result once, even
// for an empty pipeline.
func Reduce[T, R any](p *Pipeline[T], init R, fn func(R, T) R) *Pipeline[R] {
	return FromFunc(func(ctx context.Context) Iterator[R] {
		src := p.create(ctx)
		done := false
		return &funcIter[R]{
			next: func(ctx context.Context) (R, bool, error) {
				if done {
					return end[R](nil)
				}
				acc := init
				for {
					v, ok, err := src.Next(ctx)
					if err != nil {
						return end[R](err)
					}
					if !ok {
						done = true
						return acc, true, nil
					}
					acc = fn(acc, v)
				}
			},
			close: src.Close,
		}
	})
}

// Concat yields the pipelines one after another. Each is opened only when
// the previous one is exhausted, and closed before the next is opened.
func Concat[T any](pipelines ...*Pipeline[T]) *Pipeline[T] {
	return FromFunc(func(ctx context.Context) Iterator[T] {
		var cur Iterator[T]
		rest := pipelines
		closeCur := func() error {
			if cur == nil {
				return nil
			}
			err := cur.Close()
			cur = nil
			return err
		}
		return &funcIter[T]{
			next: func(nctx context.Context) (T, bool, error) {
				for {
					if cur == nil {
						if len(rest) == 0 {
							return end[T](nil)
						}
						cur, rest = rest[0].create(ctx), rest[1:]
					}
					v, ok, err := cur.Next(nctx)
					if err != nil || ok {
						return v, ok, err
					}
					if err := closeCur(); err != nil {
						return end[T](err)
					}
				}
			},
			close: closeCur,
		}
	})
}
