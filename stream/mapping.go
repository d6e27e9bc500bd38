package stream

import (
	"context"

	"github.com/kbukum/streamkit/errors"
)

// Map converts every chunk with fn.
func Map[I, O any](fn func(I) O, opts ...Option) *Stream[I, O] {
	mustFunc("mapper", fn == nil)
	return newStream("map", TransformFunc[I, O](func(chunk I, push func(O)) error {
		push(fn(chunk))
		return nil
	}), opts)
}

// TryMap converts every chunk with fn. A chunk for which fn fails is
// dropped and reported as a non-fatal MapperError.
func TryMap[I, O any](fn func(I) (O, error), opts ...Option) *Stream[I, O] {
	mustFunc("mapper", fn == nil)
	var s *Stream[I, O]
	s = newStream("try-map", TransformFunc[I, O](func(chunk I, push func(O)) error {
		v, err := fn(chunk)
		if err != nil {
			return errors.Mapper(s.name, err)
		}
		push(v)
		return nil
	}), opts)
	return s
}

// MapAsync converts every chunk with fn on its own goroutine and emits
// results in completion order. A failed chunk is dropped and reported as a
// non-fatal MapperError.
func MapAsync[I, O any](fn func(ctx context.Context, chunk I) (O, error), opts ...Option) *AsyncStream[I, O] {
	mustFunc("mapper", fn == nil)
	return newAsync("map-async", alwaysKeep(fn), mapperPolicy, opts)
}

// MapAsyncSeries converts every chunk with fn concurrently and emits
// results in write order. A failed chunk is dropped and reported as a
// non-fatal MapperError; later results are still emitted.
func MapAsyncSeries[I, O any](fn func(ctx context.Context, chunk I) (O, error), opts ...Option) *SeriesStream[I, O] {
	mustFunc("mapper", fn == nil)
	return newSeries("map-series", alwaysKeep(fn), mapperPolicy, opts)
}

func alwaysKeep[I, O any](fn func(context.Context, I) (O, error)) asyncFunc[I, O] {
	return func(ctx context.Context, chunk I) (O, bool, error) {
		v, err := fn(ctx, chunk)
		return v, err == nil, err
	}
}
