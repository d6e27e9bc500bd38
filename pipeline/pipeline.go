package pipeline

import (
	"context"
	"io"
	"iter"
	"slices"

	"github.com/kbukum/streamkit/stream"
)

const defaultReadSize = 32 * 1024

// Iterator pulls values one at a time.
type Iterator[T any] interface {
	// Next returns the next value, or ok == false once exhausted.
	Next(ctx context.Context) (v T, ok bool, err error)
	// Close releases the iterator and everything upstream of it.
	Close() error
}

// Pipeline is a lazy, pull-based sequence. Nothing runs until a terminal
// (Collect, ForEach, Copy, Values or Iter) opens it, and each open starts
// from the beginning.
type Pipeline[T any] struct {
	create func(ctx context.Context) Iterator[T]
}

// Iter opens the pipeline. The caller must Close the iterator.
func (p *Pipeline[T]) Iter(ctx context.Context) Iterator[T] { return p.create(ctx) }

// funcIter is an Iterator made of two closures. close may be nil.
type funcIter[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (it *funcIter[T]) Next(ctx context.Context) (T, bool, error) { return it.next(ctx) }

func (it *funcIter[T]) Close() error {
	if it.close == nil {
		return nil
	}
	return it.close()
}

func end[T any](err error) (T, bool, error) {
	var zero T
	return zero, false, err
}

// From wraps an Iterator. The pipeline can only be opened once.
func From[T any](it Iterator[T]) *Pipeline[T] {
	return FromFunc(func(context.Context) Iterator[T] { return it })
}

// FromFunc builds a pipeline whose iterator is made by fn on each open.
func FromFunc[T any](fn func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{create: fn}
}

// FromSlice yields the items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return FromFunc(func(context.Context) Iterator[T] {
		rest := items
		return &funcIter[T]{next: func(context.Context) (T, bool, error) {
			if len(rest) == 0 {
				return end[T](nil)
			}
			v := rest[0]
			rest = rest[1:]
			return v, true, nil
		}}
	})
}

// FromSeq yields the values of seq. Closing the iterator early stops seq.
func FromSeq[T any](seq iter.Seq[T]) *Pipeline[T] {
	return FromFunc(func(context.Context) Iterator[T] {
		next, stop := iter.Pull(seq)
		return &funcIter[T]{
			next: func(ctx context.Context) (T, bool, error) {
				if err := ctx.Err(); err != nil {
					return end[T](err)
				}
				v, ok := next()
				return v, ok, nil
			},
			close: func() error { stop(); return nil },
		}
	})
}

// FromReader yields the chunks read from r, each a fresh slice of at most
// size bytes (32 KiB when size is not positive). An io.Closer is closed
// with the iterator.
func FromReader(r io.Reader, size int) *Pipeline[[]byte] {
	if size <= 0 {
		size = defaultReadSize
	}
	return FromFunc(func(context.Context) Iterator[[]byte] {
		buf := make([]byte, size)
		eof := false
		return &funcIter[[]byte]{
			next: func(ctx context.Context) ([]byte, bool, error) {
				for !eof {
					if err := ctx.Err(); err != nil {
						return nil, false, err
					}
					n, err := r.Read(buf)
					switch {
					case err == io.EOF:
						eof = true
					case err != nil:
						return nil, false, err
					}
					if n > 0 {
						return slices.Clone(buf[:n]), true, nil
					}
				}
				return nil, false, nil
			},
			close: func() error {
				if c, ok := r.(io.Closer); ok {
					return c.Close()
				}
				return nil
			},
		}
	})
}

// ForEach calls fn with every value until the pipeline is exhausted or
// either side fails.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	it := p.create(ctx)
	defer it.Close()
	for {
		v, ok, err := it.Next(ctx)
		if err != nil || !ok {
			return err
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
}

// Collect returns every value. On error it also returns the values pulled
// before it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	err := ForEach(ctx, p, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

// Copy writes every chunk to w and returns the number of bytes written.
func Copy[T stream.Text](ctx context.Context, p *Pipeline[T], w io.Writer) (int64, error) {
	var n int64
	err := ForEach(ctx, p, func(_ context.Context, chunk T) error {
		nw, err := w.Write([]byte(chunk))
		n += int64(nw)
		return err
	})
	return n, err
}

// Values adapts p to an iter.Seq, for consumers such as stream.Feed. The
// error that stopped the pipeline, if any, is stored in errp.
func Values[T any](ctx context.Context, p *Pipeline[T], errp *error) iter.Seq[T] {
	return func(yield func(T) bool) {
		stop := errStop
		err := ForEach(ctx, p, func(_ context.Context, v T) error {
			if !yield(v) {
				return stop
			}
			return nil
		})
		if err != nil && err != stop {
			*errp = err
		}
	}
}
