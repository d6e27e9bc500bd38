package pipeline

import (
	"context"
)

// item is one value, or the error that ended the source, crossing a
// goroutine boundary.
type item[T any] struct {
	v   T
	err error
}

// Buffer reads ahead of the consumer on its own goroutine, holding up to
// size values. Use it to overlap slow input, such as a network body, with
// the stages that consume it.
func Buffer[T any](p *Pipeline[T], size int) *Pipeline[T] {
	size = max(size, 1)
	return FromFunc(func(ctx context.Context) Iterator[T] {
		ctx, cancel := context.WithCancel(ctx)
		src := p.create(ctx)
		ch := make(chan item[T], size)
		done := make(chan struct{})

		go func() {
			defer close(done)
			defer close(ch)
			for {
				v, ok, err := src.Next(ctx)
				if !ok && err == nil {
					return
				}
				select {
				case ch <- item[T]{v: v, err: err}:
				case <-ctx.Done():
					return
				}
				if err != nil {
					return
				}
			}
		}()

		return &funcIter[T]{
			next: func(nctx context.Context) (T, bool, error) {
				select {
				case it, open := <-ch:
					if !open {
						return end[T](nil)
					}
					if it.err != nil {
						return end[T](it.err)
					}
					return it.v, true, nil
				case <-nctx.Done():
					return end[T](nctx.Err())
				}
			},
			close: func() error {
				cancel()
				<-done
				return src.Close()
			},
		}
	})
}
