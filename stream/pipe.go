package stream

import (
	"context"
	"iter"

	"github.com/kbukum/streamkit/errors"
)

type errorSink interface {
	EmitError(err error)
}

type named interface {
	Name() string
}

type finisher interface {
	Done() <-chan struct{}
	Err() error
}

// Pipe forwards the data and end of src into dst and returns dst. Errors
// raised by src are re-raised on dst as non-fatal UpstreamErrors; a fatal
// error closes src without ending dst. Pipe does not pause src when dst
// asks for drain.
func Pipe[T any, D Writable[T]](src Readable[T], dst D) D {
	from := "source"
	if n, ok := src.(named); ok {
		from = n.Name()
	}
	sink, _ := any(dst).(errorSink)

	src.OnError(func(err error) {
		if sink != nil {
			sink.EmitError(errors.Upstream(from, err))
		}
	})
	src.OnEnd(dst.End)
	src.OnData(func(chunk T) { dst.Write(chunk) })
	return dst
}

// Feed writes every value of seq into dst and ends it. When Write returns
// false, Feed waits for drain before writing again. It returns early with
// the context error, or with the fatal error of dst if dst closes.
func Feed[T any](ctx context.Context, dst Writable[T], seq iter.Seq[T]) error {
	drained := make(chan struct{}, 1)
	dst.OnDrain(func() {
		select {
		case drained <- struct{}{}:
		default:
		}
	})

	var done <-chan struct{}
	fin, _ := dst.(finisher)
	if fin != nil {
		done = fin.Done()
	}

	for v := range seq {
		if err := ctx.Err(); err != nil {
			return err
		}
		select {
		case <-drained:
		default:
		}
		if dst.Write(v) {
			continue
		}
		select {
		case <-drained:
		case <-ctx.Done():
			return ctx.Err()
		case <-done:
			if err := fin.Err(); err != nil {
				return err
			}
			return errors.StreamClosed(nameOf(dst), "write")
		}
	}
	dst.End()
	return nil
}

// Wait blocks until r has delivered end or close and returns its fatal
// error, if any.
func Wait[T any](ctx context.Context, r Readable[T]) error {
	select {
	case <-r.Done():
		return r.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func nameOf(v any) string {
	if n, ok := v.(named); ok {
		return n.Name()
	}
	return "stream"
}
