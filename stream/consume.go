package stream

import (
	"context"
	"io"
	"unicode/utf8"

	"github.com/kbukum/streamkit/logger"
)

// Each calls fn for every chunk of r.
func Each[T any](r Readable[T], fn func(T)) {
	mustFunc("fn", fn == nil)
	r.OnData(fn)
}

// Count reports the number of chunks of r to fn when r ends.
func Count[T any](r Readable[T], fn func(n int)) {
	mustFunc("fn", fn == nil)
	n := 0
	r.OnEnd(func() { fn(n) })
	r.OnData(func(T) { n++ })
}

// Chars reports the number of characters of r to fn when r ends.
func Chars[T Text](r Readable[T], fn func(n int)) {
	mustFunc("fn", fn == nil)
	n := 0
	r.OnEnd(func() { fn(n) })
	r.OnData(func(chunk T) { n += utf8.RuneCountInString(string(chunk)) })
}

// Bytes reports the number of bytes of r to fn when r ends.
func Bytes[T Text](r Readable[T], fn func(n int)) {
	mustFunc("fn", fn == nil)
	n := 0
	r.OnEnd(func() { fn(n) })
	r.OnData(func(chunk T) { n += len(chunk) })
}

// Out writes every chunk of r to w. Write failures are logged and the
// remaining chunks discarded; use Copy to observe them.
func Out[T Text](r Readable[T], w io.Writer) {
	failed := false
	r.OnData(func(chunk T) {
		if failed {
			return
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			failed = true
			logger.Get("stream").Warn("output write failed", logger.ErrorFields("out", err))
		}
	})
}

// Copy writes every chunk of r to w and blocks until r is done. It returns
// the first write error or the fatal error of r.
func Copy[T Text](ctx context.Context, r Readable[T], w io.Writer) error {
	var werr error
	r.OnData(func(chunk T) {
		if werr != nil {
			return
		}
		_, werr = w.Write([]byte(chunk))
	})
	if err := Wait(ctx, r); err != nil {
		return err
	}
	return werr
}

// Collect gathers every chunk of r and blocks until r is done.
func Collect[T any](ctx context.Context, r Readable[T]) ([]T, error) {
	var out []T
	r.OnData(func(chunk T) { out = append(out, chunk) })
	if err := Wait(ctx, r); err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return out, err
	}
	return out, nil
}
