package stream

import (
	"github.com/kbukum/streamkit/errors"
)

// Transformer is the synchronous logic of a Stream. Transform is called
// once per written chunk and Flush once on End; both emit output through
// push. They run under the stage lock and must not call back into it.
type Transformer[I, O any] interface {
	Transform(chunk I, push func(O)) error
	Flush(push func(O)) error
}

// Resetter is implemented by transformers that hold state which must be
// released when the stage is destroyed.
type Resetter interface {
	Reset()
}

// TransformFunc adapts a function to a Transformer with no flush step.
type TransformFunc[I, O any] func(chunk I, push func(O)) error

// Transform calls f.
func (f TransformFunc[I, O]) Transform(chunk I, push func(O)) error { return f(chunk, push) }

// Flush does nothing.
func (f TransformFunc[I, O]) Flush(func(O)) error { return nil }

// Stream is a synchronous stage driven by a Transformer. Write returns
// false once the undelivered output reaches the high water mark; drain
// follows when it has been delivered.
type Stream[I, O any] struct {
	*emitter[O]
	t         Transformer[I, O]
	recoverAs func(error) error
}

// New creates a Stream from t.
func New[I, O any](t Transformer[I, O], opts ...Option) *Stream[I, O] {
	return newStream("transform", t, opts)
}

func newStream[I, O any](name string, t Transformer[I, O], opts []Option) *Stream[I, O] {
	if t == nil {
		panic(errors.InvalidArgument("transformer", "must not be nil"))
	}
	s := &Stream[I, O]{
		emitter:   newEmitter[O](buildOptions(name, opts)),
		t:         t,
		recoverAs: func(err error) error { return errors.Internal(err) },
	}
	if r, ok := t.(Resetter); ok {
		s.release = r.Reset
	}
	return s
}

// Write transforms one chunk.
func (s *Stream[I, O]) Write(chunk I) bool {
	s.mu.Lock()
	if !s.acceptLocked() {
		s.mu.Unlock()
		s.flush()
		return false
	}
	err := guard(s.recoverAs, func() error { return s.t.Transform(chunk, s.pushLocked) })
	s.raiseLocked(err)
	ok := s.writableLocked()
	s.mu.Unlock()
	s.flush()
	return ok
}

// End flushes the transformer and emits end.
func (s *Stream[I, O]) End() {
	s.mu.Lock()
	if s.ending || s.closed {
		s.mu.Unlock()
		return
	}
	s.ending = true
	err := guard(s.recoverAs, func() error { return s.t.Flush(s.pushLocked) })
	s.raiseLocked(err)
	s.endLocked()
	s.mu.Unlock()
	s.flush()
}

var _ Duplex[string, string] = (*Stream[string, string])(nil)
