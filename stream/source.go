package stream

import (
	"context"

	"github.com/kbukum/streamkit/logger"
)

// Source is a readable stage whose output is produced outside this
// package, typically by a goroutine reading a file, a socket or a process.
// Its methods may be called from any goroutine.
type Source[T any] struct {
	*emitter[T]
}

// NewSource creates a Source. Its name defaults to "source".
func NewSource[T any](opts ...Option) *Source[T] {
	return &Source[T]{emitter: newEmitter[T](buildOptions("source", opts))}
}

// Context is canceled when the source closes.
func (s *Source[T]) Context() context.Context { return s.ctx }

// Log returns the logger of the source, tagged with its name and id.
func (s *Source[T]) Log() *logger.Logger { return s.log }

// Push emits v. Values pushed after Finish or close are dropped.
func (s *Source[T]) Push(v T) {
	s.mu.Lock()
	if !s.ended {
		s.pushLocked(v)
	}
	s.mu.Unlock()
	s.flush()
}

// Drain emits drain.
func (s *Source[T]) Drain() {
	s.mu.Lock()
	s.drainLocked()
	s.mu.Unlock()
	s.flush()
}

// Finish emits end after everything pushed so far.
func (s *Source[T]) Finish() {
	s.mu.Lock()
	s.ending = true
	s.endLocked()
	s.mu.Unlock()
	s.flush()
}

// Close emits close after every queued event. Unlike Destroy it keeps
// undelivered data and end.
func (s *Source[T]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.ending = true
	s.outbox = append(s.outbox, event[T]{kind: evClose})
	s.cancel()
	if s.release != nil {
		s.release()
	}
	s.mu.Unlock()
	s.flush()
}

// Closed reports whether the source has been closed or destroyed.
func (s *Source[T]) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
