package stream

import "github.com/kbukum/streamkit/logger"

// SeriesStream runs an asynchronous function for every chunk concurrently
// but emits results in the order the chunks were written. Completed
// results wait in a reorder queue until every earlier chunk has settled.
//
// Write always returns false. Each time the queue empties the stage emits
// drain, or end if End was called.
type SeriesStream[I, O any] struct {
	*emitter[O]
	fn     asyncFunc[I, O]
	policy errorPolicy
	queue  reorderQueue[O]
}

func newSeries[I, O any](name string, fn asyncFunc[I, O], policy errorPolicy, opts []Option) *SeriesStream[I, O] {
	s := &SeriesStream[I, O]{
		emitter: newEmitter[O](buildOptions(name, opts)),
		fn:      fn,
		policy:  policy,
	}
	s.release = s.queue.reset
	return s
}

// Write queues chunk and starts the function for it.
func (s *SeriesStream[I, O]) Write(chunk I) bool {
	seq, ok := s.admit()
	if !ok {
		return false
	}
	ctx := s.ctx
	go func() {
		v, keep, panicked, err := invoke(ctx, s.fn, chunk)
		s.settle(seq, v, keep, panicked, err)
	}()
	return false
}

// admit appends a pending item for a written chunk.
func (s *SeriesStream[I, O]) admit() (uint64, bool) {
	s.mu.Lock()
	if !s.acceptLocked() {
		s.mu.Unlock()
		s.flush()
		return 0, false
	}
	seq := s.queue.push()
	s.metrics.Inflight(s.ctx, s.name, 1)
	s.mu.Unlock()
	return seq, true
}

// settle records the outcome for item seq and emits every settled item at
// the front of the queue.
func (s *SeriesStream[I, O]) settle(seq uint64, v O, keep, panicked bool, err error) {
	s.mu.Lock()
	s.settleLocked(seq, v, keep, panicked, err)
	s.mu.Unlock()
	s.flush()
}

func (s *SeriesStream[I, O]) settleLocked(seq uint64, v O, keep, panicked bool, err error) {
	if s.closed {
		return
	}
	it := s.queue.at(seq)
	if it == nil || it.state != itemPending {
		s.log.Warn("duplicate completion ignored", logger.Fields("seq", seq, logger.FieldPending, s.queue.n))
		return
	}
	s.metrics.Inflight(s.ctx, s.name, -1)

	switch {
	case err != nil:
		it.state = itemSkip
		s.raiseLocked(s.policy(s.name, err, panicked))
		if s.closed {
			return
		}
	case keep:
		it.state = itemKeep
		it.value = v
	default:
		it.state = itemSkip
	}

	for front := s.queue.front(); front != nil && front.state != itemPending; front = s.queue.front() {
		if front.state == itemKeep {
			s.pushLocked(front.value)
		}
		s.queue.pop()
	}

	if s.queue.size() == 0 {
		if s.ending {
			s.endLocked()
		} else {
			s.drainLocked()
		}
	}
}

// Pending returns the number of chunks in the reorder queue.
func (s *SeriesStream[I, O]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.size()
}

// End emits end once the reorder queue is empty.
func (s *SeriesStream[I, O]) End() {
	s.mu.Lock()
	if s.ending || s.closed {
		s.mu.Unlock()
		return
	}
	s.ending = true
	if s.queue.size() == 0 {
		s.endLocked()
	}
	s.mu.Unlock()
	s.flush()
}

var _ Duplex[string, string] = (*SeriesStream[string, string])(nil)
