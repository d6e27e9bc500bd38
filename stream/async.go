package stream

// AsyncStream runs an asynchronous function for every chunk on its own
// goroutine and emits results in completion order. Write always returns
// true; end is emitted once End was called and nothing is in flight.
type AsyncStream[I, O any] struct {
	*emitter[O]
	fn       asyncFunc[I, O]
	policy   errorPolicy
	inflight int
}

func newAsync[I, O any](name string, fn asyncFunc[I, O], policy errorPolicy, opts []Option) *AsyncStream[I, O] {
	return &AsyncStream[I, O]{
		emitter: newEmitter[O](buildOptions(name, opts)),
		fn:      fn,
		policy:  policy,
	}
}

// Write starts the function for chunk.
func (s *AsyncStream[I, O]) Write(chunk I) bool {
	s.mu.Lock()
	if !s.acceptLocked() {
		s.mu.Unlock()
		s.flush()
		return false
	}
	s.inflight++
	s.metrics.Inflight(s.ctx, s.name, 1)
	ctx := s.ctx
	s.mu.Unlock()

	go func() {
		v, keep, panicked, err := invoke(ctx, s.fn, chunk)
		s.complete(v, keep, panicked, err)
	}()
	return true
}

func (s *AsyncStream[I, O]) complete(v O, keep, panicked bool, err error) {
	s.mu.Lock()
	s.inflight--
	s.metrics.Inflight(s.ctx, s.name, -1)
	if !s.closed {
		switch {
		case err != nil:
			s.raiseLocked(s.policy(s.name, err, panicked))
		case keep:
			s.pushLocked(v)
		}
		if s.ending && s.inflight == 0 {
			s.endLocked()
		}
	}
	s.mu.Unlock()
	s.flush()
}

// End emits end as soon as every started function has completed.
func (s *AsyncStream[I, O]) End() {
	s.mu.Lock()
	if s.ending || s.closed {
		s.mu.Unlock()
		return
	}
	s.ending = true
	if s.inflight == 0 {
		s.endLocked()
	}
	s.mu.Unlock()
	s.flush()
}

var _ Duplex[string, string] = (*AsyncStream[string, string])(nil)
