package stream

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
)

type eventKind uint8

const (
	evData eventKind = iota
	evError
	evDrain
	evEnd
	evClose
)

type event[T any] struct {
	kind eventKind
	data T
	err  error
}

// emitter owns the listener lists and the ordered outbox of a stage. Stages
// embed it and guard their own state with its mutex. Events are queued
// while holding mu and delivered by flush without it, one at a time.
type emitter[T any] struct {
	mu sync.Mutex

	id      string
	name    string
	log     *logger.Logger
	metrics *observability.StageMetrics
	ctx     context.Context
	cancel  context.CancelFunc
	hwm     int
	release func() // drops stage state on close; called with mu held

	onData  []func(T)
	onEnd   []func()
	onError []func(error)
	onDrain []func()
	onClose []func()

	outbox    []event[T]
	buffered  int // data events in outbox
	needDrain bool
	emitting  bool

	ending         bool // End was called
	ended          bool // end queued
	closed         bool // close queued
	endDelivered   bool
	closeDelivered bool
	finished       bool
	err            error
	done           chan struct{}

	in, out int64
}

func newEmitter[T any](o options) *emitter[T] {
	ctx, cancel := context.WithCancel(o.ctx)
	id := uuid.NewString()
	e := &emitter[T]{
		id:      id,
		name:    o.name,
		log:     o.log.WithFields(logger.Fields(logger.FieldStage, o.name, logger.FieldStreamID, id)),
		metrics: o.metrics,
		ctx:     ctx,
		cancel:  cancel,
		hwm:     o.hwm,
		done:    make(chan struct{}),
	}
	e.log.Debug("stage created")
	return e
}

// ID returns the unique id of the stage.
func (e *emitter[T]) ID() string { return e.id }

// Name returns the stage name.
func (e *emitter[T]) Name() string { return e.name }

// OnData registers a data listener. The first one starts delivery of any
// data buffered so far.
func (e *emitter[T]) OnData(fn func(T)) {
	e.mu.Lock()
	e.onData = append(e.onData, fn)
	e.mu.Unlock()
	e.flush()
}

// OnError registers an error listener. Without any, errors are logged.
func (e *emitter[T]) OnError(fn func(error)) {
	e.mu.Lock()
	e.onError = append(e.onError, fn)
	e.mu.Unlock()
}

// OnDrain registers a drain listener.
func (e *emitter[T]) OnDrain(fn func()) {
	e.mu.Lock()
	e.onDrain = append(e.onDrain, fn)
	e.mu.Unlock()
}

// OnEnd registers an end listener. It runs immediately if end was
// already delivered.
func (e *emitter[T]) OnEnd(fn func()) {
	e.mu.Lock()
	if e.endDelivered {
		e.mu.Unlock()
		fn()
		return
	}
	e.onEnd = append(e.onEnd, fn)
	e.mu.Unlock()
}

// OnClose registers a close listener. It runs immediately if close was
// already delivered.
func (e *emitter[T]) OnClose(fn func()) {
	e.mu.Lock()
	if e.closeDelivered {
		e.mu.Unlock()
		fn()
		return
	}
	e.onClose = append(e.onClose, fn)
	e.mu.Unlock()
}

// Done is closed once end or close has been delivered.
func (e *emitter[T]) Done() <-chan struct{} { return e.done }

// Err returns the fatal error that closed the stage.
func (e *emitter[T]) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// EmitError raises err on the stage. A fatal err closes it.
func (e *emitter[T]) EmitError(err error) {
	e.mu.Lock()
	e.raiseLocked(err)
	e.mu.Unlock()
	e.flush()
}

// Destroy discards pending output and stage state and emits close.
func (e *emitter[T]) Destroy() {
	e.mu.Lock()
	e.closeLocked()
	e.mu.Unlock()
	e.flush()
}

// acceptLocked reports whether a chunk may be written, raising
// StreamClosed after End.
func (e *emitter[T]) acceptLocked() bool {
	if e.closed {
		return false
	}
	if e.ending {
		e.raiseLocked(errors.StreamClosed(e.name, "write"))
		return false
	}
	e.in++
	e.metrics.ChunkIn(e.ctx, e.name)
	return true
}

// writableLocked is the Write result of a stage that buffers its output.
func (e *emitter[T]) writableLocked() bool {
	if e.closed {
		return false
	}
	if e.buffered >= e.hwm {
		e.needDrain = true
		return false
	}
	return true
}

func (e *emitter[T]) pushLocked(v T) {
	if e.closed {
		return
	}
	e.outbox = append(e.outbox, event[T]{kind: evData, data: v})
	e.buffered++
	e.out++
	e.metrics.ChunkOut(e.ctx, e.name)
}

func (e *emitter[T]) raiseLocked(err error) {
	if err == nil {
		return
	}
	if e.closed {
		e.log.Debug("error after close dropped", logger.ErrorFields("raise", err))
		return
	}
	fatal := errors.IsFatal(err)
	code := string(errors.ErrCodeInternal)
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
	}
	e.metrics.Error(e.ctx, e.name, code, fatal)
	e.outbox = append(e.outbox, event[T]{kind: evError, err: err})
	if fatal {
		e.log.Debug("stage failed", logger.Fields(logger.FieldCode, code, logger.FieldError, err.Error()))
		e.err = err
		e.closeLocked()
	}
}

func (e *emitter[T]) drainLocked() {
	if e.closed || e.ended {
		return
	}
	e.outbox = append(e.outbox, event[T]{kind: evDrain})
}

func (e *emitter[T]) endLocked() {
	if e.closed || e.ended {
		return
	}
	e.ended = true
	e.outbox = append(e.outbox, event[T]{kind: evEnd})
	e.log.Debug("stage ended", logger.Fields(logger.FieldChunks, e.out, "chunks_in", e.in))
}

// closeLocked drops undelivered data, drain and end events, keeps queued
// errors and queues close.
func (e *emitter[T]) closeLocked() {
	if e.closed {
		return
	}
	e.closed = true
	e.ending = true
	kept := e.outbox[:0]
	for _, ev := range e.outbox {
		if ev.kind == evError {
			kept = append(kept, ev)
		}
	}
	clear(e.outbox[len(kept):])
	e.outbox = append(kept, event[T]{kind: evClose})
	e.buffered = 0
	e.needDrain = false
	e.cancel()
	if e.release != nil {
		e.release()
	}
	e.log.Debug("stage closed", logger.Fields(logger.FieldChunks, e.out, "chunks_in", e.in))
}

// flush delivers queued events. Only one goroutine delivers at a time; a
// flush that finds delivery in progress returns and leaves its events to
// the running one.
func (e *emitter[T]) flush() {
	e.mu.Lock()
	if e.emitting {
		e.mu.Unlock()
		return
	}
	e.emitting = true
	for len(e.outbox) > 0 {
		ev := e.outbox[0]
		if ev.kind == evData && len(e.onData) == 0 {
			break
		}
		e.outbox[0] = event[T]{}
		e.outbox = e.outbox[1:]

		finish := false
		switch ev.kind {
		case evData:
			e.buffered--
			if e.needDrain && e.buffered == 0 {
				e.needDrain = false
				e.drainLocked()
			}
		case evEnd:
			e.endDelivered = true
			finish = !e.finished
		case evClose:
			e.closeDelivered = true
			finish = !e.finished
		}
		if finish {
			e.finished = true
		}
		onData, onError, onDrain, onEnd, onClose := e.onData, e.onError, e.onDrain, e.onEnd, e.onClose
		e.mu.Unlock()

		switch ev.kind {
		case evData:
			for _, fn := range onData {
				fn(ev.data)
			}
		case evError:
			if len(onError) == 0 {
				e.log.Warn("unhandled stream error", logger.ErrorFields("emit", ev.err))
			}
			for _, fn := range onError {
				fn(ev.err)
			}
		case evDrain:
			for _, fn := range onDrain {
				fn()
			}
		case evEnd:
			for _, fn := range onEnd {
				fn()
			}
		case evClose:
			for _, fn := range onClose {
				fn()
			}
		}
		if finish {
			close(e.done)
		}

		e.mu.Lock()
	}
	e.emitting = false
	e.mu.Unlock()
}

// guard runs fn and converts a panic into an error built by wrap.
func guard(wrap func(error) error, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = wrap(errors.Panic(r))
		}
	}()
	return fn()
}
