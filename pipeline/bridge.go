package pipeline

import (
	"context"
	"sync"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/stream"
)

// ThroughOption configures Through.
type ThroughOption func(*throughConfig)

type throughConfig struct {
	onError func(error)
	buffer  int
}

// WithErrorHandler receives the non-fatal errors of the stage. Without
// one they are logged at warn level.
func WithErrorHandler(fn func(error)) ThroughOption {
	return func(c *throughConfig) { c.onError = fn }
}

// WithOutputBuffer sets how many output chunks of the stage may wait for
// Next before the stage is paused. Defaults to 16.
func WithOutputBuffer(n int) ThroughOption {
	return func(c *throughConfig) { c.buffer = n }
}

// Through writes the values of p into a push-based stage and yields what
// the stage emits. The stage is ended when p is exhausted. When Write
// returns false the next value is held back until the stage emits drain.
//
// A fatal error of the stage, or an error of p, is returned by Next after
// the output emitted before it. The stage must be fresh: it is created by
// the caller and used by a single run of the pipeline.
func Through[I, O any](p *Pipeline[I], stage stream.Duplex[I, O], opts ...ThroughOption) *Pipeline[O] {
	cfg := throughConfig{buffer: 16}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.buffer <= 0 {
		cfg.buffer = 1
	}
	if cfg.onError == nil {
		log := logger.Get("pipeline")
		cfg.onError = func(err error) {
			log.Warn("stage error", logger.ErrorFields("through", err))
		}
	}

	return &Pipeline[O]{
		create: func(ctx context.Context) Iterator[O] {
			runCtx, cancel := context.WithCancel(ctx)
			it := &throughIter[I, O]{
				stage:   stage,
				source:  p.create(runCtx),
				out:     make(chan O, cfg.buffer),
				drained: make(chan struct{}, 1),
				cancel:  cancel,
			}
			it.listen(runCtx, cfg.onError)
			it.wg.Add(1)
			go it.pump(runCtx)
			return it
		},
	}
}

type throughIter[I, O any] struct {
	stage   stream.Duplex[I, O]
	source  Iterator[I]
	out     chan O
	drained chan struct{}
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	srcErr error
}

func (it *throughIter[I, O]) listen(ctx context.Context, onError func(error)) {
	var once sync.Once
	finish := func() { once.Do(func() { close(it.out) }) }

	it.stage.OnError(func(err error) {
		if !errors.IsFatal(err) {
			onError(err)
		}
	})
	it.stage.OnDrain(func() {
		select {
		case it.drained <- struct{}{}:
		default:
		}
	})
	it.stage.OnEnd(finish)
	it.stage.OnClose(finish)
	// Events of one stage are delivered one at a time, so no data
	// listener runs after finish.
	it.stage.OnData(func(v O) {
		select {
		case it.out <- v:
		case <-ctx.Done():
		}
	})
}

// pump moves values from the source into the stage.
func (it *throughIter[I, O]) pump(ctx context.Context) {
	defer it.wg.Done()
	defer it.source.Close()

	for {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			it.fail(err)
			return
		}
		if !ok {
			it.stage.End()
			return
		}
		select {
		case <-it.drained:
		default:
		}
		if it.stage.Write(val) {
			continue
		}
		select {
		case <-it.drained:
		case <-it.stage.Done():
			return
		case <-ctx.Done():
			return
		}
	}
}

func (it *throughIter[I, O]) fail(err error) {
	it.mu.Lock()
	it.srcErr = err
	it.mu.Unlock()
	it.stage.Destroy()
}

func (it *throughIter[I, O]) Next(ctx context.Context) (O, bool, error) {
	var zero O
	select {
	case v, open := <-it.out:
		if open {
			return v, true, nil
		}
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}

	it.mu.Lock()
	srcErr := it.srcErr
	it.mu.Unlock()
	if srcErr != nil {
		return zero, false, srcErr
	}
	return zero, false, it.stage.Err()
}

// Close stops the pump, destroys the stage and closes the source.
func (it *throughIter[I, O]) Close() error {
	it.cancel()
	it.stage.Destroy()
	it.wg.Wait()
	return nil
}
