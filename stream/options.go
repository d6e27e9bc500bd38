package stream

import (
	"context"

	"github.com/kbukum/streamkit/codec"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
)

const defaultHighWaterMark = 16

// Option configures a stage.
type Option func(*options)

type options struct {
	name    string
	log     *logger.Logger
	metrics *observability.StageMetrics
	ctx     context.Context
	hwm     int
	decoder []codec.DecoderOption
}

// WithName sets the stage name used in logs, metrics and error details.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger of the stage.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics makes the stage record chunk and error counts.
func WithMetrics(m *observability.StageMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithContext sets the parent context passed to asynchronous functions.
// The stage cancels its own derived context on Destroy or a fatal error.
func WithContext(ctx context.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// WithHighWaterMark sets how many undelivered chunks a synchronous stage
// buffers before Write returns false.
func WithHighWaterMark(n int) Option {
	return func(o *options) { o.hwm = n }
}

// WithDecoderOptions configures the decoder of Base64Decode.
func WithDecoderOptions(opts ...codec.DecoderOption) Option {
	return func(o *options) { o.decoder = append(o.decoder, opts...) }
}

func buildOptions(name string, opts []Option) options {
	o := options{name: name}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("stream")
	}
	if o.ctx == nil {
		o.ctx = context.Background()
	}
	if o.hwm <= 0 {
		o.hwm = defaultHighWaterMark
	}
	return o
}
