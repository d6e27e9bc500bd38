package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Stage metric names.
const (
	MetricChunksIn  = "stream.chunks.in"
	MetricChunksOut = "stream.chunks.out"
	MetricErrors    = "stream.errors"
	MetricInflight  = "stream.inflight"
)

// StageMetrics holds the instruments shared by all stream stages. A nil
// *StageMetrics records nothing.
type StageMetrics struct {
	chunksIn  metric.Int64Counter
	chunksOut metric.Int64Counter
	errors    metric.Int64Counter
	inflight  metric.Int64UpDownCounter
}

// NewStageMetrics creates stage instruments on the given meter.
func NewStageMetrics(meter metric.Meter) (*StageMetrics, error) {
	chunksIn, err := meter.Int64Counter(MetricChunksIn,
		metric.WithDescription("Chunks written into a stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChunksIn, err)
	}

	chunksOut, err := meter.Int64Counter(MetricChunksOut,
		metric.WithDescription("Chunks emitted by a stage"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChunksOut, err)
	}

	errs, err := meter.Int64Counter(MetricErrors,
		metric.WithDescription("Error events raised by a stage, by code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrors, err)
	}

	inflight, err := meter.Int64UpDownCounter(MetricInflight,
		metric.WithDescription("Chunks waiting on an asynchronous function"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricInflight, err)
	}

	return &StageMetrics{
		chunksIn:  chunksIn,
		chunksOut: chunksOut,
		errors:    errs,
		inflight:  inflight,
	}, nil
}

// ChunkIn records a chunk accepted by stage.
func (m *StageMetrics) ChunkIn(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.chunksIn.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, stage)))
}

// ChunkOut records a chunk emitted by stage.
func (m *StageMetrics) ChunkOut(ctx context.Context, stage string) {
	if m == nil {
		return
	}
	m.chunksOut.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStage, stage)))
}

// Error records an error event raised by stage.
func (m *StageMetrics) Error(ctx context.Context, stage, code string, fatal bool) {
	if m == nil {
		return
	}
	m.errors.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrStage, stage),
		attribute.String("code", code),
		attribute.Bool("fatal", fatal),
	))
}

// Inflight adjusts the number of chunks stage is waiting on.
func (m *StageMetrics) Inflight(ctx context.Context, stage string, delta int64) {
	if m == nil {
		return
	}
	m.inflight.Add(ctx, delta, metric.WithAttributes(attribute.String(AttrStage, stage)))
}
