package observability

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/kbukum/streamkit/logger"
)

// Config configures the OTLP/HTTP exporters for traces and metrics.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	// Endpoint is the collector host:port, e.g. "localhost:4318".
	Endpoint string
	Insecure bool
	// SampleRate is the fraction of process spans kept, 0 to 1.
	SampleRate float64
	// Interval is the metric export period. Zero uses the SDK default.
	Interval time.Duration
}

func (c Config) sampler() sdktrace.Sampler {
	switch {
	case c.SampleRate >= 1:
		return sdktrace.AlwaysSample()
	case c.SampleRate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SampleRate))
	}
}

// resource carries no schema URL of its own so it merges with whatever
// schema the SDK's detectors use.
func (c Config) resource(ctx context.Context) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(c.ServiceName),
			semconv.ServiceVersion(c.ServiceVersion),
			attribute.String("environment", c.Environment),
		),
	)
}

// Telemetry owns the tracer and meter providers it installed as the otel
// globals, and the stage instruments created on them.
type Telemetry struct {
	Traces  *sdktrace.TracerProvider
	Metrics *sdkmetric.MeterProvider
	Stages  *StageMetrics

	endpoint string
}

// Start creates both exporters and installs their providers globally.
// The exporters connect lazily, so Start succeeds without a collector.
func Start(ctx context.Context, cfg Config) (*Telemetry, error) {
	res, err := cfg.resource(ctx)
	if err != nil {
		return nil, fmt.Errorf("telemetry resource: %w", err)
	}

	traceOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	metricOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		traceOpts = append(traceOpts, otlptracehttp.WithInsecure())
		metricOpts = append(metricOpts, otlpmetrichttp.WithInsecure())
	}

	spans, err := otlptracehttp.New(ctx, traceOpts...)
	if err != nil {
		return nil, fmt.Errorf("trace exporter: %w", err)
	}
	points, err := otlpmetrichttp.New(ctx, metricOpts...)
	if err != nil {
		_ = spans.Shutdown(ctx)
		return nil, fmt.Errorf("metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	t := &Telemetry{
		Traces: sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(spans),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(cfg.sampler()),
		),
		Metrics: sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(points, readerOpts...)),
			sdkmetric.WithResource(res),
		),
		endpoint: cfg.Endpoint,
	}
	if t.Stages, err = NewStageMetrics(t.Metrics.Meter(instrumentation)); err != nil {
		_ = t.Shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(t.Traces)
	otel.SetMeterProvider(t.Metrics)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Get("telemetry").Info("telemetry started", logger.Fields(
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
		"interval", cfg.Interval.String(),
	))
	return t, nil
}

// Shutdown flushes and stops both providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return stderrors.Join(t.Metrics.Shutdown(ctx), t.Traces.Shutdown(ctx))
}

// CheckHealth reports the exporter as degraded when a forced flush to the
// collector fails. Stream processing does not depend on it.
func (t *Telemetry) CheckHealth(ctx context.Context) Health {
	h := Health{Name: "telemetry", Status: HealthStatusUp, Details: map[string]string{"endpoint": t.endpoint}}
	if err := stderrors.Join(t.Metrics.ForceFlush(ctx), t.Traces.ForceFlush(ctx)); err != nil {
		h.Status = HealthStatusDegraded
		h.Message = err.Error()
	}
	return h
}
