// Package observability provides OpenTelemetry tracing and metrics for
// streamkit stages and processes, and the health model served on /health.
//
// Telemetry:
//
//	tel, err := observability.Start(ctx, observability.Config{
//		ServiceName: "streamkit",
//		Endpoint:    "localhost:4318",
//		Insecure:    true,
//		SampleRate:  1,
//	})
//	defer tel.Shutdown(ctx)
//
//	stage := stream.Split[string]("\n", stream.WithMetrics(tel.Stages))
//
// Each spawned process gets a span named SpanProcess.
//
// Health:
//
//	sh := observability.CheckAll(ctx, "streamkit", version.Get().Short(), tel)
package observability
