// Package pipeline provides composable, pull-based data pipelines and a
// bridge into push-based stream stages.
//
// Pipelines are lazy: no work happens until values are pulled via Collect,
// ForEach, Copy or Values. Each stage pulls from the previous stage on
// demand, providing natural backpressure without explicit flow control.
//
// # Operators
//
// Synchronous (single-goroutine):
//
//   - Map: transform each value
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value (logging, counters)
//   - Reduce: accumulate all values into one result
//   - Concat: join pipelines sequentially
//
// Sources: FromSlice, FromSeq, FromReader, FromFunc and From.
//
// Concurrent:
//
//   - Buffer: read ahead of the consumer on a separate goroutine
//   - Through: run values through a stream stage (see package stream)
//
// # Usage
//
//	src := pipeline.FromReader(os.Stdin, 0)
//	lines := pipeline.Through(src, stream.Split[[]byte]("\n"))
//	hits := pipeline.Through(lines, stream.Filter(match))
//	_, err := pipeline.Copy(ctx, hits, os.Stdout)
package pipeline
