// Package stream provides push-based, chainable stream stages.
//
// A stage accepts chunks through Write and End and delivers results to
// listeners registered with OnData, OnEnd, OnError, OnDrain and OnClose.
// Stages are connected with Pipe or fed from an iterator with Feed.
//
//	split := stream.Split[string]("\n")
//	upper := stream.Pipe(split, stream.ToUpper[string]())
//	stream.Each(upper, func(line string) { fmt.Println(line) })
//	err := stream.Feed(ctx, split, slices.Values(chunks))
//
// Events of a stage are delivered one at a time and in the order they were
// raised. Listeners may call back into the stage (for example Write from a
// drain listener). Data is held until the first OnData listener is
// attached.
//
// Errors raised by a stage are *errors.AppError values. Fatal errors
// (DecodeError, PredicateError) are followed by close and the stage stops
// accepting input; non-fatal errors (MapperError, UpstreamError,
// StreamClosed) leave the stage running.
//
// The Series variants (MapAsyncSeries, FilterAsyncSeries,
// RejectAsyncSeries) run the user function concurrently but emit results in
// the order the chunks were written. Write on them always returns false;
// the stage emits drain each time its reorder queue empties.
package stream
