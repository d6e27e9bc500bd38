package endpoint

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/codec"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/pipeline"
	"github.com/kbukum/streamkit/server/middleware"
	"github.com/kbukum/streamkit/stream"
)

// StreamOptions configures the stream endpoints.
type StreamOptions struct {
	// ChunkSize is the size of the reads from the request body.
	ChunkSize int
	// Delimiter separates lines for the line endpoints.
	Delimiter string
	// Flush and Invalid are the decoder policies used when a request
	// does not choose its own.
	Flush   codec.FlushPolicy
	Invalid codec.InvalidPolicy
	// Metrics, when set, records the stages of every request.
	Metrics *observability.StageMetrics
	Log     *logger.Logger
}

func (o StreamOptions) chunkSize() int {
	if o.ChunkSize <= 0 {
		return 32 * 1024
	}
	return o.ChunkSize
}

func (o StreamOptions) delimiter() string {
	if o.Delimiter == "" {
		return "\n"
	}
	return o.Delimiter
}

func (o StreamOptions) logger() *logger.Logger {
	if o.Log == nil {
		return logger.Get("endpoint")
	}
	return o.Log
}

// request is the per-request view of the options: stages are bound to the
// request context and log with its id.
type request struct {
	opts StreamOptions
	log  *logger.Logger
	c    *gin.Context
}

func newRequest(c *gin.Context, opts StreamOptions) *request {
	log := opts.logger()
	if id := middleware.GetRequestID(c.Request.Context()); id != "" {
		log = log.WithFields(logger.Fields(logger.FieldRequestID, id))
	}
	return &request{opts: opts, log: log, c: c}
}

// stage returns the options of a stage built for this request.
func (r *request) stage(name string, extra ...stream.Option) []stream.Option {
	opts := []stream.Option{
		stream.WithName(name),
		stream.WithContext(r.c.Request.Context()),
		stream.WithLogger(r.log),
		stream.WithMetrics(r.opts.Metrics),
	}
	return append(opts, extra...)
}

// onError logs the non-fatal errors of a stage.
func (r *request) onError(err error) {
	r.log.Warn("Stream error", logger.ErrorFields("stream", err))
}

func (r *request) body() *pipeline.Pipeline[[]byte] {
	return pipeline.FromReader(r.c.Request.Body, r.opts.chunkSize())
}

// streamResponse writes the chunks of p as the response body, flushing
// each one. An error before the first chunk is answered with a JSON error
// body; a later one is reported in the X-Stream-Error trailer.
func streamResponse[T stream.Text](c *gin.Context, p *pipeline.Pipeline[T], contentType string) {
	ctx := c.Request.Context()
	it := p.Iter(ctx)
	defer it.Close()

	chunk, ok, err := it.Next(ctx)
	if err != nil {
		RespondWithError(c, err)
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("Trailer", middleware.StreamErrorTrailer)
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()

	for ok {
		if _, err := c.Writer.Write([]byte(chunk)); err != nil {
			return
		}
		c.Writer.Flush()
		chunk, ok, err = it.Next(ctx)
	}
	if err != nil {
		c.Writer.Header().Set(middleware.StreamErrorTrailer, err.Error())
	}
}
