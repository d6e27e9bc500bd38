package endpoint

import (
	"context"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/pipeline"
	"github.com/kbukum/streamkit/stream"
)

type grepQuery struct {
	Pattern string `form:"pattern" binding:"required"`
	Invert  bool   `form:"invert"`
	Unique  bool   `form:"unique"`
}

// Grep streams the lines of the request body that match the pattern query
// parameter. invert=true keeps the lines that do not match; unique=true
// drops repeated lines.
func Grep(opts StreamOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q grepQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			RespondWithError(c, errors.Validation("pattern query parameter is required").WithCause(err))
			return
		}
		re, err := regexp.Compile(q.Pattern)
		if err != nil {
			RespondWithError(c, errors.InvalidArgument("pattern", err.Error()))
			return
		}

		r := newRequest(c, opts)
		handler := pipeline.WithErrorHandler(r.onError)

		text := pipeline.Map(r.body(), func(_ context.Context, b []byte) (string, error) {
			return string(b), nil
		})
		lines := pipeline.Through(text, stream.Split[string](opts.delimiter(), r.stage("split")...), handler)

		match := stream.ChunkMatches[string](re)
		var keep *stream.Stream[string, string]
		if q.Invert {
			keep = stream.Reject(match, r.stage("reject")...)
		} else {
			keep = stream.Filter(match, r.stage("filter")...)
		}
		lines = pipeline.Through(lines, keep, handler)
		if q.Unique {
			lines = pipeline.Through(lines, stream.Unique[string](r.stage("unique")...), handler)
		}

		delim := opts.delimiter()
		out := pipeline.Map(lines, func(_ context.Context, line string) (string, error) {
			return line + delim, nil
		})
		streamResponse(c, out, "text/plain; charset=utf-8")
	}
}
