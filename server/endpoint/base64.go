package endpoint

import (
	"github.com/gin-gonic/gin"

	"github.com/kbukum/streamkit/codec"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/pipeline"
	"github.com/kbukum/streamkit/stream"
)

// decodeQuery holds the decoder policies a request may override.
type decodeQuery struct {
	Flush   string `form:"flush"`
	Invalid string `form:"invalid"`
}

// Base64Encode streams the request body back as base64 text.
func Base64Encode(opts StreamOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := newRequest(c, opts)
		enc := stream.Base64Encode[[]byte](r.stage("base64-encode")...)
		out := pipeline.Through(r.body(), enc, pipeline.WithErrorHandler(r.onError))
		streamResponse(c, out, "text/plain; charset=utf-8")
	}
}

// Base64Decode streams the decoding of a base64 request body. The flush
// and invalid query parameters override the configured policies.
func Base64Decode(opts StreamOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q decodeQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			RespondWithError(c, errors.Validation(err.Error()))
			return
		}
		flush, invalid := opts.Flush, opts.Invalid
		if q.Flush != "" {
			p, err := codec.ParseFlushPolicy(q.Flush)
			if err != nil {
				RespondWithError(c, err)
				return
			}
			flush = p
		}
		if q.Invalid != "" {
			p, err := codec.ParseInvalidPolicy(q.Invalid)
			if err != nil {
				RespondWithError(c, err)
				return
			}
			invalid = p
		}

		r := newRequest(c, opts)
		dec := stream.Base64Decode[[]byte](r.stage("base64-decode",
			stream.WithDecoderOptions(codec.WithFlush(flush), codec.WithInvalid(invalid)))...)
		out := pipeline.Through(r.body(), dec, pipeline.WithErrorHandler(r.onError))
		streamResponse(c, out, "application/octet-stream")
	}
}
