// Package server provides the HTTP facade of streamkit: a Gin engine
// served with HTTP/2 cleartext (h2c) support, a net/http middleware chain
// and the stream endpoints.
//
// # Middleware
//
// Built-in middleware (server/middleware), applied around every route:
//
//   - Recovery: panic recovery with structured logging
//   - RequestID: request id generation and propagation
//   - RequestLogger: request logging with duration tracking
//   - BodySizeLimit: request body size limits
//
// # Endpoints
//
// Built-in endpoints (server/endpoint):
//
//   - POST /v1/base64/encode, POST /v1/base64/decode: streaming codecs
//   - POST /v1/lines/grep: line filtering
//   - GET /health: health check aggregation
//   - GET /version: build version information
package server
