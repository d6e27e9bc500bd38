package middleware

import (
	"net/http"
)

// BodySizeLimit returns middleware that restricts request bodies to max
// bytes. Reads past the limit fail. A non-positive max disables the limit.
func BodySizeLimit(max int64) Middleware {
	return func(next http.Handler) http.Handler {
		if max <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, max)
			next.ServeHTTP(w, r)
		})
	}
}
