package middleware_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/server/middleware"
)

func captureLog() (*logger.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, &buf, "http"), &buf
}

// lastEntry decodes the last JSON line written to buf.
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	return entry
}

func serve(h http.Handler, method, path string, body io.Reader) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, body))
	return rr
}

func TestRecovery(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantCode int
		wantBody string
		logged   bool
	}{
		{
			name:     "no panic",
			handler:  func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "ok") },
			wantCode: http.StatusOK,
			wantBody: "ok",
		},
		{
			name:     "panic before response",
			handler:  func(http.ResponseWriter, *http.Request) { panic("boom") },
			wantCode: http.StatusInternalServerError,
			wantBody: `{"error":"Internal server error"}`,
			logged:   true,
		},
		{
			name: "panic mid stream",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				_, _ = io.WriteString(w, "partial")
				panic("boom")
			},
			wantCode: http.StatusAccepted,
			wantBody: "partial",
			logged:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := captureLog()
			rr := serve(middleware.Recovery(log)(tt.handler), "GET", "/", http.NoBody)

			if rr.Code != tt.wantCode || rr.Body.String() != tt.wantBody {
				t.Fatalf("got %d %q, want %d %q", rr.Code, rr.Body.String(), tt.wantCode, tt.wantBody)
			}
			if got := strings.Contains(buf.String(), `"error":"boom"`); got != tt.logged {
				t.Errorf("panic logged = %v, want %v (%s)", got, tt.logged, buf.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
	}{
		{name: "generated"},
		{name: "kept", incoming: "req-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var inHeader, inCtx string
			h := middleware.RequestID()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				inHeader = r.Header.Get(middleware.RequestIDHeader)
				inCtx = middleware.GetRequestID(r.Context())
			}))

			req := httptest.NewRequest("GET", "/", http.NoBody)
			if tt.incoming != "" {
				req.Header.Set(middleware.RequestIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			out := rr.Header().Get(middleware.RequestIDHeader)
			if out == "" || out != inHeader || out != inCtx {
				t.Fatalf("ids differ: response %q request %q context %q", out, inHeader, inCtx)
			}
			if tt.incoming != "" && out != tt.incoming {
				t.Errorf("id = %q, want %q", out, tt.incoming)
			}
		})
	}
}

func TestRequestLogger(t *testing.T) {
	log, buf := captureLog()
	h := middleware.Chain(middleware.RequestID(), middleware.RequestLogger(log))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, "nope")
		}))

	req := httptest.NewRequest("POST", "/v1/lines/grep", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entry := lastEntry(t, buf)
	want := map[string]any{
		"level":      "warn",
		"method":     "POST",
		"path":       "/v1/lines/grep",
		"request_id": "req-42",
		"status":     float64(http.StatusBadRequest),
		"bytes":      float64(4),
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestRequestLogger_StreamErrorTrailer(t *testing.T) {
	log, buf := captureLog()
	h := middleware.RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Trailer", middleware.StreamErrorTrailer)
		_, _ = io.WriteString(w, "partial")
		w.Header().Set(middleware.StreamErrorTrailer, "decode: malformed input at offset 9")
	}))
	serve(h, "POST", "/v1/base64/decode", http.NoBody)

	if got := lastEntry(t, buf)["error"]; got != "decode: malformed input at offset 9" {
		t.Errorf("error field = %v", got)
	}
}

func TestRequestLogger_SkipsProbes(t *testing.T) {
	for _, path := range []string{"/health", "/version"} {
		log, buf := captureLog()
		called := false
		h := middleware.RequestLogger(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
		serve(h, "GET", path, http.NoBody)

		if !called {
			t.Errorf("%s: handler not called", path)
		}
		if buf.Len() != 0 {
			t.Errorf("%s: logged %s", path, buf.String())
		}
	}
}

func TestBodySizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		limit   int64
		body    string
		wantErr bool
	}{
		{name: "under limit", limit: 8, body: "abc"},
		{name: "at limit", limit: 3, body: "abc"},
		{name: "over limit", limit: 2, body: "abc", wantErr: true},
		{name: "disabled", limit: 0, body: "abcdefgh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var readErr error
			h := middleware.BodySizeLimit(tt.limit)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
				_, readErr = io.ReadAll(r.Body)
			}))
			serve(h, "POST", "/upload", strings.NewReader(tt.body))

			if (readErr != nil) != tt.wantErr {
				t.Fatalf("read error = %v, wantErr %v", readErr, tt.wantErr)
			}
		})
	}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) middleware.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name+">")
				next.ServeHTTP(w, r)
				order = append(order, "<"+name)
			})
		}
	}
	h := middleware.Chain(mark("outer"), mark("inner"))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}))
	serve(h, "GET", "/", http.NoBody)

	want := []string{"outer>", "inner>", "handler", "<inner", "<outer"}
	if !slices.Equal(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

type flushRecorder struct {
	*httptest.ResponseRecorder
	flushes int
}

func (f *flushRecorder) Flush() { f.flushes++ }

// Streamed responses must reach the client through every wrapper.
func TestFlushPassesThrough(t *testing.T) {
	log, _ := captureLog()
	h := middleware.Chain(middleware.Recovery(log), middleware.RequestLogger(log))(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, "chunk")
			if err := http.NewResponseController(w).Flush(); err != nil {
				t.Errorf("flush: %v", err)
			}
		}))

	fr := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
	h.ServeHTTP(fr, httptest.NewRequest("GET", "/v1/lines/split", http.NoBody))

	if fr.flushes != 1 {
		t.Errorf("flushes = %d, want 1", fr.flushes)
	}
}
