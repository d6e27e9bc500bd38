package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: level, Format: FormatJSON}, &buf, "test")
	return l, &buf
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.Component() != "test-svc" {
		t.Errorf("expected component 'test-svc', got %q", l.Component())
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(&Config{Level: "invalid-level", Format: FormatJSON, Output: "stderr"}, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestJSONOutputCarriesComponentAndFields(t *testing.T) {
	l, buf := newBufferLogger("debug")
	l.Debug("stage ended", Fields(FieldStage, "split", FieldChunks, 3))

	var rec map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	if rec[FieldComponent] != "test" {
		t.Errorf("expected component=test, got %v", rec[FieldComponent])
	}
	if rec[FieldStage] != "split" {
		t.Errorf("expected stage=split, got %v", rec[FieldStage])
	}
	if rec["message"] != "stage ended" {
		t.Errorf("unexpected message %v", rec["message"])
	}
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferLogger("warn")
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := newBufferLogger("info")
	cl := l.WithComponent("handler")
	if cl.Component() != "handler" {
		t.Errorf("expected component 'handler', got %q", cl.Component())
	}
	cl.Info("hello")
	if !strings.Contains(buf.String(), `"component":"handler"`) {
		t.Errorf("expected component field in %q", buf.String())
	}
}

func TestWithFieldsAndErrorFields(t *testing.T) {
	l, buf := newBufferLogger("info")
	l.WithFields(map[string]interface{}{"key": "value"}).Error("failed", ErrorFields("write", errors.New("boom")))
	out := buf.String()
	if !strings.Contains(out, `"key":"value"`) || !strings.Contains(out, `"error":"boom"`) || !strings.Contains(out, `"operation":"write"`) {
		t.Errorf("expected key, operation and error fields, got %q", out)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("discarded")
	if l.Component() != "" {
		t.Errorf("expected empty component, got %q", l.Component())
	}
}

func TestGlobalLogger(t *testing.T) {
	custom := Nop()
	SetGlobalLogger(custom)
	defer SetGlobalLogger(nil)

	if GetGlobalLogger() != custom {
		t.Error("expected SetGlobalLogger to set the global logger")
	}
	if Get("stream") == nil {
		t.Error("expected component logger from global")
	}
	Get("stream").Info("discarded")
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	SetGlobalLogger(nil)
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
	SetGlobalLogger(nil)
}

func TestLevelTag(t *testing.T) {
	tests := map[string]string{
		"debug": "[DBG]",
		"info":  "[INF]",
		"warn":  "[WRN]",
		"error": "[ERR]",
		"panic": "[PANIC]",
	}
	for in, want := range tests {
		if got := levelTag(in); got != want {
			t.Errorf("levelTag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != FormatConsole {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output 'stderr', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected Timestamp to be true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json"}, false},
		{"valid console", Config{Level: "debug", Format: "console"}, false},
		{"invalid level", Config{Level: "bad", Format: "json"}, true},
		{"invalid format", Config{Level: "info", Format: "xml"}, true},
		{"invalid output", Config{Level: "info", Output: "file"}, true},
		{"unset", Config{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestConcurrentWritesAreSerialized(t *testing.T) {
	for _, format := range []string{FormatJSON, FormatConsole} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewWithWriter(&Config{Level: "debug", Format: format, NoColor: true}, &buf, "stage")
			var wg sync.WaitGroup
			for i := range 8 {
				wg.Go(func() {
					for range 50 {
						l.Debug("stage ended", Fields(FieldChunks, i))
					}
				})
			}
			wg.Wait()
			if got := strings.Count(buf.String(), "stage ended"); got != 400 {
				t.Fatalf("got %d log lines, want 400", got)
			}
		})
	}
}
