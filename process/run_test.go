package process_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/process"
)

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		cmd        process.Command
		wantOut    string
		wantStderr string
	}{
		{name: "args", cmd: process.Command{Binary: "echo", Args: []string{"hello", "world"}}, wantOut: "hello world"},
		{name: "stdin", cmd: process.Command{Binary: "cat", Stdin: strings.NewReader("from stdin")}, wantOut: "from stdin"},
		{name: "stderr", cmd: process.Command{Binary: "sh", Args: []string{"-c", "echo oops >&2"}}, wantStderr: "oops"},
		{
			name:    "env",
			cmd:     process.Command{Binary: "sh", Args: []string{"-c", "echo $SK_RUN_VAR"}, Env: []string{"SK_RUN_VAR=v1"}},
			wantOut: "v1",
		},
		{name: "trimmed", cmd: process.Command{Binary: "printf", Args: []string{"  hi\\n"}}, wantOut: "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := process.Run(context.Background(), tt.cmd)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !result.Success() {
				t.Errorf("exit code %d", result.ExitCode)
			}
			if got := result.Output(); got != tt.wantOut {
				t.Errorf("stdout = %q, want %q", got, tt.wantOut)
			}
			if got := strings.TrimSpace(string(result.Stderr)); got != tt.wantStderr {
				t.Errorf("stderr = %q, want %q", got, tt.wantStderr)
			}
		})
	}
}

func TestRunExitCode(t *testing.T) {
	result, err := process.Run(context.Background(), process.Command{
		Binary: "sh",
		Args:   []string{"-c", "echo partial; exit 42"},
	})
	if !errors.HasCode(err, errors.ErrCodeProcess) || !errors.IsFatal(err) {
		t.Fatalf("err = %v, want a fatal PROCESS_ERROR", err)
	}
	if result.ExitCode != 42 || result.Success() {
		t.Errorf("exit code = %d, want 42", result.ExitCode)
	}
	if result.Output() != "partial" {
		t.Errorf("output before the failure lost: %q", result.Stdout)
	}
}

func TestRunContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := process.Run(ctx, process.Command{
		Binary:      "sleep",
		Args:        []string{"10"},
		GracePeriod: 500 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected error from context cancellation")
	}
	if result.Duration < 50*time.Millisecond || result.Duration > 5*time.Second {
		t.Fatalf("killed after %v, want soon after the 100ms deadline", result.Duration)
	}
}

func TestRunEmptyBinary(t *testing.T) {
	_, err := process.Run(context.Background(), process.Command{})
	if !errors.HasCode(err, errors.ErrCodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for empty binary, got %v", err)
	}
}

func TestCommandValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     process.Command
		wantErr bool
	}{
		{"valid", process.Command{Binary: "cat", Env: []string{"A=1"}}, false},
		{"empty binary", process.Command{}, true},
		{"blank binary", process.Command{Binary: "  "}, true},
		{"negative buffer", process.Command{Binary: "cat", BufferSize: -1}, true},
		{"negative grace", process.Command{Binary: "cat", GracePeriod: -time.Second}, true},
		{"env without equals", process.Command{Binary: "cat", Env: []string{"NOPE"}}, true},
		{"env without key", process.Command{Binary: "cat", Env: []string{"=x"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasCode(err, errors.ErrCodeValidation) {
				t.Fatalf("expected VALIDATION_ERROR, got %v", err)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	cmd := process.Command{Binary: "grep", Args: []string{"-v", "x"}}
	if got := cmd.String(); got != "grep -v x" {
		t.Fatalf("expected 'grep -v x', got %q", got)
	}
}
