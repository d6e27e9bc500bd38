// Package process runs subprocesses, either to completion with Run or as
// duplex streams with Start and Exec.
package process

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
)

// Result is what a process run to completion left behind.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int // -1 when killed by a signal
	Duration time.Duration
}

// Output returns stdout without surrounding white space.
func (r *Result) Output() string { return strings.TrimSpace(string(r.Stdout)) }

// Success reports whether the process exited with status 0.
func (r *Result) Success() bool { return r.ExitCode == 0 }

// Run starts cmd, feeds it cmd.Stdin and waits for it to exit, buffering
// both outputs. A nonzero exit or a canceled ctx yields a fatal
// ProcessError alongside the partial Result.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	line := cmd.String()
	_, span := observability.StartSpan(ctx, observability.SpanProcess, attribute.String(observability.AttrCommand, line))

	var stdout, stderr bytes.Buffer
	c := command(ctx, cmd)
	c.Stdin, c.Stdout, c.Stderr = cmd.Stdin, &stdout, &stderr

	started := time.Now()
	runErr := c.Run()
	res := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(started),
	}
	span.SetAttributes(attribute.Int(observability.AttrExitCode, res.ExitCode))

	fields := logger.DurationFields("run", res.Duration)
	fields[logger.FieldCommand] = line
	fields["exit_code"] = res.ExitCode
	logger.Get("process").Debug("process finished", fields)

	var err error
	if runErr != nil {
		cause := runErr
		if ctx.Err() != nil {
			cause = ctx.Err()
		}
		err = errors.Process(line, true, cause).WithDetail("exit_code", res.ExitCode)
	}
	observability.EndSpan(span, err)
	return res, err
}

// command builds an exec.Cmd in its own process group. Canceling ctx
// sends SIGTERM to the whole group and SIGKILL after the grace period.
func command(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running caller-chosen commands is the point
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = cmd.gracePeriod()
	return c
}
