package main

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/spf13/pflag"

	"github.com/kbukum/streamkit/codec"
	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/pipeline"
	"github.com/kbukum/streamkit/process"
	"github.com/kbukum/streamkit/server"
	"github.com/kbukum/streamkit/server/endpoint"
	"github.com/kbukum/streamkit/stream"
	"github.com/kbukum/streamkit/version"
)

// action runs a command with its positional arguments.
type action func(ctx context.Context, a *app, args []string) error

type command struct {
	name    string
	summary string
	usage   string
	minArgs int
	maxArgs int // -1 for no limit
	// flags registers the flags of the command and returns its action.
	flags func(fs *pflag.FlagSet) action
}

var commandOrder = []string{"encode", "decode", "grep", "exec", "serve", "version"}

var commands = map[string]*command{
	"encode": {
		name: "encode", summary: "base64-encode stdin", usage: "encode [flags]",
		flags: encodeCommand,
	},
	"decode": {
		name: "decode", summary: "base64-decode stdin", usage: "decode [flags]",
		flags: decodeCommand,
	},
	"grep": {
		name: "grep", summary: "print the lines of stdin that match a pattern", usage: "grep [flags] <pattern>",
		minArgs: 1, maxArgs: 1,
		flags: grepCommand,
	},
	"exec": {
		name: "exec", summary: "run a process with stdin and stdout attached", usage: "exec [flags] -- <binary> [args...]",
		minArgs: 1, maxArgs: -1,
		flags: execCommand,
	},
	"serve": {
		name: "serve", summary: "start the HTTP server", usage: "serve [flags]",
		flags: serveCommand,
	},
	"version": {
		name: "version", summary: "print build information", usage: "version [--json]",
		flags: versionCommand,
	},
}

func encodeCommand(fs *pflag.FlagSet) action {
	newline := fs.BoolP("newline", "n", false, "end the output with a newline")
	return func(ctx context.Context, a *app, _ []string) error {
		enc := stream.Base64Encode[[]byte](a.stage(ctx, "base64-encode")...)
		out := pipeline.Through(a.input(), enc, pipeline.WithErrorHandler(a.onError))
		if *newline {
			out = pipeline.Concat(out, pipeline.FromSlice([]string{"\n"}))
		}
		_, err := pipeline.Copy(ctx, out, a.stdout)
		return err
	}
}

func decodeCommand(fs *pflag.FlagSet) action {
	flush := fs.String("flush", "", "final group policy: pad, raw (default: codec.flush)")
	invalid := fs.String("invalid", "", "invalid character policy: fail, skip (default: codec.invalid)")
	return func(ctx context.Context, a *app, _ []string) error {
		fp, err := codec.ParseFlushPolicy(firstNonEmpty(*flush, a.cfg.Codec.Flush))
		if err != nil {
			return err
		}
		ip, err := codec.ParseInvalidPolicy(firstNonEmpty(*invalid, a.cfg.Codec.Invalid))
		if err != nil {
			return err
		}
		dec := stream.Base64Decode[[]byte](a.stage(ctx, "base64-decode",
			stream.WithDecoderOptions(codec.WithFlush(fp), codec.WithInvalid(ip)))...)
		out := pipeline.Through(a.input(), dec, pipeline.WithErrorHandler(a.onError))
		_, err = pipeline.Copy(ctx, out, a.stdout)
		return err
	}
}

func grepCommand(fs *pflag.FlagSet) action {
	invert := fs.BoolP("invert-match", "v", false, "print the lines that do not match")
	unique := fs.BoolP("unique", "u", false, "print each distinct line once")
	count := fs.BoolP("count", "c", false, "print the number of selected lines only")
	delim := fs.StringP("delimiter", "d", "", "line delimiter (default: stream.delimiter)")
	return func(ctx context.Context, a *app, args []string) error {
		re, err := regexp.Compile(args[0])
		if err != nil {
			return errors.InvalidArgument("pattern", err.Error())
		}
		sep := firstNonEmpty(*delim, a.cfg.Stream.Delimiter)
		handler := pipeline.WithErrorHandler(a.onError)

		text := pipeline.Map(a.input(), func(_ context.Context, b []byte) (string, error) {
			return string(b), nil
		})
		lines := pipeline.Through(text, stream.Split[string](sep, a.stage(ctx, "split")...), handler)

		match := stream.ChunkMatches[string](re)
		if *invert {
			lines = pipeline.Through(lines, stream.Reject(match, a.stage(ctx, "reject")...), handler)
		} else {
			lines = pipeline.Through(lines, stream.Filter(match, a.stage(ctx, "filter")...), handler)
		}
		if *unique {
			lines = pipeline.Through(lines, stream.Unique[string](a.stage(ctx, "unique")...), handler)
		}

		if *count {
			total := pipeline.Reduce(lines, 0, func(n int, _ string) int { return n + 1 })
			return pipeline.ForEach(ctx, total, func(_ context.Context, n int) error {
				_, err := fmt.Fprintln(a.stdout, n)
				return err
			})
		}
		out := pipeline.Map(lines, func(_ context.Context, line string) (string, error) {
			return line + sep, nil
		})
		_, err = pipeline.Copy(ctx, out, a.stdout)
		return err
	}
}

// exitError carries the exit code of a child process out of run.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }
func (e exitError) ExitCode() int { return e.code }

func execCommand(fs *pflag.FlagSet) action {
	dir := fs.String("dir", "", "working directory (default: exec.dir)")
	env := fs.StringArrayP("env", "e", nil, "extra environment variable KEY=VALUE, repeatable")
	fs.SetInterspersed(false)
	return func(ctx context.Context, a *app, args []string) error {
		cmd := process.Command{
			Binary:      args[0],
			Args:        args[1:],
			Dir:         firstNonEmpty(*dir, a.cfg.Exec.Dir),
			Env:         *env,
			GracePeriod: time.Duration(a.cfg.Exec.GracePeriod) * time.Second,
			BufferSize:  a.cfg.Stream.ChunkSize,
		}
		proc, err := process.Start(ctx, cmd, a.stage(ctx, "exec")...)
		if err != nil {
			return err
		}
		proc.OnError(func(err error) {
			appErr, ok := errors.AsAppError(err)
			if ok {
				if msg, ok := appErr.Details["stderr"].(string); ok {
					_, _ = fmt.Fprint(a.stderr, msg)
					return
				}
				if _, ok := appErr.Details["exit_code"]; ok {
					return
				}
			}
			a.onError(err)
		})
		// Close is the last event, so once it is delivered no listener
		// writes to stderr any more.
		closed := make(chan struct{})
		proc.OnClose(func() { close(closed) })

		// The feeder may stay blocked reading stdin after the process is
		// gone; it stops reporting once the command has returned.
		var feedMu sync.Mutex
		returned := false
		defer func() {
			feedMu.Lock()
			returned = true
			feedMu.Unlock()
		}()

		copied := make(chan error, 1)
		go func() { copied <- stream.Copy[[]byte](ctx, proc, a.stdout) }()
		go func() {
			var readErr error
			feedErr := stream.Feed(ctx, proc, pipeline.Values(ctx, a.input(), &readErr))
			feedMu.Lock()
			defer feedMu.Unlock()
			if returned {
				return
			}
			if feedErr != nil {
				a.log.Debug("stdin feed stopped", logger.ErrorFields("feed", feedErr))
			}
			if readErr != nil {
				a.log.Warn("reading stdin failed", logger.ErrorFields("read", readErr))
			}
		}()

		copyErr := <-copied
		select {
		case <-proc.Exited():
			<-closed
		case <-ctx.Done():
			proc.Destroy()
			<-proc.Exited()
			<-closed
			return ctx.Err()
		}
		if copyErr != nil {
			return copyErr
		}
		if code := proc.ExitCode(); code != 0 {
			return exitError{code: code}
		}
		return nil
	}
}

func serveCommand(fs *pflag.FlagSet) action {
	host := fs.String("host", "", "listen host (default: server.host)")
	port := fs.IntP("port", "p", 0, "listen port (default: server.port)")
	return func(ctx context.Context, a *app, _ []string) error {
		cfg := a.cfg.Server
		if *host != "" {
			cfg.Host = *host
		}
		if *port != 0 {
			cfg.Port = *port
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		flush, err := codec.ParseFlushPolicy(a.cfg.Codec.Flush)
		if err != nil {
			return err
		}
		invalid, err := codec.ParseInvalidPolicy(a.cfg.Codec.Invalid)
		if err != nil {
			return err
		}

		var checkers []observability.HealthChecker
		if a.telemetry != nil {
			checkers = append(checkers, a.telemetry)
		}

		srv := server.New(cfg, a.log)
		srv.ApplyDefaults(a.cfg.Name, endpoint.StreamOptions{
			ChunkSize: a.cfg.Stream.ChunkSize,
			Delimiter: a.cfg.Stream.Delimiter,
			Flush:     flush,
			Invalid:   invalid,
			Metrics:   a.metrics,
			Log:       a.log.WithComponent("endpoint"),
		}, checkers...)

		a.log.Info("starting streamkit", version.Get().Fields())
		if err := srv.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return srv.Stop(context.Background())
	}
}

func versionCommand(fs *pflag.FlagSet) action {
	asJSON := fs.Bool("json", false, "print as JSON")
	return func(_ context.Context, a *app, _ []string) error {
		info := version.Get()
		if *asJSON {
			return writeJSON(a.stdout, info)
		}
		_, err := fmt.Fprintln(a.stdout, info.String())
		return err
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
