package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/kbukum/streamkit/config"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/pipeline"
	"github.com/kbukum/streamkit/stream"
	"github.com/kbukum/streamkit/version"
)

// globalFlags are accepted by every command except version.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
	logFormat  string
	chunkSize  int
}

func (g *globalFlags) add(fs *pflag.FlagSet) {
	fs.StringVar(&g.configFile, "config", "", "path to config.yml (default: searched)")
	fs.StringVar(&g.envFile, "env-file", "", "path to a .env file (default: searched)")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	fs.StringVar(&g.logFormat, "log-format", "", "log format: console, json")
	fs.IntVar(&g.chunkSize, "chunk-size", 0, "bytes per read from stdin (default: stream.chunk_size)")
}

// app carries what a command needs once configuration is loaded.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *observability.StageMetrics
	telemetry *observability.Telemetry
	stdin     io.Reader
	stdout    io.Writer
	stderr    io.Writer
}

func newApp(ctx context.Context, g globalFlags, stdin io.Reader, stdout, stderr io.Writer) (*app, func(), error) {
	var opts []config.LoaderOption
	if g.configFile != "" {
		opts = append(opts, config.WithConfigFile(g.configFile))
	}
	if g.envFile != "" {
		opts = append(opts, config.WithEnvFile(g.envFile))
	}
	cfg, err := config.Load("streamkit", opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Logging.Format = g.logFormat
	}
	if g.chunkSize > 0 {
		cfg.Stream.ChunkSize = g.chunkSize
	}
	if err := cfg.Logging.Validate(); err != nil {
		return nil, nil, err
	}

	// Logs and forwarded child stderr share the writer.
	stderr = zerolog.SyncWriter(stderr)
	log := logger.NewWithWriter(&cfg.Logging, stderr, "cli")
	logger.SetGlobalLogger(log)

	a := &app{cfg: cfg, log: log, stdin: stdin, stdout: stdout, stderr: stderr}
	shutdown := func() {}
	if cfg.Telemetry.Enabled {
		if shutdown, err = a.initTelemetry(ctx); err != nil {
			return nil, nil, err
		}
	}
	return a, shutdown, nil
}

// initTelemetry starts the OTLP exporters and the stage instruments.
func (a *app) initTelemetry(ctx context.Context) (func(), error) {
	t := a.cfg.Telemetry
	tel, err := observability.Start(ctx, observability.Config{
		ServiceName:    a.cfg.Name,
		ServiceVersion: version.Get().Short(),
		Environment:    a.cfg.Environment,
		Endpoint:       t.Endpoint,
		Insecure:       t.Insecure,
		SampleRate:     t.SampleRate,
		Interval:       time.Duration(t.Interval) * time.Second,
	})
	if err != nil {
		return nil, err
	}
	a.telemetry = tel
	a.metrics = tel.Stages

	return func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			a.log.Warn("telemetry shutdown failed", logger.ErrorFields("shutdown", err))
		}
	}, nil
}

// stage returns the options shared by every stage a command builds.
func (a *app) stage(ctx context.Context, name string, extra ...stream.Option) []stream.Option {
	opts := []stream.Option{
		stream.WithName(name),
		stream.WithContext(ctx),
		stream.WithLogger(a.log),
		stream.WithMetrics(a.metrics),
	}
	return append(opts, extra...)
}

func (a *app) input() *pipeline.Pipeline[[]byte] {
	return pipeline.FromReader(io.NopCloser(a.stdin), a.cfg.Stream.ChunkSize)
}

// onError reports the non-fatal errors of a stage.
func (a *app) onError(err error) {
	a.log.Warn("stream error", logger.ErrorFields("stream", err))
}
