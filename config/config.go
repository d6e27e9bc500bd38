package config

import (
	"github.com/kbukum/streamkit/server"
	"github.com/kbukum/streamkit/validation"
)

// Config is the full streamkit configuration, as read from config.yml and
// the environment (e.g. CODEC_FLUSH=raw, SERVER_PORT=9090).
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Codec     CodecConfig     `yaml:"codec" mapstructure:"codec"`
	Stream    StreamConfig    `yaml:"stream" mapstructure:"stream"`
	Exec      ExecConfig      `yaml:"exec" mapstructure:"exec"`
	Server    server.Config   `yaml:"server" mapstructure:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// CodecConfig selects the base64 decoder policies.
type CodecConfig struct {
	Flush   string `yaml:"flush" mapstructure:"flush" validate:"oneof=pad raw"`
	Invalid string `yaml:"invalid" mapstructure:"invalid" validate:"oneof=fail skip"`
}

// StreamConfig holds defaults for stages built by the CLI and server.
type StreamConfig struct {
	ChunkSize int    `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=1"`
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
}

// ExecConfig configures process streams.
type ExecConfig struct {
	GracePeriod int    `yaml:"grace_period" mapstructure:"grace_period" validate:"gte=0"` // seconds
	Dir         string `yaml:"dir" mapstructure:"dir"`
}

// TelemetryConfig configures the OTLP exporters.
type TelemetryConfig struct {
	Enabled    bool    `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string  `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Enabled true"`
	Insecure   bool    `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   int     `yaml:"interval" mapstructure:"interval" validate:"gte=0"` // seconds
}

// ApplyDefaults fills every unset field.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	if c.Codec.Flush == "" {
		c.Codec.Flush = "pad"
	}
	if c.Codec.Invalid == "" {
		c.Codec.Invalid = "fail"
	}
	if c.Stream.ChunkSize == 0 {
		c.Stream.ChunkSize = 32 * 1024
	}
	if c.Stream.Delimiter == "" {
		c.Stream.Delimiter = "\n"
	}
	if c.Exec.GracePeriod == 0 {
		c.Exec.GracePeriod = 5
	}
	c.Server.ApplyDefaults()
	if c.Telemetry.Endpoint == "" && c.Telemetry.Enabled {
		c.Telemetry.Endpoint = "localhost:4318"
	}
	if c.Telemetry.SampleRate == 0 {
		c.Telemetry.SampleRate = 1.0
	}
	if c.Telemetry.Interval == 0 {
		c.Telemetry.Interval = 30
	}
}

// Validate checks the service section by hand and the remaining sections
// through their struct tags.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return validation.Validate(c)
}

// Load reads, defaults and validates the configuration for serviceName.
func Load(serviceName string, opts ...LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
