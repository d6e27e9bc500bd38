package server

import (
	"github.com/kbukum/streamkit/validation"
)

const defaultMaxBodyBytes = 64 << 20

// Config holds HTTP server configuration.
type Config struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"` // seconds, 0 for unbounded streams
	IdleTimeout  int    `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"gte=0"`   // seconds
	MaxBodyBytes int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=0"`
}

// ApplyDefaults sets sensible default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	return validation.New().
		Between("server.port", c.Port, 0, 65535).
		AtLeast("server.read_timeout", c.ReadTimeout, 0).
		AtLeast("server.write_timeout", c.WriteTimeout, 0).
		AtLeast("server.idle_timeout", c.IdleTimeout, 0).
		Check(c.MaxBodyBytes >= 0, "server.max_body_bytes", "must be at least 0 (got: %d)", c.MaxBodyBytes).
		Err()
}
