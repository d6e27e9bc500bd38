package logger

import "github.com/kbukum/streamkit/validation"

// Config contains logging configuration.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal"`
	Format    string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output    string `yaml:"output" mapstructure:"output" validate:"omitempty,oneof=stdout stderr"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller    bool   `yaml:"caller" mapstructure:"caller"`
}

// ApplyDefaults applies default values to logging configuration.
// Logs go to stderr by default so they never mix with stream output on stdout.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatConsole
	}
	if c.Output == "" {
		c.Output = "stderr"
	}
	c.Timestamp = true
}

// Levels lists the accepted values of Config.Level.
var Levels = []string{"trace", "debug", "info", "warn", "error", "fatal"}

// Validate checks the level, format and output. Call ApplyDefaults first:
// empty values are accepted.
func (c *Config) Validate() error {
	return validation.New().
		In("level", c.Level, Levels...).
		In("format", c.Format, FormatJSON, FormatConsole).
		In("output", c.Output, "stdout", "stderr").
		Err()
}
