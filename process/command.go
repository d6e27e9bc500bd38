package process

import (
	"io"
	"strings"
	"time"

	"github.com/kbukum/streamkit/validation"
)

const (
	defaultGracePeriod = 5 * time.Second
	defaultBufferSize  = 32 * 1024
)

// Command configures a subprocess to execute.
type Command struct {
	// Binary is the executable path or name (resolved via PATH).
	Binary string
	// Args are the command-line arguments.
	Args []string
	// Dir is the working directory. If empty, uses the current directory.
	Dir string
	// Env is additional environment variables (key=value). Merged with os.Environ.
	Env []string
	// Stdin provides input to the process. Only used by Run; a Stream
	// takes its input from Write.
	Stdin io.Reader
	// GracePeriod is how long to wait after SIGTERM before SIGKILL.
	// Defaults to 5 seconds if zero.
	GracePeriod time.Duration
	// BufferSize is the size of the chunks a Stream reads from stdout and
	// stderr. Defaults to 32 KiB.
	BufferSize int
}

// String returns the command line.
func (c Command) String() string {
	return strings.Join(append([]string{c.Binary}, c.Args...), " ")
}

// Validate checks the command before it is started.
func (c Command) Validate() error {
	return validation.New().
		NotBlank("binary", c.Binary).
		AtLeast("buffer_size", c.BufferSize, 0).
		Check(c.GracePeriod >= 0, "grace_period", "must not be negative (got: %s)", c.GracePeriod).
		KeyValue("env", c.Env).
		Err()
}

func (c Command) gracePeriod() time.Duration {
	if c.GracePeriod <= 0 {
		return defaultGracePeriod
	}
	return c.GracePeriod
}

func (c Command) bufferSize() int {
	if c.BufferSize <= 0 {
		return defaultBufferSize
	}
	return c.BufferSize
}
