package process

import (
	"context"
	stderrors "errors"
	"io"
	"os/exec"
	"slices"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/streamkit/errors"
	"github.com/kbukum/streamkit/logger"
	"github.com/kbukum/streamkit/observability"
	"github.com/kbukum/streamkit/stream"
)

const stdinHighWaterMark = 16

// Stream is a running process exposed as a duplex stage. Chunks written
// to it go to stdin and End closes stdin. Stdout chunks are emitted as
// data and stdout EOF as end. Every stderr chunk is raised as a non-fatal
// ProcessError. Close is emitted once stdin, stdout and stderr are closed
// and the process has exited. Destroy kills the process.
type Stream struct {
	src     *stream.Source[[]byte]
	command string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	log     *logger.Logger
	span    trace.Span
	started time.Time

	mu        sync.Mutex
	queue     [][]byte
	ending    bool
	needDrain bool
	exitCode  int
	wake      chan struct{}
	exited    chan struct{}
	reaped    chan struct{}
}

// Start runs cmd and returns it as a Stream. The process is killed when
// ctx is canceled or the stream is destroyed.
func Start(ctx context.Context, cmd Command, opts ...stream.Option) (*Stream, error) {
	s := newStream(ctx, cmd, opts)
	if err := s.start(ctx, cmd); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// Exec runs a command line split on spaces. A process that cannot be
// started yields a Stream closed by a fatal ProcessError, which Err
// returns.
func Exec(ctx context.Context, line string, opts ...stream.Option) *Stream {
	fields := strings.Fields(line)
	cmd := Command{}
	if len(fields) > 0 {
		cmd.Binary, cmd.Args = fields[0], fields[1:]
	}
	s := newStream(ctx, cmd, opts)
	if err := s.start(ctx, cmd); err != nil {
		close(s.reaped)
		s.src.EmitError(err)
	}
	return s
}

func newStream(ctx context.Context, cmd Command, opts []stream.Option) *Stream {
	opts = append([]stream.Option{stream.WithName("exec"), stream.WithContext(ctx)}, opts...)
	src := stream.NewSource[[]byte](opts...)
	return &Stream{
		src:      src,
		command:  cmd.String(),
		log:      src.Log().WithFields(logger.Fields(logger.FieldCommand, cmd.String())),
		exitCode: -1,
		wake:     make(chan struct{}, 1),
		exited:   make(chan struct{}),
		reaped:   make(chan struct{}),
	}
}

func (s *Stream) start(ctx context.Context, cmd Command) error {
	if err := cmd.Validate(); err != nil {
		return errors.Process(s.command, true, err)
	}

	_, s.span = observability.StartSpan(ctx, observability.SpanProcess,
		attribute.String(observability.AttrCommand, s.command),
		attribute.String(observability.AttrStreamID, s.src.ID()),
	)

	c := command(s.src.Context(), cmd)
	stdin, err := c.StdinPipe()
	if err != nil {
		return s.failStart(err)
	}
	stdout, err := c.StdoutPipe()
	if err != nil {
		return s.failStart(err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return s.failStart(err)
	}
	if err := c.Start(); err != nil {
		return s.failStart(err)
	}

	s.cmd = c
	s.stdin = stdin
	s.started = time.Now()
	s.span.SetAttributes(attribute.Int(observability.AttrPID, c.Process.Pid))
	s.log.Debug("process started", logger.Fields(logger.FieldPID, c.Process.Pid))

	var readers sync.WaitGroup
	readers.Add(2)
	stdinDone := make(chan struct{})
	go func() {
		defer readers.Done()
		s.readStdout(stdout, cmd.bufferSize())
	}()
	go func() {
		defer readers.Done()
		s.readStderr(stderr, cmd.bufferSize())
	}()
	go func() {
		defer close(stdinDone)
		s.writeStdin()
	}()
	go s.wait(&readers, stdinDone)
	return nil
}

func (s *Stream) failStart(err error) error {
	observability.EndSpan(s.span, err)
	s.log.Debug("process failed to start", logger.ErrorFields("start", err))
	return errors.Process(s.command, true, err)
}

// Name returns the stage name.
func (s *Stream) Name() string { return s.src.Name() }

// ID returns the unique id of the stage.
func (s *Stream) ID() string { return s.src.ID() }

// OnData registers a listener for stdout chunks.
func (s *Stream) OnData(fn func([]byte)) { s.src.OnData(fn) }

// OnEnd registers a listener for stdout EOF.
func (s *Stream) OnEnd(fn func()) { s.src.OnEnd(fn) }

// OnError registers an error listener.
func (s *Stream) OnError(fn func(error)) { s.src.OnError(fn) }

// OnClose registers a listener for the exit of the process.
func (s *Stream) OnClose(fn func()) { s.src.OnClose(fn) }

// OnDrain registers a listener for the drain of stdin.
func (s *Stream) OnDrain(fn func()) { s.src.OnDrain(fn) }

// Done is closed once end or close has been delivered.
func (s *Stream) Done() <-chan struct{} { return s.src.Done() }

// Err returns the fatal error that closed the stream.
func (s *Stream) Err() error { return s.src.Err() }

// EmitError raises err on the stream. A fatal err kills the process.
func (s *Stream) EmitError(err error) { s.src.EmitError(err) }

// Destroy kills the process: SIGTERM first, SIGKILL after the grace
// period. Undelivered output is dropped and close is emitted.
func (s *Stream) Destroy() { s.src.Destroy() }

// Write queues chunk for stdin. It returns false once stdinHighWaterMark
// chunks are waiting; drain follows when they have been written.
func (s *Stream) Write(chunk []byte) bool {
	if s.src.Closed() {
		return false
	}
	s.mu.Lock()
	if s.ending {
		s.mu.Unlock()
		s.src.EmitError(errors.StreamClosed(s.src.Name(), "write"))
		return false
	}
	s.queue = append(s.queue, slices.Clone(chunk))
	ok := len(s.queue) < stdinHighWaterMark
	if !ok {
		s.needDrain = true
	}
	s.mu.Unlock()
	s.signal()
	return ok
}

// End closes stdin once every queued chunk has been written.
func (s *Stream) End() {
	s.mu.Lock()
	s.ending = true
	s.mu.Unlock()
	s.signal()
}

// ExitCode returns the exit code of the process, or -1 while it runs or
// if it was killed.
func (s *Stream) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exitCode
}

// Exited is closed once the process has been reaped, ExitCode is final
// and the stream is closed; wait logs nothing after it. It is also closed
// when the process never started.
func (s *Stream) Exited() <-chan struct{} { return s.reaped }

func (s *Stream) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// next returns the next chunk for stdin, blocking until there is one. It
// returns false when stdin should be closed.
func (s *Stream) next() (chunk []byte, drain, ok bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			chunk = s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			if s.needDrain && len(s.queue) == 0 {
				s.needDrain = false
				drain = true
			}
			s.mu.Unlock()
			return chunk, drain, true
		}
		ending := s.ending
		s.mu.Unlock()
		if ending {
			return nil, false, false
		}
		select {
		case <-s.wake:
		case <-s.exited:
			return nil, false, false
		case <-s.src.Context().Done():
			return nil, false, false
		}
	}
}

func (s *Stream) writeStdin() {
	defer s.stdin.Close()
	for {
		chunk, drain, ok := s.next()
		if !ok {
			return
		}
		if _, err := s.stdin.Write(chunk); err != nil {
			// The process stopped reading; what is left cannot be delivered.
			s.log.Debug("stdin closed by process", logger.ErrorFields("write", err))
			s.mu.Lock()
			s.queue = nil
			s.mu.Unlock()
			return
		}
		if drain {
			s.src.Drain()
		}
	}
}

func (s *Stream) readStdout(r io.Reader, size int) {
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			s.src.Push(slices.Clone(buf[:n]))
		}
		if err != nil {
			if !stderrors.Is(err, io.EOF) && s.src.Context().Err() == nil {
				s.log.Debug("stdout read failed", logger.ErrorFields("read", err))
			}
			s.src.Finish()
			return
		}
	}
}

func (s *Stream) readStderr(r io.Reader, size int) {
	buf := make([]byte, size)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			msg := string(buf[:n])
			s.src.EmitError(errors.Process(s.command, false, stderrors.New(msg)).WithDetail("stderr", msg))
		}
		if err != nil {
			return
		}
	}
}

// wait reaps the process once its output pipes are drained, then closes
// the stream.
func (s *Stream) wait(readers *sync.WaitGroup, stdinDone <-chan struct{}) {
	readers.Wait()
	err := s.cmd.Wait()
	close(s.exited)
	<-stdinDone

	code := s.cmd.ProcessState.ExitCode()
	s.mu.Lock()
	s.exitCode = code
	s.mu.Unlock()

	elapsed := time.Since(s.started)
	s.span.SetAttributes(attribute.Int(observability.AttrExitCode, code))
	fields := logger.DurationFields("wait", elapsed)
	fields["exit_code"] = code
	s.log.Debug("process exited", fields)

	var spanErr error
	if err != nil && !s.src.Closed() {
		perr := errors.Process(s.command, false, err).WithDetail("exit_code", code)
		spanErr = perr
		s.src.EmitError(perr)
	}
	observability.EndSpan(s.span, spanErr)
	s.src.Close()
	close(s.reaped)
}

var _ stream.Duplex[[]byte, []byte] = (*Stream)(nil)
