package supervisor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/wardenhq/warden/internal/console"
	"github.com/wardenhq/warden/internal/constants"
	"github.com/wardenhq/warden/internal/domain"
)

// outputDrainTimeout is the maximum time to wait for output readers to
// finish after the process exits. The pipes can stay open while children
// of the launch script flush their final lines.
const outputDrainTimeout = 5 * time.Second

// Config holds supervisor configuration
type Config struct {
	// Path is the default server launch script or binary. A Start call may
	// override it per invocation.
	Path string
	// Dir is the working directory for the process
	Dir string
	// Env holds extra environment variables for the process
	Env map[string]string
	// StopCommand is written to the server's stdin on graceful stop
	StopCommand string
	// GracePeriod bounds how long a graceful stop may take before the
	// process group is killed
	GracePeriod time.Duration
}

// DefaultConfig returns default supervisor configuration
func DefaultConfig() Config {
	return Config{
		StopCommand: constants.DefaultStopCommand,
		GracePeriod: constants.DefaultGracePeriod,
	}
}

// Supervisor manages the lifecycle of the single game server process.
// At most one process exists at a time; all state transitions are
// serialized behind one mutex, while output capture, broadcasting and
// command writes run concurrently with it.
type Supervisor struct {
	mu sync.Mutex

	cfg     Config
	runner  Runner
	console *console.Broadcaster

	state     domain.ServerState
	proc      Process
	stdin     io.WriteCloser
	path      string
	startedAt time.Time

	// done is closed by monitor when the current process has fully exited
	done chan struct{}

	// stdinMu serializes writes to the server's input stream
	stdinMu sync.Mutex

	// outputWg tracks the stdout/stderr reader goroutines
	outputWg sync.WaitGroup
}

// New creates a supervisor publishing output to the given broadcaster.
// A nil runner selects the real exec-based runner.
func New(cfg Config, b *console.Broadcaster, runner Runner) *Supervisor {
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.StopCommand == "" {
		cfg.StopCommand = constants.DefaultStopCommand
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = constants.DefaultGracePeriod
	}

	return &Supervisor{
		cfg:     cfg,
		runner:  runner,
		console: b,
		state:   domain.ServerStateStopped,
	}
}

// Start spawns the game server. An empty path uses the configured default.
// Valid only while stopped; any other state returns ErrAlreadyRunning.
// The caller's ctx bounds only the spawn itself; the process it starts is
// owned by the supervisor and runs until Stop or its own exit.
func (s *Supervisor) Start(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.ServerStateStopped {
		return domain.ErrAlreadyRunning
	}

	if path == "" {
		path = s.cfg.Path
	}
	if path == "" {
		return fmt.Errorf("%w: no server path configured", domain.ErrSpawnFailed)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	s.state = domain.ServerStateStarting

	// Start is typically called from a request-scoped context that ends
	// as soon as the response is written. The process must not die with
	// it, so the spawn context is the supervisor's own; monitor cancels
	// it once the exit has been observed.
	procCtx, cancel := context.WithCancel(context.Background())

	proc, err := s.runner.Start(procCtx, domain.LaunchSpec{
		Path: path,
		Dir:  s.cfg.Dir,
		Env:  s.cfg.Env,
	})
	if err != nil {
		cancel()
		s.state = domain.ServerStateStopped
		s.console.Publishf(domain.StreamSystem, "failed to start server: %v", err)
		return fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	s.proc = proc
	s.stdin = proc.Stdin()
	s.path = path
	s.startedAt = time.Now()
	s.done = make(chan struct{})
	s.state = domain.ServerStateRunning

	s.console.Publishf(domain.StreamSystem, "server started (pid %d)", proc.PID())

	s.outputWg.Add(2)
	go func() {
		defer s.outputWg.Done()
		s.readOutput(proc.Stdout(), domain.StreamStdout)
	}()
	go func() {
		defer s.outputWg.Done()
		s.readOutput(proc.Stderr(), domain.StreamStderr)
	}()

	go s.monitor(proc, cancel)

	return nil
}

// Stop gracefully stops the server: the stop command is written to its
// stdin, and the process group is killed if it outlives the grace period.
// Valid only while starting or running; otherwise returns ErrNotRunning.
// A stop racing an unexpected exit is harmless - whichever side observes
// the exit first performs the final transition, the other is a no-op.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state != domain.ServerStateStarting && s.state != domain.ServerStateRunning {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}

	s.state = domain.ServerStateStopping
	proc := s.proc
	done := s.done
	grace := s.cfg.GracePeriod
	stopCmd := s.cfg.StopCommand
	s.mu.Unlock()

	s.console.Publishf(domain.StreamSystem, "stopping server (%s)", stopCmd)

	// Ask nicely first: game servers flush world state on their own stop
	// command. Fall back to SIGTERM if the input stream is gone.
	if err := s.writeCommand(stopCmd); err != nil {
		if sigErr := proc.Signal(sigterm); sigErr != nil {
			s.console.Publishf(domain.StreamSystem, "SIGTERM failed (process may have already exited): %v", sigErr)
		}
	}

	select {
	case <-done:
		// Graceful exit
	case <-time.After(grace):
		s.killAfterGrace(proc, done, "grace period elapsed")
	case <-ctx.Done():
		s.killAfterGrace(proc, done, "stop cancelled")
	}

	return nil
}

// killAfterGrace force-terminates the process group and waits briefly for
// the exit to be observed.
func (s *Supervisor) killAfterGrace(proc Process, done chan struct{}, reason string) {
	s.console.Publishf(domain.StreamSystem, "sending SIGKILL (%s)", reason)
	if err := proc.Signal(sigkill); err != nil {
		s.console.Publishf(domain.StreamSystem, "SIGKILL failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
	}
}

// Status returns a non-blocking snapshot of the supervisor state
func (s *Supervisor) Status() domain.ServerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.ServerStatus{
		State: s.state,
		Path:  s.path,
	}
	if s.proc != nil {
		st.PID = s.proc.PID()
	}
	if s.state.IsRunning() {
		st.StartedAt = s.startedAt
	}
	return st
}

// SendCommand writes a console command plus a line terminator to the
// server's stdin. Valid only while running.
func (s *Supervisor) SendCommand(text string) error {
	s.mu.Lock()
	if s.state != domain.ServerStateRunning {
		s.mu.Unlock()
		return domain.ErrNotRunning
	}
	s.mu.Unlock()

	return s.writeCommand(text)
}

// writeCommand serializes writes to the input stream. The process can exit
// between the state check and the write; that race surfaces as IO failure.
func (s *Supervisor) writeCommand(text string) error {
	s.stdinMu.Lock()
	defer s.stdinMu.Unlock()

	stdin := s.currentStdin()
	if stdin == nil {
		return domain.ErrInputClosed
	}

	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInputClosed, err)
	}
	return nil
}

func (s *Supervisor) currentStdin() io.WriteCloser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stdin
}

// monitor waits for process exit and performs the final state transition.
// An exit nobody asked for drives running straight to stopped and
// announces the crash on the console stream.
func (s *Supervisor) monitor(proc Process, cancel context.CancelFunc) {
	err := proc.Wait()

	// Give the output readers a bounded window to drain the pipes so the
	// server's final lines (shutdown messages) reach the console.
	outputDone := make(chan struct{})
	go func() {
		s.outputWg.Wait()
		close(outputDone)
	}()

	select {
	case <-outputDone:
	case <-time.After(outputDrainTimeout):
		s.console.Publish(domain.StreamSystem, "output capture timed out (some lines may be missing)")
	}

	exitCode := exitCodeFromError(err)

	s.mu.Lock()
	wasStopping := s.state == domain.ServerStateStopping
	done := s.done
	s.state = domain.ServerStateStopped
	s.proc = nil
	s.stdin = nil
	s.mu.Unlock()

	cancel()

	if wasStopping {
		s.console.Publishf(domain.StreamSystem, "server stopped (rc=%d)", exitCode)
	} else {
		s.console.Publishf(domain.StreamSystem, "server exited unexpectedly (rc=%d)", exitCode)
	}

	close(done)
}

// exitCodeFromError extracts the exit code; signal termination is reported
// as the negative signal number (e.g. -9 for SIGKILL).
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return -int(status.Signal())
			}
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return 1
}

// readOutput reads one stream line by line and publishes to the console
func (s *Supervisor) readOutput(r io.Reader, stream domain.Stream) {
	if r == nil {
		return
	}

	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines (stack traces, world dumps)
	scanner.Buffer(make([]byte, constants.ScannerBufferSize), constants.ScannerMaxBufferSize)

	for scanner.Scan() {
		s.console.Publish(stream, scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		s.console.Publishf(domain.StreamSystem, "output reader error (%s): %v", stream, err)
	}
}
