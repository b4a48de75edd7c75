// Package supervisor owns the lifecycle of the single managed game server
// process: spawning it, capturing its output, feeding its console input,
// and driving the stopped/starting/running/stopping state machine.
//
// The server is launched directly (no shell), so the configured path has
// the same trust level as anything else you would execute yourself.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/wardenhq/warden/internal/domain"
)

// Runner creates and starts the game server process
type Runner interface {
	Start(ctx context.Context, spec domain.LaunchSpec) (Process, error)
}

// Process represents a running game server process
type Process interface {
	PID() int
	Wait() error
	Signal(sig os.Signal) error
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Stderr() io.Reader
}

// ExecRunner implements Runner using os/exec
type ExecRunner struct{}

// NewExecRunner creates a new ExecRunner
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Start spawns the game server process with piped stdin, stdout and stderr
func (r *ExecRunner) Start(ctx context.Context, spec domain.LaunchSpec) (Process, error) {
	cmd := exec.CommandContext(ctx, spec.Path)

	cmd.Dir = spec.Dir
	if cmd.Dir == "" {
		cmd.Dir = filepath.Dir(spec.Path)
	}

	cmd.Env = os.Environ()
	for k, v := range spec.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	// Set process group so a kill reaches any children the launch script
	// spawned (game servers are usually wrapped in a run script).
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting process: %w", err)
	}

	return &execProcess{
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
	}, nil
}

// execProcess wraps exec.Cmd to implement Process
type execProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.Reader
	stderr io.Reader
}

func (p *execProcess) PID() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error {
	return p.cmd.Wait()
}

func (p *execProcess) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return nil
	}

	// Kill the entire process group
	pgid, err := syscall.Getpgid(p.cmd.Process.Pid)
	if err != nil {
		// Fall back to signaling just the process
		return p.cmd.Process.Signal(sig)
	}

	return syscall.Kill(-pgid, sig.(syscall.Signal))
}

func (p *execProcess) Stdin() io.WriteCloser {
	return p.stdin
}

func (p *execProcess) Stdout() io.Reader {
	return p.stdout
}

func (p *execProcess) Stderr() io.Reader {
	return p.stderr
}
