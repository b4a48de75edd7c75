package daemon

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
)

// DaemonEnvVar marks the re-executed child process
const DaemonEnvVar = "_WARDEN_DAEMON"

// IsDaemonChild reports whether this process is the daemon child
func IsDaemonChild() bool {
	return os.Getenv(DaemonEnvVar) == "1"
}

// Daemonize re-executes the current binary detached from the terminal.
//
// In the parent this prints the child PID and calls os.Exit(0); only the
// child continues, with IsDaemonChild() true. The parent exits before
// the child confirms initialization; client commands tolerate this by
// reading the state file with retries.
func Daemonize() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("getting executable path: %w", err)
	}

	cmd := exec.Command(executable, os.Args[1:]...)
	cmd.Env = append(os.Environ(), DaemonEnvVar+"=1")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	// The daemon logs to its own file, not the parent's terminal
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting daemon process: %w", err)
	}

	fmt.Printf("warden started (pid %d)\n", cmd.Process.Pid)
	os.Exit(0)
	return nil
}

// SetupLogging redirects stdout and stderr to the daemon log file.
// Called early in the daemon child.
func SetupLogging(dir string) (*os.File, error) {
	if err := EnsureStateDir(dir); err != nil {
		return nil, err
	}

	logFile, err := os.OpenFile(LogPath(dir), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	os.Stdout = logFile
	os.Stderr = logFile
	return logFile, nil
}

// FindAvailablePort asks the OS for a free TCP port on host
func FindAvailablePort(host string) (int, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, fmt.Errorf("finding available port: %w", err)
	}
	defer listener.Close()

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected address type: %T", listener.Addr())
	}
	return tcpAddr.Port, nil
}

// IsRunning reports whether a warden daemon runs in dir. Best effort:
// the PID lock is authoritative, the state file a fallback.
func IsRunning(dir string) bool {
	if IsLocked(PIDPath(dir)) {
		return true
	}

	state, err := LoadState(dir)
	if err != nil {
		return false
	}
	return ProcessExists(state.PID)
}

// GetRunningState returns the state of a running daemon, or ErrNotRunning
func GetRunningState(dir string) (*State, error) {
	if !IsRunning(dir) {
		return nil, ErrNotRunning
	}
	return LoadState(dir)
}

// CleanupStaleFiles removes state left behind by a crashed daemon.
// Refuses with ErrAlreadyRunning while the daemon is alive.
func CleanupStaleFiles(dir string) error {
	if IsLocked(PIDPath(dir)) {
		return ErrAlreadyRunning
	}

	state, err := LoadState(dir)
	if err != nil {
		if err == ErrStateNotFound {
			return nil
		}
		return err
	}

	if ProcessExists(state.PID) {
		return ErrAlreadyRunning
	}
	return CleanupStateDir(dir)
}
