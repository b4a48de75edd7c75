package daemon

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// PIDFile holds an exclusive flock on the daemon's PID file. The lock,
// not the file contents, is what makes liveness detection reliable: a
// crashed daemon leaves the file behind but never the lock.
//
// Not safe for concurrent use on the same instance.
type PIDFile struct {
	path string
	file *os.File
}

// NewPIDFile creates a PIDFile manager for path
func NewPIDFile(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Create creates and locks the PID file and writes the current PID.
// Returns ErrPIDFileLocked if another process holds the lock.
func (p *PIDFile) Create() error {
	f, err := os.OpenFile(p.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("opening PID file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		if err == syscall.EWOULDBLOCK {
			return ErrPIDFileLocked
		}
		return fmt.Errorf("locking PID file: %w", err)
	}

	if err := f.Truncate(0); err != nil {
		p.releaseAndClose(f)
		return fmt.Errorf("truncating PID file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		p.releaseAndClose(f)
		return fmt.Errorf("seeking PID file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", os.Getpid()); err != nil {
		p.releaseAndClose(f)
		return fmt.Errorf("writing PID: %w", err)
	}
	if err := f.Sync(); err != nil {
		p.releaseAndClose(f)
		return fmt.Errorf("syncing PID file: %w", err)
	}

	p.file = f
	return nil
}

// Release unlocks and removes the PID file
func (p *PIDFile) Release() error {
	if p.file == nil {
		return nil
	}

	_ = syscall.Flock(int(p.file.Fd()), syscall.LOCK_UN)
	_ = p.file.Close()
	p.file = nil

	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing PID file: %w", err)
	}
	return nil
}

func (p *PIDFile) releaseAndClose(f *os.File) {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to unlock PID file: %v\n", err)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close PID file: %v\n", err)
	}
}

// IsLocked reports whether another process holds the PID file lock
func IsLocked(path string) bool {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return false
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_SH|syscall.LOCK_NB); err != nil {
		return true
	}
	_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	return false
}

// ReadPID reads the PID recorded in a PID file
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing PID: %w", err)
	}
	return pid, nil
}

// ProcessExists reports whether a process with the given PID exists.
// Signal 0 probes without delivering; EPERM still means alive.
func ProcessExists(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = process.Signal(syscall.Signal(0))
	return err == nil || err == syscall.EPERM
}
