package daemon

import "errors"

var (
	// ErrStateNotFound is returned when no state file exists
	ErrStateNotFound = errors.New("state file not found")
	// ErrAlreadyRunning is returned when a warden daemon already runs here
	ErrAlreadyRunning = errors.New("warden is already running")
	// ErrNotRunning is returned when no warden daemon runs here
	ErrNotRunning = errors.New("warden is not running")
	// ErrPIDFileLocked is returned when another process holds the PID lock
	ErrPIDFileLocked = errors.New("PID file is locked by another process")
)
