package domain

import "errors"

// Domain errors
var (
	ErrAlreadyRunning = errors.New("server already running")
	ErrNotRunning     = errors.New("server not running")
	ErrSpawnFailed    = errors.New("failed to spawn server process")
	ErrInputClosed    = errors.New("server input stream closed")
	ErrNotConnected   = errors.New("not connected")
	ErrConnectionLost = errors.New("connection lost")
	ErrMaxReconnects  = errors.New("max reconnect attempts exceeded")
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrConfigNotFound = errors.New("config file not found")
)

// Error codes for API responses
const (
	ErrCodeAlreadyRunning = "ALREADY_RUNNING"
	ErrCodeNotRunning     = "NOT_RUNNING"
	ErrCodeSpawnFailure   = "SPAWN_FAILURE"
	ErrCodeIOFailure      = "IO_FAILURE"
)

// ErrorCode returns the API error code for a domain error
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyRunning):
		return ErrCodeAlreadyRunning
	case errors.Is(err, ErrNotRunning):
		return ErrCodeNotRunning
	case errors.Is(err, ErrSpawnFailed):
		return ErrCodeSpawnFailure
	case errors.Is(err, ErrInputClosed):
		return ErrCodeIOFailure
	default:
		return "INTERNAL_ERROR"
	}
}
