package domain

import "time"

// ServerState represents the current state of the managed game server.
// The server transitions through these states during its lifecycle:
//
//	stopped --start--> starting --spawned--> running --stop--> stopping --exit--> stopped
//
// An unexpected exit moves running directly to stopped, skipping stopping.
type ServerState string

const (
	// ServerStateStopped indicates no server process exists
	ServerStateStopped ServerState = "stopped"
	// ServerStateStarting indicates the server process is being spawned
	ServerStateStarting ServerState = "starting"
	// ServerStateRunning indicates the server process is alive
	ServerStateRunning ServerState = "running"
	// ServerStateStopping indicates a graceful shutdown is in progress
	ServerStateStopping ServerState = "stopping"
)

// String returns the string representation of ServerState
func (s ServerState) String() string {
	return string(s)
}

// IsRunning returns true if the server is actively running
func (s ServerState) IsRunning() bool {
	return s == ServerStateRunning
}

// IsActive returns true for any state in which a process handle exists
func (s ServerState) IsActive() bool {
	return s == ServerStateStarting || s == ServerStateRunning || s == ServerStateStopping
}

// LaunchSpec describes how to launch the game server process
type LaunchSpec struct {
	// Path is the server launch script or binary
	Path string
	// Dir is the working directory for the process
	Dir string
	// Env holds additional environment variables
	Env map[string]string
}

// ServerStatus is a point-in-time snapshot of the supervisor
type ServerStatus struct {
	State     ServerState
	PID       int
	Path      string
	StartedAt time.Time
}

// UptimeSeconds returns seconds since the server started, 0 when not running
func (s ServerStatus) UptimeSeconds() int64 {
	if s.StartedAt.IsZero() || !s.State.IsRunning() {
		return 0
	}
	return int64(time.Since(s.StartedAt).Seconds())
}
