// Package daemon handles background operation of the warden server:
// detaching from the terminal, holding a locked PID file, and publishing a
// state file that client commands use to find the running API.
package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StateDirName is the runtime state directory, created next to the
	// managed server
	StateDirName = ".warden"
	// StateFileName is the state file name
	StateFileName = "warden.state"
	// PIDFileName is the PID file name
	PIDFileName = "warden.pid"
	// LogFileName is the daemon log file name
	LogFileName = "warden.log"
)

// State describes a running warden daemon. The daemon writes it once at
// startup; client commands read it to discover the API address. Not safe
// for concurrent writes to the same directory.
type State struct {
	PID        int       `json:"pid"`
	Host       string    `json:"host"`
	Port       int       `json:"port"`
	StartedAt  time.Time `json:"started_at"`
	ConfigFile string    `json:"config_file"`
}

// APIAddress returns the base URL of the daemon's HTTP API
func (s *State) APIAddress() string {
	return fmt.Sprintf("http://%s:%d", s.Host, s.Port)
}

// Write persists the state file under dir
func (s *State) Write(dir string) error {
	if s.PID <= 0 {
		return fmt.Errorf("invalid PID: %d", s.PID)
	}
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port: %d", s.Port)
	}
	if s.Host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	if err := EnsureStateDir(dir); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	f, err := os.OpenFile(StatePath(dir), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("opening state file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("syncing state file: %w", err)
	}

	return nil
}

// LoadState reads the state file under dir
func LoadState(dir string) (*State, error) {
	data, err := os.ReadFile(StatePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("unmarshaling state: %w", err)
	}

	return &state, nil
}

// RemoveState removes the state file under dir
func RemoveState(dir string) error {
	if err := os.Remove(StatePath(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing state file: %w", err)
	}
	return nil
}

// StateDir returns the .warden directory for dir, defaulting to the
// current working directory
func StateDir(dir string) string {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return StateDirName
		}
	}
	return filepath.Join(dir, StateDirName)
}

// StatePath returns the full path to the state file
func StatePath(dir string) string {
	return filepath.Join(StateDir(dir), StateFileName)
}

// PIDPath returns the full path to the PID file
func PIDPath(dir string) string {
	return filepath.Join(StateDir(dir), PIDFileName)
}

// LogPath returns the full path to the daemon log file
func LogPath(dir string) string {
	return filepath.Join(StateDir(dir), LogFileName)
}

// EnsureStateDir creates the .warden directory if needed
func EnsureStateDir(dir string) error {
	if err := os.MkdirAll(StateDir(dir), 0700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// CleanupStateDir removes the state and PID files. The log file stays
// around for post-mortem reading.
func CleanupStateDir(dir string) error {
	if err := RemoveState(dir); err != nil {
		return err
	}
	if err := os.Remove(PIDPath(dir)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing PID file: %w", err)
	}
	return nil
}
