package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validState() *State {
	return &State{
		PID:        os.Getpid(),
		Host:       "127.0.0.1",
		Port:       5600,
		StartedAt:  time.Now(),
		ConfigFile: "warden.yaml",
	}
}

func TestState_WriteAndLoad(t *testing.T) {
	dir := t.TempDir()

	st := validState()
	require.NoError(t, st.Write(dir))

	loaded, err := LoadState(dir)
	require.NoError(t, err)
	assert.Equal(t, st.PID, loaded.PID)
	assert.Equal(t, st.Host, loaded.Host)
	assert.Equal(t, st.Port, loaded.Port)
	assert.Equal(t, st.ConfigFile, loaded.ConfigFile)
}

func TestState_WriteValidation(t *testing.T) {
	dir := t.TempDir()

	bad := validState()
	bad.PID = 0
	assert.Error(t, bad.Write(dir))

	bad = validState()
	bad.Port = 0
	assert.Error(t, bad.Write(dir))

	bad = validState()
	bad.Host = ""
	assert.Error(t, bad.Write(dir))
}

func TestLoadState_NotFound(t *testing.T) {
	_, err := LoadState(t.TempDir())
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestState_APIAddress(t *testing.T) {
	st := validState()
	assert.Equal(t, "http://127.0.0.1:5600", st.APIAddress())
}

func TestRemoveState(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, validState().Write(dir))

	require.NoError(t, RemoveState(dir))
	_, err := LoadState(dir)
	assert.ErrorIs(t, err, ErrStateNotFound)

	// Removing again is a no-op
	assert.NoError(t, RemoveState(dir))
}

func TestStatePaths(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, filepath.Join(dir, ".warden", "warden.state"), StatePath(dir))
	assert.Equal(t, filepath.Join(dir, ".warden", "warden.pid"), PIDPath(dir))
	assert.Equal(t, filepath.Join(dir, ".warden", "warden.log"), LogPath(dir))
}

func TestCleanupStateDir_KeepsLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, validState().Write(dir))
	require.NoError(t, os.WriteFile(LogPath(dir), []byte("log line\n"), 0600))
	require.NoError(t, os.WriteFile(PIDPath(dir), []byte("123\n"), 0600))

	require.NoError(t, CleanupStateDir(dir))

	assert.NoFileExists(t, StatePath(dir))
	assert.NoFileExists(t, PIDPath(dir))
	assert.FileExists(t, LogPath(dir))
}
