package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIDFile_CreateAndRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.pid")

	pf := NewPIDFile(path)
	require.NoError(t, pf.Create())

	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)

	require.NoError(t, pf.Release())
	assert.NoFileExists(t, path)
}

func TestPIDFile_LockHeldWhileCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.pid")

	pf := NewPIDFile(path)
	require.NoError(t, pf.Create())
	defer pf.Release()

	assert.True(t, IsLocked(path))

	require.NoError(t, pf.Release())
	assert.False(t, IsLocked(path))
}

func TestPIDFile_ReleaseWithoutCreate(t *testing.T) {
	pf := NewPIDFile(filepath.Join(t.TempDir(), "warden.pid"))
	assert.NoError(t, pf.Release())
}

func TestIsLocked_MissingFile(t *testing.T) {
	assert.False(t, IsLocked(filepath.Join(t.TempDir(), "nope.pid")))
}

func TestReadPID_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.pid")
	require.NoError(t, os.WriteFile(path, []byte("not a pid\n"), 0600))

	_, err := ReadPID(path)
	assert.Error(t, err)
}

func TestProcessExists(t *testing.T) {
	assert.True(t, ProcessExists(os.Getpid()))
	// PIDs near the max are essentially never allocated
	assert.False(t, ProcessExists(99999999))
}
