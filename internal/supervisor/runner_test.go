package supervisor

import (
	"bufio"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/domain"
)

func TestExecRunner_StartAndWait(t *testing.T) {
	script := writeScript(t, "echo hello\n")
	runner := NewExecRunner()

	proc, err := runner.Start(context.Background(), domain.LaunchSpec{Path: script})
	require.NoError(t, err)
	assert.Greater(t, proc.PID(), 0)

	line, err := bufio.NewReader(proc.Stdout()).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)

	require.NoError(t, proc.Wait())
}

func TestExecRunner_BadPath(t *testing.T) {
	runner := NewExecRunner()
	_, err := runner.Start(context.Background(), domain.LaunchSpec{Path: "/nonexistent/run.sh"})
	assert.Error(t, err)
}

func TestExecRunner_WorkingDirDefaultsToScriptDir(t *testing.T) {
	script := writeScript(t, "pwd\n")
	runner := NewExecRunner()

	proc, err := runner.Start(context.Background(), domain.LaunchSpec{Path: script})
	require.NoError(t, err)

	line, err := bufio.NewReader(proc.Stdout()).ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, filepath.Dir(script))

	require.NoError(t, proc.Wait())
}

func TestExecRunner_Env(t *testing.T) {
	script := writeScript(t, `echo "mem=$WARDEN_TEST_MEM"`+"\n")
	runner := NewExecRunner()

	proc, err := runner.Start(context.Background(), domain.LaunchSpec{
		Path: script,
		Env:  map[string]string{"WARDEN_TEST_MEM": "4G"},
	})
	require.NoError(t, err)

	out, err := io.ReadAll(proc.Stdout())
	require.NoError(t, err)
	assert.Contains(t, string(out), "mem=4G")

	require.NoError(t, proc.Wait())
}

func TestExecRunner_StdinRoundtrip(t *testing.T) {
	script := writeScript(t, echoServer)
	runner := NewExecRunner()

	proc, err := runner.Start(context.Background(), domain.LaunchSpec{Path: script})
	require.NoError(t, err)

	_, err = io.WriteString(proc.Stdin(), "ping\n")
	require.NoError(t, err)

	line, err := bufio.NewReader(proc.Stdout()).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "got ping\n", line)

	require.NoError(t, proc.Stdin().Close())
	require.NoError(t, proc.Wait())
}

func TestExecRunner_SignalKillsGroup(t *testing.T) {
	// The launch script spawns a child; killing the group reaps both.
	script := writeScript(t, "sleep 30 &\nwait\n")
	runner := NewExecRunner()

	proc, err := runner.Start(context.Background(), domain.LaunchSpec{Path: script})
	require.NoError(t, err)

	require.NoError(t, proc.Signal(sigkill))

	err = proc.Wait()
	require.Error(t, err) // killed by signal
	assert.Equal(t, -9, exitCodeFromError(err))
}
