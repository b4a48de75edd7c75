package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/domain"
)

func TestParse_Full(t *testing.T) {
	data := []byte(`
server:
  path: /srv/minecraft/run.sh
  dir: /srv/minecraft
  stop_command: stop
  grace_period: 45s
  env:
    JAVA_OPTS: -Xmx4G
api:
  host: 0.0.0.0
  port: 8090
console:
  backlog: 200
  subscriber_queue: 512
  heartbeat_interval: 10s
  heartbeat_misses: 3
client:
  reconnect_interval: 2s
  max_attempts: 8
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "/srv/minecraft/run.sh", cfg.Server.Path)
	assert.Equal(t, "/srv/minecraft", cfg.Server.Dir)
	assert.Equal(t, 45*time.Second, cfg.Server.GracePeriod)
	assert.Equal(t, "-Xmx4G", cfg.Server.Env["JAVA_OPTS"])
	assert.Equal(t, "0.0.0.0", cfg.API.Host)
	assert.Equal(t, 8090, cfg.API.Port)
	assert.Equal(t, 200, cfg.Console.Backlog)
	assert.Equal(t, 512, cfg.Console.SubscriberQueue)
	assert.Equal(t, 10*time.Second, cfg.Console.HeartbeatInterval)
	assert.Equal(t, 3, cfg.Console.HeartbeatMisses)
	assert.Equal(t, 2*time.Second, cfg.Client.ReconnectInterval)
	assert.Equal(t, 8, cfg.Client.MaxAttempts)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
server:
  path: ./run.sh
`))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.API.Host)
	assert.Equal(t, 5600, cfg.API.Port)
	assert.Equal(t, "stop", cfg.Server.StopCommand)
	assert.Equal(t, 30*time.Second, cfg.Server.GracePeriod)
	assert.Equal(t, 100, cfg.Console.Backlog)
	assert.Equal(t, 256, cfg.Console.SubscriberQueue)
	assert.Equal(t, 5*time.Second, cfg.Console.HeartbeatInterval)
	assert.Equal(t, 2, cfg.Console.HeartbeatMisses)
	assert.Equal(t, 3*time.Second, cfg.Client.ReconnectInterval)
	assert.Equal(t, 5, cfg.Client.MaxAttempts)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`
server:
  path: ./run.sh
api:
  port: 99999
`))
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	_, err = Parse([]byte("server: [not a map"))
	assert.Error(t, err)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warden.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  path: ./run.sh\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "./run.sh", cfg.Server.Path)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5600, cfg.API.Port)
	assert.Empty(t, cfg.Server.Path)
	require.NoError(t, Validate(cfg))
}
