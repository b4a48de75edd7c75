package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wardenhq/warden/internal/constants"
	"github.com/wardenhq/warden/internal/domain"
)

// Config represents the top-level warden configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Console ConsoleConfig `yaml:"console"`
	Client  ClientConfig  `yaml:"client"`
}

// ServerConfig describes the game server process warden manages
type ServerConfig struct {
	// Path is the launch script or binary for the game server
	Path string `yaml:"path"`
	// Dir is the working directory for the process; defaults to the
	// directory containing Path
	Dir string `yaml:"dir"`
	// StopCommand is written to the server's stdin on graceful stop
	StopCommand string `yaml:"stop_command"`
	// GracePeriod bounds how long a graceful stop may take
	GracePeriod time.Duration `yaml:"grace_period"`
	// Env holds extra environment variables for the process
	Env map[string]string `yaml:"env"`
	// EnvFile is an optional dotenv file merged below Env
	EnvFile string `yaml:"env_file"`
}

// APIConfig defines the HTTP API configuration
type APIConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// ConsoleConfig tunes the console broadcast path
type ConsoleConfig struct {
	// Backlog is how many recent lines are replayed to new viewers
	Backlog int `yaml:"backlog"`
	// SubscriberQueue is the per-viewer delivery queue capacity
	SubscriberQueue int `yaml:"subscriber_queue"`
	// HeartbeatInterval is the gateway ping cadence
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// HeartbeatMisses is the consecutive miss budget before disconnect
	HeartbeatMisses int `yaml:"heartbeat_misses"`
}

// ClientConfig tunes the reconnecting console client
type ClientConfig struct {
	ReconnectInterval time.Duration `yaml:"reconnect_interval"`
	MaxAttempts       int           `yaml:"max_attempts"`
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("checking config file: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes and applies defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}

	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no server
// path. Useful for tests and for serving with flags only.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.API.Host == "" {
		cfg.API.Host = constants.DefaultAPIHost
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = constants.DefaultAPIPort
	}
	if cfg.Server.StopCommand == "" {
		cfg.Server.StopCommand = constants.DefaultStopCommand
	}
	if cfg.Server.GracePeriod == 0 {
		cfg.Server.GracePeriod = constants.DefaultGracePeriod
	}
	if cfg.Console.Backlog == 0 {
		cfg.Console.Backlog = constants.DefaultBacklogSize
	}
	if cfg.Console.SubscriberQueue == 0 {
		cfg.Console.SubscriberQueue = constants.DefaultSubscriberQueue
	}
	if cfg.Console.HeartbeatInterval == 0 {
		cfg.Console.HeartbeatInterval = constants.DefaultHeartbeatInterval
	}
	if cfg.Console.HeartbeatMisses == 0 {
		cfg.Console.HeartbeatMisses = constants.DefaultHeartbeatMisses
	}
	if cfg.Client.ReconnectInterval == 0 {
		cfg.Client.ReconnectInterval = constants.DefaultReconnectInterval
	}
	if cfg.Client.MaxAttempts == 0 {
		cfg.Client.MaxAttempts = constants.DefaultMaxReconnectAttempts
	}
}

// Validate checks the configuration for errors
func Validate(cfg *Config) error {
	var errs []string

	if cfg.API.Port < 0 || cfg.API.Port > 65535 {
		errs = append(errs, fmt.Sprintf("api.port: must be between 0 and 65535, got %d", cfg.API.Port))
	}
	if cfg.Server.GracePeriod < 0 {
		errs = append(errs, "server.grace_period: must be non-negative")
	}
	if cfg.Console.Backlog < 0 {
		errs = append(errs, "console.backlog: must be non-negative")
	}
	if cfg.Console.SubscriberQueue < 1 {
		errs = append(errs, "console.subscriber_queue: must be at least 1")
	}
	if cfg.Console.HeartbeatMisses < 1 {
		errs = append(errs, "console.heartbeat_misses: must be at least 1")
	}
	if cfg.Client.MaxAttempts < 0 {
		errs = append(errs, "client.max_attempts: must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}
