// Package constants provides shared configuration values used across warden.
package constants

import "time"

// Configuration file defaults
const (
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "warden.yaml"

	// DefaultAPIHost is the default host for the API server
	DefaultAPIHost = "127.0.0.1"

	// DefaultAPIPort is the default port for the API server
	DefaultAPIPort = 5600

	// DefaultAPIAddress is the default API address for client commands
	DefaultAPIAddress = "http://127.0.0.1:5600"
)

// Timeout and duration defaults
const (
	// DefaultRequestTimeout is the default timeout for API requests
	DefaultRequestTimeout = 30 * time.Second

	// DefaultGracePeriod is how long a graceful stop may take before the
	// server process group is force-killed
	DefaultGracePeriod = 30 * time.Second

	// DefaultStopCommand is the console command written to the server's
	// stdin to request a graceful shutdown
	DefaultStopCommand = "stop"
)

// Console streaming defaults
const (
	// DefaultBacklogSize is how many recent console lines are retained and
	// replayed to newly connected viewers
	DefaultBacklogSize = 100

	// DefaultSubscriberQueue is the per-subscriber delivery queue capacity
	DefaultSubscriberQueue = 256

	// DefaultHeartbeatInterval is how often the gateway pings each session
	DefaultHeartbeatInterval = 5 * time.Second

	// DefaultHeartbeatMisses is how many consecutive unanswered pings a
	// session may miss before it is considered dead
	DefaultHeartbeatMisses = 2
)

// Client reconnection defaults
const (
	// DefaultReconnectInterval is the base delay for reconnect backoff
	DefaultReconnectInterval = 3 * time.Second

	// DefaultMaxReconnectAttempts bounds automatic reconnection attempts
	DefaultMaxReconnectAttempts = 5
)

// Buffer sizes
const (
	// ScannerBufferSize is the initial buffer size for console line scanning
	ScannerBufferSize = 64 * 1024 // 64KB

	// ScannerMaxBufferSize is the maximum buffer size for console line scanning
	ScannerMaxBufferSize = 1024 * 1024 // 1MB
)

// ANSI color codes for terminal output
const (
	ColorReset  = "\033[0m"
	ColorDim    = "\033[2m"
	ColorRed    = "\033[31m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)
