// Package gateway bridges live websocket connections to the console
// broadcast stream and the supervisor's command sink. Each connection gets
// its own session with an independent subscription, so one slow or dead
// viewer never delays the others.
package gateway

import (
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wardenhq/warden/internal/console"
	"github.com/wardenhq/warden/internal/constants"
)

// CommandSink receives console commands typed by connected viewers
type CommandSink interface {
	SendCommand(text string) error
}

// Config holds gateway configuration
type Config struct {
	// HeartbeatInterval is how often each session is pinged
	HeartbeatInterval time.Duration
	// HeartbeatMisses is how many consecutive unanswered pings a session
	// may miss before it is considered dead
	HeartbeatMisses int
	// WriteTimeout bounds a single frame write to a peer
	WriteTimeout time.Duration
}

// DefaultConfig returns default gateway configuration
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: constants.DefaultHeartbeatInterval,
		HeartbeatMisses:   constants.DefaultHeartbeatMisses,
		WriteTimeout:      10 * time.Second,
	}
}

// Gateway upgrades inbound connections and runs one session per viewer
type Gateway struct {
	console  *console.Broadcaster
	commands CommandSink
	cfg      Config
	upgrader websocket.Upgrader

	// sessions counts live sessions, for logs and tests
	sessions atomic.Int64
}

// New creates a gateway relaying the given broadcaster and command sink
func New(b *console.Broadcaster, commands CommandSink, cfg Config) *Gateway {
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = constants.DefaultHeartbeatInterval
	}
	if cfg.HeartbeatMisses <= 0 {
		cfg.HeartbeatMisses = constants.DefaultHeartbeatMisses
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	return &Gateway{
		console:  b,
		commands: commands,
		cfg:      cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The console is served to browser frontends on other local
			// ports; auth is out of scope at this layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Sessions returns the number of live sessions
func (g *Gateway) Sessions() int {
	return int(g.sessions.Load())
}

// ServeHTTP upgrades the request and runs the session until the peer goes
// away or its heartbeat lapses
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("gateway: upgrade failed: %v", err)
		return
	}

	sess := newSession(conn, g.console, g.commands, g.cfg)

	total := g.sessions.Add(1)
	log.Printf("gateway: session %s connected (%d active)", sess.ShortID(), total)

	sess.run()

	total = g.sessions.Add(-1)
	log.Printf("gateway: session %s disconnected (%d active)", sess.ShortID(), total)
}
