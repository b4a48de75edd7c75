package gateway

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wardenhq/warden/internal/console"
)

// Session is the server-side bookkeeping for one live viewer: its
// connection, its console subscription and its heartbeat clock.
type Session struct {
	conn     *websocket.Conn
	sub      *console.Subscriber
	console  *console.Broadcaster
	commands CommandSink
	cfg      Config

	// diag carries frames addressed to this session only (welcome notice,
	// command acks, command errors); they are never broadcast
	diag chan string

	done      chan struct{}
	closeOnce sync.Once
}

func newSession(conn *websocket.Conn, b *console.Broadcaster, commands CommandSink, cfg Config) *Session {
	return &Session{
		conn:     conn,
		sub:      b.Subscribe(),
		console:  b,
		commands: commands,
		cfg:      cfg,
		diag:     make(chan string, 16),
		done:     make(chan struct{}),
	}
}

// ShortID returns a truncated subscriber id for logs
func (s *Session) ShortID() string {
	if len(s.sub.ID()) >= 8 {
		return s.sub.ID()[:8]
	}
	return s.sub.ID()
}

// run drives the session: a write loop relaying console lines and pings,
// and a read loop accepting commands and pongs. Returns when the session
// is fully torn down.
func (s *Session) run() {
	// Welcome notice goes out before any replayed or live line so viewers
	// can tell separate connections apart
	welcome := fmt.Sprintf("--- connected to game server console (session %s) ---", s.ShortID())
	if err := s.writeText(welcome); err != nil {
		s.close()
		return
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()

	s.readLoop()
	s.close()
	wg.Wait()
}

// writeLoop drains the subscription and diagnostics to the peer and sends
// heartbeat pings. A write failure tears the session down.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case line, ok := <-s.sub.Lines():
			if !ok {
				return
			}
			if err := s.writeText(line.WireText()); err != nil {
				s.close()
				return
			}
		case msg := <-s.diag:
			if err := s.writeText(msg); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				s.close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) writeText(text string) error {
	if err := s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

// readLoop accepts inbound command frames and keeps the heartbeat clock.
// The read deadline covers the configured miss budget; every pong (or any
// frame) pushes it forward.
func (s *Session) readLoop() {
	wait := s.cfg.HeartbeatInterval * time.Duration(s.cfg.HeartbeatMisses+1)

	_ = s.conn.SetReadDeadline(time.Now().Add(wait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("gateway: session %s read error: %v", s.ShortID(), err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(wait))

		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}

		s.sendDiag("Command received: " + text)
		if err := s.commands.SendCommand(text); err != nil {
			// Delivered only to the session that typed the command
			s.sendDiag(fmt.Sprintf("command failed: %v", err))
		}
	}
}

// sendDiag queues a session-private frame; dropped if the session is too
// far behind to care
func (s *Session) sendDiag(text string) {
	select {
	case s.diag <- text:
	default:
	}
}

// close tears the session down exactly once: the subscription goes first
// so the broadcaster never holds an orphaned subscriber for a dead
// connection, then the connection handle is released.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.console.Unsubscribe(s.sub.ID())
		close(s.done)
		_ = s.conn.Close()
	})
}
