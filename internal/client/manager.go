// Package client owns the one logical console connection a warden
// frontend holds to a running daemon. A process-wide manager dials the
// gateway, fans received frames out to local subscribers, and reconnects
// with exponential backoff when the link drops unexpectedly.
package client

import (
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wardenhq/warden/internal/constants"
	"github.com/wardenhq/warden/internal/domain"
)

// ConnState is the externally visible connection state
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// welcomeNotice is delivered to message subscribers once per successful
// connection, before any relayed console line
const welcomeNotice = "--- console link established ---"

// reconnectFailedNotice is delivered to message subscribers when the
// reconnect budget runs out and the manager stops trying
const reconnectFailedNotice = "--- console link lost, reconnect attempts exhausted ---"

const (
	messageQueueSize = 256
	stateQueueSize   = 8
)

var (
	instanceMu sync.Mutex
	instance   *Manager
)

// GetInstance returns the process-wide connection manager, creating it on
// first use. Every caller shares the same underlying connection.
func GetInstance() *Manager {
	instanceMu.Lock()
	defer instanceMu.Unlock()
	if instance == nil {
		instance = newManager()
	}
	return instance
}

// attempt is one in-flight connection attempt shared by every concurrent
// Connect caller
type attempt struct {
	done chan struct{}
	err  error
}

// Manager maintains the single console connection and its subscribers
type Manager struct {
	mu sync.Mutex

	url          string
	baseInterval time.Duration
	maxAttempts  int

	state        ConnState
	conn         *websocket.Conn
	pending      *attempt
	attemptCount int
	retryTimer   *time.Timer
	lastErr      error

	nextSubID uint64
	msgSubs   map[uint64]chan string
	stateSubs map[uint64]chan ConnState

	// writeMu serializes frame writes; the connection allows one writer
	writeMu sync.Mutex

	dialer *websocket.Dialer
}

func newManager() *Manager {
	return &Manager{
		state:        StateDisconnected,
		baseInterval: constants.DefaultReconnectInterval,
		maxAttempts:  constants.DefaultMaxReconnectAttempts,
		msgSubs:      make(map[uint64]chan string),
		stateSubs:    make(map[uint64]chan ConnState),
		dialer: &websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Configure sets the target and reconnect policy. Idempotent; the last
// call governs future connect cycles but leaves an already-scheduled
// retry timer alone.
func (m *Manager) Configure(url string, reconnectInterval time.Duration, maxAttempts int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.url = url
	if reconnectInterval > 0 {
		m.baseInterval = reconnectInterval
	}
	if maxAttempts >= 0 {
		m.maxAttempts = maxAttempts
	}
}

// State returns the current connection state
func (m *Manager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastErr returns the terminal error of the reconnect cycle, if any.
// Non-nil only after the attempt budget is exhausted; a successful
// connect clears it.
func (m *Manager) LastErr() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Connect establishes the connection if none exists. Single-flight:
// concurrent callers share one attempt and observe its outcome.
func (m *Manager) Connect() error {
	m.mu.Lock()

	if m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	if m.pending != nil {
		p := m.pending
		m.mu.Unlock()
		<-p.done
		return p.err
	}

	// A stale handle is closed deliberately; clearing conn first keeps its
	// close event from looking like a link failure
	if m.conn != nil {
		old := m.conn
		m.conn = nil
		_ = old.Close()
	}

	p := &attempt{done: make(chan struct{})}
	m.pending = p
	m.state = StateConnecting
	url := m.url
	m.mu.Unlock()

	conn, resp, err := m.dialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	m.mu.Lock()
	if err != nil {
		m.state = StateDisconnected
		m.pending = nil
		p.err = fmt.Errorf("%w: %v", domain.ErrConnectionLost, err)
		m.notifyStateLocked(StateDisconnected)
		m.scheduleReconnectLocked()
		m.mu.Unlock()
		close(p.done)
		return p.err
	}

	m.conn = conn
	m.state = StateConnected
	m.attemptCount = 0
	m.lastErr = nil
	m.pending = nil
	m.notifyStateLocked(StateConnected)
	m.fanoutLocked(welcomeNotice)
	m.mu.Unlock()
	close(p.done)

	go m.readLoop(conn)
	return nil
}

// Send writes one command frame. Fails unless the connection is up; the
// caller may connect and retry once, never in a loop.
func (m *Manager) Send(text string) error {
	m.mu.Lock()
	if m.state != StateConnected || m.conn == nil {
		m.mu.Unlock()
		return domain.ErrNotConnected
	}
	conn := m.conn
	m.mu.Unlock()

	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConnectionLost, err)
	}
	return nil
}

// SubscribeMessages registers a console frame subscriber. Frames arrive
// in the order received; subscribers that stop draining lose the oldest
// frames first.
func (m *Manager) SubscribeMessages() (uint64, <-chan string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	ch := make(chan string, messageQueueSize)
	m.msgSubs[id] = ch
	return id, ch
}

// UnsubscribeMessages removes a message subscriber and closes its channel
func (m *Manager) UnsubscribeMessages(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.msgSubs[id]; ok {
		delete(m.msgSubs, id)
		close(ch)
	}
}

// SubscribeState registers a connection-state subscriber
func (m *Manager) SubscribeState() (uint64, <-chan ConnState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSubID
	m.nextSubID++
	ch := make(chan ConnState, stateQueueSize)
	m.stateSubs[id] = ch
	return id, ch
}

// UnsubscribeState removes a state subscriber and closes its channel
func (m *Manager) UnsubscribeState(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ch, ok := m.stateSubs[id]; ok {
		delete(m.stateSubs, id)
		close(ch)
	}
}

// Close tears down the connection deliberately; no reconnect follows.
// Subscribers stay registered and see a disconnected notification.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

// Reset is the full-teardown path: connection, retry timer, subscribers
// and counters all go. Primarily for isolating tests.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeLocked()
	for id, ch := range m.msgSubs {
		delete(m.msgSubs, id)
		close(ch)
	}
	for id, ch := range m.stateSubs {
		delete(m.stateSubs, id)
		close(ch)
	}
	m.nextSubID = 0
	m.attemptCount = 0
	m.lastErr = nil
}

func (m *Manager) closeLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	if m.conn != nil {
		old := m.conn
		m.conn = nil
		_ = old.Close()
	}
	if m.state != StateDisconnected {
		m.state = StateDisconnected
		m.notifyStateLocked(StateDisconnected)
	}
}

// readLoop relays inbound frames until the connection drops
func (m *Manager) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.handleClose(conn)
			return
		}
		m.mu.Lock()
		m.fanoutLocked(string(data))
		m.mu.Unlock()
	}
}

// handleClose reacts to a connection ending on its own. Deliberate
// closes clear conn first, so a mismatch means the event is stale.
func (m *Manager) handleClose(conn *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn != conn {
		return
	}
	m.conn = nil
	m.state = StateDisconnected
	m.notifyStateLocked(StateDisconnected)
	m.scheduleReconnectLocked()
}

// scheduleReconnectLocked arms the retry timer for the next attempt.
// Once the attempt budget is spent the manager records the terminal
// error, tells its subscribers, and stays disconnected until someone
// calls Connect again.
func (m *Manager) scheduleReconnectLocked() {
	if m.attemptCount >= m.maxAttempts {
		m.lastErr = fmt.Errorf("%w: giving up after %d attempts", domain.ErrMaxReconnects, m.attemptCount)
		log.Printf("client: %v", m.lastErr)
		m.fanoutLocked(reconnectFailedNotice)
		return
	}

	delay := backoffDelay(m.baseInterval, m.attemptCount)
	m.attemptCount++
	log.Printf("client: reconnecting in %s (attempt %d/%d)", delay, m.attemptCount, m.maxAttempts)

	m.retryTimer = time.AfterFunc(delay, func() {
		if err := m.Connect(); err != nil {
			log.Printf("client: reconnect failed: %v", err)
		}
	})
}

// backoffDelay returns the delay before the n-th reconnect attempt
func backoffDelay(base time.Duration, n int) time.Duration {
	return base * (1 << n)
}

// fanoutLocked delivers one frame to every message subscriber in
// registration order. A full queue sheds its oldest frame.
func (m *Manager) fanoutLocked(text string) {
	for _, id := range sortedKeys(m.msgSubs) {
		deliver(m.msgSubs[id], text)
	}
}

// notifyStateLocked delivers a state change to every state subscriber in
// registration order
func (m *Manager) notifyStateLocked(st ConnState) {
	for _, id := range sortedKeys(m.stateSubs) {
		deliver(m.stateSubs[id], st)
	}
}

// deliver enqueues without blocking, dropping the subscriber's oldest
// queued item when full
func deliver[T any](ch chan T, v T) {
	for {
		select {
		case ch <- v:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// sortedKeys returns subscription ids in ascending (registration) order
func sortedKeys[T any](m map[uint64]T) []uint64 {
	keys := make([]uint64, 0, len(m))
	for id := range m {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
