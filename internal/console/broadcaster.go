// Package console implements the fan-out path between the game server's
// output and every connected viewer: one totally ordered line stream, a
// bounded backlog replayed to newcomers, and independent per-subscriber
// queues so one slow viewer cannot stall the rest.
package console

import (
	"fmt"
	"sync"
	"time"

	"github.com/wardenhq/warden/internal/domain"
)

// Broadcaster fans a single ordered console stream out to any number of
// subscribers. Publish assigns sequence numbers and delivers under one
// lock, so no two subscribers ever observe lines in conflicting order.
type Broadcaster struct {
	mu        sync.Mutex
	subs      map[string]*Subscriber
	backlog   *Backlog
	queueSize int
	nextSeq   uint64
}

// Config tunes a Broadcaster
type Config struct {
	// BacklogSize is how many recent lines are retained for replay
	BacklogSize int
	// QueueSize is the per-subscriber delivery queue capacity
	QueueSize int
}

// New creates a Broadcaster
func New(cfg Config) *Broadcaster {
	if cfg.BacklogSize <= 0 {
		cfg.BacklogSize = 100
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	return &Broadcaster{
		subs:      make(map[string]*Subscriber),
		backlog:   NewBacklog(cfg.BacklogSize),
		queueSize: cfg.QueueSize,
	}
}

// Publish appends a line to the backlog and enqueues it to every current
// subscriber in the same relative order. It never blocks on a slow
// consumer. The stamped line is returned.
func (b *Broadcaster) Publish(stream domain.Stream, text string) domain.ConsoleLine {
	line := domain.ConsoleLine{
		Timestamp: time.Now(),
		Stream:    stream,
		Text:      text,
	}

	b.mu.Lock()
	b.nextSeq++
	line.Seq = b.nextSeq
	b.backlog.Append(line)
	for _, sub := range b.subs {
		sub.push(line)
	}
	b.mu.Unlock()

	return line
}

// Publishf is Publish with fmt.Sprintf formatting
func (b *Broadcaster) Publishf(stream domain.Stream, format string, args ...any) domain.ConsoleLine {
	return b.Publish(stream, fmt.Sprintf(format, args...))
}

// Subscribe registers a new subscriber. The retained backlog is queued
// oldest-first before any live line, so replay and live delivery cannot
// interleave or duplicate.
func (b *Broadcaster) Subscribe() *Subscriber {
	sub := newSubscriber(b.queueSize)

	b.mu.Lock()
	for _, line := range b.backlog.Lines() {
		sub.push(line)
	}
	b.subs[sub.id] = sub
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscriber and closes its queue. Safe to call
// concurrently with Publish: a publish sees the subscriber either fully
// present or fully gone, never half-removed.
func (b *Broadcaster) Unsubscribe(id string) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()

	if ok {
		sub.close()
	}
}

// Subscribers returns the number of active subscribers
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Backlog returns the retained lines, oldest first
func (b *Broadcaster) Backlog() []domain.ConsoleLine {
	return b.backlog.Lines()
}

// Close removes and closes every subscriber
func (b *Broadcaster) Close() {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.subs = make(map[string]*Subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}
