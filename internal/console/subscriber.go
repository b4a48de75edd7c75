package console

import (
	"log"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/domain"
)

// Subscriber is one consumer of the console stream with its own bounded
// delivery queue. A subscriber that stops draining loses its own oldest
// queued lines; it never delays delivery to anyone else.
type Subscriber struct {
	id      string
	ch      chan domain.ConsoleLine
	closed  atomic.Bool
	dropped atomic.Uint64
}

func newSubscriber(queueSize int) *Subscriber {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Subscriber{
		id: uuid.NewString(),
		ch: make(chan domain.ConsoleLine, queueSize),
	}
}

// ID returns the subscriber id
func (s *Subscriber) ID() string {
	return s.id
}

// Lines returns the channel delivering console lines in publish order
func (s *Subscriber) Lines() <-chan domain.ConsoleLine {
	return s.ch
}

// Dropped returns how many queued lines this subscriber has lost to
// backpressure
func (s *Subscriber) Dropped() uint64 {
	return s.dropped.Load()
}

// push enqueues a line without ever blocking the publisher. When the queue
// is full the subscriber's oldest queued line is discarded to make room,
// so a stalled viewer sees gaps but always the freshest tail.
func (s *Subscriber) push(line domain.ConsoleLine) {
	if s.closed.Load() {
		return
	}

	for {
		select {
		case s.ch <- line:
			return
		default:
		}

		select {
		case <-s.ch:
			if s.dropped.Add(1) == 1 {
				log.Printf("console: subscriber %s lagging, dropping oldest queued lines", s.id)
			}
		default:
			// Consumer drained concurrently; retry the send.
		}
	}
}

// close marks the subscriber dead and closes its queue. Must only be
// called after the subscriber has been removed from the registry, so no
// publish can still be writing to the queue.
func (s *Subscriber) close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}
