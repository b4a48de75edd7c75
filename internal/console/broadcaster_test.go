package console

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/domain"
)

func drain(t *testing.T, sub *Subscriber, n int) []domain.ConsoleLine {
	t.Helper()
	out := make([]domain.ConsoleLine, 0, n)
	for i := 0; i < n; i++ {
		select {
		case line := <-sub.Lines():
			out = append(out, line)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for line %d of %d", i+1, n)
		}
	}
	return out
}

func TestBroadcaster_TwoSubscribersSameOrder(t *testing.T) {
	b := New(Config{BacklogSize: 10, QueueSize: 10})
	defer b.Close()

	s1 := b.Subscribe()
	s2 := b.Subscribe()

	b.Publish(domain.StreamStdout, "Line1")
	b.Publish(domain.StreamStdout, "Line2")

	for _, sub := range []*Subscriber{s1, s2} {
		lines := drain(t, sub, 2)
		assert.Equal(t, "Line1", lines[0].Text)
		assert.Equal(t, "Line2", lines[1].Text)
	}
}

func TestBroadcaster_SequenceNumbersMonotonic(t *testing.T) {
	b := New(Config{BacklogSize: 10, QueueSize: 10})
	defer b.Close()

	sub := b.Subscribe()
	for i := 0; i < 5; i++ {
		b.Publish(domain.StreamStdout, fmt.Sprintf("l%d", i))
	}

	lines := drain(t, sub, 5)
	for i := 1; i < len(lines); i++ {
		assert.Equal(t, lines[i-1].Seq+1, lines[i].Seq)
	}
}

func TestBroadcaster_BacklogReplayOldestFirst(t *testing.T) {
	b := New(Config{BacklogSize: 3, QueueSize: 10})
	defer b.Close()

	for i := 0; i < 5; i++ {
		b.Publish(domain.StreamStdout, fmt.Sprintf("l%d", i))
	}

	// Late joiner sees only the retained tail, oldest first, then live lines.
	sub := b.Subscribe()
	b.Publish(domain.StreamStdout, "l5")

	lines := drain(t, sub, 4)
	assert.Equal(t, []string{"l2", "l3", "l4", "l5"},
		[]string{lines[0].Text, lines[1].Text, lines[2].Text, lines[3].Text})
}

func TestBroadcaster_SlowConsumerDropsOwnOldest(t *testing.T) {
	b := New(Config{BacklogSize: 100, QueueSize: 2})
	defer b.Close()

	slow := b.Subscribe()

	// Nobody drains: the queue overflows and the oldest lines go first.
	b.Publish(domain.StreamStdout, "l0")
	b.Publish(domain.StreamStdout, "l1")
	b.Publish(domain.StreamStdout, "l2")
	b.Publish(domain.StreamStdout, "l3")

	lines := drain(t, slow, 2)
	assert.Equal(t, "l2", lines[0].Text)
	assert.Equal(t, "l3", lines[1].Text)
	assert.Equal(t, uint64(2), slow.Dropped())
}

func TestBroadcaster_SlowConsumerDoesNotAffectOthers(t *testing.T) {
	b := New(Config{BacklogSize: 100, QueueSize: 2})
	defer b.Close()

	slow := b.Subscribe()

	var got []string
	var wg sync.WaitGroup
	fast := b.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		for line := range fast.Lines() {
			got = append(got, line.Text)
		}
	}()

	for i := 0; i < 20; i++ {
		b.Publish(domain.StreamStdout, fmt.Sprintf("l%d", i))
	}

	b.Unsubscribe(fast.ID())
	wg.Wait()

	// The draining subscriber saw everything in order despite the stalled one.
	require.Len(t, got, 20)
	for i, text := range got {
		assert.Equal(t, fmt.Sprintf("l%d", i), text)
	}
	assert.Greater(t, slow.Dropped(), uint64(0))
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	b := New(Config{BacklogSize: 10, QueueSize: 10})
	defer b.Close()

	sub := b.Subscribe()
	assert.Equal(t, 1, b.Subscribers())

	b.Unsubscribe(sub.ID())
	assert.Equal(t, 0, b.Subscribers())

	// Queue is closed after unsubscribe.
	_, open := <-sub.Lines()
	assert.False(t, open)

	// Unsubscribing twice is harmless.
	b.Unsubscribe(sub.ID())
}

func TestBroadcaster_ConcurrentPublishSubscribe(t *testing.T) {
	b := New(Config{BacklogSize: 50, QueueSize: 50})
	defer b.Close()

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			b.Publish(domain.StreamStdout, fmt.Sprintf("l%d", i))
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			sub := b.Subscribe()
			b.Unsubscribe(sub.ID())
		}
	}()

	wg.Wait()
	assert.Equal(t, 0, b.Subscribers())
}

func TestBroadcaster_OrderUnderConcurrentPublishers(t *testing.T) {
	b := New(Config{BacklogSize: 10, QueueSize: 1000})
	defer b.Close()

	s1 := b.Subscribe()
	s2 := b.Subscribe()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				b.Publish(domain.StreamStdout, fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()

	l1 := drain(t, s1, 200)
	l2 := drain(t, s2, 200)

	// Identical relative order for subscribers that never lag.
	for i := range l1 {
		assert.Equal(t, l1[i].Seq, l2[i].Seq)
		assert.Equal(t, l1[i].Text, l2[i].Text)
	}
}
