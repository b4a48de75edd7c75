package console

import (
	"sync"

	"github.com/wardenhq/warden/internal/domain"
)

// Backlog is a fixed-size circular buffer of recent console lines. It lets
// a newly connected viewer see what happened just before they joined
// instead of an empty console.
type Backlog struct {
	mu       sync.RWMutex
	lines    []domain.ConsoleLine
	head     int // next write position
	count    int // current number of lines
	capacity int // max lines
}

// NewBacklog creates a backlog with the given capacity
func NewBacklog(capacity int) *Backlog {
	if capacity <= 0 {
		capacity = 100
	}
	return &Backlog{
		lines:    make([]domain.ConsoleLine, capacity),
		capacity: capacity,
	}
}

// Append adds a line, evicting the oldest when full
func (b *Backlog) Append(line domain.ConsoleLine) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lines[b.head] = line
	b.head = (b.head + 1) % b.capacity

	if b.count < b.capacity {
		b.count++
	}
}

// Lines returns all retained lines, oldest first
func (b *Backlog) Lines() []domain.ConsoleLine {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.count == 0 {
		return nil
	}

	result := make([]domain.ConsoleLine, b.count)

	start := 0
	if b.count == b.capacity {
		start = b.head // oldest line is at head when full
	}

	for i := 0; i < b.count; i++ {
		result[i] = b.lines[(start+i)%b.capacity]
	}

	return result
}

// Count returns the current number of retained lines
func (b *Backlog) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Capacity returns the maximum number of retained lines
func (b *Backlog) Capacity() int {
	return b.capacity
}

// Clear removes all retained lines
func (b *Backlog) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head = 0
	b.count = 0
}
