package console

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wardenhq/warden/internal/domain"
)

func makeLine(text string) domain.ConsoleLine {
	return domain.ConsoleLine{Stream: domain.StreamStdout, Text: text}
}

func TestBacklog_AppendAndLines(t *testing.T) {
	b := NewBacklog(5)
	assert.Nil(t, b.Lines())
	assert.Equal(t, 0, b.Count())

	b.Append(makeLine("a"))
	b.Append(makeLine("b"))

	lines := b.Lines()
	assert.Len(t, lines, 2)
	assert.Equal(t, "a", lines[0].Text)
	assert.Equal(t, "b", lines[1].Text)
}

func TestBacklog_Eviction(t *testing.T) {
	b := NewBacklog(3)
	for i := 0; i < 5; i++ {
		b.Append(makeLine(fmt.Sprintf("line%d", i)))
	}

	lines := b.Lines()
	assert.Len(t, lines, 3)
	assert.Equal(t, "line2", lines[0].Text)
	assert.Equal(t, "line3", lines[1].Text)
	assert.Equal(t, "line4", lines[2].Text)
	assert.Equal(t, 3, b.Count())
	assert.Equal(t, 3, b.Capacity())
}

func TestBacklog_Clear(t *testing.T) {
	b := NewBacklog(3)
	b.Append(makeLine("a"))
	b.Clear()
	assert.Equal(t, 0, b.Count())
	assert.Nil(t, b.Lines())
}

func TestBacklog_ZeroCapacity(t *testing.T) {
	b := NewBacklog(0)
	assert.Equal(t, 100, b.Capacity())
}
