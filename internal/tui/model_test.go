package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/client"
)

func newReadyModel(t *testing.T) Model {
	t.Helper()
	manager := client.GetInstance()
	t.Cleanup(manager.Reset)

	m := NewModel(manager)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func TestModel_NotReadyBeforeSize(t *testing.T) {
	manager := client.GetInstance()
	t.Cleanup(manager.Reset)

	m := NewModel(manager)
	assert.Equal(t, "Connecting...", m.View())
}

func TestModel_AppendsConsoleLines(t *testing.T) {
	m := newReadyModel(t)

	updated, cmd := m.Update(ConsoleLineMsg("Line1"))
	m = updated.(Model)
	require.NotNil(t, cmd) // channel pump re-armed

	updated, _ = m.Update(ConsoleLineMsg("Line2"))
	m = updated.(Model)

	view := m.View()
	assert.Contains(t, view, "Line1")
	assert.Contains(t, view, "Line2")
}

func TestModel_ScrollbackBounded(t *testing.T) {
	m := newReadyModel(t)

	for i := 0; i < maxScrollback+50; i++ {
		updated, _ := m.Update(ConsoleLineMsg("spam"))
		m = updated.(Model)
	}

	assert.Len(t, m.lines, maxScrollback)
}

func TestModel_ConnStateShownInStatusBar(t *testing.T) {
	m := newReadyModel(t)

	updated, _ := m.Update(ConnStateMsg(client.StateDisconnected))
	m = updated.(Model)

	assert.Contains(t, m.View(), "disconnected")
}

func TestModel_QuitKeys(t *testing.T) {
	m := newReadyModel(t)

	for _, key := range []string{"ctrl+c", "esc"} {
		_, cmd := m.Update(keyMsg(key))
		require.NotNil(t, cmd, key)
		assert.Equal(t, tea.Quit(), cmd())
	}
}

func TestModel_EnterIgnoresEmptyInput(t *testing.T) {
	m := newReadyModel(t)

	_, cmd := m.Update(keyMsg("enter"))
	assert.Nil(t, cmd)
}

func TestRenderLine(t *testing.T) {
	// Styled output still carries the raw text
	assert.Contains(t, renderLine("ERROR: boom"), "boom")
	assert.Contains(t, renderLine("--- connected ---"), "connected")
	assert.Equal(t, "plain line", renderLine("plain line"))
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(strings.ToLower(key))}
	}
}
