package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/wardenhq/warden/internal/client"
)

// nearBottomThreshold is the scroll position at which the viewport still
// auto-follows new lines
const nearBottomThreshold = 0.98

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		viewHeight := msg.Height - 3
		if viewHeight < 1 {
			viewHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, viewHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = viewHeight
		}
		m.textInput.Width = msg.Width - 4
		m.refreshViewport(true)

	case ConsoleLineMsg:
		m.appendLine(string(msg))
		cmds = append(cmds, waitForLine(m.msgCh))

	case ConnStateMsg:
		m.connState = client.ConnState(msg)
		cmds = append(cmds, waitForState(m.stateCh))

	case connectResultMsg:
		m.lastErr = msg.err

	case sendResultMsg:
		m.lastErr = msg.err

	case channelClosedMsg:
		return m, tea.Quit
	}

	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKey processes keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit

	case "enter":
		text := strings.TrimSpace(m.textInput.Value())
		if text == "" {
			return m, nil
		}
		m.textInput.Reset()
		m.lastErr = nil
		return m, sendCmd(m.manager, text)
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	m.textInput, cmd = m.textInput.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// appendLine adds one console line to the bounded scrollback
func (m *Model) appendLine(line string) {
	atBottom := m.viewport.ScrollPercent() >= nearBottomThreshold

	m.lines = append(m.lines, line)
	if len(m.lines) > maxScrollback {
		m.lines = m.lines[len(m.lines)-maxScrollback:]
	}
	m.refreshViewport(atBottom)
}

// refreshViewport re-renders the scrollback into the viewport
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}

	rendered := make([]string, len(m.lines))
	for i, line := range m.lines {
		rendered[i] = renderLine(line)
	}
	m.viewport.SetContent(strings.Join(rendered, "\n"))

	if follow {
		m.viewport.GotoBottom()
	}
}
