package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wardenhq/warden/internal/client"
)

// View renders the console
func (m Model) View() string {
	if !m.ready {
		return "Connecting..."
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(m.textInput.View())
	return b.String()
}

// statusBar renders the connection state and any pending error
func (m Model) statusBar() string {
	state := connStateStyle(m.connState).Render(string(m.connState))
	bar := fmt.Sprintf("console %s", state)
	if m.lastErr != nil {
		bar += "  " + errorLineStyle.Render(m.lastErr.Error())
	}
	return statusStyle.Width(m.width).Render(bar)
}

// renderLine styles one console line: error frames red, notices dim
func renderLine(line string) string {
	switch {
	case strings.HasPrefix(line, "ERROR: "):
		return errorLineStyle.Render(line)
	case strings.HasPrefix(line, "---") || strings.HasPrefix(line, "Command received:"):
		return noticeLineStyle.Render(line)
	default:
		return line
	}
}

// connStateStyle maps a connection state to its style
func connStateStyle(st client.ConnState) lipgloss.Style {
	switch st {
	case client.StateConnected:
		return connectedStyle
	case client.StateConnecting:
		return connectingStyle
	default:
		return disconnectedStyle
	}
}
