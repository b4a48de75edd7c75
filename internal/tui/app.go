package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wardenhq/warden/internal/client"
)

// Run attaches an interactive console to the given connection manager and
// blocks until the user quits. The manager itself stays alive; only this
// view's subscriptions are released.
func Run(manager *client.Manager) error {
	m := NewModel(manager)
	defer func() {
		manager.UnsubscribeMessages(m.msgSubID)
		manager.UnsubscribeState(m.stateSubID)
	}()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
