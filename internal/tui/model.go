// Package tui renders the interactive console: a scrollback viewport fed
// by the connection manager and an input line for server commands.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wardenhq/warden/internal/client"
)

// maxScrollback bounds how many console lines the view retains
const maxScrollback = 2000

// Model is the bubbletea model for the console view
type Model struct {
	manager *client.Manager

	viewport  viewport.Model
	textInput textinput.Model

	lines     []string
	connState client.ConnState
	lastErr   error

	msgSubID   uint64
	stateSubID uint64
	msgCh      <-chan string
	stateCh    <-chan client.ConnState

	width  int
	height int
	ready  bool
}

// NewModel creates a console model bound to the shared connection manager
func NewModel(manager *client.Manager) Model {
	ti := textinput.New()
	ti.Placeholder = "type a server command and press enter"
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Focus()

	m := Model{
		manager:   manager,
		textInput: ti,
		connState: manager.State(),
	}
	m.msgSubID, m.msgCh = manager.SubscribeMessages()
	m.stateSubID, m.stateCh = manager.SubscribeState()
	return m
}

// Init starts the channel pumps and the initial connect
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		connectCmd(m.manager),
		waitForLine(m.msgCh),
		waitForState(m.stateCh),
	)
}

// ConsoleLineMsg carries one received console frame
type ConsoleLineMsg string

// ConnStateMsg carries a connection state change
type ConnStateMsg client.ConnState

// channelClosedMsg signals that a subscription channel closed
type channelClosedMsg struct{}

// sendResultMsg reports the outcome of a command send
type sendResultMsg struct{ err error }

// connectResultMsg reports the outcome of the initial connect
type connectResultMsg struct{ err error }

func connectCmd(manager *client.Manager) tea.Cmd {
	return func() tea.Msg {
		return connectResultMsg{err: manager.Connect()}
	}
}

// waitForLine blocks on the message channel and re-arms after each frame
func waitForLine(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		line, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return ConsoleLineMsg(line)
	}
}

func waitForState(ch <-chan client.ConnState) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return ConnStateMsg(st)
	}
}

// sendCmd sends one command. A dead link gets exactly one reconnect and
// resend before the failure surfaces.
func sendCmd(manager *client.Manager, text string) tea.Cmd {
	return func() tea.Msg {
		err := manager.Send(text)
		if err == nil {
			return sendResultMsg{}
		}
		if cerr := manager.Connect(); cerr != nil {
			return sendResultMsg{err: cerr}
		}
		return sendResultMsg{err: manager.Send(text)}
	}
}
