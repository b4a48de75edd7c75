package tui

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	connectedColor    = lipgloss.Color("10") // Green
	connectingColor   = lipgloss.Color("11") // Yellow
	disconnectedColor = lipgloss.Color("9")  // Red

	statusBg   = lipgloss.Color("236")
	errorColor = lipgloss.Color("9")
	dimColor   = lipgloss.Color("8")
)

// Styles
var (
	connectedStyle = lipgloss.NewStyle().
			Foreground(connectedColor).
			Bold(true)

	connectingStyle = lipgloss.NewStyle().
			Foreground(connectingColor)

	disconnectedStyle = lipgloss.NewStyle().
				Foreground(disconnectedColor).
				Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(statusBg).
			Padding(0, 1)

	errorLineStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	noticeLineStyle = lipgloss.NewStyle().
			Foreground(dimColor)
)
