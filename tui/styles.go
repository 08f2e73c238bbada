package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorBg     = lipgloss.Color("#2E3440")
	colorPanel  = lipgloss.Color("#434C5E")
	colorText   = lipgloss.Color("#D8DEE9")
	colorAccent = lipgloss.Color("#88C0D0")
	colorFocus  = lipgloss.Color("#EBCB8B")
	colorOn     = lipgloss.Color("#A3BE8C")
	colorOff    = lipgloss.Color("#BF616A")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle  = lipgloss.NewStyle().Foreground(colorText)
	focusStyle  = lipgloss.NewStyle().Foreground(colorFocus)
	helpStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(colorOff)
	headerStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(colorText).Background(colorPanel)

	connectedBadge    = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorBg).Background(colorOn)
	disconnectedBadge = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(colorBg).Background(colorOff)
	confirmStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(colorBg).Background(colorFocus)
)
