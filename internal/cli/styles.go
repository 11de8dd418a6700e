package cli

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#1B2838")).
			Padding(0, 1)

	entryStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	missingIconStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFF00"))

	completedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#808080"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)
