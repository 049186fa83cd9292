package tui

import "github.com/charmbracelet/lipgloss/v2"

// Style definitions for the demo host.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("203")).
			MarginBottom(1)

	focusedPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("203")).
				Padding(0, 1)

	blurredPaneStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240")).
				Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	ruleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("209"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)
