package ui

import "github.com/charmbracelet/lipgloss"

// This file centralizes the lipgloss styles used by command output.

var (
	brandColor = lipgloss.Color("#7D56F4")

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF")).
			Background(brandColor).
			Bold(true).
			Padding(0, 1)

	headerCellStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	// Comparison status
	regressedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)
	improvedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")). // Green
			Bold(true)
	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))
)
