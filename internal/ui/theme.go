package ui

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles of the watch view.
type Theme struct {
	Title  lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Next   lipgloss.Style
	Passed lipgloss.Style
	Border lipgloss.Style
	Hint   lipgloss.Style
}

// DefaultTheme is the theme used by NewModel.
var DefaultTheme = Theme{
	Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
	Label:  lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#89B4FA")),
	Value:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F2CDCD")),
	Next:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
	Passed: lipgloss.NewStyle().Faint(true),
	Border: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 2),
	Hint:   lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#CBA6F7")),
}
