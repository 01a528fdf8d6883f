package ui

import "github.com/charmbracelet/lipgloss"

var (
	dimStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	accentStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	promptStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	titleStyle          = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userLabelStyle      = lipgloss.NewStyle().Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	bodyStyle           = lipgloss.NewStyle()
)
