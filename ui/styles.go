package ui

import "github.com/charmbracelet/lipgloss"

var (
	primary   = lipgloss.Color("63")  // blue
	secondary = lipgloss.Color("240") // gray
	accent    = lipgloss.Color("42")  // green
	danger    = lipgloss.Color("160") // red
	warning   = lipgloss.Color("214") // orange
	text      = lipgloss.Color("252")
	muted     = lipgloss.Color("245")
)

var (
	appStyle   = lipgloss.NewStyle().Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(primary).Padding(0, 1)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)

	// list
	selectedStyle   = lipgloss.NewStyle().Bold(true).Foreground(accent)
	normalStyle     = lipgloss.NewStyle().Foreground(text)
	platformStyle   = lipgloss.NewStyle().Foreground(secondary)
	cmdPreviewStyle = lipgloss.NewStyle().Foreground(muted).Italic(true)

	// output pane
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary)
	outputTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(secondary)

	// form
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)
	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(secondary).
			Padding(0, 1)
	focusedInputStyle = inputStyle.BorderForeground(primary)

	helpStyle    = lipgloss.NewStyle().Foreground(muted)
	helpKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(primary)

	successStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(warning)
	errorStyle   = lipgloss.NewStyle().Foreground(danger)
)
