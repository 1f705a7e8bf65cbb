package cli

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	numberStyle = lipgloss.NewStyle().Width(4).Align(lipgloss.Right)
)

func checkbox(done bool) string {
	if done {
		return okStyle.Render("[x]")
	}
	return "[ ]"
}
