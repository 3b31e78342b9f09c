package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	countStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n\n")

	if m.state.IsLoading {
		b.WriteString("Loading...\n")
	}
	if m.state.Failed() {
		b.WriteString(errorStyle.Render("Error: " + m.state.Error))
		b.WriteString("\n")
	}
	if count, ok := m.state.Count(); ok {
		fmt.Fprintf(&b, "API count: %s\n", countStyle.Render(fmt.Sprint(count)))
	}
	b.WriteString("\n")

	increment := "[i] increment"
	if m.state.IsIncrementing {
		increment = "incrementing..."
	}
	refresh := "[r] refresh"
	if m.state.Busy() {
		increment = disabledStyle.Render(increment)
		refresh = disabledStyle.Render(refresh)
	}
	b.WriteString(increment + "  " + refresh + "\n\n")

	b.WriteString(titleStyle.Render("Local count"))
	fmt.Fprintf(&b, "\n[l] local count is %d\n\n", m.local)

	b.WriteString(helpStyle.Render("q to quit"))
	b.WriteString("\n")

	return b.String()
}
