package logging

import "github.com/charmbracelet/lipgloss"

// Reason-tag and footer styles, grounded on cmd/tcpo/model.go's
// package-level lipgloss.NewStyle() vars (styleOK/styleErr).
var (
	styleForced  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	styleMissing = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	styleChanged = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleOK      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// styleTag recolors a "[FMC]"-shaped reason tag letter by letter so a
// glance at the block shows which clauses of invariant 10 fired.
func styleTag(tag string) string {
	if len(tag) != 5 { // "[" + 3 letters + "]"
		return tag
	}
	letter := func(c byte, style lipgloss.Style) string {
		if c == '-' {
			return styleDim.Render("-")
		}
		return style.Render(string(c))
	}
	return "[" + letter(tag[1], styleForced) + letter(tag[2], styleMissing) + letter(tag[3], styleChanged) + "]"
}
