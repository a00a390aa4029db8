package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/mfgdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Status is what the bottom bar reports about the loaded feed.
type Status struct {
	Source    string
	Months    int
	LoadTime  string
	Reloading bool
	// Message is a transient notice such as "exported forecast.xlsx".
	Message string
	IsError bool
}

// RenderStatusBar renders the bottom status bar.
func RenderStatusBar(width int, st Status) string {
	t := theme.Active

	base := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	left := base.Render(" ") + keyStyle.Render("?") + base.Render(" help  ") +
		keyStyle.Render("q") + base.Render(" quit")

	if st.Message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(t.Up).Background(t.Surface)
		if st.IsError {
			msgStyle = msgStyle.Foreground(t.Down)
		}
		left += base.Render("  ") + msgStyle.Render(st.Message)
	}

	var right string
	switch {
	case st.Reloading:
		right = "reloading… "
	case st.Source != "":
		right = fmt.Sprintf("%s · %d months · %s ", st.Source, st.Months, st.LoadTime)
	}

	padding := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + base.Render(strings.Repeat(" ", padding)+right)
}
