package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/daybook/internal/search"
)

// renderHeader stacks a title over an optional muted subtitle, both cut to width.
func renderHeader(title, subtitle string, width int) string {
	rows := []string{TitleStyle.Render(truncateEnd(title, width-2))}
	if subtitle != "" {
		rows = append(rows, renderMuted(truncateEnd(subtitle, width-2)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderInputFrame boxes the search input; the border lights up while it has focus.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	frame := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(MutedColor).
		Padding(0, 1).
		Width(contentWidth + 4)
	if focused {
		frame = frame.BorderForeground(AccentColor)
	}
	return frame.Render(inputView)
}

func renderCentered(width, height int, content string) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

func renderMuted(text string) string {
	return TimeStyle.Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// RenderHighlighted styles the matched runs of h with HighlightStyle and the
// rest with base.
func RenderHighlighted(h search.Highlighted, base lipgloss.Style) string {
	var b strings.Builder
	for _, seg := range h.Segments() {
		if seg.Match {
			b.WriteString(HighlightStyle.Render(seg.Text))
		} else {
			b.WriteString(base.Render(seg.Text))
		}
	}
	return b.String()
}

func renderSeparator(width int) string {
	return SeparatorStyle.Render(strings.Repeat("─", max(width, 1)))
}
