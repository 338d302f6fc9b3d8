package tui

import "github.com/charmbracelet/x/ansi"

const ellipsis = "…"

// truncateEnd fits s into limit terminal cells, ending with an ellipsis when
// anything was cut. Escape sequences do not count toward the width.
func truncateEnd(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	return ansi.Truncate(s, limit, ellipsis)
}

// truncateMiddle fits s into limit cells keeping both ends, so attachment
// paths still show their directory and extension.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	width := ansi.StringWidth(s)
	if width <= limit {
		return s
	}
	keep := limit - 1
	left := keep / 2
	right := keep - left
	return ansi.Truncate(s, left, "") + ellipsis + ansi.TruncateLeft(s, width-right, "")
}
