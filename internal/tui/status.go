package tui

import (
	"fmt"
	"strings"

	"github.com/pders01/daybook/internal/listing"
)

// Canonical short status messages used across the app.
const (
	MsgLoading      = "Loading…"
	MsgRefreshing   = "Refreshing…"
	MsgLoadingMore  = "Loading more…"
	MsgOpeningDay   = "Opening day…"
	MsgNoResults    = "No results"
	MsgNoAttachment = "No attachment on this day"
	MsgAllLoaded    = "Everything is loaded"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgOpened(ref string) string {
	return "Opened " + truncateMiddle(strings.TrimSpace(ref), 48)
}

func MsgTermTooShort(n int) string {
	if n == 1 {
		return "Type a word to search"
	}
	return fmt.Sprintf("Type at least %d characters", n)
}

// listSummary renders "loaded/total" plus the list state for the status bar.
func listSummary(name string, loaded, total int, terminal listing.Terminal, state listing.State) string {
	parts := []string{name, fmt.Sprintf("%d/%d", loaded, total)}
	switch {
	case state == listing.StateLoading:
		parts = append(parts, "loading")
	case terminal == listing.TerminalProgress:
		parts = append(parts, "more below")
	case terminal == listing.TerminalNoMoreResults:
		parts = append(parts, "end")
	}
	return strings.Join(parts, " · ")
}

// statusLine is the transient message under the list. Repeats of the same
// error are folded into one line with a counter.
type statusLine struct {
	text    string
	kind    StatusKind
	repeats int
}

func (s *statusLine) set(text string, kind StatusKind) {
	if kind == StatusError && s.kind == StatusError && s.text == text {
		s.repeats++
		return
	}
	s.text = text
	s.kind = kind
	s.repeats = 0
}

func (s *statusLine) clear() {
	*s = statusLine{}
}

func (s statusLine) String() string {
	if s.text == "" {
		return ""
	}
	text := s.text
	if s.kind == StatusError {
		text = "✗ " + text
	}
	if s.repeats > 0 {
		text = fmt.Sprintf("%s (×%d)", text, s.repeats+1)
	}
	return s.kind.style().Render(text)
}
