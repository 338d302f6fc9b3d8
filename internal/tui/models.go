package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/daybook/internal/listing"
	"github.com/pders01/daybook/internal/storage"
)

type View int

const (
	ViewDiary View = iota
	ViewSearch
	ViewReader
)

func (v View) String() string {
	switch v {
	case ViewSearch:
		return "search"
	case ViewReader:
		return "reader"
	default:
		return "diary"
	}
}

// Rows of a month-bucketed list. Month headers and the terminal row are
// never selectable.

type monthRow struct {
	month listing.YearMonth
	count int
}

func (r monthRow) FilterValue() string { return r.month.String() }

type dayRow struct {
	day listing.DayItem
}

func (r dayRow) FilterValue() string { return r.day.Title }

type searchRow struct {
	hit listing.SearchDayItem
}

func (r searchRow) FilterValue() string { return r.hit.Title }

type terminalRow struct {
	terminal listing.Terminal
	loaded   int
	total    int
}

func (r terminalRow) FilterValue() string { return "" }

func selectable(it list.Item) bool {
	switch it.(type) {
	case dayRow, searchRow:
		return true
	default:
		return false
	}
}

// dateOf returns the storage key of a selectable row.
func dateOf(it list.Item) (string, string, bool) {
	switch r := it.(type) {
	case dayRow:
		return r.day.Date.Format(storage.DateLayout), r.day.Attachment, true
	case searchRow:
		return r.hit.Date.Format(storage.DateLayout), r.hit.Attachment, true
	default:
		return "", "", false
	}
}

// bucketRows flattens a result into a header row per month, the day rows
// and a trailing terminal row.
func bucketRows[T listing.Day](r listing.ResultList[T], row func(T) list.Item) []list.Item {
	items := make([]list.Item, 0, r.Loaded()+len(r.Buckets)+1)
	for _, b := range r.Buckets {
		items = append(items, monthRow{month: b.YearMonth, count: len(b.Items)})
		for _, it := range b.Items {
			items = append(items, row(it))
		}
	}
	if r.Terminal != listing.TerminalNone {
		items = append(items, terminalRow{terminal: r.Terminal, loaded: r.Loaded(), total: r.Total})
	}
	return items
}

func diaryRows(r listing.ResultList[listing.DayItem]) []list.Item {
	return bucketRows(r, func(d listing.DayItem) list.Item { return dayRow{day: d} })
}

func searchRows(r listing.ResultList[listing.SearchDayItem]) []list.Item {
	return bucketRows(r, func(d listing.SearchDayItem) list.Item { return searchRow{hit: d} })
}

// rowDelegate draws every row kind on a single line.
type rowDelegate struct {
	dateFormat string
}

func (d rowDelegate) Height() int                             { return 1 }
func (d rowDelegate) Spacing() int                            { return 0 }
func (d rowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	width := m.Width()
	selected := index == m.Index()

	var line string
	switch r := item.(type) {
	case monthRow:
		line = MonthStyle.Render(fmt.Sprintf("%s %d", r.month.Month, r.month.Year)) +
			TimeStyle.Render(fmt.Sprintf("  %d", r.count))
	case dayRow:
		line = d.dayLine(r.day, selected, func(base lipgloss.Style) string {
			return base.Render(r.day.Title)
		})
	case searchRow:
		line = d.dayLine(r.hit.DayItem, selected, func(base lipgloss.Style) string {
			return d.hitText(r.hit, base)
		})
	case terminalRow:
		line = d.terminalLine(r)
	}

	fmt.Fprint(w, lipgloss.NewStyle().MaxWidth(width).Render(line))
}

func (d rowDelegate) dayLine(day listing.DayItem, selected bool, text func(lipgloss.Style) string) string {
	cursor := "  "
	base := ItemStyle
	if selected {
		cursor = SelectedItemStyle.Render("› ")
		base = SelectedItemStyle
	}
	var b strings.Builder
	b.WriteString(cursor)
	b.WriteString(TimeStyle.Render(day.Date.Format(d.dateFormat)))
	b.WriteString("  ")
	b.WriteString(text(base))
	if day.HasAttachment() {
		b.WriteString(AttachmentStyle.Render("  ◆"))
	}
	return b.String()
}

// hitText shows the highlighted title, then the item that carried the match.
func (d rowDelegate) hitText(hit listing.SearchDayItem, base lipgloss.Style) string {
	var b strings.Builder
	b.WriteString(RenderHighlighted(hit.HighlightedTitle, base))
	if hit.FieldTitle.Text == "" && hit.FieldComment.Text == "" {
		return b.String()
	}
	b.WriteString(TimeStyle.Render(fmt.Sprintf("  #%d ", hit.ShownItem)))
	b.WriteString(RenderHighlighted(hit.FieldTitle, ItemStyle))
	if hit.FieldComment.Text != "" {
		b.WriteString(TimeStyle.Render(": "))
		b.WriteString(RenderHighlighted(hit.FieldComment, TimeStyle))
	}
	return b.String()
}

func (d rowDelegate) terminalLine(r terminalRow) string {
	switch r.terminal {
	case listing.TerminalProgress:
		return HelpStyle.Render(fmt.Sprintf("  %s %d of %d", MsgLoadingMore, r.loaded, r.total))
	case listing.TerminalNoMoreResults:
		return HelpStyle.Render("  · no more entries ·")
	default:
		return ""
	}
}

func newRowList(title, dateFormat string) list.Model {
	l := list.New([]list.Item{}, rowDelegate{dateFormat: dateFormat}, 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = TitleStyle
	return l
}

// settleCursor moves the selection off a non-selectable row in the given
// direction, falling back to the other direction at the ends.
func settleCursor(l *list.Model, down bool) {
	items := l.Items()
	if len(items) == 0 {
		return
	}
	idx := l.Index()
	if idx >= 0 && idx < len(items) && selectable(items[idx]) {
		return
	}
	step := 1
	if !down {
		step = -1
	}
	for _, s := range []int{step, -step} {
		for i := idx + s; i >= 0 && i < len(items); i += s {
			if selectable(items[i]) {
				l.Select(i)
				return
			}
		}
	}
}

// Messages.

type diaryEventMsg struct {
	event listing.Event[listing.DayItem]
}

type searchEventMsg struct {
	event listing.Event[listing.SearchDayItem]
}

type dayRenderedMsg struct {
	record  *storage.Record
	content string
}

type attachmentOpenedMsg struct {
	ref string
}

type searchDebounceFireMsg struct {
	seq int
}

type errorMsg struct {
	err error
}
