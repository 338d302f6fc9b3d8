package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/pders01/daybook/internal/archive"
	"github.com/pders01/daybook/internal/listing"
	"github.com/pders01/daybook/internal/media"
)

// readTimeout bounds a single reader lookup.
const readTimeout = 5 * time.Second

// listenDiary waits for the next diary delivery. Update re-arms it after
// every event so exactly one listener is outstanding.
func (a *App) listenDiary() tea.Cmd {
	events := a.diaryEvents.Events()
	return func() tea.Msg {
		return diaryEventMsg{event: <-events}
	}
}

func (a *App) listenSearch() tea.Cmd {
	events := a.searchEvents.Events()
	return func() tea.Msg {
		return searchEventMsg{event: <-events}
	}
}

func (a *App) requestList(id listing.ListID, kind listing.LoadKind) tea.Cmd {
	engine := a.engine
	return func() tea.Msg {
		if err := engine.Request(id, kind); err != nil {
			return errorMsg{err: wrapErr(fmt.Sprintf("%s %s", kind, id), err)}
		}
		return nil
	}
}

// openDay fetches the full record and renders it for the reader.
func (a *App) openDay(date string) tea.Cmd {
	r, rerr := a.getRenderer()
	store := a.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), readTimeout)
		defer cancel()

		rec, err := store.Get(ctx, date)
		if err != nil {
			return errorMsg{err: wrapErr("open "+date, err)}
		}
		md := archive.Markdown(rec)
		if rerr != nil {
			return dayRenderedMsg{record: rec, content: md}
		}
		return dayRenderedMsg{record: rec, content: render(r, md)}
	}
}

func render(r *glamour.TermRenderer, md string) string {
	out, err := r.Render(md)
	if err != nil {
		return fmt.Sprintf("# Error\n\nFailed to render day: %s\n\nPress Escape to go back.", err)
	}
	return out
}

func (a *App) openAttachment(ref string) tea.Cmd {
	launcher := a.launcher
	return func() tea.Msg {
		if ref == "" {
			return errorMsg{err: media.ErrNoAttachment}
		}
		if launcher == nil {
			return errorMsg{err: errors.New("no attachment launcher available")}
		}
		if err := launcher.Open(ref); err != nil {
			return errorMsg{err: wrapErr("open "+truncateMiddle(ref, 40), err)}
		}
		return attachmentOpenedMsg{ref: ref}
	}
}
