package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/daybook/internal/config"
	"github.com/pders01/daybook/internal/debuglog"
	"github.com/pders01/daybook/internal/listing"
	"github.com/pders01/daybook/internal/media"
	"github.com/pders01/daybook/internal/storage"
)

// loadAheadRows is how close to the end of a list the cursor may get before
// the next page is requested.
const loadAheadRows = 3

// eventBuffer sizes the list event channels.
const eventBuffer = 8

// DayReader fetches a full record for the reader view.
type DayReader interface {
	Get(ctx context.Context, date string) (*storage.Record, error)
}

// Opener starts an external program for an attachment.
type Opener interface {
	Open(ref string) error
}

type App struct {
	config       *config.Config
	store        DayReader
	engine       *listing.Engine
	diary        *listing.Controller[listing.DayItem]
	search       *listing.Controller[listing.SearchDayItem]
	diaryEvents  *listing.ChanConsumer[listing.DayItem]
	searchEvents *listing.ChanConsumer[listing.SearchDayItem]
	launcher     Opener
	keyHandler   *KeyHandler

	diaryList   list.Model
	searchList  list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	help        help.Model
	spinner     spinner.Model

	view           View
	previousView   View
	cameFromSearch bool
	current        *storage.Record
	loadingDay     bool
	status         statusLine
	width          int
	height         int

	searchTerm         string
	pendingSearchQuery string
	searchSeq          int
	searchDebounce     time.Duration

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

// NewApp wires the diary and search lists over source. Full records for
// the reader come from store.
func NewApp(store DayReader, source listing.RecordStore, cfg *config.Config) *App {
	ApplyTheme(cfg.UI.Colors)

	diaryEvents := listing.NewChanConsumer[listing.DayItem](eventBuffer)
	searchEvents := listing.NewChanConsumer[listing.SearchDayItem](eventBuffer)

	diary := listing.NewDiaryController(listing.ListDiary, source, diaryEvents, cfg.List.PageSize)
	search := listing.NewSearchController(listing.ListSearch, source, searchEvents, cfg.List.PageSize)

	engine := listing.NewEngine()
	for _, l := range []listing.List{diary, search} {
		if err := engine.Register(l); err != nil {
			debuglog.Errorf("register list %s: %v", l.ID(), err)
		}
	}

	si := textinput.New()
	si.Placeholder = "Search your days..."
	si.Prompt = "/ "

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	app := &App{
		config:         cfg,
		store:          store,
		engine:         engine,
		diary:          diary,
		search:         search,
		diaryEvents:    diaryEvents,
		searchEvents:   searchEvents,
		diaryList:      newRowList("› diary", cfg.UI.DateFormat),
		searchList:     newRowList("› search results", cfg.UI.DateFormat),
		searchInput:    si,
		viewport:       viewport.New(0, 0),
		help:           help.New(),
		spinner:        sp,
		view:           ViewDiary,
		previousView:   ViewDiary,
		searchDebounce: 200 * time.Millisecond,
	}

	if l, err := media.NewLauncher(&cfg.Media); err != nil {
		debuglog.Warnf("attachments disabled: %v", err)
	} else {
		app.launcher = l
	}

	app.keyHandler = NewKeyHandler(app, cfg)
	return app
}

// Close stops every list. Pending deliveries are drained so no load stays
// blocked on a channel nobody reads anymore.
func (a *App) Close() {
	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-a.diaryEvents.Events():
			case <-a.searchEvents.Events():
			case <-stop:
				return
			}
		}
	}()
	a.engine.Close()
	close(stop)
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	limit := a.config.UI.WordWrap
	if limit <= 0 {
		limit = 120
	}
	wordWrapWidth := (a.width * 9) / 10
	if wordWrapWidth > limit {
		wordWrapWidth = limit
	}
	if wordWrapWidth < 40 {
		wordWrapWidth = 40
	}
	if a.width < 50 {
		wordWrapWidth = max(a.width-4, 20)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.listenDiary(),
		a.listenSearch(),
		a.requestList(listing.ListDiary, listing.LoadNew),
		a.spinner.Tick,
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case diaryEventMsg:
		a.applyDiaryEvent(msg.event)
		return a, a.listenDiary()

	case searchEventMsg:
		a.applySearchEvent(msg.event)
		return a, a.listenSearch()

	case dayRenderedMsg:
		a.loadingDay = false
		a.current = msg.record
		a.status.clear()
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
		}
		return a, nil

	case attachmentOpenedMsg:
		a.status.set(MsgOpened(msg.ref), StatusSuccess)
		return a, nil

	case searchDebounceFireMsg:
		if msg.seq == a.searchSeq {
			a.runSearch(a.pendingSearchQuery)
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case errorMsg:
		a.loadingDay = false
		a.setError(msg.err)
		return a, nil
	}

	if a.view == ViewReader {
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	bodyHeight := max(height-3, 1)
	a.diaryList.SetSize(width, bodyHeight)
	a.searchList.SetSize(width, max(height-8, 5))
	a.viewport.Width = width
	a.viewport.Height = bodyHeight
	a.help.Width = width
	a.searchInput.Width = max(width-8, 10)
}

func (a *App) applyDiaryEvent(ev listing.Event[listing.DayItem]) {
	if ev.Err != nil {
		a.setError(ev.Err)
		return
	}
	a.diaryList.SetItems(diaryRows(ev.Result))
	settleCursor(&a.diaryList, true)
	if ev.Result.Empty() {
		a.status.clear()
	}
}

func (a *App) applySearchEvent(ev listing.Event[listing.SearchDayItem]) {
	if ev.Err != nil {
		a.setError(ev.Err)
		return
	}
	a.searchList.SetItems(searchRows(ev.Result))
	settleCursor(&a.searchList, true)
	if ev.Result.Total == 0 {
		a.status.set(MsgNoResults, StatusInfo)
	} else {
		a.status.set(MsgResultsCount(ev.Result.Total), StatusInfo)
	}
}

func (a *App) setError(err error) {
	if err == nil {
		return
	}
	text, kind := describeError(err)
	a.status.set(text, kind)
}

// runSearch starts a fresh search list for term.
func (a *App) runSearch(term string) {
	n := a.config.List.SearchMinLength
	if len([]rune(term)) < max(n, 1) {
		a.searchTerm = ""
		a.searchList.SetItems(nil)
		a.status.set(MsgTermTooShort(max(n, 1)), StatusInfo)
		return
	}
	if term == a.searchTerm && len(a.searchList.Items()) > 0 {
		return
	}
	a.searchTerm = term
	a.searchList.SetItems(nil)
	a.searchList.ResetSelected()
	if err := a.engine.SetQuery(listing.ListSearch, storage.Query{Term: term}); err != nil {
		a.setError(err)
		return
	}
	if err := a.engine.Request(listing.ListSearch, listing.LoadNew); err != nil {
		a.setError(err)
	}
}

// loadMore appends the next page when the list has one and is idle. A list
// whose last NEW has not published yet has nothing to extend.
func (a *App) loadMore(id listing.ListID, terminal listing.Terminal) {
	if terminal != listing.TerminalProgress || !a.engine.CanLoadMore(id) {
		return
	}
	err := a.engine.Request(id, listing.LoadAdd)
	if err != nil && !errors.Is(err, listing.ErrNothingLoaded) {
		a.setError(err)
	}
}

func nearEnd(l list.Model) bool {
	return len(l.Items())-l.Index() <= loadAheadRows
}

func (a *App) View() string {
	var content string
	bodyHeight := max(a.height-3, 1)

	switch a.view {
	case ViewDiary:
		if len(a.diaryList.Items()) == 0 && a.diary.State() == listing.StateIdle && a.diary.LastError() == nil {
			content = renderCentered(a.width, bodyHeight, GetWelcomeMessage())
		} else {
			content = a.diaryList.View()
		}

	case ViewSearch:
		helpText := "Type to search • Tab/↓: results • Esc: back"
		if !a.searchInput.Focused() {
			helpText = "↑↓: navigate • Enter: read • Tab: search box • Esc: back"
		}
		content = ContentWrapper(a.width, bodyHeight).Render(lipgloss.JoinVertical(
			lipgloss.Top,
			renderHeader("› search", "literal, case-sensitive", a.width),
			renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width),
			renderHelp(helpText),
			a.searchList.View(),
		))

	case ViewReader:
		if a.loadingDay {
			content = renderCentered(a.width, bodyHeight, renderMuted(a.spinner.View()+" "+MsgOpeningDay))
		} else {
			content = a.viewport.View()
		}
	}

	return lipgloss.JoinVertical(lipgloss.Top, content, renderSeparator(a.width), a.statusBar())
}

func (a *App) statusBar() string {
	var left string
	switch a.view {
	case ViewDiary:
		snap := a.diary.Snapshot()
		left = listSummary("diary", snap.Loaded(), snap.Total, snap.Terminal, a.diary.State())
		if a.diary.State() == listing.StateLoading {
			left = a.spinner.View() + " " + left
		}
	case ViewSearch:
		snap := a.search.Snapshot()
		left = listSummary("search", snap.Loaded(), snap.Total, snap.Terminal, a.search.State())
		if a.search.State() == listing.StateLoading {
			left = a.spinner.View() + " " + left
		}
	case ViewReader:
		if a.current != nil {
			left = a.current.Date
			if a.current.Attachment != "" {
				left += " · " + truncateMiddle(a.current.Attachment, 32)
			}
		}
	}

	parts := []string{left}
	if s := a.status.String(); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, a.help.View(a.keyHandler.helpKeys()))

	return StatusBarStyle.Width(a.width).Render(strings.Join(parts, "  "))
}
