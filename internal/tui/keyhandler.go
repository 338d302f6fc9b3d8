package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/daybook/internal/config"
	"github.com/pders01/daybook/internal/listing"
)

// maxSearchInput caps the term sent to the store.
const maxSearchInput = 256

type keyMap struct {
	Quit     key.Binding
	Search   key.Binding
	Refresh  key.Binding
	LoadMore key.Binding
	Open     key.Binding
	Attach   key.Binding
	Back     key.Binding
	Help     key.Binding
}

func newKeyMap(cfg *config.Config) keyMap {
	b := cfg.Keys.Bindings
	mod := cfg.Keys.Modifier + "+"
	bind := func(desc string, keys ...string) key.Binding {
		var ks []string
		for _, k := range keys {
			if k != "" && k != mod {
				ks = append(ks, k)
			}
		}
		if len(ks) == 0 {
			return key.NewBinding(key.WithDisabled())
		}
		return key.NewBinding(key.WithKeys(ks...), key.WithHelp(ks[0], desc))
	}
	return keyMap{
		Quit:     bind("quit", b.Quit, "ctrl+c"),
		Search:   bind("search", b.Search, mod+"s"),
		Refresh:  bind("refresh", b.Refresh, mod+"r"),
		LoadMore: bind("more", b.LoadMore),
		Open:     bind("read", b.Open),
		Attach:   bind("attachment", b.Attach, mod+"o"),
		Back:     bind("back", b.Back),
		Help:     bind("help", b.Help),
	}
}

// viewKeys is the help.KeyMap for one view.
type viewKeys struct {
	short []key.Binding
	full  [][]key.Binding
}

func (v viewKeys) ShortHelp() []key.Binding  { return v.short }
func (v viewKeys) FullHelp() [][]key.Binding { return v.full }

type KeyHandler struct {
	app         *App
	config      *config.Config
	keys        keyMap
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{
		app:         app,
		config:      cfg,
		keys:        newKeyMap(cfg),
		modifierKey: cfg.Keys.Modifier + "+",
	}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewSearch && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "esc":
		return kh.navigateBack()
	case "enter":
		kh.app.searchSeq++
		kh.app.runSearch(kh.sanitizeSearchInput(kh.app.searchInput.Value()))
		return kh.app, nil
	case "tab", "down":
		if len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			settleCursor(&kh.app.searchList, true)
		}
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput feeds the search box and schedules a debounced search
// when the term changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := kh.sanitizeSearchInput(kh.app.searchInput.Value())
	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

	next := kh.sanitizeSearchInput(kh.app.searchInput.Value())
	if next == prev {
		return kh.app, cmd
	}
	kh.app.pendingSearchQuery = next
	kh.app.searchSeq++
	seq := kh.app.searchSeq
	tick := tea.Tick(kh.app.searchDebounce, func(time.Time) tea.Msg { return searchDebounceFireMsg{seq: seq} })
	return kh.app, tea.Batch(cmd, tick)
}

// handleCustomKeys handles only our own action keys.
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, kh.keys.Quit):
		return kh.app, tea.Quit, true
	case key.Matches(msg, kh.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Help):
		kh.app.help.ShowAll = !kh.app.help.ShowAll
		return kh.app, nil, true
	case key.Matches(msg, kh.keys.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewDiary:
		return kh.handleListKeys(msg, listing.ListDiary, &kh.app.diaryList, kh.app.diary.Snapshot().Terminal)
	case ViewSearch:
		if msg.String() == "tab" || msg.String() == "shift+tab" || msg.String() == "i" {
			kh.app.searchInput.Focus()
			return kh.app, nil, true
		}
		return kh.handleListKeys(msg, listing.ListSearch, &kh.app.searchList, kh.app.search.Snapshot().Terminal)
	case ViewReader:
		if key.Matches(msg, kh.keys.Attach) && kh.app.current != nil {
			return kh.app, kh.app.openAttachment(kh.app.current.Attachment), true
		}
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleListKeys(msg tea.KeyMsg, id listing.ListID, l *list.Model, terminal listing.Terminal) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, kh.keys.Refresh):
		kh.app.status.set(MsgRefreshing, StatusInfo)
		return kh.app, kh.app.requestList(id, listing.LoadRefresh), true
	case key.Matches(msg, kh.keys.LoadMore):
		if terminal != listing.TerminalProgress {
			kh.app.status.set(MsgAllLoaded, StatusInfo)
			return kh.app, nil, true
		}
		kh.app.loadMore(id, terminal)
		return kh.app, nil, true
	case key.Matches(msg, kh.keys.Open):
		model, cmd := kh.openSelected(l.SelectedItem(), id == listing.ListSearch)
		return model, cmd, true
	case key.Matches(msg, kh.keys.Attach):
		_, ref, ok := dateOf(l.SelectedItem())
		if !ok {
			return kh.app, nil, true
		}
		return kh.app, kh.app.openAttachment(ref), true
	}
	return kh.app, nil, false
}

// delegateToCharm lets the bubbles components handle navigation.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewDiary:
		cmd = kh.navigateList(msg, &kh.app.diaryList)
		if nearEnd(kh.app.diaryList) {
			kh.app.loadMore(listing.ListDiary, kh.app.diary.Snapshot().Terminal)
		}
		return kh.app, cmd

	case ViewSearch:
		if msg.String() == "up" && firstSelectable(kh.app.searchList) {
			kh.app.searchInput.Focus()
			return kh.app, nil
		}
		cmd = kh.navigateList(msg, &kh.app.searchList)
		if nearEnd(kh.app.searchList) {
			kh.app.loadMore(listing.ListSearch, kh.app.search.Snapshot().Terminal)
		}
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// navigateList moves the cursor and skips header rows in the direction of
// travel.
func (kh *KeyHandler) navigateList(msg tea.KeyMsg, l *list.Model) tea.Cmd {
	before := l.Index()
	updated, cmd := l.Update(msg)
	*l = updated
	settleCursor(l, l.Index() >= before)
	return cmd
}

func firstSelectable(l list.Model) bool {
	items := l.Items()
	for i := 0; i < l.Index() && i < len(items); i++ {
		if selectable(items[i]) {
			return false
		}
	}
	return true
}

func (kh *KeyHandler) openSelected(item list.Item, fromSearch bool) (tea.Model, tea.Cmd) {
	date, _, ok := dateOf(item)
	if !ok {
		return kh.app, nil
	}
	kh.app.cameFromSearch = fromSearch
	kh.app.previousView = kh.app.view
	kh.app.view = ViewReader
	kh.app.loadingDay = true
	kh.app.current = nil
	kh.app.status.set(MsgOpeningDay, StatusInfo)
	return kh.app, kh.app.openDay(date)
}

// navigateBack implements smart back navigation
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		kh.app.view = ViewDiary
		if kh.app.previousView == ViewReader && kh.app.current != nil {
			kh.app.view = ViewReader
		}
		kh.app.searchInput.Reset()
		kh.app.searchInput.Blur()
		kh.app.searchTerm = ""
		kh.app.searchSeq++
		kh.app.searchList.SetItems([]list.Item{})
		kh.app.status.clear()
		return kh.app, nil

	case ViewReader:
		kh.app.loadingDay = false
		kh.app.status.clear()
		if kh.app.cameFromSearch {
			kh.app.view = ViewSearch
			kh.app.cameFromSearch = false
			kh.app.searchInput.Blur()
			return kh.app, nil
		}
		kh.app.view = ViewDiary
		return kh.app, nil

	default:
		return kh.app, tea.Quit
	}
}

// enterSearchMode switches to the search view, or back into its input box
// when already there.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.view != ViewSearch {
		kh.app.previousView = kh.app.view
		kh.app.view = ViewSearch
		kh.app.status.clear()
	}
	return kh.app, kh.app.searchInput.Focus()
}

// sanitizeSearchInput trims, flattens whitespace and limits the term length.
// Case and punctuation are kept: matching is literal.
func (kh *KeyHandler) sanitizeSearchInput(input string) string {
	input = strings.TrimSpace(input)
	if r := []rune(input); len(r) > maxSearchInput {
		input = string(r[:maxSearchInput])
	}
	input = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(input)
	for strings.Contains(input, "  ") {
		input = strings.ReplaceAll(input, "  ", " ")
	}
	return strings.TrimSpace(input)
}

// helpKeys returns the bindings shown in the status bar for the current view.
func (kh *KeyHandler) helpKeys() help.KeyMap {
	k := kh.keys
	switch kh.app.view {
	case ViewSearch:
		return viewKeys{
			short: []key.Binding{k.Open, k.Attach, k.Back},
			full:  [][]key.Binding{{k.Open, k.Attach, k.LoadMore}, {k.Refresh, k.Back, k.Quit}},
		}
	case ViewReader:
		return viewKeys{
			short: []key.Binding{k.Attach, k.Back},
			full:  [][]key.Binding{{k.Attach, k.Search}, {k.Back, k.Quit}},
		}
	default:
		return viewKeys{
			short: []key.Binding{k.Open, k.Search, k.Help},
			full: [][]key.Binding{
				{k.Open, k.Attach, k.Search},
				{k.Refresh, k.LoadMore},
				{k.Help, k.Quit},
			},
		}
	}
}
