package listing

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pders01/daybook/internal/storage"
)

// ListID names an independently scrollable list.
type ListID string

const (
	ListDiary  ListID = "diary"
	ListSearch ListID = "search"
)

// List is the type-erased side of a Controller.
type List interface {
	ID() ListID
	Request(kind LoadKind) error
	CanLoadMore() bool
	State() State
	SetQuery(q storage.Query)
	Query() storage.Query
	LastError() error
	Wait(ctx context.Context) error
	Close()
}

var (
	_ List = (*Controller[DayItem])(nil)
	_ List = (*Controller[SearchDayItem])(nil)
)

// Engine routes requests to registered lists by id. Lists load
// independently of each other.
type Engine struct {
	mu    sync.RWMutex
	lists map[ListID]List
}

func NewEngine() *Engine {
	return &Engine{lists: make(map[ListID]List)}
}

// Register adds a list under its own id.
func (e *Engine) Register(l List) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.lists[l.ID()]; ok {
		return fmt.Errorf("%s: %w", l.ID(), ErrDuplicateList)
	}
	e.lists[l.ID()] = l
	return nil
}

func (e *Engine) List(id ListID) (List, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	l, ok := e.lists[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrUnknownList)
	}
	return l, nil
}

// IDs returns the registered list ids in sorted order.
func (e *Engine) IDs() []ListID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]ListID, 0, len(e.lists))
	for id := range e.lists {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Request fires a load on the list and returns immediately.
func (e *Engine) Request(id ListID, kind LoadKind) error {
	l, err := e.List(id)
	if err != nil {
		return err
	}
	return l.Request(kind)
}

// CanLoadMore is false for unknown lists and lists with a load in flight.
func (e *Engine) CanLoadMore(id ListID) bool {
	l, err := e.List(id)
	if err != nil {
		return false
	}
	return l.CanLoadMore()
}

func (e *Engine) SetQuery(id ListID, q storage.Query) error {
	l, err := e.List(id)
	if err != nil {
		return err
	}
	l.SetQuery(q)
	return nil
}

// Wait blocks until the list is idle.
func (e *Engine) Wait(ctx context.Context, id ListID) error {
	l, err := e.List(id)
	if err != nil {
		return err
	}
	return l.Wait(ctx)
}

// Close closes every list.
func (e *Engine) Close() {
	e.mu.Lock()
	lists := e.lists
	e.lists = make(map[ListID]List)
	e.mu.Unlock()
	for _, l := range lists {
		l.Close()
	}
}
