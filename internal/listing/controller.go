package listing

import (
	"context"
	"fmt"
	"sync"

	"github.com/pders01/daybook/internal/debuglog"
	"github.com/pders01/daybook/internal/storage"
)

// DefaultPageSize is used when a controller is built with a non-positive size.
const DefaultPageSize = 20

// LoadKind selects which window of the list a request fetches.
type LoadKind int

const (
	// LoadNew drops the current list and fetches the first page.
	LoadNew LoadKind = iota
	// LoadAdd fetches the page after the loaded items and appends it.
	LoadAdd
	// LoadRefresh refetches from the top, at least as much as is loaded.
	LoadRefresh
)

func (k LoadKind) String() string {
	switch k {
	case LoadNew:
		return "NEW"
	case LoadAdd:
		return "ADD"
	case LoadRefresh:
		return "REFRESH"
	default:
		return "UNKNOWN"
	}
}

type State int

const (
	StateIdle State = iota
	StateLoading
)

func (s State) String() string {
	if s == StateLoading {
		return "loading"
	}
	return "idle"
}

// RecordStore is the paged read side of a storage backend.
type RecordStore interface {
	Count(ctx context.Context, q storage.Query) (int, error)
	Page(ctx context.Context, limit, offset int, q storage.Query) ([]*storage.Record, error)
}

// Controller drives one list. Loads run on their own goroutine but never
// overlap: each waits for the one it superseded to return. A superseded load
// is cancelled through its context and can no longer publish.
type Controller[T Day] struct {
	id       ListID
	store    RecordStore
	mapper   Mapper[T]
	consumer Consumer[T]
	pageSize int
	log      *debuglog.FieldLogger

	mu    sync.Mutex
	query storage.Query
	// snapshot was loaded with snapQuery. A NEW marks it stale until a load
	// publishes again; ADD only extends a fresh snapshot of the current query.
	snapshot  ResultList[T]
	snapQuery storage.Query
	stale     bool
	lastErr   error
	gen      uint64
	loading  bool
	closed   bool
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewController builds a list over store. pageSize <= 0 means DefaultPageSize.
func NewController[T Day](id ListID, store RecordStore, mapper Mapper[T], consumer Consumer[T], pageSize int) *Controller[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Controller[T]{
		id:       id,
		store:    store,
		mapper:   mapper,
		consumer: consumer,
		pageSize: pageSize,
		log:      debuglog.WithFields(debuglog.Fields{"list": id}),
	}
}

// NewDiaryController builds the chronological diary list.
func NewDiaryController(id ListID, store RecordStore, consumer Consumer[DayItem], pageSize int) *Controller[DayItem] {
	return NewController(id, store, DiaryMapper, consumer, pageSize)
}

// NewSearchController builds a word-search list. Set the term with SetQuery.
func NewSearchController(id ListID, store RecordStore, consumer Consumer[SearchDayItem], pageSize int) *Controller[SearchDayItem] {
	return NewController(id, store, SearchMapper, consumer, pageSize)
}

func (c *Controller[T]) ID() ListID    { return c.id }
func (c *Controller[T]) PageSize() int { return c.pageSize }

// SetQuery changes the filter used by later requests. A load already in
// flight keeps the query it started with. Once the query differs from the
// snapshot's, ADD is refused until a NEW or REFRESH publishes.
func (c *Controller[T]) SetQuery(q storage.Query) {
	c.mu.Lock()
	c.query = q
	c.mu.Unlock()
}

func (c *Controller[T]) Query() storage.Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Snapshot returns the last published result.
func (c *Controller[T]) Snapshot() ResultList[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// LastError returns the error of the most recent failed load, cleared by the
// next successful one.
func (c *Controller[T]) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Controller[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loading {
		return StateLoading
	}
	return StateIdle
}

// CanLoadMore reports whether no load is in flight. Scroll-triggered ADD
// requests check it to avoid piling up.
func (c *Controller[T]) CanLoadMore() bool {
	return c.State() == StateIdle
}

// Request starts a load of the given kind and returns without waiting. Any
// load in flight is cancelled and its result discarded.
func (c *Controller[T]) Request(kind LoadKind) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	query := c.query
	switch kind {
	case LoadAdd:
		if c.snapshot.Empty() || c.stale || c.snapQuery != c.query {
			c.mu.Unlock()
			return ErrNothingLoaded
		}
		query = c.snapQuery
	case LoadNew:
		c.stale = true
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(context.Background())
	l := &load[T]{
		ctx:   ctx,
		gen:   c.gen,
		kind:  kind,
		query: query,
		prior: c.snapshot,
		prev:  c.done,
		done:  make(chan struct{}),
	}
	c.cancel = cancel
	c.done = l.done
	c.loading = true
	c.mu.Unlock()

	go c.run(l)
	return nil
}

type load[T Day] struct {
	ctx   context.Context
	gen   uint64
	kind  LoadKind
	query storage.Query
	prior ResultList[T]
	prev  chan struct{}
	done  chan struct{}
}

// window returns the offset and size a load fetches.
func window[T Day](kind LoadKind, prior ResultList[T], pageSize int) (offset, size int) {
	switch kind {
	case LoadAdd:
		return prior.Loaded(), pageSize
	case LoadRefresh:
		return 0, max(pageSize, prior.Loaded())
	default:
		return 0, pageSize
	}
}

func (c *Controller[T]) run(l *load[T]) {
	defer close(l.done)
	if l.prev != nil {
		<-l.prev
	}

	log := c.log.With(debuglog.Fields{"kind": l.kind, "gen": l.gen})
	if l.ctx.Err() != nil {
		log.Debugf("load superseded before start")
		return
	}

	offset, size := window(l.kind, l.prior, c.pageSize)
	log.Debugf("load started offset=%d size=%d", offset, size)

	records, err := c.store.Page(l.ctx, size, offset, l.query)
	if l.ctx.Err() != nil {
		log.Debugf("load cancelled during page fetch")
		return
	}
	if err != nil {
		c.fail(l, fmt.Errorf("%w: page: %w", ErrStoreUnavailable, err))
		return
	}

	total, err := c.store.Count(l.ctx, l.query)
	if l.ctx.Err() != nil {
		log.Debugf("load cancelled during count")
		return
	}
	if err != nil {
		c.fail(l, fmt.Errorf("%w: count: %w", ErrStoreUnavailable, err))
		return
	}

	items, err := mapAll(records, offset, l.query, c.mapper)
	if err != nil {
		c.fail(l, err)
		return
	}

	buckets := Bucketize(items)
	if l.kind == LoadAdd {
		buckets = Merge(l.prior.Buckets, buckets)
	}
	result := newResultList(buckets, total)

	if !c.publish(l, result) {
		log.Debugf("load superseded before publish")
		return
	}
	log.Infof("load finished loaded=%d total=%d terminal=%s", result.Loaded(), total, result.Terminal)
	c.consumer.OnResult(c.id, result)
}

// publish installs result as the snapshot if l is still current. Delivery to
// the consumer happens after the lock is released; ordering is kept because
// the next load waits for l.done.
func (c *Controller[T]) publish(l *load[T], result ResultList[T]) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l.gen != c.gen || l.ctx.Err() != nil {
		return false
	}
	c.snapshot = result
	c.snapQuery = l.query
	c.stale = false
	c.lastErr = nil
	c.settle()
	return true
}

func (c *Controller[T]) fail(l *load[T], err error) {
	c.mu.Lock()
	if l.gen != c.gen || l.ctx.Err() != nil {
		c.mu.Unlock()
		return
	}
	c.lastErr = err
	c.settle()
	c.mu.Unlock()

	kind := KindOf(err)
	c.log.With(debuglog.Fields{"kind": l.kind, "gen": l.gen}).Warnf("load failed (%s): %v", kind, err)
	c.consumer.OnError(c.id, kind, err)
}

// settle marks the current load finished. Callers hold c.mu.
func (c *Controller[T]) settle() {
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Wait blocks until no load is in flight, including loads requested while
// waiting.
func (c *Controller[T]) Wait(ctx context.Context) error {
	for {
		c.mu.Lock()
		done := c.done
		c.mu.Unlock()
		if done == nil {
			return nil
		}
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		c.mu.Lock()
		settled := c.done == done
		c.mu.Unlock()
		if settled {
			return nil
		}
	}
}

// Close cancels any load in flight, waits for it to return and rejects
// further requests.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}
