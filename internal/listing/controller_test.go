package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/daybook/internal/storage"
)

func newDiary(t *testing.T, store RecordStore, pageSize int) (*Controller[DayItem], *ChanConsumer[DayItem]) {
	t.Helper()
	consumer := NewChanConsumer[DayItem](16)
	c := NewDiaryController(ListDiary, store, consumer, pageSize)
	t.Cleanup(c.Close)
	return c, consumer
}

func TestControllerSentinelProgression(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 25, 3))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	ev := nextEvent(t, consumer)
	require.NoError(t, ev.Err)
	assert.Equal(t, ListDiary, ev.List)
	assert.Equal(t, 10, ev.Result.Loaded())
	assert.Equal(t, 25, ev.Result.Total)
	assert.Equal(t, TerminalProgress, ev.Result.Terminal)

	waitIdle(t, c)
	require.NoError(t, c.Request(LoadAdd))
	ev = nextEvent(t, consumer)
	assert.Equal(t, 20, ev.Result.Loaded())
	assert.Equal(t, TerminalProgress, ev.Result.Terminal)

	waitIdle(t, c)
	require.NoError(t, c.Request(LoadAdd))
	ev = nextEvent(t, consumer)
	assert.Equal(t, 25, ev.Result.Loaded())
	assert.Equal(t, TerminalNoMoreResults, ev.Result.Terminal)

	assert.Equal(t, []pageCall{
		{limit: 10, offset: 0},
		{limit: 10, offset: 10},
		{limit: 10, offset: 20},
	}, store.Calls())
}

func TestControllerEmptyStore(t *testing.T) {
	c, consumer := newDiary(t, newFakeStore(nil), 10)

	require.NoError(t, c.Request(LoadNew))
	ev := nextEvent(t, consumer)

	require.NoError(t, ev.Err)
	assert.True(t, ev.Result.Empty())
	assert.Equal(t, 0, ev.Result.Total)
	assert.Equal(t, TerminalNone, ev.Result.Terminal)
}

func TestControllerAddMergesBoundaryMonth(t *testing.T) {
	// 40 records two days apart span June back into April; page breaks
	// fall inside months.
	store := newFakeStore(daysBack("2024-06-29", 40, 2))
	c, consumer := newDiary(t, store, 7)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	var last ResultList[DayItem]
	for i := 0; i < 5; i++ {
		waitIdle(t, c)
		require.NoError(t, c.Request(LoadAdd))
		last = nextEvent(t, consumer).Result
	}

	assert.Equal(t, 40, last.Loaded())
	assert.Equal(t, TerminalNoMoreResults, last.Terminal)
	seen := map[YearMonth]bool{}
	for i, b := range last.Buckets {
		assert.False(t, seen[b.YearMonth], "month %s appears twice", b.YearMonth)
		seen[b.YearMonth] = true
		if i > 0 {
			assert.True(t, b.YearMonth.Before(last.Buckets[i-1].YearMonth))
		}
	}
	items := last.Items()
	for i := 1; i < len(items); i++ {
		assert.True(t, items[i].Date.Before(items[i-1].Date))
	}
}

func TestControllerAddNeedsSnapshot(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 5, 1))
	c, consumer := newDiary(t, store, 10)

	assert.ErrorIs(t, c.Request(LoadAdd), ErrNothingLoaded)
	noEvent(t, consumer)
	assert.Empty(t, store.Calls())
}

func TestControllerRefreshKeepsVisibleWindow(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 30, 1))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)
	require.NoError(t, c.Request(LoadAdd))
	nextEvent(t, consumer)
	waitIdle(t, c)

	require.NoError(t, c.Request(LoadRefresh))
	ev := nextEvent(t, consumer)

	assert.Equal(t, 20, ev.Result.Loaded())
	calls := store.Calls()
	assert.Equal(t, pageCall{limit: 20, offset: 0}, calls[len(calls)-1])
}

func TestControllerRefreshOnSmallListUsesPageSize(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 3, 1))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadRefresh))
	ev := nextEvent(t, consumer)

	assert.Equal(t, 3, ev.Result.Loaded())
	assert.Equal(t, []pageCall{{limit: 10, offset: 0}}, store.Calls())
}

func TestControllerNewReplacesSnapshot(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 30, 1))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)
	require.NoError(t, c.Request(LoadAdd))
	nextEvent(t, consumer)
	waitIdle(t, c)
	require.NoError(t, c.Request(LoadNew))
	ev := nextEvent(t, consumer)

	assert.Equal(t, 10, ev.Result.Loaded())
	assert.Equal(t, 10, c.Snapshot().Loaded())
}

func TestControllerAddRefusedWhileNewPending(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 30, 1))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)
	waitStarted(t, store)

	gate := make(chan struct{})
	store.set(func(f *fakeStore) { f.gates = []chan struct{}{nil, gate} })
	require.NoError(t, c.Request(LoadNew))
	waitStarted(t, store)

	assert.ErrorIs(t, c.Request(LoadAdd), ErrNothingLoaded, "the old list must not be extended")
	close(gate)

	ev := nextEvent(t, consumer)
	require.NoError(t, ev.Err)
	assert.Equal(t, 10, ev.Result.Loaded())
	waitIdle(t, c)
	require.Len(t, store.Calls(), 2)

	require.NoError(t, c.Request(LoadAdd))
	ev = nextEvent(t, consumer)
	assert.Equal(t, 20, ev.Result.Loaded())
}

func TestControllerAddRefusedAfterFailedNew(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 30, 1))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)

	store.set(func(f *fakeStore) { f.pageErr = errors.New("locked") })
	require.NoError(t, c.Request(LoadNew))
	assert.Error(t, nextEvent(t, consumer).Err)
	waitIdle(t, c)

	assert.ErrorIs(t, c.Request(LoadAdd), ErrNothingLoaded)
	assert.Len(t, store.Calls(), 2)
}

func TestControllerAddRefusedAfterQueryChange(t *testing.T) {
	records := daysBack("2024-06-30", 30, 1)
	for i, r := range records {
		if i%2 == 0 {
			r.Title = "alpha " + r.Title
		} else {
			r.Title = "beta " + r.Title
		}
	}
	store := newFakeStore(records)
	consumer := NewChanConsumer[SearchDayItem](16)
	c := NewSearchController(ListSearch, store, consumer, 5)
	t.Cleanup(c.Close)

	c.SetQuery(storage.Query{Term: "alpha"})
	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)

	c.SetQuery(storage.Query{Term: "beta"})
	assert.ErrorIs(t, c.Request(LoadAdd), ErrNothingLoaded)
	assert.Len(t, store.Calls(), 1)

	// Back on the snapshot's own query, ADD pages with it.
	c.SetQuery(storage.Query{Term: "alpha"})
	require.NoError(t, c.Request(LoadAdd))
	ev := nextEvent(t, consumer)
	require.NoError(t, ev.Err)
	assert.Equal(t, 10, ev.Result.Loaded())
	assert.Equal(t, 15, ev.Result.Total)
	for _, hit := range ev.Result.Items() {
		assert.Contains(t, hit.Title, "alpha")
	}
	calls := store.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, pageCall{limit: 5, offset: 5, query: storage.Query{Term: "alpha"}}, calls[1])
}

func TestControllerStoreCancelledWithLiveContext(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 15, 1))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)

	store.set(func(f *fakeStore) { f.pageErr = context.Canceled })
	require.NoError(t, c.Request(LoadAdd))
	ev := nextEvent(t, consumer)

	assert.Equal(t, ErrorStoreUnavailable, ev.Kind)
	assert.ErrorIs(t, ev.Err, ErrStoreUnavailable)
	waitIdle(t, c)
	assert.Equal(t, StateIdle, c.State())
	assert.True(t, c.CanLoadMore())
}

func TestControllerSupersededAddNeverPublishes(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 30, 1))
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)
	waitStarted(t, store)

	gate := make(chan struct{})
	store.set(func(f *fakeStore) {
		f.gates = []chan struct{}{nil, gate}
		f.stubborn = true
	})

	require.NoError(t, c.Request(LoadAdd))
	add := waitStarted(t, store)
	assert.Equal(t, 10, add.offset)
	assert.False(t, c.CanLoadMore())

	require.NoError(t, c.Request(LoadRefresh))
	// The refresh must not reach the store while the add is still running.
	noEvent(t, consumer)
	assert.Len(t, store.Calls(), 2)

	close(gate)
	ev := nextEvent(t, consumer)
	require.NoError(t, ev.Err)
	assert.Equal(t, 10, ev.Result.Loaded(), "only the refresh result is published")
	noEvent(t, consumer)

	waitIdle(t, c)
	assert.True(t, c.CanLoadMore())
	assert.Equal(t, 10, c.Snapshot().Loaded())
	calls := store.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, pageCall{limit: 10, offset: 0}, calls[2])
}

func TestControllerCancelsCooperativeStore(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 30, 1))
	store.gates = []chan struct{}{make(chan struct{})}
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	waitStarted(t, store)
	require.NoError(t, c.Request(LoadNew))

	ev := nextEvent(t, consumer)
	require.NoError(t, ev.Err, "the cancelled fetch must not surface as an error")
	assert.Equal(t, 10, ev.Result.Loaded())
	noEvent(t, consumer)
}

func TestControllerManyRapidRequestsPublishLast(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 50, 1))
	c, consumer := newDiary(t, store, 5)

	require.NoError(t, c.Request(LoadNew))
	nextEvent(t, consumer)
	waitIdle(t, c)

	for i := 0; i < 10; i++ {
		require.NoError(t, c.Request(LoadRefresh))
	}
	require.NoError(t, c.Request(LoadNew))
	waitIdle(t, c)

	var events []Event[DayItem]
	for len(consumer.Events()) > 0 {
		events = append(events, <-consumer.Events())
	}
	require.NotEmpty(t, events)
	assert.Equal(t, 5, events[len(events)-1].Result.Loaded())
	assert.Equal(t, 5, c.Snapshot().Loaded())
}

func TestControllerStoreErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fakeStore)
	}{
		{"page", func(f *fakeStore) { f.pageErr = errors.New("disk gone") }},
		{"count", func(f *fakeStore) { f.countErr = errors.New("disk gone") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(daysBack("2024-06-30", 15, 1))
			c, consumer := newDiary(t, store, 10)

			require.NoError(t, c.Request(LoadNew))
			good := nextEvent(t, consumer).Result
			waitIdle(t, c)

			store.set(tt.setup)
			require.NoError(t, c.Request(LoadAdd))
			ev := nextEvent(t, consumer)

			assert.Equal(t, ErrorStoreUnavailable, ev.Kind)
			assert.ErrorIs(t, ev.Err, ErrStoreUnavailable)
			assert.Contains(t, ev.Err.Error(), "disk gone")
			noEvent(t, consumer)

			waitIdle(t, c)
			assert.Equal(t, StateIdle, c.State())
			assert.Equal(t, good, c.Snapshot())
			assert.ErrorIs(t, c.LastError(), ErrStoreUnavailable)
		})
	}
}

func TestControllerMalformedRecordFailsLoad(t *testing.T) {
	records := daysBack("2024-06-30", 5, 1)
	records[3].Date = "2024-06-31"
	c, consumer := newDiary(t, newFakeStore(records), 10)

	require.NoError(t, c.Request(LoadNew))
	ev := nextEvent(t, consumer)

	assert.Equal(t, ErrorMalformedRecord, ev.Kind)
	assert.ErrorIs(t, ev.Err, ErrMalformedRecord)
	waitIdle(t, c)
	assert.True(t, c.Snapshot().Empty())
}

func TestControllerErrorClearedBySuccess(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 5, 1))
	store.pageErr = errors.New("locked")
	c, consumer := newDiary(t, store, 10)

	require.NoError(t, c.Request(LoadNew))
	assert.Error(t, nextEvent(t, consumer).Err)
	waitIdle(t, c)

	store.set(func(f *fakeStore) { f.pageErr = nil })
	require.NoError(t, c.Request(LoadNew))
	assert.NoError(t, nextEvent(t, consumer).Err)
	waitIdle(t, c)
	assert.NoError(t, c.LastError())
}

func TestControllerQueryAppliesToNextRequest(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 60, 1))
	c, consumer := newDiary(t, store, 10)

	c.SetQuery(storage.Query{Before: "2024-05-15"})
	require.NoError(t, c.Request(LoadNew))
	ev := nextEvent(t, consumer)

	items := ev.Result.Items()
	require.NotEmpty(t, items)
	assert.Equal(t, "2024-05-15", items[0].Date.Format(storage.DateLayout))
	assert.Equal(t, storage.Query{Before: "2024-05-15"}, store.Calls()[0].query)
	assert.Equal(t, 14, ev.Result.Total)
}

func TestSearchControllerHighlights(t *testing.T) {
	records := daysBack("2024-06-30", 12, 1)
	records[2].Items[2].Comment = "it was ok"
	records[7].Title = "ok start"
	store := newFakeStore(records)
	consumer := NewChanConsumer[SearchDayItem](4)
	c := NewSearchController(ListSearch, store, consumer, 10)
	t.Cleanup(c.Close)

	c.SetQuery(storage.Query{Term: "ok"})
	require.NoError(t, c.Request(LoadNew))
	ev := nextEvent(t, consumer)

	require.NoError(t, ev.Err)
	items := ev.Result.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].MatchedField)
	assert.Equal(t, "it was ok", items[0].FieldComment.Text)
	assert.Equal(t, 0, items[1].MatchedField)
	assert.NotEmpty(t, items[1].HighlightedTitle.Spans)
	assert.Equal(t, TerminalNoMoreResults, ev.Result.Terminal)
}

func TestControllerClose(t *testing.T) {
	store := newFakeStore(daysBack("2024-06-30", 5, 1))
	store.gates = []chan struct{}{make(chan struct{})}
	consumer := NewChanConsumer[DayItem](4)
	c := NewDiaryController(ListDiary, store, consumer, 10)

	require.NoError(t, c.Request(LoadNew))
	waitStarted(t, store)
	c.Close()

	assert.ErrorIs(t, c.Request(LoadNew), ErrClosed)
	noEvent(t, consumer)
	require.NoError(t, c.Wait(context.Background()))
}

func TestControllerDefaults(t *testing.T) {
	c := NewDiaryController(ListDiary, newFakeStore(nil), ConsumerFuncs[DayItem]{}, 0)
	assert.Equal(t, DefaultPageSize, c.PageSize())
	assert.True(t, c.CanLoadMore())
	assert.Equal(t, "ADD", LoadAdd.String())
	assert.Equal(t, "loading", StateLoading.String())
}
