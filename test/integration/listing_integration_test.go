package integration

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/daybook/internal/listing"
	"github.com/pders01/daybook/internal/search"
	"github.com/pders01/daybook/internal/storage"
)

const pageSize = 4

// backend is a primary store plus the source lists read from.
type backend struct {
	repo   storage.Repository
	source listing.RecordStore
}

func openBackends(t *testing.T) map[string]backend {
	t.Helper()
	dir := t.TempDir()

	bolt, err := storage.NewStore(filepath.Join(dir, "daybook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { bolt.Close() })

	sqlite, err := storage.NewSQLiteStore(filepath.Join(dir, "daybook.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	indexed, err := storage.NewStore(filepath.Join(dir, "indexed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { indexed.Close() })
	idx, err := search.OpenIndex(filepath.Join(dir, "index.bleve"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	indexed.AddListener(idx)

	return map[string]backend{
		"bolt":   {repo: bolt, source: bolt},
		"sqlite": {repo: sqlite, source: sqlite},
		"bleve":  {repo: indexed, source: idx},
	}
}

// diary spans three months so paging crosses month boundaries.
func diary() []*storage.Record {
	var records []*storage.Record
	start := time.Date(2024, time.April, 27, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		d := start.AddDate(0, 0, i*4)
		r := &storage.Record{
			Date:  d.Format(storage.DateLayout),
			Title: fmt.Sprintf("Day %d", i),
		}
		r.Items[0] = storage.Item{Title: "morning", Comment: "coffee"}
		if i%3 == 0 {
			r.Items[3] = storage.Item{Title: "evening", Comment: "Walked to the Harbour"}
		}
		records = append(records, r)
	}
	return records
}

func next[T listing.Day](t *testing.T, events *listing.ChanConsumer[T]) listing.Event[T] {
	t.Helper()
	select {
	case ev := <-events.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a list delivery")
		return listing.Event[T]{}
	}
}

func dates[T listing.Day](items []T, date func(T) time.Time) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, date(it).Format(storage.DateLayout))
	}
	return out
}

func TestDiaryPagingAcrossBackends(t *testing.T) {
	records := diary()

	var reference []string
	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.repo.Save(context.Background(), records...))

			events := listing.NewChanConsumer[listing.DayItem](4)
			engine := listing.NewEngine()
			defer engine.Close()
			require.NoError(t, engine.Register(listing.NewDiaryController(listing.ListDiary, b.source, events, pageSize)))

			require.NoError(t, engine.Request(listing.ListDiary, listing.LoadNew))
			ev := next(t, events)
			require.NoError(t, ev.Err)
			assert.Equal(t, pageSize, ev.Result.Loaded())
			assert.Equal(t, listing.TerminalProgress, ev.Result.Terminal)

			for ev.Result.Terminal == listing.TerminalProgress {
				require.NoError(t, engine.Request(listing.ListDiary, listing.LoadAdd))
				ev = next(t, events)
				require.NoError(t, ev.Err)
			}
			assert.Equal(t, listing.TerminalNoMoreResults, ev.Result.Terminal)
			assert.Equal(t, len(records), ev.Result.Loaded())
			assert.Equal(t, len(records), ev.Result.Total)

			for i := 1; i < len(ev.Result.Buckets); i++ {
				assert.True(t, ev.Result.Buckets[i].YearMonth.Before(ev.Result.Buckets[i-1].YearMonth),
					"each month appears once, newest first")
			}

			got := dates(ev.Result.Items(), func(d listing.DayItem) time.Time { return d.Date })
			if reference == nil {
				reference = got
			} else {
				assert.Equal(t, reference, got, "every backend orders days the same way")
			}
		})
	}
}

func TestSearchAcrossBackends(t *testing.T) {
	records := diary()

	for name, b := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.repo.Save(context.Background(), records...))

			events := listing.NewChanConsumer[listing.SearchDayItem](4)
			ctrl := listing.NewSearchController(listing.ListSearch, b.source, events, pageSize)
			defer ctrl.Close()

			ctrl.SetQuery(storage.Query{Term: "Harbour"})
			require.NoError(t, ctrl.Request(listing.LoadNew))
			ev := next(t, events)
			require.NoError(t, ev.Err)

			// Days 0, 3, 6 and 9 carry the term.
			assert.Equal(t, 4, ev.Result.Total)
			assert.Equal(t, listing.TerminalNoMoreResults, ev.Result.Terminal)
			for _, hit := range ev.Result.Items() {
				assert.Equal(t, 4, hit.ShownItem)
				assert.Equal(t, 4, hit.MatchedField)
				require.Len(t, hit.FieldComment.Spans, 1)
				sp := hit.FieldComment.Spans[0]
				assert.Equal(t, "Harbour", hit.FieldComment.Text[sp.Start:sp.End])
			}

			ctrl.SetQuery(storage.Query{Term: "harbour"})
			require.NoError(t, ctrl.Request(listing.LoadNew))
			ev = next(t, events)
			require.NoError(t, ev.Err)
			assert.Equal(t, listing.TerminalNone, ev.Result.Terminal, "matching is case-sensitive")
			assert.Equal(t, 0, ev.Result.Total)
		})
	}
}

func TestIndexFollowsStoreWrites(t *testing.T) {
	b := openBackends(t)["bleve"]
	ctx := context.Background()
	require.NoError(t, b.repo.Save(ctx, diary()...))

	events := listing.NewChanConsumer[listing.DayItem](4)
	ctrl := listing.NewDiaryController(listing.ListDiary, b.source, events, pageSize)
	defer ctrl.Close()

	require.NoError(t, ctrl.Request(listing.LoadNew))
	first := next(t, events)
	require.NoError(t, first.Err)
	assert.Equal(t, 10, first.Result.Total)

	latest := &storage.Record{Date: "2024-07-31", Title: "Late entry"}
	require.NoError(t, b.repo.Save(ctx, latest))
	require.NoError(t, b.repo.Delete(ctx, "2024-04-27"))

	require.NoError(t, ctrl.Request(listing.LoadRefresh))
	ev := next(t, events)
	require.NoError(t, ev.Err)
	assert.Equal(t, 10, ev.Result.Total)
	items := ev.Result.Items()
	require.NotEmpty(t, items)
	assert.Equal(t, "Late entry", items[0].Title)
}
