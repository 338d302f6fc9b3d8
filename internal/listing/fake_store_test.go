package listing

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pders01/daybook/internal/storage"
)

type pageCall struct {
	limit  int
	offset int
	query  storage.Query
}

// fakeStore serves records from memory. gates[i], when set, holds the i-th
// Page call until it is closed. With stubborn set, a held call also ignores
// cancellation, like a store that cannot be interrupted.
type fakeStore struct {
	mu       sync.Mutex
	records  []*storage.Record
	pageErr  error
	countErr error
	gates    []chan struct{}
	stubborn bool
	calls    []pageCall
	started  chan pageCall
}

func newFakeStore(records []*storage.Record) *fakeStore {
	return &fakeStore{records: records, started: make(chan pageCall, 16)}
}

func (f *fakeStore) admitted(q storage.Query) []*storage.Record {
	var out []*storage.Record
	for _, r := range f.records {
		if q.Admits(r) {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeStore) Page(ctx context.Context, limit, offset int, q storage.Query) ([]*storage.Record, error) {
	f.mu.Lock()
	call := pageCall{limit: limit, offset: offset, query: q}
	n := len(f.calls)
	f.calls = append(f.calls, call)
	var gate chan struct{}
	if n < len(f.gates) {
		gate = f.gates[n]
	}
	stubborn, err := f.stubborn, f.pageErr
	f.mu.Unlock()

	f.started <- call
	if gate != nil {
		if stubborn {
			<-gate
		} else {
			select {
			case <-gate:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.admitted(q)
	if offset >= len(rows) {
		return []*storage.Record{}, nil
	}
	return rows[offset:min(len(rows), offset+limit)], nil
}

func (f *fakeStore) Count(_ context.Context, q storage.Query) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.countErr != nil {
		return 0, f.countErr
	}
	return len(f.admitted(q)), nil
}

func (f *fakeStore) Calls() []pageCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pageCall(nil), f.calls...)
}

func (f *fakeStore) set(fn func(f *fakeStore)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

// daysBack returns n records, newest first, step days apart from start.
func daysBack(start string, n, step int) []*storage.Record {
	t0, err := time.Parse(storage.DateLayout, start)
	if err != nil {
		panic(err)
	}
	recs := make([]*storage.Record, n)
	for i := range recs {
		recs[i] = &storage.Record{
			Date:  t0.AddDate(0, 0, -i*step).Format(storage.DateLayout),
			Title: fmt.Sprintf("day %d", i),
		}
	}
	return recs
}

const eventTimeout = 2 * time.Second

func nextEvent[T Day](t *testing.T, c *ChanConsumer[T]) Event[T] {
	t.Helper()
	select {
	case ev := <-c.Events():
		return ev
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for event")
		return Event[T]{}
	}
}

func noEvent[T Day](t *testing.T, c *ChanConsumer[T]) {
	t.Helper()
	select {
	case ev := <-c.Events():
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitStarted(t *testing.T, f *fakeStore) pageCall {
	t.Helper()
	select {
	case call := <-f.started:
		return call
	case <-time.After(eventTimeout):
		t.Fatal("timed out waiting for page fetch")
		return pageCall{}
	}
}

func waitIdle[T Day](t *testing.T, c *Controller[T]) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), eventTimeout)
	defer cancel()
	require.NoError(t, c.Wait(ctx))
}
