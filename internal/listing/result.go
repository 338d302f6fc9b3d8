package listing

// Terminal is the marker rendered after the last bucket.
type Terminal int

const (
	TerminalNone Terminal = iota
	TerminalProgress
	TerminalNoMoreResults
)

func (t Terminal) String() string {
	switch t {
	case TerminalProgress:
		return "progress"
	case TerminalNoMoreResults:
		return "no more results"
	default:
		return "none"
	}
}

func (t Terminal) Kind() ViewKind { return ViewTerminal }

func terminalFor(loaded, total int) Terminal {
	switch {
	case loaded < total:
		return TerminalProgress
	case total > 0:
		return TerminalNoMoreResults
	default:
		return TerminalNone
	}
}

// ResultList is one published snapshot of a list.
type ResultList[T Day] struct {
	Buckets  []MonthBucket[T]
	Terminal Terminal
	// Total is the store's count for the list's query when the page loaded.
	Total int
}

func newResultList[T Day](buckets []MonthBucket[T], total int) ResultList[T] {
	r := ResultList[T]{Buckets: buckets, Total: total}
	r.Terminal = terminalFor(r.Loaded(), total)
	return r
}

// Loaded counts the day items across all buckets.
func (r ResultList[T]) Loaded() int {
	n := 0
	for _, b := range r.Buckets {
		n += len(b.Items)
	}
	return n
}

// Empty reports whether no day items are loaded.
func (r ResultList[T]) Empty() bool { return len(r.Buckets) == 0 }

// Items flattens the buckets in display order.
func (r ResultList[T]) Items() []T {
	out := make([]T, 0, r.Loaded())
	for _, b := range r.Buckets {
		out = append(out, b.Items...)
	}
	return out
}
