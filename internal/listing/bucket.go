package listing

// ViewKind tags list elements for renderers.
type ViewKind int

const (
	ViewDiary ViewKind = iota
	ViewTerminal
)

// MonthBucket is a run of consecutive days from one month, in source order.
type MonthBucket[T Day] struct {
	YearMonth YearMonth
	Items     []T
}

func (b MonthBucket[T]) Kind() ViewKind { return ViewDiary }

// Bucketize groups date-descending items into month buckets in one pass.
// It does not sort; out-of-order input produces repeated months.
func Bucketize[T Day](items []T) []MonthBucket[T] {
	var buckets []MonthBucket[T]
	for _, it := range items {
		ym := it.Month()
		if n := len(buckets); n > 0 && buckets[n-1].YearMonth == ym {
			buckets[n-1].Items = append(buckets[n-1].Items, it)
			continue
		}
		buckets = append(buckets, MonthBucket[T]{YearMonth: ym, Items: []T{it}})
	}
	return buckets
}

// Merge appends next after prior, splicing the boundary bucket when prior
// ends in the month next starts with. Neither input is modified.
func Merge[T Day](prior, next []MonthBucket[T]) []MonthBucket[T] {
	out := make([]MonthBucket[T], 0, len(prior)+len(next))
	out = append(out, prior...)
	if len(prior) > 0 && len(next) > 0 && prior[len(prior)-1].YearMonth == next[0].YearMonth {
		last := prior[len(prior)-1]
		items := make([]T, 0, len(last.Items)+len(next[0].Items))
		items = append(items, last.Items...)
		items = append(items, next[0].Items...)
		out[len(out)-1] = MonthBucket[T]{YearMonth: last.YearMonth, Items: items}
		next = next[1:]
	}
	return append(out, next...)
}
