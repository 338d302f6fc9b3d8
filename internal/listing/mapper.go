package listing

import (
	"fmt"
	"time"

	"github.com/pders01/daybook/internal/search"
	"github.com/pders01/daybook/internal/storage"
)

// Mapper turns one raw record into a list row. The query is the one the page
// was fetched with.
type Mapper[T Day] func(r *storage.Record, q storage.Query) (T, error)

func parseDate(raw string) (time.Time, error) {
	return time.Parse(storage.DateLayout, raw)
}

// MapDay converts a record to a DayItem.
func MapDay(r *storage.Record) (DayItem, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return DayItem{}, fmt.Errorf("%w: date %q: %v", ErrMalformedRecord, r.Date, err)
	}
	return DayItem{Date: date, Title: r.Title, Attachment: r.Attachment}, nil
}

// MapSearchDay converts a record to a SearchDayItem, locating the field that
// carries term and highlighting it.
func MapSearchDay(r *storage.Record, term string) (SearchDayItem, error) {
	day, err := MapDay(r)
	if err != nil {
		return SearchDayItem{}, err
	}
	m := search.Locate(r, term)
	matched := m.FieldIndex
	if m.InTitle {
		matched = 0
	}
	return SearchDayItem{
		DayItem:          day,
		MatchedField:     matched,
		ShownItem:        m.FieldIndex,
		HighlightedTitle: search.NewHighlighted(r.Title, term),
		FieldTitle:       search.NewHighlighted(m.FieldTitle, term),
		FieldComment:     search.NewHighlighted(m.FieldComment, term),
	}, nil
}

// DiaryMapper adapts MapDay to Mapper.
func DiaryMapper(r *storage.Record, _ storage.Query) (DayItem, error) {
	return MapDay(r)
}

// SearchMapper adapts MapSearchDay to Mapper using the query term.
func SearchMapper(r *storage.Record, q storage.Query) (SearchDayItem, error) {
	return MapSearchDay(r, q.Term)
}

// mapAll maps a fetched page. The first failure aborts the whole page, since
// dropping a row would shift every later offset.
func mapAll[T Day](records []*storage.Record, offset int, q storage.Query, mapper Mapper[T]) ([]T, error) {
	items := make([]T, 0, len(records))
	for i, r := range records {
		item, err := mapper(r, q)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", offset+i, err)
		}
		items = append(items, item)
	}
	return items, nil
}
