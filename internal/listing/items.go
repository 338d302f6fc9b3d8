package listing

import (
	"fmt"
	"time"

	"github.com/pders01/daybook/internal/search"
)

// YearMonth keys a month bucket.
type YearMonth struct {
	Year  int
	Month time.Month
}

func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// Compare returns -1, 0 or +1 as ym is earlier than, equal to or later than o.
func (ym YearMonth) Compare(o YearMonth) int {
	switch {
	case ym.Year != o.Year:
		if ym.Year < o.Year {
			return -1
		}
		return 1
	case ym.Month < o.Month:
		return -1
	case ym.Month > o.Month:
		return 1
	default:
		return 0
	}
}

func (ym YearMonth) Before(o YearMonth) bool { return ym.Compare(o) < 0 }
func (ym YearMonth) After(o YearMonth) bool  { return ym.Compare(o) > 0 }

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Day is a list row that can be grouped into month buckets.
type Day interface {
	Month() YearMonth
}

// DayItem is the diary list projection of a record.
type DayItem struct {
	Date       time.Time
	Title      string
	Attachment string
}

func (d DayItem) Month() YearMonth { return YearMonthOf(d.Date) }

// HasAttachment reports whether the day carries an attachment path.
func (d DayItem) HasAttachment() bool { return d.Attachment != "" }

// SearchDayItem is a search list row: the day plus where the term was found
// and the highlight spans over the shown fields.
type SearchDayItem struct {
	DayItem
	// MatchedField is 0 when the record title matched, otherwise the 1-based
	// item index.
	MatchedField int
	// ShownItem is the 1-based item whose fields are displayed.
	ShownItem        int
	HighlightedTitle search.Highlighted
	FieldTitle       search.Highlighted
	FieldComment     search.Highlighted
}
