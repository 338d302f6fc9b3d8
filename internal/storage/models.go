package storage

import (
	"strings"
	"time"
)

// ItemCount is the number of titled/commented items a day record carries.
const ItemCount = 5

// DateLayout is the on-disk form of a record date. Keys sort lexically in
// date order under this layout.
const DateLayout = "2006-01-02"

type Item struct {
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// Record is one diary day as persisted. Date is kept as the raw string so a
// malformed value surfaces at mapping time instead of being dropped here.
type Record struct {
	Date       string          `json:"date"`
	Title      string          `json:"title"`
	Weather    int             `json:"weather"`
	Attachment string          `json:"attachment,omitempty"`
	Items      [ItemCount]Item `json:"items"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Contains reports whether term is a literal, case-sensitive substring of
// the record title or of any item title or comment.
func (r *Record) Contains(term string) bool {
	if strings.Contains(r.Title, term) {
		return true
	}
	for _, it := range r.Items {
		if strings.Contains(it.Title, term) || strings.Contains(it.Comment, term) {
			return true
		}
	}
	return false
}

// Query filters the records a Count or Page call sees.
type Query struct {
	// Before is an inclusive upper bound in DateLayout form. Empty means none.
	Before string
	// Term restricts results to records containing it. Empty means no filter.
	Term string
}

// Admits reports whether r passes both filters.
func (q Query) Admits(r *Record) bool {
	if q.Before != "" && r.Date > q.Before {
		return false
	}
	if q.Term != "" && !r.Contains(q.Term) {
		return false
	}
	return true
}

// Listener is notified after writes commit. The search index implements it
// to stay in step with the primary store.
type Listener interface {
	OnRecordsSaved(records []*Record)
	OnRecordDeleted(date string)
}
