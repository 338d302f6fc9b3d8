package search

import (
	"strings"

	"github.com/pders01/daybook/internal/storage"
)

// Match identifies the item field a search hit is shown with.
type Match struct {
	// FieldIndex is the 1-based item shown for the hit.
	FieldIndex   int
	FieldTitle   string
	FieldComment string
	// InTitle is set when the record title itself carried the term.
	InTitle bool
}

// Locate finds the first field of r containing term, checking the record
// title, then item 1 title, item 1 comment, item 2 title, and so on through
// item 5. A title hit is shown with item 1. If nothing contains the term,
// which only happens when the store's filter disagreed with this check, item
// 1 is returned anyway so every record yields exactly one Match.
func Locate(r *storage.Record, term string) Match {
	if term != "" && strings.Contains(r.Title, term) {
		return matchAt(r, 1, true)
	}
	if term != "" {
		for i, it := range r.Items {
			if strings.Contains(it.Title, term) || strings.Contains(it.Comment, term) {
				return matchAt(r, i+1, false)
			}
		}
	}
	return matchAt(r, 1, false)
}

func matchAt(r *storage.Record, index int, inTitle bool) Match {
	it := r.Items[index-1]
	return Match{
		FieldIndex:   index,
		FieldTitle:   it.Title,
		FieldComment: it.Comment,
		InTitle:      inTitle,
	}
}
