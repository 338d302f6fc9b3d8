package search

import "strings"

// Span is a half-open byte range [Start, End) into the highlighted text.
type Span struct {
	Start int
	End   int
}

// Highlighted pairs a field's text with the spans where the term occurs.
type Highlighted struct {
	Text  string
	Spans []Span
}

// NewHighlighted highlights every occurrence of term in text.
func NewHighlighted(text, term string) Highlighted {
	return Highlighted{Text: text, Spans: Highlight(text, term)}
}

// Highlight returns one span per non-overlapping literal occurrence of term,
// scanning left to right. Matching is case-sensitive and term is never
// interpreted as a pattern. An empty term yields no spans.
func Highlight(text, term string) []Span {
	if term == "" {
		return nil
	}
	var spans []Span
	for cursor := 0; cursor <= len(text)-len(term); {
		i := strings.Index(text[cursor:], term)
		if i < 0 {
			break
		}
		start := cursor + i
		spans = append(spans, Span{Start: start, End: start + len(term)})
		cursor = start + len(term)
	}
	return spans
}

// Segments splits the text into alternating plain and matched runs, in order.
// Renderers walk the result instead of slicing by span themselves.
func (h Highlighted) Segments() []Segment {
	if len(h.Spans) == 0 {
		if h.Text == "" {
			return nil
		}
		return []Segment{{Text: h.Text}}
	}
	var segs []Segment
	pos := 0
	for _, sp := range h.Spans {
		if sp.Start > pos {
			segs = append(segs, Segment{Text: h.Text[pos:sp.Start]})
		}
		segs = append(segs, Segment{Text: h.Text[sp.Start:sp.End], Match: true})
		pos = sp.End
	}
	if pos < len(h.Text) {
		segs = append(segs, Segment{Text: h.Text[pos:]})
	}
	return segs
}

// Segment is a run of highlighted text.
type Segment struct {
	Text  string
	Match bool
}
