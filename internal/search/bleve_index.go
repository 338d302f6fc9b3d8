package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/daybook/internal/debuglog"
	"github.com/pders01/daybook/internal/storage"
)

// minDate is below every valid DateLayout value and bounds date range queries.
const minDate = "0000-01-01"

// Index is a bleve-backed record store for search lists. Text fields are
// indexed whole with the keyword analyzer so a wildcard query behaves as a
// case-sensitive substring test. The two wildcard metacharacters '*' and '?'
// inside a term still act as wildcards, which can admit records the literal
// match locator then does not find; Locate falls back to item 1 for those.
type Index struct {
	idx bleve.Index
}

// OpenIndex opens the index at indexPath, creating it if it does not exist.
func OpenIndex(indexPath string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}
	return &Index{idx: idx}, nil
}

// NewMemIndex returns an index that lives only in memory.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating in-memory index: %w", err)
	}
	return &Index{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = keyword.Name

	dm := bleve.NewDocumentMapping()
	for _, field := range append([]string{"date", "attachment"}, textFields...) {
		fm := bleve.NewKeywordFieldMapping()
		fm.Store = true
		fm.IncludeInAll = false
		dm.AddFieldMappingsAt(field, fm)
	}
	weather := bleve.NewNumericFieldMapping()
	weather.Store = true
	weather.Index = false
	dm.AddFieldMappingsAt("weather", weather)

	im.DefaultMapping = dm
	return im
}

// textFields are the document fields a term is matched against.
var textFields = func() []string {
	fields := []string{"title"}
	for i := 1; i <= storage.ItemCount; i++ {
		fields = append(fields, itemField(i, "title"), itemField(i, "comment"))
	}
	return fields
}()

func itemField(i int, part string) string {
	return "item" + strconv.Itoa(i) + "_" + part
}

func document(r *storage.Record) map[string]any {
	doc := map[string]any{
		"date":       r.Date,
		"title":      r.Title,
		"attachment": r.Attachment,
		"weather":    float64(r.Weather),
	}
	for i, it := range r.Items {
		doc[itemField(i+1, "title")] = it.Title
		doc[itemField(i+1, "comment")] = it.Comment
	}
	return doc
}

func recordFromFields(id string, fields map[string]any) *storage.Record {
	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	r := &storage.Record{
		Date:       id,
		Title:      str("title"),
		Attachment: str("attachment"),
	}
	if d := str("date"); d != "" {
		r.Date = d
	}
	if w, ok := fields["weather"].(float64); ok {
		r.Weather = int(w)
	}
	for i := range r.Items {
		r.Items[i] = storage.Item{
			Title:   str(itemField(i+1, "title")),
			Comment: str(itemField(i+1, "comment")),
		}
	}
	return r
}

// idPageSize bounds each step of the document ID walk in Rebuild.
const idPageSize = 500

// Rebuild makes the index hold exactly records: documents for days missing
// from records are deleted and the rest replaced, all in one batch.
func (x *Index) Rebuild(ctx context.Context, records []*storage.Record) error {
	keep := make(map[string]struct{}, len(records))
	for _, r := range records {
		keep[r.Date] = struct{}{}
	}
	ids, err := x.ids(ctx)
	if err != nil {
		return fmt.Errorf("listing indexed days: %w", err)
	}

	batch := x.idx.NewBatch()
	var dropped int
	for _, id := range ids {
		if _, ok := keep[id]; !ok {
			batch.Delete(id)
			dropped++
		}
	}
	if err := x.fill(ctx, batch, records); err != nil {
		return err
	}
	if err := x.idx.Batch(batch); err != nil {
		return err
	}
	debuglog.Infof("search index rebuilt: %d days, %d dropped", len(records), dropped)
	return nil
}

// ids returns the ID of every indexed document.
func (x *Index) ids(ctx context.Context) ([]string, error) {
	var out []string
	for from := 0; ; from += idPageSize {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), idPageSize, from, false)
		req.SortBy([]string{"_id"})
		res, err := x.idx.SearchInContext(ctx, req)
		if err != nil {
			return nil, err
		}
		for _, h := range res.Hits {
			out = append(out, h.ID)
		}
		if len(res.Hits) < idPageSize {
			return out, nil
		}
	}
}

func (x *Index) fill(ctx context.Context, batch *bleve.Batch, records []*storage.Record) error {
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := batch.Index(r.Date, document(r)); err != nil {
			return fmt.Errorf("indexing %s: %w", r.Date, err)
		}
	}
	return nil
}

// OnRecordsSaved indexes the saved records, replacing documents with the
// same date.
func (x *Index) OnRecordsSaved(records []*storage.Record) {
	batch := x.idx.NewBatch()
	err := x.fill(context.Background(), batch, records)
	if err == nil {
		err = x.idx.Batch(batch)
	}
	if err != nil {
		debuglog.Warnf("search index update failed: %v", err)
	}
}

// OnRecordDeleted removes the day's document.
func (x *Index) OnRecordDeleted(date string) {
	if err := x.idx.Delete(date); err != nil {
		debuglog.Warnf("search index delete %s failed: %v", date, err)
	}
}

func buildQuery(q storage.Query) bleveQuery.Query {
	var must []bleveQuery.Query
	if q.Before != "" {
		inclusive := true
		r := bleve.NewTermRangeInclusiveQuery(minDate, q.Before, &inclusive, &inclusive)
		r.SetField("date")
		must = append(must, r)
	}
	if q.Term != "" {
		should := make([]bleveQuery.Query, 0, len(textFields))
		for _, field := range textFields {
			w := bleve.NewWildcardQuery("*" + q.Term + "*")
			w.SetField(field)
			should = append(should, w)
		}
		must = append(must, bleve.NewDisjunctionQuery(should...))
	}
	switch len(must) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return must[0]
	default:
		return bleve.NewConjunctionQuery(must...)
	}
}

func (x *Index) Count(ctx context.Context, q storage.Query) (int, error) {
	req := bleve.NewSearchRequestOptions(buildQuery(q), 0, 0, false)
	res, err := x.idx.SearchInContext(ctx, req)
	if err != nil {
		return 0, err
	}
	return int(res.Total), nil
}

// Page returns matching records newest first.
func (x *Index) Page(ctx context.Context, limit, offset int, q storage.Query) ([]*storage.Record, error) {
	if limit <= 0 {
		return []*storage.Record{}, nil
	}
	req := bleve.NewSearchRequestOptions(buildQuery(q), limit, offset, false)
	req.SortBy([]string{"-date"})
	req.Fields = []string{"*"}
	res, err := x.idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}
	out := make([]*storage.Record, 0, len(res.Hits))
	for _, h := range res.Hits {
		out = append(out, recordFromFields(h.ID, h.Fields))
	}
	return out, nil
}

// DocCount reports how many days are indexed.
func (x *Index) DocCount() (int, error) {
	n, err := x.idx.DocCount()
	return int(n), err
}

func (x *Index) Close() error {
	return x.idx.Close()
}
