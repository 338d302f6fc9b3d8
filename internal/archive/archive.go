package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/daybook/internal/storage"
	"github.com/pders01/daybook/internal/validation"
)

// Version is written into every archive and checked on import.
const Version = 1

// Format is an archive encoding.
type Format string

const (
	FormatTOML     Format = "toml"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

var (
	ErrUnknownFormat = errors.New("unknown archive format")
	ErrExportOnly    = errors.New("format cannot be imported")
	ErrInvalidDay    = errors.New("invalid day")
)

// FormatForPath picks the format from a file extension, defaulting to TOML.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return FormatTOML
	}
}

// Archive is the on-disk document. Items are a list rather than a fixed
// array so hand-written archives may leave trailing items out.
type Archive struct {
	Version    int       `toml:"version" json:"version"`
	ExportedAt time.Time `toml:"exported_at" json:"exported_at"`
	Days       []Day     `toml:"days" json:"days"`
}

type Day struct {
	Date       string `toml:"date" json:"date"`
	Title      string `toml:"title" json:"title"`
	Weather    int    `toml:"weather,omitempty" json:"weather,omitempty"`
	Attachment string `toml:"attachment,omitempty" json:"attachment,omitempty"`
	Items      []Item `toml:"items,omitempty" json:"items,omitempty"`
}

type Item struct {
	Title   string `toml:"title" json:"title"`
	Comment string `toml:"comment" json:"comment"`
}

func fromRecord(r *storage.Record) Day {
	d := Day{Date: r.Date, Title: r.Title, Weather: r.Weather, Attachment: r.Attachment}
	last := -1
	for i, it := range r.Items {
		if it != (storage.Item{}) {
			last = i
		}
	}
	for _, it := range r.Items[:last+1] {
		d.Items = append(d.Items, Item(it))
	}
	return d
}

func (d Day) record() (*storage.Record, error) {
	if _, err := time.Parse(storage.DateLayout, d.Date); err != nil {
		return nil, fmt.Errorf("%w: date %q: %v", ErrInvalidDay, d.Date, err)
	}
	if len(d.Items) > storage.ItemCount {
		return nil, fmt.Errorf("%w: %s has %d items, at most %d allowed", ErrInvalidDay, d.Date, len(d.Items), storage.ItemCount)
	}
	if err := validation.ValidateAttachment(d.Attachment); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDay, d.Date, err)
	}
	r := &storage.Record{Date: d.Date, Title: d.Title, Weather: d.Weather, Attachment: d.Attachment}
	for i, it := range d.Items {
		r.Items[i] = storage.Item(it)
	}
	return r, nil
}

// Write encodes records in the given format.
func Write(w io.Writer, format Format, records []*storage.Record) error {
	a := Archive{Version: Version, ExportedAt: time.Now().UTC().Truncate(time.Second)}
	for _, r := range records {
		a.Days = append(a.Days, fromRecord(r))
	}

	switch format {
	case FormatTOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(a)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	case FormatMarkdown:
		for i, r := range records {
			if i > 0 {
				if _, err := io.WriteString(w, "\n---\n\n"); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, Markdown(r)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Read decodes an archive and validates every day. Dates must be unique.
func Read(rd io.Reader, format Format) ([]*storage.Record, error) {
	var a Archive
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(rd)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return nil, fmt.Errorf("decoding toml archive: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(rd)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			return nil, fmt.Errorf("decoding json archive: %w", err)
		}
	case FormatMarkdown:
		return nil, fmt.Errorf("%w: %s", ErrExportOnly, format)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if a.Version > Version {
		return nil, fmt.Errorf("archive version %d is newer than supported version %d", a.Version, Version)
	}

	seen := make(map[string]bool, len(a.Days))
	records := make([]*storage.Record, 0, len(a.Days))
	for i, d := range a.Days {
		r, err := d.record()
		if err != nil {
			return nil, fmt.Errorf("day %d: %w", i+1, err)
		}
		if seen[r.Date] {
			return nil, fmt.Errorf("day %d: %w: duplicate date %s", i+1, ErrInvalidDay, r.Date)
		}
		seen[r.Date] = true
		records = append(records, r)
	}
	return records, nil
}

// ExportFile writes records to path, replacing any existing file only once
// the new content is complete.
func ExportFile(path string, format Format, records []*storage.Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".daybook-export-*")
	if err != nil {
		return fmt.Errorf("creating export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Write(tmp, format, records); err != nil {
		tmp.Close()
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ImportFile reads and validates the archive at path.
func ImportFile(path string, format Format) ([]*storage.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()
	return Read(f, format)
}
