package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the relational Repository. Text filtering uses instr() so it
// stays a literal, case-sensitive test like Record.Contains; LIKE would fold
// ASCII case.
type SQLiteStore struct {
	db *sql.DB

	mu        sync.RWMutex
	listeners []Listener
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	var cols strings.Builder
	for i := 1; i <= ItemCount; i++ {
		fmt.Fprintf(&cols, "\titem%d_title   TEXT NOT NULL DEFAULT '',\n", i)
		fmt.Fprintf(&cols, "\titem%d_comment TEXT NOT NULL DEFAULT '',\n", i)
	}
	schema := `
CREATE TABLE IF NOT EXISTS days (
	date       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	weather    INTEGER NOT NULL DEFAULT 0,
	attachment TEXT NOT NULL DEFAULT '',
` + cols.String() + `	updated_at TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
);

INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema', '` + schemaVersion + `');
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

var dayColumns = func() string {
	cols := []string{"date", "title", "weather", "attachment"}
	for i := 1; i <= ItemCount; i++ {
		cols = append(cols, fmt.Sprintf("item%d_title", i), fmt.Sprintf("item%d_comment", i))
	}
	cols = append(cols, "updated_at")
	return strings.Join(cols, ", ")
}()

// textColumns are the columns a search term is matched against.
var textColumns = func() []string {
	cols := []string{"title"}
	for i := 1; i <= ItemCount; i++ {
		cols = append(cols, fmt.Sprintf("item%d_title", i), fmt.Sprintf("item%d_comment", i))
	}
	return cols
}()

func (s *SQLiteStore) Save(ctx context.Context, records ...*Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 5+2*ItemCount), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO days ("+dayColumns+") VALUES ("+placeholders+")")
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, r := range records {
		if r.Date == "" {
			return fmt.Errorf("saving record: empty date")
		}
		r.UpdatedAt = now
		args := []any{r.Date, r.Title, r.Weather, r.Attachment}
		for _, it := range r.Items {
			args = append(args, it.Title, it.Comment)
		}
		args = append(args, r.UpdatedAt.Format(time.RFC3339Nano))
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("saving record %s: %w", r.Date, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, l := range s.snapshotListeners() {
		l.OnRecordsSaved(records)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, date string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+dayColumns+" FROM days WHERE date = ?", date)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", date, ErrNotFound)
	}
	return r, err
}

func (s *SQLiteStore) Delete(ctx context.Context, date string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM days WHERE date = ?", date)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", date, ErrNotFound)
	}
	for _, l := range s.snapshotListeners() {
		l.OnRecordDeleted(date)
	}
	return nil
}

func (s *SQLiteStore) All(ctx context.Context) ([]*Record, error) {
	return s.query(ctx, "SELECT "+dayColumns+" FROM days ORDER BY date DESC")
}

func (s *SQLiteStore) Count(ctx context.Context, q Query) (int, error) {
	where, args := whereClause(q)
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM days"+where, args...).Scan(&count)
	return count, err
}

func (s *SQLiteStore) Page(ctx context.Context, limit, offset int, q Query) ([]*Record, error) {
	if limit <= 0 {
		return []*Record{}, nil
	}
	where, args := whereClause(q)
	args = append(args, limit, offset)
	return s.query(ctx, "SELECT "+dayColumns+" FROM days"+where+" ORDER BY date DESC LIMIT ? OFFSET ?", args...)
}

func whereClause(q Query) (string, []any) {
	var conds []string
	var args []any
	if q.Before != "" {
		conds = append(conds, "date <= ?")
		args = append(args, q.Before)
	}
	if q.Term != "" {
		ors := make([]string, len(textColumns))
		for i, col := range textColumns {
			ors[i] = "instr(" + col + ", ?) > 0"
			args = append(args, q.Term)
		}
		conds = append(conds, "("+strings.Join(ors, " OR ")+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *SQLiteStore) query(ctx context.Context, query string, args ...any) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var r Record
	var updated string
	dest := []any{&r.Date, &r.Title, &r.Weather, &r.Attachment}
	for i := range r.Items {
		dest = append(dest, &r.Items[i].Title, &r.Items[i].Comment)
	}
	dest = append(dest, &updated)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if updated != "" {
		if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			r.UpdatedAt = t
		}
	}
	return &r, nil
}

func (s *SQLiteStore) snapshotListeners() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Listener(nil), s.listeners...)
}
