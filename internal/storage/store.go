package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	daysBucket = []byte("days")
	metaBucket = []byte("metadata")
	schemaKey  = []byte("schema")
)

const schemaVersion = "1"

var ErrNotFound = errors.New("record not found")

// Repository is the read/write surface shared by the on-disk stores.
type Repository interface {
	Save(ctx context.Context, records ...*Record) error
	Get(ctx context.Context, date string) (*Record, error)
	Delete(ctx context.Context, date string) error
	All(ctx context.Context) ([]*Record, error)
	Count(ctx context.Context, q Query) (int, error)
	Page(ctx context.Context, limit, offset int, q Query) ([]*Record, error)
	AddListener(l Listener)
	Close() error
}

// Store keeps one JSON document per day in a bbolt bucket keyed by date, so a
// reverse cursor walk yields records newest first without sorting.
type Store struct {
	db *bolt.DB

	mu        sync.RWMutex
	listeners []Listener
}

func NewStore(dbPath string) (*Store, error) {
	return OpenStore(dbPath, 1*time.Second)
}

func OpenStore(dbPath string, timeout time.Duration) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{daysBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		meta := tx.Bucket(metaBucket)
		if meta.Get(schemaKey) == nil {
			return meta.Put(schemaKey, []byte(schemaVersion))
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) Save(ctx context.Context, records ...*Record) error {
	if len(records) == 0 {
		return nil
	}
	now := time.Now()
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(daysBucket)
		for _, r := range records {
			if err := ctx.Err(); err != nil {
				return err
			}
			if r.Date == "" {
				return fmt.Errorf("saving record: empty date")
			}
			r.UpdatedAt = now
			data, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encoding record %s: %w", r.Date, err)
			}
			if err := b.Put([]byte(r.Date), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, l := range s.snapshotListeners() {
		l.OnRecordsSaved(records)
	}
	return nil
}

func (s *Store) Get(_ context.Context, date string) (*Record, error) {
	var rec Record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(daysBucket).Get([]byte(date))
		if data == nil {
			return fmt.Errorf("%s: %w", date, ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Delete(_ context.Context, date string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(daysBucket)
		if b.Get([]byte(date)) == nil {
			return fmt.Errorf("%s: %w", date, ErrNotFound)
		}
		return b.Delete([]byte(date))
	})
	if err != nil {
		return err
	}
	for _, l := range s.snapshotListeners() {
		l.OnRecordDeleted(date)
	}
	return nil
}

// All returns every record, newest first.
func (s *Store) All(ctx context.Context) ([]*Record, error) {
	var records []*Record
	err := s.walk(ctx, Query{}, func(r *Record) bool {
		records = append(records, r)
		return true
	})
	return records, err
}

func (s *Store) Count(ctx context.Context, q Query) (int, error) {
	if q == (Query{}) {
		var n int
		err := s.db.View(func(tx *bolt.Tx) error {
			n = tx.Bucket(daysBucket).Stats().KeyN
			return nil
		})
		return n, err
	}
	n := 0
	err := s.walk(ctx, q, func(*Record) bool {
		n++
		return true
	})
	return n, err
}

// Page returns up to limit records admitted by q, newest first, skipping the
// first offset matches.
func (s *Store) Page(ctx context.Context, limit, offset int, q Query) ([]*Record, error) {
	if limit <= 0 {
		return []*Record{}, nil
	}
	records := make([]*Record, 0, limit)
	skipped := 0
	err := s.walk(ctx, q, func(r *Record) bool {
		if skipped < offset {
			skipped++
			return true
		}
		records = append(records, r)
		return len(records) < limit
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// walk visits admitted records from the upper bound downwards until fn
// returns false.
func (s *Store) walk(ctx context.Context, q Query, fn func(*Record) bool) error {
	return s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(daysBucket).Cursor()

		var k, v []byte
		if q.Before != "" {
			k, v = c.Seek([]byte(q.Before))
			switch {
			case k == nil:
				k, v = c.Last()
			case string(k) > q.Before:
				k, v = c.Prev()
			}
		} else {
			k, v = c.Last()
		}

		for n := 0; k != nil; k, v = c.Prev() {
			if n++; n%256 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decoding record %s: %w", k, err)
			}
			if !q.Admits(&rec) {
				continue
			}
			if !fn(&rec) {
				return nil
			}
		}
		return ctx.Err()
	})
}

func (s *Store) snapshotListeners() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Listener(nil), s.listeners...)
}
