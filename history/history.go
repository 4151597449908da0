// Package history persists recent transcriptions in a local Badger store.
package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// DefaultTTL is how long transcripts are retained before Badger expires
// them.
const DefaultTTL = 30 * 24 * time.Hour

const keyPrefix = "transcript/"

// Entry is one stored transcription.
type Entry struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	AudioSeconds float64   `json:"audio_seconds,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store wraps the Badger database holding transcript entries.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// Open creates or opens a store at path. An empty path opens an
// in-memory store, useful for tests and for running without persistence.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return &Store{db: db, ttl: DefaultTTL}, nil
}

// SetTTL overrides the retention period for subsequently added entries.
func (s *Store) SetTTL(ttl time.Duration) {
	if ttl > 0 {
		s.ttl = ttl
	}
}

// Add stores a transcription and returns the created entry.
func (s *Store) Add(text string, audioSeconds float64) (*Entry, error) {
	e := &Entry{
		ID:           uuid.NewString(),
		Text:         text,
		AudioSeconds: audioSeconds,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal entry: %w", err)
	}

	// Keys sort by creation time so Recent can iterate in reverse.
	key := []byte(keyPrefix + e.CreatedAt.Format(time.RFC3339Nano) + "/" + e.ID)

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, data).WithTTL(s.ttl))
	})
	if err != nil {
		return nil, fmt.Errorf("store entry: %w", err)
	}
	return e, nil
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}

	prefix := []byte(keyPrefix)
	entries := make([]Entry, 0, n)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// Seek past the last possible key in the prefix range.
		seek := append(append([]byte{}, prefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(entries) < n; it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("unmarshal entry: %w", err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
