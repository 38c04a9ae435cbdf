package llmcall

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var callsBucket = []byte("calls")

// ErrNotFound is returned by Get for an unknown ID.
var ErrNotFound = errors.New("llm call not found")

// Store persists calls in a BoltDB file. Keys are the big-endian call
// timestamp followed by the call ID, so a cursor walks calls in time order.
type Store struct {
	path string
	db   *bolt.DB
	mu   sync.RWMutex
}

// QueryFilter specifies filters for listing LLM calls.
type QueryFilter struct {
	RunID     string
	Entry     string
	PromptKey string
	Success   *bool
	After     *time.Time
	Limit     int
}

func (f QueryFilter) matches(c *Call) bool {
	if f.RunID != "" && c.RunID != f.RunID {
		return false
	}
	if f.Entry != "" && c.Entry != f.Entry {
		return false
	}
	if f.PromptKey != "" && c.PromptKey != f.PromptKey {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	return true
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory for call store: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open call store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(callsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &Store{path: path, db: db}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func callKey(c *Call) []byte {
	key := make([]byte, 8, 8+len(c.ID))
	binary.BigEndian.PutUint64(key, uint64(c.Timestamp.UnixNano()))
	return append(key, c.ID...)
}

// Put stores a call.
func (s *Store) Put(c *Call) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal call: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(callsBucket).Put(callKey(c), data)
	})
}

// Get retrieves a single call by ID.
func (s *Store) Get(id string) (*Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found *Call
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(callsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if string(k[8:]) != id {
				continue
			}
			var call Call
			if err := json.Unmarshal(v, &call); err != nil {
				return fmt.Errorf("failed to decode call %s: %w", id, err)
			}
			found = &call
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return found, nil
}

// List returns calls matching filter, newest first.
func (s *Store) List(filter QueryFilter) ([]*Call, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var calls []*Call
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(callsBucket).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var call Call
			if err := json.Unmarshal(v, &call); err != nil {
				return fmt.Errorf("failed to decode call: %w", err)
			}
			if !filter.matches(&call) {
				continue
			}
			calls = append(calls, &call)
			if filter.Limit > 0 && len(calls) >= filter.Limit {
				return nil
			}
		}
		return nil
	})
	return calls, err
}

// Count returns the number of stored calls.
func (s *Store) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(callsBucket).Stats().KeyN
		return nil
	})
	return n, err
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
