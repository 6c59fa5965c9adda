package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketSlots  = []byte("slots")
	bucketCovers = []byte("covers")
)

const dbFileName = "shelf.db"

// Store implements domain.Storage and domain.CoverCache using BoltDB.
type Store struct {
	db     *bolt.DB
	mu     sync.RWMutex // Protects memory cache and closed
	closed bool

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var (
	_ domain.Storage    = (*Store)(nil)
	_ domain.CoverCache = (*Store)(nil)
)

// New opens (or creates) the database under dir.
// An empty dir selects memory-only mode (no persistence).
func New(dir string) (*Store, error) {
	if dir == "" {
		return &Store{cache: make(map[string][]byte)}, nil
	}

	dir = expandHome(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFileName)
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSlots, bucketCovers} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, cache: make(map[string][]byte)}, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// Path returns the database file path, or "" in memory-only mode.
func (s *Store) Path() string {
	if s.db == nil {
		return ""
	}
	return s.db.Path()
}

func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *Store) get(bucket []byte, key string) ([]byte, bool, error) {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, false, domain.ErrStorageClosed
	}
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return cloneBytes(data), true, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, false, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = cloneBytes(v)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", cacheKey, err)
	}

	if data == nil {
		return nil, false, nil
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return cloneBytes(data), true, nil
}

func (s *Store) set(bucket []byte, key string, value []byte) error {
	cacheKey := string(bucket) + ":" + key
	data := cloneBytes(value)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrStorageClosed
	}
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
	if err != nil {
		// Keep the cache consistent with what is on disk
		s.mu.Lock()
		delete(s.cache, cacheKey)
		s.mu.Unlock()
		return fmt.Errorf("failed to write %s: %w", cacheKey, err)
	}
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// === Slots ===

// Get returns the payload stored under key.
func (s *Store) Get(key string) ([]byte, bool, error) {
	return s.get(bucketSlots, key)
}

// Put replaces the payload stored under key.
func (s *Store) Put(key string, data []byte) error {
	return s.set(bucketSlots, key, data)
}

// === Covers (key: {coverID}-{size}) ===

func coverKey(coverID string, size domain.CoverSize) string {
	return coverID + "-" + string(size)
}

// GetCover returns a previously confirmed cover URL.
func (s *Store) GetCover(coverID string, size domain.CoverSize) (string, bool) {
	data, ok, err := s.get(bucketCovers, coverKey(coverID, size))
	if err != nil || !ok {
		return "", false
	}
	return string(data), true
}

// SaveCover remembers a confirmed cover URL.
func (s *Store) SaveCover(coverID string, size domain.CoverSize, url string) error {
	return s.set(bucketCovers, coverKey(coverID, size), []byte(url))
}

// InvalidateCovers wipes every cached cover URL.
func (s *Store) InvalidateCovers() error {
	s.mu.Lock()
	prefix := string(bucketCovers) + ":"
	for k := range s.cache {
		if strings.HasPrefix(k, prefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCovers)
		if b == nil {
			return nil
		}
		var keys [][]byte
		c := b.Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, cloneBytes(k))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}
