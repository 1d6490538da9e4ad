package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pantherale0/Dispatcharr/internal/domain"
)

// Bucket and key names
var (
	bucketLogos = []byte("logos")

	keyCatalog   = []byte("catalog")
	keyFetchedAt = []byte("fetched_at")
)

// SnapshotStore implements domain.SnapshotStore using BoltDB. It keeps one
// catalog snapshot per server so the background populator can warm the
// in-memory cache without a network call on the next session.
type SnapshotStore struct {
	db *bolt.DB
}

// NewSnapshotStore opens (or creates) the snapshot database under
// baseCacheDir, namespaced by server URL. An empty baseCacheDir selects
// memory-only mode with no persistence.
func NewSnapshotStore(baseCacheDir, serverURL string) (*SnapshotStore, error) {
	if baseCacheDir == "" {
		return &SnapshotStore{}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "logos.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketLogos)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the persisted snapshot, if one exists
func (s *SnapshotStore) Get() ([]domain.Logo, bool) {
	if s.db == nil {
		return nil, false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLogos)
		if b == nil {
			return nil
		}
		if v := b.Get(keyCatalog); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return nil, false
	}

	var logos []domain.Logo
	if err := json.Unmarshal(data, &logos); err != nil {
		return nil, false
	}
	return logos, true
}

// Save replaces the snapshot and records the fetch time
func (s *SnapshotStore) Save(logos []domain.Logo) error {
	if s.db == nil {
		return nil
	}

	data, err := json.Marshal(logos)
	if err != nil {
		return err
	}
	ts, err := json.Marshal(time.Now().Unix())
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLogos)
		if err := b.Put(keyCatalog, data); err != nil {
			return err
		}
		return b.Put(keyFetchedAt, ts)
	})
}

// IsFresh reports whether the snapshot was saved within maxAge
func (s *SnapshotStore) IsFresh(maxAge time.Duration) bool {
	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLogos)
		if b == nil {
			return nil
		}
		if v := b.Get(keyFetchedAt); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	var fetchedAt int64
	if err := json.Unmarshal(data, &fetchedAt); err != nil {
		return false
	}
	return time.Since(time.Unix(fetchedAt, 0)) <= maxAge
}

// Invalidate removes the snapshot
func (s *SnapshotStore) Invalidate() {
	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketLogos)
		if b == nil {
			return nil
		}
		if err := b.Delete(keyCatalog); err != nil {
			return err
		}
		return b.Delete(keyFetchedAt)
	})
}
