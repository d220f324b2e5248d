package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/rohankatakam/communitypulse/internal/logging"
)

// DBFileName is the bolt file created inside the cache directory.
const DBFileName = "cpulse-cache.db"

// BoltStore is a Store backed by a local bbolt file. Expired entries are
// skipped on read and overwritten on the next Set.
type BoltStore struct {
	db     *bolt.DB
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// OpenBolt opens (or creates) the cache file in dir.
func OpenBolt(dir string, ttl time.Duration) (*BoltStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	path := filepath.Join(dir, DBFileName)
	// Timeout keeps a second cpulse process from blocking forever on the file lock.
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", path, err)
	}

	logger := logging.Component("cache")
	logger.Debug("bolt cache opened", "path", path, "ttl", ttl)

	return &BoltStore{db: db, ttl: ttl, logger: logger, now: time.Now}, nil
}

// Get retrieves a cached value and unmarshals it into target.
func (s *BoltStore) Get(_ context.Context, bucket, key string, target any) (bool, error) {
	var e entry
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		data := b.Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return false, fmt.Errorf("cache get %s/%s: %w", bucket, key, err)
	}
	if !found || e.expired(s.now(), s.ttl) {
		s.logger.Debug("cache miss", "bucket", bucket, "key", key)
		return false, nil
	}

	if err := json.Unmarshal(e.Value, target); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached value for %s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("cache hit", "bucket", bucket, "key", key)
	return true, nil
}

// Set stores value under bucket/key.
func (s *BoltStore) Set(_ context.Context, bucket, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value for %s/%s: %w", bucket, key, err)
	}
	data, err := json.Marshal(entry{StoredAt: s.now().UTC(), Value: raw})
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), data)
	})
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *BoltStore) Delete(_ context.Context, bucket, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

// Clear drops every bucket.
func (s *BoltStore) Clear(_ context.Context) error {
	s.logger.Info("clearing bolt cache")
	return s.db.Update(func(tx *bolt.Tx) error {
		var names [][]byte
		if err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}
		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats reports the number of live entries per bucket.
func (s *BoltStore) Stats() (map[string]int, error) {
	stats := make(map[string]int)
	now := s.now()

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			n := 0
			err := b.ForEach(func(_, v []byte) error {
				var e entry
				if json.Unmarshal(v, &e) == nil && !e.expired(now, s.ttl) {
					n++
				}
				return nil
			})
			stats[string(name)] = n
			return err
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read cache stats: %w", err)
	}
	return stats, nil
}

// Path returns the bolt file location.
func (s *BoltStore) Path() string {
	return s.db.Path()
}

// Close closes the bolt file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
