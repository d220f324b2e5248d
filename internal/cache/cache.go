// Package cache keeps JSON-encoded lookups (geocoder answers, GitHub user
// data) between runs. Entries live in named buckets and expire after a TTL.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/logging"
)

// Bucket names used across the repository.
const (
	BucketGeocode = "geocode"
	BucketUsers   = "users"
)

// Store is a bucketed key/value cache. Get reports a miss (false, nil) for
// absent and expired entries.
type Store interface {
	Get(ctx context.Context, bucket, key string, target any) (bool, error)
	Set(ctx context.Context, bucket, key string, value any) error
	Delete(ctx context.Context, bucket, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Key joins parts into a cache key: Key("followers", "octocat") = "followers:octocat".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// entry is the on-disk envelope for bolt values.
type entry struct {
	StoredAt time.Time       `json:"stored_at"`
	Value    json.RawMessage `json:"value"`
}

func (e entry) expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(e.StoredAt) > ttl
}

// Open returns the store selected by cfg. A disabled cache yields a Nop store.
func Open(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	if cfg.Disabled {
		return Nop{}, nil
	}

	switch cfg.Backend {
	case "", "bolt":
		if cfg.Directory == "" {
			logging.Component("cache").Warn("cache directory not set, caching disabled")
			return Nop{}, nil
		}
		return OpenBolt(cfg.Directory, cfg.TTL)
	case "redis":
		return NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.TTL)
	default:
		return nil, errors.ConfigErrorf("unknown cache backend %q", cfg.Backend)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, string, any) error         { return nil }
func (Nop) Delete(context.Context, string, string) error           { return nil }
func (Nop) Clear(context.Context) error                            { return nil }
func (Nop) Close() error                                           { return nil }
