package geocode

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/rohankatakam/communitypulse/internal/cache"
	"github.com/rohankatakam/communitypulse/internal/geo"
	"github.com/rohankatakam/communitypulse/internal/logging"
)

// CachedGeocoder remembers answers, including "not found", so a location
// shared by many members costs one lookup.
type CachedGeocoder struct {
	next   Geocoder
	store  cache.Store
	logger *slog.Logger
}

// NewCachedGeocoder wraps next with store.
func NewCachedGeocoder(next Geocoder, store cache.Store) *CachedGeocoder {
	return &CachedGeocoder{
		next:   next,
		store:  store,
		logger: logging.Component("geocode").With("cached", true),
	}
}

type cachedAnswer struct {
	Found      bool            `json:"found"`
	Coordinate *geo.Coordinate `json:"coordinate,omitempty"`
}

// Geocode answers from the cache or asks the wrapped geocoder. Cache
// failures degrade to uncached lookups.
func (c *CachedGeocoder) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	key := normalize(address)
	if key == "" {
		return geo.Coordinate{}, ErrNotFound
	}

	var answer cachedAnswer
	found, err := c.store.Get(ctx, cache.BucketGeocode, key, &answer)
	if err != nil {
		c.logger.Warn("geocode cache read failed", "key", key, "error", err)
	}
	if found {
		if !answer.Found || answer.Coordinate == nil {
			return geo.Coordinate{}, ErrNotFound
		}
		return *answer.Coordinate, nil
	}

	coord, err := c.next.Geocode(ctx, address)
	switch {
	case err == nil:
		answer = cachedAnswer{Found: true, Coordinate: &coord}
	case stderrors.Is(err, ErrNotFound):
		answer = cachedAnswer{Found: false}
	default:
		return geo.Coordinate{}, err
	}

	if err := c.store.Set(ctx, cache.BucketGeocode, key, answer); err != nil {
		c.logger.Warn("geocode cache write failed", "key", key, "error", err)
	}

	if !answer.Found {
		return geo.Coordinate{}, ErrNotFound
	}
	return coord, nil
}
