// Package geocode turns free-form profile locations ("Berlin, Germany") into
// coordinates.
package geocode

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/rohankatakam/communitypulse/internal/geo"
	"github.com/rohankatakam/communitypulse/internal/logging"
)

var (
	// ErrNotFound means the provider has no match for the address.
	ErrNotFound = stderrors.New("geocode: address not found")

	// ErrQuotaExhausted means the request budget for this run is spent.
	// Every further lookup would fail too, so callers abort instead of skipping.
	ErrQuotaExhausted = stderrors.New("geocode: request quota exhausted")
)

// Geocoder resolves an address to a coordinate.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Coordinate, error)
}

// normalize is the cache and comparison form of an address.
func normalize(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Resolve returns the coordinates of the locations that resolve, in input
// order. Literal decimal "lat,lon" strings are parsed without a lookup. Locations
// that fail to resolve are skipped; only quota exhaustion and cancellation
// abort. g may be nil, in which case only literal coordinates are used.
func Resolve(ctx context.Context, g Geocoder, locations []string, logger *slog.Logger) ([]geo.Coordinate, error) {
	if logger == nil {
		logger = logging.Component("geocode")
	}

	coords := make([]geo.Coordinate, 0, len(locations))
	skipped := 0

	for _, loc := range locations {
		loc = strings.TrimSpace(loc)
		if loc == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if c, err := geo.ParseDecimalCoordinate(loc); err == nil {
			coords = append(coords, c)
			continue
		}
		if g == nil {
			skipped++
			continue
		}

		c, err := g.Geocode(ctx, loc)
		switch {
		case err == nil:
			coords = append(coords, c)
		case stderrors.Is(err, ErrQuotaExhausted),
			stderrors.Is(err, context.Canceled),
			stderrors.Is(err, context.DeadlineExceeded):
			return nil, err
		case stderrors.Is(err, ErrNotFound):
			skipped++
			logger.Debug("location not found", "location", loc)
		default:
			skipped++
			logger.Warn("could not geocode location", "location", loc, "error", err)
		}
	}

	if skipped > 0 {
		logger.Debug("locations skipped", "skipped", skipped, "resolved", len(coords))
	}
	return coords, nil
}
