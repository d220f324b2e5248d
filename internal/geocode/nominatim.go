package geocode

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	geogolang "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
	"golang.org/x/time/rate"

	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/geo"
	"github.com/rohankatakam/communitypulse/internal/logging"
)

// NominatimGeocoder resolves addresses through an OpenStreetMap Nominatim
// server. Lookups are throttled and counted against a per-run budget.
type NominatimGeocoder struct {
	provider    geogolang.Geocoder
	timeout     time.Duration
	limiter     *rate.Limiter
	maxRequests int64
	requests    atomic.Int64
	logger      *slog.Logger
}

// NewNominatimGeocoder creates a geocoder from configuration.
func NewNominatimGeocoder(cfg config.GeocodingConfig) *NominatimGeocoder {
	limit := rate.Limit(cfg.RateLimit)
	if cfg.RateLimit <= 0 {
		limit = rate.Inf
	}

	return &NominatimGeocoder{
		provider:    openstreetmap.GeocoderWithURL(baseURL(cfg.Endpoint)),
		timeout:     cfg.Timeout,
		limiter:     rate.NewLimiter(limit, 1),
		maxRequests: int64(cfg.MaxRequests),
		logger:      logging.Component("geocode"),
	}
}

// baseURL turns "https://host/search" or "https://host" into "https://host/".
func baseURL(endpoint string) string {
	base := strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	base = strings.TrimSuffix(base, "/search")
	return base + "/"
}

type lookup struct {
	loc *geogolang.Location
	err error
}

// Geocode looks up the first match for address.
func (g *NominatimGeocoder) Geocode(ctx context.Context, address string) (geo.Coordinate, error) {
	if normalize(address) == "" {
		return geo.Coordinate{}, ErrNotFound
	}
	if g.maxRequests > 0 && g.requests.Add(1) > g.maxRequests {
		return geo.Coordinate{}, ErrQuotaExhausted
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return geo.Coordinate{}, fmt.Errorf("rate limiter: %w", err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	// The provider has no context parameter; a cancelled caller stops
	// waiting and the provider's own timeout ends the request.
	done := make(chan lookup, 1)
	start := time.Now()
	go func() {
		loc, err := g.provider.Geocode(address)
		done <- lookup{loc: loc, err: err}
	}()

	var res lookup
	select {
	case <-ctx.Done():
		return geo.Coordinate{}, ctx.Err()
	case res = <-done:
	}

	g.logger.Debug("geocode request",
		"found", res.loc != nil,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case stderrors.Is(res.err, geogolang.ErrTimeout):
		return geo.Coordinate{}, errors.NetworkError(res.err, "geocode request timed out")
	case res.err != nil:
		return geo.Coordinate{}, errors.ExternalErrorf(res.err, "geocode %q", address)
	case res.loc == nil:
		return geo.Coordinate{}, ErrNotFound
	}
	return geo.NewCoordinate(res.loc.Lat, res.loc.Lng)
}

// Requests reports how many uncached lookups were attempted.
func (g *NominatimGeocoder) Requests() int64 {
	return g.requests.Load()
}
