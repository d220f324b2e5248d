package geocode

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/communitypulse/internal/cache"
	"github.com/rohankatakam/communitypulse/internal/config"
	"github.com/rohankatakam/communitypulse/internal/geo"
	"github.com/rohankatakam/communitypulse/internal/logging"
)

// nominatim serves Berlin and Paris, nothing else.
func nominatim(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/search", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Berlin, Germany":
			w.Write([]byte(`[{"place_id":1,"lat":"52.5170365","lon":"13.3888599","display_name":"Berlin"}]`))
		case "Paris":
			w.Write([]byte(`[{"place_id":2,"lat":"48.8588897","lon":"2.3200410","display_name":"Paris"}]`))
		case "unavailable":
			w.Write([]byte(`<html>backend unavailable</html>`))
		default:
			w.Write([]byte(`[]`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(endpoint string) config.GeocodingConfig {
	return config.GeocodingConfig{Endpoint: endpoint, Timeout: 5 * time.Second}
}

func TestBaseURL(t *testing.T) {
	t.Parallel()
	tests := []struct {
		endpoint string
		want     string
	}{
		{"https://nominatim.openstreetmap.org/", "https://nominatim.openstreetmap.org/"},
		{"https://nominatim.openstreetmap.org", "https://nominatim.openstreetmap.org/"},
		{"https://nominatim.openstreetmap.org/search", "https://nominatim.openstreetmap.org/"},
		{"http://localhost:8080/nominatim/search/", "http://localhost:8080/nominatim/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, baseURL(tt.endpoint), tt.endpoint)
	}
}

func TestNominatimGeocoder(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := nominatim(t, &calls)
	g := NewNominatimGeocoder(testConfig(srv.URL + "/search"))
	ctx := context.Background()

	c, err := g.Geocode(ctx, "Berlin, Germany")
	require.NoError(t, err)
	assert.InDelta(t, 52.5170365, c.Latitude(), 1e-9)
	assert.InDelta(t, 13.3888599, c.Longitude(), 1e-9)

	_, err = g.Geocode(ctx, "Atlantis")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = g.Geocode(ctx, "unavailable")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = g.Geocode(ctx, "   ")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, int64(3), g.Requests())
}

func TestNominatimGeocoderCancelled(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := nominatim(t, &calls)
	g := NewNominatimGeocoder(testConfig(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Geocode(ctx, "Paris")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNominatimGeocoderBudget(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := nominatim(t, &calls)

	cfg := testConfig(srv.URL)
	cfg.MaxRequests = 1
	g := NewNominatimGeocoder(cfg)

	_, err := g.Geocode(context.Background(), "Paris")
	require.NoError(t, err)
	_, err = g.Geocode(context.Background(), "Paris")
	assert.ErrorIs(t, err, ErrQuotaExhausted)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCachedGeocoder(t *testing.T) {
	t.Parallel()
	var calls atomic.Int32
	srv := nominatim(t, &calls)

	store, err := cache.OpenBolt(t.TempDir(), 0)
	require.NoError(t, err)
	defer store.Close()

	g := NewCachedGeocoder(NewNominatimGeocoder(testConfig(srv.URL)), store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c, err := g.Geocode(ctx, "Paris")
		require.NoError(t, err)
		assert.InDelta(t, 48.858890, c.Latitude(), 1e-6)
	}
	// normalized key shares the entry
	_, err = g.Geocode(ctx, "  paris ")
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())

	// negative answers are cached too
	for i := 0; i < 2; i++ {
		_, err = g.Geocode(ctx, "Atlantis")
		assert.ErrorIs(t, err, ErrNotFound)
	}
	assert.Equal(t, int32(2), calls.Load())

	// failures are not cached
	for i := 0; i < 2; i++ {
		_, err = g.Geocode(ctx, "unavailable")
		require.Error(t, err)
	}
	assert.Equal(t, int32(4), calls.Load())
}

type fakeGeocoder map[string]error

func (f fakeGeocoder) Geocode(_ context.Context, address string) (geo.Coordinate, error) {
	if err, ok := f[address]; ok {
		return geo.Coordinate{}, err
	}
	return geo.MustCoordinate(10, 20), nil
}

func TestResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	logger := logging.Discard()

	g := fakeGeocoder{
		"nowhere": ErrNotFound,
		"broken":  stderrors.New("boom"),
	}

	got, err := Resolve(ctx, g, []string{"", "1.5, 2.5", "Somewhere", "nowhere", "broken"}, logger)
	require.NoError(t, err)
	assert.Equal(t, []geo.Coordinate{geo.MustCoordinate(1.5, 2.5), geo.MustCoordinate(10, 20)}, got)

	got, err = Resolve(ctx, nil, []string{"-33.86;151.21", "Sydney"}, logger)
	require.NoError(t, err)
	assert.Equal(t, []geo.Coordinate{geo.MustCoordinate(-33.86, 151.21)}, got)

	// integer pairs are postcodes, not microdegrees
	got, err = Resolve(ctx, nil, []string{"10115 20095"}, logger)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Resolve(ctx, g, []string{"10115 20095"}, logger)
	require.NoError(t, err)
	assert.Equal(t, []geo.Coordinate{geo.MustCoordinate(10, 20)}, got)

	_, err = Resolve(ctx, fakeGeocoder{"x": ErrQuotaExhausted}, []string{"Somewhere", "x"}, logger)
	assert.ErrorIs(t, err, ErrQuotaExhausted)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Resolve(cancelled, g, []string{"Somewhere"}, logger)
	assert.ErrorIs(t, err, context.Canceled)
}
