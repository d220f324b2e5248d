package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohankatakam/communitypulse/internal/errors"
)

func TestNewCoordinateValidatesRanges(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{name: "origin", lat: 0, lon: 0},
		{name: "north_pole", lat: 90, lon: 180},
		{name: "south_west", lat: -90, lon: -180},
		{name: "lat_too_high", lat: 90.0001, lon: 0, wantErr: true},
		{name: "lat_too_low", lat: -91, lon: 0, wantErr: true},
		{name: "lon_too_high", lat: 0, lon: 181, wantErr: true},
		{name: "nan", lat: math.NaN(), lon: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewCoordinate(tt.lat, tt.lon)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.lat, c.Latitude())
			assert.Equal(t, tt.lon, c.Longitude())
		})
	}
}

func TestCompareAndSort(t *testing.T) {
	t.Parallel()

	coords := []Coordinate{
		MustCoordinate(10, 5),
		MustCoordinate(-3, 40),
		MustCoordinate(10, -5),
	}
	SortCoordinates(coords)

	assert.Equal(t, []Coordinate{
		MustCoordinate(-3, 40),
		MustCoordinate(10, -5),
		MustCoordinate(10, 5),
	}, coords)
	assert.True(t, MustCoordinate(1, 2).Equal(MustCoordinate(1, 2)))
	assert.Equal(t, 0, MustCoordinate(1, 2).Compare(MustCoordinate(1, 2)))
}

func TestSphericalDistance(t *testing.T) {
	t.Parallel()

	a := MustCoordinate(52.52, 13.405)
	b := MustCoordinate(48.8566, 2.3522)

	assert.Equal(t, 0.0, SphericalDistance(a, a))
	assert.InDelta(t, SphericalDistance(a, b), SphericalDistance(b, a), 1e-9)
	assert.Greater(t, SphericalDistance(a, b), 0.0)

	// one degree of longitude on the equator of a sphere with the equatorial radius
	assert.InDelta(t, 111319.49, SphericalDistance(MustCoordinate(0, 0), MustCoordinate(0, 1)), 0.5)
}

func TestVincentyDistance(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		a, b     Coordinate
		expected float64
		delta    float64
	}{
		// One equatorial degree on WGS-84 is 111,319.49 m. The often quoted
		// 111,195 m is the mean-radius sphere (6371 km), not the ellipsoid.
		{name: "equator_one_degree", a: MustCoordinate(0, 0), b: MustCoordinate(0, 1), expected: 111319.49, delta: 1},
		{name: "meridian_one_degree", a: MustCoordinate(0, 0), b: MustCoordinate(1, 0), expected: 110574.39, delta: 1},
		{name: "flinders_peak_buninyong", a: MustCoordinate(-37.95103, 144.42487), b: MustCoordinate(-37.65282, 143.92650), expected: 54972.0, delta: 1},
		{name: "coincident", a: MustCoordinate(12.5, -7.25), b: MustCoordinate(12.5, -7.25), expected: 0, delta: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := VincentyDistance(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, tt.delta)

			back, err := VincentyDistance(tt.b, tt.a)
			require.NoError(t, err)
			assert.InDelta(t, got, back, 1e-6)
		})
	}
}

func TestVincentyNearAntipodalDoesNotConverge(t *testing.T) {
	t.Parallel()

	_, err := VincentyDistance(MustCoordinate(0, 0), MustCoordinate(0.5, 179.7))
	assert.ErrorIs(t, err, errors.ErrDidNotConverge)
}

func TestMeanPairwiseDistance(t *testing.T) {
	t.Parallel()

	coords := []Coordinate{MustCoordinate(0, 0), MustCoordinate(0, 1), MustCoordinate(1, 0)}

	got, err := MeanPairwiseDistance(coords, Vincenty)
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.False(t, math.IsInf(got, 0) || math.IsNaN(got))
	assert.InDelta(t, 126264.5, got, 1)

	means, err := PerCoordinateMeans(coords, Vincenty)
	require.NoError(t, err)
	require.Len(t, means, 3)
	assert.InDelta(t, 110946.94, means[0], 1)
}

func TestMeanPairwiseDistanceNeedsTwo(t *testing.T) {
	t.Parallel()

	_, err := MeanPairwiseDistance([]Coordinate{MustCoordinate(0, 0)}, Spherical)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)

	_, err = MeanPairwiseDistance(nil, Spherical)
	assert.ErrorIs(t, err, errors.ErrEmptyInput)
}

func TestMeanPairwiseDistanceIndependentOfPartitioning(t *testing.T) {
	t.Parallel()

	// enough rows to split across several workers
	var coords []Coordinate
	for i := 0; i < 300; i++ {
		coords = append(coords, MustCoordinate(float64(i%170)-85, float64(i*7%360)-180))
	}

	parallel, err := PerCoordinateMeans(coords, Spherical)
	require.NoError(t, err)

	for i := range coords {
		var sum float64
		for j := range coords {
			if i != j {
				sum += SphericalDistance(coords[i], coords[j])
			}
		}
		assert.Equal(t, sum/float64(len(coords)-1), parallel[i])
	}
}

func TestMeanPairwiseDistancePropagatesErrors(t *testing.T) {
	t.Parallel()

	coords := []Coordinate{MustCoordinate(0, 0), MustCoordinate(0.5, 179.7)}
	_, err := MeanPairwiseDistance(coords, Vincenty)
	assert.ErrorIs(t, err, errors.ErrDidNotConverge)
}

func TestParseCoordinate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		lat, lon float64
		wantErr  bool
	}{
		{in: "52.52,13.405", lat: 52.52, lon: 13.405},
		{in: "52.52; 13.405", lat: 52.52, lon: 13.405},
		{in: "-33.86:151.2", lat: -33.86, lon: 151.2},
		{in: "  40.7 -74.0 ", lat: 40.7, lon: -74.0},
		{in: "52520000,13405000", lat: 52.52, lon: 13.405},
		{in: "Berlin, Germany", wantErr: true},
		{in: "1,2,3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			c, err := ParseCoordinate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, c.Latitude(), 1e-9)
			assert.InDelta(t, tt.lon, c.Longitude(), 1e-9)
		})
	}
}

func TestParseDecimalCoordinate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in       string
		lat, lon float64
		wantErr  bool
	}{
		{in: "52.52,13.405", lat: 52.52, lon: 13.405},
		{in: "-33.86;151.21", lat: -33.86, lon: 151.21},
		{in: "1.5, 2.5", lat: 1.5, lon: 2.5},
		{in: "10115 20095", wantErr: true},
		{in: "52520000,13405000", wantErr: true},
		{in: "52.52, 13", wantErr: true},
		{in: "152.5, 13.4", wantErr: true},
		{in: "Berlin, Germany", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			c, err := ParseDecimalCoordinate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidCoordinate)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.lat, c.Latitude(), 1e-9)
			assert.InDelta(t, tt.lon, c.Longitude(), 1e-9)
		})
	}
}

func TestParseWKTPoint(t *testing.T) {
	t.Parallel()

	c, err := ParseWKTPoint("SRID=4326;POINT(13.4125 52.52235)")
	require.NoError(t, err)
	assert.InDelta(t, 52.52235, c.Latitude(), 1e-9)
	assert.InDelta(t, 13.4125, c.Longitude(), 1e-9)

	_, err = ParseWKTPoint("LINESTRING(0 0, 1 1)")
	assert.ErrorIs(t, err, errors.ErrInvalidCoordinate)
}

func TestCoordinateJSONRoundTrip(t *testing.T) {
	t.Parallel()

	in := []Coordinate{MustCoordinate(1.5, -2.25)}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `["1.500000,-2.250000"]`, string(data))

	var out []Coordinate
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, in[0].Equal(out[0]))
}
