// Package geo holds the coordinate value type and the geodesic distance
// functions used to measure how dispersed a community is.
package geo

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/rohankatakam/communitypulse/internal/errors"
)

const (
	LatitudeMin  = -90.0
	LatitudeMax  = 90.0
	LongitudeMin = -180.0
	LongitudeMax = 180.0

	// microdegreeFactor converts microdegrees to degrees.
	microdegreeFactor = 1e6
)

// Coordinate is an immutable WGS84 latitude/longitude pair in degrees.
// Build it with NewCoordinate so the ranges are validated.
type Coordinate struct {
	lat float64
	lon float64
}

// NewCoordinate validates latitude ∈ [-90, 90] and longitude ∈ [-180, 180].
func NewCoordinate(latitude, longitude float64) (Coordinate, error) {
	if latitude < LatitudeMin || latitude > LatitudeMax || math.IsNaN(latitude) {
		return Coordinate{}, errors.InvalidCoordinateErrorf("invalid latitude value: %v", latitude)
	}
	if longitude < LongitudeMin || longitude > LongitudeMax || math.IsNaN(longitude) {
		return Coordinate{}, errors.InvalidCoordinateErrorf("invalid longitude value: %v", longitude)
	}
	return Coordinate{lat: latitude, lon: longitude}, nil
}

// MustCoordinate is NewCoordinate for literals known to be valid.
func MustCoordinate(latitude, longitude float64) Coordinate {
	c, err := NewCoordinate(latitude, longitude)
	if err != nil {
		panic(err)
	}
	return c
}

// Latitude returns the latitude in degrees.
func (c Coordinate) Latitude() float64 { return c.lat }

// Longitude returns the longitude in degrees.
func (c Coordinate) Longitude() float64 { return c.lon }

// Equal reports whether both components are identical.
func (c Coordinate) Equal(other Coordinate) bool {
	return c.lat == other.lat && c.lon == other.lon
}

// Compare orders by latitude, then longitude.
func (c Coordinate) Compare(other Coordinate) int {
	if r := cmp.Compare(c.lat, other.lat); r != 0 {
		return r
	}
	return cmp.Compare(c.lon, other.lon)
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.lat, c.lon)
}

// MarshalText renders "lat,lon" so coordinates survive JSON snapshots.
func (c Coordinate) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses "lat,lon" with range validation.
func (c *Coordinate) UnmarshalText(text []byte) error {
	parsed, err := ParseCoordinate(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// SortCoordinates sorts in place by Compare.
func SortCoordinates(coords []Coordinate) {
	slices.SortFunc(coords, Coordinate.Compare)
}

var (
	latLonSeparator = regexp.MustCompile(`[,;:\s]+`)
	wktPointPattern = regexp.MustCompile(`POINT\s?\(\s*(-?[\d.]+)\s+(-?[\d.]+)\s*\)`)
)

// ParseCoordinate reads "lat,lon" (';', ':' and whitespace also separate).
// Values outside the degree ranges are retried as microdegrees.
func ParseCoordinate(s string) (Coordinate, error) {
	parts, err := latLonParts(s)
	if err != nil {
		return Coordinate{}, err
	}
	lat, lon, err := parseLatLon(parts)
	if err != nil {
		return Coordinate{}, err
	}

	if c, err := NewCoordinate(lat, lon); err == nil {
		return c, nil
	}
	return NewCoordinate(lat/microdegreeFactor, lon/microdegreeFactor)
}

// ParseDecimalCoordinate is the strict reading for free-form text such as a
// profile location. Both values must carry a decimal point and no microdegree
// retry is made, so a pair of postcodes like "10115 20095" is rejected.
func ParseDecimalCoordinate(s string) (Coordinate, error) {
	parts, err := latLonParts(s)
	if err != nil {
		return Coordinate{}, err
	}
	for _, p := range parts {
		if !strings.Contains(p, ".") {
			return Coordinate{}, errors.InvalidCoordinateErrorf("cannot read coordinate %q: %q has no decimal point", s, p)
		}
	}
	lat, lon, err := parseLatLon(parts)
	if err != nil {
		return Coordinate{}, err
	}
	return NewCoordinate(lat, lon)
}

func latLonParts(s string) ([]string, error) {
	parts := latLonSeparator.Split(strings.TrimSpace(s), -1)
	if len(parts) != 2 {
		return nil, errors.InvalidCoordinateErrorf("cannot read coordinate %q: not a valid format", s)
	}
	return parts, nil
}

func parseLatLon(parts []string) (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, errors.InvalidCoordinateErrorf("cannot read latitude %q", parts[0])
	}
	lon, err = strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, errors.InvalidCoordinateErrorf("cannot read longitude %q", parts[1])
	}
	return lat, lon, nil
}

// ParseWKTPoint reads a Well-Known-Text point, e.g. "POINT(13.4125 52.52235)".
// WKT orders the point as longitude then latitude.
func ParseWKTPoint(wkt string) (Coordinate, error) {
	m := wktPointPattern.FindStringSubmatch(wkt)
	if m == nil {
		return Coordinate{}, errors.InvalidCoordinateErrorf("not a WKT point: %q", wkt)
	}

	lon, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coordinate{}, errors.InvalidCoordinateErrorf("cannot read longitude %q", m[1])
	}
	lat, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Coordinate{}, errors.InvalidCoordinateErrorf("cannot read latitude %q", m[2])
	}

	return NewCoordinate(lat, lon)
}
