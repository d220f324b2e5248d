package characteristics

import (
	"sync/atomic"

	"github.com/rohankatakam/communitypulse/internal/errors"
	"github.com/rohankatakam/communitypulse/internal/geo"
	"github.com/rohankatakam/communitypulse/internal/models"
	"github.com/rohankatakam/communitypulse/internal/stats"
)

const metersPerKilometer = 1000.0

// ComputeDispersion is the mean pairwise ellipsoidal distance between the
// members' coordinates, in kilometers. A pair on which Vincenty does not
// converge is measured with the haversine distance instead and counted in
// VincentyFallbacks.
func ComputeDispersion(b *models.Bundle) (float64, models.DispersionMetrics, error) {
	var m models.DispersionMetrics
	m.Coordinates = len(b.Coordinates)

	var fallbacks atomic.Int64
	distance := func(x, y geo.Coordinate) (float64, error) {
		d, err := geo.VincentyDistance(x, y)
		if errors.Is(err, errors.ErrDidNotConverge) {
			fallbacks.Add(1)
			return geo.SphericalDistance(x, y), nil
		}
		return d, err
	}

	means, err := geo.PerCoordinateMeans(b.Coordinates, distance)
	if err != nil {
		return 0, m, err
	}
	for i := range means {
		means[i] /= metersPerKilometer
	}

	// every pair is visited from both ends
	m.VincentyFallbacks = int(fallbacks.Load() / 2)

	if m.MeanGeographicalDistance, err = stats.Mean(means); err != nil {
		return 0, m, err
	}
	if m.VarianceGeographicalDistance, err = stats.Variance(means); err != nil {
		return 0, m, err
	}
	q1, q2, q3, err := stats.Quartiles(means)
	if err != nil {
		return 0, m, err
	}
	m.DistanceQuartiles = [3]float64{q1, q2, q3}

	return m.MeanGeographicalDistance, m, nil
}
