package geo

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rohankatakam/communitypulse/internal/errors"
)

// WGS84 ellipsoid parameters.
const (
	EquatorialRadius  = 6378137.0
	PolarRadius       = 6356752.3142
	InverseFlattening = 298.257223563

	vincentyTolerance     = 1e-12
	vincentyMaxIterations = 100
)

// DistanceFunc returns the distance in meters between two coordinates.
type DistanceFunc func(a, b Coordinate) (float64, error)

// Spherical adapts SphericalDistance to DistanceFunc.
func Spherical(a, b Coordinate) (float64, error) {
	return SphericalDistance(a, b), nil
}

// Vincenty adapts VincentyDistance to DistanceFunc.
func Vincenty(a, b Coordinate) (float64, error) {
	return VincentyDistance(a, b)
}

// SphericalDistance is the haversine distance in meters on a sphere of
// radius EquatorialRadius.
func SphericalDistance(a, b Coordinate) float64 {
	dLat := toRadians(b.lat - a.lat)
	dLon := toRadians(b.lon - a.lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.lat))*math.Cos(toRadians(b.lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair above 1 for antipodal points
	h = math.Min(1, math.Max(0, h))

	return 2 * EquatorialRadius * math.Asin(math.Sqrt(h))
}

// VincentyDistance is the inverse Vincenty geodesic distance in meters on
// the WGS84 ellipsoid. Coincident points return 0. If the reduced longitude
// difference has not settled below 1e-12 after 100 iterations the function
// returns errors.ErrDidNotConverge instead of a distance.
func VincentyDistance(a, b Coordinate) (float64, error) {
	const f = 1 / InverseFlattening

	L := toRadians(b.lon - a.lon)
	U1 := math.Atan((1 - f) * math.Tan(toRadians(a.lat)))
	U2 := math.Atan((1 - f) * math.Tan(toRadians(b.lat)))
	sinU1, cosU1 := math.Sin(U1), math.Cos(U1)
	sinU2, cosU2 := math.Sin(U2), math.Cos(U2)

	lambda := L
	var sinSigma, cosSigma, sigma, cosSqAlpha, cos2SigmaM float64

	converged := false
	for i := 0; i < vincentyMaxIterations; i++ {
		sinLambda, cosLambda := math.Sin(lambda), math.Cos(lambda)

		sinSigma = math.Sqrt((cosU2*sinLambda)*(cosU2*sinLambda) +
			(cosU1*sinU2-sinU1*cosU2*cosLambda)*(cosU1*sinU2-sinU1*cosU2*cosLambda))
		if sinSigma == 0 {
			return 0, nil
		}

		cosSigma = sinU1*sinU2 + cosU1*cosU2*cosLambda
		sigma = math.Atan2(sinSigma, cosSigma)
		sinAlpha := cosU1 * cosU2 * sinLambda / sinSigma
		cosSqAlpha = 1 - sinAlpha*sinAlpha

		if cosSqAlpha != 0 {
			cos2SigmaM = cosSigma - 2*sinU1*sinU2/cosSqAlpha
		} else {
			// equatorial line
			cos2SigmaM = 0
		}

		C := f / 16 * cosSqAlpha * (4 + f*(4-3*cosSqAlpha))
		lambdaPrev := lambda
		lambda = L + (1-C)*f*sinAlpha*
			(sigma+C*sinSigma*(cos2SigmaM+C*cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)))

		if math.Abs(lambda-lambdaPrev) < vincentyTolerance {
			converged = true
			break
		}
	}

	if !converged {
		return 0, errors.DidNotConvergeErrorf("vincenty distance between %s and %s did not converge after %d iterations",
			a, b, vincentyMaxIterations)
	}

	uSq := cosSqAlpha * (EquatorialRadius*EquatorialRadius - PolarRadius*PolarRadius) / (PolarRadius * PolarRadius)
	A := 1 + uSq/16384*(4096+uSq*(-768+uSq*(320-175*uSq)))
	B := uSq / 1024 * (256 + uSq*(-128+uSq*(74-47*uSq)))
	deltaSigma := B * sinSigma * (cos2SigmaM + B/4*(cosSigma*(-1+2*cos2SigmaM*cos2SigmaM)-
		B/6*cos2SigmaM*(-3+4*sinSigma*sinSigma)*(-3+4*cos2SigmaM*cos2SigmaM)))

	return PolarRadius * A * (sigma - deltaSigma), nil
}

// MeanPairwiseDistance averages, for every coordinate, its distance to the
// N−1 others, then averages those per-coordinate means over all N.
func MeanPairwiseDistance(coords []Coordinate, fn DistanceFunc) (float64, error) {
	means, err := PerCoordinateMeans(coords, fn)
	if err != nil {
		return 0, err
	}

	var sum float64
	for _, m := range means {
		sum += m
	}
	return sum / float64(len(means)), nil
}

// minRowsPerWorker keeps small inputs on a single goroutine.
const minRowsPerWorker = 64

// PerCoordinateMeans returns, in input order, each coordinate's mean distance
// to all other coordinates. Rows are partitioned across goroutines; each row
// is summed in index order so the result does not depend on the partitioning.
func PerCoordinateMeans(coords []Coordinate, fn DistanceFunc) ([]float64, error) {
	n := len(coords)
	if n < 2 {
		return nil, errors.EmptyInputError("mean pairwise distance needs at least 2 coordinates")
	}

	means := make([]float64, n)

	workers := runtime.GOMAXPROCS(0)
	if limit := n / minRowsPerWorker; limit < workers {
		workers = limit
	}
	if workers < 1 {
		workers = 1
	}
	chunk := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				var sum float64
				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					d, err := fn(coords[i], coords[j])
					if err != nil {
						return err
					}
					sum += d
				}
				means[i] = sum / float64(n-1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return means, nil
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
