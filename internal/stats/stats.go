// Package stats provides the order statistics used by the characteristic
// computations. Variance is population variance (÷n, not ÷(n−1)).
// Every aggregate over an empty slice fails with errors.ErrEmptyInput.
package stats

import (
	"math"
	"slices"

	"github.com/rohankatakam/communitypulse/internal/errors"
)

// Well-known percentile thresholds.
const (
	PercentileQ1     = 0.25
	PercentileMedian = 0.5
	PercentileQ3     = 0.75
)

// Mean returns the arithmetic mean of values.
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.EmptyInputError("mean")
	}

	var sum float64

	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values)), nil
}

// Variance returns the population variance of values.
func Variance(values []float64) (float64, error) {
	mean, err := Mean(values)
	if err != nil {
		return 0, errors.EmptyInputError("variance")
	}

	var sumSq float64

	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}

	return sumSq / float64(len(values)), nil
}

// Median sorts a copy of values and returns the middle element, or the mean
// of the two central elements for an even count.
func Median(values []float64) (float64, error) {
	count := len(values)
	if count == 0 {
		return 0, errors.EmptyInputError("median")
	}

	sorted := sortedCopy(values)

	mid := count / 2
	if count%2 == 1 {
		return sorted[mid], nil
	}

	return (sorted[mid-1] + sorted[mid]) / 2, nil
}

// percentile returns the p-th percentile of values using linear interpolation
// at index p·(n−1). p must be in [0, 1]. The input slice is not modified.
func percentile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.EmptyInputError("percentile")
	}

	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, errors.ValidationErrorf("percentile %v outside [0, 1]", p)
	}

	return percentileSorted(sortedCopy(values), p), nil
}

// Quartiles returns Q1, Q2 and Q3 of values. Q2 equals Median.
func Quartiles(values []float64) (q1, q2, q3 float64, err error) {
	if len(values) == 0 {
		return 0, 0, 0, errors.EmptyInputError("quartiles")
	}

	sorted := sortedCopy(values)

	return percentileSorted(sorted, PercentileQ1),
		percentileSorted(sorted, PercentileMedian),
		percentileSorted(sorted, PercentileQ3),
		nil
}

func percentileSorted(sorted []float64, p float64) float64 {
	count := len(sorted)

	idx := p * float64(count-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))

	if lower == upper || upper >= count {
		return sorted[lower]
	}

	frac := idx - float64(lower)

	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func sortedCopy(values []float64) []float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	slices.Sort(sorted)

	return sorted
}

// Number is the set of count types converted by Floats.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// Floats converts a slice of counts to float64.
func Floats[T Number](values []T) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}

	return out
}

// Indicators maps each boolean to 1 or 0.
func Indicators(flags []bool) []float64 {
	out := make([]float64, len(flags))
	for i, f := range flags {
		if f {
			out[i] = 1
		}
	}

	return out
}
