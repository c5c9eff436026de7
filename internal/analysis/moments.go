package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Moments of a sample.
//
// Variance is the unbiased (n-1) estimate. Skewness is m3/m2^1.5 and Kurtosis is
// the raw m4/m2² (a normal sample is near 3, not 0), where mk are central
// moments with divisor n. A constant sample has zero skewness and kurtosis.
type Moments struct {
	Mean     float64 `json:"mean"`
	Variance float64 `json:"variance"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"`
}

func ComputeMoments(xs []float64) Moments {
	var m Moments
	if len(xs) == 0 {
		return m
	}
	m.Mean = stat.Mean(xs, nil)
	if len(xs) < 2 {
		return m
	}
	m.Variance = stat.Variance(xs, nil)

	m2 := stat.Moment(2, xs, nil)
	if m2 == 0 {
		return m
	}
	m.Skewness = stat.Moment(3, xs, nil) / math.Pow(m2, 1.5)
	m.Kurtosis = stat.Moment(4, xs, nil) / (m2 * m2)
	return m
}

// Distance is the Euclidean distance between two equal-length series.
func Distance(a, b []float64) float64 {
	return floats.Distance(a, b, 2)
}
