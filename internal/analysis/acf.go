package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Correlogram holds sample autocorrelations for lags 0..len-1 and the
// approximate 95% white-noise band ±1.96/√n.
type Correlogram struct {
	ACF  []float64 `json:"acf"`
	PACF []float64 `json:"pacf"`
	Band float64   `json:"band"`
	N    int       `json:"n"`
}

// Autocorrelation returns r_0..r_maxLag using the biased (divide by n) autocovariance.
// maxLag is clamped to len(xs)-1. A constant series has r_k = 0 for k > 0.
func Autocorrelation(xs []float64, maxLag int) []float64 {
	n := len(xs)
	if n == 0 {
		return nil
	}
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if maxLag < 0 {
		maxLag = 0
	}
	mean := stat.Mean(xs, nil)
	var denom float64
	for _, v := range xs {
		denom += (v - mean) * (v - mean)
	}
	out := make([]float64, maxLag+1)
	out[0] = 1
	if denom == 0 {
		return out
	}
	for k := 1; k <= maxLag; k++ {
		var num float64
		for t := 0; t+k < n; t++ {
			num += (xs[t] - mean) * (xs[t+k] - mean)
		}
		out[k] = num / denom
	}
	return out
}

// PartialAutocorrelation derives the PACF from acf by the Durbin-Levinson
// recursion. out[0] is 1 and out[k] is the last coefficient of the AR(k) fit.
func PartialAutocorrelation(acf []float64) []float64 {
	if len(acf) == 0 {
		return nil
	}
	m := len(acf) - 1
	out := make([]float64, m+1)
	out[0] = 1
	phi := make([]float64, m+1)
	prev := make([]float64, m+1)
	v := 1.0
	for k := 1; k <= m; k++ {
		num := acf[k]
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
		}
		if v <= 0 {
			break
		}
		a := num / v
		phi[k] = a
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - a*prev[k-j]
		}
		v *= 1 - a*a
		out[k] = a
		copy(prev, phi)
	}
	return out
}

// ComputeCorrelogram bundles ACF, PACF and the confidence band.
func ComputeCorrelogram(xs []float64, maxLag int) Correlogram {
	acf := Autocorrelation(xs, maxLag)
	c := Correlogram{ACF: acf, PACF: PartialAutocorrelation(acf), N: len(xs)}
	if len(xs) > 0 {
		c.Band = 1.96 / math.Sqrt(float64(len(xs)))
	}
	return c
}
