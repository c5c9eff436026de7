package analysis

import (
	"errors"

	"gonum.org/v1/gonum/stat/distuv"
)

// ErrTooShort is returned by tests that need at least a few observations.
var ErrTooShort = errors.New("analysis: series too short")

// TestResult is a statistic with its asymptotic p-value.
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	// DF is the chi-squared degrees of freedom, or the lag used.
	DF int `json:"df"`
}

// Portmanteau is the pair of white-noise tests computed at the same lag.
type Portmanteau struct {
	LjungBox  TestResult `json:"ljung_box"`
	BoxPierce TestResult `json:"box_pierce"`
}

// PortmanteauTest runs Ljung-Box and Box-Pierce on xs at lag, clamped to len(xs)-1.
// A constant series is reported as white noise (statistic 0, p-value 1).
func PortmanteauTest(xs []float64, lag int) (Portmanteau, error) {
	n := len(xs)
	if n < 3 {
		return Portmanteau{}, ErrTooShort
	}
	if lag > n-1 {
		lag = n - 1
	}
	if lag < 1 {
		lag = 1
	}
	acf := Autocorrelation(xs, lag)

	var lb, bp float64
	fn := float64(n)
	for k := 1; k <= lag; k++ {
		r2 := acf[k] * acf[k]
		lb += r2 / (fn - float64(k))
		bp += r2
	}
	lb *= fn * (fn + 2)
	bp *= fn

	chi := distuv.ChiSquared{K: float64(lag)}
	return Portmanteau{
		LjungBox:  TestResult{Statistic: lb, PValue: chi.Survival(lb), DF: lag},
		BoxPierce: TestResult{Statistic: bp, PValue: chi.Survival(bp), DF: lag},
	}, nil
}

// JarqueBera tests normality from sample skewness and raw kurtosis.
func JarqueBera(xs []float64) (TestResult, error) {
	n := len(xs)
	if n < 3 {
		return TestResult{}, ErrTooShort
	}
	m := ComputeMoments(xs)
	if m.Variance == 0 {
		return TestResult{PValue: 1, DF: 2}, nil
	}
	ex := m.Kurtosis - 3
	jb := float64(n) / 6 * (m.Skewness*m.Skewness + ex*ex/4)
	return TestResult{Statistic: jb, PValue: distuv.ChiSquared{K: 2}.Survival(jb), DF: 2}, nil
}
