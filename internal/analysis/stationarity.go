package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"hoep-forecast/internal/linreg"
)

// ADFResult is an augmented Dickey-Fuller test with a constant term.
// The null hypothesis is a unit root; a small p-value indicates stationarity.
type ADFResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	UsedLag   int     `json:"used_lag"`
	NObs      int     `json:"nobs"`
	// Critical values at 1%, 5% and 10%.
	Critical map[string]float64 `json:"critical"`
	AIC      float64            `json:"aic"`
}

// Stationary reports whether the unit root is rejected at level alpha.
func (r ADFResult) Stationary(alpha float64) bool {
	return r.PValue < alpha
}

// ADF runs the augmented Dickey-Fuller regression
//
//	Δy_t = α + γ·y_{t-1} + Σ_{j=1..k} δ_j·Δy_{t-j} + ε_t
//
// choosing k in 0..maxLag by AIC over a common sample, then refitting with all
// usable observations. maxLag <= 0 selects 12·(n/100)^¼ (Schwert).
func ADF(y []float64, maxLag int) (ADFResult, error) {
	n := len(y)
	if n < 8 {
		return ADFResult{}, ErrTooShort
	}
	if maxLag <= 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	// Keep at least a handful of residual degrees of freedom.
	if lim := n/2 - 3; maxLag > lim {
		maxLag = lim
	}
	if maxLag < 0 {
		maxLag = 0
	}

	dy := make([]float64, n-1)
	for i := range dy {
		dy[i] = y[i+1] - y[i]
	}

	bestLag, bestAIC := 0, math.Inf(1)
	for k := 0; k <= maxLag; k++ {
		fit, err := adfRegression(y, dy, k, maxLag)
		if err != nil {
			continue
		}
		aic := -2*fit.LogLik() + 2*float64(len(fit.Coef))
		if aic < bestAIC {
			bestLag, bestAIC = k, aic
		}
	}
	if math.IsInf(bestAIC, 1) {
		return ADFResult{}, fmt.Errorf("adf: no lag order could be fitted")
	}

	fit, err := adfRegression(y, dy, bestLag, bestLag)
	if err != nil {
		return ADFResult{}, fmt.Errorf("adf: %w", err)
	}
	tau := fit.TStat(1)
	if math.IsNaN(tau) || math.IsInf(tau, 0) {
		return ADFResult{}, fmt.Errorf("adf: degenerate test statistic")
	}
	return ADFResult{
		Statistic: tau,
		PValue:    mackinnonP(tau),
		UsedLag:   bestLag,
		NObs:      fit.N,
		Critical:  mackinnonCrit(fit.N),
		AIC:       bestAIC,
	}, nil
}

// adfRegression fits the lag-k regression on dy[start:], start >= k.
func adfRegression(y, dy []float64, k, start int) (*linreg.Fit, error) {
	rows := make([][]float64, 0, len(dy)-start)
	resp := make([]float64, 0, len(dy)-start)
	for t := start; t < len(dy); t++ {
		row := make([]float64, 1+k)
		row[0] = y[t]
		for j := 1; j <= k; j++ {
			row[j] = dy[t-j]
		}
		rows = append(rows, row)
		resp = append(resp, dy[t])
	}
	if len(rows) == 0 {
		return nil, linreg.ErrUnderdetermined
	}
	return linreg.OLS(linreg.Design(rows, true), resp)
}

// MacKinnon (1994, 2010) response-surface coefficients for the constant-only case
// with a single series.
var (
	tauStar  = -1.61
	tauMin   = -18.83
	tauMax   = 2.74
	tauSmall = []float64{2.1659, 1.4412, 0.038269}
	tauLarge = []float64{1.7339, 0.93202, -0.12745, -0.010368}

	critCoef = map[string][]float64{
		"1%":  {-3.43035, -6.5393, -16.786, -79.433},
		"5%":  {-2.86154, -2.8903, -4.234, -40.040},
		"10%": {-2.56677, -1.5384, -2.809, 0},
	}
)

func mackinnonP(tau float64) float64 {
	switch {
	case tau > tauMax:
		return 1
	case tau < tauMin:
		return 0
	}
	coef := tauLarge
	if tau <= tauStar {
		coef = tauSmall
	}
	return distuv.UnitNormal.CDF(polyval(coef, tau))
}

func mackinnonCrit(nobs int) map[string]float64 {
	out := make(map[string]float64, len(critCoef))
	inv := 1 / float64(nobs)
	for k, c := range critCoef {
		out[k] = polyval(c, inv)
	}
	return out
}

// polyval evaluates c[0] + c[1]x + c[2]x² + ...
func polyval(c []float64, x float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}
