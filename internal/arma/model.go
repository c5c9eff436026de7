// Package arma fits zero-differencing ARMA(p,q) models to a univariate series
// and produces multi-step forecasts.
//
// The model is
//
//	(y_t - μ) = Σ φ_i (y_{t-i} - μ) + e_t + Σ θ_j e_{t-j}
//
// Two estimators are available: CSS (conditional sum of squares, optimised
// numerically) and HannanRissanen (two regressions, no optimisation). Selector
// picks the order by information criterion.
package arma

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Order of an ARMA model.
type Order struct {
	P int `json:"p"`
	Q int `json:"q"`
}

func (o Order) String() string {
	return fmt.Sprintf("ARMA(%d,%d)", o.P, o.Q)
}

// params counts AR, MA, mean and innovation variance.
func (o Order) params() int {
	return o.P + o.Q + 2
}

// feasible reports whether n observations leave room for AICc.
func (o Order) feasible(n int) bool {
	return n-o.P-o.params()-1 > 0
}

var (
	ErrTooShort      = errors.New("series too short")
	ErrConstant      = errors.New("series is constant")
	ErrNotConverged  = errors.New("optimiser did not converge")
	ErrNonStationary = errors.New("estimate is not stationary or not invertible")
	ErrNoCandidate   = errors.New("no candidate order could be fitted")
)

// FitError reports a failed fit of one order (or of the whole search when Order is zero).
type FitError struct {
	Order  Order
	N      int
	Method string
	Err    error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("fit %s (%s, n=%d): %v", e.Order, e.Method, e.N, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// Model is a fitted ARMA model. It is immutable after fitting.
type Model struct {
	Order  Order
	Method string

	Mean float64
	AR   []float64
	MA   []float64

	Sigma2 float64
	LogLik float64
	AIC    float64
	AICc   float64
	BIC    float64
	// NObs is the length of the series the model was fitted on.
	NObs int

	resid []float64
	// Last P centered observations and last Q residuals, oldest first.
	yTail []float64
	eTail []float64
}

// Forecast returns the next steps values after the end of the fitted series.
// Future innovations are set to their expectation, zero.
func (m *Model) Forecast(steps int) []float64 {
	if steps < 1 {
		return nil
	}
	p, q := m.Order.P, m.Order.Q
	x := append(append(make([]float64, 0, p+steps), m.yTail...), make([]float64, steps)...)
	e := append(append(make([]float64, 0, q+steps), m.eTail...), make([]float64, steps)...)

	out := make([]float64, steps)
	for h := 0; h < steps; h++ {
		v := 0.0
		for i := 1; i <= p; i++ {
			v += m.AR[i-1] * x[p+h-i]
		}
		for j := 1; j <= q; j++ {
			v += m.MA[j-1] * e[q+h-j]
		}
		x[p+h] = v
		out[h] = m.Mean + v
	}
	return out
}

// Residuals returns a copy of the in-sample one-step residuals. The first P are zero.
func (m *Model) Residuals() []float64 {
	return append([]float64(nil), m.resid...)
}

// Score returns the value of criterion c; lower is better.
func (m *Model) Score(c Criterion) float64 {
	switch c {
	case AIC:
		return m.AIC
	case BIC:
		return m.BIC
	default:
		return m.AICc
	}
}

func (m *Model) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s mean=%.4g", m.Order, m.Mean)
	if len(m.AR) > 0 {
		fmt.Fprintf(&b, " ar=%s", fmtCoef(m.AR))
	}
	if len(m.MA) > 0 {
		fmt.Fprintf(&b, " ma=%s", fmtCoef(m.MA))
	}
	fmt.Fprintf(&b, " sigma2=%.4g aicc=%.2f", m.Sigma2, m.AICc)
	return b.String()
}

func fmtCoef(c []float64) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// cssResiduals runs the conditional residual recursion with e_t = 0 for t < p
// and returns the residuals and their sum of squares over t >= p.
func cssResiduals(y []float64, mean float64, ar, ma []float64) ([]float64, float64) {
	p, q := len(ar), len(ma)
	e := make([]float64, len(y))
	ss := 0.0
	for t := p; t < len(y); t++ {
		v := y[t] - mean
		for i := 1; i <= p; i++ {
			v -= ar[i-1] * (y[t-i] - mean)
		}
		for j := 1; j <= q && t-j >= 0; j++ {
			v -= ma[j-1] * e[t-j]
		}
		e[t] = v
		ss += v * v
	}
	return e, ss
}

// newModel computes residuals, likelihood and criteria for given coefficients.
// Every estimator finishes here so criteria are comparable across methods.
func newModel(y []float64, order Order, mean float64, ar, ma []float64, method string) (*Model, error) {
	n := len(y)
	resid, ss := cssResiduals(y, mean, ar, ma)
	if math.IsNaN(ss) || math.IsInf(ss, 0) {
		return nil, &FitError{Order: order, N: n, Method: method, Err: ErrNotConverged}
	}
	nEff := float64(n - order.P)
	sigma2 := ss / nEff
	if floor := stat.Variance(y, nil) * 1e-12; sigma2 < floor {
		sigma2 = floor
	}
	k := float64(order.params())
	ll := -0.5 * nEff * (math.Log(2*math.Pi*sigma2) + 1)

	m := &Model{
		Order:  order,
		Method: method,
		Mean:   mean,
		AR:     append([]float64(nil), ar...),
		MA:     append([]float64(nil), ma...),
		Sigma2: sigma2,
		LogLik: ll,
		AIC:    -2*ll + 2*k,
		BIC:    -2*ll + k*math.Log(nEff),
		NObs:   n,
		resid:  resid,
	}
	m.AICc = m.AIC + 2*k*(k+1)/(nEff-k-1)

	m.yTail = make([]float64, order.P)
	for i := 0; i < order.P; i++ {
		m.yTail[i] = y[n-order.P+i] - mean
	}
	m.eTail = make([]float64, order.Q)
	for j := 0; j < order.Q; j++ {
		if idx := n - order.Q + j; idx >= 0 {
			m.eTail[j] = resid[idx]
		}
	}
	return m, nil
}

// checkSeries rejects windows no order can be fitted to.
func checkSeries(y []float64, order Order, method string) error {
	if !order.feasible(len(y)) {
		return &FitError{Order: order, N: len(y), Method: method, Err: ErrTooShort}
	}
	if stat.Variance(y, nil) == 0 {
		return &FitError{Order: order, N: len(y), Method: method, Err: ErrConstant}
	}
	return nil
}
