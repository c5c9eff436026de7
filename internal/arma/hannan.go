package arma

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"hoep-forecast/internal/linreg"
)

// HannanRissanen estimates by regression: a long autoregression supplies
// innovation estimates, then y is regressed on its own lags and the lagged
// innovations. Estimates that are not stationary and invertible are rejected.
type HannanRissanen struct {
	// LongAR is the order of the first-stage autoregression; 0 picks one from n.
	LongAR int
}

func (HannanRissanen) Name() string { return "hannan-rissanen" }

func (h HannanRissanen) Fit(y []float64, order Order) (*Model, error) {
	if err := checkSeries(y, order, h.Name()); err != nil {
		return nil, err
	}
	n := len(y)
	p, q := order.P, order.Q
	ybar := stat.Mean(y, nil)
	if p+q == 0 {
		return newModel(y, order, ybar, nil, nil, h.Name())
	}
	fail := func(err error) (*Model, error) {
		return nil, &FitError{Order: order, N: n, Method: h.Name(), Err: err}
	}

	// Innovations. Without MA terms the observed lags suffice.
	ehat := make([]float64, n)
	start := p
	if q > 0 {
		m := h.longOrder(n, order)
		if m < 1 {
			return fail(ErrTooShort)
		}
		fit, err := linreg.OLS(linreg.Design(linreg.Lagged(y, m, m), true), y[m:])
		if err != nil {
			return fail(err)
		}
		copy(ehat[m:], fit.Resid)
		start = max(p, m+q)
	}
	if n-start <= 1+p+q {
		return fail(ErrTooShort)
	}

	rows := make([][]float64, 0, n-start)
	for t := start; t < n; t++ {
		row := make([]float64, 0, p+q)
		for i := 1; i <= p; i++ {
			row = append(row, y[t-i])
		}
		for j := 1; j <= q; j++ {
			row = append(row, ehat[t-j])
		}
		rows = append(rows, row)
	}
	fit, err := linreg.OLS(linreg.Design(rows, true), y[start:])
	if err != nil {
		return fail(err)
	}
	ar := fit.Coef[1 : 1+p]
	ma := fit.Coef[1+p:]
	if !stationary(ar) || !invertible(ma) {
		return fail(ErrNonStationary)
	}

	sumAR := 0.0
	for _, v := range ar {
		sumAR += v
	}
	mean := ybar
	if d := 1 - sumAR; math.Abs(d) > 1e-8 {
		mean = fit.Coef[0] / d
	}
	return newModel(y, order, mean, ar, ma, h.Name())
}

// longOrder picks the first-stage AR order: at least p+q, about 10·log10(n),
// and small enough to leave most of the sample for the second stage.
func (h HannanRissanen) longOrder(n int, order Order) int {
	m := h.LongAR
	if m <= 0 {
		m = max(order.P+order.Q, int(10*math.Log10(float64(n))))
	}
	if lim := (n - order.P - order.Q - 2) / 3; m > lim {
		m = lim
	}
	return m
}
