// Package linreg is ordinary least squares on top of gonum/mat, shared by the
// unit-root test and the Hannan-Rissanen estimator.
package linreg

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrUnderdetermined = errors.New("linreg: need more observations than regressors")
	ErrSingular        = errors.New("linreg: design matrix is singular")
)

// Fit is the result of an OLS regression.
type Fit struct {
	Coef   []float64
	StdErr []float64
	Resid  []float64
	SSR    float64
	N      int
	DF     int // N minus number of regressors
	Sigma2 float64
}

// TStat is Coef[i]/StdErr[i].
func (f *Fit) TStat(i int) float64 {
	return f.Coef[i] / f.StdErr[i]
}

// LogLik is the Gaussian log-likelihood at the ML variance SSR/N.
func (f *Fit) LogLik() float64 {
	n := float64(f.N)
	return -0.5 * n * (math.Log(2*math.Pi*f.SSR/n) + 1)
}

// OLS regresses y on the columns of x. Include a column of ones for an intercept.
func OLS(x *mat.Dense, y []float64) (*Fit, error) {
	n, k := x.Dims()
	if n != len(y) {
		return nil, fmt.Errorf("linreg: %d rows but %d responses", n, len(y))
	}
	if n <= k {
		return nil, ErrUnderdetermined
	}

	var qr mat.QR
	qr.Factorize(x)
	var b mat.VecDense
	if err := qr.SolveVecTo(&b, false, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(x, &b)
	resid := make([]float64, n)
	floats.SubTo(resid, y, fitted.RawVector().Data)
	ssr := floats.Dot(resid, resid)
	df := n - k
	sigma2 := ssr / float64(df)

	var xtx, inv mat.Dense
	xtx.Mul(x.T(), x)
	if err := inv.Inverse(&xtx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	coef := make([]float64, k)
	se := make([]float64, k)
	for i := 0; i < k; i++ {
		coef[i] = b.AtVec(i)
		se[i] = math.Sqrt(sigma2 * inv.At(i, i))
	}
	if floats.HasNaN(coef) {
		return nil, ErrSingular
	}
	return &Fit{Coef: coef, StdErr: se, Resid: resid, SSR: ssr, N: n, DF: df, Sigma2: sigma2}, nil
}

// Lagged builds rows t = start..len(y)-1 where each row is [y[t-1], ..., y[t-lags]].
// It is the usual building block for autoregressions.
func Lagged(y []float64, lags, start int) [][]float64 {
	rows := make([][]float64, 0, len(y)-start)
	for t := start; t < len(y); t++ {
		row := make([]float64, lags)
		for j := 1; j <= lags; j++ {
			row[j-1] = y[t-j]
		}
		rows = append(rows, row)
	}
	return rows
}

// Design stacks rows into a matrix, optionally prefixed with an intercept column.
func Design(rows [][]float64, intercept bool) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	k := len(rows[0])
	off := 0
	if intercept {
		k++
		off = 1
	}
	x := mat.NewDense(len(rows), k, nil)
	for i, r := range rows {
		if intercept {
			x.Set(i, 0, 1)
		}
		for j, v := range r {
			x.Set(i, j+off, v)
		}
	}
	return x
}
