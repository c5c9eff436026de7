package arma

import (
	"math"

	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

// Estimator fits one fixed order to a series.
type Estimator interface {
	Name() string
	Fit(y []float64, order Order) (*Model, error)
}

// CSS minimises the conditional sum of squares with Nelder-Mead.
// AR and MA coefficients are optimised through the partial-autocorrelation
// transform, so every estimate is stationary and invertible.
type CSS struct {
	// MaxIter bounds optimiser iterations; 0 means 200·(p+q+1).
	MaxIter int
}

func (CSS) Name() string { return "css" }

func (c CSS) Fit(y []float64, order Order) (*Model, error) {
	if err := checkSeries(y, order, c.Name()); err != nil {
		return nil, err
	}
	p, q := order.P, order.Q
	ybar, sd := stat.MeanStdDev(y, nil)
	if p+q == 0 {
		return newModel(y, order, ybar, nil, nil, c.Name())
	}

	// x = [m, rawAR..., rawMA...]; mean = ybar + m·sd.
	unpack := func(x []float64) (float64, []float64, []float64) {
		return ybar + x[0]*sd, partrans(x[1 : 1+p]), negate(partrans(x[1+p:]))
	}
	nEff := float64(len(y) - p)
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			mean, ar, ma := unpack(x)
			_, ss := cssResiduals(y, mean, ar, ma)
			if math.IsNaN(ss) || math.IsInf(ss, 0) {
				return math.MaxFloat64
			}
			return 0.5 * nEff * math.Log(math.Max(ss, 1e-300)/nEff)
		},
	}

	maxIter := c.MaxIter
	if maxIter <= 0 {
		maxIter = 200 * (p + q + 1)
	}
	settings := &optimize.Settings{
		MajorIterations: maxIter,
		FuncEvaluations: 4 * maxIter,
	}
	res, err := optimize.Minimize(problem, cssStart(y, order, ybar, sd), settings, &optimize.NelderMead{})
	if res == nil || res.Status == optimize.Failure || math.IsNaN(res.F) || res.F == math.MaxFloat64 {
		if err == nil {
			err = ErrNotConverged
		}
		return nil, &FitError{Order: order, N: len(y), Method: c.Name(), Err: err}
	}
	mean, ar, ma := unpack(res.X)
	return newModel(y, order, mean, ar, ma, c.Name())
}

// cssStart seeds the optimiser with a Hannan-Rissanen estimate when it is
// usable, and with white noise around the sample mean otherwise.
func cssStart(y []float64, order Order, ybar, sd float64) []float64 {
	x := make([]float64, 1+order.P+order.Q)
	hr, err := HannanRissanen{}.Fit(y, order)
	if err != nil {
		return x
	}
	rawAR, okAR := invpartrans(clampPacf(hr.AR))
	rawMA, okMA := invpartrans(clampPacf(negate(hr.MA)))
	if !okAR || !okMA {
		return x
	}
	x[0] = (hr.Mean - ybar) / sd
	copy(x[1:], rawAR)
	copy(x[1+order.P:], rawMA)
	return x
}

// clampPacf shrinks coefficients whose transform would sit on the boundary.
func clampPacf(phi []float64) []float64 {
	raw, ok := invpartrans(phi)
	if !ok {
		return phi
	}
	for i, v := range raw {
		raw[i] = math.Max(-3, math.Min(3, v))
	}
	return partrans(raw)
}
