package arma

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simulate draws n values of an ARMA process after a burn-in.
func simulate(seed int64, n int, mean float64, ar, ma []float64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	burn := 200
	x := make([]float64, n+burn)
	e := make([]float64, n+burn)
	for t := range x {
		e[t] = rng.NormFloat64()
		v := e[t]
		for i, phi := range ar {
			if t-i-1 >= 0 {
				v += phi * x[t-i-1]
			}
		}
		for j, th := range ma {
			if t-j-1 >= 0 {
				v += th * e[t-j-1]
			}
		}
		x[t] = v
	}
	out := x[burn:]
	for i := range out {
		out[i] += mean
	}
	return out
}

func TestPartransRoundTrip(t *testing.T) {
	raw := []float64{0.3, -1.2, 2.0}
	phi := partrans(raw)
	assert.True(t, stationary(phi))
	back, ok := invpartrans(phi)
	require.True(t, ok)
	assert.InDeltaSlice(t, raw, back, 1e-9)

	assert.False(t, stationary([]float64{1.1}))
	assert.False(t, stationary([]float64{0.5, 0.6}))
	assert.True(t, stationary([]float64{0.5, 0.3}))
	assert.True(t, invertible([]float64{0.9}))
	assert.False(t, invertible([]float64{-1.5}))
	assert.True(t, stationary(nil))
}

func TestForecastRecursion(t *testing.T) {
	y := []float64{10, 12, 11, 14, 12}
	m, err := newModel(y, Order{P: 1}, 10, []float64{0.5}, nil, "test")
	require.NoError(t, err)

	f := m.Forecast(3)
	require.Len(t, f, 3)
	// Last deviation is 2: 10+1, 10+0.5, 10+0.25.
	assert.InDeltaSlice(t, []float64{11, 10.5, 10.25}, f, 1e-12)
	assert.Nil(t, m.Forecast(0))

	res := m.Residuals()
	require.Len(t, res, 5)
	assert.Zero(t, res[0])
	assert.InDelta(t, 2-0.5*0, res[1], 1e-12)
	res[1] = 99
	assert.NotEqual(t, 99.0, m.Residuals()[1], "residuals are copied")
}

func TestForecastUsesMATail(t *testing.T) {
	y := []float64{1, 0, 2, 0, 1}
	m, err := newModel(y, Order{Q: 1}, 0, nil, []float64{0.5}, "test")
	require.NoError(t, err)
	res := m.Residuals()
	f := m.Forecast(2)
	assert.InDelta(t, 0.5*res[4], f[0], 1e-12)
	assert.InDelta(t, 0, f[1], 1e-12)
}

func TestCriteria(t *testing.T) {
	y := simulate(1, 100, 5, []float64{0.5}, nil)
	m, err := CSS{}.Fit(y, Order{P: 1})
	require.NoError(t, err)
	k, nEff := 3.0, 99.0
	assert.InDelta(t, -2*m.LogLik+2*k, m.AIC, 1e-9)
	assert.InDelta(t, m.AIC+2*k*(k+1)/(nEff-k-1), m.AICc, 1e-9)
	assert.InDelta(t, -2*m.LogLik+k*math.Log(nEff), m.BIC, 1e-9)
	assert.Equal(t, m.AICc, m.Score(AICc))
	assert.Equal(t, m.BIC, m.Score(BIC))
	assert.Equal(t, 100, m.NObs)
	assert.Contains(t, m.String(), "ARMA(1,0)")
}

func TestCSSRecoversAR1(t *testing.T) {
	y := simulate(2, 2000, 20, []float64{0.6}, nil)
	m, err := CSS{}.Fit(y, Order{P: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.6, m.AR[0], 0.05)
	assert.InDelta(t, 20, m.Mean, 0.3)
	assert.InDelta(t, 1, m.Sigma2, 0.1)
}

func TestCSSRecoversMA1(t *testing.T) {
	y := simulate(3, 2000, 0, nil, []float64{0.4})
	m, err := CSS{}.Fit(y, Order{Q: 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.4, m.MA[0], 0.08)
	assert.True(t, invertible(m.MA))
}

func TestHannanRissanenRecoversARMA11(t *testing.T) {
	y := simulate(4, 3000, 3, []float64{0.7}, []float64{0.3})
	m, err := HannanRissanen{}.Fit(y, Order{P: 1, Q: 1})
	require.NoError(t, err)
	assert.Equal(t, "hannan-rissanen", m.Method)
	assert.InDelta(t, 0.7, m.AR[0], 0.1)
	assert.InDelta(t, 0.3, m.MA[0], 0.1)
	assert.InDelta(t, 3, m.Mean, 0.5)
}

func TestEstimatorsAgreeOnWhiteNoise(t *testing.T) {
	y := simulate(5, 500, 7, nil, nil)
	for _, est := range []Estimator{CSS{}, HannanRissanen{}} {
		m, err := est.Fit(y, Order{})
		require.NoError(t, err, est.Name())
		assert.InDelta(t, 7, m.Mean, 0.2, est.Name())
		f := m.Forecast(3)
		assert.InDeltaSlice(t, []float64{m.Mean, m.Mean, m.Mean}, f, 1e-12)
	}
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name  string
		y     []float64
		order Order
		want  error
	}{
		{"constant", []float64{5, 5, 5, 5, 5, 5, 5, 5}, Order{P: 1}, ErrConstant},
		{"too short for order", []float64{1, 2, 3, 4, 5}, Order{P: 2, Q: 1}, ErrTooShort},
	}
	for _, tt := range tests {
		for _, est := range []Estimator{CSS{}, HannanRissanen{}} {
			t.Run(tt.name+"/"+est.Name(), func(t *testing.T) {
				_, err := est.Fit(tt.y, tt.order)
				var fe *FitError
				require.True(t, errors.As(err, &fe))
				assert.ErrorIs(t, err, tt.want)
				assert.Equal(t, tt.order, fe.Order)
			})
		}
	}
}

func TestSelectorExhaustive(t *testing.T) {
	y := simulate(6, 400, 30, []float64{0.8}, nil)
	sel := Selector{MaxP: 2, MaxQ: 2, Criterion: AICc}
	m, err := sel.SelectAndFit(y)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.Order.P+m.Order.Q, 1)

	white, err := CSS{}.Fit(y, Order{})
	require.NoError(t, err)
	assert.Less(t, m.AICc, white.AICc)
	for _, o := range []Order{{P: 1}, {P: 2}, {Q: 1}, {P: 1, Q: 1}} {
		other, err := CSS{}.Fit(y, o)
		require.NoError(t, err)
		assert.LessOrEqual(t, m.AICc, other.AICc+1e-9, o.String())
	}
}

func TestSelectorStepwise(t *testing.T) {
	y := simulate(7, 400, 0, []float64{0.5, 0.2}, nil)
	for _, crit := range []Criterion{AIC, AICc, BIC} {
		sel := Selector{MaxP: 3, MaxQ: 3, Criterion: crit, Stepwise: true, Estimator: HannanRissanen{}}
		m, err := sel.SelectAndFit(y)
		require.NoError(t, err)
		white, err := HannanRissanen{}.Fit(y, Order{})
		require.NoError(t, err)
		assert.Less(t, m.Score(crit), white.Score(crit), string(crit))
	}
}

func TestSelectorFailures(t *testing.T) {
	_, err := Selector{MaxP: 2, MaxQ: 2}.SelectAndFit([]float64{3, 3, 3, 3, 3, 3})
	assert.ErrorIs(t, err, ErrConstant)

	_, err = Selector{MaxP: 2, MaxQ: 2}.SelectAndFit([]float64{1, 2})
	var fe *FitError
	require.True(t, errors.As(err, &fe))
	assert.ErrorIs(t, err, ErrTooShort)
}

func TestSelectorPeriodicWindow(t *testing.T) {
	wave := []float64{10, 12, 11, 13, 9, 14, 10, 12, 11, 13, 9, 14}
	for n := 9; n <= 11; n++ {
		m, err := Selector{MaxP: 5, MaxQ: 5}.SelectAndFit(wave[:n])
		require.NoError(t, err, "prefix %d", n)
		f := m.Forecast(3)
		require.Len(t, f, 3)
		for _, v := range f {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
		}
		assert.Equal(t, n, m.NObs)
	}
}

func TestParseCriterionAndEstimator(t *testing.T) {
	c, err := ParseCriterion("bic")
	require.NoError(t, err)
	assert.Equal(t, BIC, c)
	_, err = ParseCriterion("hqic")
	assert.Error(t, err)

	est, err := NewEstimator("hannan-rissanen")
	require.NoError(t, err)
	assert.Equal(t, "hannan-rissanen", est.Name())
	est, err = NewEstimator("")
	require.NoError(t, err)
	assert.Equal(t, "css", est.Name())
	_, err = NewEstimator("mle")
	assert.Error(t, err)
}
