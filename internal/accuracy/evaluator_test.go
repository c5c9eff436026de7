package accuracy

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoep-forecast/internal/backtest"
	"hoep-forecast/internal/config"
)

func newEvaluator() *Evaluator {
	return New(config.Default().Diagnostics, zerolog.Nop())
}

func TestEvaluatePerfectForecast(t *testing.T) {
	s, err := newEvaluator().Evaluate(Input{
		Forecasts: []float64{11, 13, 9},
		Realized:  []float64{11, 13, 9},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, s.N)
	assert.Zero(t, s.Model.MAE)
	assert.Zero(t, s.Model.RMSE)
	assert.Equal(t, []float64{0, 0, 0}, s.Model.Residuals)
	assert.Zero(t, s.Model.Distance)
	assert.Equal(t, DefaultModelName, s.Model.Name)
	assert.Equal(t, s.Realized, s.Model.Moments)
}

func TestEvaluateLengthMismatch(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		bad  string
	}{
		{
			name: "competitor short",
			in: Input{
				Forecasts:   []float64{1, 2, 3},
				Realized:    []float64{1, 2, 3},
				Competitors: []Series{{Name: "Hour 1 Predispatch", Values: []float64{1, 2, 3}}, {Name: "Hour 2 Predispatch", Values: []float64{1, 2}}},
			},
			bad: "Hour 2 Predispatch",
		},
		{
			name: "forecasts long",
			in:   Input{ModelName: "m", Forecasts: []float64{1, 2, 3, 4}, Realized: []float64{1, 2, 3}},
			bad:  "m",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := newEvaluator().Evaluate(tt.in)
			assert.Nil(t, s)
			var lme *LengthMismatchError
			require.ErrorAs(t, err, &lme)
			assert.Equal(t, tt.bad, lme.Name)
			assert.Equal(t, 3, lme.Want)
		})
	}

	_, err := newEvaluator().Evaluate(Input{})
	assert.Error(t, err)
}

func TestMetricSanity(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(40)
		resid := make([]float64, n)
		for i := range resid {
			resid[i] = rng.NormFloat64() * 10
		}
		mae, rmse := MAE(resid), RMSE(resid)
		assert.GreaterOrEqual(t, mae, 0.0)
		assert.GreaterOrEqual(t, rmse, mae-1e-12)
	}
	assert.Zero(t, MAE(nil))
	assert.Zero(t, RMSE(nil))
	assert.Equal(t, 2.0, MAE([]float64{-2, 2}))
	assert.InDelta(t, math.Sqrt(5), RMSE([]float64{1, 3}), 1e-12)
	assert.Positive(t, MAE([]float64{0, 0, 1e-9}))
}

func TestMetricsMatchDefinitions(t *testing.T) {
	realized := []float64{30, 25.5, 40, 18}
	forecast := []float64{28, 27.5, 35, 18}
	resid := Residuals(realized, forecast)
	assert.Equal(t, []float64{2, -2, 5, 0}, resid)

	var abs, sq float64
	for _, r := range resid {
		abs += math.Abs(r)
		sq += r * r
	}
	assert.InDelta(t, abs/4, MAE(resid), 1e-12)
	assert.InDelta(t, math.Sqrt(sq/4), RMSE(resid), 1e-12)
}

func TestEvaluateRanksAndDiagnoses(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	n := 168
	realized := make([]float64, n)
	model := make([]float64, n)
	h1 := make([]float64, n)
	h3 := make([]float64, n)
	for i := range realized {
		realized[i] = 20 + 5*rng.NormFloat64()
		model[i] = realized[i] + 2*rng.NormFloat64()
		h1[i] = realized[i] + 4*rng.NormFloat64()
		h3[i] = realized[i] + 8*rng.NormFloat64()
	}
	s, err := newEvaluator().Evaluate(Input{
		Forecasts: model,
		Realized:  realized,
		Competitors: []Series{
			{Name: "Hour 1 Predispatch", Values: h1},
			{Name: "Hour 3 Predispatch", Values: h3},
		},
	})
	require.NoError(t, err)
	require.Len(t, s.Competitors, 2)
	require.Len(t, s.Ranking, 3)
	assert.Equal(t, "ARMA", s.Ranking[0].Name)
	assert.Equal(t, "Hour 3 Predispatch", s.Ranking[2].Name)
	assert.Len(t, s.All(), 3)
	for _, m := range s.All() {
		assert.GreaterOrEqual(t, m.RMSE, m.MAE)
		assert.InDelta(t, m.Distance, m.RMSE*math.Sqrt(float64(n)), 1e-9)
	}

	require.NotNil(t, s.Diagnostics.Portmanteau)
	assert.Equal(t, 25, s.Diagnostics.Portmanteau.LjungBox.DF)
	require.NotNil(t, s.Diagnostics.JarqueBera)
	require.NotNil(t, s.Diagnostics.ADF)
	assert.True(t, s.Diagnostics.ADF.Stationary(0.05))
	assert.Empty(t, s.Diagnostics.Notes)

	raw, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ljung_box"`)
	assert.NotContains(t, string(raw), `"Residuals"`)
}

func TestEvaluateShortSeriesNotes(t *testing.T) {
	s, err := newEvaluator().Evaluate(Input{Forecasts: []float64{1, 2}, Realized: []float64{1, 3}})
	require.NoError(t, err)
	assert.Nil(t, s.Diagnostics.Portmanteau)
	assert.Nil(t, s.Diagnostics.ADF)
	assert.Len(t, s.Diagnostics.Notes, 3)
}

func TestInputFromTable(t *testing.T) {
	ts := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []backtest.ForecastRecord{
		{Timestamp: ts, Forecasted: 1, Actual: 2, PredispatchH1: 3, PredispatchH2: 4, PredispatchH3: 5, Residual: 1},
	}
	in := InputFromTable(records)
	assert.Equal(t, []float64{1}, in.Forecasts)
	assert.Equal(t, []float64{2}, in.Realized)
	require.Len(t, in.Competitors, 3)
	assert.Equal(t, "Hour 1 Predispatch", in.Competitors[0].Name)
	assert.Equal(t, []float64{5}, in.Competitors[2].Values)
}
