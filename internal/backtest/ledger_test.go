package backtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoep-forecast/internal/model"
)

func hourly(n int) []model.PriceObservation {
	start := time.Date(2019, 7, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*3600))
	out := make([]model.PriceObservation, n)
	for i := range out {
		v := float64(10 + i)
		out[i] = model.PriceObservation{
			Timestamp:     start.Add(time.Duration(i) * time.Hour),
			HOEP:          v,
			PredispatchH1: v + 1,
			PredispatchH2: v + 2,
			PredispatchH3: v + 3,
		}
	}
	return out
}

func TestBuildTableJoinsByTimestamp(t *testing.T) {
	obs := hourly(6)
	steps := []Step{
		{TargetIndex: 4, Timestamp: obs[4].Timestamp.UTC(), Forecast: 13.5, Model: "ARMA(1,0)", TrainLen: 4},
		{TargetIndex: 5, Timestamp: obs[5].Timestamp, Forecast: 16, Model: "ARMA(0,1)", TrainLen: 5},
	}
	// Reverse the observations: position must not matter.
	rev := make([]model.PriceObservation, len(obs))
	for i := range obs {
		rev[len(obs)-1-i] = obs[i]
	}

	table, err := BuildTable(steps, rev)
	require.NoError(t, err)
	require.Len(t, table, 2)

	assert.Equal(t, 14.0, table[0].Actual)
	assert.Equal(t, 15.0, table[0].PredispatchH1)
	assert.Equal(t, 17.0, table[0].PredispatchH3)
	assert.Equal(t, "ARMA(1,0)", table[0].Model)
	for _, r := range table {
		assert.Equal(t, r.Actual-r.Forecasted, r.Residual)
	}
	assert.Equal(t, []float64{0.5, -1}, Residuals(table))
	assert.Equal(t, []float64{13.5, 16}, Forecasts(table))
	assert.Equal(t, []float64{14, 15}, Actuals(table))
	assert.Equal(t, []float64{16, 17}, Competitors(table, model.ColumnPredispatchH2))
}

func TestBuildTableMissingTimestamp(t *testing.T) {
	obs := hourly(3)
	_, err := BuildTable([]Step{{Timestamp: obs[2].Timestamp.Add(time.Hour), Forecast: 1}}, obs)
	var me *MissingObservationError
	require.ErrorAs(t, err, &me)

	_, err = BuildTable([]Step{{TargetIndex: 1, Forecast: 1}}, obs)
	assert.Error(t, err)
}

func TestResultsCSVRoundTrip(t *testing.T) {
	obs := hourly(4)
	steps := []Step{
		{Timestamp: obs[2].Timestamp, Forecast: 11.25, Model: "ARMA(2,1)", TrainLen: 2},
		{Timestamp: obs[3].Timestamp, Forecast: 14.125, Model: "ARMA(0,0)", TrainLen: 3},
	}
	table, err := BuildTable(steps, obs)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "forecasts.csv")
	require.NoError(t, WriteResultsCSV(path, table))
	got, err := ReadResultsCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range table {
		assert.True(t, table[i].Timestamp.Equal(got[i].Timestamp))
		assert.InDelta(t, table[i].Forecasted, got[i].Forecasted, 1e-9)
		assert.InDelta(t, table[i].Residual, got[i].Residual, 1e-9)
		assert.Equal(t, table[i].Model, got[i].Model)
		assert.Equal(t, table[i].TrainLen, got[i].TrainLen)
		assert.InDelta(t, table[i].PredispatchH2, got[i].PredispatchH2, 1e-9)
	}
}
