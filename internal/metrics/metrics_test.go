package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoep-forecast/internal/accuracy"
	"hoep-forecast/internal/data"
	"hoep-forecast/internal/model"
)

func TestObserveFit(t *testing.T) {
	m := New()
	m.ObserveFit("ARMA(1,0)", 10*time.Millisecond, nil)
	m.ObserveFit("ARMA(1,0)", 12*time.Millisecond, nil)
	m.ObserveFit("", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Fits.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Fits.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Orders.WithLabelValues("ARMA(1,0)")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FitDuration))
}

func TestRecordAndExport(t *testing.T) {
	m := New()
	m.RecordLoad(&data.LoadReport{Rows: 8760, Imputed: map[model.Column]int{model.ColumnPredispatchH2: 4}})
	m.RecordOutliers(37)
	m.RecordSummary(&accuracy.Summary{
		Model:       accuracy.ForecasterMetrics{Name: "ARMA", MAE: 1.5, RMSE: 2.5},
		Competitors: []accuracy.ForecasterMetrics{{Name: "Hour 1 Predispatch", MAE: 3, RMSE: 4}},
	})

	assert.Equal(t, 8760.0, testutil.ToFloat64(m.ObservationsLoaded))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ImputedCells.WithLabelValues("Hour 2 Predispatch")))
	assert.Equal(t, 37.0, testutil.ToFloat64(m.OutliersRemoved))
	assert.Equal(t, 2.5, testutil.ToFloat64(m.ForecastError.WithLabelValues("ARMA", "rmse")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ForecastError.WithLabelValues("Hour 1 Predispatch", "mae")))

	path := filepath.Join(t.TempDir(), "hoep.prom")
	require.NoError(t, m.WriteTextfile(path))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "hoep_outliers_removed 37")
	assert.Contains(t, string(raw), `hoep_forecast_error{forecaster="ARMA",metric="rmse"} 2.5`)
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RecordOutliers(1)
	assert.Zero(t, testutil.ToFloat64(b.OutliersRemoved))
}
