package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"hoep-forecast/internal/accuracy"
	"hoep-forecast/internal/data"
	"hoep-forecast/internal/model"
)

// Metrics holds the Prometheus collectors for one analysis run.
// Each run gets its own registry; nothing is registered globally.
type Metrics struct {
	Registry *prometheus.Registry

	ObservationsLoaded prometheus.Gauge
	ImputedCells       *prometheus.GaugeVec
	OutliersRemoved    prometheus.Gauge

	Fits        *prometheus.CounterVec
	FitDuration prometheus.Histogram
	Orders      *prometheus.CounterVec

	ForecastError *prometheus.GaugeVec
}

// New creates and registers all metrics
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,

		ObservationsLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "hoep_observations_loaded",
			Help: "Hourly observations read from the price report",
		}),
		ImputedCells: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hoep_imputed_cells",
				Help: "Cells replaced by the column median, per column",
			},
			[]string{"column"},
		),
		OutliersRemoved: f.NewGauge(prometheus.GaugeOpts{
			Name: "hoep_outliers_removed",
			Help: "Observations dropped by the outlier filter",
		}),

		Fits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoep_model_fits_total",
				Help: "Rolling model fits by outcome",
			},
			[]string{"outcome"},
		),
		FitDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hoep_model_fit_duration_seconds",
			Help:    "Wall time of one order search and fit",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		Orders: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hoep_model_orders_total",
				Help: "Selected model orders across rolling steps",
			},
			[]string{"model"},
		),

		ForecastError: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "hoep_forecast_error",
				Help: "Accuracy of each forecaster over the evaluation window",
			},
			[]string{"forecaster", "metric"},
		),
	}
}

// ObserveFit records one rolling fit.
func (m *Metrics) ObserveFit(label string, d time.Duration, err error) {
	m.FitDuration.Observe(d.Seconds())
	if err != nil {
		m.Fits.WithLabelValues("error").Inc()
		return
	}
	m.Fits.WithLabelValues("ok").Inc()
	m.Orders.WithLabelValues(label).Inc()
}

func (m *Metrics) RecordLoad(rep *data.LoadReport) {
	if rep == nil {
		return
	}
	m.ObservationsLoaded.Set(float64(rep.Rows))
	for _, c := range model.NumericColumns {
		m.ImputedCells.WithLabelValues(c.String()).Set(float64(rep.Imputed[c]))
	}
}

func (m *Metrics) RecordOutliers(removed int) {
	m.OutliersRemoved.Set(float64(removed))
}

func (m *Metrics) RecordSummary(s *accuracy.Summary) {
	if s == nil {
		return
	}
	for _, f := range s.All() {
		m.ForecastError.WithLabelValues(f.Name, "mae").Set(f.MAE)
		m.ForecastError.WithLabelValues(f.Name, "rmse").Set(f.RMSE)
	}
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
