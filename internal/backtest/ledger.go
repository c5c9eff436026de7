package backtest

import (
	"fmt"
	"time"

	"hoep-forecast/internal/model"
)

// ForecastRecord is one row of the results table: the model forecast for an hour
// next to what happened and what the IESO predispatch said.
// This is the primary artifact for every accuracy metric and plot.
type ForecastRecord struct {
	Timestamp time.Time

	Forecasted float64
	Actual     float64

	PredispatchH1 float64
	PredispatchH2 float64
	PredispatchH3 float64

	// Residual is Actual - Forecasted.
	Residual float64

	Model    string
	TrainLen int
}

// Competitor returns the predispatch value for column c (HOEP returns Actual).
func (r ForecastRecord) Competitor(c model.Column) float64 {
	switch c {
	case model.ColumnPredispatchH1:
		return r.PredispatchH1
	case model.ColumnPredispatchH2:
		return r.PredispatchH2
	case model.ColumnPredispatchH3:
		return r.PredispatchH3
	default:
		return r.Actual
	}
}

// MissingObservationError means a forecast has no observation at its timestamp.
type MissingObservationError struct {
	Timestamp time.Time
}

func (e *MissingObservationError) Error() string {
	return fmt.Sprintf("no observation at %s", e.Timestamp.Format(time.RFC3339))
}

// BuildTable joins steps to obs by timestamp. Steps without a timestamp, or whose
// timestamp is not in obs, are an error; nothing is matched by position.
func BuildTable(steps []Step, obs []model.PriceObservation) ([]ForecastRecord, error) {
	idx := model.Index(obs)
	out := make([]ForecastRecord, 0, len(steps))
	for _, s := range steps {
		if s.Timestamp.IsZero() {
			return nil, fmt.Errorf("step for target index %d has no timestamp", s.TargetIndex)
		}
		o, ok := idx[model.TimeKey(s.Timestamp)]
		if !ok {
			return nil, &MissingObservationError{Timestamp: s.Timestamp}
		}
		out = append(out, ForecastRecord{
			Timestamp:     o.Timestamp,
			Forecasted:    s.Forecast,
			Actual:        o.HOEP,
			PredispatchH1: o.PredispatchH1,
			PredispatchH2: o.PredispatchH2,
			PredispatchH3: o.PredispatchH3,
			Residual:      o.HOEP - s.Forecast,
			Model:         s.Model,
			TrainLen:      s.TrainLen,
		})
	}
	return out, nil
}

// Forecasts, Actuals and Competitors slice the table by column.
func Forecasts(records []ForecastRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Forecasted
	}
	return out
}

func Actuals(records []ForecastRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Actual
	}
	return out
}

func Competitors(records []ForecastRecord, c model.Column) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Competitor(c)
	}
	return out
}

func Residuals(records []ForecastRecord) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Residual
	}
	return out
}
