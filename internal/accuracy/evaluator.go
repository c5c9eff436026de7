// Package accuracy scores the rolling forecasts against realized prices and
// against the IESO predispatch forecasts.
package accuracy

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"hoep-forecast/internal/analysis"
	"hoep-forecast/internal/backtest"
	"hoep-forecast/internal/config"
	"hoep-forecast/internal/model"
)

// DefaultModelName labels the rolling model in summaries.
const DefaultModelName = "ARMA"

// Series is a named forecast vector.
type Series struct {
	Name   string
	Values []float64
}

type Input struct {
	ModelName string
	Forecasts []float64
	Realized  []float64
	// Competitors are compared on the same realized values, Hour 1 predispatch first.
	Competitors []Series
}

// InputFromTable takes the model forecasts, the actuals and the three predispatch
// columns from a results table.
func InputFromTable(records []backtest.ForecastRecord) Input {
	in := Input{
		ModelName: DefaultModelName,
		Forecasts: backtest.Forecasts(records),
		Realized:  backtest.Actuals(records),
	}
	for _, c := range model.NumericColumns[1:] {
		in.Competitors = append(in.Competitors, Series{Name: c.String(), Values: backtest.Competitors(records, c)})
	}
	return in
}

// LengthMismatchError means a vector does not line up with the realized values.
type LengthMismatchError struct {
	Name string
	Got  int
	Want int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch: %s has %d values, realized has %d", e.Name, e.Got, e.Want)
}

// ForecasterMetrics is the accuracy of one forecaster.
type ForecasterMetrics struct {
	Name      string           `json:"name"`
	MAE       float64          `json:"mae"`
	RMSE      float64          `json:"rmse"`
	Moments   analysis.Moments `json:"moments"`
	Distance  float64          `json:"distance_to_realized"`
	Residuals []float64        `json:"-"`
}

// ResidualDiagnostics are reported for the model residuals only. A test that
// cannot run on the residuals is left nil and explained in Notes.
type ResidualDiagnostics struct {
	Portmanteau *analysis.Portmanteau `json:"portmanteau,omitempty"`
	JarqueBera  *analysis.TestResult  `json:"jarque_bera,omitempty"`
	ADF         *analysis.ADFResult   `json:"adf,omitempty"`
	Notes       []string              `json:"notes,omitempty"`
}

type Summary struct {
	N           int                    `json:"n"`
	Realized    analysis.Moments       `json:"realized"`
	Model       ForecasterMetrics      `json:"model"`
	Competitors []ForecasterMetrics    `json:"competitors"`
	Diagnostics ResidualDiagnostics    `json:"diagnostics"`
	Ranking     []analysis.RankedScore `json:"ranking"`
}

// All returns the model followed by the competitors.
func (s *Summary) All() []ForecasterMetrics {
	return append([]ForecasterMetrics{s.Model}, s.Competitors...)
}

type Evaluator struct {
	PortmanteauLag int
	ADFMaxLag      int
	Log            zerolog.Logger
}

func New(cfg config.DiagnosticsConfig, log zerolog.Logger) *Evaluator {
	return &Evaluator{
		PortmanteauLag: cfg.PortmanteauLag,
		ADFMaxLag:      cfg.ADFMaxLag,
		Log:            log.With().Str("component", "accuracy").Logger(),
	}
}

// Evaluate checks every length before computing anything, then scores the model
// and each competitor on the same realized vector.
func (e *Evaluator) Evaluate(in Input) (*Summary, error) {
	n := len(in.Realized)
	if n == 0 {
		return nil, errors.New("no realized values to evaluate")
	}
	name := in.ModelName
	if name == "" {
		name = DefaultModelName
	}
	if len(in.Forecasts) != n {
		return nil, &LengthMismatchError{Name: name, Got: len(in.Forecasts), Want: n}
	}
	for _, c := range in.Competitors {
		if len(c.Values) != n {
			return nil, &LengthMismatchError{Name: c.Name, Got: len(c.Values), Want: n}
		}
	}

	s := &Summary{
		N:        n,
		Realized: analysis.ComputeMoments(in.Realized),
		Model:    score(name, in.Forecasts, in.Realized),
	}
	scores := []analysis.ForecastScore{{Name: name, MAE: s.Model.MAE, RMSE: s.Model.RMSE}}
	for _, c := range in.Competitors {
		m := score(c.Name, c.Values, in.Realized)
		s.Competitors = append(s.Competitors, m)
		scores = append(scores, analysis.ForecastScore{Name: m.Name, MAE: m.MAE, RMSE: m.RMSE})
	}
	s.Ranking = analysis.RankByRMSE(scores)
	s.Diagnostics = e.diagnose(s.Model.Residuals)

	e.Log.Info().
		Int("n", n).
		Float64("mae", s.Model.MAE).
		Float64("rmse", s.Model.RMSE).
		Str("best", s.Ranking[0].Name).
		Msg("evaluation complete")
	return s, nil
}

func score(name string, forecast, realized []float64) ForecasterMetrics {
	resid := Residuals(realized, forecast)
	return ForecasterMetrics{
		Name:      name,
		MAE:       MAE(resid),
		RMSE:      RMSE(resid),
		Moments:   analysis.ComputeMoments(forecast),
		Distance:  analysis.Distance(forecast, realized),
		Residuals: resid,
	}
}

func (e *Evaluator) diagnose(resid []float64) ResidualDiagnostics {
	var d ResidualDiagnostics
	if pt, err := analysis.PortmanteauTest(resid, e.PortmanteauLag); err == nil {
		d.Portmanteau = &pt
	} else {
		d.Notes = append(d.Notes, "portmanteau: "+err.Error())
	}
	if jb, err := analysis.JarqueBera(resid); err == nil {
		d.JarqueBera = &jb
	} else {
		d.Notes = append(d.Notes, "jarque-bera: "+err.Error())
	}
	if adf, err := analysis.ADF(resid, e.ADFMaxLag); err == nil {
		d.ADF = &adf
	} else {
		d.Notes = append(d.Notes, "adf: "+err.Error())
		e.Log.Debug().Err(err).Msg("residual unit-root test skipped")
	}
	return d
}
