// Package pipeline wires the analysis stages together:
// load → clean → diagnose → forecast → join → evaluate → render.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"hoep-forecast/internal/accuracy"
	"hoep-forecast/internal/analysis"
	"hoep-forecast/internal/backtest"
	"hoep-forecast/internal/config"
	"hoep-forecast/internal/data"
	"hoep-forecast/internal/metrics"
	"hoep-forecast/internal/model"
	"hoep-forecast/internal/report"
)

const (
	StageLoad     = "load"
	StageClean    = "clean"
	StageDiagnose = "diagnose"
	StageForecast = "forecast"
	StageJoin     = "join"
	StageEvaluate = "evaluate"
	StageRender   = "render"
)

// StageError names the stage a run failed in.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return e.Stage + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

type Pipeline struct {
	cfg     *config.Config
	log     zerolog.Logger
	out     io.Writer
	metrics *metrics.Metrics
	fitter  backtest.Fitter
}

type Option func(*Pipeline)

// WithOutput prints the report tables to w.
func WithOutput(w io.Writer) Option { return func(p *Pipeline) { p.out = w } }

func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

// WithFitter replaces the ARMA order search, e.g. with a cheaper model.
func WithFitter(f backtest.Fitter) Option { return func(p *Pipeline) { p.fitter = f } }

func New(cfg *config.Config, log zerolog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{cfg: cfg, log: log.With().Str("component", "pipeline").Logger()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run loads cfg.Data.Path and runs every stage.
func (p *Pipeline) Run(ctx context.Context) (*report.Report, error) {
	obs, load, err := p.Load()
	if err != nil {
		return nil, err
	}
	return p.RunObservations(ctx, obs, load, p.cfg.Data.Path)
}

// Load is the load stage on its own.
func (p *Pipeline) Load() ([]model.PriceObservation, *data.LoadReport, error) {
	start := time.Now()
	obs, load, err := data.LoadPriceCSV(p.cfg.Data.Path, p.cfg.Data.SkipRows)
	if err != nil {
		return nil, nil, stageErr(StageLoad, err)
	}
	p.log.Info().
		Str("path", p.cfg.Data.Path).
		Int("rows", load.Rows).
		Int("imputed", load.ImputedTotal()).
		Dur("took", time.Since(start)).
		Msg("prices loaded")
	return obs, load, nil
}

// Describe runs the clean and diagnose stages and renders the price tables only.
func (p *Pipeline) Describe(obs []model.PriceObservation, load *data.LoadReport, source string) (*report.Report, error) {
	rep := p.newReport(load, source)
	p.clean(rep, obs)
	p.diagnose(rep)
	if _, err := p.renderer().Render(rep); err != nil {
		return rep, stageErr(StageRender, err)
	}
	return rep, nil
}

// RunObservations runs every stage after load.
func (p *Pipeline) RunObservations(ctx context.Context, obs []model.PriceObservation, load *data.LoadReport, source string) (*report.Report, error) {
	rep := p.newReport(load, source)
	p.clean(rep, obs)
	p.diagnose(rep)

	fc := p.cfg.Forecast
	fitter := p.fitter
	if fitter == nil {
		f, err := backtest.NewARMAFitter(fc)
		if err != nil {
			return nil, stageErr(StageForecast, err)
		}
		fitter = f
	}
	engine := backtest.New(fitter, fc, p.log)
	if p.metrics != nil {
		engine.Observer = p.metrics
	}

	start := time.Now()
	res, err := engine.RunObservations(ctx, rep.Cleaned, fc.WindowHours)
	if err != nil {
		return nil, stageErr(StageForecast, err)
	}
	for _, f := range res.Failures {
		rep.Failures = append(rep.Failures, f.Error())
	}
	p.log.Info().
		Int("steps", len(res.Steps)).
		Int("skipped", len(res.Failures)).
		Dur("took", time.Since(start)).
		Msg("rolling forecast complete")

	rep.Records, err = backtest.BuildTable(res.Steps, rep.Cleaned)
	if err != nil {
		return nil, stageErr(StageJoin, err)
	}

	if err := p.evaluate(rep); err != nil {
		return nil, err
	}
	if err := p.render(rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// EvaluateRecords scores a results table produced by an earlier run.
func (p *Pipeline) EvaluateRecords(records []backtest.ForecastRecord, source string) (*report.Report, error) {
	rep := p.newReport(nil, source)
	rep.Records = records
	if err := p.evaluate(rep); err != nil {
		return nil, err
	}
	if _, err := p.renderer().Render(rep); err != nil {
		return rep, stageErr(StageRender, err)
	}
	return rep, nil
}

func (p *Pipeline) newReport(load *data.LoadReport, source string) *report.Report {
	if p.metrics != nil {
		p.metrics.RecordLoad(load)
	}
	return &report.Report{Generated: time.Now().UTC(), Source: source, Load: load}
}

func (p *Pipeline) clean(rep *report.Report, obs []model.PriceObservation) {
	cleaned, out := analysis.FilterOutliers(obs, p.cfg.Cleaning.OutlierSigma)
	rep.Cleaned = cleaned
	rep.Outliers = out
	rep.Series = analysis.DescribeAll(cleaned)
	if p.metrics != nil {
		p.metrics.RecordOutliers(out.Removed)
	}
	p.log.Info().
		Int("removed", out.Removed).
		Int("kept", len(cleaned)).
		Int("passes", out.Passes).
		Float64("sigma", p.cfg.Cleaning.OutlierSigma).
		Msg("outliers filtered")
}

// diagnose is informational; a failed unit-root test is logged, not returned.
func (p *Pipeline) diagnose(rep *report.Report) {
	prices := model.Prices(rep.Cleaned)
	rep.Correlogram = analysis.ComputeCorrelogram(prices, p.cfg.Diagnostics.ACFLags)
	adf, err := analysis.ADF(prices, p.cfg.Diagnostics.ADFMaxLag)
	if err != nil {
		p.log.Warn().Err(err).Str("stage", StageDiagnose).Msg("unit-root test skipped")
		return
	}
	rep.PriceADF = &adf
	p.log.Info().
		Float64("adf", adf.Statistic).
		Float64("p_value", adf.PValue).
		Int("lag", adf.UsedLag).
		Bool("stationary", adf.Stationary(0.05)).
		Msg("stationarity checked")
}

func (p *Pipeline) evaluate(rep *report.Report) error {
	ev := accuracy.New(p.cfg.Diagnostics, p.log)
	s, err := ev.Evaluate(accuracy.InputFromTable(rep.Records))
	if err != nil {
		return stageErr(StageEvaluate, err)
	}
	rep.Accuracy = s
	if p.metrics != nil {
		p.metrics.RecordSummary(s)
	}
	return nil
}

func (p *Pipeline) render(rep *report.Report) error {
	if _, err := p.renderer().Render(rep); err != nil {
		return stageErr(StageRender, err)
	}
	if p.metrics != nil && p.cfg.Output.MetricsFile != "" {
		path := p.cfg.Output.MetricsFile
		if !filepath.IsAbs(path) && p.cfg.Output.Dir != "" {
			path = filepath.Join(p.cfg.Output.Dir, path)
		}
		if err := p.metrics.WriteTextfile(path); err != nil {
			return stageErr(StageRender, fmt.Errorf("metrics textfile: %w", err))
		}
	}
	return nil
}

func (p *Pipeline) renderer() *report.Renderer {
	return report.NewRenderer(p.cfg.Output.Dir, p.cfg.Output.Plots, p.out, p.log)
}
