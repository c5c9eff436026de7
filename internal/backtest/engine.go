package backtest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hoep-forecast/internal/arma"
	"hoep-forecast/internal/config"
	"hoep-forecast/internal/model"
)

// Predictor is a model fitted on one training window.
type Predictor interface {
	Forecast(steps int) []float64
	Label() string
}

// Fitter chooses and fits a model for a training window. Implementations must
// be safe for concurrent use and must not retain the window.
type Fitter interface {
	SelectAndFit(window []float64) (Predictor, error)
}

// FitObserver is told about every fit attempt.
type FitObserver interface {
	ObserveFit(label string, d time.Duration, err error)
}

// ARMAFitter adapts an arma.Selector.
type ARMAFitter struct {
	Selector arma.Selector
}

func NewARMAFitter(cfg config.ForecastConfig) (*ARMAFitter, error) {
	crit, err := arma.ParseCriterion(cfg.Criterion)
	if err != nil {
		return nil, err
	}
	est, err := arma.NewEstimator(cfg.Estimator)
	if err != nil {
		return nil, err
	}
	return &ARMAFitter{Selector: arma.Selector{
		MaxP:      cfg.MaxP,
		MaxQ:      cfg.MaxQ,
		Criterion: crit,
		Stepwise:  cfg.Stepwise,
		Estimator: est,
	}}, nil
}

func (f *ARMAFitter) SelectAndFit(window []float64) (Predictor, error) {
	m, err := f.Selector.SelectAndFit(window)
	if err != nil {
		return nil, err
	}
	return armaPredictor{m}, nil
}

type armaPredictor struct{ *arma.Model }

func (p armaPredictor) Label() string { return p.Order.String() }

// InsufficientDataError means the series is not longer than the evaluation window.
type InsufficientDataError struct {
	Have   int
	Window int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d observations for a %d-step evaluation window", e.Have, e.Window)
}

// ModelFitError identifies the rolling step whose fit failed.
type ModelFitError struct {
	// Iteration is the trailing offset i; the window ends at TargetIndex = N - i.
	Iteration   int
	TargetIndex int
	TrainLen    int
	Err         error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("rolling step i=%d (target index %d, %d training observations): %v",
		e.Iteration, e.TargetIndex, e.TrainLen, e.Err)
}

func (e *ModelFitError) Unwrap() error { return e.Err }

var errNonFinite = errors.New("forecast is not finite")

// Step is one rolling forecast.
type Step struct {
	Iteration   int
	TargetIndex int
	Timestamp   time.Time // zero unless the run was given observations
	TrainLen    int
	// Forecast is the first value of Path, the one-step-ahead prediction for TargetIndex.
	Forecast    float64
	Path        []float64
	Model       string
	FitDuration time.Duration
}

type Result struct {
	Steps    []Step
	Failures []ModelFitError
	N        int
	Window   int
}

// Forecasts returns the one-step-ahead forecasts in target order.
func (r *Result) Forecasts() []float64 {
	out := make([]float64, len(r.Steps))
	for i, s := range r.Steps {
		out[i] = s.Forecast
	}
	return out
}

// Engine runs the expanding-window refit-and-forecast loop.
type Engine struct {
	Fitter   Fitter
	Horizon  int
	Workers  int
	Policy   string
	Observer FitObserver
	Log      zerolog.Logger
}

func New(f Fitter, cfg config.ForecastConfig, log zerolog.Logger) *Engine {
	return &Engine{
		Fitter:  f,
		Horizon: cfg.Horizon,
		Workers: cfg.Workers,
		Policy:  cfg.OnFitError,
		Log:     log.With().Str("component", "backtest").Logger(),
	}
}

// Run forecasts the last window values of series. For i = window..1 the model is
// fitted on series[:N-i] only, and the first value of a Horizon-step forecast is
// kept as the prediction for index N-i.
//
// Steps run on up to Workers goroutines; the result does not depend on Workers.
// Under the abort policy the error is the *ModelFitError with the lowest target
// index. Under the skip policy failed steps are left out and listed in Failures.
func (e *Engine) Run(ctx context.Context, series []float64, window int) (*Result, error) {
	if e.Fitter == nil {
		return nil, errors.New("fitter is nil")
	}
	if window < 1 {
		return nil, fmt.Errorf("evaluation window must be >= 1, got %d", window)
	}
	n := len(series)
	if n <= window {
		return nil, &InsufficientDataError{Have: n, Window: window}
	}
	horizon := max(e.Horizon, 1)
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	abort := e.Policy != config.PolicySkip

	type slot struct {
		step Step
		err  *ModelFitError
		done bool
	}
	slots := make([]slot, window)

	// Lowest failed slot so far; later slots cannot change the abort error.
	var firstFail atomic.Int64
	firstFail.Store(int64(window))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for k := 0; k < window; k++ {
		k := k
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if abort && int64(k) > firstFail.Load() {
				return nil
			}
			i := window - k
			end := n - i
			step, err := e.fitStep(series[:end:end], horizon)
			step.Iteration, step.TargetIndex, step.TrainLen = i, end, end
			if err != nil {
				slots[k] = slot{err: &ModelFitError{Iteration: i, TargetIndex: end, TrainLen: end, Err: err}, done: true}
				for {
					cur := firstFail.Load()
					if int64(k) >= cur || firstFail.CompareAndSwap(cur, int64(k)) {
						break
					}
				}
				return nil
			}
			slots[k] = slot{step: step, done: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{N: n, Window: window, Steps: make([]Step, 0, window)}
	for _, s := range slots {
		if !s.done {
			continue
		}
		if s.err != nil {
			if abort {
				return nil, s.err
			}
			e.Log.Warn().Err(s.err.Err).
				Int("iteration", s.err.Iteration).
				Int("train_len", s.err.TrainLen).
				Msg("fit failed, step skipped")
			res.Failures = append(res.Failures, *s.err)
			continue
		}
		res.Steps = append(res.Steps, s.step)
	}
	return res, nil
}

func (e *Engine) fitStep(train []float64, horizon int) (Step, error) {
	start := time.Now()
	pred, err := e.Fitter.SelectAndFit(train)
	d := time.Since(start)
	label := ""
	if err == nil {
		label = pred.Label()
	}
	if e.Observer != nil {
		e.Observer.ObserveFit(label, d, err)
	}
	if err != nil {
		return Step{}, err
	}

	path := pred.Forecast(horizon)
	if len(path) == 0 || math.IsNaN(path[0]) || math.IsInf(path[0], 0) {
		return Step{}, errNonFinite
	}
	e.Log.Debug().
		Int("train_len", len(train)).
		Str("model", label).
		Float64("forecast", path[0]).
		Dur("fit", d).
		Msg("step fitted")
	return Step{Forecast: path[0], Path: path, Model: label, FitDuration: d}, nil
}

// RunObservations runs on the HOEP column of obs and stamps each step with the
// timestamp of the observation it predicts.
func (e *Engine) RunObservations(ctx context.Context, obs []model.PriceObservation, window int) (*Result, error) {
	res, err := e.Run(ctx, model.Prices(obs), window)
	if err != nil {
		return nil, err
	}
	for i := range res.Steps {
		res.Steps[i].Timestamp = obs[res.Steps[i].TargetIndex].Timestamp
	}
	return res, nil
}
