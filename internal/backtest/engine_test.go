package backtest

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hoep-forecast/internal/arma"
	"hoep-forecast/internal/config"
	"hoep-forecast/internal/model"
)

// naivePredictor repeats the last training value.
type naivePredictor struct{ last float64 }

func (p naivePredictor) Forecast(steps int) []float64 {
	out := make([]float64, steps)
	for i := range out {
		out[i] = p.last
	}
	return out
}

func (naivePredictor) Label() string { return "naive" }

// recordingFitter keeps a copy of every window it is given.
type recordingFitter struct {
	mu      sync.Mutex
	windows [][]float64
	failOn  map[int]bool // window lengths that fail
}

func (f *recordingFitter) SelectAndFit(w []float64) (Predictor, error) {
	f.mu.Lock()
	f.windows = append(f.windows, append([]float64(nil), w...))
	f.mu.Unlock()
	if f.failOn[len(w)] {
		return nil, &arma.FitError{N: len(w), Method: "test", Err: arma.ErrConstant}
	}
	return naivePredictor{last: w[len(w)-1]}, nil
}

func (f *recordingFitter) lengths() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, len(f.windows))
	for i, w := range f.windows {
		out[i] = len(w)
	}
	sort.Ints(out)
	return out
}

type countingObserver struct {
	mu         sync.Mutex
	ok, failed int
}

func (o *countingObserver) ObserveFit(_ string, _ time.Duration, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failed++
	} else {
		o.ok++
	}
}

func newEngine(f Fitter, workers int, policy string) *Engine {
	return &Engine{Fitter: f, Horizon: 3, Workers: workers, Policy: policy, Log: zerolog.Nop()}
}

var wave = []float64{10, 12, 11, 13, 9, 14, 10, 12, 11, 13, 9, 14}

func TestRunPeriodicWave(t *testing.T) {
	f := &recordingFitter{}
	res, err := newEngine(f, 1, config.PolicyAbort).Run(context.Background(), wave, 3)
	require.NoError(t, err)
	require.Len(t, res.Steps, 3)
	assert.Equal(t, []int{9, 10, 11}, f.lengths())

	for k, s := range res.Steps {
		assert.Equal(t, 9+k, s.TargetIndex)
		assert.Equal(t, 9+k, s.TrainLen)
		assert.Equal(t, 3-k, s.Iteration)
		assert.Len(t, s.Path, 3)
		assert.Equal(t, wave[s.TargetIndex-1], s.Forecast)
	}
	for _, w := range f.windows {
		assert.Equal(t, wave[:len(w)], w, "training window must be a prefix")
	}
	assert.Equal(t, []float64{11, 13, 9}, res.Forecasts())
}

func TestRunRejectsShortSeries(t *testing.T) {
	for _, n := range []int{0, 2, 3} {
		f := &recordingFitter{}
		res, err := newEngine(f, 1, config.PolicyAbort).Run(context.Background(), wave[:n], 3)
		var ide *InsufficientDataError
		require.True(t, errors.As(err, &ide), "n=%d", n)
		assert.Equal(t, n, ide.Have)
		assert.Nil(t, res)
		assert.Empty(t, f.lengths(), "no fit may run")
	}
}

func TestRunHasNoLookAhead(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	series := make([]float64, 120)
	for i := range series {
		series[i] = 20 + 3*rng.NormFloat64()
	}
	fitter, err := NewARMAFitter(config.ForecastConfig{MaxP: 2, MaxQ: 1, Criterion: "aicc", Estimator: "css"})
	require.NoError(t, err)
	e := newEngine(fitter, 2, config.PolicyAbort)

	base, err := e.Run(context.Background(), series, 5)
	require.NoError(t, err)

	// The last value is never part of any training window.
	changedLast := append([]float64(nil), series...)
	changedLast[len(series)-1] = 1e6
	got, err := e.Run(context.Background(), changedLast, 5)
	require.NoError(t, err)
	assert.Equal(t, base.Forecasts(), got.Forecasts())

	// The second to last value only reaches the final step.
	changedPrev := append([]float64(nil), series...)
	changedPrev[len(series)-2] = 1e3
	got, err = e.Run(context.Background(), changedPrev, 5)
	require.NoError(t, err)
	assert.Equal(t, base.Forecasts()[:4], got.Forecasts()[:4])
	assert.NotEqual(t, base.Forecasts()[4], got.Forecasts()[4])
}

func TestRunParallelMatchesSerial(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	series := make([]float64, 200)
	for i := 1; i < len(series); i++ {
		series[i] = 0.6*series[i-1] + rng.NormFloat64()
	}
	fitter, err := NewARMAFitter(config.ForecastConfig{MaxP: 2, MaxQ: 2, Criterion: "bic", Estimator: "hannan-rissanen"})
	require.NoError(t, err)

	serial, err := newEngine(fitter, 1, config.PolicyAbort).Run(context.Background(), series, 24)
	require.NoError(t, err)
	parallel, err := newEngine(fitter, 8, config.PolicyAbort).Run(context.Background(), series, 24)
	require.NoError(t, err)

	require.Len(t, parallel.Steps, 24)
	assert.Equal(t, serial.Forecasts(), parallel.Forecasts())
	for k := range serial.Steps {
		assert.Equal(t, serial.Steps[k].Model, parallel.Steps[k].Model)
		assert.Equal(t, serial.Steps[k].Path, parallel.Steps[k].Path)
		assert.Equal(t, serial.Steps[k].TargetIndex, parallel.Steps[k].TargetIndex)
	}
}

func TestRunAbortReportsLowestFailingStep(t *testing.T) {
	for _, workers := range []int{1, 4} {
		f := &recordingFitter{failOn: map[int]bool{10: true, 11: true}}
		obs := &countingObserver{}
		e := newEngine(f, workers, config.PolicyAbort)
		e.Observer = obs

		res, err := e.Run(context.Background(), wave, 3)
		assert.Nil(t, res)
		var mfe *ModelFitError
		require.True(t, errors.As(err, &mfe))
		assert.Equal(t, 10, mfe.TargetIndex)
		assert.Equal(t, 2, mfe.Iteration)
		assert.Equal(t, 10, mfe.TrainLen)
		assert.ErrorIs(t, err, arma.ErrConstant)
		assert.GreaterOrEqual(t, obs.failed, 1)
	}
}

func TestRunSkipPolicy(t *testing.T) {
	f := &recordingFitter{failOn: map[int]bool{10: true}}
	obs := &countingObserver{}
	e := newEngine(f, 3, config.PolicySkip)
	e.Observer = obs

	res, err := e.Run(context.Background(), wave, 3)
	require.NoError(t, err)
	require.Len(t, res.Steps, 2)
	assert.Equal(t, 9, res.Steps[0].TargetIndex)
	assert.Equal(t, 11, res.Steps[1].TargetIndex)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 10, res.Failures[0].TargetIndex)
	assert.Equal(t, 2, obs.ok)
	assert.Equal(t, 1, obs.failed)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(&recordingFitter{}, 2, config.PolicyAbort).Run(ctx, wave, 3)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunObservationsStampsTargets(t *testing.T) {
	start := time.Date(2019, 5, 1, 0, 0, 0, 0, time.UTC)
	obs := make([]model.PriceObservation, len(wave))
	for i, v := range wave {
		obs[i] = model.PriceObservation{Timestamp: start.Add(time.Duration(i) * time.Hour), HOEP: v}
	}
	res, err := newEngine(&recordingFitter{}, 1, config.PolicyAbort).RunObservations(context.Background(), obs, 3)
	require.NoError(t, err)
	for _, s := range res.Steps {
		assert.Equal(t, obs[s.TargetIndex].Timestamp, s.Timestamp)
	}
}
