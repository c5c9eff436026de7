package arma

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Criterion is an information criterion used to rank candidate orders.
type Criterion string

const (
	AIC  Criterion = "aic"
	AICc Criterion = "aicc"
	BIC  Criterion = "bic"
)

// ParseCriterion accepts aic, aicc and bic; anything else is an error.
func ParseCriterion(s string) (Criterion, error) {
	switch c := Criterion(s); c {
	case AIC, AICc, BIC:
		return c, nil
	}
	return "", fmt.Errorf("unknown criterion %q", s)
}

// NewEstimator returns the estimator registered under name.
func NewEstimator(name string) (Estimator, error) {
	switch name {
	case "", "css":
		return CSS{}, nil
	case "hannan-rissanen":
		return HannanRissanen{}, nil
	}
	return nil, fmt.Errorf("unknown estimator %q", name)
}

// Selector searches p ≤ MaxP, q ≤ MaxQ and keeps the model with the lowest criterion.
// A Selector is stateless and safe for concurrent use.
type Selector struct {
	MaxP      int
	MaxQ      int
	Criterion Criterion
	// Stepwise walks the order neighbourhood from a few starting points
	// (Hyndman-Khandakar) instead of fitting the whole grid.
	Stepwise  bool
	Estimator Estimator
}

// maxStepwiseFits bounds the stepwise walk.
const maxStepwiseFits = 94

// SelectAndFit fits the best order for y. Orders that fail to fit are skipped;
// if none succeeds, the returned *FitError wraps the last failure.
func (s Selector) SelectAndFit(y []float64) (*Model, error) {
	est := s.Estimator
	if est == nil {
		est = CSS{}
	}
	crit := s.Criterion
	if crit == "" {
		crit = AICc
	}
	if len(y) < 4 {
		return nil, &FitError{N: len(y), Method: est.Name(), Err: ErrTooShort}
	}
	if stat.Variance(y, nil) == 0 {
		return nil, &FitError{N: len(y), Method: est.Name(), Err: ErrConstant}
	}

	search := searchState{
		y:     y,
		est:   est,
		crit:  crit,
		maxP:  s.MaxP,
		maxQ:  s.MaxQ,
		tried: map[Order]bool{},
	}
	if s.Stepwise {
		search.stepwise()
	} else {
		search.exhaustive()
	}
	if search.best == nil {
		err := search.lastErr
		if err == nil {
			err = ErrNoCandidate
		}
		return nil, &FitError{N: len(y), Method: est.Name(), Err: err}
	}
	return search.best, nil
}

type searchState struct {
	y          []float64
	est        Estimator
	crit       Criterion
	maxP, maxQ int

	tried   map[Order]bool
	best    *Model
	lastErr error
}

// try fits o once and reports whether it became the best model.
func (s *searchState) try(o Order) bool {
	if o.P < 0 || o.Q < 0 || o.P > s.maxP || o.Q > s.maxQ || s.tried[o] {
		return false
	}
	s.tried[o] = true
	if !o.feasible(len(s.y)) {
		return false
	}
	m, err := s.est.Fit(s.y, o)
	if err != nil {
		s.lastErr = err
		return false
	}
	score := m.Score(s.crit)
	if math.IsNaN(score) {
		return false
	}
	if s.best == nil || score < s.best.Score(s.crit) {
		s.best = m
		return true
	}
	return false
}

func (s *searchState) exhaustive() {
	for p := 0; p <= s.maxP; p++ {
		for q := 0; q <= s.maxQ; q++ {
			s.try(Order{P: p, Q: q})
		}
	}
}

func (s *searchState) stepwise() {
	for _, o := range []Order{
		{P: min(2, s.maxP), Q: min(2, s.maxQ)},
		{P: 0, Q: 0},
		{P: min(1, s.maxP), Q: 0},
		{P: 0, Q: min(1, s.maxQ)},
	} {
		s.try(o)
	}
	for len(s.tried) < maxStepwiseFits && s.best != nil {
		cur := s.best.Order
		improved := false
		for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}, {-1, -1}, {1, 1}, {-1, 1}, {1, -1}} {
			if s.try(Order{P: cur.P + d[0], Q: cur.Q + d[1]}) {
				improved = true
				break
			}
		}
		if !improved {
			return
		}
	}
}
