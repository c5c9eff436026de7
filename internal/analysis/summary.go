package analysis

import (
	"math"
	"sort"
	"time"

	"hoep-forecast/internal/model"
)

// SeriesSummary describes one price column over a period.
type SeriesSummary struct {
	Name string

	Start time.Time
	End   time.Time

	Count int

	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P05    float64
	P95    float64

	SpreadP95P05 float64

	// MaxRamp is the largest absolute change between consecutive hours.
	MaxRamp float64

	Moments Moments
}

// Describe summarizes column c of obs.
func Describe(obs []model.PriceObservation, c model.Column) SeriesSummary {
	s := DescribeValues(c.String(), model.Values(obs, c))
	if len(obs) > 0 {
		s.Start = obs[0].Timestamp
		s.End = obs[len(obs)-1].Timestamp
	}
	return s
}

// DescribeValues summarizes a bare series.
func DescribeValues(name string, xs []float64) SeriesSummary {
	s := SeriesSummary{Name: name}
	if len(xs) == 0 {
		return s
	}
	s.Count = len(xs)

	minv := math.Inf(1)
	maxv := math.Inf(-1)
	for i, v := range xs {
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
		if i > 0 {
			if r := math.Abs(v - xs[i-1]); r > s.MaxRamp {
				s.MaxRamp = r
			}
		}
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	s.Min = minv
	s.Max = maxv
	s.Median = percentileSorted(sorted, 0.5)
	s.P05 = percentileSorted(sorted, 0.05)
	s.P95 = percentileSorted(sorted, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05
	s.Moments = ComputeMoments(xs)
	s.Mean = s.Moments.Mean
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// DescribeAll summarizes every numeric column in report order.
func DescribeAll(obs []model.PriceObservation) []SeriesSummary {
	out := make([]SeriesSummary, 0, len(model.NumericColumns))
	for _, c := range model.NumericColumns {
		out = append(out, Describe(obs, c))
	}
	return out
}
