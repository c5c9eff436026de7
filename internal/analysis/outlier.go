package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"hoep-forecast/internal/model"
)

// OutlierReport describes one run of the outlier filter.
type OutlierReport struct {
	Input   int
	Removed int
	// FirstPass is the count a single clip over the input removes.
	FirstPass int
	// Passes is the number of clipping passes, including the final one that removed nothing.
	Passes int
	// Mean and StdDev of the HOEP column in the returned series.
	Mean   float64
	StdDev float64
}

// FilterOutliers drops whole observations whose HOEP is more than sigma sample
// standard deviations from the sample mean. The clip is repeated on its own output
// until a pass removes nothing, so filtering the result again is a no-op.
// obs is not modified.
func FilterOutliers(obs []model.PriceObservation, sigma float64) ([]model.PriceObservation, OutlierReport) {
	rep := OutlierReport{Input: len(obs)}
	kept := append([]model.PriceObservation(nil), obs...)
	for {
		rep.Passes++
		mean, sd := meanStdDev(model.Prices(kept))
		rep.Mean, rep.StdDev = mean, sd

		next := kept[:0:0]
		for _, o := range kept {
			if !isOutlier(o.HOEP, mean, sd, sigma) {
				next = append(next, o)
			}
		}
		if rep.Passes == 1 {
			rep.FirstPass = len(kept) - len(next)
		}
		if len(next) == len(kept) {
			break
		}
		kept = next
	}
	rep.Removed = rep.Input - len(kept)
	return kept, rep
}

func isOutlier(v, mean, sd, sigma float64) bool {
	if sd == 0 || math.IsNaN(sd) {
		return false
	}
	return math.Abs(v-mean) > sigma*sd
}

func meanStdDev(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}
	return stat.MeanStdDev(xs, nil)
}
