package accuracy

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Residuals returns realized - forecast element-wise. The slices must be the same length.
func Residuals(realized, forecast []float64) []float64 {
	out := make([]float64, len(realized))
	floats.SubTo(out, realized, forecast)
	return out
}

// MAE is the mean absolute residual; 0 for an empty slice.
func MAE(resid []float64) float64 {
	if len(resid) == 0 {
		return 0
	}
	return floats.Norm(resid, 1) / float64(len(resid))
}

// RMSE is the root mean squared residual; 0 for an empty slice.
func RMSE(resid []float64) float64 {
	if len(resid) == 0 {
		return 0
	}
	return floats.Norm(resid, 2) / math.Sqrt(float64(len(resid)))
}
