package arma

import "math"

// partrans maps unconstrained reals to the coefficients of a stationary AR
// polynomial: tanh gives partial autocorrelations in (-1, 1), and the
// Durbin-Levinson recursion turns those into AR coefficients.
func partrans(raw []float64) []float64 {
	p := len(raw)
	phi := make([]float64, p)
	work := make([]float64, p)
	for j := range raw {
		phi[j] = math.Tanh(raw[j])
		work[j] = phi[j]
	}
	for j := 1; j < p; j++ {
		a := phi[j]
		for k := 0; k < j; k++ {
			work[k] -= a * phi[j-k-1]
		}
		copy(phi[:j], work[:j])
	}
	return phi
}

// invpartrans is the inverse of partrans. ok is false when phi is not stationary.
func invpartrans(phi []float64) (raw []float64, ok bool) {
	p := len(phi)
	cur := append([]float64(nil), phi...)
	work := make([]float64, p)
	for j := p - 1; j > 0; j-- {
		a := cur[j]
		if math.Abs(a) >= 1 {
			return nil, false
		}
		for k := 0; k < j; k++ {
			work[k] = (cur[k] + a*cur[j-k-1]) / (1 - a*a)
		}
		copy(cur[:j], work[:j])
	}
	raw = make([]float64, p)
	for j, v := range cur {
		if math.Abs(v) >= 1 {
			return nil, false
		}
		raw[j] = math.Atanh(v)
	}
	return raw, true
}

// stationary reports whether 1 - Σ φ_i z^i has all roots outside the unit circle.
func stationary(phi []float64) bool {
	_, ok := invpartrans(phi)
	return ok
}

// invertible reports whether 1 + Σ θ_j z^j has all roots outside the unit circle.
func invertible(theta []float64) bool {
	return stationary(negate(theta))
}

func negate(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = -v
	}
	return out
}
