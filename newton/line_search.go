package newton

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	alf       = 1.e-4 // sufficient decrease of the full step
	rhoMax    = 10.
	rhoMin    = 1.e-2
	exclusion = 9.e-3 // trial steps closer to zero are pushed out to rhoMin
	maxSubIt  = 10
	// relative step of the directional derivative of phi
	lsEps = 1.e-7
)

// lineSearch looks for the step length rho in [-rhoMax, rhoMax] minimizing
// phi(xOld + rho*p). The full step is taken when it decreases phi enough.
// Otherwise the zero of the directional derivative is bracketed by tripling
// the step, then refined by secant steps, falling back to bisection when the
// secant leaves the bracket. check is true when no trial improved on fOld, in
// which case rho is zero.
func (w *work) lineSearch(xOld []float64, fOld float64, g, p []float64) (rho float64, check bool) {
	var (
		slope = floats.Dot(g, p)
		best  = 0.
		fBest = fOld
	)
	at := func(r float64) (fr float64) {
		floats.AddScaledTo(w.xt, xOld, r, p)
		var err error
		if fr, err = w.phi(w.xt); err != nil && w.err == nil {
			w.err = err
		}
		if math.IsNaN(fr) {
			fr = math.Inf(1)
		}
		if fr < fBest {
			best, fBest = r, fr
		}
		return
	}
	deriv := func(r, fr float64) float64 {
		h := lsEps * math.Max(math.Abs(r), 1)
		return (at(r+h) - fr) / h
	}
	push := func(r float64) float64 {
		r = math.Max(-rhoMax, math.Min(rhoMax, r))
		if math.Abs(r) < exclusion {
			if r < 0 {
				return -rhoMin
			}
			return rhoMin
		}
		return r
	}
	b := 1.
	if slope > 0 {
		// not a descent direction, look backwards
		b = -1
	}
	fb := at(b)
	if fb <= fOld-alf*math.Abs(slope) {
		return b, false
	}
	var (
		a, ga = 0., slope
		gb    = deriv(b, fb)
	)
	for it := 0; it < maxSubIt; it++ {
		var next float64
		bracketed := math.Signbit(ga) != math.Signbit(gb)
		if bracketed {
			lo, hi := math.Min(a, b), math.Max(a, b)
			next = b - gb*(b-a)/(gb-ga)
			if !(next > lo && next < hi) {
				next = 0.5 * (a + b)
			}
		} else {
			if math.Abs(b) >= rhoMax {
				break
			}
			a, ga = b, gb
			next = 3 * b
		}
		next = push(next)
		fn := at(next)
		gn := deriv(next, fn)
		if math.Abs(gn) <= 0.1*math.Abs(slope) && fn < fOld {
			break
		}
		if bracketed && math.Signbit(gn) == math.Signbit(ga) {
			a, ga = next, gn
		} else {
			b, gb = next, gn
		}
	}
	if fBest < fOld {
		return best, false
	}
	return 0, true
}
