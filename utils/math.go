package utils

import (
	"math"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

func POW(x float64, pp int) (y float64) {
	var (
		p       = pp
		flipped bool
	)
	if pp > 8 || pp < -8 {
		goto MATHPOW
	}

	if p < 0 {
		p = -pp
		flipped = true
	}
	switch p {
	case 0:
		y = 1
	case 1:
		y = x
	case 2:
		y = x * x
	case 3:
		y = x * x * x
	case 4:
		y = x * x
		y = y * y
	case 5:
		y = x * x
		y = y * y * x
	case 6:
		y = x * x
		y = y * y * y
	case 7:
		y = x * x
		y = y * y * y * x
	case 8:
		y = x * x
		y = y * y * y * y
	}
	if flipped {
		y = 1. / y
	}
	return

MATHPOW:
	y = math.Pow(x, float64(p))
	return
}

// MaxAbs returns the infinity norm of v.
func MaxAbs(v []float64) (m float64) {
	for _, f := range v {
		if a := math.Abs(f); a > m {
			m = a
		}
	}
	return
}

// twoSum returns s = fl(a+b) and the rounding error e with a+b = s+e exactly.
func twoSum(a, b float64) (s, e float64) {
	s = a + b
	bb := s - a
	e = (a - (s - bb)) + (b - bb)
	return
}

// twoProd returns p = fl(a*b) and the rounding error e with a*b = p+e exactly.
func twoProd(a, b float64) (p, e float64) {
	p = a * b
	e = math.FMA(a, b, -p)
	return
}

// CompensatedDot returns c + sum(a_i*b_i) accumulated in doubled precision.
func CompensatedDot(c float64, a, b []float64) float64 {
	var (
		s   = c
		err float64
	)
	for i := range a {
		p, ep := twoProd(a[i], b[i])
		var es float64
		s, es = twoSum(s, p)
		err += ep + es
	}
	return s + err
}
