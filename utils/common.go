package utils

import "math"

const (
	NODETOL = 1.e-12
	// Matching tolerance for reference coordinates supplied by a mesh
	// against a catalog layout.
	REFTOL = 1.e-3
)

// MachineEpsilon is the spacing of float64 values around 1.
var MachineEpsilon = math.Nextafter(1, 2) - 1

// EvalOp is a comparison with an absolute tolerance on its equality part.
type EvalOp uint8

const (
	LessOrEqual EvalOp = iota
	GreaterOrEqual
)

// Compare evaluates "a op b", accepting a and b closer than tol as equal.
func (op EvalOp) Compare(a, b, tol float64) bool {
	switch op {
	case LessOrEqual:
		return a <= b+tol
	case GreaterOrEqual:
		return a >= b-tol
	}
	return false
}

// IsEqual reports whether two reference coordinates agree to within REFTOL
// relative to their magnitude. Values whose combined magnitude is below
// REFTOL are always equal.
func IsEqual(a, b float64) bool {
	sum := math.Abs(a) + math.Abs(b)
	if sum > REFTOL {
		return math.Abs(a-b)/sum < REFTOL
	}
	return true
}

// BLASVerbose announces a swapped BLAS backend at start up.
var BLASVerbose = false
