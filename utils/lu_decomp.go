package utils

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrSingularMatrix = errors.New("singular matrix")

// TINY replaces an exactly zero pivot so the elimination can complete.
const TINY = 1.0e-40

// LUDecomp is a row-scaled, partially pivoted LU factorization of a square
// matrix. L (unit diagonal) and U share one dense storage, the row
// permutation is recorded in Indx.
type LUDecomp struct {
	N        int
	LU       *mat.Dense
	Indx     []int
	D        float64 // +1 or -1 depending on the parity of the row swaps
	singular bool
}

// NewLUDecomp factorizes A. An all-zero row makes the factorization fail with
// ErrSingularMatrix; a vanishing pivot is clamped and reported by Singular.
func NewLUDecomp(A mat.Matrix) (lud *LUDecomp, err error) {
	var (
		n, nc = A.Dims()
	)
	if n != nc {
		err = fmt.Errorf("LU decomposition needs a square matrix, have %dx%d", n, nc)
		return
	}
	lud = &LUDecomp{
		N:    n,
		LU:   mat.DenseCopyOf(A),
		Indx: make([]int, n),
		D:    1,
	}
	var (
		raw   = lud.LU.RawMatrix()
		row   = func(i int) []float64 { return raw.Data[i*raw.Stride : i*raw.Stride+n] }
		vv    = make([]float64, n)
		scale = make([]float64, n)
	)
	for i := 0; i < n; i++ {
		big := MaxAbs(row(i))
		if big == 0 {
			lud = nil
			err = fmt.Errorf("%w: row %d is zero", ErrSingularMatrix, i)
			return
		}
		vv[i] = 1. / big
		scale[i] = big
	}
	for k := 0; k < n; k++ {
		var (
			big  float64
			imax = k
		)
		for i := k; i < n; i++ {
			if temp := vv[i] * math.Abs(row(i)[k]); temp > big {
				big = temp
				imax = i
			}
		}
		if imax != k {
			rm, rk := row(imax), row(k)
			for j := range rk {
				rm[j], rk[j] = rk[j], rm[j]
			}
			lud.D = -lud.D
			vv[imax] = vv[k]
			scale[imax], scale[k] = scale[k], scale[imax]
		}
		lud.Indx[k] = imax
		rk := row(k)
		if math.Abs(rk[k]) <= float64(n)*MachineEpsilon*scale[k] {
			lud.singular = true
		}
		if rk[k] == 0 {
			rk[k] = TINY
		}
		for i := k + 1; i < n; i++ {
			ri := row(i)
			ri[k] /= rk[k]
			if temp := ri[k]; temp != 0 {
				floats.AddScaled(ri[k+1:], -temp, rk[k+1:])
			}
		}
	}
	return
}

// Singular reports whether a pivot vanished relative to its row scale.
func (lud *LUDecomp) Singular() bool { return lud.singular }

func (lud *LUDecomp) at(i, j int) float64 { return lud.LU.At(i, j) }

// Solve returns x with A*x = b.
func (lud *LUDecomp) Solve(b []float64) (x []float64, err error) {
	if len(b) != lud.N {
		panic(fmt.Sprintf("right hand side has length %d, want %d", len(b), lud.N))
	}
	if lud.singular {
		err = ErrSingularMatrix
		return
	}
	x = make([]float64, lud.N)
	copy(x, b)
	lud.solveInPlace(x)
	return
}

func (lud *LUDecomp) solveInPlace(x []float64) {
	var (
		n  = lud.N
		ii = -1
	)
	// Forward substitution, skipping the leading zeros of b
	for i := 0; i < n; i++ {
		ip := lud.Indx[i]
		sum := x[ip]
		x[ip] = x[i]
		if ii >= 0 {
			for j := ii; j < i; j++ {
				sum -= lud.at(i, j) * x[j]
			}
		} else if sum != 0 {
			ii = i
		}
		x[i] = sum
	}
	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for j := i + 1; j < n; j++ {
			sum -= lud.at(i, j) * x[j]
		}
		x[i] = sum / lud.at(i, i)
	}
}

// SolveMatrix solves A*X = B one column at a time.
func (lud *LUDecomp) SolveMatrix(B mat.Matrix) (X *mat.Dense, err error) {
	var (
		nr, nc = B.Dims()
	)
	if nr != lud.N {
		panic(fmt.Sprintf("right hand side has %d rows, want %d", nr, lud.N))
	}
	if lud.singular {
		err = ErrSingularMatrix
		return
	}
	X = mat.NewDense(nr, nc, nil)
	col := make([]float64, nr)
	for j := 0; j < nc; j++ {
		mat.Col(col, j, B)
		lud.solveInPlace(col)
		X.SetCol(j, col)
	}
	return
}

func (lud *LUDecomp) Inverse() (Ainv *mat.Dense, err error) {
	id := mat.NewDiagDense(lud.N, ConstArray(lud.N, 1))
	return lud.SolveMatrix(id)
}

func (lud *LUDecomp) Determinant() (det float64) {
	det = lud.D
	for i := 0; i < lud.N; i++ {
		det *= lud.at(i, i)
	}
	return
}

// Improve performs one step of iterative refinement on x, a solution of
// A*x = b. The residual is accumulated in compensated arithmetic.
func (lud *LUDecomp) Improve(A mat.Matrix, b, x []float64) (err error) {
	var (
		n   = lud.N
		r   = make([]float64, n)
		row = make([]float64, n)
	)
	for i := 0; i < n; i++ {
		mat.Row(row, i, A)
		r[i] = CompensatedDot(-b[i], row, x)
	}
	if r, err = lud.Solve(r); err != nil {
		return
	}
	floats.Sub(x, r)
	return
}
