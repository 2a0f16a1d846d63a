package newton

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/felocate/utils"
)

func rosenbrock(x, f []float64) error {
	f[0] = 10 * (x[1] - x[0]*x[0])
	f[1] = 1 - x[0]
	return nil
}

func rosenbrockJacobian(x, f []float64, J *mat.Dense) error {
	J.Set(0, 0, -20*x[0])
	J.Set(0, 1, 10)
	J.Set(1, 0, -1)
	J.Set(1, 1, 0)
	return nil
}

func TestSolve(t *testing.T) {
	t.Run("circle and line", func(t *testing.T) {
		s := NewSolver()
		res, err := s.Solve([]float64{1, 0.5}, func(x, f []float64) error {
			f[0] = x[0]*x[0] + x[1]*x[1] - 4
			f[1] = x[0] - x[1]
			return nil
		})
		require.NoError(t, err)
		assert.True(t, res.Converged())
		assert.InDeltaSlice(t, []float64{math.Sqrt2, math.Sqrt2}, res.X, 1e-8)
		assert.Less(t, res.FNorm, s.TolF)
	})
	t.Run("rosenbrock", func(t *testing.T) {
		for _, s := range []*Solver{NewSolver(), NewSolver(WithJacobian(rosenbrockJacobian))} {
			x0 := []float64{-1.2, 1}
			res, err := s.Solve(x0, rosenbrock)
			require.NoError(t, err)
			assert.Equal(t, Converged, res.State)
			assert.InDeltaSlice(t, []float64{1, 1}, res.X, 1e-8)
			assert.Equal(t, []float64{-1.2, 1}, x0)
		}
	})
	t.Run("linear system takes one step", func(t *testing.T) {
		res, err := NewSolver().Solve([]float64{0, 0, 0}, func(x, f []float64) error {
			f[0] = 2*x[0] + x[1] - 1
			f[1] = x[1] - x[2] - 2
			f[2] = x[0] + x[2] - 3
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, res.Iterations)
		A := mat.NewDense(3, 3, []float64{2, 1, 0, 0, 1, -1, 1, 0, 1})
		var b mat.VecDense
		b.MulVec(A, mat.NewVecDense(3, res.X))
		assert.InDeltaSlice(t, []float64{1, 2, 3}, b.RawVector().Data, 1e-10)
	})
	t.Run("start on the root", func(t *testing.T) {
		res, err := NewSolver().Solve([]float64{1, 1}, rosenbrock)
		require.NoError(t, err)
		assert.Equal(t, Converged, res.State)
		assert.Equal(t, 0, res.Iterations)
	})
	t.Run("singular jacobian", func(t *testing.T) {
		s := NewSolver(WithJacobian(func(x, f []float64, J *mat.Dense) error {
			J.Copy(mat.NewDense(2, 2, []float64{1, 1, 2, 2}))
			return nil
		}))
		res, err := s.Solve([]float64{1, 2}, func(x, f []float64) error {
			f[0] = x[0] + x[1] - 1
			f[1] = 2*x[0] + 2*x[1] - 3
			return nil
		})
		assert.ErrorIs(t, err, ErrSingularJacobian)
		assert.True(t, errors.Is(err, utils.ErrSingularMatrix))
		assert.Equal(t, Failed, res.State)
	})
	t.Run("non finite residual", func(t *testing.T) {
		_, err := NewSolver().Solve([]float64{-1}, func(x, f []float64) error {
			f[0] = math.Log(x[0])
			return nil
		})
		assert.ErrorIs(t, err, ErrNonFinite)
	})
	t.Run("iteration cap", func(t *testing.T) {
		res, err := NewSolver(WithMaxIterations(1)).Solve([]float64{-1.2, 1}, rosenbrock)
		assert.ErrorIs(t, err, ErrMaxIterationsExceeded)
		assert.Equal(t, 1, res.Iterations)
	})
	t.Run("no root is never reported as converged", func(t *testing.T) {
		res, _ := NewSolver().Solve([]float64{0.5}, func(x, f []float64) error {
			f[0] = x[0]*x[0] + 1
			return nil
		})
		assert.False(t, res.Converged())
	})
	t.Run("line search without progress", func(t *testing.T) {
		// |F| has a kink at its minimum 0, where the gradient test cannot pass
		s := NewSolver(WithJacobian(func(x, f []float64, J *mat.Dense) error {
			J.Set(0, 0, 1)
			return nil
		}))
		res, err := s.Solve([]float64{0}, func(x, f []float64) error {
			f[0] = math.Abs(x[0]) + 1
			return nil
		})
		assert.ErrorIs(t, err, ErrStalled)
		assert.Equal(t, Failed, res.State)
		assert.Equal(t, 1, res.Iterations)
		assert.Equal(t, []float64{0}, res.X)
	})
	t.Run("residual errors end the solve", func(t *testing.T) {
		errOutside := errors.New("outside the domain")
		calls := 0
		res, err := NewSolver().Solve([]float64{2}, func(x, f []float64) error {
			calls++
			if x[0] < 1.5 {
				return errOutside
			}
			f[0] = x[0] - 1
			return nil
		})
		assert.ErrorIs(t, err, errOutside)
		assert.Equal(t, Failed, res.State)
		assert.Greater(t, calls, 1)
		_, err = NewSolver(WithJacobian(func(x, f []float64, J *mat.Dense) error {
			return errOutside
		})).Solve([]float64{2}, func(x, f []float64) error {
			f[0] = x[0] - 1
			return nil
		})
		assert.ErrorIs(t, err, errOutside)
	})
	assert.Equal(t, "ConvergedToLocalMinimum", ConvergedToLocalMinimum.String())
}

func TestLineSearchExclusionZone(t *testing.T) {
	// phi is minimal at rho = 0.006 along p, the search may not step that short
	w := &work{
		residual: func(x, f []float64) error { f[0] = x[0] - 0.006; return nil },
		n:        1,
		f:        make([]float64, 1),
		xt:       make([]float64, 1),
		fWork:    make([]float64, 1),
	}
	xOld := []float64{0}
	fOld, err := w.phi(xOld)
	require.NoError(t, err)
	g := []float64{-0.006}
	rho, check := w.lineSearch(xOld, fOld, g, []float64{1})
	assert.False(t, check)
	assert.InDelta(t, rhoMin, rho, 1e-9)
}
