package shape

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/felocate/element"
)

func allLayouts(t *testing.T, ev *Evaluator) (layouts []element.Layout) {
	for _, ct := range ev.Catalog.Types() {
		ls, err := ev.Catalog.Layouts(ct)
		require.NoError(t, err)
		layouts = append(layouts, ls...)
	}
	return
}

// randomInside draws a point of the layout's domain.
func randomInside(r *rand.Rand, l element.Layout) []float64 {
	for {
		xi := make([]float64, l.Dim)
		for i := range xi {
			xi[i] = 2*r.Float64() - 1
		}
		if l.Domain == element.DomainPyramid {
			xi[2] = 0.95 * r.Float64()
		}
		if l.Domain.Contains(xi, 0) {
			return xi
		}
	}
}

func TestEvaluator(t *testing.T) {
	ev, err := DefaultEvaluator()
	require.NoError(t, err)
	r := rand.New(rand.NewSource(1))

	t.Run("Kronecker property on the nodes", func(t *testing.T) {
		for _, l := range allLayouts(t, ev) {
			firstOf := make(map[int]int)
			for i := 0; i < l.NbRef; i++ {
				N, err := ev.Values(l.Type, l.Name, l.Node(i))
				require.NoError(t, err, l.String())
				if l.Collapse != nil {
					// coincident nodes share the lower cell's function
					m := l.Collapse.NodeMap[i]
					if _, seen := firstOf[m]; !seen {
						firstOf[m] = i
					}
					assert.InDelta(t, 1, N[firstOf[m]], 1e-9, "%s node %d", l, i)
					continue
				}
				for j, v := range N {
					want := 0.
					if i == j {
						want = 1
					}
					assert.InDelta(t, want, v, 1e-9, "%s N%d at node %d", l, j, i)
				}
			}
		}
	})
	t.Run("partition of unity and linear precision", func(t *testing.T) {
		for _, l := range allLayouts(t, ev) {
			if l.Dim == 0 {
				continue
			}
			for k := 0; k < 10; k++ {
				xi := randomInside(r, l)
				N, dN, err := ev.Evaluate(l.Type, l.Name, xi)
				require.NoError(t, err)
				var sum float64
				x := make([]float64, l.Dim)
				for i, n := range N {
					sum += n
					for d := range x {
						x[d] += n * l.Node(i)[d]
					}
				}
				assert.InDelta(t, 1, sum, 1e-12, l.String())
				assert.True(t, cmp.Equal(xi, x, cmpopts.EquateApprox(0, 1e-12)), "%s %v %v", l, xi, x)
				for d := 0; d < l.Dim; d++ {
					var dsum float64
					for i := range N {
						dsum += dN.At(i, d)
					}
					assert.InDelta(t, 0, dsum, 1e-10, l.String())
				}
			}
		}
	})
	t.Run("derivatives match finite differences", func(t *testing.T) {
		const h = 1.e-6
		for _, l := range allLayouts(t, ev) {
			if l.Dim == 0 {
				continue
			}
			xi := randomInside(r, l)
			_, dN, err := ev.Evaluate(l.Type, l.Name, xi)
			require.NoError(t, err)
			for d := 0; d < l.Dim; d++ {
				xp := append([]float64(nil), xi...)
				xm := append([]float64(nil), xi...)
				xp[d] += h
				xm[d] -= h
				Np, _ := ev.Values(l.Type, l.Name, xp)
				Nm, _ := ev.Values(l.Type, l.Name, xm)
				for i := range Np {
					assert.InDelta(t, (Np[i]-Nm[i])/(2*h), dN.At(i, d), 1e-6, "%s dN%d/dxi%d", l, i, d)
				}
			}
		}
	})
	t.Run("pyramid apex", func(t *testing.T) {
		N, dN, err := ev.Evaluate(element.Pyra5, "A", []float64{0, 0, 1})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0, 0, 0, 1}, N)
		for d := 0; d < 2; d++ {
			assert.InDelta(t, 0, dN.At(4, d), 1e-15)
		}
		assert.InDelta(t, 1, dN.At(4, 2), 1e-15)
		// the limit matches nearby values along the axis
		Nnear, err := ev.Values(element.Pyra13, "A", []float64{0, 0, 1 - 1e-6})
		require.NoError(t, err)
		Napex, err := ev.Values(element.Pyra13, "A", []float64{0, 0, 1})
		require.NoError(t, err)
		assert.InDeltaSlice(t, Napex, Nnear, 1e-5)
	})
	t.Run("quad4 centre", func(t *testing.T) {
		N, err := ev.Values(element.Quad4, "B", []float64{0, 0})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.25, 0.25}, N, 1e-15)
	})
	t.Run("degenerate hexa carries the quad functions", func(t *testing.T) {
		N, err := ev.Values(element.Hexa8, "DEG_QUAD4", []float64{1, 1})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{0, 0, 1, 0, 0, 0, 0, 0}, N, 1e-12)
	})
	t.Run("bad input", func(t *testing.T) {
		_, err := ev.Values(element.Polygon, "A", []float64{0, 0})
		assert.ErrorIs(t, err, element.ErrUnsupportedCellType)
		_, err = ev.Values(element.Quad4, "Z", []float64{0, 0})
		assert.ErrorIs(t, err, element.ErrUnsupportedCellType)
		_, err = ev.Values(element.Hexa8, "B", []float64{0, 0})
		assert.Error(t, err)
		N, dN, err := ev.Evaluate(element.Point1, "A", nil)
		require.NoError(t, err)
		assert.Equal(t, []float64{1}, N)
		assert.Nil(t, dN)
	})
}

func TestPoly(t *testing.T) {
	p := linear(1, 2, 0, 0).Mul(mono(0, 1, 0)) // y + 2xy
	assert.Equal(t, 7., p.Eval([]float64{1.5, 1.75}))
	assert.Equal(t, 2*1.75, p.Deriv(0).Eval([]float64{0, 1.75}))
	assert.Empty(t, p.Deriv(2))
	assert.Empty(t, p.Add(p.Scale(-1)))
	assert.Equal(t, 1., product().Eval(nil))
}
