package locator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/felocate/element"
	"github.com/notargets/felocate/mesh"
)

func TestEvaluationMatrix(t *testing.T) {
	m := mesh.StructuredQuadMesh(2, 2, 0, 0, 2, 2)
	lc, err := New(m, WithParallelDegree(2))
	require.NoError(t, err)
	points := [][]float64{{0.25, 0.5}, {1, 1}, {1.9, 0.1}, {0.5, 1.75}, {2, 2}}

	em, err := lc.ComputeEvaluationMatrix(points)
	require.NoError(t, err)
	nr, nc := em.Dims()
	assert.Equal(t, len(points), nr)
	assert.Equal(t, m.NumberOfNodes(), nc)
	assert.Len(t, em.Locations, len(points))
	for i := range points {
		cols, vals := em.Row(i)
		assert.NotEmpty(t, cols)
		var sum float64
		for _, v := range vals {
			sum += v
		}
		assert.InDelta(t, 1, sum, 1e-12)
	}

	// bilinear fields are reproduced, two interleaved components
	var field []float64
	for n := 0; n < m.NumberOfNodes(); n++ {
		x := m.NodeCoordinate(n)
		field = append(field, 1+2*x[0]+3*x[1], x[0]*x[1])
	}
	var want []float64
	for _, p := range points {
		want = append(want, 1+2*p[0]+3*p[1], p[0]*p[1])
	}
	got, err := em.Apply(field, 2)
	require.NoError(t, err)
	assert.True(t, cmp.Equal(want, got, cmpopts.EquateApprox(0, 1e-12)), cmp.Diff(want, got))

	got, err = lc.InterpolateField(field, 2, points)
	require.NoError(t, err)
	assert.True(t, cmp.Equal(want, got, cmpopts.EquateApprox(0, 1e-12)))

	// the same matrix from locations found earlier, a failed point gives an empty row
	locs, locErr := lc.LocatePoints(append(points, []float64{5, 5}))
	assert.ErrorIs(t, locErr, ErrPointNotLocated)
	em2, err := lc.EvaluationMatrix(locs)
	require.NoError(t, err)
	nr, _ = em2.Dims()
	assert.Equal(t, len(points)+1, nr)
	for i := range points {
		for n := 0; n < nc; n++ {
			assert.Equal(t, em.At(i, n), em2.At(i, n))
		}
	}
	cols, _ := em2.Row(len(points))
	assert.Empty(t, cols)
	got, err = em2.Apply(field, 2)
	require.NoError(t, err)
	assert.True(t, cmp.Equal(append(want, 0, 0), got, cmpopts.EquateApprox(0, 1e-12)))

	_, err = em.Apply(field, 3)
	assert.Error(t, err)
	_, err = lc.ComputeEvaluationMatrix(nil)
	assert.Error(t, err)
	_, err = lc.ComputeEvaluationMatrix([][]float64{{5, 5}})
	assert.ErrorIs(t, err, ErrPointNotLocated)
}

func TestEvaluationMatrixSkipped(t *testing.T) {
	m, err := mesh.SingleCellMesh(element.Tetra4, 3, identity3)
	require.NoError(t, err)
	lc, err := New(m, WithProjectionOnSurface(true), WithProjectionMaxDistance(0.1),
		WithMaxDistanceStatus(true))
	require.NoError(t, err)
	points := [][]float64{{0.1, 0.1, 0.1}, {-0.05, 0.2, 0.2}, {5, 5, 5}}
	em, err := lc.ComputeEvaluationMatrix(points)
	require.NoError(t, err)
	assert.Equal(t, []Status{Inside, Projected, Skipped}, []Status{
		em.Locations[0].Status, em.Locations[1].Status, em.Locations[2].Status,
	})
	cols, _ := em.Row(2)
	assert.Empty(t, cols)

	// the projection of the second point is (0, 0.2, 0.2)
	field := make([]float64, m.NumberOfNodes())
	for n := range field {
		x := m.NodeCoordinate(n)
		field[n] = x[0] + 2*x[1] + 4*x[2]
	}
	got, err := em.Apply(field, 1)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.7, 1.2, 0}, got, 1e-12)
}

func TestReferenceCoordinates(t *testing.T) {
	lc, err := New(mesh.StructuredQuadMesh(1, 1, -1, -1, 1, 1))
	require.NoError(t, err)
	coords, err := lc.ReferenceCoordinates([][]float64{{0, 0}, {0.5, -0.5}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 0, 0.5, -0.5, 0}, coords, 1e-12)

	_, err = lc.ReferenceCoordinates([][]float64{{3, 0}})
	assert.ErrorIs(t, err, ErrPointNotLocated)
}
