package utils

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(1.))
	assert.False(t, IsFinite(math.NaN()))
	assert.False(t, IsFinite([]float64{0, math.Inf(-1)}))
	assert.True(t, IsFinite(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	assert.False(t, IsFinite(mat.NewVecDense(2, []float64{1, math.NaN()})))
	assert.NotEmpty(t, GetMemUsage())
}

func TestIsEqual(t *testing.T) {
	assert.True(t, IsEqual(0.5, 0.5004))
	assert.False(t, IsEqual(0.5, 0.51))
	assert.True(t, IsEqual(1e-5, -1e-5))
	assert.False(t, IsEqual(-1, 1))
	assert.True(t, LessOrEqual.Compare(1, 1+1e-13, NODETOL))
	assert.True(t, GreaterOrEqual.Compare(1, 1+1e-13, NODETOL))
	assert.False(t, GreaterOrEqual.Compare(1, 1+1e-11, NODETOL))
}
