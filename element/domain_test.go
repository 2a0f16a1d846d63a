package element

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainContains(t *testing.T) {
	tests := []struct {
		name    string
		dom     Domain
		xi      []float64
		eps     float64
		inside  bool
	}{
		{"segment end", DomainSegment, []float64{1}, 0, true},
		{"segment beyond", DomainSegment, []float64{1 + 1e-9}, 1e-12, false},
		{"segment within eps", DomainSegment, []float64{-1 - 1e-13}, 1e-12, true},
		{"triangle hypotenuse", DomainTriangle, []float64{0.5, 0.5}, 0, true},
		{"triangle outside", DomainTriangle, []float64{0.6, 0.5}, 1e-12, false},
		{"lower triangle vertex", DomainLowerTriangle, []float64{1, -1}, 0, true},
		{"lower triangle outside", DomainLowerTriangle, []float64{0.5, 0}, 1e-12, false},
		{"square corner", DomainSquare, []float64{-1, 1}, 0, true},
		{"tetra face", DomainTetra, []float64{1. / 3, 1. / 3, 1. / 3}, 1e-12, true},
		{"tetra negative", DomainTetra, []float64{-1e-6, 0.1, 0.1}, 1e-12, false},
		{"pyramid apex", DomainPyramid, []float64{0, 0, 1}, 0, true},
		{"pyramid base corner", DomainPyramid, []float64{0, -1, 0}, 0, true},
		{"pyramid outside lateral face", DomainPyramid, []float64{0.5, 0.5, 0.2}, 1e-12, false},
		{"prism", DomainPrism, []float64{-1, 0.5, 0.5}, 0, true},
		{"prism outside", DomainPrism, []float64{0, 0.7, 0.7}, 1e-12, false},
		{"cube", DomainCube, []float64{1, -1, 0.3}, 0, true},
		{"cube outside", DomainCube, []float64{1, -1, 1.1}, 1e-12, false},
		{"point", DomainPoint, nil, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.inside, tt.dom.Contains(tt.xi, tt.eps))
		})
	}
}

func TestDomainClamp(t *testing.T) {
	assert.Equal(t, []float64{1}, DomainSegment.Clamp([]float64{3}))
	assert.Equal(t, []float64{-1, 0.5}, DomainSquare.Clamp([]float64{-2, 0.5}))
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, DomainTriangle.Clamp([]float64{1, 1}), 1e-15)
	assert.InDeltaSlice(t, []float64{0, 1}, DomainTriangle.Clamp([]float64{-1, 2}), 1e-15)
	assert.InDeltaSlice(t, []float64{0.2, 0.3}, DomainTriangle.Clamp([]float64{0.2, 0.3}), 1e-15)
	assert.InDeltaSlice(t, []float64{0, 0}, DomainLowerTriangle.Clamp([]float64{1, 1}), 1e-15)
	assert.InDeltaSlice(t, []float64{1. / 3, 1. / 3, 1. / 3}, DomainTetra.Clamp([]float64{1, 1, 1}), 1e-15)
	assert.InDeltaSlice(t, []float64{1, 0.5, 0.5}, DomainPrism.Clamp([]float64{2, 1, 1}), 1e-15)
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.5}, DomainPyramid.Clamp([]float64{1, 1, 0.5}), 1e-15)
	for _, dom := range []Domain{DomainSegment, DomainTriangle, DomainLowerTriangle, DomainSquare,
		DomainTetra, DomainPyramid, DomainPrism, DomainCube} {
		xi := make([]float64, dom.Dim())
		for i := range xi {
			xi[i] = 5 * float64(i+1)
		}
		assert.True(t, dom.Contains(dom.Clamp(xi), 1e-12), dom.String())
	}
}
