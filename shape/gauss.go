package shape

import (
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/felocate/element"
)

var ErrNoGaussInfo = errors.New("no gauss localization")

// GaussLocalization ties a set of gauss points to the reference element of a
// cell type. The layout is resolved when it is built; shape function values
// and derivatives at the gauss points are computed on first request.
type GaussLocalization struct {
	Type    element.CellType
	Layout  element.Layout
	Gauss   element.ReferenceCoords
	Weights []float64

	ev       *Evaluator
	once     sync.Once
	values   *mat.Dense   // nGauss x nNodes
	derivs   []*mat.Dense // one nNodes x dim matrix per gauss point
	buildErr error
}

// NewGaussLocalization resolves the layout of ref and checks that gauss holds
// one point of the layout's dimension per weight.
func NewGaussLocalization(ev *Evaluator, ct element.CellType, ref element.ReferenceCoords,
	gauss, weights []float64) (gl *GaussLocalization, err error) {
	var l element.Layout
	if l, err = ev.ResolveLayout(ct, ref); err != nil {
		return
	}
	nGauss := len(weights)
	if nGauss == 0 || len(gauss) != nGauss*l.Dim {
		err = fmt.Errorf("%s: %d gauss coordinates do not match %d weights in dimension %d",
			ct, len(gauss), nGauss, l.Dim)
		return
	}
	gl = &GaussLocalization{
		Type:    ct,
		Layout:  l,
		Gauss:   element.ReferenceCoords{Dim: l.Dim, NbRef: nGauss, Coords: append([]float64(nil), gauss...)},
		Weights: append([]float64(nil), weights...),
		ev:      ev,
	}
	return
}

func (gl *GaussLocalization) NumberOfGaussPoints() int { return gl.Gauss.NbRef }

func (gl *GaussLocalization) build() {
	var (
		nGauss = gl.Gauss.NbRef
		nNodes = gl.Layout.NbRef
	)
	gl.values = mat.NewDense(nGauss, nNodes, nil)
	gl.derivs = make([]*mat.Dense, nGauss)
	for g := 0; g < nGauss; g++ {
		N, dN, err := gl.ev.Evaluate(gl.Layout.Type, gl.Layout.Name, gl.Gauss.Node(g))
		if err != nil {
			gl.buildErr = err
			return
		}
		gl.values.SetRow(g, N)
		gl.derivs[g] = dN
	}
}

// ShapeFunctionValues returns the nGauss x nNodes matrix of N at the gauss points.
func (gl *GaussLocalization) ShapeFunctionValues() (*mat.Dense, error) {
	gl.once.Do(gl.build)
	return gl.values, gl.buildErr
}

// DerivativeValues returns dN/dxi at each gauss point. The matrices are nil
// for zero dimensional cells.
func (gl *GaussLocalization) DerivativeValues() ([]*mat.Dense, error) {
	gl.once.Do(gl.build)
	return gl.derivs, gl.buildErr
}

// GaussCoords is a registry of gauss localizations, one per cell type.
type GaussCoords struct {
	ev    *Evaluator
	mu    sync.RWMutex
	infos map[element.CellType]*GaussLocalization
}

func NewGaussCoords(ev *Evaluator) *GaussCoords {
	return &GaussCoords{
		ev:    ev,
		infos: make(map[element.CellType]*GaussLocalization),
	}
}

// AddGaussInfo registers the gauss points of ct, replacing any previous entry.
func (gc *GaussCoords) AddGaussInfo(ct element.CellType, ref element.ReferenceCoords,
	gauss, weights []float64) (err error) {
	var gl *GaussLocalization
	if gl, err = NewGaussLocalization(gc.ev, ct, ref, gauss, weights); err != nil {
		return
	}
	gc.mu.Lock()
	gc.infos[ct] = gl
	gc.mu.Unlock()
	return
}

func (gc *GaussCoords) GaussLocalization(ct element.CellType) (gl *GaussLocalization, err error) {
	gc.mu.RLock()
	gl, ok := gc.infos[ct]
	gc.mu.RUnlock()
	if !ok {
		err = fmt.Errorf("%w for %s", ErrNoGaussInfo, ct)
	}
	return
}

// CalculateCoords maps the gauss points of ct to physical space for every
// cell in conn, a flat list of node ids with one layout worth of nodes per
// cell. nodeCoords holds spaceDim values per node. The result is
// nCells x nGauss x spaceDim, cell major.
func (gc *GaussCoords) CalculateCoords(ct element.CellType, nodeCoords []float64, spaceDim int,
	conn []int) (coords []float64, err error) {
	var (
		gl     *GaussLocalization
		values *mat.Dense
	)
	if gl, err = gc.GaussLocalization(ct); err != nil {
		return
	}
	if values, err = gl.ShapeFunctionValues(); err != nil {
		return
	}
	var (
		nb     = gl.Layout.NbRef
		nGauss = gl.Gauss.NbRef
	)
	if spaceDim < 1 {
		err = fmt.Errorf("invalid space dimension %d", spaceDim)
		return
	}
	if len(conn)%nb != 0 {
		err = fmt.Errorf("%s: connectivity of length %d is not a multiple of %d nodes", ct, len(conn), nb)
		return
	}
	nNodes := len(nodeCoords) / spaceDim
	nCells := len(conn) / nb
	coords = make([]float64, nCells*nGauss*spaceDim)
	X := mat.NewDense(nb, spaceDim, nil)
	for c := 0; c < nCells; c++ {
		for k, id := range conn[c*nb : (c+1)*nb] {
			if id < 0 || id >= nNodes {
				err = fmt.Errorf("cell %d of %s references node %d of %d", c, ct, id, nNodes)
				return nil, err
			}
			X.SetRow(k, nodeCoords[id*spaceDim:(id+1)*spaceDim])
		}
		// nGauss x spaceDim block of the cell, written in place
		block := mat.NewDense(nGauss, spaceDim, coords[c*nGauss*spaceDim:(c+1)*nGauss*spaceDim])
		block.Mul(values, X)
	}
	return
}
