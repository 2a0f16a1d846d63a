package locator

import (
	"fmt"

	"github.com/notargets/felocate/utils"
)

// EvaluationMatrix interpolates nodal fields at target points: row i holds
// the shape function values at the reference coordinates of point i on the
// node ids of the cell it was located in. Skipped points have empty rows.
type EvaluationMatrix struct {
	utils.CSR
	Locations []Location
}

// weights returns the node ids and the shape function values of a location.
func (lc *Locator) weights(loc Location) (ids []int, N []float64, err error) {
	if loc.SkinCellID >= 0 {
		ids = lc.skin.NodeIDsOfCell(loc.SkinCellID)
	} else {
		ids = lc.Mesh.NodeIDsOfCell(loc.CellID)
	}
	N, err = lc.ev.Values(loc.Type, loc.Layout, loc.RefCoords)
	return
}

// ComputeEvaluationMatrix locates the points and assembles the sparse
// nPoints x nNodes interpolation matrix.
func (lc *Locator) ComputeEvaluationMatrix(points [][]float64) (em *EvaluationMatrix, err error) {
	if len(points) == 0 {
		err = fmt.Errorf("no target points")
		return
	}
	var locs []Location
	if locs, err = lc.LocatePoints(points); err != nil {
		return
	}
	return lc.EvaluationMatrix(locs)
}

// EvaluationMatrix assembles the interpolation matrix of locations already
// found by LocatePoints. Rows of points that were not located stay empty.
func (lc *Locator) EvaluationMatrix(locs []Location) (em *EvaluationMatrix, err error) {
	dok := utils.NewDOK(len(locs), lc.Mesh.NumberOfNodes())
	for i, loc := range locs {
		if !loc.Located() {
			continue
		}
		var (
			ids  []int
			N    []float64
			cols []int
			vals []float64
		)
		if ids, N, err = lc.weights(loc); err != nil {
			return nil, fmt.Errorf("point #%d: %w", i, err)
		}
		// collapsed cells repeat node ids, their weights add up
		pos := make(map[int]int, len(ids))
		for k, id := range ids {
			if j, ok := pos[id]; ok {
				vals[j] += N[k]
				continue
			}
			pos[id] = len(cols)
			cols = append(cols, id)
			vals = append(vals, N[k])
		}
		dok.SetRow(i, cols, vals)
	}
	dok.SetReadOnly("evaluation matrix")
	em = &EvaluationMatrix{
		CSR:       dok.ToCSR(),
		Locations: locs,
	}
	return
}

// Apply interpolates a nodal field of nComp interleaved components.
func (em *EvaluationMatrix) Apply(values []float64, nComp int) (out []float64, err error) {
	_, nNodes := em.Dims()
	if nComp < 1 || len(values) != nNodes*nComp {
		err = fmt.Errorf("field of %d values is not %d nodes x %d components", len(values), nNodes, nComp)
		return
	}
	if nComp == 1 {
		return em.MulVec(values), nil
	}
	out = em.MulStrided(values, nComp)
	return
}

// InterpolateField evaluates a nodal field of nComp interleaved components
// at the points. Skipped points get zeros.
func (lc *Locator) InterpolateField(values []float64, nComp int, points [][]float64) (out []float64, err error) {
	var em *EvaluationMatrix
	if em, err = lc.ComputeEvaluationMatrix(points); err != nil {
		return
	}
	return em.Apply(values, nComp)
}

// ReferenceCoordinates returns the reference coordinates of the points,
// three per point padded with zeros.
func (lc *Locator) ReferenceCoordinates(points [][]float64) (coords []float64, err error) {
	var locs []Location
	if locs, err = lc.LocatePoints(points); err != nil {
		return
	}
	coords = make([]float64, 3*len(locs))
	for i, loc := range locs {
		copy(coords[3*i:3*i+3], loc.RefCoords)
	}
	return
}
