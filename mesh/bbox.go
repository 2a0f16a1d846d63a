package mesh

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/felocate/element"
)

// SpatialIndex returns the cells that may contain a point.
type SpatialIndex interface {
	ElementsAroundPoint(p []float64) []int
}

const (
	// DefaultBBoxEps inflates every box by this fraction of the mesh size
	DefaultBBoxEps = 1.e-12
	// curved cells may bulge out of the box of their nodes
	quadraticMargin = 0.25
)

// cellCentre is a kd-tree entry: the centre of a cell's box.
type cellCentre struct {
	x  [3]float64
	id int
}

func (c cellCentre) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return c.x[d] - b.(cellCentre).x[d]
}

func (c cellCentre) Dims() int { return 3 }

func (c cellCentre) Distance(b kdtree.Comparable) (sum float64) {
	q := b.(cellCentre)
	for d := range c.x {
		dx := c.x[d] - q.x[d]
		sum += dx * dx
	}
	return
}

type cellCentres []cellCentre

func (c cellCentres) Index(i int) kdtree.Comparable { return c[i] }
func (c cellCentres) Len() int                       { return len(c) }
func (c cellCentres) Pivot(d kdtree.Dim) int {
	p := centrePlane{cellCentres: c, Dim: d}
	return kdtree.Partition(p, kdtree.MedianOfRandoms(p, 100))
}
func (c cellCentres) Slice(start, end int) kdtree.Interface { return c[start:end] }

type centrePlane struct {
	cellCentres
	kdtree.Dim
}

func (p centrePlane) Less(i, j int) bool {
	return p.cellCentres[i].x[p.Dim] < p.cellCentres[j].x[p.Dim]
}
func (p centrePlane) Swap(i, j int) {
	p.cellCentres[i], p.cellCentres[j] = p.cellCentres[j], p.cellCentres[i]
}
func (p centrePlane) Slice(start, end int) kdtree.SortSlicer {
	p.cellCentres = p.cellCentres[start:end]
	return p
}

// BBoxIndex finds candidate cells by their inflated bounding boxes. The box
// centres live in a k-d tree; a query visits the centres within the largest
// box half extent of the point and keeps the boxes containing it.
type BBoxIndex struct {
	Boxes []r3.Box
	tree  *kdtree.Tree
	half  r3.Vec
}

func vec(x []float64) (v r3.Vec) {
	var c [3]float64
	copy(c[:], x)
	return r3.Vec{X: c[0], Y: c[1], Z: c[2]}
}

// NewBBoxIndex indexes every cell of m. eps is relative to the diagonal of
// the mesh bounding box.
func NewBBoxIndex(m Mesh, eps float64) (bi *BBoxIndex) {
	var (
		nCells  = m.NumberOfCells()
		catalog = element.Default()
		global  r3.Box
		first   = true
	)
	bi = &BBoxIndex{Boxes: make([]r3.Box, nCells)}
	for c := 0; c < nCells; c++ {
		var b r3.Box
		for i, n := range m.NodeIDsOfCell(c) {
			v := vec(m.NodeCoordinate(n))
			if i == 0 {
				b = r3.Box{Min: v, Max: v}
				continue
			}
			b.Min = r3.Vec{X: math.Min(b.Min.X, v.X), Y: math.Min(b.Min.Y, v.Y), Z: math.Min(b.Min.Z, v.Z)}
			b.Max = r3.Vec{X: math.Max(b.Max.X, v.X), Y: math.Max(b.Max.Y, v.Y), Z: math.Max(b.Max.Z, v.Z)}
		}
		if q, err := catalog.IsQuadratic(m.CellType(c)); err == nil && q {
			size := b.Size()
			pad := quadraticMargin * math.Max(size.X, math.Max(size.Y, size.Z))
			b = inflate(b, pad)
		}
		bi.Boxes[c] = b
		if first {
			global, first = b, false
		} else {
			global = r3.Box{
				Min: r3.Vec{X: math.Min(global.Min.X, b.Min.X), Y: math.Min(global.Min.Y, b.Min.Y), Z: math.Min(global.Min.Z, b.Min.Z)},
				Max: r3.Vec{X: math.Max(global.Max.X, b.Max.X), Y: math.Max(global.Max.Y, b.Max.Y), Z: math.Max(global.Max.Z, b.Max.Z)},
			}
		}
	}
	pad := eps * r3.Norm(global.Size())
	if pad == 0 {
		// a single node mesh, eps is taken as an absolute size
		pad = eps
	}
	centres := make(cellCentres, nCells)
	for c := range bi.Boxes {
		bi.Boxes[c] = inflate(bi.Boxes[c], pad)
		ctr, size := bi.Boxes[c].Center(), bi.Boxes[c].Size()
		centres[c] = cellCentre{x: [3]float64{ctr.X, ctr.Y, ctr.Z}, id: c}
		bi.half = r3.Vec{
			X: math.Max(bi.half.X, size.X/2),
			Y: math.Max(bi.half.Y, size.Y/2),
			Z: math.Max(bi.half.Z, size.Z/2),
		}
	}
	bi.tree = kdtree.New(centres, false)
	return
}

func inflate(b r3.Box, pad float64) r3.Box {
	d := r3.Vec{X: pad, Y: pad, Z: pad}
	return r3.Box{Min: r3.Sub(b.Min, d), Max: r3.Add(b.Max, d)}
}

// ElementsAroundPoint returns the ascending ids of the cells whose inflated
// box contains p.
func (bi *BBoxIndex) ElementsAroundPoint(p []float64) (ids []int) {
	var (
		v = vec(p)
		// widened so centres on the bounding planes are not lost to rounding
		h   = r3.Scale(1+1.e-9, bi.half)
		lo  = r3.Sub(v, h)
		hi  = r3.Add(v, h)
		bnd = &kdtree.Bounding{
			Min: cellCentre{x: [3]float64{lo.X, lo.Y, lo.Z}},
			Max: cellCentre{x: [3]float64{hi.X, hi.Y, hi.Z}},
		}
	)
	bi.tree.DoBounded(bnd, func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		id := c.(cellCentre).id
		if bi.Boxes[id].Contains(v) {
			ids = append(ids, id)
		}
		return false
	})
	sort.Ints(ids)
	return
}

// LowerBoundDistance is a lower bound of the distance from p to any point of
// the cell, the distance to its inflated box.
func (bi *BBoxIndex) LowerBoundDistance(cell int, p []float64) float64 {
	var (
		b = bi.Boxes[cell]
		v = vec(p)
		d = r3.Vec{
			X: math.Max(0, math.Max(b.Min.X-v.X, v.X-b.Max.X)),
			Y: math.Max(0, math.Max(b.Min.Y-v.Y, v.Y-b.Max.Y)),
			Z: math.Max(0, math.Max(b.Min.Z-v.Z, v.Z-b.Max.Z)),
		}
	)
	return r3.Norm(d)
}
