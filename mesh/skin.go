package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/felocate/element"
)

// Skin is the boundary mesh of a UMesh. Skin cell i is face ParentFace[i]
// of cell ParentCell[i] of the volume mesh and shares its node ids.
type Skin struct {
	*UMesh
	ParentCell []int
	ParentFace []int
}

const refMatchTol = 1.e-12

func sameRef(a, b []float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > refMatchTol {
			return false
		}
	}
	return true
}

// findRefNode returns the index of the node of l at xi, -1 if none.
func findRefNode(l element.Layout, xi []float64) int {
	for i := 0; i < l.NbRef; i++ {
		if sameRef(l.Node(i), xi) {
			return i
		}
	}
	return -1
}

func centroid(l element.Layout, nodes ...int) (c []float64) {
	c = make([]float64, l.Dim)
	for _, n := range nodes {
		for d, v := range l.Node(n) {
			c[d] += v / float64(len(nodes))
		}
	}
	return
}

// faceCell returns the skin cell type and the local node indices of a face
// of a cell read in layout l: the corners, then the mid nodes of the face
// edges, then the face centre node when there is one.
func faceCell(l element.Layout, order int, corners []int) (ct element.CellType, local []int, err error) {
	local = append(local, corners...)
	n := len(corners)
	if n == 1 {
		return element.Point1, local, nil
	}
	if order > 1 {
		nEdges := n
		if n == 2 {
			nEdges = 1
		}
		for e := 0; e < nEdges; e++ {
			a, b := corners[e], corners[(e+1)%n]
			mid := findRefNode(l, centroid(l, a, b))
			if mid < 0 {
				err = fmt.Errorf("%s has no node on the edge %d-%d", l, a, b)
				return
			}
			local = append(local, mid)
		}
		if n > 2 {
			if c := findRefNode(l, centroid(l, corners...)); c >= 0 {
				local = append(local, c)
			}
		}
	}
	switch len(local) {
	case 2:
		ct = element.Seg2
	case 3:
		ct = element.Seg3
		if n == 3 {
			ct = element.Tri3
		}
	case 4:
		ct = element.Quad4
	case 6:
		ct = element.Tri6
	case 7:
		ct = element.Tri7
	case 8:
		ct = element.Quad8
	case 9:
		ct = element.Quad9
	default:
		err = fmt.Errorf("no skin cell with %d nodes for a face of %s", len(local), l)
	}
	return
}

// ComputeSkin returns the boundary faces of the cells of dimension
// MeshDimension as a mesh of dimension MeshDimension-1 sharing the node
// coordinates.
func (m *UMesh) ComputeSkin(layouts ...element.Layout) (skin *Skin, err error) {
	if m.meshDim < 1 {
		err = fmt.Errorf("a mesh of dimension %d has no skin", m.meshDim)
		return
	}
	if err = m.BuildConnectivity(); err != nil {
		return
	}
	override := make(map[element.CellType]element.Layout)
	for _, l := range layouts {
		override[l.Type] = l
	}
	sm, _ := NewUMesh(m.spaceDim, m.Coords)
	skin = &Skin{UMesh: sm}
	for cell, neighbors := range m.EToE {
		if neighbors == nil {
			continue
		}
		ct := m.Types[cell]
		var (
			e      *element.Entry
			l      element.Layout
			ok     bool
			facesL [][]int
		)
		if e, err = m.catalog.Entry(ct); err != nil {
			return nil, err
		}
		if l, ok = override[ct]; !ok || l.Collapse != nil {
			if l, err = m.catalog.DefaultLayout(ct); err != nil {
				return nil, err
			}
		}
		facesL = e.Faces
		for f, nb := range neighbors {
			if nb >= 0 {
				continue
			}
			var (
				fct   element.CellType
				local []int
			)
			if fct, local, err = faceCell(l, e.Order, facesL[f]); err != nil {
				return nil, err
			}
			conn := make([]int, len(local))
			for i, k := range local {
				conn[i] = m.EtoV[cell][k]
			}
			if _, err = skin.AddCell(fct, conn); err != nil {
				return nil, err
			}
			skin.ParentCell = append(skin.ParentCell, cell)
			skin.ParentFace = append(skin.ParentFace, f)
		}
	}
	return
}
