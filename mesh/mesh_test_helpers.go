package mesh

import (
	"github.com/notargets/felocate/element"
)

// Standard meshes shared by the tests of the mesh and locator packages.

// StructuredQuadMesh returns nx by ny QUAD4 cells covering [x0,x1]x[y0,y1],
// numbered row by row. Node (i,j) has id j*(nx+1)+i.
func StructuredQuadMesh(nx, ny int, x0, y0, x1, y1 float64) *UMesh {
	var coords []float64
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			coords = append(coords,
				x0+(x1-x0)*float64(i)/float64(nx),
				y0+(y1-y0)*float64(j)/float64(ny))
		}
	}
	m, _ := NewUMesh(2, coords)
	node := func(i, j int) int { return j*(nx+1) + i }
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			_, _ = m.AddCell(element.Quad4, []int{node(i, j), node(i+1, j), node(i+1, j+1), node(i, j+1)})
		}
	}
	return m
}

// StructuredTriMesh splits every cell of StructuredQuadMesh into two TRI3.
func StructuredTriMesh(nx, ny int, x0, y0, x1, y1 float64) *UMesh {
	q := StructuredQuadMesh(nx, ny, x0, y0, x1, y1)
	m, _ := NewUMesh(2, q.Coords)
	for _, v := range q.EtoV {
		_, _ = m.AddCell(element.Tri3, []int{v[0], v[1], v[2]})
		_, _ = m.AddCell(element.Tri3, []int{v[0], v[2], v[3]})
	}
	return m
}

// StructuredHexMesh returns nx*ny*nz HEXA8 cells covering the unit cube,
// with nodes in the default HEXA8 numbering.
func StructuredHexMesh(nx, ny, nz int) *UMesh {
	var coords []float64
	for k := 0; k <= nz; k++ {
		for j := 0; j <= ny; j++ {
			for i := 0; i <= nx; i++ {
				coords = append(coords, float64(i)/float64(nx), float64(j)/float64(ny), float64(k)/float64(nz))
			}
		}
	}
	m, _ := NewUMesh(3, coords)
	node := func(i, j, k int) int { return (k*(ny+1)+j)*(nx+1) + i }
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				_, _ = m.AddCell(element.Hexa8, []int{
					node(i, j, k), node(i, j+1, k), node(i+1, j+1, k), node(i+1, j, k),
					node(i, j, k+1), node(i, j+1, k+1), node(i+1, j+1, k+1), node(i+1, j, k+1),
				})
			}
		}
	}
	return m
}

// TwoTetMesh is two TETRA4 sharing the face {1,2,3}.
func TwoTetMesh() *UMesh {
	m, _ := NewUMesh(3, []float64{
		0, 0, 0, // 0
		1, 0, 0, // 1
		0, 1, 0, // 2
		0, 0, 1, // 3
		1, 1, 1, // 4
	})
	_, _ = m.AddCell(element.Tetra4, []int{0, 1, 2, 3})
	_, _ = m.AddCell(element.Tetra4, []int{1, 2, 3, 4})
	return m
}

// SingleCellMesh returns a mesh of one cell of type ct whose nodes are the
// images under mapping of the nodes of the default layout. mapping takes
// reference coordinates to spaceDim physical coordinates.
func SingleCellMesh(ct element.CellType, spaceDim int, mapping func(xi []float64) []float64) (m *UMesh, err error) {
	var l element.Layout
	if l, err = element.Default().DefaultLayout(ct); err != nil {
		return
	}
	var coords []float64
	conn := make([]int, l.NbRef)
	for i := 0; i < l.NbRef; i++ {
		coords = append(coords, mapping(l.Node(i))...)
		conn[i] = i
	}
	if m, err = NewUMesh(spaceDim, coords); err != nil {
		return
	}
	_, err = m.AddCell(ct, conn)
	return
}

// Affine returns the map xi -> A xi + b; A is row major, len(b) rows.
func Affine(A, b []float64) func(xi []float64) []float64 {
	return func(xi []float64) (x []float64) {
		n := len(b)
		x = append([]float64(nil), b...)
		for i := 0; i < n; i++ {
			for j := range xi {
				x[i] += A[i*len(A)/n+j] * xi[j]
			}
		}
		return
	}
}
