package mesh

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/felocate/element"
)

var identity3 = Affine([]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, []float64{0, 0, 0})

func TestUMesh(t *testing.T) {
	t.Run("construction errors", func(t *testing.T) {
		_, err := NewUMesh(4, nil)
		assert.Error(t, err)
		_, err = NewUMesh(2, []float64{0, 0, 1})
		assert.Error(t, err)

		m, err := NewUMesh(2, []float64{0, 0, 1, 0, 0, 1})
		require.NoError(t, err)
		assert.Equal(t, -1, m.MeshDimension())
		_, err = m.AddCell(element.Tri3, []int{0, 1})
		assert.Error(t, err)
		_, err = m.AddCell(element.Tri3, []int{0, 1, 3})
		assert.Error(t, err)
		_, err = m.AddCell(element.Tetra4, []int{0, 1, 2, 0})
		assert.Error(t, err)
		_, err = m.AddCell(element.CellType(200), []int{0})
		assert.ErrorIs(t, err, element.ErrUnsupportedCellType)
		assert.Equal(t, 0, m.NumberOfCells())

		id, err := m.AddCell(element.Tri3, []int{0, 1, 2})
		require.NoError(t, err)
		assert.Equal(t, 0, id)
		assert.Equal(t, 2, m.MeshDimension())
	})
	t.Run("mixed types", func(t *testing.T) {
		m := StructuredQuadMesh(2, 1, 0, 0, 2, 1)
		_, err := m.AddCell(element.Tri3, []int{0, 1, 4})
		require.NoError(t, err)
		_, err = m.AddCell(element.Seg2, []int{0, 1})
		require.NoError(t, err)
		assert.Equal(t, []element.CellType{element.Seg2, element.Tri3, element.Quad4}, m.AllGeometricTypes())
		assert.Equal(t, 6, m.NumberOfNodes())
		assert.Equal(t, []float64{2, 1}, m.NodeCoordinate(5))
		assert.Equal(t, []int{1, 2, 5, 4}, m.NodeIDsOfCell(1))
	})
}

func TestBuildConnectivity(t *testing.T) {
	t.Run("two tets", func(t *testing.T) {
		m := TwoTetMesh()
		require.NoError(t, m.BuildConnectivity())
		assert.Len(t, m.Faces, 7)
		assert.Equal(t, []int{-1, -1, 1, -1}, m.EToE[0])
		assert.Equal(t, []int{0, -1, -1, -1}, m.EToE[1])
		assert.Equal(t, m.EToF[0][2], m.EToF[1][0])
		assert.Equal(t, []int{1, 2, 3}, m.Faces[m.EToF[0][2]].Vertices)
	})
	t.Run("neighbors are reciprocal", func(t *testing.T) {
		m := StructuredHexMesh(3, 2, 2)
		require.NoError(t, m.BuildConnectivity())
		var boundary int
		for e, row := range m.EToE {
			for f, nb := range row {
				if nb < 0 {
					boundary++
					continue
				}
				assert.Contains(t, m.EToE[nb], e)
				assert.NotEqual(t, e, nb)
				assert.Contains(t, m.EToF[nb], m.EToF[e][f])
			}
		}
		// 2*(3*2 + 3*2 + 2*2)
		assert.Equal(t, 32, boundary)
	})
	t.Run("lower dimensional cells are left out", func(t *testing.T) {
		m := StructuredTriMesh(1, 1, 0, 0, 1, 1)
		_, err := m.AddCell(element.Seg2, []int{0, 1})
		require.NoError(t, err)
		require.NoError(t, m.BuildConnectivity())
		assert.Nil(t, m.EToE[2])
		assert.Equal(t, 1, m.EToE[0][2])
		assert.Equal(t, 0, m.EToE[1][0])
	})
}

func TestComputeSkin(t *testing.T) {
	t.Run("linear", func(t *testing.T) {
		var testCases = []struct {
			name  string
			m     *UMesh
			count int
			ct    element.CellType
		}{
			{"quads", StructuredQuadMesh(2, 2, 0, 0, 1, 1), 8, element.Seg2},
			{"triangles", StructuredTriMesh(1, 1, 0, 0, 1, 1), 4, element.Seg2},
			{"hexes", StructuredHexMesh(2, 1, 1), 10, element.Quad4},
			{"tets", TwoTetMesh(), 6, element.Tri3},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				skin, err := tc.m.ComputeSkin()
				require.NoError(t, err)
				assert.Equal(t, tc.count, skin.NumberOfCells())
				assert.Equal(t, []element.CellType{tc.ct}, skin.AllGeometricTypes())
				assert.Equal(t, tc.m.MeshDimension()-1, skin.MeshDimension())
				assert.Equal(t, tc.m.SpaceDimension(), skin.SpaceDimension())
				for i := 0; i < skin.NumberOfCells(); i++ {
					parent := tc.m.NodeIDsOfCell(skin.ParentCell[i])
					for _, n := range skin.NodeIDsOfCell(i) {
						assert.Contains(t, parent, n)
					}
					assert.Equal(t, -1, tc.m.EToE[skin.ParentCell[i]][skin.ParentFace[i]])
				}
			})
		}
	})
	t.Run("segments", func(t *testing.T) {
		m, err := NewUMesh(1, []float64{0, 1, 2})
		require.NoError(t, err)
		_, _ = m.AddCell(element.Seg2, []int{0, 1})
		_, _ = m.AddCell(element.Seg2, []int{1, 2})
		skin, err := m.ComputeSkin()
		require.NoError(t, err)
		require.Equal(t, 2, skin.NumberOfCells())
		assert.Equal(t, []element.CellType{element.Point1}, skin.AllGeometricTypes())
		assert.Equal(t, []int{0}, skin.NodeIDsOfCell(0))
		assert.Equal(t, []int{2}, skin.NodeIDsOfCell(1))
	})
	t.Run("quadratic", func(t *testing.T) {
		var testCases = []struct {
			ct     element.CellType
			counts map[element.CellType]int
		}{
			{element.Tetra10, map[element.CellType]int{element.Tri6: 4}},
			{element.Pyra13, map[element.CellType]int{element.Quad8: 1, element.Tri6: 4}},
			{element.Penta15, map[element.CellType]int{element.Tri6: 2, element.Quad8: 3}},
			{element.Penta18, map[element.CellType]int{element.Tri6: 2, element.Quad9: 3}},
			{element.Hexa20, map[element.CellType]int{element.Quad8: 6}},
			{element.Hexa27, map[element.CellType]int{element.Quad9: 6}},
		}
		for _, tc := range testCases {
			t.Run(tc.ct.String(), func(t *testing.T) {
				m, err := SingleCellMesh(tc.ct, 3, identity3)
				require.NoError(t, err)
				skin, err := m.ComputeSkin()
				require.NoError(t, err)
				counts := make(map[element.CellType]int)
				for i := 0; i < skin.NumberOfCells(); i++ {
					counts[skin.CellType(i)]++
					checkFaceNodes(t, skin, i)
				}
				assert.Equal(t, tc.counts, counts)
			})
		}
	})
	t.Run("quadratic triangles", func(t *testing.T) {
		m, err := SingleCellMesh(element.Tri6, 2, Affine([]float64{2, 0, 0, 1}, []float64{1, 1}))
		require.NoError(t, err)
		skin, err := m.ComputeSkin()
		require.NoError(t, err)
		require.Equal(t, 3, skin.NumberOfCells())
		for i := 0; i < 3; i++ {
			assert.Equal(t, element.Seg3, skin.CellType(i))
			checkFaceNodes(t, skin, i)
		}
	})
	t.Run("layout override", func(t *testing.T) {
		m := StructuredQuadMesh(1, 1, 0, 0, 1, 1)
		l, err := element.Default().Layout(element.Quad4, "A")
		require.NoError(t, err)
		skin, err := m.ComputeSkin(l)
		require.NoError(t, err)
		assert.Equal(t, 4, skin.NumberOfCells())
	})
	t.Run("empty mesh", func(t *testing.T) {
		m, _ := NewUMesh(2, nil)
		_, err := m.ComputeSkin()
		assert.Error(t, err)
	})
}

// checkFaceNodes asserts a skin cell lists its corners, then the mid nodes
// of its edges in cyclic order, then its centre.
func checkFaceNodes(t *testing.T, skin *Skin, cell int) {
	t.Helper()
	var (
		conn    = skin.NodeIDsOfCell(cell)
		nCorner = map[element.CellType]int{
			element.Seg3: 2, element.Tri6: 3, element.Quad8: 4, element.Quad9: 4,
		}[skin.CellType(cell)]
		dim = skin.SpaceDimension()
	)
	require.NotZero(t, nCorner)
	nEdges := nCorner
	if nCorner == 2 {
		nEdges = 1
	}
	mean := func(nodes ...int) (c []float64) {
		c = make([]float64, dim)
		for _, n := range nodes {
			for d, v := range skin.NodeCoordinate(n) {
				c[d] += v / float64(len(nodes))
			}
		}
		return
	}
	for e := 0; e < nEdges; e++ {
		a, b := conn[e], conn[(e+1)%nCorner]
		assert.InDeltaSlice(t, mean(a, b), skin.NodeCoordinate(conn[nCorner+e]), 1e-12)
	}
	if len(conn) == nCorner+nEdges+1 {
		assert.InDeltaSlice(t, mean(conn[:nCorner]...), skin.NodeCoordinate(conn[len(conn)-1]), 1e-12)
	}
}

func TestBBoxIndex(t *testing.T) {
	t.Run("quads", func(t *testing.T) {
		m := StructuredQuadMesh(4, 4, 0, 0, 1, 1)
		bi := NewBBoxIndex(m, DefaultBBoxEps)
		assert.Len(t, bi.Boxes, 16)
		assert.Equal(t, []int{9}, bi.ElementsAroundPoint([]float64{0.3, 0.6}))
		assert.Equal(t, []int{5, 6, 9, 10}, bi.ElementsAroundPoint([]float64{0.5, 0.5}))
		assert.Equal(t, []int{0}, bi.ElementsAroundPoint([]float64{0, 0}))
		assert.Empty(t, bi.ElementsAroundPoint([]float64{2, 2}))
		assert.Empty(t, bi.ElementsAroundPoint([]float64{0.5, 0.5, 0.1}))

		assert.Zero(t, bi.LowerBoundDistance(0, []float64{0.1, 0.1}))
		assert.InDelta(t, 1., bi.LowerBoundDistance(0, []float64{-1, 0.1}), 1e-9)
		assert.InDelta(t, 5., bi.LowerBoundDistance(0, []float64{-3, -4}), 1e-9)
	})
	t.Run("hexes", func(t *testing.T) {
		m := StructuredHexMesh(2, 2, 2)
		bi := NewBBoxIndex(m, DefaultBBoxEps)
		assert.Equal(t, []int{4}, bi.ElementsAroundPoint([]float64{0.25, 0.25, 0.75}))
		assert.Len(t, bi.ElementsAroundPoint([]float64{0.5, 0.5, 0.5}), 8)
		assert.Len(t, bi.ElementsAroundPoint([]float64{0.5, 0.25, 0.25}), 2)
	})
	t.Run("mixed sizes", func(t *testing.T) {
		m, err := NewUMesh(2, []float64{0, 0, 10, 0, 10, 10, 0, 10, 4, 4, 5, 4, 5, 5, 4, 5})
		require.NoError(t, err)
		_, _ = m.AddCell(element.Quad4, []int{0, 1, 2, 3})
		_, _ = m.AddCell(element.Quad4, []int{4, 5, 6, 7})
		bi := NewBBoxIndex(m, DefaultBBoxEps)
		assert.Equal(t, []int{0, 1}, bi.ElementsAroundPoint([]float64{4.5, 4.5}))
		assert.Equal(t, []int{0}, bi.ElementsAroundPoint([]float64{9.5, 0.5}))
	})
	t.Run("quadratic cells get a margin", func(t *testing.T) {
		m, err := SingleCellMesh(element.Quad8, 2, Affine([]float64{1, 0, 0, 1}, []float64{0, 0}))
		require.NoError(t, err)
		bi := NewBBoxIndex(m, DefaultBBoxEps)
		assert.Equal(t, []int{0}, bi.ElementsAroundPoint([]float64{1.4, 0}))
		assert.Empty(t, bi.ElementsAroundPoint([]float64{1.6, 0}))
	})
	t.Run("eps", func(t *testing.T) {
		m := StructuredQuadMesh(1, 1, 0, 0, 1, 1)
		bi := NewBBoxIndex(m, 0.1)
		assert.Equal(t, []int{0}, bi.ElementsAroundPoint([]float64{1.1, 0.5}))
		assert.Empty(t, bi.ElementsAroundPoint([]float64{1.2, 0.5}))
	})
}
