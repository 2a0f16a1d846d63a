package mesh

import (
	"fmt"
	"sort"

	"github.com/notargets/felocate/element"
)

// Mesh is the read-only view of an unstructured mesh used by point location.
type Mesh interface {
	SpaceDimension() int
	MeshDimension() int
	NumberOfCells() int
	NumberOfNodes() int
	CellType(cell int) element.CellType
	NodeIDsOfCell(cell int) []int
	NodeCoordinate(node int) []float64
	// ComputeSkin extracts the boundary faces of the highest dimension cells.
	// Quadratic cells are read in their type's default layout unless a layout
	// for the type is given.
	ComputeSkin(layouts ...element.Layout) (*Skin, error)
	AllGeometricTypes() []element.CellType
}

// Face is a face of a cell, keyed by its sorted corner node ids.
type Face struct {
	Vertices []int // Sorted vertex indices
	Element  int   // Parent element
	LocalID  int   // Local face ID within element
}

// UMesh is an in-memory unstructured mesh with cells of mixed types.
type UMesh struct {
	catalog  *element.Catalog
	spaceDim int
	meshDim  int
	Coords   []float64 // node coordinates, spaceDim per node
	EtoV     [][]int   // cell to node connectivity
	Types    []element.CellType

	// Face connectivity of the cells of dimension meshDim, built on demand
	EToE    [][]int // -1 marks a boundary face
	EToF    [][]int
	Faces   []Face
	FaceMap map[string]int
}

func NewUMesh(spaceDim int, coords []float64) (m *UMesh, err error) {
	if spaceDim < 1 || spaceDim > 3 {
		err = fmt.Errorf("space dimension %d is not in [1,3]", spaceDim)
		return
	}
	if len(coords)%spaceDim != 0 {
		err = fmt.Errorf("%d coordinates for space dimension %d", len(coords), spaceDim)
		return
	}
	m = &UMesh{
		catalog:  element.Default(),
		spaceDim: spaceDim,
		meshDim:  -1,
		Coords:   coords,
	}
	return
}

// AddCell appends a cell and returns its id.
func (m *UMesh) AddCell(ct element.CellType, conn []int) (id int, err error) {
	var dim int
	switch ct {
	case element.Polygon:
		dim = 2
	case element.Polyhedron:
		dim = 3
	default:
		var nb int
		if nb, err = m.catalog.NumberOfNodes(ct); err != nil {
			return
		}
		if len(conn) != nb {
			err = fmt.Errorf("%s needs %d nodes, have %d", ct, nb, len(conn))
			return
		}
		dim, _ = m.catalog.Dimension(ct)
	}
	if dim > m.spaceDim {
		err = fmt.Errorf("%s does not fit in space dimension %d", ct, m.spaceDim)
		return
	}
	nNodes := m.NumberOfNodes()
	for _, n := range conn {
		if n < 0 || n >= nNodes {
			err = fmt.Errorf("%s references node %d of %d", ct, n, nNodes)
			return
		}
	}
	id = len(m.EtoV)
	m.EtoV = append(m.EtoV, append([]int(nil), conn...))
	m.Types = append(m.Types, ct)
	if dim > m.meshDim {
		m.meshDim = dim
	}
	m.EToE, m.EToF, m.Faces, m.FaceMap = nil, nil, nil, nil
	return
}

func (m *UMesh) SpaceDimension() int { return m.spaceDim }

// MeshDimension is the largest cell dimension, -1 for an empty mesh.
func (m *UMesh) MeshDimension() int { return m.meshDim }

func (m *UMesh) NumberOfCells() int { return len(m.EtoV) }

func (m *UMesh) NumberOfNodes() int { return len(m.Coords) / m.spaceDim }

func (m *UMesh) CellType(cell int) element.CellType { return m.Types[cell] }

func (m *UMesh) NodeIDsOfCell(cell int) []int { return m.EtoV[cell] }

func (m *UMesh) NodeCoordinate(node int) []float64 {
	return m.Coords[node*m.spaceDim : (node+1)*m.spaceDim]
}

func (m *UMesh) AllGeometricTypes() (types []element.CellType) {
	seen := make(map[element.CellType]bool)
	for _, ct := range m.Types {
		if !seen[ct] {
			seen[ct] = true
			types = append(types, ct)
		}
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return
}

// cellFaces returns the node ids of the corners of each face of a cell, in
// the orientation of the catalog.
func (m *UMesh) cellFaces(cell int) (faces [][]int, err error) {
	var local [][]int
	if local, err = m.catalog.Faces(m.Types[cell]); err != nil {
		return
	}
	vertices := m.EtoV[cell]
	faces = make([][]int, len(local))
	for i, f := range local {
		faces[i] = make([]int, len(f))
		for j, v := range f {
			faces[i][j] = vertices[v]
		}
	}
	return
}

// BuildConnectivity builds element-to-element and face connectivity of the
// cells of dimension MeshDimension. Lower dimensional cells keep nil rows.
func (m *UMesh) BuildConnectivity() (err error) {
	nCells := m.NumberOfCells()
	m.EToE = make([][]int, nCells)
	m.EToF = make([][]int, nCells)
	m.Faces = nil
	m.FaceMap = make(map[string]int)

	for elemID := 0; elemID < nCells; elemID++ {
		var dim int
		if dim, err = m.catalog.Dimension(m.Types[elemID]); err != nil {
			return
		}
		if dim != m.meshDim {
			continue
		}
		var faceVertices [][]int
		if faceVertices, err = m.cellFaces(elemID); err != nil {
			return
		}
		m.EToE[elemID] = make([]int, len(faceVertices))
		m.EToF[elemID] = make([]int, len(faceVertices))
		for i := range m.EToE[elemID] {
			m.EToE[elemID][i] = -1
			m.EToF[elemID][i] = -1
		}

		for localFaceID, faceVerts := range faceVertices {
			sorted := make([]int, len(faceVerts))
			copy(sorted, faceVerts)
			sort.Ints(sorted)
			key := fmt.Sprintf("%v", sorted)

			if faceID, exists := m.FaceMap[key]; exists {
				face := &m.Faces[faceID]
				neighborElem := face.Element
				neighborLocalID := face.LocalID

				m.EToE[elemID][localFaceID] = neighborElem
				m.EToE[neighborElem][neighborLocalID] = elemID
				m.EToF[elemID][localFaceID] = faceID
			} else {
				faceID := len(m.Faces)
				m.Faces = append(m.Faces, Face{
					Vertices: sorted,
					Element:  elemID,
					LocalID:  localFaceID,
				})
				m.FaceMap[key] = faceID
				m.EToF[elemID][localFaceID] = faceID
			}
		}
	}
	return
}

// PrintStatistics prints mesh statistics
func (m *UMesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Nodes: %d\n", m.NumberOfNodes())
	fmt.Printf("  Cells: %d\n", m.NumberOfCells())
	fmt.Printf("  Faces: %d\n", len(m.Faces))

	typeCounts := make(map[element.CellType]int)
	for _, t := range m.Types {
		typeCounts[t]++
	}
	fmt.Printf("  Cell types:\n")
	for _, t := range m.AllGeometricTypes() {
		fmt.Printf("    %s: %d\n", t, typeCounts[t])
	}

	boundaryFaces := 0
	for _, row := range m.EToE {
		for _, neighbor := range row {
			if neighbor < 0 {
				boundaryFaces++
			}
		}
	}
	fmt.Printf("  Boundary faces: %d\n", boundaryFaces)
}
