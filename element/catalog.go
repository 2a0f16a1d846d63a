package element

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnsupportedCellType = errors.New("unsupported cell type")

// ReferenceCoords is a flat, node-major list of NbRef points of dimension Dim.
type ReferenceCoords struct {
	Dim    int
	NbRef  int
	Coords []float64
}

// Node returns the reference coordinates of node i.
func (rc ReferenceCoords) Node(i int) []float64 {
	return rc.Coords[i*rc.Dim : (i+1)*rc.Dim]
}

// Collapse describes a cell whose nodes coincide with the nodes of a lower
// order cell: node i of the cell sits on node NodeMap[i] of the lower cell.
type Collapse struct {
	Type    CellType
	Layout  string
	NodeMap []int
}

// Layout is one numbering convention of the reference nodes of a cell type.
type Layout struct {
	Type CellType
	Name string
	ReferenceCoords
	Domain   Domain
	Collapse *Collapse // non nil for degenerate layouts
}

func (l Layout) String() string { return l.Type.String() + "/" + l.Name }

// Entry holds everything the catalog knows about one cell type.
type Entry struct {
	Type       CellType
	Dim        int
	NbNodes    int
	NbCorners  int
	Order      int      // polynomial order of the geometric interpolation
	Barycenter []float64 // reference coordinates of the barycenter in the default layout
	Faces      [][]int   // corner node indices of each codimension-1 face
	Layouts    []Layout  // in resolution priority order
	Default    string    // name of the default layout
}

// Catalog is the immutable registry of reference elements. It is built once
// by NewCatalog and shared read-only afterwards.
type Catalog struct {
	entries map[CellType]*Entry
}

var defaultCatalog = NewCatalog()

// Default returns the process-wide catalog.
func Default() *Catalog { return defaultCatalog }

var (
	segEdges  = [][]int{{0}, {1}}
	triEdges  = [][]int{{0, 1}, {1, 2}, {2, 0}}
	quadEdges = [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	tetFaces  = [][]int{{0, 2, 1}, {0, 1, 3}, {1, 2, 3}, {0, 3, 2}}
	hexFaces  = [][]int{
		{0, 3, 2, 1}, {4, 5, 6, 7}, {0, 1, 5, 4},
		{1, 2, 6, 5}, {2, 3, 7, 6}, {3, 0, 4, 7},
	}
	prismFaces = [][]int{
		{0, 2, 1}, {3, 4, 5}, {0, 1, 4, 3}, {1, 2, 5, 4}, {2, 0, 3, 5},
	}
	pyramidFaces = [][]int{
		{0, 3, 2, 1}, {0, 1, 4}, {1, 2, 4}, {2, 3, 4}, {3, 0, 4},
	}
)

func NewCatalog() (c *Catalog) {
	c = &Catalog{entries: make(map[CellType]*Entry)}
	add := func(ct CellType, dim, corners, order int, bary []float64, faces [][]int,
		def string, layouts ...Layout) {
		e := &Entry{
			Type:       ct,
			Dim:        dim,
			NbNodes:    layouts[0].NbRef,
			NbCorners:  corners,
			Order:      order,
			Barycenter: bary,
			Faces:      faces,
			Layouts:    layouts,
			Default:    def,
		}
		c.entries[ct] = e
	}
	var (
		quarter = 0.25
		fifth   = 0.2
	)
	add(Point1, 0, 1, 1, []float64{}, nil, "A",
		newLayout(Point1, "A", 0, nil, DomainPoint))
	add(Seg2, 1, 2, 1, []float64{0}, segEdges, "A",
		newLayout(Seg2, "A", 1, seg2A, DomainSegment))
	add(Seg3, 1, 2, 2, []float64{0}, segEdges, "A",
		newLayout(Seg3, "A", 1, seg3A, DomainSegment))
	add(Seg4, 1, 2, 3, []float64{0}, segEdges, "A",
		newLayout(Seg4, "A", 1, seg4A, DomainSegment))
	add(Tri3, 2, 3, 1, []float64{third, third}, triEdges, "B",
		newLayout(Tri3, "A", 2, tri3A, DomainLowerTriangle),
		newLayout(Tri3, "B", 2, tri3B, DomainTriangle))
	add(Tri6, 2, 3, 2, []float64{third, third}, triEdges, "B",
		newLayout(Tri6, "A", 2, tri6A, DomainLowerTriangle),
		newLayout(Tri6, "B", 2, tri6B, DomainTriangle))
	add(Tri7, 2, 3, 2, []float64{third, third}, triEdges, "A",
		newLayout(Tri7, "A", 2, tri7A, DomainTriangle))
	add(Quad4, 2, 4, 1, []float64{0, 0}, quadEdges, "B",
		newLayout(Quad4, "A", 2, quad4A, DomainSquare),
		newLayout(Quad4, "B", 2, quad4B, DomainSquare),
		newCollapsedLayout(Quad4, "DEG_SEG2", Seg2, "A", 1, seg2A, DomainSegment,
			[]int{0, 1, 1, 0}))
	add(Quad8, 2, 4, 2, []float64{0, 0}, quadEdges, "B",
		newLayout(Quad8, "A", 2, quad8A, DomainSquare),
		newLayout(Quad8, "B", 2, quad8B, DomainSquare))
	add(Quad9, 2, 4, 2, []float64{0, 0}, quadEdges, "A",
		newLayout(Quad9, "A", 2, quad9A, DomainSquare))
	add(Tetra4, 3, 4, 1, []float64{quarter, quarter, quarter}, tetFaces, "A",
		newLayout(Tetra4, "A", 3, tetra4A, DomainTetra),
		newLayout(Tetra4, "B", 3, tetra4B, DomainTetra),
		newCollapsedLayout(Tetra4, "DEG_TRI3", Tri3, "B", 2, tri3B, DomainTriangle,
			[]int{0, 1, 2, 2}))
	add(Tetra10, 3, 4, 2, []float64{quarter, quarter, quarter}, tetFaces, "A",
		newLayout(Tetra10, "A", 3, tetra10A, DomainTetra),
		newLayout(Tetra10, "B", 3, tetra10B, DomainTetra))
	add(Pyra5, 3, 5, 1, []float64{0, 0, fifth}, pyramidFaces, "A",
		newLayout(Pyra5, "A", 3, pyra5A, DomainPyramid),
		newLayout(Pyra5, "B", 3, pyra5B, DomainPyramid))
	add(Pyra13, 3, 5, 2, []float64{0, 0, fifth}, pyramidFaces, "A",
		newLayout(Pyra13, "A", 3, pyra13A, DomainPyramid),
		newLayout(Pyra13, "B", 3, pyra13B, DomainPyramid))
	add(Penta6, 3, 6, 1, []float64{0, third, third}, prismFaces, "A",
		newLayout(Penta6, "A", 3, penta6A, DomainPrism),
		newLayout(Penta6, "B", 3, penta6B, DomainPrism),
		newCollapsedLayout(Penta6, "DEG_TRI3", Tri3, "B", 2, tri3B, DomainTriangle,
			[]int{0, 1, 2, 0, 1, 2}))
	add(Penta15, 3, 6, 2, []float64{0, third, third}, prismFaces, "A",
		newLayout(Penta15, "A", 3, penta15A, DomainPrism),
		newLayout(Penta15, "B", 3, penta15B, DomainPrism))
	add(Penta18, 3, 6, 2, []float64{0, third, third}, prismFaces, "A",
		newLayout(Penta18, "A", 3, penta18A, DomainPrism))
	add(Hexa8, 3, 8, 1, []float64{0, 0, 0}, hexFaces, "B",
		newLayout(Hexa8, "A", 3, hexa8A, DomainCube),
		newLayout(Hexa8, "B", 3, hexa8B, DomainCube),
		newCollapsedLayout(Hexa8, "DEG_QUAD4", Quad4, "B", 2, quad4B, DomainSquare,
			[]int{0, 1, 2, 3, 0, 1, 2, 3}))
	add(Hexa20, 3, 8, 2, []float64{0, 0, 0}, hexFaces, "B",
		newLayout(Hexa20, "A", 3, hexa20A, DomainCube),
		newLayout(Hexa20, "B", 3, hexa20B, DomainCube))
	add(Hexa27, 3, 8, 2, []float64{0, 0, 0}, hexFaces, "A",
		newLayout(Hexa27, "A", 3, hexa27A, DomainCube))
	return
}

func (c *Catalog) Entry(ct CellType) (e *Entry, err error) {
	var ok bool
	if e, ok = c.entries[ct]; !ok {
		err = fmt.Errorf("%w: %s", ErrUnsupportedCellType, ct)
	}
	return
}

// Types returns the supported cell types in ascending order.
func (c *Catalog) Types() (types []CellType) {
	for ct := range c.entries {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return
}

func (c *Catalog) Dimension(ct CellType) (dim int, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	return e.Dim, nil
}

func (c *Catalog) NumberOfNodes(ct CellType) (nb int, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	return e.NbNodes, nil
}

func (c *Catalog) IsQuadratic(ct CellType) (q bool, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	return e.Order > 1, nil
}

// Layouts returns the admissible layouts of ct in resolution order.
func (c *Catalog) Layouts(ct CellType) (layouts []Layout, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	return e.Layouts, nil
}

// Layout looks a layout up by name.
func (c *Catalog) Layout(ct CellType, name string) (l Layout, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	for _, l = range e.Layouts {
		if l.Name == name {
			return
		}
	}
	err = fmt.Errorf("%w: %s has no layout %q", ErrUnsupportedCellType, ct, name)
	return
}

func (c *Catalog) DefaultLayout(ct CellType) (l Layout, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	return c.Layout(ct, e.Default)
}

// DefaultReferenceCoordinates returns a copy of the default layout's nodes.
func (c *Catalog) DefaultReferenceCoordinates(ct CellType) (rc ReferenceCoords, err error) {
	var l Layout
	if l, err = c.DefaultLayout(ct); err != nil {
		return
	}
	rc = l.ReferenceCoords
	rc.Coords = clone(l.Coords)
	return
}

func (c *Catalog) BarycenterReferenceCoordinates(ct CellType) (bary []float64, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	return clone(e.Barycenter), nil
}

// IsInsideReference tests xi against the reference cell of the default layout.
func (c *Catalog) IsInsideReference(ct CellType, xi []float64, eps float64) (inside bool, err error) {
	var l Layout
	if l, err = c.DefaultLayout(ct); err != nil {
		return
	}
	if len(xi) < l.Dim {
		err = fmt.Errorf("%s needs %d reference coordinates, have %d", ct, l.Dim, len(xi))
		return
	}
	return l.Domain.Contains(xi, eps), nil
}

// Faces returns the corner indices of the codimension-1 faces of ct.
func (c *Catalog) Faces(ct CellType) (faces [][]int, err error) {
	var e *Entry
	if e, err = c.Entry(ct); err != nil {
		return
	}
	return e.Faces, nil
}
