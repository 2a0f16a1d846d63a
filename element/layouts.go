package element

// Reference node tables. Each table lists the reference coordinates of the
// nodes in connectivity order; a cell type may admit several numbering
// conventions, tried in the order they are registered.

const third = 1. / 3.

var (
	seg2A = []float64{-1, 1}
	seg3A = []float64{-1, 1, 0}
	seg4A = []float64{-1, 1, -third, third}

	tri3A = []float64{
		-1, 1,
		-1, -1,
		1, -1,
	}
	tri3B = []float64{
		0, 0,
		1, 0,
		0, 1,
	}
	tri6A = append(clone(tri3A),
		-1, 0,
		0, -1,
		0, 0,
	)
	tri6B = append(clone(tri3B),
		0.5, 0,
		0.5, 0.5,
		0, 0.5,
	)
	tri7A = append(clone(tri6B), third, third)

	quad4A = []float64{
		-1, 1,
		-1, -1,
		1, -1,
		1, 1,
	}
	quad4B = []float64{
		-1, -1,
		1, -1,
		1, 1,
		-1, 1,
	}
	quad8A = append(clone(quad4A),
		-1, 0,
		0, -1,
		1, 0,
		0, 1,
	)
	quad8B = append(clone(quad4B),
		0, -1,
		1, 0,
		0, 1,
		-1, 0,
	)
	quad9A = append(clone(quad8B), 0, 0)

	tetra4A = []float64{
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
		1, 0, 0,
	}
	tetra4B = []float64{
		0, 1, 0,
		0, 0, 0,
		0, 0, 1,
		1, 0, 0,
	}
	tetra10A = append(clone(tetra4A),
		0, 0.5, 0.5,
		0, 0, 0.5,
		0, 0.5, 0,
		0.5, 0.5, 0,
		0.5, 0, 0.5,
		0.5, 0, 0,
	)
	tetra10B = append(clone(tetra4B),
		0, 0.5, 0,
		0, 0, 0.5,
		0, 0.5, 0.5,
		0.5, 0.5, 0,
		0.5, 0, 0,
		0.5, 0, 0.5,
	)

	pyra5A = []float64{
		1, 0, 0,
		0, 1, 0,
		-1, 0, 0,
		0, -1, 0,
		0, 0, 1,
	}
	pyra5B = []float64{
		1, 0, 0,
		0, -1, 0,
		-1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
	pyra13A = append(clone(pyra5A),
		0.5, 0.5, 0,
		-0.5, 0.5, 0,
		-0.5, -0.5, 0,
		0.5, -0.5, 0,
		0.5, 0, 0.5,
		0, 0.5, 0.5,
		-0.5, 0, 0.5,
		0, -0.5, 0.5,
	)
	pyra13B = append(clone(pyra5B),
		0.5, -0.5, 0,
		-0.5, -0.5, 0,
		-0.5, 0.5, 0,
		0.5, 0.5, 0,
		0.5, 0, 0.5,
		0, -0.5, 0.5,
		-0.5, 0, 0.5,
		0, 0.5, 0.5,
	)

	penta6A = []float64{
		-1, 1, 0,
		-1, 0, 1,
		-1, 0, 0,
		1, 1, 0,
		1, 0, 1,
		1, 0, 0,
	}
	penta6B = []float64{
		-1, 1, 0,
		-1, 0, 0,
		-1, 0, 1,
		1, 1, 0,
		1, 0, 0,
		1, 0, 1,
	}
	penta15A = append(clone(penta6A),
		-1, 0.5, 0.5,
		-1, 0, 0.5,
		-1, 0.5, 0,
		0, 1, 0,
		0, 0, 1,
		0, 0, 0,
		1, 0.5, 0.5,
		1, 0, 0.5,
		1, 0.5, 0,
	)
	penta15B = append(clone(penta6B),
		-1, 0.5, 0,
		-1, 0, 0.5,
		-1, 0.5, 0.5,
		1, 0.5, 0,
		1, 0, 0.5,
		1, 0.5, 0.5,
		0, 1, 0,
		0, 0, 0,
		0, 0, 1,
	)
	penta18A = append(clone(penta15A),
		0, 0.5, 0.5,
		0, 0, 0.5,
		0, 0.5, 0,
	)

	hexa8A = []float64{
		-1, -1, -1,
		1, -1, -1,
		1, 1, -1,
		-1, 1, -1,
		-1, -1, 1,
		1, -1, 1,
		1, 1, 1,
		-1, 1, 1,
	}
	hexa8B = []float64{
		-1, -1, -1,
		-1, 1, -1,
		1, 1, -1,
		1, -1, -1,
		-1, -1, 1,
		-1, 1, 1,
		1, 1, 1,
		1, -1, 1,
	}
	hexa20A = append(clone(hexa8A),
		0, -1, -1,
		1, 0, -1,
		0, 1, -1,
		-1, 0, -1,
		-1, -1, 0,
		1, -1, 0,
		1, 1, 0,
		-1, 1, 0,
		0, -1, 1,
		1, 0, 1,
		0, 1, 1,
		-1, 0, 1,
	)
	hexa20B = append(clone(hexa8B),
		-1, 0, -1,
		0, 1, -1,
		1, 0, -1,
		0, -1, -1,
		-1, 0, 1,
		0, 1, 1,
		1, 0, 1,
		0, -1, 1,
		-1, -1, 0,
		-1, 1, 0,
		1, 1, 0,
		1, -1, 0,
	)
	hexa27A = append(clone(hexa20B),
		0, 0, -1,
		-1, 0, 0,
		0, 1, 0,
		1, 0, 0,
		0, -1, 0,
		0, 0, 1,
		0, 0, 0,
	)
)

func clone(v []float64) []float64 { return append([]float64(nil), v...) }

// collapsed builds the reference coordinates of a degenerate layout from the
// node map onto the lower order cell.
func collapsed(lower []float64, dim int, nodeMap []int) (coords []float64) {
	for _, n := range nodeMap {
		coords = append(coords, lower[n*dim:(n+1)*dim]...)
	}
	return
}

func newLayout(ct CellType, name string, dim int, coords []float64, dom Domain) Layout {
	nb := 1
	if dim != 0 {
		nb = len(coords) / dim
	}
	return Layout{
		Type:            ct,
		Name:            name,
		ReferenceCoords: ReferenceCoords{Dim: dim, NbRef: nb, Coords: coords},
		Domain:          dom,
	}
}

func newCollapsedLayout(ct CellType, name string, lower CellType, lowerName string,
	dim int, lowerCoords []float64, dom Domain, nodeMap []int) (l Layout) {
	l = newLayout(ct, name, dim, collapsed(lowerCoords, dim, nodeMap), dom)
	l.Collapse = &Collapse{Type: lower, Layout: lowerName, NodeMap: nodeMap}
	return
}
