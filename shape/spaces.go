package shape

import (
	"fmt"

	"github.com/notargets/felocate/element"
)

// Monomial spaces spanned by the shape functions of each polynomial cell.
// The nodal basis of a layout is obtained by inverting the Vandermonde matrix
// of the space on the layout's nodes.

func exps(e ...[3]int) (s []Poly) {
	for _, x := range e {
		s = append(s, mono(x[0], x[1], x[2]))
	}
	return
}

// complete returns every monomial of total degree <= order in the first dim
// coordinates, starting at coordinate offset.
func complete(order, dim, offset int) (s [][3]int) {
	var rec func(d, left int, e [3]int)
	rec = func(d, left int, e [3]int) {
		if d == dim {
			s = append(s, e)
			return
		}
		for k := 0; k <= left; k++ {
			e[offset+d] = k
			rec(d+1, left-k, e)
		}
	}
	rec(0, order, [3]int{})
	return
}

// tensor returns every monomial with degree <= order in each of the first dim
// coordinates.
func tensor(order, dim int) (s [][3]int) {
	var rec func(d int, e [3]int)
	rec = func(d int, e [3]int) {
		if d == dim {
			s = append(s, e)
			return
		}
		for k := 0; k <= order; k++ {
			e[d] = k
			rec(d+1, e)
		}
	}
	rec(0, [3]int{})
	return
}

// prismSpace is P(order) in (y, z) times the powers of x up to xOrder.
func prismSpace(order, xOrder int) (s [][3]int) {
	for _, e := range complete(order, 2, 1) {
		for k := 0; k <= xOrder; k++ {
			e[0] = k
			s = append(s, e)
		}
	}
	return
}

func polySpace(ct element.CellType) (space []Poly, err error) {
	switch ct {
	case element.Point1:
		space = []Poly{constant(1)}
	case element.Seg2:
		space = exps(complete(1, 1, 0)...)
	case element.Seg3:
		space = exps(complete(2, 1, 0)...)
	case element.Seg4:
		space = exps(complete(3, 1, 0)...)
	case element.Tri3:
		space = exps(complete(1, 2, 0)...)
	case element.Tri6:
		space = exps(complete(2, 2, 0)...)
	case element.Tri7:
		bubble := product(mono(1, 0, 0), mono(0, 1, 0), linear(1, -1, -1, 0))
		space = append(exps(complete(2, 2, 0)...), bubble)
	case element.Quad4:
		space = exps(tensor(1, 2)...)
	case element.Quad8:
		space = exps(
			[3]int{0, 0, 0}, [3]int{1, 0, 0}, [3]int{0, 1, 0}, [3]int{2, 0, 0},
			[3]int{1, 1, 0}, [3]int{0, 2, 0}, [3]int{2, 1, 0}, [3]int{1, 2, 0},
		)
	case element.Quad9:
		space = exps(tensor(2, 2)...)
	case element.Tetra4:
		space = exps(complete(1, 3, 0)...)
	case element.Tetra10:
		space = exps(complete(2, 3, 0)...)
	case element.Penta6:
		space = exps(prismSpace(1, 1)...)
	case element.Penta15:
		space = exps(append(prismSpace(2, 1),
			[3]int{2, 0, 0}, [3]int{2, 1, 0}, [3]int{2, 0, 1})...)
	case element.Penta18:
		space = exps(prismSpace(2, 2)...)
	case element.Hexa8:
		space = exps(tensor(1, 3)...)
	case element.Hexa20:
		for _, e := range tensor(2, 3) {
			// serendipity: drop the monomials quadratic in two or more coordinates
			var nQuad int
			for _, k := range e {
				if k == 2 {
					nQuad++
				}
			}
			if nQuad < 2 {
				space = append(space, mono(e[0], e[1], e[2]))
			}
		}
	case element.Hexa27:
		space = exps(tensor(2, 3)...)
	default:
		err = fmt.Errorf("%w: no polynomial space for %s", element.ErrUnsupportedCellType, ct)
	}
	return
}
