package shape

import (
	"fmt"
	"math"

	"github.com/notargets/felocate/element"
)

// Pyramid shape functions are rational, N = P / (1-z). The numerators are
// products of the lateral face planes L = 1 - z - sx*x - sy*y, which vanish on
// the faces and are positive inside, so the construction only depends on the
// position of each node and not on its number in the connectivity.

// apexTol is the distance to the apex below which the limit forms are used.
const apexTol = 1.e-12

var lateralSigns = [4][2]float64{{1, 1}, {-1, 1}, {-1, -1}, {1, -1}}

func lateralPlane(s [2]float64) Poly { return linear(1, -s[0], -s[1], -1) }

// planesNotContaining returns the lateral planes that do not vanish at xi.
func planesNotContaining(xi []float64) (ps []Poly) {
	for _, s := range lateralSigns {
		p := lateralPlane(s)
		if math.Abs(p.Eval(xi)) > apexTol {
			ps = append(ps, p)
		}
	}
	return
}

func isApex(xi []float64) bool { return math.Abs(xi[2]-1) < apexTol }

func pyramidNumerators(l element.Layout) (nums []Poly, err error) {
	var (
		quadratic = l.NbRef == 13
		z         = mono(0, 0, 1)
		oneMinusZ = linear(1, 0, 0, -1)
	)
	if l.NbRef != 5 && !quadratic {
		err = fmt.Errorf("%w: pyramid with %d nodes", element.ErrUnsupportedCellType, l.NbRef)
		return
	}
	nums = make([]Poly, l.NbRef)
	for i := range nums {
		var (
			xi     = l.Node(i)
			planes = planesNotContaining(xi)
			p      Poly
		)
		switch {
		case isApex(xi) && quadratic:
			p = product(z, linear(-0.5, 0, 0, 1), oneMinusZ)
		case isApex(xi):
			p = z.Mul(oneMinusZ)
		case xi[2] != 0:
			// mid node of a lateral edge
			p = product(append(planes, z)...)
		case len(planes) == 2 && quadratic:
			// base corner
			p = product(append(planes, linear(-0.5, xi[0], xi[1], 0))...)
		default:
			// base corner of the linear pyramid, or mid node of a base edge
			p = product(planes...)
		}
		nAtNode := rationalValue(p, xi)
		if math.Abs(nAtNode) < apexTol {
			err = fmt.Errorf("degenerate pyramid shape function for node %d of %s", i, l)
			return
		}
		nums[i] = p.Scale(1 / nAtNode)
	}
	return
}

// rationalValue evaluates P/(1-z), taking the limit along the axis at the apex.
func rationalValue(p Poly, xi []float64) float64 {
	if isApex(xi) {
		return -p.Deriv(2).Eval([]float64{0, 0, 1})
	}
	return p.Eval(xi) / (1 - xi[2])
}
