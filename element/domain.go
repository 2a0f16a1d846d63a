package element

import (
	"math"
	"sort"

	"github.com/notargets/felocate/utils"
)

// Domain is the shape of a reference cell
type Domain uint8

const (
	DomainPoint         Domain = iota
	DomainSegment              // [-1,1]
	DomainTriangle             // x,y >= 0, x+y <= 1
	DomainLowerTriangle        // x,y >= -1, x+y <= 0
	DomainSquare               // [-1,1]^2
	DomainTetra                // x,y,z >= 0, x+y+z <= 1
	DomainPyramid              // 0 <= z <= 1, |x|+|y| <= 1-z
	DomainPrism                // -1 <= x <= 1, y,z >= 0, y+z <= 1
	DomainCube                 // [-1,1]^3
)

func (d Domain) String() string {
	return [...]string{"Point", "Segment", "Triangle", "LowerTriangle", "Square",
		"Tetra", "Pyramid", "Prism", "Cube"}[d]
}

func (d Domain) Dim() int {
	return [...]int{0, 1, 2, 2, 2, 3, 3, 3, 3}[d]
}

// Contains is the half-space test of the reference cell. Points within eps
// of the boundary, on either side, are inside.
func (d Domain) Contains(xi []float64, eps float64) bool {
	var (
		ge = func(a, b float64) bool { return utils.GreaterOrEqual.Compare(a, b, eps) }
		le = func(a, b float64) bool { return utils.LessOrEqual.Compare(a, b, eps) }
		in = func(a float64) bool { return ge(a, -1) && le(a, 1) }
	)
	switch d {
	case DomainPoint:
		return true
	case DomainSegment:
		return in(xi[0])
	case DomainTriangle:
		return ge(xi[0], 0) && ge(xi[1], 0) && le(xi[0]+xi[1], 1)
	case DomainLowerTriangle:
		return ge(xi[0], -1) && ge(xi[1], -1) && le(xi[0]+xi[1], 0)
	case DomainSquare:
		return in(xi[0]) && in(xi[1])
	case DomainTetra:
		return ge(xi[0], 0) && ge(xi[1], 0) && ge(xi[2], 0) && le(xi[0]+xi[1]+xi[2], 1)
	case DomainPyramid:
		return ge(xi[2], 0) && le(xi[2], 1) && le(math.Abs(xi[0])+math.Abs(xi[1]), 1-xi[2])
	case DomainPrism:
		return in(xi[0]) && ge(xi[1], 0) && ge(xi[2], 0) && le(xi[1]+xi[2], 1)
	case DomainCube:
		return in(xi[0]) && in(xi[1]) && in(xi[2])
	}
	return false
}

// Clamp returns the point of the reference cell nearest to xi. For the
// pyramid the height is clamped first and the nearest point is taken within
// that horizontal section.
func (d Domain) Clamp(xi []float64) (c []float64) {
	c = make([]float64, len(xi))
	copy(c, xi)
	clamp1 := func(v float64) float64 { return math.Max(-1, math.Min(1, v)) }
	switch d {
	case DomainSegment, DomainSquare, DomainCube:
		for i := range c {
			c[i] = clamp1(c[i])
		}
	case DomainTriangle, DomainTetra:
		projectSimplex(c, 1)
	case DomainLowerTriangle:
		c[0], c[1] = c[0]+1, c[1]+1
		projectSimplex(c, 2)
		c[0], c[1] = c[0]-1, c[1]-1
	case DomainPrism:
		c[0] = clamp1(c[0])
		projectSimplex(c[1:], 1)
	case DomainPyramid:
		c[2] = math.Max(0, math.Min(1, c[2]))
		projectL1Ball(c[:2], 1-c[2])
	}
	return
}

// projectSimplex projects v in place onto {v >= 0, sum(v) <= t}.
func projectSimplex(v []float64, t float64) {
	var sum float64
	if t <= 0 {
		for i := range v {
			v[i] = 0
		}
		return
	}
	for i := range v {
		v[i] = math.Max(v[i], 0)
		sum += v[i]
	}
	if sum <= t {
		return
	}
	u := append([]float64(nil), v...)
	sort.Sort(sort.Reverse(sort.Float64Slice(u)))
	var (
		cum, theta float64
	)
	for j, uj := range u {
		cum += uj
		if th := (cum - t) / float64(j+1); uj-th > 0 {
			theta = th
		}
	}
	for i := range v {
		v[i] = math.Max(v[i]-theta, 0)
	}
}

// projectL1Ball projects v in place onto {|v|_1 <= r}.
func projectL1Ball(v []float64, r float64) {
	var (
		sign = make([]float64, len(v))
		abs  = make([]float64, len(v))
		sum  float64
	)
	for i, f := range v {
		sign[i] = 1
		if f < 0 {
			sign[i] = -1
		}
		abs[i] = math.Abs(f)
		sum += abs[i]
	}
	if sum <= r {
		return
	}
	projectSimplex(abs, r)
	for i := range v {
		v[i] = sign[i] * abs[i]
	}
}
