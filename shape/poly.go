package shape

import (
	"math"
	"sort"

	"github.com/notargets/felocate/utils"
)

type term struct {
	Coef float64
	Exp  [3]int
}

// Poly is a polynomial in the reference coordinates (x, y, z). Missing
// coordinates evaluate as zero, so one type serves cells of any dimension.
type Poly []term

// coefficients below this are roundoff of the Vandermonde inversion
const coefFloor = 1.e-14

func mono(ex, ey, ez int) Poly { return Poly{{Coef: 1, Exp: [3]int{ex, ey, ez}}} }

func constant(c float64) Poly { return Poly{{Coef: c}} }

// linear returns c + a*x + b*y + d*z
func linear(c, a, b, d float64) Poly {
	return Poly{
		{Coef: c}, {Coef: a, Exp: [3]int{1, 0, 0}},
		{Coef: b, Exp: [3]int{0, 1, 0}}, {Coef: d, Exp: [3]int{0, 0, 1}},
	}.simplify()
}

func (p Poly) Eval(xi []float64) (v float64) {
	var x [3]float64
	copy(x[:], xi)
	for _, t := range p {
		v += t.Coef * utils.POW(x[0], t.Exp[0]) * utils.POW(x[1], t.Exp[1]) * utils.POW(x[2], t.Exp[2])
	}
	return
}

// Deriv returns the partial derivative along coordinate d.
func (p Poly) Deriv(d int) (dp Poly) {
	for _, t := range p {
		if t.Exp[d] == 0 {
			continue
		}
		t.Coef *= float64(t.Exp[d])
		t.Exp[d]--
		dp = append(dp, t)
	}
	return
}

func (p Poly) Add(q Poly) Poly {
	r := make(Poly, 0, len(p)+len(q))
	r = append(append(r, p...), q...)
	return r.simplify()
}

func (p Poly) Scale(s float64) (r Poly) {
	r = make(Poly, len(p))
	for i, t := range p {
		r[i] = term{Coef: t.Coef * s, Exp: t.Exp}
	}
	return r.simplify()
}

func (p Poly) Mul(q Poly) (r Poly) {
	for _, a := range p {
		for _, b := range q {
			r = append(r, term{
				Coef: a.Coef * b.Coef,
				Exp:  [3]int{a.Exp[0] + b.Exp[0], a.Exp[1] + b.Exp[1], a.Exp[2] + b.Exp[2]},
			})
		}
	}
	return r.simplify()
}

// simplify merges like terms and drops vanishing coefficients.
func (p Poly) simplify() (r Poly) {
	acc := make(map[[3]int]float64, len(p))
	for _, t := range p {
		acc[t.Exp] += t.Coef
	}
	for e, c := range acc {
		if math.Abs(c) > coefFloor {
			r = append(r, term{Coef: c, Exp: e})
		}
	}
	sort.Slice(r, func(i, j int) bool {
		a, b := r[i].Exp, r[j].Exp
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		if a[1] != b[1] {
			return a[1] < b[1]
		}
		return a[2] < b[2]
	})
	return
}

func product(ps ...Poly) (r Poly) {
	r = constant(1)
	for _, p := range ps {
		r = r.Mul(p)
	}
	return
}
