package shape

import (
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/notargets/felocate/element"
	"github.com/notargets/felocate/utils"
)

// basis holds the compiled shape functions of one layout.
type basis struct {
	layout element.Layout
	n      []Poly
	dn     [][]Poly // dn[node][dim]
	// pyramids: n holds the numerators P, N = P/(1-z)
	rational bool
	d2     [][3]Poly // P_xz, P_yz, P_zz for the apex limit
	// degenerate layouts evaluate the lower cell and scatter onto the nodes
	lower *basis
	first []bool
}

type layoutKey struct {
	ct   element.CellType
	name string
}

// Evaluator computes shape functions and their reference derivatives for
// every layout of a catalog. It is read-only once built and safe for
// concurrent use.
type Evaluator struct {
	Catalog *element.Catalog
	bases   map[layoutKey]*basis
}

var (
	defaultEvaluator     *Evaluator
	defaultEvaluatorErr  error
	defaultEvaluatorOnce sync.Once
)

// DefaultEvaluator returns the evaluator of element.Default(), built on first use.
func DefaultEvaluator() (*Evaluator, error) {
	defaultEvaluatorOnce.Do(func() {
		defaultEvaluator, defaultEvaluatorErr = NewEvaluator(element.Default())
	})
	return defaultEvaluator, defaultEvaluatorErr
}

func NewEvaluator(c *element.Catalog) (ev *Evaluator, err error) {
	ev = &Evaluator{
		Catalog: c,
		bases:   make(map[layoutKey]*basis),
	}
	for _, ct := range c.Types() {
		var layouts []element.Layout
		if layouts, err = c.Layouts(ct); err != nil {
			return nil, err
		}
		for _, l := range layouts {
			var b *basis
			if b, err = ev.compile(l); err != nil {
				return nil, fmt.Errorf("compiling %s: %w", l, err)
			}
			ev.bases[layoutKey{ct, l.Name}] = b
		}
	}
	return
}

func (ev *Evaluator) compile(l element.Layout) (b *basis, err error) {
	b = &basis{layout: l}
	switch {
	case l.Collapse != nil:
		var lower element.Layout
		if lower, err = ev.Catalog.Layout(l.Collapse.Type, l.Collapse.Layout); err != nil {
			return
		}
		if b.lower, err = ev.compile(lower); err != nil {
			return
		}
		seen := make(map[int]bool)
		b.first = make([]bool, l.NbRef)
		for i, n := range l.Collapse.NodeMap {
			b.first[i] = !seen[n]
			seen[n] = true
		}
		return
	case l.Type == element.Pyra5 || l.Type == element.Pyra13:
		b.rational = true
		if b.n, err = pyramidNumerators(l); err != nil {
			return
		}
	default:
		if b.n, err = vandermondeBasis(l); err != nil {
			return
		}
	}
	b.dn = make([][]Poly, len(b.n))
	for i, p := range b.n {
		b.dn[i] = make([]Poly, l.Dim)
		for d := range b.dn[i] {
			b.dn[i][d] = p.Deriv(d)
		}
	}
	if b.rational {
		b.d2 = make([][3]Poly, len(b.n))
		for i := range b.n {
			pz := b.dn[i][2]
			b.d2[i] = [3]Poly{pz.Deriv(0), pz.Deriv(1), pz.Deriv(2)}
		}
	}
	return
}

// vandermondeBasis returns the nodal basis of the layout's monomial space:
// N_i = sum_j inv(V)_ji p_j with V_ij = p_j(node_i).
func vandermondeBasis(l element.Layout) (n []Poly, err error) {
	var space []Poly
	if space, err = polySpace(l.Type); err != nil {
		return
	}
	nb := l.NbRef
	if len(space) != nb {
		err = fmt.Errorf("%s has %d nodes for a space of dimension %d", l, nb, len(space))
		return
	}
	V := mat.NewDense(nb, nb, nil)
	for i := 0; i < nb; i++ {
		xi := l.Node(i)
		for j, p := range space {
			V.Set(i, j, p.Eval(xi))
		}
	}
	var (
		lud  *utils.LUDecomp
		Vinv *mat.Dense
	)
	if lud, err = utils.NewLUDecomp(V); err != nil {
		return
	}
	if Vinv, err = lud.Inverse(); err != nil {
		err = fmt.Errorf("nodes of %s are not unisolvent: %w", l, err)
		return
	}
	n = make([]Poly, nb)
	for i := range n {
		for j, p := range space {
			n[i] = n[i].Add(p.Scale(Vinv.At(j, i)))
		}
	}
	return
}

func (b *basis) eval(xi []float64, N []float64, dN *mat.Dense) {
	switch {
	case b.lower != nil:
		var (
			nl  = make([]float64, b.lower.layout.NbRef)
			dnl *mat.Dense
		)
		if dN != nil {
			dnl = mat.NewDense(b.lower.layout.NbRef, b.lower.layout.Dim, nil)
		}
		b.lower.eval(xi, nl, dnl)
		for i, m := range b.layout.Collapse.NodeMap {
			if !b.first[i] {
				N[i] = 0
				if dN != nil {
					for d := 0; d < b.layout.Dim; d++ {
						dN.Set(i, d, 0)
					}
				}
				continue
			}
			N[i] = nl[m]
			if dN != nil {
				for d := 0; d < b.layout.Dim; d++ {
					dN.Set(i, d, dnl.At(m, d))
				}
			}
		}
	case b.rational && isApex(xi):
		apex := []float64{0, 0, 1}
		for i := range b.n {
			N[i] = -b.dn[i][2].Eval(apex)
			if dN != nil {
				dN.Set(i, 0, -b.d2[i][0].Eval(apex))
				dN.Set(i, 1, -b.d2[i][1].Eval(apex))
				dN.Set(i, 2, -0.5*b.d2[i][2].Eval(apex))
			}
		}
	case b.rational:
		s := 1 - xi[2]
		for i, p := range b.n {
			P := p.Eval(xi)
			N[i] = P / s
			if dN != nil {
				dN.Set(i, 0, b.dn[i][0].Eval(xi)/s)
				dN.Set(i, 1, b.dn[i][1].Eval(xi)/s)
				dN.Set(i, 2, (b.dn[i][2].Eval(xi)*s+P)/(s*s))
			}
		}
	default:
		for i, p := range b.n {
			N[i] = p.Eval(xi)
			if dN != nil {
				for d, dp := range b.dn[i] {
					dN.Set(i, d, dp.Eval(xi))
				}
			}
		}
	}
}

func (ev *Evaluator) lookup(ct element.CellType, layout string, xi []float64) (b *basis, err error) {
	var ok bool
	if b, ok = ev.bases[layoutKey{ct, layout}]; !ok {
		// distinguishes an unknown type from an unknown layout name
		if _, err = ev.Catalog.Entry(ct); err == nil {
			err = fmt.Errorf("%w: %s has no layout %q", element.ErrUnsupportedCellType, ct, layout)
		}
		return
	}
	if len(xi) < b.layout.Dim {
		err = fmt.Errorf("%s needs %d reference coordinates, have %d", b.layout, b.layout.Dim, len(xi))
	}
	return
}

// Evaluate returns the shape functions N (one per node) and their derivatives
// dN (nodes x reference dimension) at xi. dN is nil for zero dimensional cells.
func (ev *Evaluator) Evaluate(ct element.CellType, layout string, xi []float64) (N []float64, dN *mat.Dense, err error) {
	var b *basis
	if b, err = ev.lookup(ct, layout, xi); err != nil {
		return
	}
	N = make([]float64, b.layout.NbRef)
	if b.layout.Dim > 0 {
		dN = mat.NewDense(b.layout.NbRef, b.layout.Dim, nil)
	}
	b.eval(xi, N, dN)
	return
}

func (ev *Evaluator) Values(ct element.CellType, layout string, xi []float64) (N []float64, err error) {
	var b *basis
	if b, err = ev.lookup(ct, layout, xi); err != nil {
		return
	}
	N = make([]float64, b.layout.NbRef)
	b.eval(xi, N, nil)
	return
}

func (ev *Evaluator) Derivatives(ct element.CellType, layout string, xi []float64) (dN *mat.Dense, err error) {
	_, dN, err = ev.Evaluate(ct, layout, xi)
	return
}
