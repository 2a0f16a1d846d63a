package locator

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/felocate/element"
	"github.com/notargets/felocate/mesh"
	"github.com/notargets/felocate/newton"
	"github.com/notargets/felocate/shape"
	"github.com/notargets/felocate/utils"
)

type Status uint8

const (
	NotLocated Status = iota
	Inside            // in a cell of the mesh
	Projected         // closest point of a skin cell
	Degraded          // nearest reference boundary point of a skin cell
	Skipped           // projections exist, all beyond the maximum distance
)

func (s Status) String() string {
	return [...]string{"NotLocated", "Inside", "Projected", "Degraded", "Skipped"}[s]
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(text []byte) error {
	for c := NotLocated; c <= Skipped; c++ {
		if c.String() == string(text) {
			*s = c
			return nil
		}
	}
	return fmt.Errorf("unknown location status %q", text)
}

// Location is the answer for one target point. For an Inside point Type,
// Layout and RefCoords describe cell CellID. For a projection they describe
// skin cell SkinCellID, whose parent is CellID.
type Location struct {
	Point      []float64
	CellID     int
	SkinCellID int
	Type       element.CellType
	Layout     string
	RefCoords  []float64
	Status     Status
	Distance   float64 // from Point to the located position
}

// Located is true when the location carries reference coordinates.
func (l Location) Located() bool {
	return l.Status == Inside || l.Status == Projected || l.Status == Degraded
}

// Locator finds the cell and the reference coordinates of target points in
// a mesh. It is read-only once built and safe for concurrent queries.
type Locator struct {
	Options
	Mesh    mesh.Mesh
	ev      *shape.Evaluator
	catalog *element.Catalog
	layouts map[element.CellType]element.Layout
	index   *mesh.BBoxIndex

	skin        *mesh.Skin
	skinLayouts map[element.CellType]element.Layout
	skinIndex   *mesh.BBoxIndex
}

func New(m mesh.Mesh, opts ...Option) (lc *Locator, err error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err = o.validate(); err != nil {
		return
	}
	if m.NumberOfCells() == 0 {
		err = fmt.Errorf("%w: no cells", ErrUnsupportedMesh)
		return
	}
	if m.MeshDimension() != m.SpaceDimension() {
		err = fmt.Errorf("%w: mesh dimension %d in space dimension %d",
			ErrUnsupportedMesh, m.MeshDimension(), m.SpaceDimension())
		return
	}
	lc = &Locator{
		Options: o,
		Mesh:    m,
		layouts: make(map[element.CellType]element.Layout),
	}
	if lc.ev, err = shape.DefaultEvaluator(); err != nil {
		return nil, err
	}
	lc.catalog = lc.ev.Catalog
	var overrides []element.Layout
	for _, ct := range m.AllGeometricTypes() {
		rc, ok := o.ReferenceCoordinates[ct]
		if !ok {
			if rc, err = lc.catalog.DefaultReferenceCoordinates(ct); err != nil {
				return nil, err
			}
		}
		var l element.Layout
		if l, err = lc.ev.ResolveLayout(ct, rc); err != nil {
			return nil, err
		}
		lc.layouts[ct] = l
		overrides = append(overrides, l)
	}
	lc.index = mesh.NewBBoxIndex(m, mesh.DefaultBBoxEps)
	if o.ProjectionOnSurface {
		if lc.skin, err = m.ComputeSkin(overrides...); err != nil {
			return nil, err
		}
		lc.skinLayouts = make(map[element.CellType]element.Layout)
		for _, ct := range lc.skin.AllGeometricTypes() {
			if lc.skinLayouts[ct], err = lc.catalog.DefaultLayout(ct); err != nil {
				return nil, err
			}
		}
		lc.skinIndex = mesh.NewBBoxIndex(lc.skin, mesh.DefaultBBoxEps)
	}
	if o.Verbose {
		fmt.Printf("locator: %d cells, %d types", m.NumberOfCells(), len(lc.layouts))
		if lc.skin != nil {
			fmt.Printf(", %d skin cells", lc.skin.NumberOfCells())
		}
		fmt.Printf("\n")
	}
	return
}

// Layout returns the layout the locator reads cells of type ct with.
func (lc *Locator) Layout(ct element.CellType) (l element.Layout, ok bool) {
	l, ok = lc.layouts[ct]
	return
}

// LocatePoint finds the cell containing p or, when projection is enabled,
// the closest point of the skin.
func (lc *Locator) LocatePoint(p []float64) (Location, error) {
	return lc.locate(0, p)
}

func (lc *Locator) locate(i int, p []float64) (loc Location, err error) {
	loc = Location{
		Point:      append([]float64(nil), p...),
		CellID:     -1,
		SkinCellID: -1,
	}
	if len(p) != lc.Mesh.SpaceDimension() {
		err = fmt.Errorf("point #%d has %d coordinates in space dimension %d",
			i, len(p), lc.Mesh.SpaceDimension())
		return
	}
	if !utils.IsFinite(p) {
		err = &PointNotLocatedError{Index: i, Point: loc.Point}
		return
	}
	for _, cell := range lc.index.ElementsAroundPoint(p) {
		l := lc.layouts[lc.Mesh.CellType(cell)]
		if xi, ok := lc.solveInCell(l, cellNodes(lc.Mesh, cell), p); ok {
			loc.CellID = cell
			loc.Type, loc.Layout = l.Type, l.Name
			loc.RefCoords = xi
			loc.Status = Inside
			if lc.Verbose {
				fmt.Printf("point #%d: cell %d %s xi=%v\n", i, cell, l, xi)
			}
			return
		}
	}
	if lc.ProjectionOnSurface {
		return lc.project(i, loc)
	}
	err = &PointNotLocatedError{Index: i, Point: loc.Point}
	return
}

// cellNodes returns the coordinates of the nodes of a cell, one row per node.
func cellNodes(m mesh.Mesh, cell int) (X *mat.Dense) {
	ids := m.NodeIDsOfCell(cell)
	X = mat.NewDense(len(ids), m.SpaceDimension(), nil)
	for k, id := range ids {
		X.SetRow(k, m.NodeCoordinate(id))
	}
	return
}

// seeds are the starting points of the Newton solves in a cell: the
// barycenter of the corners, then every reference node.
func (lc *Locator) seeds(l element.Layout) (s [][]float64) {
	e, _ := lc.catalog.Entry(l.Type)
	bary := make([]float64, l.Dim)
	for k := 0; k < e.NbCorners; k++ {
		for d, v := range l.Node(k) {
			bary[d] += v / float64(e.NbCorners)
		}
	}
	s = append(s, bary)
	for k := 0; k < l.NbRef; k++ {
		s = append(s, l.Node(k))
	}
	return
}

// position returns x = X^T N and, when dN is given, the tangents
// T = dN^T X, one row per reference direction.
func position(N []float64, dN, X *mat.Dense) (x []float64, T *mat.Dense) {
	var xv mat.VecDense
	xv.MulVec(X.T(), mat.NewVecDense(len(N), N))
	x = xv.RawVector().Data
	if dN != nil {
		T = &mat.Dense{}
		T.Mul(dN.T(), X)
	}
	return
}

func (lc *Locator) newtonSolver(jac newton.Jacobian) *newton.Solver {
	return newton.NewSolver(
		newton.WithTolerance(lc.TolF),
		newton.WithMaxIterations(lc.MaxIterations),
		newton.WithJacobian(jac),
		newton.WithVerbose(lc.Verbose),
	)
}

// solveInCell solves X^T N(xi) = p for xi from each seed in turn and
// returns the first root inside the reference cell.
func (lc *Locator) solveInCell(l element.Layout, X *mat.Dense, p []float64) (xi []float64, ok bool) {
	if l.Dim != len(p) {
		// a collapsed cell has no interior
		return
	}
	var (
		ct, name = l.Type, l.Name
		residual = func(xi, f []float64) error {
			N, err := lc.ev.Values(ct, name, xi)
			if err != nil {
				return err
			}
			x, _ := position(N, nil, X)
			floats.SubTo(f, x, p)
			return nil
		}
		jacobian = func(xi, _ []float64, J *mat.Dense) error {
			dN, err := lc.ev.Derivatives(ct, name, xi)
			if err != nil {
				return err
			}
			J.Mul(X.T(), dN)
			return nil
		}
		solver = lc.newtonSolver(jacobian)
	)
	for _, seed := range lc.seeds(l) {
		res, err := solver.Solve(seed, residual)
		if err != nil || !res.Converged() {
			continue
		}
		if l.Domain.Contains(res.X, lc.InOutEps) {
			return res.X, true
		}
	}
	return
}

// candidate is one attempt of the surface search.
type candidate struct {
	cell     int
	xi       []float64
	distance float64
}

func (c candidate) better(o candidate) bool {
	return c.cell >= 0 && (o.cell < 0 || c.distance < o.distance)
}

var noCandidate = candidate{cell: -1, distance: math.Inf(1)}

// project finds the closest point of the skin to loc.Point. Converged
// projections inside their skin cell win over clamped ones.
func (lc *Locator) project(i int, loc Location) (Location, error) {
	var (
		p        = loc.Point
		best     = noCandidate
		degraded = noCandidate
		beyond   bool
	)
	for _, sc := range lc.skinOrder(p) {
		// the nodes of a linear cell bound it, so its box distance is a true
		// lower bound of any projection on it
		if q, _ := lc.catalog.IsQuadratic(lc.skin.CellType(sc)); !q {
			bound := lc.skinIndex.LowerBoundDistance(sc, p)
			if bound > lc.ProjectionMaxDistance {
				beyond = true
				continue
			}
			if bound > best.distance {
				continue
			}
		}
		conv, deg := lc.projectOnCell(sc, p)
		for _, c := range []candidate{conv, deg} {
			if c.cell >= 0 && c.distance > lc.ProjectionMaxDistance {
				beyond = true
			}
		}
		if conv.distance <= lc.ProjectionMaxDistance && conv.better(best) {
			best = conv
		}
		if deg.distance <= lc.ProjectionMaxDistance && deg.better(degraded) {
			degraded = deg
		}
	}
	status := Projected
	if best.cell < 0 {
		best, status = degraded, Degraded
	}
	if best.cell < 0 {
		if beyond && lc.MaxDistanceStatus {
			loc.Status = Skipped
			if lc.Verbose {
				fmt.Printf("point #%d: skipped, no projection within %g\n", i, lc.ProjectionMaxDistance)
			}
			return loc, nil
		}
		return loc, &PointNotLocatedError{Index: i, Point: p}
	}
	l := lc.skinLayouts[lc.skin.CellType(best.cell)]
	loc.SkinCellID = best.cell
	loc.CellID = lc.skin.ParentCell[best.cell]
	loc.Type, loc.Layout = l.Type, l.Name
	loc.RefCoords = best.xi
	loc.Status = status
	loc.Distance = best.distance
	if lc.Verbose {
		fmt.Printf("point #%d: %s on skin cell %d of cell %d, distance %g\n",
			i, status, best.cell, loc.CellID, best.distance)
	}
	return loc, nil
}

// skinOrder lists the skin cells by increasing box distance to p, ties by id.
func (lc *Locator) skinOrder(p []float64) (order []int) {
	n := lc.skin.NumberOfCells()
	order = make([]int, n)
	bounds := make([]float64, n)
	for sc := range order {
		order[sc] = sc
		bounds[sc] = lc.skinIndex.LowerBoundDistance(sc, p)
	}
	sort.SliceStable(order, func(a, b int) bool { return bounds[order[a]] < bounds[order[b]] })
	return
}

// projectOnCell returns the nearest converged projection of p on skin cell
// sc inside its reference cell, and the nearest clamped projection of the
// other attempts. A missing result has cell -1.
func (lc *Locator) projectOnCell(sc int, p []float64) (conv, deg candidate) {
	conv, deg = noCandidate, noCandidate
	var (
		l = lc.skinLayouts[lc.skin.CellType(sc)]
		X = cellNodes(lc.skin, sc)
	)
	if l.Dim == 0 {
		conv = candidate{cell: sc, xi: []float64{}, distance: floats.Distance(X.RawRowView(0), p, 2)}
		return
	}
	var (
		ct, name = l.Type, l.Name
		eval     = func(xi []float64) (x []float64, T *mat.Dense, err error) {
			var (
				N  []float64
				dN *mat.Dense
			)
			if N, dN, err = lc.ev.Evaluate(ct, name, xi); err != nil {
				return
			}
			x, T = position(N, dN, X)
			return
		}
		// the displacement is orthogonal to every tangent at the closest point
		residual = func(xi, f []float64) error {
			x, T, err := eval(xi)
			if err != nil {
				return err
			}
			floats.Sub(x, p)
			var fv mat.VecDense
			fv.MulVec(T, mat.NewVecDense(len(x), x))
			copy(f, fv.RawVector().Data)
			return nil
		}
		jacobian = func(xi, _ []float64, J *mat.Dense) error {
			_, T, err := eval(xi)
			if err != nil {
				return err
			}
			J.Mul(T, T.T())
			return nil
		}
		solver = lc.newtonSolver(jacobian)
	)
	for _, seed := range lc.seeds(l) {
		res, err := solver.Solve(seed, residual)
		if !utils.IsFinite(res.X) {
			continue
		}
		if err == nil && res.Converged() && l.Domain.Contains(res.X, lc.InOutEps) {
			if x, _, e := eval(res.X); e == nil {
				if c := (candidate{cell: sc, xi: res.X, distance: floats.Distance(x, p, 2)}); c.better(conv) {
					conv = c
				}
			}
			continue
		}
		xi := l.Domain.Clamp(res.X)
		if x, _, e := eval(xi); e == nil {
			if c := (candidate{cell: sc, xi: xi, distance: floats.Distance(x, p, 2)}); c.better(deg) {
				deg = c
			}
		}
	}
	return
}

// LocatePoints locates every point, in parallel. The result has one Location
// per point; the error joins the failures of all points.
func (lc *Locator) LocatePoints(points [][]float64) (locs []Location, err error) {
	var (
		pm   = utils.NewPartitionMap(lc.ParallelDegree, len(points))
		errs = make([][]error, pm.ParallelDegree)
	)
	locs = make([]Location, len(points))
	pm.ForEachBucket(func(np, kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			var e error
			if locs[i], e = lc.locate(i, points[i]); e != nil {
				errs[np] = append(errs[np], e)
			}
		}
	})
	var all []error
	for _, e := range errs {
		all = append(all, e...)
	}
	err = errors.Join(all...)
	return
}
