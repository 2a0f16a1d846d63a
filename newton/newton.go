package newton

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/felocate/utils"
)

var (
	ErrMaxIterationsExceeded = errors.New("maximum Newton iterations exceeded")
	ErrSingularJacobian      = fmt.Errorf("singular jacobian: %w", utils.ErrSingularMatrix)
	ErrNonFinite             = errors.New("residual is not finite")
	ErrStalled               = errors.New("line search made no progress")
)

type State uint8

const (
	Init State = iota
	Iterating
	Converged
	ConvergedToLocalMinimum
	Failed
)

func (s State) String() string {
	return [...]string{"Init", "Iterating", "Converged", "ConvergedToLocalMinimum", "Failed"}[s]
}

// Residual fills f with F(x); f has the length of x. An error ends the solve.
type Residual func(x, f []float64) error

// Jacobian fills J with dF_i/dx_j at x, f = F(x).
type Jacobian func(x, f []float64, J *mat.Dense) error

const (
	DefaultTolF          = 1.e-8
	DefaultTolMin        = 1.e-12
	DefaultMaxIterations = 200
	// relative step of the forward difference Jacobian
	fdEps = 1.e-8
	// the step is scaled down to stpMax * max(|x0|, n)
	stpMax = 100.
)

// Solver finds a root of a square nonlinear system by Newton iteration with
// a line search along the Newton direction.
type Solver struct {
	TolF          float64 // max |F| at a root
	TolMin        float64 // gradient test for a spurious minimum of |F|^2
	TolX          float64 // relative step below which the iteration stops
	MaxIterations int
	Jacobian      Jacobian // nil selects forward differences
	Verbose       bool
}

type Option func(*Solver)

func WithTolerance(tolF float64) Option { return func(s *Solver) { s.TolF = tolF } }

func WithMaxIterations(n int) Option { return func(s *Solver) { s.MaxIterations = n } }

func WithJacobian(j Jacobian) Option { return func(s *Solver) { s.Jacobian = j } }

func WithVerbose(v bool) Option { return func(s *Solver) { s.Verbose = v } }

func NewSolver(opts ...Option) (s *Solver) {
	s = &Solver{
		TolF:          DefaultTolF,
		TolMin:        DefaultTolMin,
		TolX:          utils.MachineEpsilon,
		MaxIterations: DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return
}

type Result struct {
	X          []float64
	State      State
	Iterations int
	FNorm      float64 // max |F| at X
}

// Converged is true only for a root; a local minimum of |F| is not one.
func (r Result) Converged() bool { return r.State == Converged }

// work holds the scratch of one solve.
type work struct {
	residual Residual
	n        int
	f, xt    []float64
	fWork    []float64
	err      error // first residual failure of a line search
}

// phi is 0.5*|F(x)|^2, leaving F(x) in w.fWork.
func (w *work) phi(x []float64) (float64, error) {
	if err := w.residual(x, w.fWork); err != nil {
		return math.NaN(), err
	}
	return 0.5 * floats.Dot(w.fWork, w.fWork), nil
}

func (w *work) fdJacobian(x, f []float64, J *mat.Dense) error {
	copy(w.xt, x)
	for j := 0; j < w.n; j++ {
		tmp := w.xt[j]
		h := fdEps * math.Abs(tmp)
		if h == 0 {
			h = fdEps
		}
		w.xt[j] = tmp + h
		h = w.xt[j] - tmp
		err := w.residual(w.xt, w.fWork)
		w.xt[j] = tmp
		if err != nil {
			return err
		}
		for i := 0; i < w.n; i++ {
			J.Set(i, j, (w.fWork[i]-f[i])/h)
		}
	}
	return nil
}

// Solve iterates from x0, which is not modified. A non-nil error comes with
// State Failed; ConvergedToLocalMinimum is returned without error and must be
// treated as a failure to find a root.
func (s *Solver) Solve(x0 []float64, residual Residual) (res Result, err error) {
	var (
		n = len(x0)
		w = &work{
			residual: residual,
			n:        n,
			f:        make([]float64, n),
			xt:       make([]float64, n),
			fWork:    make([]float64, n),
		}
		x    = append([]float64(nil), x0...)
		xOld = make([]float64, n)
		g    = mat.NewVecDense(n, nil)
		fv   = mat.NewVecDense(n, w.f)
		p    = make([]float64, n)
		J    = mat.NewDense(n, n, nil)
		jac  = s.Jacobian
	)
	if jac == nil {
		jac = w.fdJacobian
	}
	res = Result{X: x, State: Init}
	fail := func(e error) (Result, error) {
		res.State = Failed
		return res, e
	}
	f, err := w.phi(x)
	if err != nil {
		return fail(err)
	}
	copy(w.f, w.fWork)
	if !utils.IsFinite(w.f) {
		return fail(ErrNonFinite)
	}
	res.FNorm = utils.MaxAbs(w.f)
	if res.FNorm < 0.01*s.TolF {
		res.State = Converged
		return
	}
	stepMax := stpMax * math.Max(floats.Norm(x, 2), float64(n))
	res.State = Iterating
	for res.Iterations = 1; res.Iterations <= s.MaxIterations; res.Iterations++ {
		if err = jac(x, w.f, J); err != nil {
			return fail(err)
		}
		if !utils.IsFinite(J) {
			return fail(ErrNonFinite)
		}
		// gradient of phi
		g.MulVec(J.T(), fv)
		copy(xOld, x)
		fOld := f
		for i := range p {
			p[i] = -w.f[i]
		}
		lud, e := utils.NewLUDecomp(J)
		if e == nil && lud.Singular() {
			e = utils.ErrSingularMatrix
		}
		if e != nil {
			return fail(fmt.Errorf("%w: %v", ErrSingularJacobian, e))
		}
		if p, e = lud.Solve(p); e != nil {
			return fail(ErrSingularJacobian)
		}
		if norm := floats.Norm(p, 2); norm > stepMax {
			floats.Scale(stepMax/norm, p)
		}
		rho, check := w.lineSearch(xOld, fOld, g.RawVector().Data, p)
		if w.err != nil {
			return fail(w.err)
		}
		floats.AddScaledTo(x, xOld, rho, p)
		if f, err = w.phi(x); err != nil {
			return fail(err)
		}
		copy(w.f, w.fWork)
		if !utils.IsFinite(w.f) {
			return fail(ErrNonFinite)
		}
		res.FNorm = utils.MaxAbs(w.f)
		if s.Verbose {
			fmt.Printf("newton %3d: max|F| = %8.3e, rho = %8.3e\n", res.Iterations, res.FNorm, rho)
		}
		if res.FNorm < s.TolF {
			res.State = Converged
			return
		}
		if check {
			den := math.Max(f, 0.5*float64(n))
			var test float64
			for i := 0; i < n; i++ {
				test = math.Max(test, math.Abs(g.AtVec(i))*math.Max(math.Abs(x[i]), 1)/den)
			}
			if test < s.TolMin {
				res.State = ConvergedToLocalMinimum
				return
			}
			// the iterate did not move, another pass would repeat this one
			return fail(ErrStalled)
		}
		var test float64
		for i := range x {
			test = math.Max(test, math.Abs(x[i]-xOld[i])/math.Max(math.Abs(x[i]), 1))
		}
		if test < s.TolX {
			res.State = ConvergedToLocalMinimum
			return
		}
	}
	res.Iterations = s.MaxIterations
	return fail(ErrMaxIterationsExceeded)
}
