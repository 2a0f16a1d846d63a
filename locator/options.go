package locator

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/felocate/element"
	"github.com/notargets/felocate/newton"
	"github.com/notargets/felocate/utils"
)

const (
	DefaultMaxIterations = 50
	DefaultInOutEps      = 1.e-12
)

var ErrBadOption = errors.New("invalid locator option")

// Options configures a Locator.
//
// ProjectionOnSurface: when the volume search fails, project the point on
// the skin of the mesh.
// ProjectionMaxDistance: projections farther than this are discarded.
// Default is +Inf (no limit).
// MaxDistanceStatus: a point whose only projections are beyond
// ProjectionMaxDistance is skipped instead of reported as an error.
// ReferenceCoordinates: the node numbering of a cell type in the mesh, as
// reference coordinates; the catalog default is used for missing types.
type Options struct {
	ProjectionOnSurface   bool
	ProjectionMaxDistance float64
	MaxDistanceStatus     bool
	TolF                  float64 // Newton residual tolerance
	MaxIterations         int     // Newton iterations per seed
	InOutEps              float64 // tolerance of the reference cell test
	ParallelDegree        int     // buckets of LocatePoints
	Verbose               bool
	ReferenceCoordinates  map[element.CellType]element.ReferenceCoords
}

// Option represents a functional option for configuring a Locator.
type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		ProjectionMaxDistance: math.Inf(1),
		TolF:                  newton.DefaultTolF,
		MaxIterations:         DefaultMaxIterations,
		InOutEps:              DefaultInOutEps,
		ParallelDegree:        utils.DefaultParallelDegree(),
	}
}

// WithProjectionOnSurface enables the closest point search on the skin.
func WithProjectionOnSurface(on bool) Option {
	return func(o *Options) { o.ProjectionOnSurface = on }
}

// WithProjectionMaxDistance bounds the distance of an accepted projection.
func WithProjectionMaxDistance(d float64) Option {
	return func(o *Options) { o.ProjectionMaxDistance = d }
}

// WithMaxDistanceStatus skips, rather than fails, points that only project
// beyond the maximum distance.
func WithMaxDistanceStatus(skip bool) Option {
	return func(o *Options) { o.MaxDistanceStatus = skip }
}

func WithTolerance(tolF float64) Option {
	return func(o *Options) { o.TolF = tolF }
}

func WithMaxIterations(n int) Option {
	return func(o *Options) { o.MaxIterations = n }
}

func WithInOutEpsilon(eps float64) Option {
	return func(o *Options) { o.InOutEps = eps }
}

func WithParallelDegree(n int) Option {
	return func(o *Options) { o.ParallelDegree = n }
}

func WithVerbose(v bool) Option {
	return func(o *Options) { o.Verbose = v }
}

// WithReferenceCoordinates declares the node numbering the mesh uses for ct.
func WithReferenceCoordinates(ct element.CellType, rc element.ReferenceCoords) Option {
	return func(o *Options) {
		if o.ReferenceCoordinates == nil {
			o.ReferenceCoordinates = make(map[element.CellType]element.ReferenceCoords)
		}
		o.ReferenceCoordinates[ct] = rc
	}
}

func (o Options) validate() (err error) {
	switch {
	case math.IsNaN(o.ProjectionMaxDistance) || o.ProjectionMaxDistance < 0:
		err = fmt.Errorf("%w: projection max distance %g", ErrBadOption, o.ProjectionMaxDistance)
	case !(o.TolF > 0):
		err = fmt.Errorf("%w: tolerance %g", ErrBadOption, o.TolF)
	case o.MaxIterations < 1:
		err = fmt.Errorf("%w: %d Newton iterations", ErrBadOption, o.MaxIterations)
	case !(o.InOutEps >= 0):
		err = fmt.Errorf("%w: in/out epsilon %g", ErrBadOption, o.InOutEps)
	}
	return
}
