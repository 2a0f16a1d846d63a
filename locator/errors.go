package locator

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPointNotLocated = errors.New("point not located")
	ErrUnsupportedMesh = errors.New("unsupported mesh")
)

// PointNotLocatedError identifies the point no cell and no projection could
// take.
type PointNotLocatedError struct {
	Index int
	Point []float64
}

func (e *PointNotLocatedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fail to locate point #%d", e.Index)
	for d, x := range e.Point {
		fmt.Fprintf(&b, " %c=%g", "XYZ"[d], x)
	}
	return b.String()
}

func (e *PointNotLocatedError) Unwrap() error { return ErrPointNotLocated }
