package shape

import (
	"errors"
	"fmt"

	"github.com/notargets/felocate/element"
	"github.com/notargets/felocate/utils"
)

var ErrNoRecognizedNodeOrdering = errors.New("no recognized node ordering")

// ResolveLayout finds the catalog layout of ct whose nodes match rc, trying
// the layouts in priority order. Coordinates match to within utils.REFTOL.
func (ev *Evaluator) ResolveLayout(ct element.CellType, rc element.ReferenceCoords) (l element.Layout, err error) {
	var layouts []element.Layout
	if layouts, err = ev.Catalog.Layouts(ct); err != nil {
		return
	}
	for _, l = range layouts {
		if isSatisfy(l.ReferenceCoords, rc) {
			return
		}
	}
	err = fmt.Errorf("%w for %s with %d nodes in dimension %d",
		ErrNoRecognizedNodeOrdering, ct, rc.NbRef, rc.Dim)
	return element.Layout{}, err
}

func isSatisfy(ref, given element.ReferenceCoords) bool {
	if ref.NbRef != given.NbRef || ref.Dim != given.Dim || len(given.Coords) != len(ref.Coords) {
		return false
	}
	for i, v := range ref.Coords {
		if !utils.IsEqual(v, given.Coords[i]) {
			return false
		}
	}
	return true
}
