package InputParameters

import (
	"fmt"
	"math"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/felocate/element"
	"github.com/notargets/felocate/locator"
	"github.com/notargets/felocate/mesh"
)

type Cell struct {
	Type  element.CellType `json:"Type"`
	Nodes []int            `json:"Nodes"`
}

// Field is a nodal field, Components values per node, interleaved.
type Field struct {
	Components int       `json:"Components"`
	Values     []float64 `json:"Values"`
}

type Options struct {
	ProjectionOnSurface   bool     `json:"ProjectionOnSurface"`
	ProjectionMaxDistance *float64 `json:"ProjectionMaxDistance,omitempty"` // unset is no limit
	MaxDistanceStatus     bool     `json:"MaxDistanceStatus"`
	Tolerance             float64  `json:"Tolerance,omitempty"`
	MaxIterations         int      `json:"MaxIterations,omitempty"`
	InOutEpsilon          float64  `json:"InOutEpsilon,omitempty"`
	// Node numbering per cell type name, as flat reference coordinates
	ReferenceCoordinates map[string][]float64 `json:"ReferenceCoordinates,omitempty"`
}

// Parameters obtained from the YAML case file
type CaseParameters struct {
	Title          string      `json:"Title"`
	SpaceDimension int         `json:"SpaceDimension"`
	Nodes          [][]float64 `json:"Nodes"`
	Cells          []Cell      `json:"Cells"`
	Points         [][]float64 `json:"Points"`
	Field          *Field      `json:"Field,omitempty"`
	Options        Options     `json:"Options"`
}

func (cp *CaseParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, cp)
}

func (cp *CaseParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("[%d]\t\t\t= Space Dimension\n", cp.SpaceDimension)
	fmt.Printf("[%d]\t\t\t= Nodes\n", len(cp.Nodes))
	counts := make(map[element.CellType]int)
	for _, c := range cp.Cells {
		counts[c.Type]++
	}
	types := make([]element.CellType, 0, len(counts))
	for ct := range counts {
		types = append(types, ct)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	for _, ct := range types {
		fmt.Printf("Cells[%s] = %d\n", ct, counts[ct])
	}
	fmt.Printf("[%d]\t\t\t= Points\n", len(cp.Points))
	if cp.Field != nil {
		fmt.Printf("[%d]\t\t\t= Field Components\n", cp.Field.Components)
	}
	o := cp.Options
	fmt.Printf("[%v]\t\t\t= Projection On Surface\n", o.ProjectionOnSurface)
	if o.ProjectionMaxDistance != nil {
		fmt.Printf("%8.5f\t\t= Projection Max Distance\n", *o.ProjectionMaxDistance)
	}
	fmt.Printf("[%v]\t\t\t= Max Distance Status\n", o.MaxDistanceStatus)
	keys := make([]string, 0, len(o.ReferenceCoordinates))
	for k := range o.ReferenceCoordinates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("ReferenceCoordinates[%s] = %v\n", key, o.ReferenceCoordinates[key])
	}
}

// Mesh builds the mesh of the case.
func (cp *CaseParameters) Mesh() (m *mesh.UMesh, err error) {
	coords := make([]float64, 0, len(cp.Nodes)*cp.SpaceDimension)
	for i, x := range cp.Nodes {
		if len(x) != cp.SpaceDimension {
			err = fmt.Errorf("node %d has %d coordinates in space dimension %d", i, len(x), cp.SpaceDimension)
			return
		}
		coords = append(coords, x...)
	}
	if m, err = mesh.NewUMesh(cp.SpaceDimension, coords); err != nil {
		return
	}
	for i, c := range cp.Cells {
		if _, err = m.AddCell(c.Type, c.Nodes); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
	}
	return
}

// LocatorOptions converts the case options, the parallel degree and the
// verbosity come from the command line.
func (cp *CaseParameters) LocatorOptions(parallel int, verbose bool) (opts []locator.Option, err error) {
	o := cp.Options
	opts = append(opts,
		locator.WithProjectionOnSurface(o.ProjectionOnSurface),
		locator.WithMaxDistanceStatus(o.MaxDistanceStatus),
		locator.WithVerbose(verbose),
	)
	maxDistance := math.Inf(1)
	if o.ProjectionMaxDistance != nil {
		maxDistance = *o.ProjectionMaxDistance
	}
	opts = append(opts, locator.WithProjectionMaxDistance(maxDistance))
	if o.Tolerance != 0 {
		opts = append(opts, locator.WithTolerance(o.Tolerance))
	}
	if o.MaxIterations != 0 {
		opts = append(opts, locator.WithMaxIterations(o.MaxIterations))
	}
	if o.InOutEpsilon != 0 {
		opts = append(opts, locator.WithInOutEpsilon(o.InOutEpsilon))
	}
	if parallel > 0 {
		opts = append(opts, locator.WithParallelDegree(parallel))
	}
	for name, coords := range o.ReferenceCoordinates {
		var (
			ct  element.CellType
			dim int
		)
		if ct, err = element.ParseCellType(name); err != nil {
			return nil, err
		}
		if dim, err = element.Default().Dimension(ct); err != nil {
			return nil, err
		}
		if dim == 0 || len(coords)%dim != 0 {
			return nil, fmt.Errorf("%d reference coordinates for %s of dimension %d", len(coords), ct, dim)
		}
		opts = append(opts, locator.WithReferenceCoordinates(ct, element.ReferenceCoords{
			Dim: dim, NbRef: len(coords) / dim, Coords: coords,
		}))
	}
	return
}
