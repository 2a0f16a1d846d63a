package element

import (
	"fmt"
	"strings"
)

// CellType tags the geometric type of a mesh cell
type CellType uint8

const (
	Point1 CellType = iota
	Seg2
	Seg3
	Seg4
	Tri3
	Tri6
	Tri7
	Quad4
	Quad8
	Quad9
	Tetra4
	Tetra10
	Pyra5
	Pyra13
	Penta6
	Penta15
	Penta18
	Hexa8
	Hexa20
	Hexa27
	Polygon    // known to meshes, no reference element
	Polyhedron // known to meshes, no reference element
	numCellTypes
)

var cellTypeNames = [...]string{
	"POINT1", "SEG2", "SEG3", "SEG4", "TRI3", "TRI6", "TRI7", "QUAD4", "QUAD8", "QUAD9",
	"TETRA4", "TETRA10", "PYRA5", "PYRA13", "PENTA6", "PENTA15", "PENTA18",
	"HEXA8", "HEXA20", "HEXA27", "POLYGON", "POLYHED",
}

func (ct CellType) String() string {
	if ct >= numCellTypes {
		return fmt.Sprintf("CellType(%d)", uint8(ct))
	}
	return cellTypeNames[ct]
}

// ParseCellType is the inverse of String, case insensitive.
func ParseCellType(name string) (ct CellType, err error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range cellTypeNames {
		if n == upper {
			ct = CellType(i)
			return
		}
	}
	err = fmt.Errorf("%w: %q", ErrUnsupportedCellType, name)
	return
}

// MarshalText and UnmarshalText let case files and results carry the type name.
func (ct CellType) MarshalText() ([]byte, error) { return []byte(ct.String()), nil }

func (ct *CellType) UnmarshalText(text []byte) (err error) {
	*ct, err = ParseCellType(string(text))
	return
}
