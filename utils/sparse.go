package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is the assembly format: entries are set in any order, then the matrix
// is compressed with ToCSR for evaluation.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)              { return m.M.Dims() }
func (m DOK) At(i, j int) float64           { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix                 { return m.M.T() }
func (m DOK) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }

func (m DOK) Set(i, j int, val float64) {
	m.checkWritable()
	m.M.Set(i, j, val)
}

// SetRow writes vals into row i at the given columns.
func (m DOK) SetRow(i int, cols []int, vals []float64) {
	if len(cols) != len(vals) {
		panic(fmt.Errorf("length of columns and values are not equal: len(cols) = %v, len(vals) = %v", len(cols), len(vals)))
	}
	for jj, j := range cols {
		m.Set(i, j, vals[jj])
	}
}

func (m *DOK) SetReadOnly(name ...string) {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:    m.M.ToCSR(),
		name: m.name,
	}
}

// CSR is the compressed row format used to apply an assembled matrix.
type CSR struct {
	M    *sparse.CSR
	name string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }

// Row returns the stored column indices and values of row i.
func (m CSR) Row(i int) (cols []int, vals []float64) {
	var (
		raw        = m.RawMatrix()
		start, end = raw.Indptr[i], raw.Indptr[i+1]
	)
	cols = raw.Ind[start:end]
	vals = raw.Data[start:end]
	return
}

// MulVec returns M*x for a dense x of length nc.
func (m CSR) MulVec(x []float64) (y []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(x) != nc {
		panic(fmt.Errorf("vector length %d does not match %d columns of %s", len(x), nc, m.name))
	}
	y = make([]float64, nr)
	for i := 0; i < nr; i++ {
		cols, vals := m.Row(i)
		for jj, j := range cols {
			y[i] += vals[jj] * x[j]
		}
	}
	return
}

// MulStrided applies M to a field of nComp interleaved components per node.
func (m CSR) MulStrided(x []float64, nComp int) (y []float64) {
	var (
		nr, nc = m.Dims()
	)
	if len(x) != nc*nComp {
		panic(fmt.Errorf("field length %d does not match %d nodes x %d components", len(x), nc, nComp))
	}
	y = make([]float64, nr*nComp)
	for i := 0; i < nr; i++ {
		cols, vals := m.Row(i)
		for jj, j := range cols {
			for c := 0; c < nComp; c++ {
				y[i*nComp+c] += vals[jj] * x[j*nComp+c]
			}
		}
	}
	return
}
