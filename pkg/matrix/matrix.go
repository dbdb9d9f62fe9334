package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// Complex is a dense N×N complex matrix with 0-based indexing. It is the
// carrier type for the nodal admittance matrix and its inverse.
type Complex struct {
	Size int
	data []complex128
}

// NewComplex returns an all-zero n×n matrix.
func NewComplex(n int) *Complex {
	return &Complex{Size: n, data: make([]complex128, n*n)}
}

// At returns element (i, j).
func (m *Complex) At(i, j int) complex128 { return m.data[i*m.Size+j] }

// Set overwrites element (i, j).
func (m *Complex) Set(i, j int, v complex128) { m.data[i*m.Size+j] = v }

// Add accumulates v into element (i, j).
func (m *Complex) Add(i, j int, v complex128) { m.data[i*m.Size+j] += v }

// Clone returns an independent copy.
func (m *Complex) Clone() *Complex {
	c := NewComplex(m.Size)
	copy(c.data, m.data)
	return c
}

// Equal reports element-wise equality with o.
func (m *Complex) Equal(o *Complex) bool {
	if o == nil || m.Size != o.Size {
		return false
	}
	for i, v := range m.data {
		if o.data[i] != v {
			return false
		}
	}
	return true
}

// MulVec returns m·x.
func (m *Complex) MulVec(x []complex128) []complex128 {
	out := make([]complex128, m.Size)
	for i := 0; i < m.Size; i++ {
		var sum complex128
		for j := 0; j < m.Size; j++ {
			sum += m.data[i*m.Size+j] * x[j]
		}
		out[i] = sum
	}
	return out
}

// Invert computes the full inverse by LU-factoring the matrix once and
// back-solving one unit column per row. A factorization or solve failure
// means the matrix is singular.
func (m *Complex) Invert() (*Complex, error) {
	n := m.Size
	if n == 0 {
		return nil, fmt.Errorf("matrix is empty")
	}

	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 true,
		SeparatedComplexVectors: true,
		Expandable:              true,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
	}
	mat, err := sparse.Create(int64(n), config)
	if err != nil {
		return nil, fmt.Errorf("creating factor matrix: %v", err)
	}
	defer mat.Destroy()

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			if v == 0 {
				continue
			}
			el := mat.GetElement(int64(i+1), int64(j+1))
			el.Real += real(v)
			el.Imag += imag(v)
		}
	}

	err = mat.Factor()
	if err != nil {
		return nil, fmt.Errorf("matrix is singular: %v", err)
	}

	inv := NewComplex(n)
	rhs := make([]float64, n+1)
	rhsImag := make([]float64, n+1)
	for col := 0; col < n; col++ {
		rhs[col+1] = 1
		sol, solImag, err := mat.SolveComplex(rhs, rhsImag)
		if err != nil {
			return nil, fmt.Errorf("matrix is singular: %v", err)
		}
		for row := 0; row < n; row++ {
			inv.Set(row, col, complex(sol[row+1], solImag[row+1]))
		}
		rhs[col+1] = 0
	}

	return inv, nil
}
