package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// RealSystem is a sparse real linear system A·x = b used for the
// Newton-Raphson Jacobian solve. Indices are 0-based on the API and mapped
// to the solver's 1-based layout internally.
type RealSystem struct {
	Size   int
	matrix *sparse.Matrix
	rhs    []float64
}

// NewRealSystem returns an empty n×n system.
func NewRealSystem(n int) (*RealSystem, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
	}
	mat, err := sparse.Create(int64(n), config)
	if err != nil {
		return nil, fmt.Errorf("creating real system: %v", err)
	}
	return &RealSystem{
		Size:   n,
		matrix: mat,
		rhs:    make([]float64, n+1),
	}, nil
}

// Add accumulates v into A(i, j).
func (s *RealSystem) Add(i, j int, v float64) {
	if v == 0 {
		return
	}
	s.matrix.GetElement(int64(i+1), int64(j+1)).Real += v
}

// SetRHS overwrites b(i).
func (s *RealSystem) SetRHS(i int, v float64) {
	s.rhs[i+1] = v
}

// Solve factors the system and returns x with 0-based indexing.
func (s *RealSystem) Solve() ([]float64, error) {
	err := s.matrix.Factor()
	if err != nil {
		return nil, fmt.Errorf("matrix factorization failed: %v", err)
	}
	sol, err := s.matrix.Solve(s.rhs)
	if err != nil {
		return nil, fmt.Errorf("matrix solve failed: %v", err)
	}
	out := make([]float64, s.Size)
	copy(out, sol[1:s.Size+1])
	return out, nil
}

// Destroy releases the underlying sparse storage.
func (s *RealSystem) Destroy() {
	if s.matrix != nil {
		s.matrix.Destroy()
	}
}
