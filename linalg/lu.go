package linalg

import "math"

const pivotEpsilon = 1e-12

// LU is a reusable LU decomposition with partial pivoting.
type LU struct {
	n    int
	lu   []float64
	perm []int
	sign float64
	y    []float64
}

// Decompose factors a into P*A = L*U. a is left untouched.
func (s *LU) Decompose(a *Matrix) error {
	n := a.n
	if cap(s.lu) < n*n {
		s.lu = make([]float64, n*n)
		s.perm = make([]int, n)
		s.y = make([]float64, n)
	}
	s.n = n
	s.lu = s.lu[:n*n]
	s.perm = s.perm[:n]
	s.y = s.y[:n]
	copy(s.lu, a.data)
	s.sign = 1

	for i := range s.perm {
		s.perm[i] = i
	}

	for k := 0; k < n; k++ {
		// Partial pivoting on the largest magnitude in column k
		p := k
		maxVal := math.Abs(s.lu[k*n+k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(s.lu[i*n+k]); v > maxVal {
				maxVal = v
				p = i
			}
		}
		if maxVal < pivotEpsilon {
			return ErrSingular
		}
		if p != k {
			for j := 0; j < n; j++ {
				s.lu[k*n+j], s.lu[p*n+j] = s.lu[p*n+j], s.lu[k*n+j]
			}
			s.perm[k], s.perm[p] = s.perm[p], s.perm[k]
			s.sign = -s.sign
		}

		pivot := s.lu[k*n+k]
		for i := k + 1; i < n; i++ {
			f := s.lu[i*n+k] / pivot
			s.lu[i*n+k] = f
			for j := k + 1; j < n; j++ {
				s.lu[i*n+j] -= f * s.lu[k*n+j]
			}
		}
	}

	return nil
}

// Det returns the determinant of the last decomposed matrix.
func (s *LU) Det() float64 {
	det := s.sign
	for i := 0; i < s.n; i++ {
		det *= s.lu[i*s.n+i]
	}

	return det
}

// Solve writes the solution of A*x=b into x, using the last decomposition.
func (s *LU) Solve(b, x []float64) {
	n := s.n

	// Forward substitution, L has a unit diagonal
	for i := 0; i < n; i++ {
		sum := b[s.perm[i]]
		for j := 0; j < i; j++ {
			sum -= s.lu[i*n+j] * s.y[j]
		}
		s.y[i] = sum
	}

	// Back substitution
	for i := n - 1; i >= 0; i-- {
		sum := s.y[i]
		for j := i + 1; j < n; j++ {
			sum -= s.lu[i*n+j] * x[j]
		}
		x[i] = sum / s.lu[i*n+i]
	}
}
