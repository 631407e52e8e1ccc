// Package linalg holds the small dense solvers used by the drivetrain:
// LU decomposition with partial pivoting, a bounded Gauss-Seidel pass and a
// direct 3x3 solve for the tank normal equations.
package linalg

import (
	"errors"
	"math"
)

var ErrSingular = errors.New("linalg: singular matrix")

// Matrix is a dense, row-major, square matrix.
// The backing storage is reused across Resize calls so that a vehicle can keep
// a single Matrix for its whole lifetime.
type Matrix struct {
	n    int
	data []float64
}

func NewMatrix(n int) *Matrix {
	m := &Matrix{}
	m.Resize(n)

	return m
}

// Resize sets the size to n and zeroes every entry.
func (m *Matrix) Resize(n int) {
	if cap(m.data) < n*n {
		m.data = make([]float64, n*n)
	}
	m.data = m.data[:n*n]
	m.n = n
	clear(m.data)
}

func (m *Matrix) Size() int {
	return m.n
}

func (m *Matrix) At(i, j int) float64 {
	return m.data[i*m.n+j]
}

func (m *Matrix) Set(i, j int, v float64) {
	m.data[i*m.n+j] = v
}

// Mul computes dst = m*x.
func (m *Matrix) Mul(x, dst []float64) {
	for i := 0; i < m.n; i++ {
		sum := 0.0
		row := m.data[i*m.n : (i+1)*m.n]
		for j, a := range row {
			sum += a * x[j]
		}
		dst[i] = sum
	}
}

// Residual returns the relative residual sqrt(|A*x-b|² / (|b|² + 1e-5)).
func Residual(a *Matrix, b, x []float64) float64 {
	rLength := 0.0
	bLength := 0.0
	for i := 0; i < a.n; i++ {
		r := -b[i]
		for j := 0; j < a.n; j++ {
			r += a.At(i, j) * x[j]
		}
		rLength += r * r
		bLength += b[i] * b[i]
	}

	return math.Sqrt(rLength / (bLength + 1e-5))
}

// IsValid reports whether x solves A*x=b to within the residual tolerance.
func IsValid(a *Matrix, b, x []float64) bool {
	return Residual(a, b, x) < 1e-5
}
