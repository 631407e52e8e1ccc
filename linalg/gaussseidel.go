package linalg

import "math"

// GaussSeidel refines x in place towards the solution of A*x=b.
// x must hold the initial guess. Iteration stops after maxIterations passes or
// once the largest update of a pass drops below tolerance. The number of
// passes performed is returned.
func GaussSeidel(a *Matrix, b, x []float64, maxIterations int, tolerance float64) int {
	n := a.n
	iteration := 0
	for iteration < maxIterations {
		iteration++
		maxDelta := 0.0
		for i := 0; i < n; i++ {
			diag := a.At(i, i)
			if diag == 0 {
				continue
			}
			sum := b[i]
			for j := 0; j < n; j++ {
				if j != i {
					sum -= a.At(i, j) * x[j]
				}
			}
			next := sum / diag
			maxDelta = math.Max(maxDelta, math.Abs(next-x[i]))
			x[i] = next
		}
		if maxDelta < tolerance {
			break
		}
	}

	return iteration
}
