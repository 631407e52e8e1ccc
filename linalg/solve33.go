package linalg

import "math"

// DeterminantThreshold is the smallest determinant magnitude accepted by the
// direct 3x3 solve.
const DeterminantThreshold = 1e-6

// Solve33 solves a 3x3 system by Cramer's rule.
func Solve33(a [3][3]float64, b [3]float64) ([3]float64, error) {
	det := det33(a)
	if math.Abs(det) < DeterminantThreshold {
		return [3]float64{}, ErrSingular
	}

	var x [3]float64
	for c := 0; c < 3; c++ {
		m := a
		for r := 0; r < 3; r++ {
			m[r][c] = b[r]
		}
		x[c] = det33(m) / det
	}

	return x, nil
}

func det33(a [3][3]float64) float64 {
	return a[0][0]*(a[1][1]*a[2][2]-a[1][2]*a[2][1]) -
		a[0][1]*(a[1][0]*a[2][2]-a[1][2]*a[2][0]) +
		a[0][2]*(a[1][0]*a[2][1]-a[1][1]*a[2][0])
}
