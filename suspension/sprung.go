package suspension

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/traction/linalg"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNoSprungMass         = errors.New("suspension: at least one sprung mass coordinate is required")
	ErrNonPositiveMass      = errors.New("suspension: total mass must be positive")
	ErrGravityAxis          = errors.New("suspension: gravity axis must be 0, 1 or 2")
	ErrDegenerateSprungMass = errors.New("suspension: unable to determine sprung masses from the coordinates")
)

// ComputeSprungMasses splits totalMass over the given points (chassis frame)
// so that their centre of mass matches centreOfMass in the horizontal plane.
// gravityAxis is the index of the axis aligned with gravity.
// From four points onwards the split with the least variance is chosen.
func ComputeSprungMasses(coords []mgl64.Vec3, centreOfMass mgl64.Vec3, totalMass float64, gravityAxis int) ([]float64, error) {
	n := len(coords)
	switch {
	case n == 0:
		return nil, ErrNoSprungMass
	case totalMass <= 0:
		return nil, ErrNonPositiveMass
	case gravityAxis < 0 || gravityAxis > 2:
		return nil, ErrGravityAxis
	}

	masses := make([]float64, n)
	d0 := (gravityAxis + 1) % 3
	d1 := (gravityAxis + 2) % 3

	switch {
	case n == 1:
		masses[0] = totalMass

	case n == 2:
		flatten := func(v mgl64.Vec3) mgl64.Vec3 {
			v[gravityAxis] = 0
			return v
		}
		x0 := flatten(coords[0])
		x1 := flatten(coords[1])
		w := x1.Sub(x0)
		if w.Len() <= linalg.DeterminantThreshold {
			return nil, ErrDegenerateSprungMass
		}
		w = w.Normalize()

		p := x0.Add(w.Mul(w.Dot(flatten(centreOfMass).Sub(x0))))
		r0 := x0.Sub(p).Dot(w)
		r1 := x1.Sub(p).Dot(w)
		if math.Abs(r0-r1) <= linalg.DeterminantThreshold {
			return nil, ErrDegenerateSprungMass
		}

		masses[0] = totalMass * r1 / (r1 - r0)
		masses[1] = totalMass - masses[0]

	case n == 3:
		a := [3][3]float64{
			{coords[0][d0], coords[1][d0], coords[2][d0]},
			{coords[0][d1], coords[1][d1], coords[2][d1]},
			{1, 1, 1},
		}
		b := [3]float64{totalMass * centreOfMass[d0], totalMass * centreOfMass[d1], totalMass}

		x, err := linalg.Solve33(a, b)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDegenerateSprungMass, err)
		}
		copy(masses, x[:])

	default:
		// Lagrange multipliers: minimise sum (mi - mbar)² under the three
		// centre of mass and total mass constraints.
		size := n + 3
		a := linalg.NewMatrix(size)
		b := make([]float64, size)
		mbar := totalMass / float64(n)

		for i, c := range coords {
			a.Set(0, i, c[d0])
			a.Set(1, i, c[d1])
			a.Set(2, i, 1)

			a.Set(i+3, i, 2)
			a.Set(i+3, n, c[d0])
			a.Set(i+3, n+1, c[d1])
			a.Set(i+3, n+2, 1)
			b[i+3] = 2 * mbar
		}
		b[0] = totalMass * centreOfMass[d0]
		b[1] = totalMass * centreOfMass[d1]
		b[2] = totalMass

		var lu linalg.LU
		if err := lu.Decompose(a); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDegenerateSprungMass, err)
		}
		if math.Abs(lu.Det()) <= linalg.DeterminantThreshold {
			return nil, ErrDegenerateSprungMass
		}
		x := make([]float64, size)
		lu.Solve(b, x)
		copy(masses, x[:n])
	}

	return masses, nil
}
