package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the AABB
func (a AABB) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= a.Min.X() && point.X() <= a.Max.X() &&
		point.Y() >= a.Min.Y() && point.Y() <= a.Max.Y() &&
		point.Z() >= a.Min.Z() && point.Z() <= a.Max.Z()
}

// Overlaps checks if two AABBs overlap
func (a AABB) Overlaps(other AABB) bool {
	// AABBs overlap if they overlap on all three axes
	return a.Max.X() >= other.Min.X() && a.Min.X() <= other.Max.X() &&
		a.Max.Y() >= other.Min.Y() && a.Min.Y() <= other.Max.Y() &&
		a.Max.Z() >= other.Min.Z() && a.Min.Z() <= other.Max.Z()
}

// RayIntersects tells if the segment origin + t*direction, t in [0, maxDistance],
// crosses the AABB.
func (a AABB) RayIntersects(origin, direction mgl64.Vec3, maxDistance float64) bool {
	tMin := 0.0
	tMax := maxDistance

	for i := 0; i < 3; i++ {
		if math.Abs(direction[i]) < 1e-12 {
			if origin[i] < a.Min[i] || origin[i] > a.Max[i] {
				return false
			}
			continue
		}

		inv := 1.0 / direction[i]
		t1 := (a.Min[i] - origin[i]) * inv
		t2 := (a.Max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return false
		}
	}

	return true
}

// RayBounds returns the AABB enclosing a ray segment.
func RayBounds(origin, direction mgl64.Vec3, maxDistance float64) AABB {
	end := origin.Add(direction.Mul(maxDistance))
	return AABB{
		Min: mgl64.Vec3{math.Min(origin[0], end[0]), math.Min(origin[1], end[1]), math.Min(origin[2], end[2])},
		Max: mgl64.Vec3{math.Max(origin[0], end[0]), math.Max(origin[1], end[1]), math.Max(origin[2], end[2])},
	}
}
