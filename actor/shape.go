package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
)

// RaycastHit is the first intersection of a ray with a shape.
type RaycastHit struct {
	Distance float64
	Position mgl64.Vec3
	Normal   mgl64.Vec3
}

// ShapeInterface is the interface that all shapes must implement
type ShapeInterface interface {
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// ComputeMass calculates mass data for the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	// Raycast works in the shape's local space. direction must be normalized.
	// Rays starting inside the shape report a hit at distance 0.
	Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool)
}

// Box represents an oriented box shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) ComputeAABB(transform Transform) {
	// World extents of a rotated box: |R| * halfExtents
	r := transform.Rotation.Mat4().Mat3()
	var extents mgl64.Vec3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			extents[i] += math.Abs(r.At(i, j)) * b.HalfExtents[j]
		}
	}

	b.aabb = AABB{
		Min: transform.Position.Sub(extents),
		Max: transform.Position.Add(extents),
	}
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0
	ix := factor * (y*y + z*z)
	iy := factor * (x*x + z*z)
	iz := factor * (x*x + y*y)

	return mgl64.Mat3{
		ix, 0, 0,
		0, iy, 0,
		0, 0, iz,
	}
}

// Raycast uses the slab method.
func (b *Box) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	tMin := 0.0
	tMax := maxDistance
	axis := -1
	sign := 0.0

	for i := 0; i < 3; i++ {
		if math.Abs(direction[i]) < 1e-12 {
			if origin[i] < -b.HalfExtents[i] || origin[i] > b.HalfExtents[i] {
				return RaycastHit{}, false
			}
			continue
		}

		inv := 1.0 / direction[i]
		t1 := (-b.HalfExtents[i] - origin[i]) * inv
		t2 := (b.HalfExtents[i] - origin[i]) * inv
		s := -1.0
		if t1 > t2 {
			t1, t2 = t2, t1
			s = 1.0
		}
		if t1 > tMin {
			tMin = t1
			axis = i
			sign = s
		}
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return RaycastHit{}, false
		}
	}

	hit := RaycastHit{
		Distance: tMin,
		Position: origin.Add(direction.Mul(tMin)),
	}
	if axis >= 0 {
		hit.Normal[axis] = sign
	} else {
		// origin inside the box
		hit.Normal = direction.Mul(-1)
	}

	return hit, true
}

// Sphere represents a spherical shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r²
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

func (s *Sphere) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	// |o + t*d|² = r², with |d| = 1
	b := origin.Dot(direction)
	c := origin.Dot(origin) - s.Radius*s.Radius
	if c <= 0 {
		return RaycastHit{Position: origin, Normal: direction.Mul(-1)}, true
	}

	disc := b*b - c
	if disc < 0 || b > 0 {
		return RaycastHit{}, false
	}

	t := -b - math.Sqrt(disc)
	if t > maxDistance {
		return RaycastHit{}, false
	}

	position := origin.Add(direction.Mul(t))
	return RaycastHit{
		Distance: t,
		Position: position,
		Normal:   position.Normalize(),
	}, true
}

// Plane represents an infinite plane shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
	aabb     AABB
}

func (p *Plane) ComputeAABB(transform Transform) {
	const thickness = 1.0 // how far below the surface the plane is solid
	const infinity = 1e10

	normal := transform.Rotation.Rotate(p.Normal)
	planePoint := transform.TransformPoint(p.Normal.Mul(-p.Distance))

	min := planePoint.Sub(normal.Mul(thickness))
	max := planePoint
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			min[i], max[i] = max[i], min[i]
		}
		// only an axis aligned plane is bounded along its normal
		if math.Abs(normal[i]) < 1.0 {
			min[i] = -infinity
			max[i] = infinity
		}
	}

	p.aabb = AABB{Min: min, Max: max}
}

func (p *Plane) GetAABB() AABB {
	return p.aabb
}

// ComputeMass calculates mass data for the plane
// Planes are always static with infinite mass
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

// Raycast only hits the front face of the plane. A ray starting below the
// surface hits at distance 0.
func (p *Plane) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	height := p.Normal.Dot(origin) + p.Distance
	if height <= 0 {
		return RaycastHit{Position: origin, Normal: p.Normal}, true
	}

	denom := p.Normal.Dot(direction)
	if denom >= 0 {
		return RaycastHit{}, false
	}

	t := -height / denom
	if t > maxDistance {
		return RaycastHit{}, false
	}

	return RaycastHit{
		Distance: t,
		Position: origin.Add(direction.Mul(t)),
		Normal:   p.Normal,
	}, true
}
