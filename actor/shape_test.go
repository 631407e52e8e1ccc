package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func mat3Equal(a, b mgl64.Mat3, tolerance float64) bool {
	for i := 0; i < 9; i++ {
		if math.Abs(a[i]-b[i]) > tolerance {
			return false
		}
	}
	return true
}

// =============================================================================
// Mass properties
// =============================================================================

func TestBoxComputeInertia(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 0.5, 2}}
	mass := 12.0

	// full dimensions 2, 1, 4
	want := mgl64.Mat3{
		1 + 16, 0, 0,
		0, 4 + 16, 0,
		0, 0, 4 + 1,
	}
	if got := box.ComputeInertia(mass); !mat3Equal(got, want, 1e-12) {
		t.Errorf("ComputeInertia() = %v, want %v", got, want)
	}
	if got := box.ComputeMass(2); got != 16 {
		t.Errorf("ComputeMass(2) = %v, want 16", got)
	}
}

func TestSphereComputeInertia(t *testing.T) {
	sphere := &Sphere{Radius: 2}
	got := sphere.ComputeInertia(5)

	want := 0.4 * 5 * 4
	if !almostEqual(got.At(0, 0), want, 1e-12) || !almostEqual(got.At(2, 2), want, 1e-12) {
		t.Errorf("ComputeInertia() = %v, want diagonal %v", got, want)
	}
}

func TestPlaneComputeMass(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}}
	if !math.IsInf(plane.ComputeMass(10), 1) {
		t.Errorf("ComputeMass() = %v, want +Inf", plane.ComputeMass(10))
	}
	if plane.ComputeInertia(10) != (mgl64.Mat3{}) {
		t.Errorf("ComputeInertia() = %v, want zero", plane.ComputeInertia(10))
	}
}

// =============================================================================
// Bounds
// =============================================================================

func TestBoxComputeAABBWithRotation(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{2, 1, 1}}
	transform := NewTransform()
	transform.Position = mgl64.Vec3{1, 0, 0}
	transform.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})

	box.ComputeAABB(transform)
	aabb := box.GetAABB()

	// a quarter turn around Z swaps the X and Y extents
	if !vec3AlmostEqual(aabb.Min, mgl64.Vec3{0, -2, -1}, 1e-9) {
		t.Errorf("Min = %v, want (0, -2, -1)", aabb.Min)
	}
	if !vec3AlmostEqual(aabb.Max, mgl64.Vec3{2, 2, 1}, 1e-9) {
		t.Errorf("Max = %v, want (2, 2, 1)", aabb.Max)
	}
}

func TestPlaneComputeAABB(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: -2}
	plane.ComputeAABB(NewTransform())
	aabb := plane.GetAABB()

	if aabb.Max.Y() != 2 || aabb.Min.Y() != 1 {
		t.Errorf("Y bounds = [%v, %v], want [1, 2]", aabb.Min.Y(), aabb.Max.Y())
	}
	if aabb.Min.X() > -1e9 || aabb.Max.Z() < 1e9 {
		t.Errorf("plane AABB should be unbounded along X and Z, got %v", aabb)
	}
}

// =============================================================================
// Raycasts
// =============================================================================

func TestShapeRaycast(t *testing.T) {
	down := mgl64.Vec3{0, -1, 0}

	tests := []struct {
		name       string
		shape      ShapeInterface
		origin     mgl64.Vec3
		dir        mgl64.Vec3
		length     float64
		wantHit    bool
		wantDist   float64
		wantNormal mgl64.Vec3
	}{
		{"box top face", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0.5, 3, 0}, down, 5, true, 2, mgl64.Vec3{0, 1, 0}},
		{"box side face", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{-4, 0, 0}, mgl64.Vec3{1, 0, 0}, 5, true, 3, mgl64.Vec3{-1, 0, 0}},
		{"box miss", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{2, 3, 0}, down, 5, false, 0, mgl64.Vec3{}},
		{"box too short", &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, mgl64.Vec3{0, 3, 0}, down, 1, false, 0, mgl64.Vec3{}},
		{"sphere", &Sphere{Radius: 1}, mgl64.Vec3{0, 3, 0}, down, 5, true, 2, mgl64.Vec3{0, 1, 0}},
		{"sphere behind", &Sphere{Radius: 1}, mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0, 1, 0}, 5, false, 0, mgl64.Vec3{}},
		{"plane", &Plane{Normal: mgl64.Vec3{0, 1, 0}}, mgl64.Vec3{0, 1.5, 0}, down, 5, true, 1.5, mgl64.Vec3{0, 1, 0}},
		{"plane parallel", &Plane{Normal: mgl64.Vec3{0, 1, 0}}, mgl64.Vec3{0, 1.5, 0}, mgl64.Vec3{1, 0, 0}, 5, false, 0, mgl64.Vec3{}},
		{"plane from below", &Plane{Normal: mgl64.Vec3{0, 1, 0}}, mgl64.Vec3{0, -1, 0}, down, 5, true, 0, mgl64.Vec3{0, 1, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := tt.shape.Raycast(tt.origin, tt.dir, tt.length)
			if ok != tt.wantHit {
				t.Fatalf("Raycast() hit = %v, want %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if !almostEqual(hit.Distance, tt.wantDist, 1e-9) {
				t.Errorf("Distance = %v, want %v", hit.Distance, tt.wantDist)
			}
			if !vec3AlmostEqual(hit.Normal, tt.wantNormal, 1e-9) {
				t.Errorf("Normal = %v, want %v", hit.Normal, tt.wantNormal)
			}
			want := tt.origin.Add(tt.dir.Mul(hit.Distance))
			if !vec3AlmostEqual(hit.Position, want, 1e-9) {
				t.Errorf("Position = %v, want %v", hit.Position, want)
			}
		})
	}
}
