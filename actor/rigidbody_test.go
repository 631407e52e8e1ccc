package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// =============================================================================
// BodyType Tests
// =============================================================================

func TestBodyType_Constants(t *testing.T) {
	if BodyTypeDynamic != 0 {
		t.Errorf("BodyTypeDynamic = %d, want 0", BodyTypeDynamic)
	}
	if BodyTypeStatic != 1 {
		t.Errorf("BodyTypeStatic = %d, want 1", BodyTypeStatic)
	}
	if BodyTypeKinematic != 2 {
		t.Errorf("BodyTypeKinematic = %d, want 2", BodyTypeKinematic)
	}
}

// =============================================================================
// NewRigidBody Tests
// =============================================================================

func TestNewRigidBody(t *testing.T) {
	box := func() ShapeInterface { return &Box{HalfExtents: mgl64.Vec3{1, 1, 1}} }

	tests := []struct {
		name        string
		bodyType    BodyType
		wantInvMass float64
	}{
		{"dynamic", BodyTypeDynamic, 1.0 / 80.0},
		{"static", BodyTypeStatic, 0},
		{"kinematic", BodyTypeKinematic, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rb := NewRigidBody(NewTransform(), box(), tt.bodyType, 10)
			if got := rb.InverseMass(); !almostEqual(got, tt.wantInvMass, 1e-12) {
				t.Errorf("InverseMass() = %v, want %v", got, tt.wantInvMass)
			}
			if tt.bodyType != BodyTypeDynamic && !math.IsInf(rb.Material.GetMass(), 1) {
				t.Errorf("GetMass() = %v, want +Inf", rb.Material.GetMass())
			}
		})
	}
}

func TestRigidBody_SetMass(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{1, 0.5, 2}}, BodyTypeDynamic, 1)
	rb.SetMass(1500)

	if rb.Material.GetMass() != 1500 {
		t.Errorf("GetMass() = %v, want 1500", rb.Material.GetMass())
	}
	want := (1500.0 / 12.0) * (1 + 16)
	if !almostEqual(rb.InertiaLocal.At(0, 0), want, 1e-9) {
		t.Errorf("Ixx = %v, want %v", rb.InertiaLocal.At(0, 0), want)
	}
	if !almostEqual(rb.InverseInertiaLocal.At(0, 0), 1/want, 1e-12) {
		t.Errorf("inverse Ixx = %v, want %v", rb.InverseInertiaLocal.At(0, 0), 1/want)
	}

	static := NewRigidBody(NewTransform(), &Plane{Normal: mgl64.Vec3{0, 1, 0}}, BodyTypeStatic, 0)
	static.SetMass(10)
	if !math.IsInf(static.Material.GetMass(), 1) {
		t.Errorf("static GetMass() after SetMass = %v, want +Inf", static.Material.GetMass())
	}
}

// =============================================================================
// Integrate Tests
// =============================================================================

func TestIntegrate_Gravity(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Sphere{Radius: 1}, BodyTypeDynamic, 1)
	gravity := mgl64.Vec3{0, -9.81, 0}

	rb.Integrate(0.1, gravity)

	if !vec3AlmostEqual(rb.Velocity, mgl64.Vec3{0, -0.981, 0}, 1e-12) {
		t.Errorf("Velocity = %v, want (0, -0.981, 0)", rb.Velocity)
	}
	// semi-implicit: position uses the new velocity
	if !vec3AlmostEqual(rb.Transform.Position, mgl64.Vec3{0, -0.0981, 0}, 1e-12) {
		t.Errorf("Position = %v, want (0, -0.0981, 0)", rb.Transform.Position)
	}
}

func TestIntegrate_Force(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, BodyTypeDynamic, 1)
	rb.SetMass(2)

	rb.AddForce(mgl64.Vec3{4, 0, 0})
	rb.Integrate(0.5, mgl64.Vec3{})

	if !vec3AlmostEqual(rb.Velocity, mgl64.Vec3{1, 0, 0}, 1e-12) {
		t.Errorf("Velocity = %v, want (1, 0, 0)", rb.Velocity)
	}
	force, torque := rb.AccumulatedForce()
	if force != (mgl64.Vec3{}) || torque != (mgl64.Vec3{}) {
		t.Errorf("accumulators = %v, %v, want cleared", force, torque)
	}
}

func TestIntegrate_StaticAndKinematic(t *testing.T) {
	static := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, BodyTypeStatic, 1)
	static.Integrate(1, mgl64.Vec3{0, -9.81, 0})
	if static.Transform.Position != (mgl64.Vec3{}) {
		t.Errorf("static Position = %v, want origin", static.Transform.Position)
	}

	kinematic := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, BodyTypeKinematic, 1)
	kinematic.Velocity = mgl64.Vec3{0, 1, 0}
	kinematic.AddForce(mgl64.Vec3{100, 0, 0})
	kinematic.Integrate(0.5, mgl64.Vec3{0, -9.81, 0})
	if !vec3AlmostEqual(kinematic.Transform.Position, mgl64.Vec3{0, 0.5, 0}, 1e-12) {
		t.Errorf("kinematic Position = %v, want (0, 0.5, 0)", kinematic.Transform.Position)
	}
	if !vec3AlmostEqual(kinematic.Velocity, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("kinematic Velocity = %v, want unchanged", kinematic.Velocity)
	}
}

func TestIntegrate_QuaternionNormalization(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Sphere{Radius: 1}, BodyTypeDynamic, 1)
	rb.AngularVelocity = mgl64.Vec3{3, 7, -5}

	for range 1000 {
		rb.Integrate(1.0/60.0, mgl64.Vec3{})
	}

	if !almostEqual(rb.Transform.Rotation.Len(), 1, 1e-9) {
		t.Errorf("|q| = %v, want 1", rb.Transform.Rotation.Len())
	}
}

func TestIntegrate_Damping(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Sphere{Radius: 1}, BodyTypeDynamic, 1)
	rb.Material.LinearDamping = 0.5
	rb.Velocity = mgl64.Vec3{10, 0, 0}

	rb.Integrate(1, mgl64.Vec3{})

	if !almostEqual(rb.Velocity.X(), 10*math.Exp(-0.5), 1e-12) {
		t.Errorf("Velocity.X = %v, want %v", rb.Velocity.X(), 10*math.Exp(-0.5))
	}
}

// =============================================================================
// Forces at points
// =============================================================================

func TestAddForceAtPosition(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, BodyTypeDynamic, 1)
	rb.AddForceAtPosition(mgl64.Vec3{0, 10, 0}, mgl64.Vec3{2, 0, 0})

	force, torque := rb.AccumulatedForce()
	if !vec3AlmostEqual(force, mgl64.Vec3{0, 10, 0}, 1e-12) {
		t.Errorf("force = %v, want (0, 10, 0)", force)
	}
	if !vec3AlmostEqual(torque, mgl64.Vec3{0, 0, 20}, 1e-12) {
		t.Errorf("torque = %v, want (0, 0, 20)", torque)
	}
}

func TestApplyImpulseAtPoint(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Sphere{Radius: 1}, BodyTypeDynamic, 1)
	rb.SetMass(2)
	rb.SetInertia(mgl64.Ident3())

	rb.ApplyImpulseAtPoint(mgl64.Vec3{0, 0, 4}, mgl64.Vec3{1, 0, 0})

	if !vec3AlmostEqual(rb.Velocity, mgl64.Vec3{0, 0, 2}, 1e-12) {
		t.Errorf("Velocity = %v, want (0, 0, 2)", rb.Velocity)
	}
	// r x J = (1,0,0) x (0,0,4) = (0,-4,0)
	if !vec3AlmostEqual(rb.AngularVelocity, mgl64.Vec3{0, -4, 0}, 1e-12) {
		t.Errorf("AngularVelocity = %v, want (0, -4, 0)", rb.AngularVelocity)
	}
}

func TestVelocityAtPoint(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, BodyTypeDynamic, 1)
	rb.Velocity = mgl64.Vec3{1, 0, 0}
	rb.AngularVelocity = mgl64.Vec3{0, 1, 0}

	// (0,1,0) x (0,0,2) = (2,0,0)
	got := rb.VelocityAtPoint(mgl64.Vec3{0, 0, 2})
	if !vec3AlmostEqual(got, mgl64.Vec3{3, 0, 0}, 1e-12) {
		t.Errorf("VelocityAtPoint() = %v, want (3, 0, 0)", got)
	}

	static := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, BodyTypeStatic, 1)
	static.Velocity = mgl64.Vec3{1, 0, 0}
	if got := static.VelocityAtPoint(mgl64.Vec3{}); got != (mgl64.Vec3{}) {
		t.Errorf("static VelocityAtPoint() = %v, want zero", got)
	}
}

// =============================================================================
// Inertia Tests
// =============================================================================

func TestGetInverseInertiaWorld_Rotated(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Box{HalfExtents: mgl64.Vec3{2, 1, 0.5}}, BodyTypeDynamic, 1)
	rb.Transform.Rotation = mgl64.QuatRotate(math.Pi/2, mgl64.Vec3{0, 0, 1})

	// a quarter turn around Z swaps the X and Y principal axes
	inv := rb.GetInverseInertiaWorld()
	if !almostEqual(inv.At(0, 0), rb.InverseInertiaLocal.At(1, 1), 1e-9) {
		t.Errorf("world Ixx^-1 = %v, want %v", inv.At(0, 0), rb.InverseInertiaLocal.At(1, 1))
	}
	if !almostEqual(inv.At(1, 1), rb.InverseInertiaLocal.At(0, 0), 1e-9) {
		t.Errorf("world Iyy^-1 = %v, want %v", inv.At(1, 1), rb.InverseInertiaLocal.At(0, 0))
	}

	world := rb.GetInertiaWorld()
	if !mat3Equal(world.Mul3(inv), mgl64.Ident3(), 1e-9) {
		t.Errorf("I * I^-1 = %v, want identity", world.Mul3(inv))
	}
}

// =============================================================================
// Raycast & sleep
// =============================================================================

func TestRigidBody_Raycast(t *testing.T) {
	transform := NewTransform()
	transform.Position = mgl64.Vec3{0, 1, 5}
	transform.Rotation = mgl64.QuatRotate(math.Pi/4, mgl64.Vec3{0, 1, 0})
	rb := NewRigidBody(transform, &Box{HalfExtents: mgl64.Vec3{1, 1, 1}}, BodyTypeStatic, 0)

	hit, ok := rb.Raycast(mgl64.Vec3{0, 4, 5}, mgl64.Vec3{0, -1, 0}, 10)
	if !ok {
		t.Fatalf("Raycast() hit = false, want true")
	}
	if !almostEqual(hit.Distance, 2, 1e-9) {
		t.Errorf("Distance = %v, want 2", hit.Distance)
	}
	if !vec3AlmostEqual(hit.Position, mgl64.Vec3{0, 2, 5}, 1e-9) {
		t.Errorf("Position = %v, want (0, 2, 5)", hit.Position)
	}
	if !vec3AlmostEqual(hit.Normal, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("Normal = %v, want (0, 1, 0)", hit.Normal)
	}

	if _, ok := rb.Raycast(mgl64.Vec3{3, 4, 5}, mgl64.Vec3{0, -1, 0}, 10); ok {
		t.Errorf("Raycast() beside the box hit = true, want false")
	}
}

func TestTrySleep(t *testing.T) {
	rb := NewRigidBody(NewTransform(), &Sphere{Radius: 1}, BodyTypeDynamic, 1)
	rb.Velocity = mgl64.Vec3{0.01, 0, 0}

	rb.TrySleep(0.3, 0.5, 0.05)
	if rb.IsSleeping {
		t.Fatalf("IsSleeping = true before the time threshold")
	}
	rb.TrySleep(0.3, 0.5, 0.05)
	if !rb.IsSleeping {
		t.Fatalf("IsSleeping = false, want true")
	}
	if rb.Velocity != (mgl64.Vec3{}) {
		t.Errorf("Velocity = %v, want zero once asleep", rb.Velocity)
	}

	rb.AddForce(mgl64.Vec3{1, 0, 0})
	if rb.IsSleeping {
		t.Errorf("IsSleeping = true after AddForce, want awake")
	}
}

// Helper function to compare floats with epsilon tolerance
func almostEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) < epsilon
}

// Helper function to compare Vec3 with epsilon tolerance
func vec3AlmostEqual(a, b mgl64.Vec3, epsilon float64) bool {
	return almostEqual(a.X(), b.X(), epsilon) &&
		almostEqual(a.Y(), b.Y(), epsilon) &&
		almostEqual(a.Z(), b.Z(), epsilon)
}
