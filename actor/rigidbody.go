package actor

import (
	"math"

	"github.com/akmonengine/traction/friction"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are moved by forces, gravity and vehicles driving on them
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies never move (ground, walls, ramps)
	BodyTypeStatic

	// BodyTypeKinematic bodies follow their velocity but ignore forces.
	// They can carry vehicles (elevators, moving platforms) but can't be chassis.
	BodyTypeKinematic
)

type Material struct {
	Density float64
	mass    float64

	// Surface selects the friction row used by tires driving on this body
	Surface friction.SurfaceType

	LinearDamping  float64 // 0.0 - 1.0, typically 0.01
	AngularDamping float64 // 0.0 - 1.0, typically 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// RigidBody represents a rigid body in the physics simulation.
// Transform.Position is the centre of mass.
type RigidBody struct {
	Transform Transform

	// Linear motion
	Velocity mgl64.Vec3 // m/s

	// Angular motion
	AngularVelocity     mgl64.Vec3 // rad/s
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	IsSleeping bool
	SleepTimer float64

	// Physical properties
	Material Material
	BodyType BodyType

	Shape ShapeInterface
}

// NewRigidBody creates a new rigid body with the given properties
// density is used to calculate mass for dynamic bodies (ignored otherwise)
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, density float64) *RigidBody {
	transform.InverseRotation = transform.Rotation.Inverse()
	rb := &RigidBody{
		Transform: transform,
		Shape:     shape,
		BodyType:  bodyType,
	}

	if bodyType == BodyTypeDynamic {
		rb.SetMass(shape.ComputeMass(density))
		rb.Material.Density = density
	} else {
		rb.Material = Material{mass: math.Inf(1)}
	}
	rb.Shape.ComputeAABB(rb.Transform)

	return rb
}

// SetMass overrides the mass of a dynamic body, and rescales its inertia
// from the shape.
func (rb *RigidBody) SetMass(mass float64) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	rb.Material.mass = mass
	rb.SetInertia(rb.Shape.ComputeInertia(mass))
}

// SetInertia overrides the local inertia tensor (kg⋅m²).
func (rb *RigidBody) SetInertia(inertia mgl64.Mat3) {
	rb.InertiaLocal = inertia
	rb.InverseInertiaLocal = inertia.Inv()
}

// InverseMass is 0 for bodies which forces can't move.
func (rb *RigidBody) InverseMass() float64 {
	if rb.BodyType != BodyTypeDynamic || rb.Material.mass <= 0 || math.IsInf(rb.Material.mass, 1) {
		return 0
	}

	return 1.0 / rb.Material.mass
}

func (rb *RigidBody) TrySleep(dt float64, timethreshold float64, velocityThreshold float64) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	if rb.Velocity.Len() < velocityThreshold && rb.AngularVelocity.Len() < velocityThreshold {
		rb.SleepTimer += dt
		if rb.SleepTimer >= timethreshold {
			rb.Sleep()
		}
	} else {
		rb.Awake()
	}
}

func (rb *RigidBody) Sleep() {
	rb.IsSleeping = true
	rb.SleepTimer = 0.0

	rb.Shape.ComputeAABB(rb.Transform)
	rb.ClearForces()
	rb.Velocity = mgl64.Vec3{}
	rb.AngularVelocity = mgl64.Vec3{}
}

func (rb *RigidBody) Awake() {
	rb.IsSleeping = false
	rb.SleepTimer = 0.0
}

// Integrate advances the body with semi-implicit Euler: accumulated forces
// and gravity update the velocities first, then the pose.
func (rb *RigidBody) Integrate(dt float64, gravity mgl64.Vec3) {
	if rb.BodyType == BodyTypeStatic || rb.IsSleeping {
		return
	}

	if rb.BodyType == BodyTypeDynamic {
		// ========== LINEAR ==========
		invMass := rb.InverseMass()
		rb.Velocity = rb.Velocity.Add(gravity.Mul(dt)).Add(rb.accumulatedForce.Mul(invMass * dt))
		rb.Velocity = rb.Velocity.Mul(math.Exp(-rb.Material.LinearDamping * dt))

		// ========== ANGULAR ==========
		angularAccel := rb.GetInverseInertiaWorld().Mul3x1(rb.accumulatedTorque)
		rb.AngularVelocity = rb.AngularVelocity.Add(angularAccel.Mul(dt))
		rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))
	}

	rb.IntegratePose(dt)
	rb.ClearForces()
}

// IntegratePose moves the transform along the current velocities.
func (rb *RigidBody) IntegratePose(dt float64) {
	rb.Transform.Position = rb.Transform.Position.Add(rb.Velocity.Mul(dt))

	omegaQuat := mgl64.Quat{V: rb.AngularVelocity, W: 0}
	qDot := omegaQuat.Mul(rb.Transform.Rotation).Scale(0.5)
	rb.Transform.Rotation = rb.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	rb.Shape.ComputeAABB(rb.Transform)
}

// AddForce in N, applied at the centre of mass
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.Awake()
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque in N⋅m
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.Awake()
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

// AddForceAtPosition applies a force (N) at a world space point.
func (rb *RigidBody) AddForceAtPosition(force, position mgl64.Vec3) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	rb.AddForce(force)
	rb.AddTorque(position.Sub(rb.Transform.Position).Cross(force))
}

// ApplyImpulseAtPoint changes the velocities immediately (N⋅s).
func (rb *RigidBody) ApplyImpulseAtPoint(impulse, point mgl64.Vec3) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.InverseMass()))
	r := point.Sub(rb.Transform.Position)
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.GetInverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

// VelocityAtPoint is the velocity of the material point of the body at a world position.
func (rb *RigidBody) VelocityAtPoint(point mgl64.Vec3) mgl64.Vec3 {
	if rb.BodyType == BodyTypeStatic {
		return mgl64.Vec3{}
	}

	return rb.Velocity.Add(rb.AngularVelocity.Cross(point.Sub(rb.Transform.Position)))
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// AccumulatedForce returns the force and torque waiting for the next integration.
func (rb *RigidBody) AccumulatedForce() (mgl64.Vec3, mgl64.Vec3) {
	return rb.accumulatedForce, rb.accumulatedTorque
}

// Inertie en espace monde
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	// I_world = R * I_local * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
}

// GetInverseInertiaWorld is zero for bodies which torques can't rotate.
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	if rb.BodyType != BodyTypeDynamic {
		return mgl64.Mat3{}
	}

	// I_world^(-1) = R * I_local^(-1) * R^T
	R := rb.Transform.Rotation.Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// Raycast intersects a world space ray with the body's shape.
func (rb *RigidBody) Raycast(origin, direction mgl64.Vec3, maxDistance float64) (RaycastHit, bool) {
	if !rb.Shape.GetAABB().RayIntersects(origin, direction, maxDistance) {
		return RaycastHit{}, false
	}

	localOrigin := rb.Transform.InverseTransformPoint(origin)
	localDir := rb.Transform.Rotation.Inverse().Rotate(direction)

	hit, ok := rb.Shape.Raycast(localOrigin, localDir, maxDistance)
	if !ok {
		return RaycastHit{}, false
	}

	hit.Position = rb.Transform.TransformPoint(hit.Position)
	hit.Normal = rb.Transform.Rotation.Rotate(hit.Normal).Normalize()

	return hit, true
}
