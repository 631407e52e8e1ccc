package traction

import (
	"math"

	"github.com/akmonengine/traction/suspension"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// maxWheelAngle bounds the accumulated rolling angle, a whole number of turns
	maxWheelAngle = 10 * math.Pi
	// blendSpeed is the forward speed (m/s) under which the rolling speed of
	// a free wheel follows the ground
	blendSpeed = 5.0
)

func wrapWheelAngle(angle float64) float64 {
	if angle >= maxWheelAngle || angle <= -maxWheelAngle {
		return math.Mod(angle, maxWheelAngle)
	}
	return angle
}

func forwardSpeed(kin *suspension.Kinematics) float64 {
	return kin.Velocity.Dot(kin.Transform.Rotation.Rotate(suspension.Forward))
}

// integrateChassis advances the chassis copy by one substep under the
// summed suspension and tire forces. Gravity is left to the world step.
func integrateChassis(kin *suspension.Kinematics, force, torque mgl64.Vec3, invMass float64, invInertiaLocal mgl64.Mat3, dt float64) {
	if invMass == 0 {
		return
	}

	kin.Velocity = kin.Velocity.Add(force.Mul(invMass * dt))

	// I_world^(-1) = R * I_local^(-1) * R^T
	r := kin.Transform.Rotation.Mat4().Mat3()
	invInertia := r.Mul3(invInertiaLocal).Mul3(r.Transpose())
	kin.AngularVelocity = kin.AngularVelocity.Add(invInertia.Mul3x1(torque).Mul(dt))

	kin.Transform.Position = kin.Transform.Position.Add(kin.Velocity.Mul(dt))
	omegaQuat := mgl64.Quat{V: kin.AngularVelocity}
	qDot := omegaQuat.Mul(kin.Transform.Rotation).Scale(0.5)
	kin.Transform.Rotation = kin.Transform.Rotation.Add(qDot.Scale(dt)).Normalize()
	kin.Transform.InverseRotation = kin.Transform.Rotation.Inverse()
}
