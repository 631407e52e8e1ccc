// Package suspension resolves a wheel against its contact plane: jounce,
// spring force, tire load and the resulting tire forces on the chassis.
package suspension

import (
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/tire"
	"github.com/go-gl/mathgl/mgl64"
)

// Chassis frame. Right is Up x Forward.
var (
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
	Right   = Up.Cross(Forward)
)

type Wheel struct {
	Radius float64
	Width  float64
	Mass   float64
	// Moment of inertia around the rolling axis (kg⋅m²)
	MOI                float64
	DampingRate        float64
	MaxBrakeTorque     float64
	MaxHandBrakeTorque float64
	MaxSteer           float64
	ToeAngle           float64
}

func (w Wheel) RecipMOI() float64 {
	if w.MOI <= 0 {
		return 0
	}
	return 1.0 / w.MOI
}

type Suspension struct {
	MaxCompression         float64
	MaxDroop               float64
	SpringStrength         float64
	SpringDamperRate       float64
	SprungMass             float64
	CamberAtRest           float64
	CamberAtMaxCompression float64
	CamberAtMaxDroop       float64
}

// Camber interpolates the camber angle from the jounce.
func (s Suspension) Camber(jounce float64) float64 {
	camber := s.CamberAtRest
	if jounce > 0 {
		if s.MaxCompression > 0 {
			camber += jounce * s.CamberAtMaxCompression / s.MaxCompression
		}
	} else if s.MaxDroop > 0 {
		camber -= jounce * s.CamberAtMaxDroop / s.MaxDroop
	}

	return camber
}

// Geometry places a wheel in the chassis frame, relative to the centre of mass.
type Geometry struct {
	SuspensionTravelDir      mgl64.Vec3
	WheelCentreOffset        mgl64.Vec3
	SuspensionForceAppOffset mgl64.Vec3
	TireForceAppOffset       mgl64.Vec3
}

// WheelSim is the static description of one wheel.
type WheelSim struct {
	Wheel      Wheel
	Suspension Suspension
	Tire       tire.Data
	Geometry   Geometry
}

// Ray is a suspension line query in world space.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
	Length    float64
}

const disabledRayLength = 1e-5

// SuspensionLine returns the start of the suspension line, placed one radius
// plus the max compression above the wheel centre, and its world direction.
func (ws *WheelSim) SuspensionLine(chassis actor.Transform) (start, dir mgl64.Vec3) {
	dir = chassis.Rotation.Rotate(ws.Geometry.SuspensionTravelDir)
	centre := chassis.Position.Add(chassis.Rotation.Rotate(ws.Geometry.WheelCentreOffset))
	start = centre.Sub(dir.Mul(ws.Wheel.Radius + ws.Suspension.MaxCompression))

	return start, dir
}

// Ray builds the raycast covering the full travel of the wheel.
// A disabled wheel still casts, from the chassis origin with a negligible length.
func (ws *WheelSim) Ray(chassis actor.Transform, enabled bool) Ray {
	if !enabled {
		return Ray{
			Origin:    chassis.Position,
			Direction: chassis.Rotation.Rotate(ws.Geometry.SuspensionTravelDir),
			Length:    disabledRayLength,
		}
	}

	start, dir := ws.SuspensionLine(chassis)
	return Ray{
		Origin:    start,
		Direction: dir,
		Length:    3*ws.Wheel.Radius + ws.Suspension.MaxCompression + ws.Suspension.MaxDroop,
	}
}

// LocalPose returns the wheel pose in the chassis frame.
func (ws *WheelSim) LocalPose(jounce, steer, angle float64) (mgl64.Vec3, mgl64.Quat) {
	pos := ws.Geometry.WheelCentreOffset.Sub(ws.Geometry.SuspensionTravelDir.Mul(jounce))

	camber := ws.Suspension.Camber(jounce)
	forward := Right.Cross(Up)

	q1 := mgl64.QuatRotate(steer, Up)
	q2 := mgl64.QuatRotate(camber, q1.Rotate(forward))
	q3 := q2.Mul(q1)
	q4 := mgl64.QuatRotate(angle, q3.Rotate(Right))

	return pos, q4.Mul(q3).Normalize()
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
