package traction

import (
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/friction"
	"github.com/akmonengine/traction/suspension"
	"github.com/go-gl/mathgl/mgl64"
)

// UpdateMode tells how the chassis change computed by an update is applied.
type UpdateMode uint8

const (
	// UpdateModeVelocityChange overwrites the chassis velocities
	UpdateModeVelocityChange UpdateMode = iota
	// UpdateModeAcceleration adds accelerations to the chassis
	UpdateModeAcceleration
)

// WheelOutput is the state of one wheel at the end of an update.
type WheelOutput struct {
	// Pose in the chassis actor frame
	LocalPosition mgl64.Vec3
	LocalRotation mgl64.Quat

	InAir         bool
	ContactPoint  mgl64.Vec3
	ContactNormal mgl64.Vec3
	Surface       friction.SurfaceType
	HitActor      *actor.RigidBody
	Friction      float64

	Jounce          float64
	SuspensionForce float64
	TireLoad        float64

	LongSlip float64
	LatSlip  float64
	LongDir  mgl64.Vec3
	LatDir   mgl64.Vec3

	Steer float64
	Omega float64
	Angle float64
}

// SubstepTrace is recorded for every substep while an observer is set.
type SubstepTrace struct {
	Index             int
	SubDt             float64
	EngineOmega       float64
	EngineDriveTorque float64
	Gear              int
	ChassisVelocity   mgl64.Vec3
	Warning           drivetrain.Warning
}

// Output is written by Vehicle.Update and read by the apply pass.
type Output struct {
	Wheels []WheelOutput

	Mode UpdateMode
	// LinearDelta and AngularDelta are velocities with UpdateModeVelocityChange,
	// accelerations with UpdateModeAcceleration.
	LinearDelta  mgl64.Vec3
	AngularDelta mgl64.Vec3

	// Wake asks the apply pass to wake the chassis up.
	Wake bool
	// Asleep is set when the update was skipped because the vehicle sleeps
	// without input. Nothing is applied.
	Asleep bool
	// Skipped is set when the update was rejected, Err holds why.
	Skipped bool
	Err     error

	Warning      drivetrain.Warning
	Substeps     int
	EngineOmega  float64
	Gear         int
	PreviousGear int
	ForwardSpeed float64

	Trace []SubstepTrace
}

func (o *Output) reset(nbWheels int) {
	if cap(o.Wheels) < nbWheels {
		o.Wheels = make([]WheelOutput, nbWheels)
	}
	o.Wheels = o.Wheels[:nbWheels]

	o.LinearDelta = mgl64.Vec3{}
	o.AngularDelta = mgl64.Vec3{}
	o.Wake = false
	o.Asleep = false
	o.Skipped = false
	o.Err = nil
	o.Warning = drivetrain.WarningNone
	o.Substeps = 0
	o.Trace = o.Trace[:0]
}

// Applied reports whether the output carries a chassis change.
func (o *Output) Applied() bool {
	return !o.Asleep && !o.Skipped
}

func (o *Output) setWheel(i int, ws *suspension.WheelSim, state *suspension.RuntimeState, res *suspension.Result, cmOffset mgl64.Vec3) {
	w := &o.Wheels[i]

	pos, rot := ws.LocalPose(state.Jounce, state.Steer, state.Angle)
	w.LocalPosition = cmOffset.Add(pos)
	w.LocalRotation = rot

	w.InAir = res.InAir
	w.ContactPoint = res.ContactPoint
	w.ContactNormal = res.ContactNormal
	w.Surface = res.Surface
	w.HitActor = res.HitActor
	w.Friction = res.Friction
	w.Jounce = state.Jounce
	w.SuspensionForce = res.SpringForce
	w.TireLoad = res.TireLoad
	w.LongSlip = res.LongSlip
	w.LatSlip = res.LatSlip
	w.LongDir = res.LongDir
	w.LatDir = res.LatDir
	w.Steer = state.Steer
	w.Omega = state.Omega
	w.Angle = state.Angle
}
