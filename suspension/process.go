package suspension

import (
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/friction"
	"github.com/akmonengine/traction/tire"
	"github.com/go-gl/mathgl/mgl64"
)

// Kinematics is the chassis state seen by the wheels during one substep.
type Kinematics struct {
	Transform       actor.Transform
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3
}

// Context holds the data shared by every wheel of a vehicle during one substep.
type Context struct {
	Chassis Kinematics
	Gravity mgl64.Vec3
	// SubDt is the substep duration and TimeFraction the substep share of the update.
	SubDt                  float64
	TimeFraction           float64
	Tank                   bool
	MinLongSlipDenominator float64
	LoadFilter             tire.LoadFilter
	ForceFunc              tire.ForceFunc
}

type WheelInput struct {
	Enabled            bool
	Steer              float64
	Omega              float64
	AccelApplied       bool
	BrakeApplied       bool
	IntentToAccelerate bool
	Contact            Contact
}

// Row is a velocity constraint on the chassis, expressed in world space.
type Row struct {
	Active bool
	Dir    mgl64.Vec3
	// Offset of the application point from the chassis centre of mass
	Offset mgl64.Vec3
	Target float64
	Error  float64
}

// Result is the outcome of one wheel for one substep.
type Result struct {
	InAir  bool
	Jounce float64

	SpringForce        float64
	TireLoad           float64
	NormalisedTireLoad float64

	// Force and Torque act on the chassis.
	Force      mgl64.Vec3
	Torque     mgl64.Vec3
	TireTorque float64

	LongDir      mgl64.Vec3
	LatDir       mgl64.Vec3
	LongSlip     float64
	LatSlip      float64
	ForwardSpeed float64
	SideSpeed    float64
	Friction     float64
	Camber       float64

	ContactPoint  mgl64.Vec3
	ContactNormal mgl64.Vec3
	Surface       friction.SurfaceType

	HitActor              *actor.RigidBody
	HitActorForce         mgl64.Vec3
	HitActorForcePosition mgl64.Vec3

	LowForwardSpeedTimer float64
	LowSideSpeedTimer    float64

	Forward Row
	Side    Row
	Limit   Row
}

// Process resolves one wheel against its contact for one substep.
// The runtime state is only read; the caller commits the new jounce and timers.
func Process(ws *WheelSim, ctx *Context, in *WheelInput, state *RuntimeState) Result {
	susp := &ws.Suspension
	wheel := &ws.Wheel

	res := Result{
		InAir:                true,
		Jounce:               -susp.MaxDroop,
		Camber:               susp.Camber(-susp.MaxDroop),
		Surface:              in.Contact.Surface,
		LowForwardSpeedTimer: state.LowForwardSpeedTimer,
		LowSideSpeedTimer:    state.LowSideSpeedTimer,
	}

	start, dir := ws.SuspensionLine(ctx.Chassis.Transform)
	contact := &in.Contact
	n := contact.Normal
	if !in.Enabled || contact.Count == 0 || contact.Distance == 0 || n.Dot(dir) >= 0 {
		return res
	}

	t := -(n.Dot(start) + contact.PlaneDistance) / n.Dot(dir)
	restT := 2*wheel.Radius + susp.MaxCompression
	dx := restT - t
	if !finite(dx) || dx <= -susp.MaxDroop {
		return res
	}

	res.InAir = false
	res.ContactPoint = contact.Point
	res.ContactNormal = n
	res.HitActor = contact.Actor

	rot := ctx.Chassis.Transform.Rotation
	res.Limit = Row{
		Active: dx > susp.MaxCompression,
		Dir:    dir,
		Offset: rot.Rotate(ws.Geometry.WheelCentreOffset),
		Error:  dx - susp.MaxCompression,
	}
	jounce := math.Min(dx, susp.MaxCompression)
	res.Jounce = jounce
	res.Camber = susp.Camber(jounce)

	bottom := start.Add(dir.Mul(restT - jounce))
	bottomVel := ctx.Chassis.Velocity.Add(ctx.Chassis.AngularVelocity.Cross(bottom.Sub(ctx.Chassis.Transform.Position)))

	var hitActorVel mgl64.Vec3
	dynamicActor := contact.Actor != nil && contact.Actor.BodyType != actor.BodyTypeStatic
	if dynamicActor {
		hitActorVel = contact.Actor.VelocityAtPoint(bottom)
		bottomVel = bottomVel.Sub(hitActorVel)
	}

	jounceSpeed := 0.0
	if state.PrevJounce != InvalidJounce && ctx.SubDt > 0 {
		jounceSpeed = (jounce - state.PrevJounce) / ctx.SubDt
	}

	spring := susp.SprungMass*math.Max(0, dir.Dot(ctx.Gravity)) + susp.SpringStrength*jounce
	spring = math.Max(spring, 0) + susp.SpringDamperRate*jounceSpeed
	res.SpringForce = spring

	// only the component along the contact normal reaches the chassis
	springForce := n.Mul(n.Dot(dir.Mul(-spring)))
	res.Force = springForce
	res.Torque = rot.Rotate(ws.Geometry.SuspensionForceAppOffset).Cross(springForce)

	tireLoad := -spring*dir.Dot(n) - wheel.Mass*math.Min(ctx.Gravity.Dot(n), 0)
	if dynamicActor && contact.Actor.BodyType != actor.BodyTypeKinematic {
		res.HitActorForce = n.Mul(-tireLoad * ctx.TimeFraction)
		res.HitActorForcePosition = contact.Point
	}

	gravity := ctx.Gravity.Len()
	restLoad := gravity * susp.SprungMass
	normalisedLoad := 0.0
	if restLoad > 0 {
		normalisedLoad = tireLoad / restLoad
	}
	filteredNormalisedLoad := ctx.LoadFilter.Filter(normalisedLoad)
	filteredLoad := filteredNormalisedLoad * restLoad
	res.TireLoad = filteredLoad
	res.NormalisedTireLoad = filteredNormalisedLoad

	latDir := rot.Rotate(Right)
	longDir, tireLatDir := tire.Dirs(latDir, n, in.Steer)
	res.LongDir = longDir
	res.LatDir = tireLatDir

	longSpeed := bottomVel.Dot(longDir)
	latSpeed := bottomVel.Dot(tireLatDir)
	res.ForwardSpeed = longSpeed
	res.SideSpeed = latSpeed

	longSlip, latSlip := tire.Slips(tire.SlipInput{
		LongSpeed:              longSpeed,
		LatSpeed:               latSpeed,
		WheelOmega:             in.Omega,
		WheelRadius:            wheel.Radius,
		MinLongSlipDenominator: ctx.MinLongSlipDenominator,
		AccelApplied:           in.AccelApplied,
		BrakeApplied:           in.BrakeApplied,
		Tank:                   ctx.Tank,
	})
	res.LongSlip = longSlip
	res.LatSlip = latSlip

	mu := ws.Tire.Friction(longSlip) * contact.FrictionMultiplier
	res.Friction = mu

	if filteredLoad*contact.FrictionMultiplier <= 0 {
		return res
	}

	tireOffset := rot.Rotate(ws.Geometry.TireForceAppOffset)

	fwdTimer := tire.UpdateLowForwardSpeedTimer(longSpeed, in.Omega, wheel.Radius, in.IntentToAccelerate, ctx.SubDt, state.LowForwardSpeedTimer)
	fwdActive, fwdTarget := tire.StickyForward(longSpeed, in.Omega, fwdTimer, in.IntentToAccelerate)
	res.LowForwardSpeedTimer = fwdTimer
	res.Forward = Row{
		Active: fwdActive,
		Dir:    longDir,
		Offset: tireOffset,
		Target: fwdTarget + hitActorVel.Dot(longDir),
	}
	if fwdActive {
		longSlip = 0
		res.LongSlip = 0
	}

	sideTimer := tire.UpdateLowSideSpeedTimer(latSpeed, in.IntentToAccelerate, ctx.SubDt, state.LowSideSpeedTimer)
	sideActive, sideTarget := tire.StickySide(latSpeed, fwdTimer, sideTimer)
	res.LowSideSpeedTimer = sideTimer
	res.Side = Row{
		Active: sideActive,
		Dir:    tireLatDir,
		Offset: tireOffset,
		Target: sideTarget + hitActorVel.Dot(tireLatDir),
	}
	if sideActive {
		latSlip = 0
		res.LatSlip = 0
	}

	forceFunc := ctx.ForceFunc
	if forceFunc == nil {
		forceFunc = tire.ComputeForce
	}
	f := forceFunc(&ws.Tire, tire.ForceInput{
		Friction:           mu,
		LongSlip:           longSlip,
		LatSlip:            latSlip,
		Camber:             res.Camber,
		WheelOmega:         in.Omega,
		WheelRadius:        wheel.Radius,
		RestTireLoad:       restLoad,
		NormalisedTireLoad: filteredNormalisedLoad,
		TireLoad:           filteredLoad,
		Gravity:            gravity,
	})
	res.TireTorque = f.WheelTorque

	tireForce := longDir.Mul(f.LongForce).Add(tireLatDir.Mul(f.LatForce))
	res.Force = res.Force.Add(tireForce)
	res.Torque = res.Torque.Add(tireOffset.Cross(tireForce))

	return res
}
