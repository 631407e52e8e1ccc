package traction

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/friction"
	"github.com/akmonengine/traction/suspension"
	"github.com/go-gl/mathgl/mgl64"
)

var ErrHitCount = errors.New("traction: one raycast hit per wheel is required")

// Environment is what an update reads from the world.
type Environment struct {
	Gravity       mgl64.Vec3
	FrictionTable *friction.Table
	Mode          UpdateMode
	// Trace records a SubstepTrace per substep in the output
	Trace bool
}

// wheelPlan holds the per wheel inputs resolved from the controls, constant
// over the substeps of an update.
type wheelPlan struct {
	steer     float64
	brake     float64
	handbrake float64

	// raw torques of DRIVE_NONE
	raw      bool
	rawBrake float64
	rawDrive float64

	undriven bool
	accelOn  bool
}

// Update simulates the vehicle over dt. hits holds the suspension raycast
// of each wheel, a nil slice keeps the cached contacts.
//
// The chassis is only read: the change is written to the output, for the
// caller to apply. A rejected update leaves the vehicle untouched and
// returns why; the output is then flagged Skipped.
func (v *Vehicle) Update(dt float64, env *Environment, hits []suspension.Hit) error {
	out := &v.output
	out.reset(len(v.Wheels))
	out.Mode = env.Mode
	out.PreviousGear = v.Gearbox.Current
	out.Gear = v.Gearbox.Current
	v.constraint.Reset()

	err := v.validate(dt, env.Gravity)
	if hits != nil && len(hits) != len(v.Wheels) {
		err = errors.Join(err, fmt.Errorf("%w: got %d for %d wheels", ErrHitCount, len(hits), len(v.Wheels)))
	}
	if err != nil {
		out.Skipped = true
		out.Err = fmt.Errorf("vehicle %s: %w", v.Name, err)
		return out.Err
	}

	v.resolveContacts(env.FrictionTable, hits)

	if v.Chassis.IsSleeping {
		if !v.finiteInput() && !v.onDynamicActor(v.contacts) {
			v.stopInternalDynamics()
			out.Asleep = true
			out.EngineOmega = v.EngineOmega
			return nil
		}
		out.Wake = true
	}

	accel, intent := v.resolveControls(dt)
	v.simulate(dt, env, accel, intent)

	return nil
}

func (v *Vehicle) resolveContacts(table *friction.Table, hits []suspension.Hit) {
	for i := range v.Wheels {
		st := &v.States[i]
		if hits == nil {
			v.contacts[i] = st.CachedHit
			continue
		}

		c := suspension.NewContact(hits[i], table.Get(hits[i].Surface, v.Wheels[i].Tire.Type))
		v.contacts[i] = c
		st.CachedHit = c.Cached()
	}
}

func (v *Vehicle) stopInternalDynamics() {
	for i := range v.States {
		v.States[i].Omega = 0
		v.States[i].CorrectedOmega = 0
	}
	v.EngineOmega = 0
}

// resolveControls runs the gearbox and fills the wheel plans. It returns
// the accelerator fed to the engine and whether the driver intends to move.
func (v *Vehicle) resolveControls(dt float64) (float64, bool) {
	switch v.Drive.Kind {
	case DRIVE_TANK:
		return v.resolveTank(dt)
	case DRIVE_NONE:
		return 0, v.resolveNoDrive()
	default:
		return v.resolveWheeled(dt)
	}
}

func (v *Vehicle) runGearbox(gearUp, gearDown, autoBox bool, dt float64) float64 {
	eng := &v.Drive.Engine
	v.Gearbox.GearUp = gearUp
	v.Gearbox.GearDown = gearDown

	multiplier := 1.0
	if autoBox {
		multiplier = v.Gearbox.ProcessAutoBox(&eng.AutoBox, v.EngineOmega*eng.Engine.RecipMaxOmega(), dt)
	}
	v.Gearbox.Process(&eng.Gears, dt)

	return multiplier
}

func (v *Vehicle) resolveWheeled(dt float64) (float64, bool) {
	c := &v.Controls
	accel := c.Accel * v.runGearbox(c.GearUp, c.GearDown, v.Gearbox.UseAutoGears, dt)
	intent := accel > 0 && c.Brake == 0 && c.Handbrake == 0 && v.Gearbox.InGear()

	for i := range v.plans {
		v.plans[i] = wheelPlan{brake: c.Brake, handbrake: c.Handbrake}
		v.contributions[i] = 0
	}

	steer := c.Steer()
	if v.Drive.Kind == DRIVE_4W {
		var maxSteer, toe [4]float64
		for i := range 4 {
			maxSteer[i] = v.Wheels[i].Wheel.MaxSteer
			toe[i] = v.Wheels[i].Wheel.ToeAngle
		}
		angles := v.Drive.Ackermann.Corrected(steer, maxSteer, toe)
		contributions := v.Drive.Diff4W.Contributions(c.Handbrake)

		for i := range v.plans {
			p := &v.plans[i]
			if i < 4 {
				p.steer = angles[i]
				v.contributions[i] = contributions[i]
			} else {
				p.steer = v.Wheels[i].Wheel.ToeAngle
				p.undriven = true
			}
		}
	} else {
		v.Drive.DiffNW.Ratios(v.enabled, v.ratios)
		for i := range v.plans {
			w := &v.Wheels[i].Wheel
			v.plans[i].steer = w.MaxSteer*steer + w.ToeAngle
			v.contributions[i] = v.ratios[i]
		}
	}

	for i := range v.plans {
		v.plans[i].accelOn = intent && v.contributions[i] != 0
	}

	return accel, intent
}

func (v *Vehicle) resolveTank(dt float64) (float64, bool) {
	c := &v.TankControls

	autoBox := v.Gearbox.UseAutoGears
	switch v.Drive.TankModel {
	case drivetrain.TankSpecial:
		autoBox = autoBox && c.ThrustLeft*c.ThrustRight >= 0
	default:
		autoBox = autoBox && !(c.ThrustRight*c.BrakeLeft > 0 || c.ThrustLeft*c.BrakeRight > 0)
	}
	// tracks keep the full throttle during a shift
	v.runGearbox(c.GearUp, c.GearDown, autoBox, dt)

	intent := c.Accel*(math.Abs(c.ThrustLeft)+math.Abs(c.ThrustRight)) > 0 && v.Gearbox.InGear()

	drivetrain.TankRatios(c.ThrustLeft, c.ThrustRight, v.enabled, v.contributions, v.ratios, v.gearings)
	for i := range v.plans {
		v.plans[i] = wheelPlan{
			brake:   drivetrain.TankBrakeInput(i, c.BrakeLeft, c.BrakeRight),
			accelOn: intent && v.contributions[i] != 0,
		}
	}

	return c.Accel, intent
}

func (v *Vehicle) resolveNoDrive() bool {
	c := &v.NoDriveControls
	intent := c.maxDriveTorque() > 0 && c.maxBrakeTorque() == 0

	for i := range v.plans {
		v.plans[i] = wheelPlan{
			steer:    c.SteerAngles[i],
			raw:      true,
			rawBrake: c.BrakeTorques[i],
			rawDrive: c.DriveTorques[i],
			accelOn:  intent && c.DriveTorques[i] != 0,
		}
	}

	return intent
}

// simulate runs the substeps on a copy of the chassis kinematics and
// writes the output.
func (v *Vehicle) simulate(dt float64, env *Environment, accel float64, intent bool) {
	out := &v.output
	chassis := v.Chassis

	kin := suspension.Kinematics{
		Transform:       chassis.Transform,
		Velocity:        chassis.Velocity,
		AngularVelocity: chassis.AngularVelocity,
	}
	v0, w0 := kin.Velocity, kin.AngularVelocity

	n := v.Substeps.Count(forwardSpeed(&kin))
	subDt := dt / float64(n)

	ctx := suspension.Context{
		Gravity:                env.Gravity,
		SubDt:                  subDt,
		TimeFraction:           1 / float64(n),
		Tank:                   v.Drive.Kind == DRIVE_TANK,
		MinLongSlipDenominator: v.MinLongSlipDenominator,
		LoadFilter:             v.LoadFilter,
		ForceFunc:              v.ForceFunc,
	}

	for i := range v.States {
		st := &v.States[i]
		st.Steer = v.plans[i].steer
		st.HitActor = nil
		st.HitActorForce = mgl64.Vec3{}
		st.HitActorForcePosition = mgl64.Vec3{}
		v.loadWheel(i)
	}

	invMass := chassis.InverseMass()
	for s := range n {
		ctx.Chassis = kin

		v.applyBrakes()

		var force, torque mgl64.Vec3
		for i := range v.Wheels {
			st := &v.States[i]
			in := suspension.WheelInput{
				Enabled:            v.enabled[i],
				Steer:              st.Steer,
				Omega:              st.Omega,
				AccelApplied:       v.plans[i].accelOn,
				BrakeApplied:       v.wheels[i].BrakeApplied,
				IntentToAccelerate: intent,
				Contact:            v.contacts[i],
			}
			res := suspension.Process(&v.Wheels[i], &ctx, &in, st)
			commitResult(st, &res)

			force = force.Add(res.Force)
			torque = torque.Add(res.Torque)
			v.wheels[i].TireTorque = res.TireTorque
			if s == 0 {
				v.constraint.AddWheel(&st.Result, dt)
			}
		}

		engineTorque, warning := v.stepDrivetrain(subDt, accel)
		if warning != drivetrain.WarningNone {
			out.Warning = warning
		}

		for i := range v.Wheels {
			st := &v.States[i]
			st.Omega = v.wheels[i].Omega
			st.Angle, st.CorrectedOmega = v.integrateWheelAngle(i, subDt, v.driveTorqueOn(i, engineTorque))
		}

		integrateChassis(&kin, force, torque, invMass, chassis.InverseInertiaLocal, subDt)

		if env.Trace {
			out.Trace = append(out.Trace, SubstepTrace{
				Index:             s,
				SubDt:             subDt,
				EngineOmega:       v.EngineOmega,
				EngineDriveTorque: engineTorque,
				Gear:              v.Gearbox.Current,
				ChassisVelocity:   kin.Velocity,
				Warning:           warning,
			})
		}
	}

	switch env.Mode {
	case UpdateModeAcceleration:
		out.LinearDelta = kin.Velocity.Sub(v0).Mul(1 / dt)
		out.AngularDelta = kin.AngularVelocity.Sub(w0).Mul(1 / dt)
	default:
		out.LinearDelta = kin.Velocity
		out.AngularDelta = kin.AngularVelocity
	}

	for i := range v.Wheels {
		out.setWheel(i, &v.Wheels[i], &v.States[i], &v.States[i].Result, v.CentreOfMassOffset)
	}
	out.Substeps = n
	out.EngineOmega = v.EngineOmega
	out.Gear = v.Gearbox.Current
	out.ForwardSpeed = forwardSpeed(&kin)
}

// commitResult stores what the next substep needs from a wheel result.
func commitResult(st *suspension.RuntimeState, res *suspension.Result) {
	st.Result = *res
	st.Jounce = res.Jounce
	st.InAir = res.InAir
	st.LowForwardSpeedTimer = res.LowForwardSpeedTimer
	st.LowSideSpeedTimer = res.LowSideSpeedTimer

	// in the air this is the max droop, so landing is damped from full droop
	st.PrevJounce = res.Jounce

	if res.HitActor != nil && res.HitActorForce != (mgl64.Vec3{}) {
		st.HitActor = res.HitActor
		st.HitActorForce = st.HitActorForce.Add(res.HitActorForce)
		st.HitActorForcePosition = res.HitActorForcePosition
	}
}

// loadWheel copies the constant wheel data into the drivetrain scratch.
func (v *Vehicle) loadWheel(i int) {
	w := &v.Wheels[i].Wheel
	v.wheels[i] = drivetrain.Wheel{
		RecipMOI:     w.RecipMOI(),
		DampingRate:  w.DampingRate,
		Radius:       w.Radius,
		Ratio:        v.ratios[i],
		Contribution: v.contributions[i],
		Gearing:      v.gearings[i],
		Enabled:      v.enabled[i],
		Omega:        v.States[i].Omega,
	}
}

func (v *Vehicle) applyBrakes() {
	for i := range v.wheels {
		w := &v.wheels[i]
		p := &v.plans[i]
		if p.raw {
			w.BrakeTorque, w.BrakeApplied = drivetrain.RawBrakeTorque(w.Omega, p.rawBrake)
			continue
		}
		ws := &v.Wheels[i].Wheel
		w.BrakeTorque, w.BrakeApplied = drivetrain.BrakeTorque(w.Omega, p.brake, ws.MaxBrakeTorque, p.handbrake, ws.MaxHandBrakeTorque)
	}
}

// stepDrivetrain advances the wheel and engine speeds by one substep and
// returns the engine drive torque.
func (v *Vehicle) stepDrivetrain(subDt, accel float64) (float64, drivetrain.Warning) {
	if v.Drive.Kind == DRIVE_NONE {
		for i := range v.wheels {
			drivetrain.IntegrateNoDrive(&v.wheels[i], v.plans[i].rawDrive, subDt)
		}
		return 0, drivetrain.WarningNone
	}

	eng := &v.Drive.Engine
	inGear := v.Gearbox.InGear()
	in := drivetrain.Input{
		SubDt:             subDt,
		K:                 eng.Clutch.StrengthInGear(inGear),
		G:                 v.Gearbox.Ratio(&eng.Gears),
		Mode:              eng.Clutch.AccuracyMode,
		MaxIterations:     eng.Clutch.EstimateIterations,
		EngineOmega:       v.EngineOmega,
		EngineDriveTorque: eng.Engine.DriveTorque(v.EngineOmega, accel),
		EngineDampingRate: eng.Engine.DampingRate(inGear, accel),
		EngineRecipMOI:    eng.Engine.RecipMOI(),
		MaxEngineOmega:    eng.Engine.MaxOmega,
	}

	var warning drivetrain.Warning
	switch v.Drive.Kind {
	case DRIVE_4W:
		var omegas [4]float64
		for i := range omegas {
			omegas[i] = v.wheels[i].Omega
		}
		ratios := v.Drive.Diff4W.TorqueRatios(v.Controls.Handbrake, omegas)
		for i := range ratios {
			v.wheels[i].Ratio = ratios[i]
		}
		v.EngineOmega, warning = v.solver.SolveWheeled(&in, v.wheels[:4])
		for i := 4; i < len(v.wheels); i++ {
			drivetrain.IntegrateUndriven(&v.wheels[i], subDt)
		}
	case DRIVE_NW:
		v.EngineOmega, warning = v.solver.SolveWheeled(&in, v.wheels)
	case DRIVE_TANK:
		v.EngineOmega, warning = v.solver.SolveTank(&in, v.wheels)
	}

	return in.EngineDriveTorque * in.K * in.G, warning
}

// driveTorqueOn is the share of the engine torque reaching a wheel, as
// seen by the wheel angle integration.
func (v *Vehicle) driveTorqueOn(i int, engineTorque float64) float64 {
	if v.plans[i].raw {
		return v.plans[i].rawDrive
	}
	if v.plans[i].undriven {
		return 0
	}
	return v.wheels[i].Ratio * engineTorque
}

// integrateWheelAngle returns the new rolling angle and the speed used for it.
// A slow rolling wheel which is neither driven nor braked blends its speed
// towards the rolling speed of the ground, so it doesn't jitter at rest.
func (v *Vehicle) integrateWheelAngle(i int, subDt, driveTorque float64) (float64, float64) {
	st := &v.States[i]
	ws := &v.Wheels[i]
	omega := st.Omega

	speed := st.Result.ForwardSpeed
	if st.Jounce > -ws.Suspension.MaxDroop && !v.wheels[i].BrakeApplied && driveTorque == 0 &&
		math.Abs(speed) < blendSpeed && ws.Wheel.Radius > 0 {
		alpha := math.Abs(speed) / blendSpeed
		omega = speed/ws.Wheel.Radius*(1-alpha) + omega*alpha
	}

	return wrapWheelAngle(st.Angle + omega*subDt), omega
}
