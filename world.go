package traction

import (
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/friction"
	"github.com/akmonengine/traction/gearbox"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
)

const (
	DEFAULT_WORKERS   = 1
	DEFAULT_CELL_SIZE = 4.0
	DEFAULT_CELLS     = 1024

	sleepTimeThreshold     = 0.1
	sleepVelocityThreshold = 0.05
)

type World struct {
	// List of all rigid bodies in the world, vehicle chassis included
	Bodies   []*actor.RigidBody
	Vehicles []*Vehicle
	// Gravity acceleration (m/s², or N/kg)
	Gravity     mgl64.Vec3
	SpatialGrid *SpatialGrid
	Workers     int

	UpdateMode    UpdateMode
	FrictionTable *friction.Table
	// Observer is optional. Substep traces are only recorded while one is set.
	Observer Observer
	Logger   zerolog.Logger

	Events Events
}

func NewWorld(gravity mgl64.Vec3) *World {
	return &World{
		Gravity:     gravity,
		SpatialGrid: NewSpatialGrid(DEFAULT_CELL_SIZE, DEFAULT_CELLS),
		Workers:     DEFAULT_WORKERS,
		Logger:      zerolog.Nop(),
		Events:      NewEvents(),
	}
}

// AddBody adds a rigid body to the world
func (w *World) AddBody(body *actor.RigidBody) {
	w.Bodies = append(w.Bodies, body)
}

// RemoveBody removes a rigid body from the world
func (w *World) RemoveBody(body *actor.RigidBody) {
	k := -1
	for i, b := range w.Bodies {
		if b == body {
			k = i
			break
		}
	}

	if k != -1 {
		w.Bodies = append(w.Bodies[:k], w.Bodies[k+1:]...)
	}
}

// AddVehicle adds a vehicle, and its chassis if the world doesn't hold it yet.
func (w *World) AddVehicle(v *Vehicle) {
	w.Vehicles = append(w.Vehicles, v)
	for _, b := range w.Bodies {
		if b == v.Chassis {
			return
		}
	}
	w.AddBody(v.Chassis)
}

// RemoveVehicle removes a vehicle. Its chassis stays in the world as a plain body.
func (w *World) RemoveVehicle(v *Vehicle) {
	k := -1
	for i, other := range w.Vehicles {
		if other == v {
			k = i
			break
		}
	}

	if k != -1 {
		w.Vehicles = append(w.Vehicles[:k], w.Vehicles[k+1:]...)
	}
	w.Events.forget(v)
}

func (w *World) Step(dt float64) {
	if dt <= 0 {
		w.Logger.Error().Float64("dt", dt).Msg("step skipped: timestep must be positive")
		return
	}
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	if w.SpatialGrid == nil {
		w.SpatialGrid = NewSpatialGrid(DEFAULT_CELL_SIZE, DEFAULT_CELLS)
	}
	if w.Events.listeners == nil {
		w.Events = NewEvents()
	}

	env := Environment{
		Gravity:       w.Gravity,
		FrictionTable: w.FrictionTable,
		Mode:          w.UpdateMode,
		Trace:         w.Observer != nil,
	}

	// Phase 1: suspension raycasts, read only on the bodies
	w.SpatialGrid.Rebuild(w.Bodies)
	w.castWheels()

	// Phase 2: vehicle updates, each one writing only its own output
	w.updateVehicles(dt, &env)

	// Phase 3: apply the outputs in order
	w.apply(dt)

	// Phase 4: sticky tires and suspension limits
	w.solveConstraints(dt)

	// Phase 5: gravity and pose
	w.integrate(dt)
	w.trySleep(dt)

	w.Events.processSleepEvents(w.Vehicles)
	w.Events.flush()
}

func (w *World) castWheels() {
	task(w.Workers, w.Vehicles, func(v *Vehicle) {
		if !v.ReuseContacts {
			w.castVehicle(v)
		}
	})
}

func (w *World) updateVehicles(dt float64, env *Environment) {
	task(w.Workers, w.Vehicles, func(v *Vehicle) {
		hits := v.hits
		if v.ReuseContacts {
			hits = nil
		}
		// the error is kept in the output, reported by the apply pass
		_ = v.Update(dt, env, hits)
	})
}

func (w *World) apply(dt float64) {
	for _, v := range w.Vehicles {
		out := v.Output()
		w.log(v, out)
		w.Events.recordVehicle(v)
		if w.Observer != nil {
			notify(w.Observer, v, out)
		}

		if !out.Applied() {
			continue
		}
		if out.Wake {
			v.Chassis.Awake()
		}

		switch out.Mode {
		case UpdateModeAcceleration:
			v.Chassis.Velocity = v.Chassis.Velocity.Add(out.LinearDelta.Mul(dt))
			v.Chassis.AngularVelocity = v.Chassis.AngularVelocity.Add(out.AngularDelta.Mul(dt))
		default:
			v.Chassis.Velocity = out.LinearDelta
			v.Chassis.AngularVelocity = out.AngularDelta
		}

		for i := range v.States {
			st := &v.States[i]
			if st.HitActor != nil {
				st.HitActor.AddForceAtPosition(st.HitActorForce, st.HitActorForcePosition)
			}
		}
	}
}

func (w *World) log(v *Vehicle, out *Output) {
	switch {
	case out.Skipped:
		w.Logger.Error().Err(out.Err).Str("vehicle", v.Name).Msg("vehicle update skipped")
		return
	case out.Asleep:
		return
	}

	if out.Warning != drivetrain.WarningNone {
		w.Logger.Warn().
			Str("vehicle", v.Name).
			Stringer("warning", out.Warning).
			Float64("engine_omega", out.EngineOmega).
			Msg("drivetrain solver")
	}
	if out.Gear != out.PreviousGear {
		w.Logger.Debug().
			Str("vehicle", v.Name).
			Str("from", gearbox.GearName(out.PreviousGear)).
			Str("to", gearbox.GearName(out.Gear)).
			Msg("gear change")
	}
}

func (w *World) solveConstraints(dt float64) {
	task(w.Workers, w.Vehicles, func(v *Vehicle) {
		if v.Output().Applied() {
			v.constraint.SolveVelocity(dt)
		}
	})
}

func (w *World) integrate(dt float64) {
	task(w.Workers, w.Bodies, func(body *actor.RigidBody) {
		body.Integrate(dt, w.Gravity)
	})
}

// trySleep sets the body to sleep if its velocity is lower than the threshold, for a given duration
// this method is too simple to use a task, it slows down in multiple goroutines
func (w *World) trySleep(dt float64) {
	for _, body := range w.Bodies {
		body.TrySleep(dt, sleepTimeThreshold, sleepVelocityThreshold)
	}
}
