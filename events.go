package traction

import (
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/friction"
)

const (
	WHEEL_LANDED EventType = iota
	WHEEL_AIRBORNE
	GEAR_CHANGE
	SOLVER_WARNING
	UPDATE_SKIPPED
	VEHICLE_SLEEP
	VEHICLE_WAKE
)

type EventType uint8

func (t EventType) String() string {
	switch t {
	case WHEEL_LANDED:
		return "WHEEL_LANDED"
	case WHEEL_AIRBORNE:
		return "WHEEL_AIRBORNE"
	case GEAR_CHANGE:
		return "GEAR_CHANGE"
	case SOLVER_WARNING:
		return "SOLVER_WARNING"
	case UPDATE_SKIPPED:
		return "UPDATE_SKIPPED"
	case VEHICLE_SLEEP:
		return "VEHICLE_SLEEP"
	case VEHICLE_WAKE:
		return "VEHICLE_WAKE"
	default:
		return "UNKNOWN"
	}
}

type wheelKey struct {
	vehicle *Vehicle
	wheel   int
}

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Wheel contact events
type WheelLandedEvent struct {
	Vehicle *Vehicle
	Wheel   int
	// Actor is nil on a cached contact
	Actor   *actor.RigidBody
	Surface friction.SurfaceType
}

func (e WheelLandedEvent) Type() EventType { return WHEEL_LANDED }

type WheelAirborneEvent struct {
	Vehicle *Vehicle
	Wheel   int
}

func (e WheelAirborneEvent) Type() EventType { return WHEEL_AIRBORNE }

// Drive events
type GearChangeEvent struct {
	Vehicle *Vehicle
	From    int
	To      int
}

func (e GearChangeEvent) Type() EventType { return GEAR_CHANGE }

type SolverWarningEvent struct {
	Vehicle *Vehicle
	Warning drivetrain.Warning
}

func (e SolverWarningEvent) Type() EventType { return SOLVER_WARNING }

type UpdateSkippedEvent struct {
	Vehicle *Vehicle
	Err     error
}

func (e UpdateSkippedEvent) Type() EventType { return UPDATE_SKIPPED }

// Sleep/Wake events
type SleepEvent struct {
	Vehicle *Vehicle
}

func (e SleepEvent) Type() EventType { return VEHICLE_SLEEP }

type WakeEvent struct {
	Vehicle *Vehicle
}

func (e WakeEvent) Type() EventType { return VEHICLE_WAKE }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Grounded wheels, for Landed/Airborne detection
	previousGrounded map[wheelKey]bool
	currentGrounded  map[wheelKey]bool

	sleepStates map[*Vehicle]bool
}

func NewEvents() Events {
	return Events{
		listeners:        make(map[EventType][]EventListener),
		buffer:           make([]Event, 0, 64),
		previousGrounded: make(map[wheelKey]bool),
		currentGrounded:  make(map[wheelKey]bool),
		sleepStates:      make(map[*Vehicle]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordVehicle buffers the events of the last update of a vehicle.
func (e *Events) recordVehicle(v *Vehicle) {
	out := v.Output()

	if out.Skipped {
		e.buffer = append(e.buffer, UpdateSkippedEvent{Vehicle: v, Err: out.Err})
	}
	if out.Gear != out.PreviousGear {
		e.buffer = append(e.buffer, GearChangeEvent{Vehicle: v, From: out.PreviousGear, To: out.Gear})
	}
	if out.Warning != drivetrain.WarningNone {
		e.buffer = append(e.buffer, SolverWarningEvent{Vehicle: v, Warning: out.Warning})
	}

	for i := range v.States {
		if !v.States[i].InAir {
			e.currentGrounded[wheelKey{vehicle: v, wheel: i}] = true
		}
	}
}

// processWheelEvents compares current and previous grounded wheels
func (e *Events) processWheelEvents() {
	for key := range e.currentGrounded {
		if !e.previousGrounded[key] {
			res := &key.vehicle.States[key.wheel].Result
			e.buffer = append(e.buffer, WheelLandedEvent{
				Vehicle: key.vehicle,
				Wheel:   key.wheel,
				Actor:   res.HitActor,
				Surface: res.Surface,
			})
		}
	}

	for key := range e.previousGrounded {
		if !e.currentGrounded[key] {
			e.buffer = append(e.buffer, WheelAirborneEvent{Vehicle: key.vehicle, Wheel: key.wheel})
		}
	}

	// Swap for next step and clear current
	e.previousGrounded, e.currentGrounded = e.currentGrounded, e.previousGrounded
	clear(e.currentGrounded)
}

func (e *Events) processSleepEvents(vehicles []*Vehicle) {
	for _, v := range vehicles {
		sleeping := v.Chassis.IsSleeping
		trackedState, exists := e.sleepStates[v]
		if !exists {
			e.sleepStates[v] = sleeping
			continue
		}

		if !trackedState && sleeping {
			e.buffer = append(e.buffer, SleepEvent{Vehicle: v})
			e.sleepStates[v] = true
		} else if trackedState && !sleeping {
			e.buffer = append(e.buffer, WakeEvent{Vehicle: v})
			e.sleepStates[v] = false
		}
	}
}

// forget drops the tracking of a removed vehicle, without events.
func (e *Events) forget(v *Vehicle) {
	delete(e.sleepStates, v)
	for key := range e.previousGrounded {
		if key.vehicle == v {
			delete(e.previousGrounded, key)
		}
	}
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	e.processWheelEvents()

	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
