package traction

import (
	"errors"
	"fmt"
	"math"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/constraint"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/gearbox"
	"github.com/akmonengine/traction/suspension"
	"github.com/akmonengine/traction/tire"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrNoChassis    = errors.New("traction: vehicle has no chassis")
	ErrNoWheels     = errors.New("traction: vehicle has no wheels")
	ErrTooFewWheels = errors.New("traction: a 4W drive needs at least 4 wheels")
	ErrWheelIndex   = errors.New("traction: wheel index out of range")
)

// SubstepSettings choose the number of substeps from the forward speed.
type SubstepSettings struct {
	ThresholdLongSpeed float64
	LowSubsteps        int
	HighSubsteps       int
}

func DefaultSubstepSettings() SubstepSettings {
	return SubstepSettings{
		ThresholdLongSpeed: 5.0,
		LowSubsteps:        3,
		HighSubsteps:       1,
	}
}

// Count returns the number of substeps for a forward speed (m/s).
func (s SubstepSettings) Count(forwardSpeed float64) int {
	if forwardSpeed < s.ThresholdLongSpeed && forwardSpeed > -s.ThresholdLongSpeed {
		return max(1, s.LowSubsteps)
	}
	return max(1, s.HighSubsteps)
}

// VehicleDesc is everything needed to build a vehicle.
// Zero settings are replaced by their defaults.
type VehicleDesc struct {
	Name    string
	Chassis *actor.RigidBody
	Wheels  []suspension.WheelSim
	Drive   Drive

	Substeps               SubstepSettings
	LoadFilter             tire.LoadFilter
	MinLongSlipDenominator float64
	// ForceFunc replaces the default tire model
	ForceFunc tire.ForceFunc

	// CentreOfMassOffset is the centre of mass in the chassis actor frame.
	// Wheel offsets are relative to the centre of mass, wheel poses to the actor.
	CentreOfMassOffset mgl64.Vec3
	// ComputeSprungMasses splits the chassis mass between the wheels
	ComputeSprungMasses bool
	// ReuseContacts skips the suspension raycasts and keeps the cached contact planes
	ReuseContacts bool
}

type Vehicle struct {
	Name    string
	Chassis *actor.RigidBody
	Wheels  []suspension.WheelSim
	States  []suspension.RuntimeState
	Drive   Drive

	Controls        Controls
	TankControls    TankControls
	NoDriveControls NoDriveControls

	Gearbox     gearbox.State
	EngineOmega float64

	Substeps               SubstepSettings
	LoadFilter             tire.LoadFilter
	MinLongSlipDenominator float64
	ForceFunc              tire.ForceFunc
	CentreOfMassOffset     mgl64.Vec3
	ReuseContacts          bool

	enabled    []bool
	output     Output
	solver     drivetrain.Solver
	constraint *constraint.VehicleConstraint

	// per update scratch
	contacts      []suspension.Contact
	plans         []wheelPlan
	wheels        []drivetrain.Wheel
	contributions []float64
	ratios        []float64
	gearings      []float64

	// raycast scratch, filled by the world
	hits       []suspension.Hit
	candidates []int
	seen       []bool
}

func NewVehicle(desc VehicleDesc) (*Vehicle, error) {
	n := len(desc.Wheels)
	switch {
	case desc.Chassis == nil:
		return nil, ErrNoChassis
	case desc.Chassis.BodyType == actor.BodyTypeKinematic:
		return nil, ErrKinematicChassis
	case n == 0:
		return nil, ErrNoWheels
	case desc.Drive.Kind == DRIVE_4W && n < 4:
		return nil, ErrTooFewWheels
	case desc.Drive.Kind == DRIVE_TANK && n%2 != 0:
		return nil, fmt.Errorf("%w: %d wheels", ErrTankWheelCount, n)
	}

	if desc.Drive.hasEngine() {
		if err := desc.Drive.Engine.Gears.Validate(); err != nil {
			return nil, err
		}
		if err := desc.Drive.Engine.AutoBox.Validate(&desc.Drive.Engine.Gears); err != nil {
			return nil, err
		}
	}
	if desc.Drive.Kind == DRIVE_NW && desc.Drive.DiffNW == nil {
		desc.Drive.DiffNW = drivetrain.NewDiffNW(n)
	}

	v := &Vehicle{
		Name:                   desc.Name,
		Chassis:                desc.Chassis,
		Wheels:                 append([]suspension.WheelSim(nil), desc.Wheels...),
		States:                 make([]suspension.RuntimeState, n),
		Drive:                  desc.Drive,
		Gearbox:                gearbox.NewState(),
		Substeps:               desc.Substeps,
		LoadFilter:             desc.LoadFilter,
		MinLongSlipDenominator: desc.MinLongSlipDenominator,
		ForceFunc:              desc.ForceFunc,
		CentreOfMassOffset:     desc.CentreOfMassOffset,
		ReuseContacts:          desc.ReuseContacts,
		enabled:                make([]bool, n),
		constraint:             constraint.NewVehicleConstraint(desc.Chassis),
		contacts:               make([]suspension.Contact, n),
		plans:                  make([]wheelPlan, n),
		wheels:                 make([]drivetrain.Wheel, n),
		contributions:          make([]float64, n),
		ratios:                 make([]float64, n),
		gearings:               make([]float64, n),
		hits:                   make([]suspension.Hit, n),
	}

	if v.Substeps == (SubstepSettings{}) {
		v.Substeps = DefaultSubstepSettings()
	}
	if v.LoadFilter == (tire.LoadFilter{}) {
		v.LoadFilter = tire.DefaultLoadFilter()
	}
	if v.MinLongSlipDenominator <= 0 {
		v.MinLongSlipDenominator = tire.DefaultMinLongSlipDenominator
	}
	if desc.Drive.Kind == DRIVE_NONE {
		v.NoDriveControls = NewNoDriveControls(n)
	}

	if desc.ComputeSprungMasses {
		coords := make([]mgl64.Vec3, n)
		for i := range v.Wheels {
			coords[i] = v.Wheels[i].Geometry.WheelCentreOffset
		}
		masses, err := suspension.ComputeSprungMasses(coords, mgl64.Vec3{}, desc.Chassis.Material.GetMass(), 1)
		if err != nil {
			return nil, fmt.Errorf("vehicle %s: %w", desc.Name, err)
		}
		for i := range v.Wheels {
			v.Wheels[i].Suspension.SprungMass = masses[i]
		}
	}

	for i := range v.States {
		v.States[i] = suspension.NewRuntimeState()
		v.enabled[i] = true
	}
	v.output.reset(n)

	return v, nil
}

func (v *Vehicle) NbWheels() int {
	return len(v.Wheels)
}

// SetWheelDisabled takes a wheel out of the simulation: it is posed in the
// air and stops spinning. The drive must not send it any torque.
func (v *Vehicle) SetWheelDisabled(wheel int, disabled bool) error {
	if wheel < 0 || wheel >= len(v.Wheels) {
		return fmt.Errorf("%w: %d", ErrWheelIndex, wheel)
	}

	v.enabled[wheel] = !disabled
	if disabled {
		v.States[wheel].Omega = 0
		v.States[wheel].CorrectedOmega = 0
	}

	return nil
}

func (v *Vehicle) IsWheelDisabled(wheel int) bool {
	return wheel >= 0 && wheel < len(v.enabled) && !v.enabled[wheel]
}

// SetToRestState stops the engine and the wheels, and forgets the cached contacts.
// A gear change in progress completes immediately.
func (v *Vehicle) SetToRestState() {
	for i := range v.States {
		v.States[i].Reset()
	}
	v.EngineOmega = 0
	if v.Drive.hasEngine() {
		_ = v.Gearbox.ForceGearChange(&v.Drive.Engine.Gears, v.Gearbox.Target)
	}
	v.Gearbox.AutoBoxTimer = 0
}

// Output returns the result of the last update.
func (v *Vehicle) Output() *Output {
	return &v.output
}

// ForwardSpeed is the chassis velocity along its forward axis (m/s).
func (v *Vehicle) ForwardSpeed() float64 {
	return v.Chassis.Velocity.Dot(v.Chassis.Transform.Rotation.Rotate(suspension.Forward))
}

// EngineRPM converts the engine speed to revolutions per minute.
func (v *Vehicle) EngineRPM() float64 {
	return v.EngineOmega * 60 / (2 * math.Pi)
}

// onDynamicActor reports whether an enabled wheel touches a dynamic body.
func (v *Vehicle) onDynamicActor(contacts []suspension.Contact) bool {
	for i := range contacts {
		a := contacts[i].Actor
		if v.enabled[i] && contacts[i].Count > 0 && a != nil && a.BodyType == actor.BodyTypeDynamic {
			return true
		}
	}
	return false
}

func (v *Vehicle) finiteInput() bool {
	switch v.Drive.Kind {
	case DRIVE_TANK:
		return v.TankControls.finiteInput()
	case DRIVE_NONE:
		return v.NoDriveControls.finiteInput()
	default:
		return v.Controls.finiteInput()
	}
}
