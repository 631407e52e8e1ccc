package traction

import (
	"errors"
	"fmt"

	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/gearbox"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	ErrAcceleratorRange      = errors.New("traction: accelerator must be in [0, 1]")
	ErrBrakeRange            = errors.New("traction: brake must be in [0, 1]")
	ErrHandbrakeRange        = errors.New("traction: handbrake must be in [0, 1]")
	ErrSteerRange            = errors.New("traction: steer must be in [-1, 1]")
	ErrThrustRange           = errors.New("traction: thrust out of range for the tank model")
	ErrThrustBrakeConflict   = errors.New("traction: a standard tank can't thrust and brake the same track")
	ErrBrakeTorque           = errors.New("traction: brake torques must be positive")
	ErrControlsLength        = errors.New("traction: one control value per wheel is required")
	ErrKinematicChassis      = errors.New("traction: the chassis can't be kinematic")
	ErrDisabledWheelTorque   = errors.New("traction: the drive sends torque to a disabled wheel")
	ErrDisabledWheelSpinning = errors.New("traction: a disabled wheel must not spin")
	ErrTankWheelCount        = errors.New("traction: a tank needs as many left wheels as right wheels")
	ErrNonPositiveTimestep   = errors.New("traction: timestep must be positive")
	ErrNoGravity             = errors.New("traction: gravity must not be zero")
)

// Analog inputs get a small tolerance around their range.
const (
	analogMin = -0.01
	analogMax = 1.01
	steerMin  = -1.01
	steerMax  = 1.01
)

func inRange(x, lo, hi float64) bool {
	return x > lo && x < hi
}

// validate gathers every reason not to run the update.
func (v *Vehicle) validate(dt float64, gravity mgl64.Vec3) error {
	var errs []error

	if dt <= 0 {
		errs = append(errs, fmt.Errorf("%w: %v", ErrNonPositiveTimestep, dt))
	}
	if gravity.Len() == 0 {
		errs = append(errs, ErrNoGravity)
	}
	if v.Chassis.BodyType == actor.BodyTypeKinematic {
		errs = append(errs, ErrKinematicChassis)
	}

	for i := range v.States {
		if !v.enabled[i] && v.States[i].Omega != 0 {
			errs = append(errs, fmt.Errorf("%w: wheel %d", ErrDisabledWheelSpinning, i))
		}
	}

	if v.Drive.hasEngine() {
		gears := &v.Drive.Engine.Gears
		if v.Gearbox.Current < 0 || v.Gearbox.Current >= gears.NbRatios() {
			errs = append(errs, fmt.Errorf("%w: current %d", gearbox.ErrInvalidGear, v.Gearbox.Current))
		}
		if v.Gearbox.Target < 0 || v.Gearbox.Target >= gears.NbRatios() {
			errs = append(errs, fmt.Errorf("%w: target %d", gearbox.ErrInvalidGear, v.Gearbox.Target))
		}
	}

	switch v.Drive.Kind {
	case DRIVE_4W:
		errs = append(errs, v.Controls.validate()...)
		contributions := v.Drive.Diff4W.Contributions(v.Controls.Handbrake)
		for i := range contributions {
			if !v.enabled[i] && contributions[i] != 0 {
				errs = append(errs, fmt.Errorf("%w: wheel %d", ErrDisabledWheelTorque, i))
			}
		}
	case DRIVE_NW:
		errs = append(errs, v.Controls.validate()...)
	case DRIVE_TANK:
		errs = append(errs, v.TankControls.validate(v.Drive.TankModel)...)
		if len(v.Wheels)%2 != 0 {
			errs = append(errs, ErrTankWheelCount)
		}
	case DRIVE_NONE:
		errs = append(errs, v.NoDriveControls.validate(v.enabled)...)
	}

	return errors.Join(errs...)
}

func (c *Controls) validate() []error {
	var errs []error
	if !inRange(c.Accel, analogMin, analogMax) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrAcceleratorRange, c.Accel))
	}
	if !inRange(c.Brake, analogMin, analogMax) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrBrakeRange, c.Brake))
	}
	if !inRange(c.Handbrake, analogMin, analogMax) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrHandbrakeRange, c.Handbrake))
	}
	if !inRange(c.SteerLeft, steerMin, steerMax) || !inRange(c.SteerRight, steerMin, steerMax) {
		errs = append(errs, fmt.Errorf("%w: left %v, right %v", ErrSteerRange, c.SteerLeft, c.SteerRight))
	} else if !inRange(c.Steer(), steerMin, steerMax) {
		errs = append(errs, fmt.Errorf("%w: combined %v", ErrSteerRange, c.Steer()))
	}
	return errs
}

func (c *TankControls) validate(model drivetrain.TankModel) []error {
	var errs []error
	if !inRange(c.Accel, analogMin, analogMax) {
		errs = append(errs, fmt.Errorf("%w: %v", ErrAcceleratorRange, c.Accel))
	}
	if !inRange(c.BrakeLeft, analogMin, analogMax) || !inRange(c.BrakeRight, analogMin, analogMax) {
		errs = append(errs, fmt.Errorf("%w: left %v, right %v", ErrBrakeRange, c.BrakeLeft, c.BrakeRight))
	}

	thrustMin := analogMin
	if model == drivetrain.TankSpecial {
		thrustMin = steerMin
	}
	if !inRange(c.ThrustLeft, thrustMin, analogMax) || !inRange(c.ThrustRight, thrustMin, analogMax) {
		errs = append(errs, fmt.Errorf("%w: %v left %v, right %v", ErrThrustRange, model, c.ThrustLeft, c.ThrustRight))
	}

	if model == drivetrain.TankStandard && (c.ThrustLeft*c.BrakeLeft != 0 || c.ThrustRight*c.BrakeRight != 0) {
		errs = append(errs, ErrThrustBrakeConflict)
	}
	return errs
}

func (c *NoDriveControls) validate(enabled []bool) []error {
	n := len(enabled)
	if len(c.DriveTorques) != n || len(c.BrakeTorques) != n || len(c.SteerAngles) != n {
		return []error{fmt.Errorf("%w: %d wheels", ErrControlsLength, n)}
	}

	var errs []error
	for i := range enabled {
		if c.BrakeTorques[i] < 0 {
			errs = append(errs, fmt.Errorf("%w: wheel %d", ErrBrakeTorque, i))
		}
		if !enabled[i] && c.DriveTorques[i] != 0 {
			errs = append(errs, fmt.Errorf("%w: wheel %d", ErrDisabledWheelTorque, i))
		}
	}
	return errs
}
