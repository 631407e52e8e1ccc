package traction

import (
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/gearbox"
)

// DriveKind selects how the wheels of a vehicle are driven.
type DriveKind uint8

const (
	// DRIVE_4W is a car with an engine, a gearbox and a 4 wheels differential.
	// Wheels from the fifth onwards are undriven.
	DRIVE_4W DriveKind = iota
	// DRIVE_NW shares the engine torque equally between any set of driven wheels
	DRIVE_NW
	// DRIVE_TANK drives two tracks, even wheels on the left and odd wheels on the right
	DRIVE_TANK
	// DRIVE_NONE takes raw drive torques, brake torques and steer angles per wheel
	DRIVE_NONE
)

func (k DriveKind) String() string {
	switch k {
	case DRIVE_4W:
		return "4W"
	case DRIVE_NW:
		return "NW"
	case DRIVE_TANK:
		return "TANK"
	case DRIVE_NONE:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// Engine groups everything between the engine and the differential.
type Engine struct {
	Engine  drivetrain.Engine
	Gears   gearbox.Gears
	Clutch  drivetrain.Clutch
	AutoBox gearbox.AutoBox
}

func DefaultEngine() Engine {
	gears := gearbox.DefaultGears()

	return Engine{
		Engine:  drivetrain.DefaultEngine(),
		Gears:   gears,
		Clutch:  drivetrain.DefaultClutch(),
		AutoBox: gearbox.DefaultAutoBox(gears.NbRatios()),
	}
}

// Drive is the drive of a vehicle. Only the fields of its Kind are used.
type Drive struct {
	Kind DriveKind

	// Engine is shared by DRIVE_4W, DRIVE_NW and DRIVE_TANK
	Engine Engine

	Diff4W    drivetrain.Diff4W
	Ackermann drivetrain.Ackermann

	DiffNW *drivetrain.DiffNW

	TankModel drivetrain.TankModel
}

func NewDrive4W() Drive {
	return Drive{
		Kind:      DRIVE_4W,
		Engine:    DefaultEngine(),
		Diff4W:    drivetrain.DefaultDiff4W(),
		Ackermann: drivetrain.DefaultAckermann(),
	}
}

// NewDriveNW drives the given wheels out of nbWheels.
func NewDriveNW(nbWheels int, driven ...int) Drive {
	diff := drivetrain.NewDiffNW(nbWheels)
	for _, wheel := range driven {
		diff.SetDriven(wheel, true)
	}

	return Drive{
		Kind:   DRIVE_NW,
		Engine: DefaultEngine(),
		DiffNW: diff,
	}
}

func NewDriveTank(model drivetrain.TankModel) Drive {
	return Drive{
		Kind:      DRIVE_TANK,
		Engine:    DefaultEngine(),
		TankModel: model,
	}
}

func NewNoDrive() Drive {
	return Drive{Kind: DRIVE_NONE}
}

func (d *Drive) hasEngine() bool {
	return d.Kind != DRIVE_NONE
}
