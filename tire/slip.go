package tire

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MinLatSpeed keeps the lateral slip finite when the tire barely rolls.
	MinLatSpeed = 1.0
	// AppliedTorqueSlipOffset is added to the long slip denominator while
	// the wheel is driven or braked.
	AppliedTorqueSlipOffset = 0.1
	// DefaultMinLongSlipDenominator bounds the coasting long slip denominator.
	DefaultMinLongSlipDenominator = 4.0
)

// Dirs computes the longitudinal and lateral tire axes in the contact plane.
// chassisLat is the chassis right axis in world space and normal the
// contact plane normal, both unit length.
func Dirs(chassisLat, normal mgl64.Vec3, steer float64) (long, lat mgl64.Vec3) {
	tz := chassisLat.Cross(normal).Normalize()
	tx := normal.Cross(tz).Normalize()

	c, s := math.Cos(steer), math.Sin(steer)
	long = tz.Mul(c).Add(tx.Mul(s))
	lat = tx.Mul(c).Sub(tz.Mul(s))

	return long, lat
}

// SlipInput describes the contact kinematics of one wheel.
type SlipInput struct {
	LongSpeed   float64
	LatSpeed    float64
	WheelOmega  float64
	WheelRadius float64
	// MinLongSlipDenominator bounds the denominator while coasting.
	MinLongSlipDenominator float64
	AccelApplied           bool
	BrakeApplied           bool
	Tank                   bool
}

// Slips returns the longitudinal and lateral slips.
func Slips(in SlipInput) (longSlip, latSlip float64) {
	longSpeedAbs := math.Abs(in.LongSpeed)
	wheelSpeed := in.WheelOmega * in.WheelRadius
	wheelSpeedAbs := math.Abs(wheelSpeed)

	latSlip = math.Atan(in.LatSpeed / (longSpeedAbs + MinLatSpeed))

	if in.LongSpeed == 0 && in.WheelOmega == 0 {
		return 0, latSlip
	}

	var denom float64
	switch {
	case (in.AccelApplied || in.BrakeApplied) && in.Tank:
		// tanks turn on the spot: slipping tracks need force while at rest
		denom = longSpeedAbs + AppliedTorqueSlipOffset
	case in.AccelApplied || in.BrakeApplied:
		denom = math.Max(longSpeedAbs, wheelSpeedAbs) + AppliedTorqueSlipOffset
	default:
		denom = math.Max(in.MinLongSlipDenominator, math.Max(longSpeedAbs, wheelSpeedAbs))
	}
	if denom <= 0 {
		return 0, latSlip
	}

	return (wheelSpeed - in.LongSpeed) / denom, latSlip
}
