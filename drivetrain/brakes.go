package drivetrain

// Sign returns +1, -1 or 0.
func Sign(f float64) float64 {
	switch {
	case f > 0:
		return 1
	case f < 0:
		return -1
	default:
		return 0
	}
}

// BrakeTorque opposes the wheel rotation with the brake and handbrake inputs.
// A wheel at rest receives no torque, but the brake still counts as applied.
func BrakeTorque(omega, brake, maxBrake, handbrake, maxHandbrake float64) (float64, bool) {
	s := Sign(omega)
	torque := -brake*s*maxBrake - handbrake*s*maxHandbrake
	applied := brake*maxBrake+handbrake*maxHandbrake != 0

	return torque, applied
}

// RawBrakeTorque handles brake torques given directly in N⋅m.
func RawBrakeTorque(omega, raw float64) (float64, bool) {
	return -Sign(omega) * raw, raw != 0
}

// TankBrakeInput picks the left brake for even wheels and the right brake for odd wheels.
func TankBrakeInput(wheel int, brakeLeft, brakeRight float64) float64 {
	if wheel%2 == 0 {
		return brakeLeft
	}
	return brakeRight
}
