package tire

import "math"

const (
	StickyThresholdSpeed = 0.2
	StickyForwardDamping = 0.01
	StickySideDamping    = 0.1
	LowForwardSpeedTime  = 1.0
	LowSideSpeedTime     = 1.0
)

// UpdateLowForwardSpeedTimer accumulates dt while the contact barely moves
// forward and the wheel barely spins, and resets otherwise.
func UpdateLowForwardSpeedTimer(longSpeed, wheelOmega, wheelRadius float64, intentToAccelerate bool, dt, timer float64) float64 {
	if math.Abs(longSpeed) < StickyThresholdSpeed &&
		math.Abs(wheelOmega)*wheelRadius < StickyThresholdSpeed &&
		!intentToAccelerate {
		return timer + dt
	}

	return 0
}

// UpdateLowSideSpeedTimer accumulates dt while the contact barely slides sideways.
func UpdateLowSideSpeedTimer(latSpeed float64, intentToAccelerate bool, dt, timer float64) float64 {
	if math.Abs(latSpeed) < StickyThresholdSpeed && !intentToAccelerate {
		return timer + dt
	}

	return 0
}

// StickyForward reports whether the forward sticky constraint is active and
// its target speed along the longitudinal axis, hit actor motion excluded.
func StickyForward(longSpeed, wheelOmega, lowForwardTimer float64, intentToAccelerate bool) (bool, float64) {
	if (math.Abs(longSpeed) < StickyThresholdSpeed && wheelOmega == 0 && !intentToAccelerate) ||
		lowForwardTimer > LowForwardSpeedTime {
		return true, longSpeed * StickyForwardDamping
	}

	return false, 0
}

// StickySide reports whether the side sticky constraint is active and its
// target speed along the lateral axis.
func StickySide(latSpeed, lowForwardTimer, lowSideTimer float64) (bool, float64) {
	if lowForwardTimer > 0 && lowSideTimer > LowSideSpeedTime {
		return true, latSpeed * StickySideDamping
	}

	return false, 0
}
