// Package drivetrain couples the engine to the driven wheels through the
// clutch, the gearbox ratio and a differential, and integrates the resulting
// angular speeds with an implicit step.
package drivetrain

// CurvePoint is one (x, y) sample of a Curve.
type CurvePoint struct {
	X float64
	Y float64
}

// Curve is a piecewise linear table. Points must be sorted by increasing X.
// Outside of the sampled range the first or last Y is returned.
type Curve []CurvePoint

func (c Curve) Eval(x float64) float64 {
	if len(c) == 0 {
		return 0
	}
	if x <= c[0].X {
		return c[0].Y
	}

	last := len(c) - 1
	if x >= c[last].X {
		return c[last].Y
	}

	for i := 1; i <= last; i++ {
		if x < c[i].X {
			p0, p1 := c[i-1], c[i]
			dx := p1.X - p0.X
			if dx <= 0 {
				return p1.Y
			}
			return p0.Y + (p1.Y-p0.Y)*(x-p0.X)/dx
		}
	}

	return c[last].Y
}

type Engine struct {
	// TorqueCurve maps the normalized engine speed (omega / MaxOmega)
	// to a fraction of PeakTorque.
	TorqueCurve Curve
	PeakTorque  float64 // N⋅m
	MaxOmega    float64 // rad/s

	DampingRateFullThrottle                 float64
	DampingRateZeroThrottleClutchEngaged    float64
	DampingRateZeroThrottleClutchDisengaged float64

	MOI float64 // kg⋅m²
}

func DefaultEngine() Engine {
	return Engine{
		TorqueCurve: Curve{
			{X: 0.0, Y: 0.8},
			{X: 0.33, Y: 1.0},
			{X: 1.0, Y: 0.8},
		},
		PeakTorque:                              500.0,
		MaxOmega:                                600.0,
		DampingRateFullThrottle:                 0.15,
		DampingRateZeroThrottleClutchEngaged:    2.0,
		DampingRateZeroThrottleClutchDisengaged: 0.35,
		MOI:                                     1.0,
	}
}

func (e *Engine) RecipMOI() float64 {
	if e.MOI <= 0 {
		return 0
	}
	return 1.0 / e.MOI
}

func (e *Engine) RecipMaxOmega() float64 {
	if e.MaxOmega <= 0 {
		return 0
	}
	return 1.0 / e.MaxOmega
}

// DriveTorque is the torque produced at omega for an accelerator in [0, 1].
func (e *Engine) DriveTorque(omega, accel float64) float64 {
	return accel * e.PeakTorque * e.TorqueCurve.Eval(omega*e.RecipMaxOmega())
}

// DampingRate blends the zero throttle and full throttle rates.
// The zero throttle rate depends on whether a gear is engaged.
func (e *Engine) DampingRate(inGear bool, accel float64) float64 {
	zeroThrottle := e.DampingRateZeroThrottleClutchDisengaged
	if inGear {
		zeroThrottle = e.DampingRateZeroThrottleClutchEngaged
	}

	return zeroThrottle + (e.DampingRateFullThrottle-zeroThrottle)*accel
}
