package tire

import "math"

// MinSlip is the magnitude under which slips and camber are treated as zero.
const MinSlip = 1e-5

// ForceInput gathers everything the force model needs for one contact.
type ForceInput struct {
	Friction           float64
	LongSlip           float64
	LatSlip            float64
	Camber             float64
	WheelOmega         float64
	WheelRadius        float64
	RestTireLoad       float64
	NormalisedTireLoad float64
	TireLoad           float64
	Gravity            float64 // magnitude of the gravitational acceleration
}

// Force is the result of the tire model, expressed along the tire axes.
type Force struct {
	WheelTorque    float64
	LongForce      float64
	LatForce       float64
	AligningMoment float64
}

// ForceFunc is a pluggable tire model.
type ForceFunc func(data *Data, in ForceInput) Force

// SmoothingFunction1 rises like sqrt(K) and saturates at 1 for K = 3.
func SmoothingFunction1(k float64) float64 {
	return math.Min(1.0, k-k*k/3.0+k*k*k/27.0)
}

// SmoothingFunction2 peaks at K = 0.75 and falls back to zero at K = 3.
func SmoothingFunction2(k float64) float64 {
	return k - k*k + k*k*k/3.0 - k*k*k*k/27.0
}

func clampSlip(x float64) float64 {
	if math.Abs(x) < MinSlip {
		return 0
	}
	return x
}

// ComputeForce is the default combined-slip tire model.
func ComputeForce(data *Data, in ForceInput) Force {
	longSlip := clampSlip(in.LongSlip)
	latSlip := clampSlip(in.LatSlip)
	camber := clampSlip(in.Camber)

	if longSlip == 0 && latSlip == 0 && camber == 0 {
		return Force{}
	}
	if in.Friction <= 0 || in.TireLoad <= 0 || data.LatStiffX <= 0 {
		return Force{}
	}

	latStiff := in.RestTireLoad * data.LatStiffY * SmoothingFunction1(in.NormalisedTireLoad*3.0/data.LatStiffX)
	longStiff := data.LongitudinalStiffnessPerUnitGravity * in.Gravity
	camberStiff := data.CamberStiffnessPerUnitGravity * in.Gravity
	if latStiff <= 0 || longStiff <= 0 {
		return Force{}
	}

	tEff := math.Tan(latSlip - camber*camberStiff/latStiff)
	k := math.Sqrt(latStiff*tEff*latStiff*tEff+longStiff*longSlip*longStiff*longSlip) / (in.Friction * in.TireLoad)
	fBar := SmoothingFunction1(k)
	mBar := SmoothingFunction2(k)

	nu := 1.0
	if k <= 2.0*math.Pi {
		latOverLong := latStiff / longStiff
		nu = 0.5 * (1.0 + latOverLong - (1.0-latOverLong)*math.Cos(k*0.5))
	}

	denom := math.Sqrt(longSlip*longSlip + nu*tEff*nu*tEff)
	if denom == 0 {
		return Force{}
	}
	fZero := in.Friction * in.TireLoad / denom

	fz := longSlip * fBar * fZero
	fx := -nu * tEff * fBar * fZero
	// pneumatic trail of 1
	my := nu * tEff * mBar * fZero

	return Force{
		WheelTorque:    -fz * in.WheelRadius,
		LongForce:      fz,
		LatForce:       fx,
		AligningMoment: my,
	}
}
