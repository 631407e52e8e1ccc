package drivetrain

import "math"

// Wheel order of a four wheeled drive.
const (
	FrontLeft = iota
	FrontRight
	RearLeft
	RearRight
)

type DiffType int

const (
	DiffLS4WD DiffType = iota
	DiffLSFrontWD
	DiffLSRearWD
	DiffOpen4WD
	DiffOpenFrontWD
	DiffOpenRearWD
)

func (t DiffType) String() string {
	switch t {
	case DiffLS4WD:
		return "LS_4WD"
	case DiffLSFrontWD:
		return "LS_FRONTWD"
	case DiffLSRearWD:
		return "LS_REARWD"
	case DiffOpen4WD:
		return "OPEN_4WD"
	case DiffOpenFrontWD:
		return "OPEN_FRONTWD"
	case DiffOpenRearWD:
		return "OPEN_REARWD"
	default:
		return "UNKNOWN"
	}
}

// Diff4W is the differential of a four wheeled drive.
//
// Splits give the share of torque sent to the front axle and to the left
// wheel of each axle. Biases are the maximum ratio between the faster and
// the slower side of a limited slip differential before it starts moving
// torque towards the slower side.
type Diff4W struct {
	Type DiffType

	FrontRearSplit      float64
	FrontLeftRightSplit float64
	RearLeftRightSplit  float64

	CentreBias float64
	FrontBias  float64
	RearBias   float64
}

func DefaultDiff4W() Diff4W {
	return Diff4W{
		Type:                DiffLS4WD,
		FrontRearSplit:      0.45,
		FrontLeftRightSplit: 0.5,
		RearLeftRightSplit:  0.5,
		CentreBias:          1.3,
		FrontBias:           1.3,
		RearBias:            1.3,
	}
}

// effectiveType drops the rear axle while the handbrake is pulled.
func (d *Diff4W) effectiveType(handbrake float64) DiffType {
	if handbrake <= 0 {
		return d.Type
	}

	switch d.Type {
	case DiffLS4WD:
		return DiffLSFrontWD
	case DiffOpen4WD:
		return DiffOpenFrontWD
	default:
		return d.Type
	}
}

// TorqueRatios splits a unit drive torque between the four wheels.
// Limited slip types use the wheel speeds to move torque away from the
// faster wheels, as long as all the involved wheels turn the same way.
func (d *Diff4W) TorqueRatios(handbrake float64, omegas [4]float64) [4]float64 {
	var ratios [4]float64

	wfl, wfr := omegas[FrontLeft], omegas[FrontRight]
	wrl, wrr := omegas[RearLeft], omegas[RearRight]
	sfl := Sign(wfl)

	switch d.effectiveType(handbrake) {
	case DiffLS4WD:
		if sfl != 0 && sfl == Sign(wfr) && sfl == Sign(wrl) && sfl == Sign(wrr) {
			front, rear := splitTorque(math.Abs(wfl+wfr), math.Abs(wrl+wrr), d.CentreBias, d.FrontRearSplit)
			fl, fr := splitTorque(wfl, wfr, d.FrontBias, d.FrontLeftRightSplit)
			rl, rr := splitTorque(wrl, wrr, d.RearBias, d.RearLeftRightSplit)
			ratios = [4]float64{fl * front, fr * front, rl * rear, rr * rear}
		} else {
			ratios = d.open4WD()
		}

	case DiffLSFrontWD:
		if sfl != 0 && sfl == Sign(wfr) {
			ratios[FrontLeft], ratios[FrontRight] = splitTorque(wfl, wfr, d.FrontBias, d.FrontLeftRightSplit)
		} else {
			ratios[FrontLeft] = d.FrontLeftRightSplit
			ratios[FrontRight] = 1 - d.FrontLeftRightSplit
		}

	case DiffLSRearWD:
		srl := Sign(wrl)
		if srl != 0 && srl == Sign(wrr) {
			ratios[RearLeft], ratios[RearRight] = splitTorque(wrl, wrr, d.RearBias, d.RearLeftRightSplit)
		} else {
			ratios[RearLeft] = d.RearLeftRightSplit
			ratios[RearRight] = 1 - d.RearLeftRightSplit
		}

	case DiffOpen4WD:
		ratios = d.open4WD()

	case DiffOpenFrontWD:
		ratios[FrontLeft] = d.FrontLeftRightSplit
		ratios[FrontRight] = 1 - d.FrontLeftRightSplit

	case DiffOpenRearWD:
		ratios[RearLeft] = d.RearLeftRightSplit
		ratios[RearRight] = 1 - d.RearLeftRightSplit
	}

	return ratios
}

// Contributions returns the weight of each wheel in the average wheel speed
// seen by the clutch. It doesn't depend on the limited slip behaviour.
func (d *Diff4W) Contributions(handbrake float64) [4]float64 {
	var c [4]float64

	switch d.effectiveType(handbrake) {
	case DiffLS4WD, DiffOpen4WD:
		c = d.open4WD()
	case DiffLSFrontWD, DiffOpenFrontWD:
		c[FrontLeft] = d.FrontLeftRightSplit
		c[FrontRight] = 1 - d.FrontLeftRightSplit
	case DiffLSRearWD, DiffOpenRearWD:
		c[RearLeft] = d.RearLeftRightSplit
		c[RearRight] = 1 - d.RearLeftRightSplit
	}

	return c
}

func (d *Diff4W) open4WD() [4]float64 {
	return [4]float64{
		d.FrontRearSplit * d.FrontLeftRightSplit,
		d.FrontRearSplit * (1 - d.FrontLeftRightSplit),
		(1 - d.FrontRearSplit) * d.RearLeftRightSplit,
		(1 - d.FrontRearSplit) * (1 - d.RearLeftRightSplit),
	}
}

// splitTorque shares a unit torque between two shafts turning the same way.
// Once the faster shaft exceeds bias times the slower one, torque moves
// towards the slower shaft. The results always sum to 1.
func splitTorque(w1, w2, bias, split float64) (float64, float64) {
	w1Abs := math.Abs(w1)
	w2Abs := math.Abs(w2)
	omegaMax := math.Max(w1Abs, w2Abs)
	omegaMin := math.Min(w1Abs, w2Abs)

	deltaTorque := 0.0
	if delta := omegaMax - bias*omegaMin; delta >= 0 && omegaMax > 0 {
		deltaTorque = delta / omegaMax
	}

	var f1, f2 float64
	if w1Abs >= w2Abs {
		f1 = split * (1 - deltaTorque)
		f2 = (1 - split) * (1 + deltaTorque)
	} else {
		f1 = split * (1 + deltaTorque)
		f2 = (1 - split) * (1 - deltaTorque)
	}

	sum := f1 + f2
	if sum <= 0 {
		return split, 1 - split
	}

	return f1 / sum, f2 / sum
}

// DiffNW shares the drive torque equally between a set of driven wheels.
type DiffNW struct {
	driven []bool
}

func NewDiffNW(nbWheels int) *DiffNW {
	return &DiffNW{driven: make([]bool, nbWheels)}
}

func (d *DiffNW) SetDriven(wheel int, driven bool) {
	if wheel >= len(d.driven) {
		grown := make([]bool, wheel+1)
		copy(grown, d.driven)
		d.driven = grown
	}
	d.driven[wheel] = driven
}

func (d *DiffNW) IsDriven(wheel int) bool {
	return wheel >= 0 && wheel < len(d.driven) && d.driven[wheel]
}

func (d *DiffNW) NbDriven() int {
	n := 0
	for _, driven := range d.driven {
		if driven {
			n++
		}
	}
	return n
}

// Ratios writes into ratios the equal split over the wheels that are both
// driven and enabled, and returns how many such wheels there are.
// The same values serve as average speed contributions.
func (d *DiffNW) Ratios(enabled []bool, ratios []float64) int {
	n := 0
	for i := range ratios {
		if d.IsDriven(i) && enabled[i] {
			n++
		}
	}

	share := 0.0
	if n > 0 {
		share = 1.0 / float64(n)
	}
	for i := range ratios {
		if d.IsDriven(i) && enabled[i] {
			ratios[i] = share
		} else {
			ratios[i] = 0
		}
	}

	return n
}

type TankModel int

const (
	// TankStandard takes thrusts in [0, 1] and has separate brakes per track
	TankStandard TankModel = iota
	// TankSpecial takes thrusts in [-1, 1]; a negative thrust drives its track backwards
	TankSpecial
)

func (m TankModel) String() string {
	if m == TankSpecial {
		return "SPECIAL"
	}
	return "STANDARD"
}

// TankRatios fills the per wheel contributions, torque ratios and gearings
// of a tank. Even wheels belong to the left track, odd wheels to the right
// track. Torque is shared between the tracks in proportion to the thrusts,
// then equally between the enabled wheels of a track.
func TankRatios(thrustLeft, thrustRight float64, enabled []bool, contributions, ratios, gearings []float64) {
	thrustLeftAbs := math.Abs(thrustLeft)
	thrustRightAbs := math.Abs(thrustRight)

	nbLeft, nbRight := 0, 0
	for i, on := range enabled {
		if !on {
			continue
		}
		if i%2 == 0 {
			nbLeft++
		} else {
			nbRight++
		}
	}
	invLeft, invRight := 0.0, 0.0
	if nbLeft > 0 {
		invLeft = 1.0 / float64(nbLeft)
	}
	if nbRight > 0 {
		invRight = 1.0 / float64(nbRight)
	}

	ratioLeft, ratioRight := 0.5, 0.5
	gearingLeft, gearingRight := 1.0, 1.0
	if thrustLeftAbs+thrustRightAbs > 1e-3 {
		thrustDiff := 0.5 * (thrustLeftAbs - thrustRightAbs) / (thrustLeftAbs + thrustRightAbs)
		ratioLeft += thrustDiff
		ratioRight -= thrustDiff
		gearingLeft = Sign(thrustLeft)
		gearingRight = Sign(thrustRight)
	}

	for i, on := range enabled {
		switch {
		case !on:
			contributions[i], ratios[i], gearings[i] = 0, 0, 0
		case i%2 == 0:
			contributions[i] = 0.5 * invLeft
			ratios[i] = ratioLeft * invLeft
			gearings[i] = gearingLeft
		default:
			contributions[i] = 0.5 * invRight
			ratios[i] = ratioRight * invRight
			gearings[i] = gearingRight
		}
	}
}
