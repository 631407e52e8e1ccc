// Package tire holds the tire description and the per-contact tire math:
// contact axes, slips, sticky friction timers and the tire force model.
package tire

import (
	"math"

	"github.com/akmonengine/traction/friction"
)

// Data describes a tire category.
type Data struct {
	// LatStiffX is the normalized load at which the lateral stiffness stops growing.
	LatStiffX float64
	// LatStiffY is the maximum lateral stiffness, per unit of rest load.
	LatStiffY float64
	// Longitudinal stiffness per unit gravitational acceleration (N per unit slip).
	LongitudinalStiffnessPerUnitGravity float64
	// Camber stiffness per unit gravitational acceleration (N per radian).
	CamberStiffnessPerUnitGravity float64
	// FrictionVsSlip holds three (slip, friction) points of a piecewise linear curve.
	// The x coordinates must be increasing.
	FrictionVsSlip [3][2]float64
	Type           friction.TireType
}

func DefaultData() Data {
	return Data{
		LatStiffX:                           2.0,
		LatStiffY:                           17.95,
		LongitudinalStiffnessPerUnitGravity: 1000.0,
		CamberStiffnessPerUnitGravity:       100.0,
		FrictionVsSlip: [3][2]float64{
			{0.0, 1.0},
			{0.1, 1.0},
			{1.0, 1.0},
		},
	}
}

// Friction evaluates the friction curve at |longSlip|.
func (d *Data) Friction(longSlip float64) float64 {
	x0, y0 := d.FrictionVsSlip[0][0], d.FrictionVsSlip[0][1]
	x1, y1 := d.FrictionVsSlip[1][0], d.FrictionVsSlip[1][1]
	x2, y2 := d.FrictionVsSlip[2][0], d.FrictionVsSlip[2][1]

	s := math.Abs(longSlip)
	switch {
	case s < x1:
		return y0 + (y1-y0)*(s-x0)*recip(x1-x0)
	case s < x2:
		return y1 + (y2-y1)*(s-x1)*recip(x2-x1)
	default:
		return y2
	}
}

func recip(x float64) float64 {
	if x == 0 {
		return 0
	}
	return 1.0 / x
}
