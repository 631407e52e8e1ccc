package drivetrain

import "math"

// Ackermann describes the steering geometry of a four wheeled drive.
// Accuracy blends between parallel steering (0) and perfect Ackermann
// steering (1), where both front wheels turn around the same point.
type Ackermann struct {
	Accuracy       float64
	FrontWidth     float64 // distance between the front wheels
	RearWidth      float64 // distance between the rear wheels
	AxleSeparation float64 // distance between the front and rear axles
}

func DefaultAckermann() Ackermann {
	return Ackermann{Accuracy: 1.0}
}

// SteerAngles returns the left and right steer angles of an axle for a
// steer input in [-1, 1] and a maximum steer angle gain.
// For a positive steer the right wheel is the inner one.
func (a *Ackermann) SteerAngles(steer, gain, width float64) (float64, float64) {
	steerAngle := steer * gain
	if steerAngle == 0 {
		return 0, 0
	}

	inner := math.Abs(steerAngle)
	outer := inner
	dz := a.AxleSeparation
	if dz > 0 {
		dx := width + dz/math.Tan(inner)
		perfect := math.Atan(dz / dx)
		outer = inner + a.Accuracy*(perfect-inner)
	}

	if steerAngle > 0 {
		return outer, inner
	}
	return -inner, -outer
}

// Corrected returns the steer angle of each of the four wheels, toe included.
// Rear wheels steer the opposite way.
func (a *Ackermann) Corrected(steer float64, maxSteer, toe [4]float64) [4]float64 {
	frontLeft, frontRight := a.SteerAngles(steer, math.Max(maxSteer[FrontLeft], maxSteer[FrontRight]), a.FrontWidth)
	rearLeft, rearRight := a.SteerAngles(steer, math.Max(maxSteer[RearLeft], maxSteer[RearRight]), a.RearWidth)

	return [4]float64{
		toe[FrontLeft] + frontLeft,
		toe[FrontRight] + frontRight,
		toe[RearLeft] - rearLeft,
		toe[RearRight] - rearRight,
	}
}
