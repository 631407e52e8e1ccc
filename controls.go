package traction

// Controls drive a DRIVE_4W or DRIVE_NW vehicle. Analog values are in [0, 1].
// GearUp and GearDown are held requests: they are forwarded to the gearbox
// on every update until cleared.
type Controls struct {
	Accel      float64
	Brake      float64
	Handbrake  float64
	SteerLeft  float64
	SteerRight float64
	GearUp     bool
	GearDown   bool
}

// Steer is positive when steering right.
func (c *Controls) Steer() float64 {
	return c.SteerRight - c.SteerLeft
}

func (c *Controls) finiteInput() bool {
	return c.SteerLeft != 0 || c.SteerRight != 0 || c.Accel != 0 || c.GearUp || c.GearDown
}

// TankControls drive a DRIVE_TANK vehicle. Thrusts are in [0, 1] for the
// standard model and in [-1, 1] for the special model.
type TankControls struct {
	Accel       float64
	ThrustLeft  float64
	ThrustRight float64
	BrakeLeft   float64
	BrakeRight  float64
	GearUp      bool
	GearDown    bool
}

func (c *TankControls) finiteInput() bool {
	return c.ThrustLeft != 0 || c.ThrustRight != 0 || c.Accel != 0 || c.GearUp || c.GearDown
}

// NoDriveControls hold raw values per wheel: drive and brake torques in N⋅m,
// steer angles in radians.
type NoDriveControls struct {
	DriveTorques []float64
	BrakeTorques []float64
	SteerAngles  []float64
}

func NewNoDriveControls(nbWheels int) NoDriveControls {
	return NoDriveControls{
		DriveTorques: make([]float64, nbWheels),
		BrakeTorques: make([]float64, nbWheels),
		SteerAngles:  make([]float64, nbWheels),
	}
}

func (c *NoDriveControls) finiteInput() bool {
	for i := range c.DriveTorques {
		if c.DriveTorques[i] != 0 {
			return true
		}
	}
	for i := range c.SteerAngles {
		if c.SteerAngles[i] != 0 {
			return true
		}
	}
	return false
}

func (c *NoDriveControls) maxDriveTorque() float64 {
	m := 0.0
	for _, torque := range c.DriveTorques {
		m = max(m, torque)
	}
	return m
}

func (c *NoDriveControls) maxBrakeTorque() float64 {
	m := 0.0
	for _, torque := range c.BrakeTorques {
		m = max(m, torque)
	}
	return m
}
