package recorder

import (
	"time"

	"gorm.io/datatypes"
)

// Run groups the samples of one recording session.
type Run struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	Name      string  `gorm:"size:128;index"`
	Dt        float64 // simulated seconds per tick
}

// Sample is the state of a vehicle at the end of one tick.
type Sample struct {
	ID      uint   `gorm:"primarykey"`
	RunID   uint   `gorm:"index"`
	Vehicle string `gorm:"size:128;index"`
	Tick    int
	// SimTime is the simulated time since the start of the run (s)
	SimTime float64

	Skipped bool
	Error   string
	Asleep  bool

	Gear         int
	EngineOmega  float64
	ForwardSpeed float64
	Substeps     int
	Warning      string

	Wheels datatypes.JSON `gorm:"type:json"`
}

// WheelSnapshot is stored, one per wheel, in Sample.Wheels.
type WheelSnapshot struct {
	InAir           bool    `json:"inAir"`
	Surface         uint32  `json:"surface"`
	Jounce          float64 `json:"jounce"`
	SuspensionForce float64 `json:"suspensionForce"`
	TireLoad        float64 `json:"tireLoad"`
	LongSlip        float64 `json:"longSlip"`
	LatSlip         float64 `json:"latSlip"`
	Steer           float64 `json:"steer"`
	Omega           float64 `json:"omega"`
}
