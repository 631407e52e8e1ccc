package config

import (
	"math"

	"github.com/akmonengine/traction/friction"
	"github.com/akmonengine/traction/suspension"
	"github.com/akmonengine/traction/tire"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
)

type Suspension struct {
	MaxCompression         float64 `json:"maxCompression" mapstructure:"maxCompression"`
	MaxDroop               float64 `json:"maxDroop" mapstructure:"maxDroop"`
	Spring                 float64 `json:"spring" mapstructure:"spring"`
	Damper                 float64 `json:"damper" mapstructure:"damper"`
	SprungMass             float64 `json:"sprungMass" mapstructure:"sprungMass"`
	CamberAtRest           float64 `json:"camberAtRest" mapstructure:"camberAtRest"`
	CamberAtMaxCompression float64 `json:"camberAtMaxCompression" mapstructure:"camberAtMaxCompression"`
	CamberAtMaxDroop       float64 `json:"camberAtMaxDroop" mapstructure:"camberAtMaxDroop"`
}

type Tire struct {
	Type            uint32        `json:"type" mapstructure:"type"`
	LatStiffX       float64       `json:"latStiffX" mapstructure:"latStiffX"`
	LatStiffY       float64       `json:"latStiffY" mapstructure:"latStiffY"`
	LongStiffness   float64       `json:"longStiffness" mapstructure:"longStiffness"`
	CamberStiffness float64       `json:"camberStiffness" mapstructure:"camberStiffness"`
	FrictionVsSlip  [3][2]float64 `json:"frictionVsSlip" mapstructure:"frictionVsSlip"`
}

// Wheel describes one wheel. Angles are in degrees.
type Wheel struct {
	Offset             [3]float64 `json:"offset" mapstructure:"offset"`
	TravelDir          [3]float64 `json:"travelDir" mapstructure:"travelDir"`
	Radius             float64    `json:"radius" mapstructure:"radius"`
	Width              float64    `json:"width" mapstructure:"width"`
	Mass               float64    `json:"mass" mapstructure:"mass"`
	MOI                float64    `json:"moi" mapstructure:"moi"`
	Damping            float64    `json:"damping" mapstructure:"damping"`
	MaxBrakeTorque     float64    `json:"maxBrakeTorque" mapstructure:"maxBrakeTorque"`
	MaxHandBrakeTorque float64    `json:"maxHandBrakeTorque" mapstructure:"maxHandBrakeTorque"`
	MaxSteer           float64    `json:"maxSteer" mapstructure:"maxSteer"`
	Toe                float64    `json:"toe" mapstructure:"toe"`

	// force application points default to the wheel centre
	SuspensionForceOffset *[3]float64 `json:"suspensionForceOffset" mapstructure:"suspensionForceOffset"`
	TireForceOffset       *[3]float64 `json:"tireForceOffset" mapstructure:"tireForceOffset"`

	Suspension Suspension `json:"suspension" mapstructure:"suspension"`
	Tire       Tire       `json:"tire" mapstructure:"tire"`
}

func setWheelDefaults(v *viper.Viper) {
	data := tire.DefaultData()

	v.SetDefault("travelDir", []float64{0, -1, 0})
	v.SetDefault("radius", 0.35)
	v.SetDefault("width", 0.25)
	v.SetDefault("mass", 20.0)
	v.SetDefault("moi", 1.2)
	v.SetDefault("damping", 0.25)
	v.SetDefault("maxBrakeTorque", 1500.0)
	v.SetDefault("maxHandBrakeTorque", 0.0)
	v.SetDefault("maxSteer", 0.0)
	v.SetDefault("toe", 0.0)

	v.SetDefault("suspension.maxCompression", 0.3)
	v.SetDefault("suspension.maxDroop", 0.1)
	v.SetDefault("suspension.spring", 35000.0)
	v.SetDefault("suspension.damper", 4500.0)
	v.SetDefault("suspension.sprungMass", 375.0)
	v.SetDefault("suspension.camberAtRest", 0.0)
	v.SetDefault("suspension.camberAtMaxCompression", 0.0)
	v.SetDefault("suspension.camberAtMaxDroop", 0.0)

	v.SetDefault("tire.type", 0)
	v.SetDefault("tire.latStiffX", data.LatStiffX)
	v.SetDefault("tire.latStiffY", data.LatStiffY)
	v.SetDefault("tire.longStiffness", data.LongitudinalStiffnessPerUnitGravity)
	v.SetDefault("tire.camberStiffness", data.CamberStiffnessPerUnitGravity)
	v.SetDefault("tire.frictionVsSlip", [][]float64{
		{data.FrictionVsSlip[0][0], data.FrictionVsSlip[0][1]},
		{data.FrictionVsSlip[1][0], data.FrictionVsSlip[1][1]},
		{data.FrictionVsSlip[2][0], data.FrictionVsSlip[2][1]},
	})
}

func (w *Wheel) sim() suspension.WheelSim {
	offset := mgl64.Vec3(w.Offset)
	suspensionOffset, tireOffset := offset, offset
	if w.SuspensionForceOffset != nil {
		suspensionOffset = mgl64.Vec3(*w.SuspensionForceOffset)
	}
	if w.TireForceOffset != nil {
		tireOffset = mgl64.Vec3(*w.TireForceOffset)
	}

	return suspension.WheelSim{
		Wheel: suspension.Wheel{
			Radius:             w.Radius,
			Width:              w.Width,
			Mass:               w.Mass,
			MOI:                w.MOI,
			DampingRate:        w.Damping,
			MaxBrakeTorque:     w.MaxBrakeTorque,
			MaxHandBrakeTorque: w.MaxHandBrakeTorque,
			MaxSteer:           radians(w.MaxSteer),
			ToeAngle:           radians(w.Toe),
		},
		Suspension: suspension.Suspension{
			MaxCompression:         w.Suspension.MaxCompression,
			MaxDroop:               w.Suspension.MaxDroop,
			SpringStrength:         w.Suspension.Spring,
			SpringDamperRate:       w.Suspension.Damper,
			SprungMass:             w.Suspension.SprungMass,
			CamberAtRest:           radians(w.Suspension.CamberAtRest),
			CamberAtMaxCompression: radians(w.Suspension.CamberAtMaxCompression),
			CamberAtMaxDroop:       radians(w.Suspension.CamberAtMaxDroop),
		},
		Tire: tire.Data{
			LatStiffX:                           w.Tire.LatStiffX,
			LatStiffY:                           w.Tire.LatStiffY,
			LongitudinalStiffnessPerUnitGravity: w.Tire.LongStiffness,
			CamberStiffnessPerUnitGravity:       w.Tire.CamberStiffness,
			FrictionVsSlip:                      w.Tire.FrictionVsSlip,
			Type:                                friction.TireType(w.Tire.Type),
		},
		Geometry: suspension.Geometry{
			SuspensionTravelDir:      mgl64.Vec3(w.TravelDir).Normalize(),
			WheelCentreOffset:        offset,
			SuspensionForceAppOffset: suspensionOffset,
			TireForceAppOffset:       tireOffset,
		},
	}
}

func radians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
