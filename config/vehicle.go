package config

import (
	"fmt"

	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/actor"
	"github.com/akmonengine/traction/drivetrain"
	"github.com/akmonengine/traction/gearbox"
	"github.com/akmonengine/traction/suspension"
	"github.com/akmonengine/traction/tire"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
)

type Chassis struct {
	Mass        float64    `json:"mass" mapstructure:"mass"`
	HalfExtents [3]float64 `json:"halfExtents" mapstructure:"halfExtents"`
	Position    [3]float64 `json:"position" mapstructure:"position"`
	// CentreOfMass is the centre of mass in the chassis frame
	CentreOfMass [3]float64 `json:"centreOfMass" mapstructure:"centreOfMass"`
}

type Engine struct {
	PeakTorque float64 `json:"peakTorque" mapstructure:"peakTorque"`
	MaxOmega   float64 `json:"maxOmega" mapstructure:"maxOmega"`
	MOI        float64 `json:"moi" mapstructure:"moi"`
	// TorqueCurve holds (normalized omega, torque fraction) points
	TorqueCurve [][2]float64 `json:"torqueCurve" mapstructure:"torqueCurve"`

	DampingFullThrottle           float64 `json:"dampingFullThrottle" mapstructure:"dampingFullThrottle"`
	DampingZeroThrottleEngaged    float64 `json:"dampingZeroThrottleEngaged" mapstructure:"dampingZeroThrottleEngaged"`
	DampingZeroThrottleDisengaged float64 `json:"dampingZeroThrottleDisengaged" mapstructure:"dampingZeroThrottleDisengaged"`
}

type Gears struct {
	Ratios     []float64 `json:"ratios" mapstructure:"ratios"`
	FinalRatio float64   `json:"finalRatio" mapstructure:"finalRatio"`
	SwitchTime float64   `json:"switchTime" mapstructure:"switchTime"`
}

type Clutch struct {
	Strength   float64 `json:"strength" mapstructure:"strength"`
	Accuracy   string  `json:"accuracy" mapstructure:"accuracy"`
	Iterations int     `json:"iterations" mapstructure:"iterations"`
}

// AutoBox uses the same up and down ratios for every gear.
type AutoBox struct {
	Up      float64 `json:"up" mapstructure:"up"`
	Down    float64 `json:"down" mapstructure:"down"`
	Latency float64 `json:"latency" mapstructure:"latency"`
}

type Diff struct {
	Type                string  `json:"type" mapstructure:"type"`
	FrontRearSplit      float64 `json:"frontRearSplit" mapstructure:"frontRearSplit"`
	FrontLeftRightSplit float64 `json:"frontLeftRightSplit" mapstructure:"frontLeftRightSplit"`
	RearLeftRightSplit  float64 `json:"rearLeftRightSplit" mapstructure:"rearLeftRightSplit"`
	CentreBias          float64 `json:"centreBias" mapstructure:"centreBias"`
	FrontBias           float64 `json:"frontBias" mapstructure:"frontBias"`
	RearBias            float64 `json:"rearBias" mapstructure:"rearBias"`
}

type Ackermann struct {
	Accuracy       float64 `json:"accuracy" mapstructure:"accuracy"`
	FrontWidth     float64 `json:"frontWidth" mapstructure:"frontWidth"`
	RearWidth      float64 `json:"rearWidth" mapstructure:"rearWidth"`
	AxleSeparation float64 `json:"axleSeparation" mapstructure:"axleSeparation"`
}

type Substeps struct {
	Threshold float64 `json:"threshold" mapstructure:"threshold"`
	Low       int     `json:"low" mapstructure:"low"`
	High      int     `json:"high" mapstructure:"high"`
}

type LoadFilter struct {
	MinLoad         float64 `json:"minLoad" mapstructure:"minLoad"`
	MinFilteredLoad float64 `json:"minFilteredLoad" mapstructure:"minFilteredLoad"`
	MaxLoad         float64 `json:"maxLoad" mapstructure:"maxLoad"`
	MaxFilteredLoad float64 `json:"maxFilteredLoad" mapstructure:"maxFilteredLoad"`
}

type Vehicle struct {
	Name  string `json:"name" mapstructure:"name"`
	Drive string `json:"drive" mapstructure:"drive"`
	// Driven lists the driven wheels of an NW drive
	Driven    []int  `json:"driven" mapstructure:"driven"`
	TankModel string `json:"tankModel" mapstructure:"tankModel"`

	Chassis   Chassis   `json:"chassis" mapstructure:"chassis"`
	Engine    Engine    `json:"engine" mapstructure:"engine"`
	Gears     Gears     `json:"gears" mapstructure:"gears"`
	Clutch    Clutch    `json:"clutch" mapstructure:"clutch"`
	AutoBox   AutoBox   `json:"autoBox" mapstructure:"autoBox"`
	Diff      Diff      `json:"diff" mapstructure:"diff"`
	Ackermann Ackermann `json:"ackermann" mapstructure:"ackermann"`

	Substeps               Substeps   `json:"substeps" mapstructure:"substeps"`
	LoadFilter             LoadFilter `json:"loadFilter" mapstructure:"loadFilter"`
	MinLongSlipDenominator float64    `json:"minLongSlipDenominator" mapstructure:"minLongSlipDenominator"`
	ComputeSprungMasses    bool       `json:"computeSprungMasses" mapstructure:"computeSprungMasses"`

	// Wheels are decoded one by one, see decodeWheels
	Wheels []Wheel `json:"wheels" mapstructure:"-"`
}

func setVehicleDefaults(v *viper.Viper) {
	engine := drivetrain.DefaultEngine()
	gears := gearbox.DefaultGears()
	clutch := drivetrain.DefaultClutch()
	autobox := gearbox.DefaultAutoBox(1)
	diff := drivetrain.DefaultDiff4W()
	substeps := traction.DefaultSubstepSettings()
	filter := tire.DefaultLoadFilter()

	v.SetDefault("vehicle.name", "vehicle")
	v.SetDefault("vehicle.drive", traction.DRIVE_4W.String())
	v.SetDefault("vehicle.tankModel", drivetrain.TankStandard.String())

	v.SetDefault("vehicle.chassis.mass", 1500.0)
	v.SetDefault("vehicle.chassis.halfExtents", []float64{1, 0.5, 2.2})
	v.SetDefault("vehicle.chassis.position", []float64{0, 1, 0})
	v.SetDefault("vehicle.chassis.centreOfMass", []float64{0, 0, 0})

	curve := make([][]float64, len(engine.TorqueCurve))
	for i, p := range engine.TorqueCurve {
		curve[i] = []float64{p.X, p.Y}
	}
	v.SetDefault("vehicle.engine.peakTorque", engine.PeakTorque)
	v.SetDefault("vehicle.engine.maxOmega", engine.MaxOmega)
	v.SetDefault("vehicle.engine.moi", engine.MOI)
	v.SetDefault("vehicle.engine.torqueCurve", curve)
	v.SetDefault("vehicle.engine.dampingFullThrottle", engine.DampingRateFullThrottle)
	v.SetDefault("vehicle.engine.dampingZeroThrottleEngaged", engine.DampingRateZeroThrottleClutchEngaged)
	v.SetDefault("vehicle.engine.dampingZeroThrottleDisengaged", engine.DampingRateZeroThrottleClutchDisengaged)

	v.SetDefault("vehicle.gears.ratios", gears.Ratios)
	v.SetDefault("vehicle.gears.finalRatio", gears.FinalRatio)
	v.SetDefault("vehicle.gears.switchTime", gears.SwitchTime)

	v.SetDefault("vehicle.clutch.strength", clutch.Strength)
	v.SetDefault("vehicle.clutch.accuracy", clutch.AccuracyMode.String())
	v.SetDefault("vehicle.clutch.iterations", clutch.EstimateIterations)

	v.SetDefault("vehicle.autoBox.up", autobox.UpRatios[0])
	v.SetDefault("vehicle.autoBox.down", autobox.DownRatios[0])
	v.SetDefault("vehicle.autoBox.latency", autobox.Latency)

	v.SetDefault("vehicle.diff.type", diff.Type.String())
	v.SetDefault("vehicle.diff.frontRearSplit", diff.FrontRearSplit)
	v.SetDefault("vehicle.diff.frontLeftRightSplit", diff.FrontLeftRightSplit)
	v.SetDefault("vehicle.diff.rearLeftRightSplit", diff.RearLeftRightSplit)
	v.SetDefault("vehicle.diff.centreBias", diff.CentreBias)
	v.SetDefault("vehicle.diff.frontBias", diff.FrontBias)
	v.SetDefault("vehicle.diff.rearBias", diff.RearBias)

	v.SetDefault("vehicle.ackermann.accuracy", drivetrain.DefaultAckermann().Accuracy)
	v.SetDefault("vehicle.ackermann.frontWidth", 0.0)
	v.SetDefault("vehicle.ackermann.rearWidth", 0.0)
	v.SetDefault("vehicle.ackermann.axleSeparation", 0.0)

	v.SetDefault("vehicle.substeps.threshold", substeps.ThresholdLongSpeed)
	v.SetDefault("vehicle.substeps.low", substeps.LowSubsteps)
	v.SetDefault("vehicle.substeps.high", substeps.HighSubsteps)

	v.SetDefault("vehicle.loadFilter.minLoad", filter.MinNormalisedLoad)
	v.SetDefault("vehicle.loadFilter.minFilteredLoad", filter.MinFilteredNormalisedLoad)
	v.SetDefault("vehicle.loadFilter.maxLoad", filter.MaxNormalisedLoad)
	v.SetDefault("vehicle.loadFilter.maxFilteredLoad", filter.MaxFilteredNormalisedLoad)
	v.SetDefault("vehicle.minLongSlipDenominator", tire.DefaultMinLongSlipDenominator)
	v.SetDefault("vehicle.computeSprungMasses", true)
}

// Desc converts the description, building the chassis body.
func (c *Vehicle) Desc() (traction.VehicleDesc, error) {
	if len(c.Wheels) == 0 {
		return traction.VehicleDesc{}, ErrNoWheels
	}
	if c.Chassis.Mass <= 0 {
		return traction.VehicleDesc{}, fmt.Errorf("%w: %v", ErrChassisMass, c.Chassis.Mass)
	}

	drive, err := c.drive()
	if err != nil {
		return traction.VehicleDesc{}, fmt.Errorf("vehicle %s: %w", c.Name, err)
	}

	wheels := make([]suspension.WheelSim, len(c.Wheels))
	for i := range c.Wheels {
		wheels[i] = c.Wheels[i].sim()
	}

	return traction.VehicleDesc{
		Name:    c.Name,
		Chassis: c.chassis(),
		Wheels:  wheels,
		Drive:   drive,
		Substeps: traction.SubstepSettings{
			ThresholdLongSpeed: c.Substeps.Threshold,
			LowSubsteps:        c.Substeps.Low,
			HighSubsteps:       c.Substeps.High,
		},
		LoadFilter: tire.LoadFilter{
			MinNormalisedLoad:         c.LoadFilter.MinLoad,
			MinFilteredNormalisedLoad: c.LoadFilter.MinFilteredLoad,
			MaxNormalisedLoad:         c.LoadFilter.MaxLoad,
			MaxFilteredNormalisedLoad: c.LoadFilter.MaxFilteredLoad,
		},
		MinLongSlipDenominator: c.MinLongSlipDenominator,
		CentreOfMassOffset:     mgl64.Vec3(c.Chassis.CentreOfMass),
		ComputeSprungMasses:    c.ComputeSprungMasses,
	}, nil
}

// Build creates the vehicle. Its chassis still has to be added to a world.
func (c *Vehicle) Build() (*traction.Vehicle, error) {
	desc, err := c.Desc()
	if err != nil {
		return nil, err
	}
	return traction.NewVehicle(desc)
}

func (c *Vehicle) chassis() *actor.RigidBody {
	transform := actor.NewTransform()
	transform.Position = mgl64.Vec3(c.Chassis.Position)

	body := actor.NewRigidBody(transform, &actor.Box{HalfExtents: mgl64.Vec3(c.Chassis.HalfExtents)}, actor.BodyTypeDynamic, 1)
	body.SetMass(c.Chassis.Mass)
	return body
}

func (c *Vehicle) drive() (traction.Drive, error) {
	kinds := []traction.DriveKind{traction.DRIVE_4W, traction.DRIVE_NW, traction.DRIVE_TANK, traction.DRIVE_NONE}
	kind, err := parseName(c.Drive, kinds, ErrUnknownDrive)
	if err != nil {
		return traction.Drive{}, err
	}

	var drive traction.Drive
	switch kind {
	case traction.DRIVE_NONE:
		return traction.NewNoDrive(), nil
	case traction.DRIVE_NW:
		drive = traction.NewDriveNW(len(c.Wheels), c.Driven...)
	case traction.DRIVE_TANK:
		model, err := parseName(c.TankModel, []drivetrain.TankModel{drivetrain.TankStandard, drivetrain.TankSpecial}, ErrUnknownTankModel)
		if err != nil {
			return traction.Drive{}, err
		}
		drive = traction.NewDriveTank(model)
	default:
		drive = traction.NewDrive4W()
		if drive.Diff4W, err = c.diff(); err != nil {
			return traction.Drive{}, err
		}
		drive.Ackermann = drivetrain.Ackermann{
			Accuracy:       c.Ackermann.Accuracy,
			FrontWidth:     c.Ackermann.FrontWidth,
			RearWidth:      c.Ackermann.RearWidth,
			AxleSeparation: c.Ackermann.AxleSeparation,
		}
	}

	if drive.Engine, err = c.engine(); err != nil {
		return traction.Drive{}, err
	}
	return drive, nil
}

func (c *Vehicle) engine() (traction.Engine, error) {
	accuracy, err := parseName(c.Clutch.Accuracy, []drivetrain.AccuracyMode{drivetrain.AccuracyEstimate, drivetrain.AccuracyBestPossible}, ErrUnknownAccuracy)
	if err != nil {
		return traction.Engine{}, err
	}

	curve := make(drivetrain.Curve, len(c.Engine.TorqueCurve))
	for i, p := range c.Engine.TorqueCurve {
		curve[i] = drivetrain.CurvePoint{X: p[0], Y: p[1]}
	}

	gears := gearbox.Gears{
		Ratios:     append([]float64(nil), c.Gears.Ratios...),
		FinalRatio: c.Gears.FinalRatio,
		SwitchTime: c.Gears.SwitchTime,
	}
	autobox := gearbox.DefaultAutoBox(gears.NbRatios())
	autobox.Latency = c.AutoBox.Latency
	for i := range autobox.UpRatios {
		autobox.UpRatios[i] = c.AutoBox.Up
		autobox.DownRatios[i] = c.AutoBox.Down
	}

	return traction.Engine{
		Engine: drivetrain.Engine{
			TorqueCurve:                             curve,
			PeakTorque:                              c.Engine.PeakTorque,
			MaxOmega:                                c.Engine.MaxOmega,
			DampingRateFullThrottle:                 c.Engine.DampingFullThrottle,
			DampingRateZeroThrottleClutchEngaged:    c.Engine.DampingZeroThrottleEngaged,
			DampingRateZeroThrottleClutchDisengaged: c.Engine.DampingZeroThrottleDisengaged,
			MOI:                                     c.Engine.MOI,
		},
		Gears: gears,
		Clutch: drivetrain.Clutch{
			Strength:           c.Clutch.Strength,
			AccuracyMode:       accuracy,
			EstimateIterations: c.Clutch.Iterations,
		},
		AutoBox: autobox,
	}, nil
}

func (c *Vehicle) diff() (drivetrain.Diff4W, error) {
	types := []drivetrain.DiffType{
		drivetrain.DiffLS4WD, drivetrain.DiffLSFrontWD, drivetrain.DiffLSRearWD,
		drivetrain.DiffOpen4WD, drivetrain.DiffOpenFrontWD, drivetrain.DiffOpenRearWD,
	}
	diffType, err := parseName(c.Diff.Type, types, ErrUnknownDiff)
	if err != nil {
		return drivetrain.Diff4W{}, err
	}

	return drivetrain.Diff4W{
		Type:                diffType,
		FrontRearSplit:      c.Diff.FrontRearSplit,
		FrontLeftRightSplit: c.Diff.FrontLeftRightSplit,
		RearLeftRightSplit:  c.Diff.RearLeftRightSplit,
		CentreBias:          c.Diff.CentreBias,
		FrontBias:           c.Diff.FrontBias,
		RearBias:            c.Diff.RearBias,
	}, nil
}
