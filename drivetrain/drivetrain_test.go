package drivetrain

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// ============================================================================
// Engine & clutch
// ============================================================================

func TestCurve_Eval(t *testing.T) {
	curve := DefaultEngine().TorqueCurve

	tests := []struct {
		name string
		x    float64
		want float64
	}{
		{"below range", -1, 0.8},
		{"first point", 0, 0.8},
		{"first segment", 0.165, 0.9},
		{"peak", 0.33, 1.0},
		{"second segment", 0.665, 0.9},
		{"above range", 2, 0.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := curve.Eval(tt.x); !almostEqual(got, tt.want, epsilon) {
				t.Errorf("Eval(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}

	if got := (Curve{}).Eval(0.5); got != 0 {
		t.Errorf("empty Eval() = %v, want 0", got)
	}
}

func TestEngine_DriveTorque(t *testing.T) {
	engine := DefaultEngine()

	if got := engine.DriveTorque(0.33*engine.MaxOmega, 1); !almostEqual(got, engine.PeakTorque, 1e-6) {
		t.Errorf("DriveTorque(peak, 1) = %v, want %v", got, engine.PeakTorque)
	}
	if got := engine.DriveTorque(0, 0.5); !almostEqual(got, 0.5*0.8*engine.PeakTorque, epsilon) {
		t.Errorf("DriveTorque(0, 0.5) = %v, want %v", got, 0.5*0.8*engine.PeakTorque)
	}
	if got := engine.DriveTorque(100, 0); got != 0 {
		t.Errorf("DriveTorque(100, 0) = %v, want 0", got)
	}
}

func TestEngine_DampingRate(t *testing.T) {
	engine := DefaultEngine()

	tests := []struct {
		name   string
		inGear bool
		accel  float64
		want   float64
	}{
		{"full throttle", true, 1, 0.15},
		{"zero throttle in gear", true, 0, 2.0},
		{"zero throttle neutral", false, 0, 0.35},
		{"half throttle in gear", true, 0.5, 1.075},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := engine.DampingRate(tt.inGear, tt.accel); !almostEqual(got, tt.want, epsilon) {
				t.Errorf("DampingRate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClutch_StrengthInGear(t *testing.T) {
	clutch := DefaultClutch()
	if got := clutch.StrengthInGear(true); got != 10 {
		t.Errorf("StrengthInGear(true) = %v, want 10", got)
	}
	if got := clutch.StrengthInGear(false); got != 0 {
		t.Errorf("StrengthInGear(false) = %v, want 0", got)
	}
}

// ============================================================================
// Brakes & steering
// ============================================================================

func TestBrakeTorque(t *testing.T) {
	tests := []struct {
		name        string
		omega       float64
		brake       float64
		handbrake   float64
		wantTorque  float64
		wantApplied bool
	}{
		{"released", 10, 0, 0, 0, false},
		{"forward", 10, 0.5, 0, -750, true},
		{"backward", -10, 0.5, 0, 750, true},
		{"handbrake", 10, 0, 1, -4000, true},
		{"at rest", 0, 1, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			torque, applied := BrakeTorque(tt.omega, tt.brake, 1500, tt.handbrake, 4000)
			if !almostEqual(torque, tt.wantTorque, epsilon) {
				t.Errorf("torque = %v, want %v", torque, tt.wantTorque)
			}
			if applied != tt.wantApplied {
				t.Errorf("applied = %v, want %v", applied, tt.wantApplied)
			}
		})
	}
}

func TestTankBrakeInput(t *testing.T) {
	for wheel, want := range []float64{0.2, 0.7, 0.2, 0.7, 0.2} {
		if got := TankBrakeInput(wheel, 0.2, 0.7); got != want {
			t.Errorf("TankBrakeInput(%d) = %v, want %v", wheel, got, want)
		}
	}
}

func TestAckermann_SteerAngles(t *testing.T) {
	a := Ackermann{Accuracy: 1, FrontWidth: 1.5, AxleSeparation: 2.5}

	left, right := a.SteerAngles(0, 0.5, 1.5)
	if left != 0 || right != 0 {
		t.Errorf("SteerAngles(0) = (%v, %v), want (0, 0)", left, right)
	}

	left, right = a.SteerAngles(1, 0.5, 1.5)
	if !almostEqual(right, 0.5, epsilon) {
		t.Errorf("inner angle = %v, want 0.5", right)
	}
	perfect := math.Atan(2.5 / (1.5 + 2.5/math.Tan(0.5)))
	if !almostEqual(left, perfect, epsilon) {
		t.Errorf("outer angle = %v, want %v", left, perfect)
	}
	if left >= right {
		t.Errorf("outer angle %v should be smaller than inner angle %v", left, right)
	}

	negLeft, negRight := a.SteerAngles(-1, 0.5, 1.5)
	if !almostEqual(negLeft, -right, epsilon) || !almostEqual(negRight, -left, epsilon) {
		t.Errorf("SteerAngles(-1) = (%v, %v), want (%v, %v)", negLeft, negRight, -right, -left)
	}

	a.Accuracy = 0
	left, right = a.SteerAngles(0.5, 0.5, 1.5)
	if !almostEqual(left, 0.25, epsilon) || !almostEqual(right, 0.25, epsilon) {
		t.Errorf("parallel steering = (%v, %v), want (0.25, 0.25)", left, right)
	}
}

func TestAckermann_Corrected(t *testing.T) {
	a := Ackermann{Accuracy: 0, FrontWidth: 1.5, RearWidth: 1.5, AxleSeparation: 2.5}
	maxSteer := [4]float64{0.5, 0.5, 0.1, 0.1}
	toe := [4]float64{0.01, -0.01, 0, 0}

	got := a.Corrected(1, maxSteer, toe)
	want := [4]float64{0.51, 0.49, -0.1, -0.1}
	for i := range want {
		if !almostEqual(got[i], want[i], epsilon) {
			t.Errorf("Corrected()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// ============================================================================
// Differentials
// ============================================================================

func TestSplitTorque(t *testing.T) {
	tests := []struct {
		name   string
		w1, w2 float64
		bias   float64
		split  float64
		want1  float64
		want2  float64
	}{
		{"equal speeds", 10, 10, 1.3, 0.5, 0.5, 0.5},
		{"within bias", 12, 10, 1.3, 0.5, 0.5, 0.5},
		{"faster first", 2, 1, 1.3, 0.5, 0.325, 0.675},
		{"faster second", -1, -2, 1.3, 0.5, 0.675, 0.325},
		{"uneven split", 10, 10, 1.3, 0.3, 0.3, 0.7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t1, t2 := splitTorque(tt.w1, tt.w2, tt.bias, tt.split)
			if !almostEqual(t1, tt.want1, epsilon) || !almostEqual(t2, tt.want2, epsilon) {
				t.Errorf("splitTorque() = (%v, %v), want (%v, %v)", t1, t2, tt.want1, tt.want2)
			}
			if !almostEqual(t1+t2, 1, epsilon) {
				t.Errorf("sum = %v, want 1", t1+t2)
			}
		})
	}
}

func TestDiff4W_RatiosSumToOne(t *testing.T) {
	speeds := [][4]float64{
		{0, 0, 0, 0},
		{10, 10, 10, 10},
		{10, 14, 9, 30},
		{-5, -6, -5, -2},
		{10, -1, 3, 3},
	}

	for _, diffType := range []DiffType{DiffLS4WD, DiffLSFrontWD, DiffLSRearWD, DiffOpen4WD, DiffOpenFrontWD, DiffOpenRearWD} {
		for _, handbrake := range []float64{0, 1} {
			d := DefaultDiff4W()
			d.Type = diffType

			contributions := d.Contributions(handbrake)
			if got := sum(contributions[:]); !almostEqual(got, 1, 1e-4) {
				t.Errorf("%v handbrake %v: contributions sum = %v, want 1", diffType, handbrake, got)
			}

			for _, omegas := range speeds {
				ratios := d.TorqueRatios(handbrake, omegas)
				if got := sum(ratios[:]); !almostEqual(got, 1, 1e-4) {
					t.Errorf("%v handbrake %v omegas %v: ratios sum = %v, want 1", diffType, handbrake, omegas, got)
				}
				for i := range ratios {
					if contributions[i] == 0 && ratios[i] != 0 {
						t.Errorf("%v: wheel %d gets torque %v without contributing", diffType, i, ratios[i])
					}
				}
			}
		}
	}
}

func TestDiff4W_HandbrakeDropsRearAxle(t *testing.T) {
	for _, diffType := range []DiffType{DiffLS4WD, DiffOpen4WD} {
		d := DefaultDiff4W()
		d.Type = diffType

		ratios := d.TorqueRatios(0.5, [4]float64{10, 10, 10, 10})
		if ratios[RearLeft] != 0 || ratios[RearRight] != 0 {
			t.Errorf("%v: rear ratios = (%v, %v), want 0", diffType, ratios[RearLeft], ratios[RearRight])
		}
		contributions := d.Contributions(0.5)
		if contributions[RearLeft] != 0 || contributions[RearRight] != 0 {
			t.Errorf("%v: rear contributions = (%v, %v), want 0", diffType, contributions[RearLeft], contributions[RearRight])
		}
	}

	// Rear wheel drive keeps its axle
	d := DefaultDiff4W()
	d.Type = DiffOpenRearWD
	ratios := d.TorqueRatios(1, [4]float64{})
	if ratios[RearLeft] != 0.5 || ratios[RearRight] != 0.5 {
		t.Errorf("rear wd with handbrake = %v, want rear split kept", ratios)
	}
}

func TestDiff4W_LimitedSlip(t *testing.T) {
	d := DefaultDiff4W()

	// A spinning front left wheel hands its torque to the front right one
	ratios := d.TorqueRatios(0, [4]float64{40, 10, 10, 10})
	if ratios[FrontLeft] >= ratios[FrontRight] {
		t.Errorf("front ratios = (%v, %v), the spinning wheel should get less", ratios[FrontLeft], ratios[FrontRight])
	}

	// Mixed directions fall back to the open split
	open := d.TorqueRatios(0, [4]float64{10, -10, 10, 10})
	want := [4]float64{0.225, 0.225, 0.275, 0.275}
	for i := range want {
		if !almostEqual(open[i], want[i], epsilon) {
			t.Errorf("open[%d] = %v, want %v", i, open[i], want[i])
		}
	}
}

func TestDiffNW_Ratios(t *testing.T) {
	d := NewDiffNW(6)
	for _, wheel := range []int{0, 1, 4, 5} {
		d.SetDriven(wheel, true)
	}
	if got := d.NbDriven(); got != 4 {
		t.Fatalf("NbDriven() = %d, want 4", got)
	}

	tests := []struct {
		name    string
		enabled []bool
		want    []float64
		wantN   int
	}{
		{
			name:    "all enabled",
			enabled: []bool{true, true, true, true, true, true},
			want:    []float64{0.25, 0.25, 0, 0, 0.25, 0.25},
			wantN:   4,
		},
		{
			name:    "disabled driven wheel",
			enabled: []bool{true, false, true, true, true, true},
			want:    []float64{1.0 / 3, 0, 0, 0, 1.0 / 3, 1.0 / 3},
			wantN:   3,
		},
		{
			name:    "no driven wheel left",
			enabled: []bool{false, false, true, true, false, false},
			want:    []float64{0, 0, 0, 0, 0, 0},
			wantN:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ratios := make([]float64, 6)
			if n := d.Ratios(tt.enabled, ratios); n != tt.wantN {
				t.Errorf("Ratios() = %d, want %d", n, tt.wantN)
			}
			for i := range tt.want {
				if !almostEqual(ratios[i], tt.want[i], epsilon) {
					t.Errorf("ratio[%d] = %v, want %v", i, ratios[i], tt.want[i])
				}
			}
		})
	}
}

func TestTankRatios(t *testing.T) {
	tests := []struct {
		name         string
		thrustLeft   float64
		thrustRight  float64
		enabled      []bool
		wantRatios   []float64
		wantGearings []float64
		wantContribs []float64
	}{
		{
			name:         "no thrust",
			enabled:      []bool{true, true, true, true},
			wantRatios:   []float64{0.25, 0.25, 0.25, 0.25},
			wantGearings: []float64{1, 1, 1, 1},
			wantContribs: []float64{0.25, 0.25, 0.25, 0.25},
		},
		{
			name:         "left only",
			thrustLeft:   1,
			enabled:      []bool{true, true, true, true},
			wantRatios:   []float64{0.5, 0, 0.5, 0},
			wantGearings: []float64{1, 0, 1, 0},
			wantContribs: []float64{0.25, 0.25, 0.25, 0.25},
		},
		{
			name:         "counter rotating",
			thrustLeft:   1,
			thrustRight:  -1,
			enabled:      []bool{true, true, true, true},
			wantRatios:   []float64{0.25, 0.25, 0.25, 0.25},
			wantGearings: []float64{1, -1, 1, -1},
			wantContribs: []float64{0.25, 0.25, 0.25, 0.25},
		},
		{
			name:         "disabled wheel",
			thrustLeft:   0.5,
			thrustRight:  0.5,
			enabled:      []bool{true, true, false, true},
			wantRatios:   []float64{0.5, 0.25, 0, 0.25},
			wantGearings: []float64{1, 1, 0, 1},
			wantContribs: []float64{0.5, 0.25, 0, 0.25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.enabled)
			contributions := make([]float64, n)
			ratios := make([]float64, n)
			gearings := make([]float64, n)
			TankRatios(tt.thrustLeft, tt.thrustRight, tt.enabled, contributions, ratios, gearings)

			for i := 0; i < n; i++ {
				if !almostEqual(ratios[i], tt.wantRatios[i], epsilon) {
					t.Errorf("ratio[%d] = %v, want %v", i, ratios[i], tt.wantRatios[i])
				}
				if gearings[i] != tt.wantGearings[i] {
					t.Errorf("gearing[%d] = %v, want %v", i, gearings[i], tt.wantGearings[i])
				}
				if !almostEqual(contributions[i], tt.wantContribs[i], epsilon) {
					t.Errorf("contribution[%d] = %v, want %v", i, contributions[i], tt.wantContribs[i])
				}
			}
			if got := sum(ratios); !almostEqual(got, 1, 1e-4) {
				t.Errorf("ratios sum = %v, want 1", got)
			}
		})
	}
}

// ============================================================================
// Solver
// ============================================================================

func singleWheel(omega float64) []Wheel {
	return []Wheel{{
		RecipMOI:     1,
		Radius:       0.5,
		Ratio:        1,
		Contribution: 1,
		Gearing:      1,
		Enabled:      true,
		Omega:        omega,
	}}
}

func TestSolveWheeled_Neutral(t *testing.T) {
	wheels := singleWheel(10)
	wheels[0].DampingRate = 0.25
	wheels[0].TireTorque = -20

	in := &Input{
		SubDt:             0.01,
		K:                 0,
		G:                 16,
		Mode:              AccuracyBestPossible,
		EngineOmega:       100,
		EngineDriveTorque: 500,
		EngineDampingRate: 0.35,
		EngineRecipMOI:    1,
		MaxEngineOmega:    600,
	}

	var s Solver
	engineOmega, warning := s.SolveWheeled(in, wheels)
	if warning != WarningNone {
		t.Errorf("warning = %v, want none", warning)
	}

	wantWheel := (10 + 0.01*-20) / (1 + 0.01*0.25)
	if !almostEqual(wheels[0].Omega, wantWheel, 1e-9) {
		t.Errorf("wheel omega = %v, want %v", wheels[0].Omega, wantWheel)
	}
	wantEngine := (100 + 0.01*500) / (1 + 0.01*0.35)
	if !almostEqual(engineOmega, wantEngine, 1e-9) {
		t.Errorf("engine omega = %v, want %v", engineOmega, wantEngine)
	}
}

func TestSolveWheeled_ClutchCouplesSpeeds(t *testing.T) {
	for _, mode := range []AccuracyMode{AccuracyBestPossible, AccuracyEstimate} {
		t.Run(mode.String(), func(t *testing.T) {
			wheels := singleWheel(10)
			in := &Input{
				SubDt:          0.01,
				K:              10,
				G:              4,
				Mode:           mode,
				MaxIterations:  50,
				EngineRecipMOI: 1,
				MaxEngineOmega: 600,
			}

			var s Solver
			for step := 0; step < 200; step++ {
				omega, warning := s.SolveWheeled(in, wheels)
				if warning != WarningNone {
					t.Fatalf("step %d: warning = %v", step, warning)
				}
				in.EngineOmega = omega

				// Iw*ω + G*Ie*ωe is conserved without external torques
				if momentum := wheels[0].Omega + 4*in.EngineOmega; !almostEqual(momentum, 10, 1e-6) {
					t.Fatalf("step %d: momentum = %v, want 10", step, momentum)
				}
			}

			if !almostEqual(wheels[0].Omega, 10.0/17, 1e-6) {
				t.Errorf("wheel omega = %v, want %v", wheels[0].Omega, 10.0/17)
			}
			if !almostEqual(in.EngineOmega, 40.0/17, 1e-6) {
				t.Errorf("engine omega = %v, want %v", in.EngineOmega, 40.0/17)
			}
		})
	}
}

func TestSolveWheeled_BrakeLocksWheel(t *testing.T) {
	wheels := singleWheel(1)
	wheels[0].BrakeTorque, wheels[0].BrakeApplied = BrakeTorque(1, 1, 1500, 0, 0)

	in := &Input{SubDt: 0.01, Mode: AccuracyBestPossible, EngineRecipMOI: 1, MaxEngineOmega: 600}

	var s Solver
	s.SolveWheeled(in, wheels)
	if wheels[0].Omega != 0 {
		t.Errorf("wheel omega = %v, want locked at 0", wheels[0].Omega)
	}
}

func TestSolveWheeled_EngineClamp(t *testing.T) {
	in := &Input{
		SubDt:             1,
		Mode:              AccuracyBestPossible,
		EngineOmega:       590,
		EngineDriveTorque: 1000,
		EngineRecipMOI:    1,
		MaxEngineOmega:    600,
	}

	var s Solver
	if omega, _ := s.SolveWheeled(in, singleWheel(0)); omega != 600 {
		t.Errorf("engine omega = %v, want 600", omega)
	}

	in.EngineOmega = 0
	in.EngineDriveTorque = -1000
	if omega, _ := s.SolveWheeled(in, singleWheel(0)); omega != 0 {
		t.Errorf("engine omega = %v, want 0", omega)
	}
}

func tankWheels(n int, omega float64) []Wheel {
	wheels := make([]Wheel, n)
	enabled := make([]bool, n)
	for i := range enabled {
		enabled[i] = true
	}
	contributions := make([]float64, n)
	ratios := make([]float64, n)
	gearings := make([]float64, n)
	TankRatios(1, 1, enabled, contributions, ratios, gearings)

	for i := range wheels {
		wheels[i] = Wheel{
			RecipMOI:     1,
			DampingRate:  0.25,
			Radius:       0.5,
			Ratio:        ratios[i],
			Contribution: contributions[i],
			Gearing:      gearings[i],
			Enabled:      true,
			Omega:        omega,
		}
	}
	return wheels
}

func TestSolveTank_TracksMoveTogether(t *testing.T) {
	wheels := tankWheels(6, 0)
	wheels[4].Radius = 0.25
	wheels[5].Radius = 0.25

	in := &Input{
		SubDt:             0.01,
		K:                 10,
		G:                 4,
		EngineOmega:       100,
		EngineDriveTorque: 500,
		EngineDampingRate: 0.15,
		EngineRecipMOI:    1,
		MaxEngineOmega:    600,
	}

	var s Solver
	for step := 0; step < 10; step++ {
		omega, warning := s.SolveTank(in, wheels)
		if warning != WarningNone {
			t.Fatalf("step %d: warning = %v", step, warning)
		}
		in.EngineOmega = omega
	}

	if wheels[0].Omega <= 0 {
		t.Fatalf("left track omega = %v, want > 0", wheels[0].Omega)
	}
	if !almostEqual(wheels[0].Omega, wheels[1].Omega, 1e-6) {
		t.Errorf("left %v and right %v tracks should match", wheels[0].Omega, wheels[1].Omega)
	}
	if !almostEqual(wheels[2].Omega, wheels[0].Omega, epsilon) {
		t.Errorf("wheel 2 omega = %v, want %v", wheels[2].Omega, wheels[0].Omega)
	}
	// Half the radius spins twice as fast
	if !almostEqual(wheels[4].Omega, 2*wheels[0].Omega, epsilon) {
		t.Errorf("wheel 4 omega = %v, want %v", wheels[4].Omega, 2*wheels[0].Omega)
	}
}

func TestSolveTank_Singular(t *testing.T) {
	wheels := tankWheels(4, 3)
	enabled := []bool{false, true, false, true}
	contributions := make([]float64, 4)
	ratios := make([]float64, 4)
	gearings := make([]float64, 4)
	TankRatios(1, 1, enabled, contributions, ratios, gearings)
	for i := range wheels {
		wheels[i].Enabled = enabled[i]
		wheels[i].Ratio = ratios[i]
		wheels[i].Contribution = contributions[i]
		wheels[i].Gearing = gearings[i]
	}

	in := &Input{SubDt: 0.01, K: 10, G: 4, EngineOmega: 50, EngineRecipMOI: 1, MaxEngineOmega: 600}

	var s Solver
	omega, warning := s.SolveTank(in, wheels)
	if warning != WarningTankSingular {
		t.Errorf("warning = %v, want %v", warning, WarningTankSingular)
	}
	if omega != 50 {
		t.Errorf("engine omega = %v, want unchanged 50", omega)
	}
	for i := range wheels {
		if wheels[i].Omega != 3 {
			t.Errorf("wheel %d omega = %v, want unchanged 3", i, wheels[i].Omega)
		}
	}
}

func TestIntegrateUndriven(t *testing.T) {
	tests := []struct {
		name       string
		omega      float64
		tireTorque float64
		brake      float64
		want       float64
	}{
		{"free", 10, 0, 0, 10 / 1.0025},
		{"tire torque", 0, 50, 0, 0.5 / 1.0025},
		{"brake locks", 0.5, 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Wheel{RecipMOI: 1, DampingRate: 0.25, Omega: tt.omega, TireTorque: tt.tireTorque}
			w.BrakeTorque, w.BrakeApplied = BrakeTorque(tt.omega, tt.brake, 1500, 0, 0)
			IntegrateUndriven(&w, 0.01)
			if !almostEqual(w.Omega, tt.want, epsilon) {
				t.Errorf("omega = %v, want %v", w.Omega, tt.want)
			}
		})
	}
}

func TestIntegrateNoDrive(t *testing.T) {
	w := Wheel{RecipMOI: 0.5, Omega: 2}
	IntegrateNoDrive(&w, 100, 0.1)
	if !almostEqual(w.Omega, 7, epsilon) {
		t.Errorf("omega = %v, want 7", w.Omega)
	}
}

func BenchmarkSolveWheeled(b *testing.B) {
	d := DefaultDiff4W()
	omegas := [4]float64{10, 11, 10, 12}
	ratios := d.TorqueRatios(0, omegas)
	contributions := d.Contributions(0)

	wheels := make([]Wheel, 4)
	in := &Input{SubDt: 0.01, K: 10, G: 16, Mode: AccuracyBestPossible, EngineOmega: 200, EngineDriveTorque: 500, EngineDampingRate: 0.15, EngineRecipMOI: 1, MaxEngineOmega: 600}

	var s Solver
	for b.Loop() {
		for i := range wheels {
			wheels[i] = Wheel{RecipMOI: 1, DampingRate: 0.25, Ratio: ratios[i], Contribution: contributions[i], Omega: omegas[i]}
		}
		s.SolveWheeled(in, wheels)
	}
}
