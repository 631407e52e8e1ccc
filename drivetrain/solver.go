package drivetrain

import (
	"math"

	"github.com/akmonengine/traction/linalg"
)

// SolverTolerance stops the Gauss-Seidel passes once no speed moves more than this.
const SolverTolerance = 1e-10

// Warning reports a solve whose result is unreliable. It is not an error:
// the simulation keeps going with the best available speeds.
type Warning int

const (
	WarningNone Warning = iota
	// WarningResidual is raised when the LU solution doesn't satisfy the system
	WarningResidual
	// WarningTankSingular is raised when the tank normal equations can't be solved.
	// Speeds are left untouched for the substep.
	WarningTankSingular
)

func (w Warning) String() string {
	switch w {
	case WarningNone:
		return "none"
	case WarningResidual:
		return "unable to compute the new wheel and engine speeds, check clutch strength, engine and wheel moi and damping"
	case WarningTankSingular:
		return "unable to compute the new tank wheel and engine speeds, check clutch strength, engine and wheel moi and damping"
	default:
		return "unknown"
	}
}

// Wheel is the drivetrain view of a wheel for one substep.
type Wheel struct {
	RecipMOI    float64
	DampingRate float64
	Radius      float64

	// Ratio is the share of the clutch torque delivered to this wheel
	Ratio float64
	// Contribution is the weight of this wheel in the average speed at the clutch
	Contribution float64
	// Gearing is the sign applied to the tank track of this wheel
	Gearing float64

	BrakeTorque  float64
	BrakeApplied bool
	TireTorque   float64
	Enabled      bool

	// Omega is read as the current speed and overwritten by the solve
	Omega float64
}

// Input holds the engine side of the coupled system.
type Input struct {
	SubDt float64
	// K is the clutch strength, zero in neutral
	K float64
	// G is the gear ratio times the final drive ratio
	G             float64
	Mode          AccuracyMode
	MaxIterations int

	EngineOmega       float64
	EngineDriveTorque float64
	EngineDampingRate float64
	EngineRecipMOI    float64
	MaxEngineOmega    float64
}

// Solver keeps the scratch space of the implicit solves so that a vehicle
// can reuse it every substep.
type Solver struct {
	a      linalg.Matrix
	lu     linalg.LU
	b      []float64
	x      []float64
	prev   []float64
	reduce [][3]float64
}

func (s *Solver) resize(n int) {
	s.a.Resize(n)
	if cap(s.b) < n {
		s.b = make([]float64, n)
		s.x = make([]float64, n)
		s.prev = make([]float64, n)
		s.reduce = make([][3]float64, n)
	}
	s.b = s.b[:n]
	s.x = s.x[:n]
	s.prev = s.prev[:n]
	s.reduce = s.reduce[:n]
}

// SolveWheeled advances the engine and wheel speeds of a 4W or NW drive.
//
// The clutch torque is K*(ωEngine - G*Σ(contribution_i*ω_i)). Each wheel
// receives G*ratio_i times this torque plus its brake and tire torques, and
// the engine receives its drive torque minus the clutch torque. Writing the
// accelerations as backward differences gives a linear system in the speeds
// at the end of the substep, of size len(wheels)+1.
//
// Wheel speeds are written back into wheels and the new engine speed is returned.
func (s *Solver) SolveWheeled(in *Input, wheels []Wheel) (float64, Warning) {
	n := len(wheels)
	s.resize(n + 1)

	kg := in.K * in.G
	kgg := kg * in.G

	for i := range wheels {
		w := &wheels[i]
		dt := in.SubDt * w.RecipMOI
		dtKGGR := dt * kgg * w.Ratio
		for j := range wheels {
			s.a.Set(i, j, dtKGGR*wheels[j].Contribution)
		}
		s.a.Set(i, i, 1+dtKGGR*w.Contribution+dt*w.DampingRate)
		s.a.Set(i, n, -dt*kg*w.Ratio)
		s.b[i] = w.Omega + dt*(w.BrakeTorque+w.TireTorque)
		s.x[i] = w.Omega
		s.prev[i] = w.Omega
	}

	dt := in.SubDt * in.EngineRecipMOI
	for j := range wheels {
		s.a.Set(n, j, -dt*kg*wheels[j].Contribution)
	}
	s.a.Set(n, n, 1+dt*(in.K+in.EngineDampingRate))
	s.b[n] = in.EngineOmega + dt*in.EngineDriveTorque
	s.x[n] = in.EngineOmega

	warning := WarningNone
	if in.Mode == AccuracyBestPossible {
		if err := s.lu.Decompose(&s.a); err != nil {
			warning = WarningResidual
		} else {
			s.lu.Solve(s.b, s.x)
			if !linalg.IsValid(&s.a, s.b, s.x) {
				warning = WarningResidual
			}
		}
	} else {
		linalg.GaussSeidel(&s.a, s.b, s.x, in.MaxIterations, SolverTolerance)
	}

	for i := range wheels {
		wheels[i].Omega = lockBrakedWheel(wheels[i].BrakeApplied, s.prev[i], s.x[i])
	}

	return clampEngineOmega(s.x[n], in.MaxEngineOmega), warning
}

// SolveTank advances the engine and wheel speeds of a tank.
//
// The wheels of a track are tied together: every left wheel rolls at the
// same linear speed as wheel 0, every right wheel as wheel 1. Substituting
// these constraints leaves an over-determined system in three unknowns
// (left speed, right speed, engine speed) which is solved in the least
// squares sense through its normal equations.
func (s *Solver) SolveTank(in *Input, wheels []Wheel) (float64, Warning) {
	n := len(wheels)
	if n < 2 {
		return in.EngineOmega, WarningTankSingular
	}
	s.resize(n + 1)

	kg := in.K * in.G
	kgg := kg * in.G

	for i := range wheels {
		w := &wheels[i]
		dt := in.SubDt * w.RecipMOI
		dtKGGRg := dt * kgg * w.Ratio * w.Gearing
		for j := range wheels {
			s.a.Set(i, j, dtKGGRg*wheels[j].Contribution*wheels[j].Gearing)
		}
		s.a.Set(i, i, 1+dtKGGRg*w.Contribution*w.Gearing+dt*w.DampingRate)
		s.a.Set(i, n, -dt*kg*w.Ratio*w.Gearing)
		s.b[i] = w.Omega + dt*(w.BrakeTorque+w.TireTorque)
		s.prev[i] = w.Omega
	}

	dt := in.SubDt * in.EngineRecipMOI
	for j := range wheels {
		s.a.Set(n, j, -dt*kg*wheels[j].Contribution*wheels[j].Gearing)
	}
	s.a.Set(n, n, 1+dt*(in.K+in.EngineDampingRate))
	s.b[n] = in.EngineOmega + dt*in.EngineDriveTorque

	// Column reduction: ω_j = ω_0*r0/r_j on the left track, ω_1*r1/r_j on the right
	r0, r1 := wheels[0].Radius, wheels[1].Radius
	for i := 0; i <= n; i++ {
		var row [3]float64
		for j := range wheels {
			scale := trackScale(j, r0, r1, wheels[j].Radius)
			row[j%2] += s.a.At(i, j) * scale
		}
		row[2] = s.a.At(i, n)
		s.reduce[i] = row
	}

	var ata [3][3]float64
	var atb [3]float64
	for k := 0; k <= n; k++ {
		// Disabled wheels don't take part in the fit
		if k < n && !wheels[k].Enabled {
			continue
		}
		row := s.reduce[k]
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				ata[i][j] += row[i] * row[j]
			}
			atb[i] += row[i] * s.b[k]
		}
	}

	result, err := linalg.Solve33(ata, atb)
	if err != nil {
		return in.EngineOmega, WarningTankSingular
	}

	for j := range wheels {
		w := &wheels[j]
		if !w.Enabled {
			w.Omega = 0
			continue
		}
		omega := result[j%2] * trackScale(j, r0, r1, w.Radius)
		w.Omega = lockBrakedWheel(w.BrakeApplied, s.prev[j], omega)
	}

	return clampEngineOmega(result[2], in.MaxEngineOmega), WarningNone
}

func trackScale(wheel int, r0, r1, radius float64) float64 {
	if radius <= 0 {
		return 1
	}
	if wheel%2 == 0 {
		return r0 / radius
	}
	return r1 / radius
}

// IntegrateUndriven advances a wheel that isn't connected to the engine.
// The implicit step is ω' = (ω + dt/I*(tire + brake)) / (1 + dt/I*damping).
func IntegrateUndriven(w *Wheel, subDt float64) {
	IntegrateNoDrive(w, 0, subDt)
}

// IntegrateNoDrive advances a wheel driven by a raw torque (N⋅m).
func IntegrateNoDrive(w *Wheel, driveTorque, subDt float64) {
	dtI := subDt * w.RecipMOI
	omega := (w.Omega + dtI*(w.TireTorque+driveTorque+w.BrakeTorque)) / (1 + w.DampingRate*dtI)
	w.Omega = lockBrakedWheel(w.BrakeApplied, w.Omega, omega)
}

// lockBrakedWheel stops a braked wheel instead of letting the brake reverse it.
// A locked wheel stays locked until the brake is released.
func lockBrakedWheel(brakeApplied bool, oldOmega, newOmega float64) float64 {
	if brakeApplied && oldOmega*newOmega <= 0 {
		return 0
	}
	return newOmega
}

func clampEngineOmega(omega, maxOmega float64) float64 {
	return math.Min(math.Max(omega, 0), maxOmega)
}
