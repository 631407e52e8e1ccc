package drivetrain

// AccuracyMode selects how the engine/wheel system is solved.
type AccuracyMode int

const (
	// AccuracyEstimate runs a bounded number of Gauss-Seidel passes
	AccuracyEstimate AccuracyMode = iota
	// AccuracyBestPossible solves the system exactly with an LU decomposition
	AccuracyBestPossible
)

func (m AccuracyMode) String() string {
	switch m {
	case AccuracyEstimate:
		return "ESTIMATE"
	case AccuracyBestPossible:
		return "BEST_POSSIBLE"
	default:
		return "UNKNOWN"
	}
}

type Clutch struct {
	// Strength is the rate at which the clutch pulls the engine speed towards
	// the geared average wheel speed (N⋅m⋅s/rad)
	Strength           float64
	AccuracyMode       AccuracyMode
	EstimateIterations int
}

func DefaultClutch() Clutch {
	return Clutch{
		Strength:           10.0,
		AccuracyMode:       AccuracyBestPossible,
		EstimateIterations: 5,
	}
}

// StrengthInGear returns the clutch strength, which is zero in neutral.
func (c *Clutch) StrengthInGear(inGear bool) float64 {
	if !inGear {
		return 0
	}
	return c.Strength
}
