// Package gearbox holds the gear state of a driven vehicle: gear change
// requests, the transit through neutral and the automatic gearbox.
package gearbox

import (
	"errors"
	"fmt"
)

// Gear indices. Forward gears follow First.
const (
	Reverse = 0
	Neutral = 1
	First   = 2
)

var (
	ErrInvalidGear   = errors.New("gearbox: invalid gear")
	ErrTooFewGears   = errors.New("gearbox: reverse, neutral and first gear are required")
	ErrNeutralRatio  = errors.New("gearbox: neutral ratio must be 0")
	ErrAutoBoxRatios = errors.New("gearbox: autobox needs an up and a down ratio per gear")
)

type Gears struct {
	// Ratios indexed by gear. Reverse is negative, neutral is 0.
	Ratios     []float64
	FinalRatio float64
	// SwitchTime is the time spent in neutral during a gear change (s)
	SwitchTime float64
}

func DefaultGears() Gears {
	return Gears{
		Ratios:     []float64{-4.0, 0, 4.0, 2.0, 1.5, 1.1, 1.0},
		FinalRatio: 4.0,
		SwitchTime: 0.5,
	}
}

func (g *Gears) NbRatios() int {
	return len(g.Ratios)
}

func (g *Gears) Validate() error {
	if len(g.Ratios) <= First {
		return ErrTooFewGears
	}
	if g.Ratios[Neutral] != 0 {
		return ErrNeutralRatio
	}
	return nil
}

// AutoBox changes gear from the normalized engine speed.
type AutoBox struct {
	UpRatios   []float64
	DownRatios []float64
	// Latency is the minimum time between two automatic gear changes (s)
	Latency float64
}

func DefaultAutoBox(nbGears int) AutoBox {
	a := AutoBox{
		UpRatios:   make([]float64, nbGears),
		DownRatios: make([]float64, nbGears),
		Latency:    2.0,
	}
	for i := range nbGears {
		a.UpRatios[i] = 0.65
		a.DownRatios[i] = 0.50
	}

	return a
}

func (a *AutoBox) Validate(gears *Gears) error {
	if len(a.UpRatios) < gears.NbRatios() || len(a.DownRatios) < gears.NbRatios() {
		return ErrAutoBoxRatios
	}
	return nil
}

// State is the runtime gear state of a vehicle.
//
// A gear change first drops Current to Neutral while Target holds the
// requested gear, then engages Target once SwitchTime has elapsed. Requests
// made while a change is underway are ignored.
type State struct {
	Current int
	Target  int

	SwitchTimer  float64
	AutoBoxTimer float64

	GearUp       bool
	GearDown     bool
	UseAutoGears bool
}

func NewState() State {
	return State{
		Current: Neutral,
		Target:  Neutral,
	}
}

func (s *State) InGear() bool {
	return s.Current != Neutral
}

func (s *State) Changing() bool {
	return s.Current != s.Target
}

// Ratio is the total ratio between the engine and the wheels in the current gear.
func (s *State) Ratio(gears *Gears) float64 {
	if s.Current < 0 || s.Current >= gears.NbRatios() {
		return 0
	}
	return gears.Ratios[s.Current] * gears.FinalRatio
}

// Process handles the pending up/down requests and advances a change in progress.
func (s *State) Process(gears *Gears, dt float64) {
	last := gears.NbRatios() - 1

	if s.GearUp && s.Current != last && s.Current == s.Target {
		switch s.Current {
		case Reverse, Neutral:
			s.Target = First
		default:
			s.Target = s.Current + 1
		}
		s.Current = Neutral
		s.SwitchTimer = 0
	}

	if s.GearDown && s.Current != Reverse && s.Current == s.Target {
		switch s.Current {
		case First, Neutral:
			s.Target = Reverse
		default:
			s.Target = s.Current - 1
		}
		s.Current = Neutral
		s.SwitchTimer = 0
	}

	if s.Current != s.Target {
		if s.SwitchTimer > gears.SwitchTime {
			s.Current = s.Target
			s.SwitchTimer = 0
			s.GearUp = false
			s.GearDown = false
		} else {
			s.SwitchTimer += dt
		}
	}
}

// ProcessAutoBox raises gear change requests from the normalized engine
// speed and returns the accelerator multiplier: 0 while the gearbox sits in
// neutral on its way to another gear, 1 otherwise.
func (s *State) ProcessAutoBox(autobox *AutoBox, normalizedOmega, dt float64) float64 {
	multiplier := 1.0
	if s.Target != s.Current && s.Current == Neutral {
		multiplier = 0
	}

	if s.Target == s.Current && s.AutoBoxTimer > autobox.Latency {
		up := s.Current != Reverse && s.Current < len(autobox.UpRatios) && normalizedOmega > autobox.UpRatios[s.Current]
		down := s.Current > First && s.Current < len(autobox.DownRatios) && normalizedOmega < autobox.DownRatios[s.Current]

		if up || down {
			s.GearUp = up
			s.GearDown = down
			s.AutoBoxTimer = 0
		}
	} else {
		s.AutoBoxTimer += dt
	}

	return multiplier
}

// StartGearChange goes to the target gear through neutral.
func (s *State) StartGearChange(gears *Gears, target int) error {
	if target < 0 || target >= gears.NbRatios() {
		return fmt.Errorf("%w: %d", ErrInvalidGear, target)
	}
	if target == s.Current {
		return nil
	}

	s.Target = target
	s.Current = Neutral
	s.SwitchTimer = 0

	return nil
}

// ForceGearChange engages a gear immediately, cancelling any change in progress.
func (s *State) ForceGearChange(gears *Gears, gear int) error {
	if gear < 0 || gear >= gears.NbRatios() {
		return fmt.Errorf("%w: %d", ErrInvalidGear, gear)
	}

	s.Current = gear
	s.Target = gear
	s.SwitchTimer = 0
	s.GearUp = false
	s.GearDown = false

	return nil
}

// GearName formats a gear index the way dashboards show it.
func GearName(gear int) string {
	switch {
	case gear == Reverse:
		return "R"
	case gear == Neutral:
		return "N"
	case gear >= First:
		return fmt.Sprintf("%d", gear-First+1)
	default:
		return "?"
	}
}
