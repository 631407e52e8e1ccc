// Package friction maps (drivable surface, tire) pairs to friction multipliers.
package friction

import (
	"errors"
	"fmt"
)

// SurfaceType identifies a category of drivable surface (tarmac, gravel, ice...).
type SurfaceType uint32

// TireType identifies a category of tire (slick, wet, snow...).
type TireType uint32

var (
	ErrSurfaceOutOfRange = errors.New("friction: surface type out of range")
	ErrTireOutOfRange    = errors.New("friction: tire type out of range")
	ErrNegativeFriction  = errors.New("friction: multiplier must be positive or zero")
	ErrEmptyTable        = errors.New("friction: table needs at least one surface and one tire type")
)

// Table stores one multiplier per (surface, tire) pair, row-major on surfaces.
type Table struct {
	nbSurfaces int
	nbTires    int
	pairs      []float64
}

// NewTable creates a table where every pair has a multiplier of 1.
func NewTable(nbSurfaces, nbTires int) (*Table, error) {
	if nbSurfaces <= 0 || nbTires <= 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		nbSurfaces: nbSurfaces,
		nbTires:    nbTires,
		pairs:      make([]float64, nbSurfaces*nbTires),
	}
	for i := range t.pairs {
		t.pairs[i] = 1.0
	}

	return t, nil
}

// NewTableFromRows builds a table from rows[surface][tire].
func NewTableFromRows(rows [][]float64) (*Table, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyTable
	}

	t, err := NewTable(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for s, row := range rows {
		if len(row) != t.nbTires {
			return nil, fmt.Errorf("row %d has %d tire entries, want %d: %w", s, len(row), t.nbTires, ErrTireOutOfRange)
		}
		for tt, v := range row {
			if err := t.Set(SurfaceType(s), TireType(tt), v); err != nil {
				return nil, err
			}
		}
	}

	return t, nil
}

func (t *Table) NbSurfaceTypes() int {
	return t.nbSurfaces
}

func (t *Table) NbTireTypes() int {
	return t.nbTires
}

func (t *Table) Set(surface SurfaceType, tire TireType, multiplier float64) error {
	if err := t.check(surface, tire); err != nil {
		return err
	}
	if multiplier < 0 {
		return fmt.Errorf("surface %d, tire %d: %w", surface, tire, ErrNegativeFriction)
	}
	t.pairs[int(surface)*t.nbTires+int(tire)] = multiplier

	return nil
}

// Lookup returns the multiplier of a pair, or an error if either type is unknown.
func (t *Table) Lookup(surface SurfaceType, tire TireType) (float64, error) {
	if err := t.check(surface, tire); err != nil {
		return 0, err
	}

	return t.pairs[int(surface)*t.nbTires+int(tire)], nil
}

// Get is the hot-path lookup: unknown surfaces fall back to surface 0 and
// unknown tires to tire 0. A nil table always answers 1.
func (t *Table) Get(surface SurfaceType, tire TireType) float64 {
	if t == nil {
		return 1.0
	}
	if int(surface) >= t.nbSurfaces {
		surface = 0
	}
	if int(tire) >= t.nbTires {
		tire = 0
	}

	return t.pairs[int(surface)*t.nbTires+int(tire)]
}

func (t *Table) check(surface SurfaceType, tire TireType) error {
	if int(surface) >= t.nbSurfaces {
		return fmt.Errorf("surface %d of %d: %w", surface, t.nbSurfaces, ErrSurfaceOutOfRange)
	}
	if int(tire) >= t.nbTires {
		return fmt.Errorf("tire %d of %d: %w", tire, t.nbTires, ErrTireOutOfRange)
	}

	return nil
}
