package config

import (
	"fmt"

	"github.com/akmonengine/traction"
	"github.com/akmonengine/traction/friction"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/viper"
)

type World struct {
	Gravity    [3]float64 `json:"gravity" mapstructure:"gravity"`
	Workers    int        `json:"workers" mapstructure:"workers"`
	UpdateMode string     `json:"updateMode" mapstructure:"updateMode"`
	CellSize   float64    `json:"cellSize" mapstructure:"cellSize"`
	Cells      int        `json:"cells" mapstructure:"cells"`
	// Friction holds the multipliers, rows by surface type, columns by tire type
	Friction [][]float64 `json:"friction" mapstructure:"friction"`
}

func setWorldDefaults(v *viper.Viper) {
	v.SetDefault("world.gravity", []float64{0, -9.81, 0})
	v.SetDefault("world.workers", traction.DEFAULT_WORKERS)
	v.SetDefault("world.updateMode", "velocity")
	v.SetDefault("world.cellSize", traction.DEFAULT_CELL_SIZE)
	v.SetDefault("world.cells", traction.DEFAULT_CELLS)
	v.SetDefault("world.friction", [][]float64{{1}})
}

// Build creates an empty world with these settings.
func (w World) Build() (*traction.World, error) {
	var mode traction.UpdateMode
	switch w.UpdateMode {
	case "velocity", "":
		mode = traction.UpdateModeVelocityChange
	case "acceleration":
		mode = traction.UpdateModeAcceleration
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownUpdateMode, w.UpdateMode)
	}

	table, err := friction.NewTableFromRows(w.Friction)
	if err != nil {
		return nil, fmt.Errorf("world friction: %w", err)
	}

	world := traction.NewWorld(mgl64.Vec3(w.Gravity))
	world.Workers = w.Workers
	world.UpdateMode = mode
	world.FrictionTable = table
	world.SpatialGrid = traction.NewSpatialGrid(w.CellSize, w.Cells)

	return world, nil
}
