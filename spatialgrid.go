package traction

import (
	"math"
	"sort"

	"github.com/akmonengine/traction/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ============================================================================
// Types
// ============================================================================

// CellKey is the coordinates of a cell in world space
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// SpatialGrid is a uniform hashed grid narrowing the suspension raycasts
// down to the bodies near each ray. Planes are unbounded and kept aside:
// every ray tests them.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
	planes   []int
}

// ============================================================================
// Constructor
// ============================================================================

// NewSpatialGrid rounds numCells up to a power of two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// ============================================================================
// Build
// ============================================================================

// Insert adds a body to every cell its AABB overlaps.
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	if _, isPlane := body.Shape.(*actor.Plane); isPlane {
		sg.planes = append(sg.planes, bodyIndex)
		return
	}

	aabb := body.Shape.GetAABB()
	sg.forEachCell(aabb, func(cellIdx int) {
		sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.planes = sg.planes[:0]
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			sort.Ints(sg.cells[i].bodyIndices)
		}
	}
}

// Rebuild clears the grid and inserts every body.
func (sg *SpatialGrid) Rebuild(bodies []*actor.RigidBody) {
	sg.Clear()
	for i, body := range bodies {
		sg.Insert(i, body)
	}
	sg.SortCells()
}

// ============================================================================
// Query
// ============================================================================

// QueryRay appends to candidates the index of every body which may be hit
// by the ray, planes first, each once. seen needs one flag per body, all
// false; they are false again on return.
// The grid is only read, so rays can be queried from several goroutines
// as long as each one owns its seen and candidates.
func (sg *SpatialGrid) QueryRay(origin, direction mgl64.Vec3, length float64, seen []bool, candidates []int) []int {
	candidates = append(candidates, sg.planes...)
	first := len(candidates)

	sg.forEachCell(actor.RayBounds(origin, direction, length), func(cellIdx int) {
		for _, bodyIdx := range sg.cells[cellIdx].bodyIndices {
			if seen[bodyIdx] {
				continue
			}
			seen[bodyIdx] = true
			candidates = append(candidates, bodyIdx)
		}
	})

	for _, bodyIdx := range candidates[first:] {
		seen[bodyIdx] = false
	}

	return candidates
}

// forEachCell visits the cells overlapped by an AABB. Past one visit per
// cell of the grid, every cell is visited once instead.
func (sg *SpatialGrid) forEachCell(aabb actor.AABB, fn func(cellIdx int)) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	span := float64(maxCell.X-minCell.X+1) * float64(maxCell.Y-minCell.Y+1) * float64(maxCell.Z-minCell.Z+1)
	if span > float64(len(sg.cells)) {
		for i := range sg.cells {
			fn(i)
		}
		return
	}

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
