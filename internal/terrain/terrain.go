// Package terrain provides the static environment grid the fire model burns
// across: per-cell fuel, elevation, moisture, and slope. Cells are immutable
// after generation.
package terrain

import (
	"fmt"

	"github.com/talgya/firewatch/internal/faults"
)

// FuelType classifies the vegetation in a cell.
type FuelType uint8

const (
	FuelGrass       FuelType = iota // Fine fuel, fast ignition, fast burn-out
	FuelShrub                       // Medium fuel
	FuelTimber                      // Heavy fuel, slow ignition, long burn
	FuelNonburnable                 // Rock, water, roads — never ignites
)

// NumFuelTypes is the size of per-fuel lookup tables.
const NumFuelTypes = 4

// FuelName returns a human-readable fuel type name.
func FuelName(f FuelType) string {
	switch f {
	case FuelGrass:
		return "grass"
	case FuelShrub:
		return "shrub"
	case FuelTimber:
		return "timber"
	case FuelNonburnable:
		return "nonburnable"
	default:
		return "unknown"
	}
}

// Cell is one tile of static environment.
type Cell struct {
	Row       int      `json:"row"`
	Col       int      `json:"col"`
	Elevation float64  `json:"elevation"` // Meters
	SlopeX    float64  `json:"slope_x"`   // Grade (rise/run) in +col direction
	SlopeY    float64  `json:"slope_y"`   // Grade in +row direction
	Fuel      FuelType `json:"fuel"`
	FuelLoad  float64  `json:"fuel_load"` // kg/m²
	Moisture  float64  `json:"moisture"`  // Fraction 0–1
}

// Grid is a row-major grid of terrain cells.
type Grid struct {
	W, H  int // Columns, rows
	cells []Cell
}

// NewGrid allocates an empty grid. Cells must be filled before Validate.
func NewGrid(w, h int) *Grid {
	if w < 0 || h < 0 {
		w, h = 0, 0
	}
	return &Grid{W: w, H: h, cells: make([]Cell, w*h)}
}

// Index returns the linear slice index for (row, col).
func (g *Grid) Index(row, col int) int { return row*g.W + col }

// At returns the cell at (row, col). Bounds are the caller's responsibility.
func (g *Grid) At(row, col int) *Cell { return &g.cells[row*g.W+col] }

// AtIndex returns the cell at a linear index.
func (g *Grid) AtIndex(idx int) *Cell { return &g.cells[idx] }

// InBounds reports whether (row, col) lies on the grid.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.H && col >= 0 && col < g.W
}

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.cells) }

// Cells exposes the backing slice for read-only iteration.
func (g *Grid) Cells() []Cell { return g.cells }

// NeighborOffsets is the 8-neighbourhood in (dRow, dCol) order, cardinals
// first. Dist carries the centre-to-centre distance in cell units.
var NeighborOffsets = [8]struct {
	DRow, DCol int
	Dist       float64
}{
	{-1, 0, 1}, {1, 0, 1}, {0, -1, 1}, {0, 1, 1},
	{-1, -1, sqrt2}, {-1, 1, sqrt2}, {1, -1, sqrt2}, {1, 1, sqrt2},
}

const sqrt2 = 1.4142135623730951

// Validate rejects grids a run cannot safely start from. Called once at
// initialization; the engine assumes a validated grid afterwards.
func (g *Grid) Validate() error {
	if g.W <= 0 || g.H <= 0 {
		return fmt.Errorf("terrain: grid dimensions %dx%d: %w", g.W, g.H, faults.ErrConfiguration)
	}
	for i := range g.cells {
		c := &g.cells[i]
		if c.Fuel >= NumFuelTypes {
			return fmt.Errorf("terrain: cell (%d,%d) unknown fuel type %d: %w", c.Row, c.Col, c.Fuel, faults.ErrConfiguration)
		}
		if c.FuelLoad < 0 {
			return fmt.Errorf("terrain: cell (%d,%d) negative fuel load %g: %w", c.Row, c.Col, c.FuelLoad, faults.ErrConfiguration)
		}
		if c.Moisture < 0 || c.Moisture > 1 {
			return fmt.Errorf("terrain: cell (%d,%d) moisture %g outside [0,1]: %w", c.Row, c.Col, c.Moisture, faults.ErrConfiguration)
		}
	}
	return nil
}
