// Procedural terrain generation using layered simplex noise.
// Generates elevation, moisture, and fuel-density maps, then derives per-cell
// fuel types and loads.
package terrain

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/firewatch/internal/faults"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Width  int   `yaml:"width"`
	Height int   `yaml:"height"`
	Seed   int64 `yaml:"seed"`

	ElevationRange float64 `yaml:"elevation_range"` // Peak-to-valley span in meters
	CellSize       float64 `yaml:"cell_size"`       // Cell edge length in meters
	MoistureBase   float64 `yaml:"moisture_base"`   // Added to the moisture noise layer
	Firebreaks     bool    `yaml:"firebreaks"`      // Carve a nonburnable road cross
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:          64,
		Height:         64,
		Seed:           1,
		ElevationRange: 400,
		CellSize:       30,
		MoistureBase:   0.05,
	}
}

// Fuel loads in kg/m² per fuel type, scaled by the density noise layer.
var baseFuelLoads = [NumFuelTypes]float64{
	FuelGrass:       0.7,
	FuelShrub:       1.8,
	FuelTimber:      3.5,
	FuelNonburnable: 0,
}

// Generate creates a complete terrain grid. Deterministic per seed.
func Generate(cfg GenConfig) (*Grid, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("terrain: generate %dx%d: %w", cfg.Width, cfg.Height, faults.ErrConfiguration)
	}
	if cfg.CellSize <= 0 {
		return nil, fmt.Errorf("terrain: cell size %g: %w", cfg.CellSize, faults.ErrConfiguration)
	}

	// Three noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	moistNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	fuelNoise := opensimplex.NewNormalized(cfg.Seed + 2)

	g := NewGrid(cfg.Width, cfg.Height)

	for row := 0; row < cfg.Height; row++ {
		for col := 0; col < cfg.Width; col++ {
			x, y := float64(col), float64(row)

			// Multi-octave noise for natural-looking structure.
			elev := octaveNoise(elevNoise, x, y, 4, 0.04, 0.5)
			moist := octaveNoise(moistNoise, x, y, 3, 0.05, 0.5)
			density := octaveNoise(fuelNoise, x, y, 3, 0.06, 0.5)

			// Valleys hold moisture; ridges dry out.
			moist = clamp01(moist*0.7 + (1-elev)*0.2 + cfg.MoistureBase)

			fuel := deriveFuel(density, moist)

			c := g.At(row, col)
			c.Row, c.Col = row, col
			c.Elevation = elev * cfg.ElevationRange
			c.Fuel = fuel
			c.FuelLoad = baseFuelLoads[fuel] * (0.6 + 0.8*density)
			c.Moisture = moist
		}
	}

	if cfg.Firebreaks {
		carveFirebreaks(g)
	}

	computeSlopes(g, cfg.CellSize)

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// deriveFuel maps the fuel-density layer to a fuel type. The distribution
// roughly follows a 1% bare / 30% grass / 40% shrub / 29% timber split, with
// very wet cells pushed toward lighter fuels.
func deriveFuel(density, moist float64) FuelType {
	switch {
	case density < 0.01:
		return FuelNonburnable
	case density < 0.31:
		return FuelGrass
	case density < 0.71:
		return FuelShrub
	default:
		if moist > 0.85 {
			return FuelShrub
		}
		return FuelTimber
	}
}

// carveFirebreaks lays a nonburnable road cross through the grid centre.
func carveFirebreaks(g *Grid) {
	midRow, midCol := g.H/2, g.W/2
	for col := 0; col < g.W; col++ {
		c := g.At(midRow, col)
		c.Fuel = FuelNonburnable
		c.FuelLoad = 0
	}
	for row := 0; row < g.H; row++ {
		c := g.At(row, midCol)
		c.Fuel = FuelNonburnable
		c.FuelLoad = 0
	}
}

// computeSlopes derives per-cell grade from elevation central differences.
func computeSlopes(g *Grid, cellSize float64) {
	elevAt := func(row, col int) float64 {
		if row < 0 {
			row = 0
		}
		if row >= g.H {
			row = g.H - 1
		}
		if col < 0 {
			col = 0
		}
		if col >= g.W {
			col = g.W - 1
		}
		return g.At(row, col).Elevation
	}
	for row := 0; row < g.H; row++ {
		for col := 0; col < g.W; col++ {
			c := g.At(row, col)
			c.SlopeX = (elevAt(row, col+1) - elevAt(row, col-1)) / (2 * cellSize)
			c.SlopeY = (elevAt(row+1, col) - elevAt(row-1, col)) / (2 * cellSize)
		}
	}
}

// octaveNoise accumulates several octaves of simplex noise, normalized to 0–1.
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxValue := 0.0
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*freq, y*freq) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		freq *= 2
	}
	return total / maxValue
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Uniform builds a flat grid with a single fuel type everywhere — the standard
// fixture for spread-model experiments.
func Uniform(w, h int, fuel FuelType, load, moisture float64) *Grid {
	g := NewGrid(w, h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			c := g.At(row, col)
			c.Row, c.Col = row, col
			c.Fuel = fuel
			c.FuelLoad = load
			c.Moisture = moisture
		}
	}
	return g
}
