package terrain

import (
	"errors"
	"testing"

	"github.com/talgya/firewatch/internal/faults"
)

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 32, 32
	cfg.Seed = 7

	a, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := 0; i < a.Len(); i++ {
		if *a.AtIndex(i) != *b.AtIndex(i) {
			t.Fatalf("cell %d differs between identical seeds: %+v vs %+v", i, *a.AtIndex(i), *b.AtIndex(i))
		}
	}

	cfg.Seed = 8
	c, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	same := true
	for i := 0; i < a.Len(); i++ {
		if a.AtIndex(i).Elevation != c.AtIndex(i).Elevation {
			same = false
			break
		}
	}
	if same {
		t.Fatal("different seeds produced identical elevation maps")
	}
}

func TestGenerateProducesValidCells(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 48, 40
	g, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if g.W != 48 || g.H != 40 || g.Len() != 48*40 {
		t.Fatalf("unexpected grid shape %dx%d len %d", g.W, g.H, g.Len())
	}

	burnable := 0
	for _, c := range g.Cells() {
		if c.Fuel == FuelNonburnable {
			if c.FuelLoad != 0 {
				t.Fatalf("nonburnable cell (%d,%d) carries fuel load %g", c.Row, c.Col, c.FuelLoad)
			}
			continue
		}
		burnable++
		if c.FuelLoad <= 0 {
			t.Fatalf("burnable cell (%d,%d) has load %g", c.Row, c.Col, c.FuelLoad)
		}
	}
	// The fuel-density split leaves almost the whole map burnable.
	if burnable < g.Len()/2 {
		t.Fatalf("only %d of %d cells burnable", burnable, g.Len())
	}
}

func TestGenerateRejectsBadConfig(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width = 0
	if _, err := Generate(cfg); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("zero width: want configuration error, got %v", err)
	}
	cfg = DefaultGenConfig()
	cfg.CellSize = 0
	if _, err := Generate(cfg); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("zero cell size: want configuration error, got %v", err)
	}
}

func TestFirebreaksCarveNonburnableCross(t *testing.T) {
	cfg := DefaultGenConfig()
	cfg.Width, cfg.Height = 20, 16
	cfg.Firebreaks = true
	g, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	midRow, midCol := g.H/2, g.W/2
	for col := 0; col < g.W; col++ {
		if c := g.At(midRow, col); c.Fuel != FuelNonburnable || c.FuelLoad != 0 {
			t.Fatalf("firebreak row broken at col %d: %s load %g", col, FuelName(c.Fuel), c.FuelLoad)
		}
	}
	for row := 0; row < g.H; row++ {
		if c := g.At(row, midCol); c.Fuel != FuelNonburnable || c.FuelLoad != 0 {
			t.Fatalf("firebreak col broken at row %d: %s load %g", row, FuelName(c.Fuel), c.FuelLoad)
		}
	}
}

func TestValidateRejectsBadCells(t *testing.T) {
	g := Uniform(4, 4, FuelGrass, 1, 0.1)
	g.At(2, 2).Moisture = 1.5
	if err := g.Validate(); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("bad moisture: want configuration error, got %v", err)
	}

	g = Uniform(4, 4, FuelGrass, 1, 0.1)
	g.At(0, 3).FuelLoad = -1
	if err := g.Validate(); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("negative load: want configuration error, got %v", err)
	}

	g = Uniform(4, 4, FuelGrass, 1, 0.1)
	g.At(1, 1).Fuel = FuelType(99)
	if err := g.Validate(); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("unknown fuel: want configuration error, got %v", err)
	}

	if err := NewGrid(0, 5).Validate(); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatal("empty grid must not validate")
	}
}

func TestIndexAndBounds(t *testing.T) {
	g := Uniform(5, 3, FuelShrub, 1.8, 0.2)
	if got := g.Index(2, 4); got != 14 {
		t.Fatalf("Index(2,4) = %d, want 14", got)
	}
	if c := g.At(2, 4); c.Row != 2 || c.Col != 4 {
		t.Fatalf("At(2,4) returned cell (%d,%d)", c.Row, c.Col)
	}
	if !g.InBounds(0, 0) || !g.InBounds(2, 4) {
		t.Fatal("corner cells must be in bounds")
	}
	if g.InBounds(3, 0) || g.InBounds(0, 5) || g.InBounds(-1, 0) {
		t.Fatal("out-of-range coordinates must not be in bounds")
	}
}

func TestNeighborOffsetsCardinalsFirst(t *testing.T) {
	for i, off := range NeighborOffsets {
		wantDist := 1.0
		if i >= 4 {
			wantDist = sqrt2
		}
		if off.Dist != wantDist {
			t.Fatalf("offset %d (%d,%d) dist %g, want %g", i, off.DRow, off.DCol, off.Dist, wantDist)
		}
		if off.DRow == 0 && off.DCol == 0 {
			t.Fatal("neighbourhood must not include the centre")
		}
	}
}

func TestSlopesFollowElevationGradient(t *testing.T) {
	g := NewGrid(5, 5)
	for row := 0; row < 5; row++ {
		for col := 0; col < 5; col++ {
			c := g.At(row, col)
			c.Row, c.Col = row, col
			c.Fuel = FuelGrass
			c.FuelLoad = 1
			c.Elevation = float64(col) * 10 // Rises east at 10m per cell
		}
	}
	computeSlopes(g, 10)
	if got := g.At(2, 2).SlopeX; got != 1 {
		t.Fatalf("interior SlopeX = %g, want 1", got)
	}
	if got := g.At(2, 2).SlopeY; got != 0 {
		t.Fatalf("flat row SlopeY = %g, want 0", got)
	}
	// Edge columns clamp the stencil, halving the measured grade.
	if got := g.At(2, 0).SlopeX; got != 0.5 {
		t.Fatalf("edge SlopeX = %g, want 0.5", got)
	}
}
