package fire

import (
	"fmt"
	"math/rand/v2"

	"github.com/talgya/firewatch/internal/faults"
	"github.com/talgya/firewatch/internal/terrain"
	"github.com/talgya/firewatch/internal/wind"
)

// Engine advances the combustion state of a terrain grid one tick at a time.
// Deterministic: identical terrain, params, wind schedule, and seed produce
// bit-identical runs.
type Engine struct {
	terrain *terrain.Grid
	params  Params
	wind    *wind.Schedule
	rng     *rand.Rand

	tick  uint64
	cells []Cell

	// Per-tick heat scratch, indexed like cells.
	heatSum []float64
	heatMax []float64
}

// NewEngine validates its inputs and builds an engine with every cell
// Unburned. A nil schedule means calm air for the whole run.
func NewEngine(g *terrain.Grid, p Params, ws *wind.Schedule, seed int64) (*Engine, error) {
	if g == nil {
		return nil, fmt.Errorf("fire: nil terrain grid: %w", faults.ErrConfiguration)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if ws == nil {
		ws = wind.Constant(0, 0)
	}

	cells := make([]Cell, g.Len())
	for i := range cells {
		cells[i] = Cell{
			State:         StateUnburned,
			FuelRemaining: g.AtIndex(i).FuelLoad,
			IgnitionTick:  -1,
		}
	}
	return &Engine{
		terrain: g,
		params:  p,
		wind:    ws,
		rng:     rand.New(rand.NewPCG(uint64(seed), 0)),
		cells:   cells,
		heatSum: make([]float64, g.Len()),
		heatMax: make([]float64, g.Len()),
	}, nil
}

// Ignite starts a fire at (row, col) before the run. Nonburnable cells refuse
// to ignite; the bool reports whether the cell actually caught.
func (e *Engine) Ignite(row, col int) (bool, error) {
	if !e.terrain.InBounds(row, col) {
		return false, fmt.Errorf("fire: ignite (%d,%d) out of bounds: %w", row, col, faults.ErrContract)
	}
	idx := e.terrain.Index(row, col)
	if e.params.Fuel[e.terrain.AtIndex(idx).Fuel].ROSFactor <= 0 {
		return false, nil
	}
	c := &e.cells[idx]
	if c.State != StateUnburned {
		return false, nil
	}
	c.State = StateBurning
	c.IgnitionTick = int64(e.tick)
	return true, nil
}

// Tick returns the number of Advance calls completed so far.
func (e *Engine) Tick() uint64 { return e.tick }

// Cells exposes the combustion state slice for read-only iteration.
func (e *Engine) Cells() []Cell { return e.cells }

// CellAt returns the combustion state of one cell.
func (e *Engine) CellAt(row, col int) Cell { return e.cells[e.terrain.Index(row, col)] }

// Terrain returns the static grid the engine burns across.
func (e *Engine) Terrain() *terrain.Grid { return e.terrain }

// Counts tallies cells per combustion state.
func (e *Engine) Counts() (unburned, igniting, burning, burnt int) {
	for i := range e.cells {
		switch e.cells[i].State {
		case StateUnburned:
			unburned++
		case StateIgniting:
			igniting++
		case StateBurning:
			burning++
		case StateBurnt:
			burnt++
		}
	}
	return
}

// ActiveCount returns the number of cells still driving the fire.
func (e *Engine) ActiveCount() int {
	n := 0
	for i := range e.cells {
		if s := e.cells[i].State; s == StateIgniting || s == StateBurning {
			n++
		}
	}
	return n
}

// Advance moves the fire forward by one tick of the given duration (sim
// minutes) and returns the cells whose state changed, in row-major order.
func (e *Engine) Advance(dt float64) ([]Change, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("fire: advance with tick duration %g: %w", dt, faults.ErrContract)
	}
	e.tick++
	w := e.wind.At(e.tick)

	for i := range e.heatSum {
		e.heatSum[i] = 0
		e.heatMax[i] = 0
	}

	// Spread pass: every Burning cell, and every Burnt cell still inside its
	// residual-heat window, pushes heat into Unburned 8-neighbours.
	for idx := range e.cells {
		src := &e.cells[idx]
		radiating := src.State == StateBurning || (src.State == StateBurnt && src.residual > 0)
		if !radiating {
			continue
		}
		st := e.terrain.AtIndex(idx)
		for _, off := range terrain.NeighborOffsets {
			nr, nc := st.Row+off.DRow, st.Col+off.DCol
			if !e.terrain.InBounds(nr, nc) {
				continue
			}
			nIdx := e.terrain.Index(nr, nc)
			if e.cells[nIdx].State != StateUnburned {
				continue
			}
			ros := e.spreadRate(e.terrain.AtIndex(nIdx), w, float64(off.DCol)/off.Dist, float64(off.DRow)/off.Dist, off.Dist)
			if ros <= 0 {
				continue
			}
			e.heatSum[nIdx] += ros
			if ros > e.heatMax[nIdx] {
				e.heatMax[nIdx] = ros
			}
		}
		if src.State == StateBurnt && src.residual > 0 {
			src.residual--
		}
	}

	var changes []Change

	// Ignition pass: clamp multi-source increments, accumulate, and check
	// thresholds. Iteration order is fixed, so RNG draws are reproducible.
	for idx := range e.cells {
		sum := e.heatSum[idx]
		if sum <= 0 {
			continue
		}
		c := &e.cells[idx]
		inc := sum
		if limit := e.params.MultiSourceCap * e.heatMax[idx]; inc > limit {
			inc = limit
		}
		c.Accum += inc * dt
		if c.threshold == 0 {
			base := e.params.Fuel[e.terrain.AtIndex(idx).Fuel].IgnitionThreshold
			c.threshold = base * (1 + e.params.IgnitionJitter*(2*e.rng.Float64()-1))
		}
		if c.Accum >= c.threshold {
			if err := e.transition(idx, StateIgniting, &changes); err != nil {
				return nil, err
			}
			c.IgnitionTick = int64(e.tick)
		}
	}

	// Progression pass: flame buildup and burn-down.
	for idx := range e.cells {
		c := &e.cells[idx]
		switch c.State {
		case StateIgniting:
			if c.IgnitionTick >= 0 && e.tick-uint64(c.IgnitionTick) >= e.params.IgnitionDelayTicks {
				if err := e.transition(idx, StateBurning, &changes); err != nil {
					return nil, err
				}
			}
		case StateBurning:
			t := e.terrain.AtIndex(idx)
			c.FuelRemaining -= e.params.Fuel[t.Fuel].BurnRate * t.FuelLoad * dt
			if c.FuelRemaining <= 0 {
				c.FuelRemaining = 0
				if err := e.transition(idx, StateBurnt, &changes); err != nil {
					return nil, err
				}
				c.residual = e.params.BurntHeatTicks
			}
		}
	}

	return changes, nil
}

// spreadRate computes the directional rate of spread into the receiving cell.
// ux/uy is the unit spread direction, dist the centre distance in cell units.
// Rothermel-style: the receiving cell's fuel and moisture set the base rate,
// aligned wind and upslope grade multiply it.
func (e *Engine) spreadRate(dst *terrain.Cell, w wind.Vector, ux, uy, dist float64) float64 {
	fp := e.params.Fuel[dst.Fuel]
	if fp.ROSFactor <= 0 {
		return 0
	}
	if dst.Moisture >= e.params.MoistureOfExtinction {
		return 0
	}
	base := fp.ROSFactor * dst.FuelLoad
	moist := 1 - dst.Moisture/e.params.MoistureOfExtinction

	windFactor := 1.0
	if align := w.DirX*ux + w.DirY*uy; align > 0 {
		windFactor += e.params.WindGain * w.Speed * align
	}
	slopeFactor := 1.0
	if grade := dst.SlopeX*ux + dst.SlopeY*uy; grade > 0 {
		slopeFactor += e.params.SlopeGain * grade
	}
	return base * moist * windFactor * slopeFactor / dist
}

// transition applies a monotonic state change and records it.
func (e *Engine) transition(idx int, to CellState, changes *[]Change) error {
	c := &e.cells[idx]
	t := e.terrain.AtIndex(idx)
	if to <= c.State {
		return fmt.Errorf("fire: cell (%d,%d) %s → %s: %w", t.Row, t.Col, StateName(c.State), StateName(to), faults.ErrInvariant)
	}
	*changes = append(*changes, Change{Row: t.Row, Col: t.Col, From: c.State, To: to, Tick: e.tick})
	c.State = to
	return nil
}
