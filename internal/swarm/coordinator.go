package swarm

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/firewatch/internal/faults"
	"github.com/talgya/firewatch/internal/fire"
)

// Config holds the swarm-wide movement and energy parameters.
type Config struct {
	MoveCost     float64 `yaml:"move_cost"`     // Battery per cell moved
	SenseCost    float64 `yaml:"sense_cost"`    // Battery per airborne tick
	ReserveLevel float64 `yaml:"reserve_level"` // Below this an active drone returns to base
	RechargeRate float64 `yaml:"recharge_rate"` // Battery per tick while parked on base
}

// DefaultConfig returns the baseline swarm parameters.
func DefaultConfig() Config {
	return Config{
		MoveCost:     0.004,
		SenseCost:    0.001,
		ReserveLevel: 0.25,
		RechargeRate: 0.05,
	}
}

// Assignment maps each covered drone to its target cell, rebuilt every tick.
type Assignment map[DroneID]CellRef

// Coordinator owns the drone roster and the shared fire-front estimate.
type Coordinator struct {
	cfg    Config
	w, h   int
	drones []*Drone

	// Shared estimate merged from all drones' observations: newest reading
	// wins per cell, ties broken by ascending drone id.
	estimate []Observation
}

// NewCoordinator validates the roster and builds a coordinator for a w×h grid.
func NewCoordinator(w, h int, drones []*Drone, cfg Config) (*Coordinator, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("swarm: grid dimensions %dx%d: %w", w, h, faults.ErrConfiguration)
	}
	if cfg.MoveCost < 0 || cfg.SenseCost < 0 || cfg.ReserveLevel < 0 || cfg.ReserveLevel >= 1 || cfg.RechargeRate < 0 {
		return nil, fmt.Errorf("swarm: invalid cost config %+v: %w", cfg, faults.ErrConfiguration)
	}
	seen := make(map[DroneID]bool, len(drones))
	for _, d := range drones {
		if seen[d.ID] {
			return nil, fmt.Errorf("swarm: duplicate drone id %d: %w", d.ID, faults.ErrConfiguration)
		}
		seen[d.ID] = true
		if d.SensingRadius <= 0 || d.MaxSpeed <= 0 {
			return nil, fmt.Errorf("swarm: drone %d sensing radius %g / max speed %g: %w", d.ID, d.SensingRadius, d.MaxSpeed, faults.ErrConfiguration)
		}
		if d.Battery <= 0 || d.Battery > 1 {
			return nil, fmt.Errorf("swarm: drone %d battery %g outside (0,1]: %w", d.ID, d.Battery, faults.ErrConfiguration)
		}
	}
	roster := append([]*Drone(nil), drones...)
	sort.Slice(roster, func(i, j int) bool { return roster[i].ID < roster[j].ID })
	return &Coordinator{
		cfg:      cfg,
		w:        w,
		h:        h,
		drones:   roster,
		estimate: make([]Observation, w*h),
	}, nil
}

// Drones returns the roster, ascending by id. Grounded drones stay listed.
func (c *Coordinator) Drones() []*Drone { return c.drones }

// Estimate exposes the shared fire-front estimate for read-only inspection.
func (c *Coordinator) Estimate() []Observation { return c.estimate }

// ActiveCount returns the number of drones still flying.
func (c *Coordinator) ActiveCount() int {
	n := 0
	for _, d := range c.drones {
		if d.Status != StatusGrounded {
			n++
		}
	}
	return n
}

// Observe refreshes every flying drone's local observations from the
// published fire snapshot, then merges them into the shared estimate. Within
// its sensing radius a drone reads the true state with zero noise — a
// deliberate model simplification.
func (c *Coordinator) Observe(tick uint64, states []fire.CellState) {
	for _, d := range c.drones {
		if d.Status == StatusGrounded {
			continue
		}
		r := d.SensingRadius
		minRow := int(math.Floor(d.Y - r))
		maxRow := int(math.Ceil(d.Y + r))
		minCol := int(math.Floor(d.X - r))
		maxCol := int(math.Ceil(d.X + r))
		for row := max(minRow, 0); row <= min(maxRow, c.h-1); row++ {
			for col := max(minCol, 0); col <= min(maxCol, c.w-1); col++ {
				dx, dy := float64(col)-d.X, float64(row)-d.Y
				if dx*dx+dy*dy > r*r {
					continue
				}
				idx := row*c.w + col
				d.Observations[idx] = Observation{State: states[idx], Tick: tick, Seen: true}
			}
		}
	}

	c.merge()
}

// merge folds every drone's local observations into the shared estimate, in
// ascending id order. Only strictly newer readings overwrite, so on equal
// ticks the lowest id wins.
func (c *Coordinator) merge() {
	for _, d := range c.drones {
		for idx, obs := range d.Observations {
			cur := c.estimate[idx]
			if !cur.Seen || obs.Tick > cur.Tick {
				c.estimate[idx] = obs
			}
		}
	}
}

// Replan rebuilds the coverage assignment: Frontier cells first, then Active,
// then Cold patrol, each by greedy nearest-neighbour with ties broken by lower
// drone id then lower cell index.
func (c *Coordinator) Replan() Assignment {
	// Energy policy runs before assignment so Returning drones never hold a
	// coverage target.
	for _, d := range c.drones {
		if d.Status == StatusActive && d.Battery < c.cfg.ReserveLevel {
			d.Status = StatusReturning
			d.Target = nil
		}
	}

	frontier, active := c.classify()
	frontierSet := make(map[int]bool, len(frontier))
	for _, idx := range frontier {
		frontierSet[idx] = true
	}
	activeSet := make(map[int]bool, len(active))
	for _, idx := range active {
		activeSet[idx] = true
	}

	asg := make(Assignment)
	claimed := make(map[int]bool)

	var pool []*Drone
	for _, d := range c.drones {
		if d.Status == StatusActive {
			pool = append(pool, d)
		} else {
			d.Target = nil
		}
	}

	// Stickiness: a drone within one movement step of its target keeps it,
	// unless an unclaimed Frontier cell exists that this drone is strictly
	// closer to than every drone currently pursuing it.
	var free []*Drone
	for _, d := range pool {
		if d.Target == nil || d.DistanceTo(*d.Target) > d.MaxSpeed || claimed[c.idx(*d.Target)] {
			free = append(free, d)
			continue
		}
		if c.betterFrontierExists(d, frontierSet, claimed) {
			d.Target = nil
			free = append(free, d)
			continue
		}
		idx := c.idx(*d.Target)
		claimed[idx] = true
		asg[d.ID] = *d.Target
	}

	free = c.greedyAssign(free, frontier, claimed, asg)
	free = c.greedyAssign(free, active, claimed, asg)

	// Cold patrol: remaining drones take the nearest unclaimed cold cell to
	// keep coverage continuity.
	for _, d := range free {
		best, found := -1, false
		bestDist := math.Inf(1)
		for idx := 0; idx < c.w*c.h; idx++ {
			if claimed[idx] || frontierSet[idx] || activeSet[idx] {
				continue
			}
			ref := c.ref(idx)
			dist := d.DistanceTo(ref)
			if dist < bestDist {
				bestDist, best, found = dist, idx, true
			}
		}
		if !found {
			d.Target = nil // Idle: every cell is claimed
			continue
		}
		claimed[best] = true
		ref := c.ref(best)
		d.Target = &ref
		asg[d.ID] = ref
	}

	return asg
}

// greedyAssign repeatedly picks the closest (drone, target) pair until drones
// or targets run out, and returns the drones left unassigned.
func (c *Coordinator) greedyAssign(drones []*Drone, targets []int, claimed map[int]bool, asg Assignment) []*Drone {
	assigned := make(map[DroneID]bool)
	for {
		bestDist := math.Inf(1)
		var bestDrone *Drone
		bestIdx := -1
		for _, d := range drones {
			if assigned[d.ID] {
				continue
			}
			for _, idx := range targets {
				if claimed[idx] {
					continue
				}
				// Drones iterate ascending by id and targets ascending by
				// index, so strict less-than leaves ties with the lower id
				// and lower cell index.
				dist := d.DistanceTo(c.ref(idx))
				if dist < bestDist {
					bestDist, bestDrone, bestIdx = dist, d, idx
				}
			}
		}
		if bestDrone == nil {
			break
		}
		claimed[bestIdx] = true
		assigned[bestDrone.ID] = true
		ref := c.ref(bestIdx)
		bestDrone.Target = &ref
		asg[bestDrone.ID] = ref
	}
	var rest []*Drone
	for _, d := range drones {
		if !assigned[d.ID] {
			rest = append(rest, d)
		}
	}
	return rest
}

// betterFrontierExists reports whether an unclaimed frontier cell is strictly
// closer to d than to every drone currently pursuing a target on it.
func (c *Coordinator) betterFrontierExists(d *Drone, frontierSet map[int]bool, claimed map[int]bool) bool {
	for idx := range frontierSet {
		if claimed[idx] {
			continue
		}
		ref := c.ref(idx)
		if d.Target != nil && ref == *d.Target {
			continue
		}
		dist := d.DistanceTo(ref)
		closer := true
		for _, other := range c.drones {
			if other.ID == d.ID || other.Status != StatusActive || other.Target == nil {
				continue
			}
			if *other.Target == ref && other.DistanceTo(ref) <= dist {
				closer = false
				break
			}
		}
		if closer {
			return true
		}
	}
	return false
}

// classify partitions observed cells into Frontier (Igniting, or Burning
// adjacent to unburned-or-unseen fuel) and Active (interior Burning). Cells in
// neither list are Cold. Both lists come back in ascending index order for
// deterministic tie-breaks.
func (c *Coordinator) classify() (frontier, active []int) {
	for idx := range c.estimate {
		est := c.estimate[idx]
		if !est.Seen {
			continue
		}
		switch est.State {
		case fire.StateIgniting:
			frontier = append(frontier, idx)
		case fire.StateBurning:
			if c.adjacentToUnburned(idx) {
				frontier = append(frontier, idx)
			} else {
				active = append(active, idx)
			}
		}
	}
	return frontier, active
}

func (c *Coordinator) adjacentToUnburned(idx int) bool {
	row, col := idx/c.w, idx%c.w
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			nr, nc := row+dr, col+dc
			if nr < 0 || nr >= c.h || nc < 0 || nc >= c.w {
				continue
			}
			est := c.estimate[nr*c.w+nc]
			if !est.Seen || est.State == fire.StateUnburned {
				return true
			}
		}
	}
	return false
}

// Move advances every flying drone one bounded step toward its destination
// and applies battery drain. Returns the ids of drones grounded this tick.
func (c *Coordinator) Move() []DroneID {
	var grounded []DroneID
	for _, d := range c.drones {
		if d.Status == StatusGrounded {
			continue
		}

		tx, ty := d.X, d.Y
		switch {
		case d.Status == StatusReturning:
			tx, ty = d.BaseX, d.BaseY
		case d.Target != nil:
			tx, ty = float64(d.Target.Col), float64(d.Target.Row)
		}
		dx, dy := tx-d.X, ty-d.Y
		dist := math.Hypot(dx, dy)
		step := math.Min(dist, d.MaxSpeed)
		if dist > 0 {
			d.X += dx / dist * step
			d.Y += dy / dist * step
		}

		// Parked on base: rotors off, recharge instead of drain.
		if d.Status == StatusReturning && d.distanceToBase() < 0.25 {
			d.Battery = math.Min(1, d.Battery+c.cfg.RechargeRate)
			if d.Battery == 1 {
				d.Status = StatusActive
			}
			continue
		}

		d.Battery -= c.cfg.MoveCost*step + c.cfg.SenseCost
		if d.Battery <= 0 {
			d.Battery = 0
			d.Status = StatusGrounded
			d.Target = nil
			grounded = append(grounded, d.ID)
		}
	}
	return grounded
}

func (c *Coordinator) idx(ref CellRef) int { return ref.Row*c.w + ref.Col }

func (c *Coordinator) ref(idx int) CellRef { return CellRef{Row: idx / c.w, Col: idx % c.w} }
