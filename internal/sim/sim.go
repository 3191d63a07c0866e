// Package sim provides the orchestrator that advances the fire engine and the
// swarm coordinator in lockstep and publishes read-only snapshots.
package sim

import (
	"fmt"
	"log/slog"

	"github.com/talgya/firewatch/internal/faults"
	"github.com/talgya/firewatch/internal/fire"
	"github.com/talgya/firewatch/internal/swarm"
)

// State is the run lifecycle. Failed is non-recoverable: a run must be
// rebuilt from corrected input.
type State uint8

const (
	StateInitialized State = iota
	StateRunning
	StateCompleted
	StateFailed
)

// StateName returns a human-readable lifecycle state name.
func StateName(s State) string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Config bounds and paces a run.
type Config struct {
	MaxTicks     uint64  `yaml:"max_ticks"`
	TickDuration float64 `yaml:"tick_duration_min"` // Sim-minutes per tick
	ReportEvery  uint64  `yaml:"report_every"`      // Progress log interval in ticks; 0 disables
}

// DefaultConfig returns the baseline run bounds.
func DefaultConfig() Config {
	return Config{MaxTicks: 500, TickDuration: 1, ReportEvery: 50}
}

// Event is a notable occurrence in the run.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "fire", "swarm", "run"
}

// DroneView is the read-only roster entry published in snapshots.
type DroneView struct {
	ID      swarm.DroneID     `json:"id"`
	X       float64           `json:"x"`
	Y       float64           `json:"y"`
	Battery float64           `json:"battery"`
	Status  swarm.DroneStatus `json:"status"`
	Target  *swarm.CellRef    `json:"target,omitempty"`
}

// Snapshot is the per-tick view handed to consumers. Everything in it is a
// copy; mutating a snapshot cannot reach back into the run.
type Snapshot struct {
	Tick  uint64 `json:"tick"`
	State State  `json:"state"`
	W     int    `json:"w"`
	H     int    `json:"h"`

	Cells   []fire.CellState `json:"cells"`   // Row-major combustion states
	Changes []fire.Change    `json:"changes"` // Cells that changed this tick

	Drones      []DroneView      `json:"drones"`
	Assignments swarm.Assignment `json:"assignments"`

	Unburned int `json:"unburned"`
	Igniting int `json:"igniting"`
	Burning  int `json:"burning"`
	Burnt    int `json:"burnt"`
}

// Sim runs the fire engine and swarm coordinator in strict per-tick sequence:
// fire advance → observation refresh → replan → move.
type Sim struct {
	cfg    Config
	engine *fire.Engine
	coord  *swarm.Coordinator

	state  State
	tick   uint64
	events []Event
	last   *Snapshot
}

// New wires a validated engine and coordinator into an Initialized run.
func New(engine *fire.Engine, coord *swarm.Coordinator, cfg Config) (*Sim, error) {
	if engine == nil || coord == nil {
		return nil, fmt.Errorf("sim: nil engine or coordinator: %w", faults.ErrConfiguration)
	}
	if cfg.MaxTicks == 0 {
		return nil, fmt.Errorf("sim: zero max ticks: %w", faults.ErrConfiguration)
	}
	if cfg.TickDuration <= 0 {
		return nil, fmt.Errorf("sim: tick duration %g: %w", cfg.TickDuration, faults.ErrConfiguration)
	}
	return &Sim{cfg: cfg, engine: engine, coord: coord, state: StateInitialized}, nil
}

// State returns the current lifecycle state.
func (s *Sim) State() State { return s.state }

// Tick returns the number of completed ticks.
func (s *Sim) Tick() uint64 { return s.tick }

// Events returns the accumulated event feed.
func (s *Sim) Events() []Event { return s.events }

// Latest returns the most recent snapshot, nil before the first step.
func (s *Sim) Latest() *Snapshot { return s.last }

// Engine exposes the fire engine for read-only inspection.
func (s *Sim) Engine() *fire.Engine { return s.engine }

// Coordinator exposes the swarm coordinator for read-only inspection.
func (s *Sim) Coordinator() *swarm.Coordinator { return s.coord }

// Step advances the run by exactly one tick. It is the sole mutating
// transition; calling it on a Completed or Failed run is a contract violation.
func (s *Sim) Step() (*Snapshot, error) {
	switch s.state {
	case StateInitialized:
		s.state = StateRunning
	case StateRunning:
	default:
		return nil, fmt.Errorf("sim: step in state %s: %w", StateName(s.state), faults.ErrContract)
	}

	changes, err := s.engine.Advance(s.cfg.TickDuration)
	if err != nil {
		s.state = StateFailed
		s.events = append(s.events, Event{Tick: s.tick + 1, Description: err.Error(), Category: "run"})
		return nil, fmt.Errorf("sim: tick %d: %w", s.tick+1, err)
	}
	s.tick++

	// Publish this tick's ground truth, then let the swarm react to it.
	states := make([]fire.CellState, len(s.engine.Cells()))
	for i, c := range s.engine.Cells() {
		states[i] = c.State
	}
	s.coord.Observe(s.tick, states)
	assignments := s.coord.Replan()
	grounded := s.coord.Move()

	for _, ch := range changes {
		if ch.To == fire.StateIgniting {
			s.events = append(s.events, Event{
				Tick:        s.tick,
				Description: fmt.Sprintf("cell (%d,%d) ignited", ch.Row, ch.Col),
				Category:    "fire",
			})
		}
	}
	for _, id := range grounded {
		s.events = append(s.events, Event{
			Tick:        s.tick,
			Description: fmt.Sprintf("drone %d grounded", id),
			Category:    "swarm",
		})
	}

	if s.engine.ActiveCount() == 0 {
		s.state = StateCompleted
		s.events = append(s.events, Event{Tick: s.tick, Description: "fire extinguished", Category: "run"})
	} else if s.tick >= s.cfg.MaxTicks {
		s.state = StateCompleted
		s.events = append(s.events, Event{Tick: s.tick, Description: "max tick bound reached", Category: "run"})
	}

	snap := s.buildSnapshot(states, changes, assignments)
	s.last = snap

	if s.cfg.ReportEvery > 0 && s.tick%s.cfg.ReportEvery == 0 {
		slog.Info("tick report",
			"tick", s.tick,
			"state", StateName(s.state),
			"igniting", snap.Igniting,
			"burning", snap.Burning,
			"burnt", snap.Burnt,
			"drones_active", s.coord.ActiveCount(),
		)
	}
	return snap, nil
}

// Run steps until the run reaches a terminal state and returns the final
// snapshot.
func (s *Sim) Run() (*Snapshot, error) {
	for s.state == StateInitialized || s.state == StateRunning {
		if _, err := s.Step(); err != nil {
			return nil, err
		}
	}
	return s.last, nil
}

func (s *Sim) buildSnapshot(states []fire.CellState, changes []fire.Change, assignments swarm.Assignment) *Snapshot {
	g := s.engine.Terrain()
	unburned, igniting, burning, burnt := s.engine.Counts()

	snap := &Snapshot{
		Tick:        s.tick,
		State:       s.state,
		W:           g.W,
		H:           g.H,
		Cells:       states,
		Changes:     append([]fire.Change(nil), changes...),
		Assignments: make(swarm.Assignment, len(assignments)),
		Unburned:    unburned,
		Igniting:    igniting,
		Burning:     burning,
		Burnt:       burnt,
	}
	for id, ref := range assignments {
		snap.Assignments[id] = ref
	}
	for _, d := range s.coord.Drones() {
		view := DroneView{ID: d.ID, X: d.X, Y: d.Y, Battery: d.Battery, Status: d.Status}
		if d.Target != nil {
			t := *d.Target
			view.Target = &t
		}
		snap.Drones = append(snap.Drones, view)
	}
	return snap
}
