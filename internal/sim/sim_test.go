package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/firewatch/internal/faults"
	"github.com/talgya/firewatch/internal/fire"
	"github.com/talgya/firewatch/internal/swarm"
	"github.com/talgya/firewatch/internal/terrain"
)

// grassParams is a calibration where one tick of burning ignites exactly the
// four cardinal neighbours: cardinal ROS ≈ 0.714 crosses the 0.6 threshold,
// the diagonal ≈ 0.505 does not.
func grassParams() fire.Params {
	p := fire.DefaultParams()
	p.IgnitionJitter = 0
	p.Fuel[terrain.FuelGrass] = fire.FuelParams{ROSFactor: 1, BurnRate: 0.5, IgnitionThreshold: 0.6}
	return p
}

func grassSim(t *testing.T, w, h int, igniteRow, igniteCol int, drones []*swarm.Drone, cfg Config) *Sim {
	t.Helper()
	g := terrain.Uniform(w, h, terrain.FuelGrass, 1, 0.1)
	engine, err := fire.NewEngine(g, grassParams(), nil, 42)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if ok, err := engine.Ignite(igniteRow, igniteCol); err != nil || !ok {
		t.Fatalf("Ignite: ok=%v err=%v", ok, err)
	}
	coord, err := swarm.NewCoordinator(w, h, drones, swarm.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	s, err := New(engine, coord, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func cornerDrones(w, h int, radius, speed float64) []*swarm.Drone {
	return []*swarm.Drone{
		swarm.NewDrone(0, 0, 0, radius, speed),
		swarm.NewDrone(1, float64(w-1), 0, radius, speed),
		swarm.NewDrone(2, 0, float64(h-1), radius, speed),
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	g := terrain.Uniform(4, 4, terrain.FuelGrass, 1, 0.1)
	engine, err := fire.NewEngine(g, grassParams(), nil, 1)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	coord, err := swarm.NewCoordinator(4, 4, []*swarm.Drone{swarm.NewDrone(0, 0, 0, 3, 1)}, swarm.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}

	if _, err := New(nil, coord, DefaultConfig()); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("nil engine: want configuration error, got %v", err)
	}
	if _, err := New(engine, coord, Config{MaxTicks: 0, TickDuration: 1}); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("zero max ticks: want configuration error, got %v", err)
	}
	if _, err := New(engine, coord, Config{MaxTicks: 10, TickDuration: 0}); !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("zero tick duration: want configuration error, got %v", err)
	}
}

func TestFirstTickSpreadObservationAndAssignment(t *testing.T) {
	s := grassSim(t, 10, 10, 5, 5, cornerDrones(10, 10, 8, 2), Config{MaxTicks: 200, TickDuration: 1})

	snap, err := s.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if snap.Tick != 1 || snap.State != StateRunning {
		t.Fatalf("tick %d state %s", snap.Tick, StateName(snap.State))
	}
	if snap.Burning != 1 || snap.Igniting != 4 || snap.Burnt != 0 || snap.Unburned != 95 {
		t.Fatalf("counts: unburned %d igniting %d burning %d burnt %d",
			snap.Unburned, snap.Igniting, snap.Burning, snap.Burnt)
	}
	if len(snap.Changes) != 4 {
		t.Fatalf("want 4 state changes, got %d", len(snap.Changes))
	}
	for _, ch := range snap.Changes {
		if ch.To != fire.StateIgniting {
			t.Fatalf("unexpected change %+v", ch)
		}
	}

	// Greedy nearest-neighbour over the frontier {(4,5),(5,4),(5,5),(5,6),(6,5)}
	// from corner bases is fully determined.
	want := swarm.Assignment{
		0: {Row: 5, Col: 5},
		1: {Row: 4, Col: 5},
		2: {Row: 5, Col: 4},
	}
	if len(snap.Assignments) != len(want) {
		t.Fatalf("assignments %+v, want %+v", snap.Assignments, want)
	}
	for id, ref := range want {
		if got := snap.Assignments[id]; got != ref {
			t.Fatalf("drone %d assigned %+v, want %+v", id, got, ref)
		}
	}

	// Drone 0 starts at the origin and moves toward its target, one bounded step.
	for _, d := range snap.Drones {
		if d.ID != 0 {
			continue
		}
		moved := math.Hypot(d.X, d.Y)
		if moved == 0 || moved > 2+1e-9 {
			t.Fatalf("drone 0 moved %g, want within (0, 2]", moved)
		}
	}

	ignitionEvents := 0
	for _, ev := range s.Events() {
		if ev.Category == "fire" {
			ignitionEvents++
		}
	}
	if ignitionEvents != 4 {
		t.Fatalf("want 4 ignition events, got %d", ignitionEvents)
	}
}

func TestRunBurnsOutAndCompletes(t *testing.T) {
	s := grassSim(t, 6, 6, 3, 3, cornerDrones(6, 6, 5, 1), Config{MaxTicks: 200, TickDuration: 1})

	snap, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if s.State() != StateCompleted || snap.State != StateCompleted {
		t.Fatalf("state %s, want completed", StateName(s.State()))
	}
	if snap.Burnt != 36 || snap.Unburned != 0 {
		t.Fatalf("final counts: burnt %d unburned %d", snap.Burnt, snap.Unburned)
	}
	if s.Engine().ActiveCount() != 0 {
		t.Fatal("completed run left active fire cells")
	}

	last := s.Events()[len(s.Events())-1]
	if last.Category != "run" || last.Description != "fire extinguished" {
		t.Fatalf("final event %+v", last)
	}
}

func TestNothingToBurnCompletesImmediately(t *testing.T) {
	g := terrain.Uniform(4, 4, terrain.FuelNonburnable, 0, 0.1)
	engine, err := fire.NewEngine(g, grassParams(), nil, 1)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if ok, err := engine.Ignite(1, 1); err != nil || ok {
		t.Fatalf("nonburnable ignite: ok=%v err=%v", ok, err)
	}
	coord, err := swarm.NewCoordinator(4, 4, []*swarm.Drone{swarm.NewDrone(0, 0, 0, 3, 1)}, swarm.DefaultConfig())
	if err != nil {
		t.Fatalf("NewCoordinator: %v", err)
	}
	s, err := New(engine, coord, DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	snap, err := s.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if snap.State != StateCompleted || snap.Tick != 1 {
		t.Fatalf("tick %d state %s, want completed at 1", snap.Tick, StateName(snap.State))
	}
}

func TestStepAfterTerminalIsContractViolation(t *testing.T) {
	s := grassSim(t, 4, 4, 2, 2, cornerDrones(4, 4, 4, 1), Config{MaxTicks: 1, TickDuration: 1})

	if _, err := s.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if s.State() != StateCompleted {
		t.Fatalf("state %s after max tick bound", StateName(s.State()))
	}
	if _, err := s.Step(); !errors.Is(err, faults.ErrContract) {
		t.Fatalf("step after terminal: want contract error, got %v", err)
	}
}

func TestMaxTickBoundStopsOngoingFire(t *testing.T) {
	s := grassSim(t, 20, 20, 10, 10, cornerDrones(20, 20, 8, 2), Config{MaxTicks: 3, TickDuration: 1})

	snap, err := s.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Tick != 3 || snap.State != StateCompleted {
		t.Fatalf("tick %d state %s", snap.Tick, StateName(snap.State))
	}
	if snap.Burning == 0 {
		t.Fatal("fire should still be active when the tick bound cuts the run")
	}
}

func TestSnapshotsAreIsolatedCopies(t *testing.T) {
	s := grassSim(t, 8, 8, 4, 4, cornerDrones(8, 8, 6, 1), Config{MaxTicks: 100, TickDuration: 1})

	snap, err := s.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}

	// Corrupt everything reachable through the snapshot.
	snap.Cells[0] = fire.StateBurnt
	snap.Assignments[0] = swarm.CellRef{Row: 0, Col: 0}
	if len(snap.Drones) > 0 {
		snap.Drones[0].Battery = -5
	}

	if got := s.Engine().CellAt(0, 0).State; got != fire.StateUnburned {
		t.Fatalf("snapshot mutation reached the engine: %s", fire.StateName(got))
	}
	next, err := s.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if next.Cells[0] != fire.StateUnburned {
		t.Fatal("next snapshot inherited the mutation")
	}
	for _, d := range s.Coordinator().Drones() {
		if d.Battery < 0 {
			t.Fatal("snapshot mutation reached a drone")
		}
	}
}
