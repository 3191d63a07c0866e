// Package scenario loads run definitions from YAML files and assembles them
// into ready-to-step simulations. A scenario file is the single input surface
// for the CLI; every field has a default so a minimal file works.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talgya/firewatch/internal/faults"
	"github.com/talgya/firewatch/internal/fire"
	"github.com/talgya/firewatch/internal/sim"
	"github.com/talgya/firewatch/internal/swarm"
	"github.com/talgya/firewatch/internal/terrain"
	"github.com/talgya/firewatch/internal/wind"
)

// Ignition marks one initial fire cell.
type Ignition struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

// SwarmConfig sizes and parameterizes the drone fleet.
type SwarmConfig struct {
	Count         int          `yaml:"count"`
	SensingRadius float64      `yaml:"sensing_radius"`
	MaxSpeed      float64      `yaml:"max_speed"`
	Costs         swarm.Config `yaml:"costs"`
}

// FuelOverride patches one fuel type's calibration from a scenario file.
type FuelOverride struct {
	Fuel   string          `yaml:"fuel"`
	Params fire.FuelParams `yaml:"params"`
}

// Scenario is the full run definition.
type Scenario struct {
	Name string `yaml:"name"`
	Seed int64  `yaml:"seed"`

	Terrain   terrain.GenConfig `yaml:"terrain"`
	Ignitions []Ignition        `yaml:"ignitions"`
	Wind      []wind.Keyframe   `yaml:"wind"`

	Fire          fire.Params    `yaml:"fire"`
	FuelOverrides []FuelOverride `yaml:"fuel_overrides"`

	Swarm SwarmConfig `yaml:"swarm"`
	Run   sim.Config  `yaml:"run"`
}

// Default returns a runnable baseline scenario: a 64×64 generated landscape,
// one central ignition, three drones based at grid corners.
func Default() Scenario {
	return Scenario{
		Name:      "default",
		Seed:      42,
		Terrain:   terrain.DefaultGenConfig(),
		Ignitions: []Ignition{{Row: 32, Col: 32}},
		Fire:      fire.DefaultParams(),
		Swarm: SwarmConfig{
			Count:         3,
			SensingRadius: 6,
			MaxSpeed:      2,
			Costs:         swarm.DefaultConfig(),
		},
		Run: sim.DefaultConfig(),
	}
}

// Load reads a scenario file over the defaults.
func Load(path string) (Scenario, error) {
	sc := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return sc, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return sc, fmt.Errorf("scenario: parse %s: %v: %w", path, err, faults.ErrConfiguration)
	}
	if err := sc.applyFuelOverrides(); err != nil {
		return sc, err
	}
	return sc, sc.Validate()
}

func (sc *Scenario) applyFuelOverrides() error {
	for _, ov := range sc.FuelOverrides {
		var ft terrain.FuelType
		switch ov.Fuel {
		case "grass":
			ft = terrain.FuelGrass
		case "shrub":
			ft = terrain.FuelShrub
		case "timber":
			ft = terrain.FuelTimber
		case "nonburnable":
			ft = terrain.FuelNonburnable
		default:
			return fmt.Errorf("scenario: unknown fuel %q in override: %w", ov.Fuel, faults.ErrConfiguration)
		}
		sc.Fire.Fuel[ft] = ov.Params
	}
	return nil
}

// Validate rejects scenarios that cannot start. Component constructors
// re-check their own inputs; this catches the cross-cutting pieces early.
func (sc *Scenario) Validate() error {
	if len(sc.Ignitions) == 0 {
		return fmt.Errorf("scenario: no ignition points: %w", faults.ErrConfiguration)
	}
	for _, ig := range sc.Ignitions {
		if ig.Row < 0 || ig.Row >= sc.Terrain.Height || ig.Col < 0 || ig.Col >= sc.Terrain.Width {
			return fmt.Errorf("scenario: ignition (%d,%d) outside %dx%d grid: %w",
				ig.Row, ig.Col, sc.Terrain.Width, sc.Terrain.Height, faults.ErrConfiguration)
		}
	}
	if sc.Swarm.Count < 0 {
		return fmt.Errorf("scenario: negative swarm size: %w", faults.ErrConfiguration)
	}
	return nil
}

// Build assembles the scenario into an Initialized simulation.
func (sc Scenario) Build() (*sim.Sim, error) {
	grid, err := terrain.Generate(sc.Terrain)
	if err != nil {
		return nil, err
	}

	schedule, err := wind.NewSchedule(sc.Wind)
	if err != nil {
		return nil, err
	}

	engine, err := fire.NewEngine(grid, sc.Fire, schedule, sc.Seed)
	if err != nil {
		return nil, err
	}
	for _, ig := range sc.Ignitions {
		if _, err := engine.Ignite(ig.Row, ig.Col); err != nil {
			return nil, err
		}
	}

	drones := make([]*swarm.Drone, sc.Swarm.Count)
	for i := range drones {
		bx, by := baseCorner(i, grid.W, grid.H)
		drones[i] = swarm.NewDrone(swarm.DroneID(i), bx, by, sc.Swarm.SensingRadius, sc.Swarm.MaxSpeed)
	}
	coord, err := swarm.NewCoordinator(grid.W, grid.H, drones, sc.Swarm.Costs)
	if err != nil {
		return nil, err
	}

	return sim.New(engine, coord, sc.Run)
}

// baseCorner spreads drone bases over the four grid corners.
func baseCorner(i, w, h int) (x, y float64) {
	switch i % 4 {
	case 0:
		return 0, 0
	case 1:
		return float64(w - 1), 0
	case 2:
		return 0, float64(h - 1)
	default:
		return float64(w - 1), float64(h - 1)
	}
}
