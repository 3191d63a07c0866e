package fire

import (
	"fmt"

	"github.com/talgya/firewatch/internal/faults"
	"github.com/talgya/firewatch/internal/terrain"
)

// FuelParams are the per-fuel calibration constants of the spread model.
// These are calibration data, not architecture: scenario files may override
// every value.
type FuelParams struct {
	ROSFactor         float64 `yaml:"ros_factor"`         // Base spread rate per kg/m² of fuel load
	BurnRate          float64 `yaml:"burn_rate"`          // Fuel fraction consumed per tick per kg/m² load
	IgnitionThreshold float64 `yaml:"ignition_threshold"` // Accumulator level that ignites the cell
}

// Params configures the spread engine.
type Params struct {
	Fuel [terrain.NumFuelTypes]FuelParams `yaml:"-"`

	MoistureOfExtinction float64 `yaml:"moisture_of_extinction"` // Moisture at which spread stops entirely
	WindGain             float64 `yaml:"wind_gain"`              // ROS gain per m/s of aligned wind
	SlopeGain            float64 `yaml:"slope_gain"`             // ROS gain per unit of upslope grade

	// Igniting cells become Burning after this many ticks, independent of
	// further accumulation (flame buildup).
	IgnitionDelayTicks uint64 `yaml:"ignition_delay_ticks"`

	// Burnt cells keep radiating for this many ticks so the burn boundary is
	// not artificially truncated. 0 disables the policy.
	BurntHeatTicks uint8 `yaml:"burnt_heat_ticks"`

	// Per-tick accumulator increments from multiple burning neighbours are
	// summed, then clamped to MultiSourceCap × the strongest single
	// contribution. Guards against unphysical instant ignition from many
	// weak sources.
	MultiSourceCap float64 `yaml:"multi_source_cap"`

	// Relative jitter applied to each cell's ignition threshold, drawn once
	// from the engine RNG when the cell first receives heat. 0 makes
	// ignition geometry exact.
	IgnitionJitter float64 `yaml:"ignition_jitter"`
}

// DefaultParams returns the baseline calibration.
func DefaultParams() Params {
	p := Params{
		MoistureOfExtinction: 0.35,
		WindGain:             0.35,
		SlopeGain:            2.0,
		IgnitionDelayTicks:   1,
		BurntHeatTicks:       1,
		MultiSourceCap:       3.0,
		IgnitionJitter:       0.1,
	}
	p.Fuel[terrain.FuelGrass] = FuelParams{ROSFactor: 1.2, BurnRate: 0.5, IgnitionThreshold: 0.5}
	p.Fuel[terrain.FuelShrub] = FuelParams{ROSFactor: 0.7, BurnRate: 0.25, IgnitionThreshold: 0.9}
	p.Fuel[terrain.FuelTimber] = FuelParams{ROSFactor: 0.4, BurnRate: 0.1, IgnitionThreshold: 1.4}
	p.Fuel[terrain.FuelNonburnable] = FuelParams{}
	return p
}

// Validate rejects calibrations the engine cannot run with.
func (p Params) Validate() error {
	for f, fp := range p.Fuel {
		name := terrain.FuelName(terrain.FuelType(f))
		if fp.ROSFactor < 0 || fp.BurnRate < 0 || fp.IgnitionThreshold < 0 {
			return fmt.Errorf("fire: %s params negative: %w", name, faults.ErrConfiguration)
		}
		if fp.ROSFactor > 0 && (fp.IgnitionThreshold == 0 || fp.BurnRate == 0) {
			return fmt.Errorf("fire: %s is burnable but has zero threshold or burn rate: %w", name, faults.ErrConfiguration)
		}
	}
	if p.MoistureOfExtinction <= 0 || p.MoistureOfExtinction > 1 {
		return fmt.Errorf("fire: moisture of extinction %g outside (0,1]: %w", p.MoistureOfExtinction, faults.ErrConfiguration)
	}
	if p.WindGain < 0 || p.SlopeGain < 0 {
		return fmt.Errorf("fire: negative wind or slope gain: %w", faults.ErrConfiguration)
	}
	if p.MultiSourceCap < 1 {
		return fmt.Errorf("fire: multi-source cap %g below 1: %w", p.MultiSourceCap, faults.ErrConfiguration)
	}
	if p.IgnitionJitter < 0 || p.IgnitionJitter >= 1 {
		return fmt.Errorf("fire: ignition jitter %g outside [0,1): %w", p.IgnitionJitter, faults.ErrConfiguration)
	}
	return nil
}
