// Package fire holds the dynamic combustion state and the spread engine that
// advances it tick by tick.
package fire

// CellState is the combustion phase of one cell. Transitions are strictly
// monotonic: Unburned → Igniting → Burning → Burnt.
type CellState uint8

const (
	StateUnburned CellState = iota
	StateIgniting
	StateBurning
	StateBurnt
)

// StateName returns a human-readable state name.
func StateName(s CellState) string {
	switch s {
	case StateUnburned:
		return "unburned"
	case StateIgniting:
		return "igniting"
	case StateBurning:
		return "burning"
	case StateBurnt:
		return "burnt"
	default:
		return "unknown"
	}
}

// Cell is the mutable combustion state of one grid cell, owned by the engine.
type Cell struct {
	State         CellState `json:"state"`
	FuelRemaining float64   `json:"fuel_remaining"` // kg/m², non-increasing while Burning
	IgnitionTick  int64     `json:"ignition_tick"`  // -1 until the cell ignites
	Accum         float64   `json:"accum"`          // Rate-of-spread accumulator

	threshold float64 // Jittered ignition threshold, drawn on first heating
	residual  uint8   // Heat-source ticks remaining after the Burnt transition
}

// Change records one state transition produced by an Advance call.
type Change struct {
	Row  int       `json:"row"`
	Col  int       `json:"col"`
	From CellState `json:"from"`
	To   CellState `json:"to"`
	Tick uint64    `json:"tick"`
}
