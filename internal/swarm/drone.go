// Package swarm provides the drone agents and the coordinator that spreads
// them over the fire front. Drones fly in continuous space above the cell
// grid; the coordinator re-plans coverage once per tick from a shared,
// possibly stale estimate merged out of every drone's local observations.
package swarm

import (
	"math"

	"github.com/talgya/firewatch/internal/fire"
)

// DroneID identifies a drone. IDs are small ints assigned at init; assignment
// ties break on ascending id, so ordering is part of the contract.
type DroneID int

// DroneStatus is the lifecycle state of a drone.
type DroneStatus uint8

const (
	StatusActive    DroneStatus = iota // Flying, eligible for assignment
	StatusReturning                    // Heading to base to recharge
	StatusGrounded                     // Battery hit zero — terminal, stays in roster
)

// StatusName returns a human-readable status name.
func StatusName(s DroneStatus) string {
	switch s {
	case StatusActive:
		return "active"
	case StatusReturning:
		return "returning"
	case StatusGrounded:
		return "grounded"
	default:
		return "unknown"
	}
}

// CellRef addresses one grid cell.
type CellRef struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Observation is one drone's last reading of a cell.
type Observation struct {
	State fire.CellState `json:"state"`
	Tick  uint64         `json:"tick"`
	Seen  bool           `json:"seen"`
}

// Drone is a single mobile sensor. Position is continuous, not grid-snapped:
// cell (row, col) has its centre at point (x=col, y=row).
type Drone struct {
	ID DroneID `json:"id"`

	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	BaseX float64 `json:"-"`
	BaseY float64 `json:"-"`

	Battery       float64 `json:"battery"`        // 0–1, never negative
	SensingRadius float64 `json:"sensing_radius"` // Cell units
	MaxSpeed      float64 `json:"max_speed"`      // Cells per tick

	Status DroneStatus `json:"status"`
	Target *CellRef    `json:"target,omitempty"`

	// Local observation set: cell index → last reading. Models sensing
	// staleness; only the owning drone writes it.
	Observations map[int]Observation `json:"-"`
}

// NewDrone builds an active drone parked at its base with a full battery.
func NewDrone(id DroneID, baseX, baseY, sensingRadius, maxSpeed float64) *Drone {
	return &Drone{
		ID:            id,
		X:             baseX,
		Y:             baseY,
		BaseX:         baseX,
		BaseY:         baseY,
		Battery:       1,
		SensingRadius: sensingRadius,
		MaxSpeed:      maxSpeed,
		Status:        StatusActive,
		Observations:  make(map[int]Observation),
	}
}

// DistanceTo returns the Euclidean distance to a cell centre.
func (d *Drone) DistanceTo(ref CellRef) float64 {
	return math.Hypot(float64(ref.Col)-d.X, float64(ref.Row)-d.Y)
}

// distanceToBase returns how far the drone is from its base.
func (d *Drone) distanceToBase() float64 {
	return math.Hypot(d.BaseX-d.X, d.BaseY-d.Y)
}
