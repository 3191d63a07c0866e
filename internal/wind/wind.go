// Package wind provides the wind forcing sampled by the fire engine each tick.
// The field is uniform over the grid; it varies over time through a keyframe
// schedule.
package wind

import (
	"fmt"
	"math"
	"sort"

	"github.com/talgya/firewatch/internal/faults"
)

// Vector is a wind sample: speed in m/s plus a unit direction the wind blows
// toward, in grid space (+X = east/+col, +Y = south/+row).
type Vector struct {
	Speed float64 `json:"speed"`
	DirX  float64 `json:"dir_x"`
	DirY  float64 `json:"dir_y"`
}

// Calm is the zero-wind vector.
var Calm = Vector{}

// FromDegrees builds a vector from a compass-style bearing in grid space:
// 0° blows toward +col, 90° toward +row.
func FromDegrees(speed, deg float64) Vector {
	rad := deg * math.Pi / 180
	return Vector{Speed: speed, DirX: math.Cos(rad), DirY: math.Sin(rad)}
}

// Keyframe pins a wind vector from a given tick onward.
type Keyframe struct {
	FromTick     uint64  `yaml:"from_tick"`
	Speed        float64 `yaml:"speed"`
	DirectionDeg float64 `yaml:"direction_deg"`
}

// Schedule is an ordered sequence of keyframes; the vector holds as a step
// function until the next keyframe.
type Schedule struct {
	frames []Keyframe
}

// NewSchedule validates and orders the keyframes.
func NewSchedule(frames []Keyframe) (*Schedule, error) {
	for _, f := range frames {
		if f.Speed < 0 {
			return nil, fmt.Errorf("wind: keyframe at tick %d negative speed %g: %w", f.FromTick, f.Speed, faults.ErrConfiguration)
		}
	}
	ordered := append([]Keyframe(nil), frames...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].FromTick < ordered[j].FromTick })
	return &Schedule{frames: ordered}, nil
}

// Constant returns a schedule holding one vector for the whole run.
func Constant(speed, directionDeg float64) *Schedule {
	return &Schedule{frames: []Keyframe{{FromTick: 0, Speed: speed, DirectionDeg: directionDeg}}}
}

// At samples the wind for a tick. Before the first keyframe the air is calm.
func (s *Schedule) At(tick uint64) Vector {
	v := Calm
	for _, f := range s.frames {
		if f.FromTick > tick {
			break
		}
		v = FromDegrees(f.Speed, f.DirectionDeg)
	}
	return v
}
