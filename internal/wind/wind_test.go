package wind

import (
	"errors"
	"math"
	"testing"

	"github.com/talgya/firewatch/internal/faults"
)

func TestFromDegreesDirections(t *testing.T) {
	const eps = 1e-12
	cases := []struct {
		deg        float64
		dirX, dirY float64
	}{
		{0, 1, 0},   // Toward +col
		{90, 0, 1},  // Toward +row
		{180, -1, 0},
		{270, 0, -1},
	}
	for _, tc := range cases {
		v := FromDegrees(3, tc.deg)
		if v.Speed != 3 {
			t.Fatalf("%g°: speed %g", tc.deg, v.Speed)
		}
		if math.Abs(v.DirX-tc.dirX) > eps || math.Abs(v.DirY-tc.dirY) > eps {
			t.Fatalf("%g°: direction (%g,%g), want (%g,%g)", tc.deg, v.DirX, v.DirY, tc.dirX, tc.dirY)
		}
	}
}

func TestNewScheduleRejectsNegativeSpeed(t *testing.T) {
	_, err := NewSchedule([]Keyframe{{FromTick: 0, Speed: -1}})
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("want configuration error, got %v", err)
	}
}

func TestScheduleHoldsAsStepFunction(t *testing.T) {
	// Deliberately unordered input; NewSchedule sorts by tick.
	s, err := NewSchedule([]Keyframe{
		{FromTick: 100, Speed: 8, DirectionDeg: 180},
		{FromTick: 10, Speed: 4, DirectionDeg: 0},
	})
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	if got := s.At(0); got != Calm {
		t.Fatalf("before first keyframe: %+v, want calm", got)
	}
	if got := s.At(10); got.Speed != 4 || got.DirX != 1 {
		t.Fatalf("at first keyframe: %+v", got)
	}
	if got := s.At(99); got.Speed != 4 {
		t.Fatalf("between keyframes: %+v", got)
	}
	if got := s.At(100); got.Speed != 8 || got.DirX != -1 {
		t.Fatalf("at second keyframe: %+v", got)
	}
	if got := s.At(1_000_000); got.Speed != 8 {
		t.Fatalf("far past last keyframe: %+v", got)
	}
}

func TestConstantSchedule(t *testing.T) {
	s := Constant(5, 90)
	for _, tick := range []uint64{0, 1, 500} {
		v := s.At(tick)
		if v.Speed != 5 || math.Abs(v.DirY-1) > 1e-12 {
			t.Fatalf("tick %d: %+v", tick, v)
		}
	}
}
