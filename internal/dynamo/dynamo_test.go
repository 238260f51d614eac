package dynamo

import (
	"errors"
	"math"
	"strings"
	"sync/atomic"
	"testing"
)

func TestStateIsValid(t *testing.T) {
	tests := []struct {
		name  string
		state State
		valid bool
	}{
		{"empty", State{}, true},
		{"finite", State{0, -1, 1e300}, true},
		{"nan", State{1, math.NaN()}, false},
		{"inf", State{math.Inf(-1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.valid {
				t.Errorf("expected %v, got %v", tt.valid, got)
			}
		})
	}
}

func TestStateClone(t *testing.T) {
	s := State{1, 2}
	c := s.Clone()
	c[0] = 5
	if s[0] != 1 {
		t.Error("clone shares storage with the original")
	}
}

func TestSimulationError(t *testing.T) {
	err := error(&SimulationError{Step: 12, Time: 0.5, Wrapped: ErrInvalidState})

	if !errors.Is(err, ErrRuntime) {
		t.Error("expected runtime category")
	}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("expected wrapped cause")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("unexpected validation category")
	}
	if msg := err.Error(); !strings.Contains(msg, "step 12") || !strings.Contains(msg, "NaN or Inf") {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 1000, 4097} {
		seen := make([]int32, n)
		var calls atomic.Int32
		ParallelFor(n, 64, func(start, end int) {
			calls.Add(1)
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
		if calls.Load() < 1 {
			t.Errorf("n=%d: fn never called", n)
		}
	}
}
