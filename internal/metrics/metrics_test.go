package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/rdsim/internal/network"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

func trajectory(t *testing.T) *rdsys.Trajectory {
	t.Helper()
	net := network.MustNew([]network.Species{{Label: "A"}, {Label: "B"}}, nil, []string{""})
	grid, err := space.NewGrid(2, 1, 1, 1, nil, space.AllReflecting())
	if err != nil {
		t.Fatal(err)
	}
	sys, err := rdsys.NewSystem(net, grid, units.DefaultSystem())
	if err != nil {
		t.Fatal(err)
	}
	return &rdsys.Trajectory{
		T: []float64{0, 1, 2},
		Data: []float64{
			4, 6, 0, 0,
			3, 9, 1, 0,
			2, 3, 0, 2,
		},
		System: sys,
	}
}

func TestEvaluateDefault(t *testing.T) {
	tr := trajectory(t)
	got := Evaluate(tr, Default(tr.System)...)

	want := map[string]float64{
		"A.final": 5,
		"A.peak":  12,
		"A.drift": 0.5,
		"B.final": 2,
		"B.peak":  2,
		"B.drift": 2,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d metrics, got %v", len(want), got)
	}
	for name, v := range want {
		if math.Abs(got[name]-v) > 1e-12 {
			t.Errorf("%s: expected %g, got %g", name, v, got[name])
		}
	}
}

func TestEvaluateResets(t *testing.T) {
	tr := trajectory(t)
	d := NewDrift("A", 0, 2)
	first := Evaluate(tr, d)["A.drift"]
	second := Evaluate(tr, d)["A.drift"]
	if first != second {
		t.Errorf("expected repeatable evaluation, got %g then %g", first, second)
	}
}

func TestPeakTotalReset(t *testing.T) {
	p := NewPeakTotal("A", 0, 1)
	p.Observe(0, []float64{3})
	p.Observe(1, []float64{1})
	if p.Value() != 3 {
		t.Errorf("expected peak 3, got %g", p.Value())
	}
	p.Reset()
	if p.Value() != 0 {
		t.Error("expected zero peak after reset")
	}
}

func TestEmptyTrajectory(t *testing.T) {
	tr := trajectory(t)
	tr.T, tr.Data = nil, nil
	got := Evaluate(tr, NewFinalTotal("A", 0, 2))
	if got["A.final"] != 0 {
		t.Errorf("expected 0, got %g", got["A.final"])
	}
}
