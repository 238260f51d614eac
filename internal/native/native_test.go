package native

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/network"
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/space"
	"github.com/san-kum/rdsim/internal/units"
)

func reflecting() [3]string {
	return [3]string{"reflecting", "reflecting", "reflecting"}
}

// decay is a single cell with A -> 0 at rate 1.
func decay(option string) *Description {
	return &Description{
		Geometry: Geometry{Grid: true, W: 1, H: 1, Depth: 1, CellVol: 1, Boundaries: reflecting(), Env: []int{0}},
		NSpecies: 1, NReactions: 1, NEnv: 1,
		K: []float64{1}, Sub: []int{1}, Sto: []int{-1}, REnv: []bool{true}, D: []float64{0},
		State: []float64{1000}, Chemostats: []bool{false},
		TSample: []float64{0, 0.5, 1}, SamplingPolicy: "on_t_sample", SamplingInterval: 1,
		TMax: 1, TimeStep: 1e-3, Seed: 7, Option: option,
	}
}

// exchange is two graph nodes of volume 1 and 8 sharing one edge, with a
// single diffusing species.
func exchange(option string) *Description {
	return &Description{
		Geometry: Geometry{
			Volumes: []float64{1, 8}, EdgeI: []int{0}, EdgeJ: []int{1},
			Surface: []float64{1}, Distance: []float64{1.5}, Env: []int{0, 0},
		},
		NSpecies: 1, NEnv: 1,
		D:     []float64{1},
		State: []float64{100, 0}, Chemostats: []bool{false, false},
		SamplingPolicy: "no_sampling", TMax: 1, TimeStep: 1e-3, Seed: 3, Option: option,
	}
}

// current samples the state and returns it.
func current(sim *Simulation, size int) []float64 {
	sim.Sample()
	_, data := sim.Samples()
	return data[len(data)-size:]
}

func runToEnd(t *testing.T, sim *Simulation, limit int) {
	t.Helper()
	for i := 0; sim.Iterate(); i++ {
		if i > limit {
			t.Fatalf("simulation still running after %d iterations (t=%g)", limit, sim.Time())
		}
	}
}

func TestInitializeStatus(t *testing.T) {
	tests := []struct {
		name   string
		modify func(d *Description)
		want   Status
	}{
		{"option", func(d *Description) { d.Option = "euler_adapt" }, StatusInvalidOption},
		{"boundary", func(d *Description) { d.Boundaries[1] = "mirror" }, StatusInvalidBoundary},
		{"sampling", func(d *Description) { d.SamplingPolicy = "sometimes" }, StatusInvalidSampling},
		{"interval", func(d *Description) { d.SamplingPolicy = "on_interval"; d.SamplingInterval = 0 }, StatusInvalidSampling},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decay("euler")
			tt.modify(d)
			_, err := Initialize(d)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !errors.Is(err, dynamo.ErrConfiguration) {
				t.Errorf("status %d should be a configuration error", int(tt.want))
			}
			wrapped := fmt.Errorf("option %q: %w", d.Option, err)
			if !strings.Contains(wrapped.Error(), tt.want.String()) {
				t.Errorf("message %q does not name %q", wrapped.Error(), tt.want.String())
			}
		})
	}
}

func TestInitializeMalformed(t *testing.T) {
	d := decay("euler")
	d.K = nil
	if _, err := Initialize(d); !errors.Is(err, ErrDescription) || !errors.Is(err, dynamo.ErrValidation) {
		t.Errorf("err = %v, want ErrDescription", err)
	}
}

func TestEulerDecay(t *testing.T) {
	sim, err := Initialize(decay("euler"))
	if err != nil {
		t.Fatal(err)
	}
	runToEnd(t, sim, 2000)

	times, data := sim.Samples()
	if len(times) != 3 || len(data) != 3 {
		t.Fatalf("got %d samples, want 3", len(times))
	}
	for k, want := range []float64{0, 0.5, 1} {
		if times[k] < want || times[k] > want+2e-3 {
			t.Errorf("sample %d at t=%g, want just after %g", k, times[k], want)
		}
		if exact := 1000 * math.Exp(-times[k]); math.Abs(data[k]-exact) > 1.5 {
			t.Errorf("sample %d = %g, want about %g", k, data[k], exact)
		}
	}
	if sim.Time() <= 1 {
		t.Errorf("stopped at t=%g, before the termination time", sim.Time())
	}
}

func TestSamplingOnInterval(t *testing.T) {
	d := decay("euler")
	d.SamplingPolicy = "on_interval"
	d.SamplingInterval = 0.25
	sim, err := Initialize(d)
	if err != nil {
		t.Fatal(err)
	}
	runToEnd(t, sim, 2000)
	if times, _ := sim.Samples(); len(times) != 5 {
		t.Errorf("got %d samples, want 5", len(times))
	}
}

func TestEulerDiffusionConserves(t *testing.T) {
	sim, err := Initialize(exchange("euler"))
	if err != nil {
		t.Fatal(err)
	}
	runToEnd(t, sim, 2000)
	if times, _ := sim.Samples(); len(times) != 0 {
		t.Errorf("no_sampling recorded %d samples", len(times))
	}
	x := current(sim, 2)
	if math.Abs(x[0]+x[1]-100) > 1e-9 {
		t.Errorf("total = %g, want 100", x[0]+x[1])
	}
	if !(x[1] > 0) {
		t.Errorf("nothing diffused: %v", x)
	}
}

func TestStochasticDiffusionConserves(t *testing.T) {
	for _, option := range []string{"gillespie", "tauleap"} {
		t.Run(option, func(t *testing.T) {
			sim, err := Initialize(exchange(option))
			if err != nil {
				t.Fatal(err)
			}
			runToEnd(t, sim, 1_000_000)
			x := current(sim, 2)
			if x[0]+x[1] != 100 {
				t.Errorf("total = %g, want 100", x[0]+x[1])
			}
			for _, v := range x {
				if v != math.Trunc(v) {
					t.Errorf("non integer count %g", v)
				}
			}
		})
	}
}

func TestGillespieExhaustion(t *testing.T) {
	d := decay("gillespie")
	d.State = []float64{10}
	d.TMax = -1
	sim, err := Initialize(d)
	if err != nil {
		t.Fatal(err)
	}
	runToEnd(t, sim, 100)
	if x := current(sim, 1); x[0] != 0 {
		t.Errorf("state = %v, want exhausted", x)
	}
	if sim.Iterate() {
		t.Error("Iterate after completion should report false")
	}
}

func TestChemostatHeld(t *testing.T) {
	for _, option := range Options {
		t.Run(option, func(t *testing.T) {
			d := decay(option)
			d.State = []float64{50}
			d.Chemostats = []bool{true}
			sim, err := Initialize(d)
			if err != nil {
				t.Fatal(err)
			}
			for i := 0; i < 200 && sim.Iterate(); i++ {
			}
			if got := current(sim, 1)[0]; got != 50 {
				t.Errorf("chemostated count = %g, want 50", got)
			}
		})
	}
}

func TestIterateAdvancesOneStep(t *testing.T) {
	sim, err := Initialize(decay("euler"))
	if err != nil {
		t.Fatal(err)
	}
	if !sim.Iterate() {
		t.Fatal("Iterate reported completion")
	}
	if math.Abs(sim.Time()-1e-3) > 1e-15 {
		t.Errorf("t = %g, want 1e-3", sim.Time())
	}
	sim.Sample()
	if times, _ := sim.Samples(); len(times) != 2 {
		t.Errorf("got %d samples, want 2", len(times))
	}
}

func TestStochasticDistribution(t *testing.T) {
	state := []float64{0.4, 3.7, 250.2, 10, 0, 5}
	a := StochasticDistribution(state, 2, 3, 11)
	b := StochasticDistribution(state, 2, 3, 11)

	totals := [2]float64{}
	for i, v := range a {
		if v < 0 || v != math.Trunc(v) {
			t.Errorf("entry %d = %g", i, v)
		}
		if v != b[i] {
			t.Errorf("same seed gave %g and %g", v, b[i])
		}
		totals[i/3] += v
	}
	if totals != [2]float64{254, 15} {
		t.Errorf("totals = %v, want [254 15]", totals)
	}
	if a[4] != 0 {
		t.Errorf("empty cell received %g", a[4])
	}
}

func TestDescribe(t *testing.T) {
	r, err := network.NewReaction("2 A -> B", network.Scalar(3.0), network.Scalar(0.5))
	if err != nil {
		t.Fatal(err)
	}
	r.Environments = []string{"in"}
	net := network.MustNew([]network.Species{
		{Label: "A", D: network.Scalar(1.0), Density: network.Scalar(4.0)},
		{Label: "B"},
	}, []network.Reaction{r}, []string{"in", "out"})
	grid, err := space.NewGrid(2, 1, 1, 1, []int{0, 1}, space.AllReflecting())
	if err != nil {
		t.Fatal(err)
	}
	sys, err := rdsys.NewSystem(net, grid, units.DefaultSystem())
	if err != nil {
		t.Fatal(err)
	}

	d, err := Describe(rdsys.NewScript(sys, []float64{0, 1}), "euler")
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Validate(); err != nil {
		t.Fatal(err)
	}
	if d.NReactions != 2 || !d.Grid || d.W != 2 || d.Boundaries != reflecting() {
		t.Fatalf("unexpected shape: %+v", d.Geometry)
	}
	eqInts(t, "sub", d.Sub, []int{2, 0, 0, 1})
	eqInts(t, "sto", d.Sto, []int{-2, 2, 1, -1})
	eqFloats(t, "k", d.K, []float64{3, 3, 0.5, 0.5})
	eqFloats(t, "D", d.D, []float64{1, 1, 0, 0})
	eqFloats(t, "state", d.State, []float64{4, 4, 0, 0})
	if d.REnv[0] != true || d.REnv[1] != false {
		t.Errorf("r_env = %v, want forward step only in environment 0", d.REnv)
	}
	if d.TMax != 1 || d.SamplingPolicy != "on_t_sample" {
		t.Errorf("timing = %g %q", d.TMax, d.SamplingPolicy)
	}

	sim, err := Initialize(d)
	if err != nil {
		t.Fatal(err)
	}
	if times, _ := sim.Samples(); len(times) != 1 {
		t.Errorf("initial samples = %d, want 1", len(times))
	}
}

func eqInts(t *testing.T, name string, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("%s = %v, want %v", name, got, want)
			return
		}
	}
}

func eqFloats(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("%s = %v, want %v", name, got, want)
			return
		}
	}
}
