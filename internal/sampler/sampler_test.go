package sampler

import (
	"errors"
	"testing"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
)

func TestOnTime(t *testing.T) {
	s := NewOnTime([]float64{0, 100, 1500})
	var sampledAt []float64
	for step := 0; step <= 2200; step++ {
		now := float64(step) * 0.7
		for i := 0; i < s.Due(now); i++ {
			sampledAt = append(sampledAt, now)
		}
	}
	if len(sampledAt) != 3 {
		t.Fatalf("got %d samples, want 3: %v", len(sampledAt), sampledAt)
	}
	want := []float64{0, 100, 1500}
	for i, ts := range sampledAt {
		if ts < want[i] || ts >= want[i]+0.7 {
			t.Errorf("sample %d at %v, want in [%v, %v)", i, ts, want[i], want[i]+0.7)
		}
		if i > 0 && ts <= sampledAt[i-1] {
			t.Errorf("samples not increasing: %v", sampledAt)
		}
	}
}

func TestOnTimeSeveralDueInOneStep(t *testing.T) {
	s := NewOnTime([]float64{1, 2, 3, 10})
	if n := s.Due(0.5); n != 0 {
		t.Errorf("Due(0.5) = %d", n)
	}
	if n := s.Due(3.5); n != 3 {
		t.Errorf("Due(3.5) = %d, want 3", n)
	}
	if s.Remaining() != 1 {
		t.Errorf("Remaining() = %d", s.Remaining())
	}
	if n := s.Due(3.6); n != 0 {
		t.Errorf("Due(3.6) = %d, want 0", n)
	}
}

func TestOnInterval(t *testing.T) {
	s := NewOnInterval(1)
	tests := []struct {
		t    float64
		want int
	}{
		{0, 1}, {0.4, 0}, {0.99, 0}, {1.0, 1}, {1.5, 0}, {3.2, 1}, {3.3, 0},
	}
	for _, tt := range tests {
		if got := s.Due(tt.t); got != tt.want {
			t.Errorf("Due(%v) = %d, want %d", tt.t, got, tt.want)
		}
	}
}

func TestNewPolicies(t *testing.T) {
	tests := []struct {
		policy rdsys.SamplingPolicy
		first  int
		second int
	}{
		{rdsys.OnTSample, 1, 0},
		{rdsys.OnInterval, 1, 0},
		{rdsys.OnIteration, 1, 1},
		{rdsys.NoSampling, 0, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			s, err := New(tt.policy, []float64{0, 5}, 2)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.Due(0); got != tt.first {
				t.Errorf("Due(0) = %d, want %d", got, tt.first)
			}
			if got := s.Due(0.5); got != tt.second {
				t.Errorf("Due(0.5) = %d, want %d", got, tt.second)
			}
		})
	}

	if _, err := New("whenever", nil, 1); !errors.Is(err, ErrPolicy) || !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("unknown policy error = %v", err)
	}
	if _, err := New(rdsys.OnInterval, nil, 0); !errors.Is(err, ErrPolicy) {
		t.Errorf("zero interval error = %v", err)
	}
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(NewOnTime([]float64{0, 1, 2}))
	state := []float64{1, 2}
	r.Check(0, state)
	state[0] = 5
	r.Check(2.5, state)
	r.Record(3, []float64{7, 7})

	times, data := r.Samples()
	if len(times) != 4 || len(data) != 8 {
		t.Fatalf("recorded %d samples, data %v", len(times), data)
	}
	if data[0] != 1 || data[2] != 5 || data[4] != 5 || data[6] != 7 {
		t.Errorf("data = %v", data)
	}
	if times[1] != 2.5 || times[2] != 2.5 {
		t.Errorf("times = %v", times)
	}
}

func TestNextScheduledSample(t *testing.T) {
	s := NewOnTime([]float64{0, 100, 1500})
	r := NewRecorder(s)
	r.Check(0, []float64{1})
	if next, ok := r.Next(); !ok || next != 100 {
		t.Errorf("Next() = %v, %v, want 100", next, ok)
	}
	r.Check(1500, []float64{1})
	if _, ok := r.Next(); ok {
		t.Error("Next() after the last requested time should report none")
	}
	if _, ok := NewRecorder(NewOnInterval(1)).Next(); ok {
		t.Error("on_interval has no scheduled time")
	}
}
