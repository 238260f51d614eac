// Package sampler decides when a running simulation records a snapshot.
package sampler

import (
	"fmt"
	"math"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/rdsys"
)

var ErrPolicy = fmt.Errorf("%w: unknown sampling policy", dynamo.ErrConfiguration)

// Sampler reports how many samples are due at simulated time t. Each sampler
// keeps its own cursor and must be checked with non-decreasing times.
type Sampler interface {
	Due(t float64) int
}

// OnTime samples once per requested time that has been reached.
type OnTime struct {
	times []float64
	pos   int
}

func NewOnTime(times []float64) *OnTime {
	return &OnTime{times: append([]float64(nil), times...)}
}

func (s *OnTime) Due(t float64) int {
	n := 0
	for s.pos < len(s.times) && t >= s.times[s.pos] {
		s.pos++
		n++
	}
	return n
}

// Next returns the earliest requested time not reached yet.
func (s *OnTime) Next() (float64, bool) {
	if s.pos == len(s.times) {
		return 0, false
	}
	return s.times[s.pos], true
}

// Remaining is the number of requested times not reached yet.
func (s *OnTime) Remaining() int {
	return len(s.times) - s.pos
}

// OnInterval samples whenever floor(t/interval) increases.
type OnInterval struct {
	interval float64
	last     int64
}

func NewOnInterval(interval float64) *OnInterval {
	return &OnInterval{interval: interval, last: -1}
}

func (s *OnInterval) Due(t float64) int {
	k := int64(math.Floor(t / s.interval))
	if k > s.last {
		s.last = k
		return 1
	}
	return 0
}

// OnIteration samples on every check.
type OnIteration struct{}

func (OnIteration) Due(float64) int { return 1 }

// Manual never samples on its own.
type Manual struct{}

func (Manual) Due(float64) int { return 0 }

// New returns the sampler of a script's sampling policy.
func New(policy rdsys.SamplingPolicy, tSample []float64, interval float64) (Sampler, error) {
	switch policy {
	case rdsys.OnTSample:
		return NewOnTime(tSample), nil
	case rdsys.OnInterval:
		if !(interval > 0) {
			return nil, fmt.Errorf("%w: interval %g", ErrPolicy, interval)
		}
		return NewOnInterval(interval), nil
	case rdsys.OnIteration:
		return OnIteration{}, nil
	case rdsys.NoSampling:
		return Manual{}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrPolicy, policy)
	}
}

// Scheduler is implemented by samplers that know the time of their next
// sample in advance.
type Scheduler interface {
	Next() (float64, bool)
}

// Recorder accumulates sampled times and states.
type Recorder struct {
	sampler Sampler
	times   []float64
	data    []float64
}

func NewRecorder(s Sampler) *Recorder {
	return &Recorder{sampler: s}
}

// Check records as many copies of state as samples are due at t and
// returns that count.
func (r *Recorder) Check(t float64, state []float64) int {
	n := r.sampler.Due(t)
	for i := 0; i < n; i++ {
		r.Record(t, state)
	}
	return n
}

// Record stores a snapshot regardless of the policy.
func (r *Recorder) Record(t float64, state []float64) {
	r.times = append(r.times, t)
	r.data = append(r.data, state...)
}

// Next returns the time of the next scheduled sample, if the policy has one.
func (r *Recorder) Next() (float64, bool) {
	if s, ok := r.sampler.(Scheduler); ok {
		return s.Next()
	}
	return 0, false
}

// Samples returns copies of the recorded times and flattened states.
func (r *Recorder) Samples() (times, data []float64) {
	return append([]float64(nil), r.times...), append([]float64(nil), r.data...)
}
