package rdsys

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/san-kum/rdsim/internal/dynamo"
	"github.com/san-kum/rdsim/internal/units"
)

type SamplingPolicy string

const (
	OnTSample   SamplingPolicy = "on_t_sample"
	OnInterval  SamplingPolicy = "on_interval"
	OnIteration SamplingPolicy = "on_iteration"
	NoSampling  SamplingPolicy = "no_sampling"
)

const (
	DefaultTimeStep         = 1e-3
	DefaultSamplingInterval = 1.0
)

var (
	ErrSamplingPolicy = fmt.Errorf("%w: unknown sampling policy", dynamo.ErrValidation)
	ErrTiming         = fmt.Errorf("%w: invalid timing parameters", dynamo.ErrValidation)
)

func ParseSamplingPolicy(s string) (SamplingPolicy, error) {
	switch p := SamplingPolicy(s); p {
	case OnTSample, OnInterval, OnIteration, NoSampling:
		return p, nil
	case "":
		return OnTSample, nil
	default:
		return "", fmt.Errorf("%w %q", ErrSamplingPolicy, s)
	}
}

// Script is one simulation request. Times are expressed in Units.
type Script struct {
	System           *System
	TSample          []float64
	TimeStep         float64
	TMax             float64
	SamplingPolicy   SamplingPolicy
	SamplingInterval float64
	Seed             uint64
	Units            units.System
}

// NewScript copies sys and fills defaults: time step 1e-3, termination at
// the last requested sample time, on_t_sample policy, interval 1, a random
// seed and the system's unit system.
func NewScript(sys *System, tSample []float64) *Script {
	ts := append([]float64(nil), tSample...)
	slices.Sort(ts)
	s := &Script{
		System:           sys.Copy(),
		TSample:          ts,
		TimeStep:         DefaultTimeStep,
		SamplingPolicy:   OnTSample,
		SamplingInterval: DefaultSamplingInterval,
		Seed:             rand.Uint64(),
		Units:            sys.Units,
	}
	if len(ts) > 0 {
		s.TMax = ts[len(ts)-1]
	}
	return s
}

func (s *Script) Validate() error {
	if s.System == nil {
		return fmt.Errorf("%w: script has no system", dynamo.ErrValidation)
	}
	if err := s.System.Validate(); err != nil {
		return err
	}
	if err := s.Units.Validate(); err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrValidation, err)
	}
	if _, err := ParseSamplingPolicy(string(s.SamplingPolicy)); err != nil {
		return err
	}
	if !(s.TimeStep > 0) {
		return fmt.Errorf("%w: time step must be positive, got %g", ErrTiming, s.TimeStep)
	}
	if !(s.TMax > 0) {
		return fmt.Errorf("%w: termination time must be positive, got %g", ErrTiming, s.TMax)
	}
	if s.SamplingPolicy == OnInterval && !(s.SamplingInterval > 0) {
		return fmt.Errorf("%w: sampling interval must be positive, got %g", ErrTiming, s.SamplingInterval)
	}
	if !slices.IsSorted(s.TSample) {
		return fmt.Errorf("%w: sample times must be sorted", ErrTiming)
	}
	return nil
}

// Copy returns a deep copy of s.
func (s *Script) Copy() *Script {
	c := *s
	c.System = s.System.Copy()
	c.TSample = append([]float64(nil), s.TSample...)
	return &c
}

// Resolved returns a copy whose system is expressed in the script units.
func (s *Script) Resolved() *Script {
	c := s.Copy()
	c.System = s.System.In(s.Units)
	return c
}
