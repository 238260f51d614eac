package engine

import (
	"github.com/san-kum/rdsim/internal/rdsys"
	"github.com/san-kum/rdsim/internal/sampler"
)

// clock holds the time, state and samples of the in-process engines.
type clock struct {
	t, tMax float64
	x       []float64
	rec     *sampler.Recorder
}

func (c *clock) start(script *rdsys.Script) error {
	smp, err := sampler.New(script.SamplingPolicy, script.TSample, script.SamplingInterval)
	if err != nil {
		return err
	}
	c.t = 0
	c.tMax = script.TMax
	c.x = append([]float64(nil), script.System.State...)
	c.rec = sampler.NewRecorder(smp)
	c.rec.Check(c.t, c.x)
	return nil
}

// advance moves time forward by dt, samples as the policy requires and
// reports whether the termination time has not been passed yet.
func (c *clock) advance(dt float64) bool {
	c.t += dt
	c.rec.Check(c.t, c.x)
	return !(c.t > c.tMax)
}

// advanceTo moves time to t, which must not lie past the horizon, and
// reports whether the termination time is still ahead.
func (c *clock) advanceTo(t float64) bool {
	c.t = t
	c.rec.Check(c.t, c.x)
	return c.t < c.tMax
}

// horizon is the next time an adaptive step may not cross: the next
// scheduled sample or the termination time.
func (c *clock) horizon() float64 {
	h := c.tMax
	if next, ok := c.rec.Next(); ok && next > c.t && next < h {
		h = next
	}
	return h
}

func (c *clock) sample()                      { c.rec.Record(c.t, c.x) }
func (c *clock) samples() (t, data []float64) { return c.rec.Samples() }
func (c *clock) time() float64                { return c.t }
