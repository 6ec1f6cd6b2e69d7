// Package qclock implements the per-agent pendulum clock that reports
// resonance spikes. The pendulum phase is sampled through a golden-ratio
// projection; a spike is active while that projection sits near its peak.
package qclock

import (
	"math"

	"github.com/eyeoverthink/phiworld/internal/cognition"
)

const (
	phi = 1.618033988749895

	// SpikeThreshold is the phi-resonance above which a spike is active.
	SpikeThreshold = 0.97
)

// Clock is the concrete oscillator.
type Clock struct {
	frequency    float64
	phase        float64
	resonance    float64
	spiking      bool
	spikes       int64
	oscillations int64
}

var _ cognition.Clock = (*Clock)(nil)

// New returns a clock at frequency f.
func New(f float64) *Clock {
	c := &Clock{frequency: f}
	c.resonance = c.project()
	return c
}

func (c *Clock) SetPendulumFrequency(f float64) { c.frequency = f }

// Tick advances the pendulum by dt seconds.
func (c *Clock) Tick(dt float64) {
	c.phase += 2 * math.Pi * c.frequency * dt
	for c.phase >= 2*math.Pi {
		c.phase -= 2 * math.Pi
		c.oscillations++
	}
	for c.phase < 0 {
		c.phase += 2 * math.Pi
	}

	c.resonance = c.project()
	was := c.spiking
	c.spiking = c.resonance > SpikeThreshold
	if c.spiking && !was {
		c.spikes++
	}
}

// project samples the pendulum through the golden-ratio lens.
func (c *Clock) project() float64 {
	return (1 + math.Cos(c.phase*phi)) / 2
}

func (c *Clock) IsSpikeActive() bool     { return c.spiking }
func (c *Clock) PhiResonance() float64   { return c.resonance }
func (c *Clock) SpikeCount() int64       { return c.spikes }
func (c *Clock) OscillationCount() int64 { return c.oscillations }
func (c *Clock) Frequency() float64      { return c.frequency }
