// Package genome provides the agent's genetic descriptor. A DNA value drifts
// every tick through a seeded random walk, can be copied for offspring and
// crossed with a partner, and carries the parent's encoded adaptive
// strategies across generations.
package genome

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/wire"
)

const encodingVersion = 1

// Bounds of the evolving fields.
const (
	MinFrequency = 0.1
	MaxFrequency = 12.0
	MinAmplitude = 0.1
	MaxAmplitude = 2.0
	MinRate      = 0.0001
	MaxRate      = 0.05

	DefaultAmplitude = 1.0
	DefaultRate      = 0.002
)

// DNA is the concrete genetic descriptor.
type DNA struct {
	frequency float64
	amplitude float64
	rate      float64

	generation int
	strategies string
	evolutions int64

	rng *rand.Rand
}

var _ cognition.Genome = (*DNA)(nil)

// New creates generation-zero DNA at the given harmonic frequency.
func New(frequency float64, seed int64) *DNA {
	return &DNA{
		frequency: clamp(frequency, MinFrequency, MaxFrequency),
		amplitude: DefaultAmplitude,
		rate:      DefaultRate,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Random creates generation-zero DNA with a frequency drawn from rng.
func Random(rng *rand.Rand) *DNA {
	return New(0.5+rng.Float64()*3.5, rng.Int63())
}

// Evolve advances the random walk by one step.
func (d *DNA) Evolve() {
	d.evolutions++
	d.frequency = clamp(d.frequency+d.step()*d.frequency*d.rate, MinFrequency, MaxFrequency)
	d.amplitude = clamp(d.amplitude+d.step()*d.amplitude*d.rate*0.5, MinAmplitude, MaxAmplitude)
}

// step returns a uniform value in [-1, 1).
func (d *DNA) step() float64 {
	return d.rng.Float64()*2 - 1
}

// Copy returns an independent descriptor with a derived random stream.
func (d *DNA) Copy() cognition.Genome {
	return d.clone(d.rng.Int63())
}

func (d *DNA) clone(seed int64) *DNA {
	c := *d
	c.rng = rand.New(rand.NewSource(seed))
	return &c
}

// Crossover averages frequency and amplitude with other and keeps the higher
// generation. Non-DNA partners contribute only their frequency and amplitude.
func (d *DNA) Crossover(other cognition.Genome) cognition.Genome {
	c := d.clone(d.rng.Int63())
	if other == nil {
		return c
	}
	c.frequency = clamp((d.frequency+other.HarmonicFrequency())/2, MinFrequency, MaxFrequency)
	c.amplitude = clamp((d.amplitude+other.Amplitude())/2, MinAmplitude, MaxAmplitude)
	if g := other.Generation(); g > c.generation {
		c.generation = g
	}
	if o, ok := other.(*DNA); ok {
		c.rate = clamp((d.rate+o.rate)/2, MinRate, MaxRate)
	}
	return c
}

func (d *DNA) Generation() int                 { return d.generation }
func (d *DNA) SetGeneration(g int)             { d.generation = g }
func (d *DNA) InheritedStrategies() string     { return d.strategies }
func (d *DNA) SetInheritedStrategies(s string) { d.strategies = s }
func (d *DNA) HarmonicFrequency() float64      { return d.frequency }
func (d *DNA) Amplitude() float64              { return d.amplitude }
func (d *DNA) EvolutionRate() float64          { return d.rate }
func (d *DNA) Evolutions() int64               { return d.evolutions }

// Pulse is the visual size multiplier at wall-clock time t (seconds). It is
// always within [0.8, 1.2].
func (d *DNA) Pulse(t float64) float64 {
	return 1 + 0.1*d.amplitude*math.Sin(2*math.Pi*d.frequency*t*0.25)
}

// Encode serializes the descriptor.
func (d *DNA) Encode() string {
	return wire.NewRecord(encodingVersion).
		Float("freq", d.frequency).
		Float("amp", d.amplitude).
		Float("decay", d.rate).
		Int("gen", d.generation).
		String("strat", d.strategies).
		Encode()
}

// Decode restores a descriptor. Missing or malformed values fall back to the
// defaults and out-of-range values are clamped.
func Decode(s string, seed int64) *DNA {
	f := wire.Decode(s)
	d := New(f.Float("freq", 1.0), seed)
	d.amplitude = clamp(f.Float("amp", DefaultAmplitude), MinAmplitude, MaxAmplitude)
	d.rate = clamp(f.Float("decay", DefaultRate), MinRate, MaxRate)
	d.generation = f.Int("gen", 0)
	if d.generation < 0 {
		d.generation = 0
	}
	d.strategies = f.String("strat", "")
	return d
}

func (d *DNA) String() string {
	return fmt.Sprintf("DNA[gen=%d freq=%.3f amp=%.3f rate=%.4f]",
		d.generation, d.frequency, d.amplitude, d.rate)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
