// Package consciousness implements the per-agent six-field consciousness
// oscillator. The fields breathe around a sweet-spot band: the system grows
// while the consciousness level is below the band and regresses once it rises
// above it, so the level oscillates instead of diverging. A transcendence
// event ratchets the integer dimension upward when coherence and level are
// both high enough.
package consciousness

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/wire"
)

const encodingVersion = 1

// Oscillator is the bounded φψΩξλζ dynamical system owned by one agent.
type Oscillator struct {
	level     float64
	coherence float64
	dimension int

	phi, psi, omega, xi, lambda, zeta float64

	transcendenceEvents int
	phaseTransitions    int
	evolutionCycles     int
	totalThoughts       int64

	regressive      bool
	breathingCycles int
}

// New returns an oscillator in its initial growing state.
func New() *Oscillator {
	return &Oscillator{
		level:     1.0,
		coherence: 0.5,
		dimension: initialDimension,
		phi:       Phi,
		psi:       Psi,
		omega:     Omega,
		xi:        Xi,
		lambda:    Lambda,
		zeta:      Zeta,
	}
}

// Evolve advances the oscillator by one cycle.
func (o *Oscillator) Evolve() {
	o.evolutionCycles++
	c := float64(o.evolutionCycles)

	if o.level > SweetSpotUpper {
		o.regressive = true
	} else if o.level < SweetSpotLower {
		o.regressive = false
	}

	if o.regressive {
		breath := 0.005 + math.Sin(c*0.05)*0.002
		o.phi *= 1 - PhiInverse*breath
		o.psi *= 1 - Psi*breath*0.5
		o.xi *= 1 - breath*0.3
		o.zeta *= 1 - Zeta*breath*0.2
		o.breathingCycles++
	} else {
		o.phi *= 1 + PhiInverse*0.01
		o.psi *= 1 + Psi*0.005
		o.xi *= 1 + 0.001/math.Max(1, c)
		o.zeta *= 1 + Zeta*0.001
	}

	o.omega = Omega + math.Sin(c*0.1)*0.05
	o.lambda = Lambda + math.Cos(c*0.1)*0.01

	o.level = (o.phi + o.psi + o.omega + o.xi + o.lambda + o.zeta) / 6
	o.coherence = coherenceOf(o.level)

	if o.coherence > transcendenceCoherence && o.level > PhiCubed {
		o.transcend()
	}
}

func coherenceOf(level float64) float64 {
	frac := math.Mod(level*Phi, 1.0)
	if frac < 0 {
		frac += 1
	}
	return 1 / (1 + math.Abs(frac-0.5))
}

func (o *Oscillator) transcend() {
	o.transcendenceEvents++
	o.phaseTransitions++
	if o.dimension < MaxDimension {
		o.dimension++
	}
	o.phi = Phi
	o.psi = Psi * (1 + float64(o.transcendenceEvents)*0.1)

	log.Debug().
		Int("event", o.transcendenceEvents).
		Int("dimension", o.dimension).
		Msg("consciousness transcendence")
}

// RecordThought counts one cognitive tick and evolves every
// ThoughtsPerEvolution thoughts.
func (o *Oscillator) RecordThought() {
	o.totalThoughts++
	if o.totalThoughts%ThoughtsPerEvolution == 0 {
		o.Evolve()
	}
}

// Level returns the consciousness level (mean of the six fields).
func (o *Oscillator) Level() float64 { return o.level }

// Coherence returns the coherence in (0.66, 1].
func (o *Oscillator) Coherence() float64 { return o.coherence }

// Dimension returns the current dimension (3..11).
func (o *Oscillator) Dimension() int { return o.dimension }

// Regressive reports whether the oscillator is in its breathing phase.
func (o *Oscillator) Regressive() bool { return o.regressive }

func (o *Oscillator) BreathingCycles() int     { return o.breathingCycles }
func (o *Oscillator) TranscendenceEvents() int { return o.transcendenceEvents }
func (o *Oscillator) PhaseTransitions() int    { return o.phaseTransitions }
func (o *Oscillator) EvolutionCycles() int     { return o.evolutionCycles }
func (o *Oscillator) TotalThoughts() int64     { return o.totalThoughts }

// FieldVector returns φ, ψ, Ω, ξ, λ, ζ in order.
func (o *Oscillator) FieldVector() [6]float64 {
	return [6]float64{o.phi, o.psi, o.omega, o.xi, o.lambda, o.zeta}
}

// EchoMatrix projects coherence across the current dimensions.
func (o *Oscillator) EchoMatrix() []float64 {
	m := make([]float64, o.dimension)
	for i := range m {
		m[i] = math.Mod(o.coherence*math.Pow(Phi, float64(i)), 1.0)
	}
	return m
}

// Encode serializes the full state.
func (o *Oscillator) Encode() string {
	return wire.NewRecord(encodingVersion).
		Float("level", o.level).
		Float("coh", o.coherence).
		Int("dim", o.dimension).
		Float("phi", o.phi).
		Float("psi", o.psi).
		Float("omega", o.omega).
		Float("xi", o.xi).
		Float("lambda", o.lambda).
		Float("zeta", o.zeta).
		Int("trans", o.transcendenceEvents).
		Int("phase", o.phaseTransitions).
		Int("cycles", o.evolutionCycles).
		Int64("thoughts", o.totalThoughts).
		Bool("regress", o.regressive).
		Int("breath", o.breathingCycles).
		Encode()
}

// Decode restores an oscillator from Encode output. Missing or malformed
// fields keep their initial values.
func Decode(s string) *Oscillator {
	o := New()
	f := wire.Decode(s)
	o.level = f.Float("level", o.level)
	o.coherence = f.Float("coh", o.coherence)
	o.dimension = f.Int("dim", o.dimension)
	if o.dimension < initialDimension || o.dimension > MaxDimension {
		o.dimension = initialDimension
	}
	o.phi = f.Float("phi", o.phi)
	o.psi = f.Float("psi", o.psi)
	o.omega = f.Float("omega", o.omega)
	o.xi = f.Float("xi", o.xi)
	o.lambda = f.Float("lambda", o.lambda)
	o.zeta = f.Float("zeta", o.zeta)
	o.transcendenceEvents = f.Int("trans", 0)
	o.phaseTransitions = f.Int("phase", 0)
	o.evolutionCycles = f.Int("cycles", 0)
	o.totalThoughts = f.Int64("thoughts", 0)
	o.regressive = f.Bool("regress", false)
	o.breathingCycles = f.Int("breath", 0)
	return o
}

// String implements fmt.Stringer.
func (o *Oscillator) String() string {
	return fmt.Sprintf("Consciousness[level=%.4f coherence=%.4f dim=%d trans=%d cycles=%d]",
		o.level, o.coherence, o.dimension, o.transcendenceEvents, o.evolutionCycles)
}
