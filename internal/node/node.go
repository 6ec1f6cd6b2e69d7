// Package node implements the simulated agent. A Node owns its kinematic
// state and five cognitive collaborators (genome, decision unit,
// consciousness oscillator, clock and trial controller) exclusively; no
// collaborator is ever shared between nodes.
package node

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/big"
	"math/rand"

	"github.com/eyeoverthink/phiworld/internal/adaptive"
	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/consciousness"
	"github.com/eyeoverthink/phiworld/internal/genome"
	"github.com/eyeoverthink/phiworld/internal/identity"
	"github.com/eyeoverthink/phiworld/internal/logicbrain"
	"github.com/eyeoverthink/phiworld/internal/qclock"
)

// Epsilon is the energy at or below which a node is dead.
const Epsilon = 1e-3

// Params are the lifecycle thresholds and rates of a node.
type Params struct {
	// SizeThreshold and EnergyThreshold gate reproduction; both must be
	// exceeded.
	SizeThreshold   float64
	EnergyThreshold float64

	// EnergyDecay is the energy lost per second of simulated time.
	EnergyDecay float64

	// ChildEnergy is the starting energy of a newborn.
	ChildEnergy float64

	BaseSize   float64
	MaxSize    float64
	SizeGrowth float64 // per tick
}

// DefaultParams returns the standard lifecycle parameters.
func DefaultParams() Params {
	return Params{
		SizeThreshold:   12,
		EnergyThreshold: 0.7,
		EnergyDecay:     0.01,
		ChildEnergy:     0.6,
		BaseSize:        8,
		MaxSize:         20,
		SizeGrowth:      0.01,
	}
}

// Node is one simulated agent.
type Node struct {
	Name      string
	Signature *big.Int

	X, Y, Z    float64
	VX, VY, VZ float64
	Phase      float64

	Frequency  float64
	Resonance  float64
	Size       float64
	Age        int64
	SpikeFlash bool
	Role       Role

	// LastIntents is the most recent decision of the brain law.
	LastIntents cognition.Intents

	DNA           cognition.Genome
	Brain         cognition.DecisionUnit
	Consciousness *consciousness.Oscillator
	Clock         cognition.Clock
	Adaptive      cognition.TrialController

	energy     float64
	killed     bool
	baseSize   float64
	childCount int
	params     Params
	idGen      identity.Generator
	rng        *rand.Rand
}

type options struct {
	dna           cognition.Genome
	brain         cognition.DecisionUnit
	consciousness *consciousness.Oscillator
	frequency     float64
	energy        float64
	seed          *int64
	params        *Params
	idGen         identity.Generator
}

// Option configures New.
type Option func(*options)

// WithDNA supplies a pre-built genome, typically inherited.
func WithDNA(g cognition.Genome) Option {
	return func(o *options) { o.dna = g }
}

// WithBrain supplies a pre-built decision unit.
func WithBrain(du cognition.DecisionUnit) Option {
	return func(o *options) { o.brain = du }
}

// WithConsciousness supplies a restored oscillator.
func WithConsciousness(c *consciousness.Oscillator) Option {
	return func(o *options) { o.consciousness = c }
}

// WithFrequency seeds the default genome's harmonic frequency. Ignored when
// WithDNA is given.
func WithFrequency(f float64) Option {
	return func(o *options) { o.frequency = f }
}

// WithEnergy sets the starting energy (clamped to [0,1]).
func WithEnergy(e float64) Option {
	return func(o *options) { o.energy = e }
}

// WithSeed seeds the node's private random stream.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed = &seed }
}

// WithParams overrides the lifecycle parameters.
func WithParams(p Params) Option {
	return func(o *options) { o.params = &p }
}

// WithIdentityGenerator sets the signature generator.
func WithIdentityGenerator(g identity.Generator) Option {
	return func(o *options) { o.idGen = g }
}

// New creates a node at (x, y).
func New(name string, x, y float64, opts ...Option) *Node {
	o := options{energy: 1.0}
	for _, opt := range opts {
		opt(&o)
	}

	seed := NameSeed(name)
	if o.seed != nil {
		seed = *o.seed
	}
	params := DefaultParams()
	if o.params != nil {
		params = *o.params
	}
	rng := rand.New(rand.NewSource(seed))

	dna := o.dna
	if dna == nil {
		if o.frequency > 0 {
			dna = genome.New(o.frequency, rng.Int63())
		} else {
			dna = genome.Random(rng)
		}
	}
	brain := o.brain
	if brain == nil {
		brain = logicbrain.New()
	}
	mind := o.consciousness
	if mind == nil {
		mind = consciousness.New()
	}

	freq := dna.HarmonicFrequency()
	ctrl := adaptive.New(dna.Generation(), rng.Int63())
	if strat := dna.InheritedStrategies(); strat != "" {
		ctrl.DecodeStrategies(strat)
		ctrl.CurrentBaseline().Reproductions = 0
	}

	n := &Node{
		Name:          name,
		Signature:     o.idGen.Generate(name).N,
		X:             x,
		Y:             y,
		Phase:         rng.Float64() * 2 * math.Pi,
		Frequency:     freq,
		DNA:           dna,
		Brain:         brain,
		Consciousness: mind,
		Clock:         qclock.New(freq),
		Adaptive:      ctrl,
		energy:        clamp01(o.energy),
		baseSize:      params.BaseSize,
		params:        params,
		idGen:         o.idGen,
		rng:           rng,
	}
	n.Size = math.Max(1, n.baseSize)
	return n
}

// NameSeed derives a stable seed from a name.
func NameSeed(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}

// UpdateInternalState advances the node's own state by one tick: age, size,
// genome drift, clock, energy decay and one recorded thought.
func (n *Node) UpdateInternalState(dt, wallTime float64) {
	n.Age++

	n.baseSize = math.Min(n.params.MaxSize, n.baseSize+n.params.SizeGrowth)
	n.Size = math.Max(1, n.baseSize*n.DNA.Pulse(wallTime))

	n.DNA.Evolve()
	n.Frequency = n.DNA.HarmonicFrequency()

	n.Clock.SetPendulumFrequency(n.Frequency)
	n.Clock.Tick(dt)
	n.Resonance = n.Clock.PhiResonance()
	n.SpikeFlash = n.Clock.IsSpikeActive()

	n.DrainEnergy(n.params.EnergyDecay * dt)
	n.Consciousness.RecordThought()
}

// Reproduce builds a child at (x, y). The child's genome is a copy of n's
// with the next generation and n's encoded strategies; its brain is n's
// crossed with partner's, or with itself when partner is nil. n pays half
// its size and 30% of its energy.
func (n *Node) Reproduce(partner *Node, childName string, x, y float64) *Node {
	dna := n.DNA.Copy()
	dna.SetGeneration(n.DNA.Generation() + 1)
	dna.SetInheritedStrategies(n.Adaptive.EncodeStrategies())

	mate := n.Brain
	if partner != nil {
		mate = partner.Brain
	}
	brain := n.Brain.Crossover(mate)

	n.baseSize = math.Max(1, n.baseSize/2)
	n.Size = math.Max(1, n.Size/2)
	n.energy *= 0.7

	child := New(childName, x, y,
		WithDNA(dna),
		WithBrain(brain),
		WithEnergy(n.params.ChildEnergy),
		WithParams(n.params),
		WithSeed(n.rng.Int63()),
		WithIdentityGenerator(n.idGen),
	)
	child.Adaptive.InheritStrategies(n.Adaptive)
	if partner != nil {
		child.Adaptive.InheritStrategies(partner.Adaptive)
	}
	n.Adaptive.CurrentBaseline().Reproductions++
	return child
}

// NextChildName returns a fresh name for n's next child.
func (n *Node) NextChildName() string {
	n.childCount++
	return fmt.Sprintf("%s-%d", n.Name, n.childCount)
}

// CanReproduce reports whether size and energy both exceed their thresholds.
func (n *Node) CanReproduce() bool {
	return n.Size > n.params.SizeThreshold && n.energy > n.params.EnergyThreshold
}

// IsAlive reports whether energy is above Epsilon and the node has not been
// killed.
func (n *Node) IsAlive() bool {
	return !n.killed && n.energy > Epsilon
}

// Kill drops energy to zero for good; later boosts are ignored so the world
// reaps the node on its next tick.
func (n *Node) Kill() {
	n.killed = true
	n.energy = 0
}

// Energy returns the current energy in [0,1].
func (n *Node) Energy() float64 { return n.energy }

// SetEnergy sets energy, clamped to [0,1]. A killed node stays at zero.
func (n *Node) SetEnergy(e float64) {
	if n.killed {
		return
	}
	n.energy = clamp01(e)
}

// BoostEnergy adds d, capped at 1.
func (n *Node) BoostEnergy(d float64) { n.SetEnergy(n.energy + d) }

// DrainEnergy removes d, floored at 0.
func (n *Node) DrainEnergy(d float64) { n.SetEnergy(n.energy - d) }

func (n *Node) Generation() int  { return n.DNA.Generation() }
func (n *Node) Params() Params   { return n.params }
func (n *Node) ChildCount() int  { return n.childCount }
func (n *Node) Rand() *rand.Rand { return n.rng }

// SetBaseSize overrides the growth baseline (tests, console physics).
func (n *Node) SetBaseSize(s float64) {
	n.baseSize = math.Max(1, s)
	n.Size = n.baseSize
}

// Speed returns the planar speed.
func (n *Node) Speed() float64 { return math.Hypot(n.VX, n.VY) }

// Distance2D returns the planar distance to other.
func (n *Node) Distance2D(other *Node) float64 {
	return math.Hypot(other.X-n.X, other.Y-n.Y)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s[gen=%d E=%.2f f=%.2f pos=(%.1f,%.1f) %s]",
		n.Name, n.Generation(), n.energy, n.Frequency, n.X, n.Y, n.Role)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
