package laws

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/adaptive"
	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/logicbrain"
	"github.com/eyeoverthink/phiworld/internal/node"
)

// BrainConfig tunes the decision law.
type BrainConfig struct {
	Cadence        int
	NeighborRadius float64
	MaxSpeed       float64
	DecisionSample int64 // ticks between ledger decision samples
}

// DefaultBrainConfig returns the standard decision cadence and reach.
func DefaultBrainConfig() BrainConfig {
	return BrainConfig{
		Cadence:        6,
		NeighborRadius: 50,
		MaxSpeed:       15,
		DecisionSample: 300,
	}
}

const (
	seekAccel     = 2.0
	fleeAccel     = 3.0
	entangleAccel = 1.5
	burstAccel    = 5.0
	burstCost     = 0.02
	conserveDrag  = 0.95
	conserveGain  = 0.005
	noNeighborGap = 100.0
	matureAge     = 300
)

// TrialHook is told about adopted trials so the adopted wiring can be
// remembered elsewhere.
type TrialHook interface {
	TrialAdopted(n *node.Node)
}

// Brain senses each node's surroundings, runs its decision unit and applies
// the resulting intents. It is the only driver of the adaptive trial state
// machine.
type Brain struct {
	world  World
	cfg    BrainConfig
	ledger Ledger
	hook   TrialHook

	decisions int64
	adopted   int64
	reverted  int64
}

// NewBrain returns the decision law. ledger and hook may be nil.
func NewBrain(w World, cfg BrainConfig, ledger Ledger, hook TrialHook) *Brain {
	if cfg.Cadence <= 0 {
		cfg.Cadence = 1
	}
	return &Brain{world: w, cfg: cfg, ledger: ledgerOrNop(ledger), hook: hook}
}

func (b *Brain) Name() string   { return "Brain" }
func (b *Brain) Pairwise() bool { return false }
func (b *Brain) Cadence() int   { return b.cfg.Cadence }

// Stats returns decision, adoption and revert counts.
func (b *Brain) Stats() (decisions, adopted, reverted int64) {
	return b.decisions, b.adopted, b.reverted
}

// surroundings is what a node can perceive this tick.
type surroundings struct {
	neighbors       int
	entangled       int
	avgFreqGap      float64
	nearest         *node.Node
	nearestDist     float64
	nearestMatch    *node.Node
	nearestMatchDst float64
}

func (b *Brain) sense(n *node.Node) surroundings {
	s := surroundings{avgFreqGap: noNeighborGap, nearestDist: math.Inf(1), nearestMatchDst: math.Inf(1)}
	var gapSum float64
	for _, other := range b.world.Nodes() {
		if other == n || !other.IsAlive() {
			continue
		}
		dist := n.Distance2D(other)
		gap := math.Abs(n.Frequency - other.Frequency)
		if dist < s.nearestDist {
			s.nearest, s.nearestDist = other, dist
		}
		if gap < EntanglementEpsilon && dist < s.nearestMatchDst {
			s.nearestMatch, s.nearestMatchDst = other, dist
		}
		if dist > b.cfg.NeighborRadius {
			continue
		}
		s.neighbors++
		gapSum += gap
		if gap < EntanglementEpsilon {
			s.entangled++
		}
	}
	if s.neighbors > 0 {
		s.avgFreqGap = gapSum / float64(s.neighbors)
	}
	return s
}

// sensors builds the binary sensor vector for n.
func (b *Brain) sensors(n *node.Node, s surroundings) cognition.Sensors {
	var v cognition.Sensors
	v[logicbrain.SensorCrowded] = s.neighbors >= 2
	v[logicbrain.SensorHarmonic] = s.avgFreqGap < EntanglementEpsilon
	v[logicbrain.SensorEnergized] = n.Energy() > 0.5
	v[logicbrain.SensorResonant] = n.Clock.PhiResonance() > 0.5
	v[logicbrain.SensorCoherent] = n.Consciousness.Coherence() > 0.8
	v[logicbrain.SensorPhaseHigh] = math.Sin(n.Phase) > 0
	v[logicbrain.SensorSpiking] = n.Clock.IsSpikeActive()
	v[logicbrain.SensorMature] = n.Age > matureAge
	return v
}

func (b *Brain) Apply(n *node.Node, dt float64) {
	s := b.sense(n)
	out := n.Brain.Compute(b.sensors(n, s))
	in := n.Brain.Interpret(out)
	n.LastIntents = in
	b.decisions++

	n.BoostEnergy(n.Role.Bonus(in, dt))
	spiking := n.Clock.IsSpikeActive()

	n.Adaptive.RecordFitnessSample(n.Energy(), spiking, s.entangled, n.Role.Matches(in))
	switch n.Adaptive.TickTrial(n.Brain) {
	case cognition.TrialAdopted:
		b.adopted++
		log.Info().
			Str("node", n.Name).
			Float64("baseline", n.Adaptive.CurrentBaseline().Fitness).
			Msg("trial ADOPTED")
		b.ledger.Record("ADAPTATION", fmt.Sprintf("%s adopted mutation (baseline %.3f)", n.Name, n.Adaptive.CurrentBaseline().Fitness))
		if b.hook != nil {
			b.hook.TrialAdopted(n)
		}
	case cognition.TrialReverted:
		b.reverted++
		log.Info().
			Str("node", n.Name).
			Float64("fitness", n.Adaptive.CurrentFitness()).
			Msg("trial REVERTED")
	}

	if in.Has(cognition.IntentSeek) && s.nearest != nil && s.nearestDist > 1 {
		steer(n, s.nearest, s.nearestDist, seekAccel*dt)
	}
	if in.Has(cognition.IntentFlee) && s.nearest != nil && s.nearestDist > 0.5 {
		steer(n, s.nearest, s.nearestDist, -fleeAccel*dt)
	}
	if in.Has(cognition.IntentEntangleSeek) && s.nearestMatch != nil && s.nearestMatchDst > 1 {
		steer(n, s.nearestMatch, s.nearestMatchDst, entangleAccel*dt)
	}
	if in.Has(cognition.IntentConserve) {
		n.VX *= conserveDrag
		n.VY *= conserveDrag
		n.BoostEnergy(conserveGain * dt)
	}
	if in.Has(cognition.IntentMutate) && spiking && !n.Adaptive.IsInTrial() {
		b.beginTrial(n)
	}
	if in.Has(cognition.IntentEnergyBurst) && n.Energy() > 0.5 {
		n.DrainEnergy(burstCost)
		n.VX += math.Cos(n.Phase) * burstAccel * dt
		n.VY += math.Sin(n.Phase) * burstAccel * dt
	}
	if in.Has(cognition.IntentEvolveDNA) {
		n.DNA.Evolve()
		n.Frequency = n.DNA.HarmonicFrequency()
	}

	n.VX = clampAbs(n.VX, b.cfg.MaxSpeed)
	n.VY = clampAbs(n.VY, b.cfg.MaxSpeed)

	if b.cfg.DecisionSample > 0 && b.world.Tick()%b.cfg.DecisionSample == 0 && !in.Empty() {
		b.ledger.RecordBrainDecision(n.Name, in.String(), n.Adaptive.CurrentFitness())
	}
}

func (b *Brain) beginTrial(n *node.Node) {
	if err := n.Adaptive.BeginTrial(n.Brain); err != nil {
		if !errors.Is(err, adaptive.ErrTrialActive) {
			log.Warn().Err(err).Str("node", n.Name).Msg("begin trial failed")
		}
		return
	}
	log.Debug().Str("node", n.Name).Msg("spike trial started")
	b.ledger.RecordMutation(n.Name, "spike-trial-started")
}

// steer accelerates n along the unit vector towards target by accel.
func steer(n, target *node.Node, dist, accel float64) {
	n.VX += (target.X - n.X) / dist * accel
	n.VY += (target.Y - n.Y) / dist * accel
}

func clampAbs(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
