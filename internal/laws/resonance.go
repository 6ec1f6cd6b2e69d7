package laws

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/node"
)

const (
	// EntanglementEpsilon is the largest frequency gap that still couples a pair.
	EntanglementEpsilon = 0.5

	entanglementGain    = 2.0
	entanglementTrickle = 0.05
	entanglementSample  = 180

	spikeBoost  = 0.03
	spikeSample = 10
)

// Entanglement couples frequency-matched pairs: their phases are pulled
// together in proportion to the phase gap and both gain a little energy.
type Entanglement struct {
	ledger Ledger
	pairs  int64
}

// NewEntanglement returns the entanglement law. ledger may be nil.
func NewEntanglement(ledger Ledger) *Entanglement {
	return &Entanglement{ledger: ledgerOrNop(ledger)}
}

func (e *Entanglement) Name() string              { return "Entanglement" }
func (e *Entanglement) Pairwise() bool            { return true }
func (e *Entanglement) Apply(*node.Node, float64) {}
func (e *Entanglement) Applications() int64       { return e.pairs }

func (e *Entanglement) ApplyPair(a, b *node.Node, dt float64) {
	if math.Abs(a.Frequency-b.Frequency) > EntanglementEpsilon {
		return
	}

	d := PhaseDifference(a.Phase, b.Phase)
	correction := -entanglementGain * d
	a.Phase = WrapPhase(a.Phase + correction*dt)
	b.Phase = WrapPhase(b.Phase - correction*dt)

	a.BoostEnergy(entanglementTrickle * dt)
	b.BoostEnergy(entanglementTrickle * dt)

	e.pairs++
	if e.pairs%entanglementSample == 0 {
		log.Debug().
			Str("a", a.Name).
			Str("b", b.Name).
			Float64("phase_gap", math.Abs(d)).
			Msg("entanglement sync")
		e.ledger.RecordEntanglement(a.Name, b.Name, math.Abs(d))
	}
}

// ResonanceSpike rewards nodes whose clock is spiking with energy and a
// forced consciousness cycle.
type ResonanceSpike struct {
	ledger Ledger
	spikes int64
}

// NewResonanceSpike returns the spike law. ledger may be nil.
func NewResonanceSpike(ledger Ledger) *ResonanceSpike {
	return &ResonanceSpike{ledger: ledgerOrNop(ledger)}
}

func (r *ResonanceSpike) Name() string   { return "ResonanceSpike" }
func (r *ResonanceSpike) Pairwise() bool { return false }
func (r *ResonanceSpike) Spikes() int64  { return r.spikes }

func (r *ResonanceSpike) Apply(n *node.Node, dt float64) {
	if !n.Clock.IsSpikeActive() {
		return
	}
	n.BoostEnergy(spikeBoost * dt)
	n.Consciousness.Evolve()

	r.spikes++
	if n.Clock.SpikeCount()%spikeSample == 1 {
		log.Debug().
			Str("node", n.Name).
			Float64("resonance", n.Clock.PhiResonance()).
			Int64("oscillations", n.Clock.OscillationCount()).
			Msg("resonance spike")
		r.ledger.RecordResonanceSpike(n.Name, n.Clock.PhiResonance(), n.Clock.OscillationCount())
	}
}
