// Package cognition defines the contracts between an agent and the cognitive
// collaborators it owns: the decision unit, the genetic descriptor, the
// oscillator clock and the adaptive trial controller.
//
// Concrete implementations live in logicbrain, genome, qclock and adaptive.
// Keeping the contracts in this leaf package lets those implementations refer
// to each other (crossover, copy) without import cycles.
package cognition

import "math/rand"

// SensorCount is the width of a decision unit's input vector.
const SensorCount = 8

// OutputCount is the width of a decision unit's output vector.
const OutputCount = 8

// Sensors is a binary sensor vector.
type Sensors [SensorCount]bool

// Outputs is a binary behaviour-output vector.
type Outputs [OutputCount]bool

// Output slots. The decision unit's gate i drives output i.
const (
	OutSeek = iota
	OutFlee
	OutReproduce
	OutMutate
	OutConserve
	OutEntangleSeek
	OutEnergyBurst
	OutEvolveDNA
)

// GateKind is the boolean function of a gate.
type GateKind uint8

const (
	GateAND GateKind = iota
	GateOR
	GateXOR
	GateNAND
)

// GateKinds lists every gate kind in encoding order.
var GateKinds = []GateKind{GateAND, GateOR, GateXOR, GateNAND}

// String returns the wire name of the gate kind.
func (k GateKind) String() string {
	switch k {
	case GateAND:
		return "AND"
	case GateOR:
		return "OR"
	case GateXOR:
		return "XOR"
	case GateNAND:
		return "NAND"
	default:
		return "UNKNOWN"
	}
}

// ParseGateKind parses a wire gate name.
func ParseGateKind(s string) (GateKind, bool) {
	for _, k := range GateKinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Eval applies the gate function.
func (k GateKind) Eval(a, b bool) bool {
	switch k {
	case GateAND:
		return a && b
	case GateOR:
		return a || b
	case GateXOR:
		return a != b
	case GateNAND:
		return !(a && b)
	default:
		return false
	}
}

// Gate reads two sensor indices and produces one output.
type Gate struct {
	Kind GateKind
	A, B int
}

// DecisionUnit maps sensors to behaviour outputs.
type DecisionUnit interface {
	// Compute evaluates the wiring and remembers the outputs.
	Compute(s Sensors) Outputs
	// LastOutputs returns the outputs of the most recent Compute.
	LastOutputs() Outputs
	// Interpret turns an output vector into the intents it requests.
	Interpret(o Outputs) Intents
	// Crossover builds a child unit from this unit and other.
	Crossover(other DecisionUnit) DecisionUnit
	// Mutate perturbs the wiring in place.
	Mutate(rng *rand.Rand)
	// GateCount and Gate expose the wiring for serialization.
	GateCount() int
	Gate(i int) Gate
	// Gates returns a copy of the wiring; SetGates replaces it.
	Gates() []Gate
	SetGates(g []Gate)
	// Encode serializes the wiring.
	Encode() string
}

// Genome is an evolving, inheritable parameter set.
type Genome interface {
	Evolve()
	Copy() Genome
	Crossover(other Genome) Genome
	Generation() int
	SetGeneration(g int)
	InheritedStrategies() string
	SetInheritedStrategies(s string)
	HarmonicFrequency() float64
	Amplitude() float64
	Pulse(t float64) float64
	Encode() string
}

// Clock is a per-agent oscillator reporting resonance spikes.
type Clock interface {
	SetPendulumFrequency(f float64)
	Tick(dt float64)
	IsSpikeActive() bool
	PhiResonance() float64
	SpikeCount() int64
	OscillationCount() int64
}

// TrialResult is the outcome of one trial evaluation tick.
type TrialResult int

const (
	TrialNone TrialResult = iota
	TrialAdopted
	TrialReverted
)

// String returns a readable name.
func (r TrialResult) String() string {
	switch r {
	case TrialAdopted:
		return "ADOPTED"
	case TrialReverted:
		return "REVERTED"
	default:
		return "NONE"
	}
}

// Baseline is the controller's stable strategy record.
type Baseline struct {
	Fitness       float64
	Samples       int64
	Reproductions int
}

// TrialController runs mutate/evaluate/adopt-or-revert cycles over a
// decision unit.
type TrialController interface {
	IsInTrial() bool
	BeginTrial(du DecisionUnit) error
	RecordFitnessSample(energy float64, spikeActive bool, entangledNeighbors int, flag bool)
	TickTrial(du DecisionUnit) TrialResult
	EncodeStrategies() string
	DecodeStrategies(s string)
	InheritStrategies(other TrialController)
	CurrentFitness() float64
	CurrentBaseline() *Baseline
}
