// Package logicbrain implements the agent decision unit: eight binary sensors
// wired through eight two-input logic gates into eight behaviour outputs.
// Gate i always drives output i; evolution changes only the gate kinds and
// the sensor indices each gate reads.
package logicbrain

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/wire"
)

const encodingVersion = 1

// Sensor slots.
const (
	SensorCrowded = iota
	SensorHarmonic
	SensorEnergized
	SensorResonant
	SensorCoherent
	SensorPhaseHigh
	SensorSpiking
	SensorMature
)

// Brain is the concrete decision unit.
type Brain struct {
	gates [cognition.OutputCount]cognition.Gate
	last  cognition.Outputs
}

var _ cognition.DecisionUnit = (*Brain)(nil)

// defaultWiring gives a newborn a small set of sensible reflexes.
var defaultWiring = [cognition.OutputCount]cognition.Gate{
	{Kind: cognition.GateAND, A: SensorHarmonic, B: SensorEnergized},   // seek
	{Kind: cognition.GateAND, A: SensorCrowded, B: SensorSpiking},      // flee
	{Kind: cognition.GateAND, A: SensorEnergized, B: SensorResonant},   // reproduce
	{Kind: cognition.GateAND, A: SensorSpiking, B: SensorCoherent},     // mutate
	{Kind: cognition.GateNAND, A: SensorEnergized, B: SensorEnergized}, // conserve
	{Kind: cognition.GateOR, A: SensorHarmonic, B: SensorHarmonic},     // entangle-seek
	{Kind: cognition.GateAND, A: SensorSpiking, B: SensorPhaseHigh},    // burst
	{Kind: cognition.GateAND, A: SensorMature, B: SensorSpiking},       // evolve DNA
}

// New returns a brain with the default wiring.
func New() *Brain {
	return &Brain{gates: defaultWiring}
}

// Random returns a brain with fully random wiring.
func Random(rng *rand.Rand) *Brain {
	b := &Brain{}
	for i := range b.gates {
		b.gates[i] = randomGate(rng)
	}
	return b
}

func randomGate(rng *rand.Rand) cognition.Gate {
	return cognition.Gate{
		Kind: cognition.GateKinds[rng.Intn(len(cognition.GateKinds))],
		A:    rng.Intn(cognition.SensorCount),
		B:    rng.Intn(cognition.SensorCount),
	}
}

// Compute evaluates every gate against s.
func (b *Brain) Compute(s cognition.Sensors) cognition.Outputs {
	var out cognition.Outputs
	for i, g := range b.gates {
		out[i] = g.Kind.Eval(s[g.A], s[g.B])
	}
	b.last = out
	return out
}

func (b *Brain) LastOutputs() cognition.Outputs { return b.last }

// Interpret maps outputs to intents.
func (b *Brain) Interpret(o cognition.Outputs) cognition.Intents {
	return cognition.IntentsFromOutputs(o)
}

// Crossover takes even gates from b and odd gates from other. Crossing with
// nil or with b itself yields a copy of b.
func (b *Brain) Crossover(other cognition.DecisionUnit) cognition.DecisionUnit {
	child := &Brain{gates: b.gates}
	if other == nil {
		return child
	}
	n := other.GateCount()
	for i := 1; i < len(child.gates); i += 2 {
		if i < n {
			child.gates[i] = sanitize(other.Gate(i), child.gates[i])
		}
	}
	return child
}

// Mutate changes one gate: either its kind or one of its inputs.
func (b *Brain) Mutate(rng *rand.Rand) {
	i := rng.Intn(len(b.gates))
	g := &b.gates[i]
	switch rng.Intn(3) {
	case 0:
		g.Kind = cognition.GateKinds[rng.Intn(len(cognition.GateKinds))]
	case 1:
		g.A = rng.Intn(cognition.SensorCount)
	default:
		g.B = rng.Intn(cognition.SensorCount)
	}
}

func (b *Brain) GateCount() int { return len(b.gates) }

// Gate returns gate i; out-of-range indices return the zero gate.
func (b *Brain) Gate(i int) cognition.Gate {
	if i < 0 || i >= len(b.gates) {
		return cognition.Gate{}
	}
	return b.gates[i]
}

func (b *Brain) Gates() []cognition.Gate {
	out := make([]cognition.Gate, len(b.gates))
	copy(out, b.gates[:])
	return out
}

// SetGates replaces the wiring. Missing or invalid gates keep their current
// value.
func (b *Brain) SetGates(gates []cognition.Gate) {
	for i := 0; i < len(b.gates) && i < len(gates); i++ {
		b.gates[i] = sanitize(gates[i], b.gates[i])
	}
}

func sanitize(g, fallback cognition.Gate) cognition.Gate {
	if g.A < 0 || g.A >= cognition.SensorCount || g.B < 0 || g.B >= cognition.SensorCount {
		return fallback
	}
	if int(g.Kind) >= len(cognition.GateKinds) {
		return fallback
	}
	return g
}

// Encode serializes the wiring as v=1|gates=AND:0:1,OR:2:3,...
func (b *Brain) Encode() string {
	return wire.NewRecord(encodingVersion).
		String("gates", EncodeGates(b.gates[:])).
		Encode()
}

// EncodeGates renders gates as comma-joined KIND:A:B tokens.
func EncodeGates(gates []cognition.Gate) string {
	parts := make([]string, len(gates))
	for i, g := range gates {
		parts[i] = fmt.Sprintf("%s:%d:%d", g.Kind, g.A, g.B)
	}
	return strings.Join(parts, ",")
}

// ParseGates parses comma-joined KIND:A:B tokens. A malformed token yields
// ok=false at its position so callers can keep their existing gate there.
func ParseGates(s string) (gates []cognition.Gate, ok []bool) {
	if s == "" {
		return nil, nil
	}
	for _, tok := range strings.Split(s, ",") {
		g, valid := parseGate(strings.TrimSpace(tok))
		gates = append(gates, g)
		ok = append(ok, valid)
	}
	return gates, ok
}

func parseGate(tok string) (cognition.Gate, bool) {
	parts := strings.Split(tok, ":")
	if len(parts) != 3 {
		return cognition.Gate{}, false
	}
	kind, found := cognition.ParseGateKind(strings.ToUpper(parts[0]))
	if !found {
		return cognition.Gate{}, false
	}
	a, errA := strconv.Atoi(parts[1])
	b, errB := strconv.Atoi(parts[2])
	if errA != nil || errB != nil {
		return cognition.Gate{}, false
	}
	if a < 0 || a >= cognition.SensorCount || b < 0 || b >= cognition.SensorCount {
		return cognition.Gate{}, false
	}
	return cognition.Gate{Kind: kind, A: a, B: b}, true
}

// Decode restores a brain. Bare gate lists without the record wrapper are
// accepted too. Malformed or missing gates keep the default wiring.
func Decode(s string) *Brain {
	b := New()
	list := s
	if f := wire.Decode(s); f.Has("gates") {
		list = f.String("gates", "")
	}
	gates, ok := ParseGates(list)
	for i := 0; i < len(b.gates) && i < len(gates); i++ {
		if ok[i] {
			b.gates[i] = gates[i]
		}
	}
	return b
}

func (b *Brain) String() string {
	return "Brain[" + EncodeGates(b.gates[:]) + "]"
}
