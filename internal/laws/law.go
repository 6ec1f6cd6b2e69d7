// Package laws contains the per-tick update rules applied by the world.
//
// A Law is applied once to every live node per tick. A law that reports
// Pairwise() must also implement PairLaw; the world then calls ApplyPair once
// per unordered pair of live nodes instead of Apply. Laws that implement
// Cadenced run only on ticks that are a multiple of their cadence.
package laws

import (
	"math"

	"github.com/eyeoverthink/phiworld/internal/node"
)

// Law is a per-tick update rule.
type Law interface {
	Name() string
	Pairwise() bool
	Apply(n *node.Node, dt float64)
}

// PairLaw is a law applied to unordered node pairs.
type PairLaw interface {
	Law
	ApplyPair(a, b *node.Node, dt float64)
}

// Cadenced is implemented by laws that run every N ticks.
type Cadenced interface {
	Cadence() int
}

// World is the view of the population a law may use. Nodes returns the
// population as of the start of the current tick. Find also sees nodes queued
// for the next tick.
type World interface {
	Nodes() []*node.Node
	Population() int
	Find(name string) (*node.Node, bool)
	AddNode(n *node.Node) error
	Tick() int64
}

// Ledger receives fire-and-forget event records. Implementations must not
// block.
type Ledger interface {
	Record(kind, data string)
	RecordBirth(child, parent string, generation int)
	RecordEntanglement(a, b string, strength float64)
	RecordResonanceSpike(name string, resonance float64, oscillations int64)
	RecordMutation(name, reason string)
	RecordBrainDecision(name, decision string, fitness float64)
}

// RoleAdvisor picks roles for newborns.
type RoleAdvisor interface {
	SuggestRoleForChild(parent *node.Node) node.Role
}

type nopLedger struct{}

func (nopLedger) Record(string, string)                       {}
func (nopLedger) RecordBirth(string, string, int)             {}
func (nopLedger) RecordEntanglement(string, string, float64)  {}
func (nopLedger) RecordResonanceSpike(string, float64, int64) {}
func (nopLedger) RecordMutation(string, string)               {}
func (nopLedger) RecordBrainDecision(string, string, float64) {}

func ledgerOrNop(l Ledger) Ledger {
	if l == nil {
		return nopLedger{}
	}
	return l
}

// WrapPhase maps an angle into [0, 2π).
func WrapPhase(p float64) float64 {
	p = math.Mod(p, 2*math.Pi)
	if p < 0 {
		p += 2 * math.Pi
	}
	return p
}

// PhaseDifference returns a−b mapped into (−π, π].
func PhaseDifference(a, b float64) float64 {
	d := math.Mod(a-b, 2*math.Pi)
	if d > math.Pi {
		d -= 2 * math.Pi
	} else if d <= -math.Pi {
		d += 2 * math.Pi
	}
	return d
}
