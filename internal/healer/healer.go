// Package healer keeps a snapshot of each node's best known decision
// circuit and restores it when the node is close to dying.
package healer

import (
	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/node"
)

// CriticalEnergy is the energy below which an automatic heal is attempted.
const CriticalEnergy = 0.2

// RestoreEnergy is the energy a healed node is lifted to.
const RestoreEnergy = 0.5

type record struct {
	gates  []cognition.Gate
	healed bool
}

// Healer tracks snapshots by node name. It implements the world's Tracker
// and the brain law's TrialHook.
type Healer struct {
	snapshots map[string]*record

	snapshotsTaken int64
	heals          int64
}

// New returns an empty healer.
func New() *Healer {
	return &Healer{snapshots: make(map[string]*record)}
}

// TrialAdopted snapshots the circuit a node has just adopted.
func (h *Healer) TrialAdopted(n *node.Node) { h.Snapshot(n) }

// Snapshot records n's current gates as its known-good circuit.
func (h *Healer) Snapshot(n *node.Node) {
	r, ok := h.snapshots[n.Name]
	if !ok {
		r = &record{}
		h.snapshots[n.Name] = r
	}
	r.gates = n.Brain.Gates()
	r.healed = false
	h.snapshotsTaken++
}

// Observe heals n automatically once per snapshot when its energy drops
// below CriticalEnergy.
func (h *Healer) Observe(n *node.Node) {
	if !n.IsAlive() || n.Energy() >= CriticalEnergy {
		return
	}
	r, ok := h.snapshots[n.Name]
	if !ok || r.healed {
		return
	}
	h.restore(n, r)
}

// Forget drops the snapshot for a dead node.
func (h *Healer) Forget(name string) { delete(h.snapshots, name) }

// Heal restores n's snapshot on demand. It reports false when no snapshot
// exists or the node is already dead.
func (h *Healer) Heal(n *node.Node) bool {
	r, ok := h.snapshots[n.Name]
	if !ok || !n.IsAlive() {
		return false
	}
	h.restore(n, r)
	return true
}

// HasSnapshot reports whether a snapshot is held for name.
func (h *Healer) HasSnapshot(name string) bool {
	_, ok := h.snapshots[name]
	return ok
}

func (h *Healer) SnapshotsTaken() int64 { return h.snapshotsTaken }
func (h *Healer) Heals() int64          { return h.heals }

func (h *Healer) restore(n *node.Node, r *record) {
	n.Brain.SetGates(r.gates)
	if n.Energy() < RestoreEnergy {
		n.SetEnergy(RestoreEnergy)
	}
	r.healed = true
	h.heals++
	log.Info().Str("node", n.Name).Float64("energy", n.Energy()).Msg("node healed")
}
