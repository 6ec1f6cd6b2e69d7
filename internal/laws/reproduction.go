package laws

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/node"
)

// ReproductionConfig tunes the reproduction law.
type ReproductionConfig struct {
	Cadence       int
	MaxPopulation int
	// EagerEnergy lets a node reproduce without a spike once its energy
	// reaches this level.
	EagerEnergy float64
}

// DefaultReproductionConfig returns the standard cadence and cap.
func DefaultReproductionConfig() ReproductionConfig {
	return ReproductionConfig{Cadence: 120, MaxPopulation: 30, EagerEnergy: 0.9}
}

const (
	childOffset = 5.0
	childDrift  = 0.5
)

// Reproduction spawns children for eligible nodes whose latest decision asked
// to reproduce. Children are queued on the world and join on the next tick.
type Reproduction struct {
	world   World
	cfg     ReproductionConfig
	ledger  Ledger
	advisor RoleAdvisor
	births  int64
}

// NewReproduction returns the reproduction law. ledger and advisor may be nil.
func NewReproduction(w World, cfg ReproductionConfig, ledger Ledger, advisor RoleAdvisor) *Reproduction {
	if cfg.Cadence <= 0 {
		cfg.Cadence = 1
	}
	return &Reproduction{world: w, cfg: cfg, ledger: ledgerOrNop(ledger), advisor: advisor}
}

func (r *Reproduction) Name() string   { return "Reproduction" }
func (r *Reproduction) Pairwise() bool { return false }
func (r *Reproduction) Cadence() int   { return r.cfg.Cadence }
func (r *Reproduction) Births() int64  { return r.births }

// Eligible reports whether n would reproduce this tick, ignoring the cap.
func (r *Reproduction) Eligible(n *node.Node) bool {
	if !n.CanReproduce() {
		return false
	}
	if !n.LastIntents.Has(cognition.IntentReproduce) {
		return false
	}
	return n.Clock.IsSpikeActive() || n.Energy() >= r.cfg.EagerEnergy
}

func (r *Reproduction) Apply(n *node.Node, _ float64) {
	if r.cfg.MaxPopulation > 0 && r.world.Population() >= r.cfg.MaxPopulation {
		return
	}
	if !r.Eligible(n) {
		return
	}

	ox := math.Cos(n.Phase) * childOffset
	oy := math.Sin(n.Phase) * childOffset
	child := n.Reproduce(nil, r.childName(n), n.X+ox, n.Y+oy)
	child.VX = ox * childDrift
	child.VY = oy * childDrift
	if r.advisor != nil {
		child.Role = r.advisor.SuggestRoleForChild(n)
	}

	if err := r.world.AddNode(child); err != nil {
		log.Warn().Err(err).Str("parent", n.Name).Str("child", child.Name).Msg("child rejected")
		return
	}
	r.births++
	log.Info().
		Str("parent", n.Name).
		Str("child", child.Name).
		Int("generation", child.Generation()).
		Msg("node reproduced")
	r.ledger.RecordBirth(child.Name, n.Name, child.Generation())
}

// childName returns n's next child name that no live or queued node holds.
// A respawned node restarts its count and would otherwise reuse the names of
// its predecessor's living children.
func (r *Reproduction) childName(n *node.Node) string {
	for {
		name := n.NextChildName()
		if _, taken := r.world.Find(name); !taken {
			return name
		}
	}
}
