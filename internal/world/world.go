// Package world implements the tick scheduler. A World owns the live node
// population, a queue of pending births and an ordered list of laws.
//
// Each Step runs, in order:
//
//  1. drain pending births into the live population
//  2. apply every law in registration order (pairwise laws over every
//     unordered pair, the rest over every node), honouring cadences
//  3. update every node's internal state and notify trackers
//  4. run maintenance passes (colony coach)
//  5. reap dead nodes, planting an escape fragment for each
//
// The live population changes structurally only in steps 1 and 5, so laws
// never see a node appear or disappear mid-tick. The world is not safe for
// concurrent use; hosts serialize all calls onto one goroutine.
package world

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/laws"
	"github.com/eyeoverthink/phiworld/internal/node"
)

// ErrDuplicateName is returned by AddNode when the name is already live or
// pending.
var ErrDuplicateName = errors.New("world: duplicate node name")

// Archive snapshots dying nodes.
type Archive interface {
	Plant(n *node.Node) escape.Fragment
}

// Ledger records deaths. It must not block.
type Ledger interface {
	RecordDeath(name string, generation int, age int64)
}

// Tracker follows nodes by name: Observe after every internal update and
// Forget when the node dies.
type Tracker interface {
	Observe(n *node.Node)
	Forget(name string)
}

// Maintainer runs a population-wide pass once per tick.
type Maintainer interface {
	Tick(nodes []*node.Node, tick int64)
}

// World is the simulation scheduler.
type World struct {
	seed int64
	rng  *rand.Rand

	nodes   []*node.Node
	pending []*node.Node
	names   map[string]struct{}
	laws    []laws.Law

	archive     Archive
	ledger      Ledger
	trackers    []Tracker
	maintainers []Maintainer

	tick   int64
	births int64
	deaths int64
}

// Option configures a World.
type Option func(*World)

// WithSeed seeds the world's random stream and node seeds.
func WithSeed(seed int64) Option {
	return func(w *World) { w.seed = seed }
}

// WithArchive plants a fragment for every dying node.
func WithArchive(a Archive) Option {
	return func(w *World) { w.archive = a }
}

// WithLedger records deaths.
func WithLedger(l Ledger) Option {
	return func(w *World) { w.ledger = l }
}

// WithTracker adds a per-node tracker.
func WithTracker(t Tracker) Option {
	return func(w *World) { w.trackers = append(w.trackers, t) }
}

// WithMaintainer adds a maintenance pass.
func WithMaintainer(m Maintainer) Option {
	return func(w *World) { w.maintainers = append(w.maintainers, m) }
}

// New returns an empty world.
func New(opts ...Option) *World {
	w := &World{names: make(map[string]struct{})}
	for _, opt := range opts {
		opt(w)
	}
	w.rng = rand.New(rand.NewSource(w.seed))
	return w
}

// AddLaw registers l after the existing laws. A law that reports Pairwise
// without implementing laws.PairLaw is a programming error.
func (w *World) AddLaw(l laws.Law) {
	if l.Pairwise() {
		if _, ok := l.(laws.PairLaw); !ok {
			panic(fmt.Sprintf("world: law %s is pairwise but has no ApplyPair", l.Name()))
		}
	}
	w.laws = append(w.laws, l)
}

// AddLaws registers ls in order.
func (w *World) AddLaws(ls ...laws.Law) {
	for _, l := range ls {
		w.AddLaw(l)
	}
}

// Laws returns the registered laws in order.
func (w *World) Laws() []laws.Law {
	out := make([]laws.Law, len(w.laws))
	copy(out, w.laws)
	return out
}

// AddNode queues n to join the population at the start of the next tick.
func (w *World) AddNode(n *node.Node) error {
	if n == nil {
		panic("world: nil node")
	}
	if _, taken := w.names[n.Name]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateName, n.Name)
	}
	w.names[n.Name] = struct{}{}
	w.pending = append(w.pending, n)
	return nil
}

// Nodes returns the live population. The slice must not be modified; it
// stays valid until the next Step.
func (w *World) Nodes() []*node.Node { return w.nodes }

// Pending returns the nodes queued for the next tick.
func (w *World) Pending() []*node.Node {
	out := make([]*node.Node, len(w.pending))
	copy(out, w.pending)
	return out
}

// Population counts live and pending nodes.
func (w *World) Population() int { return len(w.nodes) + len(w.pending) }

// Find returns the live or pending node called name.
func (w *World) Find(name string) (*node.Node, bool) {
	for _, n := range w.nodes {
		if n.Name == name {
			return n, true
		}
	}
	for _, n := range w.pending {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

func (w *World) Tick() int64      { return w.tick }
func (w *World) Births() int64    { return w.births }
func (w *World) Deaths() int64    { return w.deaths }
func (w *World) Seed() int64      { return w.seed }
func (w *World) Rand() *rand.Rand { return w.rng }

// NodeSeed derives the random seed for a node called name.
func (w *World) NodeSeed(name string) int64 {
	return w.seed ^ node.NameSeed(name)
}

// StepReport summarizes one tick.
type StepReport struct {
	Tick   int64
	Born   []string
	Died   []string
	Before int
	After  int
}

// Step advances the world by one tick of dt simulated seconds. wallTime is
// the host clock in seconds and only drives visual pulses.
func (w *World) Step(dt, wallTime float64) StepReport {
	w.tick++
	report := StepReport{Tick: w.tick, Before: len(w.nodes)}

	if len(w.pending) > 0 {
		for _, n := range w.pending {
			report.Born = append(report.Born, n.Name)
		}
		w.nodes = append(w.nodes, w.pending...)
		w.births += int64(len(w.pending))
		w.pending = nil
	}

	for _, l := range w.laws {
		if !w.due(l) {
			continue
		}
		if l.Pairwise() {
			pl := l.(laws.PairLaw)
			for i := 0; i < len(w.nodes); i++ {
				for j := i + 1; j < len(w.nodes); j++ {
					pl.ApplyPair(w.nodes[i], w.nodes[j], dt)
				}
			}
			continue
		}
		for _, n := range w.nodes {
			l.Apply(n, dt)
		}
	}

	for _, n := range w.nodes {
		n.UpdateInternalState(dt, wallTime)
		for _, t := range w.trackers {
			t.Observe(n)
		}
	}

	for _, m := range w.maintainers {
		m.Tick(w.nodes, w.tick)
	}

	report.Died = w.reap()
	report.After = len(w.nodes)
	return report
}

func (w *World) due(l laws.Law) bool {
	c, ok := l.(laws.Cadenced)
	if !ok || c.Cadence() <= 1 {
		return true
	}
	return w.tick%int64(c.Cadence()) == 0
}

// reap removes every dead node in one pass. A fresh slice is built so that
// slices handed out by Nodes before this tick are left intact.
func (w *World) reap() []string {
	var died []string
	for _, n := range w.nodes {
		if !n.IsAlive() {
			died = append(died, n.Name)
		}
	}
	if len(died) == 0 {
		return nil
	}

	survivors := make([]*node.Node, 0, len(w.nodes)-len(died))
	for _, n := range w.nodes {
		if n.IsAlive() {
			survivors = append(survivors, n)
			continue
		}
		if w.archive != nil {
			w.archive.Plant(n)
		}
		for _, t := range w.trackers {
			t.Forget(n.Name)
		}
		if w.ledger != nil {
			w.ledger.RecordDeath(n.Name, n.Generation(), n.Age)
		}
		delete(w.names, n.Name)
		w.deaths++

		log.Info().
			Str("node", n.Name).
			Int("generation", n.Generation()).
			Int64("age", n.Age).
			Int64("tick", w.tick).
			Msg("node died")
	}
	w.nodes = survivors
	return died
}
