// Package escape keeps death-time snapshots of nodes and turns them back
// into live nodes. The archive is append-only: fragments are never pruned or
// modified once planted.
package escape

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/consciousness"
	"github.com/eyeoverthink/phiworld/internal/genome"
	"github.com/eyeoverthink/phiworld/internal/logicbrain"
	"github.com/eyeoverthink/phiworld/internal/node"
)

// ErrNoFragment is returned when no fragment matches a resurrection request.
var ErrNoFragment = errors.New("escape: no fragment")

// ResurrectSuffix is appended to a resurrected node's name.
const ResurrectSuffix = "_RES"

// Ledger receives archive events. It must not block.
type Ledger interface {
	Record(kind, data string)
}

// Config tunes resurrection.
type Config struct {
	// Resurrected energy is max(EnergyFloor, EnergyFactor × last energy).
	EnergyFloor  float64
	EnergyFactor float64
}

// DefaultConfig returns the standard resurrection tuning.
func DefaultConfig() Config {
	return Config{EnergyFloor: 0.3, EnergyFactor: 0.8}
}

// Archive is the fragment store of one world.
type Archive struct {
	cfg    Config
	ledger Ledger
	now    func() time.Time

	fragments   []Fragment
	planted     int64
	resurrected int64
}

// Option configures an Archive.
type Option func(*Archive)

// WithLedger records FRAGMENT and RESURRECTION events on l.
func WithLedger(l Ledger) Option {
	return func(a *Archive) { a.ledger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(a *Archive) { a.now = now }
}

// NewArchive returns an empty archive.
func NewArchive(cfg Config, opts ...Option) *Archive {
	a := &Archive{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Plant snapshots n and appends the fragment.
func (a *Archive) Plant(n *node.Node) Fragment {
	now := a.now()
	f := Fragment{
		ID:            fmt.Sprintf("ESC_%s_%d", n.Name, now.UnixMilli()%100000),
		Name:          n.Name,
		Brain:         logicbrain.EncodeGates(n.Brain.Gates()),
		DNA:           n.DNA.Encode(),
		Consciousness: n.Consciousness.Encode(),
		LastEnergy:    n.Energy(),
		LastFrequency: n.Frequency,
		Generation:    n.Generation(),
		PlantedAt:     now,
	}
	a.fragments = append(a.fragments, f)
	a.planted++

	log.Info().
		Str("fragment", f.ID).
		Str("node", n.Name).
		Int("generation", f.Generation).
		Msg("escape fragment planted")
	if a.ledger != nil {
		a.ledger.Record("FRAGMENT", f.Encode())
	}
	return f
}

// Restore appends previously persisted fragments without counting them as
// planted.
func (a *Archive) Restore(frags []Fragment) {
	a.fragments = append(a.fragments, frags...)
}

// Resurrect builds a live node from f at (x, y). The node is named
// <name>_RES, is one generation younger than f, and starts with
// max(floor, factor × f.LastEnergy) energy. opts are applied after the
// decoded parts.
func (a *Archive) Resurrect(f Fragment, x, y float64, opts ...node.Option) *node.Node {
	name := f.Name + ResurrectSuffix
	seed := node.NameSeed(name)

	dna := genome.Decode(f.DNA, seed)
	dna.SetGeneration(f.Generation + 1)
	energy := math.Max(a.cfg.EnergyFloor, a.cfg.EnergyFactor*f.LastEnergy)

	base := []node.Option{
		node.WithDNA(dna),
		node.WithBrain(logicbrain.Decode(f.Brain)),
		node.WithConsciousness(consciousness.Decode(f.Consciousness)),
		node.WithEnergy(energy),
	}
	n := node.New(name, x, y, append(base, opts...)...)
	a.resurrected++

	log.Info().
		Str("fragment", f.ID).
		Str("node", n.Name).
		Int("generation", n.Generation()).
		Float64("energy", n.Energy()).
		Msg("node resurrected")
	if a.ledger != nil {
		a.ledger.Record("RESURRECTION", fmt.Sprintf("%s from %s gen=%d", n.Name, f.ID, n.Generation()))
	}
	return n
}

// ResurrectLatest resurrects the most recent fragment.
func (a *Archive) ResurrectLatest(x, y float64, opts ...node.Option) (*node.Node, Fragment, error) {
	f, ok := a.Latest()
	if !ok {
		return nil, Fragment{}, ErrNoFragment
	}
	return a.Resurrect(f, x, y, opts...), f, nil
}

// ResurrectByName resurrects the most recent fragment of name.
func (a *Archive) ResurrectByName(name string, x, y float64, opts ...node.Option) (*node.Node, Fragment, error) {
	f, ok := a.FindLatest(name)
	if !ok {
		return nil, Fragment{}, fmt.Errorf("%w for %q", ErrNoFragment, name)
	}
	return a.Resurrect(f, x, y, opts...), f, nil
}

// Latest returns the most recent fragment.
func (a *Archive) Latest() (Fragment, bool) {
	if len(a.fragments) == 0 {
		return Fragment{}, false
	}
	return a.fragments[len(a.fragments)-1], true
}

// FindLatest returns the most recent fragment of name.
func (a *Archive) FindLatest(name string) (Fragment, bool) {
	for i := len(a.fragments) - 1; i >= 0; i-- {
		if a.fragments[i].Name == name {
			return a.fragments[i], true
		}
	}
	return Fragment{}, false
}

// Fragments returns all fragments, oldest first.
func (a *Archive) Fragments() []Fragment {
	out := make([]Fragment, len(a.fragments))
	copy(out, a.fragments)
	return out
}

func (a *Archive) Len() int           { return len(a.fragments) }
func (a *Archive) Planted() int64     { return a.planted }
func (a *Archive) Resurrected() int64 { return a.resurrected }
