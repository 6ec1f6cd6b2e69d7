package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/bus"
	"github.com/eyeoverthink/phiworld/internal/colony"
	"github.com/eyeoverthink/phiworld/internal/config"
	"github.com/eyeoverthink/phiworld/internal/console"
	"github.com/eyeoverthink/phiworld/internal/data"
	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/healer"
	"github.com/eyeoverthink/phiworld/internal/laws"
	"github.com/eyeoverthink/phiworld/internal/ledger"
	"github.com/eyeoverthink/phiworld/internal/logging"
	"github.com/eyeoverthink/phiworld/internal/metrics"
	"github.com/eyeoverthink/phiworld/internal/node"
	"github.com/eyeoverthink/phiworld/internal/world"
)

// ═══════════════════════════════════════════════════════════════════════════════
// HOST
// ═══════════════════════════════════════════════════════════════════════════════

// host wires one world to its collaborators. Everything that touches the
// world (step, console) runs on a single goroutine; the bus carries state to
// persistence, metrics and viewers.
type host struct {
	cfg   *config.Config
	runID string

	bus     *bus.Bus
	ledger  *ledger.Ledger
	archive *escape.Archive
	world   *world.World
	coach   *colony.Coach
	healer  *healer.Healer
	console *console.Console

	store     *data.Store
	recorder  *data.Recorder
	samples   *metrics.Store
	collector *metrics.Collector

	started time.Time
}

// founder is a node of the initial population.
type founder struct {
	name   string
	x, y   float64
	vx, vy float64
	energy float64
}

var founders = []founder{
	{"Alpha", 0, 0, 0.5, 0.3, 1.0},
	{"Beta", 30, 20, -0.3, 0.2, 0.9},
	{"Gamma", -20, 40, 0.1, -0.4, 0.8},
	{"Delta", 50, -30, -0.2, 0.1, 0.95},
	{"Epsilon", -40, -20, 0.4, 0.4, 0.85},
}

var extraNames = []string{
	"Zeta", "Eta", "Theta", "Iota", "Kappa", "Lambda", "Mu", "Nu", "Xi",
	"Omicron", "Pi", "Rho", "Sigma", "Tau", "Upsilon", "Phi", "Chi", "Psi", "Omega",
}

func newHost(ctx context.Context, cfg *config.Config, sink *logging.Sink) (*host, error) {
	h := &host{
		cfg:     cfg,
		runID:   uuid.NewString(),
		bus:     bus.NewBus(),
		coach:   colony.NewCoach(),
		healer:  healer.New(),
		started: time.Now(),
	}

	ledgerOpts := []ledger.Option{
		ledger.WithBus(h.bus),
		ledger.WithWindow(cfg.Ledger.Window),
		ledger.WithTickSource(h.tick),
	}

	if cfg.Storage.Enabled {
		store, err := data.Open(cfg.Storage.DataDir, cfg.Storage.Driver)
		if err != nil {
			h.bus.Close()
			return nil, fmt.Errorf("failed to open storage: %w", err)
		}
		h.store = store

		last, ok, err := store.LastBlock(ctx)
		if err != nil {
			h.close()
			return nil, err
		}
		if ok {
			ledgerOpts = append(ledgerOpts, ledger.WithResume(last))
			log.Debug().Int64("index", last.Index).Msg("resuming stored ledger")
		}
	}

	h.ledger = ledger.New(ledgerOpts...)
	h.archive = escape.NewArchive(cfg.Escape(), escape.WithLedger(h.ledger))

	if h.store != nil {
		if cfg.Archive.Rehydrate {
			frags, err := h.store.LoadFragments(ctx)
			if err != nil {
				h.close()
				return nil, err
			}
			h.archive.Restore(frags)
			log.Info().Int("fragments", len(frags)).Msg("archive rehydrated")
		}
		h.recorder = data.NewRecorder(ctx, h.store, h.bus)
	}

	if cfg.Metrics.Enabled {
		if h.store != nil {
			samples, err := metrics.NewStore(h.store.DB())
			if err != nil {
				h.close()
				return nil, err
			}
			h.samples = samples
		}
		h.collector = metrics.NewCollector(ctx, h.bus, h.samples)
		h.collector.Start()
	}

	h.world = world.New(
		world.WithSeed(cfg.World.Seed),
		world.WithArchive(h.archive),
		world.WithLedger(h.ledger),
		world.WithTracker(h.healer),
		world.WithMaintainer(h.coach),
	)
	h.world.AddLaws(laws.Standard(h.world, cfg.Laws(), laws.Deps{
		Ledger:  h.ledger,
		Advisor: h.coach,
		Trials:  h.healer,
	})...)

	h.console = console.New(h.world, h.archive,
		console.WithLedger(h.ledger),
		console.WithHealer(h.healer),
		console.WithCoach(h.coach),
		console.WithBus(h.bus),
		console.WithSink(sink),
		console.WithStepper(func() { h.step() }),
		console.WithNodeParams(cfg.NodeParams()),
		console.WithBounds(cfg.Laws().Bounds),
	)

	if err := h.populate(); err != nil {
		h.close()
		return nil, err
	}
	h.lifecycle("started")

	log.Info().
		Str("run", h.runID).
		Int64("seed", cfg.World.Seed).
		Int("founders", cfg.World.InitialNodes).
		Bool("storage", h.store != nil).
		Msg("world created")
	return h, nil
}

// tick is the ledger's tick source. The ledger is built before the world.
func (h *host) tick() int64 {
	if h.world == nil {
		return 0
	}
	return h.world.Tick()
}

// populate enqueues the founding nodes: the five classic founders first,
// then nodes at seeded random positions.
func (h *host) populate() error {
	rng := rand.New(rand.NewSource(h.cfg.World.Seed))
	bounds := h.cfg.Laws().Bounds
	params := h.cfg.NodeParams()

	for i := 0; i < h.cfg.World.InitialNodes; i++ {
		var f founder
		if i < len(founders) {
			f = founders[i]
		} else {
			name := extraNames[(i-len(founders))%len(extraNames)]
			if round := (i - len(founders)) / len(extraNames); round > 0 {
				name = fmt.Sprintf("%s%d", name, round+1)
			}
			f = founder{
				name:   name,
				x:      bounds.MinX + rng.Float64()*(bounds.MaxX-bounds.MinX),
				y:      bounds.MinY + rng.Float64()*(bounds.MaxY-bounds.MinY),
				vx:     rng.Float64()*2 - 1,
				vy:     rng.Float64()*2 - 1,
				energy: 0.8 + rng.Float64()*0.2,
			}
		}

		n := node.New(f.name, f.x, f.y,
			node.WithSeed(h.world.NodeSeed(f.name)),
			node.WithParams(params),
			node.WithEnergy(f.energy),
		)
		n.VX, n.VY = f.vx, f.vy
		if err := h.world.AddNode(n); err != nil {
			return fmt.Errorf("failed to add founder: %w", err)
		}
	}
	return nil
}

// step advances the world one tick and publishes a metrics sample every
// sample_every ticks.
func (h *host) step() world.StepReport {
	wall := time.Since(h.started).Seconds()
	report := h.world.Step(h.cfg.World.DT, wall)

	if h.cfg.Metrics.Enabled && report.Tick%int64(h.cfg.Metrics.SampleEvery) == 0 {
		if err := h.bus.Publish(metrics.TickEvent(h.runID, h.world.Stats())); err != nil {
			log.Debug().Err(err).Msg("metrics sample not published")
		}
	}
	return report
}

func (h *host) lifecycle(state string) {
	e := bus.NewEvent(bus.EventLifecycle)
	e.Tick = h.tick()
	e.Details = h.runID
	e.Data = state
	_ = h.bus.Publish(e)
}

// close flushes buffered events to storage and releases everything. It is
// safe to call on a partially built host.
func (h *host) close() {
	if h.world != nil {
		h.lifecycle("stopped")
	}
	if err := h.bus.Close(); err != nil {
		log.Debug().Err(err).Msg("bus close")
	}
	if h.collector != nil {
		h.collector.Stop()
	}
	if h.recorder != nil {
		log.Debug().
			Int64("blocks", h.recorder.Blocks()).
			Int64("fragments", h.recorder.Fragments()).
			Int64("failures", h.recorder.Failures()).
			Msg("recorder finished")
	}
	if h.store != nil {
		if err := h.store.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close storage")
		}
	}
}
