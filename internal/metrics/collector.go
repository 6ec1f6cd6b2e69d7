package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/bus"
	"github.com/eyeoverthink/phiworld/internal/logging"
)

// SessionStats is the collector's running view of the current process.
type SessionStats struct {
	StartTime      time.Time
	Samples        int64
	PeakPopulation int
	MaxGeneration  int
	Last           Sample
	LastEventTime  time.Time
	BlocksSeen     int64
	StoreFailures  int64
}

// Collector listens for tick and ledger events and aggregates them.
type Collector struct {
	bus   *bus.Bus
	store *Store
	ctx   context.Context

	mu        sync.RWMutex
	session   SessionStats
	recent    []Sample
	maxRecent int
	subs      []bus.SubscriptionID
	stopped   bool
}

// NewCollector creates a collector. store may be nil.
func NewCollector(ctx context.Context, b *bus.Bus, store *Store) *Collector {
	return &Collector{
		bus:       b,
		store:     store,
		ctx:       ctx,
		session:   SessionStats{StartTime: time.Now()},
		maxRecent: 120,
	}
}

// Start subscribes to the bus.
func (c *Collector) Start() {
	if c.bus == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.subs = append(c.subs,
		c.bus.Subscribe(bus.EventTick, c.handleTick),
		c.bus.Subscribe(bus.EventBlock, c.handleBlock),
	)
}

// Stop unsubscribes from the bus.
func (c *Collector) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.stopped = true
	for _, id := range c.subs {
		_ = c.bus.Unsubscribe(id)
	}
	c.subs = nil
}

// Session returns a copy of the session stats.
func (c *Collector) Session() SessionStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// Recent returns up to n of the latest samples, oldest first.
func (c *Collector) Recent(n int) []Sample {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if n <= 0 || n > len(c.recent) {
		n = len(c.recent)
	}
	out := make([]Sample, n)
	copy(out, c.recent[len(c.recent)-n:])
	return out
}

func (c *Collector) handleTick(e bus.Event) {
	sm := SampleFromEvent(e)

	c.mu.Lock()
	c.session.Samples++
	c.session.Last = sm
	c.session.LastEventTime = e.Timestamp
	if sm.Population > c.session.PeakPopulation {
		c.session.PeakPopulation = sm.Population
	}
	if sm.MaxGeneration > c.session.MaxGeneration {
		c.session.MaxGeneration = sm.MaxGeneration
	}
	c.recent = append(c.recent, sm)
	if len(c.recent) > c.maxRecent {
		c.recent = c.recent[1:]
	}
	c.mu.Unlock()

	if c.store == nil {
		return
	}
	ctx, cancel := logging.DetachContextWithTimeout(c.ctx, 5*time.Second)
	defer cancel()
	if err := c.store.Insert(ctx, sm); err != nil {
		c.mu.Lock()
		c.session.StoreFailures++
		c.mu.Unlock()
		log.Error().Err(err).Int64("tick", sm.Tick).Msg("persist metrics sample")
	}
}

func (c *Collector) handleBlock(e bus.Event) {
	c.mu.Lock()
	c.session.BlocksSeen++
	c.session.LastEventTime = e.Timestamp
	c.mu.Unlock()
}
