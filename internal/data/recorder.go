package data

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/bus"
	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/ledger"
	"github.com/eyeoverthink/phiworld/internal/logging"
)

const writeTimeout = 5 * time.Second

// RecorderBuffer is the recorder's bus buffer. Ledger blocks arrive in bursts
// (a reaping tick can append dozens) and a dropped block breaks the stored
// chain.
const RecorderBuffer = 8192

// Recorder persists ledger blocks published on the bus. FRAGMENT blocks are
// also stored as fragments so the archive can be rehydrated on start.
// Writes happen on the bus subscription goroutine, never on the tick thread.
type Recorder struct {
	store *Store
	bus   *bus.Bus
	ctx   context.Context
	sub   bus.SubscriptionID

	blocks    atomic.Int64
	fragments atomic.Int64
	failures  atomic.Int64
}

// NewRecorder subscribes a recorder to ledger blocks on b. ctx carries
// values into each write; its cancellation does not abort writes in flight.
func NewRecorder(ctx context.Context, store *Store, b *bus.Bus) *Recorder {
	r := &Recorder{store: store, bus: b, ctx: ctx}
	r.sub = b.SubscribeWithBuffer(bus.EventBlock, RecorderBuffer, r.handle)
	return r
}

func (r *Recorder) handle(e bus.Event) {
	ctx, cancel := logging.DetachContextWithTimeout(r.ctx, writeTimeout)
	defer cancel()

	block := ledger.BlockFromEvent(e)
	if err := r.store.InsertBlock(ctx, block); err != nil {
		r.failures.Add(1)
		log.Error().Err(err).Int64("index", block.Index).Msg("persist ledger block")
		return
	}
	r.blocks.Add(1)

	if block.Kind != ledger.KindFragment {
		return
	}
	f, err := escape.DecodeFragment(block.Data)
	if err != nil {
		r.failures.Add(1)
		log.Warn().Err(err).Int64("index", block.Index).Msg("undecodable fragment block")
		return
	}
	if err := r.store.InsertFragment(ctx, f); err != nil {
		r.failures.Add(1)
		log.Error().Err(err).Str("fragment", f.ID).Msg("persist fragment")
		return
	}
	r.fragments.Add(1)
}

// Stop unsubscribes the recorder. Blocks still buffered on the bus are not
// written; hosts that need every block close the bus instead.
func (r *Recorder) Stop() {
	if err := r.bus.Unsubscribe(r.sub); err != nil {
		log.Debug().Err(err).Msg("recorder unsubscribe")
	}
}

func (r *Recorder) Blocks() int64    { return r.blocks.Load() }
func (r *Recorder) Fragments() int64 { return r.fragments.Load() }
func (r *Recorder) Failures() int64  { return r.failures.Load() }
