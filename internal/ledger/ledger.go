// Package ledger keeps the genesis ledger: an append-only chain of event
// blocks in which every block carries the blake2b hash of its predecessor.
//
// The ledger keeps a bounded window of recent blocks in memory and
// publishes every block to the event bus, where the data layer persists it.
// Appending never blocks the caller.
package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/blake2b"

	"github.com/eyeoverthink/phiworld/internal/bus"
	"github.com/eyeoverthink/phiworld/internal/wire"
)

// Block kinds.
const (
	KindGenesis        = "GENESIS"
	KindBirth          = "BIRTH"
	KindDeath          = "DEATH"
	KindEntanglement   = "ENTANGLEMENT"
	KindResonanceSpike = "RESONANCE_SPIKE"
	KindMutation       = "MUTATION"
	KindBrainDecision  = "BRAIN_DECISION"
	KindAdaptation     = "ADAPTATION"
	KindFragment       = "FRAGMENT"
	KindResurrection   = "RESURRECTION"
	KindCommand        = "COMMAND"
)

// DefaultWindow is the number of blocks kept in memory.
const DefaultWindow = 4096

const dataVersion = 1

// ErrBrokenChain is returned by Verify when a block's hash or link does not
// match.
var ErrBrokenChain = errors.New("ledger: broken chain")

// Block is one ledger entry.
type Block struct {
	Index     int64
	ID        string
	Timestamp time.Time
	Tick      int64
	Kind      string
	Node      string
	Data      string
	PrevHash  string
	Hash      string
}

// ComputeHash returns the hex blake2b-256 digest of the block's content and
// link.
func (b Block) ComputeHash() string {
	payload := strconv.FormatInt(b.Index, 10) + "|" +
		b.ID + "|" +
		strconv.FormatInt(b.Timestamp.UnixNano(), 10) + "|" +
		strconv.FormatInt(b.Tick, 10) + "|" +
		b.Kind + "|" + b.Node + "|" + b.Data + "|" + b.PrevHash
	sum := blake2b.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Event converts the block into a bus event.
func (b Block) Event() bus.Event {
	return bus.Event{
		ID:        b.ID,
		Timestamp: b.Timestamp,
		Type:      bus.EventBlock,
		Tick:      b.Tick,
		Index:     b.Index,
		Kind:      b.Kind,
		Node:      b.Node,
		Data:      b.Data,
		Hash:      b.Hash,
		PrevHash:  b.PrevHash,
	}
}

// BlockFromEvent is the inverse of Block.Event.
func BlockFromEvent(e bus.Event) Block {
	return Block{
		Index:     e.Index,
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Tick:      e.Tick,
		Kind:      e.Kind,
		Node:      e.Node,
		Data:      e.Data,
		PrevHash:  e.PrevHash,
		Hash:      e.Hash,
	}
}

// Ledger is the hash chain. Like the world it belongs to, it is driven from
// a single goroutine.
type Ledger struct {
	bus    *bus.Bus
	window int
	tick   func() int64
	now    func() time.Time

	blocks []Block
	head   string
	next   int64
	counts map[string]int64
	resume *Block
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithBus publishes every appended block to b.
func WithBus(b *bus.Bus) Option {
	return func(l *Ledger) { l.bus = b }
}

// WithWindow bounds the number of blocks held in memory.
func WithWindow(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.window = n
		}
	}
}

// WithTickSource stamps blocks with the current simulation tick.
func WithTickSource(tick func() int64) Option {
	return func(l *Ledger) { l.tick = tick }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithResume continues an existing chain after last instead of starting a
// new one with a genesis block. last is kept as the first in-memory block
// so Verify checks the first new link.
func WithResume(last Block) Option {
	return func(l *Ledger) { l.resume = &last }
}

// New returns a ledger holding only its genesis block, or the resumed
// chain's last block.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		window: DefaultWindow,
		tick:   func() int64 { return 0 },
		now:    func() time.Time { return time.Now().UTC() },
		counts: make(map[string]int64),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.resume != nil {
		l.blocks = append(l.blocks, *l.resume)
		l.head = l.resume.Hash
		l.next = l.resume.Index + 1
		return l
	}
	l.append(KindGenesis, "", wire.NewRecord(dataVersion).String("world", "phiworld").Encode())
	return l
}

func (l *Ledger) append(kind, nodeName, data string) Block {
	b := Block{
		Index:     l.next,
		ID:        uuid.NewString(),
		Timestamp: l.now(),
		Tick:      l.tick(),
		Kind:      kind,
		Node:      nodeName,
		Data:      data,
		PrevHash:  l.head,
	}
	b.Hash = b.ComputeHash()

	l.blocks = append(l.blocks, b)
	if len(l.blocks) > l.window {
		l.blocks = l.blocks[len(l.blocks)-l.window:]
	}
	l.head = b.Hash
	l.next++
	l.counts[kind]++

	if l.bus != nil {
		if err := l.bus.Publish(b.Event()); err != nil {
			log.Debug().Err(err).Str("kind", kind).Msg("ledger block not published")
		}
	}
	return b
}

// Record appends a free-form block.
func (l *Ledger) Record(kind, data string) {
	l.append(kind, "", data)
}

// RecordBirth appends a BIRTH block for child.
func (l *Ledger) RecordBirth(child, parent string, generation int) {
	l.append(KindBirth, child, wire.NewRecord(dataVersion).
		String("parent", parent).
		Int("gen", generation).
		Encode())
}

// RecordDeath appends a DEATH block.
func (l *Ledger) RecordDeath(name string, generation int, age int64) {
	l.append(KindDeath, name, wire.NewRecord(dataVersion).
		Int("gen", generation).
		Int64("age", age).
		Encode())
}

// RecordEntanglement appends an ENTANGLEMENT block for the pair.
func (l *Ledger) RecordEntanglement(a, b string, strength float64) {
	l.append(KindEntanglement, a, wire.NewRecord(dataVersion).
		String("with", b).
		Float("strength", strength).
		Encode())
}

// RecordResonanceSpike appends a RESONANCE_SPIKE block.
func (l *Ledger) RecordResonanceSpike(name string, resonance float64, oscillations int64) {
	l.append(KindResonanceSpike, name, wire.NewRecord(dataVersion).
		Float("res", resonance).
		Int64("osc", oscillations).
		Encode())
}

// RecordMutation appends a MUTATION block.
func (l *Ledger) RecordMutation(name, reason string) {
	l.append(KindMutation, name, wire.NewRecord(dataVersion).String("reason", reason).Encode())
}

// RecordBrainDecision appends a BRAIN_DECISION block.
func (l *Ledger) RecordBrainDecision(name, decision string, fitness float64) {
	l.append(KindBrainDecision, name, wire.NewRecord(dataVersion).
		String("decision", decision).
		Float("fit", fitness).
		Encode())
}

// Verify walks the in-memory window and checks every hash and link. The
// first block of a trimmed window is trusted for its PrevHash.
func (l *Ledger) Verify() error {
	for i, b := range l.blocks {
		if b.ComputeHash() != b.Hash {
			return fmt.Errorf("%w: block %d hash mismatch", ErrBrokenChain, b.Index)
		}
		if i == 0 {
			if b.Index == 0 && b.PrevHash != "" {
				return fmt.Errorf("%w: genesis has a predecessor", ErrBrokenChain)
			}
			continue
		}
		prev := l.blocks[i-1]
		if b.PrevHash != prev.Hash || b.Index != prev.Index+1 {
			return fmt.Errorf("%w: block %d does not follow %d", ErrBrokenChain, b.Index, prev.Index)
		}
	}
	return nil
}

// VerifyBlocks checks a contiguous, index-ordered run of blocks, such as one
// loaded from storage.
func VerifyBlocks(blocks []Block) error {
	for i, b := range blocks {
		if b.ComputeHash() != b.Hash {
			return fmt.Errorf("%w: block %d hash mismatch", ErrBrokenChain, b.Index)
		}
		if i > 0 && (b.PrevHash != blocks[i-1].Hash || b.Index != blocks[i-1].Index+1) {
			return fmt.Errorf("%w: block %d does not follow %d", ErrBrokenChain, b.Index, blocks[i-1].Index)
		}
	}
	return nil
}

// Len is the chain length, including blocks trimmed from memory and blocks
// of a resumed chain.
func (l *Ledger) Len() int64 { return l.next }

// Head returns the hash of the latest block.
func (l *Ledger) Head() string { return l.head }

// Count returns how many blocks of kind were appended.
func (l *Ledger) Count(kind string) int64 { return l.counts[kind] }

// Recent returns up to n of the latest blocks, oldest first.
func (l *Ledger) Recent(n int) []Block {
	if n <= 0 || n > len(l.blocks) {
		n = len(l.blocks)
	}
	out := make([]Block, n)
	copy(out, l.blocks[len(l.blocks)-n:])
	return out
}
