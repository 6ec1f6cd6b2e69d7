package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyeoverthink/phiworld/internal/bus"
	"github.com/eyeoverthink/phiworld/internal/wire"
)

func TestGenesis(t *testing.T) {
	l := New()

	require.Equal(t, int64(1), l.Len())
	g := l.Recent(1)[0]
	assert.Equal(t, KindGenesis, g.Kind)
	assert.Equal(t, int64(0), g.Index)
	assert.Empty(t, g.PrevHash)
	assert.Equal(t, g.Hash, l.Head())
	assert.NoError(t, l.Verify())
}

func TestChainLinks(t *testing.T) {
	var tick int64 = 7
	l := New(WithTickSource(func() int64 { return tick }))

	l.RecordBirth("a-1", "a", 1)
	l.RecordEntanglement("a", "b", 0.25)
	l.RecordDeath("a-1", 1, 300)

	blocks := l.Recent(0)
	require.Len(t, blocks, 4)
	for i := 1; i < len(blocks); i++ {
		assert.Equal(t, blocks[i-1].Hash, blocks[i].PrevHash)
		assert.Equal(t, int64(i), blocks[i].Index)
		assert.Equal(t, int64(7), blocks[i].Tick)
	}

	birth := wire.Decode(blocks[1].Data)
	assert.Equal(t, "a-1", blocks[1].Node)
	assert.Equal(t, "a", birth.String("parent", ""))
	assert.Equal(t, 1, birth.Int("gen", 0))
	assert.Equal(t, int64(1), l.Count(KindDeath))
	assert.NoError(t, l.Verify())
	assert.NoError(t, VerifyBlocks(blocks))
}

func TestVerifyDetectsTampering(t *testing.T) {
	l := New()
	l.RecordMutation("n", "spike-trial-started")
	l.RecordBrainDecision("n", "SEEK", 0.5)

	l.blocks[1].Data = "v=1|reason=forged"
	assert.ErrorIs(t, l.Verify(), ErrBrokenChain)

	blocks := New().Recent(0)
	blocks = append(blocks, blocks[0])
	assert.ErrorIs(t, VerifyBlocks(blocks), ErrBrokenChain)
}

func TestWindowTrimsButVerifies(t *testing.T) {
	l := New(WithWindow(3))
	for i := 0; i < 10; i++ {
		l.RecordResonanceSpike("s", 0.99, int64(i))
	}

	assert.Equal(t, int64(11), l.Len())
	assert.Len(t, l.Recent(0), 3)
	assert.Equal(t, int64(10), l.Recent(1)[0].Index)
	assert.NoError(t, l.Verify())
}

func TestResume(t *testing.T) {
	first := New()
	first.RecordBirth("a", "", 0)
	last := first.Recent(1)[0]

	l := New(WithResume(last))
	assert.Equal(t, int64(2), l.Len())
	assert.Equal(t, last.Hash, l.Head())
	assert.Zero(t, l.Count(KindGenesis))

	l.RecordDeath("a", 0, 5)
	next := l.Recent(1)[0]
	assert.Equal(t, int64(2), next.Index)
	assert.Equal(t, last.Hash, next.PrevHash)
	assert.NoError(t, l.Verify())
}

func TestPublishesBlocks(t *testing.T) {
	b := bus.NewBus()
	defer b.Close()
	got := make(chan bus.Event, 4)
	b.Subscribe(bus.EventBlock, func(e bus.Event) { got <- e })

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	l := New(WithBus(b), WithClock(func() time.Time { return fixed }))
	l.Record(KindFragment, "v=1|name=x")

	var last bus.Event
	for i := 0; i < 2; i++ {
		select {
		case last = <-got:
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for block")
		}
	}
	assert.Equal(t, KindFragment, last.Kind)

	block := BlockFromEvent(last)
	assert.Equal(t, l.Head(), block.Hash)
	assert.Equal(t, block.Hash, block.ComputeHash())
}
