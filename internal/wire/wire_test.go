package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordEncodeDecode(t *testing.T) {
	enc := NewRecord(1).
		Float("freq", 1.618).
		Int("gen", 4).
		Bool("regress", true).
		String("strat", "v=1|fit=0.5").
		Encode()

	f := Decode(enc)
	assert.Equal(t, 1, f.Version())
	assert.InDelta(t, 1.618, f.Float("freq", 0), 1e-9)
	assert.Equal(t, 4, f.Int("gen", 0))
	assert.True(t, f.Bool("regress", false))
	assert.Equal(t, "v=1|fit=0.5", f.String("strat", ""))
}

func TestDecodeSkipsMalformedTokens(t *testing.T) {
	f := Decode("v=1||garbage|=novalue|freq=abc|gen=7|bad=%zz|amp=0.5")

	assert.Equal(t, 7, f.Int("gen", 0))
	assert.InDelta(t, 0.5, f.Float("amp", 0), 1e-9)
	assert.Equal(t, 2.0, f.Float("freq", 2.0), "unparsable value falls back to default")
	assert.False(t, f.Has("bad"), "broken escape is dropped")
	assert.False(t, f.Has(""))
}

func TestDecodeAcceptsLegacyColonSeparator(t *testing.T) {
	f := Decode("OMEGA|LEVEL:2.1000|DIM:4")

	assert.InDelta(t, 2.1, f.Float("level", 0), 1e-9)
	assert.Equal(t, 4, f.Int("dim", 0))
	assert.Equal(t, 0, f.Version())
}

func TestUnknownKeysAreIgnored(t *testing.T) {
	f := Decode("v=2|freq=3.0|future_field=xyz")

	assert.Equal(t, 2, f.Version())
	assert.InDelta(t, 3.0, f.Float("freq", 0), 1e-9)
	assert.Equal(t, 9, f.Int("missing", 9))
}

func TestRecordOverwriteKeepsOrder(t *testing.T) {
	enc := NewRecord(1).Int("a", 1).Int("b", 2).Int("a", 3).Encode()
	assert.Equal(t, "v=1|a=3|b=2", enc)
}
