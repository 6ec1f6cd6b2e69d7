package genome

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvolveStaysInBounds(t *testing.T) {
	d := New(11.9, 7)
	for i := 0; i < 5000; i++ {
		d.Evolve()
		require.GreaterOrEqual(t, d.HarmonicFrequency(), MinFrequency)
		require.LessOrEqual(t, d.HarmonicFrequency(), MaxFrequency)
		require.GreaterOrEqual(t, d.Amplitude(), MinAmplitude)
		require.LessOrEqual(t, d.Amplitude(), MaxAmplitude)
	}
	assert.Equal(t, int64(5000), d.Evolutions())
}

func TestEvolveDeterministicPerSeed(t *testing.T) {
	a, b := New(2, 42), New(2, 42)
	for i := 0; i < 100; i++ {
		a.Evolve()
		b.Evolve()
	}
	assert.Equal(t, a.HarmonicFrequency(), b.HarmonicFrequency())
	assert.Equal(t, a.Amplitude(), b.Amplitude())
}

func TestCopyIsIndependent(t *testing.T) {
	d := New(3, 1)
	d.SetGeneration(4)
	d.SetInheritedStrategies("v=1|fit=0.5")

	c := d.Copy().(*DNA)
	c.SetGeneration(5)
	c.Evolve()

	assert.Equal(t, 4, d.Generation())
	assert.Equal(t, 3.0, d.HarmonicFrequency())
	assert.Equal(t, "v=1|fit=0.5", c.InheritedStrategies())
}

func TestCrossover(t *testing.T) {
	a := New(2, 1)
	b := New(4, 2)
	b.SetGeneration(6)

	c := a.Crossover(b)

	assert.InDelta(t, 3.0, c.HarmonicFrequency(), 1e-9)
	assert.Equal(t, 6, c.Generation())
	assert.Equal(t, 2.0, a.HarmonicFrequency(), "parent untouched")
}

func TestPulseRange(t *testing.T) {
	d := New(5, 3)
	d.amplitude = MaxAmplitude
	for ts := 0.0; ts < 10; ts += 0.01 {
		p := d.Pulse(ts)
		require.GreaterOrEqual(t, p, 0.8-1e-9)
		require.LessOrEqual(t, p, 1.2+1e-9)
	}
}

func TestEncodeDecode(t *testing.T) {
	d := Random(rand.New(rand.NewSource(9)))
	d.SetGeneration(3)
	d.SetInheritedStrategies("v=1|fit=0.700000|gates=AND:0:1")

	got := Decode(d.Encode(), 1)

	assert.InDelta(t, d.HarmonicFrequency(), got.HarmonicFrequency(), 1e-6)
	assert.InDelta(t, d.Amplitude(), got.Amplitude(), 1e-6)
	assert.Equal(t, 3, got.Generation())
	assert.Equal(t, d.InheritedStrategies(), got.InheritedStrategies())
}

func TestDecodeForgiving(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		d := Decode("not a record", 1)
		assert.Equal(t, 1.0, d.HarmonicFrequency())
		assert.Equal(t, 0, d.Generation())
	})

	t.Run("legacy colon form", func(t *testing.T) {
		d := Decode("FREQ:2.5|GEN:7|AMP:xx", 1)
		assert.Equal(t, 2.5, d.HarmonicFrequency())
		assert.Equal(t, 7, d.Generation())
		assert.Equal(t, DefaultAmplitude, d.Amplitude())
	})

	t.Run("clamps", func(t *testing.T) {
		d := Decode("v=1|freq=400|gen=-2", 1)
		assert.Equal(t, MaxFrequency, d.HarmonicFrequency())
		assert.Equal(t, 0, d.Generation())
	})
}
