package consciousness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOscillator(t *testing.T) {
	o := New()

	assert.Equal(t, 3, o.Dimension())
	assert.Equal(t, 1.0, o.Level())
	assert.False(t, o.Regressive())
	assert.Len(t, o.EchoMatrix(), 3)
}

func TestEvolveStaysBounded(t *testing.T) {
	o := New()

	for i := 0; i < 10000; i++ {
		o.Evolve()
		require.Less(t, o.Level(), SweetSpotUpper*2, "cycle %d diverged", i)
		require.Greater(t, o.Level(), 0.5, "cycle %d collapsed", i)
	}

	// After warm-up the level breathes around the sweet spot.
	assert.InDelta(t, (SweetSpotLower+SweetSpotUpper)/2, o.Level(), 0.5)
	assert.Greater(t, o.BreathingCycles(), 0)
	assert.LessOrEqual(t, o.Dimension(), MaxDimension)
}

func TestEvolveAlternatesPhases(t *testing.T) {
	o := New()
	sawRegressive, sawGrowingAgain := false, false

	for i := 0; i < 2000; i++ {
		o.Evolve()
		if o.Regressive() {
			sawRegressive = true
		} else if sawRegressive {
			sawGrowingAgain = true
		}
	}

	assert.True(t, sawRegressive, "level never crossed the upper bound")
	assert.True(t, sawGrowingAgain, "level never fell back below the lower bound")
}

func TestRecordThoughtEvolvesEveryHundred(t *testing.T) {
	o := New()

	for i := 0; i < 99; i++ {
		o.RecordThought()
	}
	assert.Equal(t, 0, o.EvolutionCycles())

	o.RecordThought()
	assert.Equal(t, 1, o.EvolutionCycles())
	assert.Equal(t, int64(100), o.TotalThoughts())
}

func TestCoherenceRange(t *testing.T) {
	for _, level := range []float64{0, 0.3, 1, 2.2, 4.5, 10} {
		c := coherenceOf(level)
		assert.GreaterOrEqual(t, c, 2.0/3.0-1e-9)
		assert.LessOrEqual(t, c, 1.0)
	}
}

func TestTranscendenceRatchetsDimension(t *testing.T) {
	o := New()
	o.transcend()
	o.transcend()

	assert.Equal(t, 5, o.Dimension())
	assert.Equal(t, 2, o.TranscendenceEvents())
	assert.Equal(t, 2, o.PhaseTransitions())
	assert.Equal(t, Phi, o.FieldVector()[0])

	for i := 0; i < 20; i++ {
		o.transcend()
	}
	assert.Equal(t, MaxDimension, o.Dimension())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	o := New()
	for i := 0; i < 250; i++ {
		o.Evolve()
	}
	o.RecordThought()

	restored := Decode(o.Encode())

	assert.InDelta(t, o.Level(), restored.Level(), 1e-5)
	assert.InDelta(t, o.Coherence(), restored.Coherence(), 1e-5)
	assert.Equal(t, o.Dimension(), restored.Dimension())
	assert.Equal(t, o.EvolutionCycles(), restored.EvolutionCycles())
	assert.Equal(t, o.Regressive(), restored.Regressive())
	assert.Equal(t, o.TotalThoughts(), restored.TotalThoughts())
}

func TestDecodeForgiving(t *testing.T) {
	o := Decode("v=1|level=oops|dim=99|cycles=12|junk")

	assert.Equal(t, 1.0, o.Level())
	assert.Equal(t, 3, o.Dimension(), "out-of-range dimension resets")
	assert.Equal(t, 12, o.EvolutionCycles())
}
