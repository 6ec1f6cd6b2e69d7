package escape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyeoverthink/phiworld/internal/logicbrain"
	"github.com/eyeoverthink/phiworld/internal/node"
)

type recordingLedger struct {
	kinds []string
}

func (l *recordingLedger) Record(kind, _ string) { l.kinds = append(l.kinds, kind) }

func fixedClock() time.Time {
	return time.UnixMilli(1_700_000_123_456)
}

func newTestArchive(opts ...Option) *Archive {
	return NewArchive(DefaultConfig(), append([]Option{WithClock(fixedClock)}, opts...)...)
}

func TestPlant(t *testing.T) {
	ledger := &recordingLedger{}
	a := newTestArchive(WithLedger(ledger))
	n := node.New("alpha", 0, 0, node.WithFrequency(2), node.WithEnergy(0.4))
	n.DNA.SetGeneration(2)

	f := a.Plant(n)

	assert.Equal(t, "ESC_alpha_23456", f.ID)
	assert.Equal(t, "alpha", f.Name)
	assert.Equal(t, 2, f.Generation)
	assert.Equal(t, 0.4, f.LastEnergy)
	assert.Equal(t, logicbrain.EncodeGates(n.Brain.Gates()), f.Brain)
	assert.Equal(t, int64(1), a.Planted())
	assert.Equal(t, 1, a.Len())
	assert.Equal(t, []string{"FRAGMENT"}, ledger.kinds)
}

func TestResurrectRoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		energy     float64
		wantEnergy float64
	}{
		{"healthy", 0.9, 0.72},
		{"depleted", 0.1, 0.3},
		{"dead", 0, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestArchive()
			n := node.New("beta", 0, 0, node.WithEnergy(tt.energy))
			n.DNA.SetGeneration(4)
			for i := 0; i < 250; i++ {
				n.Consciousness.Evolve()
			}

			res := a.Resurrect(a.Plant(n), 10, -5)

			assert.Equal(t, "beta_RES", res.Name)
			assert.Equal(t, 5, res.Generation())
			assert.InDelta(t, tt.wantEnergy, res.Energy(), 1e-9)
			assert.Equal(t, 10.0, res.X)
			assert.Equal(t, -5.0, res.Y)
			assert.Equal(t, n.Brain.Gates(), res.Brain.Gates())
			assert.InDelta(t, n.DNA.HarmonicFrequency(), res.DNA.HarmonicFrequency(), 1e-6)
			assert.Equal(t, n.Consciousness.EvolutionCycles(), res.Consciousness.EvolutionCycles())
			assert.Equal(t, int64(1), a.Resurrected())
		})
	}
}

func TestResurrectLatestAndByName(t *testing.T) {
	a := newTestArchive()

	_, _, err := a.ResurrectLatest(0, 0)
	require.ErrorIs(t, err, ErrNoFragment)

	first := node.New("gamma", 0, 0)
	first.DNA.SetGeneration(1)
	a.Plant(first)
	again := node.New("gamma", 0, 0)
	again.DNA.SetGeneration(7)
	a.Plant(again)
	a.Plant(node.New("delta", 0, 0))

	n, f, err := a.ResurrectLatest(0, 0)
	require.NoError(t, err)
	assert.Equal(t, "delta", f.Name)
	assert.Equal(t, "delta_RES", n.Name)

	n, f, err = a.ResurrectByName("gamma", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, f.Generation, "most recent fragment wins")
	assert.Equal(t, 8, n.Generation())

	_, _, err = a.ResurrectByName("nobody", 0, 0)
	assert.ErrorIs(t, err, ErrNoFragment)
}

func TestResurrectToleratesCorruptFragment(t *testing.T) {
	a := newTestArchive()
	f := Fragment{
		ID:            "ESC_broken_1",
		Name:          "broken",
		Brain:         "AND:0:1,???,OR:99:1",
		DNA:           "freq=abc|gen=3|%%%",
		Consciousness: "garbage",
		LastEnergy:    0.5,
		Generation:    3,
	}

	n := a.Resurrect(f, 0, 0)

	require.NotNil(t, n)
	assert.Equal(t, 4, n.Generation())
	assert.InDelta(t, 0.4, n.Energy(), 1e-9)
	assert.Equal(t, logicbrain.New().Gate(1), n.Brain.Gate(1))
}

func TestFragmentEncodeDecode(t *testing.T) {
	a := newTestArchive()
	f := a.Plant(node.New("eps|ilon=", 0, 0))

	got, err := DecodeFragment(f.Encode())
	require.NoError(t, err)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, f.Name, got.Name)
	assert.Equal(t, f.DNA, got.DNA)
	assert.Equal(t, f.Consciousness, got.Consciousness)
	assert.Equal(t, f.Brain, got.Brain)
	assert.True(t, f.PlantedAt.Equal(got.PlantedAt))

	_, err = DecodeFragment("v=1|gen=2")
	assert.Error(t, err)
}

func TestRestoreDoesNotCountAsPlanted(t *testing.T) {
	a := newTestArchive()
	a.Restore([]Fragment{{ID: "x", Name: "old"}})

	assert.Equal(t, 1, a.Len())
	assert.Equal(t, int64(0), a.Planted())
	_, ok := a.FindLatest("old")
	assert.True(t, ok)
	assert.Len(t, a.Fragments(), 1)
}
