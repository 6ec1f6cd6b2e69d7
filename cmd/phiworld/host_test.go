package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyeoverthink/phiworld/internal/config"
	"github.com/eyeoverthink/phiworld/internal/data"
	"github.com/eyeoverthink/phiworld/internal/logging"
	"github.com/eyeoverthink/phiworld/internal/metrics"
)

func testConfig(t *testing.T, storage bool) *config.Config {
	t.Helper()
	c := config.Default()
	c.Storage.Enabled = storage
	c.Storage.DataDir = filepath.Join(t.TempDir(), "data")
	c.Logging.File = ""
	c.Metrics.SampleEvery = 10
	require.NoError(t, c.Validate())
	return c
}

func TestHostFounders(t *testing.T) {
	c := testConfig(t, false)
	h, err := newHost(context.Background(), c, logging.NewSink(16))
	require.NoError(t, err)
	defer h.close()

	assert.Equal(t, c.World.InitialNodes, h.world.Population())
	assert.Empty(t, h.world.Nodes())

	h.step()
	require.Len(t, h.world.Nodes(), c.World.InitialNodes)
	for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta", "Theta"} {
		_, ok := h.world.Find(name)
		assert.True(t, ok, name)
	}

	beta, _ := h.world.Find("Beta")
	assert.NotEqual(t, 30.0, beta.X)
}

func TestHostIsDeterministic(t *testing.T) {
	run := func() []float64 {
		h, err := newHost(context.Background(), testConfig(t, false), nil)
		require.NoError(t, err)
		defer h.close()
		for i := 0; i < 300; i++ {
			h.step()
		}
		var xs []float64
		for _, name := range []string{"Alpha", "Zeta", "Theta"} {
			if n, ok := h.world.Find(name); ok {
				xs = append(xs, n.X, n.Y, n.Energy())
			}
		}
		return xs
	}
	assert.Equal(t, run(), run())
}

func TestHostPersistsAcrossRuns(t *testing.T) {
	c := testConfig(t, true)
	ctx := context.Background()

	h, err := newHost(ctx, c, nil)
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		h.step()
	}
	_, err = h.console.Execute("kill Alpha")
	require.NoError(t, err)
	h.step()
	require.Equal(t, 1, h.archive.Len())
	runID := h.runID
	h.close()

	h2, err := newHost(ctx, c, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, h2.archive.Len())
	assert.Zero(t, h2.archive.Planted())

	out, err := h2.console.Execute("fragment resurrect Alpha")
	require.NoError(t, err)
	assert.Contains(t, out, "Alpha_RES")
	h2.step()
	h2.close()

	store, err := data.Open(c.Storage.DataDir, c.Storage.Driver)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.VerifyChain(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)

	frags, err := store.FragmentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), frags)

	samples, err := metrics.NewStore(store.DB())
	require.NoError(t, err)
	sum, err := samples.Summary(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sum.Samples)
}
