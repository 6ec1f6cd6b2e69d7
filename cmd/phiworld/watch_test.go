package main

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestWatch(t *testing.T) watchModel {
	t.Helper()
	cfg = testConfig(t, false)
	cfg.World.TickRate = 60
	h, err := newHost(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(h.close)
	return newWatchModel(h)
}

func update(t *testing.T, m watchModel, msg tea.Msg) watchModel {
	t.Helper()
	next, _ := m.Update(msg)
	wm, ok := next.(watchModel)
	require.True(t, ok)
	return wm
}

func TestWatchFramesStepWorld(t *testing.T) {
	m := newTestWatch(t)

	// 60 ticks/s over a 50ms frame is three ticks.
	m = update(t, m, frameMsg(time.Now()))
	assert.Equal(t, int64(3), m.host.world.Tick())
	assert.Contains(t, m.View(), "Alpha")

	m = update(t, m, runes("p"))
	assert.True(t, m.paused)
	m = update(t, m, frameMsg(time.Now()))
	assert.Equal(t, int64(3), m.host.world.Tick())

	m = update(t, m, runes("."))
	assert.Equal(t, int64(4), m.host.world.Tick())
	assert.Contains(t, m.View(), "paused")
}

func TestWatchRateLimits(t *testing.T) {
	m := newTestWatch(t)

	for i := 0; i < 10; i++ {
		m = update(t, m, runes("+"))
	}
	assert.Equal(t, maxTickRate, m.rate)
	for i := 0; i < 20; i++ {
		m = update(t, m, runes("-"))
	}
	assert.Equal(t, minTickRate, m.rate)
}

func TestWatchCommandInput(t *testing.T) {
	m := newTestWatch(t)

	m = update(t, m, runes("/"))
	require.True(t, m.input.Focused())

	// Keys go to the input while it is focused, q included.
	for _, r := range "spawn Quux" {
		m = update(t, m, runes(string(r)))
	}
	assert.Equal(t, "spawn Quux", m.input.Value())

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.input.Focused())
	assert.Contains(t, m.output, "spawned Quux")
	_, ok := m.host.world.Find("Quux")
	assert.True(t, ok)

	m = update(t, m, runes("/"))
	m = update(t, m, runes("x"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.input.Focused())
	assert.Empty(t, m.input.Value())
}
