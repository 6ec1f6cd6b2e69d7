package adaptive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/logicbrain"
)

func runTrial(c *Controller, du cognition.DecisionUnit, energy float64) cognition.TrialResult {
	result := cognition.TrialNone
	for i := 0; i < TrialLength; i++ {
		c.RecordFitnessSample(energy, false, 0, false)
		result = c.TickTrial(du)
	}
	return result
}

func TestFitness(t *testing.T) {
	assert.InDelta(t, 0.6, Fitness(1, false, 0, false), 1e-9)
	assert.InDelta(t, 0.6+0.2+0.2+0.1, Fitness(1, true, 9, true), 1e-9)
}

func TestBaselineEMA(t *testing.T) {
	c := New(0, 1)
	c.RecordFitnessSample(1, false, 0, false)
	assert.InDelta(t, 0.6, c.CurrentBaseline().Fitness, 1e-9)

	c.RecordFitnessSample(0, false, 0, false)
	assert.InDelta(t, 0.54, c.CurrentBaseline().Fitness, 1e-9)
	assert.Equal(t, int64(2), c.CurrentBaseline().Samples)
	assert.Equal(t, 0.0, c.CurrentFitness())
}

func TestBeginTrialTwice(t *testing.T) {
	c := New(0, 1)
	du := logicbrain.New()

	require.NoError(t, c.BeginTrial(du))
	assert.True(t, c.IsInTrial())
	assert.ErrorIs(t, c.BeginTrial(du), ErrTrialActive)
}

func TestTrialAdopted(t *testing.T) {
	c := New(0, 1)
	du := logicbrain.New()
	c.RecordFitnessSample(0.5, false, 0, false)

	require.NoError(t, c.BeginTrial(du))
	mutated := du.Gates()

	assert.Equal(t, cognition.TrialAdopted, runTrial(c, du, 1.0))
	assert.False(t, c.IsInTrial())
	assert.Equal(t, mutated, du.Gates())
	assert.Equal(t, mutated, c.BestGates())
	assert.InDelta(t, 0.6, c.CurrentBaseline().Fitness, 1e-9)
	assert.Equal(t, 1, c.Adoptions())
}

func TestTrialReverted(t *testing.T) {
	c := New(0, 2)
	du := logicbrain.New()
	original := du.Gates()
	c.RecordFitnessSample(1.0, true, 5, true)

	require.NoError(t, c.BeginTrial(du))

	assert.Equal(t, cognition.TrialReverted, runTrial(c, du, 0.1))
	assert.Equal(t, original, du.Gates())
	assert.Nil(t, c.BestGates())
	assert.Equal(t, 1, c.Reverts())
}

func TestTickTrialIdle(t *testing.T) {
	c := New(0, 1)
	assert.Equal(t, cognition.TrialNone, c.TickTrial(logicbrain.New()))
}

func TestStrategiesRoundTrip(t *testing.T) {
	c := New(2, 1)
	du := logicbrain.New()
	c.RecordFitnessSample(0.2, false, 0, false)
	require.NoError(t, c.BeginTrial(du))
	runTrial(c, du, 0.9)
	c.CurrentBaseline().Reproductions = 3

	d := New(3, 1)
	d.DecodeStrategies(c.EncodeStrategies())

	assert.InDelta(t, c.CurrentBaseline().Fitness, d.CurrentBaseline().Fitness, 1e-6)
	assert.Equal(t, 3, d.CurrentBaseline().Reproductions)
	assert.Equal(t, c.BestGates(), d.BestGates())
	assert.Equal(t, 1, d.Trials())
}

func TestDecodeStrategiesForgiving(t *testing.T) {
	c := New(0, 1)
	c.DecodeStrategies("v=1|fit=abc|gates=AND:0:1,NOPE|adopt=4")

	assert.Equal(t, 0.0, c.CurrentBaseline().Fitness)
	assert.Nil(t, c.BestGates())
	assert.Equal(t, 4, c.Adoptions())
}

func TestInheritStrategies(t *testing.T) {
	parent := New(0, 1)
	parent.DecodeStrategies("v=1|fit=0.8|gates=" + logicbrain.EncodeGates(logicbrain.New().Gates()))

	t.Run("fresh child takes parent baseline", func(t *testing.T) {
		child := New(1, 1)
		child.InheritStrategies(parent)
		assert.InDelta(t, 0.8, child.CurrentBaseline().Fitness, 1e-6)
		assert.Len(t, child.BestGates(), cognition.OutputCount)
	})

	t.Run("seasoned child averages", func(t *testing.T) {
		child := New(1, 1)
		child.RecordFitnessSample(1, false, 0, false)
		child.InheritStrategies(parent)
		assert.InDelta(t, 0.7, child.CurrentBaseline().Fitness, 1e-6)
	})

	t.Run("nil partner", func(t *testing.T) {
		child := New(1, 1)
		child.InheritStrategies(nil)
		assert.Equal(t, 0.0, child.CurrentBaseline().Fitness)
	})
}
