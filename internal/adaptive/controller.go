// Package adaptive implements the per-agent trial controller: a three-state
// machine that mutates a decision unit, evaluates the mutation for a fixed
// number of ticks against a running fitness baseline, and then keeps or
// discards it.
//
//	stable ──BeginTrial──▶ trialing ──TickTrial×N──▶ adopted | reverted ──▶ stable
package adaptive

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/logicbrain"
	"github.com/eyeoverthink/phiworld/internal/wire"
)

// ErrTrialActive is returned by BeginTrial while a trial is running.
var ErrTrialActive = errors.New("adaptive: trial already active")

const (
	// TrialLength is the number of evaluation ticks in one trial.
	TrialLength = 10

	// BaselineAlpha is the EMA weight of a new stable-phase sample.
	BaselineAlpha = 0.1

	encodingVersion = 1
)

// Controller is the concrete trial controller.
type Controller struct {
	generation int
	rng        *rand.Rand

	baseline   cognition.Baseline
	lastSample float64

	inTrial      bool
	trialTicks   int
	trialSum     float64
	trialSamples int
	saved        []cognition.Gate

	bestGates []cognition.Gate
	adoptions int
	reverts   int
	trials    int
}

var _ cognition.TrialController = (*Controller)(nil)

// New returns a stable controller for an agent of the given generation.
func New(generation int, seed int64) *Controller {
	return &Controller{
		generation: generation,
		rng:        rand.New(rand.NewSource(seed + int64(generation))),
	}
}

func (c *Controller) IsInTrial() bool { return c.inTrial }

// BeginTrial snapshots du's wiring and mutates it in place.
func (c *Controller) BeginTrial(du cognition.DecisionUnit) error {
	if c.inTrial {
		return ErrTrialActive
	}
	c.saved = du.Gates()
	du.Mutate(c.rng)
	c.inTrial = true
	c.trialTicks = 0
	c.trialSum = 0
	c.trialSamples = 0
	c.trials++
	return nil
}

// Fitness scores one observation.
func Fitness(energy float64, spikeActive bool, entangledNeighbors int, flag bool) float64 {
	f := 0.6 * energy
	if spikeActive {
		f += 0.2
	}
	f += 0.04 * math.Min(float64(entangledNeighbors), 5)
	if flag {
		f += 0.1
	}
	return f
}

// RecordFitnessSample feeds the trial mean while trialing and the baseline
// EMA otherwise.
func (c *Controller) RecordFitnessSample(energy float64, spikeActive bool, entangledNeighbors int, flag bool) {
	s := Fitness(energy, spikeActive, entangledNeighbors, flag)
	c.lastSample = s

	if c.inTrial {
		c.trialSum += s
		c.trialSamples++
		return
	}
	if c.baseline.Samples == 0 {
		c.baseline.Fitness = s
	} else {
		c.baseline.Fitness = (1-BaselineAlpha)*c.baseline.Fitness + BaselineAlpha*s
	}
	c.baseline.Samples++
}

// TickTrial advances an active trial. After TrialLength ticks the mutation is
// adopted when the trial mean reaches the baseline, otherwise du's saved
// wiring is restored.
func (c *Controller) TickTrial(du cognition.DecisionUnit) cognition.TrialResult {
	if !c.inTrial {
		return cognition.TrialNone
	}
	c.trialTicks++
	if c.trialTicks < TrialLength {
		return cognition.TrialNone
	}

	c.inTrial = false
	if c.trialSamples > 0 {
		mean := c.trialSum / float64(c.trialSamples)
		if mean >= c.baseline.Fitness {
			c.baseline.Fitness = mean
			c.adoptions++
			c.bestGates = du.Gates()
			c.saved = nil
			return cognition.TrialAdopted
		}
	}

	du.SetGates(c.saved)
	c.saved = nil
	c.reverts++
	return cognition.TrialReverted
}

func (c *Controller) CurrentFitness() float64 { return c.lastSample }

func (c *Controller) CurrentBaseline() *cognition.Baseline { return &c.baseline }

func (c *Controller) Generation() int { return c.generation }
func (c *Controller) Adoptions() int  { return c.adoptions }
func (c *Controller) Reverts() int    { return c.reverts }
func (c *Controller) Trials() int     { return c.trials }

// BestGates returns the wiring of the last adopted mutation, or nil.
func (c *Controller) BestGates() []cognition.Gate {
	if c.bestGates == nil {
		return nil
	}
	out := make([]cognition.Gate, len(c.bestGates))
	copy(out, c.bestGates)
	return out
}

// EncodeStrategies serializes the learned strategy state.
func (c *Controller) EncodeStrategies() string {
	return wire.NewRecord(encodingVersion).
		Float("fit", c.baseline.Fitness).
		Int("adopt", c.adoptions).
		Int("revert", c.reverts).
		Int("repro", c.baseline.Reproductions).
		Int("trials", c.trials).
		String("gates", logicbrain.EncodeGates(c.bestGates)).
		Encode()
}

// DecodeStrategies restores strategy state. Malformed fields are ignored and
// a gate list is only taken when every token parses.
func (c *Controller) DecodeStrategies(s string) {
	if s == "" {
		return
	}
	f := wire.Decode(s)
	c.baseline.Fitness = f.Float("fit", c.baseline.Fitness)
	if f.Has("fit") && c.baseline.Samples == 0 {
		c.baseline.Samples = 1
	}
	c.adoptions = f.Int("adopt", c.adoptions)
	c.reverts = f.Int("revert", c.reverts)
	c.baseline.Reproductions = f.Int("repro", c.baseline.Reproductions)
	c.trials = f.Int("trials", c.trials)
	if gates, ok := logicbrain.ParseGates(f.String("gates", "")); len(gates) == cognition.OutputCount && allTrue(ok) {
		c.bestGates = gates
	}
}

// InheritStrategies averages the baseline fitness with other's and keeps the
// best wiring of whichever controller is fitter.
func (c *Controller) InheritStrategies(other cognition.TrialController) {
	if other == nil {
		return
	}
	var o Controller
	o.DecodeStrategies(other.EncodeStrategies())

	if o.baseline.Fitness > c.baseline.Fitness && o.bestGates != nil {
		c.bestGates = o.bestGates
	} else if c.bestGates == nil {
		c.bestGates = o.bestGates
	}
	if c.baseline.Samples == 0 {
		c.baseline.Fitness = o.baseline.Fitness
		c.baseline.Samples = o.baseline.Samples
	} else {
		c.baseline.Fitness = (c.baseline.Fitness + o.baseline.Fitness) / 2
	}
}

func allTrue(ok []bool) bool {
	for _, v := range ok {
		if !v {
			return false
		}
	}
	return true
}

func (c *Controller) String() string {
	state := "stable"
	if c.inTrial {
		state = fmt.Sprintf("trialing %d/%d", c.trialTicks, TrialLength)
	}
	return fmt.Sprintf("Adaptive[%s baseline=%.3f adopted=%d reverted=%d]",
		state, c.baseline.Fitness, c.adoptions, c.reverts)
}
