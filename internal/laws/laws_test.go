package laws

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyeoverthink/phiworld/internal/cognition"
	"github.com/eyeoverthink/phiworld/internal/logicbrain"
	"github.com/eyeoverthink/phiworld/internal/node"
)

const dt = 1.0 / 60

// stubWorld is a fixed population for driving laws directly.
type stubWorld struct {
	nodes []*node.Node
	added []*node.Node
	tick  int64
}

func (w *stubWorld) Nodes() []*node.Node { return w.nodes }
func (w *stubWorld) Population() int     { return len(w.nodes) + len(w.added) }
func (w *stubWorld) Tick() int64         { return w.tick }

func (w *stubWorld) Find(name string) (*node.Node, bool) {
	for _, n := range append(append([]*node.Node(nil), w.nodes...), w.added...) {
		if n.Name == name {
			return n, true
		}
	}
	return nil, false
}

func (w *stubWorld) AddNode(n *node.Node) error {
	w.added = append(w.added, n)
	return nil
}

type recorder struct {
	kinds     []string
	births    []string
	entangled int
	spikes    int
	mutations []string
	decisions []string
}

func (r *recorder) Record(kind, _ string) { r.kinds = append(r.kinds, kind) }
func (r *recorder) RecordBirth(child, _ string, _ int) {
	r.births = append(r.births, child)
}
func (r *recorder) RecordEntanglement(string, string, float64)  { r.entangled++ }
func (r *recorder) RecordResonanceSpike(string, float64, int64) { r.spikes++ }
func (r *recorder) RecordMutation(name, _ string)               { r.mutations = append(r.mutations, name) }
func (r *recorder) RecordBrainDecision(name, _ string, _ float64) {
	r.decisions = append(r.decisions, name)
}

func TestInertiaAndHarmonic(t *testing.T) {
	n := node.New("n", 1, 2, node.WithFrequency(2))
	n.VX, n.VY, n.VZ = 3, -1, 0.5
	n.Phase = 2*math.Pi - 0.1

	Inertia{}.Apply(n, 0.5)
	HarmonicResonance{}.Apply(n, 0.5)

	assert.Equal(t, 2.5, n.X)
	assert.Equal(t, 1.5, n.Y)
	assert.Equal(t, 0.25, n.Z)
	assert.InDelta(t, 0.9, n.Phase, 1e-9)
}

func TestPhaseHelpers(t *testing.T) {
	assert.InDelta(t, 0.5, WrapPhase(2*math.Pi+0.5), 1e-12)
	assert.InDelta(t, 2*math.Pi-0.5, WrapPhase(-0.5), 1e-12)
	assert.InDelta(t, -0.2, PhaseDifference(0.1, 0.3), 1e-12)
	assert.InDelta(t, 0.2, PhaseDifference(0.1, 2*math.Pi-0.1), 1e-12)
}

func TestEntanglementConverges(t *testing.T) {
	a := node.New("a", 0, 0, node.WithFrequency(1.0), node.WithEnergy(0.5))
	b := node.New("b", 0, 0, node.WithFrequency(1.2), node.WithEnergy(0.5))
	a.Phase, b.Phase = 0, math.Pi
	law := NewEntanglement(nil)

	prev := math.Abs(PhaseDifference(a.Phase, b.Phase))
	for i := 0; i < 200; i++ {
		law.ApplyPair(a, b, dt)
		gap := math.Abs(PhaseDifference(a.Phase, b.Phase))
		require.Less(t, gap, prev+1e-12, "step %d", i)
		prev = gap
	}
	assert.Less(t, prev, 0.01)
	assert.Greater(t, a.Energy(), 0.5)
	assert.Equal(t, a.Energy(), b.Energy())
	assert.Equal(t, int64(200), law.Applications())
}

func TestEntanglementIgnoresDistantFrequencies(t *testing.T) {
	a := node.New("a", 0, 0, node.WithFrequency(1.0), node.WithEnergy(0.5))
	b := node.New("b", 0, 0, node.WithFrequency(2.0), node.WithEnergy(0.5))
	a.Phase, b.Phase = 0, 1

	NewEntanglement(nil).ApplyPair(a, b, dt)

	assert.Equal(t, 0.0, a.Phase)
	assert.Equal(t, 0.5, b.Energy())
}

func TestEntanglementSamplesLedger(t *testing.T) {
	rec := &recorder{}
	law := NewEntanglement(rec)
	a := node.New("a", 0, 0, node.WithFrequency(1.0))
	b := node.New("b", 0, 0, node.WithFrequency(1.0))

	for i := 0; i < 2*entanglementSample; i++ {
		law.ApplyPair(a, b, dt)
	}
	assert.Equal(t, 2, rec.entangled)
}

func TestResonanceSpike(t *testing.T) {
	rec := &recorder{}
	law := NewResonanceSpike(rec)
	n := node.New("s", 0, 0, node.WithFrequency(1.0), node.WithEnergy(0.5))

	boosted := false
	sampled := 0
	for i := 0; i < 600; i++ {
		before := n.Energy()
		cycles := n.Consciousness.EvolutionCycles()
		n.Clock.Tick(dt)
		law.Apply(n, dt)
		if n.Clock.IsSpikeActive() {
			boosted = true
			if n.Clock.SpikeCount()%spikeSample == 1 {
				sampled++
			}
			require.Greater(t, n.Energy(), before)
			require.Equal(t, cycles+1, n.Consciousness.EvolutionCycles())
		} else {
			require.Equal(t, before, n.Energy())
		}
	}
	assert.True(t, boosted)
	assert.Greater(t, rec.spikes, 0)
	assert.Equal(t, sampled, rec.spikes)
}

func TestResonanceSpikeSamplesPerNode(t *testing.T) {
	rec := &recorder{}
	law := NewResonanceSpike(rec)
	a := node.New("a", 0, 0, node.WithFrequency(1.0), node.WithEnergy(0.5))
	b := node.New("b", 0, 0, node.WithFrequency(1.0), node.WithEnergy(0.5))

	// Both clocks are on their first spike, so both are sampled even though
	// the law has seen more than one spiking node.
	for !a.Clock.IsSpikeActive() {
		a.Clock.Tick(dt)
		b.Clock.Tick(dt)
	}
	require.True(t, b.Clock.IsSpikeActive())
	require.Equal(t, int64(1), a.Clock.SpikeCount())

	law.Apply(a, dt)
	law.Apply(b, dt)
	assert.Equal(t, 2, rec.spikes)
}

func TestBrainSeeksNearest(t *testing.T) {
	seekOnly := "NAND:0:0,AND:0:0,AND:0:0,AND:0:0,AND:0:0,AND:0:0,AND:0:0,AND:0:0"
	seeker := node.New("seeker", 0, 0, node.WithBrain(logicbrain.Decode(seekOnly)))
	target := node.New("target", 30, 0)
	far := node.New("far", -200, 0)
	w := &stubWorld{nodes: []*node.Node{seeker, target, far}, tick: 6}

	law := NewBrain(w, DefaultBrainConfig(), nil, nil)
	law.Apply(seeker, 1)

	assert.Equal(t, cognition.Intents(0).With(cognition.IntentSeek), seeker.LastIntents)
	assert.InDelta(t, seekAccel, seeker.VX, 1e-9)
	assert.InDelta(t, 0, seeker.VY, 1e-9)
	decisions, _, _ := law.Stats()
	assert.Equal(t, int64(1), decisions)
}

func TestBrainClampsSpeed(t *testing.T) {
	n := node.New("fast", 0, 0)
	n.VX, n.VY = 100, -100
	w := &stubWorld{nodes: []*node.Node{n}, tick: 6}

	NewBrain(w, DefaultBrainConfig(), nil, nil).Apply(n, dt)

	assert.LessOrEqual(t, math.Abs(n.VX), 15.0)
	assert.LessOrEqual(t, math.Abs(n.VY), 15.0)
}

func TestBrainSensors(t *testing.T) {
	n := node.New("n", 0, 0, node.WithFrequency(1.0), node.WithEnergy(0.9))
	near1 := node.New("a", 10, 0, node.WithFrequency(1.1))
	near2 := node.New("b", 0, 10, node.WithFrequency(1.2))
	far := node.New("c", 500, 0, node.WithFrequency(1.0))
	w := &stubWorld{nodes: []*node.Node{n, near1, near2, far}}
	law := NewBrain(w, DefaultBrainConfig(), nil, nil)

	s := law.sense(n)
	assert.Equal(t, 2, s.neighbors)
	assert.Equal(t, 2, s.entangled)
	assert.InDelta(t, 0.15, s.avgFreqGap, 1e-9)
	assert.Same(t, near1, s.nearest)

	v := law.sensors(n, s)
	assert.True(t, v[logicbrain.SensorCrowded])
	assert.True(t, v[logicbrain.SensorHarmonic])
	assert.True(t, v[logicbrain.SensorEnergized])
	assert.False(t, v[logicbrain.SensorMature])

	alone := law.sense(far)
	assert.Equal(t, 0, alone.neighbors)
	assert.Equal(t, noNeighborGap, alone.avgFreqGap)
}

func TestBrainDrivesTrials(t *testing.T) {
	rec := &recorder{}
	n := node.New("t", 0, 0)
	w := &stubWorld{nodes: []*node.Node{n}}
	law := NewBrain(w, DefaultBrainConfig(), rec, nil)

	require.NoError(t, n.Adaptive.BeginTrial(n.Brain))
	for i := 0; i < 10; i++ {
		w.tick += 6
		law.Apply(n, dt)
	}

	assert.False(t, n.Adaptive.IsInTrial())
	_, adopted, reverted := law.Stats()
	assert.Equal(t, int64(1), adopted+reverted)
	if adopted == 1 {
		assert.Contains(t, rec.kinds, "ADAPTATION")
	}
}

type fixedAdvisor struct{ role node.Role }

func (a fixedAdvisor) SuggestRoleForChild(*node.Node) node.Role { return a.role }

func TestReproductionSpawnsChild(t *testing.T) {
	rec := &recorder{}
	parent := node.New("P", 10, 10, node.WithEnergy(1))
	parent.SetBaseSize(20)
	parent.Phase = 0
	parent.LastIntents = cognition.Intents(0).With(cognition.IntentReproduce)
	w := &stubWorld{nodes: []*node.Node{parent}}

	law := NewReproduction(w, DefaultReproductionConfig(), rec, fixedAdvisor{node.RoleCommunicator})
	require.True(t, law.Eligible(parent))
	law.Apply(parent, dt)

	require.Len(t, w.added, 1)
	child := w.added[0]
	assert.Equal(t, "P-1", child.Name)
	assert.Equal(t, 15.0, child.X)
	assert.Equal(t, 10.0, child.Y)
	assert.Equal(t, 2.5, child.VX)
	assert.Equal(t, node.RoleCommunicator, child.Role)
	assert.Equal(t, 1, child.Generation())
	assert.Equal(t, []string{"P-1"}, rec.births)
	assert.InDelta(t, 0.7, parent.Energy(), 1e-9)
}

func TestReproductionSkipsTakenChildNames(t *testing.T) {
	rec := &recorder{}
	parent := node.New("P", 10, 10, node.WithEnergy(1))
	parent.SetBaseSize(20)
	parent.LastIntents = cognition.Intents(0).With(cognition.IntentReproduce)
	// An older node named P left a living child behind.
	orphan := node.New("P-1", 0, 0)
	w := &stubWorld{nodes: []*node.Node{parent, orphan}}

	law := NewReproduction(w, DefaultReproductionConfig(), rec, nil)
	law.Apply(parent, dt)

	require.Len(t, w.added, 1)
	assert.Equal(t, "P-2", w.added[0].Name)
	assert.Equal(t, []string{"P-2"}, rec.births)
	assert.Equal(t, int64(1), law.Births())
	assert.Equal(t, 1, parent.Adaptive.CurrentBaseline().Reproductions)
}

func TestReproductionNeedsStoredIntent(t *testing.T) {
	parent := node.New("P", 10, 10, node.WithEnergy(1))
	parent.SetBaseSize(20)
	// A raw brain evaluation is not a decision; only the brain law's stored
	// intents count.
	parent.Brain.Compute(cognition.Sensors{logicbrain.SensorEnergized: true, logicbrain.SensorResonant: true})
	w := &stubWorld{nodes: []*node.Node{parent}}

	law := NewReproduction(w, DefaultReproductionConfig(), nil, nil)
	assert.False(t, law.Eligible(parent))
	law.Apply(parent, dt)
	assert.Empty(t, w.added)
	assert.InDelta(t, 1.0, parent.Energy(), 1e-9)
}

func TestReproductionRespectsCap(t *testing.T) {
	parent := node.New("P", 0, 0, node.WithEnergy(1))
	parent.SetBaseSize(20)
	parent.LastIntents = cognition.Intents(0).With(cognition.IntentReproduce)
	w := &stubWorld{nodes: []*node.Node{parent}}

	law := NewReproduction(w, ReproductionConfig{Cadence: 1, MaxPopulation: 1, EagerEnergy: 0.9}, nil, nil)
	law.Apply(parent, dt)

	assert.Empty(t, w.added)
}

func TestStandardOrder(t *testing.T) {
	var names []string
	for _, l := range Standard(&stubWorld{}, DefaultConfig(), Deps{}) {
		names = append(names, l.Name())
	}
	assert.Equal(t, []string{"Inertia", "HarmonicResonance", "Entanglement", "ResonanceSpike", "Brain", "Reproduction", "Boundary"}, names)
}
