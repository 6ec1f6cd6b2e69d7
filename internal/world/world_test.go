package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/laws"
	"github.com/eyeoverthink/phiworld/internal/logicbrain"
	"github.com/eyeoverthink/phiworld/internal/node"
)

const dt = 1.0 / 60

// probeLaw records which nodes it visits on which tick.
type probeLaw struct {
	w       *World
	cadence int
	visits  map[int64][]string
	onApply func(n *node.Node)
}

func newProbe(w *World) *probeLaw {
	return &probeLaw{w: w, visits: make(map[int64][]string)}
}

func (p *probeLaw) Name() string   { return "Probe" }
func (p *probeLaw) Pairwise() bool { return false }
func (p *probeLaw) Cadence() int   { return p.cadence }

func (p *probeLaw) Apply(n *node.Node, _ float64) {
	p.visits[p.w.Tick()] = append(p.visits[p.w.Tick()], n.Name)
	if p.onApply != nil {
		p.onApply(n)
	}
}

type pairCounter struct{ pairs int }

func (p *pairCounter) Name() string                         { return "PairCounter" }
func (p *pairCounter) Pairwise() bool                       { return true }
func (p *pairCounter) Apply(*node.Node, float64)            {}
func (p *pairCounter) ApplyPair(_, _ *node.Node, _ float64) { p.pairs++ }

type fakePairwise struct{}

func (fakePairwise) Name() string              { return "Fake" }
func (fakePairwise) Pairwise() bool            { return true }
func (fakePairwise) Apply(*node.Node, float64) {}

type deathLedger struct{ names []string }

func (l *deathLedger) RecordDeath(name string, _ int, _ int64) { l.names = append(l.names, name) }

type tracker struct {
	observed map[string]int
	forgot   []string
}

func (t *tracker) Observe(n *node.Node) { t.observed[n.Name]++ }
func (t *tracker) Forget(name string)   { t.forgot = append(t.forgot, name) }

func spawn(t *testing.T, w *World, name string, x, y float64, opts ...node.Option) *node.Node {
	t.Helper()
	n := node.New(name, x, y, append([]node.Option{node.WithSeed(w.NodeSeed(name))}, opts...)...)
	require.NoError(t, w.AddNode(n))
	return n
}

func TestAddNodeOnlyEnqueues(t *testing.T) {
	w := New()
	spawn(t, w, "a", 0, 0)

	assert.Empty(t, w.Nodes())
	assert.Equal(t, 1, w.Population())
	_, found := w.Find("a")
	assert.True(t, found)

	err := w.AddNode(node.New("a", 1, 1))
	assert.ErrorIs(t, err, ErrDuplicateName)

	w.Step(dt, 0)
	assert.Len(t, w.Nodes(), 1)
	assert.Equal(t, int64(1), w.Births())
}

func TestBirthsIsolatedFromLaws(t *testing.T) {
	w := New()
	probe := newProbe(w)
	w.AddLaw(probe)
	spawn(t, w, "parent", 0, 0)

	probe.onApply = func(n *node.Node) {
		if w.Tick() == 2 && n.Name == "parent" {
			require.NoError(t, w.AddNode(node.New("late", 0, 0)))
		}
	}

	for i := 0; i < 3; i++ {
		w.Step(dt, 0)
	}

	assert.Equal(t, []string{"parent"}, probe.visits[2])
	assert.Equal(t, []string{"parent", "late"}, probe.visits[3])
}

func TestCadence(t *testing.T) {
	w := New()
	probe := newProbe(w)
	probe.cadence = 6
	w.AddLaw(probe)
	spawn(t, w, "a", 0, 0)

	for i := 0; i < 13; i++ {
		w.Step(dt, 0)
	}

	var ticks []int64
	for tick := range probe.visits {
		ticks = append(ticks, tick)
	}
	assert.ElementsMatch(t, []int64{6, 12}, ticks)
}

func TestPairwiseDispatch(t *testing.T) {
	w := New()
	pc := &pairCounter{}
	w.AddLaw(pc)
	for _, name := range []string{"a", "b", "c", "d"} {
		spawn(t, w, name, 0, 0)
	}

	w.Step(dt, 0)
	assert.Equal(t, 6, pc.pairs)
}

func TestMisdeclaredPairwisePanics(t *testing.T) {
	assert.Panics(t, func() { New().AddLaw(fakePairwise{}) })
}

func TestReapPlantsFragment(t *testing.T) {
	archive := escape.NewArchive(escape.DefaultConfig())
	ledger := &deathLedger{}
	tr := &tracker{observed: make(map[string]int)}
	w := New(WithArchive(archive), WithLedger(ledger), WithTracker(tr))

	victim := spawn(t, w, "victim", 0, 0)
	spawn(t, w, "bystander", 5, 5)
	victim.DNA.SetGeneration(3)

	w.Step(dt, 0)
	victim.Kill()
	report := w.Step(dt, 0)

	assert.Equal(t, []string{"victim"}, report.Died)
	assert.Equal(t, report.Before-len(report.Died), report.After)
	assert.Equal(t, int64(1), w.Deaths())
	_, alive := w.Find("victim")
	assert.False(t, alive)

	require.Equal(t, 1, archive.Len())
	f, _ := archive.Latest()
	assert.Equal(t, "victim", f.Name)
	assert.Equal(t, 3, f.Generation)

	assert.Equal(t, []string{"victim"}, ledger.names)
	assert.Equal(t, []string{"victim"}, tr.forgot)
	assert.Equal(t, 2, tr.observed["victim"])

	// The name is free again once reaped.
	assert.NoError(t, w.AddNode(node.New("victim", 0, 0)))
}

func TestBoundaryScenario(t *testing.T) {
	region := laws.Region{MinX: -10, MaxX: 10, MinY: -10, MaxY: 10}

	t.Run("moving out", func(t *testing.T) {
		w := New()
		w.AddLaws(laws.Inertia{}, laws.NewBoundary(region))
		a := spawn(t, w, "A", 0, 0, node.WithFrequency(1.0), node.WithEnergy(1.0))
		a.VX = 20

		w.Step(1, 0)

		assert.Equal(t, 10.0, a.X)
		assert.Less(t, a.VX, 0.0)
		assert.Equal(t, -10.0, a.VX)
	})

	t.Run("spawned outside", func(t *testing.T) {
		w := New()
		w.AddLaw(laws.NewBoundary(region))
		a := spawn(t, w, "A", 25, -30, node.WithFrequency(1.0))
		a.VX, a.VY = 20, -4

		w.Step(1, 0)

		assert.Equal(t, 10.0, a.X)
		assert.Equal(t, -10.0, a.VX)
		assert.Equal(t, -10.0, a.Y)
		assert.Equal(t, 2.0, a.VY)
	})
}

func TestReproductionGating(t *testing.T) {
	// Every gate reads the crowded sensor, which is false for a lone node, so
	// NAND fires every intent including reproduce.
	allOn := "NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0"

	build := func(t *testing.T, energy float64) (*World, *laws.Reproduction) {
		w := New(WithSeed(1))
		repro := laws.NewReproduction(w, laws.ReproductionConfig{Cadence: 1, MaxPopulation: 30, EagerEnergy: 0.9}, nil, nil)
		brainCfg := laws.DefaultBrainConfig()
		w.AddLaws(laws.NewBrain(w, brainCfg, nil, nil), repro)
		n := spawn(t, w, "breeder", 0, 0, node.WithEnergy(energy), node.WithBrain(logicbrain.Decode(allOn)))
		n.SetBaseSize(20)
		return w, repro
	}

	t.Run("low energy never reproduces", func(t *testing.T) {
		w, repro := build(t, 0.5)
		for i := 0; i < 1000; i++ {
			w.Step(dt, float64(i)*dt)
		}
		assert.Equal(t, int64(0), repro.Births())
		assert.Equal(t, 1, w.Population())
	})

	t.Run("high energy reproduces", func(t *testing.T) {
		w, repro := build(t, 1.0)
		for i := 0; i < 12; i++ {
			w.Step(dt, float64(i)*dt)
		}
		assert.Equal(t, int64(1), repro.Births())
		_, found := w.Find("breeder-1")
		assert.True(t, found)
	})
}

func TestRespawnedParentGetsFreshChildName(t *testing.T) {
	allOn := "NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0,NAND:0:0"
	w := New(WithSeed(1))
	repro := laws.NewReproduction(w, laws.ReproductionConfig{Cadence: 1, MaxPopulation: 30, EagerEnergy: 0.9}, nil, nil)
	w.AddLaws(laws.NewBrain(w, laws.DefaultBrainConfig(), nil, nil), repro)

	breed := func(name string) *node.Node {
		n := spawn(t, w, name, 0, 0, node.WithEnergy(1), node.WithBrain(logicbrain.Decode(allOn)))
		n.SetBaseSize(20)
		return n
	}

	first := breed("p")
	for i := 0; i < 12 && repro.Births() == 0; i++ {
		w.Step(dt, float64(i)*dt)
	}
	require.Equal(t, int64(1), repro.Births())
	_, found := w.Find("p-1")
	require.True(t, found)

	first.Kill()
	w.Step(dt, 0)
	_, found = w.Find("p")
	require.False(t, found)

	second := breed("p")
	for i := 0; i < 12 && repro.Births() == 1; i++ {
		w.Step(dt, float64(i)*dt)
	}

	assert.Equal(t, int64(2), repro.Births())
	_, found = w.Find("p-2")
	assert.True(t, found, "second parent's child should take the next free name")
	assert.Equal(t, 1, second.Adaptive.CurrentBaseline().Reproductions)
}

func TestStandardLawsInvariants(t *testing.T) {
	archive := escape.NewArchive(escape.DefaultConfig())
	w := New(WithSeed(42), WithArchive(archive))
	w.AddLaws(laws.Standard(w, laws.DefaultConfig(), laws.Deps{})...)

	for i := 0; i < 8; i++ {
		name := string(rune('a' + i))
		spawn(t, w, name, float64(i*10-40), float64(i%3*10), node.WithFrequency(1+float64(i%3)*0.2))
	}

	ages := make(map[string]int64)
	for i := 0; i < 1500; i++ {
		report := w.Step(dt, float64(i)*dt)
		require.Equal(t, report.Before+len(report.Born)-len(report.Died), report.After, "tick %d", report.Tick)

		for _, n := range w.Nodes() {
			require.GreaterOrEqual(t, n.Energy(), 0.0)
			require.LessOrEqual(t, n.Energy(), 1.0)
			require.True(t, n.IsAlive())
			require.GreaterOrEqual(t, n.Age, ages[n.Name])
			ages[n.Name] = n.Age
		}
		for _, name := range report.Died {
			_, ok := archive.FindLatest(name)
			require.True(t, ok, "no fragment for %s", name)
		}
	}

	s := w.Stats()
	assert.Equal(t, int64(1500), s.Tick)
	assert.Equal(t, len(w.Nodes()), s.Population)
	assert.LessOrEqual(t, w.Population(), laws.DefaultReproductionConfig().MaxPopulation)
	assert.Equal(t, archive.Planted(), w.Deaths())
}

func TestStatsEmpty(t *testing.T) {
	s := New().Stats()
	assert.Equal(t, 0, s.Population)
	assert.Equal(t, 0.0, s.AvgEnergy)
}
