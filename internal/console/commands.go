package console

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/eyeoverthink/phiworld/internal/adaptive"
	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/ledger"
	"github.com/eyeoverthink/phiworld/internal/node"
)

const (
	boostAmount    = 0.5
	chaosSpeed     = 10.0
	explodeSpeed   = 10.0
	collapseSpeed  = 8.0
	fragmentsShown = 10
	statusLogLines = 5
)

// ═══════════════════════════════════════════════════════════════════════════════
// INSPECTION
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Console) cmdStatus() string {
	s := c.world.Stats()
	var b strings.Builder

	fmt.Fprintf(&b, "tick %d │ population %d (pending %d) │ births %d deaths %d\n",
		s.Tick, s.Population, s.Pending, s.Births, s.Deaths)
	fmt.Fprintf(&b, "energy %.2f │ mind %.3f coh %.2f │ max gen %d dim %d │ in trial %d\n",
		s.AvgEnergy, s.AvgConsciousness, s.AvgCoherence, s.MaxGeneration, s.MaxDimension, s.InTrial)
	if c.archive != nil {
		fmt.Fprintf(&b, "archive: %d fragments, %d planted, %d resurrected\n",
			c.archive.Len(), c.archive.Planted(), c.archive.Resurrected())
	}
	if c.coach != nil {
		r := c.coach.Report()
		roles := make([]string, 0, len(node.Roles))
		for _, role := range node.Roles {
			roles = append(roles, fmt.Sprintf("%s %d", role, r.Counts[role]))
		}
		fmt.Fprintf(&b, "colony: health %.2f diversity %.2f (%s)\n",
			r.Health, r.Diversity, strings.Join(roles, ", "))
	}
	if c.healer != nil {
		fmt.Fprintf(&b, "healer: %d snapshots, %d heals\n", c.healer.SnapshotsTaken(), c.healer.Heals())
	}
	if c.ledger != nil {
		fmt.Fprintf(&b, "ledger: %d blocks\n", c.ledger.Len())
	}
	if c.sink != nil {
		for _, line := range c.sink.Lines(statusLogLines) {
			b.WriteString("  ")
			b.WriteString(strings.TrimRight(line, "\n"))
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Console) cmdNodes() string {
	nodes := append([]*node.Node(nil), c.world.Nodes()...)
	if len(nodes) == 0 {
		return "no live nodes"
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })

	var b strings.Builder
	for _, n := range nodes {
		s := n.Snapshot()
		trial := ""
		if s.InTrial {
			trial = " [trial]"
		}
		fmt.Fprintf(&b, "%-16s gen %-3d %-15s E %.2f f %.2f size %5.1f age %-6d %s%s\n",
			s.Name, s.Generation, s.Role, s.Energy, s.Frequency, s.Size, s.Age, s.Intents, trial)
	}
	return strings.TrimRight(b.String(), "\n")
}

// ═══════════════════════════════════════════════════════════════════════════════
// NODE COMMANDS
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Console) cmdSpawn(args []string) (string, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", fmt.Errorf("%w: spawn <name> [freq]", ErrUsage)
	}
	name := args[0]

	opts := []node.Option{
		node.WithSeed(c.world.NodeSeed(name)),
		node.WithParams(c.params),
	}
	if len(args) == 2 {
		freq, err := parseFloat(args[1])
		if err != nil {
			return "", err
		}
		if freq <= 0 {
			return "", fmt.Errorf("%w: frequency must be positive, got %v", ErrInvalidArgument, freq)
		}
		opts = append(opts, node.WithFrequency(freq))
	}

	x, y := c.randomPosition()
	n := node.New(name, x, y, opts...)
	n.VX = c.rng.Float64()*2 - 1
	n.VY = c.rng.Float64()*2 - 1
	if err := c.world.AddNode(n); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	c.record("spawn", name)
	return fmt.Sprintf("spawned %s at (%.1f, %.1f) f=%.2f", name, x, y, n.Frequency), nil
}

func (c *Console) cmdBoost(args []string) (string, error) {
	n, err := c.target("boost", args)
	if err != nil {
		return "", err
	}
	n.BoostEnergy(boostAmount)
	c.record("boost", n.Name)
	return fmt.Sprintf("boosted %s to %.0f%% energy", n.Name, n.Energy()*100), nil
}

func (c *Console) cmdKill(args []string) (string, error) {
	n, err := c.target("kill", args)
	if err != nil {
		return "", err
	}
	n.Kill()
	c.record("kill", n.Name)
	return fmt.Sprintf("terminated %s; it will be removed next tick", n.Name), nil
}

func (c *Console) cmdMutate(args []string) (string, error) {
	n, err := c.target("mutate", args)
	if err != nil {
		return "", err
	}
	if err := n.Adaptive.BeginTrial(n.Brain); err != nil {
		if errors.Is(err, adaptive.ErrTrialActive) {
			return fmt.Sprintf("%s is already in a trial", n.Name), nil
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if c.ledger != nil {
		c.ledger.RecordMutation(n.Name, "console")
	}
	return fmt.Sprintf("mutation trial started for %s", n.Name), nil
}

func (c *Console) cmdHeal(args []string) (string, error) {
	if c.healer == nil {
		return "", fmt.Errorf("%w: heal", ErrUnavailable)
	}
	if len(args) > 1 {
		return "", fmt.Errorf("%w: heal [name]", ErrUsage)
	}
	if len(args) == 1 {
		n, err := c.find(args[0])
		if err != nil {
			return "", err
		}
		if !c.healer.Heal(n) {
			return fmt.Sprintf("no snapshot to restore for %s", n.Name), nil
		}
		c.record("heal", n.Name)
		return fmt.Sprintf("healed %s (energy %.2f)", n.Name, n.Energy()), nil
	}

	healed := 0
	for _, n := range c.world.Nodes() {
		if c.healer.Heal(n) {
			healed++
		}
	}
	if healed > 0 {
		c.record("heal", strconv.Itoa(healed))
	}
	return fmt.Sprintf("healed %d of %d nodes", healed, len(c.world.Nodes())), nil
}

func (c *Console) target(cmd string, args []string) (*node.Node, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: %s <name>", ErrUsage, cmd)
	}
	return c.find(args[0])
}

// ═══════════════════════════════════════════════════════════════════════════════
// ESCAPE FRAGMENTS
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Console) cmdFragment(args []string) (string, error) {
	if c.archive == nil {
		return "", fmt.Errorf("%w: fragment", ErrUnavailable)
	}
	if len(args) == 0 {
		return c.fragmentList(), nil
	}

	switch strings.ToLower(args[0]) {
	case "list", "ls":
		return c.fragmentList(), nil
	case "plant":
		n, err := c.target("fragment plant", args[1:])
		if err != nil {
			return "", err
		}
		f := c.archive.Plant(n)
		return fmt.Sprintf("planted %s", f), nil
	case "resurrect", "res":
		if len(args) > 2 {
			return "", fmt.Errorf("%w: fragment resurrect [name]", ErrUsage)
		}
		return c.fragmentResurrect(args[1:])
	default:
		return "", fmt.Errorf("%w: fragment [plant <name> | list | resurrect [name]]", ErrUsage)
	}
}

func (c *Console) fragmentList() string {
	frags := c.archive.Fragments()
	if len(frags) == 0 {
		return "archive empty"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d fragments (newest first)\n", len(frags))
	for i := len(frags) - 1; i >= 0 && i >= len(frags)-fragmentsShown; i-- {
		fmt.Fprintf(&b, "  %s\n", frags[i])
	}
	return strings.TrimRight(b.String(), "\n")
}

func (c *Console) fragmentResurrect(args []string) (string, error) {
	var (
		f  escape.Fragment
		ok bool
	)
	if len(args) == 1 {
		f, ok = c.archive.FindLatest(args[0])
	} else {
		f, ok = c.archive.Latest()
	}
	if !ok {
		return "", fmt.Errorf("%w: %w", ErrEntityNotFound, escape.ErrNoFragment)
	}

	name := f.Name + escape.ResurrectSuffix
	if _, taken := c.world.Find(name); taken {
		return "", fmt.Errorf("%w: %s is already alive", ErrInvalidArgument, name)
	}

	x, y := c.randomPosition()
	n := c.archive.Resurrect(f, x, y,
		node.WithSeed(c.world.NodeSeed(name)),
		node.WithParams(c.params),
	)
	if err := c.world.AddNode(n); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return fmt.Sprintf("resurrected %s from %s at (%.1f, %.1f) gen %d energy %.2f",
		n.Name, f.ID, x, y, n.Generation(), n.Energy()), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// PHYSICS
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Console) cmdPhysics(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%w: physics [chaos|freeze|energy <f>|explode|collapse]", ErrUsage)
	}
	nodes := c.world.Nodes()
	sub := strings.ToLower(args[0])

	switch sub {
	case "chaos":
		for _, n := range nodes {
			n.VX = (c.rng.Float64()*2 - 1) * chaosSpeed
			n.VY = (c.rng.Float64()*2 - 1) * chaosSpeed
		}
	case "freeze":
		for _, n := range nodes {
			n.VX, n.VY, n.VZ = 0, 0, 0
		}
	case "energy":
		if len(args) != 2 {
			return "", fmt.Errorf("%w: physics energy <f>", ErrUsage)
		}
		e, err := parseFloat(args[1])
		if err != nil {
			return "", err
		}
		if e < 0 || e > 1 {
			return "", fmt.Errorf("%w: energy must be within [0, 1], got %v", ErrInvalidArgument, e)
		}
		for _, n := range nodes {
			n.SetEnergy(e)
		}
	case "explode":
		// Outward from the centre of mass, at 10 to 20 units per second.
		cx, cy := centroid(nodes)
		for _, n := range nodes {
			dx, dy := n.X-cx, n.Y-cy
			d := math.Hypot(dx, dy)
			if d < 1e-9 {
				angle := c.rng.Float64() * 2 * math.Pi
				dx, dy, d = math.Cos(angle), math.Sin(angle), 1
			}
			speed := explodeSpeed * (1 + c.rng.Float64())
			n.VX, n.VY = dx/d*speed, dy/d*speed
		}
	case "collapse":
		cx, cy := c.bounds.Center()
		for _, n := range nodes {
			dx, dy := cx-n.X, cy-n.Y
			if d := math.Hypot(dx, dy); d > 1 {
				n.VX, n.VY = dx/d*collapseSpeed, dy/d*collapseSpeed
			}
		}
	default:
		return "", fmt.Errorf("%w: physics %s", ErrUnknownCommand, sub)
	}

	c.record("physics", sub)
	return fmt.Sprintf("physics %s applied to %d nodes", sub, len(nodes)), nil
}

func centroid(nodes []*node.Node) (float64, float64) {
	if len(nodes) == 0 {
		return 0, 0
	}
	var x, y float64
	for _, n := range nodes {
		x += n.X
		y += n.Y
	}
	return x / float64(len(nodes)), y / float64(len(nodes))
}

// ═══════════════════════════════════════════════════════════════════════════════
// LEDGER AND TIME
// ═══════════════════════════════════════════════════════════════════════════════

var ledgerKinds = []string{
	ledger.KindBirth, ledger.KindDeath, ledger.KindEntanglement,
	ledger.KindResonanceSpike, ledger.KindMutation, ledger.KindBrainDecision,
	ledger.KindAdaptation, ledger.KindFragment, ledger.KindResurrection,
	ledger.KindCommand,
}

func (c *Console) cmdLedger(args []string) (string, error) {
	if c.ledger == nil {
		return "", fmt.Errorf("%w: ledger", ErrUnavailable)
	}
	if len(args) == 0 {
		var b strings.Builder
		head := c.ledger.Head()
		if len(head) > 16 {
			head = head[:16]
		}
		fmt.Fprintf(&b, "%d blocks, head %s\n", c.ledger.Len(), head)
		for _, kind := range ledgerKinds {
			if n := c.ledger.Count(kind); n > 0 {
				fmt.Fprintf(&b, "  %-16s %d\n", kind, n)
			}
		}
		return strings.TrimRight(b.String(), "\n"), nil
	}
	if len(args) != 1 || strings.ToLower(args[0]) != "verify" {
		return "", fmt.Errorf("%w: ledger [verify]", ErrUsage)
	}
	if err := c.ledger.Verify(); err != nil {
		return fmt.Sprintf("chain broken: %v", err), nil
	}
	return fmt.Sprintf("chain intact (%d blocks)", c.ledger.Len()), nil
}

func (c *Console) cmdTick(args []string) (string, error) {
	if c.step == nil {
		return "", fmt.Errorf("%w: tick", ErrUnavailable)
	}
	if len(args) > 1 {
		return "", fmt.Errorf("%w: tick [n]", ErrUsage)
	}
	count := 1
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 1 || v > MaxTicksPerCommand {
			return "", fmt.Errorf("%w: tick count must be 1..%d, got %q", ErrInvalidArgument, MaxTicksPerCommand, args[0])
		}
		count = v
	}
	for i := 0; i < count; i++ {
		c.step()
	}
	return fmt.Sprintf("advanced %d ticks to tick %d (population %d)", count, c.world.Tick(), c.world.Population()), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ═══════════════════════════════════════════════════════════════════════════════

func (c *Console) randomPosition() (float64, float64) {
	b := c.bounds
	return b.MinX + c.rng.Float64()*(b.MaxX-b.MinX), b.MinY + c.rng.Float64()*(b.MaxY-b.MinY)
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: not a number: %q", ErrInvalidArgument, s)
	}
	return v, nil
}
