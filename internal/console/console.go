// Package console interprets host commands against a running world.
//
// A Console is not safe for concurrent use. Hosts run Execute on the same
// goroutine that steps the world, between ticks.
package console

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/bus"
	"github.com/eyeoverthink/phiworld/internal/colony"
	"github.com/eyeoverthink/phiworld/internal/escape"
	"github.com/eyeoverthink/phiworld/internal/healer"
	"github.com/eyeoverthink/phiworld/internal/laws"
	"github.com/eyeoverthink/phiworld/internal/ledger"
	"github.com/eyeoverthink/phiworld/internal/logging"
	"github.com/eyeoverthink/phiworld/internal/node"
	"github.com/eyeoverthink/phiworld/internal/world"
)

// Command failures. Every error returned by Execute wraps one of these.
var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrEntityNotFound  = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUsage           = errors.New("usage")
	ErrUnavailable     = errors.New("not available in this host")
)

// MaxTicksPerCommand bounds "tick n".
const MaxTicksPerCommand = 10000

// ═══════════════════════════════════════════════════════════════════════════════
// CONSOLE
// ═══════════════════════════════════════════════════════════════════════════════

// Console executes text commands.
type Console struct {
	world   *world.World
	archive *escape.Archive
	ledger  *ledger.Ledger
	healer  *healer.Healer
	coach   *colony.Coach
	bus     *bus.Bus
	sink    *logging.Sink
	step    func()
	params  node.Params
	bounds  laws.Region
	rng     *rand.Rand
}

// Option configures a Console.
type Option func(*Console)

// WithLedger enables "ledger" and records mutating commands as COMMAND
// blocks.
func WithLedger(l *ledger.Ledger) Option { return func(c *Console) { c.ledger = l } }

// WithHealer enables "heal".
func WithHealer(h *healer.Healer) Option { return func(c *Console) { c.healer = h } }

// WithCoach adds the colony report to "status".
func WithCoach(co *colony.Coach) Option { return func(c *Console) { c.coach = co } }

// WithBus publishes every executed command as an EventCommand.
func WithBus(b *bus.Bus) Option { return func(c *Console) { c.bus = b } }

// WithSink adds recent log lines to "status".
func WithSink(s *logging.Sink) Option { return func(c *Console) { c.sink = s } }

// WithStepper enables "tick"; step must advance the world by one tick.
func WithStepper(step func()) Option { return func(c *Console) { c.step = step } }

// WithNodeParams sets the lifecycle parameters of spawned and resurrected
// nodes.
func WithNodeParams(p node.Params) Option { return func(c *Console) { c.params = p } }

// WithBounds sets the region random spawn positions are drawn from.
func WithBounds(r laws.Region) Option { return func(c *Console) { c.bounds = r } }

// WithRand overrides the console's random source.
func WithRand(rng *rand.Rand) Option { return func(c *Console) { c.rng = rng } }

// New returns a console over w and its archive.
func New(w *world.World, archive *escape.Archive, opts ...Option) *Console {
	c := &Console{
		world:   w,
		archive: archive,
		params:  node.DefaultParams(),
		bounds:  laws.DefaultConfig().Bounds,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(w.Seed() ^ 0x5eed))
	}
	return c
}

// ═══════════════════════════════════════════════════════════════════════════════
// COMMAND ROUTER
// ═══════════════════════════════════════════════════════════════════════════════

// Execute parses and runs one command line and returns its output.
//
// Supported commands:
//   - status, s                  - World, archive and colony summary
//   - nodes, ls                  - One line per live node
//   - spawn <name> [freq]        - Enqueue a new node at a random position
//   - boost <name>               - Add 0.5 energy
//   - kill <name>                - Drop energy to zero; reaped next tick
//   - mutate <name>              - Begin an adaptive trial
//   - heal [name]                - Restore snapshot wiring (all nodes if no name)
//   - fragment [plant|list|resurrect]
//   - physics [chaos|freeze|energy <f>|explode|collapse]
//   - ledger [verify]
//   - tick [n]                   - Advance n ticks
//   - help, h, ?
func (c *Console) Execute(line string) (string, error) {
	out, err := c.dispatch(line)
	if err != nil {
		log.Debug().Err(err).Str("command", line).Msg("command rejected")
	}
	c.publish(line, out, err)
	return out, err
}

func (c *Console) dispatch(line string) (string, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", fmt.Errorf("%w: empty command", ErrUnknownCommand)
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "status", "s":
		return c.cmdStatus(), nil
	case "nodes", "ls":
		return c.cmdNodes(), nil
	case "spawn":
		return c.cmdSpawn(args)
	case "boost":
		return c.cmdBoost(args)
	case "kill":
		return c.cmdKill(args)
	case "mutate":
		return c.cmdMutate(args)
	case "heal":
		return c.cmdHeal(args)
	case "fragment", "frag":
		return c.cmdFragment(args)
	case "physics":
		return c.cmdPhysics(args)
	case "ledger":
		return c.cmdLedger(args)
	case "tick":
		return c.cmdTick(args)
	case "help", "h", "?":
		return helpText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

// find resolves a node by exact name, then case-insensitively.
func (c *Console) find(name string) (*node.Node, error) {
	if n, ok := c.world.Find(name); ok {
		return n, nil
	}
	candidates := append(append([]*node.Node(nil), c.world.Nodes()...), c.world.Pending()...)
	for _, n := range candidates {
		if strings.EqualFold(n.Name, name) {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, name)
}

func (c *Console) record(command, target string) {
	if c.ledger == nil {
		return
	}
	c.ledger.Record(ledger.KindCommand, command+" "+target)
}

func (c *Console) publish(line, out string, err error) {
	if c.bus == nil {
		return
	}
	e := bus.NewEvent(bus.EventCommand)
	e.Tick = c.world.Tick()
	e.Details = line
	e.Data = out
	if err != nil {
		e.Error = err.Error()
	}
	c.bus.Publish(e)
}

const helpText = `Commands:
  status                      World, archive and colony summary
  nodes                       List live nodes
  spawn <name> [freq]         Spawn a node (frequency defaults to random)
  boost <name>                Add 0.5 energy
  kill <name>                 Terminate; removed on the next tick
  mutate <name>               Start a mutation trial
  heal [name]                 Restore snapshot wiring
  fragment plant <name>       Snapshot a live node into the archive
  fragment list               Show recent fragments
  fragment resurrect [name]   Bring back the latest fragment
  physics chaos               Randomize all velocities
  physics freeze              Stop all motion
  physics energy <f>          Set every node's energy to f
  physics explode             Push nodes away from the centre of mass
  physics collapse            Pull nodes toward the world centre
  ledger [verify]             Ledger summary or chain verification
  tick [n]                    Advance the world n ticks
  help                        This text`
