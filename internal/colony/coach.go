// Package colony coordinates the population as a whole: it assigns colony
// roles, tracks health and diversity, and picks roles for newborns so the
// colony does not collapse onto a single specialization.
package colony

import (
	"math"

	"github.com/rs/zerolog/log"

	"github.com/eyeoverthink/phiworld/internal/node"
)

const (
	// AssignEvery is the tick interval between role assignment passes.
	AssignEvery = 60

	// DiversityTarget is the diversity below which newborns are steered to
	// under-represented roles.
	DiversityTarget = 0.6
)

// Report is the coach's latest view of the colony.
type Report struct {
	Tick      int64
	Health    float64 // mean energy
	Diversity float64 // distinct roles / role count
	Counts    map[node.Role]int
}

// Coach is the colony role and health coordinator.
type Coach struct {
	last     Report
	assigned int64
}

// NewCoach returns a coach with an empty report.
func NewCoach() *Coach {
	return &Coach{last: Report{Counts: map[node.Role]int{}}}
}

// Tick refreshes the colony report and, every AssignEvery ticks, gives a role
// to every unassigned node.
func (c *Coach) Tick(nodes []*node.Node, tick int64) {
	if tick%AssignEvery == 0 {
		for _, n := range nodes {
			if n.Role == node.RoleNone {
				n.Role = c.leastRepresented(nodes)
				c.assigned++
				log.Debug().Str("node", n.Name).Str("role", n.Role.String()).Msg("role assigned")
			}
		}
	}
	c.last = survey(nodes, tick)
}

// SuggestRoleForChild keeps the parent's role unless the colony lacks
// diversity, in which case the least represented role is chosen.
func (c *Coach) SuggestRoleForChild(parent *node.Node) node.Role {
	if parent.Role != node.RoleNone && c.last.Diversity >= DiversityTarget {
		return parent.Role
	}
	return leastOf(c.last.Counts)
}

// Report returns the latest colony report.
func (c *Coach) Report() Report {
	counts := make(map[node.Role]int, len(c.last.Counts))
	for r, v := range c.last.Counts {
		counts[r] = v
	}
	r := c.last
	r.Counts = counts
	return r
}

// Assigned counts role assignments made so far.
func (c *Coach) Assigned() int64 { return c.assigned }

func (c *Coach) leastRepresented(nodes []*node.Node) node.Role {
	counts := make(map[node.Role]int)
	for _, n := range nodes {
		counts[n.Role]++
	}
	return leastOf(counts)
}

// leastOf returns the first role with the smallest count, in Roles order.
func leastOf(counts map[node.Role]int) node.Role {
	best, bestCount := node.Roles[0], math.MaxInt
	for _, r := range node.Roles {
		if counts[r] < bestCount {
			best, bestCount = r, counts[r]
		}
	}
	return best
}

func survey(nodes []*node.Node, tick int64) Report {
	r := Report{Tick: tick, Counts: make(map[node.Role]int)}
	if len(nodes) == 0 {
		return r
	}
	for _, n := range nodes {
		r.Health += n.Energy()
		r.Counts[n.Role]++
	}
	r.Health /= float64(len(nodes))

	distinct := 0
	for _, role := range node.Roles {
		if r.Counts[role] > 0 {
			distinct++
		}
	}
	r.Diversity = float64(distinct) / float64(len(node.Roles))
	return r
}
