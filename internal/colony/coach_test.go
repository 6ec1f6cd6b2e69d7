package colony

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eyeoverthink/phiworld/internal/node"
)

func TestTickAssignsRoles(t *testing.T) {
	c := NewCoach()
	var nodes []*node.Node
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		nodes = append(nodes, node.New(name, 0, 0))
	}

	c.Tick(nodes, 1)
	assert.Equal(t, node.RoleNone, nodes[0].Role, "no assignment off-cadence")

	c.Tick(nodes, AssignEvery)
	seen := make(map[node.Role]bool)
	for _, n := range nodes {
		assert.NotEqual(t, node.RoleNone, n.Role)
		seen[n.Role] = true
	}
	assert.Len(t, seen, len(node.Roles))

	r := c.Report()
	assert.Equal(t, 1.0, r.Diversity)
	assert.Equal(t, 1.0, r.Health)
	assert.Equal(t, int64(6), c.Assigned())
}

func TestSuggestRoleForChild(t *testing.T) {
	c := NewCoach()
	parent := node.New("p", 0, 0)
	parent.Role = node.RoleMemoryKeeper

	t.Run("low diversity picks missing role", func(t *testing.T) {
		c.Tick([]*node.Node{parent}, 1)
		assert.Equal(t, node.RoleLogicGate, c.SuggestRoleForChild(parent))
	})

	t.Run("diverse colony keeps parent role", func(t *testing.T) {
		var nodes []*node.Node
		for i, r := range node.Roles {
			n := node.New(string(rune('a'+i)), 0, 0)
			n.Role = r
			nodes = append(nodes, n)
		}
		c.Tick(nodes, 2)
		assert.Equal(t, node.RoleMemoryKeeper, c.SuggestRoleForChild(parent))
	})
}

func TestHealthIsMeanEnergy(t *testing.T) {
	c := NewCoach()
	c.Tick([]*node.Node{
		node.New("x", 0, 0, node.WithEnergy(0.2)),
		node.New("y", 0, 0, node.WithEnergy(0.6)),
	}, 3)

	assert.InDelta(t, 0.4, c.Report().Health, 1e-9)
}
