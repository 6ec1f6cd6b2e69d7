package laws

import (
	"math"

	"github.com/eyeoverthink/phiworld/internal/node"
)

// Inertia integrates position by velocity.
type Inertia struct{}

func (Inertia) Name() string   { return "Inertia" }
func (Inertia) Pairwise() bool { return false }

func (Inertia) Apply(n *node.Node, dt float64) {
	n.X += n.VX * dt
	n.Y += n.VY * dt
	n.Z += n.VZ * dt
}

// HarmonicResonance advances each node's phase by its frequency.
type HarmonicResonance struct{}

func (HarmonicResonance) Name() string   { return "HarmonicResonance" }
func (HarmonicResonance) Pairwise() bool { return false }

func (HarmonicResonance) Apply(n *node.Node, dt float64) {
	n.Phase = WrapPhase(n.Phase + n.Frequency*dt)
}

// Region is an axis-aligned rectangle.
type Region struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Region) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Center returns the midpoint of r.
func (r Region) Center() (float64, float64) {
	return (r.MinX + r.MaxX) / 2, (r.MinY + r.MaxY) / 2
}

// Boundary keeps nodes inside a region. A node that leaves is put back on
// the edge and its velocity component is reflected and halved.
type Boundary struct {
	Region Region
}

// NewBoundary returns a boundary law for r.
func NewBoundary(r Region) *Boundary {
	return &Boundary{Region: r}
}

func (b *Boundary) Name() string   { return "Boundary" }
func (b *Boundary) Pairwise() bool { return false }

func (b *Boundary) Apply(n *node.Node, _ float64) {
	r := b.Region
	if n.X < r.MinX {
		n.X = r.MinX
		n.VX = math.Abs(n.VX) * 0.5
	} else if n.X > r.MaxX {
		n.X = r.MaxX
		n.VX = -math.Abs(n.VX) * 0.5
	}
	if n.Y < r.MinY {
		n.Y = r.MinY
		n.VY = math.Abs(n.VY) * 0.5
	} else if n.Y > r.MaxY {
		n.Y = r.MaxY
		n.VY = -math.Abs(n.VY) * 0.5
	}
}
