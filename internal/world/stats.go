package world

// Stats is an aggregate view of the world at the end of a tick.
type Stats struct {
	Tick             int64   `json:"tick"`
	Population       int     `json:"population"`
	Pending          int     `json:"pending"`
	Births           int64   `json:"births"`
	Deaths           int64   `json:"deaths"`
	AvgEnergy        float64 `json:"avg_energy"`
	AvgConsciousness float64 `json:"avg_consciousness"`
	AvgCoherence     float64 `json:"avg_coherence"`
	MaxGeneration    int     `json:"max_generation"`
	MaxDimension     int     `json:"max_dimension"`
	InTrial          int     `json:"in_trial"`
}

// Stats computes the current aggregates.
func (w *World) Stats() Stats {
	s := Stats{
		Tick:       w.tick,
		Population: len(w.nodes),
		Pending:    len(w.pending),
		Births:     w.births,
		Deaths:     w.deaths,
	}
	if len(w.nodes) == 0 {
		return s
	}
	for _, n := range w.nodes {
		s.AvgEnergy += n.Energy()
		s.AvgConsciousness += n.Consciousness.Level()
		s.AvgCoherence += n.Consciousness.Coherence()
		if g := n.Generation(); g > s.MaxGeneration {
			s.MaxGeneration = g
		}
		if d := n.Consciousness.Dimension(); d > s.MaxDimension {
			s.MaxDimension = d
		}
		if n.Adaptive.IsInTrial() {
			s.InTrial++
		}
	}
	count := float64(len(w.nodes))
	s.AvgEnergy /= count
	s.AvgConsciousness /= count
	s.AvgCoherence /= count
	return s
}
