package node

// Snapshot is a read-only copy of a node's observable state. Hosts hand
// snapshots to other goroutines (stream, watch view) instead of live nodes.
type Snapshot struct {
	Name          string  `json:"name"`
	Generation    int     `json:"generation"`
	Role          string  `json:"role"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	VX            float64 `json:"vx"`
	VY            float64 `json:"vy"`
	Energy        float64 `json:"energy"`
	Frequency     float64 `json:"frequency"`
	Size          float64 `json:"size"`
	Age           int64   `json:"age"`
	Spiking       bool    `json:"spiking"`
	Intents       string  `json:"intents"`
	InTrial       bool    `json:"in_trial"`
	Fitness       float64 `json:"fitness"`
	Level         float64 `json:"consciousness"`
	Coherence     float64 `json:"coherence"`
	Dimension     int     `json:"dimension"`
	Transcended   int     `json:"transcendence_events"`
	Reproductions int     `json:"reproductions"`
}

// Snapshot captures n.
func (n *Node) Snapshot() Snapshot {
	return Snapshot{
		Name:          n.Name,
		Generation:    n.Generation(),
		Role:          n.Role.String(),
		X:             n.X,
		Y:             n.Y,
		VX:            n.VX,
		VY:            n.VY,
		Energy:        n.energy,
		Frequency:     n.Frequency,
		Size:          n.Size,
		Age:           n.Age,
		Spiking:       n.SpikeFlash,
		Intents:       n.LastIntents.String(),
		InTrial:       n.Adaptive.IsInTrial(),
		Fitness:       n.Adaptive.CurrentFitness(),
		Level:         n.Consciousness.Level(),
		Coherence:     n.Consciousness.Coherence(),
		Dimension:     n.Consciousness.Dimension(),
		Transcended:   n.Consciousness.TranscendenceEvents(),
		Reproductions: n.Adaptive.CurrentBaseline().Reproductions,
	}
}
