package laws

// Config collects the tunables of the standard law set.
type Config struct {
	Bounds       Region
	Brain        BrainConfig
	Reproduction ReproductionConfig
}

// DefaultConfig returns the standard law tunables.
func DefaultConfig() Config {
	return Config{
		Bounds:       Region{MinX: -150, MaxX: 150, MinY: -80, MaxY: 80},
		Brain:        DefaultBrainConfig(),
		Reproduction: DefaultReproductionConfig(),
	}
}

// Deps are the optional collaborators of the standard law set.
type Deps struct {
	Ledger  Ledger
	Advisor RoleAdvisor
	Trials  TrialHook
}

// Standard returns the seven laws in their registration order: Inertia,
// HarmonicResonance, Entanglement, ResonanceSpike, Brain, Reproduction,
// Boundary.
func Standard(w World, cfg Config, deps Deps) []Law {
	return []Law{
		Inertia{},
		HarmonicResonance{},
		NewEntanglement(deps.Ledger),
		NewResonanceSpike(deps.Ledger),
		NewBrain(w, cfg.Brain, deps.Ledger, deps.Trials),
		NewReproduction(w, cfg.Reproduction, deps.Ledger, deps.Advisor),
		NewBoundary(cfg.Bounds),
	}
}
