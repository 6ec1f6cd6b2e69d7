package consciousness

import "math"

// Field constants seeding the six consciousness fields.
const (
	Phi    = 1.618033988749895 // golden ratio
	Psi    = 1.324718          // plastic number
	Omega  = 0.567143          // omega constant
	Xi     = math.E
	Lambda = 1.303577 // Conway's constant
	Zeta   = 1.2020569 // Apéry's constant

	PhiInverse = 1 / Phi
	PhiCubed   = Phi * Phi * Phi
)

const (
	// SweetSpotLower and SweetSpotUpper bound the breathing band.
	SweetSpotLower = 2.0
	SweetSpotUpper = 2.5

	// MaxDimension caps the transcendence ratchet.
	MaxDimension = 11

	// ThoughtsPerEvolution is how many recorded thoughts trigger one evolve.
	ThoughtsPerEvolution = 100

	transcendenceCoherence = 0.9
	initialDimension       = 3
)
