package node

import "github.com/eyeoverthink/phiworld/internal/cognition"

// Role is a colony specialization assigned by the colony coach.
type Role int

const (
	RoleNone Role = iota
	RoleLogicGate
	RoleMathProcessor
	RoleCircuitBuilder
	RoleMemoryKeeper
	RoleCommunicator
)

// Roles lists the assignable roles.
var Roles = []Role{RoleLogicGate, RoleMathProcessor, RoleCircuitBuilder, RoleMemoryKeeper, RoleCommunicator}

// SpecializationBonus is the energy per second granted while a node acts on
// its role's affinity.
const SpecializationBonus = 0.02

func (r Role) String() string {
	switch r {
	case RoleLogicGate:
		return "Logic Gate"
	case RoleMathProcessor:
		return "Math Processor"
	case RoleCircuitBuilder:
		return "Circuit Builder"
	case RoleMemoryKeeper:
		return "Memory Keeper"
	case RoleCommunicator:
		return "Communicator"
	default:
		return "Unassigned"
	}
}

// Affinity is the intent a role is rewarded for.
func (r Role) Affinity() (cognition.Intent, bool) {
	switch r {
	case RoleLogicGate:
		return cognition.IntentMutate, true
	case RoleMathProcessor:
		return cognition.IntentEvolveDNA, true
	case RoleCircuitBuilder:
		return cognition.IntentReproduce, true
	case RoleMemoryKeeper:
		return cognition.IntentConserve, true
	case RoleCommunicator:
		return cognition.IntentEntangleSeek, true
	default:
		return 0, false
	}
}

// Matches reports whether intents include the role's affinity.
func (r Role) Matches(intents cognition.Intents) bool {
	in, ok := r.Affinity()
	return ok && intents.Has(in)
}

// Bonus returns the energy bonus for one decision over dt seconds.
func (r Role) Bonus(intents cognition.Intents, dt float64) float64 {
	if !r.Matches(intents) {
		return 0
	}
	return SpecializationBonus * dt
}
