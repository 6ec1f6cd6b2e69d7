package cognition

import "strings"

// Intent is one independent behavioural request from a decision.
type Intent uint8

const (
	IntentSeek Intent = 1 << iota
	IntentFlee
	IntentReproduce
	IntentMutate
	IntentConserve
	IntentEntangleSeek
	IntentEnergyBurst
	IntentEvolveDNA
)

var intentNames = []struct {
	intent Intent
	name   string
}{
	{IntentSeek, "SEEK"},
	{IntentFlee, "FLEE"},
	{IntentReproduce, "REPRODUCE"},
	{IntentMutate, "MUTATE"},
	{IntentConserve, "CONSERVE"},
	{IntentEntangleSeek, "ENTANGLE_SEEK"},
	{IntentEnergyBurst, "ENERGY_BURST"},
	{IntentEvolveDNA, "EVOLVE_DNA"},
}

// Intents is the set of intents produced by one decision. Intents are not
// exclusive; any combination may be set.
type Intents uint8

// Has reports whether i is requested.
func (s Intents) Has(i Intent) bool {
	return s&Intents(i) != 0
}

// With returns the set with i added.
func (s Intents) With(i Intent) Intents {
	return s | Intents(i)
}

// Empty reports whether nothing was requested.
func (s Intents) Empty() bool {
	return s == 0
}

// String joins the requested intent names with '+', or returns IDLE.
func (s Intents) String() string {
	if s.Empty() {
		return "IDLE"
	}
	var parts []string
	for _, in := range intentNames {
		if s.Has(in.intent) {
			parts = append(parts, in.name)
		}
	}
	return strings.Join(parts, "+")
}

// IntentsFromOutputs maps each output slot to its intent.
func IntentsFromOutputs(o Outputs) Intents {
	var s Intents
	for i, in := range intentNames {
		if o[i] {
			s = s.With(in.intent)
		}
	}
	return s
}
