// Package bus provides the in-process event bus that carries ledger blocks,
// tick samples and console activity from the simulation thread to
// persistence, metrics and external viewers.
package bus

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies what an event carries.
type EventType string

const (
	// EventBlock carries one ledger block.
	EventBlock EventType = "ledger_block"

	// EventTick carries a periodic world sample.
	EventTick EventType = "tick"

	// EventCommand carries a console command and its outcome.
	EventCommand EventType = "command"

	// EventLifecycle marks host start and stop.
	EventLifecycle EventType = "lifecycle"
)

// Event is a single message on the bus.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`

	// Simulation tick the event was produced on.
	Tick int64 `json:"tick"`

	// Ledger block fields.
	Index    int64  `json:"index,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Data     string `json:"data,omitempty"`
	Hash     string `json:"hash,omitempty"`
	PrevHash string `json:"prev_hash,omitempty"`

	// Node the event concerns, if any.
	Node string `json:"node,omitempty"`

	// Numeric samples for tick events.
	Values map[string]float64 `json:"values,omitempty"`

	// Free-form detail (command line, lifecycle phase).
	Details string `json:"details,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewEvent creates an event with a fresh ID and the current UTC time.
func NewEvent(eventType EventType) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
	}
}
