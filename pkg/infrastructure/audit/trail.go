// Package audit records what happened during a batch run as an ordered
// event stream per batch. The trail supplements the allocation ledger:
// the ledger holds the quantities, the trail holds the narrative a
// customs reviewer walks through.
package audit

import (
	"sync"
	"time"
)

// Event types emitted by a batch run.
const (
	RequirementsBuilt       = "requirements.built"
	AllocationRecorded      = "allocation.recorded"
	RequirementCompleted    = "requirement.completed"
	RequirementInsufficient = "requirement.insufficient"
	VerdictComputed         = "verdict.computed"
	SKUFailed               = "sku.failed"
)

// Event is one entry in a batch's audit stream. Version is assigned by
// the trail on record, strictly increasing per batch.
type Event struct {
	Type    string
	BatchID string
	SKUCode string
	Detail  string
	At      time.Time
	Version int
}

// Recorder accepts audit events. Record must be safe for concurrent use.
type Recorder interface {
	Record(event Event)
}

// Trail is an in-memory, append-only audit store keyed by batch.
type Trail struct {
	mu      sync.RWMutex
	streams map[string][]Event
}

// NewTrail creates an empty audit trail.
func NewTrail() *Trail {
	return &Trail{streams: make(map[string][]Event)}
}

var _ Recorder = (*Trail)(nil)

// Record appends an event to its batch's stream and assigns its version.
func (t *Trail) Record(event Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	event.Version = len(t.streams[event.BatchID]) + 1
	t.streams[event.BatchID] = append(t.streams[event.BatchID], event)
}

// Events returns a copy of one batch's stream in record order.
func (t *Trail) Events(batchID string) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stream := t.streams[batchID]
	out := make([]Event, len(stream))
	copy(out, stream)
	return out
}

// EventsOfType filters one batch's stream by event type.
func (t *Trail) EventsOfType(batchID, eventType string) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []Event
	for _, event := range t.streams[batchID] {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}
