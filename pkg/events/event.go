package events

import "time"

// Event is the contract for everything that crosses the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g. "run.completed").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewRunEvent wraps a persisted run-log entry for bus fan-out. Seq and run id
// travel in the payload so stream consumers can resume by cursor.
func NewRunEvent(eventType, runId string, seq int64, payload map[string]interface{}) Event {
	data := map[string]interface{}{
		"run_id": runId,
		"seq":    seq,
		"type":   eventType,
	}
	if payload != nil {
		data["payload"] = payload
	}
	return BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
}
