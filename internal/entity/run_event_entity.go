package entity

import (
	"time"

	"github.com/google/uuid"
)

// RunEvent is an append-only log entry. Seq is strictly increasing per run
// and serves as the resume cursor for streaming consumers.
type RunEvent struct {
	Id        uuid.UUID
	RunId     uuid.UUID
	Seq       int64
	Type      string
	Payload   map[string]interface{}
	CreatedAt time.Time
}
