package contract

import (
	"context"

	"ai-research-be/internal/entity"

	"github.com/google/uuid"
)

type RunEventRepository interface {
	// Append assigns the next per-run sequence number and persists the event.
	// Seq assignment must be race-free under concurrent writers.
	Append(ctx context.Context, runId uuid.UUID, eventType string, payload map[string]interface{}) (*entity.RunEvent, error)
	// ReadSince returns events with seq > afterSeq, ordered by seq.
	ReadSince(ctx context.Context, runId uuid.UUID, afterSeq int64) ([]*entity.RunEvent, error)
}
