package memory

import (
	"context"
	"time"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/contract"

	"github.com/google/uuid"
)

type runEventRepository struct {
	store *Store
}

func NewRunEventRepository(store *Store) contract.RunEventRepository {
	return &runEventRepository{store: store}
}

func (r *runEventRepository) Append(ctx context.Context, runId uuid.UUID, eventType string, payload map[string]interface{}) (*entity.RunEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	log := r.store.events[runId]
	var maxSeq int64
	if n := len(log); n > 0 {
		maxSeq = log[n-1].Seq
	}

	ev := &entity.RunEvent{
		Id:        uuid.New(),
		RunId:     runId,
		Seq:       maxSeq + 1,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	r.store.events[runId] = append(log, ev)

	c := *ev
	return &c, nil
}

func (r *runEventRepository) ReadSince(ctx context.Context, runId uuid.UUID, afterSeq int64) ([]*entity.RunEvent, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.RunEvent
	for _, ev := range r.store.events[runId] {
		if ev.Seq > afterSeq {
			c := *ev
			out = append(out, &c)
		}
	}
	return out, nil
}
