package memory

import (
	"sync"

	"ai-research-be/internal/entity"

	"github.com/google/uuid"
)

// Store is an in-memory substitute for the Postgres schema, shared by the
// per-contract repositories below. All access goes through mu.
type Store struct {
	mu sync.Mutex

	runs       map[uuid.UUID]*entity.Run
	steps      map[uuid.UUID]*entity.Step
	subtasks   map[uuid.UUID]*entity.Subtask
	documents  map[uuid.UUID]*entity.Document
	summaries  map[uuid.UUID]*entity.Summary
	answers    map[uuid.UUID]*entity.FinalAnswer
	events     map[uuid.UUID][]*entity.RunEvent
	embeddings map[uuid.UUID]*entity.DocumentEmbedding
	quotas     map[string]*entity.FetchQuota
}

func NewStore() *Store {
	return &Store{
		runs:       make(map[uuid.UUID]*entity.Run),
		steps:      make(map[uuid.UUID]*entity.Step),
		subtasks:   make(map[uuid.UUID]*entity.Subtask),
		documents:  make(map[uuid.UUID]*entity.Document),
		summaries:  make(map[uuid.UUID]*entity.Summary),
		answers:    make(map[uuid.UUID]*entity.FinalAnswer),
		events:     make(map[uuid.UUID][]*entity.RunEvent),
		embeddings: make(map[uuid.UUID]*entity.DocumentEmbedding),
		quotas:     make(map[string]*entity.FetchQuota),
	}
}

func cloneRun(r *entity.Run) *entity.Run {
	c := *r
	return &c
}

func cloneStep(s *entity.Step) *entity.Step {
	c := *s
	if s.Output != nil {
		c.Output = make(map[string]interface{}, len(s.Output))
		for k, v := range s.Output {
			c.Output[k] = v
		}
	}
	return &c
}

func cloneSubtask(s *entity.Subtask) *entity.Subtask {
	c := *s
	return &c
}

func cloneDocument(d *entity.Document) *entity.Document {
	c := *d
	if d.Sources != nil {
		c.Sources = make([]*entity.Source, len(d.Sources))
		for i, s := range d.Sources {
			sc := *s
			c.Sources[i] = &sc
		}
	}
	return &c
}
