package memory

import (
	"context"
	"sort"
	"time"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/repository/contract"

	"github.com/google/uuid"
)

type runRepository struct {
	store *Store
}

func NewRunRepository(store *Store) contract.RunRepository {
	return &runRepository{store: store}
}

func (r *runRepository) Create(ctx context.Context, run *entity.Run) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if run.Id == uuid.Nil {
		run.Id = uuid.New()
	}
	now := time.Now()
	run.CreatedAt = now
	run.UpdatedAt = now
	r.store.runs[run.Id] = cloneRun(run)
	return nil
}

func (r *runRepository) Update(ctx context.Context, run *entity.Run) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	run.UpdatedAt = time.Now()
	r.store.runs[run.Id] = cloneRun(run)
	return nil
}

func (r *runRepository) FindById(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	run, ok := r.store.runs[id]
	if !ok {
		return nil, nil
	}
	return cloneRun(run), nil
}

func (r *runRepository) Count(ctx context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(r.store.runs)), nil
}

type stepRepository struct {
	store *Store
}

func NewStepRepository(store *Store) contract.StepRepository {
	return &stepRepository{store: store}
}

func (r *stepRepository) CreateBulk(ctx context.Context, steps []*entity.Step) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range steps {
		if s.Id == uuid.Nil {
			s.Id = uuid.New()
		}
		r.store.steps[s.Id] = cloneStep(s)
	}
	return nil
}

func (r *stepRepository) Update(ctx context.Context, step *entity.Step) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.steps[step.Id] = cloneStep(step)
	return nil
}

func (r *stepRepository) FindByRunAndIndex(ctx context.Context, runId uuid.UUID, index int) (*entity.Step, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range r.store.steps {
		if s.RunId == runId && s.Index == index {
			return cloneStep(s), nil
		}
	}
	return nil, nil
}

func (r *stepRepository) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Step, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Step
	for _, s := range r.store.steps {
		if s.RunId == runId {
			out = append(out, cloneStep(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

type subtaskRepository struct {
	store *Store
}

func NewSubtaskRepository(store *Store) contract.SubtaskRepository {
	return &subtaskRepository{store: store}
}

func (r *subtaskRepository) CreateBulk(ctx context.Context, subtasks []*entity.Subtask) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, s := range subtasks {
		if s.Id == uuid.Nil {
			s.Id = uuid.New()
		}
		r.store.subtasks[s.Id] = cloneSubtask(s)
	}
	return nil
}

func (r *subtaskRepository) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, s := range r.store.subtasks {
		if s.RunId == runId {
			delete(r.store.subtasks, id)
		}
	}
	return nil
}

func (r *subtaskRepository) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Subtask, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*entity.Subtask
	for _, s := range r.store.subtasks {
		if s.RunId == runId {
			out = append(out, cloneSubtask(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}
