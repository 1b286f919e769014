package contract

import (
	"context"

	"ai-research-be/internal/entity"

	"github.com/google/uuid"
)

type RunRepository interface {
	Create(ctx context.Context, run *entity.Run) error
	Update(ctx context.Context, run *entity.Run) error
	FindById(ctx context.Context, id uuid.UUID) (*entity.Run, error)
	Count(ctx context.Context) (int64, error)
}

type StepRepository interface {
	CreateBulk(ctx context.Context, steps []*entity.Step) error
	Update(ctx context.Context, step *entity.Step) error
	FindByRunAndIndex(ctx context.Context, runId uuid.UUID, index int) (*entity.Step, error)
	// FindAllByRunId returns steps ordered by index.
	FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Step, error)
}

type SubtaskRepository interface {
	CreateBulk(ctx context.Context, subtasks []*entity.Subtask) error
	DeleteByRunId(ctx context.Context, runId uuid.UUID) error
	// FindAllByRunId returns subtasks ordered by their stable order.
	FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Subtask, error)
}
