package contract

import (
	"context"

	"ai-research-be/internal/entity"

	"github.com/google/uuid"
)

type DocumentRepository interface {
	Create(ctx context.Context, document *entity.Document) error
	Update(ctx context.Context, document *entity.Document) error
	// FindAllByRunId returns documents with sources preloaded, ordered by creation.
	FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Document, error)
	FindAllBySubtaskId(ctx context.Context, subtaskId uuid.UUID) ([]*entity.Document, error)
	DeleteByRunId(ctx context.Context, runId uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

type SourceRepository interface {
	Create(ctx context.Context, source *entity.Source) error
	// DeleteByRunId removes sources of all documents belonging to the run.
	DeleteByRunId(ctx context.Context, runId uuid.UUID) error
}

type SummaryRepository interface {
	Create(ctx context.Context, summary *entity.Summary) error
	FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Summary, error)
	DeleteByRunId(ctx context.Context, runId uuid.UUID) error
}

type FinalAnswerRepository interface {
	Create(ctx context.Context, answer *entity.FinalAnswer) error
	// FindByRunId returns nil when the run has no answer yet.
	FindByRunId(ctx context.Context, runId uuid.UUID) (*entity.FinalAnswer, error)
	DeleteByRunId(ctx context.Context, runId uuid.UUID) error
}
