package unitofwork

import (
	"context"

	"ai-research-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	RunRepository() contract.RunRepository
	StepRepository() contract.StepRepository
	SubtaskRepository() contract.SubtaskRepository
	DocumentRepository() contract.DocumentRepository
	SourceRepository() contract.SourceRepository
	SummaryRepository() contract.SummaryRepository
	FinalAnswerRepository() contract.FinalAnswerRepository
	RunEventRepository() contract.RunEventRepository
	DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository
	FetchQuotaRepository() contract.FetchQuotaRepository
}
