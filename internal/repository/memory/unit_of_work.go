package memory

import (
	"context"

	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/unitofwork"
)

// UnitOfWork over the in-memory store. Begin/Commit/Rollback are no-ops since
// the store mutates under a single mutex; repositories share the same Store.
type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(store *Store) unitofwork.UnitOfWork {
	return &UnitOfWork{store: store}
}

func (u *UnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *UnitOfWork) Commit() error                   { return nil }
func (u *UnitOfWork) Rollback() error                 { return nil }

func (u *UnitOfWork) RunRepository() contract.RunRepository {
	return NewRunRepository(u.store)
}

func (u *UnitOfWork) StepRepository() contract.StepRepository {
	return NewStepRepository(u.store)
}

func (u *UnitOfWork) SubtaskRepository() contract.SubtaskRepository {
	return NewSubtaskRepository(u.store)
}

func (u *UnitOfWork) DocumentRepository() contract.DocumentRepository {
	return NewDocumentRepository(u.store)
}

func (u *UnitOfWork) SourceRepository() contract.SourceRepository {
	return NewSourceRepository(u.store)
}

func (u *UnitOfWork) SummaryRepository() contract.SummaryRepository {
	return NewSummaryRepository(u.store)
}

func (u *UnitOfWork) FinalAnswerRepository() contract.FinalAnswerRepository {
	return NewFinalAnswerRepository(u.store)
}

func (u *UnitOfWork) RunEventRepository() contract.RunEventRepository {
	return NewRunEventRepository(u.store)
}

func (u *UnitOfWork) DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository {
	return NewDocumentEmbeddingRepository(u.store)
}

func (u *UnitOfWork) FetchQuotaRepository() contract.FetchQuotaRepository {
	return NewFetchQuotaRepository(u.store)
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return NewUnitOfWork(f.store)
}
