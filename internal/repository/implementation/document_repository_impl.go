package implementation

import (
	"context"
	"errors"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DocumentRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentMapper
}

func NewDocumentRepository(db *gorm.DB) contract.DocumentRepository {
	return &DocumentRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentMapper(),
	}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, document *entity.Document) error {
	m := r.mapper.ToModel(document)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	document.CreatedAt = m.CreatedAt
	return nil
}

func (r *DocumentRepositoryImpl) Update(ctx context.Context, document *entity.Document) error {
	m := r.mapper.ToModel(document)
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *DocumentRepositoryImpl) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Document, error) {
	var models []*model.Document
	err := applySpecifications(r.db.WithContext(ctx).Preload("Sources"),
		specification.ByRunID{RunID: runId},
		specification.OrderBy{Field: "created_at"},
	).Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.Document, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DocumentRepositoryImpl) FindAllBySubtaskId(ctx context.Context, subtaskId uuid.UUID) ([]*entity.Document, error) {
	var models []*model.Document
	err := applySpecifications(r.db.WithContext(ctx).Preload("Sources"),
		specification.BySubtaskID{SubtaskID: subtaskId},
		specification.OrderBy{Field: "created_at"},
	).Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.Document, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *DocumentRepositoryImpl) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("run_id = ?", runId).Delete(&model.Document{}).Error
}

func (r *DocumentRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Document{}).Count(&count).Error
	return count, err
}

type SourceRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SourceMapper
}

func NewSourceRepository(db *gorm.DB) contract.SourceRepository {
	return &SourceRepositoryImpl{
		db:     db,
		mapper: mapper.NewSourceMapper(),
	}
}

func (r *SourceRepositoryImpl) Create(ctx context.Context, source *entity.Source) error {
	m := r.mapper.ToModel(source)
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *SourceRepositoryImpl) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	subQuery := r.db.Table("documents").Select("id").Where("run_id = ?", runId)
	return r.db.WithContext(ctx).Where("document_id IN (?)", subQuery).Delete(&model.Source{}).Error
}

type SummaryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SummaryMapper
}

func NewSummaryRepository(db *gorm.DB) contract.SummaryRepository {
	return &SummaryRepositoryImpl{
		db:     db,
		mapper: mapper.NewSummaryMapper(),
	}
}

func (r *SummaryRepositoryImpl) Create(ctx context.Context, summary *entity.Summary) error {
	m := r.mapper.ToModel(summary)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	summary.CreatedAt = m.CreatedAt
	return nil
}

func (r *SummaryRepositoryImpl) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Summary, error) {
	var models []*model.Summary
	err := applySpecifications(r.db.WithContext(ctx),
		specification.ByRunID{RunID: runId},
		specification.OrderBy{Field: "created_at"},
	).Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.Summary, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *SummaryRepositoryImpl) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("run_id = ?", runId).Delete(&model.Summary{}).Error
}

type FinalAnswerRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FinalAnswerMapper
}

func NewFinalAnswerRepository(db *gorm.DB) contract.FinalAnswerRepository {
	return &FinalAnswerRepositoryImpl{
		db:     db,
		mapper: mapper.NewFinalAnswerMapper(),
	}
}

func (r *FinalAnswerRepositoryImpl) Create(ctx context.Context, answer *entity.FinalAnswer) error {
	m := r.mapper.ToModel(answer)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	answer.CreatedAt = m.CreatedAt
	return nil
}

func (r *FinalAnswerRepositoryImpl) FindByRunId(ctx context.Context, runId uuid.UUID) (*entity.FinalAnswer, error) {
	var m model.FinalAnswer
	err := r.db.WithContext(ctx).Where("run_id = ?", runId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *FinalAnswerRepositoryImpl) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("run_id = ?", runId).Delete(&model.FinalAnswer{}).Error
}
