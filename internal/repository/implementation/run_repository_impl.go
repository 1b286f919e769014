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

type RunRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RunMapper
}

func NewRunRepository(db *gorm.DB) contract.RunRepository {
	return &RunRepositoryImpl{
		db:     db,
		mapper: mapper.NewRunMapper(),
	}
}

func (r *RunRepositoryImpl) Create(ctx context.Context, run *entity.Run) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *RunRepositoryImpl) Update(ctx context.Context, run *entity.Run) error {
	m := r.mapper.ToModel(run)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*run = *r.mapper.ToEntity(m)
	return nil
}

func (r *RunRepositoryImpl) FindById(ctx context.Context, id uuid.UUID) (*entity.Run, error) {
	var m model.Run
	if err := applySpecifications(r.db.WithContext(ctx), specification.ByID{ID: id}).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *RunRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Run{}).Count(&count).Error
	return count, err
}

type StepRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StepMapper
}

func NewStepRepository(db *gorm.DB) contract.StepRepository {
	return &StepRepositoryImpl{
		db:     db,
		mapper: mapper.NewStepMapper(),
	}
}

func (r *StepRepositoryImpl) CreateBulk(ctx context.Context, steps []*entity.Step) error {
	models := make([]*model.Step, len(steps))
	for i, s := range steps {
		models[i] = r.mapper.ToModel(s)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*steps[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *StepRepositoryImpl) Update(ctx context.Context, step *entity.Step) error {
	m := r.mapper.ToModel(step)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*step = *r.mapper.ToEntity(m)
	return nil
}

func (r *StepRepositoryImpl) FindByRunAndIndex(ctx context.Context, runId uuid.UUID, index int) (*entity.Step, error) {
	var m model.Step
	err := applySpecifications(r.db.WithContext(ctx),
		specification.ByRunID{RunID: runId},
		specification.ByStepIndex{Index: index},
	).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *StepRepositoryImpl) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Step, error) {
	var models []*model.Step
	err := applySpecifications(r.db.WithContext(ctx),
		specification.ByRunID{RunID: runId},
		specification.OrderBy{Field: "step_index"},
	).Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.Step, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

type SubtaskRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubtaskMapper
}

func NewSubtaskRepository(db *gorm.DB) contract.SubtaskRepository {
	return &SubtaskRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubtaskMapper(),
	}
}

func (r *SubtaskRepositoryImpl) CreateBulk(ctx context.Context, subtasks []*entity.Subtask) error {
	if len(subtasks) == 0 {
		return nil
	}
	models := r.mapper.ToModels(subtasks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*subtasks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *SubtaskRepositoryImpl) DeleteByRunId(ctx context.Context, runId uuid.UUID) error {
	return r.db.WithContext(ctx).Where("run_id = ?", runId).Delete(&model.Subtask{}).Error
}

func (r *SubtaskRepositoryImpl) FindAllByRunId(ctx context.Context, runId uuid.UUID) ([]*entity.Subtask, error) {
	var models []*model.Subtask
	err := applySpecifications(r.db.WithContext(ctx),
		specification.ByRunID{RunID: runId},
		specification.OrderBy{Field: "task_order"},
	).Find(&models).Error
	if err != nil {
		return nil, err
	}
	entities := make([]*entity.Subtask, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
