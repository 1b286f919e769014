package implementation

import (
	"context"
	"encoding/json"
	"time"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/mapper"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"
	"ai-research-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RunEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.RunEventMapper
}

func NewRunEventRepository(db *gorm.DB) contract.RunEventRepository {
	return &RunEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewRunEventMapper(),
	}
}

// Append serializes seq assignment by locking the run row for the duration of
// the max(seq)+1 computation. Nested inside an active transaction this becomes
// a savepoint, so callers inside a unit of work keep their atomicity.
func (r *RunEventRepositoryImpl) Append(ctx context.Context, runId uuid.UUID, eventType string, payload map[string]interface{}) (*entity.RunEvent, error) {
	var payloadJson datatypes.JSON
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadJson = datatypes.JSON(b)
	}

	ev := &model.RunEvent{
		Id:        uuid.New(),
		RunId:     runId,
		Type:      eventType,
		Payload:   payloadJson,
		CreatedAt: time.Now(),
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var run model.Run
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&run, "id = ?", runId).Error; err != nil {
			return err
		}

		var maxSeq int64
		if err := tx.Model(&model.RunEvent{}).
			Where("run_id = ?", runId).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}

		ev.Seq = maxSeq + 1
		return tx.Create(ev).Error
	})
	if err != nil {
		return nil, err
	}

	return r.mapper.ToEntity(ev), nil
}

func (r *RunEventRepositoryImpl) ReadSince(ctx context.Context, runId uuid.UUID, afterSeq int64) ([]*entity.RunEvent, error) {
	var models []*model.RunEvent
	err := applySpecifications(r.db.WithContext(ctx),
		specification.ByRunID{RunID: runId},
		specification.SeqAfter{Seq: afterSeq},
		specification.OrderBy{Field: "seq"},
	).Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}
