package implementation

import (
	"context"
	"errors"

	"ai-research-be/internal/entity"
	"ai-research-be/internal/model"
	"ai-research-be/internal/repository/contract"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type FetchQuotaRepositoryImpl struct {
	db *gorm.DB
}

func NewFetchQuotaRepository(db *gorm.DB) contract.FetchQuotaRepository {
	return &FetchQuotaRepositoryImpl{db: db}
}

func (r *FetchQuotaRepositoryImpl) Get(ctx context.Context, day string) (*entity.FetchQuota, error) {
	var m model.FetchQuota
	if err := r.db.WithContext(ctx).First(&m, "day = ?", day).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entity.FetchQuota{
		Day:       m.Day,
		Count:     m.Count,
		Tokens:    m.Tokens,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// Consume guarantees the day's row exists, then increments the counters with a
// single conditional UPDATE. RowsAffected == 0 means a limit would be crossed,
// so the caller must fall back without consuming anything.
func (r *FetchQuotaRepositoryImpl) Consume(ctx context.Context, day string, requests, tokens, maxCount, maxTokens int) (bool, error) {
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.FetchQuota{Day: day}).Error; err != nil {
		return false, err
	}

	res := r.db.WithContext(ctx).Model(&model.FetchQuota{}).
		Where("day = ? AND request_count + ? <= ? AND token_estimate + ? <= ?",
			day, requests, maxCount, tokens, maxTokens).
		Updates(map[string]interface{}{
			"request_count":  gorm.Expr("request_count + ?", requests),
			"token_estimate": gorm.Expr("token_estimate + ?", tokens),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
