package repository

import (
	"context"
	"errors"

	quotadomain "github.com/strategen/strategen/internal/quota/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type gormStore struct {
	db *gorm.DB
}

// NewGormStore returns the database-backed monthly counter.
func NewGormStore(db *gorm.DB) quotadomain.Store {
	return &gormStore{db: db}
}

// Current lazily resets a stale row with a single conditional UPDATE, then
// reads the count. Two requests racing through the rollover both issue the
// same guarded update; the second matches zero rows, so the reset is
// idempotent.
func (r *gormStore) Current(ctx context.Context, userID, month string) (int64, error) {
	err := r.db.WithContext(ctx).
		Model(&quotadomain.UsageRecord{}).
		Where("user_id = ? AND usage_month <> ?", userID, month).
		Updates(map[string]any{
			"usage_count": 0,
			"usage_month": month,
		}).Error
	if err != nil {
		return 0, err
	}

	var record quotadomain.UsageRecord
	err = r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return record.UsageCount, nil
}

// Increment bumps the counter in one month-guarded upsert. A row carried
// over from a previous month restarts at 1 instead of incrementing the
// stale count.
func (r *gormStore) Increment(ctx context.Context, userID, month string) (int64, error) {
	record := &quotadomain.UsageRecord{
		UserID:     userID,
		UsageCount: 1,
		UsageMonth: month,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"usage_count": gorm.Expr(
				"CASE WHEN usage_records.usage_month = ? THEN usage_records.usage_count + 1 ELSE 1 END",
				month,
			),
			"usage_month": month,
			"updated_at":  gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(record).Error
	if err != nil {
		return 0, err
	}

	return r.Current(ctx, userID, month)
}
