package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	historydomain "github.com/strategen/strategen/internal/history/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) historydomain.Repository {
	return &repo{db: db}
}

func (r *repo) Insert(ctx context.Context, doc *historydomain.StrategyDocument) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *repo) List(ctx context.Context, userID string, limit int) ([]historydomain.StrategyDocument, error) {
	var docs []historydomain.StrategyDocument
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repo) FindByID(ctx context.Context, userID string, id snowflake.ID) (*historydomain.StrategyDocument, error) {
	var doc historydomain.StrategyDocument
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// SoftDelete marks the document deleted and reports whether a live row was
// hit. Gorm's DeletedAt keeps the row for audit; usage counters are not
// involved here at all.
func (r *repo) SoftDelete(ctx context.Context, userID string, id snowflake.ID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Delete(&historydomain.StrategyDocument{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
