package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"gorm.io/gorm"
)

type gormStore struct {
	db   *gorm.DB
	node *snowflake.Node
}

// NewGormStore returns the database-backed event log. Rows are never
// deleted here; the count filters by timestamp, so stale rows are inert.
func NewGormStore(db *gorm.DB, node *snowflake.Node) burstdomain.Store {
	return &gormStore{db: db, node: node}
}

func (r *gormStore) CountSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&burstdomain.Event{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *gormStore) Append(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).Create(&burstdomain.Event{
		ID:        r.node.Generate(),
		UserID:    userID,
		CreatedAt: at,
	}).Error
}
