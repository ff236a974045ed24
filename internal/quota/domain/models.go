// Package domain contains the monthly entitlement counter model and
// contracts. One UsageRecord exists per user; the count lazily resets when
// the stored month differs from the current calendar month at check time.
package domain

import (
	"context"
	"errors"
	"time"
)

// UsageRecord tracks successful generations for one user in one calendar
// month. usage_count never decreases within a month; deleting generated
// documents must not touch it.
type UsageRecord struct {
	UserID     string    `gorm:"primaryKey;type:text"`
	UsageCount int64     `gorm:"not null;default:0"`
	UsageMonth string    `gorm:"type:text;not null;index"`
	UpdatedAt  time.Time `gorm:"not null"`
}

// TableName sets the database table name.
func (UsageRecord) TableName() string { return "usage_records" }

// Snapshot is the monthly usage view returned with every admission decision.
// Limit is nil for unlimited tiers.
type Snapshot struct {
	Allowed bool   `json:"allowed"`
	Used    int64  `json:"used"`
	Limit   *int   `json:"limit"`
	Month   string `json:"month"`
}

// Store is the durable per-user counter keyed by (user, calendar month).
// Both operations must be single round trips on the backing store; the
// lazy month reset and the increment are conditional writes, never
// read-modify-write.
type Store interface {
	Current(ctx context.Context, userID, month string) (int64, error)
	Increment(ctx context.Context, userID, month string) (int64, error)
}

// Service is the monthly limiter. Check never increments; Increment is
// called by the admission pipeline only after a generation succeeded and
// was persisted.
type Service interface {
	Check(ctx context.Context, userID, tierName string) (Snapshot, error)
	Increment(ctx context.Context, userID string) error
}

var ErrInvalidUser = errors.New("invalid_user")

// MonthKey formats the calendar month used for lazy resets.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
