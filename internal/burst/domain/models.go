// Package domain defines the sliding-window burst limiter contract. Burst
// events record request attempts, not successes; a failed generation still
// consumes burst budget.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrInvalidUser = errors.New("burst: user id is required")

// Event is one accepted request attempt. Append-only; entries age out of
// the trailing window logically, physical deletion is a store concern.
type Event struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    string       `gorm:"size:64;index:idx_burst_events_user_time,priority:1" json:"user_id"`
	CreatedAt time.Time    `gorm:"index:idx_burst_events_user_time,priority:2" json:"created_at"`
}

func (Event) TableName() string {
	return "burst_events"
}

// Snapshot is the burst decision taken at check time. ResetAt is zero on
// the allowed path and strictly in the future on rejection.
type Snapshot struct {
	Allowed bool      `json:"allowed"`
	Used    int64     `json:"used"`
	Limit   int       `json:"limit"`
	ResetAt time.Time `json:"reset_at,omitempty"`
}

// Store is the per-user timestamped event log.
type Store interface {
	CountSince(ctx context.Context, userID string, since time.Time) (int64, error)
	Append(ctx context.Context, userID string, at time.Time) error
}

// Service decides whether a request fits the tier's burst allowance and
// records the attempt when it does. Usage is the read-only view: it never
// appends an event.
type Service interface {
	Check(ctx context.Context, userID, tierName string) (Snapshot, error)
	Usage(ctx context.Context, userID, tierName string) (Snapshot, error)
}
