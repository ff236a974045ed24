// Package domain defines persisted strategy documents. Deleting a document
// is a soft delete and never touches usage counters.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrInvalidUser = errors.New("history: user id is required")
	ErrNotFound    = errors.New("history: document not found")
)

// StrategyDocument is one generated strategy kept for the user's history.
// Payload holds the full generated document; the six input fields are kept
// alongside so listings don't need to unpack it.
type StrategyDocument struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID         string            `gorm:"size:64;index" json:"user_id"`
	Goal           string            `gorm:"size:255" json:"goal"`
	Audience       string            `gorm:"size:255" json:"audience"`
	Industry       string            `gorm:"size:255" json:"industry"`
	Platform       string            `gorm:"size:64" json:"platform"`
	ContentType    string            `gorm:"size:64" json:"content_type"`
	Experience     string            `gorm:"size:64" json:"experience"`
	Fingerprint    string            `gorm:"size:64;index" json:"fingerprint"`
	Payload        datatypes.JSONMap `json:"payload"`
	GenerationTime float64           `json:"generation_time"`
	CreatedAt      time.Time         `json:"created_at"`
	DeletedAt      gorm.DeletedAt    `gorm:"index" json:"-"`
}

func (StrategyDocument) TableName() string {
	return "strategy_documents"
}

// Repository is the durable document store.
type Repository interface {
	Insert(ctx context.Context, doc *StrategyDocument) error
	List(ctx context.Context, userID string, limit int) ([]StrategyDocument, error)
	FindByID(ctx context.Context, userID string, id snowflake.ID) (*StrategyDocument, error)
	SoftDelete(ctx context.Context, userID string, id snowflake.ID) (bool, error)
}

// Service exposes history operations to the pipeline and the HTTP layer.
type Service interface {
	Save(ctx context.Context, doc *StrategyDocument) error
	List(ctx context.Context, userID string) ([]StrategyDocument, error)
	Get(ctx context.Context, userID string, id snowflake.ID) (*StrategyDocument, error)
	Delete(ctx context.Context, userID string, id snowflake.ID) error
}
