// Package domain defines the admission pipeline contract: the single entry
// point every generation request passes through, and its discriminated
// outcome.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	"github.com/strategen/strategen/internal/generation"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
)

var ErrInvalidUser = errors.New("admission: user id is required")

type Status string

const (
	StatusAdmitted Status = "admitted"
	StatusRejected Status = "rejected"
	StatusFailed   Status = "failed"
)

type Reason string

const (
	ReasonMonthlyExceeded    Reason = "monthly_exceeded"
	ReasonBurstExceeded      Reason = "burst_exceeded"
	ReasonBackendUnavailable Reason = "backend_unavailable"
	ReasonPersistenceFailure Reason = "persistence_failure"
)

// Request is one generation attempt entering the pipeline.
type Request struct {
	UserID string
	Tier   string
	Input  generation.Input
}

// Result is the pipeline outcome. Status discriminates the fields: an
// admitted result carries the payload and snapshots; a rejected result
// carries the reason, message and, for burst rejections, ResetAt; a failed
// result carries the reason only. Snapshots are taken at check time so the
// caller can show remaining quota without a second round trip.
type Result struct {
	Status         Status               `json:"status"`
	Reason         Reason               `json:"reason,omitempty"`
	Message        string               `json:"message,omitempty"`
	Payload        generation.Document  `json:"payload,omitempty"`
	DocumentID     snowflake.ID         `json:"document_id,string,omitempty"`
	Cached         bool                 `json:"cached"`
	GenerationTime float64              `json:"generation_time"`
	Monthly        quotadomain.Snapshot `json:"monthly"`
	Burst          burstdomain.Snapshot `json:"burst"`
	ResetAt        time.Time            `json:"reset_at,omitempty"`
}

func (r Result) Admitted() bool { return r.Status == StatusAdmitted }

// Service orchestrates monthly check, burst check, cache probe, generation,
// persistence and usage accounting for one request.
type Service interface {
	RequestGeneration(ctx context.Context, req Request) (Result, error)
}
