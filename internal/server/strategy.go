package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	admissiondomain "github.com/strategen/strategen/internal/admission/domain"
	"github.com/strategen/strategen/internal/generation"
)

type generateStrategyResponse struct {
	Success        bool                   `json:"success"`
	Strategy       generation.Document    `json:"strategy,omitempty"`
	Cached         bool                   `json:"cached"`
	GenerationTime float64                `json:"generation_time"`
	DocumentID     string                 `json:"document_id,omitempty"`
	Usage          usageResponse          `json:"usage"`
	Message        string                 `json:"message,omitempty"`
	Reason         admissiondomain.Reason `json:"reason,omitempty"`
	ResetAt        string                 `json:"reset_at,omitempty"`
}

func (s *Server) GenerateStrategy(c *gin.Context) {
	var input generation.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.admissionSvc.RequestGeneration(c.Request.Context(), admissiondomain.Request{
		UserID: currentUserID(c),
		Tier:   currentTier(c),
		Input:  input,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(statusForResult(result), buildStrategyResponse(result))
}

func statusForResult(result admissiondomain.Result) int {
	switch result.Status {
	case admissiondomain.StatusAdmitted:
		return http.StatusOK
	case admissiondomain.StatusRejected:
		return http.StatusTooManyRequests
	default:
		if result.Reason == admissiondomain.ReasonBackendUnavailable {
			return http.StatusBadGateway
		}
		return http.StatusInternalServerError
	}
}

func buildStrategyResponse(result admissiondomain.Result) generateStrategyResponse {
	resp := generateStrategyResponse{
		Success:        result.Admitted(),
		Strategy:       result.Payload,
		Cached:         result.Cached,
		GenerationTime: result.GenerationTime,
		Usage: usageResponse{
			Monthly: result.Monthly,
			Burst:   result.Burst,
		},
		Message: result.Message,
		Reason:  result.Reason,
	}
	if result.DocumentID != 0 {
		resp.DocumentID = result.DocumentID.String()
	}
	if !result.ResetAt.IsZero() {
		resp.ResetAt = result.ResetAt.UTC().Format(time.RFC3339)
	}
	return resp
}
