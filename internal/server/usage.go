package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	burstdomain "github.com/strategen/strategen/internal/burst/domain"
	quotadomain "github.com/strategen/strategen/internal/quota/domain"
)

type usageResponse struct {
	Monthly quotadomain.Snapshot `json:"monthly"`
	Burst   burstdomain.Snapshot `json:"burst"`
}

// GetUsage returns both usage snapshots without consuming anything: the
// burst view here is read-only, unlike the admission path.
func (s *Server) GetUsage(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)
	tierName := currentTier(c)

	monthly, err := s.quotaSvc.Check(ctx, userID, tierName)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	burst, err := s.burstSvc.Usage(ctx, userID, tierName)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, usageResponse{Monthly: monthly, Burst: burst})
}
