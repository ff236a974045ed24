package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/strategen/strategen/internal/observability/context"
	"github.com/strategen/strategen/internal/tier"
)

// Identity headers. Authentication happens at the gateway; this service
// trusts the forwarded identity.
const (
	HeaderUserID = "X-User-Id"
	HeaderTier   = "X-User-Tier"

	contextUserIDKey = "user_id"
	contextTierKey   = "tier"
)

func (s *Server) IdentityRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		tierName := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderTier)))
		if tierName == "" {
			tierName = tier.Free
		}

		c.Set(contextUserIDKey, userID)
		c.Set(contextTierKey, tierName)

		ctx := obscontext.WithUserID(c.Request.Context(), userID)
		ctx = obscontext.WithTier(ctx, tierName)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func currentUserID(c *gin.Context) string {
	return c.GetString(contextUserIDKey)
}

func currentTier(c *gin.Context) string {
	return c.GetString(contextTierKey)
}
