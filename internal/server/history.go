package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	historydomain "github.com/strategen/strategen/internal/history/domain"
)

func (s *Server) ListHistory(c *gin.Context) {
	docs, err := s.historySvc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if docs == nil {
		docs = []historydomain.StrategyDocument{}
	}
	c.JSON(http.StatusOK, gin.H{"strategies": docs})
}

func (s *Server) GetHistoryByID(c *gin.Context) {
	id, ok := parseDocumentID(c)
	if !ok {
		return
	}
	doc, err := s.historySvc.Get(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (s *Server) DeleteHistory(c *gin.Context) {
	id, ok := parseDocumentID(c)
	if !ok {
		return
	}
	if err := s.historySvc.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func parseDocumentID(c *gin.Context) (snowflake.ID, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid document id"))
		return 0, false
	}
	return snowflake.ID(parsed), true
}
