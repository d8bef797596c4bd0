package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	auditdomain "github.com/shopbooks/shopbooks/internal/audit/domain"
	"github.com/shopbooks/shopbooks/internal/shopcontext"
)

func (s *Server) ListAuditLogs(c *gin.Context) {
	shopID, ok := shopcontext.ShopIDFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_shop_id"})
		return
	}

	filter := auditdomain.ListFilter{
		ShopID:     shopID,
		Action:     strings.TrimSpace(c.Query("action")),
		TargetType: strings.TrimSpace(c.Query("target_type")),
		TargetID:   strings.TrimSpace(c.Query("target_id")),
	}
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_limit"})
			return
		}
		filter.Limit = limit
	}

	logs, err := s.auditSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
