package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	accountdomain "github.com/shopbooks/shopbooks/internal/account/domain"
)

type createAccountRequest struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	NormalBalance string  `json:"normal_balance"`
	ParentID      *string `json:"parent_id"`
}

func (s *Server) CreateAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	parentID, ok := optionalID(c, req.ParentID)
	if !ok {
		return
	}

	account, err := s.accountSvc.Create(c.Request.Context(), accountdomain.CreateRequest{
		Code:          strings.TrimSpace(req.Code),
		Name:          strings.TrimSpace(req.Name),
		Type:          accountdomain.AccountType(req.Type),
		NormalBalance: accountdomain.NormalBalance(req.NormalBalance),
		ParentID:      parentID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (s *Server) GetAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	account, err := s.accountSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) ListAccounts(c *gin.Context) {
	filter := accountdomain.ListFilter{
		Type:       accountdomain.AccountType(c.Query("type")),
		ActiveOnly: c.Query("active") == "true",
	}
	accounts, err := s.accountSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": accounts})
}

func (s *Server) GetAccountBalance(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var asOf *time.Time
	if raw := strings.TrimSpace(c.Query("as_of")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_as_of"})
			return
		}
		asOf = &parsed
	}

	balance, err := s.accountSvc.GetBalance(c.Request.Context(), id, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": id.String(), "balance": balance})
}

func (s *Server) ReparentAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		ParentID *string `json:"parent_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	parentID, ok := optionalID(c, req.ParentID)
	if !ok {
		return
	}

	account, err := s.accountSvc.Reparent(c.Request.Context(), id, parentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (s *Server) DeactivateAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.accountSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) SeedAccounts(c *gin.Context) {
	created, err := s.accountSvc.SeedDefaultChart(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": created})
}

func (s *Server) ActivateAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.accountSvc.Activate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func optionalID(c *gin.Context, raw *string) (*snowflake.ID, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	id, err := snowflake.ParseString(strings.TrimSpace(*raw))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return nil, false
	}
	return &id, true
}
