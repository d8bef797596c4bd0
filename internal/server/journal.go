package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
)

type journalLineRequest struct {
	AccountID string          `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo"`
}

type createDraftRequest struct {
	Reference   string               `json:"reference"`
	Date        string               `json:"date"`
	Description string               `json:"description"`
	Lines       []journalLineRequest `json:"lines"`
}

func (s *Server) CreateDraftEntry(c *gin.Context) {
	var req createDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		AbortWithError(c, journaldomain.ErrInvalidDate)
		return
	}

	lines, ok := s.bindLines(c, req.Lines)
	if !ok {
		return
	}

	entry, err := s.journalSvc.CreateDraft(c.Request.Context(), journaldomain.CreateDraftRequest{
		Reference:   strings.TrimSpace(req.Reference),
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Lines:       lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (s *Server) PostEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entry, err := s.journalSvc.Post(c.Request.Context(), id, s.actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) VoidEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	reversal, err := s.journalSvc.Void(c.Request.Context(), id, strings.TrimSpace(req.Reason), s.actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, reversal)
}

func (s *Server) DiscardDraftEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.journalSvc.DiscardDraft(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) GetEntry(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	entry, err := s.journalSvc.GetEntry(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (s *Server) ListEntries(c *gin.Context) {
	filter := journaldomain.ListFilter{
		Status:    journaldomain.EntryStatus(c.Query("status")),
		Reference: strings.TrimSpace(c.Query("reference")),
	}
	if raw := strings.TrimSpace(c.Query("account_id")); raw != "" {
		accountID, ok := optionalID(c, &raw)
		if !ok {
			return
		}
		filter.AccountID = *accountID
	}

	entries, err := s.journalSvc.ListEntries(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) bindLines(c *gin.Context, reqs []journalLineRequest) ([]journaldomain.LineInput, bool) {
	lines := make([]journaldomain.LineInput, 0, len(reqs))
	for _, line := range reqs {
		raw := line.AccountID
		accountID, ok := optionalID(c, &raw)
		if !ok {
			return nil, false
		}
		if accountID == nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_account_id"})
			return nil, false
		}
		lines = append(lines, journaldomain.LineInput{
			AccountID: *accountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
			Memo:      strings.TrimSpace(line.Memo),
		})
	}
	return lines, true
}
