package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	reconciliationdomain "github.com/shopbooks/shopbooks/internal/reconciliation/domain"
)

type importStatementRequest struct {
	AccountID     string          `json:"account_id"`
	BankReference string          `json:"bank_reference"`
	StatementDate string          `json:"statement_date"`
	Amount        decimal.Decimal `json:"amount"`
}

func (s *Server) ImportStatementLine(c *gin.Context) {
	var req importStatementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	raw := req.AccountID
	accountID, ok := optionalID(c, &raw)
	if !ok {
		return
	}
	if accountID == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_account_id"})
		return
	}

	statementDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.StatementDate))
	if err != nil {
		AbortWithError(c, reconciliationdomain.ErrInvalidStatementDate)
		return
	}

	rec, err := s.reconciliationSvc.ImportStatementLine(c.Request.Context(), reconciliationdomain.ImportRequest{
		AccountID:     *accountID,
		BankReference: strings.TrimSpace(req.BankReference),
		StatementDate: statementDate,
		Amount:        req.Amount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (s *Server) MatchReconciliation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		JournalLineID string `json:"journal_line_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	raw := req.JournalLineID
	lineID, ok := optionalID(c, &raw)
	if !ok {
		return
	}
	if lineID == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_journal_line_id"})
		return
	}

	rec, err := s.reconciliationSvc.Match(c.Request.Context(), id, *lineID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) SuggestReconciliationMatches(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	window := time.Duration(0)
	if raw := strings.TrimSpace(c.Query("window_days")); raw != "" {
		parsed, err := time.ParseDuration(raw + "h")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_window"})
			return
		}
		window = parsed * 24
	}

	candidates, err := s.reconciliationSvc.SuggestMatches(c.Request.Context(), id, window)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": candidates})
}

func (s *Server) ReconcileStatement(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		OpeningBalance decimal.Decimal `json:"opening_balance"`
		ClosingBalance decimal.Decimal `json:"closing_balance"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	rec, err := s.reconciliationSvc.Reconcile(c.Request.Context(), id, req.OpeningBalance, req.ClosingBalance, s.actorID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) ListReconciliations(c *gin.Context) {
	filter := reconciliationdomain.ListFilter{
		Status: reconciliationdomain.Status(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("account_id")); raw != "" {
		accountID, ok := optionalID(c, &raw)
		if !ok {
			return
		}
		filter.AccountID = *accountID
	}

	recs, err := s.reconciliationSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": recs})
}
