package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	recurringdomain "github.com/shopbooks/shopbooks/internal/recurring/domain"
)

type recurringLineRequest struct {
	AccountID string          `json:"account_id"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
}

type createRecurringRequest struct {
	Name       string                 `json:"name"`
	Frequency  string                 `json:"frequency"`
	DayOfMonth int                    `json:"day_of_month"`
	Month      int                    `json:"month"`
	StartDate  string                 `json:"start_date"`
	EndDate    *string                `json:"end_date"`
	Lines      []recurringLineRequest `json:"lines"`
}

func (s *Server) CreateRecurring(c *gin.Context) {
	var req createRecurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	startDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.StartDate))
	if err != nil {
		AbortWithError(c, recurringdomain.ErrInvalidStartDate)
		return
	}
	var endDate *time.Time
	if req.EndDate != nil && strings.TrimSpace(*req.EndDate) != "" {
		parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*req.EndDate))
		if err != nil {
			AbortWithError(c, recurringdomain.ErrInvalidDateRange)
			return
		}
		endDate = &parsed
	}

	lines := make([]recurringdomain.LineInput, 0, len(req.Lines))
	for _, line := range req.Lines {
		raw := line.AccountID
		accountID, ok := optionalID(c, &raw)
		if !ok {
			return
		}
		if accountID == nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_account_id"})
			return
		}
		lines = append(lines, recurringdomain.LineInput{
			AccountID: *accountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}

	tmpl, err := s.recurringSvc.Create(c.Request.Context(), recurringdomain.CreateRequest{
		Name:       strings.TrimSpace(req.Name),
		Frequency:  recurringdomain.Frequency(req.Frequency),
		DayOfMonth: req.DayOfMonth,
		Month:      req.Month,
		StartDate:  startDate,
		EndDate:    endDate,
		Lines:      lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tmpl)
}

func (s *Server) GetRecurring(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	tmpl, err := s.recurringSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func (s *Server) DeactivateRecurring(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := s.recurringSvc.Deactivate(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) ListRecurringExecutions(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	executions, err := s.recurringSvc.ListExecutions(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": executions})
}
