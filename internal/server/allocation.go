package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	allocationdomain "github.com/shopbooks/shopbooks/internal/allocation/domain"
)

type allocationSplitRequest struct {
	CostCenterID string           `json:"cost_center_id"`
	Amount       *decimal.Decimal `json:"amount"`
	Percentage   *decimal.Decimal `json:"percentage"`
}

type allocateRequest struct {
	JournalLineID string                   `json:"journal_line_id"`
	Splits        []allocationSplitRequest `json:"splits"`
}

func (s *Server) AllocateLine(c *gin.Context) {
	var req allocateRequest
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

	splits := make([]allocationdomain.SplitInput, 0, len(req.Splits))
	for _, split := range req.Splits {
		ccRaw := split.CostCenterID
		costCenterID, ok := optionalID(c, &ccRaw)
		if !ok {
			return
		}
		if costCenterID == nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing_cost_center_id"})
			return
		}
		splits = append(splits, allocationdomain.SplitInput{
			CostCenterID: *costCenterID,
			Amount:       split.Amount,
			Percentage:   split.Percentage,
		})
	}

	allocations, err := s.allocationSvc.Allocate(c.Request.Context(), *lineID, splits)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": allocations})
}

func (s *Server) ListLineAllocations(c *gin.Context) {
	lineID, ok := idParam(c, "lineId")
	if !ok {
		return
	}
	view, err := s.allocationSvc.ListForLine(c.Request.Context(), lineID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
