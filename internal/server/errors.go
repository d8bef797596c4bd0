package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accountdomain "github.com/shopbooks/shopbooks/internal/account/domain"
	allocationdomain "github.com/shopbooks/shopbooks/internal/allocation/domain"
	costcenterdomain "github.com/shopbooks/shopbooks/internal/costcenter/domain"
	journaldomain "github.com/shopbooks/shopbooks/internal/journal/domain"
	reconciliationdomain "github.com/shopbooks/shopbooks/internal/reconciliation/domain"
	recurringdomain "github.com/shopbooks/shopbooks/internal/recurring/domain"
)

// AbortWithError maps domain sentinels onto HTTP statuses: bad input is 400,
// races and replays are 409, configuration mistakes are 422, and unknown
// records are 404.
func AbortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusOf(err), gin.H{"error": err.Error()})
}

func statusOf(err error) int {
	switch {
	case isNotFound(err):
		return http.StatusNotFound
	case isValidation(err):
		return http.StatusBadRequest
	case isStateConflict(err):
		return http.StatusConflict
	case isReferential(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func isValidation(err error) bool {
	switch err {
	case accountdomain.ErrInvalidShop,
		accountdomain.ErrInvalidCode,
		accountdomain.ErrInvalidName,
		accountdomain.ErrInvalidType,
		accountdomain.ErrInvalidNormalBalance,
		journaldomain.ErrInvalidShop,
		journaldomain.ErrInvalidDate,
		journaldomain.ErrEmptyLines,
		journaldomain.ErrZeroAmountLine,
		journaldomain.ErrNegativeAmount,
		journaldomain.ErrBothSidesSet,
		journaldomain.ErrUnbalanced,
		recurringdomain.ErrInvalidShop,
		recurringdomain.ErrInvalidName,
		recurringdomain.ErrInvalidFrequency,
		recurringdomain.ErrInvalidAnchor,
		recurringdomain.ErrInvalidStartDate,
		recurringdomain.ErrInvalidDateRange,
		recurringdomain.ErrEmptyLines,
		recurringdomain.ErrUnbalancedLines,
		reconciliationdomain.ErrInvalidShop,
		reconciliationdomain.ErrInvalidStatementDate,
		allocationdomain.ErrInvalidShop,
		allocationdomain.ErrEmptySplits,
		allocationdomain.ErrUnderspecifiedSplit,
		allocationdomain.ErrAmbiguousSplit,
		allocationdomain.ErrNegativeSplit,
		allocationdomain.ErrOverAllocated,
		costcenterdomain.ErrInvalidCode,
		costcenterdomain.ErrInvalidName:
		return true
	default:
		return false
	}
}

func isStateConflict(err error) bool {
	switch err {
	case accountdomain.ErrDuplicateCode,
		journaldomain.ErrAlreadyPosted,
		journaldomain.ErrNotPosted,
		journaldomain.ErrNotDraft,
		reconciliationdomain.ErrAlreadyMatched,
		reconciliationdomain.ErrAlreadyReconciled,
		costcenterdomain.ErrDuplicateCode:
		return true
	default:
		return false
	}
}

func isReferential(err error) bool {
	switch err {
	case accountdomain.ErrParentNotFound,
		accountdomain.ErrParentInactive,
		accountdomain.ErrCyclicParent,
		accountdomain.ErrHasActiveChildren,
		journaldomain.ErrInactiveAccount,
		reconciliationdomain.ErrAccountMismatch,
		reconciliationdomain.ErrLineNotPosted,
		allocationdomain.ErrLineNotPosted:
		return true
	default:
		return false
	}
}

func isNotFound(err error) bool {
	switch err {
	case accountdomain.ErrNotFound,
		journaldomain.ErrAccountNotFound,
		journaldomain.ErrEntryNotFound,
		recurringdomain.ErrNotFound,
		reconciliationdomain.ErrNotFound,
		reconciliationdomain.ErrAccountNotFound,
		reconciliationdomain.ErrLineNotFound,
		allocationdomain.ErrCostCenterNotFound,
		allocationdomain.ErrLineNotFound,
		costcenterdomain.ErrNotFound:
		return true
	default:
		return false
	}
}
