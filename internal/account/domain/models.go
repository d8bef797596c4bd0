package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// AccountType classifies a chart-of-accounts entry.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// NormalBalance is the side on which an account increases.
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// Account is a chart-of-accounts entry. Balance is derived state: only the
// journal engine writes it, and it always equals the signed sum of posted
// lines against the account.
type Account struct {
	ID            snowflake.ID    `gorm:"primaryKey"`
	ShopID        snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_accounts_shop_code,priority:1"`
	Code          string          `gorm:"type:text;not null;uniqueIndex:ux_accounts_shop_code,priority:2"`
	Name          string          `gorm:"type:text;not null"`
	Type          AccountType     `gorm:"type:text;not null"`
	ParentID      *snowflake.ID   `gorm:"index"`
	NormalBalance NormalBalance   `gorm:"type:text;not null"`
	Balance       decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	IsActive      bool            `gorm:"not null;default:true"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }

func ValidAccountType(t AccountType) bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

func ValidNormalBalance(n NormalBalance) bool {
	return n == NormalBalanceDebit || n == NormalBalanceCredit
}

// SignedDelta converts a debit/credit pair into the balance movement for an
// account with the given normal balance.
func SignedDelta(normal NormalBalance, debit, credit decimal.Decimal) decimal.Decimal {
	if normal == NormalBalanceDebit {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}
