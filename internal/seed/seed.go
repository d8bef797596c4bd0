package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	accountdomain "github.com/shopbooks/shopbooks/internal/account/domain"
)

// ChartAccount describes one entry of the starter chart of accounts.
type ChartAccount struct {
	Code          string
	Name          string
	Type          accountdomain.AccountType
	NormalBalance accountdomain.NormalBalance
	ParentCode    string
}

// DefaultChart is the starter chart for a small retail shop. Parents are
// listed before their children.
func DefaultChart() []ChartAccount {
	return []ChartAccount{
		{Code: "1000", Name: "Cash", Type: accountdomain.AccountTypeAsset, NormalBalance: accountdomain.NormalBalanceDebit},
		{Code: "1100", Name: "Accounts Receivable", Type: accountdomain.AccountTypeAsset, NormalBalance: accountdomain.NormalBalanceDebit},
		{Code: "1200", Name: "Inventory", Type: accountdomain.AccountTypeAsset, NormalBalance: accountdomain.NormalBalanceDebit},
		{Code: "2000", Name: "Accounts Payable", Type: accountdomain.AccountTypeLiability, NormalBalance: accountdomain.NormalBalanceCredit},
		{Code: "2100", Name: "Sales Tax Payable", Type: accountdomain.AccountTypeLiability, NormalBalance: accountdomain.NormalBalanceCredit},
		{Code: "3000", Name: "Owner's Equity", Type: accountdomain.AccountTypeEquity, NormalBalance: accountdomain.NormalBalanceCredit},
		{Code: "3900", Name: "Retained Earnings", Type: accountdomain.AccountTypeEquity, NormalBalance: accountdomain.NormalBalanceCredit},
		{Code: "4000", Name: "Sales Revenue", Type: accountdomain.AccountTypeRevenue, NormalBalance: accountdomain.NormalBalanceCredit},
		{Code: "4100", Name: "Shipping Income", Type: accountdomain.AccountTypeRevenue, NormalBalance: accountdomain.NormalBalanceCredit},
		{Code: "5000", Name: "Cost of Goods Sold", Type: accountdomain.AccountTypeExpense, NormalBalance: accountdomain.NormalBalanceDebit},
		{Code: "6000", Name: "Operating Expenses", Type: accountdomain.AccountTypeExpense, NormalBalance: accountdomain.NormalBalanceDebit},
		{Code: "6100", Name: "Rent Expense", Type: accountdomain.AccountTypeExpense, NormalBalance: accountdomain.NormalBalanceDebit, ParentCode: "6000"},
		{Code: "6200", Name: "Utilities Expense", Type: accountdomain.AccountTypeExpense, NormalBalance: accountdomain.NormalBalanceDebit, ParentCode: "6000"},
		{Code: "6300", Name: "Payroll Expense", Type: accountdomain.AccountTypeExpense, NormalBalance: accountdomain.NormalBalanceDebit, ParentCode: "6000"},
	}
}

// EnsureDefaultChart creates any missing starter accounts for the shop and
// returns the ones it created. Existing codes are left untouched, so the
// call is safe to repeat.
func EnsureDefaultChart(ctx context.Context, db *gorm.DB, node *snowflake.Node, shopID snowflake.ID) ([]accountdomain.Account, error) {
	if db == nil {
		return nil, errors.New("seed database handle is required")
	}

	var created []accountdomain.Account
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		byCode := make(map[string]snowflake.ID)
		for _, spec := range DefaultChart() {
			var existing accountdomain.Account
			err := tx.WithContext(ctx).
				Where("shop_id = ? AND code = ?", shopID, spec.Code).
				First(&existing).Error
			if err == nil {
				byCode[spec.Code] = existing.ID
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			now := time.Now().UTC()
			account := accountdomain.Account{
				ID:            node.Generate(),
				ShopID:        shopID,
				Code:          spec.Code,
				Name:          spec.Name,
				Type:          spec.Type,
				NormalBalance: spec.NormalBalance,
				Balance:       decimal.Zero,
				IsActive:      true,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if spec.ParentCode != "" {
				if parentID, ok := byCode[spec.ParentCode]; ok {
					pid := parentID
					account.ParentID = &pid
				}
			}
			if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
				return err
			}
			byCode[spec.Code] = account.ID
			created = append(created, account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
