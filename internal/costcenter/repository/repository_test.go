package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopbooks/shopbooks/internal/costcenter/domain"
	"github.com/shopbooks/shopbooks/internal/testutil"
)

func TestCreateRejectsDuplicateCode(t *testing.T) {
	db := testutil.OpenDB(t, t.Name())
	testutil.CreateLedgerSchema(t, db)
	node := testutil.Node(t)
	repo := Provide()
	shopID := node.Generate()
	ctx := context.Background()

	first := &domain.CostCenter{
		ID:        node.Generate(),
		ShopID:    shopID,
		Code:      "RETAIL",
		Name:      "Retail Floor",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, db, first); err != nil {
		t.Fatalf("create: %v", err)
	}

	dup := &domain.CostCenter{
		ID:        node.Generate(),
		ShopID:    shopID,
		Code:      " RETAIL ",
		Name:      "Retail Again",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, db, dup); !errors.Is(err, domain.ErrDuplicateCode) {
		t.Fatalf("err = %v, want %v", err, domain.ErrDuplicateCode)
	}

	// Same code under another shop is fine.
	other := &domain.CostCenter{
		ID:        node.Generate(),
		ShopID:    node.Generate(),
		Code:      "RETAIL",
		Name:      "Retail Floor",
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, db, other); err != nil {
		t.Fatalf("create for other shop: %v", err)
	}
}

func TestCreateValidatesCodeAndName(t *testing.T) {
	db := testutil.OpenDB(t, t.Name())
	testutil.CreateLedgerSchema(t, db)
	node := testutil.Node(t)
	repo := Provide()
	ctx := context.Background()

	if err := repo.Create(ctx, db, &domain.CostCenter{
		ID:     node.Generate(),
		ShopID: node.Generate(),
		Code:   "  ",
		Name:   "Blank Code",
	}); !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidCode)
	}
	if err := repo.Create(ctx, db, &domain.CostCenter{
		ID:     node.Generate(),
		ShopID: node.Generate(),
		Code:   "ONLINE",
		Name:   "",
	}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("err = %v, want %v", err, domain.ErrInvalidName)
	}
}
