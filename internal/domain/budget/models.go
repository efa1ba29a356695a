// Package budget watches category spending against user-defined limits.
package budget

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a per-category spending limit.
type Budget struct {
	ID         string          `json:"id"`
	OwnerID    string          `json:"-"`
	CategoryID string          `json:"categoryId"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Repository persists budgets.
type Repository interface {
	// GetByCategory returns nil when no budget exists for the category.
	GetByCategory(ctx context.Context, ownerID, categoryID string) (*Budget, error)
}

// TransactionSummer reports total ledger spending for a category.
// Implemented by the ledger transaction repository.
type TransactionSummer interface {
	SumByCategory(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error)
}
