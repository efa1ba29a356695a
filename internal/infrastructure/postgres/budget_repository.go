package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finai/internal/domain/budget"
)

type BudgetRepository struct {
	db *DB
}

func NewBudgetRepository(db *DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

func (r *BudgetRepository) GetByCategory(ctx context.Context, ownerID, categoryID string) (*budget.Budget, error) {
	query := `
		SELECT id, owner_id, category_id, amount, currency, created_at
		FROM budgets
		WHERE owner_id = $1 AND category_id = $2
	`

	var b budget.Budget
	err := r.db.QueryRowContext(ctx, query, ownerID, categoryID).Scan(
		&b.ID, &b.OwnerID, &b.CategoryID, &b.Amount, &b.Currency, &b.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // No budget for this category
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}

	return &b, nil
}
