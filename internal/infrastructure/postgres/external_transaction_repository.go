package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finai/internal/domain/openfinance"
)

type ExternalTransactionRepository struct {
	db *DB
}

func NewExternalTransactionRepository(db *DB) *ExternalTransactionRepository {
	return &ExternalTransactionRepository{db: db}
}

func (r *ExternalTransactionRepository) Get(ctx context.Context, id string) (*openfinance.ExternalTransaction, error) {
	query := `
		SELECT id, owner_id, item_id, account_id, description, amount, currency, date, created_at
		FROM external_transactions
		WHERE id = $1
	`

	var transaction openfinance.ExternalTransaction
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&transaction.ID, &transaction.OwnerID, &transaction.ItemID, &transaction.AccountID,
		&transaction.Description, &transaction.Amount, &transaction.Currency,
		&transaction.Date, &transaction.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get external transaction: %w", err)
	}

	return &transaction, nil
}

func (r *ExternalTransactionRepository) Upsert(ctx context.Context, transaction *openfinance.ExternalTransaction) error {
	query := `
		INSERT INTO external_transactions (id, owner_id, item_id, account_id, description, amount, currency, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			description = EXCLUDED.description,
			amount = EXCLUDED.amount,
			currency = EXCLUDED.currency,
			date = EXCLUDED.date
	`

	_, err := r.db.ExecContext(
		ctx, query,
		transaction.ID, transaction.OwnerID, transaction.ItemID, transaction.AccountID,
		transaction.Description, transaction.Amount, transaction.Currency, transaction.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert external transaction: %w", err)
	}

	return nil
}

func (r *ExternalTransactionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*openfinance.ExternalTransaction, error) {
	query := `
		SELECT id, owner_id, item_id, account_id, description, amount, currency, date, created_at
		FROM external_transactions
		WHERE owner_id = $1
		ORDER BY date DESC, created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list external transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*openfinance.ExternalTransaction
	for rows.Next() {
		var transaction openfinance.ExternalTransaction
		err := rows.Scan(
			&transaction.ID, &transaction.OwnerID, &transaction.ItemID, &transaction.AccountID,
			&transaction.Description, &transaction.Amount, &transaction.Currency,
			&transaction.Date, &transaction.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan external transaction: %w", err)
		}
		transactions = append(transactions, &transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate external transactions: %w", err)
	}

	return transactions, nil
}
