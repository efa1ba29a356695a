package postgres

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"finai/internal/domain/ledger"
	"finai/internal/infrastructure/crypto"
)

// LedgerRepository stores booked transactions. Descriptions are encrypted
// at rest. Amounts live in NUMERIC columns and are summed in SQL, never in
// floating point.
type LedgerRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewLedgerRepository(db *DB, encryptor *crypto.Encryptor) *LedgerRepository {
	return &LedgerRepository{db: db, encryptor: encryptor}
}

func (r *LedgerRepository) Insert(ctx context.Context, transaction *ledger.LedgerTransaction) error {
	description, err := r.encryptor.Encrypt(transaction.Description)
	if err != nil {
		return fmt.Errorf("failed to encrypt description: %w", err)
	}

	query := `
		INSERT INTO ledger_transactions (id, owner_id, account_id, category_id, type, description, amount, currency, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(
		ctx, query,
		transaction.ID, transaction.OwnerID, transaction.AccountID, transaction.CategoryID,
		transaction.Type, description, transaction.Amount, transaction.Currency, transaction.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger transaction: %w", err)
	}

	return nil
}

func (r *LedgerRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*ledger.LedgerTransaction, error) {
	query := `
		SELECT id, owner_id, account_id, category_id, type, description, amount, currency, date, created_at
		FROM ledger_transactions
		WHERE owner_id = $1
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*ledger.LedgerTransaction
	for rows.Next() {
		var transaction ledger.LedgerTransaction
		var description string

		err := rows.Scan(
			&transaction.ID, &transaction.OwnerID, &transaction.AccountID, &transaction.CategoryID,
			&transaction.Type, &description, &transaction.Amount, &transaction.Currency,
			&transaction.Date, &transaction.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger transaction: %w", err)
		}

		if transaction.Description, err = r.encryptor.Decrypt(description); err != nil {
			return nil, fmt.Errorf("failed to decrypt description: %w", err)
		}

		transactions = append(transactions, &transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger transactions: %w", err)
	}

	return transactions, nil
}

func (r *LedgerRepository) SumByCategory(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_transactions
		WHERE owner_id = $1 AND category_id = $2
	`

	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, ownerID, categoryID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum ledger transactions: %w", err)
	}

	return total, nil
}
