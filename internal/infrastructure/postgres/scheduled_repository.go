package postgres

import (
	"context"
	"fmt"
	"time"

	"finai/internal/domain/ledger"
	"finai/internal/infrastructure/crypto"
)

type ScheduledRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewScheduledRepository(db *DB, encryptor *crypto.Encryptor) *ScheduledRepository {
	return &ScheduledRepository{db: db, encryptor: encryptor}
}

func (r *ScheduledRepository) ListDue(ctx context.Context, now time.Time) ([]*ledger.ScheduledTransaction, error) {
	query := `
		SELECT id, owner_id, account_id, category_id, type, description, amount, currency,
		       date, execute_at, created_at
		FROM scheduled_transactions
		WHERE execute_at <= $1
		ORDER BY execute_at
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due scheduled transactions: %w", err)
	}
	defer rows.Close()

	var scheduled []*ledger.ScheduledTransaction
	for rows.Next() {
		var transaction ledger.ScheduledTransaction
		var description string

		err := rows.Scan(
			&transaction.ID, &transaction.OwnerID, &transaction.AccountID, &transaction.CategoryID,
			&transaction.Type, &description, &transaction.Amount, &transaction.Currency,
			&transaction.Date, &transaction.ExecuteAt, &transaction.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scheduled transaction: %w", err)
		}

		if transaction.Description, err = r.encryptor.Decrypt(description); err != nil {
			return nil, fmt.Errorf("failed to decrypt description: %w", err)
		}

		scheduled = append(scheduled, &transaction)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scheduled transactions: %w", err)
	}

	return scheduled, nil
}

func (r *ScheduledRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM scheduled_transactions WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete scheduled transaction: %w", err)
	}

	return nil
}
