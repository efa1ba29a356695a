package postgres

import (
	"context"
	"fmt"
	"time"

	"finai/internal/domain/ledger"
	"finai/internal/infrastructure/crypto"
)

type RecurringRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewRecurringRepository(db *DB, encryptor *crypto.Encryptor) *RecurringRepository {
	return &RecurringRepository{db: db, encryptor: encryptor}
}

func (r *RecurringRepository) ListDue(ctx context.Context, now time.Time) ([]*ledger.RecurringTemplate, error) {
	query := `
		SELECT id, owner_id, account_id, category_id, type, description, amount, currency,
		       interval_days, next_occurrence, created_at
		FROM recurring_templates
		WHERE next_occurrence <= $1
		ORDER BY next_occurrence
	`

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list due recurring templates: %w", err)
	}
	defer rows.Close()

	var templates []*ledger.RecurringTemplate
	for rows.Next() {
		var template ledger.RecurringTemplate
		var description string

		err := rows.Scan(
			&template.ID, &template.OwnerID, &template.AccountID, &template.CategoryID,
			&template.Type, &description, &template.Amount, &template.Currency,
			&template.IntervalDays, &template.NextOccurrence, &template.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring template: %w", err)
		}

		if template.Description, err = r.encryptor.Decrypt(description); err != nil {
			return nil, fmt.Errorf("failed to decrypt description: %w", err)
		}

		templates = append(templates, &template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recurring templates: %w", err)
	}

	return templates, nil
}

// Advance moves the occurrence cursor forward. The guard against moving
// backward lives in the query, not the caller.
func (r *RecurringRepository) Advance(ctx context.Context, id string, next time.Time) error {
	query := `
		UPDATE recurring_templates
		SET next_occurrence = $2
		WHERE id = $1 AND next_occurrence < $2
	`

	if _, err := r.db.ExecContext(ctx, query, id, next); err != nil {
		return fmt.Errorf("failed to advance recurring template: %w", err)
	}

	return nil
}
