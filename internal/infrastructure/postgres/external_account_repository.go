package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finai/internal/domain/openfinance"
	"finai/internal/infrastructure/crypto"
)

// ExternalAccountRepository stores provider-sourced accounts. Account number
// and agency are encrypted before they hit the database and decrypted on
// every read path.
type ExternalAccountRepository struct {
	db        *DB
	encryptor *crypto.Encryptor
}

func NewExternalAccountRepository(db *DB, encryptor *crypto.Encryptor) *ExternalAccountRepository {
	return &ExternalAccountRepository{db: db, encryptor: encryptor}
}

func (r *ExternalAccountRepository) Get(ctx context.Context, id string) (*openfinance.ExternalAccount, error) {
	query := `
		SELECT id, owner_id, item_id, name, type, number, agency, balance, currency, created_at, updated_at
		FROM external_accounts
		WHERE id = $1
	`

	account, err := r.scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get external account: %w", err)
	}

	return account, nil
}

func (r *ExternalAccountRepository) Upsert(ctx context.Context, account *openfinance.ExternalAccount) error {
	number, err := r.encryptor.Encrypt(account.Number)
	if err != nil {
		return fmt.Errorf("failed to encrypt account number: %w", err)
	}
	agency, err := r.encryptor.Encrypt(account.Agency)
	if err != nil {
		return fmt.Errorf("failed to encrypt account agency: %w", err)
	}

	query := `
		INSERT INTO external_accounts (id, owner_id, item_id, name, type, number, agency, balance, currency)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			number = EXCLUDED.number,
			agency = EXCLUDED.agency,
			balance = EXCLUDED.balance,
			currency = EXCLUDED.currency,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(
		ctx, query,
		account.ID, account.OwnerID, account.ItemID, account.Name, account.Type,
		number, agency, account.Balance, account.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert external account: %w", err)
	}

	return nil
}

func (r *ExternalAccountRepository) ListByOwner(ctx context.Context, ownerID string) ([]*openfinance.ExternalAccount, error) {
	query := `
		SELECT id, owner_id, item_id, name, type, number, agency, balance, currency, created_at, updated_at
		FROM external_accounts
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list external accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*openfinance.ExternalAccount
	for rows.Next() {
		account, err := r.scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan external account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate external accounts: %w", err)
	}

	return accounts, nil
}

func (r *ExternalAccountRepository) scanAccount(row rowScanner) (*openfinance.ExternalAccount, error) {
	var account openfinance.ExternalAccount
	var number, agency string

	err := row.Scan(
		&account.ID, &account.OwnerID, &account.ItemID, &account.Name, &account.Type,
		&number, &agency, &account.Balance, &account.Currency,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if account.Number, err = r.encryptor.Decrypt(number); err != nil {
		return nil, fmt.Errorf("failed to decrypt account number: %w", err)
	}
	if account.Agency, err = r.encryptor.Decrypt(agency); err != nil {
		return nil, fmt.Errorf("failed to decrypt account agency: %w", err)
	}

	return &account, nil
}
