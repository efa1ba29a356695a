package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"finai/internal/domain/openfinance"
)

type ItemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Get(ctx context.Context, id string) (*openfinance.Item, error) {
	query := `
		SELECT id, owner_id, connector_id, status, error_message, last_sync_at, created_at, updated_at
		FROM items
		WHERE id = $1
	`

	item, err := r.scanItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil // Not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (r *ItemRepository) Upsert(ctx context.Context, item *openfinance.Item) error {
	query := `
		INSERT INTO items (id, owner_id, connector_id, status, error_message, last_sync_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			connector_id = EXCLUDED.connector_id,
			status = EXCLUDED.status,
			error_message = EXCLUDED.error_message,
			last_sync_at = EXCLUDED.last_sync_at,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(
		ctx, query,
		item.ID, item.OwnerID, item.ConnectorID, item.Status, item.Error, item.LastSyncAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	return nil
}

// GetForOwner returns the item only when it belongs to the owner. A foreign
// item is indistinguishable from a missing one.
func (r *ItemRepository) GetForOwner(ctx context.Context, ownerID, id string) (*openfinance.Item, error) {
	query := `
		SELECT id, owner_id, connector_id, status, error_message, last_sync_at, created_at, updated_at
		FROM items
		WHERE id = $1 AND owner_id = $2
	`

	item, err := r.scanItem(r.db.QueryRowContext(ctx, query, id, ownerID))
	if err == sql.ErrNoRows {
		return nil, openfinance.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (r *ItemRepository) ListByOwner(ctx context.Context, ownerID string) ([]*openfinance.Item, error) {
	query := `
		SELECT i.id, i.owner_id, i.connector_id, c.name, i.status, i.error_message,
		       i.last_sync_at, i.created_at, i.updated_at
		FROM items i
		JOIN connectors c ON c.id = i.connector_id
		WHERE i.owner_id = $1
		ORDER BY i.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []*openfinance.Item
	for rows.Next() {
		var item openfinance.Item
		var errorMessage sql.NullString
		var lastSyncAt sql.NullTime

		err := rows.Scan(
			&item.ID, &item.OwnerID, &item.ConnectorID, &item.ConnectorName,
			&item.Status, &errorMessage, &lastSyncAt, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}

		if errorMessage.Valid {
			item.Error = &errorMessage.String
		}
		if lastSyncAt.Valid {
			item.LastSyncAt = &lastSyncAt.Time
		}

		items = append(items, &item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *ItemRepository) scanItem(row rowScanner) (*openfinance.Item, error) {
	var item openfinance.Item
	var errorMessage sql.NullString
	var lastSyncAt sql.NullTime

	err := row.Scan(
		&item.ID, &item.OwnerID, &item.ConnectorID, &item.Status,
		&errorMessage, &lastSyncAt, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if errorMessage.Valid {
		item.Error = &errorMessage.String
	}
	if lastSyncAt.Valid {
		item.LastSyncAt = &lastSyncAt.Time
	}

	return &item, nil
}
