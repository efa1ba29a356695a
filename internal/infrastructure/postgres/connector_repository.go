package postgres

import (
	"context"
	"fmt"

	"finai/internal/domain/openfinance"
)

type ConnectorRepository struct {
	db *DB
}

func NewConnectorRepository(db *DB) *ConnectorRepository {
	return &ConnectorRepository{db: db}
}

func (r *ConnectorRepository) Upsert(ctx context.Context, connector *openfinance.Connector) error {
	query := `
		INSERT INTO connectors (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`

	if _, err := r.db.ExecContext(ctx, query, connector.ID, connector.Name); err != nil {
		return fmt.Errorf("failed to upsert connector: %w", err)
	}

	return nil
}
