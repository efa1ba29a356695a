// Package openfinance reconciles provider snapshots into local records.
package openfinance

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Item statuses as reported by the provider.
const (
	StatusUpdated  = "UPDATED"
	StatusUpdating = "UPDATING"
	StatusError    = "ERROR"
)

// Domain errors
var (
	ErrItemNotFound = errors.New("item not found")
)

// Connector is a financial institution available through the provider.
type Connector struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Item is one user's connection to an institution. ConnectorName is a
// read-only projection filled in by list queries.
type Item struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"-"`
	ConnectorID   int        `json:"connectorId"`
	ConnectorName string     `json:"connectorName,omitempty"`
	Status        string     `json:"status"`
	Error         *string    `json:"error"`
	LastSyncAt    *time.Time `json:"lastSyncAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// ExternalAccount mirrors a bank account held at the institution.
// Number and Agency are stored encrypted at rest.
type ExternalAccount struct {
	ID        string          `json:"id"`
	OwnerID   string          `json:"-"`
	ItemID    string          `json:"itemId"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Number    string          `json:"number"`
	Agency    string          `json:"agency"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ExternalTransaction mirrors a bank statement entry.
type ExternalTransaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"-"`
	ItemID      string          `json:"itemId"`
	AccountID   string          `json:"accountId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ConnectorRepository persists connectors.
type ConnectorRepository interface {
	Upsert(ctx context.Context, connector *Connector) error
}

// ItemRepository persists items.
type ItemRepository interface {
	Get(ctx context.Context, id string) (*Item, error)
	Upsert(ctx context.Context, item *Item) error
	GetForOwner(ctx context.Context, ownerID, id string) (*Item, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*Item, error)
}

// AccountRepository persists external accounts.
type AccountRepository interface {
	Get(ctx context.Context, id string) (*ExternalAccount, error)
	Upsert(ctx context.Context, account *ExternalAccount) error
	ListByOwner(ctx context.Context, ownerID string) ([]*ExternalAccount, error)
}

// TransactionRepository persists external transactions.
type TransactionRepository interface {
	Get(ctx context.Context, id string) (*ExternalTransaction, error)
	Upsert(ctx context.Context, transaction *ExternalTransaction) error
	ListByOwner(ctx context.Context, ownerID string) ([]*ExternalTransaction, error)
}
