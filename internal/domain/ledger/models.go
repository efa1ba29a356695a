// Package ledger holds user-entered transactions and the schedule engine
// that materializes recurring and scheduled entries into them.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// LedgerTransaction is a booked entry. Once materialized by the engine it
// is never rewritten. Description is stored encrypted at rest.
type LedgerTransaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"-"`
	AccountID   string          `json:"accountId"`
	CategoryID  *string         `json:"categoryId"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// RecurringTemplate produces a ledger transaction every IntervalDays.
// NextOccurrence is a forward-only cursor advanced solely by the engine.
// Description is stored encrypted at rest.
type RecurringTemplate struct {
	ID             string          `json:"id"`
	OwnerID        string          `json:"-"`
	AccountID      string          `json:"accountId"`
	CategoryID     *string         `json:"categoryId"`
	Type           string          `json:"type"`
	Description    string          `json:"description"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	IntervalDays   int             `json:"intervalDays"`
	NextOccurrence time.Time       `json:"nextOccurrence"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// ScheduledTransaction is a one-shot entry fired at ExecuteAt and deleted
// after it lands in the ledger. Date is the booking date carried onto the
// materialized transaction. Description is stored encrypted at rest.
type ScheduledTransaction struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"-"`
	AccountID   string          `json:"accountId"`
	CategoryID  *string         `json:"categoryId"`
	Type        string          `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	ExecuteAt   time.Time       `json:"executeAt"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// TransactionRepository persists ledger transactions.
type TransactionRepository interface {
	Insert(ctx context.Context, transaction *LedgerTransaction) error
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*LedgerTransaction, error)
	SumByCategory(ctx context.Context, ownerID, categoryID string) (decimal.Decimal, error)
}

// RecurringRepository persists recurring templates.
type RecurringRepository interface {
	ListDue(ctx context.Context, now time.Time) ([]*RecurringTemplate, error)
	Advance(ctx context.Context, id string, next time.Time) error
}

// ScheduledRepository persists scheduled transactions.
type ScheduledRepository interface {
	ListDue(ctx context.Context, now time.Time) ([]*ScheduledTransaction, error)
	Delete(ctx context.Context, id string) error
}

// BudgetChecker is notified after each materialized transaction.
// Implemented by the budget monitor.
type BudgetChecker interface {
	Check(ctx context.Context, ownerID string, categoryID *string) error
}
