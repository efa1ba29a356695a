package budget

import (
	"context"
	"fmt"
	"log"

	"finai/internal/domain/notification"
)

// Monitor checks category totals after each ledger write and notifies the
// owner when a budget is exceeded. Every qualifying check produces a
// notification; there is no deduplication window.
type Monitor struct {
	budgets       Repository
	ledger        TransactionSummer
	notifications *notification.Service
}

func NewMonitor(budgets Repository, ledger TransactionSummer, notifications *notification.Service) *Monitor {
	return &Monitor{budgets: budgets, ledger: ledger, notifications: notifications}
}

// Check compares the category total against its budget. A nil category or a
// category without a budget is a no-op.
func (m *Monitor) Check(ctx context.Context, ownerID string, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}

	b, err := m.budgets.GetByCategory(ctx, ownerID, *categoryID)
	if err != nil {
		return fmt.Errorf("failed to load budget: %w", err)
	}
	if b == nil {
		return nil
	}

	total, err := m.ledger.SumByCategory(ctx, ownerID, *categoryID)
	if err != nil {
		return fmt.Errorf("failed to sum category spending: %w", err)
	}

	if total.GreaterThan(b.Amount) {
		msg := fmt.Sprintf("Budget exceeded: spent %s of %s", total.StringFixed(2), b.Amount.StringFixed(2))
		if _, err := m.notifications.Notify(ctx, ownerID, notification.TypeBudgetExceeded, msg); err != nil {
			log.Printf("Warning: failed to notify user %s about exceeded budget: %v", ownerID, err)
		}
	}

	return nil
}
