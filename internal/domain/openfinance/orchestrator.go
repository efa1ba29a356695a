package openfinance

import (
	"context"
	"fmt"
	"log"

	"finai/internal/domain/notification"
	"finai/internal/infrastructure/provider"
)

// SyncOrchestrator drives a manual, user-initiated refresh of one item.
type SyncOrchestrator struct {
	client        provider.ClientInterface
	items         ItemRepository
	reconciler    *Reconciler
	notifications *notification.Service
}

func NewSyncOrchestrator(
	client provider.ClientInterface,
	items ItemRepository,
	reconciler *Reconciler,
	notifications *notification.Service,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		client:        client,
		items:         items,
		reconciler:    reconciler,
		notifications: notifications,
	}
}

// Sync asks the provider to refresh the item, pulls the resulting snapshot
// and reconciles it. Ownership is checked against the store first; an item
// that exists but belongs to someone else reports ErrItemNotFound, same as
// a missing one. There is no lock against a concurrent webhook for the same
// item; both paths run idempotent upserts.
func (o *SyncOrchestrator) Sync(ctx context.Context, ownerID, itemID string) (*Item, error) {
	if _, err := o.items.GetForOwner(ctx, ownerID, itemID); err != nil {
		return nil, err
	}

	if _, err := o.client.UpdateItem(ctx, itemID); err != nil {
		return nil, fmt.Errorf("failed to trigger item update: %w", err)
	}

	detail, err := o.client.FetchItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch item: %w", err)
	}

	accounts, err := o.client.FetchAccounts(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}

	transactions, err := o.client.FetchTransactions(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions: %w", err)
	}

	if _, err := o.reconciler.Reconcile(ctx, ownerID, detail, accounts, transactions); err != nil {
		return nil, fmt.Errorf("failed to reconcile item %s: %w", itemID, err)
	}

	if o.notifications != nil {
		var msg string
		switch detail.Status {
		case StatusUpdated:
			msg = fmt.Sprintf("Your accounts were synced (%d accounts, %d transactions)", len(accounts), len(transactions))
		case StatusUpdating:
			msg = "Account sync is still running, new data will arrive shortly"
		case StatusError:
			msg = "Account sync failed, the connection may need to be relinked"
		}
		if msg != "" {
			if _, err := o.notifications.Notify(ctx, ownerID, notification.TypeSync, msg); err != nil {
				log.Printf("Warning: failed to notify user %s about sync: %v", ownerID, err)
			}
		}
	}

	return o.items.GetForOwner(ctx, ownerID, itemID)
}
