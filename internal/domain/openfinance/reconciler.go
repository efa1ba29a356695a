package openfinance

import (
	"context"
	"fmt"
	"log"
	"time"

	"finai/internal/infrastructure/provider"
)

// ReconcileResult contains the outcome of reconciling one item snapshot.
type ReconcileResult struct {
	OwnerID      string
	ItemID       string
	Accounts     int
	Transactions int
	Errors       []string
}

// Reconciler folds provider snapshots into the local store. Upserts are
// idempotent, so replaying the same snapshot is a no-op. Entities are
// written independently; a failure on one account or transaction is
// recorded and the rest of the snapshot still lands. Rows that disappear
// upstream are kept locally.
type Reconciler struct {
	connectors   ConnectorRepository
	items        ItemRepository
	accounts     AccountRepository
	transactions TransactionRepository
}

func NewReconciler(
	connectors ConnectorRepository,
	items ItemRepository,
	accounts AccountRepository,
	transactions TransactionRepository,
) *Reconciler {
	return &Reconciler{
		connectors:   connectors,
		items:        items,
		accounts:     accounts,
		transactions: transactions,
	}
}

// Reconcile upserts the connector, the item, and every account and
// transaction in the snapshot for the given owner.
func (r *Reconciler) Reconcile(
	ctx context.Context,
	ownerID string,
	detail *provider.ItemDetail,
	accounts []provider.Account,
	transactions []provider.Transaction,
) (*ReconcileResult, error) {
	result := &ReconcileResult{
		OwnerID:      ownerID,
		ItemID:       detail.ID,
		Accounts:     len(accounts),
		Transactions: len(transactions),
		Errors:       []string{},
	}

	if err := r.connectors.Upsert(ctx, &Connector{ID: detail.Connector.ID, Name: detail.Connector.Name}); err != nil {
		return result, fmt.Errorf("failed to upsert connector %d: %w", detail.Connector.ID, err)
	}

	if err := r.reconcileItem(ctx, ownerID, detail); err != nil {
		return result, fmt.Errorf("failed to upsert item %s: %w", detail.ID, err)
	}

	for _, apiAccount := range accounts {
		if err := r.reconcileAccount(ctx, ownerID, detail.ID, apiAccount); err != nil {
			errMsg := fmt.Sprintf("failed to upsert account %s: %v", apiAccount.ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("User %s: %s", ownerID, errMsg)
		}
	}

	for _, apiTransaction := range transactions {
		if err := r.reconcileTransaction(ctx, ownerID, detail.ID, apiTransaction); err != nil {
			errMsg := fmt.Sprintf("failed to upsert transaction %s: %v", apiTransaction.ID, err)
			result.Errors = append(result.Errors, errMsg)
			log.Printf("User %s: %s", ownerID, errMsg)
		}
	}

	log.Printf("User %s: Reconciled item %s - Accounts: %d, Transactions: %d, Errors: %d",
		ownerID, detail.ID, result.Accounts, result.Transactions, len(result.Errors))

	return result, nil
}

func (r *Reconciler) reconcileItem(ctx context.Context, ownerID string, detail *provider.ItemDetail) error {
	now := time.Now().UTC()

	incoming := &Item{
		ID:          detail.ID,
		OwnerID:     ownerID,
		ConnectorID: detail.Connector.ID,
		Status:      detail.Status,
		LastSyncAt:  &now,
	}
	if detail.Error != nil {
		incoming.Error = &detail.Error.Message
	}

	old, err := r.items.Get(ctx, detail.ID)
	if err != nil {
		return err
	}
	return r.items.Upsert(ctx, mergeItem(old, incoming))
}

func (r *Reconciler) reconcileAccount(ctx context.Context, ownerID, itemID string, apiAccount provider.Account) error {
	incoming := &ExternalAccount{
		ID:       apiAccount.ID,
		OwnerID:  ownerID,
		ItemID:   itemID,
		Name:     apiAccount.Name,
		Type:     apiAccount.Type,
		Number:   apiAccount.Number,
		Agency:   apiAccount.Agency,
		Balance:  apiAccount.Balance,
		Currency: apiAccount.CurrencyCode,
	}

	old, err := r.accounts.Get(ctx, apiAccount.ID)
	if err != nil {
		return err
	}
	return r.accounts.Upsert(ctx, mergeAccount(old, incoming))
}

func (r *Reconciler) reconcileTransaction(ctx context.Context, ownerID, itemID string, apiTransaction provider.Transaction) error {
	incoming := &ExternalTransaction{
		ID:          apiTransaction.ID,
		OwnerID:     ownerID,
		ItemID:      itemID,
		AccountID:   apiTransaction.AccountID,
		Description: apiTransaction.Description,
		Amount:      apiTransaction.Amount,
		Currency:    apiTransaction.CurrencyCode,
		Date:        apiTransaction.Date,
	}

	old, err := r.transactions.Get(ctx, apiTransaction.ID)
	if err != nil {
		return err
	}
	return r.transactions.Upsert(ctx, mergeTransaction(old, incoming))
}
