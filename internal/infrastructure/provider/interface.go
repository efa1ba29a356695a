package provider

import "context"

// ClientInterface defines the operations used to talk to the open-finance
// provider. Allows mocking in tests.
type ClientInterface interface {
	FetchItem(ctx context.Context, itemID string) (*ItemDetail, error)
	FetchAccounts(ctx context.Context, itemID string) ([]Account, error)
	FetchTransactions(ctx context.Context, itemID string) ([]Transaction, error)
	UpdateItem(ctx context.Context, itemID string) (*ItemDetail, error)
	CreateConnectToken(ctx context.Context, clientUserID string) (string, error)
}
