package openfinance

// The merge functions combine a stored record with a fresh provider snapshot.
// The incoming snapshot wins on every mutable field; identity and creation
// metadata survive from the stored record. A nil old record means the
// incoming record is stored as-is, so merging is safe for first sightings.

func mergeItem(old, incoming *Item) *Item {
	if old == nil {
		return incoming
	}
	merged := *incoming
	merged.OwnerID = old.OwnerID
	merged.CreatedAt = old.CreatedAt
	if merged.LastSyncAt == nil {
		merged.LastSyncAt = old.LastSyncAt
	}
	return &merged
}

func mergeAccount(old, incoming *ExternalAccount) *ExternalAccount {
	if old == nil {
		return incoming
	}
	merged := *incoming
	merged.OwnerID = old.OwnerID
	merged.ItemID = old.ItemID
	merged.CreatedAt = old.CreatedAt
	return &merged
}

func mergeTransaction(old, incoming *ExternalTransaction) *ExternalTransaction {
	if old == nil {
		return incoming
	}
	merged := *incoming
	merged.OwnerID = old.OwnerID
	merged.CreatedAt = old.CreatedAt
	return &merged
}
