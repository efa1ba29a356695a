package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"finai/internal/domain/openfinance"
	"finai/internal/infrastructure/provider"
	"finai/internal/shared/middleware"
)

type ItemHandler struct {
	orchestrator *openfinance.SyncOrchestrator
	reconciler   *openfinance.Reconciler
	items        openfinance.ItemRepository
	client       provider.ClientInterface
}

func NewItemHandler(orchestrator *openfinance.SyncOrchestrator, reconciler *openfinance.Reconciler, items openfinance.ItemRepository, client provider.ClientInterface) *ItemHandler {
	return &ItemHandler{orchestrator: orchestrator, reconciler: reconciler, items: items, client: client}
}

// HandleItems dispatches /api/items by method.
func (h *ItemHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.HandleList(w, r)
	case http.MethodPost:
		h.HandleCreate(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleCreate handles POST /api/items. After the connect widget links an
// institution it reports the new item id; the item and its first snapshot
// are bound to the caller here, without waiting for the provider webhook.
func (h *ItemHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var payload struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.ItemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	detail, err := h.client.FetchItem(r.Context(), payload.ItemID)
	if err != nil {
		log.Printf("Error fetching item %s for user %s: %v", payload.ItemID, principal.Subject, err)
		http.Error(w, "Failed to register item", http.StatusInternalServerError)
		return
	}

	accounts, err := h.client.FetchAccounts(r.Context(), payload.ItemID)
	if err != nil {
		log.Printf("Error fetching accounts for item %s: %v", payload.ItemID, err)
		http.Error(w, "Failed to register item", http.StatusInternalServerError)
		return
	}

	transactions, err := h.client.FetchTransactions(r.Context(), payload.ItemID)
	if err != nil {
		log.Printf("Error fetching transactions for item %s: %v", payload.ItemID, err)
		http.Error(w, "Failed to register item", http.StatusInternalServerError)
		return
	}

	if _, err := h.reconciler.Reconcile(r.Context(), principal.Subject, detail, accounts, transactions); err != nil {
		log.Printf("Error reconciling item %s for user %s: %v", payload.ItemID, principal.Subject, err)
		http.Error(w, "Failed to register item", http.StatusInternalServerError)
		return
	}

	item, err := h.items.GetForOwner(r.Context(), principal.Subject, payload.ItemID)
	if err != nil {
		log.Printf("Error loading registered item %s: %v", payload.ItemID, err)
		http.Error(w, "Failed to register item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]*openfinance.Item{"item": item})
}

// HandleSync handles POST /api/items/{id}/sync
func (h *ItemHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	itemID := r.PathValue("id")
	if itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	item, err := h.orchestrator.Sync(r.Context(), principal.Subject, itemID)
	if err != nil {
		if errors.Is(err, openfinance.ErrItemNotFound) {
			http.Error(w, "Item not found", http.StatusNotFound)
			return
		}
		log.Printf("Error syncing item %s for user %s: %v", itemID, principal.Subject, err)
		http.Error(w, "Failed to sync item", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": item.Status})
}

// HandleList handles GET /api/items
func (h *ItemHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.items.ListByOwner(r.Context(), principal.Subject)
	if err != nil {
		log.Printf("Error listing items for user %s: %v", principal.Subject, err)
		http.Error(w, "Failed to list items", http.StatusInternalServerError)
		return
	}

	if items == nil {
		items = []*openfinance.Item{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// HandleConnectToken handles POST /api/connect-token
func (h *ItemHandler) HandleConnectToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := h.client.CreateConnectToken(r.Context(), principal.Subject)
	if err != nil {
		log.Printf("Error creating connect token for user %s: %v", principal.Subject, err)
		http.Error(w, "Failed to create connect token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"token": token})
}
