package http

import (
	"encoding/json"
	"log"
	"net/http"

	"finai/internal/domain/openfinance"
	"finai/internal/shared/middleware"
)

type AccountHandler struct {
	accounts openfinance.AccountRepository
}

func NewAccountHandler(accounts openfinance.AccountRepository) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// HandleList handles GET /api/accounts. Number and agency come back
// decrypted; only the owner's rows are visible.
func (h *AccountHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := h.accounts.ListByOwner(r.Context(), principal.Subject)
	if err != nil {
		log.Printf("Error listing accounts for user %s: %v", principal.Subject, err)
		http.Error(w, "Failed to list accounts", http.StatusInternalServerError)
		return
	}

	if accounts == nil {
		accounts = []*openfinance.ExternalAccount{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(accounts)
}
