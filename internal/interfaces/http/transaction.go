package http

import (
	"encoding/json"
	"log"
	"net/http"

	"finai/internal/domain/openfinance"
	"finai/internal/shared/middleware"
)

type TransactionHandler struct {
	transactions openfinance.TransactionRepository
}

func NewTransactionHandler(transactions openfinance.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// HandleList handles GET /api/transactions
func (h *TransactionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	transactions, err := h.transactions.ListByOwner(r.Context(), principal.Subject)
	if err != nil {
		log.Printf("Error listing transactions for user %s: %v", principal.Subject, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	if transactions == nil {
		transactions = []*openfinance.ExternalTransaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}
