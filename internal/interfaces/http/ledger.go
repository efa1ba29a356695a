package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"finai/internal/domain/ledger"
	"finai/internal/shared/middleware"
)

const (
	defaultLedgerPageSize = 50
	maxLedgerPageSize     = 200
)

type LedgerHandler struct {
	transactions ledger.TransactionRepository
}

func NewLedgerHandler(transactions ledger.TransactionRepository) *LedgerHandler {
	return &LedgerHandler{transactions: transactions}
}

// HandleList handles GET /api/ledger
func (h *LedgerHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	principal, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > maxLedgerPageSize {
		limit = defaultLedgerPageSize
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	transactions, err := h.transactions.ListByOwner(r.Context(), principal.Subject, limit, offset)
	if err != nil {
		log.Printf("Error listing ledger transactions for user %s: %v", principal.Subject, err)
		http.Error(w, "Failed to list transactions", http.StatusInternalServerError)
		return
	}

	if transactions == nil {
		transactions = []*ledger.LedgerTransaction{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(transactions)
}
