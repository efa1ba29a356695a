package http

import (
	"encoding/json"
	"log"
	"net/http"

	"finai/internal/infrastructure/exchange"
	"finai/internal/shared/middleware"
)

type ExchangeHandler struct {
	exchange *exchange.Service
}

func NewExchangeHandler(exchangeService *exchange.Service) *ExchangeHandler {
	return &ExchangeHandler{exchange: exchangeService}
}

// HandleRate handles GET /api/exchange-rate?base=USD&target=BRL
func (h *ExchangeHandler) HandleRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if _, ok := middleware.PrincipalFrom(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	base := r.URL.Query().Get("base")
	target := r.URL.Query().Get("target")
	if base == "" || target == "" {
		http.Error(w, "base and target are required", http.StatusBadRequest)
		return
	}

	rate, err := h.exchange.Rate(r.Context(), base, target)
	if err != nil {
		log.Printf("Error fetching exchange rate %s/%s: %v", base, target, err)
		http.Error(w, "Failed to fetch exchange rate", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"base": base, "target": target, "rate": rate})
}
