package main

import (
	"log"
	"net/http"

	"finai/internal/shared/config"
	"finai/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config) http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", handleHealth)

	// Provider callback, authenticated by HMAC signature rather than a user
	mux.HandleFunc("/webhook", deps.WebhookHandler.HandleWebhook)

	// Protected routes
	authMiddleware := middleware.Auth(deps.JWT)

	mux.Handle("/api/items", authMiddleware(http.HandlerFunc(deps.ItemHandler.HandleItems)))
	mux.Handle("/api/items/{id}/sync", authMiddleware(http.HandlerFunc(deps.ItemHandler.HandleSync)))
	mux.Handle("/api/connect-token", authMiddleware(http.HandlerFunc(deps.ItemHandler.HandleConnectToken)))
	mux.Handle("/api/accounts", authMiddleware(http.HandlerFunc(deps.AccountHandler.HandleList)))
	mux.Handle("/api/transactions", authMiddleware(http.HandlerFunc(deps.TransactionHandler.HandleList)))
	mux.Handle("/api/ledger", authMiddleware(http.HandlerFunc(deps.LedgerHandler.HandleList)))
	mux.Handle("/api/notifications", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleList)))
	mux.Handle("/api/notifications/{id}", authMiddleware(http.HandlerFunc(deps.NotificationHandler.HandleMarkRead)))
	mux.Handle("/api/exchange-rate", authMiddleware(http.HandlerFunc(deps.ExchangeHandler.HandleRate)))

	// Apply global middleware
	handler := middleware.Tracing(middleware.Logging(middleware.CORS(cfg.Server.AllowedHosts)(mux)))
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(handler)
	}

	// Apply security middleware when TLS is enabled
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		log.Println("TLS security middleware enabled (HSTS)")
	}

	return handler
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
