package http

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"finai/internal/domain/openfinance"
	"finai/internal/infrastructure/provider"
)

const maxWebhookBodySize = 1 << 20 // 1 MiB

// WebhookHandler ingests item-updated callbacks from the provider.
// The provider signs the raw body with a shared secret; nothing is read
// from the payload before the signature checks out.
type WebhookHandler struct {
	secret     []byte
	client     provider.ClientInterface
	reconciler *openfinance.Reconciler
}

func NewWebhookHandler(secret string, client provider.ClientInterface, reconciler *openfinance.Reconciler) *WebhookHandler {
	return &WebhookHandler{secret: []byte(secret), client: client, reconciler: reconciler}
}

type webhookPayload struct {
	Event  string `json:"event"`
	ItemID string `json:"itemId"`
}

// HandleWebhook handles POST /webhook
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		writeWebhookError(w, http.StatusBadRequest, "INVALID_BODY")
		return
	}

	if !h.verifySignature(r.Header.Get("X-Signature"), body) {
		writeWebhookError(w, http.StatusUnauthorized, "INVALID_SIGNATURE")
		return
	}

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.ItemID == "" {
		writeWebhookError(w, http.StatusBadRequest, "INVALID_BODY")
		return
	}

	detail, err := h.client.FetchItem(r.Context(), payload.ItemID)
	if err != nil {
		log.Printf("Webhook: Failed to fetch item %s: %v", payload.ItemID, err)
		writeWebhookError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	// An item created outside the connect flow has no user bound to it.
	// Acknowledge so the provider stops retrying.
	if detail.ClientUserID == "" {
		log.Printf("Webhook: Item %s has no client user, skipping", payload.ItemID)
		writeWebhookOK(w)
		return
	}

	accounts, err := h.client.FetchAccounts(r.Context(), payload.ItemID)
	if err != nil {
		log.Printf("Webhook: Failed to fetch accounts for item %s: %v", payload.ItemID, err)
		writeWebhookError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	transactions, err := h.client.FetchTransactions(r.Context(), payload.ItemID)
	if err != nil {
		log.Printf("Webhook: Failed to fetch transactions for item %s: %v", payload.ItemID, err)
		writeWebhookError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	if _, err := h.reconciler.Reconcile(r.Context(), detail.ClientUserID, detail, accounts, transactions); err != nil {
		log.Printf("Webhook: Failed to reconcile item %s: %v", payload.ItemID, err)
		writeWebhookError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
		return
	}

	writeWebhookOK(w)
}

func (h *WebhookHandler) verifySignature(header string, body []byte) bool {
	if header == "" {
		return false
	}

	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(header), []byte(expected))
}

func writeWebhookOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte("{}"))
}

func writeWebhookError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": code})
}
