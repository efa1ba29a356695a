// Package provider wraps the external open-finance API.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finai/internal/infrastructure/cache"
)

const (
	defaultTimeout = 30 * time.Second

	accessTokenCacheKey = "provider:access_token"
	accessTokenTTL      = 2 * time.Hour
)

// ErrUnauthorized is returned when the provider rejects our credentials.
var ErrUnauthorized = errors.New("provider rejected credentials")

// Client handles communication with the open-finance provider API.
// The access token obtained from /auth/token is held in an injected TTL
// cache rather than a package-level variable.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	tokens       cache.Store
}

// NewClient creates a provider API client with a bounded request timeout
// so a hung provider never stalls a caller indefinitely.
func NewClient(baseURL, clientID, clientSecret string, timeout time.Duration, tokens cache.Store) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		tokens:       tokens,
	}
}

// Connector identifies the financial institution behind an item.
type Connector struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ItemError carries the provider's description of a broken connection.
type ItemError struct {
	Message string `json:"message"`
}

// ItemDetail is the provider's view of a single connection.
// ClientUserID is empty for orphaned/test items that no user owns.
type ItemDetail struct {
	ID           string     `json:"id"`
	Connector    Connector  `json:"connector"`
	Status       string     `json:"status"`
	Error        *ItemError `json:"error"`
	ClientUserID string     `json:"clientUserId"`
}

// Account is a provider-reported bank account. Balance arrives as an exact
// decimal, never a float.
type Account struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Number       string          `json:"number"`
	Agency       string          `json:"branchNumber"`
	Balance      decimal.Decimal `json:"balance"`
	CurrencyCode string          `json:"currencyCode"`
}

// Transaction is a provider-reported account transaction.
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	Date         time.Time       `json:"date"`
}

type authResponse struct {
	AccessToken string `json:"accessToken"`
}

type connectTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type resultsResponse[T any] struct {
	Results []T `json:"results"`
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FetchItem retrieves the current state of an item.
func (c *Client) FetchItem(ctx context.Context, itemID string) (*ItemDetail, error) {
	var item ItemDetail
	if err := c.do(ctx, http.MethodGet, "/items/"+itemID, nil, &item); err != nil {
		return nil, fmt.Errorf("failed to fetch item %s: %w", itemID, err)
	}
	return &item, nil
}

// UpdateItem asks the provider to refresh an item's data and returns the
// (possibly still syncing) item state.
func (c *Client) UpdateItem(ctx context.Context, itemID string) (*ItemDetail, error) {
	var item ItemDetail
	if err := c.do(ctx, http.MethodPatch, "/items/"+itemID, map[string]any{}, &item); err != nil {
		return nil, fmt.Errorf("failed to update item %s: %w", itemID, err)
	}
	return &item, nil
}

// FetchAccounts lists all accounts belonging to an item.
func (c *Client) FetchAccounts(ctx context.Context, itemID string) ([]Account, error) {
	var resp resultsResponse[Account]
	if err := c.do(ctx, http.MethodGet, "/accounts?itemId="+itemID, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for item %s: %w", itemID, err)
	}
	return resp.Results, nil
}

// FetchTransactions lists all transactions belonging to an item.
func (c *Client) FetchTransactions(ctx context.Context, itemID string) ([]Transaction, error) {
	var resp resultsResponse[Transaction]
	if err := c.do(ctx, http.MethodGet, "/transactions?itemId="+itemID, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for item %s: %w", itemID, err)
	}
	return resp.Results, nil
}

// CreateConnectToken issues a short-lived token for the provider's connect
// widget, bound to the given user.
func (c *Client) CreateConnectToken(ctx context.Context, clientUserID string) (string, error) {
	var resp connectTokenResponse
	body := map[string]any{"clientUserId": clientUserID}
	if err := c.do(ctx, http.MethodPost, "/connect_token", body, &resp); err != nil {
		return "", fmt.Errorf("failed to create connect token: %w", err)
	}
	return resp.AccessToken, nil
}

// accessToken returns a cached API token, authenticating when absent.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	if cached, ok := c.tokens.Get(accessTokenCacheKey); ok {
		if token, ok := cached.(string); ok && token != "" {
			return token, nil
		}
	}

	payload, err := json.Marshal(map[string]string{
		"clientId":     c.clientID,
		"clientSecret": c.clientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal auth payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/token", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read auth response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return "", fmt.Errorf("%w: %s", ErrUnauthorized, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp.StatusCode, body)
	}

	var auth authResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return "", fmt.Errorf("failed to unmarshal auth response: %w", err)
	}
	if auth.AccessToken == "" {
		return "", fmt.Errorf("provider returned empty access token")
	}

	c.tokens.Set(accessTokenCacheKey, auth.AccessToken, accessTokenTTL)
	return auth.AccessToken, nil
}

// do executes an authenticated request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		// Token may have been revoked before its TTL; drop it so the next
		// call re-authenticates.
		c.tokens.Del(accessTokenCacheKey)
		return fmt.Errorf("%w: %s", ErrUnauthorized, string(respBody))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiError(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func apiError(status int, body []byte) error {
	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Message == "" {
		return fmt.Errorf("API request failed with status %d: %s", status, string(body))
	}
	return fmt.Errorf("API error (status %d): %s - %s", status, errResp.Error, errResp.Message)
}
