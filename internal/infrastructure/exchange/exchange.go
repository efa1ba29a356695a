// Package exchange fetches currency conversion rates.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finai/internal/infrastructure/cache"
)

const (
	defaultTimeout = 10 * time.Second
	rateTTL        = time.Hour
)

// Service fetches exchange rates with a TTL cache keyed by currency pair.
type Service struct {
	httpClient *http.Client
	baseURL    string
	rates      cache.Store
}

func NewService(baseURL string, rates cache.Store) *Service {
	return &Service{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		rates:      rates,
	}
}

type ratesResponse struct {
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Rate returns the conversion rate from base to target, cached for an hour.
func (s *Service) Rate(ctx context.Context, base, target string) (decimal.Decimal, error) {
	key := "exchange:" + base + "_" + target
	if cached, ok := s.rates.Get(key); ok {
		if rate, ok := cached.(decimal.Decimal); ok {
			return rate, nil
		}
	}

	url := fmt.Sprintf("%s/latest?base=%s&symbols=%s", s.baseURL, base, target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch rate: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read rate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("rate request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ratesResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("failed to unmarshal rate response: %w", err)
	}

	rate, ok := parsed.Rates[target]
	if !ok {
		return decimal.Zero, fmt.Errorf("rate for %s missing in response", target)
	}

	s.rates.Set(key, rate, rateTTL)
	return rate, nil
}
