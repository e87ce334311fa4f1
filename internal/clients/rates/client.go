// Package rates implements the external exchange-rate provider client.
// The provider serves a full rate table per base currency as JSON:
//
//	GET {baseURL}/{BASE} -> {"base": "USD", "rates": {"EUR": 0.85, ...}}
package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/SscSPs/personal_ledger_app/internal/core/ports/providers"
	"github.com/shopspring/decimal"
)

// DefaultTimeout bounds a provider call so a hung fetch degrades into the
// stale-cache fallback instead of blocking a financial entry.
const DefaultTimeout = 10 * time.Second

// StatusError reports a non-2xx provider response. It is distinguishable
// from ContentTypeError so callers can decide between retry and fallback.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("rate provider returned %s", e.Status)
}

// ContentTypeError reports a response that is not JSON.
type ContentTypeError struct {
	ContentType string
}

func (e *ContentTypeError) Error() string {
	return fmt.Sprintf("rate provider returned unexpected content type %q", e.ContentType)
}

// Client fetches rate tables over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a provider client. A zero timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ providers.RateProvider = (*Client)(nil)

type rateTableResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// FetchRates retrieves the full rate table for a base currency.
func (c *Client) FetchRates(ctx context.Context, base string) (map[string]decimal.Decimal, error) {
	url := c.baseURL + "/" + strings.ToUpper(base)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate request for base %s: %w", base, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rate fetch for base %s failed: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, parseErr := mime.ParseMediaType(contentType); parseErr != nil || mediaType != "application/json" {
		return nil, &ContentTypeError{ContentType: contentType}
	}

	var table rateTableResponse
	if err := json.NewDecoder(resp.Body).Decode(&table); err != nil {
		return nil, fmt.Errorf("failed to decode rate table for base %s: %w", base, err)
	}
	if len(table.Rates) == 0 {
		return nil, fmt.Errorf("rate table for base %s contained no rates", base)
	}
	return table.Rates, nil
}
