// Package ivx is a thin client for the market-data provider's REST API.
// Responses are normalized into Bar/Contract/Quote before they enter the
// pipeline; nothing downstream sees provider-native shapes.
package ivx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey string) *Client {
	if host == "" {
		host = "https://restapi.ivolatility.com"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	if c.apiKey != "" {
		query.Set("apiKey", c.apiKey)
	}
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// FetchDailyBars returns end-of-day bars for symbol over [from, to].
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	query := url.Values{}
	query.Set("symbol", strings.ToUpper(symbol))
	query.Set("from", from.Format(dateLayout))
	query.Set("to", to.Format(dateLayout))
	body, err := c.doRequest(ctx, "/equities/eod/stock-prices", query)
	if err != nil {
		return nil, err
	}
	return parseBars(body)
}

// FetchOptionContracts returns the current option chain for symbol.
func (c *Client) FetchOptionContracts(ctx context.Context, symbol string) ([]Contract, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	query := url.Values{}
	query.Set("symbol", strings.ToUpper(symbol))
	body, err := c.doRequest(ctx, "/equities/option-contracts", query)
	if err != nil {
		return nil, err
	}
	return parseContracts(body)
}

// FetchOptionQuote returns the latest quote for one contract. A nil Quote
// with nil error means the provider has no quote for it.
func (c *Client) FetchOptionQuote(ctx context.Context, contractSymbol string) (*Quote, error) {
	if contractSymbol == "" {
		return nil, fmt.Errorf("contract symbol is required")
	}
	query := url.Values{}
	query.Set("optionSymbol", contractSymbol)
	body, err := c.doRequest(ctx, "/equities/rt/options-rawiv", query)
	if err != nil {
		return nil, err
	}
	return parseQuote(body)
}
