// Package oracle wraps the external price-feed service. The engine only
// ever asks it one question: the current price of an asset symbol.
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// Gateway is the capability the engine needs from a price feed. A valid
// market always has a strictly positive price; implementations must surface
// missing or invalid prices as errors, never as zero.
type Gateway interface {
	GetPrice(ctx context.Context, asset string) (decimal.Decimal, error)
}

type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oracle API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

type priceResponse struct {
	Asset string          `json:"asset"`
	Price decimal.Decimal `json:"price"`
}

// GetPrice fetches the current price for an asset symbol.
func (c *Client) GetPrice(ctx context.Context, asset string) (decimal.Decimal, error) {
	if asset == "" {
		return decimal.Decimal{}, fmt.Errorf("asset is required")
	}
	query := url.Values{}
	query.Set("asset", asset)
	body, err := c.doRequest(ctx, "/price", query)
	if err != nil {
		return decimal.Decimal{}, err
	}
	var resp priceResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse price response: %w", err)
	}
	return resp.Price, nil
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
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
