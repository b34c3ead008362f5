// Package escrow wraps the external token-transfer service that custodies
// wagers. A transfer failure must abort the enclosing engine operation, so
// the client returns errors verbatim and never retries.
package escrow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Escrow moves tokens between a player account and the house account.
type Escrow interface {
	Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error
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
	return fmt.Sprintf("escrow API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

type transferRequest struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference"`
}

// Transfer posts a token movement. Each call carries a fresh idempotency
// reference so the escrow side can deduplicate replays.
func (c *Client) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) error {
	if from == "" || to == "" {
		return fmt.Errorf("from and to are required")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be positive")
	}
	payload, err := json.Marshal(transferRequest{
		From:      from,
		To:        to,
		Amount:    amount,
		Reference: uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode transfer: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}
