package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type StockView struct {
	ProductID      string `json:"productId"`
	AvailableStock int64  `json:"availableStock"`
}

// InventoryClient proxies stock administration to the inventory service.
type InventoryClient struct {
	baseURL string
	http    *http.Client
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *InventoryClient) SetStock(ctx context.Context, productID string, stock int64) (*StockView, error) {
	body, err := json.Marshal(map[string]int64{"stock": stock})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal body: %w", err)
	}

	url := fmt.Sprintf("%s/stock/%s", c.baseURL, productID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			return nil, fmt.Errorf("inventory rejected request: %s", payload.Error)
		}
		return nil, fmt.Errorf("inventory rejected request")
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var view StockView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &view, nil
}
