package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StockClient reads live counters from the inventory service. Display-only:
// reservation decisions never go through this path.
type StockClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewStockClient(baseURL string) *StockClient {
	return &StockClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

func (c *StockClient) GetStock(ctx context.Context, productID string) (int64, error) {
	url := fmt.Sprintf("%s/stock/%s", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("inventory service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("inventory service returned %d", resp.StatusCode)
	}

	var body struct {
		ProductID      string `json:"productId"`
		AvailableStock int64  `json:"availableStock"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode stock response: %w", err)
	}

	return body.AvailableStock, nil
}
