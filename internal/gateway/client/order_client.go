package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var ErrNotFound = errors.New("resource not found")

type OrderView struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	ProductID string  `json:"productId"`
	Quantity  int64   `json:"quantity"`
	Status    string  `json:"status"`
	Reason    *string `json:"reason,omitempty"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type ProductView struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    *string `json:"description,omitempty"`
	Price          float64 `json:"price"`
	AvailableStock int64   `json:"availableStock"`
}

// OrderClient proxies read requests to the order service over HTTP.
type OrderClient struct {
	baseURL string
	http    *http.Client
}

func NewOrderClient(baseURL string, timeout time.Duration) *OrderClient {
	return &OrderClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *OrderClient) GetOrder(ctx context.Context, orderID string) (*OrderView, error) {
	var order OrderView
	if err := c.getJSON(ctx, fmt.Sprintf("%s/orders/%s", c.baseURL, orderID), &order); err != nil {
		return nil, err
	}

	return &order, nil
}

func (c *OrderClient) GetProduct(ctx context.Context, productID string) (*ProductView, error) {
	var product ProductView
	if err := c.getJSON(ctx, fmt.Sprintf("%s/products/%s", c.baseURL, productID), &product); err != nil {
		return nil, err
	}

	return &product, nil
}

func (c *OrderClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
