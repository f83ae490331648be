// Package remote is the storefront's HTTP client for the grocery backend.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/your-org/grocery-storefront/internal/config"
	"github.com/your-org/grocery-storefront/internal/domain/cart"
	"github.com/your-org/grocery-storefront/internal/domain/inventory"
	"github.com/your-org/grocery-storefront/internal/domain/order"
	"github.com/your-org/grocery-storefront/internal/domain/product"
)

// Client talks to the /api/v1 endpoints. Cart and order calls carry the bearer token.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	log     logrus.FieldLogger
}

// New creates a client from storefront configuration
func New(cfg config.StorefrontConfig, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		log:     log,
	}
}

// WithToken returns a copy of the client using another bearer token
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// Authenticated reports whether a bearer token is set
func (c *Client) Authenticated() bool {
	return c.token != ""
}

type addLineRequest struct {
	ProductID uint `json:"productId"`
	Quantity  int  `json:"quantity"`
	FreshMode bool `json:"freshMode"`
}

// FetchCart returns the authoritative cart. Without a token the cart is
// empty and no request is made.
func (c *Client) FetchCart(ctx context.Context) (*cart.Snapshot, error) {
	if !c.Authenticated() {
		return cart.Empty(), nil
	}
	var snap cart.Snapshot
	if err := c.do(ctx, http.MethodGet, "/cart", nil, true, &snap); err != nil {
		return nil, err
	}
	return normalise(&snap), nil
}

// AddLine adds quantity units from pool and returns the updated cart
func (c *Client) AddLine(ctx context.Context, productID uint, quantity int, pool inventory.Pool) (*cart.Snapshot, error) {
	body := addLineRequest{ProductID: productID, Quantity: quantity, FreshMode: pool.FreshMode()}
	var snap cart.Snapshot
	if err := c.do(ctx, http.MethodPost, "/cart/items", body, true, &snap); err != nil {
		return nil, err
	}
	return normalise(&snap), nil
}

// RemoveLine deletes a line and returns the updated cart
func (c *Client) RemoveLine(ctx context.Context, lineID uint) (*cart.Snapshot, error) {
	var snap cart.Snapshot
	path := "/cart/items/" + strconv.FormatUint(uint64(lineID), 10)
	if err := c.do(ctx, http.MethodDelete, path, nil, true, &snap); err != nil {
		return nil, err
	}
	return normalise(&snap), nil
}

// GetProduct fetches one priced product
func (c *Client) GetProduct(ctx context.Context, id uint) (*product.Response, error) {
	var resp product.Response
	path := "/products/" + strconv.FormatUint(uint64(id), 10)
	if err := c.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListProducts fetches a page of the catalog
func (c *Client) ListProducts(ctx context.Context, req *product.ListRequest) (*product.ListResponse, error) {
	q := url.Values{}
	if req.Page > 0 {
		q.Set("page", strconv.Itoa(req.Page))
	}
	if req.Limit > 0 {
		q.Set("limit", strconv.Itoa(req.Limit))
	}
	if req.Category != "" {
		q.Set("category", req.Category)
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.ExpiringOnly {
		q.Set("expiring", "true")
	}

	path := "/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp product.ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PlaceOrder submits the current cart as an order
func (c *Client) PlaceOrder(ctx context.Context, req *order.CreateOrderRequest) (*order.Order, error) {
	var resp order.Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, true, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in interface{}, auth bool, out interface{}) error {
	if auth && !c.Authenticated() {
		return ErrUnauthenticated
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Error
		}
		c.log.WithFields(logrus.Fields{
			"method": method,
			"path":   path,
			"status": resp.StatusCode,
		}).WithError(apiErr).Debug("api request failed")
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func normalise(s *cart.Snapshot) *cart.Snapshot {
	if s.Items == nil {
		s.Items = []cart.Line{}
	}
	return s
}
