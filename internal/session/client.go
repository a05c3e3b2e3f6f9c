package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	cartPath  = "/api/buyer/cart"
	loginPath = "/api/auth/login"

	// DefaultTimeout bounds every request made by the client
	DefaultTimeout = 15 * time.Second
)

// Client is a thin JSON client for the cart store API
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the API at baseURL. A zero timeout
// means DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Close releases idle keep-alive connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Role string `json:"role"`
	} `json:"user"`
}

// Login exchanges phone and password for a bearer token
func (c *Client) Login(ctx context.Context, phone, password string) (string, error) {
	var resp loginResponse
	body := map[string]string{"phone": phone, "password": password}
	if err := c.do(ctx, http.MethodPost, loginPath, "", body, &resp); err != nil {
		return "", err
	}

	c.logger.Debug("Logged in", zap.String("user_id", resp.User.ID), zap.String("role", resp.User.Role))
	return resp.Token, nil
}

// GetCart fetches the whole cart
func (c *Client) GetCart(ctx context.Context, token string) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, cartPath, token, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddItem posts a product with a quantity
func (c *Client) AddItem(ctx context.Context, token, productID string, quantity int) error {
	body := map[string]interface{}{"productId": productID, "quantity": quantity}
	return c.do(ctx, http.MethodPost, cartPath, token, body, nil)
}

// UpdateItem sets an absolute quantity on a line
func (c *Client) UpdateItem(ctx context.Context, token, itemID string, quantity int) error {
	body := map[string]int{"quantity": quantity}
	return c.do(ctx, http.MethodPut, cartPath+"/"+url.PathEscape(itemID), token, body, nil)
}

// RemoveItem deletes a line
func (c *Client) RemoveItem(ctx context.Context, token, itemID string) error {
	return c.do(ctx, http.MethodDelete, cartPath+"/"+url.PathEscape(itemID), token, nil, nil)
}

// Clear deletes every line
func (c *Client) Clear(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodDelete, cartPath, token, nil, nil)
}

// RefreshPrices asks the server to re-snapshot line prices
func (c *Client) RefreshPrices(ctx context.Context, token string) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodPost, cartPath+"/refresh-prices", token, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &CartError{Kind: KindNetwork, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("Request completed",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		if err := json.NewDecoder(resp.Body).Decode(&eb); err != nil || eb.Error == "" {
			eb.Error = fmt.Sprintf("HTTP Error! Status: %d", resp.StatusCode)
		}
		return &CartError{
			Kind:    kindFor(eb.Code, resp.StatusCode),
			Status:  resp.StatusCode,
			Message: eb.Error,
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &CartError{Kind: KindServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}
