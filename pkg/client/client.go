// Package client is a typed HTTP client for the surrealcrud API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client provides methods to interact with the surrealcrud API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is returned for every response with a 4xx or 5xx status.
// Detail holds the decoded "detail" member: a string for most errors and a list of
// issues for 422.
type APIError struct {
	StatusCode int
	Detail     any
	Body       string
}

func (e *APIError) Error() string {
	if s, ok := e.Detail.(string); ok {
		return fmt.Sprintf("API error: status=%d, detail=%s", e.StatusCode, s)
	}
	return fmt.Sprintf("API error: status=%d, body=%s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is an API error with status 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// User is a user as returned by the API.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UserUpdate carries the user fields to change. Nil fields are left out of the request.
type UserUpdate struct {
	Name *string `json:"name,omitempty"`
}

// Item is an item as returned by the API.
type Item struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ItemUpdate carries the item fields to change. Nil fields are left out of the request.
type ItemUpdate struct {
	Name  *string  `json:"name,omitempty"`
	Price *float64 `json:"price,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status   string `json:"status"`
	Backend  string `json:"backend"`
	Database string `json:"database"`
	ReadOnly bool   `json:"read_only"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func decodeResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		var payload struct {
			Detail any `json:"detail"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.Detail = payload.Detail
		}
		return apiErr
	}

	if target != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, target any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	return decodeResponse(resp, target)
}

// Health checks the health of the API server.
// A 503 is returned as an *APIError.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var result Health
	if err := c.call(ctx, http.MethodGet, "/health", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var result []User
	if err := c.call(ctx, http.MethodGet, "/users", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CreateUser(ctx context.Context, name string) (*User, error) {
	var result User
	if err := c.call(ctx, http.MethodPost, "/users", map[string]any{"name": name}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var result User
	if err := c.call(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	var result User
	if err := c.call(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), update, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	var result []Item
	if err := c.call(ctx, http.MethodGet, "/items", nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) CreateItem(ctx context.Context, name string, price float64) (*Item, error) {
	var result Item
	body := map[string]any{"name": name, "price": price}
	if err := c.call(ctx, http.MethodPost, "/items", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetItem(ctx context.Context, id string) (*Item, error) {
	var result Item
	if err := c.call(ctx, http.MethodGet, "/items/"+url.PathEscape(id), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateItem(ctx context.Context, id string, update ItemUpdate) (*Item, error) {
	var result Item
	if err := c.call(ctx, http.MethodPatch, "/items/"+url.PathEscape(id), update, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/items/"+url.PathEscape(id), nil, nil)
}
