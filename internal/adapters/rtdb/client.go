// Package rtdb is a minimal client for Firebase-style realtime database
// REST endpoints: JSON values read and replaced at slash-separated paths,
// with an optional static auth token on each request.
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/harborlabs/dockscale/internal/ports"
)

// Client talks to one database root.
type Client struct {
	baseURL string
	auth    string
	client  ports.HTTPClient
}

// New creates a client for the database at baseURL. The auth token may be
// empty; when set it rides as the auth query parameter on every request.
func New(baseURL, auth string, client ports.HTTPClient) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		auth:    auth,
		client:  client,
	}
}

// GetString reads the raw JSON text stored at path. Absent keys come back
// as the literal "null"; this client does not interpret that.
func (c *Client) GetString(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("store returned %d: %s", resp.StatusCode, string(body))
	}

	return strings.TrimSpace(string(body)), nil
}

// SetFloat replaces the value at path with a single JSON number.
func (c *Client) SetFloat(ctx context.Context, path string, value float64) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url(path), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("store returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// url maps a store path to its REST endpoint.
func (c *Client) url(path string) string {
	u := c.baseURL + "/" + strings.Trim(path, "/") + ".json"
	if c.auth != "" {
		u += "?auth=" + url.QueryEscape(c.auth)
	}
	return u
}

var _ ports.Store = (*Client)(nil)
