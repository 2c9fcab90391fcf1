// Package gateway talks to a remote dashboard API over HTTP. Client satisfies
// dashboard.Gateway, so a Store can run against a deployed service.
package gateway

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
	"time"

	"github.com/matthewjablack/dynamicdashboard/internal/dashboard"
	"github.com/matthewjablack/dynamicdashboard/internal/model"
)

const (
	DefaultTimeout = 15 * time.Second
	dashboardPath  = "/api/dashboard"
	userAgent      = "dynamicdashboard-client"
)

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway status %d", e.Code)
	}
	return fmt.Sprintf("gateway status %d: %s", e.Code, e.Message)
}

// Client calls the dashboard endpoints of a remote service.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

var _ dashboard.Gateway = (*Client)(nil)

// New returns a Client for baseURL authenticating with a bearer token. A zero
// timeout uses DefaultTimeout.
func New(baseURL, token string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("gateway url %q: must be absolute", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		HTTPClient: &http.Client{Timeout: timeout},
	}, nil
}

// List implements dashboard.Gateway.
func (c *Client) List(ctx context.Context) ([]model.Dashboard, error) {
	var out []model.Dashboard
	if err := c.do(ctx, http.MethodGet, dashboardPath, nil, &out); err != nil {
		return nil, fmt.Errorf("list dashboards: %w", err)
	}
	return out, nil
}

// Get fetches one dashboard.
func (c *Client) Get(ctx context.Context, id int64) (model.Dashboard, error) {
	var out model.Dashboard
	if err := c.do(ctx, http.MethodGet, itemPath(id), nil, &out); err != nil {
		return model.Dashboard{}, fmt.Errorf("get dashboard %d: %w", id, err)
	}
	return out, nil
}

// Create implements dashboard.Gateway.
func (c *Client) Create(ctx context.Context, d model.Dashboard) (model.Dashboard, error) {
	var out model.Dashboard
	if err := c.do(ctx, http.MethodPost, dashboardPath, d, &out); err != nil {
		return model.Dashboard{}, fmt.Errorf("create dashboard: %w", err)
	}
	return out, nil
}

// Update implements dashboard.Gateway.
func (c *Client) Update(ctx context.Context, id int64, d model.Dashboard) error {
	if err := c.do(ctx, http.MethodPut, itemPath(id), d, nil); err != nil {
		return fmt.Errorf("update dashboard %d: %w", id, err)
	}
	return nil
}

func itemPath(id int64) string {
	return dashboardPath + "/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (err error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close response: %w", cerr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &payload) != nil || payload.Error == "" {
			payload.Error = strings.TrimSpace(string(raw))
		}
		return &StatusError{Code: resp.StatusCode, Message: payload.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}
