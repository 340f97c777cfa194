// Package fleetapi provides a client for fetching completed work orders and
// their costs from the maintenance backend's REST API.
package fleetapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/costcmp/internal/model"
)

const (
	requestTimeout = 30 * time.Second
	maxBodySize    = 32 << 20 // 32 MB
	pageSize       = 500
	maxPages       = 1000
)

var (
	// ErrUnauthorized indicates the API token is missing, expired or lacks access.
	ErrUnauthorized = errors.New("fleetapi: unauthorized (token expired or invalid)")
	// ErrRateLimited indicates the API rate limit was hit.
	ErrRateLimited = errors.New("fleetapi: rate limited")
)

// Client fetches completed work orders from the backend.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a client for the API rooted at baseURL.
// Returns nil if baseURL is empty or not an absolute http(s) URL.
func NewClient(baseURL, token string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if baseURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(token),
		http:    &http.Client{},
	}
}

// Fetch returns every work order completed within r, following pagination.
func (c *Client) Fetch(ctx context.Context, r model.DateRange) ([]model.CostRecord, error) {
	var all []model.CostRecord
	page := 1
	for n := 0; n < maxPages; n++ {
		resp, err := c.fetchPage(ctx, r, page)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Data...)
		if resp.NextPage == nil || *resp.NextPage <= page {
			return all, nil
		}
		page = *resp.NextPage
	}
	return nil, fmt.Errorf("fleetapi: more than %d pages for %s", maxPages, r)
}

func (c *Client) fetchPage(ctx context.Context, r model.DateRange, page int) (*workOrderPage, error) {
	q := url.Values{}
	q.Set("status", "completed")
	q.Set("completedFrom", r.Start.UTC().Format(time.RFC3339Nano))
	q.Set("completedTo", r.End.UTC().Format(time.RFC3339Nano))
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	body, err := c.get(ctx, "/work-orders?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var p workOrderPage
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("fleetapi: parsing work orders: %w", err)
	}
	return &p, nil
}

// get performs an authenticated GET request and returns the response body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("fleetapi: creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "github.com/theirongolddev/costcmp/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fleetapi: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fleetapi: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("fleetapi: reading response: %w", err)
	}
	return body, nil
}
