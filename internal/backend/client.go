package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"portal/internal/model"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

// Client talks to the upstream listing backend. All calls are read-only from
// the gateway's perspective; the backend owns the listing data.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// New creates a backend client with retries and a per-request timeout.
func New(baseURL string, timeout time.Duration, retryMax int, log zerolog.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    retryClient.StandardClient(),
		log:     log,
	}
}

// filterResponse wraps the filter metadata endpoint payload.
type filterResponse struct {
	Filter model.FilterMetadata `json:"filter"`
}

// FilterMetadata fetches the available filter dimensions.
func (c *Client) FilterMetadata(ctx context.Context) (*model.FilterMetadata, error) {
	var out filterResponse
	if err := c.getJSON(ctx, "/api/v1/filters", &out); err != nil {
		return nil, fmt.Errorf("fetch filter metadata: %w", err)
	}
	return &out.Filter, nil
}

type developerResponse struct {
	Developers []model.Developer `json:"developers"`
}

// Developers fetches the developer filter list.
func (c *Client) Developers(ctx context.Context) ([]model.Developer, error) {
	var out developerResponse
	if err := c.getJSON(ctx, "/api/v1/filters/developers", &out); err != nil {
		return nil, fmt.Errorf("fetch developers: %w", err)
	}
	return out.Developers, nil
}

type regionResponse struct {
	Region []model.Region `json:"region"`
}

// Regions fetches the region list used for suggestion filtering.
func (c *Client) Regions(ctx context.Context) ([]model.Region, error) {
	var out regionResponse
	if err := c.getJSON(ctx, "/api/v1/regions", &out); err != nil {
		return nil, fmt.Errorf("fetch regions: %w", err)
	}
	return out.Region, nil
}

// SearchProperties runs a listing search with the given criteria.
func (c *Client) SearchProperties(ctx context.Context, req model.SearchRequest) (*model.SearchResponse, error) {
	var out model.SearchResponse
	if err := c.postJSON(ctx, "/api/v1/properties/search", req, &out); err != nil {
		return nil, fmt.Errorf("property search: %w", err)
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.log.Warn().
			Str("url", req.URL.String()).
			Int("status", resp.StatusCode).
			Msg("backend returned non-2xx")
		return fmt.Errorf("backend status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
