package cli

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

	"github.com/hyperjump/paperindex/internal/models"
	"github.com/hyperjump/paperindex/internal/semindex"
)

// Client talks to a running paperindex server, so commands do not open the
// state files a server already owns.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Search runs a semantic search.
func (c *Client) Search(ctx context.Context, query string, limit int) (*models.SearchResponse, error) {
	var out models.SearchResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/search", models.SearchQuery{Query: query, Limit: limit}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Similar returns papers similar to the stored paper id.
func (c *Client) Similar(ctx context.Context, id string, k int) (*models.SearchResponse, error) {
	path := "/api/v1/papers/" + url.PathEscape(id) + "/similar"
	if k > 0 {
		path += "?k=" + strconv.Itoa(k)
	}
	var out models.SearchResponse
	if _, err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddPaper stores a paper.
func (c *Client) AddPaper(ctx context.Context, in models.PaperInput) (*semindex.AddResult, error) {
	var out semindex.AddResult
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/papers", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status returns the server's index status.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var out models.Status
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		b, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, e.Error)
		}
		return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, nil
}
