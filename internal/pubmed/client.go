// Package pubmed fetches article titles and abstracts from the NCBI E-utilities API.
package pubmed

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

	"go.uber.org/zap"

	"github.com/hyperjump/paperindex/internal/models"
)

// DefaultBaseURL is the public E-utilities endpoint.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

var (
	// ErrInvalidKeyword is returned for an empty or blank keyword.
	ErrInvalidKeyword = errors.New("invalid or empty keyword")
	// ErrNoResults is returned when the search matches no articles.
	ErrNoResults = errors.New("no papers found for this keyword")
)

// Options configures a Client.
type Options struct {
	BaseURL string
	APIKey  string // optional NCBI key; raises the rate limit
	Timeout time.Duration
}

// Client runs ESearch followed by EFetch.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client.
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    base,
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// FetchByKeyword returns up to max articles matching keyword, in search order.
// Missing fields are empty strings.
func (c *Client) FetchByKeyword(ctx context.Context, keyword string, max int) ([]models.Article, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, ErrInvalidKeyword
	}
	if max <= 0 {
		max = 1
	}

	ids, err := c.search(ctx, keyword, max)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoResults
	}
	articles, err := c.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("fetched articles", zap.String("keyword", keyword), zap.Int("ids", len(ids)), zap.Int("articles", len(articles)))
	return articles, nil
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

func (c *Client) search(ctx context.Context, keyword string, max int) ([]string, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", keyword)
	params.Set("retmax", strconv.Itoa(max))
	params.Set("retmode", "json")

	body, err := c.get(ctx, "esearch", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var resp esearchResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode esearch response: %w", err)
	}
	return resp.Result.IDList, nil
}

func (c *Client) fetch(ctx context.Context, ids []string) ([]models.Article, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "xml")

	body, err := c.get(ctx, "efetch", params)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return parseArticles(body)
}

func (c *Client) get(ctx context.Context, utility string, params url.Values) (io.ReadCloser, error) {
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	endpoint := c.baseURL + "/" + utility + ".fcgi?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", utility, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", utility, err)
	}
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s request failed with status %d", utility, resp.StatusCode)
	}
	return resp.Body, nil
}
