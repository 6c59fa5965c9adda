package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://openlibrary.org"
	DefaultCoversURL = "https://covers.openlibrary.org"
	DefaultUserAgent = "Shelf/1.0 (https://github.com/mmcdole/shelf)"

	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL           string
	CoversURL         string
	UserAgent         string
	RequestsPerSecond float64 // <= 0 disables rate limiting
	HTTPClient        *http.Client
}

// Client implements domain.Catalog for Open Library
type Client struct {
	baseURL    string
	coversURL  string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

var _ domain.Catalog = (*Client)(nil)

// NewClient creates a new Open Library API client
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		coversURL:  strings.TrimRight(opts.CoversURL, "/"),
		userAgent:  opts.UserAgent,
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		logger:     logger,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.coversURL == "" {
		c.coversURL = DefaultCoversURL
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return c
}

// do performs a rate-limited request. Transport failures are wrapped with
// domain.ErrCatalogOffline and keep the underlying cause (including
// context.DeadlineExceeded) reachable through errors.Is.
func (c *Client) do(ctx context.Context, method, reqURL string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, limiterError(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug("openlibrary request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("openlibrary request failed", "error", err, "url", reqURL)
		return nil, fmt.Errorf("%w: %w", domain.ErrCatalogOffline, err)
	}
	return resp, nil
}

// limiterError reports a failed limiter wait as a context error. The
// limiter fails early, without a context error, when the next token is
// due after the deadline.
func limiterError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", domain.ErrCatalogOffline, ctxErr)
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %w: %w", domain.ErrCatalogOffline, context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrCatalogOffline, err)
}

// Search returns one page of results from /search.json
func (c *Client) Search(ctx context.Context, query string, limit, offset int) (*domain.SearchPage, error) {
	params := url.Values{}
	params.Set("q", query)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	reqURL := c.baseURL + "/search.json?" + params.Encode()

	resp, err := c.do(ctx, http.MethodGet, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		c.logger.Error("openlibrary search error", "status", resp.StatusCode, "query", query)
		return nil, &domain.StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", domain.ErrCatalogOffline, err)
	}

	var parsed SearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	if parsed.Docs == nil {
		return nil, fmt.Errorf("%w: missing docs", domain.ErrMalformedResponse)
	}

	page := MapSearchPage(&parsed, offset)
	c.logger.Debug("openlibrary search complete",
		"query", query, "offset", offset, "docs", len(page.Docs), "numFound", page.NumFound)
	return page, nil
}

// CoverURL returns the cover asset URL for an edition key
func (c *Client) CoverURL(coverID string, size domain.CoverSize) string {
	return fmt.Sprintf("%s/b/olid/%s-%s.jpg", c.coversURL, url.PathEscape(coverID), size)
}

// CoverExists checks the asset with a HEAD request. The cover service
// serves a placeholder for unknown ids unless default=false is passed.
func (c *Client) CoverExists(ctx context.Context, assetURL string) (bool, error) {
	u, err := url.Parse(assetURL)
	if err != nil {
		return false, fmt.Errorf("invalid cover url: %w", err)
	}
	q := u.Query()
	q.Set("default", "false")
	u.RawQuery = q.Encode()

	resp, err := c.do(ctx, http.MethodHead, u.String())
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))

	return resp.StatusCode >= 200 && resp.StatusCode <= 299, nil
}
