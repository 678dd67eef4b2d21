// Package newsapi collects news candidates from the NewsAPI /v2/everything endpoint.
package newsapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/retry"
	"github.com/poiesic/newswire/source"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the NewsAPI endpoint root.
	DefaultBaseURL = "https://newsapi.org"
	// DefaultPageSize is the number of articles requested per entity.
	DefaultPageSize = 50
	// DefaultDaysBack is how far back the search window reaches.
	DefaultDaysBack = 1

	maxBodyBytes = 4 << 20
)

// Client is a source.Adapter over NewsAPI.
type Client struct {
	apiKey   string
	baseURL  string
	pageSize int
	daysBack int
	client   *http.Client
	limiter  *rate.Limiter
	now      func() time.Time
	logger   *slog.Logger
}

var _ source.Adapter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL overrides the API root.
func WithBaseURL(base string) Option {
	return func(c *Client) error {
		if _, err := url.Parse(base); err != nil {
			return err
		}
		c.baseURL = base
		return nil
	}
}

// WithPageSize sets how many articles are requested.
func WithPageSize(n int) Option {
	return func(c *Client) error {
		if n < 1 || n > 100 {
			return fmt.Errorf("page size must be within [1, 100], got %d", n)
		}
		c.pageSize = n
		return nil
	}
}

// WithDaysBack sets the width of the search window in days.
func WithDaysBack(days int) Option {
	return func(c *Client) error {
		if days < 1 {
			return fmt.Errorf("days back must be greater than 0, got %d", days)
		}
		c.daysBack = days
		return nil
	}
}

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client != nil {
			c.client = client
		}
		return nil
	}
}

// WithRateLimit bounds requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithClock overrides the time source used for the search window.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		if now != nil {
			c.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewClient creates a NewsAPI adapter authenticated with apiKey.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		pageSize: DefaultPageSize,
		daysBack: DefaultDaysBack,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(1), 1),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "newsapi")
	return c, nil
}

func (c *Client) Name() string {
	return "newsapi"
}

// Fetch searches NewsAPI for articles mentioning entity, newest first.
func (c *Client) Fetch(ctx context.Context, entity string) ([]core.RawArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiting failed: %w", err)
	}

	to := c.now().UTC()
	from := to.AddDate(0, 0, -c.daysBack)

	q := url.Values{}
	q.Set("q", entity)
	q.Set("from", from.Format(time.DateOnly))
	q.Set("to", to.Format(time.DateOnly))
	q.Set("language", "en")
	q.Set("sortBy", "publishedAt")
	q.Set("pageSize", strconv.Itoa(c.pageSize))
	endpoint := c.baseURL + "/v2/everything?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, retry.Permanent(err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("newsapi request failed", "status", resp.StatusCode,
			"code", gjson.GetBytes(body, "code").String(),
			"message", gjson.GetBytes(body, "message").String())
		return nil, &source.HTTPStatusError{Code: resp.StatusCode, URL: c.baseURL + "/v2/everything"}
	}

	if !gjson.ValidBytes(body) {
		return nil, retry.Permanent(ErrMalformedResponse)
	}
	if status := gjson.GetBytes(body, "status").String(); status != "ok" {
		return nil, retry.Permanent(fmt.Errorf("%w: status %q: %s", ErrMalformedResponse,
			status, gjson.GetBytes(body, "message").String()))
	}

	var articles []core.RawArticle
	gjson.GetBytes(body, "articles").ForEach(func(_, item gjson.Result) bool {
		raw := core.RawArticle{
			Title:   item.Get("title").String(),
			URL:     item.Get("url").String(),
			Snippet: item.Get("description").String(),
			Source:  item.Get("source.name").String(),
		}
		if ts, err := time.Parse(time.RFC3339, item.Get("publishedAt").String()); err == nil {
			raw.PublishedAt = ts.UTC()
		}
		articles = append(articles, raw)
		return true
	})

	c.logger.Info("articles collected", "entity", entity, "count", len(articles),
		"total", gjson.GetBytes(body, "totalResults").Int())
	return articles, nil
}
