// Package rss collects news candidates from Google News RSS search feeds.
package rss

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/poiesic/newswire/core"
	"github.com/poiesic/newswire/source"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the Google News RSS search endpoint.
	DefaultBaseURL = "https://news.google.com/rss/search"
	// DefaultLimit caps the items taken from one feed.
	DefaultLimit = 20

	sourceName = "Google News"
	userAgent  = "Mozilla/5.0 (compatible; newswire/1.0)"
)

// GoogleNews is a source.Adapter over Google News RSS search.
type GoogleNews struct {
	baseURL string
	limit   int
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ source.Adapter = (*GoogleNews)(nil)

// Option configures GoogleNews.
type Option func(*GoogleNews) error

// WithBaseURL overrides the feed endpoint.
func WithBaseURL(base string) Option {
	return func(g *GoogleNews) error {
		if _, err := url.Parse(base); err != nil {
			return err
		}
		g.baseURL = base
		return nil
	}
}

// WithLimit caps the number of items taken from each feed.
func WithLimit(limit int) Option {
	return func(g *GoogleNews) error {
		if limit < 1 {
			return fmt.Errorf("limit must be greater than 0, got %d", limit)
		}
		g.limit = limit
		return nil
	}
}

// WithHTTPClient sets the HTTP client used to download feeds.
func WithHTTPClient(client *http.Client) Option {
	return func(g *GoogleNews) error {
		if client != nil {
			g.client = client
		}
		return nil
	}
}

// WithRateLimit bounds feed requests to rps per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(g *GoogleNews) error {
		g.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(g *GoogleNews) error {
		if logger == nil {
			logger = slog.Default()
		}
		g.logger = logger
		return nil
	}
}

// NewGoogleNews creates a Google News adapter.
func NewGoogleNews(opts ...Option) (*GoogleNews, error) {
	g := &GoogleNews{
		baseURL: DefaultBaseURL,
		limit:   DefaultLimit,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(1), 2),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	g.logger = g.logger.With("component", "google-news")
	return g, nil
}

func (g *GoogleNews) Name() string {
	return "google-news"
}

// Fetch downloads the search feed for entity and returns up to limit items.
func (g *GoogleNews) Fetch(ctx context.Context, entity string) ([]core.RawArticle, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiting failed: %w", err)
	}

	feedURL := g.searchURL(entity)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &source.HTTPStatusError{Code: resp.StatusCode, URL: feedURL}
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	items := feed.Items
	if len(items) > g.limit {
		items = items[:g.limit]
	}

	articles := make([]core.RawArticle, 0, len(items))
	for _, item := range items {
		articles = append(articles, toRawArticle(item))
	}

	g.logger.Info("feed collected", "entity", entity, "items", len(feed.Items), "kept", len(articles))
	return articles, nil
}

func (g *GoogleNews) searchURL(entity string) string {
	q := url.Values{}
	q.Set("q", entity)
	q.Set("hl", "en-US")
	q.Set("gl", "US")
	q.Set("ceid", "US:en")
	return g.baseURL + "?" + q.Encode()
}

func toRawArticle(item *gofeed.Item) core.RawArticle {
	raw := core.RawArticle{
		Title:   strings.TrimSpace(item.Title),
		URL:     strings.TrimSpace(item.Link),
		Snippet: htmlToText(item.Description),
		Source:  sourceName,
	}
	if item.PublishedParsed != nil {
		raw.PublishedAt = item.PublishedParsed.UTC()
	}
	return raw
}

// htmlToText reduces an HTML fragment to its whitespace-collapsed text.
func htmlToText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.Join(strings.Fields(fragment), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
