// Package news fetches headlines from a NewsAPI-compatible provider.
// The endpoints it backs are unauthenticated and carry no user data;
// provider failures degrade to empty article lists, never to HTTP errors.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/hyperengineering/stockin/internal/types"
)

const (
	// DefaultBaseURL is the public NewsAPI endpoint.
	DefaultBaseURL = "https://newsapi.org/v2"

	// DefaultTimeout bounds a single provider call. No retries.
	DefaultTimeout = 15 * time.Second

	// headlinesPageSize is the fixed page size per category.
	headlinesPageSize = 10

	// companyArticleLimit caps the per-company article list.
	companyArticleLimit = 5
)

// DefaultCategories is the feed served when the caller names none.
var DefaultCategories = []string{"business", "technology", "science", "health"}

// Provider is the news lookup contract used by the API layer.
type Provider interface {
	// TopHeadlines fetches headlines per category with independent calls.
	// A failing category degrades to an empty slice.
	TopHeadlines(ctx context.Context, categories []string) map[string][]types.Article

	// Everything returns up to companyArticleLimit articles mentioning the
	// company, newest publication first.
	Everything(ctx context.Context, company string) ([]types.Article, error)
}

// Compile-time interface check
var _ Provider = (*Client)(nil)

// Client calls a NewsAPI-compatible provider over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewClient creates a news client. An empty apiKey is allowed; every lookup
// then degrades to empty results.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// apiArticle is the provider's wire representation.
type apiArticle struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	PublishedAt string `json:"publishedAt"`
}

type apiResponse struct {
	Status   string       `json:"status"`
	Message  string       `json:"message"`
	Articles []apiArticle `json:"articles"`
}

// TopHeadlines fetches headlines for each category. Categories fail
// independently: an error empties that category and is logged, the rest of
// the feed is unaffected.
func (c *Client) TopHeadlines(ctx context.Context, categories []string) map[string][]types.Article {
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	feed := make(map[string][]types.Article, len(categories))
	for _, category := range categories {
		articles, err := c.fetch(ctx, "/top-headlines", url.Values{
			"category": {category},
			"pageSize": {fmt.Sprint(headlinesPageSize)},
		})
		if err != nil {
			slog.Warn("headlines lookup failed", "category", category, "error", err)
			feed[category] = []types.Article{}
			continue
		}
		feed[category] = articles
	}
	return feed
}

// Everything returns articles mentioning the company, sorted by publication
// time descending and truncated to companyArticleLimit.
func (c *Client) Everything(ctx context.Context, company string) ([]types.Article, error) {
	articles, err := c.fetch(ctx, "/everything", url.Values{
		"q":        {company},
		"sortBy":   {"publishedAt"},
		"pageSize": {fmt.Sprint(companyArticleLimit)},
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	if len(articles) > companyArticleLimit {
		articles = articles[:companyArticleLimit]
	}
	return articles, nil
}

// fetch performs one provider call and maps the wire articles.
func (c *Client) fetch(ctx context.Context, path string, query url.Values) ([]types.Article, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("no news API key configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()

	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || ar.Status != "ok" {
		return nil, fmt.Errorf("news provider status %d: %s", resp.StatusCode, ar.Message)
	}

	articles := make([]types.Article, 0, len(ar.Articles))
	for _, a := range ar.Articles {
		publishedAt, _ := time.Parse(time.RFC3339, a.PublishedAt)
		articles = append(articles, types.Article{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			PublishedAt: publishedAt,
		})
	}
	return articles, nil
}
