// internal/gdelt/client.go

// Package gdelt fetches short-lived news-context snippets from the GDELT
// DOC 2.0 API. Failures degrade to a fixed sentinel string; a context
// fetch never aborts the analysis pipeline.
package gdelt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/redis/go-redis/v9"

	"crisis-atlas/internal/common/config"
	"crisis-atlas/internal/common/logger"
	"crisis-atlas/internal/common/metrics"
)

// NoContextSentinel is substituted whenever a fetch fails, times out, or
// returns no articles.
const NoContextSentinel = "No recent news context available."

type Client struct {
	config *config.GDELTConfig
	client *http.Client
	redis  *redis.Client
	logger logger.Logger
}

// NewClient builds a gateway client. redisClient may be nil to disable
// caching.
func NewClient(cfg *config.GDELTConfig, redisClient *redis.Client, log logger.Logger) *Client {
	return &Client{
		config: cfg,
		client: &http.Client{
			Timeout: config.GetDuration(cfg.Timeout),
		},
		redis:  redisClient,
		logger: log.WithFields(map[string]interface{}{"component": "gdelt"}),
	}
}

// Fetch returns formatted article titles for the query, or the sentinel.
// The per-fetch timeout comes from config; errors are absorbed here.
func (c *Client) Fetch(ctx context.Context, query string) string {
	if strings.TrimSpace(query) == "" {
		return NoContextSentinel
	}

	cacheKey := "gdelt:context:" + query
	if c.redis != nil {
		if val, err := c.redis.Get(ctx, cacheKey).Result(); err == nil {
			metrics.ContextCacheHits.WithLabelValues("hit").Inc()
			return val
		}
		metrics.ContextCacheHits.WithLabelValues("miss").Inc()
	}

	snippet, err := c.fetch(ctx, query)
	if err != nil {
		c.logger.Warn("context fetch failed, substituting sentinel", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return NoContextSentinel
	}

	if c.redis != nil && snippet != NoContextSentinel {
		c.redis.Set(ctx, cacheKey, snippet, config.GetDuration(c.config.CacheTTL))
	}
	return snippet
}

func (c *Client) fetch(ctx context.Context, query string) (string, error) {
	searchURL := fmt.Sprintf("%s?query=%s&mode=artlist&format=json&maxrecords=%d",
		c.config.BaseURL, url.QueryEscape(query), c.config.MaxRecords)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gdelt API returned %d", resp.StatusCode)
	}

	var apiResponse struct {
		Articles []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return "", err
	}

	if len(apiResponse.Articles) == 0 {
		return NoContextSentinel, nil
	}

	titles := make([]string, 0, len(apiResponse.Articles))
	for _, a := range apiResponse.Articles {
		titles = append(titles, "- "+a.Title)
	}
	return strings.Join(titles, "\n"), nil
}
