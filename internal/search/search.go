// YouTube search [Provider] implementation
//
// Communicates with the yt-dlp metadata proxy which wraps search and
// flat-extraction. Searches are rate limited so bulk resolution runs do not
// hammer the proxy.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/jordolang/tunedl/internal/models"
	"golang.org/x/time/rate"
)

const defaultProxyURL = "http://localhost:8000"

// Provider is the contract consumed by the resolver for locating
// downloadable sources. Implementations return ranked raw results;
// zero results is not an error.
type Provider interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

type proxyResult struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Uploader    string `json:"uploader"`
	DurationSec int    `json:"duration"`
	ViewCount   int64  `json:"view_count"`
}

// Client implements [Provider] against the metadata proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a search client for the given proxy URL.
// A non-positive requestsPerSec disables rate limiting.
func NewClient(baseURL string, requestsPerSec float64) *Client {
	if baseURL == "" {
		baseURL = defaultProxyURL
	}

	var limiter *rate.Limiter
	if requestsPerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSec), 1)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		limiter:    limiter,
	}
}

// Search queries the proxy and returns results with base ranking scores
// assigned. An empty result set returns an empty slice and a nil error.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := fmt.Sprintf("%s/api/search?q=%s&limit=%d", c.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return nil, fmt.Errorf("search proxy error (status %d): %s", resp.StatusCode, errResp.Detail)
		}
		return nil, fmt.Errorf("search proxy error: status %d", resp.StatusCode)
	}

	var payload struct {
		Results []proxyResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(payload.Results))
	for _, pr := range payload.Results {
		if pr.ID == "" {
			continue
		}

		sourceURL := pr.URL
		if sourceURL == "" {
			sourceURL = "https://www.youtube.com/watch?v=" + pr.ID
		}

		channel := pr.Channel
		if channel == "" {
			channel = pr.Uploader
		}

		results = append(results, models.SearchResult{
			SourceID:    pr.ID,
			URL:         sourceURL,
			Title:       pr.Title,
			Channel:     channel,
			DurationSec: pr.DurationSec,
			ViewCount:   pr.ViewCount,
		})
	}

	RankResults(results)
	return results, nil
}
