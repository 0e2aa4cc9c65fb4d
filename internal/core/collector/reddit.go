package collector

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

	"github.com/google/uuid"

	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/core/gate"
)

const (
	redditSource      = "reddit-search"
	defaultRedditBase = "https://www.reddit.com"
	defaultRedditHits = 25
	redditMaxBody     = 4 << 20
)

// RedditCollector surfaces discussion titles around a seed keyword by
// querying Reddit's public search endpoint.
type RedditCollector struct {
	Gate        *gate.Controller
	Client      *http.Client
	BaseURL     string
	Limit       int
	ToolVersion string
	Clock       func() time.Time
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				Title string `json:"title"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Collect searches Reddit for the seed keyword and records post titles as
// candidate phrases.
func (c *RedditCollector) Collect(ctx context.Context, seed string) (*core.CollectResult, error) {
	if c == nil || c.Gate == nil {
		return nil, errors.New("reddit collector is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.ToLower(strings.TrimSpace(seed))
	if value == "" {
		return nil, errors.New("seed keyword is required")
	}

	requestedAt := c.now()

	if err := c.Gate.AwaitTurn(ctx); err != nil {
		return nil, err
	}

	endpoint, err := c.endpoint(value)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "kwradar:keyword-research:v1 (by /u/kwradar)")

	resp, err := httpClient(c.Client).Do(req)
	if err != nil {
		return c.result(value, core.CollectError, 0, err.Error(), nil, requestedAt), nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
		var listing redditListing
		if err := json.NewDecoder(io.LimitReader(resp.Body, redditMaxBody)).Decode(&listing); err != nil {
			return c.result(value, core.CollectError, resp.StatusCode, "malformed listing payload", nil, requestedAt), nil
		}
		suggestions := c.suggestions(value, listing)
		if len(suggestions) == 0 {
			return c.result(value, core.CollectEmpty, resp.StatusCode, "no matching posts", nil, requestedAt), nil
		}
		return c.result(value, core.CollectOK, resp.StatusCode, "", suggestions, requestedAt), nil
	case http.StatusTooManyRequests:
		penalty := c.Gate.RegisterThrottleEvent(throttleSeverity(gate.SeverityMedium, retryAfterHeader(resp)))
		message := fmt.Sprintf("reddit search throttled, backing off %s", penalty.Round(time.Second))
		result := c.result(value, core.CollectRateLimited, resp.StatusCode, message, nil, requestedAt)
		result.Penalty = penalty
		return result, nil
	case http.StatusForbidden:
		return c.result(value, core.CollectError, resp.StatusCode, "reddit rejected the request", nil, requestedAt), nil
	default:
		return c.result(value, core.CollectError, resp.StatusCode, "unexpected reddit response", nil, requestedAt), nil
	}
}

// Source returns the collector source type.
func (c *RedditCollector) Source() core.SourceType {
	return core.SourceReddit
}

// SupportsSeed validates seed keyword constraints.
func (c *RedditCollector) SupportsSeed(seed string) bool {
	value := strings.TrimSpace(seed)
	if value == "" || len(value) > maxSeedLength {
		return false
	}
	return !strings.ContainsAny(value, "\r\n")
}

func (c *RedditCollector) endpoint(seed string) (string, error) {
	base := defaultRedditBase
	if c.BaseURL != "" {
		base = c.BaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid reddit base url: %w", err)
	}

	limit := c.Limit
	if limit <= 0 {
		limit = defaultRedditHits
	}

	query := url.Values{}
	query.Set("q", seed)
	query.Set("sort", "relevance")
	query.Set("t", "year")
	query.Set("limit", strconv.Itoa(limit))

	parsed = parsed.ResolveReference(&url.URL{Path: "/search.json"})
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *RedditCollector) suggestions(seed string, listing redditListing) []core.Suggestion {
	suggestions := make([]core.Suggestion, 0, len(listing.Data.Children))
	seen := make(map[string]struct{}, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		title := strings.TrimSpace(child.Data.Title)
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		suggestions = append(suggestions, core.Suggestion{
			Term:   title,
			Seed:   seed,
			Source: string(core.SourceReddit),
			Rank:   len(suggestions) + 1,
		})
	}
	return suggestions
}

func (c *RedditCollector) result(seed string, status core.CollectStatus, statusCode int, message string, suggestions []core.Suggestion, requestedAt time.Time) *core.CollectResult {
	return &core.CollectResult{
		Seed:        seed,
		Source:      core.SourceReddit,
		Status:      status,
		StatusCode:  statusCode,
		Message:     message,
		Suggestions: suggestions,
		Provenance: core.Provenance{
			CollectID:   uuid.New().String(),
			RequestedAt: requestedAt,
			ResolvedAt:  c.now(),
			Source:      redditSource,
			Server:      c.BaseURL,
			ToolVersion: c.ToolVersion,
		},
	}
}

func (c *RedditCollector) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
