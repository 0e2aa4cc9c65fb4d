package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/core/gate"
)

const (
	autocompleteSource  = "suggestqueries"
	defaultSuggestBase  = "https://suggestqueries.google.com"
	maxSeedLength       = 100
	autocompleteMaxBody = 1 << 20
)

// AutocompleteCollector fetches related search terms from the Google
// suggest endpoint. With YouTube set it queries the YouTube variant of the
// same endpoint instead.
type AutocompleteCollector struct {
	Gate        *gate.Controller
	Client      *http.Client
	BaseURL     string
	Language    string
	YouTube     bool
	ToolVersion string
	Clock       func() time.Time
}

// Collect fetches suggestions for a single seed keyword.
func (c *AutocompleteCollector) Collect(ctx context.Context, seed string) (*core.CollectResult, error) {
	if c == nil || c.Gate == nil {
		return nil, errors.New("autocomplete collector is not configured")
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
	req.Header.Set("Accept", "application/json,text/plain,*/*")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; KwRadar/1.0)")

	resp, err := httpClient(c.Client).Do(req)
	if err != nil {
		return c.result(value, core.CollectError, 0, err.Error(), nil, requestedAt), nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
		terms, err := parseSuggestPayload(io.LimitReader(resp.Body, autocompleteMaxBody))
		if err != nil {
			return c.result(value, core.CollectError, resp.StatusCode, "malformed suggest payload", nil, requestedAt), nil
		}
		if len(terms) == 0 {
			return c.result(value, core.CollectEmpty, resp.StatusCode, "no suggestions", nil, requestedAt), nil
		}
		return c.result(value, core.CollectOK, resp.StatusCode, "", c.suggestions(value, terms), requestedAt), nil
	case http.StatusTooManyRequests:
		penalty := c.Gate.RegisterThrottleEvent(throttleSeverity(gate.SeverityMedium, retryAfterHeader(resp)))
		message := fmt.Sprintf("suggest endpoint throttled, backing off %s", penalty.Round(time.Second))
		result := c.result(value, core.CollectRateLimited, resp.StatusCode, message, nil, requestedAt)
		result.Penalty = penalty
		return result, nil
	default:
		return c.result(value, core.CollectError, resp.StatusCode, "unexpected suggest response", nil, requestedAt), nil
	}
}

// Source returns the collector source type.
func (c *AutocompleteCollector) Source() core.SourceType {
	if c != nil && c.YouTube {
		return core.SourceYouTube
	}
	return core.SourceAutocomplete
}

// SupportsSeed validates seed keyword constraints.
func (c *AutocompleteCollector) SupportsSeed(seed string) bool {
	value := strings.TrimSpace(seed)
	if value == "" || len(value) > maxSeedLength {
		return false
	}
	return !strings.ContainsAny(value, "\r\n")
}

func (c *AutocompleteCollector) endpoint(seed string) (string, error) {
	base := defaultSuggestBase
	if c.BaseURL != "" {
		base = c.BaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid suggest base url: %w", err)
	}

	query := url.Values{}
	query.Set("q", seed)
	if c.YouTube {
		query.Set("client", "youtube")
		query.Set("ds", "yt")
	} else {
		query.Set("client", "firefox")
		lang := c.Language
		if lang == "" {
			lang = "en"
		}
		query.Set("hl", lang)
	}

	parsed = parsed.ResolveReference(&url.URL{Path: "/complete/search"})
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

func (c *AutocompleteCollector) suggestions(seed string, terms []string) []core.Suggestion {
	suggestions := make([]core.Suggestion, 0, len(terms))
	for i, term := range terms {
		suggestions = append(suggestions, core.Suggestion{
			Term:   term,
			Seed:   seed,
			Source: string(c.Source()),
			Rank:   i + 1,
		})
	}
	return suggestions
}

func (c *AutocompleteCollector) result(seed string, status core.CollectStatus, statusCode int, message string, suggestions []core.Suggestion, requestedAt time.Time) *core.CollectResult {
	return &core.CollectResult{
		Seed:        seed,
		Source:      c.Source(),
		Status:      status,
		StatusCode:  statusCode,
		Message:     message,
		Suggestions: suggestions,
		Provenance: core.Provenance{
			CollectID:   uuid.New().String(),
			RequestedAt: requestedAt,
			ResolvedAt:  c.now(),
			Source:      autocompleteSource,
			Server:      c.BaseURL,
			ToolVersion: c.ToolVersion,
		},
	}
}

func (c *AutocompleteCollector) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

// parseSuggestPayload decodes the suggest wire format: a JSON array whose
// second element is the list of suggested terms.
func parseSuggestPayload(r io.Reader) ([]string, error) {
	var payload []json.RawMessage
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, err
	}
	if len(payload) < 2 {
		return nil, nil
	}

	var terms []string
	if err := json.Unmarshal(payload[1], &terms); err != nil {
		return nil, err
	}

	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		cleaned = append(cleaned, term)
	}
	return cleaned, nil
}
