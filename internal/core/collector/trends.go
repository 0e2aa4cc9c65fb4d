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
	trendsSource      = "trends-explore"
	defaultTrendsBase = "https://trends.google.com"
	trendsMaxBody     = 4 << 20

	// The trends API prefixes every JSON body with an anti-hijacking
	// marker that must be stripped before decoding.
	trendsJSONPrefix = ")]}'"
)

// TrendsCollector fetches interest-over-time data for a seed keyword.
// Each collection makes two gated requests: one to resolve a widget token
// and one to pull the time series behind it.
type TrendsCollector struct {
	Gate        *gate.Controller
	Client      *http.Client
	BaseURL     string
	Geo         string
	Timeframe   string
	ToolVersion string
	Clock       func() time.Time
}

type trendsExplorePayload struct {
	Widgets []struct {
		ID      string          `json:"id"`
		Token   string          `json:"token"`
		Request json.RawMessage `json:"request"`
	} `json:"widgets"`
}

type trendsTimelinePayload struct {
	Default struct {
		TimelineData []struct {
			Time  string `json:"time"`
			Value []int  `json:"value"`
		} `json:"timelineData"`
	} `json:"default"`
}

// Collect resolves a widget token for the seed and fetches its
// interest-over-time series.
func (c *TrendsCollector) Collect(ctx context.Context, seed string) (*core.CollectResult, error) {
	if c == nil || c.Gate == nil {
		return nil, errors.New("trends collector is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.ToLower(strings.TrimSpace(seed))
	if value == "" {
		return nil, errors.New("seed keyword is required")
	}

	requestedAt := c.now()

	token, widgetReq, result, err := c.exploreWidget(ctx, value, requestedAt)
	if err != nil || result != nil {
		return result, err
	}

	return c.timeline(ctx, value, token, widgetReq, requestedAt)
}

// Source returns the collector source type.
func (c *TrendsCollector) Source() core.SourceType {
	return core.SourceTrends
}

// SupportsSeed validates seed keyword constraints.
func (c *TrendsCollector) SupportsSeed(seed string) bool {
	value := strings.TrimSpace(seed)
	if value == "" || len(value) > maxSeedLength {
		return false
	}
	return !strings.ContainsAny(value, "\r\n")
}

// exploreWidget resolves the TIMESERIES widget token. A non-nil result
// short-circuits the collection with a terminal status.
func (c *TrendsCollector) exploreWidget(ctx context.Context, seed string, requestedAt time.Time) (string, json.RawMessage, *core.CollectResult, error) {
	if err := c.Gate.AwaitTurn(ctx); err != nil {
		return "", nil, nil, err
	}

	comparison := map[string]any{
		"comparisonItem": []map[string]any{{
			"keyword": seed,
			"geo":     c.Geo,
			"time":    c.timeframe(),
		}},
		"category": 0,
		"property": "",
	}
	encoded, err := json.Marshal(comparison)
	if err != nil {
		return "", nil, nil, err
	}

	query := url.Values{}
	query.Set("hl", "en-US")
	query.Set("tz", "0")
	query.Set("req", string(encoded))

	resp, err := c.get(ctx, "/trends/api/explore", query)
	if err != nil {
		return "", nil, c.result(seed, core.CollectError, 0, err.Error(), nil, requestedAt), nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
		var payload trendsExplorePayload
		if err := decodeTrendsBody(resp.Body, &payload); err != nil {
			return "", nil, c.result(seed, core.CollectError, resp.StatusCode, "malformed explore payload", nil, requestedAt), nil
		}
		for _, widget := range payload.Widgets {
			if widget.ID == "TIMESERIES" && widget.Token != "" {
				return widget.Token, widget.Request, nil, nil
			}
		}
		return "", nil, c.result(seed, core.CollectEmpty, resp.StatusCode, "no timeseries widget for seed", nil, requestedAt), nil
	case http.StatusTooManyRequests:
		penalty := c.Gate.RegisterThrottleEvent(throttleSeverity(gate.SeverityHigh, retryAfterHeader(resp)))
		message := fmt.Sprintf("trends explore throttled, backing off %s", penalty.Round(time.Second))
		result := c.result(seed, core.CollectRateLimited, resp.StatusCode, message, nil, requestedAt)
		result.Penalty = penalty
		return "", nil, result, nil
	default:
		return "", nil, c.result(seed, core.CollectError, resp.StatusCode, "unexpected explore response", nil, requestedAt), nil
	}
}

func (c *TrendsCollector) timeline(ctx context.Context, seed, token string, widgetReq json.RawMessage, requestedAt time.Time) (*core.CollectResult, error) {
	if err := c.Gate.AwaitTurn(ctx); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("hl", "en-US")
	query.Set("tz", "0")
	query.Set("token", token)
	query.Set("req", string(widgetReq))

	resp, err := c.get(ctx, "/trends/api/widgetdata/multiline", query)
	if err != nil {
		return c.result(seed, core.CollectError, 0, err.Error(), nil, requestedAt), nil
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	switch resp.StatusCode {
	case http.StatusOK:
		var payload trendsTimelinePayload
		if err := decodeTrendsBody(resp.Body, &payload); err != nil {
			return c.result(seed, core.CollectError, resp.StatusCode, "malformed timeline payload", nil, requestedAt), nil
		}
		series := buildTrendSeries(payload)
		if series == nil {
			return c.result(seed, core.CollectEmpty, resp.StatusCode, "empty interest series", nil, requestedAt), nil
		}
		result := c.result(seed, core.CollectOK, resp.StatusCode, "", nil, requestedAt)
		result.Trend = series
		return result, nil
	case http.StatusTooManyRequests:
		penalty := c.Gate.RegisterThrottleEvent(throttleSeverity(gate.SeverityHigh, retryAfterHeader(resp)))
		message := fmt.Sprintf("trends timeline throttled, backing off %s", penalty.Round(time.Second))
		result := c.result(seed, core.CollectRateLimited, resp.StatusCode, message, nil, requestedAt)
		result.Penalty = penalty
		return result, nil
	default:
		return c.result(seed, core.CollectError, resp.StatusCode, "unexpected timeline response", nil, requestedAt), nil
	}
}

func (c *TrendsCollector) get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	base := defaultTrendsBase
	if c.BaseURL != "" {
		base = c.BaseURL
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid trends base url: %w", err)
	}
	parsed = parsed.ResolveReference(&url.URL{Path: path})
	parsed.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; KwRadar/1.0)")

	return httpClient(c.Client).Do(req)
}

func (c *TrendsCollector) timeframe() string {
	if c.Timeframe != "" {
		return c.Timeframe
	}
	return "today 12-m"
}

func (c *TrendsCollector) result(seed string, status core.CollectStatus, statusCode int, message string, suggestions []core.Suggestion, requestedAt time.Time) *core.CollectResult {
	return &core.CollectResult{
		Seed:        seed,
		Source:      core.SourceTrends,
		Status:      status,
		StatusCode:  statusCode,
		Message:     message,
		Suggestions: suggestions,
		Provenance: core.Provenance{
			CollectID:   uuid.New().String(),
			RequestedAt: requestedAt,
			ResolvedAt:  c.now(),
			Source:      trendsSource,
			Server:      c.BaseURL,
			ToolVersion: c.ToolVersion,
		},
	}
}

func (c *TrendsCollector) now() time.Time {
	if c != nil && c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}

func decodeTrendsBody(r io.Reader, v any) error {
	raw, err := io.ReadAll(io.LimitReader(r, trendsMaxBody))
	if err != nil {
		return err
	}
	body := strings.TrimSpace(string(raw))
	body = strings.TrimPrefix(body, trendsJSONPrefix)
	return json.Unmarshal([]byte(body), v)
}

// buildTrendSeries converts the timeline payload into a series and
// computes growth as the percent change between the mean of the first and
// second halves of the samples.
func buildTrendSeries(payload trendsTimelinePayload) *core.TrendSeries {
	data := payload.Default.TimelineData
	if len(data) == 0 {
		return nil
	}

	points := make([]core.TrendPoint, 0, len(data))
	for _, sample := range data {
		if len(sample.Value) == 0 {
			continue
		}
		epoch, err := strconv.ParseInt(sample.Time, 10, 64)
		if err != nil {
			continue
		}
		points = append(points, core.TrendPoint{
			Date:  time.Unix(epoch, 0).UTC(),
			Value: sample.Value[0],
		})
	}
	if len(points) == 0 {
		return nil
	}

	return &core.TrendSeries{
		Points: points,
		Growth: seriesGrowth(points),
	}
}

func seriesGrowth(points []core.TrendPoint) float64 {
	if len(points) < 2 {
		return 0
	}

	half := len(points) / 2
	first := meanValue(points[:half])
	second := meanValue(points[half:])

	if first == 0 {
		if second == 0 {
			return 0
		}
		return 100
	}
	return (second - first) / first * 100
}

func meanValue(points []core.TrendPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += float64(p.Value)
	}
	return sum / float64(len(points))
}
