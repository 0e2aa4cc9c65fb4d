package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/core/gate"
)

// newTestGate returns a controller on a fake clock so tests never sleep.
func newTestGate(t *testing.T) *gate.Controller {
	t.Helper()

	var mu sync.Mutex
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	ctrl := gate.New(gate.DefaultConfig(), nil)
	ctrl.Clock = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	ctrl.Sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		defer mu.Unlock()
		if err := ctx.Err(); err != nil {
			return err
		}
		now = now.Add(d)
		return nil
	}
	return ctrl
}

func TestAutocompleteCollectOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/complete/search", r.URL.Path)
		require.Equal(t, "firefox", r.URL.Query().Get("client"))
		require.Equal(t, "chess openings", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`["chess openings",["chess openings for beginners","chess openings explained","  ","chess openings for white"]]`))
	}))
	defer srv.Close()

	c := &AutocompleteCollector{
		Gate:        newTestGate(t),
		Client:      srv.Client(),
		BaseURL:     srv.URL,
		ToolVersion: "test",
	}

	result, err := c.Collect(context.Background(), "  Chess Openings ")
	require.NoError(t, err)
	require.Equal(t, core.CollectOK, result.Status)
	require.Equal(t, core.SourceAutocomplete, result.Source)
	require.Equal(t, "chess openings", result.Seed)
	require.Len(t, result.Suggestions, 3)
	require.Equal(t, "chess openings for beginners", result.Suggestions[0].Term)
	require.Equal(t, 1, result.Suggestions[0].Rank)
	require.Equal(t, 3, result.Suggestions[2].Rank)
	require.NotEmpty(t, result.Provenance.CollectID)
}

func TestAutocompleteYouTubeVariant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "youtube", r.URL.Query().Get("client"))
		require.Equal(t, "yt", r.URL.Query().Get("ds"))
		_, _ = w.Write([]byte(`["guitar",["guitar lessons"]]`))
	}))
	defer srv.Close()

	c := &AutocompleteCollector{
		Gate:    newTestGate(t),
		Client:  srv.Client(),
		BaseURL: srv.URL,
		YouTube: true,
	}

	result, err := c.Collect(context.Background(), "guitar")
	require.NoError(t, err)
	require.Equal(t, core.SourceYouTube, result.Source)
	require.Equal(t, core.CollectOK, result.Status)
}

func TestAutocompleteEmptyPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`["nothing",[]]`))
	}))
	defer srv.Close()

	c := &AutocompleteCollector{Gate: newTestGate(t), Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "nothing")
	require.NoError(t, err)
	require.Equal(t, core.CollectEmpty, result.Status)
	require.Empty(t, result.Suggestions)
}

func TestAutocompleteThrottleWidensGate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "10")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctrl := newTestGate(t)
	c := &AutocompleteCollector{Gate: ctrl, Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "busy seed")
	require.NoError(t, err)
	require.Equal(t, core.CollectRateLimited, result.Status)
	require.Equal(t, http.StatusTooManyRequests, result.StatusCode)
	require.Contains(t, result.Message, "backing off")

	// Medium severity on a 5s base widens the interval to 8s and returns
	// the 25s cooldown-floor penalty, carried on the result for auditing.
	require.Equal(t, 8*time.Second, ctrl.Stats().MinInterval)
	require.Equal(t, 25*time.Second, result.Penalty)
}

func TestAutocompleteMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := &AutocompleteCollector{Gate: newTestGate(t), Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "broken")
	require.NoError(t, err)
	require.Equal(t, core.CollectError, result.Status)
}

func TestAutocompleteSupportsSeed(t *testing.T) {
	c := &AutocompleteCollector{}
	require.True(t, c.SupportsSeed("chess openings"))
	require.False(t, c.SupportsSeed("   "))
	require.False(t, c.SupportsSeed("multi\nline"))
	require.False(t, c.SupportsSeed(string(make([]byte, maxSeedLength+1))))
}

func TestRedditCollectDeduplicatesTitles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search.json", r.URL.Path)
		require.Equal(t, "sourdough starter", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"data":{"children":[
			{"data":{"title":"Sourdough starter troubleshooting"}},
			{"data":{"title":"sourdough starter troubleshooting"}},
			{"data":{"title":""}},
			{"data":{"title":"My starter doubled overnight"}}
		]}}`))
	}))
	defer srv.Close()

	c := &RedditCollector{Gate: newTestGate(t), Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "Sourdough Starter")
	require.NoError(t, err)
	require.Equal(t, core.CollectOK, result.Status)
	require.Len(t, result.Suggestions, 2)
	require.Equal(t, "Sourdough starter troubleshooting", result.Suggestions[0].Term)
	require.Equal(t, "My starter doubled overnight", result.Suggestions[1].Term)
}

func TestRedditForbiddenIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := &RedditCollector{Gate: newTestGate(t), Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "anything")
	require.NoError(t, err)
	require.Equal(t, core.CollectError, result.Status)
	require.Equal(t, http.StatusForbidden, result.StatusCode)
}

func TestTrendsCollectFullFlow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/trends/api/explore":
			_, _ = w.Write([]byte(`)]}'
{"widgets":[
	{"id":"RELATED_QUERIES","token":"other"},
	{"id":"TIMESERIES","token":"tok-123","request":{"time":"today 12-m"}}
]}`))
		case "/trends/api/widgetdata/multiline":
			require.Equal(t, "tok-123", r.URL.Query().Get("token"))
			_, _ = w.Write([]byte(`)]}'
{"default":{"timelineData":[
	{"time":"1700000000","value":[20]},
	{"time":"1700604800","value":[20]},
	{"time":"1701209600","value":[30]},
	{"time":"1701814400","value":[50]}
]}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := &TrendsCollector{Gate: newTestGate(t), Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "standing desk")
	require.NoError(t, err)
	require.Equal(t, core.CollectOK, result.Status)
	require.NotNil(t, result.Trend)
	require.Len(t, result.Trend.Points, 4)
	// First half mean 20, second half mean 40: 100% growth.
	require.InDelta(t, 100.0, result.Trend.Growth, 0.001)
}

func TestTrendsNoTimeseriesWidget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`)]}'` + "\n" + `{"widgets":[{"id":"RELATED_QUERIES","token":"other"}]}`))
	}))
	defer srv.Close()

	c := &TrendsCollector{Gate: newTestGate(t), Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "obscure term")
	require.NoError(t, err)
	require.Equal(t, core.CollectEmpty, result.Status)
	require.Nil(t, result.Trend)
}

func TestTrendsThrottleEscalatesHigh(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctrl := newTestGate(t)
	c := &TrendsCollector{Gate: ctrl, Client: srv.Client(), BaseURL: srv.URL}

	result, err := c.Collect(context.Background(), "hot seed")
	require.NoError(t, err)
	require.Equal(t, core.CollectRateLimited, result.Status)

	// High severity on a 5s base widens the interval to 11s and returns
	// the 45s cooldown-floor penalty.
	require.Equal(t, 11*time.Second, ctrl.Stats().MinInterval)
	require.Equal(t, 45*time.Second, result.Penalty)
}

func TestSeriesGrowthEdgeCases(t *testing.T) {
	require.Zero(t, seriesGrowth(nil))
	require.Zero(t, seriesGrowth([]core.TrendPoint{{Value: 10}}))

	flat := []core.TrendPoint{{Value: 0}, {Value: 0}}
	require.Zero(t, seriesGrowth(flat))

	fromZero := []core.TrendPoint{{Value: 0}, {Value: 40}}
	require.Equal(t, 100.0, seriesGrowth(fromZero))
}

func TestRetryAfterHeader(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}
	require.Zero(t, retryAfterHeader(resp))

	resp.Header.Set("Retry-After", "30")
	require.Equal(t, 30*time.Second, retryAfterHeader(resp))

	resp.Header.Set("Retry-After", "not-a-value")
	require.Zero(t, retryAfterHeader(resp))

	require.Zero(t, retryAfterHeader(nil))
}

func TestThrottleSeverityEscalation(t *testing.T) {
	require.Equal(t, gate.SeverityMedium, throttleSeverity(gate.SeverityMedium, 10*time.Second))
	require.Equal(t, gate.SeverityHigh, throttleSeverity(gate.SeverityMedium, 2*time.Minute))
	require.Equal(t, gate.SeverityLow, throttleSeverity(gate.SeverityLow, 0))
}
