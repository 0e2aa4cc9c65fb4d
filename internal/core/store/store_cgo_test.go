//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kwradar/kwradar/internal/config"
	"github.com/kwradar/kwradar/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	store, err := Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenMemoryStore(t *testing.T) {
	store := openTestStore(t)
	require.Equal(t, "libsql", store.Driver())
}

func TestSaveReportRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	report := &core.SeedReport{
		Seed: "chess openings",
		Results: []*core.CollectResult{
			{
				Seed:   "chess openings",
				Source: core.SourceAutocomplete,
				Status: core.CollectOK,
				Suggestions: []core.Suggestion{
					{Term: "chess openings for beginners", Seed: "chess openings", Source: "autocomplete", Rank: 1},
					{Term: "chess openings explained", Seed: "chess openings", Source: "autocomplete", Rank: 2},
				},
				Provenance: core.Provenance{CollectID: "run-1", RequestedAt: now, ResolvedAt: now},
			},
			{
				Seed:   "chess openings",
				Source: core.SourceTrends,
				Status: core.CollectOK,
				Trend: &core.TrendSeries{
					Growth: 42.5,
					Points: []core.TrendPoint{
						{Date: now.AddDate(0, -1, 0), Value: 30},
						{Date: now, Value: 50},
					},
				},
				Provenance: core.Provenance{CollectID: "run-2", RequestedAt: now, ResolvedAt: now},
			},
		},
	}

	require.NoError(t, store.SaveReport(ctx, report))

	suggestions, err := store.Suggestions(ctx, "chess openings")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	require.Equal(t, "chess openings for beginners", suggestions[0].Term)

	trend, err := store.Trend(ctx, "chess openings")
	require.NoError(t, err)
	require.NotNil(t, trend)
	require.InDelta(t, 42.5, trend.Growth, 0.001)
	require.Len(t, trend.Points, 2)

	metrics, err := store.SeedMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	require.Equal(t, "chess openings", metrics[0].Seed)
	require.Equal(t, 2, metrics[0].Suggestions)
	require.True(t, metrics[0].HasTrend)
	require.InDelta(t, 40.0, metrics[0].MeanInterest, 0.001)

	// Re-saving refreshes suggestion ranks instead of duplicating rows.
	report.Results[0].Suggestions[0].Rank = 3
	require.NoError(t, store.SaveReport(ctx, report))
	suggestions, err = store.Suggestions(ctx, "chess openings")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
}

func TestTrendMissingSeed(t *testing.T) {
	store := openTestStore(t)

	trend, err := store.Trend(context.Background(), "unknown")
	require.NoError(t, err)
	require.Nil(t, trend)
}

func TestThrottleEventAuditLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	events := []ThrottleEvent{
		{Severity: "medium", Source: "autocomplete", Penalty: 25 * time.Second, MinInterval: 8 * time.Second, CreatedAt: now.Add(-2 * time.Hour)},
		{Severity: "high", Source: "trends", Penalty: 45 * time.Second, MinInterval: 11 * time.Second, CreatedAt: now.Add(-time.Hour)},
		{Severity: "high", Source: "trends", Penalty: 90 * time.Second, MinInterval: 24 * time.Second, CreatedAt: now},
	}
	for _, event := range events {
		require.NoError(t, store.RecordThrottleEvent(ctx, event))
	}

	listed, err := store.ListThrottleEvents(ctx, ThrottleEventQuery{All: true})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	// Newest first.
	require.Equal(t, 90*time.Second, listed[0].Penalty)

	high, err := store.ListThrottleEvents(ctx, ThrottleEventQuery{Severity: "high"})
	require.NoError(t, err)
	require.Len(t, high, 2)

	count, err := store.CountThrottleEvents(ctx, ThrottleEventQuery{Severity: "high", Since: now.Add(-30 * time.Minute)})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	purged, err := store.PurgeThrottleEvents(ctx, now.Add(-90*time.Minute))
	require.NoError(t, err)
	require.Equal(t, int64(1), purged)

	remaining, err := store.CountThrottleEvents(ctx, ThrottleEventQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, 2, remaining)

	deleted, err := store.ResetThrottleEvents(ctx, ThrottleEventQuery{Severity: "high"})
	require.NoError(t, err)
	require.Equal(t, int64(2), deleted)

	remaining, err = store.CountThrottleEvents(ctx, ThrottleEventQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, 0, remaining)

	require.Error(t, store.RecordThrottleEvent(ctx, ThrottleEvent{}))
}
