package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/core/collector"
	"github.com/kwradar/kwradar/internal/core/gate"
)

type stubCollector struct {
	source   core.SourceType
	result   *core.CollectResult
	err      error
	supports bool
	calls    atomic.Int64
}

func (s *stubCollector) Collect(_ context.Context, seed string) (*core.CollectResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	if s.result != nil {
		out := *s.result
		out.Seed = seed
		return &out, nil
	}
	return &core.CollectResult{Seed: seed, Source: s.source, Status: core.CollectOK}, nil
}

func (s *stubCollector) Source() core.SourceType { return s.source }

func (s *stubCollector) SupportsSeed(string) bool { return s.supports }

func newStub(source core.SourceType, status core.CollectStatus, terms int) *stubCollector {
	suggestions := make([]core.Suggestion, terms)
	for i := range suggestions {
		suggestions[i] = core.Suggestion{Term: "term", Rank: i + 1}
	}
	return &stubCollector{
		source:   source,
		supports: true,
		result:   &core.CollectResult{Source: source, Status: status, Suggestions: suggestions},
	}
}

func testOrchestrator(collectors ...collector.Collector) *Orchestrator {
	bySource := make(map[core.SourceType]collector.Collector, len(collectors))
	for _, c := range collectors {
		bySource[c.Source()] = c
	}
	return &Orchestrator{
		Collectors: bySource,
		Clock: func() time.Time {
			return time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
		},
	}
}

func TestCollectAggregatesSources(t *testing.T) {
	o := testOrchestrator(
		newStub(core.SourceAutocomplete, core.CollectOK, 4),
		newStub(core.SourceReddit, core.CollectOK, 2),
		newStub(core.SourceTrends, core.CollectError, 0),
	)

	report, err := o.Collect(context.Background(), " Chess Openings ", []core.SourceType{
		core.SourceAutocomplete, core.SourceReddit, core.SourceTrends,
	})
	require.NoError(t, err)
	require.Equal(t, "chess openings", report.Seed)
	require.Len(t, report.Results, 3)
	require.Equal(t, 6, report.Terms)
	require.Equal(t, 2, report.Sources)
	require.Equal(t, 1, report.Failed)
	require.False(t, report.CompletedAt.IsZero())
}

func TestCollectRequiresSeedAndSources(t *testing.T) {
	o := testOrchestrator(newStub(core.SourceAutocomplete, core.CollectOK, 1))

	_, err := o.Collect(context.Background(), "   ", []core.SourceType{core.SourceAutocomplete})
	require.Error(t, err)

	_, err = o.Collect(context.Background(), "seed", nil)
	require.Error(t, err)
}

func TestCollectSkipsMissingCollector(t *testing.T) {
	o := testOrchestrator(newStub(core.SourceAutocomplete, core.CollectOK, 1))

	report, err := o.Collect(context.Background(), "seed", []core.SourceType{
		core.SourceAutocomplete, core.SourceTrends,
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
}

func TestCollectReportsUnsupportedWhenIncluded(t *testing.T) {
	o := testOrchestrator(newStub(core.SourceAutocomplete, core.CollectOK, 1))
	o.IncludeUnsupported = true

	report, err := o.Collect(context.Background(), "seed", []core.SourceType{
		core.SourceAutocomplete, core.SourceTrends,
	})
	require.NoError(t, err)
	require.Len(t, report.Results, 2)
	require.Equal(t, core.CollectUnsupported, report.Results[1].Status)
}

func TestCollectAbortsOnCapacityError(t *testing.T) {
	exhausted := &stubCollector{
		source:   core.SourceTrends,
		supports: true,
		err:      &gate.CapacityError{Window: "hour", ResetIn: 20 * time.Minute},
	}
	o := testOrchestrator(newStub(core.SourceAutocomplete, core.CollectOK, 1), exhausted)

	_, err := o.Collect(context.Background(), "seed", []core.SourceType{
		core.SourceAutocomplete, core.SourceTrends,
	})
	var capErr *gate.CapacityError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, "hour", capErr.Window)
}

func TestCollectAllKeepsInputOrder(t *testing.T) {
	o := testOrchestrator(newStub(core.SourceAutocomplete, core.CollectOK, 1))

	seeds := []string{"alpha", "bravo", "charlie", "delta"}
	reports, err := o.CollectAll(context.Background(), seeds, []core.SourceType{core.SourceAutocomplete}, 3)
	require.NoError(t, err)
	require.Len(t, reports, 4)
	for i, report := range reports {
		require.NotNil(t, report)
		require.Equal(t, seeds[i], report.Seed)
	}
}

func TestCollectAllStopsOnFirstError(t *testing.T) {
	failing := &stubCollector{
		source:   core.SourceAutocomplete,
		supports: true,
		err:      errors.New("boom"),
	}
	o := testOrchestrator(failing)

	seeds := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	_, err := o.CollectAll(context.Background(), seeds, []core.SourceType{core.SourceAutocomplete}, 2)
	require.Error(t, err)
}
