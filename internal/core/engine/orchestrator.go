package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/core/collector"
)

// Orchestrator fans a seed keyword across the configured collectors.
// Errors from the admission gate (exhausted hour/day capacity, context
// cancellation) abort the whole run; per-request failures are folded into
// the report instead.
type Orchestrator struct {
	Collectors         map[core.SourceType]collector.Collector
	IncludeUnsupported bool
	Clock              func() time.Time
}

// Collect runs the requested sources for one seed keyword.
func (o *Orchestrator) Collect(ctx context.Context, seed string, sources []core.SourceType) (*core.SeedReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	value := strings.ToLower(strings.TrimSpace(seed))
	if value == "" {
		return nil, fmt.Errorf("seed keyword is required")
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}

	report := &core.SeedReport{Seed: value}
	for _, source := range sources {
		result, err := o.runCollector(ctx, source, value)
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		report.Results = append(report.Results, result)
		switch result.Status {
		case core.CollectOK:
			report.Sources++
			report.Terms += len(result.Suggestions)
		case core.CollectError, core.CollectRateLimited:
			report.Failed++
		}
	}

	report.CompletedAt = o.now()
	return report, nil
}

func (o *Orchestrator) runCollector(ctx context.Context, source core.SourceType, seed string) (*core.CollectResult, error) {
	c := o.getCollector(source)
	if c == nil {
		if !o.IncludeUnsupported {
			return nil, nil
		}
		return o.unsupportedResult(seed, source, "collector not configured"), nil
	}

	if !c.SupportsSeed(seed) {
		if !o.IncludeUnsupported {
			return nil, nil
		}
		return o.unsupportedResult(seed, source, "collector does not support seed"), nil
	}

	return c.Collect(ctx, seed)
}

func (o *Orchestrator) getCollector(source core.SourceType) collector.Collector {
	if o == nil || o.Collectors == nil {
		return nil
	}
	return o.Collectors[source]
}

func (o *Orchestrator) unsupportedResult(seed string, source core.SourceType, message string) *core.CollectResult {
	now := o.now()
	return &core.CollectResult{
		Seed:    seed,
		Source:  source,
		Status:  core.CollectUnsupported,
		Message: message,
		Provenance: core.Provenance{
			RequestedAt: now,
			ResolvedAt:  now,
			Source:      "orchestrator",
		},
	}
}

func (o *Orchestrator) now() time.Time {
	if o != nil && o.Clock != nil {
		return o.Clock()
	}
	return time.Now().UTC()
}

type seedJob struct {
	index int
	seed  string
}

// CollectAll runs Collect for every seed with a bounded worker pool. The
// first error cancels the remaining work. Reports keep input order.
func (o *Orchestrator) CollectAll(ctx context.Context, seeds []string, sources []core.SourceType, concurrency int) ([]*core.SeedReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if concurrency < 1 {
		concurrency = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reports := make([]*core.SeedReport, len(seeds))
	jobs := make(chan seedJob)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)

	setErr := func(err error) {
		if err == nil {
			return
		}
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	worker := func() {
		defer wg.Done()
		for job := range jobs {
			if ctx.Err() != nil {
				return
			}
			report, err := o.Collect(ctx, job.seed, sources)
			if err != nil {
				setErr(err)
				return
			}
			reports[job.index] = report
		}
	}

	if concurrency > len(seeds) {
		concurrency = len(seeds)
	}
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go worker()
	}

sendLoop:
	for i, seed := range seeds {
		select {
		case <-ctx.Done():
			break sendLoop
		case jobs <- seedJob{index: i, seed: seed}:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	return reports, nil
}
