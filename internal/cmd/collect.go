package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kwradar/kwradar/internal/config"
	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/core/collector"
	"github.com/kwradar/kwradar/internal/core/engine"
	"github.com/kwradar/kwradar/internal/core/gate"
	"github.com/kwradar/kwradar/internal/core/store"
	apperrors "github.com/kwradar/kwradar/internal/errors"
	"github.com/kwradar/kwradar/internal/observability"
	"github.com/kwradar/kwradar/internal/output"
)

var collectCmd = &cobra.Command{
	Use:   "collect [seed...]",
	Short: "Collect demand signals for seed keywords",
	Long: `Collect related terms and interest trends for seed keywords from the
configured sources. Outbound requests are paced by the shared admission
gate; exhausted hour or day capacity aborts the run.`,
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringSlice("sources", nil, "Sources to query (default from config)")
	collectCmd.Flags().String("file", "", "Read seed keywords from file (one per line)")
	collectCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	collectCmd.Flags().String("out", "", "Write output to file instead of stdout")
	collectCmd.Flags().Int("concurrency", 0, "Concurrent seeds (default from config workers)")
	collectCmd.Flags().Bool("no-save", false, "Skip persisting results to the store")
	collectCmd.Flags().Bool("include-unsupported", false, "Report sources that cannot handle a seed")
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	seeds, err := collectSeeds(cmd, args)
	if err != nil {
		return err
	}

	sourceNames, err := cmd.Flags().GetStringSlice("sources")
	if err != nil {
		return err
	}
	if len(sourceNames) == 0 {
		sourceNames = cfg.Collect.Sources
	}
	sources, err := parseSources(sourceNames)
	if err != nil {
		return err
	}

	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return err
	}
	includeUnsupported, err := cmd.Flags().GetBool("include-unsupported")
	if err != nil {
		return err
	}

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if concurrency <= 0 {
		concurrency = cfg.Workers
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	ctrl := gate.InitShared(gateConfig(cfg), observability.CLILogger)
	orchestrator := buildOrchestrator(cfg, ctrl, includeUnsupported)

	reports, err := orchestrator.CollectAll(ctx, seeds, sources, concurrency)
	if err != nil {
		var capErr *gate.CapacityError
		if errors.As(err, &capErr) {
			return apperrors.NewCapacityExceededError(capErr.Error())
		}
		return err
	}

	if !noSave {
		if err := persistReports(cmd, reports, ctrl); err != nil {
			return err
		}
	}

	rendered, err := output.FormatReportList(format, reports)
	if err != nil {
		return err
	}
	if err := writeRendered(cmd, rendered); err != nil {
		return err
	}

	logCollectSummary(reports, startedAt)
	return nil
}

func collectSeeds(cmd *cobra.Command, args []string) ([]string, error) {
	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return nil, err
	}

	seeds := make([]string, 0, len(args))
	seen := make(map[string]struct{})
	appendSeed := func(raw string) {
		seed := strings.ToLower(strings.TrimSpace(raw))
		if seed == "" {
			return
		}
		if _, dup := seen[seed]; dup {
			return
		}
		seen[seed] = struct{}{}
		seeds = append(seeds, seed)
	}

	for _, arg := range args {
		appendSeed(arg)
	}

	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close() // nolint:errcheck // best-effort cleanup on read-only file

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			appendSeed(line)
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(seeds) == 0 {
		return nil, errors.New("at least one seed keyword is required")
	}
	return seeds, nil
}

func parseSources(names []string) ([]core.SourceType, error) {
	sources := make([]core.SourceType, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
			continue
		case string(core.SourceAutocomplete):
			sources = append(sources, core.SourceAutocomplete)
		case string(core.SourceYouTube):
			sources = append(sources, core.SourceYouTube)
		case string(core.SourceReddit):
			sources = append(sources, core.SourceReddit)
		case string(core.SourceTrends):
			sources = append(sources, core.SourceTrends)
		default:
			return nil, fmt.Errorf("unknown source: %s", name)
		}
	}
	if len(sources) == 0 {
		return nil, errors.New("at least one source is required")
	}
	return sources, nil
}

func gateConfig(cfg *config.Config) gate.Config {
	return gate.Config{
		BaseInterval:     cfg.Gate.BaseInterval,
		MaxInterval:      cfg.Gate.MaxInterval,
		MaxPerMinute:     cfg.Gate.MaxPerMinute,
		MaxPerHour:       cfg.Gate.MaxPerHour,
		MaxPerDay:        cfg.Gate.MaxPerDay,
		ThrottleCooldown: cfg.Gate.ThrottleCooldown,
	}
}

func buildOrchestrator(cfg *config.Config, ctrl *gate.Controller, includeUnsupported bool) *engine.Orchestrator {
	client := &http.Client{Timeout: cfg.Collect.Timeout}
	version := versionInfo.Version

	return &engine.Orchestrator{
		IncludeUnsupported: includeUnsupported,
		Collectors: map[core.SourceType]collector.Collector{
			core.SourceAutocomplete: &collector.AutocompleteCollector{
				Gate:        ctrl,
				Client:      client,
				Language:    cfg.Collect.Language,
				ToolVersion: version,
			},
			core.SourceYouTube: &collector.AutocompleteCollector{
				Gate:        ctrl,
				Client:      client,
				YouTube:     true,
				ToolVersion: version,
			},
			core.SourceReddit: &collector.RedditCollector{
				Gate:        ctrl,
				Client:      client,
				ToolVersion: version,
			},
			core.SourceTrends: &collector.TrendsCollector{
				Gate:        ctrl,
				Client:      client,
				ToolVersion: version,
			},
		},
	}
}

func persistReports(cmd *cobra.Command, reports []*core.SeedReport, ctrl *gate.Controller) error {
	ctx := cmd.Context()

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	for _, report := range reports {
		if report == nil {
			continue
		}
		if err := db.SaveReport(ctx, report); err != nil {
			return err
		}
		if err := auditThrottles(cmd, db, report, ctrl); err != nil {
			return err
		}
	}
	return nil
}

// auditThrottles mirrors rate-limited results into the persistent throttle
// event log so operators can inspect them after the process exits.
func auditThrottles(cmd *cobra.Command, db *store.Store, report *core.SeedReport, ctrl *gate.Controller) error {
	stats := ctrl.Stats()
	for _, result := range report.Results {
		if result == nil || result.Status != core.CollectRateLimited {
			continue
		}
		event := store.ThrottleEvent{
			Severity:    throttleSeverityLabel(result.Source),
			Source:      string(result.Source),
			Penalty:     result.Penalty,
			MinInterval: stats.MinInterval,
			CreatedAt:   result.Provenance.ResolvedAt,
		}
		if err := db.RecordThrottleEvent(cmd.Context(), event); err != nil {
			return err
		}
	}
	return nil
}

func throttleSeverityLabel(source core.SourceType) string {
	if source == core.SourceTrends {
		return string(gate.SeverityHigh)
	}
	return string(gate.SeverityMedium)
}

func logCollectSummary(reports []*core.SeedReport, startedAt time.Time) {
	if observability.CLILogger == nil {
		return
	}

	terms, failed := 0, 0
	for _, report := range reports {
		if report == nil {
			continue
		}
		terms += report.Terms
		failed += report.Failed
	}

	observability.CLILogger.Info("Collection finished",
		zap.Int("seeds", len(reports)),
		zap.Int("terms", terms),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(startedAt).Round(time.Millisecond)))
}
