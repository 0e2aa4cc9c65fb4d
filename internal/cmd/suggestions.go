package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/output"
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions <seed>",
	Short: "List stored suggestions for a seed keyword",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggestions,
}

func init() {
	rootCmd.AddCommand(suggestionsCmd)

	suggestionsCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	suggestionsCmd.Flags().String("out", "", "Write output to file instead of stdout")
}

func runSuggestions(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	suggestions, err := db.Suggestions(ctx, args[0])
	if err != nil {
		return err
	}
	if len(suggestions) == 0 {
		return fmt.Errorf("no suggestions stored for %q; run collect first", args[0])
	}

	trend, err := db.Trend(ctx, args[0])
	if err != nil {
		return err
	}

	report := &core.SeedReport{Seed: suggestions[0].Seed}
	bySource := map[string]*core.CollectResult{}
	for _, suggestion := range suggestions {
		result, ok := bySource[suggestion.Source]
		if !ok {
			result = &core.CollectResult{
				Seed:   report.Seed,
				Source: core.SourceType(suggestion.Source),
				Status: core.CollectOK,
			}
			bySource[suggestion.Source] = result
			report.Results = append(report.Results, result)
			report.Sources++
		}
		result.Suggestions = append(result.Suggestions, suggestion)
		report.Terms++
	}
	if trend != nil {
		report.Results = append(report.Results, &core.CollectResult{
			Seed:   report.Seed,
			Source: core.SourceTrends,
			Status: core.CollectOK,
			Trend:  trend,
		})
		report.Sources++
	}

	rendered, err := output.FormatReportList(format, []*core.SeedReport{report})
	if err != nil {
		return err
	}
	return writeRendered(cmd, rendered)
}
