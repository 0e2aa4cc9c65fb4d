package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kwradar/kwradar/internal/core"
	"github.com/kwradar/kwradar/internal/core/scorer"
	"github.com/kwradar/kwradar/internal/output"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score persisted keywords",
	Long: `Score every seed keyword with persisted metrics. Volume comes from mean
trend interest (falling back to suggestion counts), growth from the trend
series. Scores are normalized across the batch and graded A through D.`,
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	scoreCmd.Flags().String("out", "", "Write output to file instead of stdout")
	scoreCmd.Flags().Float64("min-score", 0, "Only show keywords at or above this score")
	scoreCmd.Flags().Float64("min-growth", 0, "Only show keywords at or above this growth percentage")
	scoreCmd.Flags().Float64("volume-weight", scorer.DefaultVolumeWeight, "Weight for the volume metric")
	scoreCmd.Flags().Float64("growth-weight", scorer.DefaultGrowthWeight, "Weight for the growth metric")
	scoreCmd.Flags().Float64("difficulty-weight", scorer.DefaultDifficultyWeight, "Weight for the difficulty metric")
}

func runScore(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	volumeWeight, err := cmd.Flags().GetFloat64("volume-weight")
	if err != nil {
		return err
	}
	growthWeight, err := cmd.Flags().GetFloat64("growth-weight")
	if err != nil {
		return err
	}
	difficultyWeight, err := cmd.Flags().GetFloat64("difficulty-weight")
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close() // nolint:errcheck // best-effort cleanup; errors logged internally

	metrics, err := db.SeedMetrics(ctx)
	if err != nil {
		return err
	}

	inputs := make([]scorer.Input, 0, len(metrics))
	for _, metric := range metrics {
		volume := metric.MeanInterest
		if !metric.HasTrend {
			volume = float64(metric.Suggestions)
		}
		inputs = append(inputs, scorer.Input{
			Keyword: metric.Seed,
			Volume:  volume,
			Growth:  metric.Growth,
		})
	}

	scores := scorer.New(volumeWeight, growthWeight, difficultyWeight).Score(inputs)
	scores = applyScoreFilters(cmd, scores)

	rendered, err := output.FormatScoreList(format, scores)
	if err != nil {
		return err
	}
	return writeRendered(cmd, rendered)
}

func applyScoreFilters(cmd *cobra.Command, scores []core.KeywordScore) []core.KeywordScore {
	filter := scorer.Filter{}

	if cmd.Flags().Changed("min-score") {
		if value, err := cmd.Flags().GetFloat64("min-score"); err == nil {
			filter.MinScore = &value
		}
	}
	if cmd.Flags().Changed("min-growth") {
		if value, err := cmd.Flags().GetFloat64("min-growth"); err == nil {
			filter.MinGrowth = &value
		}
	}

	return filter.Apply(scores)
}
