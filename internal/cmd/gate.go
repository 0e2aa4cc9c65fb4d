package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/kwradar/kwradar/internal/core/gate"
	"github.com/kwradar/kwradar/internal/core/store"
	"github.com/kwradar/kwradar/internal/output"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Inspect the admission gate and its throttle history",
}

var (
	gateEventsOutput   string
	gateEventsAll      bool
	gateEventsSeverity string
	gateEventsSince    time.Duration
	gateEventsLimit    int
	gatePurgeOlderThan time.Duration
)

var gateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the configured gate limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctrl := gate.InitShared(gateConfig(cfg), nil)
		limits := ctrl.Config()

		hour := "unlimited"
		if limits.MaxPerHour > 0 {
			hour = fmt.Sprintf("%d", limits.MaxPerHour)
		}
		day := "unlimited"
		if limits.MaxPerDay > 0 {
			day = fmt.Sprintf("%d", limits.MaxPerDay)
		}

		lines := []string{
			"Admission Gate",
			"",
			fmt.Sprintf("base interval:     %s", limits.BaseInterval),
			fmt.Sprintf("max interval:      %s", limits.MaxInterval),
			fmt.Sprintf("per minute:        %d", limits.MaxPerMinute),
			fmt.Sprintf("per hour:          %s", hour),
			fmt.Sprintf("per day:           %s", day),
			fmt.Sprintf("throttle cooldown: %s", limits.ThrottleCooldown),
		}
		fmt.Print(ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

var gateEventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List persisted throttle events",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(gateEventsOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.ThrottleEventQuery{
			All:      gateEventsAll,
			Severity: strings.TrimSpace(gateEventsSeverity),
			Limit:    gateEventsLimit,
		}
		if gateEventsSince > 0 {
			query.Since = time.Now().UTC().Add(-gateEventsSince)
		}
		if !query.All && query.Severity == "" && query.Since.IsZero() {
			query.All = true
		}

		events, err := db.ListThrottleEvents(cmd.Context(), query)
		if err != nil {
			return err
		}

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(payload))
			return nil
		}

		lines := []string{"Throttle Events", ""}
		if len(events) == 0 {
			lines = append(lines, "(no recorded throttle events)")
			fmt.Print(ascii.DrawBox(strings.Join(lines, "\n"), 0))
			return nil
		}

		for _, event := range events {
			source := event.Source
			if source == "" {
				source = "-"
			}
			lines = append(lines, fmt.Sprintf("%s  %-6s  source=%s penalty=%s interval=%s",
				event.CreatedAt.Format(time.RFC3339),
				event.Severity,
				source,
				event.Penalty,
				event.MinInterval))
		}

		fmt.Print(ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

var gatePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old throttle events",
	RunE: func(cmd *cobra.Command, args []string) error {
		if gatePurgeOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}

		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		cutoff := time.Now().UTC().Add(-gatePurgeOlderThan)
		purged, err := db.PurgeThrottleEvents(cmd.Context(), cutoff)
		if err != nil {
			return err
		}

		fmt.Printf("Purged %d throttle event(s) older than %s\n", purged, gatePurgeOlderThan)
		return nil
	},
}

func init() {
	gateEventsCmd.Flags().StringVar(&gateEventsOutput, "output", string(output.FormatTable), "Output format: table|json")
	gateEventsCmd.Flags().BoolVar(&gateEventsAll, "all", false, "List all events")
	gateEventsCmd.Flags().StringVar(&gateEventsSeverity, "severity", "", "Filter by severity: low, medium, high")
	gateEventsCmd.Flags().DurationVar(&gateEventsSince, "since", 0, "Only show events newer than this age (e.g. 24h)")
	gateEventsCmd.Flags().IntVar(&gateEventsLimit, "limit", 50, "Maximum events to list")

	gatePurgeCmd.Flags().DurationVar(&gatePurgeOlderThan, "older-than", 0, "Delete events older than this age (e.g. 720h)")

	gateCmd.AddCommand(gateStatusCmd)
	gateCmd.AddCommand(gateEventsCmd)
	gateCmd.AddCommand(gatePurgeCmd)
	rootCmd.AddCommand(gateCmd)
}
