package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kwradar/kwradar/internal/core/gate"
	"github.com/kwradar/kwradar/internal/core/store"
	"github.com/kwradar/kwradar/internal/output"
)

var (
	gateResetHistory  bool
	gateResetSeverity string
	gateResetSince    time.Duration
	gateResetYes      bool
	gateResetDryRun   bool
	gateResetOutput   string
)

var gateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the admission gate to its configured baseline",
	Long: `Restore the shared admission gate to its configured baseline: windows
cleared, pacing interval back to the base value. With --history the stored
throttle event log is deleted as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(gateResetOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var matched int
		var deleted int64

		if gateResetHistory {
			query := store.ThrottleEventQuery{
				All:      gateResetSeverity == "" && gateResetSince <= 0,
				Severity: strings.TrimSpace(gateResetSeverity),
			}
			if gateResetSince > 0 {
				query.Since = time.Now().UTC().Add(-gateResetSince)
			}
			if query.All && !gateResetYes && !gateResetDryRun {
				return errors.New("--history without filters requires --yes (or use --dry-run)")
			}

			db, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close() // nolint:errcheck // best-effort cleanup

			matched, err = db.CountThrottleEvents(cmd.Context(), query)
			if err != nil {
				return err
			}

			if !gateResetDryRun {
				deleted, err = db.ResetThrottleEvents(cmd.Context(), query)
				if err != nil {
					return err
				}
			}
		}

		if !gateResetDryRun {
			gate.InitShared(gateConfig(cfg), nil).Reset()
		}

		return writeGateResetResult(format, cmd.OutOrStdout(), matched, deleted, gateResetDryRun)
	},
}

func writeGateResetResult(format output.Format, w io.Writer, matched int, deleted int64, dryRun bool) error {
	result := map[string]any{
		"gate_reset": !dryRun,
		"matched":    matched,
		"deleted":    deleted,
		"dry_run":    dryRun,
	}

	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	if dryRun {
		_, err := fmt.Fprintf(w, "Would reset the gate and delete %d throttle event(s)\n", matched)
		return err
	}
	_, err := fmt.Fprintf(w, "Gate reset to baseline; deleted %d/%d throttle event(s)\n", deleted, matched)
	return err
}

func init() {
	gateResetCmd.Flags().BoolVar(&gateResetHistory, "history", false, "Also delete stored throttle events")
	gateResetCmd.Flags().StringVar(&gateResetSeverity, "severity", "", "Only delete events with this severity")
	gateResetCmd.Flags().DurationVar(&gateResetSince, "since", 0, "Only delete events newer than this age (e.g. 24h)")
	gateResetCmd.Flags().BoolVar(&gateResetYes, "yes", false, "Confirm destructive history deletion")
	gateResetCmd.Flags().BoolVar(&gateResetDryRun, "dry-run", false, "Show what would be deleted")
	gateResetCmd.Flags().StringVar(&gateResetOutput, "output", string(output.FormatTable), "Output format: table|json")

	gateCmd.AddCommand(gateResetCmd)
}
