// Package output renders collection reports and keyword scores for the CLI.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kwradar/kwradar/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders seed reports and score tables.
type Formatter interface {
	FormatReport(report *core.SeedReport) (string, error)
	FormatScores(scores []core.KeywordScore) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// FormatReportList renders multiple seed reports using the requested format.
func FormatReportList(format Format, reports []*core.SeedReport) (string, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	formatter := NewFormatter(format)
	rendered := make([]string, 0, len(reports))
	for _, report := range reports {
		if report == nil {
			continue
		}
		value, err := formatter.FormatReport(report)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		rendered = append(rendered, value)
	}

	return strings.Join(rendered, "\n\n"), nil
}

// FormatScoreList renders a score table using the requested format.
func FormatScoreList(format Format, scores []core.KeywordScore) (string, error) {
	return NewFormatter(format).FormatScores(scores)
}

func statusLabel(result *core.CollectResult) string {
	switch result.Status {
	case core.CollectOK:
		return "ok"
	case core.CollectEmpty:
		return "empty"
	case core.CollectRateLimited:
		return "throttled"
	case core.CollectUnsupported:
		return "unsupported"
	case core.CollectError:
		return "error"
	default:
		return "unknown"
	}
}

func resultNotes(result *core.CollectResult) string {
	parts := []string{}
	if len(result.Suggestions) > 0 {
		parts = append(parts, fmt.Sprintf("%d terms", len(result.Suggestions)))
	}
	if result.Trend != nil {
		parts = append(parts, fmt.Sprintf("growth %+.1f%%", result.Trend.Growth))
	}
	if result.Message != "" {
		parts = append(parts, result.Message)
	}
	return strings.Join(parts, "; ")
}

func reportSummary(report *core.SeedReport) string {
	summary := fmt.Sprintf("%d terms from %d source(s)", report.Terms, report.Sources)
	if report.Failed > 0 {
		summary += fmt.Sprintf(", %d failed", report.Failed)
	}
	return summary
}
