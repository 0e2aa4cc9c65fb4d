package output

import (
	"fmt"
	"strings"

	"github.com/kwradar/kwradar/internal/core"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

// FormatReport renders a seed report as Markdown.
func (f *MarkdownFormatter) FormatReport(report *core.SeedReport) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s\n\n", escapeMarkdownCell(report.Seed)))
	sb.WriteString("| Source | Status | Notes |\n")
	sb.WriteString("|--------|--------|-------|\n")

	for _, result := range report.Results {
		if result == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			escapeMarkdownCell(string(result.Source)),
			escapeMarkdownCell(statusLabel(result)),
			escapeMarkdownCell(resultNotes(result)),
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Summary**: %s\n", reportSummary(report)))
	return sb.String(), nil
}

// FormatScores renders scored keywords as Markdown.
func (f *MarkdownFormatter) FormatScores(scores []core.KeywordScore) (string, error) {
	if len(scores) == 0 {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("| Keyword | Volume | Growth | Difficulty | Score | Grade |\n")
	sb.WriteString("|---------|--------|--------|------------|-------|-------|\n")

	for _, row := range scores {
		sb.WriteString(fmt.Sprintf("| %s | %.0f | %+.1f%% | %.0f | %.0f | %s |\n",
			escapeMarkdownCell(row.Keyword),
			row.Volume,
			row.Growth,
			row.Difficulty,
			row.Score,
			row.Grade,
		))
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	value = strings.ReplaceAll(value, "|", "\\|")
	value = strings.ReplaceAll(value, "\n", " ")
	return value
}
