package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kwradar/kwradar/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatReport renders a seed report as a table.
func (f *TableFormatter) FormatReport(report *core.SeedReport) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(report.Seed)
	t.AppendHeader(table.Row{"Source", "Status", "Notes"})

	for _, result := range report.Results {
		if result == nil {
			continue
		}
		t.AppendRow(table.Row{
			string(result.Source),
			statusLabel(result),
			resultNotes(result),
		})
	}

	t.AppendFooter(table.Row{"", reportSummary(report), ""})
	return t.Render(), nil
}

// FormatScores renders scored keywords as a table.
func (f *TableFormatter) FormatScores(scores []core.KeywordScore) (string, error) {
	if len(scores) == 0 {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Keyword", "Volume", "Growth", "Difficulty", "Score", "Grade"})

	for _, row := range scores {
		t.AppendRow(table.Row{
			row.Keyword,
			fmt.Sprintf("%.0f", row.Volume),
			fmt.Sprintf("%+.1f%%", row.Growth),
			fmt.Sprintf("%.0f", row.Difficulty),
			fmt.Sprintf("%.0f", row.Score),
			row.Grade,
		})
	}

	return t.Render(), nil
}
