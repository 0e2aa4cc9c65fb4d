package output

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kwradar/kwradar/internal/core"
)

func sampleReport() *core.SeedReport {
	return &core.SeedReport{
		Seed:    "chess openings",
		Terms:   3,
		Sources: 2,
		Failed:  1,
		Results: []*core.CollectResult{
			{
				Seed:   "chess openings",
				Source: core.SourceAutocomplete,
				Status: core.CollectOK,
				Suggestions: []core.Suggestion{
					{Term: "chess openings for beginners", Rank: 1},
					{Term: "chess openings explained", Rank: 2},
					{Term: "chess openings for white", Rank: 3},
				},
			},
			{
				Seed:   "chess openings",
				Source: core.SourceTrends,
				Status: core.CollectOK,
				Trend:  &core.TrendSeries{Growth: 42.5},
			},
			{
				Seed:    "chess openings",
				Source:  core.SourceReddit,
				Status:  core.CollectRateLimited,
				Message: "reddit search throttled",
			},
		},
	}
}

func sampleScores() []core.KeywordScore {
	return []core.KeywordScore{
		{Keyword: "chess openings", Volume: 58, Growth: 42.5, Difficulty: 35, Score: 78, Grade: "A"},
		{Keyword: "chess tactics", Volume: 40, Growth: -3, Difficulty: 60, Score: 31, Grade: "C"},
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestTableFormatReport(t *testing.T) {
	rendered, err := (&TableFormatter{}).FormatReport(sampleReport())
	require.NoError(t, err)
	require.Contains(t, rendered, "chess openings")
	require.Contains(t, rendered, "autocomplete")
	require.Contains(t, rendered, "throttled")
	require.Contains(t, rendered, "3 terms from 2 source(s), 1 failed")
}

func TestTableFormatScores(t *testing.T) {
	rendered, err := (&TableFormatter{}).FormatScores(sampleScores())
	require.NoError(t, err)
	require.Contains(t, rendered, "chess openings")
	require.Contains(t, rendered, "+42.5%")
	require.Contains(t, rendered, "A")

	empty, err := (&TableFormatter{}).FormatScores(nil)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestJSONFormatReport(t *testing.T) {
	rendered, err := (&JSONFormatter{Indent: true}).FormatReport(sampleReport())
	require.NoError(t, err)

	var decoded core.SeedReport
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Equal(t, "chess openings", decoded.Seed)
	require.Len(t, decoded.Results, 3)
}

func TestMarkdownFormatReportEscapesCells(t *testing.T) {
	report := sampleReport()
	report.Results[2].Message = "pipe | in message"

	rendered, err := (&MarkdownFormatter{}).FormatReport(report)
	require.NoError(t, err)
	require.Contains(t, rendered, "## chess openings")
	require.Contains(t, rendered, "pipe \\| in message")
	require.Contains(t, rendered, "**Summary**")
}

func TestFormatReportListSkipsNil(t *testing.T) {
	rendered, err := FormatReportList(FormatMarkdown, []*core.SeedReport{nil, sampleReport()})
	require.NoError(t, err)
	require.Equal(t, 1, strings.Count(rendered, "## chess openings"))
}

func TestFormatReportListJSON(t *testing.T) {
	rendered, err := FormatReportList(FormatJSON, []*core.SeedReport{sampleReport()})
	require.NoError(t, err)

	var decoded []*core.SeedReport
	require.NoError(t, json.Unmarshal([]byte(rendered), &decoded))
	require.Len(t, decoded, 1)
}
