package core

import "time"

// SourceType identifies a demand signal source.
type SourceType string

const (
	SourceAutocomplete SourceType = "autocomplete"
	SourceYouTube      SourceType = "youtube"
	SourceReddit       SourceType = "reddit"
	SourceTrends       SourceType = "trends"
)

// CollectStatus represents the outcome of a single collection.
type CollectStatus int

const (
	CollectUnknown     CollectStatus = 0
	CollectOK          CollectStatus = 1
	CollectEmpty       CollectStatus = 2
	CollectError       CollectStatus = 3
	CollectRateLimited CollectStatus = 4
	CollectUnsupported CollectStatus = 5
)

// Provenance captures metadata about how a collection was resolved.
type Provenance struct {
	CollectID   string    `json:"collect_id"`
	RequestedAt time.Time `json:"requested_at"`
	ResolvedAt  time.Time `json:"resolved_at"`
	Source      string    `json:"source"`
	Server      string    `json:"server,omitempty"`
	ToolVersion string    `json:"tool_version"`
}

// Suggestion is a single related term surfaced by a source.
type Suggestion struct {
	Term   string `json:"term"`
	Seed   string `json:"seed"`
	Source string `json:"source"`
	Rank   int    `json:"rank"`
}

// TrendSeries holds interest-over-time values for a seed keyword.
type TrendSeries struct {
	Points []TrendPoint `json:"points"`
	Growth float64      `json:"growth"`
}

// TrendPoint is one sample in an interest-over-time series.
type TrendPoint struct {
	Date  time.Time `json:"date"`
	Value int       `json:"value"`
}

// CollectResult reports what one collector produced for one seed.
type CollectResult struct {
	Seed        string        `json:"seed"`
	Source      SourceType    `json:"source"`
	Status      CollectStatus `json:"status"`
	StatusCode  int           `json:"status_code,omitempty"`
	Message     string        `json:"message,omitempty"`
	Suggestions []Suggestion  `json:"suggestions,omitempty"`
	Trend       *TrendSeries  `json:"trend,omitempty"`
	// Penalty is the backoff the admission gate returned when this
	// collection was throttled; zero otherwise.
	Penalty    time.Duration `json:"penalty,omitempty"`
	Provenance Provenance    `json:"provenance"`
}

// SeedReport aggregates the results for a single seed keyword.
type SeedReport struct {
	Seed        string           `json:"seed"`
	Results     []*CollectResult `json:"results"`
	Terms       int              `json:"terms"`
	Sources     int              `json:"sources"`
	Failed      int              `json:"failed"`
	CompletedAt time.Time        `json:"completed_at"`
}

// KeywordScore is a scored keyword row.
type KeywordScore struct {
	Keyword    string  `json:"keyword"`
	Volume     float64 `json:"volume"`
	Growth     float64 `json:"growth"`
	Difficulty float64 `json:"difficulty"`
	Score      float64 `json:"score"`
	Grade      string  `json:"grade"`
}
