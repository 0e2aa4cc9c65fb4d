package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kwradar/kwradar/internal/core"
)

// SaveReport persists every result of a seed report: the run records, any
// suggestions, and the trend series. Suggestions are upserted so repeated
// collections refresh rank and timestamp instead of duplicating rows.
func (s *Store) SaveReport(ctx context.Context, report *core.SeedReport) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if report == nil {
		return errors.New("report is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save report: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	for _, result := range report.Results {
		if result == nil {
			continue
		}
		if err := saveRun(ctx, tx, result); err != nil {
			return err
		}
		if err := saveSuggestions(ctx, tx, result); err != nil {
			return err
		}
		if err := saveTrend(ctx, tx, result); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save report: %w", err)
	}
	return nil
}

func saveRun(ctx context.Context, tx *sql.Tx, result *core.CollectResult) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO collect_runs (id, seed, source, status, status_code, message, requested_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, result.Provenance.CollectID, result.Seed, string(result.Source), int(result.Status),
		result.StatusCode, result.Message,
		result.Provenance.RequestedAt.UTC().Unix(), result.Provenance.ResolvedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store collect run: %w", err)
	}
	return nil
}

func saveSuggestions(ctx context.Context, tx *sql.Tx, result *core.CollectResult) error {
	if len(result.Suggestions) == 0 {
		return nil
	}

	collectedAt := result.Provenance.ResolvedAt.UTC().Unix()
	for _, suggestion := range result.Suggestions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO suggestions (seed, term, source, rank, collected_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(seed, term, source) DO UPDATE SET
				rank = excluded.rank,
				collected_at = excluded.collected_at
		`, suggestion.Seed, suggestion.Term, suggestion.Source, suggestion.Rank, collectedAt)
		if err != nil {
			return fmt.Errorf("store suggestion: %w", err)
		}
	}
	return nil
}

func saveTrend(ctx context.Context, tx *sql.Tx, result *core.CollectResult) error {
	if result.Trend == nil {
		return nil
	}

	points, err := json.Marshal(result.Trend.Points)
	if err != nil {
		return fmt.Errorf("encode trend points: %w", err)
	}

	mean := 0.0
	for _, p := range result.Trend.Points {
		mean += float64(p.Value)
	}
	if len(result.Trend.Points) > 0 {
		mean /= float64(len(result.Trend.Points))
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO trends (seed, growth, mean_interest, points, collected_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(seed) DO UPDATE SET
			growth = excluded.growth,
			mean_interest = excluded.mean_interest,
			points = excluded.points,
			collected_at = excluded.collected_at
	`, result.Seed, result.Trend.Growth, mean, string(points),
		result.Provenance.ResolvedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store trend: %w", err)
	}
	return nil
}

// SeedMetric aggregates the persisted signals for one seed keyword.
type SeedMetric struct {
	Seed         string
	MeanInterest float64
	Growth       float64
	HasTrend     bool
	Suggestions  int
	CollectedAt  time.Time
}

// SeedMetrics returns one row per seed that has any persisted data,
// joining suggestion counts with trend aggregates.
func (s *Store) SeedMetrics(ctx context.Context) ([]SeedMetric, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT
			seeds.seed,
			COALESCE(sugg.count, 0),
			trends.mean_interest,
			trends.growth,
			COALESCE(trends.collected_at, sugg.latest, 0)
		FROM (
			SELECT seed FROM suggestions
			UNION
			SELECT seed FROM trends
		) AS seeds
		LEFT JOIN (
			SELECT seed, COUNT(*) AS count, MAX(collected_at) AS latest
			FROM suggestions GROUP BY seed
		) AS sugg ON sugg.seed = seeds.seed
		LEFT JOIN trends ON trends.seed = seeds.seed
		ORDER BY seeds.seed
	`)
	if err != nil {
		return nil, fmt.Errorf("list seed metrics: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	metrics := []SeedMetric{}
	for rows.Next() {
		var (
			metric      SeedMetric
			mean        sql.NullFloat64
			growth      sql.NullFloat64
			collectedAt int64
		)
		if err := rows.Scan(&metric.Seed, &metric.Suggestions, &mean, &growth, &collectedAt); err != nil {
			return nil, fmt.Errorf("scan seed metrics: %w", err)
		}
		if mean.Valid {
			metric.MeanInterest = mean.Float64
			metric.HasTrend = true
		}
		if growth.Valid {
			metric.Growth = growth.Float64
		}
		metric.CollectedAt = time.Unix(collectedAt, 0).UTC()
		metrics = append(metrics, metric)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list seed metrics: %w", err)
	}

	return metrics, nil
}

// Suggestions returns the stored suggestions for a seed, ordered by source
// and rank.
func (s *Store) Suggestions(ctx context.Context, seed string) ([]core.Suggestion, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	seed = strings.ToLower(strings.TrimSpace(seed))
	if seed == "" {
		return nil, errors.New("seed keyword is required")
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT seed, term, source, rank
		FROM suggestions
		WHERE seed = ?
		ORDER BY source, rank
	`, seed)
	if err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	suggestions := []core.Suggestion{}
	for rows.Next() {
		var suggestion core.Suggestion
		if err := rows.Scan(&suggestion.Seed, &suggestion.Term, &suggestion.Source, &suggestion.Rank); err != nil {
			return nil, fmt.Errorf("scan suggestions: %w", err)
		}
		suggestions = append(suggestions, suggestion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list suggestions: %w", err)
	}

	return suggestions, nil
}

// Trend returns the stored trend series for a seed, or nil when absent.
func (s *Store) Trend(ctx context.Context, seed string) (*core.TrendSeries, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	seed = strings.ToLower(strings.TrimSpace(seed))
	if seed == "" {
		return nil, errors.New("seed keyword is required")
	}

	var (
		growth float64
		points string
	)
	row := s.DB.QueryRowContext(ctx, `SELECT growth, points FROM trends WHERE seed = ?`, seed)
	if err := row.Scan(&growth, &points); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch trend: %w", err)
	}

	series := &core.TrendSeries{Growth: growth}
	if err := json.Unmarshal([]byte(points), &series.Points); err != nil {
		return nil, fmt.Errorf("decode trend points: %w", err)
	}
	return series, nil
}
