package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS collect_runs (
		id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		source TEXT NOT NULL,
		status INTEGER NOT NULL,
		status_code INTEGER,
		message TEXT,
		requested_at INTEGER NOT NULL,
		resolved_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_collect_runs_seed ON collect_runs(seed, source);`,
	`CREATE TABLE IF NOT EXISTS suggestions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		seed TEXT NOT NULL,
		term TEXT NOT NULL,
		source TEXT NOT NULL,
		rank INTEGER NOT NULL,
		collected_at INTEGER NOT NULL,
		UNIQUE(seed, term, source)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_suggestions_seed ON suggestions(seed);`,
	`CREATE TABLE IF NOT EXISTS trends (
		seed TEXT PRIMARY KEY,
		growth REAL NOT NULL,
		mean_interest REAL NOT NULL,
		points TEXT NOT NULL,
		collected_at INTEGER NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS throttle_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		severity TEXT NOT NULL,
		source TEXT,
		penalty_ms INTEGER NOT NULL,
		min_interval_ms INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_throttle_events_created ON throttle_events(created_at);`,
}

// Migrate ensures the required database tables exist.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store migration failed: %w", err)
		}
	}

	if err := s.ensureColumn(ctx, "trends", "geo", "TEXT"); err != nil {
		return err
	}

	return nil
}

func (s *Store) ensureColumn(ctx context.Context, table, column, columnDef string) error {
	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("inspect %s schema: %w", table, err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	for rows.Next() {
		var (
			cid     int
			name    string
			colType string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("inspect %s columns: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("inspect %s columns: %w", table, err)
	}

	if _, err := s.DB.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, columnDef)); err != nil {
		return fmt.Errorf("add %s.%s column: %w", table, column, err)
	}

	return nil
}
