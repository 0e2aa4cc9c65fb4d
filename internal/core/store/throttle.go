package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ThrottleEvent is one persisted downstream throttle signal, kept as an
// audit trail alongside the in-memory gate state.
type ThrottleEvent struct {
	ID          int64
	Severity    string
	Source      string
	Penalty     time.Duration
	MinInterval time.Duration
	CreatedAt   time.Time
}

// RecordThrottleEvent appends a throttle event to the audit log.
func (s *Store) RecordThrottleEvent(ctx context.Context, event ThrottleEvent) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	severity := strings.TrimSpace(event.Severity)
	if severity == "" {
		return errors.New("severity is required")
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO throttle_events (severity, source, penalty_ms, min_interval_ms, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, severity, event.Source, event.Penalty.Milliseconds(), event.MinInterval.Milliseconds(),
		createdAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("store throttle event: %w", err)
	}
	return nil
}

// ThrottleEventQuery filters the throttle event audit log.
type ThrottleEventQuery struct {
	All      bool
	Severity string
	Since    time.Time
	Limit    int
}

func (q ThrottleEventQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.Severity) != "" {
		return nil
	}
	if !q.Since.IsZero() {
		return nil
	}
	return errors.New("must specify --all, --severity, or --since")
}

func (q ThrottleEventQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}

	conditions := []string{}
	args := []any{}
	if severity := strings.TrimSpace(q.Severity); severity != "" {
		conditions = append(conditions, "severity = ?")
		args = append(args, severity)
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, q.Since.UTC().Unix())
	}
	if len(conditions) == 0 {
		return "", nil, nil
	}
	return "WHERE " + strings.Join(conditions, " AND "), args, nil
}

// ListThrottleEvents returns matching events, newest first.
func (s *Store) ListThrottleEvents(ctx context.Context, q ThrottleEventQuery) ([]ThrottleEvent, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, severity, source, penalty_ms, min_interval_ms, created_at
		FROM throttle_events
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list throttle events: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	events := []ThrottleEvent{}
	for rows.Next() {
		var (
			event      ThrottleEvent
			source     sql.NullString
			penaltyMS  int64
			intervalMS int64
			createdAt  int64
		)
		if err := rows.Scan(&event.ID, &event.Severity, &source, &penaltyMS, &intervalMS, &createdAt); err != nil {
			return nil, fmt.Errorf("scan throttle events: %w", err)
		}
		event.Source = source.String
		event.Penalty = time.Duration(penaltyMS) * time.Millisecond
		event.MinInterval = time.Duration(intervalMS) * time.Millisecond
		event.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list throttle events: %w", err)
	}

	return events, nil
}

// CountThrottleEvents counts matching events.
func (s *Store) CountThrottleEvents(ctx context.Context, q ThrottleEventQuery) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM throttle_events
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count throttle events: %w", err)
	}
	return count, nil
}

// ResetThrottleEvents deletes matching events and returns how many rows
// were removed.
func (s *Store) ResetThrottleEvents(ctx context.Context, q ThrottleEventQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM throttle_events
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset throttle events: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset throttle events: %w", err)
	}
	return affected, nil
}

// PurgeThrottleEvents deletes events created before the cutoff and returns
// how many rows were removed.
func (s *Store) PurgeThrottleEvents(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if before.IsZero() {
		return 0, errors.New("cutoff time is required")
	}

	result, err := s.DB.ExecContext(ctx, `
		DELETE FROM throttle_events WHERE created_at < ?
	`, before.UTC().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge throttle events: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge throttle events: %w", err)
	}
	return affected, nil
}
