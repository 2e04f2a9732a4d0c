package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/report-results/internal/domain/activity"
)

// ActivityRepository stores the result audit trail in activity_log.
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends an entry and fills in its ID.
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	details := ""
	if len(entry.Details) > 0 {
		data, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to encode activity details: %w", err)
		}
		details = string(data)
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (result_id, user_id, activity_type, summary, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ResultID, entry.UserID, entry.ActivityType, entry.Summary, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log activity: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// List returns matching entries, newest first.
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	var where []string
	var args []interface{}
	if opts.ResultID != nil {
		where = append(where, "result_id = ?")
		args = append(args, *opts.ResultID)
	}
	if opts.ActivityType != nil {
		where = append(where, "activity_type = ?")
		args = append(args, *opts.ActivityType)
	}
	if opts.UserID != "" {
		where = append(where, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if opts.Since != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *opts.Since)
	}

	var b strings.Builder
	b.WriteString("SELECT id, result_id, user_id, activity_type, summary, details, created_at FROM activity_log")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	args = append(args, limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var entries []activity.ActivityEntry
	for rows.Next() {
		var (
			entry    activity.ActivityEntry
			resultID sql.NullString
			details  string
		)
		if err := rows.Scan(&entry.ID, &resultID, &entry.UserID, &entry.ActivityType,
			&entry.Summary, &details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		entry.ResultID = nullableString(resultID)
		if details != "" {
			if err := json.Unmarshal([]byte(details), &entry.Details); err != nil {
				return nil, fmt.Errorf("activity %d has malformed details: %w", entry.ID, err)
			}
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries of one type
func (r *ActivityRepository) Count(ctx context.Context, activityType activity.ActivityType) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_log WHERE activity_type = ?", activityType).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return n, nil
}
