package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ganot/report-results/internal/codec"
	"github.com/ganot/report-results/internal/domain/payload"
	"github.com/ganot/report-results/internal/domain/report"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/ganot/report-results/internal/repository"
)

// ResultRepository implements result.Repository for SQLite
type ResultRepository struct {
	db *DB
}

// NewResultRepository creates a new ResultRepository
func NewResultRepository(db *DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const refColumns = `
	r.id, r.report_definition_id, r.name, r.owner_user_id, r.owner_group_id,
	r.task_id, r.source, r.payload_ref IS NOT NULL, r.flagged, r.created_at, r.last_run_on`

// Create inserts a new result with its encoded snapshot
func (r *ResultRepository) Create(ctx context.Context, rec *result.Record) error {
	snapshot, err := encodeSnapshot(rec.Snapshot)
	if err != nil {
		return err
	}

	var payloadRef, payloadEncoding *string
	if rec.Payload != nil {
		enc := string(rec.Payload.Encoding)
		payloadRef, payloadEncoding = &rec.Payload.BlobRef, &enc
	}

	query := `
		INSERT INTO results (
			id, report_definition_id, name, snapshot, owner_user_id, owner_group_id,
			task_id, payload_ref, payload_encoding, source, created_at, last_run_on
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID,
		rec.ReportDefinitionID,
		rec.Name,
		snapshot,
		rec.OwnerUserID,
		rec.OwnerGroupID,
		rec.TaskID,
		payloadRef,
		payloadEncoding,
		rec.Source,
		rec.CreatedAt,
		rec.LastRunOn,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create result: %w", err)
	}
	return nil
}

// Get retrieves a result by ID. The snapshot is decoded fresh on every
// call.
func (r *ResultRepository) Get(ctx context.Context, id string) (*result.Record, error) {
	query := `
		SELECT
			id, report_definition_id, name, snapshot, owner_user_id, owner_group_id,
			task_id, payload_ref, payload_encoding, source, created_at, last_run_on,
			flagged, flag_reason
		FROM results
		WHERE id = ?
	`

	var (
		rec             result.Record
		definitionID    sql.NullString
		snapshot        []byte
		taskID          sql.NullString
		payloadRef      sql.NullString
		payloadEncoding sql.NullString
		lastRunOn       sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&definitionID,
		&rec.Name,
		&snapshot,
		&rec.OwnerUserID,
		&rec.OwnerGroupID,
		&taskID,
		&payloadRef,
		&payloadEncoding,
		&rec.Source,
		&rec.CreatedAt,
		&lastRunOn,
		&rec.Flagged,
		&rec.FlagReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}

	rec.ReportDefinitionID = nullableString(definitionID)
	rec.TaskID = nullableString(taskID)
	if lastRunOn.Valid {
		rec.LastRunOn = &lastRunOn.Time
	}
	if payloadRef.Valid {
		rec.Payload = &result.PayloadRef{
			BlobRef:  payloadRef.String,
			Encoding: payload.Encoding(payloadEncoding.String),
		}
	}
	if len(snapshot) > 0 {
		var rpt report.Report
		if err := codec.Unmarshal(snapshot, &rpt); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot of result %s: %w", id, err)
		}
		rec.Snapshot = &rpt
	}
	return &rec, nil
}

// SetPayload replaces the payload reference, encoding and run time in a
// single statement and clears any corruption flag.
func (r *ResultRepository) SetPayload(ctx context.Context, id string, ref result.PayloadRef, at time.Time) error {
	query := `
		UPDATE results
		SET payload_ref = ?, payload_encoding = ?, last_run_on = ?, flagged = 0, flag_reason = ''
		WHERE id = ?
	`
	res, err := r.db.ExecContext(ctx, query, ref.BlobRef, string(ref.Encoding), at, id)
	if err != nil {
		return fmt.Errorf("failed to set payload: %w", err)
	}
	return requireAffected(res)
}

// SaveSnapshot replaces the stored snapshot
func (r *ResultRepository) SaveSnapshot(ctx context.Context, id string, snapshot *report.Report) error {
	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, "UPDATE results SET snapshot = ? WHERE id = ?", data, id)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return requireAffected(res)
}

// Flag marks a result whose payload could not be read
func (r *ResultRepository) Flag(ctx context.Context, id, reason string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE results SET flagged = 1, flag_reason = ? WHERE id = ?", reason, id)
	if err != nil {
		return fmt.Errorf("failed to flag result: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a result. Its payload bytes stay in the blob store.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM results WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete result: %w", err)
	}
	return requireAffected(res)
}

// List returns results within scope, newest first
func (r *ResultRepository) List(ctx context.Context, scope result.Scope, opts result.ListOptions) ([]result.RecordRef, error) {
	conditions, args, err := scopeConditions(scope, "r")
	if err != nil {
		return nil, err
	}
	if opts.OwnerUserID != "" {
		conditions = append(conditions, "r.owner_user_id = ?")
		args = append(args, opts.OwnerUserID)
	}
	if opts.Source != "" {
		conditions = append(conditions, "r.source = ?")
		args = append(args, opts.Source)
	}

	query := "SELECT " + refColumns + " FROM results r"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC, r.id"

	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		if opts.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	defer rows.Close()

	var refs []result.RecordRef
	for rows.Next() {
		ref, err := scanRef(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result rows: %w", err)
	}
	return refs, nil
}

// CountsByOwner returns result counts per owning user, ordered by user
func (r *ResultRepository) CountsByOwner(ctx context.Context) ([]result.OwnerCount, error) {
	query := `
		SELECT owner_user_id, COUNT(*)
		FROM results
		GROUP BY owner_user_id
		ORDER BY owner_user_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count results: %w", err)
	}
	defer rows.Close()

	var counts []result.OwnerCount
	for rows.Next() {
		var c result.OwnerCount
		if err := rows.Scan(&c.OwnerUserID, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan owner count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner counts: %w", err)
	}
	return counts, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRef(row rowScanner, extra ...any) (result.RecordRef, error) {
	var (
		ref          result.RecordRef
		definitionID sql.NullString
		taskID       sql.NullString
		lastRunOn    sql.NullTime
	)
	dest := []any{
		&ref.ID,
		&definitionID,
		&ref.Name,
		&ref.OwnerUserID,
		&ref.OwnerGroupID,
		&taskID,
		&ref.Source,
		&ref.HasPayload,
		&ref.Flagged,
		&ref.CreatedAt,
		&lastRunOn,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return result.RecordRef{}, fmt.Errorf("failed to scan result: %w", err)
	}
	ref.ReportDefinitionID = nullableString(definitionID)
	ref.TaskID = nullableString(taskID)
	if lastRunOn.Valid {
		ref.LastRunOn = &lastRunOn.Time
	}
	return ref, nil
}

func encodeSnapshot(snapshot *report.Report) ([]byte, error) {
	if snapshot == nil {
		return nil, nil
	}
	data, err := codec.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

func nullableString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
