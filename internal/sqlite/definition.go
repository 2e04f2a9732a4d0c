package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/repository"
)

// DefinitionRepository implements definition.Repository for SQLite
type DefinitionRepository struct {
	db *DB
}

// NewDefinitionRepository creates a new DefinitionRepository
func NewDefinitionRepository(db *DB) *DefinitionRepository {
	return &DefinitionRepository{db: db}
}

// Create creates a new report definition
func (r *DefinitionRepository) Create(ctx context.Context, def *definition.Definition) error {
	query := `
		INSERT INTO report_definitions (id, name, title, description, runs, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		def.ID,
		def.Name,
		def.Title,
		def.Description,
		def.Runs,
		def.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create report definition: %w", err)
	}

	return nil
}

// Get retrieves a report definition by ID
func (r *DefinitionRepository) Get(ctx context.Context, id string) (*definition.Definition, error) {
	query := `
		SELECT id, name, title, COALESCE(description, ''), runs, created_at
		FROM report_definitions
		WHERE id = ?
	`

	var def definition.Definition
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&def.ID,
		&def.Name,
		&def.Title,
		&def.Description,
		&def.Runs,
		&def.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get report definition: %w", err)
	}

	return &def, nil
}

// List returns all report definitions with their result counts
func (r *DefinitionRepository) List(ctx context.Context) ([]definition.Summary, error) {
	query := `
		SELECT
			d.id,
			d.name,
			d.title,
			d.runs,
			d.created_at,
			COUNT(res.id) as result_count
		FROM report_definitions d
		LEFT JOIN results res ON res.report_definition_id = d.id
		GROUP BY d.id, d.name, d.title, d.runs, d.created_at
		ORDER BY d.created_at DESC, d.id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list report definitions: %w", err)
	}
	defer rows.Close()

	var summaries []definition.Summary
	for rows.Next() {
		var summary definition.Summary
		if err := rows.Scan(
			&summary.ID,
			&summary.Name,
			&summary.Title,
			&summary.Runs,
			&summary.CreatedAt,
			&summary.ResultCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report definition: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report definition rows: %w", err)
	}

	return summaries, nil
}

// IncrementRuns atomically bumps the run counter and returns the new value
func (r *DefinitionRepository) IncrementRuns(ctx context.Context, id string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "UPDATE report_definitions SET runs = runs + 1 WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment runs: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return 0, err
	}

	var runs int64
	if err := tx.QueryRowContext(ctx, "SELECT runs FROM report_definitions WHERE id = ?", id).Scan(&runs); err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return runs, nil
}
