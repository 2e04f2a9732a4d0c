package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/report-results/internal/domain/result"
	"github.com/ganot/report-results/internal/repository"
)

// TaskRepository is the local task runner's state table. It implements
// result.TaskReader.
type TaskRepository struct {
	db *DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// SetState records the state of a task, creating it if needed
func (r *TaskRepository) SetState(ctx context.Context, taskID string, state result.TaskState) error {
	query := `
		INSERT INTO tasks (id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, taskID, state, time.Now()); err != nil {
		if isCheckViolation(err) {
			return repository.ErrInvalidInput
		}
		return fmt.Errorf("failed to set task state: %w", err)
	}
	return nil
}

// TaskState returns the current state of a task
func (r *TaskRepository) TaskState(ctx context.Context, taskID string) (result.TaskState, error) {
	var state result.TaskState
	err := r.db.QueryRowContext(ctx, "SELECT state FROM tasks WHERE id = ?", taskID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get task state: %w", err)
	}
	return state, nil
}

// Delete removes a task
func (r *TaskRepository) Delete(ctx context.Context, taskID string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireAffected(res)
}
