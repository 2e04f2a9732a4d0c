package result

import (
	"context"
	"time"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/report"
)

// Repository provides persistence for result records.
type Repository interface {
	Create(ctx context.Context, rec *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	SetPayload(ctx context.Context, id string, ref PayloadRef, at time.Time) error
	SaveSnapshot(ctx context.Context, id string, snapshot *report.Report) error
	Flag(ctx context.Context, id, reason string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, scope Scope, opts ListOptions) ([]RecordRef, error)
	CountsByOwner(ctx context.Context) ([]OwnerCount, error)
}

// SearchRepository performs full-text search over result names.
type SearchRepository interface {
	Search(ctx context.Context, scope Scope, query string, opts SearchOptions) ([]SearchResult, error)
}

// BlobStore holds payload bytes under opaque references.
type BlobStore interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Size(ctx context.Context, ref string) (int64, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

// TaskReader reads the state of generation tasks. A task that no longer
// exists is reported with ErrTaskNotFound or repository.ErrNotFound.
type TaskReader interface {
	TaskState(ctx context.Context, taskID string) (TaskState, error)
}

// DocumentRenderer converts markup plus a named stylesheet into a
// printable document.
type DocumentRenderer interface {
	Render(ctx context.Context, markup, stylesheet string) ([]byte, error)
}

// DefinitionRepository checks and counts report definitions.
type DefinitionRepository interface {
	IncrementRuns(ctx context.Context, id string) (int64, error)
}

// ActivityRepository logs result activities.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
	List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}
