package definition

import "context"

// Repository provides persistence for report definitions.
type Repository interface {
	Create(ctx context.Context, def *Definition) error
	Get(ctx context.Context, id string) (*Definition, error)
	List(ctx context.Context) ([]Summary, error)
	IncrementRuns(ctx context.Context, id string) (int64, error)
}
