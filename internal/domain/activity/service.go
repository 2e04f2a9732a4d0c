package activity

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Service reads and writes the result audit trail.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity appends entry, stamping it with the current time if unset.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || !entry.ActivityType.Valid() {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists entries newest first.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.ActivityType != nil && !opts.ActivityType.Valid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, *opts.ActivityType)
	}
	if opts.Offset < 0 {
		return nil, fmt.Errorf("%w: negative offset", ErrInvalidInput)
	}
	switch {
	case opts.Limit <= 0:
		opts.Limit = defaultListLimit
	case opts.Limit > maxListLimit:
		opts.Limit = maxListLimit
	}
	entries, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	return entries, nil
}

// Count returns how many entries of the given type have been logged.
func (s *Service) Count(ctx context.Context, activityType ActivityType) (int, error) {
	n, err := s.repo.Count(ctx, activityType)
	if err != nil {
		return 0, fmt.Errorf("counting activity: %w", err)
	}
	return n, nil
}
