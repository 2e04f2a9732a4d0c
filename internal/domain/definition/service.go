package definition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/report-results/internal/repository"
	"github.com/google/uuid"
)

// Service handles report definition operations.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new definition service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateRequest defines report definition inputs.
type CreateRequest struct {
	ID          string
	Name        string
	Title       string
	Description string
}

// Create registers a report definition. The title defaults to the name.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Definition, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}

	id := req.ID
	if strings.TrimSpace(id) == "" {
		id = uuid.NewString()
	}
	title := req.Title
	if strings.TrimSpace(title) == "" {
		title = req.Name
	}

	def := &Definition{
		ID:          id,
		Name:        req.Name,
		Title:       title,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.Create(ctx, def); err != nil {
		return nil, fmt.Errorf("creating report definition: %w", err)
	}
	return def, nil
}

// Get fetches a report definition by ID.
func (s *Service) Get(ctx context.Context, id string) (*Definition, error) {
	def, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDefinitionNotFound
		}
		return nil, fmt.Errorf("getting report definition: %w", err)
	}
	return def, nil
}

// List returns definition summaries.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

// RecordRun bumps the run counter of a definition and returns the new value.
func (s *Service) RecordRun(ctx context.Context, id string) (int64, error) {
	runs, err := s.repo.IncrementRuns(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrDefinitionNotFound
		}
		return 0, fmt.Errorf("recording run: %w", err)
	}
	return runs, nil
}
