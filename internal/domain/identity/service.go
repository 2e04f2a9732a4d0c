package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/report-results/internal/repository"
	"github.com/google/uuid"
)

// Service resolves callers and manages the identity model.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new identity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, logger: logger}
}

// ResolveToken maps a bearer token to the caller it was issued to.
func (s *Service) ResolveToken(ctx context.Context, token string) (Caller, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Caller{}, ErrUnauthorized
	}
	userID, err := s.repo.UserIDForKey(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Caller{}, ErrUnauthorized
		}
		return Caller{}, fmt.Errorf("resolving token: %w", err)
	}
	return s.ResolveUser(ctx, userID)
}

// ResolveUser builds the caller for a known user ID.
func (s *Service) ResolveUser(ctx context.Context, userID string) (Caller, error) {
	caller, err := s.repo.Caller(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Caller{}, ErrUserNotFound
		}
		return Caller{}, fmt.Errorf("loading caller: %w", err)
	}
	return *caller, nil
}

// CreateUser registers a user, optionally placing them in a current group.
func (s *Service) CreateUser(ctx context.Context, name, currentGroupID string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidInput
	}
	user := &User{
		ID:             uuid.NewString(),
		Name:           name,
		CurrentGroupID: currentGroupID,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrGroupNotFound
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if currentGroupID != "" {
		if err := s.repo.AddMember(ctx, currentGroupID, user.ID); err != nil {
			return nil, fmt.Errorf("adding membership: %w", err)
		}
	}
	return user, nil
}

// CreateGroup registers a group bound to a role.
func (s *Service) CreateGroup(ctx context.Context, description, role string) (*Group, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrInvalidInput
	}
	group := &Group{
		ID:          uuid.NewString(),
		Description: description,
		Role:        role,
		CreatedAt:   time.Now(),
	}
	if err := s.repo.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("creating group: %w", err)
	}
	return group, nil
}

// AddMember places a user in a group.
func (s *Service) AddMember(ctx context.Context, groupID, userID string) error {
	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return ErrInvalidInput
		}
		return fmt.Errorf("adding membership: %w", err)
	}
	return nil
}

// GrantFeature adds a product feature to a role.
func (s *Service) GrantFeature(ctx context.Context, role, feature string) error {
	if strings.TrimSpace(role) == "" || strings.TrimSpace(feature) == "" {
		return ErrInvalidInput
	}
	return s.repo.GrantFeature(ctx, role, feature)
}

// IssueKey stores the hash of token as a credential for userID.
func (s *Service) IssueKey(ctx context.Context, userID, token, description string) error {
	if strings.TrimSpace(token) == "" {
		return ErrInvalidInput
	}
	if err := s.repo.CreateAPIKey(ctx, HashToken(token), userID, description); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return ErrUserNotFound
		}
		return fmt.Errorf("issuing key: %w", err)
	}
	return nil
}

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// AdminRole is the role bootstrap grants report_admin to.
const AdminRole = "admin"

// Bootstrap makes sure userID exists as a report admin and returns its
// caller. It is used when auth is disabled and every request runs as one
// local user.
func (s *Service) Bootstrap(ctx context.Context, userID string) (Caller, error) {
	if strings.TrimSpace(userID) == "" {
		return Caller{}, ErrInvalidInput
	}
	caller, err := s.ResolveUser(ctx, userID)
	if err == nil {
		return caller, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return Caller{}, err
	}

	group, err := s.CreateGroup(ctx, "Administrators", AdminRole)
	if err != nil {
		return Caller{}, err
	}
	if err := s.GrantFeature(ctx, AdminRole, FeatureReportAdmin); err != nil {
		return Caller{}, fmt.Errorf("granting admin feature: %w", err)
	}
	user := &User{
		ID:             userID,
		Name:           userID,
		CurrentGroupID: group.ID,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return Caller{}, fmt.Errorf("creating user: %w", err)
	}
	if err := s.repo.AddMember(ctx, group.ID, userID); err != nil {
		return Caller{}, fmt.Errorf("adding membership: %w", err)
	}
	s.logger.Info("bootstrapped local admin", "user_id", userID, "group_id", group.ID)
	return s.ResolveUser(ctx, userID)
}
