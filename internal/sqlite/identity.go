package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/repository"
)

// IdentityRepository implements identity.Repository for SQLite
type IdentityRepository struct {
	db *DB
}

// NewIdentityRepository creates a new IdentityRepository
func NewIdentityRepository(db *DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// CreateUser inserts a user
func (r *IdentityRepository) CreateUser(ctx context.Context, user *identity.User) error {
	var currentGroup *string
	if user.CurrentGroupID != "" {
		currentGroup = &user.CurrentGroupID
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, name, current_group_id, created_at) VALUES (?, ?, ?, ?)",
		user.ID, user.Name, currentGroup, user.CreatedAt,
	)
	return identityWriteError("create user", err)
}

// CreateGroup inserts a group
func (r *IdentityRepository) CreateGroup(ctx context.Context, group *identity.Group) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_groups (id, description, role, created_at) VALUES (?, ?, ?, ?)",
		group.ID, group.Description, group.Role, group.CreatedAt,
	)
	return identityWriteError("create group", err)
}

// AddMember adds a user to a group; adding twice is a no-op
func (r *IdentityRepository) AddMember(ctx context.Context, groupID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO group_members (group_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		groupID, userID,
	)
	return identityWriteError("add member", err)
}

// GrantFeature grants a feature to a role; granting twice is a no-op
func (r *IdentityRepository) GrantFeature(ctx context.Context, role, feature string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO role_features (role, feature) VALUES (?, ?) ON CONFLICT DO NOTHING",
		role, feature,
	)
	return identityWriteError("grant feature", err)
}

// CreateAPIKey stores a hashed API key for a user
func (r *IdentityRepository) CreateAPIKey(ctx context.Context, keyHash, userID, description string) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO api_keys (key_hash, user_id, created_at, description) VALUES (?, ?, ?, ?)",
		keyHash, userID, time.Now(), description,
	)
	return identityWriteError("create api key", err)
}

// UserIDForKey returns the user an API key hash belongs to and records
// its use
func (r *IdentityRepository) UserIDForKey(ctx context.Context, keyHash string) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, "SELECT user_id FROM api_keys WHERE key_hash = ?", keyHash).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve api key: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, "UPDATE api_keys SET last_used = ? WHERE key_hash = ?", time.Now(), keyHash); err != nil {
		return "", fmt.Errorf("failed to touch api key: %w", err)
	}
	return userID, nil
}

// Caller loads a user's memberships and the features of their current
// group's role
func (r *IdentityRepository) Caller(ctx context.Context, userID string) (*identity.Caller, error) {
	var currentGroup sql.NullString
	err := r.db.QueryRowContext(ctx, "SELECT current_group_id FROM users WHERE id = ?", userID).Scan(&currentGroup)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	caller := &identity.Caller{UserID: userID, CurrentGroupID: currentGroup.String}

	caller.GroupIDs, err = r.queryStrings(ctx,
		"SELECT group_id FROM group_members WHERE user_id = ? ORDER BY group_id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	if currentGroup.Valid {
		caller.Features, err = r.queryStrings(ctx, `
			SELECT rf.feature
			FROM role_features rf
			JOIN user_groups g ON g.role = rf.role
			WHERE g.id = ?
			ORDER BY rf.feature
		`, currentGroup.String)
		if err != nil {
			return nil, fmt.Errorf("failed to list features: %w", err)
		}
	}

	return caller, nil
}

func (r *IdentityRepository) queryStrings(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func identityWriteError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return repository.ErrForeignKeyViolation
	case isUniqueViolation(err):
		return repository.ErrConflict
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
