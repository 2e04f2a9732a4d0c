package identity

import "context"

// Repository provides persistence for users, groups and credentials.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	CreateGroup(ctx context.Context, group *Group) error
	AddMember(ctx context.Context, groupID, userID string) error
	GrantFeature(ctx context.Context, role, feature string) error
	CreateAPIKey(ctx context.Context, keyHash, userID, description string) error
	UserIDForKey(ctx context.Context, keyHash string) (string, error)
	Caller(ctx context.Context, userID string) (*Caller, error)
}
