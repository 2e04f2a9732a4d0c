package identity_test

import (
	"context"
	"testing"

	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/repository"
	"github.com/ganot/report-results/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_ResolveToken(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.IdentityRepository{}
	caller := &identity.Caller{UserID: "u1", GroupIDs: []string{"g1"}}

	repo.On("UserIDForKey", ctx, identity.HashToken("secret")).Return("u1", nil)
	repo.On("UserIDForKey", ctx, identity.HashToken("wrong")).Return("", repository.ErrNotFound)
	repo.On("Caller", ctx, "u1").Return(caller, nil)

	svc := identity.NewService(repo, nil)
	got, err := svc.ResolveToken(ctx, " secret ")
	require.NoError(t, err)
	require.Equal(t, *caller, got)

	_, err = svc.ResolveToken(ctx, "wrong")
	require.ErrorIs(t, err, identity.ErrUnauthorized)

	_, err = svc.ResolveToken(ctx, "")
	require.ErrorIs(t, err, identity.ErrUnauthorized)
}

func TestIdentityService_ResolveUnknownUser(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.IdentityRepository{}
	repo.On("Caller", ctx, "ghost").Return((*identity.Caller)(nil), repository.ErrNotFound)

	_, err := identity.NewService(repo, nil).ResolveUser(ctx, "ghost")
	require.ErrorIs(t, err, identity.ErrUserNotFound)
}

func TestIdentityService_CreateUserJoinsCurrentGroup(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.IdentityRepository{}
	repo.On("CreateUser", ctx, mock.AnythingOfType("*identity.User")).Return(nil)
	repo.On("AddMember", ctx, "g1", mock.AnythingOfType("string")).Return(nil)

	user, err := identity.NewService(repo, nil).CreateUser(ctx, "fred", "g1")
	require.NoError(t, err)
	require.Equal(t, "g1", user.CurrentGroupID)
	repo.AssertCalled(t, "AddMember", ctx, "g1", user.ID)

	_, err = identity.NewService(repo, nil).CreateUser(ctx, " ", "")
	require.ErrorIs(t, err, identity.ErrInvalidInput)
}

func TestCaller_ReportAdmin(t *testing.T) {
	require.False(t, identity.Caller{UserID: "u1"}.ReportAdmin())
	require.True(t, identity.Caller{Features: []string{"other", identity.FeatureReportAdmin}}.ReportAdmin())
	require.True(t, identity.Caller{GroupIDs: []string{"g1"}}.InGroup("g1"))
}

func TestIdentityService_BootstrapCreatesAdmin(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.IdentityRepository{}
	admin := &identity.Caller{UserID: "admin", GroupIDs: []string{"g-admin"}, Features: []string{identity.FeatureReportAdmin}}

	repo.On("Caller", ctx, "admin").Return((*identity.Caller)(nil), repository.ErrNotFound).Once()
	repo.On("CreateGroup", ctx, mock.AnythingOfType("*identity.Group")).Return(nil)
	repo.On("GrantFeature", ctx, identity.AdminRole, identity.FeatureReportAdmin).Return(nil)
	repo.On("CreateUser", ctx, mock.MatchedBy(func(u *identity.User) bool { return u.ID == "admin" })).Return(nil)
	repo.On("AddMember", ctx, mock.AnythingOfType("string"), "admin").Return(nil)
	repo.On("Caller", ctx, "admin").Return(admin, nil)

	got, err := identity.NewService(repo, nil).Bootstrap(ctx, "admin")
	require.NoError(t, err)
	require.True(t, got.ReportAdmin())
	repo.AssertExpectations(t)
}

func TestIdentityService_BootstrapExistingUser(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.IdentityRepository{}
	existing := &identity.Caller{UserID: "admin"}
	repo.On("Caller", ctx, "admin").Return(existing, nil)

	got, err := identity.NewService(repo, nil).Bootstrap(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, *existing, got)
	repo.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything)
}
