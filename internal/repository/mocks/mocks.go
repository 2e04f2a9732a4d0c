package mocks

import (
	"context"
	"time"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/domain/report"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/stretchr/testify/mock"
)

// ResultRepository is a mock for result.Repository.
type ResultRepository struct {
	mock.Mock
}

func (m *ResultRepository) Create(ctx context.Context, rec *result.Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *ResultRepository) Get(ctx context.Context, id string) (*result.Record, error) {
	args := m.Called(ctx, id)
	if rec, ok := args.Get(0).(*result.Record); ok {
		return rec, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResultRepository) SetPayload(ctx context.Context, id string, ref result.PayloadRef, at time.Time) error {
	args := m.Called(ctx, id, ref, at)
	return args.Error(0)
}

func (m *ResultRepository) SaveSnapshot(ctx context.Context, id string, snapshot *report.Report) error {
	args := m.Called(ctx, id, snapshot)
	return args.Error(0)
}

func (m *ResultRepository) Flag(ctx context.Context, id, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

func (m *ResultRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *ResultRepository) List(ctx context.Context, scope result.Scope, opts result.ListOptions) ([]result.RecordRef, error) {
	args := m.Called(ctx, scope, opts)
	if list, ok := args.Get(0).([]result.RecordRef); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ResultRepository) CountsByOwner(ctx context.Context) ([]result.OwnerCount, error) {
	args := m.Called(ctx)
	if counts, ok := args.Get(0).([]result.OwnerCount); ok {
		return counts, args.Error(1)
	}
	return nil, args.Error(1)
}

// SearchRepository is a mock for result.SearchRepository.
type SearchRepository struct {
	mock.Mock
}

func (m *SearchRepository) Search(ctx context.Context, scope result.Scope, query string, opts result.SearchOptions) ([]result.SearchResult, error) {
	args := m.Called(ctx, scope, query, opts)
	if list, ok := args.Get(0).([]result.SearchResult); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// BlobStore is a mock for result.BlobStore.
type BlobStore struct {
	mock.Mock
}

func (m *BlobStore) Put(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *BlobStore) Get(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BlobStore) Size(ctx context.Context, ref string) (int64, error) {
	args := m.Called(ctx, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *BlobStore) Exists(ctx context.Context, ref string) (bool, error) {
	args := m.Called(ctx, ref)
	return args.Bool(0), args.Error(1)
}

// TaskReader is a mock for result.TaskReader.
type TaskReader struct {
	mock.Mock
}

func (m *TaskReader) TaskState(ctx context.Context, taskID string) (result.TaskState, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).(result.TaskState), args.Error(1)
}

// DocumentRenderer is a mock for result.DocumentRenderer.
type DocumentRenderer struct {
	mock.Mock
}

func (m *DocumentRenderer) Render(ctx context.Context, markup, stylesheet string) ([]byte, error) {
	args := m.Called(ctx, markup, stylesheet)
	if doc, ok := args.Get(0).([]byte); ok {
		return doc, args.Error(1)
	}
	return nil, args.Error(1)
}

// DefinitionRepository is a mock for definition.Repository.
type DefinitionRepository struct {
	mock.Mock
}

func (m *DefinitionRepository) Create(ctx context.Context, def *definition.Definition) error {
	args := m.Called(ctx, def)
	return args.Error(0)
}

func (m *DefinitionRepository) Get(ctx context.Context, id string) (*definition.Definition, error) {
	args := m.Called(ctx, id)
	if def, ok := args.Get(0).(*definition.Definition); ok {
		return def, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DefinitionRepository) List(ctx context.Context) ([]definition.Summary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]definition.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *DefinitionRepository) IncrementRuns(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ActivityRepository) Count(ctx context.Context, activityType activity.ActivityType) (int, error) {
	args := m.Called(ctx, activityType)
	return args.Int(0), args.Error(1)
}

// IdentityRepository is a mock for identity.Repository.
type IdentityRepository struct {
	mock.Mock
}

func (m *IdentityRepository) CreateUser(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *IdentityRepository) CreateGroup(ctx context.Context, group *identity.Group) error {
	args := m.Called(ctx, group)
	return args.Error(0)
}

func (m *IdentityRepository) AddMember(ctx context.Context, groupID, userID string) error {
	args := m.Called(ctx, groupID, userID)
	return args.Error(0)
}

func (m *IdentityRepository) GrantFeature(ctx context.Context, role, feature string) error {
	args := m.Called(ctx, role, feature)
	return args.Error(0)
}

func (m *IdentityRepository) CreateAPIKey(ctx context.Context, keyHash, userID, description string) error {
	args := m.Called(ctx, keyHash, userID, description)
	return args.Error(0)
}

func (m *IdentityRepository) UserIDForKey(ctx context.Context, keyHash string) (string, error) {
	args := m.Called(ctx, keyHash)
	return args.String(0), args.Error(1)
}

func (m *IdentityRepository) Caller(ctx context.Context, userID string) (*identity.Caller, error) {
	args := m.Called(ctx, userID)
	if caller, ok := args.Get(0).(*identity.Caller); ok {
		return caller, args.Error(1)
	}
	return nil, args.Error(1)
}
