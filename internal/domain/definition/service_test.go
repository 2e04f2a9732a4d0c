package definition_test

import (
	"context"
	"testing"

	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/repository"
	"github.com/ganot/report-results/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestDefinitionService_CreateDefaultsTitle(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.DefinitionRepository{}
	repo.On("Create", ctx, mock.AnythingOfType("*definition.Definition")).Return(nil)

	def, err := definition.NewService(repo, nil).Create(ctx, definition.CreateRequest{Name: "vms_by_os"})
	require.NoError(t, err)
	require.NotEmpty(t, def.ID)
	require.Equal(t, "vms_by_os", def.Title)
}

func TestDefinitionService_CreateValidation(t *testing.T) {
	repo := &mocks.DefinitionRepository{}
	_, err := definition.NewService(repo, nil).Create(context.Background(), definition.CreateRequest{Name: ""})
	require.ErrorIs(t, err, definition.ErrInvalidInput)
}

func TestDefinitionService_GetAndRecordRunNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.DefinitionRepository{}
	repo.On("Get", ctx, "missing").Return((*definition.Definition)(nil), repository.ErrNotFound)
	repo.On("IncrementRuns", ctx, "missing").Return(int64(0), repository.ErrNotFound)

	svc := definition.NewService(repo, nil)
	_, err := svc.Get(ctx, "missing")
	require.ErrorIs(t, err, definition.ErrDefinitionNotFound)
	_, err = svc.RecordRun(ctx, "missing")
	require.ErrorIs(t, err, definition.ErrDefinitionNotFound)
}
