package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/report"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/stretchr/testify/require"
)

func insertDefinition(t *testing.T, db *DB, id string) {
	t.Helper()
	repo := NewDefinitionRepository(db)
	require.NoError(t, repo.Create(context.Background(), &definition.Definition{
		ID:        id,
		Name:      id,
		Title:     id,
		CreatedAt: time.Now(),
	}))
}

func insertResult(t *testing.T, db *DB, id string, definitionID *string, ownerUser, ownerGroup, name string) *result.Record {
	t.Helper()
	rec := &result.Record{
		ID:                 id,
		ReportDefinitionID: definitionID,
		Name:               name,
		Snapshot:           &report.Report{Name: name, Title: name},
		OwnerUserID:        ownerUser,
		OwnerGroupID:       ownerGroup,
		Source:             result.SourceDirect,
		CreatedAt:          time.Now(),
	}
	require.NoError(t, NewResultRepository(db).Create(context.Background(), rec))
	return rec
}

func strPtr(s string) *string { return &s }
