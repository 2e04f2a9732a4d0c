package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/domain/payload"
	"github.com/ganot/report-results/internal/domain/report"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/ganot/report-results/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestResultRepository_CreateGet(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertDefinition(t, db, "def1")

	repo := NewResultRepository(db)
	taskID := "task-1"
	rec := &result.Record{
		ID:                 "r1",
		ReportDefinitionID: strPtr("def1"),
		Name:               "Fred's VMs",
		Snapshot: &report.Report{
			Name:     "vms",
			Title:    "Fred's VMs",
			Headers:  []string{"Name"},
			Extras:   map[string]any{"total_rows": int64(1)},
			Grouping: map[string]any{"cached": true},
			Table: &report.Table{
				Columns: []string{"name"},
				Rows:    [][]report.Cell{{report.StringCell("vm1")}},
			},
		},
		OwnerUserID:  "u1",
		OwnerGroupID: "g1",
		TaskID:       &taskID,
		Source:       result.SourceWidget,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Create(ctx, rec))

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "def1", *got.ReportDefinitionID)
	require.Equal(t, "task-1", *got.TaskID)
	require.Equal(t, result.SourceWidget, got.Source)
	require.Nil(t, got.Payload)
	require.Nil(t, got.LastRunOn)
	require.False(t, got.Flagged)

	// The grouping cache is not persisted.
	require.Nil(t, got.Snapshot.Grouping)
	require.Equal(t, "vm1", got.Snapshot.Table.Rows[0][0].String)
	require.Equal(t, int64(1), got.Snapshot.Extras["total_rows"])

	// Each read decodes a fresh snapshot.
	got.Snapshot.Title = "edited"
	again, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "Fred's VMs", again.Snapshot.Title)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestResultRepository_CreateUnknownDefinition(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	err := repo.Create(context.Background(), &result.Record{
		ID:                 "r1",
		ReportDefinitionID: strPtr("nope"),
		Name:               "x",
		OwnerUserID:        "u1",
		OwnerGroupID:       "g1",
		Source:             result.SourceDirect,
		CreatedAt:          time.Now(),
	})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}

func TestResultRepository_SetPayloadFlagAndSnapshot(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertResult(t, db, "r1", nil, "u1", "g1", "Hosts")
	repo := NewResultRepository(db)

	require.NoError(t, repo.Flag(ctx, "r1", "bad bytes"))
	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.True(t, got.Flagged)
	require.Equal(t, "bad bytes", got.FlagReason)

	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	ref := result.PayloadRef{BlobRef: "abc", Encoding: payload.EncodingText}
	require.NoError(t, repo.SetPayload(ctx, "r1", ref, at))

	got, err = repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, &ref, got.Payload)
	require.NotNil(t, got.LastRunOn)
	require.True(t, got.LastRunOn.Equal(at))
	require.False(t, got.Flagged)

	// Replacing the payload swaps ref and encoding together.
	next := result.PayloadRef{BlobRef: "def", Encoding: payload.EncodingObject}
	require.NoError(t, repo.SetPayload(ctx, "r1", next, at.Add(time.Hour)))
	got, err = repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, &next, got.Payload)

	require.NoError(t, repo.SaveSnapshot(ctx, "r1", &report.Report{Title: "Edited"}))
	got, err = repo.Get(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "Edited", got.Snapshot.Title)

	require.ErrorIs(t, repo.SetPayload(ctx, "missing", ref, at), repository.ErrNotFound)
	require.ErrorIs(t, repo.Flag(ctx, "missing", "x"), repository.ErrNotFound)
	require.ErrorIs(t, repo.SaveSnapshot(ctx, "missing", &report.Report{}), repository.ErrNotFound)
}

func TestResultRepository_Delete(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertResult(t, db, "r1", nil, "u1", "g1", "Hosts")
	repo := NewResultRepository(db)

	require.NoError(t, repo.Delete(ctx, "r1"))
	_, err := repo.Get(ctx, "r1")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.ErrorIs(t, repo.Delete(ctx, "r1"), repository.ErrNotFound)
}

func TestResultRepository_ListScopeMatchesInMemory(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertDefinition(t, db, "r1")
	insertDefinition(t, db, "r2")

	recs := []*result.Record{
		insertResult(t, db, "a", strPtr("r1"), "u1", "g1", "A"),
		insertResult(t, db, "b", strPtr("r1"), "u2", "g2", "B"),
		insertResult(t, db, "c", strPtr("r2"), "u1", "g1", "C"),
		insertResult(t, db, "d", strPtr("r2"), "u2", "g2", "D"),
		insertResult(t, db, "e", nil, "u1", "g1", "E"),
	}
	repo := NewResultRepository(db)

	member := identity.Caller{UserID: "u1", GroupIDs: []string{"g1"}}
	admin := identity.Caller{UserID: "root", Features: []string{identity.FeatureReportAdmin}}
	nobody := identity.Caller{UserID: "u3"}

	scopes := map[string]result.Scope{
		"report and group": result.WithReport("r1").And(result.WithCurrentUserGroups(member)),
		"admin":            result.WithReport("r1").And(result.WithCurrentUserGroups(admin)),
		"no groups":        result.WithCurrentUserGroups(nobody),
		"two reports":      result.WithReport("r1", "r2"),
		"any report":       result.WithReport(),
		"any report, g1":   result.WithReport().And(result.WithCurrentUserGroups(member)),
		"unrestricted":     {},
	}
	for name, scope := range scopes {
		var want []string
		for _, rec := range recs {
			if scope.Matches(rec) {
				want = append(want, rec.ID)
			}
		}

		refs, err := repo.List(ctx, scope, result.ListOptions{})
		require.NoError(t, err, name)
		var got []string
		for _, ref := range refs {
			got = append(got, ref.ID)
		}
		require.ElementsMatch(t, want, got, name)
	}

	refs, err := repo.List(ctx, result.WithReport("r1").And(result.WithCurrentUserGroups(member)), result.ListOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, []string{refs[0].ID})

	refs, err = repo.List(ctx, result.WithReport(), result.ListOptions{})
	require.NoError(t, err)
	require.Len(t, refs, 4)

	refs, err = repo.List(ctx, result.Scope{}, result.ListOptions{OwnerUserID: "u2", Limit: 1})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	require.Equal(t, "u2", refs[0].OwnerUserID)
}

func TestResultRepository_CountsByOwner(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	insertResult(t, db, "a", nil, "u2", "g1", "A")
	insertResult(t, db, "b", nil, "u1", "g1", "B")
	insertResult(t, db, "c", nil, "u2", "g2", "C")

	counts, err := NewResultRepository(db).CountsByOwner(ctx)
	require.NoError(t, err)
	require.Equal(t, []result.OwnerCount{
		{OwnerUserID: "u1", Count: 1},
		{OwnerUserID: "u2", Count: 2},
	}, counts)
}
