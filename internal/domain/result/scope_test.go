package result_test

import (
	"testing"

	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/domain/result"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// scopeFixture has one record for each (report, group) pair.
func scopeFixture() []*result.Record {
	return []*result.Record{
		{ID: "a", ReportDefinitionID: strPtr("r1"), OwnerGroupID: "g1"},
		{ID: "b", ReportDefinitionID: strPtr("r1"), OwnerGroupID: "g2"},
		{ID: "c", ReportDefinitionID: strPtr("r2"), OwnerGroupID: "g1"},
		{ID: "d", ReportDefinitionID: strPtr("r2"), OwnerGroupID: "g2"},
	}
}

func matching(scope result.Scope, recs []*result.Record) []string {
	var ids []string
	for _, rec := range recs {
		if scope.Matches(rec) {
			ids = append(ids, rec.ID)
		}
	}
	return ids
}

func TestScope_ReportAndGroupConjunction(t *testing.T) {
	caller := identity.Caller{UserID: "u1", GroupIDs: []string{"g1"}}
	scope := result.WithReport("r1").And(result.WithCurrentUserGroups(caller))
	require.Equal(t, []string{"a"}, matching(scope, scopeFixture()))

	// Composition order doesn't matter.
	scope = result.WithCurrentUserGroups(caller).And(result.WithReport("r1"))
	require.Equal(t, []string{"a"}, matching(scope, scopeFixture()))
}

func TestScope_ReportAdminBypassesGroups(t *testing.T) {
	admin := identity.Caller{
		UserID:   "admin",
		GroupIDs: []string{"g9"},
		Features: []string{identity.FeatureReportAdmin},
	}
	scope := result.WithReport("r1").And(result.WithCurrentUserGroups(admin))
	require.Equal(t, []string{"a", "b"}, matching(scope, scopeFixture()))

	require.True(t, result.WithCurrentUserGroups(admin).Unrestricted())
	require.Equal(t, []string{"a", "b", "c", "d"}, matching(result.WithCurrentUserGroups(admin), scopeFixture()))
}

func TestScope_NoGroupsSeesNothing(t *testing.T) {
	caller := identity.Caller{UserID: "loner"}
	require.Empty(t, matching(result.WithCurrentUserGroups(caller), scopeFixture()))
}

func TestScope_MultipleGroups(t *testing.T) {
	caller := identity.Caller{UserID: "u1", GroupIDs: []string{"g1", "g2"}}
	scope := result.WithReport("r2").And(result.WithCurrentUserGroups(caller))
	require.Equal(t, []string{"c", "d"}, matching(scope, scopeFixture()))
}

func TestScope_OwnerGroupNotOwnerCurrentGroup(t *testing.T) {
	// The owner later switched to g2; visibility still follows the
	// group stored on the record.
	rec := &result.Record{ID: "x", OwnerUserID: "u1", OwnerGroupID: "g1"}

	g1 := identity.Caller{UserID: "u2", GroupIDs: []string{"g1"}}
	g2 := identity.Caller{UserID: "u1", CurrentGroupID: "g2", GroupIDs: []string{"g2"}}

	require.True(t, result.WithCurrentUserGroups(g1).Matches(rec))
	require.False(t, result.WithCurrentUserGroups(g2).Matches(rec))
}

func TestScope_RecordWithoutDefinition(t *testing.T) {
	rec := &result.Record{ID: "adhoc", OwnerGroupID: "g1"}
	require.False(t, result.WithReport("r1").Matches(rec))
	require.True(t, result.Scope{}.Matches(rec))
	require.False(t, result.Scope{}.Matches(nil))
}

func TestScope_ConditionsAreCopies(t *testing.T) {
	ids := []string{"r1"}
	scope := result.WithReport(ids...)
	ids[0] = "changed"

	conds := scope.Conditions()
	require.Len(t, conds, 1)
	require.Equal(t, result.FieldReportDefinition, conds[0].Field)
	require.Equal(t, []string{"r1"}, conds[0].Values)
}

func TestScope_WithReportNoIDsKeepsDefinedResults(t *testing.T) {
	recs := []*result.Record{
		{ID: "a", ReportDefinitionID: strPtr("r1"), OwnerGroupID: "g1"},
		{ID: "b", ReportDefinitionID: strPtr("r1"), OwnerGroupID: "g1"},
		{ID: "c", ReportDefinitionID: strPtr("r2"), OwnerGroupID: "g2"},
		{ID: "d", OwnerGroupID: "g1"},
	}
	require.Equal(t, []string{"a", "b", "c"}, matching(result.WithReport(), recs))

	caller := identity.Caller{UserID: "u1", GroupIDs: []string{"g1"}}
	require.Equal(t, []string{"a", "b"}, matching(result.WithReport().And(result.WithCurrentUserGroups(caller)), recs))

	conds := result.WithReport().Conditions()
	require.Len(t, conds, 1)
	require.True(t, conds[0].NotNull)
}
