package result

import (
	"slices"

	"github.com/ganot/report-results/internal/domain/identity"
)

// ScopeField names a record attribute a scope can restrict.
type ScopeField string

const (
	FieldReportDefinition ScopeField = "report_definition_id"
	FieldOwnerGroup       ScopeField = "owner_group_id"
)

// Condition restricts one field to a set of values. With NotNull set the
// field only has to be present and Values is ignored. Otherwise an empty
// set matches nothing.
type Condition struct {
	Field   ScopeField
	Values  []string
	NotNull bool
}

// Scope is a conjunction of conditions over result records. The zero
// value is unrestricted.
type Scope struct {
	conds []Condition
}

// WithReport restricts results to those generated from the given report
// definitions. With no IDs it keeps every result that references some
// report definition.
func WithReport(reportIDs ...string) Scope {
	if len(reportIDs) == 0 {
		return Scope{conds: []Condition{{Field: FieldReportDefinition, NotNull: true}}}
	}
	return Scope{conds: []Condition{{Field: FieldReportDefinition, Values: slices.Clone(reportIDs)}}}
}

// WithCurrentUserGroups restricts results to those owned by one of the
// caller's groups. Report admins are not restricted.
func WithCurrentUserGroups(caller identity.Caller) Scope {
	if caller.ReportAdmin() {
		return Scope{}
	}
	return Scope{conds: []Condition{{Field: FieldOwnerGroup, Values: slices.Clone(caller.GroupIDs)}}}
}

// And returns a scope matching records that match both s and other.
func (s Scope) And(other Scope) Scope {
	conds := make([]Condition, 0, len(s.conds)+len(other.conds))
	conds = append(conds, s.conds...)
	conds = append(conds, other.conds...)
	return Scope{conds: conds}
}

// Conditions returns the conditions that must all hold.
func (s Scope) Conditions() []Condition {
	return slices.Clone(s.conds)
}

// Unrestricted reports whether the scope matches every record.
func (s Scope) Unrestricted() bool {
	return len(s.conds) == 0
}

// Matches reports whether the record falls within the scope.
func (s Scope) Matches(rec *Record) bool {
	if rec == nil {
		return false
	}
	for _, c := range s.conds {
		var value *string
		switch c.Field {
		case FieldReportDefinition:
			value = rec.ReportDefinitionID
		case FieldOwnerGroup:
			value = &rec.OwnerGroupID
		}
		if value == nil {
			return false
		}
		if !c.NotNull && !slices.Contains(c.Values, *value) {
			return false
		}
	}
	return true
}
