package identity

import (
	"slices"
	"time"
)

// FeatureReportAdmin grants visibility of every report result regardless
// of owning group.
const FeatureReportAdmin = "report_admin"

// User is an account that generates and reads report results.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CurrentGroupID string    `json:"current_group_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Group is a tenancy unit. Its role decides which product features
// members acting under the group hold.
type Group struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Caller is the resolved identity of whoever is making a request. It is
// always built server side from stored memberships, never from
// request parameters.
type Caller struct {
	UserID         string   `json:"user_id"`
	CurrentGroupID string   `json:"current_group_id,omitempty"`
	GroupIDs       []string `json:"group_ids"`
	Features       []string `json:"features,omitempty"`
}

// HasFeature reports whether the caller's current role grants feature.
func (c Caller) HasFeature(feature string) bool {
	return slices.Contains(c.Features, feature)
}

// ReportAdmin reports whether the caller may see every result.
func (c Caller) ReportAdmin() bool {
	return c.HasFeature(FeatureReportAdmin)
}

// InGroup reports whether groupID is one of the caller's groups.
func (c Caller) InGroup(groupID string) bool {
	return slices.Contains(c.GroupIDs, groupID)
}
