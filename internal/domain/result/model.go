package result

import (
	"time"

	"github.com/ganot/report-results/internal/domain/payload"
	"github.com/ganot/report-results/internal/domain/report"
)

// SourceKind says what produced a result.
type SourceKind string

const (
	SourceDirect SourceKind = "direct-report"
	SourceWidget SourceKind = "widget-report"
)

// Valid reports whether k is a known source kind.
func (k SourceKind) Valid() bool {
	return k == SourceDirect || k == SourceWidget
}

// Status is the user-facing generation status of a result.
type Status string

const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusError    Status = "Error"
)

// TaskState is the state of the generation task as reported by the
// task runner.
type TaskState string

const (
	TaskQueued        TaskState = "queued"
	TaskRunning       TaskState = "running"
	TaskFinishedOK    TaskState = "finished-ok"
	TaskFinishedError TaskState = "finished-error"
)

// PayloadRef points at the stored bytes of a result's artifact.
type PayloadRef struct {
	BlobRef  string           `json:"blob_ref"`
	Encoding payload.Encoding `json:"encoding"`
}

// Record is one execution of a report.
type Record struct {
	ID                 string         `json:"id"`
	ReportDefinitionID *string        `json:"report_definition_id,omitempty"`
	Name               string         `json:"name"`
	Snapshot           *report.Report `json:"snapshot,omitempty"`
	OwnerUserID        string         `json:"owner_user_id"`
	OwnerGroupID       string         `json:"owner_group_id"`
	TaskID             *string        `json:"task_id,omitempty"`
	Payload            *PayloadRef    `json:"payload,omitempty"`
	Source             SourceKind     `json:"source"`
	CreatedAt          time.Time      `json:"created_at"`
	LastRunOn          *time.Time     `json:"last_run_on,omitempty"`
	Flagged            bool           `json:"flagged,omitempty"`
	FlagReason         string         `json:"flag_reason,omitempty"`
}

// RecordRef is a lightweight reference to a result, without its snapshot.
type RecordRef struct {
	ID                 string     `json:"id"`
	ReportDefinitionID *string    `json:"report_definition_id,omitempty"`
	Name               string     `json:"name"`
	OwnerUserID        string     `json:"owner_user_id"`
	OwnerGroupID       string     `json:"owner_group_id"`
	TaskID             *string    `json:"task_id,omitempty"`
	Source             SourceKind `json:"source"`
	HasPayload         bool       `json:"has_payload"`
	Flagged            bool       `json:"flagged,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	LastRunOn          *time.Time `json:"last_run_on,omitempty"`
}

// Ref returns the lightweight view of the record.
func (r *Record) Ref() RecordRef {
	return RecordRef{
		ID:                 r.ID,
		ReportDefinitionID: r.ReportDefinitionID,
		Name:               r.Name,
		OwnerUserID:        r.OwnerUserID,
		OwnerGroupID:       r.OwnerGroupID,
		TaskID:             r.TaskID,
		Source:             r.Source,
		HasPayload:         r.Payload != nil,
		Flagged:            r.Flagged,
		CreatedAt:          r.CreatedAt,
		LastRunOn:          r.LastRunOn,
	}
}

// OwnerCount is the number of results owned by one user.
type OwnerCount struct {
	OwnerUserID string `json:"owner_user_id"`
	Count       int    `json:"count"`
}

// SearchResult represents a search hit with relevance
type SearchResult struct {
	Result  RecordRef `json:"result"`
	Rank    float64   `json:"rank"`
	Snippet string    `json:"snippet,omitempty"`
}
