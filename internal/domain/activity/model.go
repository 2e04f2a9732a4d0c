package activity

import (
	"slices"
	"time"
)

// ActivityType names what happened to a result.
type ActivityType string

const (
	TypeResultCreated  ActivityType = "result_created"
	TypePayloadSet     ActivityType = "payload_set"
	TypeSnapshotSaved  ActivityType = "snapshot_saved"
	TypeTextGenerated  ActivityType = "text_generated"
	TypeResultFlagged  ActivityType = "result_flagged"
	TypeResultDeleted  ActivityType = "result_deleted"
	TypeTaskVanished   ActivityType = "task_vanished"
	TypeDocumentRender ActivityType = "document_rendered"
)

var knownTypes = []ActivityType{
	TypeResultCreated,
	TypePayloadSet,
	TypeSnapshotSaved,
	TypeTextGenerated,
	TypeResultFlagged,
	TypeResultDeleted,
	TypeTaskVanished,
	TypeDocumentRender,
}

// Valid reports whether t is a type the store writes.
func (t ActivityType) Valid() bool {
	return slices.Contains(knownTypes, t)
}

// ActivityEntry is one line of the result audit trail. Details carries
// small structured context (sizes, task IDs) and is stored as JSON.
type ActivityEntry struct {
	ID           int64          `json:"id"`
	ResultID     *string        `json:"result_id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	ActivityType ActivityType   `json:"type"`
	Summary      string         `json:"summary"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}
