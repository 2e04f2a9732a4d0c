package mcp

import (
	"time"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/report"
	"github.com/ganot/report-results/internal/domain/result"
)

// SnapshotInput is a report snapshot as supplied by a client. Cells are
// plain strings.
type SnapshotInput struct {
	Name      string     `json:"name" jsonschema:"report name"`
	Title     string     `json:"title,omitempty" jsonschema:"report title; defaults to the name"`
	Columns   []string   `json:"columns,omitempty" jsonschema:"column keys in display order"`
	Headers   []string   `json:"headers,omitempty" jsonschema:"column header labels"`
	SortOrder string     `json:"sort_order,omitempty" jsonschema:"Ascending or Descending"`
	Rows      [][]string `json:"rows,omitempty" jsonschema:"table rows"`
}

func (in SnapshotInput) toReport() *report.Report {
	title := in.Title
	if title == "" {
		title = in.Name
	}
	rpt := &report.Report{
		Name:      in.Name,
		Title:     title,
		Cols:      in.Columns,
		ColOrder:  in.Columns,
		Headers:   in.Headers,
		SortOrder: in.SortOrder,
	}
	if len(in.Columns) > 0 || len(in.Rows) > 0 {
		rows := make([][]report.Cell, len(in.Rows))
		for i, row := range in.Rows {
			cells := make([]report.Cell, len(row))
			for j, v := range row {
				cells[j] = report.StringCell(v)
			}
			rows[i] = cells
		}
		rpt.Table = &report.Table{Columns: in.Columns, Rows: rows}
	}
	return rpt
}

type CreateResultParams struct {
	Snapshot           SnapshotInput `json:"snapshot" jsonschema:"the report as it was when generation started"`
	ReportDefinitionID string        `json:"report_definition_id,omitempty" jsonschema:"definition the result was generated from"`
	GroupID            string        `json:"group_id,omitempty" jsonschema:"owning group; defaults to your current group"`
	TaskID             string        `json:"task_id,omitempty" jsonschema:"generation task to track status with"`
	Source             string        `json:"source,omitempty" jsonschema:"direct-report or widget-report"`
}

type SetPayloadParams struct {
	ID       string         `json:"id" jsonschema:"result ID"`
	Text     string         `json:"text,omitempty" jsonschema:"delimited or preformatted text payload"`
	Snapshot *SnapshotInput `json:"snapshot,omitempty" jsonschema:"structured report payload"`
}

type ResultIDParams struct {
	ID string `json:"id" jsonschema:"result ID"`
}

type ListResultsParams struct {
	ReportDefinitionIDs []string `json:"report_definition_ids,omitempty" jsonschema:"only results of these definitions"`
	Mine                bool     `json:"mine,omitempty" jsonschema:"only results you own"`
	Source              string   `json:"source,omitempty" jsonschema:"direct-report or widget-report"`
	Limit               int      `json:"limit,omitempty"`
	Offset              int      `json:"offset,omitempty"`
}

type SearchResultsParams struct {
	Query  string `json:"query" jsonschema:"search text matched against result names"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type RenderTextParams struct {
	ID     string `json:"id" jsonschema:"result ID"`
	Format string `json:"format" jsonschema:"csv or txt"`
}

type ListActivityParams struct {
	ResultID string `json:"result_id,omitempty" jsonschema:"only activity for this result"`
	Type     string `json:"type,omitempty" jsonschema:"only activity of this type"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

type CreateDefinitionParams struct {
	ID          string `json:"id,omitempty" jsonschema:"definition ID; generated when empty"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type SetTaskStateParams struct {
	TaskID string `json:"task_id"`
	State  string `json:"state" jsonschema:"queued, running, finished-ok or finished-error"`
}

type NoParams struct{}

type ResultResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	ReportDefinitionID string `json:"report_definition_id,omitempty"`
	OwnerUserID        string `json:"owner_user_id"`
	OwnerGroupID       string `json:"owner_group_id"`
	TaskID             string `json:"task_id,omitempty"`
	Source             string `json:"source"`
	HasPayload         bool   `json:"has_payload"`
	Flagged            bool   `json:"flagged,omitempty"`
	CreatedAt          string `json:"created_at"`
	LastRunOn          string `json:"last_run_on,omitempty"`
}

func resultResponse(ref result.RecordRef) ResultResponse {
	return ResultResponse{
		ID:                 ref.ID,
		Name:               ref.Name,
		ReportDefinitionID: stringValue(ref.ReportDefinitionID),
		OwnerUserID:        ref.OwnerUserID,
		OwnerGroupID:       ref.OwnerGroupID,
		TaskID:             stringValue(ref.TaskID),
		Source:             string(ref.Source),
		HasPayload:         ref.HasPayload,
		Flagged:            ref.Flagged,
		CreatedAt:          formatTime(ref.CreatedAt),
		LastRunOn:          formatTimePtr(ref.LastRunOn),
	}
}

type ResultListResponse struct {
	Results []ResultResponse `json:"results"`
}

type SetPayloadResponse struct {
	ID       string `json:"id"`
	Encoding string `json:"encoding"`
	Empty    bool   `json:"empty"`
}

// ReportView is a report flattened for display.
type ReportView struct {
	Name    string     `json:"name"`
	Title   string     `json:"title"`
	Headers []string   `json:"headers,omitempty"`
	Rows    [][]string `json:"rows,omitempty"`
}

func reportView(rpt *report.Report) *ReportView {
	if rpt == nil {
		return nil
	}
	view := &ReportView{Name: rpt.Name, Title: rpt.Title, Headers: rpt.DisplayHeaders()}
	if rpt.Table != nil {
		view.Rows = make([][]string, len(rpt.Table.Rows))
		for i, row := range rpt.Table.Rows {
			cells := make([]string, len(row))
			for j, cell := range row {
				cells[j] = cell.Text()
			}
			view.Rows[i] = cells
		}
	}
	return view
}

type PayloadResponse struct {
	ID       string      `json:"id"`
	Encoding string      `json:"encoding"`
	Text     string      `json:"text,omitempty"`
	Report   *ReportView `json:"report,omitempty"`
}

type StatusResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	TaskID string `json:"task_id,omitempty"`
	Empty  bool   `json:"empty"`
}

type SearchHit struct {
	Result  ResultResponse `json:"result"`
	Rank    float64        `json:"rank"`
	Snippet string         `json:"snippet,omitempty"`
}

type SearchResponse struct {
	Hits []SearchHit `json:"hits"`
}

type OwnerCountResponse struct {
	OwnerUserID string `json:"owner_user_id"`
	Count       int    `json:"count"`
}

type CountsResponse struct {
	Counts []OwnerCountResponse `json:"counts"`
}

type TitleResponse struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Source string `json:"source"`
}

type RenderTextResponse struct {
	ID     string `json:"id"`
	Format string `json:"format"`
	Text   string `json:"text"`
}

type ActivityEntryResponse struct {
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	ResultID  string         `json:"result_id,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Summary   string         `json:"summary"`
	Details   map[string]any `json:"details,omitempty"`
}

func activityResponse(entry activity.ActivityEntry) ActivityEntryResponse {
	return ActivityEntryResponse{
		Timestamp: formatTime(entry.CreatedAt),
		Type:      string(entry.ActivityType),
		ResultID:  stringValue(entry.ResultID),
		UserID:    entry.UserID,
		Summary:   entry.Summary,
		Details:   entry.Details,
	}
}

type ActivityResponse struct {
	Entries []ActivityEntryResponse `json:"entries"`
}

type DefinitionResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Runs        int64  `json:"runs"`
	ResultCount int    `json:"result_count"`
	CreatedAt   string `json:"created_at"`
}

func definitionResponse(def *definition.Definition) DefinitionResponse {
	return DefinitionResponse{
		ID:          def.ID,
		Name:        def.Name,
		Title:       def.Title,
		Description: def.Description,
		Runs:        def.Runs,
		CreatedAt:   formatTime(def.CreatedAt),
	}
}

type DefinitionListResponse struct {
	Definitions []DefinitionResponse `json:"definitions"`
}

type StatusOK struct {
	Status string `json:"status"`
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}

func optionalString(val string) *string {
	if val == "" {
		return nil
	}
	return &val
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}
