package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ganot/report-results/internal/domain/activity"
	"github.com/ganot/report-results/internal/domain/definition"
	"github.com/ganot/report-results/internal/domain/identity"
	"github.com/ganot/report-results/internal/domain/payload"
	"github.com/ganot/report-results/internal/domain/result"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type toolset struct {
	services Services
	logger   *slog.Logger
}

// addTool registers a tool whose handler receives the resolved caller.
// Domain errors come back to the client as tool errors carrying an API code.
func addTool[In, Out any](server *sdkmcp.Server, name, description string, fn func(context.Context, identity.Caller, In) (Out, error)) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
			var zero Out
			caller, ok := callerFrom(ctx)
			if !ok {
				return nil, zero, &APIError{Code: "UNAUTHORIZED", Message: "no caller for request"}
			}
			out, err := fn(ctx, caller, in)
			if err != nil {
				return nil, zero, mapError(err)
			}
			return nil, out, nil
		})
}

func registerTools(server *sdkmcp.Server, services Services, logger *slog.Logger) {
	t := &toolset{services: services, logger: logger}

	addTool(server, "create_result", "Record a new report result from a snapshot of the report", t.createResult)
	addTool(server, "set_payload", "Store the generated artifact of a result, as text or as a structured report", t.setPayload)
	addTool(server, "get_payload", "Read the stored artifact of a result", t.getPayload)
	addTool(server, "result_status", "Get the generation status of a result (Running, Complete or Error)", t.resultStatus)
	addTool(server, "list_results", "List results visible to you, newest first", t.listResults)
	addTool(server, "search_results", "Search visible results by name", t.searchResults)
	addTool(server, "counts_by_owner", "Count results per owning user (report admins only)", t.countsByOwner)
	addTool(server, "friendly_title", "Get the display title of a result", t.friendlyTitle)
	addTool(server, "render_text", "Convert a result to csv or txt and store the text as its payload", t.renderText)
	addTool(server, "delete_result", "Delete a result", t.deleteResult)
	addTool(server, "list_activity", "List recent activity, optionally for one result", t.listActivity)
	addTool(server, "create_definition", "Register a report definition", t.createDefinition)
	addTool(server, "list_definitions", "List report definitions with run and result counts", t.listDefinitions)
	if services.Tasks != nil {
		addTool(server, "set_task_state", "Set the state of a local generation task (report admins only)", t.setTaskState)
	}
}

// visible loads a result the caller is allowed to see.
func (t *toolset) visible(ctx context.Context, caller identity.Caller, id string) (*result.Record, error) {
	return t.services.Results.GetVisible(ctx, result.WithCurrentUserGroups(caller), id)
}

func (t *toolset) createResult(ctx context.Context, caller identity.Caller, in CreateResultParams) (ResultResponse, error) {
	groupID := in.GroupID
	if groupID == "" {
		groupID = caller.CurrentGroupID
	}
	if groupID == "" {
		return ResultResponse{}, fmt.Errorf("%w: group_id is required when you have no current group", result.ErrInvalidInput)
	}
	if !caller.ReportAdmin() && !caller.InGroup(groupID) {
		return ResultResponse{}, result.ErrForbidden
	}
	if strings.TrimSpace(in.Snapshot.Name) == "" {
		return ResultResponse{}, fmt.Errorf("%w: snapshot name is required", result.ErrInvalidInput)
	}

	rec, err := t.services.Results.Create(ctx, result.CreateRequest{
		Snapshot:           in.Snapshot.toReport(),
		ReportDefinitionID: optionalString(in.ReportDefinitionID),
		OwnerUserID:        caller.UserID,
		OwnerGroupID:       groupID,
		TaskID:             optionalString(in.TaskID),
		Source:             result.SourceKind(in.Source),
	})
	if err != nil {
		return ResultResponse{}, err
	}
	return resultResponse(rec.Ref()), nil
}

func (t *toolset) setPayload(ctx context.Context, caller identity.Caller, in SetPayloadParams) (SetPayloadResponse, error) {
	var p payload.Payload
	switch {
	case in.Snapshot != nil && in.Text != "":
		return SetPayloadResponse{}, fmt.Errorf("%w: pass either text or snapshot, not both", result.ErrInvalidInput)
	case in.Snapshot != nil:
		p = payload.FromReport(in.Snapshot.toReport())
	default:
		p = payload.FromText(in.Text)
	}

	if _, err := t.visible(ctx, caller, in.ID); err != nil {
		return SetPayloadResponse{}, err
	}
	if err := t.services.Results.SetPayload(ctx, in.ID, p); err != nil {
		return SetPayloadResponse{}, err
	}
	empty, err := t.services.Results.IsEmpty(ctx, in.ID)
	if err != nil {
		return SetPayloadResponse{}, err
	}
	return SetPayloadResponse{ID: in.ID, Encoding: string(p.Encoding), Empty: empty}, nil
}

func (t *toolset) getPayload(ctx context.Context, caller identity.Caller, in ResultIDParams) (PayloadResponse, error) {
	if _, err := t.visible(ctx, caller, in.ID); err != nil {
		return PayloadResponse{}, err
	}
	p, err := t.services.Results.GetPayload(ctx, in.ID)
	if err != nil {
		return PayloadResponse{}, err
	}
	return PayloadResponse{
		ID:       in.ID,
		Encoding: string(p.Encoding),
		Text:     p.Text,
		Report:   reportView(p.Report),
	}, nil
}

func (t *toolset) resultStatus(ctx context.Context, caller identity.Caller, in ResultIDParams) (StatusResponse, error) {
	rec, err := t.visible(ctx, caller, in.ID)
	if err != nil {
		return StatusResponse{}, err
	}
	status, err := t.services.Results.StatusOf(ctx, rec)
	if err != nil {
		return StatusResponse{}, err
	}
	empty, err := t.services.Results.IsEmpty(ctx, rec.ID)
	if err != nil {
		return StatusResponse{}, err
	}
	return StatusResponse{ID: rec.ID, Status: string(status), TaskID: stringValue(rec.TaskID), Empty: empty}, nil
}

func (t *toolset) listResults(ctx context.Context, caller identity.Caller, in ListResultsParams) (ResultListResponse, error) {
	scope := result.WithCurrentUserGroups(caller)
	if len(in.ReportDefinitionIDs) > 0 {
		scope = scope.And(result.WithReport(in.ReportDefinitionIDs...))
	}
	opts := result.ListOptions{
		Source: result.SourceKind(in.Source),
		Limit:  in.Limit,
		Offset: in.Offset,
	}
	if in.Mine {
		opts.OwnerUserID = caller.UserID
	}
	refs, err := t.services.Results.List(ctx, scope, opts)
	if err != nil {
		return ResultListResponse{}, err
	}
	resp := ResultListResponse{Results: make([]ResultResponse, 0, len(refs))}
	for _, ref := range refs {
		resp.Results = append(resp.Results, resultResponse(ref))
	}
	return resp, nil
}

func (t *toolset) searchResults(ctx context.Context, caller identity.Caller, in SearchResultsParams) (SearchResponse, error) {
	hits, err := t.services.Results.Search(ctx, result.WithCurrentUserGroups(caller), in.Query, result.SearchOptions{
		Limit:  in.Limit,
		Offset: in.Offset,
	})
	if err != nil {
		return SearchResponse{}, err
	}
	resp := SearchResponse{Hits: make([]SearchHit, 0, len(hits))}
	for _, hit := range hits {
		resp.Hits = append(resp.Hits, SearchHit{Result: resultResponse(hit.Result), Rank: hit.Rank, Snippet: hit.Snippet})
	}
	return resp, nil
}

func (t *toolset) countsByOwner(ctx context.Context, caller identity.Caller, _ NoParams) (CountsResponse, error) {
	if !caller.ReportAdmin() {
		return CountsResponse{}, result.ErrForbidden
	}
	counts, err := t.services.Results.CountsByOwner(ctx)
	if err != nil {
		return CountsResponse{}, err
	}
	resp := CountsResponse{Counts: make([]OwnerCountResponse, 0, len(counts))}
	for _, c := range counts {
		resp.Counts = append(resp.Counts, OwnerCountResponse{OwnerUserID: c.OwnerUserID, Count: c.Count})
	}
	return resp, nil
}

func (t *toolset) friendlyTitle(ctx context.Context, caller identity.Caller, in ResultIDParams) (TitleResponse, error) {
	rec, err := t.visible(ctx, caller, in.ID)
	if err != nil {
		return TitleResponse{}, err
	}
	return TitleResponse{ID: rec.ID, Title: result.FriendlyTitle(rec), Source: string(rec.Source)}, nil
}

func (t *toolset) renderText(ctx context.Context, caller identity.Caller, in RenderTextParams) (RenderTextResponse, error) {
	format, err := payload.ParseTextFormat(in.Format)
	if err != nil {
		return RenderTextResponse{}, fmt.Errorf("%w: %v", result.ErrInvalidInput, err)
	}
	if _, err := t.visible(ctx, caller, in.ID); err != nil {
		return RenderTextResponse{}, err
	}
	text, err := t.services.Results.GenerateText(ctx, in.ID, format)
	if err != nil {
		return RenderTextResponse{}, err
	}
	return RenderTextResponse{ID: in.ID, Format: string(format), Text: text}, nil
}

func (t *toolset) deleteResult(ctx context.Context, caller identity.Caller, in ResultIDParams) (StatusOK, error) {
	rec, err := t.visible(ctx, caller, in.ID)
	if err != nil {
		return StatusOK{}, err
	}
	if rec.OwnerUserID != caller.UserID && !caller.ReportAdmin() {
		return StatusOK{}, result.ErrForbidden
	}
	if err := t.services.Results.Delete(ctx, rec.ID); err != nil {
		return StatusOK{}, err
	}
	return StatusOK{Status: "deleted"}, nil
}

func (t *toolset) listActivity(ctx context.Context, caller identity.Caller, in ListActivityParams) (ActivityResponse, error) {
	opts := activity.ListActivityOptions{Limit: in.Limit, Offset: in.Offset}
	if in.ResultID != "" {
		if _, err := t.visible(ctx, caller, in.ResultID); err != nil {
			return ActivityResponse{}, err
		}
		opts.ResultID = &in.ResultID
	} else if !caller.ReportAdmin() {
		return ActivityResponse{}, fmt.Errorf("%w: result_id is required", result.ErrInvalidInput)
	}
	if in.Type != "" {
		activityType := activity.ActivityType(in.Type)
		opts.ActivityType = &activityType
	}

	entries, err := t.services.Activity.GetRecentActivity(ctx, opts)
	if err != nil {
		return ActivityResponse{}, err
	}
	resp := ActivityResponse{Entries: make([]ActivityEntryResponse, 0, len(entries))}
	for _, entry := range entries {
		resp.Entries = append(resp.Entries, activityResponse(entry))
	}
	return resp, nil
}

func (t *toolset) createDefinition(ctx context.Context, _ identity.Caller, in CreateDefinitionParams) (DefinitionResponse, error) {
	def, err := t.services.Definitions.Create(ctx, definition.CreateRequest{
		ID:          in.ID,
		Name:        in.Name,
		Title:       in.Title,
		Description: in.Description,
	})
	if err != nil {
		return DefinitionResponse{}, err
	}
	return definitionResponse(def), nil
}

func (t *toolset) listDefinitions(ctx context.Context, _ identity.Caller, _ NoParams) (DefinitionListResponse, error) {
	defs, err := t.services.Definitions.List(ctx)
	if err != nil {
		return DefinitionListResponse{}, err
	}
	resp := DefinitionListResponse{Definitions: make([]DefinitionResponse, 0, len(defs))}
	for _, def := range defs {
		resp.Definitions = append(resp.Definitions, DefinitionResponse{
			ID:          def.ID,
			Name:        def.Name,
			Title:       def.Title,
			Runs:        def.Runs,
			ResultCount: def.ResultCount,
			CreatedAt:   formatTime(def.CreatedAt),
		})
	}
	return resp, nil
}

func (t *toolset) setTaskState(ctx context.Context, caller identity.Caller, in SetTaskStateParams) (StatusOK, error) {
	if !caller.ReportAdmin() {
		return StatusOK{}, result.ErrForbidden
	}
	if strings.TrimSpace(in.TaskID) == "" {
		return StatusOK{}, fmt.Errorf("%w: task_id is required", result.ErrInvalidInput)
	}
	if err := t.services.Tasks.SetState(ctx, in.TaskID, result.TaskState(in.State)); err != nil {
		return StatusOK{}, err
	}
	t.logger.Debug("task state set", "task_id", in.TaskID, "state", in.State, "user_id", caller.UserID)
	return StatusOK{Status: "ok"}, nil
}
