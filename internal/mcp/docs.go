package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `report-results stores the outcome of report runs.

Core concepts:
- Result: one execution of a report. It keeps a snapshot of the report as it was when the run started, the owning user and group, and a payload.
- Payload: the generated artifact, stored either as a structured report or as text (csv or a boxed plain table).
- Status: Running while the generation task is queued or running, Complete when it finished or no longer exists, Error when it failed.
- Visibility: you see results owned by your groups. Report admins see everything.

Typical flow:
1) create_result with the report snapshot (and task_id when a task generates the payload).
2) set_payload when the artifact is ready, or poll result_status.
3) get_payload, render_text (csv/txt) or download the document from GET /results/{id}/document.

Docs:
- reports://docs/index
- reports://docs/payloads
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "reports://docs/index",
		Name:        "docs_index",
		Title:       "report-results docs index",
		Description: "Entry point: the tools, what they return and who may call them.",
		Content: `# report-results: Agent Docs Index

## Tools

- ` + "`create_result`" + `: record a run. The owner is you; the group defaults to your current group.
- ` + "`set_payload`" + ` / ` + "`get_payload`" + `: store and read the artifact.
- ` + "`result_status`" + `: Running, Complete or Error, plus whether the payload is empty.
- ` + "`list_results`" + ` / ` + "`search_results`" + `: browse results visible to you.
- ` + "`friendly_title`" + `: the title shown in listings and documents.
- ` + "`render_text`" + `: convert to csv or txt; the text replaces the payload.
- ` + "`list_activity`" + `: audit trail for a result.
- ` + "`create_definition`" + ` / ` + "`list_definitions`" + `: report definitions results refer to.
- ` + "`counts_by_owner`" + `, ` + "`set_task_state`" + `: report admins only.

## Limitations

- A result whose task disappeared reports Complete, even if no payload was stored. Check ` + "`empty`" + ` in ` + "`result_status`" + `.
- Documents are rendered by an external service; when it is down, downloads fail with RENDERER_UNAVAILABLE.
`,
	},
	{
		URI:         "reports://docs/payloads",
		Name:        "docs_payloads",
		Title:       "Payload formats",
		Description: "How payloads are stored and what comes back from get_payload.",
		Content: `# Payload formats

Every payload is tagged with its encoding:

- ` + "`object`" + `: a structured report. get_payload returns it under ` + "`report`" + ` with headers and rows as text.
- ` + "`text`" + `: csv or a boxed plain-text table. get_payload returns it under ` + "`text`" + ` unchanged.

The transient grouping annotations of a report are never stored.

A payload that can no longer be decoded is flagged and reads fail with PAYLOAD_CORRUPT; storing a new payload clears the flag.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
