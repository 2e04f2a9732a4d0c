// Package temporal reads report generation task state from Temporal
// workflow executions. The task ID of a result is its workflow ID.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"

	"github.com/ganot/report-results/internal/domain/result"
)

// Config holds the Temporal connection settings.
type Config struct {
	HostPort  string
	Namespace string
}

// describer is the part of client.Client the reader needs.
type describer interface {
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
}

// TaskReader implements result.TaskReader.
type TaskReader struct {
	client describer
	logger *slog.Logger
}

// Dial connects to Temporal and returns a reader plus the client, which
// the caller closes.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*TaskReader, client.Client, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	namespace := cfg.Namespace
	if namespace == "" {
		namespace = "default"
	}
	c, err := client.DialContext(ctx, client.Options{
		HostPort:  cfg.HostPort,
		Namespace: namespace,
		Logger:    tlog.NewStructuredLogger(logger.With("component", "temporal")),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("temporal dial failed (address=%s namespace=%s): %w", cfg.HostPort, namespace, err)
	}
	return NewTaskReader(c, logger), c, nil
}

// NewTaskReader wraps a Temporal client.
func NewTaskReader(c describer, logger *slog.Logger) *TaskReader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TaskReader{client: c, logger: logger}
}

// TaskState describes the latest run of the workflow named taskID. A
// workflow the server no longer knows about (deleted or past retention)
// yields result.ErrTaskNotFound.
func (r *TaskReader) TaskState(ctx context.Context, taskID string) (result.TaskState, error) {
	resp, err := r.client.DescribeWorkflowExecution(ctx, taskID, "")
	if err != nil {
		var notFound *serviceerror.NotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("workflow %s: %w", taskID, result.ErrTaskNotFound)
		}
		return "", fmt.Errorf("describing workflow %s: %w", taskID, err)
	}
	status := resp.GetWorkflowExecutionInfo().GetStatus()
	state := StateFromStatus(status)
	r.logger.Debug("workflow state", "task_id", taskID, "status", status.String(), "state", state)
	return state, nil
}

// StateFromStatus maps a workflow execution status to a task state.
func StateFromStatus(status enumspb.WorkflowExecutionStatus) result.TaskState {
	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING,
		enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return result.TaskRunning
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return result.TaskFinishedOK
	case enumspb.WORKFLOW_EXECUTION_STATUS_FAILED,
		enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED,
		enumspb.WORKFLOW_EXECUTION_STATUS_TERMINATED,
		enumspb.WORKFLOW_EXECUTION_STATUS_TIMED_OUT:
		return result.TaskFinishedError
	default:
		return result.TaskQueued
	}
}
