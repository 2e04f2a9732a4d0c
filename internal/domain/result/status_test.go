package result_test

import (
	"testing"

	"github.com/ganot/report-results/internal/domain/result"
	"github.com/stretchr/testify/require"
)

func TestResolveStatus(t *testing.T) {
	task := strPtr("task-1")

	tests := []struct {
		name   string
		taskID *string
		state  result.TaskState
		found  bool
		want   result.Status
	}{
		{name: "no task", taskID: nil, want: result.StatusComplete},
		{name: "queued", taskID: task, state: result.TaskQueued, found: true, want: result.StatusRunning},
		{name: "running", taskID: task, state: result.TaskRunning, found: true, want: result.StatusRunning},
		{name: "finished ok", taskID: task, state: result.TaskFinishedOK, found: true, want: result.StatusComplete},
		{name: "finished error", taskID: task, state: result.TaskFinishedError, found: true, want: result.StatusError},
		{name: "task deleted", taskID: task, found: false, want: result.StatusComplete},
		{name: "unknown state", taskID: task, state: "paused", found: true, want: result.StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, result.ResolveStatus(tt.taskID, tt.state, tt.found))
		})
	}
}
