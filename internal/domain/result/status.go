package result

// ResolveStatus maps a record's generation task to a display status.
// A record with no task was not generated asynchronously and is complete.
// A task that can no longer be found is treated as complete too, so the
// result stays readable after the task runner prunes its history.
func ResolveStatus(taskID *string, state TaskState, found bool) Status {
	if taskID == nil || !found {
		return StatusComplete
	}
	switch state {
	case TaskQueued, TaskRunning:
		return StatusRunning
	case TaskFinishedOK:
		return StatusComplete
	case TaskFinishedError:
		return StatusError
	default:
		return StatusError
	}
}
