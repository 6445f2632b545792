package domain

import "time"

// ComputeTaskStatus computes the time-budget status of a task at now.
//
// elapsed_secs is set only if the task has started; it is never clamped, so
// clock skew can surface as negative. remaining_secs is set only if both
// elapsed_secs and a budget are known, and is clamped to zero.
func ComputeTaskStatus(task Task, now time.Time) TaskStatus {
	status := TaskStatus{Task: task}

	if task.StartedAt == nil {
		return status
	}
	elapsed := int64(now.Sub(*task.StartedAt).Seconds())
	status.ElapsedSecs = &elapsed

	if task.TimeBudgetSecs == nil {
		return status
	}
	remaining := *task.TimeBudgetSecs - elapsed
	if remaining < 0 {
		remaining = 0
	}
	status.RemainingSecs = &remaining

	return status
}
