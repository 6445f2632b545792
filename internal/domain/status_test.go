package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func newTask(budget *int64, started *time.Time) Task {
	return Task{
		ID:             uuid.New(),
		Title:          "test",
		CreatedBy:      uuid.New(),
		TimeBudgetSecs: budget,
		StartedAt:      started,
		CreatedAt:      time.Now(),
	}
}

func secs(v int64) *int64 { return &v }

func TestComputeTaskStatusNotStarted(t *testing.T) {
	now := time.Now()
	task := newTask(secs(3600), nil)

	status := ComputeTaskStatus(task, now)

	assert.Nil(t, status.ElapsedSecs)
	assert.Nil(t, status.RemainingSecs)
}

func TestComputeTaskStatusInProgress(t *testing.T) {
	now := time.Now()
	started := now.Add(-30 * time.Minute)
	task := newTask(secs(3600), &started)

	status := ComputeTaskStatus(task, now)

	assert.Equal(t, int64(1800), *status.ElapsedSecs)
	assert.Equal(t, int64(1800), *status.RemainingSecs)
}

func TestComputeTaskStatusOvertimeClampsToZero(t *testing.T) {
	now := time.Now()
	started := now.Add(-2 * time.Hour)
	task := newTask(secs(3600), &started)

	status := ComputeTaskStatus(task, now)

	assert.Equal(t, int64(7200), *status.ElapsedSecs)
	assert.Equal(t, int64(0), *status.RemainingSecs)
}

func TestComputeTaskStatusNoBudget(t *testing.T) {
	now := time.Now()
	started := now.Add(-30 * time.Minute)
	task := newTask(nil, &started)

	status := ComputeTaskStatus(task, now)

	assert.Equal(t, int64(1800), *status.ElapsedSecs)
	assert.Nil(t, status.RemainingSecs)
}

func TestComputeTaskStatusZeroBudgetClampsToZero(t *testing.T) {
	now := time.Now()
	started := now.Add(-1 * time.Second)
	task := newTask(secs(0), &started)

	status := ComputeTaskStatus(task, now)

	assert.Equal(t, int64(0), *status.RemainingSecs)
}

func TestComputeTaskStatusNegativeElapsedNotClamped(t *testing.T) {
	now := time.Now()
	started := now.Add(1 * time.Hour) // clock skew: started in the future
	task := newTask(secs(3600), &started)

	status := ComputeTaskStatus(task, now)

	assert.Less(t, *status.ElapsedSecs, int64(0))
}
