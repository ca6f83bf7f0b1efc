package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newExecRecord(workItemID uuid.UUID) *ExecutionRecord {
	return &ExecutionRecord{
		ExecutionID:        uuid.New(),
		WorkItemID:         workItemID,
		Status:             ExecPending,
		ProgressPercentage: 0,
		StartTime:          time.Now().UTC().Truncate(time.Second),
		ExecutionMode:      ModeSequential,
		AgentContext:       map[string]any{"agent": "claude"},
	}
}

func TestExecutionLogCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	w := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, w))

	rec := newExecRecord(w.ID)
	require.NoError(t, f.Execution.Create(ctx, rec))

	got, err := f.Execution.Get(ctx, rec.ExecutionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, rec.Status, got.Status)
	require.Equal(t, rec.ExecutionMode, got.ExecutionMode)
	require.Equal(t, "claude", got.AgentContext["agent"])
	require.WithinDuration(t, rec.StartTime, got.StartTime, time.Second)
}

func TestExecutionLogGetMissingReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	got, err := f.Execution.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestExecutionLogReplaceUpdatesStatusAndEndTime(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	w := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, w))

	rec := newExecRecord(w.ID)
	require.NoError(t, f.Execution.Create(ctx, rec))

	end := time.Now().UTC().Truncate(time.Second)
	rec.Status = ExecCompleted
	rec.ProgressPercentage = 100
	rec.EndTime = &end
	require.NoError(t, f.Execution.Replace(ctx, rec))

	got, err := f.Execution.Get(ctx, rec.ExecutionID)
	require.NoError(t, err)
	require.Equal(t, ExecCompleted, got.Status)
	require.Equal(t, 100.0, got.ProgressPercentage)
	require.NotNil(t, got.EndTime)
	require.WithinDuration(t, end, *got.EndTime, time.Second)
}

func TestExecutionLogReplaceSetsErrorMessage(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	w := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, w))

	rec := newExecRecord(w.ID)
	require.NoError(t, f.Execution.Create(ctx, rec))

	msg := "agent crashed"
	rec.Status = ExecFailed
	rec.ErrorMessage = &msg
	require.NoError(t, f.Execution.Replace(ctx, rec))

	got, err := f.Execution.Get(ctx, rec.ExecutionID)
	require.NoError(t, err)
	require.NotNil(t, got.ErrorMessage)
	require.Equal(t, msg, *got.ErrorMessage)
}

func TestExecutionLogListForWorkItemOrdersByStartTimeDesc(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	w := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, w))

	older := newExecRecord(w.ID)
	older.StartTime = time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, f.Execution.Create(ctx, older))

	newer := newExecRecord(w.ID)
	newer.StartTime = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, f.Execution.Create(ctx, newer))

	other := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, other))
	unrelated := newExecRecord(other.ID)
	require.NoError(t, f.Execution.Create(ctx, unrelated))

	results, err := f.Execution.ListForWorkItem(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, newer.ExecutionID, results[0].ExecutionID)
	require.Equal(t, older.ExecutionID, results[1].ExecutionID)
}
