package execution

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jivemcp/jive/internal/dependency"
	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

func newTestTracker(t *testing.T) (*Tracker, *store.Facade) {
	t.Helper()
	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f := store.NewFacade(db, store.NewHashEmbedder())
	return New(f.Execution, dependency.New(f.WorkItems)), f
}

func TestStartCreatesPendingRecord(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))

	rec, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)
	require.Equal(t, store.ExecPending, rec.Status)
	require.Equal(t, store.ModeSequential, rec.ExecutionMode)
}

func TestStartRefusesOnCyclicDependencies(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	a := workitem.New(workitem.TypeTask, "A", "desc")
	b := workitem.New(workitem.TypeTask, "B", "desc")
	a.Dependencies = []uuid.UUID{b.ID}
	b.Dependencies = []uuid.UUID{a.ID}
	require.NoError(t, f.WorkItems.Create(ctx, a))
	require.NoError(t, f.WorkItems.Create(ctx, b))

	_, err := tr.Start(ctx, a.ID, StartOptions{})
	require.Error(t, err)
}

func TestStartSkipsPreflightWhenRequested(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	a := workitem.New(workitem.TypeTask, "A", "desc")
	b := workitem.New(workitem.TypeTask, "B", "desc")
	a.Dependencies = []uuid.UUID{b.ID}
	b.Dependencies = []uuid.UUID{a.ID}
	require.NoError(t, f.WorkItems.Create(ctx, a))
	require.NoError(t, f.WorkItems.Create(ctx, b))

	rec, err := tr.Start(ctx, a.ID, StartOptions{SkipPreflight: true})
	require.NoError(t, err)
	require.Equal(t, store.ExecPending, rec.Status)
}

func TestRunThenCompleteTransition(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))
	rec, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)

	running, err := tr.Run(ctx, rec.ExecutionID)
	require.NoError(t, err)
	require.Equal(t, store.ExecRunning, running.Status)

	completed, err := tr.Complete(ctx, rec.ExecutionID)
	require.NoError(t, err)
	require.Equal(t, store.ExecCompleted, completed.Status)
	require.Equal(t, 100.0, completed.ProgressPercentage)
	require.NotNil(t, completed.EndTime)
}

func TestCompleteFromPendingIsRejected(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))
	rec, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)

	_, err = tr.Complete(ctx, rec.ExecutionID)
	require.Error(t, err)
}

func TestFailRecordsReason(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))
	rec, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)
	_, err = tr.Run(ctx, rec.ExecutionID)
	require.NoError(t, err)

	failed, err := tr.Fail(ctx, rec.ExecutionID, "agent crashed")
	require.NoError(t, err)
	require.Equal(t, store.ExecFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	require.Equal(t, "agent crashed", *failed.ErrorMessage)
}

func TestUpdateProgressOnlyWhileRunning(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))
	rec, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)

	_, err = tr.UpdateProgress(ctx, rec.ExecutionID, 40)
	require.Error(t, err)

	_, err = tr.Run(ctx, rec.ExecutionID)
	require.NoError(t, err)
	updated, err := tr.UpdateProgress(ctx, rec.ExecutionID, 40)
	require.NoError(t, err)
	require.Equal(t, 40.0, updated.ProgressPercentage)
}

func TestCancelFromRunning(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))
	rec, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)
	_, err = tr.Run(ctx, rec.ExecutionID)
	require.NoError(t, err)

	cancelled, err := tr.Cancel(ctx, rec.ExecutionID, "user aborted", false)
	require.NoError(t, err)
	require.Equal(t, store.ExecCancelled, cancelled.Status)
}

func TestCancelTerminalExecutionRefusedWithoutForce(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))
	rec, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)
	_, err = tr.Run(ctx, rec.ExecutionID)
	require.NoError(t, err)
	_, err = tr.Complete(ctx, rec.ExecutionID)
	require.NoError(t, err)

	_, err = tr.Cancel(ctx, rec.ExecutionID, "too late", false)
	require.Error(t, err)

	cancelled, err := tr.Cancel(ctx, rec.ExecutionID, "forced override", true)
	require.NoError(t, err)
	require.Equal(t, store.ExecCancelled, cancelled.Status)
}

func TestHistoryListsAllAttempts(t *testing.T) {
	ctx := context.Background()
	tr, f := newTestTracker(t)
	w := workitem.New(workitem.TypeTask, "Task", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, w))
	_, err := tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)
	_, err = tr.Start(ctx, w.ID, StartOptions{})
	require.NoError(t, err)

	history, err := tr.History(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestStatusReturnsNilForMissingExecution(t *testing.T) {
	ctx := context.Background()
	tr, _ := newTestTracker(t)
	rec, err := tr.Status(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, rec)
}
