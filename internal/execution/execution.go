// Package execution implements the execution tracker (spec.md §4.6 /
// C6): a monotonic state machine per execution record
// (pending → running → {completed, failed, cancelled}), grounded on
// the teacher's AgentRun / AddActiveRun / CompleteRun flow.
package execution

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/dependency"
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/store"
)

// allowedTransitions enumerates every legal state move. Terminal
// states have no outgoing entries: they never re-enter a
// non-terminal state.
var allowedTransitions = map[store.ExecutionStatus][]store.ExecutionStatus{
	store.ExecPending: {store.ExecRunning, store.ExecCancelled},
	store.ExecRunning: {store.ExecCompleted, store.ExecFailed, store.ExecCancelled},
}

func canTransition(from, to store.ExecutionStatus) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Tracker manages execution-record lifecycle.
type Tracker struct {
	log  *store.ExecutionLog
	deps *dependency.Engine
}

// New constructs a Tracker.
func New(log *store.ExecutionLog, deps *dependency.Engine) *Tracker {
	return &Tracker{log: log, deps: deps}
}

// StartOptions configures Start.
type StartOptions struct {
	Mode            store.ExecutionMode
	AgentContext    map[string]any
	SkipPreflight   bool // opt out of the dependency validation preflight
}

// Start creates a new execution record in the pending state, running
// an optional dependency-validation preflight first (spec.md §4.6:
// "refuse to start if cycles/missing-deps are found, unless caller
// opts out").
func (t *Tracker) Start(ctx context.Context, workItemID uuid.UUID, opts StartOptions) (*store.ExecutionRecord, error) {
	if !opts.SkipPreflight && t.deps != nil {
		ids := []uuid.UUID{workItemID}
		deps, err := t.deps.GetDependencies(ctx, workItemID, true, false)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			ids = append(ids, d.ID)
		}
		result, err := t.deps.Validate(ctx, ids, true, true, false)
		if err != nil {
			return nil, err
		}
		if !result.IsValid {
			return nil, jiveerr.New(jiveerr.CodeCircularDep, "dependency validation failed preflight, refusing to start execution")
		}
	}

	rec := &store.ExecutionRecord{
		ExecutionID:        uuid.New(),
		WorkItemID:         workItemID,
		Status:             store.ExecPending,
		ProgressPercentage: 0,
		StartTime:          time.Now().UTC(),
		ExecutionMode:      opts.Mode,
		AgentContext:       opts.AgentContext,
	}
	if rec.ExecutionMode == "" {
		rec.ExecutionMode = store.ModeSequential
	}
	if err := t.log.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Run transitions an execution from pending to running.
func (t *Tracker) Run(ctx context.Context, executionID uuid.UUID) (*store.ExecutionRecord, error) {
	return t.transition(ctx, executionID, store.ExecRunning, nil, nil, false)
}

// Complete transitions an execution to completed, setting progress to
// 100 and stamping end_time.
func (t *Tracker) Complete(ctx context.Context, executionID uuid.UUID) (*store.ExecutionRecord, error) {
	full := 100.0
	return t.transition(ctx, executionID, store.ExecCompleted, &full, nil, false)
}

// Fail transitions an execution to failed, recording reason.
func (t *Tracker) Fail(ctx context.Context, executionID uuid.UUID, reason string) (*store.ExecutionRecord, error) {
	return t.transition(ctx, executionID, store.ExecFailed, nil, &reason, false)
}

// Cancel transitions an execution to cancelled. Permitted from pending
// or running; refuses an already-terminal execution unless force is
// set, in which case the terminal state is overwritten regardless of
// allowedTransitions (spec.md §4.6).
func (t *Tracker) Cancel(ctx context.Context, executionID uuid.UUID, reason string, force bool) (*store.ExecutionRecord, error) {
	return t.transition(ctx, executionID, store.ExecCancelled, nil, &reason, force)
}

// UpdateProgress sets the in-flight progress percentage of a running execution.
func (t *Tracker) UpdateProgress(ctx context.Context, executionID uuid.UUID, progress float64) (*store.ExecutionRecord, error) {
	rec, err := t.log.Get(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, jiveerr.NotFound(executionID.String(), nil)
	}
	if rec.Status != store.ExecRunning {
		return nil, jiveerr.New(jiveerr.CodeValidation, "progress may only be updated on a running execution")
	}
	rec.ProgressPercentage = progress
	if err := t.log.Replace(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Status returns the current record for an execution id.
func (t *Tracker) Status(ctx context.Context, executionID uuid.UUID) (*store.ExecutionRecord, error) {
	return t.log.Get(ctx, executionID)
}

// History lists every execution attempt recorded against a work item.
func (t *Tracker) History(ctx context.Context, workItemID uuid.UUID) ([]*store.ExecutionRecord, error) {
	return t.log.ListForWorkItem(ctx, workItemID)
}

func (t *Tracker) transition(ctx context.Context, executionID uuid.UUID, to store.ExecutionStatus, progress *float64, errMsg *string, force bool) (*store.ExecutionRecord, error) {
	rec, err := t.log.Get(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, jiveerr.NotFound(executionID.String(), nil)
	}
	if !canTransition(rec.Status, to) && !force {
		return nil, jiveerr.New(jiveerr.CodeValidation,
			"invalid execution state transition from "+string(rec.Status)+" to "+string(to))
	}

	rec.Status = to
	if progress != nil {
		rec.ProgressPercentage = *progress
	}
	if errMsg != nil {
		rec.ErrorMessage = errMsg
	}
	if to == store.ExecCompleted || to == store.ExecFailed || to == store.ExecCancelled {
		now := time.Now().UTC()
		rec.EndTime = &now
	}

	if err := t.log.Replace(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
