package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ExecutionStatus is the lifecycle state of an execution record (spec.md §4.6).
type ExecutionStatus string

const (
	ExecPending   ExecutionStatus = "pending"
	ExecRunning   ExecutionStatus = "running"
	ExecCompleted ExecutionStatus = "completed"
	ExecFailed    ExecutionStatus = "failed"
	ExecCancelled ExecutionStatus = "cancelled"
)

// ExecutionMode is how a run schedules dependent work items.
type ExecutionMode string

const (
	ModeSequential      ExecutionMode = "sequential"
	ModeParallel        ExecutionMode = "parallel"
	ModeDependencyBased ExecutionMode = "dependency_based"
)

// ExecutionRecord is one execution attempt (spec.md §3).
type ExecutionRecord struct {
	ExecutionID        uuid.UUID       `json:"execution_id"`
	WorkItemID         uuid.UUID       `json:"work_item_id"`
	Status             ExecutionStatus `json:"status"`
	ProgressPercentage float64         `json:"progress_percentage"`
	StartTime          time.Time       `json:"start_time"`
	EndTime            *time.Time      `json:"end_time,omitempty"`
	ErrorMessage       *string         `json:"error_message,omitempty"`
	ExecutionMode      ExecutionMode   `json:"execution_mode"`
	AgentContext       map[string]any  `json:"agent_context,omitempty"`
}

// ExecutionLog is the C1 table accessor for execution records.
type ExecutionLog struct {
	db *DB
}

func NewExecutionLog(db *DB) *ExecutionLog {
	return &ExecutionLog{db: db}
}

func (l *ExecutionLog) Create(ctx context.Context, rec *ExecutionRecord) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO execution_log (
			execution_id, work_item_id, status, progress_percentage, start_time,
			end_time, error_message, execution_mode, agent_context
		) VALUES (?,?,?,?,?,?,?,?,?)
	`, rec.ExecutionID.String(), rec.WorkItemID.String(), string(rec.Status), rec.ProgressPercentage,
		rec.StartTime.Format(time.RFC3339), nullableTime(rec.EndTime), nullableString(rec.ErrorMessage),
		string(rec.ExecutionMode), marshal(rec.AgentContext))
	return storageErr(err)
}

func (l *ExecutionLog) Get(ctx context.Context, id uuid.UUID) (*ExecutionRecord, error) {
	row := l.db.QueryRowContext(ctx, selectExecutionSQL+" WHERE execution_id = ?", id.String())
	rec, err := scanExecution(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return rec, nil
}

// Replace overwrites the stored record, continuing the teacher's
// CompleteRun replace-in-place idiom (kanban/state.go) rather than a
// partial column UPDATE, since execution records are append-mostly.
func (l *ExecutionLog) Replace(ctx context.Context, rec *ExecutionRecord) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE execution_log SET
			status=?, progress_percentage=?, end_time=?, error_message=?, agent_context=?
		WHERE execution_id=?
	`, string(rec.Status), rec.ProgressPercentage, nullableTime(rec.EndTime), nullableString(rec.ErrorMessage),
		marshal(rec.AgentContext), rec.ExecutionID.String())
	return storageErr(err)
}

func (l *ExecutionLog) ListForWorkItem(ctx context.Context, workItemID uuid.UUID) ([]*ExecutionRecord, error) {
	rows, err := l.db.QueryContext(ctx, selectExecutionSQL+" WHERE work_item_id = ? ORDER BY start_time DESC", workItemID.String())
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	var out []*ExecutionRecord
	for rows.Next() {
		rec, err := scanExecution(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, rec)
	}
	return out, nil
}

const selectExecutionSQL = `
SELECT execution_id, work_item_id, status, progress_percentage, start_time,
	end_time, error_message, execution_mode, agent_context
FROM execution_log`

func scanExecution(row rowScanner) (*ExecutionRecord, error) {
	var (
		execID, workItemID, status, mode, agentContext string
		progress                                        float64
		startTime                                       string
		endTime, errMsg                                 sql.NullString
	)
	if err := row.Scan(&execID, &workItemID, &status, &progress, &startTime, &endTime, &errMsg, &mode, &agentContext); err != nil {
		return nil, err
	}
	rec := &ExecutionRecord{
		ExecutionID:        uuid.MustParse(execID),
		WorkItemID:         uuid.MustParse(workItemID),
		Status:             ExecutionStatus(status),
		ProgressPercentage: progress,
		ExecutionMode:      ExecutionMode(mode),
	}
	rec.StartTime, _ = time.Parse(time.RFC3339, startTime)
	if endTime.Valid {
		t, _ := time.Parse(time.RFC3339, endTime.String)
		rec.EndTime = &t
	}
	if errMsg.Valid {
		rec.ErrorMessage = &errMsg.String
	}
	_ = json.Unmarshal([]byte(agentContext), &rec.AgentContext)
	return rec, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}
