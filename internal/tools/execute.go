package tools

import (
	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/execution"
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/store"
)

func executionSummary(rec *store.ExecutionRecord) map[string]any {
	m := map[string]any{
		"execution_id":        rec.ExecutionID.String(),
		"work_item_id":        rec.WorkItemID.String(),
		"status":              string(rec.Status),
		"progress_percentage": rec.ProgressPercentage,
		"start_time":          rec.StartTime,
		"execution_mode":      string(rec.ExecutionMode),
	}
	if rec.EndTime != nil {
		m["end_time"] = *rec.EndTime
	}
	if rec.ErrorMessage != nil {
		m["error_message"] = *rec.ErrorMessage
	}
	if len(rec.AgentContext) > 0 {
		m["agent_context"] = rec.AgentContext
	}
	return m
}

// ExecuteWorkItem implements jive_execute_work_item: start, status,
// cancel, or history over the execution tracker (spec.md §4.6, §6).
func (c *Components) ExecuteWorkItem(ctx *mcp.CallContext, args map[string]any) (any, error) {
	action, err := argString(args, "action")
	if err != nil {
		return nil, err
	}

	switch action {
	case "start":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		mode := store.ExecutionMode(optString(args, "mode"))
		agentContext, _ := args["agent_context"].(map[string]any)
		rec, err := c.Execution.Start(ctx, id, execution.StartOptions{
			Mode:          mode,
			AgentContext:  agentContext,
			SkipPreflight: optBool(args, "skip_preflight", false),
		})
		if err != nil {
			return nil, err
		}
		return executionSummary(rec), nil

	case "status":
		execID, err := parseExecutionID(args)
		if err != nil {
			return nil, err
		}
		rec, err := c.Execution.Status(ctx, execID)
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return nil, jiveerr.NotFound(execID.String(), nil)
		}
		return executionSummary(rec), nil

	case "cancel":
		execID, err := parseExecutionID(args)
		if err != nil {
			return nil, err
		}
		rec, err := c.Execution.Cancel(ctx, execID, optString(args, "reason"), optBool(args, "force", false))
		if err != nil {
			return nil, err
		}
		return executionSummary(rec), nil

	case "history":
		id, err := c.resolveID(ctx, args, "id")
		if err != nil {
			return nil, err
		}
		records, err := c.Execution.History(ctx, id)
		if err != nil {
			return nil, err
		}
		out := make([]map[string]any, len(records))
		for i, r := range records {
			out[i] = executionSummary(r)
		}
		return map[string]any{"history": out}, nil

	default:
		return nil, jiveerr.Validation("action", action, "start|status|cancel|history", "unknown action")
	}
}

func parseExecutionID(args map[string]any) (uuid.UUID, error) {
	raw, err := argString(args, "execution_id")
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, jiveerr.Validation("execution_id", raw, "uuid", "not a valid uuid")
	}
	return id, nil
}
