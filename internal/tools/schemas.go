package tools

import "encoding/json"

// rawSchema is a convenience for writing a JSON-Schema literal inline.
func rawSchema(s string) json.RawMessage { return json.RawMessage(s) }

var manageWorkItemSchema = rawSchema(`{
	"type": "object",
	"properties": {
		"action": {"type": "string", "enum": ["create", "update", "delete"]},
		"id": {"type": "string"},
		"type": {"type": "string", "enum": ["initiative", "epic", "feature", "story", "task"]},
		"title": {"type": "string"},
		"description": {"type": "string"},
		"status": {"type": "string"},
		"priority": {"type": "string"},
		"parent_id": {"type": "string"},
		"dependencies": {"type": "array", "items": {"type": "string"}},
		"acceptance_criteria": {"type": "array", "items": {"type": "string"}},
		"tags": {"type": "array", "items": {"type": "string"}},
		"context_tags": {"type": "array", "items": {"type": "string"}},
		"complexity": {"type": "string"},
		"effort_estimate": {"type": "number"},
		"actual_hours": {"type": "number"},
		"assignee": {"type": "string"},
		"reporter": {"type": "string"},
		"progress_percentage": {"type": "number"},
		"cascade": {"type": "boolean"}
	},
	"required": ["action"]
}`)

var getWorkItemSchema = rawSchema(`{
	"type": "object",
	"properties": {
		"id": {"type": "string"},
		"type": {"type": "string"},
		"status": {"type": "string"},
		"priority": {"type": "string"},
		"assignee": {"type": "string"},
		"parent_id": {"type": "string"},
		"limit": {"type": "number"},
		"offset": {"type": "number"},
		"sort_by": {"type": "string"},
		"sort_order": {"type": "string", "enum": ["asc", "desc"]}
	}
}`)

var searchContentSchema = rawSchema(`{
	"type": "object",
	"properties": {
		"query": {"type": "string"},
		"type": {"type": "string", "enum": ["semantic", "keyword", "hybrid"]},
		"namespace": {"type": "string", "enum": ["work_items", "architecture", "troubleshoot"]},
		"limit": {"type": "number"}
	},
	"required": ["query"]
}`)

var getHierarchySchema = rawSchema(`{
	"type": "object",
	"properties": {
		"action": {"type": "string", "enum": ["children", "ancestors", "descendants", "roots", "full_hierarchy", "dependencies"]},
		"id": {"type": "string"},
		"type": {"type": "string"},
		"transitive": {"type": "boolean"},
		"only_blocking": {"type": "boolean"}
	},
	"required": ["action"]
}`)

var executeWorkItemSchema = rawSchema(`{
	"type": "object",
	"properties": {
		"action": {"type": "string", "enum": ["start", "status", "cancel", "history"]},
		"id": {"type": "string"},
		"execution_id": {"type": "string"},
		"mode": {"type": "string", "enum": ["sequential", "parallel", "dependency_based"]},
		"agent_context": {"type": "object"},
		"skip_preflight": {"type": "boolean"},
		"reason": {"type": "string"},
		"force": {"type": "boolean"}
	},
	"required": ["action"]
}`)

var trackProgressSchema = rawSchema(`{
	"type": "object",
	"properties": {
		"action": {"type": "string", "enum": ["track", "recalculate", "get_report"]},
		"id": {"type": "string"},
		"progress_percentage": {"type": "number"},
		"status": {"type": "string"},
		"propagate": {"type": "boolean"}
	},
	"required": ["action"]
}`)

var syncDataSchema = rawSchema(`{
	"type": "object",
	"properties": {
		"action": {"type": "string", "enum": ["export", "import", "status"]},
		"namespace": {"type": "string", "enum": ["architecture", "troubleshoot"]},
		"dir": {"type": "string"},
		"slug": {"type": "string"},
		"mode": {"type": "string", "enum": ["create_only", "update_only", "create_or_update", "replace"]}
	},
	"required": ["action"]
}`)

var memoryToolSchema = rawSchema(`{
	"type": "object",
	"properties": {
		"namespace": {"type": "string", "enum": ["architecture", "troubleshoot"]},
		"action": {"type": "string", "enum": ["create", "get", "update", "delete", "list", "search", "match", "get_solution", "build_context"]},
		"slug": {"type": "string"},
		"title": {"type": "string"},
		"requirements": {"type": "string"},
		"when_to_use": {"type": "array", "items": {"type": "string"}},
		"use_case": {"type": "array", "items": {"type": "string"}},
		"solutions": {"type": "string"},
		"keywords": {"type": "array", "items": {"type": "string"}},
		"tags": {"type": "array", "items": {"type": "string"}},
		"children_slugs": {"type": "array", "items": {"type": "string"}},
		"related_slugs": {"type": "array", "items": {"type": "string"}},
		"linked_epic_ids": {"type": "array", "items": {"type": "string"}},
		"query": {"type": "string"},
		"problem": {"type": "string"},
		"limit": {"type": "number"},
		"min_relevance": {"type": "number"},
		"min_overlap": {"type": "number"},
		"boost_by_success_rate": {"type": "boolean"},
		"mark_as_used": {"type": "boolean"},
		"success": {"type": "boolean"},
		"token_budget": {"type": "number"}
	},
	"required": ["namespace", "action"]
}`)
