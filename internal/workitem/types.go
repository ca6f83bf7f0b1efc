// Package workitem defines the core WorkItem entity and its typed
// hierarchy (Initiative → Epic → Feature → Story → Task), continuing
// the teacher's kanban.Ticket shape (status, priority, parent, history)
// generalized to spec.md §3's data model.
package workitem

import (
	"time"

	"github.com/google/uuid"
)

// Type is one node kind in the Initiative→Epic→Feature→Story→Task tree.
type Type string

const (
	TypeInitiative Type = "initiative"
	TypeEpic       Type = "epic"
	TypeFeature    Type = "feature"
	TypeStory      Type = "story"
	TypeTask       Type = "task"
)

// Valid reports whether t is a known work item type.
func (t Type) Valid() bool {
	switch t {
	case TypeInitiative, TypeEpic, TypeFeature, TypeStory, TypeTask:
		return true
	}
	return false
}

// Status is the lifecycle state of a work item. Backlog/Done are
// accepted as aliases for NotStarted/Completed on input and normalized
// on write.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusBlocked    Status = "blocked"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Normalize maps legacy aliases ("backlog", "done") onto their
// canonical status.
func Normalize(s Status) Status {
	switch s {
	case "backlog":
		return StatusNotStarted
	case "done":
		return StatusCompleted
	default:
		return s
	}
}

// Valid reports whether s (after Normalize) is a known status.
func (s Status) Valid() bool {
	switch Normalize(s) {
	case StatusNotStarted, StatusInProgress, StatusBlocked, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is a terminal status (no further work
// expected without explicit reopening).
func (s Status) Terminal() bool {
	switch Normalize(s) {
	case StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Priority ranks urgency, high to low used for dependency tie-breaks.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank returns a descending-sort weight: higher means more urgent.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Complexity is an optional sizing hint.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// WorkItem is the core hierarchy entity (spec.md §3).
type WorkItem struct {
	ID          uuid.UUID `json:"id"`
	Type        Type      `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`

	ParentID *uuid.UUID  `json:"parent_id,omitempty"`
	Dependencies []uuid.UUID `json:"dependencies,omitempty"`

	ProgressPercentage float64 `json:"progress_percentage"`

	AcceptanceCriteria []string `json:"acceptance_criteria,omitempty"`
	Tags               []string `json:"tags,omitempty"`
	ContextTags        []string `json:"context_tags,omitempty"`

	Complexity     Complexity `json:"complexity,omitempty"`
	EffortEstimate *float64   `json:"effort_estimate,omitempty"`
	ActualHours    *float64   `json:"actual_hours,omitempty"`

	Assignee *string `json:"assignee,omitempty"`
	Reporter *string `json:"reporter,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Metadata map[string]any `json:"metadata,omitempty"`

	// Vector is derived (title + " " + description embedding), never
	// accepted from a caller. Excluded from external responses by the
	// store-to-envelope conversion in internal/tools.
	Vector []float32 `json:"-"`
}

// EmbeddingSource is the text embedded to produce WorkItem.Vector.
func (w *WorkItem) EmbeddingSource() string {
	return w.Title + " " + w.Description
}

// New constructs a WorkItem with a fresh id and created/updated
// timestamps, applying status/progress defaults (spec.md §3 invariant:
// progress 100 iff completed, 0 iff not_started/cancelled).
func New(t Type, title, description string) *WorkItem {
	now := time.Now().UTC()
	w := &WorkItem{
		ID:          uuid.New(),
		Type:        t,
		Title:       title,
		Description: description,
		Status:      StatusNotStarted,
		Priority:    PriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return w
}

// AllowedParents maps a child type to the set of parent types it may
// attach to (spec.md §4.3). Initiative maps to an empty set: it must be
// root.
var AllowedParents = map[Type][]Type{
	TypeInitiative: {},
	TypeEpic:       {TypeInitiative},
	TypeFeature:    {TypeEpic},
	TypeStory:      {TypeFeature},
	TypeTask:       {TypeStory},
}

// AllowsParent reports whether parent may be the parent of child.
func AllowsParent(child, parent Type) bool {
	for _, allowed := range AllowedParents[child] {
		if allowed == parent {
			return true
		}
	}
	return false
}
