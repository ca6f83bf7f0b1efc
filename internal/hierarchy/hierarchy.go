// Package hierarchy implements the hierarchy engine (spec.md §4.3 /
// C3): parent/child type validation, children/ancestor/root traversal.
// Generalizes the teacher's kanban/state.go GetTicketsByParent lookup
// into a recursive work-item tree walk.
package hierarchy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

// maxDepth bounds ancestor/descendant walks against a corrupt or
// cyclic parent chain (spec.md §4.3: "cap depth at 32").
const maxDepth = 32

// Engine answers hierarchy questions over the work-item store.
type Engine struct {
	items *store.WorkItems
}

// New constructs an Engine over the given WorkItems table.
func New(items *store.WorkItems) *Engine {
	return &Engine{items: items}
}

// ValidateParent checks that child may be attached under parent
// according to workitem.AllowedParents (spec.md §4.3 invariant:
// Initiative > Epic > Feature > Story > Task, no skipping levels).
func ValidateParent(child, parent workitem.Type) error {
	if !workitem.AllowsParent(child, parent) {
		return jiveerr.New(jiveerr.CodeInvalidHierarchy,
			fmt.Sprintf("a %s cannot be a child of a %s", child, parent))
	}
	return nil
}

// Children returns the immediate children of id, ordered by creation time.
func (e *Engine) Children(ctx context.Context, id uuid.UUID) ([]*workitem.WorkItem, error) {
	return e.items.List(ctx, store.ListOptions{
		Filter: store.Filter{"parent_id": id.String()},
		SortBy: "created_at",
		Limit:  10000,
	})
}

// Ancestors walks up the parent chain from id to the root, returning
// nearest-first. Stops after maxDepth hops to guard against a corrupt
// cycle rather than looping forever.
func (e *Engine) Ancestors(ctx context.Context, id uuid.UUID) ([]*workitem.WorkItem, error) {
	var out []*workitem.WorkItem
	current := id
	for i := 0; i < maxDepth; i++ {
		item, err := e.items.Get(ctx, current)
		if err != nil {
			return nil, err
		}
		if item == nil || item.ParentID == nil {
			return out, nil
		}
		parent, err := e.items.Get(ctx, *item.ParentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return out, nil
		}
		out = append(out, parent)
		current = parent.ID
	}
	return out, jiveerr.New(jiveerr.CodeInvalidHierarchy, "ancestor chain exceeds maximum depth, possible cycle")
}

// Descendants returns the full subtree rooted at id via breadth-first
// traversal, deepest items last.
func (e *Engine) Descendants(ctx context.Context, id uuid.UUID) ([]*workitem.WorkItem, error) {
	var out []*workitem.WorkItem
	frontier := []uuid.UUID{id}
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []uuid.UUID
		for _, parentID := range frontier {
			children, err := e.Children(ctx, parentID)
			if err != nil {
				return nil, err
			}
			for _, c := range children {
				out = append(out, c)
				next = append(next, c.ID)
			}
		}
		frontier = next
	}
	return out, nil
}

// Roots returns every work item with no parent, optionally filtered by type.
func (e *Engine) Roots(ctx context.Context, filterType *workitem.Type) ([]*workitem.WorkItem, error) {
	all, err := e.items.List(ctx, store.ListOptions{Limit: 100000})
	if err != nil {
		return nil, err
	}
	var out []*workitem.WorkItem
	for _, item := range all {
		if item.ParentID != nil {
			continue
		}
		if filterType != nil && item.Type != *filterType {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
