// Package progress implements the unified progress calculator
// (spec.md §4.4 / C4): leaf items derive progress from status unless
// an explicit value is stored, parent items always recompute from
// their children, and updates propagate upward through the hierarchy.
// Grounded on original_source/src/mcp_jive/services/progress_calculator.py.
package progress

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/hierarchy"
	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

// statusProgress is the unified status-to-progress mapping the
// original service uses for leaf items.
var statusProgress = map[workitem.Status]float64{
	workitem.StatusCompleted:  100.0,
	workitem.StatusInProgress: 50.0,
	workitem.StatusBlocked:    25.0,
	workitem.StatusNotStarted: 0.0,
	workitem.StatusCancelled:  0.0,
}

// Calculator computes and propagates work-item progress.
type Calculator struct {
	items     *store.WorkItems
	hierarchy *hierarchy.Engine
}

// New constructs a Calculator.
func New(items *store.WorkItems, h *hierarchy.Engine) *Calculator {
	return &Calculator{items: items, hierarchy: h}
}

// Calculate returns the progress percentage for a single work item:
// a leaf prefers its explicitly stored value, falling back to the
// status mapping; a parent always recomputes from its children and
// ignores any explicitly stored value of its own.
func (c *Calculator) Calculate(ctx context.Context, id uuid.UUID) (float64, error) {
	item, err := c.items.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	if item == nil {
		return 0, nil
	}
	children, err := c.hierarchy.Children(ctx, id)
	if err != nil {
		return 0, err
	}
	if len(children) == 0 {
		return leafProgress(item), nil
	}
	return c.parentProgress(ctx, children)
}

func leafProgress(item *workitem.WorkItem) float64 {
	if item.ProgressPercentage != 0 {
		return item.ProgressPercentage
	}
	return statusProgress[workitem.Normalize(item.Status)]
}

// parentProgress averages each child's progress: leaves use
// leafProgress (stored value when non-zero, else the status mapping),
// while child parents use their own stored progress when present, else
// recurse.
func (c *Calculator) parentProgress(ctx context.Context, children []*workitem.WorkItem) (float64, error) {
	if len(children) == 0 {
		return 0, nil
	}
	var total float64
	for _, child := range children {
		grandchildren, err := c.hierarchy.Children(ctx, child.ID)
		if err != nil {
			return 0, err
		}
		var childProgress float64
		if len(grandchildren) == 0 {
			childProgress = leafProgress(child)
		} else if child.ProgressPercentage != 0 {
			childProgress = child.ProgressPercentage
		} else {
			childProgress, err = c.parentProgress(ctx, grandchildren)
			if err != nil {
				return 0, err
			}
		}
		total += childProgress
	}
	return total / float64(len(children)), nil
}

// UpdateResult reports the outcome of Update.
type UpdateResult struct {
	WorkItemID     uuid.UUID
	AffectedItems  []uuid.UUID
}

// Update applies an explicit progress and/or status change to a work
// item and, when propagate is true, recomputes and writes progress up
// through every ancestor (spec.md §4.4: "progress changes propagate
// to parent items").
func (c *Calculator) Update(ctx context.Context, id uuid.UUID, progressValue *float64, status *workitem.Status, propagate bool) (*UpdateResult, error) {
	item, err := c.items.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	patch := map[string]any{}
	if status != nil {
		norm := workitem.Normalize(*status)
		patch["status"] = string(norm)
		if progressValue == nil {
			switch norm {
			case workitem.StatusCompleted:
				patch["progress_percentage"] = 100.0
			case workitem.StatusNotStarted:
				patch["progress_percentage"] = 0.0
			case workitem.StatusInProgress:
				if item.ProgressPercentage == 0 || item.ProgressPercentage >= 100 {
					patch["progress_percentage"] = 50.0
				}
			case workitem.StatusBlocked:
				if item.ProgressPercentage == 0 || item.ProgressPercentage >= 100 {
					patch["progress_percentage"] = 25.0
				}
			case workitem.StatusCancelled:
				patch["progress_percentage"] = 0.0
			}
		}
	}
	if progressValue != nil {
		clamped := math.Max(0.0, math.Min(100.0, *progressValue))
		patch["progress_percentage"] = clamped
		if status == nil {
			switch {
			case clamped >= 100.0:
				patch["status"] = string(workitem.StatusCompleted)
			case clamped > 0.0:
				patch["status"] = string(workitem.StatusInProgress)
			default:
				patch["status"] = string(workitem.StatusNotStarted)
			}
		}
	}

	affected := []uuid.UUID{id}
	if len(patch) > 0 {
		if _, err := c.items.Update(ctx, id, patch); err != nil {
			return nil, err
		}
	}

	if propagate {
		parents, err := c.propagateToParents(ctx, id)
		if err != nil {
			return nil, err
		}
		affected = append(affected, parents...)
	}

	return &UpdateResult{WorkItemID: id, AffectedItems: affected}, nil
}

// propagateToParents recomputes the progress of id's parent and walks
// upward, recursing to grandparents, matching the original's
// _propagate_progress_to_parents.
func (c *Calculator) propagateToParents(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	item, err := c.items.Get(ctx, id)
	if err != nil || item == nil || item.ParentID == nil {
		return nil, err
	}
	parentID := *item.ParentID

	children, err := c.hierarchy.Children(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	newProgress, err := c.parentProgress(ctx, children)
	if err != nil {
		return nil, err
	}

	patch := map[string]any{
		"progress_percentage": newProgress,
		"updated_at":          time.Now().UTC(),
	}

	allCompleted := true
	anyInProgress := false
	for _, child := range children {
		norm := workitem.Normalize(child.Status)
		if norm != workitem.StatusCompleted {
			allCompleted = false
		}
		if norm == workitem.StatusInProgress {
			anyInProgress = true
		}
	}

	parent, err := c.items.Get(ctx, parentID)
	if err != nil {
		return nil, err
	}

	switch {
	case allCompleted && newProgress >= 100.0:
		patch["status"] = string(workitem.StatusCompleted)
	case anyInProgress || newProgress > 0.0:
		if parent != nil && workitem.Normalize(parent.Status) != workitem.StatusCompleted {
			patch["status"] = string(workitem.StatusInProgress)
		}
	}

	if _, err := c.items.Update(ctx, parentID, patch); err != nil {
		return nil, err
	}

	updated := []uuid.UUID{parentID}
	grandparents, err := c.propagateToParents(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return append(updated, grandparents...), nil
}

// RecalculateSubtree recomputes progress bottom-up for id and every
// descendant, writing only items whose value actually changed, and
// returns the ids that were updated.
func (c *Calculator) RecalculateSubtree(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	children, err := c.hierarchy.Children(ctx, id)
	if err != nil {
		return nil, err
	}

	var updated []uuid.UUID
	for _, child := range children {
		childUpdates, err := c.RecalculateSubtree(ctx, child.ID)
		if err != nil {
			return nil, err
		}
		updated = append(updated, childUpdates...)
	}

	newProgress, err := c.Calculate(ctx, id)
	if err != nil {
		return nil, err
	}
	item, err := c.items.Get(ctx, id)
	if err != nil || item == nil {
		return updated, err
	}

	if math.Abs(newProgress-item.ProgressPercentage) > 0.01 {
		if _, err := c.items.Update(ctx, id, map[string]any{
			"progress_percentage": newProgress,
			"updated_at":           time.Now().UTC(),
		}); err != nil {
			return nil, err
		}
		updated = append(updated, id)
	}

	return updated, nil
}

// RecalculateAll recalculates every root hierarchy in the store.
func (c *Calculator) RecalculateAll(ctx context.Context) ([]uuid.UUID, error) {
	roots, err := c.hierarchy.Roots(ctx, nil)
	if err != nil {
		return nil, err
	}
	var updated []uuid.UUID
	for _, root := range roots {
		subtreeUpdates, err := c.RecalculateSubtree(ctx, root.ID)
		if err != nil {
			return nil, err
		}
		updated = append(updated, subtreeUpdates...)
	}
	return updated, nil
}
