package hierarchy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

func newTestEngine(t *testing.T) (*Engine, *store.Facade) {
	t.Helper()
	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f := store.NewFacade(db, store.NewHashEmbedder())
	return New(f.WorkItems), f
}

func TestValidateParentAllowsAdjacentLevel(t *testing.T) {
	require.NoError(t, ValidateParent(workitem.TypeTask, workitem.TypeStory))
}

func TestValidateParentRejectsSkippedLevel(t *testing.T) {
	err := ValidateParent(workitem.TypeTask, workitem.TypeFeature)
	require.Error(t, err)
}

func TestChildrenReturnsOnlyDirectChildren(t *testing.T) {
	ctx := context.Background()
	e, f := newTestEngine(t)
	parent := workitem.New(workitem.TypeFeature, "Feature", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, parent))
	child := workitem.New(workitem.TypeStory, "Story", "desc")
	child.ParentID = &parent.ID
	require.NoError(t, f.WorkItems.Create(ctx, child))
	grandchild := workitem.New(workitem.TypeTask, "Grandchild", "desc")
	grandchild.ParentID = &child.ID
	require.NoError(t, f.WorkItems.Create(ctx, grandchild))

	kids, err := e.Children(ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	require.Equal(t, child.ID, kids[0].ID)
}

func TestAncestorsWalksNearestFirst(t *testing.T) {
	ctx := context.Background()
	e, f := newTestEngine(t)

	initiative := workitem.New(workitem.TypeInitiative, "Initiative", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, initiative))
	epic := workitem.New(workitem.TypeEpic, "Epic", "desc")
	epic.ParentID = &initiative.ID
	require.NoError(t, f.WorkItems.Create(ctx, epic))
	feature := workitem.New(workitem.TypeFeature, "Feature", "desc")
	feature.ParentID = &epic.ID
	require.NoError(t, f.WorkItems.Create(ctx, feature))

	ancestors, err := e.Ancestors(ctx, feature.ID)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
	require.Equal(t, epic.ID, ancestors[0].ID)
	require.Equal(t, initiative.ID, ancestors[1].ID)
}

func TestAncestorsOfRootIsEmpty(t *testing.T) {
	ctx := context.Background()
	e, f := newTestEngine(t)
	root := workitem.New(workitem.TypeInitiative, "Root", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, root))

	ancestors, err := e.Ancestors(ctx, root.ID)
	require.NoError(t, err)
	require.Empty(t, ancestors)
}

func TestDescendantsReturnsFullSubtree(t *testing.T) {
	ctx := context.Background()
	e, f := newTestEngine(t)
	story := workitem.New(workitem.TypeStory, "Story", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, story))
	taskA := workitem.New(workitem.TypeTask, "Task A", "desc")
	taskA.ParentID = &story.ID
	require.NoError(t, f.WorkItems.Create(ctx, taskA))
	taskB := workitem.New(workitem.TypeTask, "Task B", "desc")
	taskB.ParentID = &story.ID
	require.NoError(t, f.WorkItems.Create(ctx, taskB))

	descendants, err := e.Descendants(ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, descendants, 2)
}

func TestRootsFiltersOutItemsWithParents(t *testing.T) {
	ctx := context.Background()
	e, f := newTestEngine(t)
	root := workitem.New(workitem.TypeInitiative, "Root", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, root))
	child := workitem.New(workitem.TypeEpic, "Child", "desc")
	child.ParentID = &root.ID
	require.NoError(t, f.WorkItems.Create(ctx, child))

	roots, err := e.Roots(ctx, nil)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, root.ID, roots[0].ID)
}

func TestRootsFiltersByType(t *testing.T) {
	ctx := context.Background()
	e, f := newTestEngine(t)
	initiative := workitem.New(workitem.TypeInitiative, "Initiative", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, initiative))
	epic := workitem.New(workitem.TypeEpic, "Lone epic", "desc")
	require.NoError(t, f.WorkItems.Create(ctx, epic))

	epicType := workitem.TypeEpic
	roots, err := e.Roots(ctx, &epicType)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Equal(t, epic.ID, roots[0].ID)
}
