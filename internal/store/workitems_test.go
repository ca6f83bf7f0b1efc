package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jivemcp/jive/internal/workitem"
)

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFacade(db, NewHashEmbedder())
}

func TestWorkItemsCreateGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)

	w := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, w))

	got, err := f.WorkItems.Get(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, w.Title, got.Title)
	require.Len(t, got.Vector, EmbeddingDimension)
}

func TestWorkItemsCreateDuplicateConflicts(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	w := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, w))

	err := f.WorkItems.Create(ctx, w)
	require.Error(t, err)
}

func TestWorkItemsGetMissingReturnsNilNil(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	got, err := f.WorkItems.Get(ctx, uuid.New())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestWorkItemsUpdateMergesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	w := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, w))

	updated, err := f.WorkItems.Update(ctx, w.ID, map[string]any{"status": "in_progress"})
	require.NoError(t, err)
	require.Equal(t, "in_progress", string(updated.Status))
	require.Equal(t, w.Title, updated.Title)
}

func TestWorkItemsUpdateParentIDAcceptsBareUUID(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	parent := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, parent))
	child := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, child))

	updated, err := f.WorkItems.Update(ctx, child.ID, map[string]any{"parent_id": parent.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.ParentID)
	require.Equal(t, parent.ID, *updated.ParentID)
}

func TestWorkItemsUpdateMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	_, err := f.WorkItems.Update(ctx, uuid.New(), map[string]any{"status": "in_progress"})
	require.Error(t, err)
}

func TestWorkItemsDeleteCascade(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	parent := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, parent))
	child := newWI()
	child.ParentID = &parent.ID
	require.NoError(t, f.WorkItems.Create(ctx, child))

	require.NoError(t, f.WorkItems.Delete(ctx, parent.ID, true))

	gotParent, _ := f.WorkItems.Get(ctx, parent.ID)
	gotChild, _ := f.WorkItems.Get(ctx, child.ID)
	require.Nil(t, gotParent)
	require.Nil(t, gotChild)
}

func TestWorkItemsListFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	a := newWI()
	a.Status = "in_progress"
	require.NoError(t, f.WorkItems.Create(ctx, a))
	b := newWI()
	require.NoError(t, f.WorkItems.Create(ctx, b))

	results, err := f.WorkItems.List(ctx, ListOptions{Filter: Filter{"status": "in_progress"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, a.ID, results[0].ID)
}

func TestWorkItemsSearchKeywordMatchesTitle(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	w := newWI()
	w.Title = "Refactor billing module"
	require.NoError(t, f.WorkItems.Create(ctx, w))
	other := newWI()
	other.Title = "Unrelated ticket"
	require.NoError(t, f.WorkItems.Create(ctx, other))

	results, err := f.WorkItems.Search(ctx, "billing", Filter{}, ModeKeyword, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, w.ID, results[0].Item.ID)
}

func newWI() *workitem.WorkItem {
	return workitem.New(workitem.TypeTask, "Test item "+uuid.New().String()[:8], "a test description")
}
