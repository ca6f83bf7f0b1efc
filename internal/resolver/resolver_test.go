package resolver

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

func newTestResolver(t *testing.T) (*Resolver, *store.Facade) {
	t.Helper()
	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f := store.NewFacade(db, store.NewHashEmbedder())
	return New(f.WorkItems), f
}

func TestResolveByUUID(t *testing.T) {
	ctx := context.Background()
	r, f := newTestResolver(t)
	w := workitem.New(workitem.TypeTask, "Ship the release", "cut v1.2")
	require.NoError(t, f.WorkItems.Create(ctx, w))

	result, err := r.Resolve(ctx, w.ID.String())
	require.NoError(t, err)
	require.NotNil(t, result.ID)
	require.Equal(t, w.ID, *result.ID)
}

func TestResolveByExactTitleCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	r, f := newTestResolver(t)
	w := workitem.New(workitem.TypeTask, "Ship the release", "cut v1.2")
	require.NoError(t, f.WorkItems.Create(ctx, w))

	result, err := r.Resolve(ctx, "SHIP THE RELEASE")
	require.NoError(t, err)
	require.NotNil(t, result.ID)
	require.Equal(t, w.ID, *result.ID)
}

func TestResolveByKeywordAllTokensMatch(t *testing.T) {
	ctx := context.Background()
	r, f := newTestResolver(t)
	w := workitem.New(workitem.TypeTask, "Refactor billing module", "clean up invoices")
	require.NoError(t, f.WorkItems.Create(ctx, w))

	result, err := r.Resolve(ctx, "billing invoices")
	require.NoError(t, err)
	require.NotNil(t, result.ID)
	require.Equal(t, w.ID, *result.ID)
}

func TestResolveMissReturnsCandidates(t *testing.T) {
	ctx := context.Background()
	r, f := newTestResolver(t)
	w := workitem.New(workitem.TypeTask, "Ship the release", "cut v1.2")
	require.NoError(t, f.WorkItems.Create(ctx, w))

	result, err := r.Resolve(ctx, "ship zzz")
	require.NoError(t, err)
	require.Nil(t, result.ID)
	require.Contains(t, result.Candidates, w.Title)
}

func TestResolveEmptyInputReturnsEmptyResult(t *testing.T) {
	r, _ := newTestResolver(t)
	result, err := r.Resolve(context.Background(), "   ")
	require.NoError(t, err)
	require.Nil(t, result.ID)
	require.Empty(t, result.Candidates)
}

func TestResolveUnknownUUIDFallsThroughToTitleSearch(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestResolver(t)
	result, err := r.Resolve(ctx, uuid.New().String())
	require.NoError(t, err)
	require.Nil(t, result.ID)
}

func TestResolveCandidatesCappedAtThree(t *testing.T) {
	ctx := context.Background()
	r, f := newTestResolver(t)
	for i := 0; i < 5; i++ {
		w := workitem.New(workitem.TypeTask, "Widget task", "desc")
		require.NoError(t, f.WorkItems.Create(ctx, w))
	}

	result, err := r.Resolve(ctx, "widget zzz")
	require.NoError(t, err)
	require.Nil(t, result.ID)
	require.Len(t, result.Candidates, 3)
}
