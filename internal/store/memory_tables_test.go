package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newArchItem() *ArchitectureItem {
	return &ArchitectureItem{
		ID:             uuid.New(),
		UniqueSlug:     "payments-service-" + uuid.New().String()[:8],
		Title:          "Payments service",
		AIRequirements: "handles charge authorization and capture",
	}
}

func newTroubleshootItem() *TroubleshootItem {
	return &TroubleshootItem{
		ID:          uuid.New(),
		UniqueSlug:  "webhook-timeout-" + uuid.New().String()[:8],
		Title:       "Webhook delivery timeout",
		AIUseCase:   []string{"webhook", "timeout"},
		AISolutions: "increase the consumer's read deadline",
	}
}

func TestArchitectureMemoryCreateGetBySlug(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	item := newArchItem()
	require.NoError(t, f.Architecture.Create(ctx, item))

	got, err := f.Architecture.GetBySlug(ctx, item.UniqueSlug)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, item.Title, got.Title)
}

func TestArchitectureMemoryDuplicateSlugConflicts(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	item := newArchItem()
	require.NoError(t, f.Architecture.Create(ctx, item))

	dup := newArchItem()
	dup.UniqueSlug = item.UniqueSlug
	require.Error(t, f.Architecture.Create(ctx, dup))
}

func TestArchitectureMemoryUpdateRewritesFields(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	item := newArchItem()
	require.NoError(t, f.Architecture.Create(ctx, item))

	item.AIRequirements = "handles charge authorization, capture, and refunds"
	item.Tags = []string{"payments", "core"}
	require.NoError(t, f.Architecture.Update(ctx, item))

	got, err := f.Architecture.GetBySlug(ctx, item.UniqueSlug)
	require.NoError(t, err)
	require.Equal(t, item.AIRequirements, got.AIRequirements)
	require.Equal(t, item.Tags, got.Tags)
}

func TestArchitectureMemoryUpdateMissingSlugIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	item := newArchItem()
	item.UniqueSlug = "no-such-slug"
	require.Error(t, f.Architecture.Update(ctx, item))
}

func TestTroubleshootMemoryUpdateRewritesFieldsWithoutTouchingCounters(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	item := newTroubleshootItem()
	require.NoError(t, f.Troubleshoot.Create(ctx, item))
	require.NoError(t, f.Troubleshoot.IncrementUsage(ctx, item.UniqueSlug, true))

	item.AISolutions = "increase the read deadline and enable keep-alives"
	require.NoError(t, f.Troubleshoot.Update(ctx, item))

	got, err := f.Troubleshoot.GetBySlug(ctx, item.UniqueSlug)
	require.NoError(t, err)
	require.Equal(t, item.AISolutions, got.AISolutions)
	require.Equal(t, 1, got.UsageCount)
	require.Equal(t, 1, got.SuccessCount)
}

func TestTroubleshootMemoryIncrementUsage(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	item := newTroubleshootItem()
	require.NoError(t, f.Troubleshoot.Create(ctx, item))

	require.NoError(t, f.Troubleshoot.IncrementUsage(ctx, item.UniqueSlug, true))
	require.NoError(t, f.Troubleshoot.IncrementUsage(ctx, item.UniqueSlug, false))

	got, err := f.Troubleshoot.GetBySlug(ctx, item.UniqueSlug)
	require.NoError(t, err)
	require.Equal(t, 2, got.UsageCount)
	require.Equal(t, 1, got.SuccessCount)
	require.InDelta(t, 0.5, got.SuccessRate(), 0.0001)
}

func TestTroubleshootMemoryIncrementUsageMissingIsNotFound(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	err := f.Troubleshoot.IncrementUsage(ctx, "no-such-slug", true)
	require.Error(t, err)
}

func TestTroubleshootSuccessRateFloorsDenominatorAtOne(t *testing.T) {
	item := &TroubleshootItem{UsageCount: 0, SuccessCount: 0}
	require.Equal(t, 0.0, item.SuccessRate())
}

func TestArchitectureMemorySearchRanksByVectorSimilarity(t *testing.T) {
	ctx := context.Background()
	f := newTestFacade(t)
	match := newArchItem()
	match.AIRequirements = "rate limiting for the public API gateway"
	require.NoError(t, f.Architecture.Create(ctx, match))
	other := newArchItem()
	other.AIRequirements = "completely unrelated batch export pipeline"
	require.NoError(t, f.Architecture.Create(ctx, other))

	results, err := f.Architecture.Search(ctx, "rate limiting for the public API gateway", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, match.ID, results[0].Item.ID)
}
