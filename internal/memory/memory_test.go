package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jivemcp/jive/internal/store"
)

func newTestFacades(t *testing.T) (*Architecture, *Troubleshoot) {
	t.Helper()
	db, err := store.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	f := store.NewFacade(db, store.NewHashEmbedder())
	return NewArchitecture(f.Architecture), NewTroubleshoot(f.Troubleshoot)
}

func TestNormalizeSlugLowercasesAndValidates(t *testing.T) {
	slug, err := NormalizeSlug("Payments-Service_2")
	require.NoError(t, err)
	require.Equal(t, "payments-service_2", slug)
}

func TestNormalizeSlugRejectsInvalidCharset(t *testing.T) {
	_, err := NormalizeSlug("payments service!")
	require.Error(t, err)
}

func TestArchitectureCreateNormalizesSlugAndStampsTimestamps(t *testing.T) {
	ctx := context.Background()
	arch, _ := newTestFacades(t)
	item := &store.ArchitectureItem{
		UniqueSlug:     "Payments-Gateway",
		Title:          "Payments gateway",
		AIRequirements: "handles card authorization",
	}
	require.NoError(t, arch.Create(ctx, item))
	require.Equal(t, "payments-gateway", item.UniqueSlug)
	require.False(t, item.CreatedOn.IsZero())

	got, err := arch.Get(ctx, "PAYMENTS-GATEWAY")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, item.Title, got.Title)
}

func TestArchitectureUpdateAppliesPartialPatch(t *testing.T) {
	ctx := context.Background()
	arch, _ := newTestFacades(t)
	item := &store.ArchitectureItem{
		UniqueSlug:     "billing-service",
		Title:          "Billing service",
		AIRequirements: "handles invoices",
		Tags:           []string{"billing"},
	}
	require.NoError(t, arch.Create(ctx, item))

	newRequirements := "handles invoices and refunds"
	updated, err := arch.Update(ctx, "billing-service", ArchitecturePatch{Requirements: &newRequirements})
	require.NoError(t, err)
	require.Equal(t, newRequirements, updated.AIRequirements)
	require.Equal(t, "Billing service", updated.Title)
	require.Equal(t, []string{"billing"}, updated.Tags)

	got, err := arch.Get(ctx, "billing-service")
	require.NoError(t, err)
	require.Equal(t, newRequirements, got.AIRequirements)
}

func TestArchitectureUpdateUnknownSlugIsNotFound(t *testing.T) {
	ctx := context.Background()
	arch, _ := newTestFacades(t)
	_, err := arch.Update(ctx, "no-such-service", ArchitecturePatch{})
	require.Error(t, err)
}

func TestArchitectureGetAfterDeleteAndRecreateUsesFreshIndexEntry(t *testing.T) {
	ctx := context.Background()
	arch, _ := newTestFacades(t)
	first := &store.ArchitectureItem{UniqueSlug: "cache-slot", Title: "First", AIRequirements: "v1"}
	require.NoError(t, arch.Create(ctx, first))

	got, err := arch.Get(ctx, "cache-slot")
	require.NoError(t, err)
	require.Equal(t, first.ID, got.ID)

	require.NoError(t, arch.Delete(ctx, "cache-slot"))

	second := &store.ArchitectureItem{UniqueSlug: "cache-slot", Title: "Second", AIRequirements: "v2"}
	require.NoError(t, arch.Create(ctx, second))

	got, err = arch.Get(ctx, "cache-slot")
	require.NoError(t, err)
	require.Equal(t, second.ID, got.ID)
	require.Equal(t, "Second", got.Title)
}

func TestArchitectureDeleteBySlug(t *testing.T) {
	ctx := context.Background()
	arch, _ := newTestFacades(t)
	item := &store.ArchitectureItem{UniqueSlug: "temp-service", Title: "Temp", AIRequirements: "throwaway"}
	require.NoError(t, arch.Create(ctx, item))
	require.NoError(t, arch.Delete(ctx, "temp-service"))

	got, err := arch.Get(ctx, "temp-service")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestArchitectureSearchReturnsScoredResults(t *testing.T) {
	ctx := context.Background()
	arch, _ := newTestFacades(t)
	item := &store.ArchitectureItem{UniqueSlug: "rate-limiter", Title: "Rate limiter", AIRequirements: "throttles inbound API traffic"}
	require.NoError(t, arch.Create(ctx, item))

	results, err := arch.Search(ctx, "throttles inbound API traffic", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, item.ID, results[0].Item.ID)
}

func TestTroubleshootIncrementUsageThroughFacade(t *testing.T) {
	ctx := context.Background()
	_, troubleshoot := newTestFacades(t)
	item := &store.TroubleshootItem{
		UniqueSlug:  "connection-reset",
		Title:       "Connection reset under load",
		AIUseCase:   []string{"network"},
		AISolutions: "raise the keepalive timeout",
	}
	require.NoError(t, troubleshoot.Create(ctx, item))

	require.NoError(t, troubleshoot.IncrementUsage(ctx, "Connection-Reset", true))

	got, err := troubleshoot.Get(ctx, "connection-reset")
	require.NoError(t, err)
	require.Equal(t, 1, got.UsageCount)
	require.Equal(t, 1, got.SuccessCount)
}

func TestTroubleshootUpdateAppliesPartialPatchWithoutTouchingCounters(t *testing.T) {
	ctx := context.Background()
	_, troubleshoot := newTestFacades(t)
	item := &store.TroubleshootItem{
		UniqueSlug:  "slow-query",
		Title:       "Slow query",
		AIUseCase:   []string{"database"},
		AISolutions: "add an index",
	}
	require.NoError(t, troubleshoot.Create(ctx, item))
	require.NoError(t, troubleshoot.IncrementUsage(ctx, "slow-query", true))

	newSolutions := "add a covering index and analyze the query plan"
	updated, err := troubleshoot.Update(ctx, "slow-query", TroubleshootPatch{Solutions: &newSolutions})
	require.NoError(t, err)
	require.Equal(t, newSolutions, updated.AISolutions)
	require.Equal(t, 1, updated.UsageCount)
	require.Equal(t, 1, updated.SuccessCount)
}

func TestTroubleshootListPaginates(t *testing.T) {
	ctx := context.Background()
	_, troubleshoot := newTestFacades(t)
	for i := 0; i < 3; i++ {
		item := &store.TroubleshootItem{
			UniqueSlug:  "issue-" + string(rune('a'+i)),
			Title:       "Issue",
			AIUseCase:   []string{"x"},
			AISolutions: "fix it",
		}
		require.NoError(t, troubleshoot.Create(ctx, item))
	}

	page, err := troubleshoot.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
}
