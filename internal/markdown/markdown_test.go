package markdown

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jivemcp/jive/internal/store"
)

func TestExportArchitectureRoundTripsThroughParse(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	item := &store.ArchitectureItem{
		ID:             uuid.New(),
		UniqueSlug:     "payments-service",
		Title:          "Payments service",
		AIWhenToUse:    []string{"when handling charges", "when reconciling ledgers"},
		Keywords:       []string{"billing", "charges"},
		AIRequirements: "handles charge authorization and capture",
		ChildrenSlugs:  []string{"charge-authorizer"},
		RelatedSlugs:   []string{"ledger-service"},
		LinkedEpicIDs:  []string{"epic-42"},
		Tags:           []string{"core", "payments"},
		CreatedOn:      now,
		LastUpdatedOn:  now,
	}

	doc := ExportArchitecture(item, 1)
	require.Contains(t, doc, "# Payments service")
	require.Contains(t, doc, "## Requirements")

	parsed, err := Parse(doc)
	require.NoError(t, err)
	require.Equal(t, NamespaceArchitecture, parsed.FrontMatter.Type)
	require.Equal(t, "payments-service", parsed.FrontMatter.Slug)
	require.Equal(t, "Payments service", parsed.Title)

	rebuilt := parsed.ToArchitectureItem()
	require.Equal(t, item.Title, rebuilt.Title)
	require.Equal(t, item.AIRequirements, rebuilt.AIRequirements)
	require.Equal(t, item.Keywords, rebuilt.Keywords)
	require.Equal(t, item.ChildrenSlugs, rebuilt.ChildrenSlugs)
	require.Equal(t, item.RelatedSlugs, rebuilt.RelatedSlugs)
	require.Equal(t, item.LinkedEpicIDs, rebuilt.LinkedEpicIDs)
	require.Equal(t, item.Tags, rebuilt.Tags)
}

func TestExportTroubleshootRoundTripsThroughParse(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	item := &store.TroubleshootItem{
		ID:            uuid.New(),
		UniqueSlug:    "webhook-timeout",
		Title:         "Webhook delivery timeout",
		AIUseCase:     []string{"webhook retries", "delivery timeouts"},
		Keywords:      []string{"webhook", "timeout"},
		AISolutions:   "increase the consumer's read deadline",
		Tags:          []string{"networking"},
		CreatedOn:     now,
		LastUpdatedOn: now,
		UsageCount:    4,
		SuccessCount:  3,
	}

	doc := ExportTroubleshoot(item, 2)
	parsed, err := Parse(doc)
	require.NoError(t, err)
	require.Equal(t, NamespaceTroubleshoot, parsed.FrontMatter.Type)
	require.Equal(t, 4, *parsed.FrontMatter.UsageCount)
	require.Equal(t, 3, *parsed.FrontMatter.SuccessCount)

	rebuilt := parsed.ToTroubleshootItem()
	require.Equal(t, item.Title, rebuilt.Title)
	require.Equal(t, item.AISolutions, rebuilt.AISolutions)
	require.Equal(t, item.AIUseCase, rebuilt.AIUseCase)
	require.Equal(t, 4, rebuilt.UsageCount)
	require.Equal(t, 3, rebuilt.SuccessCount)
}

func TestParseRejectsMissingFrontMatter(t *testing.T) {
	_, err := Parse("# No front matter\n\nbody")
	require.Error(t, err)
}

func TestValidateNamespaceRejectsMismatch(t *testing.T) {
	doc := &Document{FrontMatter: FrontMatter{Type: NamespaceTroubleshoot}}
	err := ValidateNamespace(doc, NamespaceArchitecture)
	require.Error(t, err)
}

func TestValidateNamespaceAcceptsMatch(t *testing.T) {
	doc := &Document{FrontMatter: FrontMatter{Type: NamespaceArchitecture}}
	require.NoError(t, ValidateNamespace(doc, NamespaceArchitecture))
}

func TestRenderHTMLConvertsMarkdown(t *testing.T) {
	html, err := RenderHTML("# Title\n\nsome *body* text")
	require.NoError(t, err)
	require.Contains(t, html, "<h1>Title</h1>")
	require.Contains(t, html, "<em>body</em>")
}
