package markdown

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/jivemcp/jive/internal/store"
)

// genListItem generates a non-empty alphabetic token: the codec's
// backtick and bulleted-list extractors both require at least one
// character per entry, so an empty-string item would silently vanish
// on the way back in and break the round trip.
func genListItem() gopter.Gen {
	return gen.AlphaString().Map(func(s string) string {
		if s == "" {
			return "x"
		}
		return s
	})
}

func genListItems(n int) gopter.Gen {
	return gen.SliceOfN(n, genListItem())
}

// TestArchitectureExportImportRoundTripsProperty verifies spec.md §8:
// import(export(item)) ≡ item modulo last_updated_on, for arbitrary
// slugs, titles, and list fields.
func TestArchitectureExportImportRoundTripsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("architecture item round-trips through export/parse/convert", prop.ForAll(
		func(slug, title, requirements string, whenToUse, keywords, children, related, tags []string) bool {
			now := time.Now().UTC().Truncate(time.Second)
			item := &store.ArchitectureItem{
				ID:             uuid.New(),
				UniqueSlug:     slug,
				Title:          title,
				AIRequirements: requirements,
				AIWhenToUse:    whenToUse,
				Keywords:       keywords,
				ChildrenSlugs:  children,
				RelatedSlugs:   related,
				Tags:           tags,
				CreatedOn:      now,
				LastUpdatedOn:  now,
			}

			doc := ExportArchitecture(item, 1)
			parsed, err := Parse(doc)
			if err != nil {
				return false
			}
			rebuilt := parsed.ToArchitectureItem()

			return rebuilt.Title == item.Title &&
				rebuilt.AIRequirements == item.AIRequirements &&
				stringSlicesEqual(rebuilt.Keywords, item.Keywords) &&
				stringSlicesEqual(rebuilt.ChildrenSlugs, item.ChildrenSlugs) &&
				stringSlicesEqual(rebuilt.RelatedSlugs, item.RelatedSlugs) &&
				stringSlicesEqual(rebuilt.Tags, item.Tags) &&
				stringSlicesEqual(rebuilt.AIWhenToUse, item.AIWhenToUse)
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		genListItems(2),
		genListItems(2),
		genListItems(2),
		genListItems(2),
		genListItems(2),
	))

	properties.TestingRun(t)
}

// TestTroubleshootExportImportRoundTripsProperty verifies the same
// round-trip property for troubleshoot items, including the usage and
// success counters.
func TestTroubleshootExportImportRoundTripsProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("troubleshoot item round-trips through export/parse/convert", prop.ForAll(
		func(slug, title, solutions string, useCase, keywords, tags []string, usage, success int) bool {
			if success > usage {
				success = usage
			}
			now := time.Now().UTC().Truncate(time.Second)
			item := &store.TroubleshootItem{
				ID:            uuid.New(),
				UniqueSlug:    slug,
				Title:         title,
				AIUseCase:     useCase,
				AISolutions:   solutions,
				Keywords:      keywords,
				Tags:          tags,
				CreatedOn:     now,
				LastUpdatedOn: now,
				UsageCount:    usage,
				SuccessCount:  success,
			}

			doc := ExportTroubleshoot(item, 1)
			parsed, err := Parse(doc)
			if err != nil {
				return false
			}
			rebuilt := parsed.ToTroubleshootItem()

			return rebuilt.Title == item.Title &&
				rebuilt.AISolutions == item.AISolutions &&
				stringSlicesEqual(rebuilt.AIUseCase, item.AIUseCase) &&
				stringSlicesEqual(rebuilt.Keywords, item.Keywords) &&
				stringSlicesEqual(rebuilt.Tags, item.Tags) &&
				rebuilt.UsageCount == item.UsageCount &&
				rebuilt.SuccessCount == item.SuccessCount
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
		genListItems(2),
		genListItems(2),
		genListItems(2),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
