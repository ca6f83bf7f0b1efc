// Package memory implements the namespaced memory store facade
// (spec.md §4.7 / C7): architecture and troubleshoot CRUD over
// internal/store's tables plus slug validation. Grounded on the
// teacher's agents/rag indexer/store slug handling, generalized with
// golang.org/x/text/cases for case folding rather than strings.ToLower
// to stay consistent with the teacher's Unicode-aware normalization.
package memory

import (
	"context"
	"regexp"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/store"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

var lowerCaser = cases.Lower(language.Und)

// NormalizeSlug lowercases slug (Unicode-aware) and validates it
// against spec.md §4.7's `[a-z0-9_-]+` charset.
func NormalizeSlug(slug string) (string, error) {
	normalized := lowerCaser.String(slug)
	if !slugPattern.MatchString(normalized) {
		return "", jiveerr.Validation("unique_slug", slug, "[a-z0-9_-]+", "slug must be lowercase letters, digits, underscore, or hyphen")
	}
	return normalized, nil
}

// Architecture is the C7 facade for the architecture namespace. It
// keeps an in-process slug → id index guarded by mu so repeat lookups
// of a hot slug skip straight to a by-id fetch instead of re-scanning
// by slug (original_source's storage/memory_storage.py).
type Architecture struct {
	table *store.ArchitectureMemory

	mu    sync.RWMutex
	index map[string]uuid.UUID
}

// NewArchitecture constructs an Architecture facade.
func NewArchitecture(table *store.ArchitectureMemory) *Architecture {
	return &Architecture{table: table, index: map[string]uuid.UUID{}}
}

func (a *Architecture) cacheSlug(slug string, id uuid.UUID) {
	a.mu.Lock()
	a.index[slug] = id
	a.mu.Unlock()
}

func (a *Architecture) lookupSlug(slug string) (uuid.UUID, bool) {
	a.mu.RLock()
	id, ok := a.index[slug]
	a.mu.RUnlock()
	return id, ok
}

func (a *Architecture) evictSlug(slug string) {
	a.mu.Lock()
	delete(a.index, slug)
	a.mu.Unlock()
}

// Create validates and normalizes slug, stamps timestamps, and inserts the item.
func (a *Architecture) Create(ctx context.Context, item *store.ArchitectureItem) error {
	slug, err := NormalizeSlug(item.UniqueSlug)
	if err != nil {
		return err
	}
	item.UniqueSlug = slug
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	item.CreatedOn = now
	item.LastUpdatedOn = now
	if err := a.table.Create(ctx, item); err != nil {
		return err
	}
	a.cacheSlug(slug, item.ID)
	return nil
}

// Get looks up by slug, consulting the in-process index first so a
// hit resolves with a by-id fetch instead of a by-slug scan.
func (a *Architecture) Get(ctx context.Context, slug string) (*store.ArchitectureItem, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	if id, ok := a.lookupSlug(normalized); ok {
		item, err := a.table.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
		a.evictSlug(normalized)
	}
	item, err := a.table.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if item != nil {
		a.cacheSlug(normalized, item.ID)
	}
	return item, nil
}

// Update applies a partial set of field changes to the item identified
// by slug and re-stamps last_updated_on. Fields left nil in patch are
// unchanged.
func (a *Architecture) Update(ctx context.Context, slug string, patch ArchitecturePatch) (*store.ArchitectureItem, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	item, err := a.table.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, jiveerr.NotFound(slug, nil)
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Requirements != nil {
		item.AIRequirements = *patch.Requirements
	}
	if patch.WhenToUse != nil {
		item.AIWhenToUse = patch.WhenToUse
	}
	if patch.Keywords != nil {
		item.Keywords = patch.Keywords
	}
	if patch.ChildrenSlugs != nil {
		item.ChildrenSlugs = patch.ChildrenSlugs
	}
	if patch.RelatedSlugs != nil {
		item.RelatedSlugs = patch.RelatedSlugs
	}
	if patch.LinkedEpicIDs != nil {
		item.LinkedEpicIDs = patch.LinkedEpicIDs
	}
	if patch.Tags != nil {
		item.Tags = patch.Tags
	}
	if err := a.table.Update(ctx, item); err != nil {
		return nil, err
	}
	a.cacheSlug(normalized, item.ID)
	return item, nil
}

// ArchitecturePatch carries the optional field changes for Update;
// nil fields are left unchanged.
type ArchitecturePatch struct {
	Title         *string
	Requirements  *string
	WhenToUse     []string
	Keywords      []string
	ChildrenSlugs []string
	RelatedSlugs  []string
	LinkedEpicIDs []string
	Tags          []string
}

// Delete removes by slug.
func (a *Architecture) Delete(ctx context.Context, slug string) error {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return err
	}
	if err := a.table.Delete(ctx, normalized); err != nil {
		return err
	}
	a.evictSlug(normalized)
	return nil
}

// List returns a page of architecture items.
func (a *Architecture) List(ctx context.Context, limit, offset int) ([]*store.ArchitectureItem, error) {
	return a.table.List(ctx, limit, offset)
}

// ScoredArchitecture pairs an item with its retrieval score.
type ScoredArchitecture struct {
	Item  *store.ArchitectureItem
	Score float64
}

// Search runs vector-only semantic search (spec.md §4.7: "mode =
// vector; no keyword fallback").
func (a *Architecture) Search(ctx context.Context, query string, limit int) ([]ScoredArchitecture, error) {
	results, err := a.table.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredArchitecture, len(results))
	for i, r := range results {
		out[i] = ScoredArchitecture{Item: r.Item, Score: r.Score}
	}
	return out, nil
}

// Troubleshoot is the C7 facade for the troubleshoot namespace. It
// keeps an in-process slug → id index guarded by mu, mirroring
// Architecture's (original_source's storage/memory_storage.py).
type Troubleshoot struct {
	table *store.TroubleshootMemory

	mu    sync.RWMutex
	index map[string]uuid.UUID
}

// NewTroubleshoot constructs a Troubleshoot facade.
func NewTroubleshoot(table *store.TroubleshootMemory) *Troubleshoot {
	return &Troubleshoot{table: table, index: map[string]uuid.UUID{}}
}

func (t *Troubleshoot) cacheSlug(slug string, id uuid.UUID) {
	t.mu.Lock()
	t.index[slug] = id
	t.mu.Unlock()
}

func (t *Troubleshoot) lookupSlug(slug string) (uuid.UUID, bool) {
	t.mu.RLock()
	id, ok := t.index[slug]
	t.mu.RUnlock()
	return id, ok
}

func (t *Troubleshoot) evictSlug(slug string) {
	t.mu.Lock()
	delete(t.index, slug)
	t.mu.Unlock()
}

// Create validates and normalizes slug, stamps timestamps, and inserts the item.
func (t *Troubleshoot) Create(ctx context.Context, item *store.TroubleshootItem) error {
	slug, err := NormalizeSlug(item.UniqueSlug)
	if err != nil {
		return err
	}
	item.UniqueSlug = slug
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	item.CreatedOn = now
	item.LastUpdatedOn = now
	if err := t.table.Create(ctx, item); err != nil {
		return err
	}
	t.cacheSlug(slug, item.ID)
	return nil
}

// Get looks up by slug, consulting the in-process index first so a
// hit resolves with a by-id fetch instead of a by-slug scan.
func (t *Troubleshoot) Get(ctx context.Context, slug string) (*store.TroubleshootItem, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	if id, ok := t.lookupSlug(normalized); ok {
		item, err := t.table.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			return item, nil
		}
		t.evictSlug(normalized)
	}
	item, err := t.table.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if item != nil {
		t.cacheSlug(normalized, item.ID)
	}
	return item, nil
}

// Update applies a partial set of field changes to the item identified
// by slug and re-stamps last_updated_on. Fields left nil in patch are
// unchanged; usage_count/success_count are untouched here (see
// IncrementUsage).
func (t *Troubleshoot) Update(ctx context.Context, slug string, patch TroubleshootPatch) (*store.TroubleshootItem, error) {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	item, err := t.table.GetBySlug(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, jiveerr.NotFound(slug, nil)
	}
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Solutions != nil {
		item.AISolutions = *patch.Solutions
	}
	if patch.UseCase != nil {
		item.AIUseCase = patch.UseCase
	}
	if patch.Keywords != nil {
		item.Keywords = patch.Keywords
	}
	if patch.Tags != nil {
		item.Tags = patch.Tags
	}
	if err := t.table.Update(ctx, item); err != nil {
		return nil, err
	}
	t.cacheSlug(normalized, item.ID)
	return item, nil
}

// TroubleshootPatch carries the optional field changes for Update;
// nil fields are left unchanged.
type TroubleshootPatch struct {
	Title     *string
	Solutions *string
	UseCase   []string
	Keywords  []string
	Tags      []string
}

// Delete removes by slug.
func (t *Troubleshoot) Delete(ctx context.Context, slug string) error {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return err
	}
	if err := t.table.Delete(ctx, normalized); err != nil {
		return err
	}
	t.evictSlug(normalized)
	return nil
}

// List returns a page of troubleshoot items.
func (t *Troubleshoot) List(ctx context.Context, limit, offset int) ([]*store.TroubleshootItem, error) {
	return t.table.List(ctx, limit, offset)
}

// IncrementUsage raises usage_count (and success_count when success)
// for slug. Called by the matcher in "mark as used" mode (spec.md §4.7).
func (t *Troubleshoot) IncrementUsage(ctx context.Context, slug string, success bool) error {
	normalized, err := NormalizeSlug(slug)
	if err != nil {
		return err
	}
	return t.table.IncrementUsage(ctx, normalized, success)
}

// ScoredTroubleshoot pairs an item with its retrieval score.
type ScoredTroubleshoot struct {
	Item  *store.TroubleshootItem
	Score float64
}

// Search runs vector-only semantic search over troubleshoot items.
func (t *Troubleshoot) Search(ctx context.Context, query string, limit int) ([]ScoredTroubleshoot, error) {
	results, err := t.table.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ScoredTroubleshoot, len(results))
	for i, r := range results {
		out[i] = ScoredTroubleshoot{Item: r.Item, Score: r.Score}
	}
	return out, nil
}
