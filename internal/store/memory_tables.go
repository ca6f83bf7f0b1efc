package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/jiveerr"
)

// ArchitectureItem is one architecture specification (spec.md §3).
type ArchitectureItem struct {
	ID              uuid.UUID      `json:"id"`
	UniqueSlug      string         `json:"unique_slug"`
	Title           string         `json:"title"`
	AIRequirements  string         `json:"ai_requirements"`
	AIWhenToUse     []string       `json:"ai_when_to_use"`
	Keywords        []string       `json:"keywords"`
	ChildrenSlugs   []string       `json:"children_slugs"`
	RelatedSlugs    []string       `json:"related_slugs"`
	LinkedEpicIDs   []string       `json:"linked_epic_ids"`
	Tags            []string       `json:"tags"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedOn       time.Time      `json:"created_on"`
	LastUpdatedOn   time.Time      `json:"last_updated_on"`
	Vector          []float32      `json:"-"`
}

// EmbeddingSource is the text embedded for an ArchitectureItem.
func (a *ArchitectureItem) EmbeddingSource() string { return a.AIRequirements }

// TroubleshootItem is one diagnostic solution (spec.md §3).
type TroubleshootItem struct {
	ID            uuid.UUID      `json:"id"`
	UniqueSlug    string         `json:"unique_slug"`
	Title         string         `json:"title"`
	AIUseCase     []string       `json:"ai_use_case"`
	AISolutions   string         `json:"ai_solutions"`
	Keywords      []string       `json:"keywords"`
	Tags          []string       `json:"tags"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	UsageCount    int            `json:"usage_count"`
	SuccessCount  int            `json:"success_count"`
	CreatedOn     time.Time      `json:"created_on"`
	LastUpdatedOn time.Time      `json:"last_updated_on"`
	Vector        []float32      `json:"-"`
}

// EmbeddingSource is the text embedded for a TroubleshootItem.
func (t *TroubleshootItem) EmbeddingSource() string {
	return strings.Join(t.AIUseCase, " ") + " " + t.AISolutions
}

// SuccessRate returns success_count / max(1, usage_count) (spec.md §4.8.2).
func (t *TroubleshootItem) SuccessRate() float64 {
	denominator := t.UsageCount
	if denominator < 1 {
		denominator = 1
	}
	return float64(t.SuccessCount) / float64(denominator)
}

// ArchitectureMemory is the C1 table accessor for architecture items.
type ArchitectureMemory struct {
	db       *DB
	embedder Embedder
}

func NewArchitectureMemory(db *DB, embedder Embedder) *ArchitectureMemory {
	return &ArchitectureMemory{db: db, embedder: embedder}
}

func (m *ArchitectureMemory) Create(ctx context.Context, item *ArchitectureItem) error {
	vec, err := m.embedder.Embed(ctx, item.EmbeddingSource())
	if err != nil {
		return jiveerr.Wrap(jiveerr.CodeStorageError, "embed architecture item", err)
	}
	item.Vector = vec
	_, execErr := m.db.ExecContext(ctx, `
		INSERT INTO architecture_memory (
			id, unique_slug, title, ai_requirements, ai_when_to_use, keywords,
			children_slugs, related_slugs, linked_epic_ids, tags, metadata, vector,
			created_on, last_updated_on
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, item.ID.String(), item.UniqueSlug, item.Title, item.AIRequirements, marshal(item.AIWhenToUse),
		marshal(item.Keywords), marshal(item.ChildrenSlugs), marshal(item.RelatedSlugs),
		marshal(item.LinkedEpicIDs), marshal(item.Tags), marshal(item.Metadata), marshal(item.Vector),
		item.CreatedOn.Format(time.RFC3339), item.LastUpdatedOn.Format(time.RFC3339))
	if execErr != nil {
		if isUniqueViolation(execErr) {
			return jiveerr.New(jiveerr.CodeConflict, fmt.Sprintf("architecture slug %q already exists", item.UniqueSlug))
		}
		return storageErr(execErr)
	}
	return nil
}

func (m *ArchitectureMemory) GetBySlug(ctx context.Context, slug string) (*ArchitectureItem, error) {
	row := m.db.QueryRowContext(ctx, selectArchitectureSQL+" WHERE unique_slug = ?", slug)
	item, err := scanArchitecture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return item, nil
}

func (m *ArchitectureMemory) Get(ctx context.Context, id uuid.UUID) (*ArchitectureItem, error) {
	row := m.db.QueryRowContext(ctx, selectArchitectureSQL+" WHERE id = ?", id.String())
	item, err := scanArchitecture(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return item, nil
}

// Update re-embeds and rewrites every field of the item identified by
// item.UniqueSlug, stamping last_updated_on.
func (m *ArchitectureMemory) Update(ctx context.Context, item *ArchitectureItem) error {
	vec, err := m.embedder.Embed(ctx, item.EmbeddingSource())
	if err != nil {
		return jiveerr.Wrap(jiveerr.CodeStorageError, "embed architecture item", err)
	}
	item.Vector = vec
	item.LastUpdatedOn = time.Now().UTC()
	res, execErr := m.db.ExecContext(ctx, `
		UPDATE architecture_memory SET
			title = ?, ai_requirements = ?, ai_when_to_use = ?, keywords = ?,
			children_slugs = ?, related_slugs = ?, linked_epic_ids = ?, tags = ?,
			metadata = ?, vector = ?, last_updated_on = ?
		WHERE unique_slug = ?
	`, item.Title, item.AIRequirements, marshal(item.AIWhenToUse), marshal(item.Keywords),
		marshal(item.ChildrenSlugs), marshal(item.RelatedSlugs), marshal(item.LinkedEpicIDs),
		marshal(item.Tags), marshal(item.Metadata), marshal(item.Vector),
		item.LastUpdatedOn.Format(time.RFC3339), item.UniqueSlug)
	if execErr != nil {
		return storageErr(execErr)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return jiveerr.NotFound(item.UniqueSlug, nil)
	}
	return nil
}

func (m *ArchitectureMemory) Delete(ctx context.Context, slug string) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM architecture_memory WHERE unique_slug = ?", slug)
	return storageErr(err)
}

func (m *ArchitectureMemory) List(ctx context.Context, limit, offset int) ([]*ArchitectureItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := m.db.QueryContext(ctx, selectArchitectureSQL+" ORDER BY unique_slug LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	var out []*ArchitectureItem
	for rows.Next() {
		item, err := scanArchitecture(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Search runs vector search over architecture items (spec.md §4.7: no
// keyword fallback in the memory store's own search).
func (m *ArchitectureMemory) Search(ctx context.Context, query string, limit int) ([]struct {
	Item  *ArchitectureItem
	Score float64
}, error) {
	all, err := m.List(ctx, 100000, 0)
	if err != nil {
		return nil, err
	}
	qvec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, jiveerr.Wrap(jiveerr.CodeStorageError, "embed search query", err)
	}
	vectors := map[string][]float32{}
	byID := map[string]*ArchitectureItem{}
	for _, item := range all {
		vectors[item.ID.String()] = item.Vector
		byID[item.ID.String()] = item
	}
	ranked := rankByVector(qvec, vectors, limit)
	out := make([]struct {
		Item  *ArchitectureItem
		Score float64
	}, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, struct {
			Item  *ArchitectureItem
			Score float64
		}{Item: byID[r.ID], Score: r.Score})
	}
	return out, nil
}

const selectArchitectureSQL = `
SELECT id, unique_slug, title, ai_requirements, ai_when_to_use, keywords,
	children_slugs, related_slugs, linked_epic_ids, tags, metadata, vector,
	created_on, last_updated_on
FROM architecture_memory`

func scanArchitecture(row rowScanner) (*ArchitectureItem, error) {
	var (
		idStr, slug, title, requirements                                    string
		whenToUse, keywords, children, related, epics, tags, metadata, vec  string
		createdOn, updatedOn                                                string
	)
	if err := row.Scan(&idStr, &slug, &title, &requirements, &whenToUse, &keywords,
		&children, &related, &epics, &tags, &metadata, &vec, &createdOn, &updatedOn); err != nil {
		return nil, err
	}
	item := &ArchitectureItem{
		ID: uuid.MustParse(idStr), UniqueSlug: slug, Title: title, AIRequirements: requirements,
	}
	_ = json.Unmarshal([]byte(whenToUse), &item.AIWhenToUse)
	_ = json.Unmarshal([]byte(keywords), &item.Keywords)
	_ = json.Unmarshal([]byte(children), &item.ChildrenSlugs)
	_ = json.Unmarshal([]byte(related), &item.RelatedSlugs)
	_ = json.Unmarshal([]byte(epics), &item.LinkedEpicIDs)
	_ = json.Unmarshal([]byte(tags), &item.Tags)
	_ = json.Unmarshal([]byte(metadata), &item.Metadata)
	_ = json.Unmarshal([]byte(vec), &item.Vector)
	item.CreatedOn, _ = time.Parse(time.RFC3339, createdOn)
	item.LastUpdatedOn, _ = time.Parse(time.RFC3339, updatedOn)
	return item, nil
}

// TroubleshootMemory is the C1 table accessor for troubleshoot items.
type TroubleshootMemory struct {
	db       *DB
	embedder Embedder
}

func NewTroubleshootMemory(db *DB, embedder Embedder) *TroubleshootMemory {
	return &TroubleshootMemory{db: db, embedder: embedder}
}

func (m *TroubleshootMemory) Create(ctx context.Context, item *TroubleshootItem) error {
	vec, err := m.embedder.Embed(ctx, item.EmbeddingSource())
	if err != nil {
		return jiveerr.Wrap(jiveerr.CodeStorageError, "embed troubleshoot item", err)
	}
	item.Vector = vec
	_, execErr := m.db.ExecContext(ctx, `
		INSERT INTO troubleshoot_memory (
			id, unique_slug, title, ai_use_case, ai_solutions, keywords, tags,
			metadata, usage_count, success_count, vector, created_on, last_updated_on
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
	`, item.ID.String(), item.UniqueSlug, item.Title, marshal(item.AIUseCase), item.AISolutions,
		marshal(item.Keywords), marshal(item.Tags), marshal(item.Metadata), item.UsageCount, item.SuccessCount,
		marshal(item.Vector), item.CreatedOn.Format(time.RFC3339), item.LastUpdatedOn.Format(time.RFC3339))
	if execErr != nil {
		if isUniqueViolation(execErr) {
			return jiveerr.New(jiveerr.CodeConflict, fmt.Sprintf("troubleshoot slug %q already exists", item.UniqueSlug))
		}
		return storageErr(execErr)
	}
	return nil
}

func (m *TroubleshootMemory) GetBySlug(ctx context.Context, slug string) (*TroubleshootItem, error) {
	row := m.db.QueryRowContext(ctx, selectTroubleshootSQL+" WHERE unique_slug = ?", slug)
	item, err := scanTroubleshoot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return item, nil
}

// Update re-embeds and rewrites every field of the item identified by
// item.UniqueSlug, stamping last_updated_on. usage_count and
// success_count are left untouched; they advance only through
// IncrementUsage.
func (m *TroubleshootMemory) Update(ctx context.Context, item *TroubleshootItem) error {
	vec, err := m.embedder.Embed(ctx, item.EmbeddingSource())
	if err != nil {
		return jiveerr.Wrap(jiveerr.CodeStorageError, "embed troubleshoot item", err)
	}
	item.Vector = vec
	item.LastUpdatedOn = time.Now().UTC()
	res, execErr := m.db.ExecContext(ctx, `
		UPDATE troubleshoot_memory SET
			title = ?, ai_use_case = ?, ai_solutions = ?, keywords = ?, tags = ?,
			metadata = ?, vector = ?, last_updated_on = ?
		WHERE unique_slug = ?
	`, item.Title, marshal(item.AIUseCase), item.AISolutions, marshal(item.Keywords),
		marshal(item.Tags), marshal(item.Metadata), marshal(item.Vector),
		item.LastUpdatedOn.Format(time.RFC3339), item.UniqueSlug)
	if execErr != nil {
		return storageErr(execErr)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return jiveerr.NotFound(item.UniqueSlug, nil)
	}
	return nil
}

func (m *TroubleshootMemory) Get(ctx context.Context, id uuid.UUID) (*TroubleshootItem, error) {
	row := m.db.QueryRowContext(ctx, selectTroubleshootSQL+" WHERE id = ?", id.String())
	item, err := scanTroubleshoot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return item, nil
}

func (m *TroubleshootMemory) Delete(ctx context.Context, slug string) error {
	_, err := m.db.ExecContext(ctx, "DELETE FROM troubleshoot_memory WHERE unique_slug = ?", slug)
	return storageErr(err)
}

func (m *TroubleshootMemory) List(ctx context.Context, limit, offset int) ([]*TroubleshootItem, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := m.db.QueryContext(ctx, selectTroubleshootSQL+" ORDER BY unique_slug LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	var out []*TroubleshootItem
	for rows.Next() {
		item, err := scanTroubleshoot(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, item)
	}
	return out, nil
}

// IncrementUsage monotonically raises usage_count (and success_count
// when success) for slug (spec.md §4.7).
func (m *TroubleshootMemory) IncrementUsage(ctx context.Context, slug string, success bool) error {
	query := "UPDATE troubleshoot_memory SET usage_count = usage_count + 1"
	if success {
		query += ", success_count = success_count + 1"
	}
	query += ", last_updated_on = ? WHERE unique_slug = ?"
	res, err := m.db.ExecContext(ctx, query, time.Now().UTC().Format(time.RFC3339), slug)
	if err != nil {
		return storageErr(err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return jiveerr.NotFound(slug, nil)
	}
	return nil
}

// Search runs vector search over troubleshoot items.
func (m *TroubleshootMemory) Search(ctx context.Context, query string, limit int) ([]struct {
	Item  *TroubleshootItem
	Score float64
}, error) {
	all, err := m.List(ctx, 100000, 0)
	if err != nil {
		return nil, err
	}
	qvec, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, jiveerr.Wrap(jiveerr.CodeStorageError, "embed search query", err)
	}
	vectors := map[string][]float32{}
	byID := map[string]*TroubleshootItem{}
	for _, item := range all {
		vectors[item.ID.String()] = item.Vector
		byID[item.ID.String()] = item
	}
	ranked := rankByVector(qvec, vectors, limit)
	out := make([]struct {
		Item  *TroubleshootItem
		Score float64
	}, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, struct {
			Item  *TroubleshootItem
			Score float64
		}{Item: byID[r.ID], Score: r.Score})
	}
	return out, nil
}

const selectTroubleshootSQL = `
SELECT id, unique_slug, title, ai_use_case, ai_solutions, keywords, tags,
	metadata, usage_count, success_count, vector, created_on, last_updated_on
FROM troubleshoot_memory`

func scanTroubleshoot(row rowScanner) (*TroubleshootItem, error) {
	var (
		idStr, slug, title, solutions                    string
		useCase, keywords, tags, metadata, vec            string
		usageCount, successCount                          int
		createdOn, updatedOn                              string
	)
	if err := row.Scan(&idStr, &slug, &title, &useCase, &solutions, &keywords, &tags,
		&metadata, &usageCount, &successCount, &vec, &createdOn, &updatedOn); err != nil {
		return nil, err
	}
	item := &TroubleshootItem{
		ID: uuid.MustParse(idStr), UniqueSlug: slug, Title: title, AISolutions: solutions,
		UsageCount: usageCount, SuccessCount: successCount,
	}
	_ = json.Unmarshal([]byte(useCase), &item.AIUseCase)
	_ = json.Unmarshal([]byte(keywords), &item.Keywords)
	_ = json.Unmarshal([]byte(tags), &item.Tags)
	_ = json.Unmarshal([]byte(metadata), &item.Metadata)
	_ = json.Unmarshal([]byte(vec), &item.Vector)
	item.CreatedOn, _ = time.Parse(time.RFC3339, createdOn)
	item.LastUpdatedOn, _ = time.Parse(time.RFC3339, updatedOn)
	return item, nil
}
