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
	"github.com/jivemcp/jive/internal/workitem"
)

// WorkItems is the C1 storage-engine table for WorkItem records.
// Continues internal/db/store.go's hand-rolled SQL + JSON-column idiom
// (CreateTicket/GetTicket/scanTicket), generalized to spec.md §4.1's
// create/get/update/delete/list/search contract.
type WorkItems struct {
	db       *DB
	embedder Embedder
}

// NewWorkItems constructs the WorkItem table accessor.
func NewWorkItems(db *DB, embedder Embedder) *WorkItems {
	return &WorkItems{db: db, embedder: embedder}
}

var workItemColumns = map[string]bool{
	"id": true, "type": true, "title": true, "status": true, "priority": true,
	"parent_id": true, "assignee": true, "reporter": true, "complexity": true,
	"created_at": true, "updated_at": true, "progress_percentage": true,
}

// Create inserts a new WorkItem, embedding its title+description and
// failing with a CONFLICT error on a duplicate id (spec.md §4.1).
func (s *WorkItems) Create(ctx context.Context, w *workitem.WorkItem) error {
	if existing, _ := s.Get(ctx, w.ID); existing != nil {
		return jiveerr.New(jiveerr.CodeConflict, fmt.Sprintf("work item %s already exists", w.ID))
	}
	vec, err := s.embedder.Embed(ctx, w.EmbeddingSource())
	if err != nil {
		return jiveerr.Wrap(jiveerr.CodeStorageError, "embed work item", err)
	}
	w.Vector = vec

	return WithRetry(ctx, jiveerr.IsRetryable, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			INSERT INTO work_items (
				id, type, title, description, status, priority, parent_id,
				dependencies, progress_percentage, acceptance_criteria, tags,
				context_tags, complexity, effort_estimate, actual_hours,
				assignee, reporter, metadata, vector, created_at, updated_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		`, rowArgs(w)...)
		if execErr != nil {
			if isUniqueViolation(execErr) {
				return jiveerr.New(jiveerr.CodeConflict, fmt.Sprintf("work item %s already exists", w.ID))
			}
			return storageErr(execErr)
		}
		return nil
	})
}

// Get fetches a WorkItem by id, returning (nil, nil) on a miss.
func (s *WorkItems) Get(ctx context.Context, id uuid.UUID) (*workitem.WorkItem, error) {
	row := s.db.QueryRowContext(ctx, selectWorkItemSQL+" WHERE id = ?", id.String())
	w, err := scanWorkItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return w, nil
}

// Update performs a merge-update of partial fields, recomputing
// updated_at and re-embedding when title/description change (spec.md
// §4.1). Returns NOT_FOUND if id is absent.
func (s *WorkItems) Update(ctx context.Context, id uuid.UUID, partial map[string]any) (*workitem.WorkItem, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, jiveerr.NotFound(id.String(), nil)
	}

	applyPartial(current, partial)
	current.UpdatedAt = time.Now().UTC()

	if _, changedText := partial["title"]; changedText {
		if err := s.reembed(ctx, current); err != nil {
			return nil, err
		}
	} else if _, changedText := partial["description"]; changedText {
		if err := s.reembed(ctx, current); err != nil {
			return nil, err
		}
	}

	err = WithRetry(ctx, jiveerr.IsRetryable, func() error {
		_, execErr := s.db.ExecContext(ctx, `
			UPDATE work_items SET
				type=?, title=?, description=?, status=?, priority=?, parent_id=?,
				dependencies=?, progress_percentage=?, acceptance_criteria=?, tags=?,
				context_tags=?, complexity=?, effort_estimate=?, actual_hours=?,
				assignee=?, reporter=?, metadata=?, vector=?, updated_at=?
			WHERE id=?
		`, updateArgs(current)...)
		return storageErr(execErr)
	})
	if err != nil {
		return nil, err
	}
	return current, nil
}

func (s *WorkItems) reembed(ctx context.Context, w *workitem.WorkItem) error {
	vec, err := s.embedder.Embed(ctx, w.EmbeddingSource())
	if err != nil {
		return jiveerr.Wrap(jiveerr.CodeStorageError, "re-embed work item", err)
	}
	w.Vector = vec
	return nil
}

// Delete removes a WorkItem. With cascade it also removes every
// descendant (breadth-first over parent_id).
func (s *WorkItems) Delete(ctx context.Context, id uuid.UUID, cascade bool) error {
	ids := []uuid.UUID{id}
	if cascade {
		children, err := s.descendantIDs(ctx, id)
		if err != nil {
			return err
		}
		ids = append(ids, children...)
	}
	return WithRetry(ctx, jiveerr.IsRetryable, func() error {
		for _, itemID := range ids {
			if _, err := s.db.ExecContext(ctx, "DELETE FROM work_items WHERE id = ?", itemID.String()); err != nil {
				return storageErr(err)
			}
		}
		return nil
	})
}

func (s *WorkItems) descendantIDs(ctx context.Context, root uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	queue := []uuid.UUID{root}
	seen := map[uuid.UUID]bool{}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		rows, err := s.db.QueryContext(ctx, "SELECT id FROM work_items WHERE parent_id = ?", current.String())
		if err != nil {
			return nil, storageErr(err)
		}
		for rows.Next() {
			var idStr string
			if err := rows.Scan(&idStr); err != nil {
				rows.Close()
				return nil, storageErr(err)
			}
			childID, err := uuid.Parse(idStr)
			if err != nil {
				continue
			}
			if seen[childID] {
				continue
			}
			seen[childID] = true
			out = append(out, childID)
			queue = append(queue, childID)
		}
		rows.Close()
	}
	return out, nil
}

// List returns a filtered, paginated page of work items (spec.md §4.1,
// §9: bounded pages, no lazy stream).
func (s *WorkItems) List(ctx context.Context, opts ListOptions) ([]*workitem.WorkItem, error) {
	where, args, err := buildWhere(opts.Filter, workItemColumns)
	if err != nil {
		return nil, err
	}
	order, err := opts.orderClause(workItemColumns, "created_at")
	if err != nil {
		return nil, err
	}
	query := selectWorkItemSQL + where + order + opts.limitClause()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []*workitem.WorkItem
	for rows.Next() {
		w, err := scanWorkItem(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		out = append(out, w)
	}
	return out, nil
}

// Mode selects the search strategy for Search (spec.md §4.1).
type Mode string

const (
	ModeVector  Mode = "vector"
	ModeKeyword Mode = "keyword"
	ModeHybrid  Mode = "hybrid"
)

// ScoredWorkItem pairs a WorkItem with its search score.
type ScoredWorkItem struct {
	Item  *workitem.WorkItem
	Score float64
}

// Search runs vector, keyword, or hybrid search over work items
// (spec.md §4.1). Hybrid combines normalized scores as 0.6 vector +
// 0.4 keyword.
func (s *WorkItems) Search(ctx context.Context, query string, filter Filter, mode Mode, limit int) ([]ScoredWorkItem, error) {
	candidates, err := s.List(ctx, ListOptions{Filter: filter, Limit: 100000})
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*workitem.WorkItem, len(candidates))
	for _, c := range candidates {
		byID[c.ID.String()] = c
	}

	var vectorScores, keywordScores []Scored
	if mode == ModeVector || mode == ModeHybrid {
		vectorScores, err = s.vectorSearch(ctx, query, byID, limit)
		if err != nil {
			return nil, err
		}
	}
	if mode == ModeKeyword || mode == ModeHybrid {
		keywordScores = keywordSearch(byID, query, limit)
	}

	var combined []Scored
	switch mode {
	case ModeVector:
		combined = vectorScores
	case ModeKeyword:
		combined = keywordScores
	case ModeHybrid:
		normalizeScores(vectorScores)
		normalizeScores(keywordScores)
		combined = combineHybrid(vectorScores, keywordScores)
	default:
		return nil, jiveerr.Validation("mode", mode, "vector|keyword|hybrid", "unknown search mode")
	}

	if limit > 0 && len(combined) > limit {
		combined = combined[:limit]
	}
	out := make([]ScoredWorkItem, 0, len(combined))
	for _, sc := range combined {
		if item, ok := byID[sc.ID]; ok {
			out = append(out, ScoredWorkItem{Item: item, Score: sc.Score})
		}
	}
	return out, nil
}

func (s *WorkItems) vectorSearch(ctx context.Context, query string, candidates map[string]*workitem.WorkItem, limit int) ([]Scored, error) {
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, jiveerr.Wrap(jiveerr.CodeStorageError, "embed search query", err)
	}
	vectors := make(map[string][]float32, len(candidates))
	for id, item := range candidates {
		vectors[id] = item.Vector
	}
	return rankByVector(qvec, vectors, limit), nil
}

func keywordSearch(candidates map[string]*workitem.WorkItem, query string, limit int) []Scored {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []Scored
	for id, item := range candidates {
		haystack := strings.ToLower(item.Title + " " + item.Description)
		if q == "" || strings.Contains(haystack, q) {
			out = append(out, Scored{ID: id, Score: 1.0})
		}
	}
	sortScoredByScoreDesc(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func combineHybrid(vector, keyword []Scored) []Scored {
	const vectorWeight, keywordWeight = 0.6, 0.4
	byID := map[string]*Scored{}
	for i := range vector {
		v := vector[i]
		byID[v.ID] = &Scored{ID: v.ID, Score: v.Score * vectorWeight}
	}
	for i := range keyword {
		k := keyword[i]
		if existing, ok := byID[k.ID]; ok {
			existing.Score += k.Score * keywordWeight
		} else {
			byID[k.ID] = &Scored{ID: k.ID, Score: k.Score * keywordWeight}
		}
	}
	out := make([]Scored, 0, len(byID))
	for _, v := range byID {
		out = append(out, *v)
	}
	sortScoredByScoreDesc(out)
	return out
}

// --- scan/marshal helpers ---

const selectWorkItemSQL = `
SELECT id, type, title, description, status, priority, parent_id,
	dependencies, progress_percentage, acceptance_criteria, tags,
	context_tags, complexity, effort_estimate, actual_hours,
	assignee, reporter, metadata, vector, created_at, updated_at
FROM work_items`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkItem(row rowScanner) (*workitem.WorkItem, error) {
	var (
		idStr, typ, title, description, status, priority string
		parentID, complexity, assignee, reporter          sql.NullString
		deps, criteria, tags, contextTags, metadata, vec  string
		progress                                          float64
		effort, actual                                    sql.NullFloat64
		createdAt, updatedAt                               string
	)
	if err := row.Scan(&idStr, &typ, &title, &description, &status, &priority, &parentID,
		&deps, &progress, &criteria, &tags, &contextTags, &complexity, &effort, &actual,
		&assignee, &reporter, &metadata, &vec, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	w := &workitem.WorkItem{
		ID:                 uuid.MustParse(idStr),
		Type:               workitem.Type(typ),
		Title:              title,
		Description:        description,
		Status:             workitem.Status(status),
		Priority:           workitem.Priority(priority),
		ProgressPercentage: progress,
		Complexity:         workitem.Complexity(complexity.String),
	}
	if parentID.Valid && parentID.String != "" {
		pid := uuid.MustParse(parentID.String)
		w.ParentID = &pid
	}
	if assignee.Valid {
		w.Assignee = &assignee.String
	}
	if reporter.Valid {
		w.Reporter = &reporter.String
	}
	if effort.Valid {
		w.EffortEstimate = &effort.Float64
	}
	if actual.Valid {
		w.ActualHours = &actual.Float64
	}
	_ = json.Unmarshal([]byte(deps), &w.Dependencies)
	_ = json.Unmarshal([]byte(criteria), &w.AcceptanceCriteria)
	_ = json.Unmarshal([]byte(tags), &w.Tags)
	_ = json.Unmarshal([]byte(contextTags), &w.ContextTags)
	_ = json.Unmarshal([]byte(metadata), &w.Metadata)
	_ = json.Unmarshal([]byte(vec), &w.Vector)
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return w, nil
}

func rowArgs(w *workitem.WorkItem) []any {
	return []any{
		w.ID.String(), string(w.Type), w.Title, w.Description, string(w.Status), string(w.Priority),
		parentIDString(w.ParentID), marshal(w.Dependencies), w.ProgressPercentage, marshal(w.AcceptanceCriteria),
		marshal(w.Tags), marshal(w.ContextTags), string(w.Complexity), nullableFloat(w.EffortEstimate),
		nullableFloat(w.ActualHours), nullableString(w.Assignee), nullableString(w.Reporter),
		marshal(w.Metadata), marshal(w.Vector), w.CreatedAt.Format(time.RFC3339), w.UpdatedAt.Format(time.RFC3339),
	}
}

func updateArgs(w *workitem.WorkItem) []any {
	return []any{
		string(w.Type), w.Title, w.Description, string(w.Status), string(w.Priority),
		parentIDString(w.ParentID), marshal(w.Dependencies), w.ProgressPercentage, marshal(w.AcceptanceCriteria),
		marshal(w.Tags), marshal(w.ContextTags), string(w.Complexity), nullableFloat(w.EffortEstimate),
		nullableFloat(w.ActualHours), nullableString(w.Assignee), nullableString(w.Reporter),
		marshal(w.Metadata), marshal(w.Vector), w.UpdatedAt.Format(time.RFC3339), w.ID.String(),
	}
}

func parentIDString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func marshal(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return "[]"
	}
	return string(b)
}

// applyPartial merges a generic update map into w, matching spec.md
// §4.1's "merge-update" semantics: only keys present in partial are
// touched.
func applyPartial(w *workitem.WorkItem, partial map[string]any) {
	if v, ok := partial["title"].(string); ok {
		w.Title = v
	}
	if v, ok := partial["description"].(string); ok {
		w.Description = v
	}
	if v, ok := partial["status"].(string); ok {
		w.Status = workitem.Normalize(workitem.Status(v))
	}
	if v, ok := partial["priority"].(string); ok {
		w.Priority = workitem.Priority(v)
	}
	if v, ok := partial["progress_percentage"].(float64); ok {
		w.ProgressPercentage = v
	}
	if v, ok := partial["complexity"].(string); ok {
		w.Complexity = workitem.Complexity(v)
	}
	if v, ok := partial["assignee"].(string); ok {
		w.Assignee = &v
	}
	if v, ok := partial["reporter"].(string); ok {
		w.Reporter = &v
	}
	if v, ok := partial["effort_estimate"].(float64); ok {
		w.EffortEstimate = &v
	}
	if v, ok := partial["actual_hours"].(float64); ok {
		w.ActualHours = &v
	}
	if v, ok := partial["tags"].([]string); ok {
		w.Tags = v
	}
	if v, ok := partial["context_tags"].([]string); ok {
		w.ContextTags = v
	}
	if v, ok := partial["acceptance_criteria"].([]string); ok {
		w.AcceptanceCriteria = v
	}
	if v, ok := partial["dependencies"].([]uuid.UUID); ok {
		w.Dependencies = v
	}
	if v, ok := partial["metadata"].(map[string]any); ok {
		w.Metadata = v
	}
	if v, ok := partial["parent_id"]; ok {
		switch pv := v.(type) {
		case nil:
			w.ParentID = nil
		case uuid.UUID:
			w.ParentID = &pv
		case *uuid.UUID:
			w.ParentID = pv
		}
	}
}

func storageErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrConnDone) || strings.Contains(err.Error(), "database is locked") {
		return jiveerr.Wrap(jiveerr.CodeStorageUnavail, "storage temporarily unavailable", err)
	}
	return jiveerr.Wrap(jiveerr.CodeStorageError, "storage operation failed", err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
