// Package dependency implements the dependency engine (spec.md §4.5 /
// C5): a directed graph over work-item ids where edge a→b means "a is
// blocked by b". Cycle detection uses Tarjan's strongly connected
// components, execution order uses Kahn's topological sort. No graph
// library exists anywhere in the retrieved example pack (DESIGN.md),
// so this is a deliberate standard-library implementation.
package dependency

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

// Engine answers dependency-graph questions over the work-item store.
type Engine struct {
	items *store.WorkItems
}

// New constructs an Engine over the given WorkItems table.
func New(items *store.WorkItems) *Engine {
	return &Engine{items: items}
}

// Record describes one dependency edge resolved to its target item.
type Record struct {
	ID       uuid.UUID
	Item     *workitem.WorkItem
	Blocking bool // status not completed
}

// GetDependencies returns id's dependencies, optionally expanded
// transitively via DFS with a visited set, optionally filtered to
// only those still blocking (status != completed).
func (e *Engine) GetDependencies(ctx context.Context, id uuid.UUID, transitive, onlyBlocking bool) ([]Record, error) {
	item, err := e.items.Get(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}

	var records []Record
	if transitive {
		visited := map[uuid.UUID]bool{id: true}
		records, err = e.transitiveDeps(ctx, item, visited)
	} else {
		records, err = e.directDeps(ctx, item)
	}
	if err != nil {
		return nil, err
	}

	if !onlyBlocking {
		return records, nil
	}
	var filtered []Record
	for _, r := range records {
		if r.Blocking {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (e *Engine) directDeps(ctx context.Context, item *workitem.WorkItem) ([]Record, error) {
	var out []Record
	for _, depID := range item.Dependencies {
		dep, err := e.items.Get(ctx, depID)
		if err != nil {
			return nil, err
		}
		if dep == nil {
			continue
		}
		out = append(out, Record{ID: depID, Item: dep, Blocking: workitem.Normalize(dep.Status) != workitem.StatusCompleted})
	}
	return out, nil
}

func (e *Engine) transitiveDeps(ctx context.Context, item *workitem.WorkItem, visited map[uuid.UUID]bool) ([]Record, error) {
	var out []Record
	for _, depID := range item.Dependencies {
		if visited[depID] {
			continue
		}
		visited[depID] = true
		dep, err := e.items.Get(ctx, depID)
		if err != nil {
			return nil, err
		}
		if dep == nil {
			continue
		}
		out = append(out, Record{ID: depID, Item: dep, Blocking: workitem.Normalize(dep.Status) != workitem.StatusCompleted})
		nested, err := e.transitiveDeps(ctx, dep, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// CycleWitness names the ids participating in one discovered cycle.
type CycleWitness struct {
	Members []uuid.UUID
}

// SuggestedFix proposes a remediation for one validation problem.
type SuggestedFix struct {
	Description string
	EdgeFrom    uuid.UUID
	EdgeTo      uuid.UUID
}

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	IsValid          bool
	Cycles           []CycleWitness
	MissingReferences []MissingRef
	TopologicalOrder []uuid.UUID
	SuggestedFixes   []SuggestedFix
}

// MissingRef names a dependency edge pointing at a nonexistent item.
type MissingRef struct {
	From uuid.UUID
	To   uuid.UUID
}

// Validate runs cycle detection (Tarjan), missing-reference checking,
// and topological sort (Kahn) over the subgraph induced by ids (or the
// whole store when ids is empty). Both failure classes are reported
// in the result rather than returned as an error (spec.md §7).
func (e *Engine) Validate(ctx context.Context, ids []uuid.UUID, checkCircular, checkMissing, suggestFixes bool) (*ValidationResult, error) {
	items, err := e.loadGraph(ctx, ids)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{IsValid: true}

	if checkMissing {
		for _, item := range items {
			for _, depID := range item.Dependencies {
				if _, ok := items[depID]; !ok {
					if got, _ := e.items.Get(ctx, depID); got == nil {
						result.MissingReferences = append(result.MissingReferences, MissingRef{From: item.ID, To: depID})
						result.IsValid = false
					}
				}
			}
		}
	}

	var sccs [][]uuid.UUID
	if checkCircular {
		sccs = tarjanSCC(items)
		for _, scc := range sccs {
			if len(scc) > 1 {
				result.Cycles = append(result.Cycles, CycleWitness{Members: scc})
				result.IsValid = false
			}
		}
		for id, item := range items {
			for _, dep := range item.Dependencies {
				if dep == id {
					result.Cycles = append(result.Cycles, CycleWitness{Members: []uuid.UUID{id}})
					result.IsValid = false
				}
			}
		}
	}

	if len(result.Cycles) == 0 {
		order, ok := kahnTopoSort(items)
		if ok {
			result.TopologicalOrder = order
		}
	}

	if suggestFixes {
		for _, cycle := range result.Cycles {
			result.SuggestedFixes = append(result.SuggestedFixes, suggestCycleFix(items, cycle))
		}
		for _, ref := range result.MissingReferences {
			result.SuggestedFixes = append(result.SuggestedFixes, SuggestedFix{
				Description: "remove dependency edge pointing to a deleted work item",
				EdgeFrom:    ref.From,
				EdgeTo:      ref.To,
			})
		}
	}

	return result, nil
}

func (e *Engine) loadGraph(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*workitem.WorkItem, error) {
	if len(ids) == 0 {
		all, err := e.items.List(ctx, store.ListOptions{Limit: 100000})
		if err != nil {
			return nil, err
		}
		out := make(map[uuid.UUID]*workitem.WorkItem, len(all))
		for _, item := range all {
			out[item.ID] = item
		}
		return out, nil
	}
	out := make(map[uuid.UUID]*workitem.WorkItem, len(ids))
	for _, id := range ids {
		item, err := e.items.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil {
			out[id] = item
		}
	}
	return out, nil
}

// suggestCycleFix proposes removing the edge out of the lowest-priority
// member of the cycle, i.e. its dependency on another member (spec.md
// §4.5: "propose removing the
// lowest-priority edge").
func suggestCycleFix(items map[uuid.UUID]*workitem.WorkItem, cycle CycleWitness) SuggestedFix {
	members := cycle.Members
	if len(members) == 1 {
		return SuggestedFix{Description: "remove self-referential dependency", EdgeFrom: members[0], EdgeTo: members[0]}
	}

	memberSet := make(map[uuid.UUID]bool, len(members))
	for _, id := range members {
		memberSet[id] = true
	}

	var lowestID uuid.UUID
	lowestRank := 1 << 30
	for _, id := range members {
		item := items[id]
		if item == nil {
			continue
		}
		if item.Priority.Rank() < lowestRank {
			lowestRank = item.Priority.Rank()
			lowestID = id
		}
	}

	item := items[lowestID]
	if item != nil {
		for _, dep := range item.Dependencies {
			if memberSet[dep] {
				return SuggestedFix{
					Description: "remove lowest-priority edge in the cycle",
					EdgeFrom:    lowestID,
					EdgeTo:      dep,
				}
			}
		}
	}
	return SuggestedFix{Description: "remove an edge in the cycle", EdgeFrom: lowestID, EdgeTo: lowestID}
}

// GraphStats summarizes graph-wide shape for graph_stats.
type GraphStats struct {
	Nodes    int
	Edges    int
	Roots    int
	Leaves   int
	MaxDepth int
}

// GraphStats computes node/edge/root/leaf counts and the longest
// dependency chain.
func (e *Engine) GraphStats(ctx context.Context) (*GraphStats, error) {
	items, err := e.loadGraph(ctx, nil)
	if err != nil {
		return nil, err
	}

	hasIncoming := make(map[uuid.UUID]bool)
	edges := 0
	for _, item := range items {
		edges += len(item.Dependencies)
		for _, dep := range item.Dependencies {
			hasIncoming[dep] = true
		}
	}

	stats := &GraphStats{Nodes: len(items), Edges: edges}
	for id, item := range items {
		if len(item.Dependencies) == 0 {
			stats.Leaves++
		}
		if !hasIncoming[id] {
			stats.Roots++
		}
	}

	memo := make(map[uuid.UUID]int)
	for id := range items {
		depth := longestChain(items, id, memo, map[uuid.UUID]bool{})
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
	}
	return stats, nil
}

func longestChain(items map[uuid.UUID]*workitem.WorkItem, id uuid.UUID, memo map[uuid.UUID]int, inPath map[uuid.UUID]bool) int {
	if v, ok := memo[id]; ok {
		return v
	}
	if inPath[id] {
		return 0
	}
	inPath[id] = true
	defer delete(inPath, id)

	item := items[id]
	if item == nil || len(item.Dependencies) == 0 {
		memo[id] = 0
		return 0
	}
	best := 0
	for _, dep := range item.Dependencies {
		if _, ok := items[dep]; !ok {
			continue
		}
		if d := 1 + longestChain(items, dep, memo, inPath); d > best {
			best = d
		}
	}
	memo[id] = best
	return best
}

// tarjanSCC computes the strongly connected components of the
// dependency graph (edges: item → its dependencies).
func tarjanSCC(items map[uuid.UUID]*workitem.WorkItem) [][]uuid.UUID {
	index := 0
	indices := make(map[uuid.UUID]int)
	lowlink := make(map[uuid.UUID]int)
	onStack := make(map[uuid.UUID]bool)
	var stack []uuid.UUID
	var sccs [][]uuid.UUID

	ids := sortedIDs(items)

	var strongconnect func(v uuid.UUID)
	strongconnect = func(v uuid.UUID) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		item := items[v]
		if item != nil {
			for _, w := range item.Dependencies {
				if _, ok := items[w]; !ok {
					continue
				}
				if _, seen := indices[w]; !seen {
					strongconnect(w)
					if lowlink[w] < lowlink[v] {
						lowlink[v] = lowlink[w]
					}
				} else if onStack[w] {
					if indices[w] < lowlink[v] {
						lowlink[v] = indices[w]
					}
				}
			}
		}

		if lowlink[v] == indices[v] {
			var scc []uuid.UUID
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, id := range ids {
		if _, seen := indices[id]; !seen {
			strongconnect(id)
		}
	}
	return sccs
}

// kahnTopoSort computes a topological order over items (edges: item →
// dependency, meaning the dependency must precede the item). Ties
// break on (priority desc, created_at asc) for determinism (spec.md
// §4.5). Returns ok=false if a cycle remains (caller only invokes this
// once Validate confirms none).
func kahnTopoSort(items map[uuid.UUID]*workitem.WorkItem) ([]uuid.UUID, bool) {
	inDegree := make(map[uuid.UUID]int, len(items))
	dependents := make(map[uuid.UUID][]uuid.UUID)
	for id := range items {
		inDegree[id] = 0
	}
	for id, item := range items {
		for _, dep := range item.Dependencies {
			if _, ok := items[dep]; !ok {
				continue
			}
			inDegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var ready []uuid.UUID
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}
	sortReady(items, ready)

	var order []uuid.UUID
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)

		var freed []uuid.UUID
		for _, dependent := range dependents[n] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				freed = append(freed, dependent)
			}
		}
		sortReady(items, freed)
		ready = mergeSorted(items, ready, freed)
	}

	return order, len(order) == len(items)
}

func sortReady(items map[uuid.UUID]*workitem.WorkItem, ids []uuid.UUID) {
	sort.SliceStable(ids, func(i, j int) bool {
		return less(items[ids[i]], items[ids[j]])
	})
}

// mergeSorted merges freed into ready, keeping the combined slice
// sorted by the same (priority desc, created_at asc) order.
func mergeSorted(items map[uuid.UUID]*workitem.WorkItem, ready, freed []uuid.UUID) []uuid.UUID {
	if len(freed) == 0 {
		return ready
	}
	out := append(ready, freed...)
	sort.SliceStable(out, func(i, j int) bool {
		return less(items[out[i]], items[out[j]])
	})
	return out
}

func less(a, b *workitem.WorkItem) bool {
	if a.Priority.Rank() != b.Priority.Rank() {
		return a.Priority.Rank() > b.Priority.Rank()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func sortedIDs(items map[uuid.UUID]*workitem.WorkItem) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
