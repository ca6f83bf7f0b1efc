// Package resolver implements the identifier resolver (spec.md §4.2 /
// C2): map a UUID, exact title, or keyword query to a canonical work
// item id. Generalizes the plain lookup loops of the teacher's
// kanban/state.go (GetTicket, GetTicketsByStatus) into the three-stage
// resolution chain spec.md describes.
package resolver

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/workitem"
)

// Resolver resolves free-form input into a canonical work-item id.
type Resolver struct {
	items *store.WorkItems
}

// New constructs a Resolver over the given WorkItems table.
func New(items *store.WorkItems) *Resolver {
	return &Resolver{items: items}
}

// Result is the outcome of a Resolve call.
type Result struct {
	ID         *uuid.UUID
	Candidates []string // up to three suggestions, populated on a miss
}

// Resolve implements the three-stage chain of spec.md §4.2: UUID
// lookup, then exact case-insensitive title match, then all-tokens
// keyword match. On a miss it also returns up to three candidate
// titles (by prefix or highest keyword overlap).
func (r *Resolver) Resolve(ctx context.Context, input string) (Result, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return Result{}, nil
	}

	if id, err := uuid.Parse(input); err == nil {
		item, getErr := r.items.Get(ctx, id)
		if getErr != nil {
			return Result{}, getErr
		}
		if item != nil {
			return Result{ID: &item.ID}, nil
		}
	}

	all, err := r.items.List(ctx, store.ListOptions{Limit: 100000})
	if err != nil {
		return Result{}, err
	}

	lowerInput := strings.ToLower(input)
	for _, item := range all {
		if strings.ToLower(item.Title) == lowerInput {
			return Result{ID: &item.ID}, nil
		}
	}

	tokens := tokenize(input)
	if len(tokens) > 0 {
		for _, item := range all {
			haystack := strings.ToLower(item.Title + " " + item.Description)
			if containsAll(haystack, tokens) {
				return Result{ID: &item.ID}, nil
			}
		}
	}

	return Result{Candidates: suggest(all, lowerInput, tokens)}, nil
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}

func containsAll(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

type candidate struct {
	title string
	score int
}

// suggest ranks candidate titles by prefix match first, then keyword
// token overlap, returning at most three.
func suggest(all []*workitem.WorkItem, lowerInput string, tokens []string) []string {
	var ranked []candidate
	for _, item := range all {
		lowerTitle := strings.ToLower(item.Title)
		score := 0
		if strings.HasPrefix(lowerTitle, lowerInput) {
			score += 100
		}
		for _, tok := range tokens {
			if strings.Contains(lowerTitle, tok) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, candidate{title: item.Title, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	out := make([]string, len(ranked))
	for i, c := range ranked {
		out[i] = c.title
	}
	return out
}
