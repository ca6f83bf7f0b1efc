// Package retrieval implements smart retrieval (spec.md §4.8 / C8):
// token-budgeted architecture context assembly and problem→solution
// matching. Grounded on the teacher's agents/rag/retriever.go context
// assembly and original_source's troubleshoot_matching.py.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jivemcp/jive/internal/memory"
	"github.com/jivemcp/jive/internal/store"
)

// charsPerToken approximates token count from character count
// (spec.md §4.8.1: "approximated as chars ÷ 4").
const charsPerToken = 4

func estimateTokens(s string) int {
	return len(s) / charsPerToken
}

// ContextBudget configures BuildContext.
type ContextBudget struct {
	TokenBudget int // default 4000
}

// ContextItem is a rendered slug entry in the assembled context.
type ContextItem struct {
	Slug    string
	Title   string
	Content string
}

// Context is the structured result of BuildContext.
type Context struct {
	Primary          ContextItem
	Children         []ContextItem
	Related          []ContextItem
	TokensUsed       int
	TokenBudget      int
	TruncationApplied bool
}

// BuildContext assembles architecture context for a primary slug,
// spending the token budget per spec.md §4.8.1: the primary item
// verbatim, half the remainder on children (summarized to ~150 tokens
// each) until exhausted, the rest on related items (always ≤100-token
// previews).
func BuildContext(ctx context.Context, arch *memory.Architecture, primarySlug string, budget ContextBudget) (*Context, error) {
	tokenBudget := budget.TokenBudget
	if tokenBudget <= 0 {
		tokenBudget = 4000
	}

	primary, err := arch.Get(ctx, primarySlug)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return nil, nil
	}

	result := &Context{
		Primary: ContextItem{Slug: primary.UniqueSlug, Title: primary.Title, Content: primary.AIRequirements},
		TokenBudget: tokenBudget,
	}
	remaining := tokenBudget - estimateTokens(primary.AIRequirements)
	result.TokensUsed = estimateTokens(primary.AIRequirements)

	if remaining <= 0 {
		result.TruncationApplied = true
		return result, nil
	}

	childBudget := remaining / 2
	spentOnChildren := 0
	for _, slug := range primary.ChildrenSlugs {
		if spentOnChildren >= childBudget {
			result.TruncationApplied = true
			break
		}
		child, err := arch.Get(ctx, slug)
		if err != nil || child == nil {
			continue
		}
		summary := previewText(child.AIRequirements, 150*charsPerToken)
		cost := estimateTokens(summary)
		if spentOnChildren+cost > childBudget {
			result.TruncationApplied = true
			break
		}
		result.Children = append(result.Children, ContextItem{Slug: child.UniqueSlug, Title: child.Title, Content: summary})
		spentOnChildren += cost
		result.TokensUsed += cost
	}

	relatedBudget := remaining - spentOnChildren
	spentOnRelated := 0
	for _, slug := range primary.RelatedSlugs {
		if spentOnRelated >= relatedBudget {
			result.TruncationApplied = true
			break
		}
		related, err := arch.Get(ctx, slug)
		if err != nil || related == nil {
			continue
		}
		preview := previewText(related.AIRequirements, 100*charsPerToken)
		cost := estimateTokens(preview)
		result.Related = append(result.Related, ContextItem{Slug: related.UniqueSlug, Title: related.Title, Content: preview})
		spentOnRelated += cost
		result.TokensUsed += cost
	}

	return result, nil
}

// previewText truncates s to at most maxChars characters, preferring
// a sentence boundary (period or newline) that falls in the final 30%
// of the window; otherwise hard-cuts and appends a marker (spec.md
// §4.8.1 step 4).
func previewText(s string, maxChars int) string {
	if len(s) <= maxChars {
		return s
	}
	window := s[:maxChars]
	lastPeriod := strings.LastIndex(window, ".")
	lastNewline := strings.LastIndex(window, "\n")
	boundary := lastPeriod
	if lastNewline > boundary {
		boundary = lastNewline
	}
	if boundary > int(float64(maxChars)*0.7) {
		return strings.TrimRight(s[:boundary+1], " \t\n") + "..."
	}
	return strings.TrimRight(window, " \t\n") + "..."
}

// RenderMarkdown produces the deterministic markdown rendering of an
// assembled context (spec.md §4.8.1 step 5).
func RenderMarkdown(c *Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n", c.Primary.Title, c.Primary.Content)
	if len(c.Children) > 0 {
		b.WriteString("\n## Children\n\n")
		for _, child := range c.Children {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", child.Title, child.Content)
		}
	}
	if len(c.Related) > 0 {
		b.WriteString("\n## Related\n\n")
		for _, rel := range c.Related {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", rel.Title, rel.Content)
		}
	}
	if c.TruncationApplied {
		b.WriteString("\n*context truncated to fit token budget*\n")
	}
	return b.String()
}

// MatchingContext configures MatchProblem (spec.md §4.8.2).
type MatchingContext struct {
	MaxResults         int
	MinRelevanceScore  float64
	BoostBySuccessRate bool
}

// Match is one scored troubleshoot solution.
type Match struct {
	Slug             string
	Title            string
	RelevanceScore   float64
	MatchedUseCases  []string
	SolutionPreview  string
}

// defaultMinOverlap is the shared-token threshold used by Matcher when
// no override is supplied (spec.md §4.8.2, original_source's
// troubleshoot_matching.py default).
const defaultMinOverlap = 2

// Matcher extracts matched use-cases by shared-token overlap with a
// configurable minimum overlap, generalizing
// original_source's troubleshoot_matching.py.
type Matcher struct {
	minOverlap int
}

// MatcherOption configures a Matcher at construction time.
type MatcherOption func(*Matcher)

// WithMinOverlap overrides the default minimum shared-token count
// required for a use case to count as matched.
func WithMinOverlap(n int) MatcherOption {
	return func(m *Matcher) {
		if n > 0 {
			m.minOverlap = n
		}
	}
}

// NewMatcher constructs a Matcher, defaulting minOverlap to 2.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{minOverlap: defaultMinOverlap}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// defaultMatcher is used by the package-level MatchProblem so existing
// callers keep the spec default without constructing a Matcher.
var defaultMatcher = NewMatcher()

// MatchProblem runs vector search over troubleshoot items, filters by
// minimum relevance, optionally boosts by success rate, extracts
// matched use cases, and returns the top MaxResults descending by
// relevance (spec.md §4.8.2), using the default minimum overlap.
func MatchProblem(ctx context.Context, ts *memory.Troubleshoot, problem string, mctx MatchingContext) ([]Match, error) {
	return defaultMatcher.MatchProblem(ctx, ts, problem, mctx)
}

// MatchProblem is the Matcher-bound equivalent of the package-level
// MatchProblem, honoring this Matcher's configured minimum overlap.
func (m *Matcher) MatchProblem(ctx context.Context, ts *memory.Troubleshoot, problem string, mctx MatchingContext) ([]Match, error) {
	if mctx.MaxResults <= 0 {
		mctx.MaxResults = 5
	}

	results, err := ts.Search(ctx, problem, mctx.MaxResults*2)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, r := range results {
		if r.Item == nil {
			continue
		}
		relevance := r.Score
		if relevance < mctx.MinRelevanceScore {
			continue
		}
		if mctx.BoostBySuccessRate && r.Item.UsageCount > 0 {
			successRate := float64(r.Item.SuccessCount) / float64(r.Item.UsageCount)
			relevance = relevance * (1.0 + 0.2*successRate)
		}
		if relevance > 1.0 {
			relevance = 1.0
		}

		matchedUseCases := m.findMatchingUseCases(problem, r.Item.AIUseCase)
		if len(matchedUseCases) == 0 {
			matchedUseCases = firstN(r.Item.AIUseCase, 2)
		}

		matches = append(matches, Match{
			Slug:            r.Item.UniqueSlug,
			Title:           r.Item.Title,
			RelevanceScore:  relevance,
			MatchedUseCases: matchedUseCases,
			SolutionPreview: solutionPreview(r.Item.AISolutions, 200),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].RelevanceScore > matches[j].RelevanceScore
	})
	if len(matches) > mctx.MaxResults {
		matches = matches[:mctx.MaxResults]
	}
	return matches, nil
}

// findMatchingUseCases returns the use_case entries sharing at least
// m.minOverlap whitespace tokens with problem, case-insensitively.
func (m *Matcher) findMatchingUseCases(problem string, useCases []string) []string {
	problemWords := tokenSet(problem)
	var matched []string
	for _, uc := range useCases {
		if overlapCount(tokenSet(uc), problemWords) >= m.minOverlap {
			matched = append(matched, uc)
		}
	}
	return matched
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		out[tok] = true
	}
	return out
}

func overlapCount(a, b map[string]bool) int {
	count := 0
	for tok := range a {
		if b[tok] {
			count++
		}
	}
	return count
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// solutionPreview truncates solutions to maxLength characters,
// preferring a sentence boundary in the final 30% of the window
// (spec.md §4.8.2 step 5).
func solutionPreview(solutions string, maxLength int) string {
	return previewText(solutions, maxLength)
}

// GetDetailedSolution returns the full solution payload for slug,
// incrementing usage_count when markAsUsed is set, and success_count
// alongside it when the caller reports the solution worked (spec.md
// §4.8.2 / the "mark as used" retrieval path; success feeds
// boost_by_success_rate on later matches).
func GetDetailedSolution(ctx context.Context, ts *memory.Troubleshoot, slug string, markAsUsed, success bool) (*store.TroubleshootItem, error) {
	item, err := ts.Get(ctx, slug)
	if err != nil || item == nil {
		return nil, err
	}
	if markAsUsed {
		if err := ts.IncrementUsage(ctx, slug, success); err != nil {
			return nil, err
		}
		item.UsageCount++
		if success {
			item.SuccessCount++
		}
	}
	return item, nil
}
