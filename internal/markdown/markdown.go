// Package markdown implements the markdown codec (spec.md §4.9 / C9):
// export to a YAML-front-matter document, import back via front
// matter + section-header parsing. Continues the teacher's
// goldmark.Convert usage (internal/web's render path) for RenderHTML;
// import splits the body into sections with regular expressions, and
// gopkg.in/yaml.v3 handles the front matter itself.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"

	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/store"
)

// Namespace distinguishes the two memory kinds a document may belong to.
type Namespace string

const (
	NamespaceArchitecture  Namespace = "architecture"
	NamespaceTroubleshoot Namespace = "troubleshoot"
)

// FrontMatter is the YAML header written/read at the top of every
// exported document (spec.md §4.9).
type FrontMatter struct {
	Type          Namespace `yaml:"type"`
	Slug          string    `yaml:"slug"`
	Version       int       `yaml:"version"`
	CreatedOn     time.Time `yaml:"created_on"`
	LastUpdatedOn time.Time `yaml:"last_updated_on"`
	UsageCount    *int      `yaml:"usage_count,omitempty"`
	SuccessCount  *int      `yaml:"success_count,omitempty"`
}

// ExportArchitecture renders an ArchitectureItem as a YAML-front-matter document.
func ExportArchitecture(item *store.ArchitectureItem, version int) string {
	fm := FrontMatter{
		Type: NamespaceArchitecture, Slug: item.UniqueSlug, Version: version,
		CreatedOn: item.CreatedOn, LastUpdatedOn: item.LastUpdatedOn,
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	_ = enc.Encode(fm)
	enc.Close()
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", item.Title)

	b.WriteString("## When to Use\n\n")
	for _, w := range item.AIWhenToUse {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	b.WriteString("\n")

	b.WriteString("## Keywords\n\n")
	for i, kw := range item.Keywords {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "`%s`", kw)
	}
	b.WriteString("\n\n")

	b.WriteString("## Requirements\n\n")
	b.WriteString(item.AIRequirements)
	b.WriteString("\n\n")

	if len(item.ChildrenSlugs) > 0 || len(item.RelatedSlugs) > 0 {
		b.WriteString("## Relationships\n\n")
		for _, s := range item.ChildrenSlugs {
			fmt.Fprintf(&b, "- child: `%s`\n", s)
		}
		for _, s := range item.RelatedSlugs {
			fmt.Fprintf(&b, "- related: `%s`\n", s)
		}
		b.WriteString("\n")
	}

	if len(item.LinkedEpicIDs) > 0 {
		b.WriteString("## Epic Links\n\n")
		for _, e := range item.LinkedEpicIDs {
			fmt.Fprintf(&b, "- `%s`\n", e)
		}
		b.WriteString("\n")
	}

	if len(item.Tags) > 0 {
		b.WriteString("## Tags\n\n")
		for i, t := range item.Tags {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "`%s`", t)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("---\n*exported by jive markdown codec*\n")
	return b.String()
}

// ExportTroubleshoot renders a TroubleshootItem as a YAML-front-matter document.
func ExportTroubleshoot(item *store.TroubleshootItem, version int) string {
	usage, success := item.UsageCount, item.SuccessCount
	fm := FrontMatter{
		Type: NamespaceTroubleshoot, Slug: item.UniqueSlug, Version: version,
		CreatedOn: item.CreatedOn, LastUpdatedOn: item.LastUpdatedOn,
		UsageCount: &usage, SuccessCount: &success,
	}
	var b bytes.Buffer
	b.WriteString("---\n")
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	_ = enc.Encode(fm)
	enc.Close()
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", item.Title)

	b.WriteString("## When to Use\n\n")
	for _, w := range item.AIUseCase {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	b.WriteString("\n")

	b.WriteString("## Keywords\n\n")
	for i, kw := range item.Keywords {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "`%s`", kw)
	}
	b.WriteString("\n\n")

	b.WriteString("## Solutions\n\n")
	b.WriteString(item.AISolutions)
	b.WriteString("\n\n")

	if len(item.Tags) > 0 {
		b.WriteString("## Tags\n\n")
		for i, t := range item.Tags {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "`%s`", t)
		}
		b.WriteString("\n\n")
	}

	b.WriteString("---\n*exported by jive markdown codec*\n")
	return b.String()
}

var frontMatterPattern = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n\n?(.*)$`)
var h1Pattern = regexp.MustCompile(`(?m)^#[ \t]+(.*)$`)
var sectionPattern = regexp.MustCompile(`(?m)^##\s+(.+)$`)
var backtickPattern = regexp.MustCompile("`([^`]+)`")
var bulletPattern = regexp.MustCompile(`(?m)^-\s+(.+)$`)

// Document is the parsed result of Parse.
type Document struct {
	FrontMatter FrontMatter
	Title       string
	Sections    map[string]string
}

// Parse splits a document into front matter and titled sections,
// pulling each "## Heading" block via a section-header regex (spec.md
// §4.9: "pulls each section via section-header regex").
func Parse(doc string) (*Document, error) {
	m := frontMatterPattern.FindStringSubmatch(doc)
	if m == nil {
		return nil, jiveerr.New(jiveerr.CodeValidation, "document missing YAML front matter")
	}
	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(m[1]), &fm); err != nil {
		return nil, jiveerr.Wrap(jiveerr.CodeValidation, "parse front matter", err)
	}

	body := strings.TrimSuffix(m[2], "---\n*exported by jive markdown codec*\n")
	titleMatch := h1Pattern.FindStringSubmatch(body)
	title := ""
	if titleMatch != nil {
		title = strings.TrimSpace(titleMatch[1])
	}

	sections := map[string]string{}
	headings := sectionPattern.FindAllStringSubmatchIndex(body, -1)
	for i, h := range headings {
		name := strings.TrimSpace(body[h[2]:h[3]])
		contentStart := h[1]
		contentEnd := len(body)
		if i+1 < len(headings) {
			contentEnd = headings[i+1][0]
		}
		sections[name] = strings.TrimSpace(body[contentStart:contentEnd])
	}

	return &Document{FrontMatter: fm, Title: title, Sections: sections}, nil
}

// extractBulletedList parses a section body as a bulleted list, one
// entry per line.
func extractBulletedList(section string) []string {
	matches := bulletPattern.FindAllStringSubmatch(section, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return out
}

// extractBackticked pulls every inline-backticked token from a
// section, used for keyword/tag/slug lists (spec.md §4.9: "inline-
// backtick extraction for lists-of-slugs").
func extractBackticked(section string) []string {
	matches := backtickPattern.FindAllStringSubmatch(section, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ToArchitectureItem converts a parsed Document into an
// ArchitectureItem, preserving the document's declared id fields.
func (d *Document) ToArchitectureItem() *store.ArchitectureItem {
	item := &store.ArchitectureItem{
		UniqueSlug:     d.FrontMatter.Slug,
		Title:          d.Title,
		AIWhenToUse:    extractBulletedList(d.Sections["When to Use"]),
		Keywords:       extractBackticked(d.Sections["Keywords"]),
		AIRequirements: d.Sections["Requirements"],
		Tags:           extractBackticked(d.Sections["Tags"]),
		CreatedOn:      d.FrontMatter.CreatedOn,
		LastUpdatedOn:  d.FrontMatter.LastUpdatedOn,
	}
	for _, rel := range extractRelationships(d.Sections["Relationships"]) {
		if rel.kind == "child" {
			item.ChildrenSlugs = append(item.ChildrenSlugs, rel.slug)
		} else {
			item.RelatedSlugs = append(item.RelatedSlugs, rel.slug)
		}
	}
	item.LinkedEpicIDs = extractBackticked(d.Sections["Epic Links"])
	return item
}

// ToTroubleshootItem converts a parsed Document into a
// TroubleshootItem. Usage counters are taken from front matter so
// callers can preserve them across an update-mode import.
func (d *Document) ToTroubleshootItem() *store.TroubleshootItem {
	item := &store.TroubleshootItem{
		UniqueSlug:    d.FrontMatter.Slug,
		Title:         d.Title,
		AIUseCase:     extractBulletedList(d.Sections["When to Use"]),
		Keywords:      extractBackticked(d.Sections["Keywords"]),
		AISolutions:   d.Sections["Solutions"],
		Tags:          extractBackticked(d.Sections["Tags"]),
		CreatedOn:     d.FrontMatter.CreatedOn,
		LastUpdatedOn: d.FrontMatter.LastUpdatedOn,
	}
	if d.FrontMatter.UsageCount != nil {
		item.UsageCount = *d.FrontMatter.UsageCount
	}
	if d.FrontMatter.SuccessCount != nil {
		item.SuccessCount = *d.FrontMatter.SuccessCount
	}
	return item
}

type relationship struct {
	kind string
	slug string
}

var relationshipLinePattern = regexp.MustCompile("(?m)^-\\s+(child|related):\\s*`([^`]+)`")

func extractRelationships(section string) []relationship {
	matches := relationshipLinePattern.FindAllStringSubmatch(section, -1)
	out := make([]relationship, 0, len(matches))
	for _, m := range matches {
		out = append(out, relationship{kind: m[1], slug: m[2]})
	}
	return out
}

// ImportMode selects how an imported document reconciles with existing storage.
type ImportMode string

const (
	ModeCreateOnly     ImportMode = "create_only"
	ModeUpdateOnly     ImportMode = "update_only"
	ModeCreateOrUpdate ImportMode = "create_or_update"
	ModeReplace        ImportMode = "replace"
)

// RenderHTML converts an exported document's markdown body to HTML,
// continuing the teacher's goldmark.Convert render path (internal/web
// server.go) for callers that want a preview surface rather than raw
// markdown (e.g. a tool response requesting rendered content).
func RenderHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(body), &buf); err != nil {
		return "", jiveerr.Wrap(jiveerr.CodeInternal, "render markdown", err)
	}
	return buf.String(), nil
}

// ValidateNamespace ensures the front matter's declared type matches
// the caller's expected namespace (spec.md §4.9: "validates type
// matches the caller's namespace").
func ValidateNamespace(doc *Document, expected Namespace) error {
	if doc.FrontMatter.Type != expected {
		return jiveerr.New(jiveerr.CodeValidation,
			fmt.Sprintf("document type %q does not match expected namespace %q", doc.FrontMatter.Type, expected))
	}
	return nil
}
