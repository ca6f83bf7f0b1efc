package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/markdown"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/store"
)

// SyncData implements jive_sync_data: export memory items to markdown,
// import markdown back into storage, or report sync status (spec.md
// §4.9, §6). namespace selects architecture or troubleshoot; omitting
// it operates on both.
func (c *Components) SyncData(ctx *mcp.CallContext, args map[string]any) (any, error) {
	action, err := argString(args, "action")
	if err != nil {
		return nil, err
	}

	dir := optString(args, "dir")
	if dir == "" {
		dir = c.ExportDir
	}
	if dir == "" {
		return nil, jiveerr.Validation("dir", nil, "non-empty path", "no export directory configured")
	}

	namespaces := []string{"architecture", "troubleshoot"}
	if ns := optString(args, "namespace"); ns != "" {
		namespaces = []string{ns}
	}

	switch action {
	case "export":
		return c.exportNamespaces(ctx, dir, namespaces)
	case "import":
		mode := markdown.ImportMode(optString(args, "mode"))
		if mode == "" {
			mode = markdown.ModeCreateOrUpdate
		}
		return c.importNamespaces(ctx, dir, namespaces, mode)
	case "status":
		return c.syncStatus(dir, namespaces)
	default:
		return nil, jiveerr.Validation("action", action, "export|import|status", "unknown action")
	}
}

func (c *Components) exportNamespaces(ctx context.Context, dir string, namespaces []string) (any, error) {
	written := map[string][]string{}
	for _, ns := range namespaces {
		nsDir := filepath.Join(dir, ns)
		if err := os.MkdirAll(nsDir, 0o755); err != nil {
			return nil, jiveerr.Wrap(jiveerr.CodeInternal, "create export directory", err)
		}
		switch ns {
		case "architecture":
			items, err := c.Architecture.List(ctx, 100000, 0)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				doc := markdown.ExportArchitecture(item, 1)
				path := filepath.Join(nsDir, item.UniqueSlug+".md")
				if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
					return nil, jiveerr.Wrap(jiveerr.CodeInternal, "write export file", err)
				}
				written[ns] = append(written[ns], path)
			}
		case "troubleshoot":
			items, err := c.Troubleshoot.List(ctx, 100000, 0)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				doc := markdown.ExportTroubleshoot(item, 1)
				path := filepath.Join(nsDir, item.UniqueSlug+".md")
				if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
					return nil, jiveerr.Wrap(jiveerr.CodeInternal, "write export file", err)
				}
				written[ns] = append(written[ns], path)
			}
		default:
			return nil, jiveerr.Validation("namespace", ns, "architecture|troubleshoot", "unknown namespace")
		}
	}
	total := 0
	for _, files := range written {
		total += len(files)
	}
	return map[string]any{"exported": written, "count": total}, nil
}

func (c *Components) importNamespaces(ctx context.Context, dir string, namespaces []string, mode markdown.ImportMode) (any, error) {
	imported := map[string][]string{}
	for _, ns := range namespaces {
		nsDir := filepath.Join(dir, ns)
		entries, err := os.ReadDir(nsDir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, jiveerr.Wrap(jiveerr.CodeInternal, "read import directory", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
				continue
			}
			raw, err := os.ReadFile(filepath.Join(nsDir, entry.Name()))
			if err != nil {
				return nil, jiveerr.Wrap(jiveerr.CodeInternal, "read import file", err)
			}
			doc, err := markdown.Parse(string(raw))
			if err != nil {
				return nil, err
			}
			if err := markdown.ValidateNamespace(doc, markdown.Namespace(ns)); err != nil {
				return nil, err
			}
			slug, err := c.importOne(ctx, ns, doc, mode)
			if err != nil {
				return nil, err
			}
			imported[ns] = append(imported[ns], slug)
		}
	}
	total := 0
	for _, slugs := range imported {
		total += len(slugs)
	}
	return map[string]any{"imported": imported, "count": total}, nil
}

func (c *Components) importOne(ctx context.Context, ns string, doc *markdown.Document, mode markdown.ImportMode) (string, error) {
	switch ns {
	case "architecture":
		existing, err := c.Architecture.Get(ctx, doc.FrontMatter.Slug)
		if err != nil {
			return "", err
		}
		item := doc.ToArchitectureItem()
		return item.UniqueSlug, reconcileArchitecture(ctx, c, existing, item, mode)
	case "troubleshoot":
		existing, err := c.Troubleshoot.Get(ctx, doc.FrontMatter.Slug)
		if err != nil {
			return "", err
		}
		item := doc.ToTroubleshootItem()
		return item.UniqueSlug, reconcileTroubleshoot(ctx, c, existing, item, mode)
	default:
		return "", jiveerr.Validation("namespace", ns, "architecture|troubleshoot", "unknown namespace")
	}
}

func reconcileArchitecture(ctx context.Context, c *Components, existing *store.ArchitectureItem, item *store.ArchitectureItem, mode markdown.ImportMode) error {
	switch mode {
	case markdown.ModeCreateOnly:
		if existing != nil {
			return jiveerr.New(jiveerr.CodeConflict, "architecture item already exists: "+item.UniqueSlug)
		}
		return c.Architecture.Create(ctx, item)
	case markdown.ModeUpdateOnly:
		if existing == nil {
			return jiveerr.NotFound(item.UniqueSlug, nil)
		}
		if err := c.Architecture.Delete(ctx, item.UniqueSlug); err != nil {
			return err
		}
		return c.Architecture.Create(ctx, item)
	case markdown.ModeReplace:
		if existing != nil {
			if err := c.Architecture.Delete(ctx, item.UniqueSlug); err != nil {
				return err
			}
		}
		return c.Architecture.Create(ctx, item)
	case markdown.ModeCreateOrUpdate, "":
		if existing != nil {
			if err := c.Architecture.Delete(ctx, item.UniqueSlug); err != nil {
				return err
			}
		}
		return c.Architecture.Create(ctx, item)
	default:
		return jiveerr.Validation("mode", mode, "create_only|update_only|create_or_update|replace", "unknown import mode")
	}
}

func reconcileTroubleshoot(ctx context.Context, c *Components, existing *store.TroubleshootItem, item *store.TroubleshootItem, mode markdown.ImportMode) error {
	// Troubleshoot imports preserve existing usage counters on update
	// (spec.md §4.9), so an update path keeps the stored counts rather
	// than the document's own front-matter counters when both exist.
	if existing != nil && (mode == markdown.ModeUpdateOnly || mode == markdown.ModeCreateOrUpdate) {
		item.UsageCount = existing.UsageCount
		item.SuccessCount = existing.SuccessCount
	}
	switch mode {
	case markdown.ModeCreateOnly:
		if existing != nil {
			return jiveerr.New(jiveerr.CodeConflict, "troubleshoot item already exists: "+item.UniqueSlug)
		}
		return c.Troubleshoot.Create(ctx, item)
	case markdown.ModeUpdateOnly:
		if existing == nil {
			return jiveerr.NotFound(item.UniqueSlug, nil)
		}
		if err := c.Troubleshoot.Delete(ctx, item.UniqueSlug); err != nil {
			return err
		}
		return c.Troubleshoot.Create(ctx, item)
	case markdown.ModeReplace:
		if existing != nil {
			if err := c.Troubleshoot.Delete(ctx, item.UniqueSlug); err != nil {
				return err
			}
		}
		return c.Troubleshoot.Create(ctx, item)
	case markdown.ModeCreateOrUpdate, "":
		if existing != nil {
			if err := c.Troubleshoot.Delete(ctx, item.UniqueSlug); err != nil {
				return err
			}
		}
		return c.Troubleshoot.Create(ctx, item)
	default:
		return jiveerr.Validation("mode", mode, "create_only|update_only|create_or_update|replace", "unknown import mode")
	}
}

func (c *Components) syncStatus(dir string, namespaces []string) (any, error) {
	status := map[string]any{}
	for _, ns := range namespaces {
		nsDir := filepath.Join(dir, ns)
		entries, err := os.ReadDir(nsDir)
		if err != nil {
			if os.IsNotExist(err) {
				status[ns] = map[string]any{"exists": false, "file_count": 0}
				continue
			}
			return nil, jiveerr.Wrap(jiveerr.CodeInternal, "stat export directory", err)
		}
		count := 0
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".md") {
				count++
			}
		}
		status[ns] = map[string]any{"exists": true, "file_count": count}
	}
	return map[string]any{"dir": dir, "namespaces": status}, nil
}
