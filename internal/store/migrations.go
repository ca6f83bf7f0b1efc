package store

import "fmt"

// migrate applies pending numbered migrations, continuing the
// teacher's schema_migrations bookkeeping table (internal/db/sqlite.go).
func (d *DB) migrate() error {
	if _, err := d.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var version int
	if err := d.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version); err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationWorkItems},
		{2, migrationExecutionLog},
		{3, migrationMemory},
		{4, migrationConfig},
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := d.Exec(m.sql); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
		if _, err := d.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
	}
	return nil
}

// migrationWorkItems creates the WorkItem table and its keyword index,
// continuing agents/rag/store.go's FTS5 content-table + sync-trigger
// pattern.
const migrationWorkItems = `
CREATE TABLE IF NOT EXISTS work_items (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	description TEXT,
	status TEXT NOT NULL DEFAULT 'not_started',
	priority TEXT NOT NULL DEFAULT 'medium',
	parent_id TEXT REFERENCES work_items(id),
	dependencies TEXT NOT NULL DEFAULT '[]',
	progress_percentage REAL NOT NULL DEFAULT 0,
	acceptance_criteria TEXT NOT NULL DEFAULT '[]',
	tags TEXT NOT NULL DEFAULT '[]',
	context_tags TEXT NOT NULL DEFAULT '[]',
	complexity TEXT,
	effort_estimate REAL,
	actual_hours REAL,
	assignee TEXT,
	reporter TEXT,
	metadata TEXT NOT NULL DEFAULT '{}',
	vector TEXT NOT NULL DEFAULT '[]',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_work_items_parent ON work_items(parent_id);
CREATE INDEX IF NOT EXISTS idx_work_items_status ON work_items(status);
CREATE INDEX IF NOT EXISTS idx_work_items_type ON work_items(type);

CREATE VIRTUAL TABLE IF NOT EXISTS work_items_fts USING fts5(
	id, title, description, content='work_items', content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS work_items_ai AFTER INSERT ON work_items BEGIN
	INSERT INTO work_items_fts(id, title, description) VALUES (new.id, new.title, new.description);
END;
CREATE TRIGGER IF NOT EXISTS work_items_ad AFTER DELETE ON work_items BEGIN
	DELETE FROM work_items_fts WHERE id = old.id;
END;
CREATE TRIGGER IF NOT EXISTS work_items_au AFTER UPDATE ON work_items BEGIN
	DELETE FROM work_items_fts WHERE id = old.id;
	INSERT INTO work_items_fts(id, title, description) VALUES (new.id, new.title, new.description);
END;
`

// migrationExecutionLog creates the ExecutionRecord table (C6).
const migrationExecutionLog = `
CREATE TABLE IF NOT EXISTS execution_log (
	execution_id TEXT PRIMARY KEY,
	work_item_id TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	progress_percentage REAL NOT NULL DEFAULT 0,
	start_time TEXT NOT NULL,
	end_time TEXT,
	error_message TEXT,
	execution_mode TEXT NOT NULL DEFAULT 'sequential',
	agent_context TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_execution_log_work_item ON execution_log(work_item_id);
CREATE INDEX IF NOT EXISTS idx_execution_log_status ON execution_log(status);
`

// migrationMemory creates the two namespaced memory tables (C7):
// architecture_memory and troubleshoot_memory.
const migrationMemory = `
CREATE TABLE IF NOT EXISTS architecture_memory (
	id TEXT PRIMARY KEY,
	unique_slug TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	ai_requirements TEXT NOT NULL DEFAULT '',
	ai_when_to_use TEXT NOT NULL DEFAULT '[]',
	keywords TEXT NOT NULL DEFAULT '[]',
	children_slugs TEXT NOT NULL DEFAULT '[]',
	related_slugs TEXT NOT NULL DEFAULT '[]',
	linked_epic_ids TEXT NOT NULL DEFAULT '[]',
	tags TEXT NOT NULL DEFAULT '[]',
	metadata TEXT NOT NULL DEFAULT '{}',
	vector TEXT NOT NULL DEFAULT '[]',
	created_on TEXT NOT NULL,
	last_updated_on TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS architecture_memory_fts USING fts5(
	id, title, ai_requirements, content='architecture_memory', content_rowid='rowid'
);
CREATE TRIGGER IF NOT EXISTS architecture_memory_ai AFTER INSERT ON architecture_memory BEGIN
	INSERT INTO architecture_memory_fts(id, title, ai_requirements) VALUES (new.id, new.title, new.ai_requirements);
END;
CREATE TRIGGER IF NOT EXISTS architecture_memory_ad AFTER DELETE ON architecture_memory BEGIN
	DELETE FROM architecture_memory_fts WHERE id = old.id;
END;
CREATE TRIGGER IF NOT EXISTS architecture_memory_au AFTER UPDATE ON architecture_memory BEGIN
	DELETE FROM architecture_memory_fts WHERE id = old.id;
	INSERT INTO architecture_memory_fts(id, title, ai_requirements) VALUES (new.id, new.title, new.ai_requirements);
END;

CREATE TABLE IF NOT EXISTS troubleshoot_memory (
	id TEXT PRIMARY KEY,
	unique_slug TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	ai_use_case TEXT NOT NULL DEFAULT '[]',
	ai_solutions TEXT NOT NULL DEFAULT '',
	keywords TEXT NOT NULL DEFAULT '[]',
	tags TEXT NOT NULL DEFAULT '[]',
	metadata TEXT NOT NULL DEFAULT '{}',
	usage_count INTEGER NOT NULL DEFAULT 0,
	success_count INTEGER NOT NULL DEFAULT 0,
	vector TEXT NOT NULL DEFAULT '[]',
	created_on TEXT NOT NULL,
	last_updated_on TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS troubleshoot_memory_fts USING fts5(
	id, title, ai_use_case, ai_solutions, content='troubleshoot_memory', content_rowid='rowid'
);
CREATE TRIGGER IF NOT EXISTS troubleshoot_memory_ai AFTER INSERT ON troubleshoot_memory BEGIN
	INSERT INTO troubleshoot_memory_fts(id, title, ai_use_case, ai_solutions)
	VALUES (new.id, new.title, new.ai_use_case, new.ai_solutions);
END;
CREATE TRIGGER IF NOT EXISTS troubleshoot_memory_ad AFTER DELETE ON troubleshoot_memory BEGIN
	DELETE FROM troubleshoot_memory_fts WHERE id = old.id;
END;
CREATE TRIGGER IF NOT EXISTS troubleshoot_memory_au AFTER UPDATE ON troubleshoot_memory BEGIN
	DELETE FROM troubleshoot_memory_fts WHERE id = old.id;
	INSERT INTO troubleshoot_memory_fts(id, title, ai_use_case, ai_solutions)
	VALUES (new.id, new.title, new.ai_use_case, new.ai_solutions);
END;
`

// migrationConfig creates the runtime configuration snapshot table,
// repurposing the teacher's config key/value table (internal/db
// migration 3) to hold the effective MCP_JIVE_* settings instead of
// kanban board settings.
const migrationConfig = `
CREATE TABLE IF NOT EXISTS config (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

INSERT OR IGNORE INTO config (key, value) VALUES
	('tool_mode', 'consolidated'),
	('legacy_support', 'true'),
	('response_budget_bytes', '50000');
`
