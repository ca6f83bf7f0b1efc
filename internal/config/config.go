// Package config loads jive-mcp's runtime configuration from
// environment variables with flag overrides, continuing
// cmd/factory/main.go's pattern of building a config struct from
// flag.String/flag.Bool values with database-stored fallbacks
// (spec.md §6, SPEC_FULL.md §2.3).
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/jivemcp/jive/internal/store"
)

// Config is the effective runtime configuration for one jive-mcp
// process, merged from environment variables and CLI flags.
type Config struct {
	DBPath         string
	ExportDir      string
	ToolMode       string
	LegacySupport  bool
	Port           int
	ResponseBudget int
}

// Default values used when neither an environment variable nor a
// flag supplies one.
const (
	DefaultDBPath         = "jive.db"
	DefaultExportDir      = "exports"
	DefaultToolMode       = "consolidated"
	DefaultLegacySupport  = true
	DefaultResponseBudget = 50000
)

// FromEnv reads MCP_JIVE_TOOL_MODE, MCP_JIVE_LEGACY_SUPPORT,
// MCP_JIVE_STORAGE_PATH, and MCP_JIVE_EXPORT_DIR, falling back to the
// Default* constants for anything unset.
func FromEnv() Config {
	return Config{
		DBPath:         envOr("MCP_JIVE_STORAGE_PATH", DefaultDBPath),
		ExportDir:      envOr("MCP_JIVE_EXPORT_DIR", DefaultExportDir),
		ToolMode:       envOr("MCP_JIVE_TOOL_MODE", DefaultToolMode),
		LegacySupport:  envBoolOr("MCP_JIVE_LEGACY_SUPPORT", DefaultLegacySupport),
		ResponseBudget: DefaultResponseBudget,
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

// LoadDBOverrides reads the effective-configuration snapshot stored
// in the config table (internal/store's repurposing of the teacher's
// internal/db/sqlite.go migration 3) and applies any value present
// there over c's current fields, mirroring cmd/factory/main.go's
// "read database config values as fallbacks" step. Flags parsed after
// this call still win, since callers apply flag overrides last.
func LoadDBOverrides(c *Config, db *store.DB) error {
	rows, err := db.Query(`SELECT key, value FROM config`)
	if err != nil {
		return fmt.Errorf("read config table: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan config row: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate config rows: %w", err)
	}

	if v, ok := values["tool_mode"]; ok && v != "" {
		c.ToolMode = v
	}
	if v, ok := values["legacy_support"]; ok && v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			c.LegacySupport = parsed
		}
	}
	if v, ok := values["response_budget_bytes"]; ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.ResponseBudget = parsed
		}
	}
	return nil
}

// Persist writes c's tool_mode, legacy_support, and
// response_budget_bytes back into the config table so the snapshot on
// disk reflects the settings actually in effect for this run.
func Persist(c Config, db *store.DB) error {
	_, err := db.Exec(`
		INSERT INTO config (key, value) VALUES (?, ?), (?, ?), (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		"tool_mode", c.ToolMode,
		"legacy_support", strconv.FormatBool(c.LegacySupport),
		"response_budget_bytes", strconv.Itoa(c.ResponseBudget),
	)
	if err != nil {
		return fmt.Errorf("persist config: %w", err)
	}
	return nil
}

// FreePort briefly binds port on host (port 0 asks the OS for an
// ephemeral one) and returns the port number that was bound, or an
// error if it could not be bound. Reproduces
// original_source's utils/port_manager.py probing minimally, for
// local dev convenience when the optional HTTP/WebSocket transport is
// enabled with --port 0 (SPEC_FULL.md §4).
func FreePort(host string, port int) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return 0, fmt.Errorf("find free port: %w", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// IsPortAvailable reports whether port is currently free for binding
// on host, without holding the listener open.
func IsPortAvailable(host string, port int) bool {
	l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	l.Close()
	return true
}
