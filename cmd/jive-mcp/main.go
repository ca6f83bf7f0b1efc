// jive-mcp is the MCP server binary exposing the consolidated
// work-item, hierarchy, execution, progress, memory, and sync tools
// over stdio. Continues cmd/factory/main.go's flag-parsing, DB-first
// startup, and signal-handling shape.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jivemcp/jive/internal/config"
	"github.com/jivemcp/jive/internal/jiveerr"
	"github.com/jivemcp/jive/internal/markdown"
	"github.com/jivemcp/jive/internal/mcp"
	"github.com/jivemcp/jive/internal/store"
	"github.com/jivemcp/jive/internal/tools"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

const (
	exitOK         = 0
	exitValidation = 1
	exitInternal   = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitValidation
	}

	if args[0] == "-version" || args[0] == "--version" {
		fmt.Printf("jive-mcp %s (commit: %s, built: %s)\n", version, gitCommit, buildTime)
		return exitOK
	}

	switch args[0] {
	case "server":
		return runServerCmd(args[1:])
	case "sync":
		return runSyncCmd(args[1:])
	default:
		printUsage()
		return exitValidation
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage:
  jive-mcp server start [flags]
  jive-mcp sync export --dir PATH [--namespace architecture|troubleshoot]
  jive-mcp sync import --dir PATH --mode create_only|update_only|create_or_update|replace
  jive-mcp -version

flags:
  --db PATH              sqlite database path (env MCP_JIVE_STORAGE_PATH)
  --export-dir PATH       markdown export directory (env MCP_JIVE_EXPORT_DIR)
  --legacy-support BOOL   add a deprecation note to responses for legacy tool aliases; aliases are accepted either way (env MCP_JIVE_LEGACY_SUPPORT)
  --tool-mode MODE        reserved for future tool surfaces (env MCP_JIVE_TOOL_MODE)
  --port N                optional local port probe for a future HTTP/WebSocket transport; 0 picks a free port
  --response-budget N     response envelope byte budget`)
}

// configFlags holds the parsed pointers for the shared set of
// configuration flags, so a subcommand can register its own
// additional flags on the same FlagSet before calling fs.Parse once.
type configFlags struct {
	dbPath         *string
	exportDir      *string
	legacySupport  *bool
	toolMode       *string
	port           *int
	responseBudget *int
}

func registerConfigFlags(fs *flag.FlagSet, cfg config.Config) *configFlags {
	return &configFlags{
		dbPath:         fs.String("db", cfg.DBPath, "sqlite database path"),
		exportDir:      fs.String("export-dir", cfg.ExportDir, "markdown export directory"),
		legacySupport:  fs.Bool("legacy-support", cfg.LegacySupport, "add a deprecation note to responses for legacy tool aliases"),
		toolMode:       fs.String("tool-mode", cfg.ToolMode, "reserved for future tool surfaces"),
		port:           fs.Int("port", 0, "optional local port probe; 0 picks a free port"),
		responseBudget: fs.Int("response-budget", cfg.ResponseBudget, "response envelope byte budget"),
	}
}

func (f *configFlags) apply(cfg config.Config) config.Config {
	cfg.DBPath = *f.dbPath
	cfg.ExportDir = *f.exportDir
	cfg.LegacySupport = *f.legacySupport
	cfg.ToolMode = *f.toolMode
	cfg.Port = *f.port
	cfg.ResponseBudget = *f.responseBudget
	return cfg
}

func buildConfig(fs *flag.FlagSet, args []string) (config.Config, error) {
	cfg := config.FromEnv()
	flags := registerConfigFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	return flags.apply(cfg), nil
}

func runServerCmd(args []string) int {
	if len(args) == 0 || args[0] != "start" {
		printUsage()
		return exitValidation
	}

	fs := flag.NewFlagSet("server start", flag.ContinueOnError)
	cfg, err := buildConfig(fs, args[1:])
	if err != nil {
		return exitValidation
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		return exitInternal
	}
	defer db.Close()

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
	stored := cfg
	if err := config.LoadDBOverrides(&stored, db); err != nil {
		logger.Warn("load config overrides", "error", err)
	} else {
		if !explicit["tool-mode"] {
			cfg.ToolMode = stored.ToolMode
		}
		if !explicit["legacy-support"] {
			cfg.LegacySupport = stored.LegacySupport
		}
		if !explicit["response-budget"] {
			cfg.ResponseBudget = stored.ResponseBudget
		}
	}
	if err := config.Persist(cfg, db); err != nil {
		logger.Warn("persist config snapshot", "error", err)
	}

	if cfg.Port != 0 || portRequested(args[1:]) {
		if cfg.Port == 0 || !config.IsPortAvailable("localhost", cfg.Port) {
			free, err := config.FreePort("localhost", 0)
			if err != nil {
				logger.Error("find free port", "error", err)
				return exitInternal
			}
			if cfg.Port != 0 {
				logger.Warn("requested port unavailable, found a free one", "requested", cfg.Port, "free", free)
			}
			cfg.Port = free
		}
	}

	facade := store.NewFacade(db, nil)
	components := tools.NewComponents(facade, cfg.ExportDir)

	registry := mcp.NewRegistry()
	tools.Register(registry, components)

	dispatcher, err := mcp.NewDispatcher(registry, facade, cfg.LegacySupport, cfg.ResponseBudget)
	if err != nil {
		logger.Error("build dispatcher", "error", err)
		return exitInternal
	}

	server := mcp.NewServer("jive-mcp", version, registry, dispatcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("jive-mcp server starting", "db", cfg.DBPath, "export_dir", cfg.ExportDir, "tool_mode", cfg.ToolMode, "legacy_support", cfg.LegacySupport)
	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("server error", "error", err)
		return exitInternal
	}
	return exitOK
}

// portRequested reports whether --port was explicitly passed, since
// fs.Int's zero value is indistinguishable from an explicit 0.
func portRequested(args []string) bool {
	for _, a := range args {
		if a == "--port" || a == "-port" {
			return true
		}
	}
	return false
}

func runSyncCmd(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitValidation
	}

	switch args[0] {
	case "export":
		return runSyncExport(args[1:])
	case "import":
		return runSyncImport(args[1:])
	default:
		printUsage()
		return exitValidation
	}
}

func runSyncExport(args []string) int {
	fs := flag.NewFlagSet("sync export", flag.ContinueOnError)
	baseCfg := config.FromEnv()
	flags := registerConfigFlags(fs, baseCfg)
	var namespace, dir string
	fs.StringVar(&namespace, "namespace", "", "architecture|troubleshoot; omit for both")
	fs.StringVar(&dir, "dir", "", "export directory; defaults to --export-dir")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}
	cfg := flags.apply(baseCfg)
	if dir == "" {
		dir = cfg.ExportDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		return exitInternal
	}
	defer db.Close()

	facade := store.NewFacade(db, nil)
	components := tools.NewComponents(facade, dir)

	callArgs := map[string]any{"action": "export", "dir": dir}
	if namespace != "" {
		callArgs["namespace"] = namespace
	}
	result, err := components.SyncData(syntheticCallContext(facade), callArgs)
	if err != nil {
		logger.Error("export failed", "error", err)
		return exitValidationOrInternal(err)
	}
	fmt.Printf("%+v\n", result)
	return exitOK
}

func runSyncImport(args []string) int {
	fs := flag.NewFlagSet("sync import", flag.ContinueOnError)
	baseCfg := config.FromEnv()
	flags := registerConfigFlags(fs, baseCfg)
	var mode, namespace, dir string
	fs.StringVar(&mode, "mode", string(markdown.ModeCreateOrUpdate), "create_only|update_only|create_or_update|replace")
	fs.StringVar(&namespace, "namespace", "", "architecture|troubleshoot; omit for both")
	fs.StringVar(&dir, "dir", "", "import directory; defaults to --export-dir")
	if err := fs.Parse(args); err != nil {
		return exitValidation
	}
	cfg := flags.apply(baseCfg)
	if dir == "" {
		dir = cfg.ExportDir
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	db, err := store.OpenDB(cfg.DBPath)
	if err != nil {
		logger.Error("open database", "error", err)
		return exitInternal
	}
	defer db.Close()

	facade := store.NewFacade(db, nil)
	components := tools.NewComponents(facade, dir)

	callArgs := map[string]any{"action": "import", "dir": dir, "mode": mode}
	if namespace != "" {
		callArgs["namespace"] = namespace
	}
	result, err := components.SyncData(syntheticCallContext(facade), callArgs)
	if err != nil {
		logger.Error("import failed", "error", err)
		return exitValidationOrInternal(err)
	}
	fmt.Printf("%+v\n", result)
	return exitOK
}

func exitValidationOrInternal(err error) int {
	switch jiveerr.CodeOf(err) {
	case jiveerr.CodeValidation, jiveerr.CodeNotFound, jiveerr.CodeConflict:
		return exitValidation
	default:
		return exitInternal
	}
}

// syntheticCallContext builds a *mcp.CallContext for the sync CLI
// path, which calls tool handlers directly rather than through the
// dispatcher (no schema validation or backpressure needed for a local
// one-shot command).
func syntheticCallContext(facade *store.Facade) *mcp.CallContext {
	return mcp.NewCallContext(context.Background(), facade)
}
