package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/runnerr0/archistory/internal/config"
	"github.com/runnerr0/archistory/internal/snapshot"
	"github.com/runnerr0/archistory/internal/storage"
)

// app bundles the components every subcommand works with.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	snapshots *snapshot.Manager
	executor  *storage.Executor
	searcher  *storage.Searcher
}

// loadConfig reads --config when given, otherwise the default config file,
// creating it with defaults on first use.
func loadConfig(globals *GlobalFlags) (*config.Config, error) {
	if globals != nil && globals.Config != "" {
		return config.Load(globals.Config)
	}
	return config.LoadOrCreate()
}

// openApp loads configuration and wires the snapshot manager, executor and
// searcher.
func openApp(globals *GlobalFlags) (*app, error) {
	cfg, err := loadConfig(globals)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	verbose := globals != nil && globals.Verbose
	return newApp(cfg, newLogger(cfg.Logging, verbose, os.Stderr))
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	dir, err := cfg.SnapshotDir()
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot dir: %w", err)
	}

	sources := make([]snapshot.Source, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		path, err := config.ExpandPath(p.History)
		if err != nil {
			return nil, fmt.Errorf("resolve history path for %s: %w", p.Name, err)
		}
		sources = append(sources, snapshot.Source{Profile: p.Name, HistoryPath: path})
	}

	snapshots := snapshot.New(dir, sources, logger)
	executor := storage.NewExecutor(storage.ExecutorOptions{
		Timeout: cfg.QueryTimeout(),
		Logger:  logger,
	})
	searcher := storage.NewSearcher(snapshots, executor, storage.SearcherOptions{
		Parallelism: cfg.Search.Parallelism,
		Logger:      logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		snapshots: snapshots,
		executor:  executor,
		searcher:  searcher,
	}, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg config.LoggingConfig, verbose bool, w io.Writer) *slog.Logger {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
