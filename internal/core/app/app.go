package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"hbind/internal/core/config"
	"hbind/internal/core/ports"
	"hbind/internal/data/history"
	"hbind/internal/engine/parser"
	"hbind/internal/engine/preprocess"
)

// Dependencies lets callers replace the collaborators New would build.
// Preprocessor and History are optional; a nil Preprocessor is built from
// the configuration and rebuilt on every config update.
type Dependencies struct {
	Preprocessor ports.Preprocessor
	Parser       ports.DeclarationParser
	History      ports.HistoryStore
	Stdout       io.Writer
	Stderr       io.Writer
	Logger       *slog.Logger
}

// App drives generation runs. Runs are serialized; configuration can be
// swapped between runs.
type App struct {
	cfgMu        sync.RWMutex
	config       *config.Config
	filter       *preprocess.Filter
	preprocessor ports.Preprocessor
	ownRunner    bool
	configPath   string

	parser  ports.DeclarationParser
	history ports.HistoryStore
	closers []io.Closer

	stdout io.Writer
	stderr io.Writer
	logger *slog.Logger

	runMu    sync.Mutex
	statusMu sync.RWMutex
	last     *RunStatus
}

var _ ports.GenerationService = (*App)(nil)

// New builds an App with the tree-sitter parser, the configured preprocessor
// and, when enabled, the SQLite history store.
func New(cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	p, err := parser.NewParser(parser.NewGrammarLoader())
	if err != nil {
		return nil, err
	}

	deps := Dependencies{Parser: p, Stdout: stdout, Stderr: stderr, Logger: logger}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(cfg.History.Path, cfg.History.BusyTimeout)
		switch {
		case err == nil:
			deps.History = store
		case history.IsCorruptError(err):
			logger.Warn("history store unreadable, continuing without history", "path", cfg.History.Path, "error", err)
		default:
			return nil, err
		}
	}

	a, err := NewWithDependencies(cfg, deps)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, err
	}
	if store != nil {
		a.closers = append(a.closers, store)
	}
	return a, nil
}

func NewWithDependencies(cfg *config.Config, deps Dependencies) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Parser == nil {
		return nil, fmt.Errorf("declaration parser is required")
	}

	a := &App{
		parser:  deps.Parser,
		history: deps.History,
		stdout:  deps.Stdout,
		stderr:  deps.Stderr,
		logger:  deps.Logger,
	}
	if a.stdout == nil {
		a.stdout = os.Stdout
	}
	if a.stderr == nil {
		a.stderr = os.Stderr
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if deps.Preprocessor != nil {
		a.preprocessor = deps.Preprocessor
	} else {
		a.ownRunner = true
	}

	if err := a.UpdateConfig(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateConfig installs cfg for subsequent runs. A run in progress keeps the
// configuration it started with.
func (a *App) UpdateConfig(cfg *config.Config) error {
	filter, err := preprocess.NewFilter(cfg.Filter.InternalHeaders)
	if err != nil {
		return fmt.Errorf("invalid internal header pattern: %w", err)
	}

	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	a.config = cfg
	a.filter = filter
	if a.ownRunner {
		a.preprocessor = preprocess.NewRunner(
			cfg.Preprocessor.Command,
			cfg.Preprocessor.Args,
			cfg.Preprocessor.IncludeDirs,
			cfg.Preprocessor.Timeout,
		)
	}
	return nil
}

func (a *App) Config() *config.Config {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.config
}

func (a *App) snapshot() (*config.Config, *preprocess.Filter, ports.Preprocessor) {
	a.cfgMu.RLock()
	defer a.cfgMu.RUnlock()
	return a.config, a.filter, a.preprocessor
}

// History returns the run store, or nil when history is disabled.
func (a *App) History() ports.HistoryStore {
	return a.history
}

func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}

	// Wait for an in-flight run so its history row is written.
	done := make(chan struct{})
	go func() {
		a.runMu.Lock()
		close(done)
		a.runMu.Unlock()
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var firstErr error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
