package app

import (
	"context"
	"os"
	"path/filepath"

	"hbind/internal/core/config"
	"hbind/internal/core/errors"
	"hbind/internal/core/ports"
	"hbind/internal/core/watcher"
	"hbind/internal/engine/ast"
	"hbind/internal/engine/preprocess"
	"hbind/internal/shared/observability"
	"hbind/internal/shared/util"
)

// SetConfigPath makes Watch reload the configuration from path when it
// changes on disk.
func (a *App) SetConfigPath(path string) {
	a.cfgMu.Lock()
	defer a.cfgMu.Unlock()
	a.configPath = path
}

// Watch generates once, then regenerates whenever a header below the include
// root changes, until ctx is canceled. Generation errors are reported and
// watching continues; only setup errors are returned.
func (a *App) Watch(ctx context.Context, req ports.GenerateRequest) error {
	cfg := a.Config()

	if _, err := a.Generate(ctx, req); err != nil && errors.IsCode(err, errors.CodeValidationError) {
		return err
	}

	root, _, err := preprocess.ResolveRoot(req.Header, firstNonEmpty(req.Root, cfg.Lib.Root))
	if err != nil {
		return err
	}

	trigger := make(chan struct{}, 1)
	notify := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	w, err := watcher.NewWatcher(cfg.Watch.Debounce, cfg.Watch.Exclude, func(paths []string) {
		a.logger.Info("headers changed", "count", len(paths), "first", paths[0])
		notify()
	})
	if err != nil {
		return errors.Wrap(err, errors.CodeValidationError, "create watcher")
	}
	defer w.Close()

	roots := a.watchRoots(root, cfg)
	if err := w.Watch(roots); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "watch include root")
	}

	limiter := util.NewLimiter(cfg.Watch.MaxRunsPerSecond, cfg.Watch.Burst)

	reconfigured := make(chan *config.Config, 1)
	a.cfgMu.RLock()
	configPath := a.configPath
	a.cfgMu.RUnlock()
	if configPath != "" {
		cw := config.NewWatcher(configPath, func(next *config.Config) {
			select {
			case reconfigured <- next:
			default:
				// A newer config replaces one the loop has not picked up yet.
				select {
				case <-reconfigured:
				default:
				}
				reconfigured <- next
			}
		}, a.logger)
		if err := cw.Start(ctx); err != nil {
			a.logger.Warn("config reload disabled", "path", configPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	a.logger.Info("watching for header changes", "roots", roots)

	for {
		select {
		case <-ctx.Done():
			return nil

		case next := <-reconfigured:
			if err := a.UpdateConfig(next); err != nil {
				a.logger.Error("config update rejected", "error", err)
				continue
			}
			w.SetDebounce(next.Watch.Debounce)
			limiter.SetRate(next.Watch.MaxRunsPerSecond, next.Watch.Burst)
			a.logger.Info("configuration reloaded")
			notify()

		case <-trigger:
			if d := limiter.Delay(); d > 0 {
				observability.WatchRunsThrottledTotal.Inc()
				a.logger.Debug("regeneration throttled", "delay", d)
			}
			if err := limiter.Wait(ctx, 1); err != nil {
				return nil
			}
			// Errors are already rendered by Generate.
			_, _ = a.Generate(ctx, req)
		}
	}
}

// watchRoots returns the include root plus every configured include dir that
// exists and does not hold internal headers.
func (a *App) watchRoots(root string, cfg *config.Config) []string {
	_, filter, _ := a.snapshot()
	roots := []string{root}
	seen := map[string]bool{root: true}
	for _, dir := range cfg.Preprocessor.IncludeDirs {
		abs, err := filepath.Abs(dir)
		if err != nil || seen[abs] {
			continue
		}
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			continue
		}
		if filter.Internal(ast.Coord{File: filepath.Join(abs, "probe.h")}) {
			continue
		}
		seen[abs] = true
		roots = append(roots, abs)
	}
	return roots
}
