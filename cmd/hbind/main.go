package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"hbind/internal/core/app"
	"hbind/internal/core/config"
	"hbind/internal/core/ports"
	"hbind/internal/data/history"
	"hbind/internal/engine/preprocess"
	"hbind/internal/shared/observability"
)

const VERSION = "0.3.0"

const usage = `usage: hbind [flags] <header.h> [include-root]

Translates the declarations of a C header into a Crystal lib binding.
The include root defaults to the nearest enclosing "include" directory,
or the header's own directory.

`

// options holds the parsed command line.
type options struct {
	configPath  string
	output      string
	libName     string
	metricsAddr string
	watch       bool
	showHistory bool
	verbose     bool
	version     bool
	explicitCfg bool
	header      string
	root        string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("hbind", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", config.DefaultPath, "Path to config file")
	fs.StringVar(&opts.output, "o", "", "Write the binding to this file instead of stdout")
	fs.StringVar(&opts.libName, "lib", "", "Name of the generated lib block")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address")
	fs.BoolVar(&opts.watch, "watch", false, "Regenerate whenever a header below the include root changes")
	fs.BoolVar(&opts.showHistory, "history", false, "Print recorded generation runs for the header and exit")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			opts.explicitCfg = true
		}
	})
	if opts.version {
		return opts, nil
	}

	switch fs.NArg() {
	case 1:
		opts.header = fs.Arg(0)
	case 2:
		opts.header, opts.root = fs.Arg(0), fs.Arg(1)
	default:
		fs.Usage()
		return opts, fmt.Errorf("expected a header and an optional include root, got %d arguments", fs.NArg())
	}
	return opts, nil
}

// loadConfig layers the config file, HBIND_* environment variables and
// command line flags, in that order, and validates the result.
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.LoadOptional(opts.configPath, opts.explicitCfg)
	if err != nil {
		return nil, err
	}
	config.ApplyEnvOverrides(cfg)

	if opts.libName != "" {
		cfg.Lib.Name = opts.libName
	}
	if opts.output != "" {
		cfg.Output.Path = opts.output
	}
	if opts.root != "" {
		cfg.Lib.Root = opts.root
	}
	if opts.metricsAddr != "" {
		cfg.Observability.MetricsAddr = opts.metricsAddr
	}

	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if opts.version {
		fmt.Fprintf(stdout, "hbind v%s\n", VERSION)
		return 0
	}

	logLevel := slog.LevelInfo
	if opts.verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}

	if opts.showHistory {
		if err := printHistory(stdout, cfg, opts.header); err != nil {
			logger.Error("failed to read history", "error", err)
			return 1
		}
		return 0
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Observability.ServiceName, cfg.Observability.OTLPEndpoint)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	} else {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				logger.Warn("tracing shutdown failed", "error", err)
			}
		}()
	}

	a, err := app.New(cfg, stdout, stderr, logger)
	if err != nil {
		logger.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.Close(cctx); err != nil {
			logger.Warn("shutdown incomplete", "error", err)
		}
	}()

	if addr := cfg.Observability.MetricsAddr; addr != "" {
		srv := observability.NewServer(addr, app.NewHealthService(a).Handler)
		if err := srv.Start(ctx); err != nil {
			logger.Error("failed to start metrics server", "addr", addr, "error", err)
			return 1
		}
		logger.Info("metrics server listening", "addr", srv.Addr())
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Stop(sctx)
		}()
	}

	req := ports.GenerateRequest{Header: opts.header}
	if opts.watch {
		if opts.explicitCfg || fileExists(opts.configPath) {
			a.SetConfigPath(opts.configPath)
		}
		if err := a.Watch(ctx, req); err != nil {
			return 1
		}
		return 0
	}

	// Generate renders its own diagnostics.
	if _, err := a.Generate(ctx, req); err != nil {
		return 1
	}
	return 0
}

func printHistory(w io.Writer, cfg *config.Config, header string) error {
	root, rel, err := preprocess.ResolveRoot(header, cfg.Lib.Root)
	if err != nil {
		return err
	}
	abs := filepath.Join(root, rel)

	store, err := history.Open(cfg.History.Path, cfg.History.BusyTimeout)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.LoadRuns(abs, time.Time{})
	if err != nil {
		return err
	}
	s := history.Summarize(abs, runs)

	fmt.Fprintf(w, "%s\n", s.Header)
	fmt.Fprintf(w, "  runs: %d  failures: %d  output changes: %d  avg: %s\n",
		s.RunCount, s.FailureCount, s.OutputChanges, s.AvgDuration.Round(time.Millisecond))
	if !s.LastSuccess.IsZero() {
		fmt.Fprintf(w, "  last success: %s\n", s.LastSuccess.Format(time.RFC3339))
	}
	if !s.LastFailure.IsZero() {
		fmt.Fprintf(w, "  last failure: %s\n", s.LastFailure.Format(time.RFC3339))
	}
	for _, r := range runs {
		line := fmt.Sprintf("  %s  %-6s  %4d decls  %4d entries", r.Timestamp.Format(time.RFC3339), r.Status, r.DeclCount, r.EntryCount)
		if !r.Succeeded() {
			line += "  " + r.ErrorCode + ": " + r.Message
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
