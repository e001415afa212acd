package app

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"hbind/internal/core/errors"
	"hbind/internal/core/ports"
	"hbind/internal/engine/ast"
	"hbind/internal/engine/binding"
	"hbind/internal/engine/preprocess"
	"hbind/internal/shared/observability"
	"hbind/internal/shared/util"
	"hbind/internal/ui/report"
)

const (
	stagePreprocess = "preprocess"
	stageParse      = "parse"
	stageTransform  = "transform"
	stageWrite      = "write"
)

// Generate runs the whole pipeline for one header: preprocess, parse,
// translate and write. Output is only written when every stage succeeded.
// Errors are rendered to stderr before they are returned.
func (a *App) Generate(ctx context.Context, req ports.GenerateRequest) (res ports.GenerateResult, err error) {
	a.runMu.Lock()
	defer a.runMu.Unlock()

	cfg, filter, pre := a.snapshot()

	ctx, span := observability.Tracer.Start(ctx, "app.Generate",
		trace.WithAttributes(attribute.String("hbind.header", req.Header)))
	defer span.End()

	start := time.Now()
	res = ports.GenerateResult{
		Header:     req.Header,
		OutputPath: firstNonEmpty(req.Output, cfg.Output.Path),
	}
	var reporter ports.Reporter = report.NewDiagnostics(a.stderr, "", filter.Internal)

	defer func() {
		res.Duration = time.Since(start)
		a.record(cfg.Lib.Name, cfg.History.Retention, &res, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(errors.CodeOf(err)))
			reporter.Report(err)
		}
	}()

	root, rel, err := preprocess.ResolveRoot(req.Header, firstNonEmpty(req.Root, cfg.Lib.Root))
	if err != nil {
		return res, err
	}
	res.Root = root
	res.Header = filepath.Join(root, rel)
	reporter = report.NewDiagnostics(a.stderr, root, filter.Internal)
	a.logger.Debug("include root resolved", "root", root, "header", rel)

	reporter.Banner("Preprocessing")
	var raw string
	err = runStage(ctx, stagePreprocess, func(ctx context.Context) error {
		var stageErr error
		raw, stageErr = pre.Run(ctx, root, rel)
		return stageErr
	})
	if err != nil {
		return res, errors.AddContext(err, errors.CtxPath, rel)
	}

	reporter.Banner("Parsing")
	var decls []ast.Decl
	err = runStage(ctx, stageParse, func(ctx context.Context) error {
		var stageErr error
		decls, stageErr = a.parser.Parse(ctx, preprocess.NewUnit(raw, rel))
		return stageErr
	})
	if err != nil {
		return res, err
	}
	res.Declarations = len(decls)
	for _, d := range decls {
		observability.DeclarationsTotal.WithLabelValues(d.NodeKind()).Inc()
	}

	reporter.Banner("Transforming")
	err = runStage(ctx, stageTransform, func(context.Context) error {
		mod, stageErr := binding.Generate(decls, binding.Options{
			LibName:  cfg.Lib.Name,
			Internal: filter.Internal,
			Logger:   a.logger,
		})
		if stageErr != nil {
			return stageErr
		}
		res.Module = mod
		res.Text = mod.String()
		return nil
	})
	if err != nil {
		return res, err
	}
	observability.ModuleEntries.Set(float64(len(res.Module.Entries)))
	observability.OpaqueTypes.Set(float64(res.Module.OpaqueTypes))

	if res.OutputPath == "" {
		res.Unchanged = a.matchesLastSuccess(res.Header, res.Text)
	}
	err = runStage(ctx, stageWrite, func(context.Context) error {
		written, unchanged, stageErr := a.writeOutput(res.OutputPath, res.Text)
		res.Written = written
		res.Unchanged = res.Unchanged || unchanged
		return stageErr
	})
	if err != nil {
		return res, err
	}

	a.logger.Info("bindings generated",
		"header", res.Header,
		"declarations", res.Declarations,
		"entries", len(res.Module.Entries),
		"stubs", len(res.Module.Stubs),
		"output", outputLabel(res.OutputPath),
		"unchanged", res.Unchanged,
	)
	return res, nil
}

// runStage times fn into the stage histogram under its own span.
func runStage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := observability.Tracer.Start(ctx, "stage."+name)
	defer span.End()
	timer := prometheus.NewTimer(observability.StageDuration.WithLabelValues(name))
	defer timer.ObserveDuration()

	if err := ctx.Err(); err != nil {
		return err
	}
	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.CodeOf(err)))
	}
	return err
}

// matchesLastSuccess reports whether text equals the output of the previous
// successful run for header, as recorded in history.
func (a *App) matchesLastSuccess(header, text string) bool {
	if a.history == nil {
		return false
	}
	prev, ok, err := a.history.LatestSuccess(header)
	if err != nil {
		a.logger.Debug("history lookup failed", "header", header, "error", err)
		return false
	}
	return ok && prev.OutputHash == util.HashString(text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func outputLabel(path string) string {
	if path == "" {
		return "stdout"
	}
	return path
}
