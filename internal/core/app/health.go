package app

import (
	"context"
	"time"

	"hbind/internal/core/errors"
	"hbind/internal/core/ports"
	"hbind/internal/data/history"
	"hbind/internal/shared/observability"
	"hbind/internal/shared/util"
)

// RunStatus is the outcome of the most recent generation run.
type RunStatus struct {
	RunID     string        `json:"run_id,omitempty"`
	Header    string        `json:"header"`
	Status    string        `json:"status"`
	ErrorCode string        `json:"error_code,omitempty"`
	Message   string        `json:"message,omitempty"`
	Finished  time.Time     `json:"finished"`
	Duration  time.Duration `json:"duration"`
}

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
	LastRun    *RunStatus        `json:"last_run,omitempty"`
}

// record updates metrics, the last-run status and the history store for a
// finished run. History failures are logged, never returned.
func (a *App) record(libName string, retention int, res *ports.GenerateResult, runErr error) {
	status := history.StatusOK
	code := ""
	msg := ""
	if runErr != nil {
		status = history.StatusFailed
		code = string(errors.CodeOf(runErr))
		msg = runErr.Error()
	}
	label := status
	if code != "" {
		label = code
	}
	observability.RunsTotal.WithLabelValues(label).Inc()
	if res.Unchanged {
		observability.OutputUnchangedTotal.Inc()
	}

	run := history.Run{
		Header:     res.Header,
		LibName:    libName,
		Duration:   res.Duration,
		Status:     status,
		ErrorCode:  code,
		Message:    msg,
		DeclCount:  res.Declarations,
		OutputPath: res.OutputPath,
	}
	if res.Module != nil {
		run.EntryCount = len(res.Module.Entries)
		run.StubCount = len(res.Module.Stubs)
		run.OpaqueCount = res.Module.OpaqueTypes
		run.OutputHash = util.HashString(res.Text)
	}

	if a.history != nil {
		saved, err := a.history.SaveRun(run)
		if err != nil {
			a.logger.Warn("failed to record run", "header", run.Header, "error", err)
		} else {
			res.RunID = saved.ID
			run = saved
			if removed, err := a.history.Prune(run.Header, retention); err != nil {
				a.logger.Warn("failed to prune history", "header", run.Header, "error", err)
			} else if removed > 0 {
				a.logger.Debug("pruned history", "header", run.Header, "removed", removed)
			}
		}
	}

	a.statusMu.Lock()
	a.last = &RunStatus{
		RunID:     run.ID,
		Header:    run.Header,
		Status:    status,
		ErrorCode: code,
		Message:   msg,
		Finished:  time.Now().UTC(),
		Duration:  run.Duration,
	}
	a.statusMu.Unlock()
}

// LastRun returns the outcome of the most recent run, or nil before the
// first one.
func (a *App) LastRun() *RunStatus {
	a.statusMu.RLock()
	defer a.statusMu.RUnlock()
	if a.last == nil {
		return nil
	}
	copied := *a.last
	return &copied
}

type HealthService struct {
	app *App
}

func NewHealthService(app *App) *HealthService {
	return &HealthService{app: app}
}

// Check reports "degraded" when the last run failed, "up" otherwise.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	if s.app.parser != nil {
		status.Components["parser"] = "ok"
	} else {
		status.Status = "degraded"
		status.Components["parser"] = "missing"
	}

	if s.app.history != nil {
		status.Components["history"] = "ok"
	} else if cfg := s.app.Config(); cfg != nil && cfg.History.Enabled {
		status.Status = "degraded"
		status.Components["history"] = "missing but enabled in config"
	} else {
		status.Components["history"] = "disabled"
	}

	if last := s.app.LastRun(); last != nil {
		status.LastRun = last
		status.Components["last_run"] = last.Status
		if last.Status != history.StatusOK {
			status.Status = "degraded"
		}
	} else {
		status.Components["last_run"] = "none"
	}

	return status
}

// Handler adapts Check to the observability server.
func (s *HealthService) Handler(ctx context.Context) (any, bool) {
	status := s.Check(ctx)
	return status, status.Status == "up"
}
