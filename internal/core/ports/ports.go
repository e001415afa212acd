package ports

import (
	"context"
	"time"

	"hbind/internal/data/history"
	"hbind/internal/engine/ast"
	"hbind/internal/engine/binding"
	"hbind/internal/engine/preprocess"
)

// Preprocessor abstracts the external C preprocessor.
type Preprocessor interface {
	Run(ctx context.Context, root, header string) (string, error)
}

// DeclarationParser abstracts turning a preprocessed unit into top-level
// declarations.
type DeclarationParser interface {
	Parse(ctx context.Context, unit *preprocess.Unit) ([]ast.Decl, error)
}

// HistoryStore abstracts generation run persistence.
type HistoryStore interface {
	SaveRun(run history.Run) (history.Run, error)
	LoadRuns(header string, since time.Time) ([]history.Run, error)
	LatestSuccess(header string) (history.Run, bool, error)
	Prune(header string, keep int) (int64, error)
}

// Reporter renders stage banners and error diagnostics.
type Reporter interface {
	Banner(stage string)
	Report(err error)
}

// GenerateRequest names the header to translate. Empty Root and Output fall
// back to the configured values.
type GenerateRequest struct {
	Header string
	Root   string
	Output string
}

// GenerateResult summarizes a completed generation run.
type GenerateResult struct {
	RunID        string
	Header       string
	Root         string
	OutputPath   string
	Module       *binding.Module
	Text         string
	Declarations int
	Duration     time.Duration
	Written      bool
	// Unchanged is set when the output matches the previous successful run.
	Unchanged bool
}

// GenerationService is the driving port used by the CLI.
type GenerationService interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Watch(ctx context.Context, req GenerateRequest) error
	Close(ctx context.Context) error
}
