// # internal/engine/preprocess/runner.go
package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"hbind/internal/core/errors"
)

// NoCommand disables the external preprocessor; the header is read verbatim.
const NoCommand = "none"

var DefaultArgs = []string{"-E", "-dD", "-undef", "-nostdinc"}

// Runner invokes the external C preprocessor.
type Runner struct {
	Command     string
	Args        []string
	IncludeDirs []string
	Timeout     time.Duration
}

func NewRunner(command string, args, includeDirs []string, timeout time.Duration) *Runner {
	if strings.TrimSpace(command) == "" {
		command = "gcc"
	}
	if args == nil {
		args = DefaultArgs
	}
	return &Runner{Command: command, Args: args, IncludeDirs: includeDirs, Timeout: timeout}
}

// CommandLine returns the argv used to preprocess header (relative to root).
func (r *Runner) CommandLine(root, header string) []string {
	argv := append([]string{r.Command}, r.Args...)
	for _, dir := range r.IncludeDirs {
		argv = append(argv, "-I"+dir)
	}
	argv = append(argv, "-I"+root, header)
	return argv
}

// Run preprocesses header inside root and returns the raw output, line
// markers included.
func (r *Runner) Run(ctx context.Context, root, header string) (string, error) {
	if r.Command == NoCommand {
		data, err := os.ReadFile(filepath.Join(root, header))
		if err != nil {
			return "", errors.Wrap(err, errors.CodeNotFound, "read header")
		}
		return fmt.Sprintf("# 1 %q\n", header) + string(data), nil
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	argv := r.CommandLine(root, header)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "preprocessor failed"
		}
		return "", errors.AddContext(
			errors.Wrap(err, errors.CodePreprocessFailure, msg),
			errors.CtxOperation, strings.Join(argv, " "),
		)
	}
	return stdout.String(), nil
}
