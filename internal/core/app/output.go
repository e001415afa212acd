package app

import (
	"bytes"
	"io"
	"os"

	"hbind/internal/core/errors"
	"hbind/internal/shared/util"
)

// writeOutput writes text to path, or to stdout when path is empty. A file
// whose content already equals text is left untouched and reported as
// unchanged.
func (a *App) writeOutput(path, text string) (written, unchanged bool, err error) {
	if path == "" {
		if _, err := io.WriteString(a.stdout, text); err != nil {
			return false, false, errors.Wrap(err, errors.CodeOutputWriteFailure, "write module to stdout")
		}
		return true, false, nil
	}

	if existing, readErr := os.ReadFile(path); readErr == nil && bytes.Equal(existing, []byte(text)) {
		return false, true, nil
	}

	if err := util.WriteStringAtomic(path, text, 0o644); err != nil {
		return false, false, errors.AddContext(
			errors.Wrap(err, errors.CodeOutputWriteFailure, "write module"),
			errors.CtxPath, path,
		)
	}
	return true, false, nil
}
