package preprocess

import (
	"fmt"
	"path/filepath"

	"hbind/internal/core/errors"
)

// ResolveRoot determines the include root for header and returns it together
// with the header path relative to it. Without an explicit root the header's
// directory is used, or the nearest enclosing "include" directory.
func ResolveRoot(header, root string) (string, string, error) {
	absHeader, err := filepath.Abs(header)
	if err != nil {
		return "", "", errors.Wrap(err, errors.CodeValidationError, "resolve header path")
	}

	if root == "" {
		root = filepath.Dir(absHeader)
		for dir := root; ; dir = filepath.Dir(dir) {
			if filepath.Base(dir) == "include" {
				root = dir
				break
			}
			if filepath.Dir(dir) == dir {
				break
			}
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", "", errors.Wrap(err, errors.CodeValidationError, "resolve include root")
	}
	rel, err := filepath.Rel(absRoot, absHeader)
	if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return "", "", errors.New(errors.CodeValidationError,
			fmt.Sprintf("header %s is not inside include root %s", header, root))
	}
	return absRoot, rel, nil
}
