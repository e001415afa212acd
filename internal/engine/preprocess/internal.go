package preprocess

import (
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"hbind/internal/engine/ast"
)

// DefaultInternalPatterns match the bundled fake libc headers and the system
// include trees.
var DefaultInternalPatterns = []string{
	"**/fake_libc_include/**",
	"/usr/include/**",
	"/usr/lib/gcc/**",
}

var pseudoFiles = map[string]bool{
	"":               true,
	BuiltinFile:      true,
	"<command-line>": true,
	"<stdin>":        false,
}

// Filter decides whether a coordinate comes from internal or bundled header
// material that must not appear in the bindings.
type Filter struct {
	patterns []glob.Glob
}

func NewFilter(patterns []string) (*Filter, error) {
	f := &Filter{}
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(filepath.ToSlash(pattern), '/')
		if err != nil {
			return nil, err
		}
		f.patterns = append(f.patterns, g)
	}
	return f, nil
}

// Internal reports whether c originates from internal header material.
func (f *Filter) Internal(c ast.Coord) bool {
	if internal, known := pseudoFiles[c.File]; known {
		return internal
	}
	if f == nil {
		return false
	}
	path := filepath.ToSlash(filepath.Clean(c.File))
	for _, g := range f.patterns {
		if g.Match(path) {
			return true
		}
	}
	return false
}
