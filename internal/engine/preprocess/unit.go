package preprocess

import (
	"regexp"
	"strconv"
	"strings"

	"hbind/internal/engine/ast"
)

// BuiltinFile is the pseudo file used for text the tool injects itself.
const BuiltinFile = "<built-in>"

var lineMarkerRe = regexp.MustCompile(`^#(?:line)?\s*([0-9]+)\s*(?:"((?:[^"\\]|\\.)*)")?`)

// Unit is preprocessed source ready for the declaration parser, plus the
// original coordinate of every line.
type Unit struct {
	Source string
	// Lines[i] is the origin of line i+1 of Source.
	Lines []ast.Coord
}

// Coord maps a 1-based line of Source back to its origin.
func (u *Unit) Coord(line int) ast.Coord {
	if line < 1 || line > len(u.Lines) {
		return ast.Coord{}
	}
	return u.Lines[line-1]
}

// Line returns the text of a 1-based line of Source.
func (u *Unit) Line(line int) string {
	lines := strings.Split(u.Source, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// NewUnit turns raw preprocessor output into a Unit: line markers are
// consumed into the coordinate table, object-like macros are literalized and
// the sentinel declaration is injected as the first line.
func NewUnit(raw, defaultFile string) *Unit {
	rawLines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	lines := make([]string, 0, len(rawLines)+1)
	coords := make([]ast.Coord, 0, len(rawLines)+1)

	lines = append(lines, SentinelDecl)
	coords = append(coords, ast.Coord{File: BuiltinFile, Line: 1})

	file, next := defaultFile, 1
	for _, line := range rawLines {
		if m := lineMarkerRe.FindStringSubmatch(line); m != nil && isLineMarker(line) {
			if n, err := strconv.Atoi(m[1]); err == nil {
				next = n
			}
			if m[2] != "" {
				file = unescapeMarkerPath(m[2])
			}
			lines = append(lines, "")
			coords = append(coords, ast.Coord{File: file, Line: 0})
			continue
		}
		lines = append(lines, literalizeLine(line))
		coords = append(coords, ast.Coord{File: file, Line: next})
		next++
	}

	return &Unit{Source: strings.Join(lines, "\n"), Lines: coords}
}

// isLineMarker distinguishes "# 12 "file"" markers from directives such as
// "#define" that also start with '#'.
func isLineMarker(line string) bool {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "#"))
	rest = strings.TrimPrefix(rest, "line")
	rest = strings.TrimSpace(rest)
	return rest != "" && rest[0] >= '0' && rest[0] <= '9'
}

func unescapeMarkerPath(p string) string {
	if !strings.Contains(p, `\`) {
		return p
	}
	if s, ok := Unquote(`"` + p + `"`); ok {
		return s
	}
	return p
}
