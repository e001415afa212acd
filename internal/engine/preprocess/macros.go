package preprocess

import (
	"regexp"
	"strings"
)

// SentinelType marks constants synthesized from object-like macros.
const SentinelType = "_DEFINE"

// SentinelDecl declares SentinelType so the rewritten macros parse.
const SentinelDecl = "typedef int " + SentinelType + ";"

var (
	objectMacroRe = regexp.MustCompile(`^#define\s+([a-zA-Z_][_a-zA-Z0-9]*)[ \t]+(\S.*)$`)
	directiveRe   = regexp.MustCompile(`^\s*#`)
)

// Literalize rewrites each object-like macro line into a constant of
// SentinelType whose initializer is the macro body as a string literal. Every
// other directive line is blanked, so the line count never changes.
func Literalize(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		lines[i] = literalizeLine(line)
	}
	return strings.Join(lines, "\n")
}

func literalizeLine(line string) string {
	if !directiveRe.MatchString(line) {
		return line
	}
	m := objectMacroRe.FindStringSubmatch(strings.TrimRight(line, " \t\r"))
	if m == nil {
		return ""
	}
	return "const " + SentinelType + " " + m[1] + " = " + quote(m[2]) + ";"
}

// quote renders s as a C string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// Unquote reverses quote for a C string literal produced by Literalize.
func Unquote(lit string) (string, bool) {
	if len(lit) < 2 || lit[0] != '"' || lit[len(lit)-1] != '"' {
		return "", false
	}
	body := lit[1 : len(lit)-1]
	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(body) {
			return "", false
		}
		i++
		b.WriteByte(body[i])
	}
	return b.String(), true
}
