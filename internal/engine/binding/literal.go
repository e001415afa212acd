package binding

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"hbind/internal/core/errors"
)

var (
	intLiteralRe   = regexp.MustCompile(`^(0[xX][0-9a-fA-F]+|0[bB][01]+|0[0-7]*|[1-9][0-9]*)([uU][lL]{0,2}|[lL]{1,2}[uU]?)?$`)
	floatLiteralRe = regexp.MustCompile(`^([0-9]*\.[0-9]+|[0-9]+\.[0-9]*|[0-9]+(?:[eE][+-]?[0-9]+))([eE][+-]?[0-9]+)?[fFlL]?$`)
	charLiteralRe  = regexp.MustCompile(`^'(?:[^'\\]|\\[\\'"0abefnrtv])'$`)
	stringBodyRe   = regexp.MustCompile(`^"(?:[^"\\]|\\.)*"$`)
)

// EvalLiteral evaluates the body of an object-like macro when it is a plain
// literal, optionally parenthesized or signed, and renders it as a Crystal
// literal. Anything else is a LITERAL_EVALUATION error; callers fall back
// to the source text.
func EvalLiteral(src string) (string, error) {
	s := strings.TrimSpace(src)
	for isWrapped(s) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return "", literalError(src, "empty expression")
	}

	if s[0] == '-' || s[0] == '+' {
		v, err := EvalLiteral(s[1:])
		if err != nil {
			return "", err
		}
		if !isNumeric(v) {
			return "", literalError(src, "sign applied to a non-numeric literal")
		}
		if s[0] == '-' {
			return "-" + v, nil
		}
		return v, nil
	}

	switch {
	case intLiteralRe.MatchString(s):
		return intLiteral(src, s)
	case floatLiteralRe.MatchString(s):
		return floatLiteral(s), nil
	case charLiteralRe.MatchString(s):
		return s, nil
	case stringBodyRe.MatchString(s):
		return s, nil
	}
	return "", literalError(src, "not a literal")
}

func intLiteral(src, s string) (string, error) {
	m := intLiteralRe.FindStringSubmatch(s)
	digits := m[1]

	var text string
	var base int
	switch {
	case len(digits) > 1 && (digits[1] == 'x' || digits[1] == 'X'):
		text, base = "0x"+strings.ToUpper(digits[2:]), 16
	case len(digits) > 1 && (digits[1] == 'b' || digits[1] == 'B'):
		text, base = "0b"+digits[2:], 2
	case len(digits) > 1 && digits[0] == '0':
		text, base = "0o"+digits[1:], 8
	default:
		text, base = digits, 10
	}

	raw := digits
	if base != 10 {
		raw = text[2:]
	}
	v, err := strconv.ParseUint(raw, base, 64)
	if err != nil {
		return "", literalError(src, "integer out of range")
	}
	if v > math.MaxInt64 {
		text += "_u64"
	}
	return text, nil
}

func floatLiteral(s string) string {
	s = strings.TrimRight(s, "fFlL")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		if i > 0 && s[i-1] == '.' {
			s = s[:i] + "0" + s[i:]
		}
		if !strings.Contains(s[:i], ".") {
			s = s[:i] + ".0" + s[i:]
		}
		return s
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	return s
}

// isWrapped reports whether s is enclosed in one pair of matching parens.
func isWrapped(s string) bool {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

func isNumeric(v string) bool {
	return v != "" && v[0] >= '0' && v[0] <= '9'
}

func literalError(src, reason string) error {
	return errors.AddContext(
		errors.New(errors.CodeLiteralEvaluation, fmt.Sprintf("cannot evaluate %q: %s", src, reason)),
		errors.CtxOperation, "literal",
	)
}
