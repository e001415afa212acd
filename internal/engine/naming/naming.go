package naming

import (
	"strings"

	"hbind/internal/engine/scalar"
)

// Escape is appended to identifiers that collide with a reserved word.
const Escape = "_"

// Keywords are the Crystal reserved words.
var Keywords = func() map[string]bool {
	words := strings.Fields(`alias and begin break case class def defined do else elsif end ensure
		false for if in module next nil not or redo rescue retry return self super then true
		undef unless until when while yield BEGIN END`)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}()

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func toLower(c byte) byte {
	if isUpper(c) {
		return c + ('a' - 'A')
	}
	return c
}

func toUpper(c byte) byte {
	if isLower(c) {
		return c - ('a' - 'A')
	}
	return c
}

// ToSnake converts camelCase and PascalCase identifiers, acronyms included,
// into snake_case.
func ToSnake(name string) string {
	// A single capital starting a lowercase word opens a new word.
	var b strings.Builder
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isUpper(c) && i+1 < len(name) {
			next := name[i+1]
			if !isUpper(next) && !isDigit(next) && next != '_' {
				b.WriteByte('_')
				b.WriteByte(toLower(c))
				continue
			}
		}
		b.WriteByte(c)
	}
	s := b.String()

	// Remaining capital runs are acronyms; fence them with separators.
	b.Reset()
	for i := 0; i < len(s); {
		if !isUpper(s[i]) {
			b.WriteByte(s[i])
			i++
			continue
		}
		b.WriteByte('_')
		for i < len(s) && isUpper(s[i]) {
			b.WriteByte(toLower(s[i]))
			i++
		}
		b.WriteByte('_')
	}

	return collapseSeparators(b.String())
}

func collapseSeparators(s string) string {
	var b strings.Builder
	prev := byte(0)
	for i := 0; i < len(s); i++ {
		if s[i] == '_' && prev == '_' {
			continue
		}
		b.WriteByte(s[i])
		prev = s[i]
	}
	return strings.Trim(b.String(), "_")
}

// ToCapitals converts snake_case into CamelCase: separators are removed and
// the letter after each one is upper-cased, as is the first letter.
func ToCapitals(name string) string {
	var b strings.Builder
	upper := true
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper {
			c = toUpper(c)
			upper = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Unkeyword appends Escape until name is no longer a reserved word.
func Unkeyword(name string) string {
	for Keywords[name] {
		name += Escape
	}
	return name
}

// FuncName is the binding name for a C function.
func FuncName(name string) string {
	return Unkeyword(ToSnake(name))
}

// VarName is the binding name for variables, parameters and members.
func VarName(name string) string {
	return Unkeyword(ToSnake(name))
}

// ConstName is the binding name for constants and enumerators.
func ConstName(name string) string {
	return strings.ToUpper(Unkeyword(ToSnake(name)))
}

// TypeName maps a C type spelling to its binding type name. Native scalar
// spellings map to their Crystal token verbatim.
func TypeName(spelling string) string {
	if token, ok := scalar.Match(spelling); ok {
		return token
	}
	return Unkeyword(ToCapitals(strings.Join(strings.Fields(spelling), "_")))
}
