// # internal/engine/scalar/scalar.go
package scalar

import (
	"regexp"
	"strings"
)

// Category groups the scalar rules by priority.
type Category int

const (
	// CategoryWidth covers spellings that carry their width, e.g. uint32_t.
	CategoryWidth Category = iota
	// CategoryFixed covers C keyword spellings with a fixed concrete width.
	CategoryFixed
	// CategoryPlatform covers spellings whose width depends on the target.
	CategoryPlatform
)

// rule pairs an anchored pattern with the token it maps to.
type rule struct {
	re       *regexp.Regexp
	category Category
	mapping  func(m []string) string
}

func fixed(token string) func([]string) string {
	return func([]string) string { return token }
}

// rules is evaluated top-to-bottom; first match wins.
var rules = func() []rule {
	specs := []struct {
		pattern  string
		category Category
		mapping  func([]string) string
	}{
		// Width-parameterized spellings.
		{`_*([Uu]?)[Ii]nt([1-9][0-9]*).*`, CategoryWidth, func(m []string) string {
			return strings.ToUpper(m[1]) + "Int" + m[2]
		}},
		{`_*[Ff]loat([1-9][0-9]*).*`, CategoryWidth, func(m []string) string {
			return "Float" + m[1]
		}},

		// Fixed-width C spellings.
		{`signed char`, CategoryFixed, fixed("Int8")},
		{`(unsigned )?char`, CategoryFixed, fixed("UInt8")},
		{`(signed )?short( int)?`, CategoryFixed, fixed("Int16")},
		{`unsigned short( int)?`, CategoryFixed, fixed("UInt16")},
		{`signed|(signed )?int`, CategoryFixed, fixed("Int32")},
		{`unsigned( int)?`, CategoryFixed, fixed("UInt32")},
		{`(signed )?long long( int)?`, CategoryFixed, fixed("Int64")},
		{`unsigned long long( int)?`, CategoryFixed, fixed("UInt64")},
		{`float`, CategoryFixed, fixed("Float32")},
		{`(long )?double`, CategoryFixed, fixed("Float64")},
		{`_Bool|bool`, CategoryFixed, fixed("Bool")},

		// Platform-width spellings.
		{`(signed )?long( int)?`, CategoryPlatform, fixed("LibC::Long")},
		{`unsigned long( int)?`, CategoryPlatform, fixed("LibC::ULong")},
		{`size_t|uintptr_t`, CategoryPlatform, fixed("LibC::SizeT")},
		{`ssize_t|intptr_t`, CategoryPlatform, fixed("LibC::SSizeT")},
		{`ptrdiff_t`, CategoryPlatform, fixed("LibC::PtrdiffT")},
	}

	out := make([]rule, 0, len(specs))
	for _, s := range specs {
		out = append(out, rule{
			re:       regexp.MustCompile(`^(?:` + s.pattern + `)$`),
			category: s.category,
			mapping:  s.mapping,
		})
	}
	return out
}()

// Match maps a C scalar spelling to its Crystal token. ok is false when the
// spelling is not a native scalar.
func Match(spelling string) (token string, ok bool) {
	token, _, ok = Classify(spelling)
	return token, ok
}

// Classify is Match plus the category of the rule that matched.
func Classify(spelling string) (string, Category, bool) {
	spelling = strings.Join(strings.Fields(spelling), " ")
	if spelling == "" {
		return "", 0, false
	}
	for _, r := range rules {
		m := r.re.FindStringSubmatch(spelling)
		if m == nil {
			continue
		}
		return r.mapping(m), r.category, true
	}
	return "", 0, false
}
