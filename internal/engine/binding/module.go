package binding

import "strings"

const indent = "  "

// Module is a rendered binding: the lib entries in emission order and the
// free-standing def stubs generated from function definitions.
type Module struct {
	Name    string
	Entries []string
	Stubs   []string
	// OpaqueTypes counts the "type X = Void*" entries.
	OpaqueTypes int
}

// String renders the complete module text, newline terminated.
func (m *Module) String() string {
	var b strings.Builder
	b.WriteString("lib " + m.Name + "\n")
	if len(m.Entries) > 0 {
		b.WriteString(indentLines(strings.Join(m.Entries, "\n\n"), indent))
		b.WriteString("\n")
	}
	b.WriteString("end\n")
	if len(m.Stubs) > 0 {
		b.WriteString("\n")
		b.WriteString(strings.Join(m.Stubs, "\n\n"))
		b.WriteString("\n")
	}
	return b.String()
}

// indentLines prefixes every non-blank line of text.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
