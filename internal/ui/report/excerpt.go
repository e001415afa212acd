// # internal/ui/report/excerpt.go
package report

import (
	"bytes"
	"strings"
)

// Excerpt is a window of source lines around a diagnostic location.
type Excerpt struct {
	File string
	// Lines are formatted as "<linenum><mark> <source>", where mark is ':'
	// for the line the diagnostic starts at and ' ' for the rest.
	Lines []string
}

func (e Excerpt) String() string {
	return strings.Join(e.Lines, "\n")
}

// ParseExcerpt returns the failing line with one line before it and four
// after; only the failing line is marked.
func ParseExcerpt(file string, content []byte, line int) Excerpt {
	return buildExcerpt(file, content, line-1, line+4, line, line)
}

// SpanExcerpt returns lines first..last; only the start line is marked.
func SpanExcerpt(file string, content []byte, first, last int) Excerpt {
	return buildExcerpt(file, content, first, last, first, first)
}

func buildExcerpt(file string, content []byte, from, to, markFrom, markTo int) Excerpt {
	ex := Excerpt{File: file}
	lines := splitLines(content)
	if from < 1 {
		from = 1
	}
	if to > len(lines) {
		to = len(lines)
	}
	for n := from; n <= to; n++ {
		ex.Lines = append(ex.Lines, formatContextLine(n, lines[n-1], n >= markFrom && n <= markTo))
	}
	return ex
}

// formatContextLine returns "<linenum><mark> <source>".
func formatContextLine(lineNum int, source string, marked bool) string {
	var b strings.Builder
	b.Grow(8 + len(source))
	b.WriteString(formatLineNum(lineNum))
	if marked {
		b.WriteByte(':')
	} else {
		b.WriteByte(' ')
	}
	b.WriteByte(' ')
	b.WriteString(strings.TrimRight(source, "\r"))
	return b.String()
}

// formatLineNum right-aligns n in six columns.
func formatLineNum(n int) string {
	s := strings.Repeat(" ", 6)
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if len(digits) == 0 {
		digits = []byte{'0'}
	}
	pad := 6 - len(digits)
	if pad < 0 {
		pad = 0
	}
	return s[:pad] + string(digits)
}

// splitLines splits content on newlines, preserving empty lines.
func splitLines(content []byte) []string {
	raw := bytes.Split(content, []byte("\n"))
	lines := make([]string, len(raw))
	for i, b := range raw {
		lines[i] = string(b)
	}
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
