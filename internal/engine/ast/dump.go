package ast

import (
	"fmt"
	"strings"
)

// Walk visits n and its descendants depth-first. Returning false from fn
// skips the children of the current node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, f := range n.Fields() {
		switch v := f.Value.(type) {
		case Node:
			Walk(v, fn)
		case []Node:
			for _, child := range v {
				Walk(child, fn)
			}
		}
	}
}

// Dump renders a structured, indented view of the subtree rooted at n. Nodes
// whose coordinate is internal are rendered as empty values.
func Dump(n Node, internal func(Coord) bool) string {
	return strings.Join(dumpLines(n, internal), "\n")
}

func dumpLines(n Node, internal func(Coord) bool) []string {
	if n == nil {
		return []string{"None"}
	}
	pos := n.Pos()
	if !pos.IsZero() && internal != nil && internal(pos) {
		return []string{""}
	}

	head := n.NodeKind()
	if pos.File != "" {
		head += " #" + pos.File
		if pos.Line > 0 {
			head += fmt.Sprintf(":%d", pos.Line)
		}
	}
	lines := []string{head}
	for _, f := range n.Fields() {
		var value []string
		switch v := f.Value.(type) {
		case Node:
			value = dumpLines(v, internal)
		case []Node:
			value = dumpList(v, internal)
		case string:
			value = []string{fmt.Sprintf("%q", v)}
		case nil:
			value = []string{"None"}
		default:
			value = []string{fmt.Sprintf("%v", v)}
		}
		lines = append(lines, "    "+f.Name+": "+value[0])
		for _, l := range value[1:] {
			lines = append(lines, "    "+l)
		}
	}
	return lines
}

func dumpList(nodes []Node, internal func(Coord) bool) []string {
	if len(nodes) == 0 {
		return []string{"[]"}
	}
	lines := []string{fmt.Sprintf("[%d]", len(nodes))}
	for i, n := range nodes {
		value := dumpLines(n, internal)
		lines = append(lines, fmt.Sprintf("    %d: %s", i, value[0]))
		for _, l := range value[1:] {
			lines = append(lines, "    "+l)
		}
	}
	return lines
}

// LineSpan returns the smallest and largest line touched by a
// coordinate-bearing node in the subtree that lives in the same file as n.
// ok is false when no such coordinate exists.
func LineSpan(n Node, internal func(Coord) bool) (file string, first, last int, ok bool) {
	if n == nil {
		return "", 0, 0, false
	}
	file = n.Pos().File
	Walk(n, func(node Node) bool {
		pos := node.Pos()
		if pos.Line == 0 || pos.File != file {
			return true
		}
		if internal != nil && internal(pos) {
			return true
		}
		if !ok || pos.Line < first {
			first = pos.Line
		}
		if !ok || pos.Line > last {
			last = pos.Line
		}
		ok = true
		return true
	})
	return file, first, last, ok
}
