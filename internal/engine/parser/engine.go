package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"hbind/internal/engine/ast"
	"hbind/internal/engine/preprocess"
)

// declHandler converts one top-level grammar node into declarations.
type declHandler func(c *converter, node *sitter.Node) []ast.Decl

// converter walks a C syntax tree and builds the declaration list, mapping
// every node back to its origin through the unit's line table.
type converter struct {
	unit     *preprocess.Unit
	source   []byte
	handlers map[string]declHandler
}

func newConverter(unit *preprocess.Unit, source []byte) *converter {
	return &converter{
		unit:   unit,
		source: source,
		handlers: map[string]declHandler{
			"declaration":           (*converter).declaration,
			"type_definition":       (*converter).typeDefinition,
			"function_definition":   (*converter).functionDefinition,
			"struct_specifier":      (*converter).bareSpecifier,
			"union_specifier":       (*converter).bareSpecifier,
			"enum_specifier":        (*converter).bareSpecifier,
			"linkage_specification": (*converter).linkage,
			"declaration_list":      (*converter).items,
			"comment":               nil,
		},
	}
}

// items converts every top-level child of node in order.
func (c *converter) items(node *sitter.Node) []ast.Decl {
	var decls []ast.Decl
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		handler, known := c.handlers[child.Kind()]
		if !known {
			decls = append(decls, &ast.Unsupported{At: c.coord(child), Syntax: c.syntax(child, "")})
			continue
		}
		if handler != nil {
			decls = append(decls, handler(c, child)...)
		}
	}
	return decls
}

func (c *converter) linkage(node *sitter.Node) []ast.Decl {
	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if body.Kind() == "declaration_list" {
		return c.items(body)
	}
	if handler := c.handlers[body.Kind()]; handler != nil {
		return handler(c, body)
	}
	return []ast.Decl{&ast.Unsupported{At: c.coord(body), Syntax: c.syntax(body, "")}}
}

func (c *converter) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(c.source[node.StartByte():node.EndByte()])
}

func (c *converter) coord(node *sitter.Node) ast.Coord {
	if node == nil {
		return ast.Coord{}
	}
	return c.unit.Coord(int(node.StartPosition().Row) + 1)
}

// fieldChildren returns every child of node stored under field, in order.
func (c *converter) fieldChildren(node *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if node.FieldNameForChild(uint32(i)) == field {
			out = append(out, node.Child(i))
		}
	}
	return out
}

// childrenOfKind returns the direct children of node with the given kind.
func (c *converter) childrenOfKind(node *sitter.Node, kind string) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}

func (c *converter) qualifiers(node *sitter.Node) []string {
	var quals []string
	for _, q := range c.childrenOfKind(node, "type_qualifier") {
		quals = append(quals, strings.TrimSpace(c.text(q)))
	}
	return quals
}

func (c *converter) expr(node *sitter.Node) *ast.Expr {
	if node == nil {
		return nil
	}
	return &ast.Expr{At: c.coord(node), Type: node.Kind(), Text: strings.TrimSpace(c.text(node))}
}

// syntax snapshots node and its named children for constructs without a
// typed representation.
func (c *converter) syntax(node *sitter.Node, field string) *ast.Syntax {
	s := &ast.Syntax{At: c.coord(node), Type: node.Kind(), Field: field}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil || !child.IsNamed() {
			continue
		}
		s.Children = append(s.Children, c.syntax(child, node.FieldNameForChild(uint32(i))))
	}
	if len(s.Children) == 0 {
		s.Text = strings.TrimSpace(c.text(node))
	}
	return s
}
