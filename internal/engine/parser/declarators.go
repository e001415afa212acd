package parser

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"hbind/internal/engine/ast"
)

// specifier converts a type specifier node. quals are the declaration
// qualifiers that apply to it.
func (c *converter) specifier(node *sitter.Node, quals []string) ast.Type {
	if node == nil {
		return &ast.Named{Parts: []string{"int"}, Quals: quals}
	}
	at := c.coord(node)

	switch node.Kind() {
	case "primitive_type", "sized_type_specifier", "type_identifier":
		return &ast.Named{At: at, Parts: strings.Fields(c.text(node)), Quals: quals}
	case "struct_specifier", "union_specifier":
		agg := &ast.Aggregate{At: at, Kind: ast.StructKind, Name: c.text(node.ChildByFieldName("name"))}
		if node.Kind() == "union_specifier" {
			agg.Kind = ast.UnionKind
		}
		if body := node.ChildByFieldName("body"); body != nil {
			agg.HasBody = true
			agg.Members = c.members(body)
		}
		return agg
	case "enum_specifier":
		enum := &ast.Enum{At: at, Name: c.text(node.ChildByFieldName("name"))}
		if body := node.ChildByFieldName("body"); body != nil {
			enum.HasBody = true
			for _, item := range c.childrenOfKind(body, "enumerator") {
				enum.Enumerators = append(enum.Enumerators, &ast.Enumerator{
					At:    c.coord(item),
					Name:  c.text(item.ChildByFieldName("name")),
					Value: c.expr(item.ChildByFieldName("value")),
				})
			}
		}
		return enum
	}
	return &ast.Raw{At: at, Text: strings.TrimSpace(c.text(node))}
}

func (c *converter) members(body *sitter.Node) []*ast.Member {
	var members []*ast.Member
	for _, field := range c.childrenOfKind(body, "field_declaration") {
		base := c.specifier(field.ChildByFieldName("type"), c.qualifiers(field))

		var bits *ast.Expr
		if clause := c.childrenOfKind(field, "bitfield_clause"); len(clause) > 0 {
			bits = c.expr(clause[0].NamedChild(0))
		}

		declarators := c.fieldChildren(field, "declarator")
		if len(declarators) == 0 {
			members = append(members, &ast.Member{At: c.coord(field), Type: base, Bits: bits})
			continue
		}
		for _, d := range declarators {
			name, typ := c.declarator(d, base)
			members = append(members, &ast.Member{At: c.coord(field), Name: name, Type: typ, Bits: bits})
		}
	}
	return members
}

// declarator unwraps a (possibly abstract) declarator from the outside in,
// wrapping t at each level, and returns the declared name.
func (c *converter) declarator(node *sitter.Node, t ast.Type) (string, ast.Type) {
	for node != nil {
		at := c.coord(node)
		switch node.Kind() {
		case "identifier", "type_identifier", "field_identifier", "primitive_type":
			return c.text(node), t
		case "pointer_declarator", "abstract_pointer_declarator":
			t = &ast.Pointer{At: at, Elem: t, Quals: c.qualifiers(node)}
			node = node.ChildByFieldName("declarator")
		case "array_declarator", "abstract_array_declarator":
			arr := &ast.Array{At: at, Elem: t}
			if size := node.ChildByFieldName("size"); size != nil && size.IsNamed() {
				arr.Dim = c.expr(size)
			}
			t = arr
			node = node.ChildByFieldName("declarator")
		case "function_declarator", "abstract_function_declarator":
			t = c.function(node.ChildByFieldName("parameters"), t)
			node = node.ChildByFieldName("declarator")
		case "parenthesized_declarator", "abstract_parenthesized_declarator", "attributed_declarator":
			node = c.firstDeclarator(node)
		default:
			return "", &ast.Raw{At: at, Text: strings.TrimSpace(c.text(node))}
		}
	}
	return "", t
}

// firstDeclarator returns the wrapped declarator of a parenthesized or
// attributed declarator, skipping comments and attributes.
func (c *converter) firstDeclarator(node *sitter.Node) *sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		switch child.Kind() {
		case "comment", "attribute_declaration", "attribute_specifier", "ms_call_modifier":
			continue
		}
		return child
	}
	return nil
}

func (c *converter) function(params *sitter.Node, result ast.Type) *ast.Func {
	fn := &ast.Func{At: c.coord(params), Result: result}
	if params == nil {
		return fn
	}
	for i := uint(0); i < params.NamedChildCount(); i++ {
		p := params.NamedChild(i)
		switch p.Kind() {
		case "parameter_declaration":
			base := c.specifier(p.ChildByFieldName("type"), c.qualifiers(p))
			name, typ := c.declarator(p.ChildByFieldName("declarator"), base)
			fn.Params = append(fn.Params, &ast.Param{At: c.coord(p), Name: name, Type: typ})
		case "variadic_parameter":
			fn.Variadic = true
		}
	}
	return fn
}
