package parser

import (
	"slices"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"hbind/internal/engine/ast"
	"hbind/internal/engine/preprocess"
)

// declaration splits "T a, *b = x;" into one declaration per declarator.
func (c *converter) declaration(node *sitter.Node) []ast.Decl {
	quals := c.qualifiers(node)
	typeNode := node.ChildByFieldName("type")
	base := c.specifier(typeNode, quals)

	declarators := c.fieldChildren(node, "declarator")
	if len(declarators) == 0 {
		return c.bareType(node, base)
	}

	fromMacro := isSentinel(base)
	decls := make([]ast.Decl, 0, len(declarators))
	for _, d := range declarators {
		var init *ast.Expr
		if d.Kind() == "init_declarator" {
			init = c.expr(d.ChildByFieldName("value"))
			d = d.ChildByFieldName("declarator")
		}
		name, typ := c.declarator(d, base)
		at := c.coord(node)

		switch t := typ.(type) {
		case *ast.Func:
			decls = append(decls, &ast.FuncProto{At: at, Name: name, Type: t})
		default:
			if fromMacro || isConst(quals, typ) {
				decls = append(decls, &ast.ConstDecl{At: at, Name: name, Type: typ, Init: init, FromMacro: fromMacro})
				continue
			}
			decls = append(decls, &ast.VarDecl{At: at, Name: name, Type: typ, Init: init})
		}
	}
	return decls
}

func (c *converter) typeDefinition(node *sitter.Node) []ast.Decl {
	base := c.specifier(node.ChildByFieldName("type"), c.qualifiers(node))
	var decls []ast.Decl
	for _, d := range c.fieldChildren(node, "declarator") {
		name, typ := c.declarator(d, base)
		decls = append(decls, &ast.TypedefDecl{At: c.coord(node), Name: name, Type: typ})
	}
	if len(decls) == 0 {
		return []ast.Decl{&ast.Unsupported{At: c.coord(node), Syntax: c.syntax(node, "")}}
	}
	return decls
}

func (c *converter) functionDefinition(node *sitter.Node) []ast.Decl {
	base := c.specifier(node.ChildByFieldName("type"), c.qualifiers(node))
	name, typ := c.declarator(node.ChildByFieldName("declarator"), base)
	fn, ok := typ.(*ast.Func)
	if !ok {
		return []ast.Decl{&ast.Unsupported{At: c.coord(node), Syntax: c.syntax(node, "")}}
	}
	return []ast.Decl{&ast.FuncDef{
		At:   c.coord(node),
		Name: name,
		Type: fn,
		Body: c.text(node.ChildByFieldName("body")),
	}}
}

// bareSpecifier handles "struct S {...};" and friends, which the grammar
// places directly under the translation unit.
func (c *converter) bareSpecifier(node *sitter.Node) []ast.Decl {
	return c.bareType(node, c.specifier(node, nil))
}

func (c *converter) bareType(node *sitter.Node, t ast.Type) []ast.Decl {
	switch t := t.(type) {
	case *ast.Aggregate:
		return []ast.Decl{&ast.AggregateDecl{At: c.coord(node), Aggregate: t}}
	case *ast.Enum:
		return []ast.Decl{&ast.EnumDecl{At: c.coord(node), Enum: t}}
	}
	return []ast.Decl{&ast.Unsupported{At: c.coord(node), Syntax: c.syntax(node, "")}}
}

func isSentinel(t ast.Type) bool {
	named, ok := t.(*ast.Named)
	return ok && named.Spelling() == preprocess.SentinelType
}

// isConst reports whether a declaration names an unmodifiable object: a
// const-qualified non-pointer or a const pointer.
func isConst(declQuals []string, t ast.Type) bool {
	if p, ok := t.(*ast.Pointer); ok {
		return slices.Contains(p.Quals, "const")
	}
	if _, ok := t.(*ast.Array); ok {
		return false
	}
	return slices.Contains(declQuals, "const")
}
