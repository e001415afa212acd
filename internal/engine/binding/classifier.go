package binding

import (
	"hbind/internal/engine/ast"
	"hbind/internal/engine/naming"
)

// Prescan records every type name that has a member list anywhere in decls:
// aggregate and enum tags, including nested ones, and typedef names of
// defined aggregates and enums. It must run before the first Emit.
func (c *Context) Prescan(decls []ast.Decl) {
	for _, d := range decls {
		ast.Walk(d, func(n ast.Node) bool {
			switch t := n.(type) {
			case *ast.Aggregate:
				if t.HasMembers() && t.Name != "" {
					c.defined[naming.TypeName(t.Name)] = true
				}
			case *ast.Enum:
				if t.HasBody && t.Name != "" {
					c.defined[naming.TypeName(t.Name)] = true
				}
			}
			return true
		})
		if td, ok := d.(*ast.TypedefDecl); ok {
			switch t := td.Type.(type) {
			case *ast.Aggregate:
				if t.HasMembers() {
					c.defined[naming.TypeName(td.Name)] = true
				}
			case *ast.Enum:
				if t.HasBody {
					c.defined[naming.TypeName(td.Name)] = true
				}
			}
		}
	}
}

// opaqueEntry classifies a body-less aggregate seen under name. tag is the
// aggregate tag when name comes from a typedef. It returns the entry to emit,
// or "" when nothing is needed.
func (c *Context) opaqueEntry(name, tag string) string {
	typeName := naming.TypeName(name)
	switch {
	case c.defined[typeName]:
		return ""
	case tag != "" && c.defined[naming.TypeName(tag)] && naming.TypeName(tag) != typeName:
		return "alias " + typeName + " = " + naming.TypeName(tag)
	case c.opaque[typeName]:
		return ""
	}
	c.opaque[typeName] = true
	return "type " + typeName + " = Void*"
}

// enumAlias binds name to a body-less enum reference. A tag defined anywhere
// in the unit is aliased, or dropped when it already carries the name; an
// enum that is never defined falls back to Int32, once per name.
func (c *Context) enumAlias(name, tag string) string {
	typeName := naming.TypeName(name)
	if tag != "" && c.defined[naming.TypeName(tag)] {
		return c.aliasEntry(name, naming.TypeName(tag))
	}
	if c.enumFallback[typeName] {
		return ""
	}
	c.enumFallback[typeName] = true
	return "alias " + typeName + " = Int32"
}
