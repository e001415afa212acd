// # internal/engine/binding/emitter.go
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hbind/internal/core/errors"
	"hbind/internal/engine/ast"
	"hbind/internal/engine/naming"
	"hbind/internal/engine/preprocess"
	"hbind/internal/engine/scalar"
)

// UnsupportedError is returned for a top-level declaration the emitter has
// no rendering for. It carries the declaration for diagnostics.
type UnsupportedError struct {
	Decl ast.Decl
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("unsupported declaration %s at %s", e.Decl.NodeKind(), e.Decl.Pos())
}

// Generate runs a complete transformation: prescan, then every declaration
// in order. On error no module is returned.
func Generate(decls []ast.Decl, opts Options) (*Module, error) {
	c := NewContext(opts)
	c.Prescan(decls)
	for _, d := range decls {
		if err := c.Emit(d); err != nil {
			return nil, err
		}
	}
	return c.Module(), nil
}

// Emit renders one top-level declaration into the context.
func (c *Context) Emit(d ast.Decl) error {
	if c.internal(d.Pos()) {
		return nil
	}

	var entry string
	switch d := d.(type) {
	case *ast.FuncProto:
		entry = c.funEntry(d)
	case *ast.FuncDef:
		c.stubs = append(c.stubs, c.defStub(d))
	case *ast.AggregateDecl:
		entry = c.aggregateEntry(d.Aggregate, "")
	case *ast.EnumDecl:
		entry = c.enumEntry(d.Enum, "")
	case *ast.TypedefDecl:
		entry = c.typedefEntry(d)
	case *ast.ConstDecl:
		entry = c.constEntry(d)
	case *ast.VarDecl:
		entry = c.varEntry(d)
	default:
		err := errors.Wrap(&UnsupportedError{Decl: d}, errors.CodeUnsupportedDecl, "cannot translate declaration")
		err = errors.AddContext(err, errors.CtxDeclaration, d.NodeKind())
		return errors.AddContext(err, errors.CtxPath, d.Pos().String())
	}

	if entry != "" {
		c.addEntry(entry)
	}
	return nil
}

func (c *Context) funEntry(d *ast.FuncProto) string {
	args := c.params(d.Type)
	parts := make([]string, 0, len(args)+1)
	for _, a := range args {
		parts = append(parts, a.String())
	}
	if d.Type.Variadic {
		parts = append(parts, "...")
	}
	return fmt.Sprintf("fun %s = %q(%s) : %s",
		naming.FuncName(d.Name), d.Name, strings.Join(parts, ", "), c.Resolve(d.Type.Result))
}

// defStub renders a function definition as a def whose parameters refer to
// the lib types, with the C body kept as comments.
func (c *Context) defStub(d *ast.FuncDef) string {
	args := c.params(d.Type)
	parts := make([]string, 0, len(args)+1)
	for i, a := range args {
		name := a.name
		if name == "" {
			name = fmt.Sprintf("arg%d", i+1)
		}
		parts = append(parts, name+" : "+qualify(c.opts.LibName, a.typ))
	}
	if d.Type.Variadic {
		parts = append(parts, "*args")
	}

	lines := []string{fmt.Sprintf("def %s(%s) : %s",
		naming.FuncName(d.Name), strings.Join(parts, ", "), c.Resolve(d.Type.Result))}
	if body := commentBody(d.Body); body != "" {
		lines = append(lines, body)
	}
	lines = append(lines, "end")
	return strings.Join(lines, "\n")
}

// qualify prefixes a lib type for use outside the lib block.
func qualify(lib, typ string) string {
	if strings.HasPrefix(typ, "LibC::") {
		return typ
	}
	return lib + "::" + typ
}

var blankRunRe = regexp.MustCompile(`\n\s*\n+`)

// commentBody strips the braces of a compound statement, dedents it,
// collapses blank lines and turns every line into a comment.
func commentBody(body string) string {
	src := strings.Trim(body, "\n")
	if strings.HasPrefix(src, "{") && strings.HasSuffix(src, "}") {
		src = dedent(strings.Trim(src[1:len(src)-1], "\n"))
	}
	src = blankRunRe.ReplaceAllString(src, "\n")
	if strings.TrimSpace(src) == "" {
		return ""
	}
	return indentLines(src, indent+"# ")
}

// dedent removes the whitespace prefix shared by all non-blank lines.
func dedent(text string) string {
	lines := strings.Split(text, "\n")
	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lead := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix, first = lead, false
			continue
		}
		for !strings.HasPrefix(lead, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}

// aggregateEntry renders a top-level struct or union. name overrides the
// tag for typedefs.
func (c *Context) aggregateEntry(agg *ast.Aggregate, name string) string {
	if !agg.HasMembers() {
		if name == "" {
			name = agg.Name
		}
		if name == "" {
			return ""
		}
		return c.opaqueEntry(name, agg.Name)
	}
	if _, done := c.lifted[agg]; !done {
		c.liftAggregate(agg, name)
	}
	return c.tagAlias(name, agg.Name)
}

// tagAlias links a tag to the typedef name its body was emitted under,
// unless the tag is already a type of its own.
func (c *Context) tagAlias(name, tag string) string {
	if name == "" || tag == "" {
		return ""
	}
	typeName, tagName := naming.TypeName(name), naming.TypeName(tag)
	if typeName == tagName || c.opaque[tagName] || c.emittedType(tagName) {
		return ""
	}
	return "alias " + tagName + " = " + typeName
}

func (c *Context) emittedType(name string) bool {
	for _, n := range c.lifted {
		if n == name {
			return true
		}
	}
	for _, n := range c.liftedEnums {
		if n == name {
			return true
		}
	}
	return false
}

func (c *Context) enumEntry(enum *ast.Enum, name string) string {
	if name == "" {
		name = enum.Name
	}
	switch {
	case name == "":
		return c.enumConstants(enum)
	case !enum.HasBody:
		return c.enumAlias(name, enum.Name)
	}
	if _, done := c.liftedEnums[enum]; !done {
		c.liftEnum(enum, name)
	}
	return c.tagAlias(name, enum.Name)
}

// enumConstants renders an anonymous enum as standalone constants. An
// enumerator without a value continues from the previous one.
func (c *Context) enumConstants(enum *ast.Enum) string {
	lines := make([]string, 0, len(enum.Enumerators))
	prev, prevName := int64(-1), ""
	known := true
	for _, item := range enum.Enumerators {
		name := naming.ConstName(item.Name)
		var value string
		switch {
		case item.Value != nil:
			value = item.Value.Text
			prev, known = parseInt(value)
		case known:
			prev++
			value = fmt.Sprint(prev)
		default:
			value = prevName + " + 1"
		}
		lines = append(lines, name+" = "+value)
		prevName = name
	}
	return strings.Join(lines, "\n")
}

func (c *Context) typedefEntry(d *ast.TypedefDecl) string {
	switch t := d.Type.(type) {
	case *ast.Aggregate:
		if done, ok := c.lifted[t]; ok && t.HasMembers() {
			return c.aliasEntry(d.Name, done)
		}
		return c.aggregateEntry(t, d.Name)
	case *ast.Enum:
		if done, ok := c.liftedEnums[t]; ok {
			return c.aliasEntry(d.Name, done)
		}
		return c.enumEntry(t, d.Name)
	}
	if _, native := scalar.Match(d.Name); native {
		return ""
	}
	return c.aliasEntry(d.Name, c.Resolve(d.Type))
}

func (c *Context) aliasEntry(name, target string) string {
	typeName := naming.TypeName(name)
	if typeName == target {
		return ""
	}
	return "alias " + typeName + " = " + target
}

func (c *Context) constEntry(d *ast.ConstDecl) string {
	name := naming.ConstName(d.Name)
	if d.Init == nil {
		return "# " + name + " ="
	}
	value := d.Init.Text
	if d.FromMacro {
		body, ok := preprocess.Unquote(value)
		if ok {
			value = body
		}
		if lit, err := EvalLiteral(value); err == nil {
			value = lit
		} else {
			c.opts.Logger.Debug("macro kept as source text", "name", d.Name, "value", value, "error", err)
		}
	}
	return name + " = " + value
}

func (c *Context) varEntry(d *ast.VarDecl) string {
	return "$" + naming.VarName(d.Name) + " : " + c.Resolve(d.Type)
}

// parseInt evaluates an enumerator value when it is an integer literal.
func parseInt(text string) (int64, bool) {
	lit, err := EvalLiteral(text)
	if err != nil {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSuffix(lit, "_u64"), 0, 64)
	return v, err == nil
}
