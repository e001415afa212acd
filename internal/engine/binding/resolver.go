package binding

import (
	"fmt"
	"strings"

	"hbind/internal/engine/ast"
	"hbind/internal/engine/naming"
)

// Resolve renders t as a Crystal type expression. Inline aggregate and enum
// bodies are emitted into the module before Resolve returns their name.
func (c *Context) Resolve(t ast.Type) string {
	switch t := t.(type) {
	case nil:
		return "Void"
	case *ast.Pointer:
		if fn, ok := t.Elem.(*ast.Func); ok {
			return c.Resolve(fn)
		}
		inner := c.Resolve(t.Elem)
		if _, isPtr := t.Elem.(*ast.Pointer); !isPtr && c.opaque[inner] {
			return inner
		}
		if strings.HasPrefix(inner, "->") || strings.Contains(inner, " -> ") {
			return "(" + inner + ")*"
		}
		return inner + "*"
	case *ast.Array:
		elem := c.Resolve(t.Elem)
		if t.Dim == nil {
			return elem + "*"
		}
		return elem + "[" + t.Dim.Text + "]"
	case *ast.Func:
		return c.funcType(t)
	case *ast.Named:
		return naming.TypeName(t.Spelling())
	case *ast.Aggregate:
		if t.HasBody && (t.HasMembers() || t.Name == "") {
			return c.liftAggregate(t, "")
		}
		return naming.TypeName(t.Name)
	case *ast.Enum:
		if t.HasBody {
			return c.liftEnum(t, "")
		}
		return naming.TypeName(t.Name)
	case *ast.Raw:
		return t.Text
	default:
		return t.NodeKind()
	}
}

type param struct {
	name string
	typ  string
}

func (p param) String() string {
	if p.name == "" {
		return p.typ
	}
	return p.name + " : " + p.typ
}

// params resolves the parameter list of fn. A sole unnamed void parameter
// and an empty list both yield no parameters.
func (c *Context) params(fn *ast.Func) []param {
	if len(fn.Params) == 1 && fn.Params[0].Name == "" && ast.IsVoid(fn.Params[0].Type) {
		return nil
	}
	out := make([]param, 0, len(fn.Params))
	for _, p := range fn.Params {
		out = append(out, param{name: naming.VarName(p.Name), typ: c.Resolve(p.Type)})
	}
	return out
}

// funcType renders a function type as "-> R", "P -> R" or "(P1, P2) -> R".
func (c *Context) funcType(fn *ast.Func) string {
	ret := c.Resolve(fn.Result)
	var types []string
	for _, p := range c.params(fn) {
		types = append(types, p.typ)
	}
	if fn.Variadic {
		types = append(types, "...")
	}
	switch len(types) {
	case 0:
		return "-> " + ret
	case 1:
		return types[0] + " -> " + ret
	default:
		return "(" + strings.Join(types, ", ") + ") -> " + ret
	}
}

// liftAggregate emits agg as a struct or union block and returns its type
// name. name overrides the aggregate's own tag.
func (c *Context) liftAggregate(agg *ast.Aggregate, name string) string {
	if done, ok := c.lifted[agg]; ok {
		return done
	}
	if name == "" {
		name = agg.Name
	}
	if name == "" {
		name = c.anonymous()
	}
	typeName := naming.TypeName(name)
	c.lifted[agg] = typeName

	lines := []string{agg.Kind.String() + " " + typeName}
	for i, m := range agg.Members {
		typ := c.Resolve(m.Type)
		lines = append(lines, indent+c.memberName(m, typ, i)+" : "+typ)
	}
	lines = append(lines, "end")
	c.addEntry(strings.Join(lines, "\n"))
	return typeName
}

// memberName names a member; unnamed members (anonymous struct or union
// members) are named after their type.
func (c *Context) memberName(m *ast.Member, typ string, index int) string {
	if m.Name != "" {
		return naming.VarName(m.Name)
	}
	if name := naming.VarName(typ); name != "" && !strings.ContainsAny(name, "*[]:- ") {
		return name
	}
	return fmt.Sprintf("field%d", index+1)
}

// liftEnum emits an enum block for an inline enum body and returns its name.
func (c *Context) liftEnum(enum *ast.Enum, name string) string {
	if done, ok := c.liftedEnums[enum]; ok {
		return done
	}
	if name == "" {
		name = enum.Name
	}
	if name == "" {
		name = c.anonymous()
	}
	typeName := naming.TypeName(name)
	c.liftedEnums[enum] = typeName
	c.addEntry(enumBlock(typeName, enum))
	return typeName
}

func enumBlock(typeName string, enum *ast.Enum) string {
	lines := []string{"enum " + typeName}
	for _, item := range enum.Enumerators {
		if item.Value != nil {
			lines = append(lines, indent+naming.ConstName(item.Name)+" = "+item.Value.Text)
			continue
		}
		lines = append(lines, indent+naming.ConstName(item.Name))
	}
	lines = append(lines, "end")
	return strings.Join(lines, "\n")
}
