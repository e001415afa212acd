package ast

import "strings"

// Type is a type sub-tree. The set of implementations is closed; Raw is the
// escape hatch for constructs without a typed form.
type Type interface {
	Node
	typeNode()
}

type AggregateKind int

const (
	StructKind AggregateKind = iota
	UnionKind
)

func (k AggregateKind) String() string {
	if k == UnionKind {
		return "union"
	}
	return "struct"
}

type Pointer struct {
	At    Coord
	Elem  Type
	Quals []string
}

type Array struct {
	At   Coord
	Elem Type
	Dim  *Expr
}

type Func struct {
	At       Coord
	Result   Type
	Params   []*Param
	Variadic bool
}

type Param struct {
	At   Coord
	Name string
	Type Type
}

// Named is a reference to a scalar or typedef name, spelled as its
// specifier words ("unsigned", "long", "int").
type Named struct {
	At    Coord
	Parts []string
	Quals []string
}

// Aggregate is a struct or union specifier. HasBody distinguishes a
// definition (even an empty one) from a plain reference.
type Aggregate struct {
	At      Coord
	Kind    AggregateKind
	Name    string
	Members []*Member
	HasBody bool
}

type Member struct {
	At   Coord
	Name string
	Type Type
	Bits *Expr
}

type Enum struct {
	At          Coord
	Name        string
	Enumerators []*Enumerator
	HasBody     bool
}

type Enumerator struct {
	At    Coord
	Name  string
	Value *Expr
}

// Raw is a type construct kept as source text.
type Raw struct {
	At   Coord
	Text string
}

func (*Pointer) typeNode()   {}
func (*Array) typeNode()     {}
func (*Func) typeNode()      {}
func (*Named) typeNode()     {}
func (*Aggregate) typeNode() {}
func (*Enum) typeNode()      {}
func (*Raw) typeNode()       {}

func (t *Pointer) NodeKind() string    { return "Pointer" }
func (t *Array) NodeKind() string      { return "Array" }
func (t *Func) NodeKind() string       { return "Func" }
func (p *Param) NodeKind() string      { return "Param" }
func (t *Named) NodeKind() string      { return "Named" }
func (t *Aggregate) NodeKind() string  { return "Aggregate" }
func (m *Member) NodeKind() string     { return "Member" }
func (t *Enum) NodeKind() string       { return "Enum" }
func (e *Enumerator) NodeKind() string { return "Enumerator" }
func (t *Raw) NodeKind() string        { return "Raw" }

func (t *Pointer) Pos() Coord    { return t.At }
func (t *Array) Pos() Coord      { return t.At }
func (t *Func) Pos() Coord       { return t.At }
func (p *Param) Pos() Coord      { return p.At }
func (t *Named) Pos() Coord      { return t.At }
func (t *Aggregate) Pos() Coord  { return t.At }
func (m *Member) Pos() Coord     { return m.At }
func (t *Enum) Pos() Coord       { return t.At }
func (e *Enumerator) Pos() Coord { return e.At }
func (t *Raw) Pos() Coord        { return t.At }

func (t *Pointer) Fields() []Field {
	return []Field{{"quals", strings.Join(t.Quals, " ")}, {"elem", t.Elem}}
}

func (t *Array) Fields() []Field {
	return []Field{{"elem", t.Elem}, {"dim", nodeOrNil(t.Dim)}}
}

func (t *Func) Fields() []Field {
	params := make([]Node, 0, len(t.Params))
	for _, p := range t.Params {
		params = append(params, p)
	}
	return []Field{{"variadic", t.Variadic}, {"result", t.Result}, {"params", params}}
}

func (p *Param) Fields() []Field {
	return []Field{{"name", p.Name}, {"type", p.Type}}
}

func (t *Named) Fields() []Field {
	return []Field{{"names", t.Spelling()}, {"quals", strings.Join(t.Quals, " ")}}
}

func (t *Aggregate) Fields() []Field {
	fields := []Field{{"kind", t.Kind.String()}, {"name", t.Name}, {"has_body", t.HasBody}}
	if t.HasBody {
		members := make([]Node, 0, len(t.Members))
		for _, m := range t.Members {
			members = append(members, m)
		}
		fields = append(fields, Field{"members", members})
	}
	return fields
}

func (m *Member) Fields() []Field {
	return []Field{{"name", m.Name}, {"type", m.Type}, {"bits", nodeOrNil(m.Bits)}}
}

func (t *Enum) Fields() []Field {
	fields := []Field{{"name", t.Name}, {"has_body", t.HasBody}}
	if t.HasBody {
		values := make([]Node, 0, len(t.Enumerators))
		for _, e := range t.Enumerators {
			values = append(values, e)
		}
		fields = append(fields, Field{"enumerators", values})
	}
	return fields
}

func (e *Enumerator) Fields() []Field {
	return []Field{{"name", e.Name}, {"value", nodeOrNil(e.Value)}}
}

func (t *Raw) Fields() []Field {
	return []Field{{"text", t.Text}}
}

// Spelling joins the specifier words with single spaces.
func (t *Named) Spelling() string {
	return strings.Join(t.Parts, " ")
}

// IsVoid reports whether t is the plain void type.
func IsVoid(t Type) bool {
	n, ok := t.(*Named)
	return ok && len(n.Parts) == 1 && n.Parts[0] == "void"
}

// HasMembers reports whether the aggregate carries a non-empty member list.
func (t *Aggregate) HasMembers() bool {
	return t != nil && len(t.Members) > 0
}
