// # internal/engine/ast/ast.go
package ast

import "fmt"

// Coord is the original source position of a node. Line numbers are 1-based
// and refer to the header the preprocessor reported, not the flattened unit.
type Coord struct {
	File string
	Line int
}

func (c Coord) IsZero() bool {
	return c.File == "" && c.Line == 0
}

func (c Coord) String() string {
	if c.Line == 0 {
		return c.File
	}
	return fmt.Sprintf("%s:%d", c.File, c.Line)
}

// Field is a named attribute or child of a node, used by Dump and Walk.
// Value is a string, bool, int, Node or []Node.
type Field struct {
	Name  string
	Value any
}

// Node is implemented by every declaration, type and expression node.
type Node interface {
	NodeKind() string
	Pos() Coord
	Fields() []Field
}

// Decl is a top-level declaration. The set of implementations is closed.
type Decl interface {
	Node
	DeclName() string
	declNode()
}

type FuncProto struct {
	At   Coord
	Name string
	Type *Func
}

type FuncDef struct {
	At   Coord
	Name string
	Type *Func
	// Body is the source text of the compound statement, braces included.
	Body string
}

// AggregateDecl is a top-level struct or union declaration, with or without
// a member list.
type AggregateDecl struct {
	At        Coord
	Aggregate *Aggregate
}

type EnumDecl struct {
	At   Coord
	Enum *Enum
}

type TypedefDecl struct {
	At   Coord
	Name string
	Type Type
}

// ConstDecl is a top-level declaration qualified as unmodifiable. FromMacro
// marks constants synthesized from object-like macros.
type ConstDecl struct {
	At        Coord
	Name      string
	Type      Type
	Init      *Expr
	FromMacro bool
}

type VarDecl struct {
	At   Coord
	Name string
	Type Type
	Init *Expr
}

// Unsupported wraps a top-level construct the parser could not classify.
type Unsupported struct {
	At     Coord
	Syntax *Syntax
}

func (*FuncProto) declNode()     {}
func (*FuncDef) declNode()       {}
func (*AggregateDecl) declNode() {}
func (*EnumDecl) declNode()      {}
func (*TypedefDecl) declNode()   {}
func (*ConstDecl) declNode()     {}
func (*VarDecl) declNode()       {}
func (*Unsupported) declNode()   {}

func (d *FuncProto) NodeKind() string     { return "FuncProto" }
func (d *FuncDef) NodeKind() string       { return "FuncDef" }
func (d *AggregateDecl) NodeKind() string { return "AggregateDecl" }
func (d *EnumDecl) NodeKind() string      { return "EnumDecl" }
func (d *TypedefDecl) NodeKind() string   { return "TypedefDecl" }
func (d *ConstDecl) NodeKind() string     { return "ConstDecl" }
func (d *VarDecl) NodeKind() string       { return "VarDecl" }
func (d *Unsupported) NodeKind() string   { return "Unsupported" }

func (d *FuncProto) Pos() Coord     { return d.At }
func (d *FuncDef) Pos() Coord       { return d.At }
func (d *AggregateDecl) Pos() Coord { return d.At }
func (d *EnumDecl) Pos() Coord      { return d.At }
func (d *TypedefDecl) Pos() Coord   { return d.At }
func (d *ConstDecl) Pos() Coord     { return d.At }
func (d *VarDecl) Pos() Coord       { return d.At }
func (d *Unsupported) Pos() Coord   { return d.At }

func (d *FuncProto) DeclName() string { return d.Name }
func (d *FuncDef) DeclName() string   { return d.Name }
func (d *AggregateDecl) DeclName() string {
	if d.Aggregate == nil {
		return ""
	}
	return d.Aggregate.Name
}
func (d *EnumDecl) DeclName() string {
	if d.Enum == nil {
		return ""
	}
	return d.Enum.Name
}
func (d *TypedefDecl) DeclName() string { return d.Name }
func (d *ConstDecl) DeclName() string   { return d.Name }
func (d *VarDecl) DeclName() string     { return d.Name }
func (d *Unsupported) DeclName() string {
	if d.Syntax == nil {
		return ""
	}
	return d.Syntax.Type
}

func (d *FuncProto) Fields() []Field {
	return []Field{{"name", d.Name}, {"type", nodeOrNil(d.Type)}}
}

func (d *FuncDef) Fields() []Field {
	return []Field{{"name", d.Name}, {"type", nodeOrNil(d.Type)}, {"body", d.Body}}
}

func (d *AggregateDecl) Fields() []Field {
	return []Field{{"aggregate", nodeOrNil(d.Aggregate)}}
}

func (d *EnumDecl) Fields() []Field {
	return []Field{{"enum", nodeOrNil(d.Enum)}}
}

func (d *TypedefDecl) Fields() []Field {
	return []Field{{"name", d.Name}, {"type", d.Type}}
}

func (d *ConstDecl) Fields() []Field {
	return []Field{{"name", d.Name}, {"from_macro", d.FromMacro}, {"type", d.Type}, {"init", nodeOrNil(d.Init)}}
}

func (d *VarDecl) Fields() []Field {
	return []Field{{"name", d.Name}, {"type", d.Type}, {"init", nodeOrNil(d.Init)}}
}

func (d *Unsupported) Fields() []Field {
	return []Field{{"syntax", nodeOrNil(d.Syntax)}}
}

// Expr keeps an expression as its source text; the engine never evaluates
// general expressions.
type Expr struct {
	At Coord
	// Type is the grammar node type, e.g. "number_literal" or "string_literal".
	Type string
	Text string
}

func (e *Expr) NodeKind() string { return "Expr" }
func (e *Expr) Pos() Coord       { return e.At }
func (e *Expr) Fields() []Field {
	return []Field{{"type", e.Type}, {"text", e.Text}}
}

// Syntax is a generic snapshot of a grammar node, kept for constructs that
// have no typed representation.
type Syntax struct {
	At       Coord
	Type     string
	Field    string
	Text     string
	Children []*Syntax
}

func (s *Syntax) NodeKind() string { return "Syntax" }
func (s *Syntax) Pos() Coord       { return s.At }
func (s *Syntax) Fields() []Field {
	fields := []Field{{"type", s.Type}}
	if s.Field != "" {
		fields = append(fields, Field{"field", s.Field})
	}
	if len(s.Children) == 0 {
		fields = append(fields, Field{"text", s.Text})
		return fields
	}
	children := make([]Node, 0, len(s.Children))
	for _, c := range s.Children {
		children = append(children, c)
	}
	return append(fields, Field{"children", children})
}

// nodeOrNil avoids storing typed nil pointers inside a Node interface.
func nodeOrNil[T interface {
	Node
	comparable
}](n T) Node {
	var zero T
	if n == zero {
		return nil
	}
	return n
}
