package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbind/internal/core/errors"
	"hbind/internal/engine/ast"
	"hbind/internal/engine/preprocess"
)

func parse(t *testing.T, lines ...string) []ast.Decl {
	t.Helper()
	p, err := NewParser(NewGrammarLoader())
	require.NoError(t, err)

	decls, err := p.Parse(context.Background(), preprocess.NewUnit(strings.Join(lines, "\n"), "demo.h"))
	require.NoError(t, err)
	require.NotEmpty(t, decls)

	// The first declaration is always the injected sentinel typedef.
	sentinel, ok := decls[0].(*ast.TypedefDecl)
	require.True(t, ok)
	assert.Equal(t, preprocess.SentinelType, sentinel.Name)
	assert.Equal(t, preprocess.BuiltinFile, sentinel.At.File)
	return decls[1:]
}

func named(t *testing.T, typ ast.Type) string {
	t.Helper()
	n, ok := typ.(*ast.Named)
	require.True(t, ok, "expected Named, got %T", typ)
	return n.Spelling()
}

func TestParse_EndToEndUnit(t *testing.T) {
	decls := parse(t,
		"#define VERSION 42",
		"typedef struct { int a; int b; } Point;",
		"int add(int a, int b);",
	)
	require.Len(t, decls, 3)

	version, ok := decls[0].(*ast.ConstDecl)
	require.True(t, ok)
	assert.Equal(t, "VERSION", version.Name)
	assert.True(t, version.FromMacro)
	require.NotNil(t, version.Init)
	assert.Equal(t, `"42"`, version.Init.Text)
	assert.Equal(t, ast.Coord{File: "demo.h", Line: 1}, version.At)

	point, ok := decls[1].(*ast.TypedefDecl)
	require.True(t, ok)
	assert.Equal(t, "Point", point.Name)
	agg, ok := point.Type.(*ast.Aggregate)
	require.True(t, ok)
	assert.Equal(t, ast.StructKind, agg.Kind)
	assert.Empty(t, agg.Name)
	assert.True(t, agg.HasBody)
	require.Len(t, agg.Members, 2)
	assert.Equal(t, "a", agg.Members[0].Name)
	assert.Equal(t, "int", named(t, agg.Members[0].Type))
	assert.Equal(t, "b", agg.Members[1].Name)

	add, ok := decls[2].(*ast.FuncProto)
	require.True(t, ok)
	assert.Equal(t, "add", add.Name)
	assert.Equal(t, "int", named(t, add.Type.Result))
	require.Len(t, add.Type.Params, 2)
	assert.Equal(t, "a", add.Type.Params[0].Name)
	assert.Equal(t, "int", named(t, add.Type.Params[1].Type))
	assert.Equal(t, ast.Coord{File: "demo.h", Line: 3}, add.At)
}

func TestParse_Declarators(t *testing.T) {
	decls := parse(t,
		"int (*callback)(int, ...);",
		"char *names[4];",
		"unsigned long long counter, *cursor;",
	)
	require.Len(t, decls, 4)

	cb := decls[0].(*ast.VarDecl)
	assert.Equal(t, "callback", cb.Name)
	ptr, ok := cb.Type.(*ast.Pointer)
	require.True(t, ok)
	fn, ok := ptr.Elem.(*ast.Func)
	require.True(t, ok)
	assert.True(t, fn.Variadic)
	require.Len(t, fn.Params, 1)
	assert.Empty(t, fn.Params[0].Name)

	names := decls[1].(*ast.VarDecl)
	arr, ok := names.Type.(*ast.Array)
	require.True(t, ok)
	require.NotNil(t, arr.Dim)
	assert.Equal(t, "4", arr.Dim.Text)
	elem, ok := arr.Elem.(*ast.Pointer)
	require.True(t, ok)
	assert.Equal(t, "char", named(t, elem.Elem))

	counter := decls[2].(*ast.VarDecl)
	assert.Equal(t, "counter", counter.Name)
	assert.Equal(t, "unsigned long long", named(t, counter.Type))

	cursor := decls[3].(*ast.VarDecl)
	assert.Equal(t, "cursor", cursor.Name)
	_, ok = cursor.Type.(*ast.Pointer)
	assert.True(t, ok)
}

func TestParse_AggregatesAndEnums(t *testing.T) {
	decls := parse(t,
		"struct Foo;",
		"union Value { int i; float f; };",
		"enum Color { RED, GREEN = 3 };",
		"enum { FLAG_A = 1, FLAG_B };",
	)
	require.Len(t, decls, 4)

	foo := decls[0].(*ast.AggregateDecl)
	assert.Equal(t, "Foo", foo.Aggregate.Name)
	assert.False(t, foo.Aggregate.HasBody)

	value := decls[1].(*ast.AggregateDecl)
	assert.Equal(t, ast.UnionKind, value.Aggregate.Kind)
	assert.Len(t, value.Aggregate.Members, 2)

	color := decls[2].(*ast.EnumDecl)
	assert.Equal(t, "Color", color.Enum.Name)
	require.Len(t, color.Enum.Enumerators, 2)
	assert.Nil(t, color.Enum.Enumerators[0].Value)
	assert.Equal(t, "3", color.Enum.Enumerators[1].Value.Text)

	anon := decls[3].(*ast.EnumDecl)
	assert.Empty(t, anon.Enum.Name)
	require.Len(t, anon.Enum.Enumerators, 2)
	assert.Equal(t, "FLAG_B", anon.Enum.Enumerators[1].Name)
}

func TestParse_FunctionsAndConstants(t *testing.T) {
	decls := parse(t,
		"int answer(void) {",
		"    return 42;",
		"}",
		"extern const int limit;",
		"const char *message;",
		"char *const banner = \"hi\";",
		"int legacy();",
	)
	require.Len(t, decls, 5)

	def := decls[0].(*ast.FuncDef)
	assert.Equal(t, "answer", def.Name)
	assert.Equal(t, "{\n    return 42;\n}", def.Body)
	require.Len(t, def.Type.Params, 1)
	assert.True(t, ast.IsVoid(def.Type.Params[0].Type))

	limit := decls[1].(*ast.ConstDecl)
	assert.Equal(t, "limit", limit.Name)
	assert.False(t, limit.FromMacro)
	assert.Nil(t, limit.Init)

	_, isVar := decls[2].(*ast.VarDecl)
	assert.True(t, isVar, "pointer to const is a mutable global")

	banner := decls[3].(*ast.ConstDecl)
	assert.Equal(t, `"hi"`, banner.Init.Text)

	legacy := decls[4].(*ast.FuncProto)
	assert.Empty(t, legacy.Type.Params)
}

func TestParse_LinkageSpecification(t *testing.T) {
	decls := parse(t,
		`extern "C" {`,
		"void start(void);",
		"void stop(void);",
		"}",
	)
	require.Len(t, decls, 2)
	assert.Equal(t, "start", decls[0].DeclName())
	assert.Equal(t, "stop", decls[1].DeclName())
}

func TestParse_UnsupportedTopLevel(t *testing.T) {
	decls := parse(t, "return 0;")
	require.Len(t, decls, 1)
	u, ok := decls[0].(*ast.Unsupported)
	require.True(t, ok)
	assert.Equal(t, ast.Coord{File: "demo.h", Line: 1}, u.At)
}

func TestParse_SyntaxErrorReportsOrigin(t *testing.T) {
	p, err := NewParser(NewGrammarLoader())
	require.NoError(t, err)

	unit := preprocess.NewUnit("# 1 \"api.h\"\nint ok(void);\nint add(int a int b);\n", "api.h")
	_, err = p.Parse(context.Background(), unit)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParseFailure))
	assert.True(t, errors.IsFatal(err))

	var de *errors.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "api.h", de.Context[errors.CtxPath])
	assert.Equal(t, 2, de.Context[errors.CtxLine])
}

func TestParse_CanceledContext(t *testing.T) {
	p, err := NewParser(NewGrammarLoader())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Parse(ctx, preprocess.NewUnit("int x;", "demo.h"))
	assert.ErrorIs(t, err, context.Canceled)
}
