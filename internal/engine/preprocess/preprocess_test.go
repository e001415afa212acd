package preprocess

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbind/internal/core/errors"
	"hbind/internal/engine/ast"
)

func TestLiteralize(t *testing.T) {
	src := strings.Join([]string{
		"#define VERSION 42",
		"#define GREETING \"hi\\n\"",
		"#define MAX(a, b) ((a) > (b) ? (a) : (b))",
		"#define EMPTY",
		"#undef EMPTY",
		"int add(int a, int b);",
	}, "\n")

	out := strings.Split(Literalize(src), "\n")
	require.Len(t, out, 6)
	assert.Equal(t, `const _DEFINE VERSION = "42";`, out[0])
	assert.Equal(t, `const _DEFINE GREETING = "\"hi\\n\"";`, out[1])
	assert.Equal(t, "", out[2])
	assert.Equal(t, "", out[3])
	assert.Equal(t, "", out[4])
	assert.Equal(t, "int add(int a, int b);", out[5])
}

func TestUnquoteRoundTrip(t *testing.T) {
	for _, body := range []string{`42`, `"hi\n"`, `'\\'`, `(1 << 4)`} {
		got, ok := Unquote(quote(body))
		require.True(t, ok)
		assert.Equal(t, body, got)
	}
	_, ok := Unquote("42")
	assert.False(t, ok)
}

func TestNewUnit_TracksLineMarkers(t *testing.T) {
	raw := strings.Join([]string{
		`# 1 "demo.h"`,
		`# 1 "<built-in>" 1`,
		`#define __STDC__ 1`,
		`# 1 "demo.h"`,
		`#define VERSION 42`,
		``,
		`int add(int a, int b);`,
		`# 1 "/opt/fake_libc_include/stdint.h" 1`,
		`typedef int int32_t;`,
		`# 5 "demo.h" 2`,
		`struct Foo;`,
	}, "\n")

	unit := NewUnit(raw, "demo.h")
	require.Equal(t, len(strings.Split(unit.Source, "\n")), len(unit.Lines))

	assert.Equal(t, SentinelDecl, unit.Line(1))
	assert.Equal(t, ast.Coord{File: BuiltinFile, Line: 1}, unit.Coord(1))

	find := func(text string) int {
		for i := 1; i <= len(unit.Lines); i++ {
			if unit.Line(i) == text {
				return i
			}
		}
		t.Fatalf("line %q not found", text)
		return 0
	}

	assert.Equal(t, ast.Coord{File: BuiltinFile, Line: 1}, unit.Coord(find(`const _DEFINE __STDC__ = "1";`)))
	assert.Equal(t, ast.Coord{File: "demo.h", Line: 1}, unit.Coord(find(`const _DEFINE VERSION = "42";`)))
	assert.Equal(t, ast.Coord{File: "demo.h", Line: 3}, unit.Coord(find("int add(int a, int b);")))
	assert.Equal(t, ast.Coord{File: "/opt/fake_libc_include/stdint.h", Line: 1}, unit.Coord(find("typedef int int32_t;")))
	assert.Equal(t, ast.Coord{File: "demo.h", Line: 5}, unit.Coord(find("struct Foo;")))
	assert.Equal(t, ast.Coord{}, unit.Coord(0))
}

func TestFilter(t *testing.T) {
	f, err := NewFilter(append([]string{"**/vendor/**"}, DefaultInternalPatterns...))
	require.NoError(t, err)

	assert.True(t, f.Internal(ast.Coord{File: BuiltinFile}))
	assert.True(t, f.Internal(ast.Coord{File: "<command-line>"}))
	assert.True(t, f.Internal(ast.Coord{File: ""}))
	assert.True(t, f.Internal(ast.Coord{File: "/opt/tool/fake_libc_include/stdio.h", Line: 3}))
	assert.True(t, f.Internal(ast.Coord{File: "/usr/include/stdio.h", Line: 3}))
	assert.True(t, f.Internal(ast.Coord{File: "/src/vendor/zlib.h", Line: 3}))
	assert.False(t, f.Internal(ast.Coord{File: "demo.h", Line: 3}))
	assert.False(t, f.Internal(ast.Coord{File: "/src/include/demo.h", Line: 3}))

	_, err = NewFilter([]string{"[unterminated"})
	assert.Error(t, err)
}

func TestResolveRoot(t *testing.T) {
	tmp := t.TempDir()
	nested := filepath.Join(tmp, "include", "lib")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	header := filepath.Join(nested, "api.h")
	require.NoError(t, os.WriteFile(header, []byte("int f(void);\n"), 0o644))

	root, rel, err := ResolveRoot(header, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "include"), root)
	assert.Equal(t, filepath.Join("lib", "api.h"), rel)

	root, rel, err = ResolveRoot(header, nested)
	require.NoError(t, err)
	assert.Equal(t, nested, root)
	assert.Equal(t, "api.h", rel)

	_, _, err = ResolveRoot(header, filepath.Join(tmp, "elsewhere"))
	assert.True(t, errors.IsCode(err, errors.CodeValidationError))
}

func TestRunner_NoCommandReadsHeader(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "api.h"), []byte("int f(void);\n"), 0o644))

	r := NewRunner(NoCommand, nil, nil, 0)
	out, err := r.Run(context.Background(), tmp, "api.h")
	require.NoError(t, err)

	unit := NewUnit(out, "api.h")
	assert.Equal(t, "int f(void);", unit.Line(3))
	assert.Equal(t, ast.Coord{File: "api.h", Line: 1}, unit.Coord(3))

	_, err = r.Run(context.Background(), tmp, "missing.h")
	assert.True(t, errors.IsCode(err, errors.CodeNotFound))
}

func TestRunner_CommandLine(t *testing.T) {
	r := NewRunner("", nil, []string{"/opt/fake"}, 0)
	assert.Equal(t,
		[]string{"gcc", "-E", "-dD", "-undef", "-nostdinc", "-I/opt/fake", "-I/src/include", "api.h"},
		r.CommandLine("/src/include", "api.h"),
	)
}

func TestRunner_GCC(t *testing.T) {
	if _, err := exec.LookPath("gcc"); err != nil {
		t.Skip("gcc not available")
	}
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "api.h"), []byte("#define VERSION 42\nint f(void);\n"), 0o644))

	out, err := NewRunner("gcc", nil, nil, 0).Run(context.Background(), tmp, "api.h")
	require.NoError(t, err)
	assert.Contains(t, out, "#define VERSION 42")
	assert.Contains(t, out, "int f(void);")

	_, err = NewRunner("gcc", nil, nil, 0).Run(context.Background(), tmp, "missing.h")
	assert.True(t, errors.IsCode(err, errors.CodePreprocessFailure))
}
