package ast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProto() *FuncProto {
	return &FuncProto{
		At:   Coord{File: "demo.h", Line: 3},
		Name: "add",
		Type: &Func{
			At:     Coord{File: "demo.h", Line: 3},
			Result: &Named{At: Coord{File: "demo.h", Line: 3}, Parts: []string{"int"}},
			Params: []*Param{
				{At: Coord{File: "demo.h", Line: 3}, Name: "a", Type: &Named{Parts: []string{"int"}}},
				{At: Coord{File: "demo.h", Line: 5}, Name: "b", Type: &Named{Parts: []string{"int"}}},
			},
		},
	}
}

func TestDump_RendersKindsFieldsAndCoordinates(t *testing.T) {
	out := Dump(sampleProto(), nil)
	lines := strings.Split(out, "\n")

	require.NotEmpty(t, lines)
	assert.Equal(t, "FuncProto #demo.h:3", lines[0])
	assert.Contains(t, out, `    name: "add"`)
	assert.Contains(t, out, "    type: Func #demo.h:3")
	assert.Contains(t, out, "params: [2]")
	assert.Contains(t, out, "Param #demo.h:5")
}

func TestDump_HidesInternalNodes(t *testing.T) {
	decl := sampleProto()
	decl.Type.Params[1].At = Coord{File: "<built-in>", Line: 1}

	out := Dump(decl, func(c Coord) bool { return c.File == "<built-in>" })
	assert.NotContains(t, out, "<built-in>")
	assert.NotContains(t, out, `name: "b"`)
}

func TestLineSpan(t *testing.T) {
	file, first, last, ok := LineSpan(sampleProto(), nil)
	require.True(t, ok)
	assert.Equal(t, "demo.h", file)
	assert.Equal(t, 3, first)
	assert.Equal(t, 5, last)

	_, _, _, ok = LineSpan(&Raw{Text: "x"}, nil)
	assert.False(t, ok)
}

func TestWalk_SkipsChildren(t *testing.T) {
	var kinds []string
	Walk(sampleProto(), func(n Node) bool {
		kinds = append(kinds, n.NodeKind())
		return n.NodeKind() != "Func"
	})
	assert.Equal(t, []string{"FuncProto", "Func"}, kinds)
}

func TestIsVoid(t *testing.T) {
	assert.True(t, IsVoid(&Named{Parts: []string{"void"}}))
	assert.False(t, IsVoid(&Pointer{Elem: &Named{Parts: []string{"void"}}}))
	assert.False(t, IsVoid(nil))
}
