// # internal/engine/parser/parser.go
package parser

import (
	"context"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"hbind/internal/core/errors"
	"hbind/internal/engine/ast"
	"hbind/internal/engine/preprocess"
)

// Parser turns a preprocessed unit into the ordered list of top-level
// declarations.
type Parser struct {
	pool *ParserPool
}

func NewParser(loader *GrammarLoader) (*Parser, error) {
	lang, err := loader.Language(LanguageC)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load C grammar")
	}
	return &Parser{pool: NewParserPool(lang)}, nil
}

// Parse parses unit. A syntax error anywhere in the unit is reported as a
// PARSE_FAILURE carrying the original file and line of the first error.
func (p *Parser) Parse(ctx context.Context, unit *preprocess.Unit) ([]ast.Decl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source := []byte(unit.Source)
	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(source, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeInternal, "parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, p.failure(unit, root)
	}

	return newConverter(unit, source).items(root), nil
}

func (p *Parser) failure(unit *preprocess.Unit, root *sitter.Node) error {
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	row := int(bad.StartPosition().Row) + 1
	col := int(bad.StartPosition().Column) + 1
	at := unit.Coord(row)

	what := "syntax error"
	if bad.IsMissing() {
		what = fmt.Sprintf("missing %q", bad.Kind())
	}
	err := errors.New(errors.CodeParseFailure, fmt.Sprintf("%s:%d: %s near %q", at.String(), col, what, unit.Line(row)))
	err = errors.AddContext(err, errors.CtxPath, at.File)
	return errors.AddContext(err, errors.CtxLine, at.Line)
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	if !node.HasError() {
		return nil
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if found := firstError(node.Child(i)); found != nil {
			return found
		}
	}
	return nil
}
