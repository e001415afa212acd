// # internal/engine/parser/loader.go
package parser

import (
	"fmt"
	"sort"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// LanguageC is the only grammar the declaration parser loads.
const LanguageC = "c"

type GrammarLoader struct {
	languages map[string]*sitter.Language
}

func NewGrammarLoader() *GrammarLoader {
	return &GrammarLoader{
		languages: map[string]*sitter.Language{
			LanguageC: sitter.NewLanguage(tree_sitter_c.Language()),
		},
	}
}

// Language returns the loaded grammar for id.
func (gl *GrammarLoader) Language(id string) (*sitter.Language, error) {
	lang, ok := gl.languages[id]
	if !ok {
		return nil, fmt.Errorf("grammar not loaded: %s", id)
	}
	return lang, nil
}

func (gl *GrammarLoader) Languages() []string {
	ids := make([]string, 0, len(gl.languages))
	for id := range gl.languages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
