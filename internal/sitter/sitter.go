// Package sitter builds understory source units from tree-sitter parse
// trees. It is the tree provider collaborator: the engine treats the
// resulting trees as read-only.
package sitter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ts "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jward/understory"
)

// extToLanguage maps file extensions to canonical language IDs.
var extToLanguage = map[string]string{
	".go":  "go",
	".js":  "javascript",
	".jsx": "javascript",
	".py":  "python",
}

// langToGrammar maps language IDs to tree-sitter grammars. Lazily
// initialized on first parse via sync.Once.
var (
	langToGrammar map[string]*ts.Language
	grammarsOnce  sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		langToGrammar = map[string]*ts.Language{
			"go":         golang.GetLanguage(),
			"javascript": javascript.GetLanguage(),
			"python":     python.GetLanguage(),
		}
	})
}

// LanguageForFile returns the canonical language ID for a file path based on
// its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	lang, ok := extToLanguage[ext]
	return lang, ok
}

// Supported reports whether a grammar exists for the language ID.
func Supported(langID string) bool {
	initGrammars()
	_, ok := langToGrammar[langID]
	return ok
}

// ParseFile reads and parses a source file into a unit named by its path.
func ParseFile(ctx context.Context, path string) (*understory.SourceUnit, error) {
	langID, ok := LanguageForFile(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(ctx, path, src, langID)
}

// Parse parses source bytes into a unit. The element tree mirrors the
// tree-sitter named-node structure; anonymous nodes (punctuation, keywords)
// are skipped.
func Parse(ctx context.Context, name string, src []byte, langID string) (*understory.SourceUnit, error) {
	initGrammars()
	grammar, ok := langToGrammar[langID]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", langID)
	}

	parser := ts.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	lang := understory.Language{ID: langID}
	root := convertNode(tree.RootNode(), src, lang)
	return &understory.SourceUnit{
		Name:    name,
		Lang:    lang,
		TextLen: len(src),
		Root:    root,
	}, nil
}

func convertNode(node *ts.Node, src []byte, lang understory.Language) *understory.Element {
	el := &understory.Element{
		Lang: lang,
		Kind: node.Type(),
		Span: understory.NewSpan(int(node.StartByte()), int(node.EndByte())),
		Text: node.Content(src),
	}
	count := int(node.NamedChildCount())
	for i := 0; i < count; i++ {
		el.AddChild(convertNode(node.NamedChild(i), src, lang))
	}
	return el
}
