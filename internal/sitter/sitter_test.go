package sitter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jward/understory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package demo

// greet says hello.
func Greet(name string) string {
	return "hello " + name
}
`

func TestLanguageForFile(t *testing.T) {
	lang, ok := LanguageForFile("pkg/server.go")
	require.True(t, ok)
	assert.Equal(t, "go", lang)

	lang, ok = LanguageForFile("app/Main.PY")
	require.True(t, ok)
	assert.Equal(t, "python", lang)

	_, ok = LanguageForFile("README.md")
	assert.False(t, ok)
}

func TestParse_BuildsElementTree(t *testing.T) {
	unit, err := Parse(context.Background(), "demo.go", []byte(goSource), "go")
	require.NoError(t, err)

	assert.Equal(t, "demo.go", unit.Name)
	assert.Equal(t, "go", unit.Lang.ID)
	assert.Equal(t, len(goSource), unit.TextLen)
	require.NotNil(t, unit.Root)
	assert.Equal(t, "source_file", unit.Root.Kind)
	assert.Equal(t, understory.NewSpan(0, len(goSource)), unit.Root.Span)

	var funcs []*understory.Element
	unit.Root.Walk(func(el *understory.Element) bool {
		if el.Kind == "function_declaration" {
			funcs = append(funcs, el)
		}
		return true
	})
	require.Len(t, funcs, 1)
	assert.Contains(t, funcs[0].Text, "func Greet")
	assert.Same(t, unit.Root, funcs[0].Parent)
}

func TestParse_CommentPrecedesDeclaration(t *testing.T) {
	unit, err := Parse(context.Background(), "demo.go", []byte(goSource), "go")
	require.NoError(t, err)

	var fn *understory.Element
	unit.Root.Walk(func(el *understory.Element) bool {
		if el.Kind == "function_declaration" {
			fn = el
		}
		return true
	})
	require.NotNil(t, fn)

	prev := fn.PrevSibling()
	require.NotNil(t, prev)
	assert.Equal(t, "comment", prev.Kind)
	assert.Contains(t, prev.Text, "greet says hello")
}

func TestParse_UnsupportedLanguage(t *testing.T) {
	_, err := Parse(context.Background(), "x.cob", []byte("data"), "cobol")
	assert.Error(t, err)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.py")
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    return 1\n"), 0o644))

	unit, err := ParseFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, unit.Name)
	assert.Equal(t, "python", unit.Lang.ID)

	_, err = ParseFile(context.Background(), filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}
