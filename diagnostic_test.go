package understory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMessage_Plain(t *testing.T) {
	plain, tooltip := renderMessage("unused variable 'x'", "")

	assert.Equal(t, "unused variable 'x'", plain)
	assert.Equal(t, "<html>unused variable &#39;x&#39;</html>", tooltip)
}

func TestRenderMessage_EscapesForTooltip(t *testing.T) {
	plain, tooltip := renderMessage("expected <expr>", "")

	assert.Equal(t, "expected <expr>", plain)
	assert.Contains(t, tooltip, "&lt;expr&gt;")
	assert.NotContains(t, tooltip, "<expr>")
}

func TestRenderMessage_MarkupKeptForTooltip(t *testing.T) {
	plain, tooltip := renderMessage("<html>use <b>strings.Builder</b> instead</html>", "")

	assert.Equal(t, "use strings.Builder instead", plain)
	assert.Equal(t, "<html>use <b>strings.Builder</b> instead</html>", tooltip)
}

func TestRenderMessage_AppendsLink(t *testing.T) {
	link := descriptionLink("unused-var", "")
	_, tooltip := renderMessage("unused", link)

	assert.Contains(t, tooltip, `href="#rule/unused-var"`)
}

func TestDescriptionLink_IncludesShortcut(t *testing.T) {
	link := descriptionLink("r1", "Ctrl+F1")

	assert.Contains(t, link, "#rule/r1")
	assert.Contains(t, link, "Ctrl+F1")
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "ab", stripTags("<i>a</i>b"))
	assert.Equal(t, "plain", stripTags("plain"))
	assert.Equal(t, "", stripTags("<br/>"))
}

func TestBuildActions_UsesSuppliedFixes(t *testing.T) {
	f := storedFinding{Finding: Finding{Fixes: []Fix{titledFix{"Remove it"}, nil, titledFix{"Rename"}}}}
	seen := make(map[actionKey]struct{})

	actions := buildActions(f, RuleMeta{ID: "r"}, seen)

	require.Len(t, actions, 2)
	assert.Equal(t, "Remove it", actions[0].Title)
	assert.NotNil(t, actions[0].Fix)
	// Supplied fixes never consume a placeholder slot.
	assert.Empty(t, seen)
}

func TestBuildActions_SynthesizesPlaceholderOnce(t *testing.T) {
	meta := RuleMeta{ID: "r", Name: "Unused variable"}
	f := storedFinding{span: NewSpan(10, 20)}
	seen := make(map[actionKey]struct{})

	first := buildActions(f, meta, seen)
	require.Len(t, first, 1)
	assert.Equal(t, `Show "Unused variable" description`, first[0].Title)
	assert.Nil(t, first[0].Fix)

	// Same span, same rule: no second placeholder.
	assert.Nil(t, buildActions(f, meta, seen))

	// A different span gets its own placeholder.
	other := storedFinding{span: NewSpan(30, 40)}
	assert.Len(t, buildActions(other, meta, seen), 1)
}

func TestBuildActions_IndependentAcrossRules(t *testing.T) {
	f := storedFinding{span: NewSpan(10, 20)}
	seen := make(map[actionKey]struct{})

	a := buildActions(f, RuleMeta{ID: "r1"}, seen)
	b := buildActions(f, RuleMeta{ID: "r2"}, seen)

	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}

func TestSortDiagnostics(t *testing.T) {
	diags := []Diagnostic{
		{RuleID: "b", Span: NewSpan(20, 30), Severity: SevWarning},
		{RuleID: "a", Span: NewSpan(10, 15), Severity: SevInfo},
		{RuleID: "c", Span: NewSpan(10, 15), Severity: SevError},
	}

	SortDiagnostics(diags)

	assert.Equal(t, "c", diags[0].RuleID) // same span, higher severity first
	assert.Equal(t, "a", diags[1].RuleID)
	assert.Equal(t, "b", diags[2].RuleID)
}
