package understory

import (
	"fmt"
	"html"
	"sort"
	"strings"
)

// Action is one entry in a diagnostic's action list. Fix is nil for the
// synthesized "show description" placeholder.
type Action struct {
	Title string
	Fix   Fix
}

// Diagnostic is a finalized finding: resolved severity, rendered message and
// tooltip, host-coordinate span, and at least one action.
type Diagnostic struct {
	RuleID   string
	Severity Severity
	Span     Span

	// Message is the plain-text rendering used in status and summary views.
	Message string

	// Tooltip retains markup for hover rendering; empty when the finding
	// carried no markup and no tooltip was built.
	Tooltip string

	Actions []Action

	AfterEndOfLine bool
	FileLevel      bool
	Group          string
	FromInjection  bool
}

// actionKey identifies a (span, rule) pair for placeholder-action dedup.
type actionKey struct {
	span   Span
	ruleID string
}

const htmlPrefix = "<html>"

// renderMessage splits a finding message into its plain-text form and an
// optional tooltip. Messages starting with <html> keep their markup for the
// tooltip and are stripped for the plain message; plain messages are escaped
// before being wrapped for the tooltip.
func renderMessage(message, link string) (plain, tooltip string) {
	if strings.HasPrefix(message, htmlPrefix) {
		inner := stripHTMLWrapper(message)
		plain = html.UnescapeString(stripTags(inner))
		tooltip = wrapInHTML(inner + link)
		return plain, tooltip
	}
	return message, wrapInHTML(html.EscapeString(message) + link)
}

// stripHTMLWrapper removes a surrounding <html>...</html> pair.
func stripHTMLWrapper(s string) string {
	s = strings.TrimPrefix(s, htmlPrefix)
	s = strings.TrimSuffix(s, "</html>")
	return s
}

func wrapInHTML(s string) string {
	return htmlPrefix + s + "</html>"
}

// stripTags removes every <...> tag from s, keeping the text between tags.
func stripTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// descriptionLink renders the trailing "read more" link appended to
// tooltips, including the externally supplied shortcut text.
func descriptionLink(ruleID, shortcut string) string {
	link := fmt.Sprintf(` <a href="#rule/%s">more…</a>`, ruleID)
	if shortcut != "" {
		link += " " + shortcut
	}
	return link
}

// buildActions assembles a diagnostic's action list from the finding's
// fixes. When the finding supplied none, a single placeholder action is
// synthesized — at most once per (span, rule) pair, tracked in seen.
func buildActions(f storedFinding, meta RuleMeta, seen map[actionKey]struct{}) []Action {
	var actions []Action
	for _, fix := range f.Fixes {
		if fix == nil {
			// Rules occasionally pass nil fixes through variadic plumbing.
			continue
		}
		actions = append(actions, Action{Title: fix.Title(), Fix: fix})
	}
	if len(actions) > 0 {
		return actions
	}
	key := actionKey{span: f.span, ruleID: meta.ID}
	if _, dup := seen[key]; dup {
		return nil
	}
	seen[key] = struct{}{}
	name := meta.Name
	if name == "" {
		name = meta.ID
	}
	return []Action{{Title: fmt.Sprintf("Show %q description", name)}}
}

// SortDiagnostics orders diagnostics by span, then severity (descending),
// then rule ID. The pass itself guarantees no particular order across rules
// or units; callers that need determinism sort the final list.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Span.Start != b.Span.Start {
			return a.Span.Start < b.Span.Start
		}
		if a.Span.End != b.Span.End {
			return a.Span.End < b.Span.End
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.RuleID < b.RuleID
	})
}
