package profile

import (
	"strings"

	"github.com/jward/understory"
)

// suppressMarker is the comment prefix that silences a rule for the element
// the comment precedes: "noinspect:<rule-id>", or "noinspect:all" for every
// rule.
const suppressMarker = "noinspect:"

// Profile resolves per-rule enabled state, severity, and suppression from a
// Store snapshot. It implements understory.Profile; lookups are in-memory,
// so one Profile can serve many concurrent passes.
type Profile struct {
	rules       map[string]RuleRecord
	suppressed  map[string]map[string]struct{}
	defaultSev  understory.Severity
	commentKind func(*understory.Element) bool
}

// Load reads the store's rules and suppressions into a Profile. Rules the
// store does not know are treated as enabled at the default severity.
func Load(store *Store) (*Profile, error) {
	recs, err := store.ListRules()
	if err != nil {
		return nil, err
	}
	sups, err := store.Suppressions()
	if err != nil {
		return nil, err
	}
	rules := make(map[string]RuleRecord, len(recs))
	for _, rec := range recs {
		rules[rec.ID] = rec
	}
	return &Profile{
		rules:      rules,
		suppressed: sups,
		defaultSev: understory.SevWarning,
		commentKind: func(el *understory.Element) bool {
			return strings.Contains(el.Kind, "comment")
		},
	}, nil
}

// Enabled reports whether the rule runs against the unit: the rule must not
// be disabled in the profile, and the unit must not carry a stored
// suppression for it. Injected units inherit their host unit's name check.
func (p *Profile) Enabled(ruleID string, unit *understory.SourceUnit) bool {
	if rec, ok := p.rules[ruleID]; ok && !rec.Enabled {
		return false
	}
	if unit == nil {
		return true
	}
	if units, ok := p.suppressed[ruleID]; ok {
		if _, hit := units[unit.Name]; hit {
			return false
		}
	}
	return true
}

// SeverityFor resolves the rule's configured severity, falling back to
// warning for unknown rules or unparseable severity names.
func (p *Profile) SeverityFor(ruleID string, unit *understory.SourceUnit) understory.Severity {
	rec, ok := p.rules[ruleID]
	if !ok {
		return p.defaultSev
	}
	sev, ok := understory.ParseSeverity(rec.Severity)
	if !ok {
		return p.defaultSev
	}
	return sev
}

// Suppressed reports whether a noinspect comment silences the rule for the
// element: a comment immediately preceding the element (or any of its
// ancestors) naming the rule ID or "all".
func (p *Profile) Suppressed(ruleID string, el *understory.Element) bool {
	for e := el; e != nil; e = e.Parent {
		prev := e.PrevSibling()
		if prev == nil || !p.commentKind(prev) {
			continue
		}
		if p.markerMatches(prev.Text, ruleID) {
			return true
		}
	}
	return false
}

func (p *Profile) markerMatches(comment, ruleID string) bool {
	idx := strings.Index(comment, suppressMarker)
	if idx < 0 {
		return false
	}
	rest := comment[idx+len(suppressMarker):]
	// The marker names one rule, or "all"; anything after whitespace is
	// ordinary comment text.
	if cut := strings.IndexFunc(rest, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '*' || r == '-'
	}); cut >= 0 {
		rest = rest[:cut]
	}
	return rest == ruleID || rest == "all"
}
