package understory

// ruleScope is one matched rule with the set of language IDs it applies to
// in this pass. A nil langs set means the rule is unrestricted and visits
// every element.
type ruleScope struct {
	rule  Rule
	meta  RuleMeta
	langs map[string]struct{}
}

// applies reports whether an element with the given language ID falls inside
// the scope.
func (rs *ruleScope) applies(langID string) bool {
	if rs.langs == nil {
		return true
	}
	_, ok := rs.langs[langID]
	return ok
}

// matchRules computes, for each candidate rule, the set of language IDs it
// applies to given the languages present across the inside and outside
// element partitions. Rules that match nothing are omitted. When dumbMode is
// set, rules not declared DumbAware are excluded regardless of language.
//
// A rule restricted to language L is scoped to {L} when L is present; with
// Dialects set it additionally covers every declared dialect of L. A rule
// restricted to a language that is itself a dialect of a
// present language matches (scoped to that dialect) only when it opts into
// dialect coverage.
func matchRules(rules []Rule, inside, outside []*Element, dumbMode bool) []*ruleScope {
	present := make(map[string]Language)
	dialects := make(map[string]struct{})
	collect := func(els []*Element) {
		for _, el := range els {
			if _, seen := present[el.Lang.ID]; seen {
				continue
			}
			present[el.Lang.ID] = el.Lang
			for _, d := range el.Lang.Dialects {
				dialects[d] = struct{}{}
			}
		}
	}
	collect(inside)
	collect(outside)

	var scopes []*ruleScope
	for _, rule := range rules {
		meta := rule.Meta()
		if dumbMode && !meta.DumbAware {
			continue
		}
		if meta.Language == "" {
			scopes = append(scopes, &ruleScope{rule: rule, meta: meta})
			continue
		}
		if lang, ok := present[meta.Language]; ok {
			langs := map[string]struct{}{meta.Language: {}}
			if meta.Dialects {
				for _, d := range lang.Dialects {
					langs[d] = struct{}{}
				}
			}
			scopes = append(scopes, &ruleScope{rule: rule, meta: meta, langs: langs})
			continue
		}
		if _, isDialect := dialects[meta.Language]; isDialect && meta.Dialects {
			langs := map[string]struct{}{meta.Language: {}}
			scopes = append(scopes, &ruleScope{rule: rule, meta: meta, langs: langs})
		}
	}
	return scopes
}
