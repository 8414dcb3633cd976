package understory

import "context"

// collectEmbedded gathers the injected units anchored on the given elements
// (or their subtrees' anchors already included in the element list), skipping
// units already seen. An embedded unit reachable from multiple elements is
// returned once.
func collectEmbedded(elements []*Element, seen map[*SourceUnit]struct{}) []*SourceUnit {
	var units []*SourceUnit
	for _, el := range elements {
		u := el.Embedded
		if u == nil {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		units = append(units, u)
	}
	return units
}

// visitInjected re-enters the pipeline for every injected unit reachable
// from the given elements. It runs as an explicit worklist rather than call
// recursion: each popped unit gets a cancellation check, its own rule match,
// and a full scope execution; units its elements embed in turn are pushed
// back on the worklist, so depth is bounded by the tree's actual embedding
// depth. Findings are translated to host coordinates when committed.
func (ps *passState) visitInjected(ctx context.Context, elements []*Element, live bool) error {
	queue := collectEmbedded(elements, ps.seenInjected)
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		unit := queue[0]
		queue = queue[1:]

		els := unit.Elements()
		if len(els) == 0 {
			continue
		}
		queue = append(queue, collectEmbedded(els, ps.seenInjected)...)

		// A suppression on the hosting element silences the whole fragment
		// for that rule.
		scopes := matchRules(ps.pass.rules, els, nil, ps.pass.dumbMode)
		var kept []*ruleScope
		for _, scope := range scopes {
			if ps.ignoreSuppressed && unit.Host != nil &&
				ps.pass.profile.Suppressed(scope.meta.ID, unit.Host) {
				continue
			}
			kept = append(kept, scope)
		}
		if err := ps.runScopes(ctx, unit, kept, els, live, true); err != nil {
			return err
		}
	}
	return nil
}
