package understory

import (
	"context"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// runScopes executes one work item per matched rule scope against the given
// element batch, across the pass's worker pool. No item blocks another's
// start; the batch succeeds only if every item completed. A cancelled item
// aborts the whole batch and the error propagates to the controller as a
// pass-level cancellation.
func (ps *passState) runScopes(ctx context.Context, unit *SourceUnit, scopes []*ruleScope, elements []*Element, live, finish bool) error {
	if len(scopes) == 0 {
		return nil
	}
	// An empty batch still runs one item per scope in the finish phase, so
	// finishers fire even when the priority range covered everything.
	if len(elements) == 0 && !finish {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ps.workerLimit(len(scopes)))

	for _, scope := range scopes {
		scope := scope
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return ps.runScopeItem(gctx, unit, scope, elements, live, finish)
		})
	}
	return g.Wait()
}

// workerLimit caps pool parallelism at the configured worker count (one per
// CPU when unset) and the number of items.
func (ps *passState) workerLimit(items int) int {
	n := ps.pass.workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, items))
}

// runScopeItem runs one rule over one element batch. Findings accumulate in
// the reporter and are committed to the result store only when the item
// completes; a panicking rule is a contained fault — logged, its partial
// findings discarded, the batch unaffected. Cancellation is checked
// element-by-element.
func (ps *passState) runScopeItem(ctx context.Context, unit *SourceUnit, scope *ruleScope, elements []*Element, live, finish bool) (err error) {
	rep := ps.newReporter(ctx, unit, scope, live)

	faulted := false
	func() {
		defer func() {
			if r := recover(); r != nil {
				faulted = true
				ps.pass.logger.Error("rule fault, discarding its findings for this batch",
					slog.String("rule", scope.meta.ID),
					slog.String("unit", unit.Name),
					slog.Any("panic", r))
			}
		}()
		for _, el := range elements {
			if ctx.Err() != nil {
				return
			}
			if !scope.applies(el.Lang.ID) {
				continue
			}
			scope.rule.Visit(rep, el)
		}
		if finish && ctx.Err() == nil {
			if f, ok := scope.rule.(Finisher); ok {
				f.Finished(rep)
			}
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if !faulted {
		ps.commit(unit, scope, rep.take())
	}
	ps.progress.advance(1)
	return nil
}

// commit translates a reporter's findings into host coordinates and appends
// them to the result store. Once cancellation is set nothing further is
// committed; callers check the context before calling.
func (ps *passState) commit(unit *SourceUnit, scope *ruleScope, findings []Finding) {
	var stored []storedFinding
	for _, f := range findings {
		stored = append(stored, ps.translate(unit, scope.meta, f)...)
	}
	ps.results.append(unit, scope.rule, scope.meta, stored)
}

// translate maps one raw finding to zero or more stored findings in host
// coordinates. Host-unit findings pass through; injected-unit findings are
// intersected with the unit's editable fragments and mapped, producing one
// stored finding per overlap. Malformed findings are dropped with a log
// entry and do not affect their siblings.
func (ps *passState) translate(unit *SourceUnit, meta RuleMeta, f Finding) []storedFinding {
	if f.Element == nil {
		ps.pass.logger.Warn("dropping malformed finding with no element",
			slog.String("rule", meta.ID),
			slog.String("unit", unit.Name))
		return nil
	}
	local := f.Element.Span
	if !unit.Injected() {
		return []storedFinding{{Finding: f, span: local}}
	}

	var out []storedFinding
	for _, editable := range unit.Editable {
		overlap, ok := local.Intersection(editable)
		if !ok {
			continue
		}
		host := unit.Mapper.InjectedToHost(overlap)
		// An overlap collapsed to nothing by the mapping is dropped, unless
		// the finding was caret-width to begin with.
		if host.Empty() && !local.Empty() {
			continue
		}
		out = append(out, storedFinding{Finding: f, span: host, fromInjection: true})
	}
	return out
}
