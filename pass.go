package understory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// initialProgressGuess is the progress limit used until the rule match
// result replaces it with the real item count.
const initialProgressGuess = 600

// Pass runs a set of rules over a source unit: priority partition first with
// live incremental dispatch, then the rest, recursing into injected units,
// and finally assembling the deduplicated diagnostic list. A Pass is
// reusable and safe for concurrent Run calls; all per-run state lives in a
// passState created and discarded per invocation.
type Pass struct {
	rules   []Rule
	profile Profile

	sink     Sink
	filter   func(*SourceUnit) bool
	workers  int
	queueCap int
	dumbMode bool
	shortcut string
	progress func(done, total int64)
	logger   *slog.Logger
}

// Option configures a Pass.
type Option func(*Pass)

// WithSink installs the presentation collaborator that receives diagnostics
// incrementally while the pass is still running. Without a sink, live
// dispatch is disabled and only the final list is produced.
func WithSink(s Sink) Option {
	return func(p *Pass) { p.sink = s }
}

// WithWorkers sets the worker pool size. Zero or negative means one worker
// per CPU.
func WithWorkers(n int) Option {
	return func(p *Pass) { p.workers = n }
}

// WithQueueCapacity bounds the incremental dispatch queue.
func WithQueueCapacity(n int) Option {
	return func(p *Pass) { p.queueCap = n }
}

// WithFilter installs the external should-analyze predicate consulted per
// source unit. Units failing it contribute no elements.
func WithFilter(fn func(*SourceUnit) bool) Option {
	return func(p *Pass) { p.filter = fn }
}

// WithRestrictedIndexing excludes rules not declared DumbAware, for running
// while supporting indexes are incomplete.
func WithRestrictedIndexing(on bool) Option {
	return func(p *Pass) { p.dumbMode = on }
}

// WithProgress installs a progress callback invoked once per completed
// rule-scope item with the done count and the current expected total.
func WithProgress(fn func(done, total int64)) Option {
	return func(p *Pass) { p.progress = fn }
}

// WithLogger sets the structured logger for rule faults and dropped
// findings. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pass) { p.logger = l }
}

// WithShortcutText appends externally resolved keymap shortcut text to
// tooltip description links.
func WithShortcutText(s string) Option {
	return func(p *Pass) { p.shortcut = s }
}

// NewPass creates a Pass over the given rules and profile.
func NewPass(rules []Rule, profile Profile, opts ...Option) *Pass {
	p := &Pass{
		rules:    rules,
		profile:  profile,
		queueCap: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// passState is the per-run mutable state: result store, dispatcher handle,
// progress counters, injected-unit dedup, and the placeholder-action dedup
// set shared with live dispatch. Discarded wholesale when Run returns.
type passState struct {
	pass             *Pass
	host             *SourceUnit
	total, priority  Span
	ignoreSuppressed bool

	results      *resultStore
	dispatch     *dispatcher
	progress     *progressTracker
	seenInjected map[*SourceUnit]struct{}

	mu           sync.Mutex
	emptyActions map[actionKey]struct{}
}

// Run executes one full pass over unit. total bounds the analysis; priority
// is the sub-range surfaced first. An empty priority span acts as a caret:
// elements covering its offset are still surfaced first. To disable
// prioritization entirely, pass an empty span outside the total range.
//
// On success it returns the final deduplicated diagnostic list. Cancellation
// is a first-class outcome, not a partial success: the returned error
// satisfies errors.Is(err, context.Canceled) (or DeadlineExceeded) and all
// partial state is discarded. Any other error is a fatal internal fault.
func (p *Pass) Run(ctx context.Context, unit *SourceUnit, total, priority Span, ignoreSuppressed bool) ([]Diagnostic, error) {
	if unit == nil {
		return nil, fmt.Errorf("understory: nil source unit")
	}
	if len(p.rules) == 0 {
		return nil, nil
	}
	if p.filter != nil && !p.filter(unit) {
		return nil, nil
	}

	ps := &passState{
		pass:             p,
		host:             unit,
		total:            total,
		priority:         priority,
		ignoreSuppressed: ignoreSuppressed,
		results:          newResultStore(),
		progress:         newProgressTracker(initialProgressGuess, p.progress),
		seenInjected:     make(map[*SourceUnit]struct{}),
		emptyActions:     make(map[actionKey]struct{}),
	}

	if p.sink != nil {
		ps.dispatch = newDispatcher(p.queueCap)
		ps.dispatch.start(ctx, ps.applyLive)
	}

	err := ps.run(ctx)

	// The consumer must be fully drained (or stopped by cancellation) before
	// finalization reads the shared dedup state.
	if ps.dispatch != nil {
		ps.dispatch.close()
		ps.dispatch.wait()
	}

	if err != nil {
		return nil, err
	}
	return ps.buildDiagnostics(ctx)
}

// run drives the scan phases: priority partition with live dispatch and its
// injected units, then the rest partition and its injected units. Rule
// scopes matched for the priority phase are reused for the rest phase.
func (ps *passState) run(ctx context.Context) error {
	inside, outside := divide(ps.host, ps.total, ps.priority, ps.pass.filter)

	// Even with no scope matching the host language, injected units still get
	// their own rule match below.
	scopes := matchRules(ps.pass.rules, inside, outside, ps.pass.dumbMode)
	ps.progress.setLimit(int64(len(scopes)) * 2)

	// Priority scan: live dispatch on, injected units in the visible range
	// streamed as well.
	if err := ps.runScopes(ctx, ps.host, scopes, inside, true, false); err != nil {
		return err
	}
	if err := ps.visitInjected(ctx, inside, true); err != nil {
		return err
	}
	if ps.dispatch != nil {
		// Phase barrier: priority diagnostics reach the sink before the rest
		// scan starts.
		ps.dispatch.drain(ctx)
	}

	// Rest scan: same scopes, live dispatch off, finishers invoked.
	if err := ps.runScopes(ctx, ps.host, scopes, outside, false, true); err != nil {
		return err
	}
	if err := ps.visitInjected(ctx, outside, false); err != nil {
		return err
	}

	return ctx.Err()
}

// newReporter builds the reporter for one work item. In live mode each
// reported finding is translated and offered to the dispatcher immediately,
// independent of final aggregation; suppressed findings are not streamed.
func (ps *passState) newReporter(ctx context.Context, unit *SourceUnit, scope *ruleScope, live bool) *Reporter {
	rep := &Reporter{unit: unit, rule: scope.rule}
	if !live || ps.dispatch == nil {
		return rep
	}
	rep.onReport = func(f Finding) {
		if f.Element == nil {
			return
		}
		if ps.ignoreSuppressed && ps.pass.profile.Suppressed(scope.meta.ID, f.Element) {
			return
		}
		for _, sf := range ps.translate(unit, scope.meta, f) {
			ps.dispatch.offer(ctx, dispatchItem{finding: sf, rule: scope.rule, meta: scope.meta, unit: unit})
		}
	}
	return rep
}

// applyLive finalizes one dispatched finding and hands it to the sink. It
// shares the per-pass placeholder-dedup set, so a live placeholder and the
// final list agree on which (span, rule) pair owns the synthesized action.
func (ps *passState) applyLive(item dispatchItem) {
	ps.mu.Lock()
	d, ok := ps.finalize(item.finding, item.meta, item.unit, ps.emptyActions)
	ps.mu.Unlock()
	if ok {
		ps.pass.sink.Apply(d)
	}
}

// buildDiagnostics runs the diagnostic builder over the full result store —
// host unit plus every injected unit discovered — producing the final list.
// Placeholder dedup uses a fresh set so the final list satisfies the
// one-placeholder-per-(span, rule) invariant on its own.
func (ps *passState) buildDiagnostics(ctx context.Context) ([]Diagnostic, error) {
	var (
		diags []Diagnostic
		err   error
	)
	seen := make(map[actionKey]struct{})
	ps.results.each(func(unit *SourceUnit, results []ruleFindings) {
		if err != nil {
			return
		}
		if err = ctx.Err(); err != nil {
			return
		}
		for _, rf := range results {
			for _, f := range rf.list {
				if d, ok := ps.finalize(f, rf.meta, unit, seen); ok {
					diags = append(diags, d)
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return diags, nil
}

// finalize converts one stored finding into a diagnostic. Profile lookups
// are keyed by rule identity and the finding's owning unit, so an injected
// fragment can carry its own enabled state and severity. It returns false
// when the rule is disabled for that unit or the finding is suppressed.
func (ps *passState) finalize(f storedFinding, meta RuleMeta, unit *SourceUnit, seen map[actionKey]struct{}) (Diagnostic, bool) {
	if !ps.pass.profile.Enabled(meta.ID, unit) {
		return Diagnostic{}, false
	}
	if ps.ignoreSuppressed && f.Element != nil &&
		ps.pass.profile.Suppressed(meta.ID, f.Element) {
		return Diagnostic{}, false
	}

	severity := f.Severity
	if severity == SevDefault {
		severity = ps.pass.profile.SeverityFor(meta.ID, unit)
	}

	link := descriptionLink(meta.ID, ps.pass.shortcut)
	plain, tooltip := renderMessage(f.Message, link)

	return Diagnostic{
		RuleID:         meta.ID,
		Severity:       severity,
		Span:           f.span,
		Message:        plain,
		Tooltip:        tooltip,
		Actions:        buildActions(f, meta, seen),
		AfterEndOfLine: f.AfterEndOfLine,
		FileLevel:      f.FileLevel,
		Group:          f.Group,
		FromInjection:  f.fromInjection,
	}, true
}

// progressTracker counts completed rule-scope items against an expected
// total. The total starts as a rough guess and is recomputed once the rule
// match result is known.
type progressTracker struct {
	done  atomic.Int64
	limit atomic.Int64
	fn    func(done, total int64)
}

func newProgressTracker(limit int64, fn func(done, total int64)) *progressTracker {
	t := &progressTracker{fn: fn}
	t.limit.Store(limit)
	return t
}

func (t *progressTracker) setLimit(limit int64) {
	t.limit.Store(limit)
}

func (t *progressTracker) advance(n int64) {
	done := t.done.Add(n)
	if t.fn != nil {
		t.fn(done, t.limit.Load())
	}
}
