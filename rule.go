package understory

// RuleMeta is the static metadata a rule declares.
type RuleMeta struct {
	// ID is the rule's identity key, used for profile lookup, suppression and
	// placeholder-action dedup.
	ID string

	// Name is the human-readable display name used in synthesized actions.
	Name string

	// Language restricts the rule to one language ID. Empty means the rule
	// applies to every language present in the pass.
	Language string

	// Dialects opts the rule into covering declared dialects of its language.
	Dialects bool

	// DumbAware marks the rule safe to run while supporting indexes are
	// incomplete. Rules without it are skipped under restricted indexing.
	DumbAware bool
}

// Rule is one pluggable analysis unit. Rules are supplied externally and
// invoked through this narrow interface; the engine only references them for
// the duration of one pass and never invokes the same rule concurrently with
// itself.
type Rule interface {
	Meta() RuleMeta

	// Visit inspects one element and reports findings through rep. The
	// element batch a rule sees is pre-filtered to its matched language
	// scope.
	Visit(rep *Reporter, el *Element)
}

// Finisher is implemented by rules that need a hook after the last element of
// a pass has been visited (end of the rest scan, or end of an injected unit).
type Finisher interface {
	Finished(rep *Reporter)
}

// Fix is an opaque quick-fix action supplied by a rule. The engine attaches
// fixes to diagnostics without interpreting them.
type Fix interface {
	Title() string
}

// Finding is a raw result a rule reports before finalization.
type Finding struct {
	// Element the finding attaches to. A finding with a nil element is
	// malformed and dropped with a log entry.
	Element *Element

	// Message may carry markup (an <html> prefix); the builder strips it for
	// the plain-text message and keeps it for the tooltip.
	Message string

	// Severity overrides the profile-resolved severity when not SevDefault.
	Severity Severity

	Fixes []Fix

	AfterEndOfLine bool
	FileLevel      bool

	// Group tags related findings for the presentation collaborator.
	Group string
}

// Reporter collects the findings of one rule against one element batch.
// Findings accumulate locally and are committed to the pass's result store
// only when the work item completes, so a rule fault discards its partial
// findings without touching the store.
type Reporter struct {
	unit     *SourceUnit
	rule     Rule
	findings []Finding

	// onReport, when set, streams each finding to the incremental dispatcher
	// as it is reported (live mode on the priority set).
	onReport func(Finding)
}

// NewCollectingReporter builds a standalone reporter that forwards every
// finding to fn. Intended for testing rule implementations outside a pass;
// the engine builds its own reporters during Run.
func NewCollectingReporter(fn func(Finding)) *Reporter {
	return &Reporter{onReport: fn}
}

// Report records one finding.
func (r *Reporter) Report(f Finding) {
	r.findings = append(r.findings, f)
	if r.onReport != nil {
		r.onReport(f)
	}
}

// Unit returns the source unit the reporter's batch belongs to.
func (r *Reporter) Unit() *SourceUnit {
	return r.unit
}

// Len returns the number of findings reported so far.
func (r *Reporter) Len() int {
	return len(r.findings)
}

func (r *Reporter) take() []Finding {
	out := r.findings
	r.findings = nil
	return out
}

// Profile is the rule registry / profile collaborator: per-rule enabled and
// severity state plus a suppression predicate, queried by rule identity.
type Profile interface {
	Enabled(ruleID string, unit *SourceUnit) bool
	SeverityFor(ruleID string, unit *SourceUnit) Severity
	Suppressed(ruleID string, el *Element) bool
}

// Sink is the presentation collaborator's incremental entry point. Apply may
// be called with the same diagnostic more than once (live dispatch followed
// by the final list); implementations must be idempotent.
type Sink interface {
	Apply(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Diagnostic)

func (f SinkFunc) Apply(d Diagnostic) { f(d) }
