package understory

import (
	"sync"
)

// stubRule is a scriptable rule for tests: visit and finished are invoked
// verbatim, meta is returned as-is.
type stubRule struct {
	meta     RuleMeta
	visit    func(rep *Reporter, el *Element)
	finished func(rep *Reporter)
}

func (r *stubRule) Meta() RuleMeta { return r.meta }

func (r *stubRule) Visit(rep *Reporter, el *Element) {
	if r.visit != nil {
		r.visit(rep, el)
	}
}

// finisherRule adds the Finished hook on top of stubRule.
type finisherRule struct {
	stubRule
}

func (r *finisherRule) Finished(rep *Reporter) {
	if r.finished != nil {
		r.finished(rep)
	}
}

// stubProfile enables everything at SevWarning unless overridden.
type stubProfile struct {
	disabled   map[string]bool
	severity   map[string]Severity
	enabledFn  func(ruleID string, unit *SourceUnit) bool
	severityFn func(ruleID string, unit *SourceUnit) Severity
	suppressed func(ruleID string, el *Element) bool
}

func (p *stubProfile) Enabled(ruleID string, unit *SourceUnit) bool {
	if p.enabledFn != nil {
		return p.enabledFn(ruleID, unit)
	}
	return !p.disabled[ruleID]
}

func (p *stubProfile) SeverityFor(ruleID string, unit *SourceUnit) Severity {
	if p.severityFn != nil {
		return p.severityFn(ruleID, unit)
	}
	if s, ok := p.severity[ruleID]; ok {
		return s
	}
	return SevWarning
}

func (p *stubProfile) Suppressed(ruleID string, el *Element) bool {
	if p.suppressed == nil {
		return false
	}
	return p.suppressed(ruleID, el)
}

func allEnabled() *stubProfile {
	return &stubProfile{}
}

// recordingSink collects applied diagnostics under a lock, since Apply runs
// on the dispatcher's consumer goroutine.
type recordingSink struct {
	mu    sync.Mutex
	diags []Diagnostic
}

func (s *recordingSink) Apply(d Diagnostic) {
	s.mu.Lock()
	s.diags = append(s.diags, d)
	s.mu.Unlock()
}

func (s *recordingSink) applied() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	return out
}

var (
	langGo = Language{ID: "go"}
	langA  = Language{ID: "A", Dialects: []string{"B"}}
	langB  = Language{ID: "B"}
)

// newTestUnit builds a flat host unit: a root spanning [0, size) with one
// leaf child per given span, all in langGo.
func newTestUnit(name string, size int, spans ...Span) *SourceUnit {
	root := &Element{Lang: langGo, Kind: "file", Span: NewSpan(0, size)}
	for _, sp := range spans {
		root.AddChild(&Element{Lang: langGo, Kind: "leaf", Span: sp})
	}
	return &SourceUnit{Name: name, Lang: langGo, TextLen: size, Root: root}
}

// embedUnit anchors an injected unit on el: a single-leaf tree in lang,
// local coordinates [0, length), mapped into the host at el.Span.Start,
// fully editable unless editable spans are given.
func embedUnit(el *Element, lang Language, length int, editable ...Span) *SourceUnit {
	root := &Element{Lang: lang, Kind: "fragment", Span: NewSpan(0, length)}
	root.AddChild(&Element{Lang: lang, Kind: "leaf", Span: NewSpan(0, length)})
	if len(editable) == 0 {
		editable = []Span{NewSpan(0, length)}
	}
	u := &SourceUnit{
		Name:     el.Kind + "#injected",
		Lang:     lang,
		TextLen:  length,
		Root:     root,
		Host:     el,
		Mapper:   OffsetMapper{Offset: el.Span.Start},
		Editable: editable,
	}
	el.Embedded = u
	return u
}

// titledFix is the minimal Fix for tests.
type titledFix struct{ title string }

func (f titledFix) Title() string { return f.title }
