package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jward/understory"
)

// CLIDiagnostic is the output shape shared by the json and msgpack formats.
type CLIDiagnostic struct {
	File     string   `json:"file" msgpack:"file"`
	RuleID   string   `json:"rule" msgpack:"rule"`
	Severity string   `json:"severity" msgpack:"severity"`
	Start    int      `json:"start" msgpack:"start"`
	End      int      `json:"end" msgpack:"end"`
	Message  string   `json:"message" msgpack:"message"`
	Actions  []string `json:"actions,omitempty" msgpack:"actions,omitempty"`
	Injected bool     `json:"injected,omitempty" msgpack:"injected,omitempty"`
}

func toCLIDiagnostic(file string, d understory.Diagnostic) CLIDiagnostic {
	out := CLIDiagnostic{
		File:     file,
		RuleID:   d.RuleID,
		Severity: d.Severity.String(),
		Start:    d.Span.Start,
		End:      d.Span.End,
		Message:  d.Message,
		Injected: d.FromInjection,
	}
	for _, a := range d.Actions {
		out.Actions = append(out.Actions, a.Title)
	}
	return out
}

func writeDiagnostics(w io.Writer, format string, diags []CLIDiagnostic) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(diags)
	case "msgpack":
		return msgpack.NewEncoder(w).Encode(diags)
	default:
		writeText(w, diags)
		return nil
	}
}

var severityColors = map[string]*color.Color{
	"error":   color.New(color.FgRed, color.Bold),
	"warning": color.New(color.FgYellow),
	"info":    color.New(color.FgCyan),
	"hint":    color.New(color.FgHiBlack),
}

func colorSeverity(name string) string {
	if c, ok := severityColors[name]; ok {
		return c.Sprint(name)
	}
	return name
}

func writeText(w io.Writer, diags []CLIDiagnostic) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tRANGE\tSEVERITY\tRULE\tMESSAGE")
	for _, d := range diags {
		fmt.Fprintf(tw, "%s\t%d:%d\t%s\t%s\t%s\n",
			d.File, d.Start, d.End, colorSeverity(d.Severity), d.RuleID, d.Message)
	}
	tw.Flush()
}

// streamingSink prints diagnostics as the pass discovers them. Live dispatch
// may deliver a diagnostic more than once across phases, so output is
// deduplicated by (rule, span, message).
type streamingSink struct {
	w    io.Writer
	mu   sync.Mutex
	seen map[string]struct{}
}

func newStreamingSink(w io.Writer) *streamingSink {
	return &streamingSink{w: w, seen: make(map[string]struct{})}
}

func (s *streamingSink) Apply(d understory.Diagnostic) {
	key := fmt.Sprintf("%s|%d:%d|%s", d.RuleID, d.Span.Start, d.Span.End, d.Message)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[key]; dup {
		return
	}
	s.seen[key] = struct{}{}
	fmt.Fprintf(s.w, "[live] %d:%d %s %s: %s\n",
		d.Span.Start, d.Span.End, colorSeverity(d.Severity.String()), d.RuleID, d.Message)
}
