package script

import (
	"context"
	"log/slog"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/object"

	"github.com/jward/understory"
)

// ScriptRule is one Risor-scripted analysis rule. The script runs once per
// visited element with an `element` global and a `report` host function; a
// script error is logged and the element is skipped, matching the engine's
// containment of native rule faults.
type ScriptRule struct {
	meta   understory.RuleMeta
	source string
	path   string
	logger *slog.Logger
}

func (r *ScriptRule) Meta() understory.RuleMeta {
	return r.meta
}

// Source returns the script body, header pragmas included.
func (r *ScriptRule) Source() string {
	return r.source
}

func (r *ScriptRule) Visit(rep *understory.Reporter, el *understory.Element) {
	ctx := context.Background()
	opts := []risor.Option{
		risor.WithGlobal("element", elementValue(el)),
		risor.WithGlobal("report", r.reportFn(rep, el)),
	}
	if _, err := risor.Eval(ctx, r.source, opts...); err != nil {
		r.logger.Error("rule script failed, skipping element",
			slog.String("rule", r.meta.ID),
			slog.String("script", r.path),
			slog.String("kind", el.Kind),
			slog.Any("error", err))
	}
}

// elementValue exposes an element to the script as a plain map: kind, text,
// span offsets, language, and the same view of its children.
func elementValue(el *understory.Element) map[string]any {
	children := make([]any, 0, len(el.Children))
	for _, c := range el.Children {
		children = append(children, map[string]any{
			"kind":  c.Kind,
			"text":  c.Text,
			"start": c.Span.Start,
			"end":   c.Span.End,
			"lang":  c.Lang.ID,
		})
	}
	return map[string]any{
		"kind":     el.Kind,
		"text":     el.Text,
		"start":    el.Span.Start,
		"end":      el.Span.End,
		"lang":     el.Lang.ID,
		"children": children,
	}
}

// reportFn builds the `report` host function.
//
//	report(message)
//	report(message, {"severity": "error", "after_end_of_line": true})
func (r *ScriptRule) reportFn(rep *understory.Reporter, el *understory.Element) *object.Builtin {
	return object.NewBuiltin("report", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) < 1 || len(args) > 2 {
			return object.NewArgsRangeError("report", 1, 2, len(args))
		}
		msg, ok := args[0].(*object.String)
		if !ok {
			return object.Errorf("report: message must be a string, got %s", args[0].Type())
		}

		f := understory.Finding{Element: el, Message: msg.Value()}
		if len(args) == 2 {
			optsMap, ok := args[1].(*object.Map)
			if !ok {
				return object.Errorf("report: options must be a map, got %s", args[1].Type())
			}
			m := optsMap.Value()
			if name := getString(m, "severity"); name != "" {
				sev, known := understory.ParseSeverity(name)
				if !known {
					return object.Errorf("report: unknown severity %q", name)
				}
				f.Severity = sev
			}
			f.AfterEndOfLine = getBool(m, "after_end_of_line")
			f.FileLevel = getBool(m, "file_level")
			f.Group = getString(m, "group")
		}
		rep.Report(f)
		return object.Nil
	})
}

func getString(m map[string]object.Object, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	if s, ok := v.(*object.String); ok {
		return s.Value()
	}
	return ""
}

func getBool(m map[string]object.Object, key string) bool {
	v, ok := m[key]
	if !ok {
		return false
	}
	if b, ok := v.(*object.Bool); ok {
		return b.Value()
	}
	return false
}
