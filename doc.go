// Package understory is an incremental, concurrent analysis pass engine.
// Given a parsed source unit and a set of pluggable rules, it runs the
// applicable rules over the tree, surfaces results in a priority range
// first, recurses into injected sub-language fragments with coordinate
// translation back to the host document, streams diagnostics to a sink
// while analysis continues, and produces a final deduplicated diagnostic
// list with quick-fix actions and profile-resolved severities.
//
// # Pipeline
//
// One Run call drives a fixed sequence of phases. The unit's elements are
// partitioned into the priority range and the rest; the rule set is matched
// against the languages present; the priority partition executes first with
// live dispatch to the sink, followed by its injected units; then the rest
// partition and its injected units, reusing the matched scopes. Finalization
// converts the accumulated findings into diagnostics. Cancellation through
// the context is a first-class outcome, never a partial success.
//
// # Usage
//
//	pass := understory.NewPass(rules, profile,
//	    understory.WithSink(sink),
//	    understory.WithWorkers(4),
//	)
//	diags, err := pass.Run(ctx, unit, total, visible, true)
//
// # Collaborators
//
// The engine owns none of its inputs. The tree provider supplies SourceUnit
// trees (internal/sitter builds them with tree-sitter); the Profile supplies
// enabled state, severities and suppression (internal/profile backs it with
// sqlite); rules are opaque plugins behind the Rule interface
// (internal/script loads them from risor scripts); the Sink receives the
// incremental stream and must be idempotent under repeated delivery.
package understory
