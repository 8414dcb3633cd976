package understory

// RangeMapper translates spans local to an injected SourceUnit into spans in
// the host document. Implementations must be pure: mapping the same local
// span twice yields the same host span.
type RangeMapper interface {
	InjectedToHost(local Span) Span
}

// OffsetMapper is the mapper for a pure injection: the embedded fragment
// appears verbatim in the host document at a fixed offset.
type OffsetMapper struct {
	Offset int
}

func (m OffsetMapper) InjectedToHost(local Span) Span {
	return local.Shift(m.Offset)
}

// SourceUnit is one analyzable tree: a host file or an injected fragment.
// Injected units are transient — created when the pass discovers them and
// discarded with the pass. The engine treats units as read-only.
type SourceUnit struct {
	// Name labels the unit; for host units this is typically the file path.
	Name string

	Lang    Language
	TextLen int

	// Root is the top element of the unit's tree.
	Root *Element

	// Host is the element hosting the injection. Nil for host units.
	Host *Element

	// Mapper translates local spans to host coordinates. Nil for host units.
	Mapper RangeMapper

	// Editable lists the editable fragments of an injected unit in local
	// coordinates. A finding overlapping several fragments is split into one
	// diagnostic per overlap; the part outside every fragment is dropped.
	Editable []Span
}

// Injected reports whether the unit is an injected fragment.
func (u *SourceUnit) Injected() bool {
	return u.Mapper != nil
}

// Elements returns every element of the unit's tree in document order,
// root first.
func (u *SourceUnit) Elements() []*Element {
	if u.Root == nil {
		return nil
	}
	var out []*Element
	u.Root.Walk(func(el *Element) bool {
		out = append(out, el)
		return true
	})
	return out
}

// Element is a node in a SourceUnit's tree. The tree is supplied by the tree
// provider collaborator and is read-only to the engine.
type Element struct {
	Lang Language
	Kind string
	Span Span

	// Text is the source text the element covers. Rules read it; the engine
	// itself never interprets it.
	Text string

	Parent   *Element
	Children []*Element

	// Embedded is the injected unit anchored at this element, if any
	// (e.g. a string literal hosting an embedded query).
	Embedded *SourceUnit
}

// AddChild appends child to the element and sets its parent link. Intended
// for tree providers and tests building units; not for use during a pass.
func (e *Element) AddChild(child *Element) *Element {
	child.Parent = e
	e.Children = append(e.Children, child)
	return child
}

// Walk visits the element and its subtree in document order. Returning false
// from fn prunes the subtree below the current element.
func (e *Element) Walk(fn func(*Element) bool) {
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// PrevSibling returns the element immediately before e under the same
// parent, or nil.
func (e *Element) PrevSibling() *Element {
	if e.Parent == nil {
		return nil
	}
	sibs := e.Parent.Children
	for i, s := range sibs {
		if s == e {
			if i == 0 {
				return nil
			}
			return sibs[i-1]
		}
	}
	return nil
}
