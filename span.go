package understory

import "fmt"

// Span is a half-open [Start, End) byte range within a SourceUnit's text.
// For diagnostics the span is always expressed in host-document coordinates,
// even when the finding was discovered inside an injected unit.
type Span struct {
	Start int
	End   int
}

// NewSpan returns the span [start, end). Panics if end < start — spans are
// constructed from tree offsets, so an inverted span is a programming error.
func NewSpan(start, end int) Span {
	if end < start {
		panic(fmt.Sprintf("understory: inverted span [%d, %d)", start, end))
	}
	return Span{Start: start, End: end}
}

// Empty reports whether the span covers no text.
func (s Span) Empty() bool {
	return s.End <= s.Start
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	if s.Empty() {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether the byte offset lies within the span.
func (s Span) Contains(off int) bool {
	return off >= s.Start && off < s.End
}

// ContainsSpan reports whether o lies entirely within s.
func (s Span) ContainsSpan(o Span) bool {
	return o.Start >= s.Start && o.End <= s.End
}

// Intersects reports whether the two spans overlap. Empty spans intersect a
// span that contains their position, so a caret-width finding still lands in
// the partition that covers it.
func (s Span) Intersects(o Span) bool {
	if s.Empty() || o.Empty() {
		return s.Start <= o.End && o.Start <= s.End
	}
	return s.Start < o.End && o.Start < s.End
}

// Intersection returns the overlap of the two spans. ok is false when the
// spans do not overlap at all.
func (s Span) Intersection(o Span) (Span, bool) {
	start := max(s.Start, o.Start)
	end := min(s.End, o.End)
	if end < start {
		return Span{}, false
	}
	return Span{Start: start, End: end}, true
}

// Shift returns the span moved by delta bytes.
func (s Span) Shift(delta int) Span {
	return Span{Start: s.Start + delta, End: s.End + delta}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
