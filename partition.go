package understory

// divide splits a unit's elements into the priority partition (overlapping
// the priority span) and the rest (within the total span but outside the
// priority span). Both slices preserve document order; no element appears in
// both, and elements outside the total span are excluded entirely. filter is
// the external should-analyze predicate on the containing unit; a unit that
// fails it contributes no elements at all.
func divide(unit *SourceUnit, total, priority Span, filter func(*SourceUnit) bool) (inside, outside []*Element) {
	if unit == nil || unit.Root == nil {
		return nil, nil
	}
	if filter != nil && !filter(unit) {
		return nil, nil
	}
	unit.Root.Walk(func(el *Element) bool {
		if !el.Span.Intersects(total) {
			// Children lie within the parent span, so nothing below can
			// intersect either.
			return false
		}
		if el.Span.Intersects(priority) {
			inside = append(inside, el)
		} else {
			outside = append(outside, el)
		}
		return true
	})
	return inside, outside
}
